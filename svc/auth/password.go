package auth

import "golang.org/x/crypto/bcrypt"

// PasswordVerifier checks a plain password against a stored adaptive hash.
type PasswordVerifier interface {
	Verify(plain, hash string) bool
}

// PasswordHasher produces a stored hash from a plain password. The salt is
// managed internally by the hash function.
type PasswordHasher interface {
	Hash(plain string) (string, error)
}

// BcryptPassword implements both sides over bcrypt.
type BcryptPassword struct {
	cost int
}

// NewBcryptPassword creates a BcryptPassword. A non-positive cost falls back
// to bcrypt.DefaultCost.
func NewBcryptPassword(cost int) *BcryptPassword {
	if cost <= 0 {
		cost = bcrypt.DefaultCost
	}
	return &BcryptPassword{cost: cost}
}

// Hash returns the bcrypt hash of the password with an internally generated
// random salt.
func (b *BcryptPassword) Hash(plain string) (string, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(plain), b.cost)
	if err != nil {
		return "", err
	}
	return string(hash), nil
}

// Verify reports whether the password matches the stored hash. bcrypt's
// comparison is constant-time over the hash.
func (b *BcryptPassword) Verify(plain, hash string) bool {
	return bcrypt.CompareHashAndPassword([]byte(hash), []byte(plain)) == nil
}
