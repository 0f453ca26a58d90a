package signer

import (
	"crypto/hmac"
	"crypto/sha256"
	"crypto/subtle"
	"encoding/base64"
)

// MinSecretLength is the minimum accepted secret size in bytes. HMAC-SHA256
// keys shorter than the hash output weaken the construction, so anything
// below 32 bytes is rejected at construction time.
const MinSecretLength = 32

// Delimiter separates the identifier and signature segments of a signed token.
const Delimiter = "."

// Signer signs and verifies session identifiers with a shared secret.
// It is stateless and safe for concurrent use.
type Signer struct {
	secret []byte
}

// New creates a Signer from the shared secret. Returns ErrWeakSecret when the
// secret is shorter than MinSecretLength.
func New(secret string) (*Signer, error) {
	if len(secret) < MinSecretLength {
		return nil, ErrWeakSecret
	}
	return &Signer{secret: []byte(secret)}, nil
}

// Sign returns the signed wire form of a raw identifier:
// "<id>.<base64url(HMAC-SHA256(id))>". Deterministic for a fixed secret.
func (s *Signer) Sign(id string) string {
	return id + Delimiter + s.signature(id)
}

// Verify checks a signed token and returns the embedded raw identifier.
// Any malformed input or signature mismatch yields ErrInvalidToken; callers
// must treat that identically to an unknown session so the failure mode does
// not leak which check rejected the token.
func (s *Signer) Verify(token string) (string, error) {
	parsed := Parse(token)
	if parsed.Kind != KindSigned {
		return "", ErrInvalidToken
	}

	expected := s.signature(parsed.ID)
	if subtle.ConstantTimeCompare([]byte(expected), []byte(parsed.Signature)) != 1 {
		return "", ErrInvalidToken
	}

	return parsed.ID, nil
}

func (s *Signer) signature(id string) string {
	mac := hmac.New(sha256.New, s.secret)
	mac.Write([]byte(id))
	return base64.RawURLEncoding.EncodeToString(mac.Sum(nil))
}
