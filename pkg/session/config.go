package session

import (
	"errors"
	"time"

	"github.com/dmitrymomot/cmskit/pkg/signer"
)

// Config holds session lifecycle configuration.
type Config struct {
	// Duration is the session lifetime from creation, and the amount a
	// sliding refresh extends by.
	Duration time.Duration `env:"SESSION_DURATION" envDefault:"24h"`

	// CleanupInterval is how often the background reaper sweeps expired
	// rows (0 to disable).
	CleanupInterval time.Duration `env:"SESSION_CLEANUP_INTERVAL" envDefault:"10m"`

	// MaxPerUser caps concurrent sessions per user; the oldest is evicted
	// on overflow at creation time.
	MaxPerUser int `env:"SESSION_MAX_PER_USER" envDefault:"5"`

	// EnableRefresh turns on sliding expiry at validation time.
	EnableRefresh bool `env:"SESSION_ENABLE_REFRESH" envDefault:"true"`

	// RefreshThreshold: refresh only when the remaining lifetime drops
	// below this value.
	RefreshThreshold time.Duration `env:"SESSION_REFRESH_THRESHOLD" envDefault:"1h"`

	// EnableSigning turns on HMAC-SHA256 token signing. Unsigned tokens
	// issued before the switch remain accepted (migration window).
	EnableSigning bool `env:"SESSION_ENABLE_SIGNING" envDefault:"true"`

	// Secret is the shared signing secret, required at least 32 bytes
	// when signing is enabled.
	Secret string `env:"SESSION_SECRET"`
}

// DefaultConfig returns the documented defaults, with signing off since no
// secret can be defaulted safely.
func DefaultConfig() Config {
	return Config{
		Duration:         24 * time.Hour,
		CleanupInterval:  10 * time.Minute,
		MaxPerUser:       5,
		EnableRefresh:    true,
		RefreshThreshold: time.Hour,
	}
}

var (
	// ErrInvalidConfig indicates a configuration value that makes the
	// lifecycle undefined, such as a non-positive duration.
	ErrInvalidConfig = errors.New("session.invalid_config")
)

// Validate reports configuration errors at startup rather than letting them
// surface as per-request failures.
func (c Config) Validate() error {
	if c.Duration <= 0 {
		return errors.Join(ErrInvalidConfig, errors.New("session duration must be positive"))
	}
	if c.MaxPerUser < 1 {
		return errors.Join(ErrInvalidConfig, errors.New("max sessions per user must be at least 1"))
	}
	if c.EnableRefresh && c.RefreshThreshold <= 0 {
		return errors.Join(ErrInvalidConfig, errors.New("refresh threshold must be positive when refresh is enabled"))
	}
	if c.EnableSigning && len(c.Secret) < signer.MinSecretLength {
		return errors.Join(ErrInvalidConfig, signer.ErrWeakSecret)
	}
	return nil
}
