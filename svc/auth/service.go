package auth

import (
	"context"
	"errors"
	"log/slog"

	"github.com/google/uuid"

	"github.com/dmitrymomot/cmskit/pkg/session"
)

// Service ties user lookup, password verification and the session manager
// together. Request-handling code calls it; it never touches HTTP itself.
type Service struct {
	users    UserStorage
	password PasswordVerifier
	sessions *session.Manager
	log      *slog.Logger
}

// ServiceOption configures a Service.
type ServiceOption func(*Service)

// WithLogger sets the logger for login/logout events.
func WithLogger(log *slog.Logger) ServiceOption {
	return func(s *Service) {
		if log != nil {
			s.log = log
		}
	}
}

// NewService creates the auth service.
func NewService(users UserStorage, password PasswordVerifier, sessions *session.Manager, opts ...ServiceOption) *Service {
	s := &Service{
		users:    users,
		password: password,
		sessions: sessions,
		log:      slog.Default(),
	}

	for _, opt := range opts {
		opt(s)
	}

	return s
}

// Login validates credentials and issues a session. Unknown users and wrong
// passwords are indistinguishable; account status problems are distinct so
// clients can react (prompt verification, show a suspension notice).
func (s *Service) Login(ctx context.Context, username, password string) (*User, string, error) {
	user, err := s.users.FindByUsername(ctx, username)
	if err != nil {
		if errors.Is(err, ErrUserNotFound) {
			return nil, "", ErrInvalidCredentials
		}
		return nil, "", err
	}

	switch user.Status {
	case StatusActive:
	case StatusPendingVerification:
		return nil, "", ErrEmailNotVerified
	default:
		return nil, "", ErrAccountInactive
	}

	if !s.password.Verify(password, user.PasswordHash) {
		return nil, "", ErrInvalidCredentials
	}

	token, _, err := s.sessions.CreateSession(ctx, user.ID)
	if err != nil {
		return nil, "", err
	}

	s.log.InfoContext(ctx, "user logged in", slog.String("user_id", user.ID.String()))
	return user, token, nil
}

// Authenticate resolves a wire token to its user, for request middleware.
func (s *Service) Authenticate(ctx context.Context, token string) (*User, *session.Session, error) {
	sess, err := s.sessions.ValidateSession(ctx, token)
	if err != nil {
		return nil, nil, err
	}

	user, err := s.users.FindByID(ctx, sess.UserID)
	if err != nil {
		if errors.Is(err, ErrUserNotFound) {
			// Account deleted while the session lived; the session is
			// now meaningless.
			_ = s.sessions.RevokeSession(ctx, token)
			return nil, nil, session.ErrSessionNotFound
		}
		return nil, nil, err
	}

	return user, sess, nil
}

// Logout revokes the presented session. Idempotent like the underlying
// revocation: logging out twice never errors the second time.
func (s *Service) Logout(ctx context.Context, token string) error {
	return s.sessions.RevokeSession(ctx, token)
}

// LogoutAll revokes every session of the user and returns the count.
func (s *Service) LogoutAll(ctx context.Context, userID uuid.UUID) (int64, error) {
	count, err := s.sessions.RevokeUserSessions(ctx, userID)
	if err != nil {
		return 0, err
	}

	s.log.InfoContext(ctx, "user logged out everywhere",
		slog.String("user_id", userID.String()),
		slog.Int64("count", count))
	return count, nil
}
