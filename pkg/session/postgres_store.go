package session

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/dmitrymomot/cmskit/pkg/pg"
)

// PostgresStore implements Store over a shared pgx connection pool. The
// backing table is created by the migration in migrations/; the stored token
// column always holds the raw identifier, never a signature.
type PostgresStore struct {
	pool *pgxpool.Pool
}

// NewPostgresStore creates a PostgresStore over the given pool.
func NewPostgresStore(pool *pgxpool.Pool) *PostgresStore {
	return &PostgresStore{pool: pool}
}

const sessionColumns = "token, user_id, created_at, expires_at, last_activity_at"

func scanSession(row pgx.Row) (*Session, error) {
	var sess Session
	err := row.Scan(&sess.ID, &sess.UserID, &sess.CreatedAt, &sess.ExpiresAt, &sess.LastActivityAt)
	if err != nil {
		return nil, err
	}
	return &sess, nil
}

// storeErr maps driver failures onto the package taxonomy: logical outcomes
// keep their sentinel, everything else is a retryable infrastructure error.
func storeErr(err error) error {
	switch {
	case err == nil:
		return nil
	case pg.IsNotFoundError(err):
		return ErrSessionNotFound
	case pg.IsDuplicateKeyError(err):
		return ErrDuplicateID
	default:
		return errors.Join(ErrStoreUnavailable, err)
	}
}

func (s *PostgresStore) Insert(ctx context.Context, sess *Session) error {
	_, err := s.pool.Exec(ctx,
		`INSERT INTO sessions (token, user_id, created_at, expires_at, last_activity_at)
		 VALUES ($1, $2, $3, $4, $5)`,
		sess.ID, sess.UserID, sess.CreatedAt, sess.ExpiresAt, sess.LastActivityAt)
	return storeErr(err)
}

func (s *PostgresStore) FindByID(ctx context.Context, id string) (*Session, error) {
	sess, err := scanSession(s.pool.QueryRow(ctx,
		`SELECT `+sessionColumns+` FROM sessions WHERE token = $1`, id))
	if err != nil {
		return nil, storeErr(err)
	}
	return sess, nil
}

func (s *PostgresStore) UpdateExpiry(ctx context.Context, id string, expiresAt, lastActivity time.Time) error {
	tag, err := s.pool.Exec(ctx,
		`UPDATE sessions SET expires_at = $2, last_activity_at = $3 WHERE token = $1`,
		id, expiresAt, lastActivity)
	if err != nil {
		return storeErr(err)
	}
	if tag.RowsAffected() == 0 {
		return ErrSessionNotFound
	}
	return nil
}

func (s *PostgresStore) Delete(ctx context.Context, id string) error {
	_, err := s.pool.Exec(ctx, `DELETE FROM sessions WHERE token = $1`, id)
	return storeErr(err)
}

func (s *PostgresStore) DeleteExpired(ctx context.Context, now time.Time) (int64, error) {
	tag, err := s.pool.Exec(ctx, `DELETE FROM sessions WHERE expires_at <= $1`, now)
	if err != nil {
		return 0, storeErr(err)
	}
	return tag.RowsAffected(), nil
}

func (s *PostgresStore) CountForUser(ctx context.Context, userID uuid.UUID) (int64, error) {
	var count int64
	err := s.pool.QueryRow(ctx,
		`SELECT count(*) FROM sessions WHERE user_id = $1`, userID).Scan(&count)
	if err != nil {
		return 0, storeErr(err)
	}
	return count, nil
}

func (s *PostgresStore) DeleteOldestForUser(ctx context.Context, userID uuid.UUID) (*Session, error) {
	// Identifier tie-break keeps eviction deterministic when two sessions
	// share a created_at timestamp.
	sess, err := scanSession(s.pool.QueryRow(ctx,
		`DELETE FROM sessions
		 WHERE token = (
		     SELECT token FROM sessions
		     WHERE user_id = $1
		     ORDER BY created_at ASC, token ASC
		     LIMIT 1
		 )
		 RETURNING `+sessionColumns, userID))
	if err != nil {
		if pg.IsNotFoundError(err) {
			return nil, nil
		}
		return nil, storeErr(err)
	}
	return sess, nil
}

func (s *PostgresStore) ListForUser(ctx context.Context, userID uuid.UUID) ([]*Session, error) {
	rows, err := s.pool.Query(ctx,
		`SELECT `+sessionColumns+` FROM sessions
		 WHERE user_id = $1
		 ORDER BY created_at ASC, token ASC`, userID)
	if err != nil {
		return nil, storeErr(err)
	}
	defer rows.Close()

	var sessions []*Session
	for rows.Next() {
		sess, err := scanSession(rows)
		if err != nil {
			return nil, storeErr(err)
		}
		sessions = append(sessions, sess)
	}
	if err := rows.Err(); err != nil {
		return nil, storeErr(err)
	}
	return sessions, nil
}

func (s *PostgresStore) DeleteForUser(ctx context.Context, userID uuid.UUID) (int64, error) {
	tag, err := s.pool.Exec(ctx, `DELETE FROM sessions WHERE user_id = $1`, userID)
	if err != nil {
		return 0, storeErr(err)
	}
	return tag.RowsAffected(), nil
}

func (s *PostgresStore) ExpireForUser(ctx context.Context, userID uuid.UUID, now time.Time) (int64, error) {
	tag, err := s.pool.Exec(ctx,
		`UPDATE sessions SET expires_at = $2 WHERE user_id = $1 AND expires_at > $2`,
		userID, now)
	if err != nil {
		return 0, storeErr(err)
	}
	return tag.RowsAffected(), nil
}

func (s *PostgresStore) Stats(ctx context.Context, now time.Time) (Stats, error) {
	var stats Stats
	err := s.pool.QueryRow(ctx,
		`SELECT count(*), count(*) FILTER (WHERE expires_at > $1) FROM sessions`,
		now).Scan(&stats.Total, &stats.Active)
	if err != nil {
		return Stats{}, storeErr(err)
	}
	return stats, nil
}
