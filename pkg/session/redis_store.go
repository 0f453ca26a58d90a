package session

import (
	"context"
	"encoding/json"
	"errors"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

// RedisStore implements Store over go-redis. Layout per key prefix:
//
//   - "<p>session:<id>"       JSON session row, expiring at expires_at
//   - "<p>user_sessions:<uid>" ZSET of identifiers scored by created_at
//   - "<p>session_expiry"      ZSET of "<uid>/<id>" scored by expires_at
//
// Redis equates expiry with deletion, so an expired session reads as absent
// rather than as a present-but-expired row; the Manager's lazy-expiry path
// then reports it as not found, which callers cannot distinguish anyway.
// The expiry index exists so DeleteExpired can also clean the per-user
// indexes of sessions whose keys Redis already dropped.
type RedisStore struct {
	client *redis.Client
	prefix string
}

// RedisStoreOption configures a RedisStore.
type RedisStoreOption func(*RedisStore)

// WithRedisKeyPrefix namespaces all keys, for shared Redis instances.
func WithRedisKeyPrefix(prefix string) RedisStoreOption {
	return func(s *RedisStore) { s.prefix = prefix }
}

// NewRedisStore creates a RedisStore over the given client.
func NewRedisStore(client *redis.Client, opts ...RedisStoreOption) *RedisStore {
	s := &RedisStore{client: client, prefix: "cms:"}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

func (s *RedisStore) sessionKey(id string) string {
	return s.prefix + "session:" + id
}

func (s *RedisStore) userKey(userID uuid.UUID) string {
	return s.prefix + "user_sessions:" + userID.String()
}

func (s *RedisStore) expiryKey() string {
	return s.prefix + "session_expiry"
}

func expiryMember(userID uuid.UUID, id string) string {
	return userID.String() + "/" + id
}

func redisErr(err error) error {
	if err == nil || errors.Is(err, redis.Nil) {
		return err
	}
	return errors.Join(ErrStoreUnavailable, err)
}

func (s *RedisStore) Insert(ctx context.Context, sess *Session) error {
	payload, err := json.Marshal(sess)
	if err != nil {
		return err
	}

	ok, err := s.client.SetNX(ctx, s.sessionKey(sess.ID), payload, time.Until(sess.ExpiresAt)).Result()
	if err != nil {
		return redisErr(err)
	}
	if !ok {
		return ErrDuplicateID
	}

	pipe := s.client.Pipeline()
	pipe.ZAdd(ctx, s.userKey(sess.UserID), redis.Z{
		Score:  float64(sess.CreatedAt.UnixNano()),
		Member: sess.ID,
	})
	pipe.ZAdd(ctx, s.expiryKey(), redis.Z{
		Score:  float64(sess.ExpiresAt.UnixNano()),
		Member: expiryMember(sess.UserID, sess.ID),
	})
	if _, err := pipe.Exec(ctx); err != nil {
		return redisErr(err)
	}
	return nil
}

func (s *RedisStore) FindByID(ctx context.Context, id string) (*Session, error) {
	payload, err := s.client.Get(ctx, s.sessionKey(id)).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, ErrSessionNotFound
	}
	if err != nil {
		return nil, redisErr(err)
	}

	var sess Session
	if err := json.Unmarshal(payload, &sess); err != nil {
		return nil, err
	}
	return &sess, nil
}

func (s *RedisStore) UpdateExpiry(ctx context.Context, id string, expiresAt, lastActivity time.Time) error {
	sess, err := s.FindByID(ctx, id)
	if err != nil {
		return err
	}

	sess.ExpiresAt = expiresAt
	sess.LastActivityAt = lastActivity

	payload, err := json.Marshal(sess)
	if err != nil {
		return err
	}

	pipe := s.client.Pipeline()
	pipe.Set(ctx, s.sessionKey(id), payload, time.Until(expiresAt))
	pipe.ZAdd(ctx, s.expiryKey(), redis.Z{
		Score:  float64(expiresAt.UnixNano()),
		Member: expiryMember(sess.UserID, id),
	})
	if _, err := pipe.Exec(ctx); err != nil {
		return redisErr(err)
	}
	return nil
}

func (s *RedisStore) Delete(ctx context.Context, id string) error {
	sess, err := s.FindByID(ctx, id)
	if errors.Is(err, ErrSessionNotFound) {
		return nil
	}
	if err != nil {
		return err
	}

	return s.remove(ctx, sess.UserID, id)
}

func (s *RedisStore) remove(ctx context.Context, userID uuid.UUID, id string) error {
	pipe := s.client.Pipeline()
	pipe.Del(ctx, s.sessionKey(id))
	pipe.ZRem(ctx, s.userKey(userID), id)
	pipe.ZRem(ctx, s.expiryKey(), expiryMember(userID, id))
	if _, err := pipe.Exec(ctx); err != nil {
		return redisErr(err)
	}
	return nil
}

func (s *RedisStore) DeleteExpired(ctx context.Context, now time.Time) (int64, error) {
	members, err := s.client.ZRangeByScore(ctx, s.expiryKey(), &redis.ZRangeBy{
		Min: "-inf",
		Max: formatScore(now),
	}).Result()
	if err != nil {
		return 0, redisErr(err)
	}
	if len(members) == 0 {
		return 0, nil
	}

	pipe := s.client.Pipeline()
	for _, member := range members {
		uid, id, ok := strings.Cut(member, "/")
		if !ok {
			continue
		}
		pipe.Del(ctx, s.sessionKey(id))
		pipe.ZRem(ctx, s.prefix+"user_sessions:"+uid, id)
	}
	pipe.ZRemRangeByScore(ctx, s.expiryKey(), "-inf", formatScore(now))
	if _, err := pipe.Exec(ctx); err != nil {
		return 0, redisErr(err)
	}

	return int64(len(members)), nil
}

func (s *RedisStore) CountForUser(ctx context.Context, userID uuid.UUID) (int64, error) {
	sessions, err := s.ListForUser(ctx, userID)
	if err != nil {
		return 0, err
	}
	return int64(len(sessions)), nil
}

func (s *RedisStore) DeleteOldestForUser(ctx context.Context, userID uuid.UUID) (*Session, error) {
	// Equal created_at scores order lexicographically by identifier,
	// matching the relational tie-break.
	for {
		ids, err := s.client.ZRange(ctx, s.userKey(userID), 0, 0).Result()
		if err != nil {
			return nil, redisErr(err)
		}
		if len(ids) == 0 {
			return nil, nil
		}

		sess, err := s.FindByID(ctx, ids[0])
		if errors.Is(err, ErrSessionNotFound) {
			// Key already expired out from under the index; prune and retry.
			if err := s.client.ZRem(ctx, s.userKey(userID), ids[0]).Err(); err != nil {
				return nil, redisErr(err)
			}
			continue
		}
		if err != nil {
			return nil, err
		}

		if err := s.remove(ctx, userID, ids[0]); err != nil {
			return nil, err
		}
		return sess, nil
	}
}

func (s *RedisStore) ListForUser(ctx context.Context, userID uuid.UUID) ([]*Session, error) {
	ids, err := s.client.ZRange(ctx, s.userKey(userID), 0, -1).Result()
	if err != nil {
		return nil, redisErr(err)
	}

	var sessions []*Session
	var stale []any
	for _, id := range ids {
		sess, err := s.FindByID(ctx, id)
		if errors.Is(err, ErrSessionNotFound) {
			stale = append(stale, id)
			continue
		}
		if err != nil {
			return nil, err
		}
		sessions = append(sessions, sess)
	}

	if len(stale) > 0 {
		if err := s.client.ZRem(ctx, s.userKey(userID), stale...).Err(); err != nil {
			return nil, redisErr(err)
		}
	}
	return sessions, nil
}

func (s *RedisStore) DeleteForUser(ctx context.Context, userID uuid.UUID) (int64, error) {
	sessions, err := s.ListForUser(ctx, userID)
	if err != nil {
		return 0, err
	}

	for _, sess := range sessions {
		if err := s.remove(ctx, userID, sess.ID); err != nil {
			return 0, err
		}
	}
	return int64(len(sessions)), nil
}

// ExpireForUser deletes the user's live sessions immediately: under the
// Redis TTL model an expired key and an absent key are the same thing, so
// forcing expiry and deleting are equivalent here.
func (s *RedisStore) ExpireForUser(ctx context.Context, userID uuid.UUID, now time.Time) (int64, error) {
	return s.DeleteForUser(ctx, userID)
}

func (s *RedisStore) Stats(ctx context.Context, now time.Time) (Stats, error) {
	total, err := s.client.ZCard(ctx, s.expiryKey()).Result()
	if err != nil {
		return Stats{}, redisErr(err)
	}

	active, err := s.client.ZCount(ctx, s.expiryKey(), "("+formatScore(now), "+inf").Result()
	if err != nil {
		return Stats{}, redisErr(err)
	}

	return Stats{Total: total, Active: active}, nil
}

func formatScore(t time.Time) string {
	return strconv.FormatInt(t.UnixNano(), 10)
}
