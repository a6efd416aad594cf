// Package redisstore persists sessions in Redis as JSON values with a
// native key expiry.
package redisstore

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/dmitrymomot/sessiontier/pkg/session"
)

// DefaultPrefix namespaces session keys.
const DefaultPrefix = "sess:"

// Store is a session.Backend over a go-redis client.
type Store struct {
	client redis.UniversalClient
	prefix string
}

var (
	_ session.Backend = (*Store)(nil)
	_ session.Toucher = (*Store)(nil)
)

// Option configures a Store.
type Option func(*Store)

// WithPrefix replaces DefaultPrefix.
func WithPrefix(prefix string) Option {
	return func(s *Store) { s.prefix = prefix }
}

// New creates a Store. The client is owned by the caller.
func New(client redis.UniversalClient, opts ...Option) *Store {
	s := &Store{client: client, prefix: DefaultPrefix}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

func (s *Store) key(id string) string { return s.prefix + id }

// Get reads the value and its remaining lifetime in one round trip.
// ExpiresAt is derived from the key expiry, which Touch may have moved.
func (s *Store) Get(ctx context.Context, id string) (*session.Session, error) {
	pipe := s.client.Pipeline()
	get := pipe.Get(ctx, s.key(id))
	pttl := pipe.PTTL(ctx, s.key(id))
	if _, err := pipe.Exec(ctx); err != nil && !errors.Is(err, redis.Nil) {
		return nil, errors.Join(ErrRedis, err)
	}

	b, err := get.Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, session.ErrSessionNotFound
		}
		return nil, errors.Join(ErrRedis, err)
	}

	var sess session.Session
	if err := json.Unmarshal(b, &sess); err != nil {
		return nil, errors.Join(ErrDecode, err)
	}

	sess.ExpiresAt = time.Time{}
	if ttl := pttl.Val(); ttl > 0 {
		sess.ExpiresAt = time.Now().Add(ttl)
	}
	return &sess, nil
}

// Set writes s with a key expiry of ttl; a non-positive ttl never expires.
func (s *Store) Set(ctx context.Context, sess *session.Session, ttl time.Duration) error {
	if sess == nil || sess.ID == "" {
		return session.ErrInvalidSession
	}

	b, err := json.Marshal(sess)
	if err != nil {
		return errors.Join(ErrEncode, err)
	}

	if ttl < 0 {
		ttl = 0
	}
	if err := s.client.Set(ctx, s.key(sess.ID), b, ttl).Err(); err != nil {
		return errors.Join(ErrRedis, err)
	}
	return nil
}

func (s *Store) Delete(ctx context.Context, id string) error {
	if err := s.client.Del(ctx, s.key(id)).Err(); err != nil {
		return errors.Join(ErrRedis, err)
	}
	return nil
}

// Touch resets the key expiry without rewriting the value.
func (s *Store) Touch(ctx context.Context, id string, ttl time.Duration) error {
	var (
		ok  bool
		err error
	)
	if ttl > 0 {
		ok, err = s.client.Expire(ctx, s.key(id), ttl).Result()
	} else {
		ok, err = s.client.Persist(ctx, s.key(id)).Result()
		if err == nil && !ok {
			// PERSIST also reports false for keys without an expiry.
			n, existsErr := s.client.Exists(ctx, s.key(id)).Result()
			ok, err = n > 0, existsErr
		}
	}
	if err != nil {
		return errors.Join(ErrRedis, err)
	}
	if !ok {
		return session.ErrSessionNotFound
	}
	return nil
}
