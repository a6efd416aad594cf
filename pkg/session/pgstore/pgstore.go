// Package pgstore persists sessions in a PostgreSQL table as JSONB. The
// schema ships as goose migrations in Migrations; apply them with pg.Migrate.
package pgstore

import (
	"context"
	"embed"
	"encoding/json"
	"errors"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"

	"github.com/dmitrymomot/sessiontier/pkg/pg"
	"github.com/dmitrymomot/sessiontier/pkg/session"
)

// Migrations holds the schema, under MigrationsDir.
//
//go:embed migrations/*.sql
var Migrations embed.FS

// MigrationsDir is the directory inside Migrations.
const MigrationsDir = "migrations"

// DB is satisfied by *pgxpool.Pool, *pgx.Conn and pgx.Tx.
type DB interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

// Store is a session.Backend over the sessions table.
type Store struct {
	db  DB
	now func() time.Time
}

var (
	_ session.Backend = (*Store)(nil)
	_ session.Toucher = (*Store)(nil)
)

// Option configures a Store.
type Option func(*Store)

// WithClock replaces time.Now for expiry decisions.
func WithClock(now func() time.Time) Option {
	return func(s *Store) {
		if now != nil {
			s.now = now
		}
	}
}

// New creates a Store. The sessions table must exist.
func New(db DB, opts ...Option) *Store {
	s := &Store{db: db, now: time.Now}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

const (
	getQuery = `SELECT data, expires_at FROM sessions WHERE id = $1`

	upsertQuery = `
INSERT INTO sessions (id, data, logged_in, expires_at) VALUES ($1, $2, $3, $4)
ON CONFLICT (id) DO UPDATE SET data = EXCLUDED.data, logged_in = EXCLUDED.logged_in, expires_at = EXCLUDED.expires_at`

	deleteQuery        = `DELETE FROM sessions WHERE id = $1`
	touchQuery         = `UPDATE sessions SET expires_at = $2 WHERE id = $1 AND (expires_at IS NULL OR expires_at > $3)`
	deleteExpiredQuery = `DELETE FROM sessions WHERE expires_at IS NOT NULL AND expires_at <= $1`
)

func (s *Store) Get(ctx context.Context, id string) (*session.Session, error) {
	var (
		data      []byte
		expiresAt *time.Time
	)
	if err := s.db.QueryRow(ctx, getQuery, id).Scan(&data, &expiresAt); err != nil {
		if pg.IsNotFoundError(err) {
			return nil, session.ErrSessionNotFound
		}
		return nil, errors.Join(ErrQuery, err)
	}

	if expiresAt != nil && !s.now().Before(*expiresAt) {
		return nil, session.ErrSessionExpired
	}

	var sess session.Session
	if err := json.Unmarshal(data, &sess); err != nil {
		return nil, errors.Join(ErrDecode, err)
	}
	// Touch only moves the column.
	sess.ExpiresAt = time.Time{}
	if expiresAt != nil {
		sess.ExpiresAt = *expiresAt
	}
	return &sess, nil
}

// Set upserts the session. A non-positive ttl stores it without expiry.
func (s *Store) Set(ctx context.Context, sess *session.Session, ttl time.Duration) error {
	if sess == nil || sess.ID == "" {
		return session.ErrInvalidSession
	}

	data, err := json.Marshal(sess)
	if err != nil {
		return errors.Join(ErrEncode, err)
	}

	if _, err := s.db.Exec(ctx, upsertQuery, sess.ID, data, sess.IsLoggedIn(), s.expiry(ttl)); err != nil {
		return errors.Join(ErrQuery, err)
	}
	return nil
}

func (s *Store) Delete(ctx context.Context, id string) error {
	if _, err := s.db.Exec(ctx, deleteQuery, id); err != nil {
		return errors.Join(ErrQuery, err)
	}
	return nil
}

func (s *Store) Touch(ctx context.Context, id string, ttl time.Duration) error {
	tag, err := s.db.Exec(ctx, touchQuery, id, s.expiry(ttl), s.now())
	if err != nil {
		return errors.Join(ErrQuery, err)
	}
	if tag.RowsAffected() == 0 {
		return session.ErrSessionNotFound
	}
	return nil
}

// DeleteExpired removes expired rows and reports how many were deleted.
func (s *Store) DeleteExpired(ctx context.Context) (int64, error) {
	tag, err := s.db.Exec(ctx, deleteExpiredQuery, s.now())
	if err != nil {
		return 0, errors.Join(ErrQuery, err)
	}
	return tag.RowsAffected(), nil
}

func (s *Store) expiry(ttl time.Duration) *time.Time {
	if ttl <= 0 {
		return nil
	}
	at := s.now().Add(ttl)
	return &at
}
