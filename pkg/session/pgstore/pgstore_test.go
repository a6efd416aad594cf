package pgstore_test

import (
	"context"
	"io/fs"
	"log/slog"
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dmitrymomot/sessiontier/pkg/pg"
	"github.com/dmitrymomot/sessiontier/pkg/session"
	"github.com/dmitrymomot/sessiontier/pkg/session/pgstore"
)

type clock struct{ t time.Time }

func (c *clock) Now() time.Time { return c.t }

func TestMigrationsEmbedded(t *testing.T) {
	t.Parallel()
	entries, err := fs.ReadDir(pgstore.Migrations, pgstore.MigrationsDir)
	require.NoError(t, err)
	require.NotEmpty(t, entries)
	assert.Equal(t, "00001_create_sessions.sql", entries[0].Name())
}

func setup(t *testing.T) (*pgstore.Store, *clock) {
	t.Helper()
	url := os.Getenv("PG_CONN_URL")
	if url == "" {
		t.Skip("PG_CONN_URL not set")
	}

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	cfg := pg.Config{ConnectionString: url, RetryAttempts: 1, MigrationsTable: "schema_migrations"}
	pool, err := pg.Connect(ctx, cfg)
	require.NoError(t, err)
	t.Cleanup(pool.Close)

	require.NoError(t, pg.Migrate(ctx, pool, pgstore.Migrations, pgstore.MigrationsDir, cfg, slog.New(slog.DiscardHandler)))

	tx, err := pool.Begin(ctx)
	require.NoError(t, err)
	t.Cleanup(func() { _ = tx.Rollback(context.Background()) })

	c := &clock{t: time.Now().UTC().Truncate(time.Microsecond)}
	return pgstore.New(tx, pgstore.WithClock(c.Now)), c
}

func TestStore_RoundTrip(t *testing.T) {
	store, _ := setup(t)
	ctx := context.Background()

	loggedIn := time.Unix(0, 0).UTC()
	require.NoError(t, store.Set(ctx, &session.Session{
		ID:         "abc",
		LoggedInAt: &loggedIn,
		UserAgent:  "ua",
		Data:       map[string]any{"user_id": "42"},
	}, time.Hour))

	out, err := store.Get(ctx, "abc")
	require.NoError(t, err)
	require.NotNil(t, out.LoggedInAt)
	assert.True(t, out.LoggedInAt.Equal(loggedIn))
	assert.Equal(t, "ua", out.UserAgent)

	require.NoError(t, store.Set(ctx, &session.Session{ID: "abc"}, time.Hour))
	out, err = store.Get(ctx, "abc")
	require.NoError(t, err)
	assert.False(t, out.IsLoggedIn(), "upsert replaces the row")
}

func TestStore_ExpiryTouchAndCleanup(t *testing.T) {
	store, c := setup(t)
	ctx := context.Background()

	require.NoError(t, store.Set(ctx, &session.Session{ID: "a"}, time.Minute))
	require.NoError(t, store.Set(ctx, &session.Session{ID: "b"}, time.Minute))
	require.NoError(t, store.Set(ctx, &session.Session{ID: "forever"}, 0))

	c.t = c.t.Add(50 * time.Second)
	require.NoError(t, store.Touch(ctx, "a", time.Minute))
	c.t = c.t.Add(50 * time.Second)

	_, err := store.Get(ctx, "a")
	require.NoError(t, err)
	_, err = store.Get(ctx, "b")
	assert.ErrorIs(t, err, session.ErrSessionExpired)
	assert.ErrorIs(t, store.Touch(ctx, "b", time.Minute), session.ErrSessionNotFound)

	n, err := store.DeleteExpired(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(1), n)

	_, err = store.Get(ctx, "b")
	assert.ErrorIs(t, err, session.ErrSessionNotFound)
	_, err = store.Get(ctx, "forever")
	assert.NoError(t, err)
}

func TestStore_Delete(t *testing.T) {
	store, _ := setup(t)
	ctx := context.Background()

	assert.ErrorIs(t, store.Set(ctx, &session.Session{}, time.Minute), session.ErrInvalidSession)

	require.NoError(t, store.Set(ctx, &session.Session{ID: "a"}, time.Minute))
	require.NoError(t, store.Delete(ctx, "a"))
	require.NoError(t, store.Delete(ctx, "a"))

	_, err := store.Get(ctx, "a")
	assert.ErrorIs(t, err, session.ErrSessionNotFound)
}
