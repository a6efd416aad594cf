package session_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dmitrymomot/sessiontier/pkg/session"
)

func TestMemoryBackend_GetSetDelete(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	b := session.NewMemoryBackend(0)
	defer b.Close()

	_, err := b.Get(ctx, "missing")
	assert.ErrorIs(t, err, session.ErrSessionNotFound)

	assert.ErrorIs(t, b.Set(ctx, &session.Session{}, time.Hour), session.ErrInvalidSession)
	assert.ErrorIs(t, b.Set(ctx, nil, time.Hour), session.ErrInvalidSession)

	s := &session.Session{ID: "a", Data: map[string]any{"k": "v"}}
	require.NoError(t, b.Set(ctx, s, time.Hour))

	s.Set("k", "mutated after set")
	got, err := b.Get(ctx, "a")
	require.NoError(t, err)
	v, _ := got.GetString("k")
	assert.Equal(t, "v", v)

	got.Set("k", "mutated after get")
	again, err := b.Get(ctx, "a")
	require.NoError(t, err)
	v, _ = again.GetString("k")
	assert.Equal(t, "v", v)

	require.NoError(t, b.Delete(ctx, "a"))
	require.NoError(t, b.Delete(ctx, "a"))
	_, err = b.Get(ctx, "a")
	assert.ErrorIs(t, err, session.ErrSessionNotFound)
}

func TestMemoryBackend_Expiry(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	clock := &fakeClock{t: time.Unix(1000, 0)}
	b := session.NewMemoryBackend(0, session.WithMemoryClock(clock.Now))

	require.NoError(t, b.Set(ctx, &session.Session{ID: "short"}, time.Minute))
	require.NoError(t, b.Set(ctx, &session.Session{ID: "forever"}, 0))

	clock.Advance(time.Minute)
	_, err := b.Get(ctx, "short")
	assert.ErrorIs(t, err, session.ErrSessionExpired)
	_, err = b.Get(ctx, "short")
	assert.ErrorIs(t, err, session.ErrSessionNotFound)

	_, err = b.Get(ctx, "forever")
	assert.NoError(t, err)
}

func TestMemoryBackend_Touch(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	clock := &fakeClock{t: time.Unix(1000, 0)}
	b := session.NewMemoryBackend(0, session.WithMemoryClock(clock.Now))

	assert.ErrorIs(t, b.Touch(ctx, "missing", time.Minute), session.ErrSessionNotFound)

	require.NoError(t, b.Set(ctx, &session.Session{ID: "a"}, time.Minute))
	clock.Advance(50 * time.Second)
	require.NoError(t, b.Touch(ctx, "a", time.Minute))
	clock.Advance(50 * time.Second)

	got, err := b.Get(ctx, "a")
	require.NoError(t, err)
	assert.Equal(t, time.Unix(1110, 0), got.ExpiresAt)
}

func TestMemoryBackend_DeleteExpiredAndStats(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	clock := &fakeClock{t: time.Unix(1000, 0)}
	b := session.NewMemoryBackend(0, session.WithMemoryClock(clock.Now))

	at := clock.Now()
	require.NoError(t, b.Set(ctx, &session.Session{ID: "guest"}, time.Minute))
	require.NoError(t, b.Set(ctx, &session.Session{ID: "user", LoggedInAt: &at}, time.Hour))

	total, loggedIn := b.Stats()
	assert.Equal(t, 2, total)
	assert.Equal(t, 1, loggedIn)

	clock.Advance(2 * time.Minute)
	require.NoError(t, b.DeleteExpired(ctx))

	total, loggedIn = b.Stats()
	assert.Equal(t, 1, total)
	assert.Equal(t, 1, loggedIn)
}

func TestMemoryBackend_CleanupLoop(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	b := session.NewMemoryBackend(10 * time.Millisecond)
	defer b.Close()

	require.NoError(t, b.Set(ctx, &session.Session{ID: "a"}, time.Millisecond))

	assert.Eventually(t, func() bool {
		total, _ := b.Stats()
		return total == 0
	}, time.Second, 10*time.Millisecond)

	require.NoError(t, b.Close())
	require.NoError(t, b.Close())
}

func TestMemoryBackend_GetKeepsConcurrentSet(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	clock := &fakeClock{t: time.Unix(1000, 0)}

	// The clock is read between releasing the read lock and taking the
	// write lock, so a Set issued from it lands in that gap.
	var b *session.MemoryBackend
	armed := false
	now := func() time.Time {
		if armed {
			armed = false
			require.NoError(t, b.Set(ctx, &session.Session{ID: "a", Data: map[string]any{"v": "new"}}, time.Hour))
		}
		return clock.Now()
	}
	b = session.NewMemoryBackend(0, session.WithMemoryClock(now))

	require.NoError(t, b.Set(ctx, &session.Session{ID: "a", Data: map[string]any{"v": "old"}}, time.Minute))
	clock.Advance(time.Minute)
	armed = true

	got, err := b.Get(ctx, "a")
	require.NoError(t, err)
	v, _ := got.GetString("v")
	assert.Equal(t, "new", v)

	_, err = b.Get(ctx, "a")
	assert.NoError(t, err)
}
