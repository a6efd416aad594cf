package main

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/dmitrymomot/sessiontier/pkg/httpserver"
	"github.com/dmitrymomot/sessiontier/pkg/logger"
	"github.com/dmitrymomot/sessiontier/pkg/mongo"
	"github.com/dmitrymomot/sessiontier/pkg/pg"
	"github.com/dmitrymomot/sessiontier/pkg/redis"
	"github.com/dmitrymomot/sessiontier/pkg/session"
	"github.com/dmitrymomot/sessiontier/pkg/session/mongostore"
	"github.com/dmitrymomot/sessiontier/pkg/session/pgstore"
	"github.com/dmitrymomot/sessiontier/pkg/session/redisstore"
)

// storage is the opened session backend with its readiness checks and the
// function releasing its connections.
type storage struct {
	backend session.Backend
	checks  []httpserver.Check
	close   func()
}

func openStorage(ctx context.Context, cfg settings, log *slog.Logger) (*storage, error) {
	switch cfg.App.Store {
	case storeMemory, "":
		b := session.NewMemoryBackend(cfg.Session.CleanupInterval)
		return &storage{backend: b, close: func() { _ = b.Close() }}, nil

	case storeRedis:
		client, err := redis.Connect(ctx, cfg.Redis)
		if err != nil {
			return nil, err
		}
		return &storage{
			backend: redisstore.New(client),
			checks:  []httpserver.Check{{Name: "redis", Fn: redis.Healthcheck(client)}},
			close:   func() { _ = client.Close() },
		}, nil

	case storeMongo:
		db, err := mongo.ConnectDatabase(ctx, cfg.Mongo)
		if err != nil {
			return nil, err
		}
		disconnect := func() { _ = db.Client().Disconnect(context.Background()) }
		b, err := mongostore.New(ctx, db.Collection("sessions"))
		if err != nil {
			disconnect()
			return nil, err
		}
		return &storage{
			backend: b,
			checks:  []httpserver.Check{{Name: "mongo", Fn: mongo.Healthcheck(db.Client())}},
			close:   disconnect,
		}, nil

	case storePostgres:
		pool, err := pg.Connect(ctx, cfg.PG)
		if err != nil {
			return nil, err
		}
		if err := pg.Migrate(ctx, pool, pgstore.Migrations, pgstore.MigrationsDir, cfg.PG, log); err != nil {
			pool.Close()
			return nil, err
		}
		b := pgstore.New(pool)

		cleanupCtx, cancel := context.WithCancel(context.WithoutCancel(ctx))
		go purgeExpired(cleanupCtx, b, cfg.Session.CleanupInterval, log)

		return &storage{
			backend: b,
			checks:  []httpserver.Check{{Name: "postgres", Fn: pg.Healthcheck(pool)}},
			close: func() {
				cancel()
				pool.Close()
			},
		}, nil

	default:
		return nil, fmt.Errorf("unknown SESSION_STORE %q: want %s, %s, %s or %s",
			cfg.App.Store, storeMemory, storeRedis, storeMongo, storePostgres)
	}
}

// purgeExpired deletes expired rows every interval; Postgres has no native TTL.
func purgeExpired(ctx context.Context, b *pgstore.Store, interval time.Duration, log *slog.Logger) {
	if interval <= 0 {
		return
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			n, err := b.DeleteExpired(ctx)
			if err != nil {
				log.WarnContext(ctx, "purge expired sessions", logger.Error(err))
				continue
			}
			if n > 0 {
				log.DebugContext(ctx, "purged expired sessions", slog.Int64("count", n))
			}
		}
	}
}
