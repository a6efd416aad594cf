// Command sessiond is a demo service for two-tier sessions: /secure needs a
// logged in session, /secure/more a fresh one.
package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"

	"github.com/dmitrymomot/sessiontier/pkg/config"
	"github.com/dmitrymomot/sessiontier/pkg/httpserver"
	"github.com/dmitrymomot/sessiontier/pkg/logger"
	"github.com/dmitrymomot/sessiontier/pkg/requestid"
	"github.com/dmitrymomot/sessiontier/pkg/session"
	"github.com/dmitrymomot/sessiontier/pkg/session/instrument"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func run() error {
	var cfg settings
	if err := config.Load(&cfg); err != nil {
		return err
	}
	if cfg.Session.Secrets == "" {
		return errors.New("SESSION_SECRETS is required")
	}

	log := logger.New(
		logger.WithEnvironment(cfg.App.Env, cfg.App.Name),
		logger.WithContextExtractors(requestid.LoggerExtractor()),
	)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	store, err := openStorage(ctx, cfg, log)
	if err != nil {
		return err
	}
	defer store.close()

	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	metrics, err := instrument.New(reg, "sessiond")
	if err != nil {
		return err
	}

	if cfg.App.DemoPasswordHash == "" {
		log.WarnContext(ctx, "DEMO_PASSWORD_HASH not set, accepting the password \"demo\"")
	}
	creds, err := newCredentials(cfg.App.DemoUsername, cfg.App.DemoPasswordHash)
	if err != nil {
		return err
	}

	sessions, err := session.NewFromConfig(cfg.Session, append([]session.Option{
		session.WithBackend(metrics.Backend(store.backend, cfg.App.Store)),
		session.WithLogger(log),
	}, cfg.App.sessionOptions()...)...)
	if err != nil {
		return err
	}

	srv := &server{sessions: sessions, creds: creds, metrics: metrics, log: log}
	log.InfoContext(ctx, "starting", logger.Component("sessiond"), "store", cfg.App.Store)

	return httpserver.NewFromConfig(cfg.HTTP, httpserver.WithLogger(log)).
		Run(ctx, srv.routes(store.checks...))
}
