package main

import (
	"github.com/dmitrymomot/sessiontier/pkg/clientip"
	"github.com/dmitrymomot/sessiontier/pkg/httpserver"
	"github.com/dmitrymomot/sessiontier/pkg/mongo"
	"github.com/dmitrymomot/sessiontier/pkg/pg"
	"github.com/dmitrymomot/sessiontier/pkg/redis"
	"github.com/dmitrymomot/sessiontier/pkg/session"
)

// Session backends selectable through SESSION_STORE.
const (
	storeMemory   = "memory"
	storeRedis    = "redis"
	storeMongo    = "mongo"
	storePostgres = "postgres"
)

type appConfig struct {
	Name  string `env:"APP_NAME" envDefault:"sessiond"`
	Env   string `env:"APP_ENV" envDefault:"development"`
	Store string `env:"SESSION_STORE" envDefault:"memory"`

	// Demo credentials for POST /login. Without a hash the password
	// "demo" is accepted and a warning is logged.
	DemoUsername     string `env:"DEMO_USERNAME" envDefault:"demo"`
	DemoPasswordHash string `env:"DEMO_PASSWORD_HASH"`

	// Proxy headers trusted for the client address, in order, for example
	// "X-Forwarded-For". Empty means the connection address only.
	TrustedProxyHeaders []string `env:"TRUSTED_PROXY_HEADERS" envSeparator:","`
}

type settings struct {
	App     appConfig
	Session session.Config
	HTTP    httpserver.Config
	Redis   redis.Config
	Mongo   mongo.Config
	PG      pg.Config
}

// sessionOptions derives Manager options from the app settings.
func (c appConfig) sessionOptions() []session.Option {
	if len(c.TrustedProxyHeaders) == 0 {
		return nil
	}
	return []session.Option{
		session.WithRequestInfo(session.RequestInfoResolver(clientip.New(c.TrustedProxyHeaders...))),
	}
}
