package config

import (
	"errors"
	"fmt"
	"os"
	"sync"

	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"
)

var defaultEnvLoaded sync.Once

// Option adjusts a single Load call.
type Option func(*options)

type options struct {
	files  []string
	prefix string
}

// WithEnvFiles loads the given dotenv files instead of ./.env. Variables
// already present in the process environment are never overridden.
func WithEnvFiles(files ...string) Option {
	return func(o *options) { o.files = append(o.files, files...) }
}

// WithPrefix prepends prefix to every env tag, e.g. "ADMIN_" turns
// SESSION_TTL into ADMIN_SESSION_TTL.
func WithPrefix(prefix string) Option {
	return func(o *options) { o.prefix = prefix }
}

// Load fills v from the environment according to its `env` and
// `envDefault` struct tags.
//
//	var cfg session.Config
//	if err := config.Load(&cfg); err != nil {
//		return err
//	}
func Load[T any](v *T, opts ...Option) error {
	if v == nil {
		return ErrNilPointer
	}

	var o options
	for _, opt := range opts {
		opt(&o)
	}

	if len(o.files) == 0 {
		defaultEnvLoaded.Do(func() {
			// A missing .env file is the normal case outside development.
			_ = godotenv.Load()
		})
	} else {
		for _, f := range o.files {
			if err := godotenv.Load(f); err != nil && !errors.Is(err, os.ErrNotExist) {
				return errors.Join(ErrEnvFile, err)
			}
		}
	}

	if err := env.ParseWithOptions(v, env.Options{Prefix: o.prefix}); err != nil {
		return errors.Join(ErrParsingConfig, err)
	}
	return nil
}

// MustLoad is Load for configuration the process cannot start without.
func MustLoad[T any](v *T, opts ...Option) {
	if err := Load(v, opts...); err != nil {
		panic(fmt.Sprintf("failed to load required configuration: %v", err))
	}
}
