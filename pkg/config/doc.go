// Package config loads environment variables, optionally seeded from dotenv
// files, into structs tagged for github.com/caarlos0/env.
//
// Every package in this module that needs configuration exposes a Config
// struct with `env` and `envDefault` tags; binaries compose them by calling
// Load once per struct at startup.
package config
