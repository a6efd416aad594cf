package httpserver

import (
	"log/slog"
	"net"
	"time"
)

// Option configures a Server.
type Option func(*Server)

// WithAddr sets the listen address. Empty keeps the default.
func WithAddr(addr string) Option {
	return func(s *Server) {
		if addr != "" {
			s.addr = addr
		}
	}
}

// WithListener serves on l instead of listening on the address.
func WithListener(l net.Listener) Option {
	return func(s *Server) { s.listener = l }
}

// WithTimeouts sets the http.Server timeouts; zero values are left unset.
func WithTimeouts(readHeader, read, write, idle time.Duration) Option {
	return func(s *Server) {
		s.readHeaderTimeout = readHeader
		s.readTimeout = read
		s.writeTimeout = write
		s.idleTimeout = idle
	}
}

// WithShutdownTimeout bounds graceful shutdown. Non-positive keeps the default.
func WithShutdownTimeout(d time.Duration) Option {
	return func(s *Server) {
		if d > 0 {
			s.shutdownTimeout = d
		}
	}
}

// WithLogger sets the server logger.
func WithLogger(l *slog.Logger) Option {
	return func(s *Server) {
		if l != nil {
			s.logger = l
		}
	}
}
