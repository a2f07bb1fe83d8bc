package server

import (
	"time"

	"github.com/raniellyferreira/respkit/protocol"
)

const (
	// DefaultReadTimeout closes connections idle for longer than this
	DefaultReadTimeout = 5 * time.Minute

	// DefaultScriptTimeout bounds the run time of a single script
	DefaultScriptTimeout = 5 * time.Second
)

// Option configures a Server
type Option func(*Server)

// WithLogger sets the logger used for connection and error events
func WithLogger(logger Logger) Option {
	return func(s *Server) {
		if logger != nil {
			s.logger = logger
		}
	}
}

// WithReadTimeout sets how long a connection may stay idle between
// requests. Zero disables the deadline.
func WithReadTimeout(d time.Duration) Option {
	return func(s *Server) {
		if d >= 0 {
			s.readTimeout = d
		}
	}
}

// WithLimits sets the decode limits applied to client requests
func WithLimits(limits protocol.Limits) Option {
	return func(s *Server) {
		s.limits = limits
	}
}

// WithPassword requires clients to authenticate with AUTH or HELLO
func WithPassword(password string) Option {
	return func(s *Server) {
		s.password = password
	}
}

// WithScriptTimeout bounds the run time of EVAL and EVALSHA. Zero disables
// the bound.
func WithScriptTimeout(d time.Duration) Option {
	return func(s *Server) {
		if d >= 0 {
			s.scriptTimeout = d
		}
	}
}

// WithVersion sets the version reported by HELLO and INFO
func WithVersion(version string) Option {
	return func(s *Server) {
		if version != "" {
			s.version = version
		}
	}
}

// WithMetrics sets the collector notified of commands and connections
func WithMetrics(metrics MetricsCollector) Option {
	return func(s *Server) {
		if metrics != nil {
			s.metrics = metrics
		}
	}
}
