package client

import (
	"crypto/tls"
	"fmt"
	"time"

	"github.com/raniellyferreira/respkit/protocol"
)

const (
	// DefaultConnectTimeout bounds the TCP dial and the handshake
	DefaultConnectTimeout = 5 * time.Second

	// DefaultReadTimeout bounds the wait for a single reply
	DefaultReadTimeout = 30 * time.Second

	// DefaultWriteTimeout bounds flushing a request
	DefaultWriteTimeout = 10 * time.Second
)

// Option configures a Client
type Option func(*Client)

// WithPassword authenticates the connection as the default user
func WithPassword(password string) Option {
	return func(c *Client) {
		c.password = password
	}
}

// WithTLS connects over TLS with the given configuration
func WithTLS(config *tls.Config) Option {
	return func(c *Client) {
		c.tlsConfig = config
	}
}

// WithProtocol selects the protocol version requested with HELLO (2 or 3)
func WithProtocol(version int) Option {
	return func(c *Client) {
		c.protocol = version
	}
}

// WithName sets the connection name reported by CLIENT GETNAME
func WithName(name string) Option {
	return func(c *Client) {
		c.name = name
	}
}

// WithConnectTimeout sets the dial and handshake timeout
func WithConnectTimeout(d time.Duration) Option {
	return func(c *Client) {
		c.connectTimeout = d
	}
}

// WithReadTimeout sets the reply timeout. Zero waits forever.
func WithReadTimeout(d time.Duration) Option {
	return func(c *Client) {
		c.readTimeout = d
	}
}

// WithWriteTimeout sets the request timeout. Zero waits forever.
func WithWriteTimeout(d time.Duration) Option {
	return func(c *Client) {
		c.writeTimeout = d
	}
}

// WithLimits sets the decode limits applied to replies
func WithLimits(limits protocol.Limits) Option {
	return func(c *Client) {
		c.limits = limits
	}
}

// WithLogger sets the logger for connection events
func WithLogger(logger Logger) Option {
	return func(c *Client) {
		if logger != nil {
			c.logger = logger
		}
	}
}

// validate checks the configured timeouts and protocol version
func (c *Client) validate() error {
	if c.protocol != protocol.RESP2 && c.protocol != protocol.RESP3 {
		return fmt.Errorf("unsupported protocol version %d", c.protocol)
	}

	if c.connectTimeout < 100*time.Millisecond {
		return fmt.Errorf("connect timeout too small: %v (minimum: 100ms)", c.connectTimeout)
	}
	if c.connectTimeout > 5*time.Minute {
		return fmt.Errorf("connect timeout too large: %v (maximum: 5m)", c.connectTimeout)
	}

	for _, t := range []struct {
		name string
		d    time.Duration
	}{
		{"read", c.readTimeout},
		{"write", c.writeTimeout},
	} {
		if t.d < 0 {
			return fmt.Errorf("%s timeout cannot be negative: %v", t.name, t.d)
		}
		if t.d > 0 && t.d < time.Millisecond {
			return fmt.Errorf("%s timeout too small: %v (minimum: 1ms)", t.name, t.d)
		}
		if t.d > 24*time.Hour {
			return fmt.Errorf("%s timeout too large: %v (maximum: 24h)", t.name, t.d)
		}
	}
	return nil
}
