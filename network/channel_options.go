package network

import (
	"context"
	"crypto/tls"
	"net"
	"time"
)

type channelOption func(*Channel)

// WithTimeout sets the deadline applied to each read and write.
func WithTimeout(timeout time.Duration) channelOption {
	return func(ch *Channel) {
		ch.timeout = timeout
	}
}

type dialConfig struct {
	timeout   time.Duration
	tlsConfig *tls.Config
}

type DialOption func(*dialConfig)

// WithDialTimeout bounds connection establishment and, once connected, every
// read and write of the returned Channel.
func WithDialTimeout(timeout time.Duration) DialOption {
	return func(c *dialConfig) {
		c.timeout = timeout
	}
}

// WithTLSConfig dials with TLS.
func WithTLSConfig(cfg *tls.Config) DialOption {
	return func(c *dialConfig) {
		c.tlsConfig = cfg
	}
}

// Dial connects to addr over TCP and wraps the connection in a Channel.
func Dial(ctx context.Context, addr string, opts ...DialOption) (*Channel, error) {
	var cfg dialConfig
	for _, opt := range opts {
		opt(&cfg)
	}
	dialer := &net.Dialer{Timeout: cfg.timeout}
	var conn net.Conn
	var err error
	if cfg.tlsConfig != nil {
		td := &tls.Dialer{NetDialer: dialer, Config: cfg.tlsConfig}
		conn, err = td.DialContext(ctx, "tcp", addr)
	} else {
		conn, err = dialer.DialContext(ctx, "tcp", addr)
	}
	if err != nil {
		return nil, err
	}
	return NewChannel(conn, WithTimeout(cfg.timeout)), nil
}
