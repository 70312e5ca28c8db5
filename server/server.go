// Package server accepts War clients and hands them to the matchmaker.
package server

import (
	"context"
	"errors"
	"log/slog"
	"net"
	"sync"
	"time"

	"github.com/luca-patrignani/war/matchmaking"
	"github.com/luca-patrignani/war/metrics"
	"github.com/luca-patrignani/war/network"
)

// Server runs the accept loop. Every accepted connection goes to the
// matchmaker in accept order.
type Server struct {
	listener   net.Listener
	matchmaker *matchmaking.Matchmaker
	logger     *slog.Logger
	metrics    *metrics.Metrics
	timeout    time.Duration
	mmOpts     []matchmaking.Option

	mu        sync.Mutex
	shutdown  bool
	stopMatch context.CancelFunc
	mmDone    chan struct{}
	closeOnce sync.Once
}

type option func(*Server)

// WithReadTimeout bounds every read and write on player connections.
// Zero, the default, waits forever.
func WithReadTimeout(timeout time.Duration) option {
	return func(s *Server) {
		s.timeout = timeout
	}
}

// WithPolicy sets the handshake rejection policy.
func WithPolicy(p matchmaking.Policy) option {
	return func(s *Server) {
		s.mmOpts = append(s.mmOpts, matchmaking.WithPolicy(p))
	}
}

// WithMatchmakerOptions passes extra options to the matchmaker.
func WithMatchmakerOptions(opts ...matchmaking.Option) option {
	return func(s *Server) {
		s.mmOpts = append(s.mmOpts, opts...)
	}
}

func WithLogger(logger *slog.Logger) option {
	return func(s *Server) {
		s.logger = logger
	}
}

func WithMetrics(m *metrics.Metrics) option {
	return func(s *Server) {
		s.metrics = m
	}
}

// New creates a server on l. Serve starts it.
func New(l net.Listener, opts ...option) *Server {
	s := &Server{
		listener: l,
		logger:   slog.Default(),
	}
	for _, opt := range opts {
		opt(s)
	}
	mmOpts := append([]matchmaking.Option{
		matchmaking.WithLogger(s.logger),
		matchmaking.WithMetrics(s.metrics),
	}, s.mmOpts...)
	s.matchmaker = matchmaking.New(mmOpts...)
	return s
}

// Addr returns the listener address.
func (s *Server) Addr() net.Addr {
	return s.listener.Addr()
}

// Serve accepts connections until ctx is cancelled or Shutdown is called.
// Games already running are not affected by its return.
func (s *Server) Serve(ctx context.Context) error {
	mmCtx, cancel := context.WithCancel(ctx)
	defer cancel()
	s.mu.Lock()
	if s.shutdown || s.stopMatch != nil {
		s.mu.Unlock()
		return matchmaking.ErrClosed
	}
	s.stopMatch = cancel
	s.mmDone = make(chan struct{})
	done := s.mmDone
	s.mu.Unlock()

	go func() {
		defer close(done)
		s.matchmaker.Run(mmCtx)
	}()
	stop := context.AfterFunc(ctx, s.closeListener)
	defer stop()

	s.logger.Info("server listening", "address", s.listener.Addr().String())
	var backoff time.Duration
	for {
		conn, err := s.listener.Accept()
		if err != nil {
			if errors.Is(err, net.ErrClosed) || ctx.Err() != nil {
				return nil
			}
			backoff = min(max(2*backoff, 5*time.Millisecond), time.Second)
			s.logger.Error("accept failed", "error", err, "retry_in", backoff)
			time.Sleep(backoff)
			continue
		}
		backoff = 0
		s.metrics.ConnectionAccepted()
		s.logger.Debug("client connected", "address", conn.RemoteAddr().String())
		ch := network.NewChannel(conn, network.WithTimeout(s.timeout))
		if err := s.matchmaker.Enqueue(ch); err != nil {
			ch.Close()
			return nil
		}
	}
}

// Shutdown stops accepting, closes waiting connections and waits for
// running games. When ctx expires first the remaining games are killed and
// ctx.Err() is returned.
func (s *Server) Shutdown(ctx context.Context) error {
	s.mu.Lock()
	s.shutdown = true
	stop, done := s.stopMatch, s.mmDone
	s.mu.Unlock()

	s.closeListener()
	if stop != nil {
		stop()
		<-done
	}
	finished := make(chan struct{})
	go func() {
		s.matchmaker.Wait()
		close(finished)
	}()
	select {
	case <-finished:
		return nil
	case <-ctx.Done():
		s.matchmaker.Abort()
		<-finished
		return ctx.Err()
	}
}

func (s *Server) closeListener() {
	s.closeOnce.Do(func() {
		if err := s.listener.Close(); err != nil && !errors.Is(err, net.ErrClosed) {
			s.logger.Warn("closing listener", "error", err)
		}
	})
}
