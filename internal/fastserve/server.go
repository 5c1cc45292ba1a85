// Package fastserve implements the raw-socket fast transfer server: a
// minimal HTTP/1.1 subset served one connection per request, tuned for
// pushing file bytes across a LAN as fast as the Wi-Fi allows.
//
// The pipeline per connection is parse, resolve, negotiate range, register
// the transfer, stream with zero-copy, finalize. Concurrency is one
// goroutine per accepted connection with no cap: this is a small-peer-count
// LAN tool, not a multi-tenant server, and the simplicity is deliberate.
package fastserve

import (
	"context"
	"fmt"
	"net"
	"sync"
	"sync/atomic"
	"syscall"
	"time"

	"github.com/lansend/lansend/internal/logger"
	"github.com/lansend/lansend/internal/metrics"
	"github.com/lansend/lansend/internal/share"
	"github.com/lansend/lansend/internal/transfer"
)

// Config holds the fast transfer server settings.
type Config struct {
	// Port to listen on. The convention is web port + 1.
	Port int

	// ChunkSize bounds each streaming iteration. Larger chunks mean fewer
	// syscall round trips at the cost of coarser pause/cancel granularity.
	ChunkSize int64

	// SendBuffer and RecvBuffer size the kernel socket buffers at bind
	// time.
	SendBuffer int
	RecvBuffer int

	// PausePoll is how long the streamer sleeps between pause re-checks.
	PausePoll time.Duration
}

// ApplyDefaults fills zero fields with production defaults.
func (c *Config) ApplyDefaults() {
	if c.ChunkSize == 0 {
		c.ChunkSize = 8 * 1024 * 1024
	}
	if c.SendBuffer == 0 {
		c.SendBuffer = 16 * 1024 * 1024
	}
	if c.RecvBuffer == 0 {
		c.RecvBuffer = 1 * 1024 * 1024
	}
	if c.PausePoll == 0 {
		c.PausePoll = 200 * time.Millisecond
	}
}

// Server is the fast transfer server.
type Server struct {
	config   Config
	roots    *share.Roots
	registry *transfer.Registry
	metrics  metrics.TransferMetrics

	mu          sync.Mutex
	listener    net.Listener
	activeConns sync.WaitGroup
	connCount   atomic.Int32
}

// New creates a fast transfer server. The roots and registry are shared with
// the web layer; m may come from metrics.NewTransferMetrics() and degrades
// to a no-op when metrics are disabled.
func New(cfg Config, roots *share.Roots, registry *transfer.Registry, m metrics.TransferMetrics) *Server {
	cfg.ApplyDefaults()
	if m == nil {
		m = metrics.NewTransferMetrics()
	}
	return &Server{
		config:   cfg,
		roots:    roots,
		registry: registry,
		metrics:  m,
	}
}

// Serve binds the listener with tuned socket options and accepts connections
// until the context is cancelled. Each connection is handled in its own
// goroutine; a connection's failure never affects another's.
func (s *Server) Serve(ctx context.Context) error {
	lc := net.ListenConfig{
		Control: func(network, address string, c syscall.RawConn) error {
			return s.tuneSocket(c)
		},
	}

	listener, err := lc.Listen(ctx, "tcp", fmt.Sprintf(":%d", s.config.Port))
	if err != nil {
		return fmt.Errorf("bind fast transfer port %d: %w", s.config.Port, err)
	}
	s.mu.Lock()
	s.listener = listener
	s.mu.Unlock()
	logger.Info("Fast transfer server listening on %s", listener.Addr())

	go func() {
		<-ctx.Done()
		_ = listener.Close()
	}()

	for {
		tcpConn, err := listener.Accept()
		if err != nil {
			select {
			case <-ctx.Done():
				s.activeConns.Wait()
				return nil
			default:
				logger.Debug("Accept error: %v", err)
				continue
			}
		}

		s.metrics.RecordConnectionAccepted()
		s.metrics.SetActiveConnections(s.connCount.Add(1))

		c := &conn{server: s, rwc: tcpConn}
		s.activeConns.Add(1)
		go func() {
			defer s.activeConns.Done()
			c.serve()
			s.metrics.RecordConnectionClosed()
			s.metrics.SetActiveConnections(s.connCount.Add(-1))
		}()
	}
}

// Addr returns the bound listener address, or nil before Serve.
func (s *Server) Addr() net.Addr {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.listener == nil {
		return nil
	}
	return s.listener.Addr()
}

// Stop closes the listener. In-flight transfers run to completion.
func (s *Server) Stop() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.listener != nil {
		return s.listener.Close()
	}
	return nil
}
