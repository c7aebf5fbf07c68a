package roomd

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"os"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/danmuck/roomwire/internal/observability"
	"github.com/danmuck/roomwire/internal/protocol"
	"github.com/danmuck/roomwire/internal/protocol/session"
	"github.com/danmuck/roomwire/internal/registry"
	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"golang.org/x/sync/errgroup"
)

var ErrInvalidIdentityMode = errors.New("roomd: invalid identity mode")

// IdentityMode selects the registry key of a connection.
type IdentityMode string

const (
	// IdentityAddr keys by the full peer address (ip:port).
	IdentityAddr IdentityMode = "addr"
	// IdentityHost keys by peer IP, so connections from one host share a slot.
	IdentityHost IdentityMode = "host"
	// IdentityGenerated keys by a fresh uuid per connection.
	IdentityGenerated IdentityMode = "generated"
)

const (
	minAcceptBackoff = 5 * time.Millisecond
	maxAcceptBackoff = time.Second
)

// ServiceConfig configures the roomd listener and its sessions.
type ServiceConfig struct {
	NodeID       string
	ListenAddr   string
	IdentityMode IdentityMode
	IdleTimeout  time.Duration
	WriteTimeout time.Duration
	MetricsAddr  string
}

func DefaultServiceConfig() ServiceConfig {
	return ServiceConfig{
		NodeID:       "roomd",
		ListenAddr:   "127.0.0.1:42069",
		IdentityMode: IdentityAddr,
		IdleTimeout:  5 * time.Minute,
		WriteTimeout: 15 * time.Second,
		MetricsAddr:  "",
	}
}

func (c ServiceConfig) Validate() error {
	switch c.IdentityMode {
	case IdentityAddr, IdentityHost, IdentityGenerated:
		return nil
	default:
		return fmt.Errorf("%w: %q", ErrInvalidIdentityMode, c.IdentityMode)
	}
}

// Service accepts connections and runs one session goroutine per connection.
type Service struct {
	cfg      ServiceConfig
	registry *registry.Registry
	ids      IDSource

	connsMu sync.Mutex
	conns   map[net.Conn]struct{}
	closing bool

	sessions      sync.WaitGroup
	activeClients atomic.Int64
}

// NewService builds a service with default configuration around reg.
func NewService(reg *registry.Registry) *Service {
	return NewServiceWithConfig(DefaultServiceConfig(), reg)
}

// NewServiceWithConfig builds a service around reg. A nil reg gets a private
// registry.
func NewServiceWithConfig(cfg ServiceConfig, reg *registry.Registry) *Service {
	defaults := DefaultServiceConfig()
	if strings.TrimSpace(cfg.ListenAddr) == "" {
		cfg.ListenAddr = defaults.ListenAddr
	}
	if strings.TrimSpace(cfg.NodeID) == "" {
		cfg.NodeID = defaults.NodeID
	}
	if cfg.IdentityMode == "" {
		cfg.IdentityMode = defaults.IdentityMode
	}
	cfg.IdentityMode = IdentityMode(strings.ToLower(strings.TrimSpace(string(cfg.IdentityMode))))
	if reg == nil {
		reg = registry.New()
	}
	return &Service{
		cfg:      cfg,
		registry: reg,
		ids:      protocol.NewRandomU128,
		conns:    make(map[net.Conn]struct{}),
	}
}

func (s *Service) Registry() *registry.Registry {
	return s.registry
}

// SetIDSource replaces the message id generator. Call before Serve.
func (s *Service) SetIDSource(ids IDSource) {
	if ids != nil {
		s.ids = ids
	}
}

// ActiveClients reports the number of open sessions.
func (s *Service) ActiveClients() int64 {
	return s.activeClients.Load()
}

// Run binds the configured addresses and serves until ctx is done. Bind
// failures are returned before any connection is accepted.
func (s *Service) Run(ctx context.Context) error {
	if err := s.cfg.Validate(); err != nil {
		return err
	}
	ln, err := net.Listen("tcp", s.cfg.ListenAddr)
	if err != nil {
		return fmt.Errorf("roomd: listen %s: %w", s.cfg.ListenAddr, err)
	}
	log.Info().Str("addr", ln.Addr().String()).Str("identity_mode", string(s.cfg.IdentityMode)).Msg("roomd.Service.Run listening")

	var metricsLn net.Listener
	if addr := strings.TrimSpace(s.cfg.MetricsAddr); addr != "" {
		metricsLn, err = net.Listen("tcp", addr)
		if err != nil {
			_ = ln.Close()
			return fmt.Errorf("roomd: listen metrics %s: %w", addr, err)
		}
		log.Info().Str("addr", metricsLn.Addr().String()).Msg("roomd.Service.Run metrics listening")
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		return s.Serve(gctx, ln)
	})
	if metricsLn != nil {
		mux := http.NewServeMux()
		mux.Handle("/metrics", observability.Handler())
		srv := &http.Server{Handler: mux, ReadHeaderTimeout: 5 * time.Second}
		g.Go(func() error {
			if err := srv.Serve(metricsLn); err != nil && !errors.Is(err, http.ErrServerClosed) {
				return fmt.Errorf("roomd: metrics server: %w", err)
			}
			return nil
		})
		g.Go(func() error {
			<-gctx.Done()
			shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			return srv.Shutdown(shutdownCtx)
		})
	}
	return g.Wait()
}

// Serve accepts connections on ln until ctx is done or ln is closed. A failed
// accept is logged and retried. Serve waits for open sessions to finish
// before returning.
func (s *Service) Serve(ctx context.Context, ln net.Listener) error {
	if err := s.cfg.Validate(); err != nil {
		return err
	}
	defer s.sessions.Wait()
	defer ln.Close()

	stop := make(chan struct{})
	defer close(stop)
	go func() {
		select {
		case <-ctx.Done():
			s.closeAllConns()
			_ = ln.Close()
		case <-stop:
		}
	}()

	var backoff time.Duration
	for {
		conn, err := ln.Accept()
		if err != nil {
			if ctx.Err() != nil || errors.Is(err, net.ErrClosed) {
				return nil
			}
			backoff = nextAcceptBackoff(backoff)
			log.Error().Err(err).Dur("retry_in", backoff).Msg("roomd.Serve accept failed")
			if err := sleepCtx(ctx, backoff); err != nil {
				return nil
			}
			continue
		}
		backoff = 0
		if !s.trackConn(conn) {
			_ = conn.Close()
			continue
		}
		s.sessions.Add(1)
		go s.handleConn(conn)
	}
}

// handleConn runs one session until the peer leaves or the stream fails.
func (s *Service) handleConn(raw net.Conn) {
	defer s.sessions.Done()
	defer s.untrackConn(raw)
	defer raw.Close()

	started := time.Now()
	remote := raw.RemoteAddr().String()
	identity := s.identityFor(raw)
	logger := log.With().Str("remote", remote).Str("identity", identity).Logger()

	active := s.activeClients.Add(1)
	observability.RecordSessionOpened(s.cfg.NodeID)
	logger.Info().Int64("active_clients", active).Msg("roomd.session client connected")

	sess := NewSession(identity, s.registry, s.ids)
	defer func() {
		if r := recover(); r != nil {
			logger.Error().Interface("panic", r).Msg("roomd.session recovered panic")
		}
		sess.Close()
		remaining := s.activeClients.Add(-1)
		observability.RecordSessionClosed(s.cfg.NodeID, time.Since(started))
		logger.Info().Int64("active_clients", remaining).Dur("lifetime", time.Since(started)).Msg("roomd.session client disconnected")
	}()

	conn := session.NewConn(raw, session.Config{
		ReadTimeout:  s.cfg.IdleTimeout,
		WriteTimeout: s.cfg.WriteTimeout,
	})
	for {
		req, err := conn.ReadRequest()
		if err != nil {
			s.logReadError(logger, err)
			return
		}
		begin := time.Now()
		resp := sess.Handle(req)
		if err := conn.Send(resp); err != nil {
			logger.Warn().Err(err).Str("response", resp.Kind()).Msg("roomd.session write response failed")
			return
		}
		took := time.Since(begin)
		observability.ExchangeLogger(logger, req, resp, took)
		observability.ExchangeMetrics(s.cfg.NodeID, req, resp, took)
	}
}

func (s *Service) logReadError(logger zerolog.Logger, err error) {
	switch {
	case protocol.IsEndOfStream(err):
		logger.Debug().Msg("roomd.session peer closed")
	case errors.Is(err, net.ErrClosed):
		logger.Debug().Msg("roomd.session closed locally")
	case errors.Is(err, os.ErrDeadlineExceeded):
		logger.Info().Dur("idle_timeout", s.cfg.IdleTimeout).Msg("roomd.session idle timeout")
	case protocol.IsDecodeError(err):
		observability.RecordDecodeFailure(s.cfg.NodeID, err)
		logger.Warn().Err(err).Msg("roomd.session decode failed")
	default:
		logger.Warn().Err(err).Msg("roomd.session read failed")
	}
}

func (s *Service) identityFor(conn net.Conn) string {
	switch s.cfg.IdentityMode {
	case IdentityGenerated:
		return uuid.NewString()
	case IdentityHost:
		addr := conn.RemoteAddr().String()
		host, _, err := net.SplitHostPort(addr)
		if err != nil {
			return addr
		}
		return host
	default:
		return conn.RemoteAddr().String()
	}
}

func (s *Service) trackConn(conn net.Conn) bool {
	s.connsMu.Lock()
	defer s.connsMu.Unlock()
	if s.closing {
		return false
	}
	s.conns[conn] = struct{}{}
	return true
}

func (s *Service) untrackConn(conn net.Conn) {
	s.connsMu.Lock()
	defer s.connsMu.Unlock()
	delete(s.conns, conn)
}

// closeAllConns closes every tracked connection and refuses new ones.
func (s *Service) closeAllConns() {
	s.connsMu.Lock()
	defer s.connsMu.Unlock()
	s.closing = true
	for conn := range s.conns {
		_ = conn.Close()
		delete(s.conns, conn)
	}
}

func nextAcceptBackoff(prev time.Duration) time.Duration {
	if prev <= 0 {
		return minAcceptBackoff
	}
	next := prev * 2
	if next > maxAcceptBackoff {
		return maxAcceptBackoff
	}
	return next
}

func sleepCtx(ctx context.Context, d time.Duration) error {
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
