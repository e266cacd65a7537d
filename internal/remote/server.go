package remote

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"sync"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/gorilla/websocket"
	"github.com/jonboulle/clockwork"
	"go.uber.org/zap"

	"github.com/muurk/fisinject/internal/engine"
	"github.com/muurk/fisinject/internal/logging"
	"github.com/muurk/fisinject/internal/metrics"
	"github.com/muurk/fisinject/internal/syncutil"
)

const (
	// DefaultAddr is the listen address used when Config.Addr is empty.
	DefaultAddr = ":8480"

	defaultMaxBody    = 4096
	readHeaderTimeout = 10 * time.Second
	shutdownTimeout   = 10 * time.Second
)

// Submitter queues display updates. *engine.Runner implements it.
type Submitter interface {
	Submit(ctx context.Context, req engine.Request) (engine.Result, error)
}

// StatusSource reports engine state. *engine.Engine implements it.
type StatusSource interface {
	Status() engine.Status
}

// Config holds the server configuration
type Config struct {
	Addr      string
	RateLimit float64 // submissions per second per client
	Burst     int
	MaxBody   int64 // largest accepted /updates body in bytes
	Clock     clockwork.Clock
}

// Server is the remote control HTTP server.
type Server struct {
	config   Config
	runner   Submitter
	status   StatusSource
	metrics  *metrics.Collector
	limiter  *ClientLimiter
	upgrader websocket.Upgrader
	handler  http.Handler

	wg          sync.WaitGroup
	mu          syncutil.Mutex
	httpServer  *http.Server
	listener    net.Listener
	serveErr    chan error
	closing     bool
	activeConns map[*websocket.Conn]string
}

// New creates a Server. collector may be nil, in which case /metrics is not
// served and nothing is recorded.
func New(config Config, runner Submitter, status StatusSource, collector *metrics.Collector) *Server {
	if config.Addr == "" {
		config.Addr = DefaultAddr
	}
	if config.MaxBody <= 0 {
		config.MaxBody = defaultMaxBody
	}
	if config.Clock == nil {
		config.Clock = clockwork.NewRealClock()
	}

	s := &Server{
		config:      config,
		runner:      runner,
		status:      status,
		metrics:     collector,
		limiter:     NewClientLimiter(config.RateLimit, config.Burst, config.Clock),
		activeConns: make(map[*websocket.Conn]string),
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin:     func(*http.Request) bool { return true },
		},
	}
	s.handler = s.routes()
	return s
}

func (s *Server) routes() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.Recoverer)
	r.Use(s.instrument)

	r.Group(func(r chi.Router) {
		r.Use(middleware.NoCache)
		r.Get("/status", s.handleStatus)
		r.Post("/updates", s.handleUpdates)
		r.Get("/ws", s.handleWebSocket)
	})
	if s.metrics != nil {
		r.Method(http.MethodGet, "/metrics", s.metrics.Handler())
	}
	return r
}

// Handler returns the router. It is usable without Start, e.g. in tests.
func (s *Server) Handler() http.Handler {
	return s.handler
}

// Limiter returns the submission rate limiter.
func (s *Server) Limiter() *ClientLimiter {
	return s.limiter
}

// Start listens on the configured address and serves in the background.
func (s *Server) Start() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.httpServer != nil {
		return errors.New("server already started")
	}

	listener, err := net.Listen("tcp", s.config.Addr)
	if err != nil {
		return fmt.Errorf("failed to listen on %s: %w", s.config.Addr, err)
	}
	s.listener = listener
	s.httpServer = &http.Server{
		Handler:           s.handler,
		ReadHeaderTimeout: readHeaderTimeout,
	}
	s.serveErr = make(chan error, 1)

	srv := s.httpServer
	go func() {
		err := srv.Serve(listener)
		if errors.Is(err, http.ErrServerClosed) {
			err = nil
		}
		s.serveErr <- err
	}()

	logging.Info("Remote control listening",
		zap.String("addr", listener.Addr().String()),
		zap.Float64("rate_limit", float64(s.limiter.limit)),
		zap.Int("burst", s.limiter.burst),
	)
	return nil
}

// Run starts the server unless Start was already called, and blocks until
// ctx is done or serving fails, then shuts down.
func (s *Server) Run(ctx context.Context) error {
	s.mu.Lock()
	started := s.httpServer != nil
	s.mu.Unlock()
	if !started {
		if err := s.Start(); err != nil {
			return err
		}
	}

	s.mu.Lock()
	serveErr := s.serveErr
	s.mu.Unlock()

	s.limiter.StartCleanup(ctx)

	select {
	case <-ctx.Done():
		logging.Info("Shutdown requested, stopping remote control")
	case err := <-serveErr:
		if err != nil {
			return fmt.Errorf("remote control server failed: %w", err)
		}
		return nil
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	return s.Shutdown(shutdownCtx)
}

// Addr returns the bound address, or nil before Start.
func (s *Server) Addr() net.Addr {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.listener == nil {
		return nil
	}
	return s.listener.Addr()
}

// Port returns the bound TCP port, or 0 before Start.
func (s *Server) Port() int {
	if addr, ok := s.Addr().(*net.TCPAddr); ok {
		return addr.Port
	}
	return 0
}

// Shutdown stops accepting requests, closes websocket sessions and waits for
// their handlers to return.
func (s *Server) Shutdown(ctx context.Context) error {
	s.mu.Lock()
	s.closing = true
	srv := s.httpServer
	conns := make(map[*websocket.Conn]string, len(s.activeConns))
	for conn, client := range s.activeConns {
		conns[conn] = client
	}
	s.mu.Unlock()

	for conn, client := range conns {
		logging.Debug("Closing websocket session", zap.String("client", client))
		_ = conn.WriteControl(websocket.CloseMessage,
			websocket.FormatCloseMessage(websocket.CloseGoingAway, "server shutting down"),
			time.Now().Add(writeWait))
		_ = conn.Close()
	}

	var err error
	if srv != nil {
		err = srv.Shutdown(ctx)
	}

	done := make(chan struct{})
	go func() {
		s.wg.Wait()
		close(done)
	}()
	select {
	case <-done:
		logging.Info("Remote control stopped")
	case <-ctx.Done():
		logging.Warn("Shutdown timeout, some sessions may not have closed cleanly")
		if err == nil {
			err = ctx.Err()
		}
	}
	return err
}

// track registers a websocket session. It fails once shutdown has begun.
func (s *Server) track(conn *websocket.Conn, client string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closing {
		return false
	}
	s.activeConns[conn] = client
	s.wg.Add(1)
	return true
}

func (s *Server) untrack(conn *websocket.Conn) {
	s.mu.Lock()
	delete(s.activeConns, conn)
	s.mu.Unlock()
	s.wg.Done()
}

// instrument records request counts and durations by route pattern.
func (s *Server) instrument(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := s.config.Clock.Now()
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)

		next.ServeHTTP(ww, r)

		status := ww.Status()
		switch {
		case status != 0:
		case websocket.IsWebSocketUpgrade(r):
			status = http.StatusSwitchingProtocols
		default:
			status = http.StatusOK
		}

		path := "unmatched"
		if rctx := chi.RouteContext(r.Context()); rctx != nil && rctx.RoutePattern() != "" {
			path = rctx.RoutePattern()
		}
		elapsed := s.config.Clock.Since(start)

		logging.Debug("HTTP request",
			zap.String("method", r.Method),
			zap.String("path", path),
			zap.Int("status", status),
			zap.Duration("duration", elapsed),
			zap.String("remote_addr", r.RemoteAddr),
		)
		if s.metrics != nil {
			s.metrics.RecordHTTPRequest(r.Method, path, status, elapsed)
		}
	})
}
