package hostbridge

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"strings"
	"sync"
	"time"

	"ward/internal/blocklist"
	"ward/internal/logging"
	"ward/internal/player"
)

// Backend is the daemon surface the bridge exposes.
type Backend interface {
	// Status returns a JSON-encodable daemon status document.
	Status(ctx context.Context) any
	// BlockCurrent adds the current item to list and forces an intervention.
	BlockCurrent(ctx context.Context, list blocklist.List) (entry blocklist.Entry, added bool, err error)
}

// Options configure a Server.
type Options struct {
	Bind    string
	Token   string
	Metrics http.Handler
}

// Server is the host bridge HTTP server.
type Server struct {
	bind    string
	logger  *slog.Logger
	remote  *player.Remote
	backend Backend
	handler http.Handler

	mu       sync.Mutex
	listener net.Listener
	server   *http.Server
}

// New builds a bridge server. It returns nil when opts.Bind is empty.
func New(opts Options, remote *player.Remote, backend Backend, logger *slog.Logger) *Server {
	bind := strings.TrimSpace(opts.Bind)
	if bind == "" || remote == nil {
		return nil
	}
	s := &Server{
		bind:    bind,
		logger:  logging.NewComponentLogger(logger, "host-bridge"),
		remote:  remote,
		backend: backend,
	}

	api := http.NewServeMux()
	api.HandleFunc("POST /api/player", s.handlePlayer)
	api.HandleFunc("GET /api/commands", s.handleCommands)
	api.HandleFunc("POST /api/block", s.handleBlock)
	api.HandleFunc("GET /api/status", s.handleStatus)
	if opts.Metrics != nil {
		api.Handle("GET /metrics", opts.Metrics)
	}

	root := http.NewServeMux()
	root.HandleFunc("GET /healthz", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusNoContent)
	})
	root.Handle("/", authMiddleware(opts.Token, api))
	s.handler = root
	return s
}

// Handler exposes the routed handler, mainly for tests.
func (s *Server) Handler() http.Handler { return s.handler }

// Start listens on the configured address and serves until ctx ends.
func (s *Server) Start(ctx context.Context) error {
	if s == nil {
		return nil
	}
	listener, err := net.Listen("tcp", s.bind)
	if err != nil {
		return fmt.Errorf("host bridge listen: %w", err)
	}
	srv := &http.Server{
		Handler:           s.handler,
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       15 * time.Second,
		WriteTimeout:      30 * time.Second,
		IdleTimeout:       60 * time.Second,
	}

	s.mu.Lock()
	s.listener = listener
	s.server = srv
	s.mu.Unlock()

	go func() {
		if err := srv.Serve(listener); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logging.ErrorWithContext(s.logger, "host bridge stopped serving", "host_bridge_failed",
				logging.Error(err),
				logging.String(logging.FieldImpact, "player updates from the companion are no longer received"),
			)
		}
	}()

	go func() {
		<-ctx.Done()
		s.Stop()
	}()

	s.logger.Info("host bridge listening", logging.String("address", listener.Addr().String()))
	return nil
}

// Addr returns the bound address once started.
func (s *Server) Addr() string {
	if s == nil {
		return ""
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.listener == nil {
		return ""
	}
	return s.listener.Addr().String()
}

// Stop shuts the server down.
func (s *Server) Stop() {
	if s == nil {
		return
	}
	s.mu.Lock()
	srv := s.server
	s.server = nil
	s.mu.Unlock()
	if srv == nil {
		return
	}
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	_ = srv.Shutdown(shutdownCtx)
}
