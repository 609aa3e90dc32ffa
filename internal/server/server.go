package server

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"sync"
	"time"

	"github.com/warpdl/ambiance/pkg/ambiance"
	"github.com/warpdl/ambiance/pkg/logger"
)

// ErrServerStarted is returned by Start on a server that is already listening.
var ErrServerStarted = errors.New("rpc server already started")

// Server exposes the JSON-RPC endpoints of a playing ambiance over HTTP:
// POST /jsonrpc for single calls and /jsonrpc/ws for sessions with push
// notifications.
type Server struct {
	log      logger.Logger
	cfg      *RPCConfig
	rpc      *RPCServer
	server   *http.Server
	listener net.Listener
	mu       sync.Mutex
}

// NewServer creates a server controlling h.
func NewServer(cfg *RPCConfig, h *ambiance.Host, l logger.Logger) *Server {
	if l == nil {
		l = logger.NewNopLogger()
	}
	return &Server{
		log: l,
		cfg: cfg,
		rpc: NewRPCServer(cfg, h, l),
	}
}

// Handler returns the HTTP handler serving both endpoints behind the
// bearer token check.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.Handle("/jsonrpc", requireToken(s.cfg.Secret, s.rpc.bridge))
	mux.Handle("/jsonrpc/ws", requireToken(s.cfg.Secret, http.HandlerFunc(s.rpc.serveWS)))
	return mux
}

// Notifier returns the WebSocket push notifier.
func (s *Server) Notifier() *RPCNotifier {
	return s.rpc.notifier
}

func (s *Server) addr() string {
	host := "127.0.0.1"
	if s.cfg.ListenAll {
		host = "0.0.0.0"
	}
	return net.JoinHostPort(host, fmt.Sprint(s.cfg.Port))
}

// Listen binds the TCP listener without serving yet.
func (s *Server) Listen() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.listener != nil {
		return ErrServerStarted
	}
	l, err := net.Listen("tcp", s.addr())
	if err != nil {
		return fmt.Errorf("error listening: %w", err)
	}
	s.listener = l
	s.server = &http.Server{
		Handler:           s.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}
	return nil
}

// Addr returns the bound address, or nil before Listen.
func (s *Server) Addr() net.Addr {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.listener == nil {
		return nil
	}
	return s.listener.Addr()
}

// Start listens (unless Listen was called) and serves until the context is
// canceled or Shutdown is called.
func (s *Server) Start(ctx context.Context) error {
	if s.Addr() == nil {
		if err := s.Listen(); err != nil {
			return err
		}
	}
	s.mu.Lock()
	srv, l := s.server, s.listener
	s.mu.Unlock()

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()
	go s.rpc.notifier.Run(ctx)
	go func() {
		<-ctx.Done()
		shutdownCtx, done := context.WithTimeout(context.Background(), 5*time.Second)
		defer done()
		s.Shutdown(shutdownCtx)
	}()

	s.log.Info("JSON-RPC listening on %s", l.Addr())
	err := srv.Serve(l)
	if errors.Is(err, http.ErrServerClosed) {
		return nil
	}
	return err
}

// Shutdown gracefully stops the HTTP server and releases the bridge.
func (s *Server) Shutdown(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.server == nil {
		return nil
	}
	err := s.server.Shutdown(ctx)
	if err != nil {
		s.log.Error("Error shutting down RPC server: %v", err)
	}
	s.rpc.Close()
	s.server = nil
	s.listener = nil
	return err
}
