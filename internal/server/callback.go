package server

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"sync"
	"time"

	"github.com/charmbracelet/log"
	"github.com/desertthunder/intmo/internal/auth"
	"github.com/desertthunder/intmo/internal/shared"
)

// ShutdownTimeout bounds how long Dispose waits for in-flight requests.
const ShutdownTimeout = 2 * time.Second

// CallbackServer is a loopback listener that exists only while a registration is live.
type CallbackServer struct {
	addr   string
	path   string
	logger *log.Logger

	mu     sync.Mutex
	active *listenerRegistration
}

var _ auth.CallbackRegistrar = (*CallbackServer)(nil)

// NewCallbackServer creates a [CallbackServer] for addr (host:port) serving path.
func NewCallbackServer(addr, path string, logger *log.Logger) *CallbackServer {
	if logger == nil {
		logger = shared.NewLogger(nil)
	}
	return &CallbackServer{
		addr:   addr,
		path:   path,
		logger: shared.WithLogger(logger, "component", "callback"),
	}
}

// Register starts listening and routes the callback path to handler.
//
// It fails with [shared.ErrAcceptorBusy] while another registration is live.
func (s *CallbackServer) Register(handler auth.CallbackHandler) (auth.Disposable, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.active != nil {
		return nil, shared.ErrAcceptorBusy
	}

	ln, err := net.Listen("tcp", s.addr)
	if err != nil {
		return nil, fmt.Errorf("failed to listen on %s: %w", s.addr, err)
	}

	router := NewBasicRouter()
	router.Use(RecoverMiddleware(s.logger), LoggingMiddleware(s.logger))
	router.Mount(NewRedirectHandler(s.path, handler))

	srv := &http.Server{
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	reg := &listenerRegistration{owner: s, srv: srv, addr: ln.Addr().String()}
	s.active = reg

	go func() {
		if err := srv.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
			s.logger.Error("callback server stopped", "error", err)
		}
	}()

	s.logger.Debug("listening for authorization callback", "addr", reg.addr, "path", s.path)
	return reg, nil
}

// Addr returns the bound address of the live registration, or "" when idle.
func (s *CallbackServer) Addr() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.active == nil {
		return ""
	}
	return s.active.addr
}

type listenerRegistration struct {
	owner *CallbackServer
	srv   *http.Server
	addr  string
	once  sync.Once
}

// Dispose shuts the listener down. Safe to call more than once.
func (r *listenerRegistration) Dispose() {
	r.once.Do(func() {
		ctx, cancel := context.WithTimeout(context.Background(), ShutdownTimeout)
		defer cancel()

		if err := r.srv.Shutdown(ctx); err != nil {
			r.owner.logger.Warn("callback server shutdown", "error", err)
			_ = r.srv.Close()
		}

		r.owner.mu.Lock()
		if r.owner.active == r {
			r.owner.active = nil
		}
		r.owner.mu.Unlock()
	})
}
