package web

import (
	"context"
	"io/fs"
	"net/http"
	"time"

	"github.com/gorilla/mux"

	"github.com/cjeanneret/PanAxis/internal/debug"
)

// Server wraps the HTTP server and handlers.
type Server struct {
	addr     string
	handlers *Handlers
}

// NewServer creates a server configured for the given address and dependencies.
func NewServer(addr string, broadcaster *StatusBroadcaster, axis Axis) (*Server, error) {
	subFS, err := fs.Sub(staticFiles, "static")
	if err != nil {
		return nil, err
	}
	return &Server{
		addr:     addr,
		handlers: NewHandlers(broadcaster, axis, subFS),
	}, nil
}

// Router returns an http.Handler with all routes registered.
func (s *Server) Router() http.Handler {
	h := s.handlers
	r := mux.NewRouter()

	// Routes live on the root router so a method mismatch answers 405.
	r.HandleFunc("/api/command", h.HandleCommand).Methods(http.MethodPost)
	r.HandleFunc("/api/move", h.HandleMove).Methods(http.MethodPost)
	r.HandleFunc("/api/position", h.HandlePosition).Methods(http.MethodGet)
	r.HandleFunc("/api/config", h.HandleConfig).Methods(http.MethodGet)

	r.HandleFunc("/status/stream", h.HandleStatusStream).Methods(http.MethodGet)
	r.HandleFunc("/ws", h.HandleWebsocket)
	r.PathPrefix("/static/").Handler(http.StripPrefix("/static/", http.FileServer(http.FS(h.staticFS))))
	r.HandleFunc("/", h.ServeIndex).Methods(http.MethodGet)

	return r
}

// Run starts the server and blocks until ctx is cancelled, then shuts down gracefully.
func (s *Server) Run(ctx context.Context) error {
	srv := &http.Server{Addr: s.addr, Handler: s.Router()}
	errCh := make(chan error, 1)
	go func() {
		debug.Info("Web server listening on %s", s.addr)
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if err != nil && err != http.ErrServerClosed {
			return err
		}
		return nil
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	}
}
