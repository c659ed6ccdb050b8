// package server contains the middleware, router & handlers for the offline snapshot mirror
package server

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/charmbracelet/log"
	"github.com/justinas/alice"

	"github.com/desertthunder/ssx/internal/models"
	"github.com/desertthunder/ssx/internal/shared"
)

// Middleware wraps an http.Handler and returns a new http.Handler with additional behavior.
//
// It is an alias of [alice.Constructor] so middleware can be chained directly.
type Middleware = alice.Constructor

// Handler defines the interface for HTTP request handlers mounted on a [Router].
type Handler interface {
	http.Handler      // ServeHTTP handles the HTTP request and writes the response
	Routes() []string // Routes returns the method-qualified patterns this handler serves
}

// Router defines the interface for HTTP routing and middleware management.
type Router interface {
	Use(middleware ...Middleware)                     // Use adds middleware to the router's middleware stack
	Handle(method, path string, handler http.Handler) // Handle registers a handler for the specified method and path
	Handler(handler Handler)                          // Handler registers a custom Handler implementation
	ServeHTTP(w http.ResponseWriter, r *http.Request) // ServeHTTP implements http.Handler for the entire router
}

// Source is the read side of the snapshot cache served by the mirror.
type Source interface {
	FavTracksSnapshots() []models.TracksSnapshot
	PlaylistsSnapshots() []models.PlaylistsSnapshot
	CachedFavTracks(ts int64) ([]models.AddedTrack, bool)
	CachedPlaylists(ts int64) ([]models.Playlist, bool)
}

// Server serves the locally cached snapshots over the backend's GET paths.
type Server struct {
	addr    string
	router  *BasicRouter
	logger  *log.Logger
	timeout time.Duration
}

// New builds a [Server] listening on addr that answers from src.
//
// Requests pass through request-ID, recovery and logging middleware, in that order.
func New(addr string, src Source, logger *log.Logger) *Server {
	if logger == nil {
		logger = shared.NewLogger(nil)
	}
	logger = shared.WithLogger(logger, "component", "server")

	router := NewBasicRouter()
	router.Use(RequestID, Recover(logger), Logging(logger))
	router.Handler(NewMirrorHandler(src))

	return &Server{addr: addr, router: router, logger: logger, timeout: 5 * time.Second}
}

// Handler returns the fully wrapped router.
func (s *Server) Handler() http.Handler {
	return s.router
}

// ListenAndServe serves until ctx is cancelled, then shuts down gracefully.
func (s *Server) ListenAndServe(ctx context.Context) error {
	srv := &http.Server{
		Addr:              s.addr,
		Handler:           s.router,
		ReadHeaderTimeout: s.timeout,
	}

	errCh := make(chan error, 1)
	go func() {
		s.logger.Info("mirror listening", "addr", s.addr)
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return fmt.Errorf("mirror server failed: %w", err)
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), s.timeout)
		defer cancel()
		s.logger.Info("shutting down mirror")
		if err := srv.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("mirror shutdown failed: %w", err)
		}
		return nil
	}
}
