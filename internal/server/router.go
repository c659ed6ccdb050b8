package server

import (
	"net/http"

	"github.com/justinas/alice"
)

// BasicRouter is a simple HTTP router implementing the [Router] interface.
//
// Uses [http.ServeMux] method patterns for routing and an [alice.Chain] for middleware.
type BasicRouter struct {
	mux   *http.ServeMux
	chain alice.Chain
}

// NewBasicRouter creates a new [BasicRouter] instance.
func NewBasicRouter() *BasicRouter {
	return &BasicRouter{
		mux:   http.NewServeMux(),
		chain: alice.New(),
	}
}

// Use adds [Middleware] to the router's chain. The first middleware added is the outermost.
//
// Only handlers registered after the call are wrapped.
func (r *BasicRouter) Use(middleware ...Middleware) {
	r.chain = r.chain.Append(middleware...)
}

// Handle registers handler for the method and path. Other methods get 405 from the mux.
func (r *BasicRouter) Handle(method, path string, handler http.Handler) {
	r.mux.Handle(method+" "+path, r.Apply(handler))
}

// Handler registers a custom Handler implementation.
//
// All routes returned by [Handler.Routes] are registered with this handler.
func (r *BasicRouter) Handler(handler Handler) {
	wrapped := r.Apply(handler)

	for _, route := range handler.Routes() {
		r.mux.Handle(route, wrapped)
	}
}

// ServeHTTP implements [http.Handler] for the entire router.
func (r *BasicRouter) ServeHTTP(w http.ResponseWriter, req *http.Request) {
	r.mux.ServeHTTP(w, req)
}

// Apply wraps a handler with the current middleware chain.
func (r *BasicRouter) Apply(handler http.Handler) http.Handler {
	return r.chain.Then(handler)
}
