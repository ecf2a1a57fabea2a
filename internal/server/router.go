package server

import (
	"net/http"
	"strings"
)

// Middleware decorates a handler.
type Middleware func(http.Handler) http.Handler

// RouteHandler is a handler that declares the paths it serves, like [RedirectHandler].
type RouteHandler interface {
	http.Handler
	Routes() []string
}

// Router is the routing surface of the loopback listener.
type Router interface {
	http.Handler
	Use(middleware ...Middleware)
	Handle(method, path string, handler http.Handler)
	Mount(handler RouteHandler)
}

// BasicRouter routes exact paths on an [http.ServeMux].
//
// Unknown paths (browsers asking for /favicon.ico during the redirect) get a plain 404 that
// still passes through the middleware, so they show up in debug logs.
type BasicRouter struct {
	mux   *http.ServeMux
	chain []Middleware
}

var _ Router = (*BasicRouter)(nil)

func NewBasicRouter() *BasicRouter {
	return &BasicRouter{mux: http.NewServeMux()}
}

// Use appends middleware. Only routes registered afterwards are wrapped.
func (r *BasicRouter) Use(middleware ...Middleware) {
	r.chain = append(r.chain, middleware...)
}

// Handle serves handler on path for a single method; other methods get 405.
func (r *BasicRouter) Handle(method, path string, handler http.Handler) {
	method = strings.ToUpper(method)
	r.mux.Handle(path, r.wrap(http.HandlerFunc(func(w http.ResponseWriter, req *http.Request) {
		if req.Method != method {
			w.Header().Set("Allow", method)
			http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
			return
		}
		handler.ServeHTTP(w, req)
	})))
}

// Mount serves handler on each of its routes.
func (r *BasicRouter) Mount(handler RouteHandler) {
	wrapped := r.wrap(handler)
	for _, route := range handler.Routes() {
		r.mux.Handle(route, wrapped)
	}
}

func (r *BasicRouter) ServeHTTP(w http.ResponseWriter, req *http.Request) {
	if _, pattern := r.mux.Handler(req); pattern == "" {
		r.wrap(http.NotFoundHandler()).ServeHTTP(w, req)
		return
	}
	r.mux.ServeHTTP(w, req)
}

// wrap applies the middleware chain, first registered outermost.
func (r *BasicRouter) wrap(handler http.Handler) http.Handler {
	for i := len(r.chain) - 1; i >= 0; i-- {
		handler = r.chain[i](handler)
	}
	return handler
}
