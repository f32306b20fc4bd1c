package api

import (
	"net/http"
	"path"
)

// route binds one method and path pattern to a handler.
type route struct {
	method  string
	pattern string
	handler http.HandlerFunc
}

// routes is the complete set of operations the API serves.
func (h *ItemsHandler) routes() []route {
	return []route{
		{http.MethodPost, "/register", h.Register},
		{http.MethodGet, "/inventory", h.List},
		{http.MethodGet, "/inventory/{id}", h.Get},
		{http.MethodPut, "/inventory/{id}", h.Update},
		{http.MethodDelete, "/inventory/{id}", h.Delete},
		{http.MethodGet, "/inventory/{id}/photo", h.GetPhoto},
		{http.MethodPut, "/inventory/{id}/photo", h.ReplacePhoto},
		{http.MethodPost, "/search", h.Search},
	}
}

// NewRouter creates the API router with all endpoints registered. Any method
// and path pair outside the route table gets a 405 with a JSON error body,
// including known paths requested with an unsupported method. Non-canonical
// paths such as "//inventory" are answered the same way instead of being
// redirected.
func NewRouter(h *ItemsHandler) http.Handler {
	mux := http.NewServeMux()

	byPattern := make(map[string]map[string]http.HandlerFunc)
	var patterns []string
	for _, rt := range h.routes() {
		methods, ok := byPattern[rt.pattern]
		if !ok {
			methods = make(map[string]http.HandlerFunc)
			byPattern[rt.pattern] = methods
			patterns = append(patterns, rt.pattern)
		}
		methods[rt.method] = rt.handler
	}

	for _, pattern := range patterns {
		methods := byPattern[pattern]
		mux.HandleFunc(pattern, func(w http.ResponseWriter, r *http.Request) {
			if handler, ok := methods[r.Method]; ok {
				handler(w, r)
				return
			}
			methodNotAllowed(w, r)
		})
	}

	mux.HandleFunc("/", methodNotAllowed)

	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if p := r.URL.Path; p != "/" && path.Clean(p) != p {
			methodNotAllowed(w, r)
			return
		}
		mux.ServeHTTP(w, r)
	})
}
