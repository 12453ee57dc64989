// Package module mounts route groups under single-level path prefixes.
// Each module strips its prefix and serves its routes behind its own
// middleware stack.
package module

import (
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"sync"

	"github.com/JaimeStill/promptrepo/pkg/middleware"
	"github.com/JaimeStill/promptrepo/pkg/routes"
)

// Module serves a set of route groups beneath a prefix such as "/api".
type Module struct {
	prefix string
	mux    *http.ServeMux
	stack  middleware.Stack

	once    sync.Once
	handler http.Handler
}

// New creates a Module. Group prefixes are relative to the module prefix.
// It panics if prefix is empty, lacks a leading slash, or has more than one segment.
func New(prefix string, groups ...routes.Group) *Module {
	if err := validatePrefix(prefix); err != nil {
		panic(err)
	}

	mux := http.NewServeMux()
	routes.Register(mux, groups...)

	return &Module{
		prefix: prefix,
		mux:    mux,
	}
}

// Prefix returns the module's path prefix.
func (m *Module) Prefix() string {
	return m.prefix
}

// Use adds middleware to the module's stack. Middleware must be added before
// the module serves its first request.
func (m *Module) Use(mw func(http.Handler) http.Handler) {
	m.stack.Use(mw)
}

// Handler returns the module's routes wrapped with its middleware stack.
func (m *Module) Handler() http.Handler {
	m.once.Do(func() {
		m.handler = m.stack.Apply(m.mux)
	})
	return m.handler
}

// Serve strips the module prefix from the request path and dispatches to the module's routes.
func (m *Module) Serve(w http.ResponseWriter, req *http.Request) {
	m.Handler().ServeHTTP(w, strip(req, m.prefix))
}

func strip(req *http.Request, prefix string) *http.Request {
	path := strings.TrimPrefix(req.URL.Path, prefix)
	if path == "" {
		path = "/"
	}

	u := new(url.URL)
	*u = *req.URL
	u.Path = path
	u.RawPath = ""

	out := req.Clone(req.Context())
	out.URL = u
	return out
}

func validatePrefix(prefix string) error {
	switch {
	case prefix == "":
		return fmt.Errorf("module prefix cannot be empty")
	case !strings.HasPrefix(prefix, "/"):
		return fmt.Errorf("module prefix must start with /: %s", prefix)
	case strings.Count(prefix, "/") != 1:
		return fmt.Errorf("module prefix must be a single path segment: %s", prefix)
	}
	return nil
}
