// Package openapi builds and serves OpenAPI 3.1 documents for API modules.
package openapi

import (
	"encoding/json"
	"net/http"
)

// Spec represents an OpenAPI 3.1 specification document.
type Spec struct {
	OpenAPI    string               `json:"openapi"`
	Info       *Info                `json:"info"`
	Servers    []*Server            `json:"servers,omitempty"`
	Paths      map[string]*PathItem `json:"paths"`
	Components *Components          `json:"components,omitempty"`
}

// NewSpec creates a Spec from cfg with the shared components.
func NewSpec(cfg *Config, version string) *Spec {
	return &Spec{
		OpenAPI: "3.1.0",
		Info: &Info{
			Title:       cfg.Title,
			Version:     version,
			Description: cfg.Description,
		},
		Components: NewComponents(),
		Paths:      make(map[string]*PathItem),
	}
}

// AddServer appends a server URL to the spec.
func (s *Spec) AddServer(url string) {
	s.Servers = append(s.Servers, &Server{URL: url})
}

// AddPaths merges path items into the spec. Operations on a path that
// already exists are combined.
func (s *Spec) AddPaths(paths map[string]*PathItem) {
	for path, item := range paths {
		existing, ok := s.Paths[path]
		if !ok {
			s.Paths[path] = item
			continue
		}
		existing.merge(item)
	}
}

// Handler serializes the spec once and returns a handler that serves it.
func (s *Spec) Handler() (http.HandlerFunc, error) {
	data, err := json.MarshalIndent(s, "", "  ")
	if err != nil {
		return nil, err
	}

	return func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json; charset=utf-8")
		w.WriteHeader(http.StatusOK)
		w.Write(data)
	}, nil
}

func (p *PathItem) merge(other *PathItem) {
	if other.Get != nil {
		p.Get = other.Get
	}
	if other.Post != nil {
		p.Post = other.Post
	}
	if other.Put != nil {
		p.Put = other.Put
	}
	if other.Delete != nil {
		p.Delete = other.Delete
	}
}
