package main

import (
	"encoding/json"
	"net/http"

	"github.com/JaimeStill/promptrepo/internal/api"
	"github.com/JaimeStill/promptrepo/internal/config"
	"github.com/JaimeStill/promptrepo/internal/infrastructure"
	"github.com/JaimeStill/promptrepo/pkg/module"
)

type Modules struct {
	API *module.Module
}

func NewModules(infra *infrastructure.Infrastructure, cfg *config.Config) (*Modules, error) {
	apiModule, err := api.NewModule(cfg, infra)
	if err != nil {
		return nil, err
	}

	return &Modules{
		API: apiModule,
	}, nil
}

func (m *Modules) Mount(router *module.Router) {
	router.Mount(m.API)
}

func buildRouter(infra *infrastructure.Infrastructure) *module.Router {
	router := module.NewRouter()

	router.HandleNative("GET /healthz", func(w http.ResponseWriter, r *http.Request) {
		writeStatus(w, http.StatusOK, readiness{Status: "ok"})
	})

	// Environments that failed their startup probe are listed but do not
	// make the service unready; they stay selectable and report their error.
	router.HandleNative("GET /readyz", func(w http.ResponseWriter, r *http.Request) {
		if !infra.Lifecycle.Ready() {
			writeStatus(w, http.StatusServiceUnavailable, readiness{Status: "not ready"})
			return
		}
		writeStatus(w, http.StatusOK, readiness{
			Status:     "ready",
			Components: infra.Lifecycle.Components(),
		})
	})

	return router
}

type readiness struct {
	Status     string            `json:"status"`
	Components map[string]string `json:"components,omitempty"`
}

func writeStatus(w http.ResponseWriter, code int, body readiness) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	json.NewEncoder(w).Encode(body)
}
