// Package api assembles the API module with the console system and route registration.
package api

import (
	"github.com/JaimeStill/promptrepo/internal/config"
	"github.com/JaimeStill/promptrepo/internal/infrastructure"
	"github.com/JaimeStill/promptrepo/pkg/middleware"
	"github.com/JaimeStill/promptrepo/pkg/module"
)

// NewModule creates the API module with all domain handlers and middleware.
func NewModule(cfg *config.Config, infra *infrastructure.Infrastructure) (*module.Module, error) {
	runtime := NewRuntime(cfg, infra)
	domain := NewDomain(runtime)

	spec, err := specRoutes(cfg)
	if err != nil {
		return nil, err
	}

	m := module.New(cfg.API.BasePath, append(routeGroups(domain), spec)...)
	m.Use(middleware.CORS(&cfg.API.CORS))
	m.Use(middleware.Logger(runtime.Logger))
	m.Use(middleware.MaxBytes(cfg.API.MaxDocumentSizeBytes()))

	return m, nil
}
