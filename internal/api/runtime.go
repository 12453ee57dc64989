package api

import (
	"github.com/JaimeStill/promptrepo/internal/config"
	"github.com/JaimeStill/promptrepo/internal/infrastructure"
	"github.com/JaimeStill/promptrepo/internal/session"
	"github.com/JaimeStill/promptrepo/pkg/pagination"
)

// Runtime extends Infrastructure with API-specific configuration.
type Runtime struct {
	*infrastructure.Infrastructure
	Apps               []string
	DefaultEnvironment string
	Aliases            map[string]string
	Cookies            session.Cookies
	Pagination         pagination.Config
}

// NewRuntime creates an API runtime with a module-scoped logger.
func NewRuntime(cfg *config.Config, infra *infrastructure.Infrastructure) *Runtime {
	scoped := *infra
	scoped.Logger = infra.Logger.With("module", "api")

	return &Runtime{
		Infrastructure:     &scoped,
		Apps:               cfg.Apps,
		DefaultEnvironment: cfg.DefaultEnvironment,
		Aliases:            cfg.Aliases,
		Cookies: session.Cookies{
			Name:   cfg.Auth.CookieName,
			Secure: cfg.Auth.CookieSecure,
		},
		Pagination: cfg.API.Pagination,
	}
}
