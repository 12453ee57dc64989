// Package infrastructure provides core service initialization for application startup.
// It assembles the shared dependencies (logging, environment dispatch, caching,
// sessions, and the companion backend client) that the console requires.
package infrastructure

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"
	"time"

	"github.com/JaimeStill/promptrepo/internal/backend"
	"github.com/JaimeStill/promptrepo/internal/cache"
	"github.com/JaimeStill/promptrepo/internal/config"
	"github.com/JaimeStill/promptrepo/internal/dispatch"
	"github.com/JaimeStill/promptrepo/internal/repository"
	"github.com/JaimeStill/promptrepo/internal/session"
	"github.com/JaimeStill/promptrepo/pkg/lifecycle"
)

const probeTimeout = 10 * time.Second

// Infrastructure holds the core systems required by the console and the CLI.
type Infrastructure struct {
	Lifecycle  *lifecycle.Coordinator
	Logger     *slog.Logger
	Dispatcher *dispatch.Dispatcher
	Snapshots  *cache.Cache
	Backend    *backend.Client
	Sessions   *session.Store
	Auth       *session.Authenticator
}

// New creates an Infrastructure from the application configuration.
// It initializes all systems but does not start them; call Start separately.
func New(cfg *config.Config, opts ...dispatch.Option) (*Infrastructure, error) {
	logger := NewLogger(&cfg.Log, os.Stderr)

	auth, err := session.NewAuthenticator(&cfg.Auth, logger)
	if err != nil {
		return nil, fmt.Errorf("auth init failed: %w", err)
	}

	naming := repository.Naming{
		LegacyApp:      cfg.LegacyApp,
		LegacyFallback: cfg.LegacyFallback,
	}

	return &Infrastructure{
		Lifecycle:  lifecycle.New(),
		Logger:     logger,
		Dispatcher: dispatch.New(cfg.Environments, naming, logger, opts...),
		Snapshots:  cache.New(cfg.Cache.Size, cfg.Cache.TTLDuration()),
		Backend:    backend.New(cfg.Backend.Token, cfg.Backend.TimeoutDuration(), logger),
		Sessions:   session.NewStore(cfg.Auth.MaxSessions, cfg.Auth.SessionTTLDuration()),
		Auth:       auth,
	}, nil
}

// NewLogger builds the process logger from cfg, writing to w.
func NewLogger(cfg *config.LogConfig, w io.Writer) *slog.Logger {
	opts := &slog.HandlerOptions{Level: cfg.SlogLevel()}
	if strings.EqualFold(cfg.Format, "json") {
		return slog.New(slog.NewJSONHandler(w, opts))
	}
	return slog.New(slog.NewTextHandler(w, opts))
}

// Start registers infrastructure hooks with the lifecycle coordinator.
// Startup opens every environment so misconfiguration is reported once at
// boot; an environment that fails stays selectable and reports its error
// when used. Shutdown drops cached documents and sessions.
func (i *Infrastructure) Start() error {
	if !i.Auth.Configured() {
		i.Logger.Warn("console password is not configured; logins will be refused")
	}

	i.Lifecycle.OnStartup(func() {
		ctx, cancel := context.WithTimeout(i.Lifecycle.Context(), probeTimeout)
		defer cancel()
		i.Probe(ctx)
	})

	i.Lifecycle.OnShutdown(func() {
		<-i.Lifecycle.Context().Done()
		i.Snapshots.InvalidateAll()
		i.Logger.Info("infrastructure stopped", "sessions", i.Sessions.Len())
	})

	return nil
}

// Probe opens each configured environment and logs the outcome. It returns
// the errors keyed by environment name.
func (i *Infrastructure) Probe(ctx context.Context) map[string]error {
	failures := make(map[string]error)
	for _, env := range i.Dispatcher.Environments() {
		err := i.Dispatcher.Check(env)
		if err == nil {
			_, err = i.Dispatcher.Resolve(ctx, env)
		}
		i.Lifecycle.Report("environment:"+env, err)

		if err != nil {
			failures[env] = err
			i.Logger.Warn("environment unavailable", "environment", env, "error", err)
			continue
		}
		i.Logger.Info("environment ready", "environment", env)
	}
	return failures
}
