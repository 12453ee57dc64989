// Package dispatch routes repository operations to the store of the selected
// environment. It is the only place that branches on storage provider.
package dispatch

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"sync"

	"github.com/JaimeStill/promptrepo/internal/config"
	"github.com/JaimeStill/promptrepo/internal/document"
	"github.com/JaimeStill/promptrepo/internal/repository"
	"github.com/JaimeStill/promptrepo/pkg/storage"
)

// Option configures a Dispatcher.
type Option func(*Dispatcher)

// WithBucket uses bucket for env instead of opening one from configuration.
func WithBucket(env string, bucket storage.Bucket) Option {
	return func(d *Dispatcher) {
		d.buckets[env] = bucket
	}
}

// WithStoreOptions passes opts to every store the dispatcher creates.
func WithStoreOptions(opts ...repository.Option) Option {
	return func(d *Dispatcher) {
		d.storeOpts = append(d.storeOpts, opts...)
	}
}

// Dispatcher resolves environment names to versioned stores. Each
// environment's store is opened on first use and reused afterwards.
type Dispatcher struct {
	envs      []config.EnvironmentConfig
	naming    repository.Naming
	logger    *slog.Logger
	storeOpts []repository.Option

	mu      sync.Mutex
	buckets map[string]storage.Bucket
	stores  map[string]repository.Store
}

// New creates a Dispatcher over envs.
func New(envs []config.EnvironmentConfig, naming repository.Naming, logger *slog.Logger, opts ...Option) *Dispatcher {
	d := &Dispatcher{
		envs:    envs,
		naming:  naming,
		logger:  logger.With("system", "dispatch"),
		buckets: make(map[string]storage.Bucket),
		stores:  make(map[string]repository.Store),
	}
	for _, opt := range opts {
		opt(d)
	}
	return d
}

// Naming returns the key naming rules shared by every environment.
func (d *Dispatcher) Naming() repository.Naming {
	return d.naming
}

// Environments returns the configured environment names in configuration order.
func (d *Dispatcher) Environments() []string {
	names := make([]string, len(d.envs))
	for i, env := range d.envs {
		names[i] = env.Name
	}
	return names
}

// Has reports whether env is configured.
func (d *Dispatcher) Has(env string) bool {
	_, err := d.environment(env)
	return err == nil
}

// ConfirmWrites reports whether writes to env must be confirmed before upload.
func (d *Dispatcher) ConfirmWrites(env string) bool {
	cfg, err := d.environment(env)
	return err == nil && cfg.ConfirmWrites
}

// BackendURL returns the companion backend base URL for env.
func (d *Dispatcher) BackendURL(env string) (string, error) {
	cfg, err := d.environment(env)
	if err != nil {
		return "", err
	}
	if cfg.BackendURL == "" {
		return "", &storage.ConfigError{Key: "backend_url", EnvVar: cfg.BackendURLEnv()}
	}
	return cfg.BackendURL, nil
}

// Check reports whether env is configured well enough to open its store,
// without contacting storage.
func (d *Dispatcher) Check(env string) error {
	cfg, err := d.environment(env)
	if err != nil {
		return err
	}
	if _, ok := d.cachedBucket(env); ok {
		return nil
	}
	if err := cfg.Storage.Validate(cfg.StorageEnv()); err != nil {
		return fmt.Errorf("environment %s: %w", env, err)
	}
	return nil
}

// Resolve returns the store for env, opening it on first use.
func (d *Dispatcher) Resolve(ctx context.Context, env string) (repository.Store, error) {
	cfg, err := d.environment(env)
	if err != nil {
		return nil, err
	}

	d.mu.Lock()
	defer d.mu.Unlock()

	if store, ok := d.stores[env]; ok {
		return store, nil
	}

	bucket, ok := d.buckets[env]
	if !ok {
		bucket, err = d.open(ctx, cfg)
		if err != nil {
			return nil, fmt.Errorf("environment %s: %w", env, err)
		}
		d.buckets[env] = bucket
	}

	store := repository.New(bucket, d.naming, d.logger.With("environment", env), d.storeOpts...)
	d.stores[env] = store

	d.logger.Info("environment opened", "environment", env, "location", bucket.Location())
	return store, nil
}

// Location describes the storage location of env without opening it.
func (d *Dispatcher) Location(env string) (string, error) {
	cfg, err := d.environment(env)
	if err != nil {
		return "", err
	}
	if b, ok := d.cachedBucket(env); ok {
		return b.Location(), nil
	}
	return fmt.Sprintf("%s:%s", cfg.Storage.Provider, cfg.Storage.Container), nil
}

func (d *Dispatcher) Latest(ctx context.Context, env, app string) (*repository.Snapshot, error) {
	store, err := d.Resolve(ctx, env)
	if err != nil {
		return nil, err
	}
	return store.Latest(ctx, app)
}

func (d *Dispatcher) Upload(ctx context.Context, env, app string, doc *document.Document) (string, error) {
	store, err := d.Resolve(ctx, env)
	if err != nil {
		return "", err
	}
	return store.Upload(ctx, app, doc)
}

func (d *Dispatcher) Versions(ctx context.Context, env, app string) ([]string, error) {
	store, err := d.Resolve(ctx, env)
	if err != nil {
		return nil, err
	}
	return store.Versions(ctx, app)
}

func (d *Dispatcher) Fetch(ctx context.Context, env, key string) (*document.Document, error) {
	store, err := d.Resolve(ctx, env)
	if err != nil {
		return nil, err
	}
	return store.Fetch(ctx, key)
}

func (d *Dispatcher) Metadata(ctx context.Context, env, app string) (json.RawMessage, error) {
	store, err := d.Resolve(ctx, env)
	if err != nil {
		return nil, err
	}
	return store.Metadata(ctx, app)
}

func (d *Dispatcher) PutMetadata(ctx context.Context, env, app string, raw json.RawMessage) (string, error) {
	store, err := d.Resolve(ctx, env)
	if err != nil {
		return "", err
	}
	return store.PutMetadata(ctx, app, raw)
}

func (d *Dispatcher) open(ctx context.Context, cfg *config.EnvironmentConfig) (storage.Bucket, error) {
	if err := cfg.Storage.Validate(cfg.StorageEnv()); err != nil {
		return nil, err
	}

	logger := d.logger.With("environment", cfg.Name)

	switch cfg.Storage.Provider {
	case storage.ProviderAzure:
		return storage.NewAzure(&cfg.Storage, logger)
	case storage.ProviderS3:
		return storage.NewS3(ctx, &cfg.Storage, logger)
	case storage.ProviderMemory:
		return storage.NewMemory(cfg.Storage.Container), nil
	default:
		return nil, fmt.Errorf("unknown provider %q", cfg.Storage.Provider)
	}
}

func (d *Dispatcher) cachedBucket(env string) (storage.Bucket, bool) {
	d.mu.Lock()
	defer d.mu.Unlock()
	b, ok := d.buckets[env]
	return b, ok
}

func (d *Dispatcher) environment(env string) (*config.EnvironmentConfig, error) {
	for i := range d.envs {
		if d.envs[i].Name == env {
			return &d.envs[i], nil
		}
	}
	return nil, fmt.Errorf("%w: %q", ErrUnknownEnvironment, env)
}
