// Package repository stores append-only, timestamped versions of an
// application's prompt repository document in a storage bucket.
package repository

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"slices"
	"time"

	"github.com/JaimeStill/promptrepo/internal/document"
	"github.com/JaimeStill/promptrepo/pkg/formatting"
	"github.com/JaimeStill/promptrepo/pkg/storage"
)

const contentType = "application/json"

// Snapshot is the latest version of an application's document.
// Key is empty and Scaffolded is true when no version exists yet.
type Snapshot struct {
	Key        string             `json:"key"`
	Document   *document.Document `json:"document"`
	Scaffolded bool               `json:"scaffolded"`
	Legacy     bool               `json:"legacy"`
}

// Store is the versioned document contract implemented over every storage provider.
type Store interface {
	// Latest returns the most recent version for app, or a scaffold if none exist.
	Latest(ctx context.Context, app string) (*Snapshot, error)
	// Upload writes doc as a new version of app and returns its key.
	// Existing versions are never overwritten.
	Upload(ctx context.Context, app string, doc *document.Document) (string, error)
	// Versions returns the version keys of app, most recent first.
	Versions(ctx context.Context, app string) ([]string, error)
	// Fetch reads one version by key.
	Fetch(ctx context.Context, key string) (*document.Document, error)
	// Metadata reads app's metadata document.
	Metadata(ctx context.Context, app string) (json.RawMessage, error)
	// PutMetadata replaces app's metadata document and returns its key.
	PutMetadata(ctx context.Context, app string, raw json.RawMessage) (string, error)
	// Location describes the underlying bucket.
	Location() string
}

// Option configures a Store.
type Option func(*versioned)

// WithClock overrides the time source used to mint version keys.
func WithClock(now func() time.Time) Option {
	return func(v *versioned) {
		v.now = now
	}
}

type versioned struct {
	bucket storage.Bucket
	naming Naming
	now    func() time.Time
	logger *slog.Logger
}

// New creates a Store over bucket.
func New(bucket storage.Bucket, naming Naming, logger *slog.Logger, opts ...Option) Store {
	v := &versioned{
		bucket: bucket,
		naming: naming,
		now:    time.Now,
		logger: logger.With("system", "repository", "location", bucket.Location()),
	}
	for _, opt := range opts {
		opt(v)
	}
	return v
}

func (v *versioned) Location() string {
	return v.bucket.Location()
}

func (v *versioned) Latest(ctx context.Context, app string) (*Snapshot, error) {
	keys, legacy, err := v.versions(ctx, app)
	if err != nil {
		return nil, err
	}

	if len(keys) == 0 {
		v.logger.Warn("no versions found, using scaffold", "app", app)
		return &Snapshot{
			Document:   document.Scaffold(app),
			Scaffolded: true,
		}, nil
	}

	doc, err := v.Fetch(ctx, keys[0])
	if err != nil {
		return nil, err
	}

	v.logger.Info("loaded latest version", "app", app, "key", keys[0])
	return &Snapshot{Key: keys[0], Document: doc, Legacy: legacy}, nil
}

func (v *versioned) Upload(ctx context.Context, app string, doc *document.Document) (string, error) {
	data, err := doc.Encode()
	if err != nil {
		return "", fmt.Errorf("encode document: %w", err)
	}

	key := v.naming.VersionKey(app, v.now())
	if err := v.bucket.Create(ctx, key, data, contentType); err != nil {
		if errors.Is(err, storage.ErrExists) {
			return "", fmt.Errorf("%w: %s", ErrVersionExists, key)
		}
		return "", err
	}

	v.logger.Info(
		"version uploaded",
		"app", app,
		"key", key,
		"size", formatting.FormatBytes(int64(len(data)), 1),
	)
	return key, nil
}

func (v *versioned) Versions(ctx context.Context, app string) ([]string, error) {
	keys, _, err := v.versions(ctx, app)
	return keys, err
}

func (v *versioned) Fetch(ctx context.Context, key string) (*document.Document, error) {
	data, err := v.bucket.Read(ctx, key)
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			return nil, fmt.Errorf("%w: %s", ErrVersionNotFound, key)
		}
		return nil, err
	}

	doc, err := document.Decode(data)
	if err != nil {
		v.logger.Error("malformed document", "key", key, "error", err)
		return nil, fmt.Errorf("%w: %s: %v", ErrMalformedDocument, key, err)
	}
	return doc, nil
}

func (v *versioned) Metadata(ctx context.Context, app string) (json.RawMessage, error) {
	key := v.naming.MetadataKey(app)

	data, err := v.bucket.Read(ctx, key)
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			return nil, fmt.Errorf("%w: %s", ErrMetadataNotFound, key)
		}
		return nil, err
	}

	if !json.Valid(data) {
		return nil, fmt.Errorf("%w: %s", ErrMalformedDocument, key)
	}
	return json.RawMessage(data), nil
}

func (v *versioned) PutMetadata(ctx context.Context, app string, raw json.RawMessage) (string, error) {
	var parsed any
	if err := json.Unmarshal(raw, &parsed); err != nil {
		return "", fmt.Errorf("decode metadata: %w", err)
	}
	data, err := json.MarshalIndent(parsed, "", "    ")
	if err != nil {
		return "", fmt.Errorf("encode metadata: %w", err)
	}

	key := v.naming.MetadataKey(app)
	if err := v.bucket.Put(ctx, key, data, contentType); err != nil {
		return "", err
	}

	v.logger.Info("metadata uploaded", "app", app, "key", key)
	return key, nil
}

// versions lists keys under app's prefix, newest first. When none exist and
// legacy fallback is enabled, keys under the bare prefix are returned and
// legacy is true.
func (v *versioned) versions(ctx context.Context, app string) (keys []string, legacy bool, err error) {
	prefix := v.naming.Prefix(app)

	keys, err = v.bucket.List(ctx, prefix)
	if err != nil {
		return nil, false, err
	}

	if len(keys) == 0 && v.naming.LegacyFallback && prefix != BarePrefix {
		keys, err = v.bucket.List(ctx, BarePrefix)
		if err != nil {
			return nil, false, err
		}
		legacy = len(keys) > 0
	}

	slices.Sort(keys)
	slices.Reverse(keys)
	return keys, legacy, nil
}
