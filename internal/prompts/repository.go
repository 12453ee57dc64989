package prompts

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"slices"
	"strings"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"github.com/JaimeStill/promptrepo/internal/backend"
	"github.com/JaimeStill/promptrepo/internal/cache"
	"github.com/JaimeStill/promptrepo/internal/compare"
	"github.com/JaimeStill/promptrepo/internal/dispatch"
	"github.com/JaimeStill/promptrepo/internal/document"
	"github.com/JaimeStill/promptrepo/internal/repository"
)

const (
	labelCurrent  = "current"
	labelProposed = "proposed"
)

type repo struct {
	dispatcher *dispatch.Dispatcher
	snapshots  *cache.Cache
	backend    *backend.Client
	apps       []string
	defaultEnv string
	aliases    repository.Aliases
	logger     *slog.Logger
	now        func() time.Time
}

// New creates the prompt repository System.
func New(
	dispatcher *dispatch.Dispatcher,
	snapshots *cache.Cache,
	client *backend.Client,
	apps []string,
	defaultEnv string,
	aliases repository.Aliases,
	logger *slog.Logger,
) System {
	return &repo{
		dispatcher: dispatcher,
		snapshots:  snapshots,
		backend:    client,
		apps:       apps,
		defaultEnv: defaultEnv,
		aliases:    aliases,
		logger:     logger.With("system", "prompts"),
		now:        time.Now,
	}
}

func (r *repo) Apps() []string {
	return slices.Clone(r.apps)
}

func (r *repo) DefaultEnvironment() string {
	return r.defaultEnv
}

func (r *repo) Environments() []Environment {
	names := r.dispatcher.Environments()
	envs := make([]Environment, 0, len(names))
	for _, name := range names {
		env := Environment{
			Name:          name,
			ConfirmWrites: r.dispatcher.ConfirmWrites(name),
		}
		env.Location, _ = r.dispatcher.Location(name)
		if _, err := r.dispatcher.BackendURL(name); err == nil {
			env.Backend = true
		}
		if err := r.dispatcher.Check(name); err != nil {
			env.Error = err.Error()
		}
		envs = append(envs, env)
	}
	return envs
}

func (r *repo) Identity(app string) document.Identity {
	return r.aliases.Resolve(app)
}

func (r *repo) ConfirmWrites(env string) bool {
	return r.dispatcher.ConfirmWrites(env)
}

func (r *repo) Check(env string) error {
	return r.dispatcher.Check(env)
}

func (r *repo) Latest(ctx context.Context, env, app string) (*Snapshot, error) {
	id, err := r.identity(app)
	if err != nil {
		return nil, err
	}

	key := cache.NewKey(id.Write, env)
	if entry, ok := r.snapshots.Get(key); ok {
		return r.snapshot(env, id, entry, true), nil
	}

	snap, err := r.dispatcher.Latest(ctx, env, id.Read)
	if err != nil {
		return nil, err
	}

	entry := r.snapshots.Put(key, snap)
	return r.snapshot(env, id, entry, false), nil
}

func (r *repo) Versions(ctx context.Context, env, app string) ([]string, error) {
	id, err := r.identity(app)
	if err != nil {
		return nil, err
	}
	return r.dispatcher.Versions(ctx, env, id.Read)
}

func (r *repo) Version(ctx context.Context, env, app, key string) (*document.Document, error) {
	id, err := r.identity(app)
	if err != nil {
		return nil, err
	}
	if !r.ownsKey(id, key) {
		return nil, fmt.Errorf("%w: %s is not a version of %s", ErrForeignVersion, key, app)
	}
	return r.dispatcher.Fetch(ctx, env, key)
}

func (r *repo) EditPrompt(ctx context.Context, env, app string, index int, content string) (*Change, error) {
	snap, err := r.Latest(ctx, env, app)
	if err != nil {
		return nil, err
	}

	current, ok := document.FindIdentity(snap.Document, snap.Identity)
	if !ok {
		return nil, fmt.Errorf("%w: %s", document.ErrApplicationNotFound, app)
	}
	if index < 0 || index >= len(current.Prompts) {
		return nil, fmt.Errorf("%w: %d of %d", document.ErrPromptIndex, index, len(current.Prompts))
	}

	before := strings.TrimSpace(document.JoinContent(current.Prompts[index].Content))
	if before == strings.TrimSpace(content) {
		return nil, fmt.Errorf("%w: prompt %s", ErrNoChanges, current.Prompts[index].Name)
	}

	doc, err := document.ReplacePromptContent(snap.Document, snap.Identity, index, document.SplitContent(content))
	if err != nil {
		return nil, err
	}

	return r.documentChange(snap, doc, nil)
}

func (r *repo) ReplaceDocument(ctx context.Context, env, app string, raw []byte) (*Change, error) {
	if _, err := r.identity(app); err != nil {
		return nil, err
	}

	parsed, err := document.ParseRoot(raw)
	if err != nil {
		return nil, err
	}

	snap, err := r.Latest(ctx, env, app)
	if err != nil {
		return nil, err
	}

	var warnings []string
	doc, ok := document.StampWriteIdentity(parsed, snap.Identity)
	if !ok {
		warnings = append(warnings, fmt.Sprintf("document has no application named %s; it is saved as written", app))
	}

	if !snap.Scaffolded {
		if same, err := sameEncoding(snap.Document, doc); err != nil {
			return nil, err
		} else if same {
			return nil, fmt.Errorf("%w: document matches %s", ErrNoChanges, snap.Key)
		}
	}

	return r.documentChange(snap, doc, warnings)
}

func (r *repo) ChangeMetadata(ctx context.Context, env, app string, raw []byte) (*Change, error) {
	id, err := r.identity(app)
	if err != nil {
		return nil, err
	}
	if !r.dispatcher.Has(env) {
		return nil, fmt.Errorf("%w: %q", dispatch.ErrUnknownEnvironment, env)
	}

	meta, err := document.ParseMetadata(raw, app)
	if err != nil {
		return nil, err
	}

	return &Change{
		ID:        uuid.NewString(),
		Kind:      KindMetadata,
		Env:       env,
		App:       id.Write,
		Identity:  id,
		Metadata:  meta,
		CreatedAt: r.now(),
	}, nil
}

func (r *repo) Commit(ctx context.Context, change *Change) (*WriteResult, error) {
	switch {
	case change == nil:
		return nil, ErrEmptyChange
	case change.Kind == KindMetadata:
		return r.commitMetadata(ctx, change)
	case change.Document == nil:
		return nil, ErrEmptyChange
	}

	key, err := r.dispatcher.Upload(ctx, change.Env, change.Identity.Write, change.Document)
	if err != nil {
		return nil, err
	}

	r.Invalidate(change.Env, change.App)

	result := &WriteResult{
		Kind: KindDocument,
		Env:  change.Env,
		App:  change.App,
		Key:  key,
	}
	result.Location, _ = r.dispatcher.Location(change.Env)

	cleared, err := r.ClearBackendCache(ctx, change.Env, change.App)
	if err != nil {
		r.logger.Warn("backend cache not cleared", "env", change.Env, "app", change.App, "error", err)
		result.Warnings = append(result.Warnings, fmt.Sprintf("saved, but the backend cache was not cleared: %v", err))
	}
	result.ClearedKeys = cleared

	r.logger.Info("change committed", "env", change.Env, "app", change.App, "key", key, "change", change.ID)
	return result, nil
}

func (r *repo) Compare(ctx context.Context, app, left, right string) (*Comparison, error) {
	id, err := r.identity(app)
	if err != nil {
		return nil, err
	}

	var ls, rs *Snapshot
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		ls, err = r.Latest(gctx, left, app)
		return err
	})
	g.Go(func() error {
		var err error
		rs, err = r.Latest(gctx, right, app)
		return err
	})
	if err := g.Wait(); err != nil {
		return nil, err
	}

	la, _ := document.FindIdentity(ls.Document, id)
	ra, _ := document.FindIdentity(rs.Document, id)

	results, err := compare.Compare(la, ra, left, right)
	if err != nil {
		return nil, err
	}

	return &Comparison{
		App:      id.Write,
		Left:     left,
		Right:    right,
		LeftKey:  ls.Key,
		RightKey: rs.Key,
		Results:  results,
		Summary:  compare.Summarize(results),
	}, nil
}

func (r *repo) Metadata(ctx context.Context, env, app string) (json.RawMessage, error) {
	id, err := r.identity(app)
	if err != nil {
		return nil, err
	}
	return r.dispatcher.Metadata(ctx, env, id.Write)
}

func (r *repo) ClearBackendCache(ctx context.Context, env, app string) (int, error) {
	if _, err := r.identity(app); err != nil {
		return 0, err
	}
	base, err := r.dispatcher.BackendURL(env)
	if err != nil {
		return 0, err
	}
	return r.backend.ClearCache(ctx, base, strings.ToLower(app))
}

func (r *repo) PopulateIndex(ctx context.Context, env, app string) error {
	if _, err := r.identity(app); err != nil {
		return err
	}
	base, err := r.dispatcher.BackendURL(env)
	if err != nil {
		return err
	}
	return r.backend.PopulateIndex(ctx, base, strings.ToLower(app))
}

func (r *repo) IndexStatus(ctx context.Context, env, app string) (*backend.IndexStatus, error) {
	if _, err := r.identity(app); err != nil {
		return nil, err
	}
	base, err := r.dispatcher.BackendURL(env)
	if err != nil {
		return nil, err
	}
	return r.backend.IndexStatus(ctx, base, strings.ToLower(app))
}

func (r *repo) Invalidate(env, app string) {
	if app == "" {
		r.snapshots.InvalidateEnv(env)
		return
	}
	r.snapshots.Invalidate(cache.NewKey(r.aliases.Resolve(app).Write, env))
}

func (r *repo) commitMetadata(ctx context.Context, change *Change) (*WriteResult, error) {
	if len(change.Metadata) == 0 {
		return nil, ErrEmptyChange
	}

	key, err := r.dispatcher.PutMetadata(ctx, change.Env, change.Identity.Write, change.Metadata)
	if err != nil {
		return nil, err
	}

	result := &WriteResult{
		Kind: KindMetadata,
		Env:  change.Env,
		App:  change.App,
		Key:  key,
	}
	result.Location, _ = r.dispatcher.Location(change.Env)

	r.logger.Info("metadata committed", "env", change.Env, "app", change.App, "key", key)
	return result, nil
}

func (r *repo) documentChange(snap *Snapshot, doc *document.Document, warnings []string) (*Change, error) {
	id := snap.Identity
	before, _ := document.FindIdentity(snap.Document, id)
	after, _ := document.FindIdentity(doc, id)

	results, err := compare.Compare(before, after, labelCurrent, labelProposed)
	if err != nil {
		return nil, err
	}

	return &Change{
		ID:        uuid.NewString(),
		Kind:      KindDocument,
		Env:       snap.Env,
		App:       id.Write,
		Identity:  id,
		BaseKey:   snap.Key,
		Document:  doc,
		Results:   results,
		Summary:   compare.Summarize(results),
		Warnings:  append(slices.Clone(snap.Warnings), warnings...),
		CreatedAt: r.now(),
	}, nil
}

func (r *repo) snapshot(env string, id document.Identity, entry cache.Entry, cached bool) *Snapshot {
	s := &Snapshot{
		Snapshot:  *entry.Snapshot,
		Env:       env,
		App:       id.Write,
		Identity:  id,
		FetchedAt: entry.FetchedAt,
		Cached:    cached,
	}
	if s.Scaffolded {
		s.Warnings = append(s.Warnings, fmt.Sprintf("no versions of %s found in %s; starting from an empty document", id.Read, env))
	}
	if s.Legacy {
		s.Warnings = append(s.Warnings, fmt.Sprintf("%s has no versions of its own; loaded the shared %s document", id.Read, repository.BarePrefix))
	}
	return s
}

func (r *repo) identity(app string) (document.Identity, error) {
	if !slices.ContainsFunc(r.apps, func(a string) bool { return strings.EqualFold(a, app) }) {
		return document.Identity{}, fmt.Errorf("%w: %s", ErrUnsupportedApp, app)
	}
	return r.aliases.Resolve(app), nil
}

func (r *repo) ownsKey(id document.Identity, key string) bool {
	naming := r.dispatcher.Naming()
	prefixes := []string{naming.Prefix(id.Read), naming.Prefix(id.Write)}
	if naming.LegacyFallback {
		prefixes = append(prefixes, repository.BarePrefix)
	}
	for _, p := range prefixes {
		rest, ok := strings.CutPrefix(key, p)
		if !ok {
			continue
		}
		stamp, ok := strings.CutSuffix(rest, ".json")
		if !ok {
			continue
		}
		if _, err := time.Parse(repository.TimestampLayout, stamp); err == nil {
			return true
		}
	}
	return false
}

func sameEncoding(a, b *document.Document) (bool, error) {
	ea, err := a.Encode()
	if err != nil {
		return false, err
	}
	eb, err := b.Encode()
	if err != nil {
		return false, err
	}
	return bytes.Equal(ea, eb), nil
}
