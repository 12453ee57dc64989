package prompts

import (
	"context"
	"encoding/json"

	"github.com/JaimeStill/promptrepo/internal/backend"
	"github.com/JaimeStill/promptrepo/internal/document"
)

// System defines the public contract for prompt repository operations.
type System interface {
	Apps() []string
	Environments() []Environment
	DefaultEnvironment() string
	Identity(app string) document.Identity
	ConfirmWrites(env string) bool
	Check(env string) error

	Latest(ctx context.Context, env, app string) (*Snapshot, error)
	Versions(ctx context.Context, env, app string) ([]string, error)
	Version(ctx context.Context, env, app, key string) (*document.Document, error)

	EditPrompt(ctx context.Context, env, app string, index int, content string) (*Change, error)
	ReplaceDocument(ctx context.Context, env, app string, raw []byte) (*Change, error)
	ChangeMetadata(ctx context.Context, env, app string, raw []byte) (*Change, error)
	Commit(ctx context.Context, change *Change) (*WriteResult, error)

	Compare(ctx context.Context, app, left, right string) (*Comparison, error)
	Metadata(ctx context.Context, env, app string) (json.RawMessage, error)

	ClearBackendCache(ctx context.Context, env, app string) (int, error)
	PopulateIndex(ctx context.Context, env, app string) error
	IndexStatus(ctx context.Context, env, app string) (*backend.IndexStatus, error)

	Invalidate(env, app string)
}
