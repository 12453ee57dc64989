package console

import (
	"time"

	"github.com/JaimeStill/promptrepo/internal/document"
	"github.com/JaimeStill/promptrepo/internal/prompts"
	"github.com/JaimeStill/promptrepo/internal/session"
)

// LoginRequest carries the shared password and an optional initial selection.
type LoginRequest struct {
	Password string `json:"password"`
	App      string `json:"app,omitempty"`
	Env      string `json:"env,omitempty"`
}

// LoginResponse returns the session token, also set as a cookie.
type LoginResponse struct {
	Token     string        `json:"token"`
	ExpiresAt time.Time     `json:"expires_at"`
	Session   session.State `json:"session"`
}

type SelectRequest struct {
	App string `json:"app"`
	Env string `json:"env"`
}

type PreviewRequest struct {
	Key string `json:"key"`
}

type EditPromptRequest struct {
	Content string `json:"content"`
}

// ConfirmRequest names the staged change being confirmed. An empty ID
// confirms whatever change is staged.
type ConfirmRequest struct {
	ID string `json:"id"`
}

// DocumentResponse is the console's view of the selection.
type DocumentResponse struct {
	Snapshot *prompts.Snapshot `json:"snapshot"`
	Preview  *session.Preview  `json:"preview,omitempty"`
	Pending  *prompts.Change   `json:"pending,omitempty"`
	Template *document.Document `json:"template,omitempty"`
}

// WriteResponse reports a committed or staged change.
type WriteResponse struct {
	Result  *prompts.WriteResult `json:"result,omitempty"`
	Change  *prompts.Change      `json:"change"`
	Pending bool                 `json:"pending"`
}

type CacheClearResponse struct {
	ClearedKeys int `json:"cleared_keys"`
}
