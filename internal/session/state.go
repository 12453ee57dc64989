// Package session tracks each console operator's selection, previews, and
// staged writes, and authenticates operators against the shared password.
package session

import (
	"fmt"
	"strings"
	"time"

	"github.com/JaimeStill/promptrepo/internal/document"
	"github.com/JaimeStill/promptrepo/internal/prompts"
)

// Preview is a historical version the operator is viewing in place of the latest.
type Preview struct {
	Key      string             `json:"key"`
	Document *document.Document `json:"document"`
}

// State is one operator session. All transitions go through its methods so
// that a selection change always discards work tied to the old selection.
type State struct {
	ID         string          `json:"id"`
	CurrentApp string          `json:"current_app"`
	CurrentEnv string          `json:"current_env"`
	Preview    *Preview        `json:"preview,omitempty"`
	Pending    *prompts.Change `json:"pending,omitempty"`
	CreatedAt  time.Time       `json:"created_at"`
	UpdatedAt  time.Time       `json:"updated_at"`
}

// Select switches the session to app in env. It reports whether the
// selection changed; when it does, the preview and any staged change are
// dropped and the caller must invalidate cached reads.
func (s *State) Select(app, env string) bool {
	if strings.EqualFold(s.CurrentApp, app) && s.CurrentEnv == env {
		return false
	}
	s.CurrentApp = app
	s.CurrentEnv = env
	s.Preview = nil
	s.Pending = nil
	return true
}

// Selected reports whether an application and environment are selected.
func (s *State) Selected() bool {
	return s.CurrentApp != "" && s.CurrentEnv != ""
}

// SetPreview shows the version at key in place of the latest.
func (s *State) SetPreview(key string, doc *document.Document) {
	s.Preview = &Preview{Key: key, Document: doc}
}

// ClearPreview returns to the latest version.
func (s *State) ClearPreview() {
	s.Preview = nil
}

// Stage holds change until it is confirmed or discarded. A previously
// staged change is replaced. The change must target the current selection.
func (s *State) Stage(change *prompts.Change) error {
	if !strings.EqualFold(change.App, s.CurrentApp) || change.Env != s.CurrentEnv {
		return fmt.Errorf("%w: change targets %s/%s, session is on %s/%s",
			ErrSelectionMismatch, change.Env, change.App, s.CurrentEnv, s.CurrentApp)
	}
	s.Pending = change
	return nil
}

// TakePending removes and returns the staged change with id. An empty id
// takes whatever change is staged.
func (s *State) TakePending(id string) (*prompts.Change, error) {
	if s.Pending == nil {
		return nil, ErrNoPending
	}
	if id != "" && s.Pending.ID != id {
		return nil, fmt.Errorf("%w: staged change is %s", ErrPendingMismatch, s.Pending.ID)
	}
	change := s.Pending
	s.Pending = nil
	return change, nil
}

// DiscardPending drops the staged change, if any.
func (s *State) DiscardPending() {
	s.Pending = nil
}

func (s *State) clone() State {
	out := *s
	if s.Preview != nil {
		p := *s.Preview
		p.Document = s.Preview.Document.Clone()
		out.Preview = &p
	}
	if s.Pending != nil {
		c := *s.Pending
		c.Document = s.Pending.Document.Clone()
		out.Pending = &c
	}
	return out
}
