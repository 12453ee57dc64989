// Package prompts implements the console's prompt repository operations:
// reading the latest document per environment, editing and committing new
// versions, comparing environments, and managing metadata documents.
package prompts

import (
	"encoding/json"
	"time"

	"github.com/JaimeStill/promptrepo/internal/compare"
	"github.com/JaimeStill/promptrepo/internal/document"
	"github.com/JaimeStill/promptrepo/internal/repository"
)

// ChangeKind distinguishes prompt repository writes from metadata writes.
type ChangeKind string

const (
	KindDocument ChangeKind = "document"
	KindMetadata ChangeKind = "metadata"
)

// Environment describes one selectable environment.
type Environment struct {
	Name          string `json:"name"`
	Location      string `json:"location"`
	ConfirmWrites bool   `json:"confirm_writes"`
	Backend       bool   `json:"backend"`
	Error         string `json:"error,omitempty"`
}

// Snapshot is the latest document of an application in one environment.
type Snapshot struct {
	repository.Snapshot
	Env       string            `json:"env"`
	App       string            `json:"app"`
	Identity  document.Identity `json:"identity"`
	FetchedAt time.Time         `json:"fetched_at"`
	Cached    bool              `json:"cached"`
	Warnings  []string          `json:"warnings,omitempty"`
}

// Change is a proposed write, computed against the snapshot it was derived
// from. It is applied with Commit.
type Change struct {
	ID        string             `json:"id"`
	Kind      ChangeKind         `json:"kind"`
	Env       string             `json:"env"`
	App       string             `json:"app"`
	Identity  document.Identity  `json:"identity"`
	BaseKey   string             `json:"base_key,omitempty"`
	Document  *document.Document `json:"document,omitempty"`
	Metadata  json.RawMessage    `json:"metadata,omitempty"`
	Results   []compare.Result   `json:"results,omitempty"`
	Summary   compare.Summary    `json:"summary"`
	Warnings  []string           `json:"warnings,omitempty"`
	CreatedAt time.Time          `json:"created_at"`
}

// WriteResult reports a committed change.
type WriteResult struct {
	Kind        ChangeKind `json:"kind"`
	Env         string     `json:"env"`
	App         string     `json:"app"`
	Key         string     `json:"key"`
	Location    string     `json:"location"`
	ClearedKeys int        `json:"cleared_keys"`
	Warnings    []string   `json:"warnings,omitempty"`
}

// Comparison is the prompt-by-prompt comparison of one application across
// two environments.
type Comparison struct {
	App      string           `json:"app"`
	Left     string           `json:"left"`
	Right    string           `json:"right"`
	LeftKey  string           `json:"left_key"`
	RightKey string           `json:"right_key"`
	Results  []compare.Result `json:"results"`
	Summary  compare.Summary  `json:"summary"`
}
