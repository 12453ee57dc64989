package repository

import (
	"strings"
	"time"

	"github.com/JaimeStill/promptrepo/internal/document"
)

const (
	// BarePrefix is the version prefix of the legacy application.
	BarePrefix = "prompt_repo_"
	// TimestampLayout is the UTC, second-precision timestamp in version keys.
	// Fixed-width digits make lexicographic order chronological.
	TimestampLayout = "20060102_150405"

	versionExt     = ".json"
	metadataSuffix = "_metadata.json"
)

// Naming derives storage keys from application identifiers.
type Naming struct {
	// LegacyApp is written under BarePrefix instead of an app-qualified prefix.
	LegacyApp string
	// LegacyFallback reads BarePrefix versions for apps that have none of their own.
	LegacyFallback bool
}

// Prefix returns the version key prefix for app.
func (n Naming) Prefix(app string) string {
	lower := strings.ToLower(app)
	if lower == strings.ToLower(n.LegacyApp) {
		return BarePrefix
	}
	return lower + "_" + BarePrefix
}

// VersionKey returns the key for a version of app written at t.
func (n Naming) VersionKey(app string, t time.Time) string {
	return n.Prefix(app) + t.UTC().Format(TimestampLayout) + versionExt
}

// MetadataKey returns the fixed key of app's metadata document.
func (n Naming) MetadataKey(app string) string {
	return strings.ToLower(app) + metadataSuffix
}

// Aliases redirects reads for an application id to a different stored id.
// Keys are lower-case application ids.
type Aliases map[string]string

// Resolve returns the read and write identifiers for app.
func (a Aliases) Resolve(app string) document.Identity {
	write := strings.ToLower(app)
	read := app
	if target, ok := a[write]; ok && target != "" {
		read = target
	}
	return document.Identity{Read: read, Write: write}
}
