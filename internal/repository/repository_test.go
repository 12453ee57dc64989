package repository_test

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/JaimeStill/promptrepo/internal/document"
	"github.com/JaimeStill/promptrepo/internal/repository"
	"github.com/JaimeStill/promptrepo/pkg/storage"
)

var discard = slog.New(slog.NewTextHandler(io.Discard, nil))

func fixedClock(t time.Time) func() time.Time {
	return func() time.Time { return t }
}

func seed(t *testing.T, bucket *storage.Memory, key, body string) {
	t.Helper()
	require.NoError(t, bucket.Put(context.Background(), key, []byte(body), "application/json"))
}

func TestNamingPrefix(t *testing.T) {
	n := repository.Naming{LegacyApp: "mmx"}

	tests := []struct {
		app  string
		want string
	}{
		{"mmx", "prompt_repo_"},
		{"MMX", "prompt_repo_"},
		{"FAST", "fast_prompt_repo_"},
		{"kythera", "kythera_prompt_repo_"},
	}

	for _, tt := range tests {
		t.Run(tt.app, func(t *testing.T) {
			assert.Equal(t, tt.want, n.Prefix(tt.app))
		})
	}
}

func TestNamingVersionKey(t *testing.T) {
	n := repository.Naming{LegacyApp: "mmx"}
	est := time.FixedZone("EST", -5*60*60)
	at := time.Date(2024, 3, 1, 7, 4, 5, 0, est)

	assert.Equal(t, "fast_prompt_repo_20240301_120405.json", n.VersionKey("FAST", at))
	assert.Equal(t, "prompt_repo_20240301_120405.json", n.VersionKey("mmx", at))
	assert.Equal(t, "salesmate_metadata.json", n.MetadataKey("SalesMate"))
}

func TestAliasesResolve(t *testing.T) {
	aliases := repository.Aliases{"fast": "fast1"}

	id := aliases.Resolve("FAST")
	assert.Equal(t, "fast1", id.Read)
	assert.Equal(t, "fast", id.Write)

	id = aliases.Resolve("kythera")
	assert.Equal(t, "kythera", id.Read)
	assert.Equal(t, "kythera", id.Write)
}

func TestLatestPicksMostRecentVersion(t *testing.T) {
	bucket := storage.NewMemory("dev")
	seed(t, bucket, "fast_prompt_repo_20240101_000000.json", `{"APPS":[{"name":"v1","prompts":[]}]}`)
	seed(t, bucket, "fast_prompt_repo_20240301_120000.json", `{"APPS":[{"name":"v3","prompts":[]}]}`)
	seed(t, bucket, "fast_prompt_repo_20240215_235959.json", `{"APPS":[{"name":"v2","prompts":[]}]}`)
	seed(t, bucket, "prompt_repo_20250101_000000.json", `{"APPS":[{"name":"legacy","prompts":[]}]}`)

	store := repository.New(bucket, repository.Naming{LegacyApp: "mmx"}, discard)

	snap, err := store.Latest(context.Background(), "FAST")
	require.NoError(t, err)

	assert.Equal(t, "fast_prompt_repo_20240301_120000.json", snap.Key)
	assert.Equal(t, "v3", snap.Document.Apps[0].Name)
	assert.False(t, snap.Scaffolded)

	versions, err := store.Versions(context.Background(), "fast")
	require.NoError(t, err)
	assert.Equal(t, []string{
		"fast_prompt_repo_20240301_120000.json",
		"fast_prompt_repo_20240215_235959.json",
		"fast_prompt_repo_20240101_000000.json",
	}, versions)
}

func TestLatestScaffoldsEmptyApplication(t *testing.T) {
	store := repository.New(storage.NewMemory("dev"), repository.Naming{LegacyApp: "mmx"}, discard)

	snap, err := store.Latest(context.Background(), "kythera")
	require.NoError(t, err)

	assert.True(t, snap.Scaffolded)
	assert.Empty(t, snap.Key)

	out, err := snap.Document.Encode()
	require.NoError(t, err)
	assert.JSONEq(t, `{"APPS":[{"name":"kythera","prompts":[]}]}`, string(out))
}

func TestLatestLegacyFallback(t *testing.T) {
	bucket := storage.NewMemory("dev")
	seed(t, bucket, "prompt_repo_20240101_000000.json", `{"APPS":[{"name":"shared","prompts":[]}]}`)

	t.Run("disabled", func(t *testing.T) {
		store := repository.New(bucket, repository.Naming{LegacyApp: "mmx"}, discard)
		snap, err := store.Latest(context.Background(), "fast")
		require.NoError(t, err)
		assert.True(t, snap.Scaffolded)
	})

	t.Run("enabled", func(t *testing.T) {
		store := repository.New(bucket, repository.Naming{LegacyApp: "mmx", LegacyFallback: true}, discard)
		snap, err := store.Latest(context.Background(), "fast")
		require.NoError(t, err)
		assert.True(t, snap.Legacy)
		assert.Equal(t, "prompt_repo_20240101_000000.json", snap.Key)
	})
}

func TestLatestMalformedDocument(t *testing.T) {
	bucket := storage.NewMemory("dev")
	seed(t, bucket, "fast_prompt_repo_20240101_000000.json", `{"APPS": [`)

	store := repository.New(bucket, repository.Naming{LegacyApp: "mmx"}, discard)

	_, err := store.Latest(context.Background(), "fast")
	assert.ErrorIs(t, err, repository.ErrMalformedDocument)
	assert.Equal(t, http.StatusBadGateway, repository.MapHTTPStatus(err))
}

func TestUploadRoundTrip(t *testing.T) {
	bucket := storage.NewMemory("dev")
	at := time.Date(2024, 6, 1, 9, 30, 0, 0, time.UTC)
	store := repository.New(bucket, repository.Naming{LegacyApp: "mmx"}, discard, repository.WithClock(fixedClock(at)))

	desc := "Opening line"
	doc := &document.Document{
		Apps: []document.Application{{
			Name: "fast",
			Prompts: []document.Prompt{
				{Name: "GREETING", Content: []string{"Hi", "there"}, Description: &desc},
			},
		}},
	}

	key, err := store.Upload(context.Background(), "FAST", doc)
	require.NoError(t, err)
	assert.Equal(t, "fast_prompt_repo_20240601_093000.json", key)

	snap, err := store.Latest(context.Background(), "fast")
	require.NoError(t, err)
	assert.Equal(t, key, snap.Key)

	if diff := cmp.Diff(doc, snap.Document); diff != "" {
		t.Errorf("round trip mismatch (-want +got):\n%s", diff)
	}
}

func TestUploadSameSecondCollision(t *testing.T) {
	bucket := storage.NewMemory("dev")
	at := time.Date(2024, 6, 1, 9, 30, 0, 0, time.UTC)
	store := repository.New(bucket, repository.Naming{LegacyApp: "mmx"}, discard, repository.WithClock(fixedClock(at)))

	first := document.Scaffold("fast")
	_, err := store.Upload(context.Background(), "fast", first)
	require.NoError(t, err)

	_, err = store.Upload(context.Background(), "fast", document.Template("fast"))
	assert.ErrorIs(t, err, repository.ErrVersionExists)
	assert.Equal(t, http.StatusConflict, repository.MapHTTPStatus(err))

	snap, err := store.Latest(context.Background(), "fast")
	require.NoError(t, err)
	assert.Empty(t, snap.Document.Apps[0].Prompts)
}

func TestFetchMissingVersion(t *testing.T) {
	store := repository.New(storage.NewMemory("dev"), repository.Naming{}, discard)

	_, err := store.Fetch(context.Background(), "fast_prompt_repo_20240101_000000.json")
	assert.ErrorIs(t, err, repository.ErrVersionNotFound)
	assert.Equal(t, http.StatusNotFound, repository.MapHTTPStatus(err))
}

func TestMetadata(t *testing.T) {
	bucket := storage.NewMemory("dev")
	store := repository.New(bucket, repository.Naming{LegacyApp: "mmx"}, discard)
	ctx := context.Background()

	_, err := store.Metadata(ctx, "fast")
	assert.ErrorIs(t, err, repository.ErrMetadataNotFound)

	key, err := store.PutMetadata(ctx, "FAST", json.RawMessage(`{"FAST":[{"table":"orders"}]}`))
	require.NoError(t, err)
	assert.Equal(t, "fast_metadata.json", key)

	_, err = store.PutMetadata(ctx, "FAST", json.RawMessage(`{"FAST":[]}`))
	require.NoError(t, err)

	raw, err := store.Metadata(ctx, "fast")
	require.NoError(t, err)
	assert.JSONEq(t, `{"FAST":[]}`, string(raw))
}
