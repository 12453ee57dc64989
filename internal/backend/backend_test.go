package backend_test

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/JaimeStill/promptrepo/internal/backend"
)

var discard = slog.New(slog.NewTextHandler(io.Discard, nil))

func TestClearCache(t *testing.T) {
	var gotAuth string
	var gotBody map[string]string

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "/admin/cache/clear", r.URL.Path)
		gotAuth = r.Header.Get("Authorization")
		_ = json.NewDecoder(r.Body).Decode(&gotBody)
		w.Write([]byte(`{"cleared": 7}`))
	}))
	defer srv.Close()

	c := backend.New("secret", time.Second, discard)

	n, err := c.ClearCache(context.Background(), srv.URL, "fast")
	require.NoError(t, err)

	assert.Equal(t, 7, n)
	assert.Equal(t, "Bearer secret", gotAuth)
	assert.Equal(t, map[string]string{"app_name": "fast", "target": "all"}, gotBody)
}

func TestClearCacheWithoutCount(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"deleted": 4}`))
	}))
	defer srv.Close()

	var logs bytes.Buffer
	logger := slog.New(slog.NewTextHandler(&logs, nil))

	n, err := backend.New("", time.Second, logger).ClearCache(context.Background(), srv.URL, "fast")
	require.NoError(t, err)
	assert.Equal(t, 0, n)
	assert.Contains(t, logs.String(), "no cleared count")
}

func TestPopulateIndex(t *testing.T) {
	called := false
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		called = r.URL.Path == "/admin/chroma/populate" && r.Method == http.MethodPost
		w.WriteHeader(http.StatusAccepted)
	}))
	defer srv.Close()

	c := backend.New("", time.Second, discard)
	require.NoError(t, c.PopulateIndex(context.Background(), srv.URL, "kythera"))
	assert.True(t, called)
}

func TestIndexStatus(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/admin/chroma/status/kythera", r.URL.Path)
		w.Write([]byte(`{"status":"running","message":"42 of 90","timestamp":"2024-01-01T00:00:00Z"}`))
	}))
	defer srv.Close()

	c := backend.New("", time.Second, discard)
	status, err := c.IndexStatus(context.Background(), srv.URL, "kythera")
	require.NoError(t, err)
	assert.Equal(t, backend.StatusRunning, status.Status)
	assert.Equal(t, "42 of 90", status.Message)
}

func TestErrors(t *testing.T) {
	t.Run("non-2xx", func(t *testing.T) {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			http.Error(w, "nope", http.StatusUnauthorized)
		}))
		defer srv.Close()

		_, err := backend.New("", time.Second, discard).ClearCache(context.Background(), srv.URL, "fast")
		var se *backend.StatusError
		require.ErrorAs(t, err, &se)
		assert.Equal(t, http.StatusUnauthorized, se.Code)
		assert.Contains(t, err.Error(), "nope")
	})

	t.Run("timeout", func(t *testing.T) {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			time.Sleep(200 * time.Millisecond)
		}))
		defer srv.Close()

		_, err := backend.New("", 20*time.Millisecond, discard).IndexStatus(context.Background(), srv.URL, "fast")
		assert.ErrorIs(t, err, backend.ErrUnavailable)
		assert.Equal(t, http.StatusGatewayTimeout, backend.MapHTTPStatus(err))
	})
}
