package session_test

import (
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/JaimeStill/promptrepo/internal/config"
	"github.com/JaimeStill/promptrepo/internal/document"
	"github.com/JaimeStill/promptrepo/internal/prompts"
	"github.com/JaimeStill/promptrepo/internal/session"
)

var discard = slog.New(slog.NewTextHandler(io.Discard, nil))

func authConfig() *config.AuthConfig {
	return &config.AuthConfig{
		Password:      "hunter2",
		SessionSecret: "test-secret",
		SessionTTL:    "1h",
		LoginRate:     1,
		LoginBurst:    3,
	}
}

func TestSelectClearsWork(t *testing.T) {
	s := &session.State{CurrentApp: "fast", CurrentEnv: "dev"}
	s.SetPreview("k", document.Scaffold("fast"))
	require.NoError(t, s.Stage(&prompts.Change{ID: "c1", App: "fast", Env: "dev"}))

	assert.False(t, s.Select("FAST", "dev"))
	assert.NotNil(t, s.Preview)
	assert.NotNil(t, s.Pending)

	assert.True(t, s.Select("fast", "qa"))
	assert.Nil(t, s.Preview)
	assert.Nil(t, s.Pending)
}

func TestStageAndTake(t *testing.T) {
	s := &session.State{CurrentApp: "fast", CurrentEnv: "dev"}

	_, err := s.TakePending("")
	assert.ErrorIs(t, err, session.ErrNoPending)

	err = s.Stage(&prompts.Change{ID: "c1", App: "mmx", Env: "dev"})
	assert.ErrorIs(t, err, session.ErrSelectionMismatch)

	require.NoError(t, s.Stage(&prompts.Change{ID: "c1", App: "fast", Env: "dev"}))

	_, err = s.TakePending("other")
	assert.ErrorIs(t, err, session.ErrPendingMismatch)
	assert.NotNil(t, s.Pending)

	change, err := s.TakePending("c1")
	require.NoError(t, err)
	assert.Equal(t, "c1", change.ID)
	assert.Nil(t, s.Pending)
}

func TestStoreUpdate(t *testing.T) {
	store := session.NewStore(8, time.Minute)
	state := store.Create("fast", "dev")

	updated, err := store.Update(state.ID, func(s *session.State) error {
		s.SetPreview("k1", document.Scaffold("fast"))
		return nil
	})
	require.NoError(t, err)
	assert.Equal(t, "k1", updated.Preview.Key)

	_, err = store.Update(state.ID, func(s *session.State) error {
		s.ClearPreview()
		return errors.New("boom")
	})
	require.Error(t, err)

	got, err := store.Get(state.ID)
	require.NoError(t, err)
	require.NotNil(t, got.Preview, "failed update must not apply")

	got.Preview.Key = "mutated"
	again, _ := store.Get(state.ID)
	assert.Equal(t, "k1", again.Preview.Key)

	store.Delete(state.ID)
	_, err = store.Get(state.ID)
	assert.ErrorIs(t, err, session.ErrSessionNotFound)
}

func TestLogin(t *testing.T) {
	auth, err := session.NewAuthenticator(authConfig(), discard)
	require.NoError(t, err)

	assert.NoError(t, auth.Login("10.0.0.1", "hunter2"))
	assert.ErrorIs(t, auth.Login("10.0.0.1", "wrong"), session.ErrInvalidPassword)
	assert.NoError(t, auth.Login("10.0.0.1", "hunter2"))
	assert.ErrorIs(t, auth.Login("10.0.0.1", "hunter2"), session.ErrTooManyAttempts)

	assert.NoError(t, auth.Login("10.0.0.2", "hunter2"), "throttling is per client")
}

func TestLoginWithHash(t *testing.T) {
	hash, err := session.HashPassword("s3cret")
	require.NoError(t, err)

	cfg := authConfig()
	cfg.Password = ""
	cfg.PasswordHash = hash

	auth, err := session.NewAuthenticator(cfg, discard)
	require.NoError(t, err)

	assert.NoError(t, auth.Login("h", "s3cret"))
	assert.ErrorIs(t, auth.Login("h", "hunter2"), session.ErrInvalidPassword)
}

func TestLoginNotConfigured(t *testing.T) {
	cfg := authConfig()
	cfg.Password = ""

	auth, err := session.NewAuthenticator(cfg, discard)
	require.NoError(t, err)

	err = auth.Login("h", "anything")
	assert.ErrorIs(t, err, session.ErrPasswordNotConfigured)
	assert.Equal(t, http.StatusServiceUnavailable, session.MapHTTPStatus(err))
}

func TestTokens(t *testing.T) {
	auth, err := session.NewAuthenticator(authConfig(), discard)
	require.NoError(t, err)

	token, expires, err := auth.Issue("session-1")
	require.NoError(t, err)
	assert.WithinDuration(t, time.Now().Add(time.Hour), expires, time.Minute)

	id, err := auth.Verify(token)
	require.NoError(t, err)
	assert.Equal(t, "session-1", id)

	other := authConfig()
	other.SessionSecret = "different"
	forger, err := session.NewAuthenticator(other, discard)
	require.NoError(t, err)
	forged, _, err := forger.Issue("session-1")
	require.NoError(t, err)

	_, err = auth.Verify(forged)
	assert.ErrorIs(t, err, session.ErrUnauthenticated)
}

func TestRequire(t *testing.T) {
	auth, err := session.NewAuthenticator(authConfig(), discard)
	require.NoError(t, err)
	store := session.NewStore(8, time.Minute)
	cookies := session.Cookies{Name: "sid"}

	onError := func(w http.ResponseWriter, err error) {
		w.WriteHeader(session.MapHTTPStatus(err))
	}

	var seen string
	handler := session.Require(auth, store, cookies, onError)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		seen, _ = session.IDFromContext(r.Context())
	}))

	t.Run("no token", func(t *testing.T) {
		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))
		assert.Equal(t, http.StatusUnauthorized, rec.Code)
	})

	t.Run("token for unknown session", func(t *testing.T) {
		token, _, _ := auth.Issue("gone")
		req := httptest.NewRequest(http.MethodGet, "/", nil)
		req.AddCookie(&http.Cookie{Name: "sid", Value: token})
		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, req)
		assert.Equal(t, http.StatusUnauthorized, rec.Code)
	})

	t.Run("valid cookie", func(t *testing.T) {
		state := store.Create("fast", "dev")
		token, _, _ := auth.Issue(state.ID)
		req := httptest.NewRequest(http.MethodGet, "/", nil)
		req.AddCookie(&http.Cookie{Name: "sid", Value: token})
		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, req)
		assert.Equal(t, http.StatusOK, rec.Code)
		assert.Equal(t, state.ID, seen)
	})

	t.Run("bearer header", func(t *testing.T) {
		state := store.Create("fast", "dev")
		token, _, _ := auth.Issue(state.ID)
		req := httptest.NewRequest(http.MethodGet, "/", nil)
		req.Header.Set("Authorization", "Bearer "+token)
		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, req)
		assert.Equal(t, http.StatusOK, rec.Code)
		assert.Equal(t, state.ID, seen)
	})
}
