package console_test

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/JaimeStill/promptrepo/internal/backend"
	"github.com/JaimeStill/promptrepo/internal/cache"
	"github.com/JaimeStill/promptrepo/internal/config"
	"github.com/JaimeStill/promptrepo/internal/console"
	"github.com/JaimeStill/promptrepo/internal/dispatch"
	"github.com/JaimeStill/promptrepo/internal/prompts"
	"github.com/JaimeStill/promptrepo/internal/repository"
	"github.com/JaimeStill/promptrepo/internal/session"
	"github.com/JaimeStill/promptrepo/pkg/pagination"
	"github.com/JaimeStill/promptrepo/pkg/routes"
	"github.com/JaimeStill/promptrepo/pkg/storage"
)

var discard = slog.New(slog.NewTextHandler(io.Discard, nil))

const fastDoc = `{"APPS": [{"name": "fast", "prompts": [
    {"name": "GREETING", "content": ["Hi"]},
    {"name": "FAREWELL", "content": ["Bye"]}
]}]}`

type harness struct {
	srv *httptest.Server
	dev *storage.Memory
	qa  *storage.Memory
}

func newHarness(t *testing.T) *harness {
	t.Helper()

	h := &harness{
		dev: storage.NewMemory("dev"),
		qa:  storage.NewMemory("qa"),
	}
	ctx := context.Background()
	require.NoError(t, h.dev.Put(ctx, "fast_prompt_repo_20240101_000000.json", []byte(fastDoc), "application/json"))
	require.NoError(t, h.qa.Put(ctx, "fast_prompt_repo_20240101_000000.json", []byte(fastDoc), "application/json"))

	envs := []config.EnvironmentConfig{
		{Name: "dev", Storage: storage.Config{Provider: storage.ProviderMemory, Container: "dev"}},
		{Name: "qa", ConfirmWrites: true, Storage: storage.Config{Provider: storage.ProviderMemory, Container: "qa"}},
		{Name: "prod", Storage: storage.Config{Provider: storage.ProviderAzure}},
	}

	clock := time.Date(2024, 6, 1, 12, 0, 0, 0, time.UTC)
	tick := func() time.Time {
		clock = clock.Add(time.Second)
		return clock
	}

	d := dispatch.New(envs, repository.Naming{LegacyApp: "mmx"}, discard,
		dispatch.WithBucket("dev", h.dev),
		dispatch.WithBucket("qa", h.qa),
		dispatch.WithStoreOptions(repository.WithClock(tick)),
	)
	sys := prompts.New(d, cache.New(16, time.Minute), backend.New("", time.Second, discard),
		[]string{"mmx", "FAST"}, "dev", nil, discard)

	auth, err := session.NewAuthenticator(&config.AuthConfig{
		Password:      "hunter2",
		SessionSecret: "secret",
		SessionTTL:    "1h",
		LoginRate:     1,
		LoginBurst:    2,
	}, discard)
	require.NoError(t, err)

	handler := console.NewHandler(
		sys,
		session.NewStore(16, time.Hour),
		auth,
		session.Cookies{Name: "promptrepo_session"},
		discard,
		pagination.Config{DefaultPageSize: 2, MaxPageSize: 10},
	)

	mux := http.NewServeMux()
	routes.Register(mux, routes.Group{
		Prefix:   "/api",
		Children: []routes.Group{handler.Routes()},
	})
	h.srv = httptest.NewServer(mux)
	t.Cleanup(h.srv.Close)
	return h
}

func (h *harness) do(t *testing.T, token, method, path, body string) *http.Response {
	t.Helper()

	var r io.Reader
	if body != "" {
		r = strings.NewReader(body)
	}
	req, err := http.NewRequest(method, h.srv.URL+"/api"+path, r)
	require.NoError(t, err)
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	t.Cleanup(func() { resp.Body.Close() })
	return resp
}

func (h *harness) login(t *testing.T, app, env string) string {
	t.Helper()

	body := `{"password": "hunter2", "app": "` + app + `", "env": "` + env + `"}`
	resp := h.do(t, "", "POST", "/auth/login", body)
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var out console.LoginResponse
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&out))
	require.NotEmpty(t, out.Token)
	return out.Token
}

func decode[T any](t *testing.T, resp *http.Response) T {
	t.Helper()
	var v T
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&v))
	return v
}

func TestLogin(t *testing.T) {
	h := newHarness(t)

	t.Run("wrong password", func(t *testing.T) {
		resp := h.do(t, "", "POST", "/auth/login", `{"password": "nope"}`)
		assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
	})

	t.Run("sets cookie", func(t *testing.T) {
		resp := h.do(t, "", "POST", "/auth/login", `{"password": "hunter2"}`)
		require.Equal(t, http.StatusOK, resp.StatusCode)

		var found bool
		for _, c := range resp.Cookies() {
			if c.Name == "promptrepo_session" && c.Value != "" {
				found = true
			}
		}
		assert.True(t, found)

		out := decode[console.LoginResponse](t, resp)
		assert.Equal(t, "mmx", out.Session.CurrentApp)
		assert.Equal(t, "dev", out.Session.CurrentEnv)
	})
}

func TestConsoleRequiresSession(t *testing.T) {
	h := newHarness(t)

	resp := h.do(t, "", "GET", "/console/document", "")
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)

	resp = h.do(t, "garbage", "GET", "/console/apps", "")
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
}

func TestLogoutEndsSession(t *testing.T) {
	h := newHarness(t)
	token := h.login(t, "FAST", "dev")

	resp := h.do(t, token, "POST", "/auth/logout", "")
	assert.Equal(t, http.StatusNoContent, resp.StatusCode)

	resp = h.do(t, token, "GET", "/session", "")
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
}

func TestSelect(t *testing.T) {
	h := newHarness(t)
	token := h.login(t, "FAST", "dev")

	t.Run("unsupported app", func(t *testing.T) {
		resp := h.do(t, token, "PUT", "/session/selection", `{"app": "nope", "env": "dev"}`)
		assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	})

	t.Run("unknown environment", func(t *testing.T) {
		resp := h.do(t, token, "PUT", "/session/selection", `{"app": "fast", "env": "staging"}`)
		assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	})

	t.Run("misconfigured environment", func(t *testing.T) {
		resp := h.do(t, token, "PUT", "/session/selection", `{"app": "fast", "env": "prod"}`)
		assert.GreaterOrEqual(t, resp.StatusCode, 400)

		state := decode[session.State](t, h.do(t, token, "GET", "/session", ""))
		assert.Equal(t, "dev", state.CurrentEnv)
	})

	t.Run("valid", func(t *testing.T) {
		resp := h.do(t, token, "PUT", "/session/selection", `{"app": "FAST", "env": "qa"}`)
		require.Equal(t, http.StatusOK, resp.StatusCode)

		state := decode[session.State](t, resp)
		assert.Equal(t, "qa", state.CurrentEnv)
	})
}

func TestDocumentAndVersions(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()
	require.NoError(t, h.dev.Put(ctx, "fast_prompt_repo_20240201_000000.json", []byte(fastDoc), "application/json"))
	require.NoError(t, h.dev.Put(ctx, "fast_prompt_repo_20240301_000000.json", []byte(fastDoc), "application/json"))

	token := h.login(t, "FAST", "dev")

	doc := decode[console.DocumentResponse](t, h.do(t, token, "GET", "/console/document", ""))
	require.NotNil(t, doc.Snapshot)
	assert.Equal(t, "fast_prompt_repo_20240301_000000.json", doc.Snapshot.Key)
	assert.Nil(t, doc.Template)

	page := decode[pagination.PageResult[string]](t, h.do(t, token, "GET", "/console/versions?page=2", ""))
	assert.Equal(t, 3, page.Total)
	assert.Equal(t, []string{"fast_prompt_repo_20240101_000000.json"}, page.Data)
}

func TestScaffoldedDocumentIncludesTemplate(t *testing.T) {
	h := newHarness(t)
	token := h.login(t, "mmx", "dev")

	doc := decode[console.DocumentResponse](t, h.do(t, token, "GET", "/console/document", ""))
	assert.True(t, doc.Snapshot.Scaffolded)
	assert.NotNil(t, doc.Template)
}

func TestPreview(t *testing.T) {
	h := newHarness(t)
	token := h.login(t, "FAST", "dev")

	resp := h.do(t, token, "POST", "/console/preview", `{"key": "fast_prompt_repo_20240101_000000.json"}`)
	require.Equal(t, http.StatusOK, resp.StatusCode)

	doc := decode[console.DocumentResponse](t, h.do(t, token, "GET", "/console/document", ""))
	require.NotNil(t, doc.Preview)
	assert.Equal(t, "fast_prompt_repo_20240101_000000.json", doc.Preview.Key)

	resp = h.do(t, token, "DELETE", "/console/preview", "")
	assert.Equal(t, http.StatusNoContent, resp.StatusCode)

	resp = h.do(t, token, "POST", "/console/preview", `{"key": "fast_prompt_repo_20990101_000000.json"}`)
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}

func TestEditPromptCommitsImmediately(t *testing.T) {
	h := newHarness(t)
	token := h.login(t, "FAST", "dev")

	resp := h.do(t, token, "PUT", "/console/prompts/0", `{"content": "Hello\nthere"}`)
	require.Equal(t, http.StatusCreated, resp.StatusCode)

	out := decode[console.WriteResponse](t, resp)
	require.NotNil(t, out.Result)
	assert.False(t, out.Pending)
	assert.Equal(t, "fast_prompt_repo_20240601_120001.json", out.Result.Key)

	keys, err := h.dev.List(context.Background(), "fast_prompt_repo_")
	require.NoError(t, err)
	assert.Len(t, keys, 2)

	resp = h.do(t, token, "PUT", "/console/prompts/7", `{"content": "x"}`)
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)

	resp = h.do(t, token, "PUT", "/console/prompts/abc", `{"content": "x"}`)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestConfirmWritesStagesChange(t *testing.T) {
	h := newHarness(t)
	token := h.login(t, "FAST", "qa")

	resp := h.do(t, token, "PUT", "/console/prompts/1", `{"content": "Farewell"}`)
	require.Equal(t, http.StatusAccepted, resp.StatusCode)

	staged := decode[console.WriteResponse](t, resp)
	assert.True(t, staged.Pending)
	require.NotNil(t, staged.Change)
	assert.Equal(t, 1, staged.Change.Summary.Modified)

	keys, err := h.qa.List(context.Background(), "fast_prompt_repo_")
	require.NoError(t, err)
	assert.Len(t, keys, 1)

	resp = h.do(t, token, "POST", "/console/confirm", `{"id": "other"}`)
	assert.Equal(t, http.StatusConflict, resp.StatusCode)

	resp = h.do(t, token, "POST", "/console/confirm", `{"id": "`+staged.Change.ID+`"}`)
	require.Equal(t, http.StatusCreated, resp.StatusCode)

	keys, err = h.qa.List(context.Background(), "fast_prompt_repo_")
	require.NoError(t, err)
	assert.Len(t, keys, 2)

	resp = h.do(t, token, "POST", "/console/confirm", "")
	assert.Equal(t, http.StatusConflict, resp.StatusCode)
}

func TestDiscardPending(t *testing.T) {
	h := newHarness(t)
	token := h.login(t, "FAST", "qa")

	resp := h.do(t, token, "PUT", "/console/prompts/0", `{"content": "changed"}`)
	require.Equal(t, http.StatusAccepted, resp.StatusCode)

	resp = h.do(t, token, "DELETE", "/console/pending", "")
	assert.Equal(t, http.StatusNoContent, resp.StatusCode)

	doc := decode[console.DocumentResponse](t, h.do(t, token, "GET", "/console/document", ""))
	assert.Nil(t, doc.Pending)
}

func TestReplaceDocument(t *testing.T) {
	h := newHarness(t)
	token := h.login(t, "FAST", "dev")

	resp := h.do(t, token, "PUT", "/console/document", `{"apps": []}`)
	assert.Equal(t, http.StatusUnprocessableEntity, resp.StatusCode)

	resp = h.do(t, token, "PUT", "/console/document", `{"APPS": [`)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)

	resp = h.do(t, token, "PUT", "/console/document", fastDoc)
	assert.Equal(t, http.StatusUnprocessableEntity, resp.StatusCode)

	replaced := `{"APPS": [{"name": "fast", "prompts": [{"name": "ONLY", "content": ["one"]}]}]}`
	resp = h.do(t, token, "PUT", "/console/document", replaced)
	assert.Equal(t, http.StatusCreated, resp.StatusCode)
}

func TestCompare(t *testing.T) {
	h := newHarness(t)
	changed := `{"APPS": [{"name": "fast", "prompts": [{"name": "GREETING", "content": ["Hello"]}]}]}`
	require.NoError(t, h.qa.Put(context.Background(), "fast_prompt_repo_20240501_000000.json", []byte(changed), "application/json"))

	token := h.login(t, "FAST", "dev")

	resp := h.do(t, token, "GET", "/console/compare", "")
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)

	resp = h.do(t, token, "GET", "/console/compare?against=qa", "")
	require.Equal(t, http.StatusOK, resp.StatusCode)

	out := decode[prompts.Comparison](t, resp)
	assert.Equal(t, 1, out.Summary.Modified)
	assert.Equal(t, 1, out.Summary.OnlyLeft)
}

func TestMetadata(t *testing.T) {
	h := newHarness(t)
	token := h.login(t, "FAST", "dev")

	resp := h.do(t, token, "GET", "/console/metadata", "")
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)

	resp = h.do(t, token, "PUT", "/console/metadata", `{"fast": []}`)
	assert.Equal(t, http.StatusUnprocessableEntity, resp.StatusCode)

	resp = h.do(t, token, "PUT", "/console/metadata", `{"FAST": [{"table": "orders"}]}`)
	require.Equal(t, http.StatusCreated, resp.StatusCode)

	resp = h.do(t, token, "GET", "/console/metadata", "")
	require.Equal(t, http.StatusOK, resp.StatusCode)
	raw, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	assert.JSONEq(t, `{"FAST": [{"table": "orders"}]}`, string(raw))
}

func TestBackendWithoutURL(t *testing.T) {
	h := newHarness(t)
	token := h.login(t, "FAST", "dev")

	resp := h.do(t, token, "POST", "/console/backend/cache", "")
	assert.GreaterOrEqual(t, resp.StatusCode, 400)
}
