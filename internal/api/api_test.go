package api_test

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/JaimeStill/promptrepo/internal/api"
	"github.com/JaimeStill/promptrepo/internal/config"
	"github.com/JaimeStill/promptrepo/internal/dispatch"
	"github.com/JaimeStill/promptrepo/internal/infrastructure"
	"github.com/JaimeStill/promptrepo/pkg/middleware"
	"github.com/JaimeStill/promptrepo/pkg/module"
	"github.com/JaimeStill/promptrepo/pkg/pagination"
	"github.com/JaimeStill/promptrepo/pkg/storage"
)

func testConfig() *config.Config {
	return &config.Config{
		Apps:               []string{"mmx", "FAST"},
		LegacyApp:          "mmx",
		DefaultEnvironment: "dev",
		Log:                config.LogConfig{Level: "error", Format: "text"},
		Auth: config.AuthConfig{
			Password:      "hunter2",
			SessionSecret: "secret",
			SessionTTL:    "1h",
			MaxSessions:   8,
			CookieName:    "promptrepo_session",
			LoginRate:     1,
			LoginBurst:    5,
		},
		Cache:   config.CacheConfig{TTL: "1m", Size: 8},
		Backend: config.BackendConfig{Timeout: "1s"},
		API: config.APIConfig{
			BasePath:        "/api",
			MaxDocumentSize: "1KB",
			CORS:            middleware.CORSConfig{},
			Pagination:      pagination.Config{DefaultPageSize: 20, MaxPageSize: 100},
		},
		Environments: []config.EnvironmentConfig{
			{Name: "dev", Storage: storage.Config{Provider: storage.ProviderMemory, Container: "dev"}},
		},
	}
}

func newServer(t *testing.T) *httptest.Server {
	t.Helper()

	cfg := testConfig()
	infra, err := infrastructure.New(cfg, dispatch.WithBucket("dev", storage.NewMemory("dev")))
	require.NoError(t, err)

	m, err := api.NewModule(cfg, infra)
	require.NoError(t, err)

	router := module.NewRouter()
	router.Mount(m)

	srv := httptest.NewServer(router)
	t.Cleanup(srv.Close)
	return srv
}

func login(t *testing.T, srv *httptest.Server) *http.Cookie {
	t.Helper()

	resp, err := http.Post(srv.URL+"/api/auth/login", "application/json",
		strings.NewReader(`{"password": "hunter2", "app": "FAST", "env": "dev"}`))
	require.NoError(t, err)
	defer resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)

	for _, c := range resp.Cookies() {
		if c.Name == "promptrepo_session" {
			return c
		}
	}
	t.Fatal("session cookie not set")
	return nil
}

func TestModuleServesConsole(t *testing.T) {
	srv := newServer(t)
	cookie := login(t, srv)

	req, err := http.NewRequestWithContext(context.Background(), "GET", srv.URL+"/api/console/apps", nil)
	require.NoError(t, err)
	req.AddCookie(cookie)

	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)
}

func TestModuleLimitsBodySize(t *testing.T) {
	srv := newServer(t)
	cookie := login(t, srv)

	body := `{"APPS": [{"name": "fast", "prompts": [{"name": "X", "content": ["` + strings.Repeat("a", 2048) + `"]}]}]}`
	req, err := http.NewRequest("PUT", srv.URL+"/api/console/document", strings.NewReader(body))
	require.NoError(t, err)
	req.AddCookie(cookie)

	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusRequestEntityTooLarge, resp.StatusCode)
}

func TestModuleServesOpenAPI(t *testing.T) {
	srv := newServer(t)

	resp, err := http.Get(srv.URL + "/api/openapi.json")
	require.NoError(t, err)
	defer resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var spec struct {
		OpenAPI string                    `json:"openapi"`
		Paths   map[string]map[string]any `json:"paths"`
	}
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&spec))

	assert.Equal(t, "3.1.0", spec.OpenAPI)
	assert.Contains(t, spec.Paths, "/console/document")
	assert.Contains(t, spec.Paths["/console/document"], "put")
}
