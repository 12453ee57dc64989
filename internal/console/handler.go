// Package console exposes the password-gated HTTP surface of the prompt
// repository: login, the operator's session selection, and the console
// operations that read, edit, compare, and write repository documents.
package console

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strconv"
	"strings"

	"github.com/JaimeStill/promptrepo/internal/document"
	"github.com/JaimeStill/promptrepo/internal/prompts"
	"github.com/JaimeStill/promptrepo/internal/session"
	"github.com/JaimeStill/promptrepo/pkg/handlers"
	"github.com/JaimeStill/promptrepo/pkg/pagination"
	"github.com/JaimeStill/promptrepo/pkg/routes"
)

// Handler provides HTTP endpoints for the console.
type Handler struct {
	sys        prompts.System
	sessions   *session.Store
	auth       *session.Authenticator
	cookies    session.Cookies
	logger     *slog.Logger
	pagination pagination.Config
}

// NewHandler creates a Handler.
func NewHandler(
	sys prompts.System,
	sessions *session.Store,
	auth *session.Authenticator,
	cookies session.Cookies,
	logger *slog.Logger,
	pagination pagination.Config,
) *Handler {
	return &Handler{
		sys:        sys,
		sessions:   sessions,
		auth:       auth,
		cookies:    cookies,
		logger:     logger.With("handler", "console"),
		pagination: pagination,
	}
}

// Routes returns the auth, session, and console route groups. Everything
// except login and logout requires a session.
func (h *Handler) Routes() routes.Group {
	require := session.Require(h.auth, h.sessions, h.cookies, h.reject)

	return routes.Group{
		Children: []routes.Group{
			{
				Prefix: "/auth",
				Routes: []routes.Route{
					{Method: "POST", Pattern: "/login", Handler: h.Login},
					{Method: "POST", Pattern: "/logout", Handler: h.Logout},
				},
			},
			{
				Prefix:     "/session",
				Middleware: []func(http.Handler) http.Handler{require},
				Routes: []routes.Route{
					{Method: "GET", Pattern: "", Handler: h.Session},
					{Method: "PUT", Pattern: "/selection", Handler: h.Select},
				},
			},
			{
				Prefix:     "/console",
				Middleware: []func(http.Handler) http.Handler{require},
				Routes: []routes.Route{
					{Method: "GET", Pattern: "/apps", Handler: h.Apps},
					{Method: "GET", Pattern: "/environments", Handler: h.Environments},
					{Method: "GET", Pattern: "/document", Handler: h.Document},
					{Method: "PUT", Pattern: "/document", Handler: h.ReplaceDocument},
					{Method: "GET", Pattern: "/versions", Handler: h.Versions},
					{Method: "POST", Pattern: "/preview", Handler: h.Preview},
					{Method: "DELETE", Pattern: "/preview", Handler: h.ClearPreview},
					{Method: "PUT", Pattern: "/prompts/{index}", Handler: h.EditPrompt},
					{Method: "POST", Pattern: "/confirm", Handler: h.Confirm},
					{Method: "DELETE", Pattern: "/pending", Handler: h.DiscardPending},
					{Method: "GET", Pattern: "/compare", Handler: h.Compare},
					{Method: "GET", Pattern: "/metadata", Handler: h.Metadata},
					{Method: "PUT", Pattern: "/metadata", Handler: h.SaveMetadata},
					{Method: "POST", Pattern: "/backend/cache", Handler: h.ClearBackendCache},
					{Method: "POST", Pattern: "/backend/index", Handler: h.PopulateIndex},
					{Method: "GET", Pattern: "/backend/index", Handler: h.IndexStatus},
				},
			},
		},
	}
}

// Login checks the shared password, starts a session, and sets the session cookie.
func (h *Handler) Login(w http.ResponseWriter, r *http.Request) {
	var req LoginRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		handlers.RespondError(w, h.logger, http.StatusBadRequest, err)
		return
	}

	if err := h.auth.Login(session.RemoteHost(r), req.Password); err != nil {
		h.fail(w, err)
		return
	}

	app, env := req.App, req.Env
	if apps := h.sys.Apps(); app == "" && len(apps) > 0 {
		app = apps[0]
	}
	if env == "" {
		env = h.sys.DefaultEnvironment()
	}

	state := h.sessions.Create(app, env)
	token, expires, err := h.auth.Issue(state.ID)
	if err != nil {
		h.sessions.Delete(state.ID)
		handlers.RespondError(w, h.logger, http.StatusInternalServerError, err)
		return
	}

	h.cookies.Set(w, token, expires)
	h.logger.Info("operator logged in", "session", state.ID, "remote", session.RemoteHost(r))

	handlers.RespondJSON(w, http.StatusOK, LoginResponse{
		Token:     token,
		ExpiresAt: expires,
		Session:   state,
	})
}

// Logout ends the session named by the request's token, if any.
func (h *Handler) Logout(w http.ResponseWriter, r *http.Request) {
	if token := h.cookies.Token(r); token != "" {
		if id, err := h.auth.Verify(token); err == nil {
			h.sessions.Delete(id)
		}
	}
	h.cookies.Clear(w)
	w.WriteHeader(http.StatusNoContent)
}

// Session returns the caller's session state.
func (h *Handler) Session(w http.ResponseWriter, r *http.Request) {
	state, err := h.state(r)
	if err != nil {
		h.fail(w, err)
		return
	}
	handlers.RespondJSON(w, http.StatusOK, state)
}

// Select changes the session's application and environment. A change drops
// the preview and any staged write and refreshes the cached document.
func (h *Handler) Select(w http.ResponseWriter, r *http.Request) {
	var req SelectRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		handlers.RespondError(w, h.logger, http.StatusBadRequest, err)
		return
	}

	if !h.supported(req.App) {
		h.fail(w, fmt.Errorf("%w: %s", prompts.ErrUnsupportedApp, req.App))
		return
	}
	if err := h.sys.Check(req.Env); err != nil {
		h.fail(w, err)
		return
	}

	id, _ := session.IDFromContext(r.Context())
	changed := false
	state, err := h.sessions.Update(id, func(s *session.State) error {
		changed = s.Select(req.App, req.Env)
		return nil
	})
	if err != nil {
		h.fail(w, err)
		return
	}

	if changed {
		h.sys.Invalidate(req.Env, req.App)
	}
	handlers.RespondJSON(w, http.StatusOK, state)
}

// Apps returns the supported application ids.
func (h *Handler) Apps(w http.ResponseWriter, r *http.Request) {
	handlers.RespondJSON(w, http.StatusOK, h.sys.Apps())
}

// Environments returns the configured environments and their readiness.
func (h *Handler) Environments(w http.ResponseWriter, r *http.Request) {
	handlers.RespondJSON(w, http.StatusOK, h.sys.Environments())
}

// Document returns the latest document for the selection, plus the previewed
// version and staged change when present.
func (h *Handler) Document(w http.ResponseWriter, r *http.Request) {
	state, err := h.selected(r)
	if err != nil {
		h.fail(w, err)
		return
	}

	snap, err := h.sys.Latest(r.Context(), state.CurrentEnv, state.CurrentApp)
	if err != nil {
		h.fail(w, err)
		return
	}

	resp := DocumentResponse{
		Snapshot: snap,
		Preview:  state.Preview,
		Pending:  state.Pending,
	}
	if snap.Scaffolded {
		resp.Template = document.Template(snap.App)
	}
	handlers.RespondJSON(w, http.StatusOK, resp)
}

// Versions returns a page of version keys for the selection, newest first.
func (h *Handler) Versions(w http.ResponseWriter, r *http.Request) {
	state, err := h.selected(r)
	if err != nil {
		h.fail(w, err)
		return
	}

	keys, err := h.sys.Versions(r.Context(), state.CurrentEnv, state.CurrentApp)
	if err != nil {
		h.fail(w, err)
		return
	}

	page := pagination.PageRequestFromQuery(r.URL.Query(), h.pagination)
	handlers.RespondJSON(w, http.StatusOK, pagination.Paginate(keys, page, func(k string) string { return k }))
}

// Preview loads a historical version into the session.
func (h *Handler) Preview(w http.ResponseWriter, r *http.Request) {
	var req PreviewRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		handlers.RespondError(w, h.logger, http.StatusBadRequest, err)
		return
	}

	state, err := h.selected(r)
	if err != nil {
		h.fail(w, err)
		return
	}

	doc, err := h.sys.Version(r.Context(), state.CurrentEnv, state.CurrentApp, req.Key)
	if err != nil {
		h.fail(w, err)
		return
	}

	updated, err := h.sessions.Update(state.ID, func(s *session.State) error {
		s.SetPreview(req.Key, doc)
		return nil
	})
	if err != nil {
		h.fail(w, err)
		return
	}
	handlers.RespondJSON(w, http.StatusOK, updated.Preview)
}

// ClearPreview returns the session to the latest version.
func (h *Handler) ClearPreview(w http.ResponseWriter, r *http.Request) {
	h.mutate(w, r, func(s *session.State) error {
		s.ClearPreview()
		return nil
	})
}

// EditPrompt replaces the content of the prompt at the path index.
func (h *Handler) EditPrompt(w http.ResponseWriter, r *http.Request) {
	index, err := strconv.Atoi(r.PathValue("index"))
	if err != nil {
		handlers.RespondError(w, h.logger, http.StatusBadRequest, fmt.Errorf("invalid prompt index: %w", err))
		return
	}

	var req EditPromptRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		handlers.RespondError(w, h.logger, http.StatusBadRequest, err)
		return
	}

	state, err := h.selected(r)
	if err != nil {
		h.fail(w, err)
		return
	}

	change, err := h.sys.EditPrompt(r.Context(), state.CurrentEnv, state.CurrentApp, index, req.Content)
	if err != nil {
		h.fail(w, err)
		return
	}
	h.apply(w, r, state, change)
}

// ReplaceDocument validates the raw request body as a whole repository
// document and writes it.
func (h *Handler) ReplaceDocument(w http.ResponseWriter, r *http.Request) {
	raw, err := h.body(r)
	if err != nil {
		h.fail(w, err)
		return
	}

	state, err := h.selected(r)
	if err != nil {
		h.fail(w, err)
		return
	}

	change, err := h.sys.ReplaceDocument(r.Context(), state.CurrentEnv, state.CurrentApp, raw)
	if err != nil {
		h.fail(w, err)
		return
	}
	h.apply(w, r, state, change)
}

// Confirm commits the staged change. On failure the change stays staged.
func (h *Handler) Confirm(w http.ResponseWriter, r *http.Request) {
	var req ConfirmRequest
	if r.ContentLength != 0 {
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil && !errors.Is(err, io.EOF) {
			handlers.RespondError(w, h.logger, http.StatusBadRequest, err)
			return
		}
	}

	id, _ := session.IDFromContext(r.Context())

	var change *prompts.Change
	if _, err := h.sessions.Update(id, func(s *session.State) error {
		var err error
		change, err = s.TakePending(req.ID)
		return err
	}); err != nil {
		h.fail(w, err)
		return
	}

	result, err := h.sys.Commit(r.Context(), change)
	if err != nil {
		if _, serr := h.sessions.Update(id, func(s *session.State) error {
			return s.Stage(change)
		}); serr != nil {
			h.logger.Warn("could not restage change", "change", change.ID, "error", serr)
		}
		h.fail(w, err)
		return
	}

	h.committed(id)
	handlers.RespondJSON(w, http.StatusCreated, WriteResponse{Result: result, Change: change})
}

// DiscardPending drops the staged change.
func (h *Handler) DiscardPending(w http.ResponseWriter, r *http.Request) {
	h.mutate(w, r, func(s *session.State) error {
		s.DiscardPending()
		return nil
	})
}

// Compare compares the selected application in the current environment with
// the environment named by the against query parameter.
func (h *Handler) Compare(w http.ResponseWriter, r *http.Request) {
	against := r.URL.Query().Get("against")
	if against == "" {
		handlers.RespondError(w, h.logger, http.StatusBadRequest, errors.New("query parameter 'against' is required"))
		return
	}

	state, err := h.selected(r)
	if err != nil {
		h.fail(w, err)
		return
	}

	result, err := h.sys.Compare(r.Context(), state.CurrentApp, state.CurrentEnv, against)
	if err != nil {
		h.fail(w, err)
		return
	}
	handlers.RespondJSON(w, http.StatusOK, result)
}

// Metadata returns the metadata document for the selection.
func (h *Handler) Metadata(w http.ResponseWriter, r *http.Request) {
	state, err := h.selected(r)
	if err != nil {
		h.fail(w, err)
		return
	}

	raw, err := h.sys.Metadata(r.Context(), state.CurrentEnv, state.CurrentApp)
	if err != nil {
		h.fail(w, err)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	w.Write(raw)
}

// SaveMetadata validates the raw request body as a metadata document and writes it.
func (h *Handler) SaveMetadata(w http.ResponseWriter, r *http.Request) {
	raw, err := h.body(r)
	if err != nil {
		h.fail(w, err)
		return
	}

	state, err := h.selected(r)
	if err != nil {
		h.fail(w, err)
		return
	}

	change, err := h.sys.ChangeMetadata(r.Context(), state.CurrentEnv, state.CurrentApp, raw)
	if err != nil {
		h.fail(w, err)
		return
	}
	h.apply(w, r, state, change)
}

// ClearBackendCache clears the companion service cache for the selection.
func (h *Handler) ClearBackendCache(w http.ResponseWriter, r *http.Request) {
	state, err := h.selected(r)
	if err != nil {
		h.fail(w, err)
		return
	}

	n, err := h.sys.ClearBackendCache(r.Context(), state.CurrentEnv, state.CurrentApp)
	if err != nil {
		h.fail(w, err)
		return
	}
	handlers.RespondJSON(w, http.StatusOK, CacheClearResponse{ClearedKeys: n})
}

// PopulateIndex starts index population for the selection.
func (h *Handler) PopulateIndex(w http.ResponseWriter, r *http.Request) {
	state, err := h.selected(r)
	if err != nil {
		h.fail(w, err)
		return
	}

	if err := h.sys.PopulateIndex(r.Context(), state.CurrentEnv, state.CurrentApp); err != nil {
		h.fail(w, err)
		return
	}
	w.WriteHeader(http.StatusAccepted)
}

// IndexStatus reports index population progress for the selection.
func (h *Handler) IndexStatus(w http.ResponseWriter, r *http.Request) {
	state, err := h.selected(r)
	if err != nil {
		h.fail(w, err)
		return
	}

	status, err := h.sys.IndexStatus(r.Context(), state.CurrentEnv, state.CurrentApp)
	if err != nil {
		h.fail(w, err)
		return
	}
	handlers.RespondJSON(w, http.StatusOK, status)
}

// apply stages change when its environment requires confirmation and
// commits it otherwise.
func (h *Handler) apply(w http.ResponseWriter, r *http.Request, state session.State, change *prompts.Change) {
	if h.sys.ConfirmWrites(change.Env) {
		if _, err := h.sessions.Update(state.ID, func(s *session.State) error {
			return s.Stage(change)
		}); err != nil {
			h.fail(w, err)
			return
		}
		handlers.RespondJSON(w, http.StatusAccepted, WriteResponse{Change: change, Pending: true})
		return
	}

	result, err := h.sys.Commit(r.Context(), change)
	if err != nil {
		h.fail(w, err)
		return
	}

	h.committed(state.ID)
	handlers.RespondJSON(w, http.StatusCreated, WriteResponse{Result: result, Change: change})
}

func (h *Handler) committed(id string) {
	if _, err := h.sessions.Update(id, func(s *session.State) error {
		s.ClearPreview()
		s.DiscardPending()
		return nil
	}); err != nil {
		h.logger.Warn("session not updated after commit", "session", id, "error", err)
	}
}

func (h *Handler) mutate(w http.ResponseWriter, r *http.Request, fn func(*session.State) error) {
	id, _ := session.IDFromContext(r.Context())
	if _, err := h.sessions.Update(id, fn); err != nil {
		h.fail(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) state(r *http.Request) (session.State, error) {
	id, ok := session.IDFromContext(r.Context())
	if !ok {
		return session.State{}, session.ErrUnauthenticated
	}
	return h.sessions.Get(id)
}

func (h *Handler) selected(r *http.Request) (session.State, error) {
	state, err := h.state(r)
	if err != nil {
		return state, err
	}
	if !state.Selected() {
		return state, session.ErrNoSelection
	}
	return state, nil
}

func (h *Handler) supported(app string) bool {
	for _, a := range h.sys.Apps() {
		if strings.EqualFold(a, app) {
			return true
		}
	}
	return false
}

func (h *Handler) body(r *http.Request) ([]byte, error) {
	raw, err := io.ReadAll(r.Body)
	if err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			return nil, fmt.Errorf("%w: limit is %d bytes", ErrBodyTooLarge, tooLarge.Limit)
		}
		return nil, err
	}
	return raw, nil
}

func (h *Handler) fail(w http.ResponseWriter, err error) {
	handlers.RespondError(w, h.logger, MapHTTPStatus(err), err)
}

func (h *Handler) reject(w http.ResponseWriter, err error) {
	handlers.RespondError(w, h.logger, session.MapHTTPStatus(err), err)
}
