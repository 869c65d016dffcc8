package api

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"tenderdesk/entity"
	"tenderdesk/impl/core"
	"tenderdesk/internal/config"
	"tenderdesk/wizard"
)

type okAuth struct{}

func (okAuth) Register(context.Context, entity.Registration) (*entity.AuthResult, error) {
	return &entity.AuthResult{Success: true}, nil
}

func (okAuth) ResendVerificationEmail(context.Context, string) (*entity.AuthResult, error) {
	return &entity.AuthResult{Success: true}, nil
}

func newRouter(t *testing.T) http.Handler {
	t.Helper()
	conf, err := config.Default()
	require.NoError(t, err)
	conf.Recaptcha.SiteKey = "site-key"

	log := slog.New(slog.DiscardHandler)
	m := wizard.NewManager(nil, log)
	t.Cleanup(m.Shutdown)

	ctx, cancel := context.WithCancel(context.Background())
	t.Cleanup(cancel)

	c := core.New(conf, m, log)
	c.SetAuthService(okAuth{})
	c.Init(ctx)

	return NewRouter(conf, log, c)
}

func do(t *testing.T, h http.Handler, method, path, token, body string) (int, map[string]any) {
	t.Helper()
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)

	var out map[string]any
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&out))
	return rec.Code, out
}

func TestPublicConfig(t *testing.T) {
	h := newRouter(t)

	status, out := do(t, h, http.MethodGet, "/api/v1/config", "", "")
	require.Equal(t, http.StatusOK, status)
	data := out["data"].(map[string]any)
	assert.Equal(t, "site-key", data["recaptcha_site_key"])
	assert.Equal(t, []any{"signup"}, data["wizards"])
}

func TestSignupIsPublic(t *testing.T) {
	h := newRouter(t)

	status, out := do(t, h, http.MethodPost, "/api/v1/wizards/signup/", "", `{"locale":"ar"}`)
	require.Equal(t, http.StatusCreated, status)
	data := out["data"].(map[string]any)
	assert.Equal(t, "ar", data["locale"])
}

func TestTenderEditNeedsToken(t *testing.T) {
	h := newRouter(t)

	status, _ := do(t, h, http.MethodPost, "/api/v1/wizards/tender-edit/", "", `{"subject":"t-1"}`)
	assert.Equal(t, http.StatusUnauthorized, status)

	// the kind is not registered without a tender service
	status, _ = do(t, h, http.MethodPost, "/api/v1/wizards/tender-edit/", "tok", `{"subject":"t-1"}`)
	assert.Equal(t, http.StatusNotFound, status)
}

func TestAnswerCheck(t *testing.T) {
	h := newRouter(t)

	status, _ := do(t, h, http.MethodPost, "/api/v1/answers/check", "", `{"answer":"hello"}`)
	assert.Equal(t, http.StatusUnauthorized, status)

	status, out := do(t, h, http.MethodPost, "/api/v1/answers/check", "tok", `{"answer":"write to sales@dohabuild.qa"}`)
	require.Equal(t, http.StatusOK, status)
	data := out["data"].(map[string]any)
	assert.Equal(t, false, data["allowed"])
	assert.NotEmpty(t, data["message"])
}

func TestPrefsArePerCaller(t *testing.T) {
	h := newRouter(t)

	status, _ := do(t, h, http.MethodPut, "/api/v1/prefs/hide_draft_prompt", "", `{"value":true}`)
	assert.Equal(t, http.StatusUnauthorized, status)

	status, _ = do(t, h, http.MethodPut, "/api/v1/prefs/hide_draft_prompt", "alice", `{"value":true}`)
	require.Equal(t, http.StatusOK, status)

	_, out := do(t, h, http.MethodGet, "/api/v1/prefs/hide_draft_prompt", "alice", "")
	assert.Equal(t, true, out["data"].(map[string]any)["value"])

	_, out = do(t, h, http.MethodGet, "/api/v1/prefs/hide_draft_prompt", "bob", "")
	assert.Equal(t, false, out["data"].(map[string]any)["value"])
}

func TestNotFound(t *testing.T) {
	h := newRouter(t)
	status, out := do(t, h, http.MethodGet, "/api/v2/anything", "", "")
	assert.Equal(t, http.StatusNotFound, status)
	assert.Equal(t, false, out["success"])
}
