package answer

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"tenderdesk/entity"
	"tenderdesk/impl/core"
	"tenderdesk/internal/service/backend"
)

type fakeCore struct {
	check   entity.ContactCheck
	postErr error
	posted  []entity.Answer
}

func (c *fakeCore) CheckAnswer(context.Context, string) entity.ContactCheck {
	return c.check
}

func (c *fakeCore) PostAnswer(_ context.Context, _ string, a entity.Answer) (entity.ContactCheck, error) {
	c.posted = append(c.posted, a)
	return c.check, c.postErr
}

type envelope struct {
	Success bool                `json:"success"`
	Message string              `json:"message"`
	Data    entity.ContactCheck `json:"data"`
}

func serve(t *testing.T, h *fakeCore, method, path, body string) (int, envelope) {
	t.Helper()
	log := slog.New(slog.DiscardHandler)
	r := chi.NewRouter()
	r.Post("/answers/check", Check(log, h))
	r.Post("/answers/{question}", Post(log, h))

	req := httptest.NewRequest(method, path, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)

	var env envelope
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&env))
	return rec.Code, env
}

func TestCheck(t *testing.T) {
	h := &fakeCore{check: entity.ContactCheck{
		Allowed:    false,
		Message:    "Answers cannot contain contact details",
		Detections: []entity.Detection{{Type: "email", Severity: "high", Match: "a@b.co"}},
	}}

	status, env := serve(t, h, http.MethodPost, "/answers/check", `{"answer":"mail a@b.co"}`)
	assert.Equal(t, http.StatusOK, status)
	assert.True(t, env.Success)
	assert.False(t, env.Data.Allowed)
	assert.Len(t, env.Data.Detections, 1)

	status, _ = serve(t, h, http.MethodPost, "/answers/check", `{"answer":""}`)
	assert.Equal(t, http.StatusBadRequest, status)
}

func TestPost(t *testing.T) {
	cases := []struct {
		name   string
		err    error
		status int
	}{
		{"posted", nil, http.StatusCreated},
		{"blocked", core.ErrAnswerBlocked, http.StatusUnprocessableEntity},
		{"empty", core.ErrAnswerEmpty, http.StatusBadRequest},
		{"forbidden", &backend.APIError{Status: http.StatusForbidden, Message: "Not your tender"}, http.StatusForbidden},
		{"backend down", &backend.APIError{Status: http.StatusBadGateway, Message: "upstream"}, http.StatusBadGateway},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			h := &fakeCore{check: entity.ContactCheck{Allowed: tc.err == nil}, postErr: tc.err}
			status, env := serve(t, h, http.MethodPost, "/answers/q-7", `{"answer":"We deliver in two weeks"}`)
			assert.Equal(t, tc.status, status)
			assert.Equal(t, tc.err == nil, env.Success)
			require.Len(t, h.posted, 1)
			assert.Equal(t, "We deliver in two weeks", h.posted[0].Body)
		})
	}
}

func TestPostRejectsLongAnswer(t *testing.T) {
	h := &fakeCore{}
	body := `{"answer":"` + strings.Repeat("a", 2001) + `"}`
	status, _ := serve(t, h, http.MethodPost, "/answers/q-7", body)
	assert.Equal(t, http.StatusBadRequest, status)
	assert.Empty(t, h.posted)
}
