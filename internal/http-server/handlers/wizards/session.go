package wizards

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/render"

	"tenderdesk/internal/lib/api/response"
	"tenderdesk/internal/lib/sl"
	"tenderdesk/internal/service/backend"
	"tenderdesk/wizard"
	"tenderdesk/wizard/wizards/tenderedit"
)

func requestLogger(log *slog.Logger, r *http.Request) *slog.Logger {
	return log.With(
		sl.Module("http.handlers.wizards"),
		slog.String("request_id", middleware.GetReqID(r.Context())),
		slog.String("kind", chi.URLParam(r, "kind")),
		slog.String("session", chi.URLParam(r, "id")),
	)
}

// session resolves the {kind}/{id} route to a live session, answering the
// request itself when it cannot.
func session(w http.ResponseWriter, r *http.Request, logger *slog.Logger, handler Core) (wizard.Session, bool) {
	if handler == nil {
		logger.Error("wizard service not available")
		render.Status(r, http.StatusServiceUnavailable)
		render.JSON(w, r, response.Error("wizard service not available"))
		return nil, false
	}
	kind := wizard.Kind(chi.URLParam(r, "kind"))
	s, err := handler.Session(r.Context(), kind, chi.URLParam(r, "id"))
	if err != nil {
		status := statusOf(err, http.StatusInternalServerError)
		if status >= http.StatusInternalServerError {
			logger.Error("failed to load session", sl.Err(err))
		}
		render.Status(r, status)
		render.JSON(w, r, response.Error(messageOf(err)))
		return nil, false
	}
	return s, true
}

// reply renders the session view, with the explained error when the
// operation was rejected.
func reply(w http.ResponseWriter, r *http.Request, logger *slog.Logger, s wizard.Session, err error, fallback int) {
	if err == nil {
		render.JSON(w, r, response.Ok(s.View()))
		return
	}
	status := statusOf(err, fallback)
	if status >= http.StatusInternalServerError {
		logger.Error("wizard operation failed", sl.Err(err))
	} else {
		logger.Debug("wizard operation rejected", sl.Err(err))
	}
	render.Status(r, status)
	render.JSON(w, r, response.Fail(s.Explain(err), s.View()))
}

// statusOf maps wizard and backend errors to HTTP statuses; anything
// unrecognised gets fallback.
func statusOf(err error, fallback int) int {
	var gate *wizard.StepGateError
	var fe *wizard.FieldError
	var se *wizard.SubmitError
	switch {
	case errors.Is(err, wizard.ErrSessionNotFound), errors.Is(err, wizard.ErrUnknownKind):
		return http.StatusNotFound
	case errors.Is(err, wizard.ErrClosed):
		return http.StatusGone
	case errors.Is(err, wizard.ErrUnknownField),
		errors.Is(err, wizard.ErrInvalidValue),
		errors.Is(err, wizard.ErrUploadUnsupported),
		errors.Is(err, tenderedit.ErrNoTender):
		return http.StatusBadRequest
	case errors.Is(err, wizard.ErrCooldown):
		return http.StatusTooManyRequests
	case errors.As(err, &gate),
		errors.Is(err, wizard.ErrUploadPending),
		errors.Is(err, wizard.ErrUploadSuperseded),
		errors.Is(err, wizard.ErrBusy),
		errors.Is(err, wizard.ErrCompleted),
		errors.Is(err, wizard.ErrLastStep),
		errors.Is(err, wizard.ErrNotFinalStep),
		errors.Is(err, wizard.ErrNotSubmitted),
		errors.Is(err, wizard.ErrResendUnsupported):
		return http.StatusConflict
	case errors.As(err, &fe), errors.As(err, &se):
		return http.StatusUnprocessableEntity
	}
	switch status := backend.StatusOf(err); status {
	case http.StatusUnauthorized, http.StatusForbidden, http.StatusNotFound:
		return status
	}
	return fallback
}

func messageOf(err error) string {
	switch {
	case errors.Is(err, wizard.ErrSessionNotFound):
		return "This form has expired, please start again"
	case errors.Is(err, wizard.ErrUnknownKind):
		return "Unknown form"
	}
	if msg := backend.MessageOf(err); msg != "" {
		return msg
	}
	return err.Error()
}
