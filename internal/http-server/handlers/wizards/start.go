package wizards

import (
	"errors"
	"io"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/render"

	"tenderdesk/internal/lib/api/response"
	"tenderdesk/internal/lib/sl"
	"tenderdesk/internal/lib/validate"
	"tenderdesk/wizard"
)

type StartRequest struct {
	Subject string `json:"subject" validate:"max=64"`
	Locale  string `json:"locale" validate:"omitempty,oneof=en ar"`
}

func (s *StartRequest) Bind(_ *http.Request) error {
	return validate.Struct(s)
}

func Start(log *slog.Logger, handler Core) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		logger := requestLogger(log, r)

		if handler == nil {
			logger.Error("wizard service not available")
			render.Status(r, http.StatusServiceUnavailable)
			render.JSON(w, r, response.Error("wizard service not available"))
			return
		}

		var req StartRequest
		if err := render.Bind(r, &req); err != nil && !errors.Is(err, io.EOF) {
			logger.Debug("bad start request", sl.Err(err))
			render.Status(r, http.StatusBadRequest)
			render.JSON(w, r, response.Error(err.Error()))
			return
		}

		kind := wizard.Kind(chi.URLParam(r, "kind"))
		s, err := handler.StartWizard(r.Context(), kind, wizard.StartParams{
			Subject: req.Subject,
			Locale:  req.Locale,
		})
		if err != nil {
			status := statusOf(err, http.StatusBadGateway)
			if status >= http.StatusInternalServerError {
				logger.Error("failed to start wizard", sl.Err(err))
			}
			render.Status(r, status)
			render.JSON(w, r, response.Error(messageOf(err)))
			return
		}

		logger.With(slog.String("session", s.ID())).Debug("wizard started")
		render.Status(r, http.StatusCreated)
		render.JSON(w, r, response.Ok(s.View()))
	}
}

func Get(log *slog.Logger, handler Core) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		logger := requestLogger(log, r)
		s, ok := session(w, r, logger, handler)
		if !ok {
			return
		}
		render.JSON(w, r, response.Ok(s.View()))
	}
}

func Close(log *slog.Logger, handler Core) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		logger := requestLogger(log, r)

		if handler == nil {
			render.Status(r, http.StatusServiceUnavailable)
			render.JSON(w, r, response.Error("wizard service not available"))
			return
		}

		kind := wizard.Kind(chi.URLParam(r, "kind"))
		if err := handler.CloseWizard(r.Context(), kind, chi.URLParam(r, "id")); err != nil {
			status := statusOf(err, http.StatusInternalServerError)
			if status >= http.StatusInternalServerError {
				logger.Error("failed to close wizard", sl.Err(err))
			}
			render.Status(r, status)
			render.JSON(w, r, response.Error(messageOf(err)))
			return
		}
		render.JSON(w, r, response.Ok(nil))
	}
}
