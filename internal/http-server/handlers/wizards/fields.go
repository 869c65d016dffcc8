package wizards

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/render"

	"tenderdesk/internal/lib/api/response"
	"tenderdesk/internal/lib/sl"
	"tenderdesk/internal/lib/validate"
)

type FieldRequest struct {
	Field string `json:"field" validate:"required,max=64"`
	Value any    `json:"value"`
}

func (f *FieldRequest) Bind(_ *http.Request) error {
	return validate.Struct(f)
}

func SetField(log *slog.Logger, handler Core) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		logger := requestLogger(log, r)
		s, ok := session(w, r, logger, handler)
		if !ok {
			return
		}

		var req FieldRequest
		if err := render.Bind(r, &req); err != nil {
			logger.Debug("bad field request", sl.Err(err))
			render.Status(r, http.StatusBadRequest)
			render.JSON(w, r, response.Error(err.Error()))
			return
		}

		reply(w, r, logger, s, s.SetField(req.Field, req.Value), http.StatusBadRequest)
	}
}

func Blur(log *slog.Logger, handler Core) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		logger := requestLogger(log, r)
		s, ok := session(w, r, logger, handler)
		if !ok {
			return
		}

		var req FieldRequest
		if err := render.Bind(r, &req); err != nil {
			render.Status(r, http.StatusBadRequest)
			render.JSON(w, r, response.Error(err.Error()))
			return
		}

		reply(w, r, logger, s, s.Blur(req.Field), http.StatusBadRequest)
	}
}
