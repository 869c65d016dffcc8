package prefs

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/render"

	"tenderdesk/impl/core"
	"tenderdesk/internal/lib/api/response"
	"tenderdesk/internal/lib/sl"
	"tenderdesk/internal/lib/validate"
)

const keyTag = "required,max=64,printascii"

type Pref struct {
	Key   string `json:"key"`
	Value bool   `json:"value"`
}

type SetRequest struct {
	Value *bool `json:"value" validate:"required"`
}

func (s *SetRequest) Bind(_ *http.Request) error {
	return validate.Struct(s)
}

func Get(log *slog.Logger, handler Core) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		key := chi.URLParam(r, "key")
		logger := log.With(
			sl.Module("http.handlers.prefs"),
			slog.String("request_id", middleware.GetReqID(r.Context())),
			slog.String("key", key),
		)

		if handler == nil {
			render.Status(r, http.StatusServiceUnavailable)
			render.JSON(w, r, response.Error("preferences not available"))
			return
		}
		if err := validate.Var(key, keyTag); err != nil {
			render.Status(r, http.StatusBadRequest)
			render.JSON(w, r, response.Error("Invalid preference key"))
			return
		}

		value, err := handler.GetPref(r.Context(), key)
		if errors.Is(err, core.ErrNoOwner) {
			render.Status(r, http.StatusUnauthorized)
			render.JSON(w, r, response.Error("Sign in to use preferences"))
			return
		}
		if err != nil {
			logger.Error("failed to read preference", sl.Err(err))
			render.Status(r, http.StatusInternalServerError)
			render.JSON(w, r, response.Error("Failed to read preference"))
			return
		}
		render.JSON(w, r, response.Ok(Pref{Key: key, Value: value}))
	}
}

func Set(log *slog.Logger, handler Core) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		key := chi.URLParam(r, "key")
		logger := log.With(
			sl.Module("http.handlers.prefs"),
			slog.String("request_id", middleware.GetReqID(r.Context())),
			slog.String("key", key),
		)

		if handler == nil {
			render.Status(r, http.StatusServiceUnavailable)
			render.JSON(w, r, response.Error("preferences not available"))
			return
		}
		if err := validate.Var(key, keyTag); err != nil {
			render.Status(r, http.StatusBadRequest)
			render.JSON(w, r, response.Error("Invalid preference key"))
			return
		}

		var req SetRequest
		if err := render.Bind(r, &req); err != nil {
			render.Status(r, http.StatusBadRequest)
			render.JSON(w, r, response.Error(err.Error()))
			return
		}

		err := handler.SetPref(r.Context(), key, *req.Value)
		if errors.Is(err, core.ErrNoOwner) {
			render.Status(r, http.StatusUnauthorized)
			render.JSON(w, r, response.Error("Sign in to use preferences"))
			return
		}
		if err != nil {
			logger.Error("failed to save preference", sl.Err(err))
			render.Status(r, http.StatusInternalServerError)
			render.JSON(w, r, response.Error("Failed to save preference"))
			return
		}
		logger.Debug("preference saved", slog.Bool("value", *req.Value))
		render.JSON(w, r, response.Ok(Pref{Key: key, Value: *req.Value}))
	}
}
