package config

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/render"

	"tenderdesk/internal/lib/api/response"
)

// Get serves the public client settings.
func Get(_ *slog.Logger, handler Core) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if handler == nil {
			render.Status(r, http.StatusServiceUnavailable)
			render.JSON(w, r, response.Error("config not available"))
			return
		}
		render.JSON(w, r, response.Ok(handler.Config()))
	}
}
