package wizards

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/render"

	"tenderdesk/internal/lib/api/response"
	"tenderdesk/internal/lib/sl"
)

// Stream upgrades to a websocket that receives the session's views.
func Stream(log *slog.Logger, handler Core) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		logger := requestLogger(log, r)
		s, ok := session(w, r, logger, handler)
		if !ok {
			return
		}
		if err := handler.ServeViews(w, r, s); err != nil {
			logger.Warn("view stream refused", sl.Err(err))
			render.Status(r, http.StatusServiceUnavailable)
			render.JSON(w, r, response.Error(err.Error()))
		}
	}
}
