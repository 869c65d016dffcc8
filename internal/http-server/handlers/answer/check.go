package answer

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/render"

	"tenderdesk/entity"
	"tenderdesk/internal/lib/api/response"
	"tenderdesk/internal/lib/sl"
)

// Check reports contact details found in an answer draft without posting it.
func Check(log *slog.Logger, handler Core) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		logger := log.With(
			sl.Module("http.handlers.answer"),
			slog.String("request_id", middleware.GetReqID(r.Context())),
		)

		if handler == nil {
			logger.Error("answer service not available")
			render.Status(r, http.StatusServiceUnavailable)
			render.JSON(w, r, response.Error("answer service not available"))
			return
		}

		var req entity.Answer
		if err := render.Bind(r, &req); err != nil {
			logger.Debug("bad answer request", sl.Err(err))
			render.Status(r, http.StatusBadRequest)
			render.JSON(w, r, response.Error(err.Error()))
			return
		}

		render.JSON(w, r, response.Ok(handler.CheckAnswer(r.Context(), req.Body)))
	}
}
