package answer

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/render"

	"tenderdesk/entity"
	"tenderdesk/impl/core"
	"tenderdesk/internal/lib/api/response"
	"tenderdesk/internal/lib/sl"
	"tenderdesk/internal/service/backend"
)

func Post(log *slog.Logger, handler Core) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		question := chi.URLParam(r, "question")
		logger := log.With(
			sl.Module("http.handlers.answer"),
			slog.String("request_id", middleware.GetReqID(r.Context())),
			slog.String("question", question),
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

		check, err := handler.PostAnswer(r.Context(), question, req)
		switch {
		case err == nil:
			logger.Debug("answer posted")
			render.Status(r, http.StatusCreated)
			render.JSON(w, r, response.Ok(check))
		case errors.Is(err, core.ErrAnswerBlocked):
			render.Status(r, http.StatusUnprocessableEntity)
			render.JSON(w, r, response.Fail(check.Message, check))
		case errors.Is(err, core.ErrAnswerEmpty):
			render.Status(r, http.StatusBadRequest)
			render.JSON(w, r, response.Error("Answer is empty"))
		case errors.Is(err, core.ErrServiceUnavailable):
			render.Status(r, http.StatusServiceUnavailable)
			render.JSON(w, r, response.Error("answer service not available"))
		default:
			status := backend.StatusOf(err)
			if status < http.StatusBadRequest || status >= http.StatusInternalServerError {
				logger.Error("failed to post answer", sl.Err(err))
				status = http.StatusBadGateway
			}
			message := backend.MessageOf(err)
			if message == "" {
				message = "Failed to post answer"
			}
			render.Status(r, status)
			render.JSON(w, r, response.Error(message))
		}
	}
}
