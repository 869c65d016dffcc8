package wizards

import (
	"log/slog"
	"net/http"
)

func Next(log *slog.Logger, handler Core) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		logger := requestLogger(log, r)
		s, ok := session(w, r, logger, handler)
		if !ok {
			return
		}
		reply(w, r, logger, s, s.Next(), http.StatusConflict)
	}
}

func Back(log *slog.Logger, handler Core) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		logger := requestLogger(log, r)
		s, ok := session(w, r, logger, handler)
		if !ok {
			return
		}
		reply(w, r, logger, s, s.Back(), http.StatusConflict)
	}
}

// Submit runs the wizard's external call. A rejected call still answers
// with the view, which carries the field and general errors to show.
func Submit(log *slog.Logger, handler Core) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		logger := requestLogger(log, r)
		s, ok := session(w, r, logger, handler)
		if !ok {
			return
		}
		reply(w, r, logger, s, s.Submit(r.Context()), http.StatusBadGateway)
	}
}

func Resend(log *slog.Logger, handler Core) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		logger := requestLogger(log, r)
		s, ok := session(w, r, logger, handler)
		if !ok {
			return
		}
		reply(w, r, logger, s, s.Resend(r.Context()), http.StatusBadGateway)
	}
}
