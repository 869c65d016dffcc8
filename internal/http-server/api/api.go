package api

import (
	"fmt"
	"log/slog"
	"net"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/render"

	"tenderdesk/internal/config"
	"tenderdesk/internal/http-server/handlers/answer"
	publicconfig "tenderdesk/internal/http-server/handlers/config"
	"tenderdesk/internal/http-server/handlers/errors"
	"tenderdesk/internal/http-server/handlers/prefs"
	"tenderdesk/internal/http-server/handlers/wizards"
	"tenderdesk/internal/http-server/middleware/authenticate"
	"tenderdesk/internal/http-server/middleware/timeout"
	"tenderdesk/internal/lib/i18n"
	"tenderdesk/internal/lib/sl"
	"tenderdesk/wizard/wizards/tenderedit"
)

type Server struct {
	conf       *config.Config
	httpServer *http.Server
	log        *slog.Logger
}

type Handler interface {
	wizards.Core
	answer.Core
	prefs.Core
	publicconfig.Core
}

// NewRouter builds the API routes.
func NewRouter(conf *config.Config, log *slog.Logger, handler Handler) http.Handler {
	router := chi.NewRouter()
	router.Use(timeout.Timeout(conf.Listen.Timeout))
	router.Use(middleware.RequestID)
	router.Use(middleware.Recoverer)
	router.Use(render.SetContentType(render.ContentTypeJSON))
	router.Use(authenticate.New(log, i18n.DefaultLocale, "ar"))

	router.NotFound(errors.NotFound(log))
	router.MethodNotAllowed(errors.NotAllowed(log))

	router.Route("/api/v1", func(v1 chi.Router) {
		v1.Get("/config", publicconfig.Get(log, handler))

		v1.Route("/wizards/{kind}", func(r chi.Router) {
			r.Use(authenticate.RequireFor(string(tenderedit.Kind)))
			r.Post("/", wizards.Start(log, handler))
			r.Route("/{id}", func(r chi.Router) {
				r.Get("/", wizards.Get(log, handler))
				r.Delete("/", wizards.Close(log, handler))
				r.Put("/fields", wizards.SetField(log, handler))
				r.Post("/blur", wizards.Blur(log, handler))
				r.Post("/next", wizards.Next(log, handler))
				r.Post("/back", wizards.Back(log, handler))
				r.Post("/submit", wizards.Submit(log, handler))
				r.Post("/resend", wizards.Resend(log, handler))
				r.Post("/upload", wizards.Upload(log, handler, conf.Upload.MaxSize))
				r.Get("/ws", wizards.Stream(log, handler))
			})
		})

		v1.Route("/answers", func(r chi.Router) {
			r.Use(authenticate.Require)
			r.Post("/check", answer.Check(log, handler))
			r.Post("/{question}", answer.Post(log, handler))
		})

		v1.Route("/prefs", func(r chi.Router) {
			r.Use(authenticate.Require)
			r.Get("/{key}", prefs.Get(log, handler))
			r.Put("/{key}", prefs.Set(log, handler))
		})
	})

	return router
}

func New(conf *config.Config, log *slog.Logger, handler Handler) error {

	server := Server{
		conf: conf,
		log:  log.With(sl.Module("api.server")),
	}

	httpLog := slog.NewLogLogger(log.Handler(), slog.LevelError)
	server.httpServer = &http.Server{
		Handler:  NewRouter(conf, log, handler),
		ErrorLog: httpLog,
	}

	serverAddress := fmt.Sprintf("%s:%s", conf.Listen.BindIP, conf.Listen.Port)
	listener, err := net.Listen("tcp", serverAddress)
	if err != nil {
		return err
	}

	server.log.Info("starting api server", slog.String("address", serverAddress))

	return server.httpServer.Serve(listener)
}
