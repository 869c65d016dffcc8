package main

import (
	"context"
	"flag"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"tenderdesk/bot"
	"tenderdesk/impl/core"
	"tenderdesk/internal/config"
	"tenderdesk/internal/database"
	"tenderdesk/internal/http-server/api"
	"tenderdesk/internal/lib/i18n"
	"tenderdesk/internal/lib/logger"
	"tenderdesk/internal/lib/sl"
	"tenderdesk/internal/service/backend"
	"tenderdesk/internal/service/upload"
	"tenderdesk/internal/ws"
	"tenderdesk/wizard"
)

func main() {

	configPath := flag.String("conf", "config.yml", "path to config file")
	logPath := flag.String("log", "/var/log/", "path to log file directory")
	flag.Parse()

	conf := config.MustLoad(*configPath)
	lg := logger.SetupLogger(conf.Env, *logPath)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// Initialize Telegram bot if enabled
	var tgBot *bot.TgBot
	if conf.Telegram.Enabled {
		var err error
		tgBot, err = bot.NewTgBot(conf.Telegram.BotName, conf.Telegram.ApiKey, conf.Telegram.AdminId, lg)
		if err != nil {
			lg.Error("failed to initialize telegram bot", sl.Err(err))
		} else {
			// Mirror errors to the admin chat
			lg = logger.SetupTelegramHandler(lg, tgBot, slog.LevelError)
			lg.With(
				slog.String("bot_name", conf.Telegram.BotName),
			).Info("telegram bot initialized")

			go func() {
				if err := tgBot.Start(); err != nil {
					lg.Warn("telegram bot error", sl.Err(err))
				}
			}()
		}
	}

	lg.Info("starting tenderdesk", slog.String("config", *configPath), slog.String("env", conf.Env))
	lg.Debug("debug messages enabled")

	var storage wizard.Storage
	db, err := repository.NewMongoClient(conf, lg)
	if err != nil {
		lg.With(
			sl.Err(err),
		).Error("mongo client")
	}
	if db != nil {
		if err = db.EnsureIndexes(ctx); err != nil {
			lg.Error("mongo indexes", sl.Err(err))
		}
		storage = wizard.NewMongoStorage(db)
		lg.With(
			slog.String("host", conf.Mongo.Host),
			slog.String("port", conf.Mongo.Port),
			slog.String("user", conf.Mongo.User),
			slog.String("database", conf.Mongo.Database),
		).Info("mongo client initialized")
	} else {
		lg.Warn("mongo disabled, wizard sessions are kept in memory")
	}

	catalog, err := i18n.Load()
	if err != nil {
		lg.Error("loading message catalogs", sl.Err(err))
	}

	manager := wizard.NewManager(storage, lg)
	manager.SetCooldown(conf.Wizard.CooldownSeconds)
	if catalog != nil {
		manager.SetTranslator(catalog)
	}

	uploader := upload.NewUploadService(conf, lg)
	if uploader.Enabled() {
		manager.SetUploader(uploader)
		lg.With(
			slog.String("cloud", conf.Upload.CloudName),
		).Info("upload service initialized")
	}

	hub := ws.NewHub(lg)
	manager.SetBroadcaster(hub)
	go hub.Run(ctx)

	client := backend.NewClient(conf, lg)
	lg.With(
		slog.String("url", conf.Backend.BaseURL),
	).Info("backend client initialized")

	handler := core.New(conf, manager, lg)
	handler.SetHub(hub)
	handler.SetAuthService(client)
	handler.SetTenderService(client)
	handler.SetAnswerService(client)
	if catalog != nil {
		handler.SetTranslator(catalog)
	}
	if db != nil {
		handler.SetRepository(db)
	}
	hub.SetHandler(handler)
	if tgBot != nil {
		tgBot.SetStatsProvider(manager)
	}

	handler.Init(ctx)

	go func() {
		<-ctx.Done()
		lg.Info("shutting down")
		manager.Shutdown()
		os.Exit(0)
	}()

	// *** blocking start with http server ***
	err = api.New(conf, lg, handler)
	if err != nil {
		lg.Error("server start", sl.Err(err))
		return
	}
	lg.Error("service stopped")
}
