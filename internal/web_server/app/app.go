package app

import (
	"context"
	"github.com/langowen/metals/deploy/config"
	"github.com/langowen/metals/internal/web_server/adapter/storage/postgres"
	"github.com/langowen/metals/internal/web_server/adapter/storage/redis"
	"github.com/langowen/metals/internal/web_server/adapter/storage/sqlite"
	"github.com/langowen/metals/internal/web_server/ports/http/public"
	"github.com/langowen/metals/internal/web_server/service"
	"github.com/prometheus/client_golang/prometheus"
	redisPack "github.com/redis/go-redis/v9"
	"log"
	"log/slog"
	"os"
)

type WebApp struct {
	cfg *config.Config
}

func NewWebApp(cfg *config.Config) *WebApp {
	return &WebApp{cfg: cfg}
}

func (a *WebApp) Start(ctx context.Context) <-chan struct{} {
	a.initLogger()
	slog.Info("Logger initialized")

	slog.With("config", a.cfg.String()).Info("starting server")

	storage := a.initDatabase(ctx)
	slog.Info("Storage initialized", "driver", a.cfg.Storage.Driver)

	webService := a.initService(ctx, storage)
	slog.Info("Service initialized")

	a.startListener(ctx, webService)

	serverDone := public.StartServer(ctx, webService, a.cfg)
	slog.Info("server started", "port", a.cfg.HTTPServer.Port)

	return serverDone
}

func (a *WebApp) initLogger() {
	logger := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{
		Level:     slog.LevelDebug,
		AddSource: false,
	}))
	slog.SetDefault(logger)
}

func (a *WebApp) initDatabase(ctx context.Context) service.Storage {
	if a.cfg.Storage.Driver == config.DriverSQLite {
		storage, err := sqlite.New(ctx, a.cfg.Storage.SQLitePath)
		if err != nil {
			log.Fatalln("Failed to initialize SQLite storage", "error", err)
		}
		return storage
	}

	storage, err := postgres.New(ctx, a.cfg)
	if err != nil {
		log.Fatalln("Failed to initialize PostgresSQL storage", "error", err)
	}
	return storage
}

func (a *WebApp) initService(ctx context.Context, storage service.Storage) *service.Service {
	webService, err := service.NewService(ctx, storage, a.cfg.Dashboard, prometheus.DefaultRegisterer)
	if err != nil {
		log.Fatalln("Failed to initialize service", "error", err)
	}

	return webService
}

// startListener reloads the store on fetcher announcements. Without a Redis host the
// store is only loaded at startup.
func (a *WebApp) startListener(ctx context.Context, webService *service.Service) {
	if a.cfg.Redis.Host == "" {
		slog.Warn("Redis host is not set, rate updates will not be picked up until restart")
		return
	}

	options := &redisPack.Options{
		Addr:     a.cfg.Redis.Host,
		Password: a.cfg.Redis.Password,
		DB:       a.cfg.Redis.DB,
	}

	rdStorage, err := redis.InitStorage(ctx, options, a.cfg.Redis.Channel)
	if err != nil {
		log.Fatalln("Failed to initialize Redis storage", "error", err)
	}
	slog.Info("Redis client initialized")

	go func() {
		defer rdStorage.Close()
		webService.WatchUpdates(ctx, rdStorage)
	}()
}
