package app

import (
	"context"
	"github.com/langowen/metals/deploy/config"
	"github.com/langowen/metals/internal/rates_fetcher/adapter/api_client/cbr"
	"github.com/langowen/metals/internal/rates_fetcher/adapter/storage/postgres"
	"github.com/langowen/metals/internal/rates_fetcher/adapter/storage/redis"
	"github.com/langowen/metals/internal/rates_fetcher/adapter/storage/sqlite"
	"github.com/langowen/metals/internal/rates_fetcher/fetcher"
	redisPack "github.com/redis/go-redis/v9"
	"log"
	"log/slog"
	"os"
)

type FetcherApp struct {
	cfg *config.Config
}

func NewFetcherApp(cfg *config.Config) *FetcherApp {
	return &FetcherApp{cfg: cfg}
}

// Start runs the fetcher in the background; the returned channel is closed once it has
// stopped after ctx is done.
func (a *FetcherApp) Start(ctx context.Context) <-chan struct{} {
	a.initLogger()
	slog.Info("Logger initialized")

	slog.With("config", a.cfg.String()).Info("starting application")

	storage := a.initDatabase(ctx)
	slog.Info("Storage initialized", "driver", a.cfg.Storage.Driver)

	httpClient := a.initHTTPClient()
	slog.Info("HTTP client initialized")

	rdStorage := a.initRedis(ctx)

	fetch := fetcher.NewFetcher(storage, httpClient, rdStorage, a.cfg.Fetcher)

	done := make(chan struct{})
	go func() {
		defer close(done)

		if err := fetch.StartFetcher(ctx); err != nil && ctx.Err() == nil {
			log.Fatalln("Failed to start fetcher", "error", err)
		}
	}()

	return done
}

func (a *FetcherApp) initLogger() {
	logger := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{
		Level:     slog.LevelDebug,
		AddSource: false,
	}))
	slog.SetDefault(logger)
}

func (a *FetcherApp) initDatabase(ctx context.Context) fetcher.Storage {
	if a.cfg.Storage.Driver == config.DriverSQLite {
		storage, err := sqlite.New(ctx, a.cfg.Storage.SQLitePath)
		if err != nil {
			log.Fatalln("Failed to initialize SQLite storage", "error", err)
		}
		return storage
	}

	storage, err := postgres.InitStorage(ctx, a.cfg.Storage.DSN(), a.cfg.Storage.Timeout)
	if err != nil {
		log.Fatalln("Failed to initialize PostgresSQL storage", "error", err)
	}
	return storage
}

func (a *FetcherApp) initHTTPClient() *cbr.HTTPClient {
	return cbr.NewHTTPClient(a.cfg.Fetcher.URL, a.cfg.Fetcher.Cookies)
}

// initRedis returns nil when no Redis host is configured.
func (a *FetcherApp) initRedis(ctx context.Context) fetcher.RedisStorage {
	if a.cfg.Redis.Host == "" {
		slog.Warn("Redis host is not set, updates will not be announced")
		return nil
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

	return rdStorage
}
