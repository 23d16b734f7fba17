package main

import (
	"context"
	"github.com/langowen/metals/deploy/config"
	fetcherApp "github.com/langowen/metals/internal/rates_fetcher/app"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
)

func main() {
	cfg := config.NewConfig()

	ctx, cancel := context.WithCancel(context.Background())

	app := fetcherApp.NewFetcherApp(cfg)
	fetcherDone := app.Start(ctx)

	done := make(chan os.Signal, 1)

	signal.Notify(done, os.Interrupt, syscall.SIGINT, syscall.SIGTERM)

	<-done
	slog.Info("Gracefully shutting down")

	cancel()
	slog.Info("stopping fetcher")

	<-fetcherDone
	slog.Info("fetcher stopped")
}
