package fetcher

import (
	"context"
	"github.com/langowen/metals/deploy/config"
	"github.com/langowen/metals/internal/entities"
	"github.com/pkg/errors"
	"github.com/robfig/cron/v3"
	"log/slog"
	"time"
)

type Fetcher struct {
	storage    Storage
	httpClient HTTPClient
	redis      RedisStorage
	config     config.Fetcher
	now        func() time.Time
}

// NewFetcher builds a fetcher. redis may be nil, then updates are not announced.
func NewFetcher(storage Storage, client HTTPClient, redis RedisStorage, cfg config.Fetcher) *Fetcher {
	return &Fetcher{
		storage:    storage,
		httpClient: client,
		redis:      redis,
		config:     cfg,
		now:        time.Now,
	}
}

// StartFetcher runs the fetch on the configured cron schedule until ctx is done. A run
// that is still going when the next one is due makes the next one skip.
func (f *Fetcher) StartFetcher(ctx context.Context) error {
	const op = "fetcher.StartFetcher"

	logger := cron.PrintfLogger(slog.NewLogLogger(slog.Default().Handler(), slog.LevelInfo))

	job := cron.NewChain(
		cron.Recover(logger),
		cron.SkipIfStillRunning(logger),
	).Then(cron.FuncJob(func() {
		if _, err := f.Run(ctx); err != nil {
			slog.Error("Ошибка при обновлении курсов металлов", "op", op, "error", err)
		}
	}))

	c := cron.New(cron.WithLogger(logger))
	if _, err := c.AddJob(f.config.Schedule, job); err != nil {
		return errors.Wrap(err, op)
	}

	if f.config.RunOnStart {
		go job.Run()
	}

	c.Start()
	slog.Info("fetcher scheduled", "schedule", f.config.Schedule)

	<-ctx.Done()
	<-c.Stop().Done()

	return errors.Wrap(ctx.Err(), op)
}

// Run fetches every month window from the last stored date up to now and stores the
// missing dates. A failed window stops the run; it is retried on the next one.
func (f *Fetcher) Run(ctx context.Context) (int, error) {
	const op = "fetcher.Run"

	start, err := f.startDate(ctx)
	if err != nil {
		return 0, errors.Wrap(err, op)
	}
	slog.Info("Поиск курсов", "from", start.Format(entities.DateKeyFormat))

	before, err := f.storage.Count(ctx)
	if err != nil {
		return 0, errors.Wrap(err, op)
	}

	for i, w := range PairDates(start, f.now()) {
		if i > 0 {
			if err := sleep(ctx, f.config.RequestDelay); err != nil {
				return 0, errors.Wrap(err, op)
			}
		}

		if err := f.fetchWindow(ctx, w); err != nil {
			return 0, errors.Wrap(err, op)
		}
	}

	after, err := f.storage.Count(ctx)
	if err != nil {
		return 0, errors.Wrap(err, op)
	}

	added := after - before
	if added == 0 {
		slog.Info("Новых записей нет")
		return 0, nil
	}
	slog.Info("Добавлено записей", "count", added)

	if err := f.announce(ctx); err != nil {
		slog.Error("Failed to announce update", "op", op, "error", err)
	}

	return added, nil
}

func (f *Fetcher) fetchWindow(ctx context.Context, w Window) error {
	const op = "fetcher.fetchWindow"

	from, to := w.From.Format(entities.DateKeyFormat), w.To.Format(entities.DateKeyFormat)
	slog.Debug("Поиск за период", "from", from, "to", to)

	reqCtx := ctx
	if f.config.Timeout > 0 {
		var cancel context.CancelFunc
		reqCtx, cancel = context.WithTimeout(ctx, f.config.Timeout)
		defer cancel()
	}

	rates, err := f.httpClient.FetchRates(reqCtx, w.From, w.To)
	if err != nil {
		return errors.Wrapf(err, "%s: %s..%s", op, from, to)
	}

	added, err := f.storage.SaveRates(ctx, rates)
	if err != nil {
		return errors.Wrap(err, op)
	}

	slog.Info("Найдено записей", "from", from, "to", to, "found", len(rates), "added", added)

	return nil
}

func (f *Fetcher) startDate(ctx context.Context) (time.Time, error) {
	last, ok, err := f.storage.LastDate(ctx)
	if err != nil {
		return time.Time{}, err
	}
	if ok {
		return last, nil
	}
	return f.config.Start()
}

func (f *Fetcher) announce(ctx context.Context) error {
	if f.redis == nil {
		return nil
	}

	last, ok, err := f.storage.LastDate(ctx)
	if err != nil || !ok {
		return err
	}

	return f.redis.PublishUpdated(ctx, last.Format(entities.DateKeyFormat))
}

func sleep(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return nil
	}

	t := time.NewTimer(d)
	defer t.Stop()

	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}
