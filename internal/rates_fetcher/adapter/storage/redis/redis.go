package redis

import (
	"context"
	"github.com/pkg/errors"
	"github.com/redis/go-redis/v9"
	"log/slog"
)

type Storage struct {
	rdb     *redis.Client
	channel string
}

func NewStorage(client *redis.Client, channel string) *Storage {
	return &Storage{
		rdb:     client,
		channel: channel,
	}
}

func InitStorage(ctx context.Context, options *redis.Options, channel string) (*Storage, error) {
	const op = "storage.redis.InitStorage"

	redisClient := redis.NewClient(options)

	if _, err := redisClient.Ping(ctx).Result(); err != nil {
		return nil, errors.Wrap(err, op)
	}

	return NewStorage(redisClient, channel), nil
}

// PublishUpdated announces new rates; payload is the last stored date.
func (s *Storage) PublishUpdated(ctx context.Context, payload string) error {
	const op = "storage.redis.PublishUpdated"

	receivers, err := s.rdb.Publish(ctx, s.channel, payload).Result()
	if err != nil {
		return errors.Wrap(err, op)
	}

	slog.Debug("Published update", "channel", s.channel, "payload", payload, "receivers", receivers)

	return nil
}

func (s *Storage) Close() error {
	return s.rdb.Close()
}
