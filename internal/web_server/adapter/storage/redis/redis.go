package redis

import (
	"context"
	"github.com/langowen/metals/internal/entities"
	"github.com/pkg/errors"
	"github.com/redis/go-redis/v9"
	"log/slog"
	"net"
	"sync"
)

type Storage struct {
	rdb     *redis.Client
	channel string

	once   sync.Once
	pubsub *redis.PubSub
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

// ListenUpdates waits for the next rates update announcement. The subscription is made
// on the first call and kept for the following ones.
func (s *Storage) ListenUpdates(ctx context.Context) (string, error) {
	const op = "storage.redis.ListenUpdates"

	s.once.Do(func() {
		s.pubsub = s.rdb.Subscribe(ctx, s.channel)
	})

	msg, err := s.pubsub.ReceiveMessage(ctx)
	if err != nil {
		var netErr net.Error
		if errors.As(err, &netErr) {
			if netErr.Timeout() {
				return "", entities.ErrRedisTimeout
			}
			return "", entities.ErrRedisCanceled
		}
		if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
			return "", entities.ErrRedisCanceled
		}
		return "", errors.Wrap(err, op)
	}

	slog.Debug("Received message", "channel", msg.Channel, "payload", msg.Payload)

	return msg.Payload, nil
}

func (s *Storage) Close() error {
	if s.pubsub != nil {
		_ = s.pubsub.Close()
	}
	return s.rdb.Close()
}
