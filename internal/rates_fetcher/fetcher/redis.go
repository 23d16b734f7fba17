package fetcher

import "context"

type RedisStorage interface {
	PublishUpdated(ctx context.Context, payload string) error
}
