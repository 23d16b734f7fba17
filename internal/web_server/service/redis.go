package service

import "context"

// UpdateListener blocks until the fetcher announces new rates and returns the payload.
type UpdateListener interface {
	ListenUpdates(ctx context.Context) (string, error)
}
