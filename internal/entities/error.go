package entities

import "errors"

var (
	ErrSessionNotFound = errors.New("dashboard session not found")
	ErrUnknownMetal    = errors.New("unknown metal")
	ErrEmptyStore      = errors.New("no metal rates loaded")
	ErrRedisTimeout    = errors.New("timeout waiting for Redis message")
	ErrRedisCanceled   = errors.New("redis subscription canceled")
)
