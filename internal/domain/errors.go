package domain

import "errors"

var (
	ErrNotFound        = errors.New("not found")
	ErrCacheMiss       = errors.New("cache miss")
	ErrInvalidSnapshot = errors.New("invalid price snapshot")
	ErrInvalidPair     = errors.New("invalid pair string")
	ErrNoPrice         = errors.New("no usd price available")
	ErrEmptyCycle      = errors.New("empty cycle")
	ErrWSDisconnect    = errors.New("websocket disconnected")
	ErrContextDone     = errors.New("context cancelled")
	ErrLockHeld        = errors.New("lock already held")
)
