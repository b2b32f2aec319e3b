package domain

import "errors"

var (
	ErrNotFound      = errors.New("not found")
	ErrRateLimited   = errors.New("rate limited")
	ErrUnauthorized  = errors.New("unauthorized")
	ErrInvalidOrder  = errors.New("invalid order parameters")
	ErrSigningFailed = errors.New("signing failed")
	ErrNoSigningKey  = errors.New("no signing key configured")
	ErrMissingConfig = errors.New("missing required configuration")
	ErrWSDisconnect  = errors.New("websocket disconnected")
	ErrNoLiveBook    = errors.New("no book event received")
)
