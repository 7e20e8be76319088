package domain

import "errors"

var (
	ErrNotFound     = errors.New("not found")
	ErrRateLimited  = errors.New("rate limited")
	ErrUnauthorized = errors.New("unauthorized")
	ErrSiteFetch    = errors.New("site fetch failed")
	ErrLockHeld     = errors.New("lock already held")
	ErrNoAPIKey     = errors.New("api key not configured")
	ErrEmptyIndex   = errors.New("search index is empty")
)
