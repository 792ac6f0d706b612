package domain

import "errors"

// Common errors
var (
	ErrNotFound        = errors.New("record not found")
	ErrVersionConflict = errors.New("record was modified concurrently")
	ErrForbidden       = errors.New("access forbidden: you don't own this resource")
	ErrCacheMiss       = errors.New("cache miss")
)
