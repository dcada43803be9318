package core

import "errors"

// Common errors.
var (
	ErrNotFound     = errors.New("key not found")
	ErrReadOnly     = errors.New("storage is in read-only mode")
	ErrInvalidKey   = errors.New("invalid storage key")
	ErrInvalidColor = errors.New("invalid hex color")
)
