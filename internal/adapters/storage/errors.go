package storage

import "errors"

// Sentinel kinds for storage errors.
var (
	ErrNotFound          = errors.New("key not found")
	ErrSchemaVersion     = errors.New("unsupported schema version")
	ErrUnsupportedDriver = errors.New("unsupported storage driver")
	ErrClosed            = errors.New("store closed")
)
