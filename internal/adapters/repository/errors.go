package repository

import "errors"

var (
	// ErrNotFound is returned for an item id outside the loaded universe.
	ErrNotFound = errors.New("repository: unknown item")
	// ErrInvalidLimit is returned by TopN for limits below one.
	ErrInvalidLimit = errors.New("repository: limit must be positive")
	// ErrDuplicateID is returned by Load when two items share an id.
	ErrDuplicateID = errors.New("repository: duplicate item id")
)
