package service

import "errors"

// Sentinel kinds for engine errors.
var (
	ErrNotStarted          = errors.New("service not started")
	ErrUnknownItem         = errors.New("unknown item")
	ErrCategoryMismatch    = errors.New("items belong to different categories")
	ErrDuplicateSubmission = errors.New("duplicate submission")
)
