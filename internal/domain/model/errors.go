package model

import "errors"

// Sentinel kinds for model parsing errors.
var (
	ErrUnknownCategory = errors.New("unknown category")
	ErrUnknownOutcome  = errors.New("unknown outcome")
)
