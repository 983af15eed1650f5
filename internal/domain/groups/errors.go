package groups

import "errors"

// Sentinel kinds for group membership errors. None of them leave the store
// modified.
var (
	ErrInvalidGroup  = errors.New("invalid group")
	ErrGroupNotFound = errors.New("group not found")
	ErrAlreadyMember = errors.New("already a member")
	ErrNotAuthorized = errors.New("not authorized")
	ErrNotMember     = errors.New("not a member")
)
