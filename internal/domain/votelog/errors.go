package votelog

import "errors"

// Sentinel kinds for vote log errors.
var (
	ErrInvalidVote = errors.New("invalid vote")
	ErrSameItem    = errors.New("vote compares an item with itself")
)
