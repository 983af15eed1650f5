// Package votelog holds the append-only vote log every ranking is derived
// from.
package votelog

import (
	"fmt"
	"iter"
	"slices"
	"sync"
	"time"

	"github.com/okian/nameswap/internal/domain/model"
)

// Option applies a configuration option to the Log.
type Option func(*Log)

// WithClock overrides the clock used to stamp votes without a timestamp.
func WithClock(now func() time.Time) Option {
	return func(l *Log) {
		if now != nil {
			l.now = now
		}
	}
}

// Log is an append-only, insertion-ordered sequence of votes. Scopes filter
// the log; they never partition it.
type Log struct {
	mu    sync.RWMutex
	votes []model.Vote
	now   func() time.Time
}

// New creates an empty Log.
func New(opts ...Option) *Log {
	l := &Log{now: time.Now}
	for _, opt := range opts {
		opt(l)
	}
	return l
}

// Append validates v, stamps it with the current time when it carries none
// and stores it after every vote already in the log. The stored vote is
// returned.
func (l *Log) Append(v model.Vote) (model.Vote, error) {
	if v.Timestamp.IsZero() {
		v.Timestamp = l.now().UTC()
	}
	if err := Validate(v); err != nil {
		return model.Vote{}, err
	}

	l.mu.Lock()
	l.votes = append(l.votes, v)
	l.mu.Unlock()
	return v, nil
}

// Validate checks the invariants every logged vote satisfies.
func Validate(v model.Vote) error {
	switch {
	case v.VoterID == "":
		return fmt.Errorf("%w: missing voter id", ErrInvalidVote)
	case v.ItemID1 == "" || v.ItemID2 == "":
		return fmt.Errorf("%w: missing item id", ErrInvalidVote)
	case v.ItemID1 == v.ItemID2:
		return fmt.Errorf("%w: %s", ErrSameItem, v.ItemID1)
	case !v.Outcome.Valid():
		return fmt.Errorf("%w: %s", ErrInvalidVote, v.Outcome)
	case v.Timestamp.IsZero():
		return fmt.Errorf("%w: missing timestamp", ErrInvalidVote)
	}
	return nil
}

// Query returns the votes matching pred in log order. The sequence is lazy
// and restartable; each iteration observes the log as it is when the
// iteration starts.
func (l *Log) Query(pred Predicate) iter.Seq[model.Vote] {
	if pred == nil {
		pred = All()
	}
	return func(yield func(model.Vote) bool) {
		l.mu.RLock()
		votes := l.votes[:len(l.votes):len(l.votes)]
		l.mu.RUnlock()

		for _, v := range votes {
			if pred(v) && !yield(v) {
				return
			}
		}
	}
}

// Collect materialises Query(pred).
func (l *Log) Collect(pred Predicate) []model.Vote {
	return slices.Collect(l.Query(pred))
}

// Len returns the number of logged votes.
func (l *Log) Len() int {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return len(l.votes)
}

// Snapshot returns a copy of the whole log.
func (l *Log) Snapshot() []model.Vote {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return slices.Clone(l.votes)
}

// Restore replaces the log with votes loaded from storage. Nothing is
// replaced when any vote is invalid.
func (l *Log) Restore(votes []model.Vote) error {
	for i, v := range votes {
		if err := Validate(v); err != nil {
			return fmt.Errorf("vote %d: %w", i, err)
		}
	}

	l.mu.Lock()
	l.votes = slices.Clone(votes)
	l.mu.Unlock()
	return nil
}
