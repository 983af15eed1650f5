package scope

import (
	"context"
	"iter"
	"slices"
	"time"

	"github.com/okian/nameswap/internal/domain/model"
	"github.com/okian/nameswap/internal/domain/rating"
	"github.com/okian/nameswap/internal/domain/replay"
	"github.com/okian/nameswap/internal/domain/votelog"
)

// DefaultFallbackLimit is how many global entries an empty scope falls back to.
const DefaultFallbackLimit = 100

// Board is the live rating index.
type Board interface {
	// Ranked returns the live items of c sorted by rating, highest first,
	// ties in universe order.
	Ranked(ctx context.Context, c model.Category) ([]model.Item, error)
	// Universe returns the items of c in universe order.
	Universe(ctx context.Context, c model.Category) ([]model.Item, error)
}

// Votes is the vote source scoped boards are replayed from.
type Votes interface {
	Query(pred votelog.Predicate) iter.Seq[model.Vote]
}

// Ranking is a resolved board.
type Ranking struct {
	Items []model.Item
	// Fallback is set when the scope had no votes and the global board was
	// returned instead.
	Fallback bool
	Applied  int
	Skipped  int
}

// Option applies a configuration option to the Resolver.
type Option func(*Resolver)

// WithBaseline sets the rating scoped replays start from.
func WithBaseline(b float64) Option {
	return func(r *Resolver) {
		r.baseline = b
	}
}

// WithFallbackLimit caps the global board returned for empty scopes.
func WithFallbackLimit(n int) Option {
	return func(r *Resolver) {
		if n > 0 {
			r.fallbackLimit = n
		}
	}
}

// WithObserver registers a callback invoked after every scoped replay.
func WithObserver(fn func(k Kind, res replay.Result, took time.Duration)) Option {
	return func(r *Resolver) {
		r.observe = fn
	}
}

// Resolver turns a scope into a ranked list of items.
type Resolver struct {
	board         Board
	votes         Votes
	baseline      float64
	fallbackLimit int
	observe       func(k Kind, res replay.Result, took time.Duration)
}

// NewResolver creates a Resolver reading live ratings from board and scoped
// votes from votes.
func NewResolver(board Board, votes Votes, opts ...Option) *Resolver {
	r := &Resolver{
		board:         board,
		votes:         votes,
		baseline:      rating.DefaultBaseline,
		fallbackLimit: DefaultFallbackLimit,
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// RankingsFor returns the items of c ranked within s.
func (r *Resolver) RankingsFor(ctx context.Context, s Scope, c model.Category) ([]model.Item, error) {
	res, err := r.Resolve(ctx, s, c)
	if err != nil {
		return nil, err
	}
	return res.Items, nil
}

// Resolve is RankingsFor with replay details.
func (r *Resolver) Resolve(ctx context.Context, s Scope, c model.Category) (Ranking, error) {
	if !c.Valid() {
		return Ranking{}, model.ErrUnknownCategory
	}

	var pred votelog.Predicate
	switch s.Kind {
	case KindGlobal:
		items, err := r.board.Ranked(ctx, c)
		if err != nil {
			return Ranking{}, err
		}
		return Ranking{Items: items}, nil
	case KindUser:
		pred = votelog.And(votelog.ByVoter(s.ID), votelog.Unscoped())
	case KindGroup:
		pred = votelog.ByScope(s.ID)
	default:
		return Ranking{}, ErrInvalidScope
	}

	votes := slices.Collect(r.votes.Query(pred))
	if len(votes) == 0 {
		return r.fallback(ctx, c)
	}

	universe, err := r.board.Universe(ctx, c)
	if err != nil {
		return Ranking{}, err
	}

	start := time.Now()
	res := replay.Run(universe, votes, r.baseline)
	items := replay.Apply(universe, res.Ratings)
	replay.SortByRating(items)
	if r.observe != nil {
		r.observe(s.Kind, res, time.Since(start))
	}

	return Ranking{Items: items, Applied: res.Applied, Skipped: res.Skipped}, nil
}

func (r *Resolver) fallback(ctx context.Context, c model.Category) (Ranking, error) {
	items, err := r.board.Ranked(ctx, c)
	if err != nil {
		return Ranking{}, err
	}
	if len(items) > r.fallbackLimit {
		items = items[:r.fallbackLimit]
	}
	return Ranking{Items: items, Fallback: true}, nil
}
