// Package replay recomputes ratings from scratch by applying an ordered vote
// sequence to a fixed baseline.
//
// Replay is the single algorithm behind the global recompute on load and every
// scoped board. Callers choose the votes and the item universe; replay never
// touches live ratings.
package replay

import (
	"cmp"
	"slices"

	"github.com/okian/nameswap/internal/domain/model"
	"github.com/okian/nameswap/internal/domain/rating"
)

// Result is the outcome of a replay run.
type Result struct {
	// Ratings maps every item id of the universe to its replayed rating.
	Ratings map[string]float64
	// Applied counts votes whose two items were both in the universe.
	Applied int
	// Skipped counts votes referencing at least one item outside the universe.
	Skipped int
}

// Replay returns the ratings obtained by applying votes in chronological order
// to items that all start at baseline.
func Replay(items []model.Item, votes []model.Vote, baseline float64) map[string]float64 {
	return Run(items, votes, baseline).Ratings
}

// Run is Replay with counters. Votes that reference unknown items are skipped
// silently; they are stale data from a different universe, not errors.
func Run(items []model.Item, votes []model.Vote, baseline float64) Result {
	res := Result{Ratings: make(map[string]float64, len(items))}
	for _, it := range items {
		res.Ratings[it.ID] = baseline
	}

	for _, v := range Chronological(votes) {
		a, okA := res.Ratings[v.ItemID1]
		b, okB := res.Ratings[v.ItemID2]
		if !okA || !okB || v.ItemID1 == v.ItemID2 {
			res.Skipped++
			continue
		}
		res.Ratings[v.ItemID1], res.Ratings[v.ItemID2] = rating.Rate(a, b, v.Outcome)
		res.Applied++
	}
	return res
}

// Chronological returns a copy of votes sorted by timestamp. Votes with equal
// timestamps keep their relative order.
func Chronological(votes []model.Vote) []model.Vote {
	out := slices.Clone(votes)
	slices.SortStableFunc(out, func(a, b model.Vote) int {
		return a.Timestamp.Compare(b.Timestamp)
	})
	return out
}

// Apply copies items and sets each copy's rating from ratings, falling back to
// the item's own rating for ids missing from the map.
func Apply(items []model.Item, ratings map[string]float64) []model.Item {
	out := slices.Clone(items)
	for i := range out {
		if r, ok := ratings[out[i].ID]; ok {
			out[i].Rating = r
		}
	}
	return out
}

// SortByRating orders items by rating, highest first. Equal ratings keep
// their input order.
func SortByRating(items []model.Item) {
	slices.SortStableFunc(items, func(a, b model.Item) int {
		return cmp.Compare(b.Rating, a.Rating)
	})
}
