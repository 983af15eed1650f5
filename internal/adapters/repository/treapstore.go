package repository

import (
	"context"
	"fmt"
	"math/rand/v2"
	"sync"
	"time"

	"github.com/okian/nameswap/internal/domain/model"
	"github.com/okian/nameswap/pkg/metrics"
)

// Treap-based, in-memory Store implementation with one treap per category.
//
// Ordering: rating DESC, then universe position ASC. "less" means ranks
// earlier, so in-order traversal produces the board from best to worst.

// record is the indexed state of one item.
type record struct {
	item model.Item
	ord  int
}

// treap node
type node struct {
	id     string
	rating float64
	ord    int
	prio   uint64
	left   *node
	right  *node
	size   int
}

func nsize(n *node) int {
	if n == nil {
		return 0
	}
	return n.size
}

func fix(n *node) {
	if n != nil {
		n.size = 1 + nsize(n.left) + nsize(n.right)
	}
}

// less returns true if (aRating, aOrd) should appear before (bRating, bOrd)
// on the board.
func less(aRating float64, aOrd int, bRating float64, bOrd int) bool {
	if aRating != bRating {
		return aRating > bRating
	}
	return aOrd < bOrd
}

func rotateRight(y *node) *node {
	x := y.left
	t2 := x.right
	x.right = y
	y.left = t2
	fix(y)
	fix(x)
	return x
}

func rotateLeft(x *node) *node {
	y := x.right
	t2 := y.left
	y.left = x
	x.right = t2
	fix(x)
	fix(y)
	return y
}

func insert(n, in *node) *node {
	if n == nil {
		in.size = 1
		return in
	}
	if less(in.rating, in.ord, n.rating, n.ord) {
		n.left = insert(n.left, in)
		if n.left.prio > n.prio {
			n = rotateRight(n)
		}
	} else {
		n.right = insert(n.right, in)
		if n.right.prio > n.prio {
			n = rotateLeft(n)
		}
	}
	fix(n)
	return n
}

// deleteNode removes the node keyed (rating, ord) and returns the new root
// together with the detached node.
func deleteNode(n *node, rating float64, ord int) (*node, *node) {
	if n == nil {
		return nil, nil
	}
	var removed *node
	switch {
	case n.rating == rating && n.ord == ord:
		if n.left == nil || n.right == nil {
			child := n.left
			if child == nil {
				child = n.right
			}
			n.left, n.right = nil, nil
			return child, n
		}
		if n.left.prio > n.right.prio {
			n = rotateRight(n)
			n.right, removed = deleteNode(n.right, rating, ord)
		} else {
			n = rotateLeft(n)
			n.left, removed = deleteNode(n.left, rating, ord)
		}
	case less(rating, ord, n.rating, n.ord):
		n.left, removed = deleteNode(n.left, rating, ord)
	default:
		n.right, removed = deleteNode(n.right, rating, ord)
	}
	fix(n)
	return n, removed
}

// collect appends up to limit ids in board order.
func collect(n *node, limit int, out *[]string) {
	if n == nil || len(*out) >= limit {
		return
	}
	collect(n.left, limit, out)
	if len(*out) < limit {
		*out = append(*out, n.id)
	}
	if len(*out) < limit {
		collect(n.right, limit, out)
	}
}

// countAbove returns how many nodes rate strictly higher than rating.
func countAbove(n *node, rating float64) int {
	count := 0
	for n != nil {
		if n.rating > rating {
			count += nsize(n.left) + 1
			n = n.right
		} else {
			n = n.left
		}
	}
	return count
}

// TreapStore keeps live ratings ordered for O(log n) updates and rank
// queries.
type TreapStore struct {
	mu       sync.RWMutex
	roots    map[model.Category]*node
	byID     map[string]*record
	universe map[model.Category][]string
	seed     uint64
	rng      *rand.Rand
}

// NewTreapStore constructs a treap store with configuration options.
func NewTreapStore(opts ...Option) *TreapStore {
	s := &TreapStore{
		roots:    make(map[model.Category]*node),
		byID:     make(map[string]*record),
		universe: make(map[model.Category][]string),
		seed:     uint64(time.Now().UnixNano()),
	}
	for _, opt := range opts {
		opt(s)
	}
	s.rng = rand.New(rand.NewPCG(s.seed, s.seed^0x9e3779b97f4a7c15)) //nolint:gosec // tree balancing only
	return s
}

// Load implements Store.Load.
func (s *TreapStore) Load(ctx context.Context, items []model.Item) error {
	start := time.Now()
	defer func() {
		metrics.RecordRepositoryUpdateLatency(float64(time.Since(start).Microseconds()) / 1000)
	}()

	byID := make(map[string]*record, len(items))
	universe := make(map[model.Category][]string)
	for i, it := range items {
		if !it.Category.Valid() {
			return fmt.Errorf("%w: %q", model.ErrUnknownCategory, it.Category)
		}
		if _, dup := byID[it.ID]; dup {
			return fmt.Errorf("%w: %s", ErrDuplicateID, it.ID)
		}
		byID[it.ID] = &record{item: it, ord: i}
		universe[it.Category] = append(universe[it.Category], it.ID)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	s.byID = byID
	s.universe = universe
	s.roots = make(map[model.Category]*node)
	for _, c := range model.Categories() {
		for _, id := range universe[c] {
			rec := byID[id]
			s.roots[c] = insert(s.roots[c], &node{id: id, rating: rec.item.Rating, ord: rec.ord, prio: s.rng.Uint64()})
		}
		metrics.UpdateItemsTotal(string(c), len(universe[c]))
	}
	return nil
}

// Update implements Store.Update with O(log n) expected time.
func (s *TreapStore) Update(ctx context.Context, itemID string, rating float64) error {
	start := time.Now()
	defer func() {
		metrics.RecordRepositoryUpdateLatency(float64(time.Since(start).Microseconds()) / 1000)
	}()

	s.mu.Lock()
	defer s.mu.Unlock()

	rec, ok := s.byID[itemID]
	if !ok {
		metrics.RecordErrorByComponent("repository", "not_found")
		return fmt.Errorf("%w: %s", ErrNotFound, itemID)
	}
	c := rec.item.Category
	root, n := deleteNode(s.roots[c], rec.item.Rating, rec.ord)
	if n == nil {
		n = &node{id: itemID, ord: rec.ord, prio: s.rng.Uint64()}
	}
	n.rating = rating
	rec.item.Rating = rating
	s.roots[c] = insert(root, n)
	return nil
}

// Get implements Store.Get.
func (s *TreapStore) Get(ctx context.Context, itemID string) (model.Item, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	rec, ok := s.byID[itemID]
	if !ok {
		return model.Item{}, fmt.Errorf("%w: %s", ErrNotFound, itemID)
	}
	return rec.item, nil
}

// Rank returns the current rank of an item in O(log n).
func (s *TreapStore) Rank(ctx context.Context, itemID string) (Entry, error) {
	start := time.Now()
	defer func() {
		metrics.RecordRepositoryQueryLatency(float64(time.Since(start).Microseconds()) / 1000)
	}()

	s.mu.RLock()
	defer s.mu.RUnlock()

	rec, ok := s.byID[itemID]
	if !ok {
		metrics.RecordErrorByComponent("repository", "not_found")
		return Entry{}, fmt.Errorf("%w: %s", ErrNotFound, itemID)
	}
	return Entry{Rank: countAbove(s.roots[rec.item.Category], rec.item.Rating) + 1, Item: rec.item}, nil
}

// TopN returns the top N entries of a category ordered by rating desc.
func (s *TreapStore) TopN(ctx context.Context, c model.Category, n int) ([]Entry, error) {
	start := time.Now()
	defer func() {
		metrics.RecordRepositoryQueryLatency(float64(time.Since(start).Microseconds()) / 1000)
	}()

	if n < 1 {
		metrics.RecordErrorByComponent("repository", "invalid_limit")
		return nil, ErrInvalidLimit
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	ids := make([]string, 0, min(n, len(s.universe[c])))
	collect(s.roots[c], n, &ids)

	out := make([]Entry, len(ids))
	for i, id := range ids {
		out[i] = Entry{Item: s.byID[id].item}
	}
	assignRanksWithTies(out)
	return out, nil
}

// Ranked implements Store.Ranked.
func (s *TreapStore) Ranked(ctx context.Context, c model.Category) ([]model.Item, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	ids := make([]string, 0, len(s.universe[c]))
	collect(s.roots[c], len(s.universe[c]), &ids)
	return s.items(ids), nil
}

// Universe implements Store.Universe.
func (s *TreapStore) Universe(ctx context.Context, c model.Category) ([]model.Item, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.items(s.universe[c]), nil
}

// Count returns the number of items of a category.
func (s *TreapStore) Count(ctx context.Context, c model.Category) int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return nsize(s.roots[c])
}

// items copies the records of ids; the read lock must be held.
func (s *TreapStore) items(ids []string) []model.Item {
	out := make([]model.Item, len(ids))
	for i, id := range ids {
		out[i] = s.byID[id].item
	}
	return out
}

// assignRanksWithTies assigns competition ranks to entries in board order.
// Items with the same rating share a rank and the next rank skips the tied
// positions.
func assignRanksWithTies(entries []Entry) {
	for i := range entries {
		if i > 0 && entries[i].Item.Rating == entries[i-1].Item.Rating {
			entries[i].Rank = entries[i-1].Rank
			continue
		}
		entries[i].Rank = i + 1
	}
}
