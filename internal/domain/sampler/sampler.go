// Package sampler picks the next pair of items to compare.
package sampler

import (
	"math/rand/v2"
	"sync"

	"github.com/okian/nameswap/internal/domain/model"
)

// DefaultMaxAttempts bounds how many draws are made to avoid repeating the
// previous pair of a category.
const DefaultMaxAttempts = 5

// Option applies a configuration option to the Sampler.
type Option func(*Sampler)

// WithMaxAttempts sets the number of draws before a repeated pair is accepted.
func WithMaxAttempts(n int) Option {
	return func(s *Sampler) {
		if n > 0 {
			s.maxAttempts = n
		}
	}
}

// WithSeed makes the draw sequence reproducible.
func WithSeed(seed uint64) Option {
	return func(s *Sampler) {
		s.rng = rand.New(rand.NewPCG(seed, seed^0x9e3779b97f4a7c15)) //nolint:gosec // sampling fairness, not security
	}
}

// WithObserver registers a callback invoked after every draw with the
// category and whether the previous pair had to be repeated.
func WithObserver(fn func(c model.Category, repeated bool)) Option {
	return func(s *Sampler) {
		s.observe = fn
	}
}

// pair is an unordered pair of item ids.
type pair struct {
	a, b string
}

func (p pair) same(a, b string) bool {
	return (p.a == a && p.b == b) || (p.a == b && p.b == a)
}

// Sampler draws uniformly random distinct pairs and remembers the last pair
// per category so it is not offered twice in a row. Avoidance is best effort:
// after maxAttempts draws the repeat is accepted.
type Sampler struct {
	mu          sync.Mutex
	rng         *rand.Rand
	maxAttempts int
	last        map[model.Category]pair
	observe     func(c model.Category, repeated bool)
}

// New creates a Sampler with configuration options.
func New(opts ...Option) *Sampler {
	s := &Sampler{
		rng:         rand.New(rand.NewPCG(rand.Uint64(), rand.Uint64())), //nolint:gosec // sampling fairness, not security
		maxAttempts: DefaultMaxAttempts,
		last:        make(map[model.Category]pair),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// NextPair returns two distinct items from items, which must all belong to
// category c. It fails with *InsufficientItemsError when fewer than two items
// are available.
func (s *Sampler) NextPair(c model.Category, items []model.Item) (model.Item, model.Item, error) {
	if len(items) < 2 {
		return model.Item{}, model.Item{}, &InsufficientItemsError{Category: c, Count: len(items)}
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	last, hasLast := s.last[c]
	var i, j int
	repeated := false
	for attempt := 1; ; attempt++ {
		i, j = s.draw(len(items))
		if !hasLast || !last.same(items[i].ID, items[j].ID) {
			break
		}
		if attempt >= s.maxAttempts {
			repeated = true
			break
		}
	}

	s.last[c] = pair{a: items[i].ID, b: items[j].ID}
	if s.observe != nil {
		s.observe(c, repeated)
	}
	return items[i], items[j], nil
}

// draw returns two distinct indexes in [0, n), each pair equally likely.
func (s *Sampler) draw(n int) (int, int) {
	i := s.rng.IntN(n)
	j := s.rng.IntN(n - 1)
	if j >= i {
		j++
	}
	return i, j
}

// LastPair returns the ids of the pair most recently offered for c.
func (s *Sampler) LastPair(c model.Category) (string, string, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	p, ok := s.last[c]
	return p.a, p.b, ok
}

// Reset forgets the last pair of c.
func (s *Sampler) Reset(c model.Category) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.last, c)
}
