// Package repository holds the live rating index behind the global board.
package repository

import (
	"context"

	"github.com/okian/nameswap/internal/domain/model"
)

// Entry represents a leaderboard row. Items with equal ratings share a rank.
type Entry struct {
	Rank int        `json:"rank"`
	Item model.Item `json:"item"`
}

// Store provides read/write access to live ratings. Every read returns
// copies.
type Store interface {
	// Load replaces the index with items. Their order is the universe order
	// used to break rating ties.
	Load(ctx context.Context, items []model.Item) error
	// Update sets the live rating of an item.
	// Returns ErrNotFound if the item is unknown.
	Update(ctx context.Context, itemID string, rating float64) error
	// Get returns one item. Returns ErrNotFound if the item is unknown.
	Get(ctx context.Context, itemID string) (model.Item, error)
	// Rank returns the current rank of an item within its category.
	Rank(ctx context.Context, itemID string) (Entry, error)
	// TopN returns the top-N entries of a category ordered by rating desc.
	TopN(ctx context.Context, c model.Category, n int) ([]Entry, error)
	// Ranked returns every item of a category ordered by rating desc.
	Ranked(ctx context.Context, c model.Category) ([]model.Item, error)
	// Universe returns every item of a category in universe order.
	Universe(ctx context.Context, c model.Category) ([]model.Item, error)
	// Count returns the number of items of a category.
	Count(ctx context.Context, c model.Category) int
}
