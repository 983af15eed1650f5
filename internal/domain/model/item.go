// Package model contains domain models passed between layers.
package model

import (
	"fmt"
	"strings"
)

// Category partitions the item universe. Pairs, boards and replays never mix
// categories.
type Category string

// Known categories.
const (
	CategoryBoy  Category = "boy"
	CategoryGirl Category = "girl"
)

// Categories returns every known category in display order.
func Categories() []Category {
	return []Category{CategoryBoy, CategoryGirl}
}

// Valid reports whether c is a known category.
func (c Category) Valid() bool {
	return c == CategoryBoy || c == CategoryGirl
}

// ParseCategory accepts the singular and plural spellings used by clients
// ("boy", "boys", "girl", "girls"), case-insensitive.
func ParseCategory(s string) (Category, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "boy", "boys":
		return CategoryBoy, nil
	case "girl", "girls":
		return CategoryGirl, nil
	default:
		return "", fmt.Errorf("%w: %q", ErrUnknownCategory, s)
	}
}

// Item is a votable name. Rating is the only field that changes after the
// universe is loaded.
type Item struct {
	ID       string   `json:"id"`
	Label    string   `json:"name"`
	Category Category `json:"gender"`
	Rating   float64  `json:"elo"`
}

// ItemID derives the stable identifier of a label within a category.
func ItemID(c Category, label string) string {
	return string(c) + "-" + label
}
