package sampler

import (
	"errors"
	"fmt"

	"github.com/okian/nameswap/internal/domain/model"
)

// ErrInsufficientItems is matched by every *InsufficientItemsError.
var ErrInsufficientItems = errors.New("insufficient items")

// InsufficientItemsError reports a category with fewer than two items.
type InsufficientItemsError struct {
	Category model.Category
	Count    int
}

func (e *InsufficientItemsError) Error() string {
	return fmt.Sprintf("not enough %s items to create a pair: have %d, need 2", e.Category, e.Count)
}

func (e *InsufficientItemsError) Unwrap() error {
	return ErrInsufficientItems
}
