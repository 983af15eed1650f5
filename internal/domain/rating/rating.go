// Package rating implements the paired-comparison (Elo) rating update.
package rating

import (
	"math"

	"github.com/okian/nameswap/internal/domain/model"
)

// Rating constants.
const (
	// K is the maximum rating change a single comparison can cause.
	K = 32.0

	// DefaultBaseline is the rating every item starts from.
	DefaultBaseline = 1200.0

	// scale is the rating difference at which the stronger side is expected
	// to win ten times as often.
	scale = 400.0
)

// Expected returns the probability that a side rated a beats a side rated b.
func Expected(a, b float64) float64 {
	return 1 / (1 + math.Pow(10, (b-a)/scale))
}

// Scores maps an outcome to the actual scores of the first and second side.
// Unknown outcomes score as a tie.
func Scores(o model.Outcome) (float64, float64) {
	switch o {
	case model.FirstWins:
		return 1, 0
	case model.SecondWins:
		return 0, 1
	default:
		return 0.5, 0.5
	}
}

// Rate returns the updated ratings of both sides after outcome o.
// The update is zero-sum and ratings are never clamped.
func Rate(a, b float64, o model.Outcome) (float64, float64) {
	expectedA := Expected(a, b)
	expectedB := 1 - expectedA
	scoreA, scoreB := Scores(o)
	return a + K*(scoreA-expectedA), b + K*(scoreB-expectedB)
}
