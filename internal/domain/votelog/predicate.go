package votelog

import "github.com/okian/nameswap/internal/domain/model"

// Predicate selects votes from the log.
type Predicate func(model.Vote) bool

// All matches every vote.
func All() Predicate {
	return func(model.Vote) bool { return true }
}

// ByVoter matches votes cast by voterID.
func ByVoter(voterID string) Predicate {
	return func(v model.Vote) bool { return v.VoterID == voterID }
}

// ByScope matches votes tagged with scopeID.
func ByScope(scopeID string) Predicate {
	return func(v model.Vote) bool { return v.Scoped() && v.ScopeID == scopeID }
}

// Unscoped matches personal votes, the ones counted on the global board.
func Unscoped() Predicate {
	return func(v model.Vote) bool { return !v.Scoped() }
}

// And matches votes satisfying every predicate.
func And(preds ...Predicate) Predicate {
	return func(v model.Vote) bool {
		for _, p := range preds {
			if !p(v) {
				return false
			}
		}
		return true
	}
}
