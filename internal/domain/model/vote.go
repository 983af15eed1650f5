package model

import (
	"fmt"
	"strings"
	"time"
)

// Outcome is the result of a single pairwise comparison. The integer values
// are part of the persisted vote format.
type Outcome int

// Comparison outcomes.
const (
	FirstWins Outcome = iota
	SecondWins
	Tie
)

// Valid reports whether o is one of the three known outcomes.
func (o Outcome) Valid() bool {
	return o >= FirstWins && o <= Tie
}

func (o Outcome) String() string {
	switch o {
	case FirstWins:
		return "first_wins"
	case SecondWins:
		return "second_wins"
	case Tie:
		return "tie"
	default:
		return fmt.Sprintf("outcome(%d)", int(o))
	}
}

// ParseOutcome accepts the names returned by String plus the short forms
// "first", "second", "left", "right" and the numeric forms "0".."2".
func ParseOutcome(s string) (Outcome, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "first_wins", "first", "left", "0":
		return FirstWins, nil
	case "second_wins", "second", "right", "1":
		return SecondWins, nil
	case "tie", "draw", "2":
		return Tie, nil
	default:
		return 0, fmt.Errorf("%w: %q", ErrUnknownOutcome, s)
	}
}

// Vote records one comparison. Votes are immutable once appended to the log.
// An empty ScopeID means the vote is personal and counts towards the global
// board.
type Vote struct {
	VoterID   string    `json:"userId"`
	Timestamp time.Time `json:"timestamp"`
	ItemID1   string    `json:"name1Id"`
	ItemID2   string    `json:"name2Id"`
	Outcome   Outcome   `json:"result"`
	ScopeID   string    `json:"groupId,omitempty"`
}

// Scoped reports whether the vote belongs to a group scope.
func (v Vote) Scoped() bool {
	return v.ScopeID != ""
}
