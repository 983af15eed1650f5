// Package scope resolves which votes and which items make up a ranking view.
package scope

import (
	"fmt"
	"strings"
)

// Kind is the ranking scope kind.
type Kind int

// Scope kinds.
const (
	KindGlobal Kind = iota
	KindUser
	KindGroup
)

func (k Kind) String() string {
	switch k {
	case KindGlobal:
		return "global"
	case KindUser:
		return "user"
	case KindGroup:
		return "group"
	default:
		return fmt.Sprintf("kind(%d)", int(k))
	}
}

// Scope identifies a ranking view. ID is the voter id for KindUser and the
// group id for KindGroup; it is empty for KindGlobal.
type Scope struct {
	Kind Kind
	ID   string
}

// Global is the board of live ratings.
func Global() Scope { return Scope{Kind: KindGlobal} }

// User is the board replayed from one voter's personal votes.
func User(voterID string) Scope { return Scope{Kind: KindUser, ID: voterID} }

// Group is the board replayed from the votes tagged with a group.
func Group(groupID string) Scope { return Scope{Kind: KindGroup, ID: groupID} }

func (s Scope) String() string {
	if s.Kind == KindGlobal {
		return s.Kind.String()
	}
	return s.Kind.String() + ":" + s.ID
}

// Parse builds a Scope from its wire form. An empty kind means global.
func Parse(kind, id string) (Scope, error) {
	switch strings.ToLower(strings.TrimSpace(kind)) {
	case "", "global":
		return Global(), nil
	case "user", "personal":
		if id == "" {
			return Scope{}, fmt.Errorf("%w: user scope needs an id", ErrInvalidScope)
		}
		return User(id), nil
	case "group":
		if id == "" {
			return Scope{}, fmt.Errorf("%w: group scope needs an id", ErrInvalidScope)
		}
		return Group(id), nil
	default:
		return Scope{}, fmt.Errorf("%w: %q", ErrInvalidScope, kind)
	}
}
