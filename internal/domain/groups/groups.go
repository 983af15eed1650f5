// Package groups keeps group membership. A group ranking replays every vote
// tagged with the group, including votes of members kicked since.
package groups

import (
	"fmt"
	"slices"
	"strings"
	"sync"

	"github.com/google/uuid"

	"github.com/okian/nameswap/internal/domain/model"
)

// Option applies a configuration option to the Store.
type Option func(*Store)

// WithIDGenerator overrides how new group ids are produced.
func WithIDGenerator(gen func() string) Option {
	return func(s *Store) {
		if gen != nil {
			s.newID = gen
		}
	}
}

// Store is an in-memory, insertion-ordered set of groups. Every method
// returns copies; callers never hold a reference into the store.
type Store struct {
	mu     sync.RWMutex
	groups []*model.Group
	byID   map[string]*model.Group
	newID  func() string
}

// New creates an empty Store.
func New(opts ...Option) *Store {
	s := &Store{
		byID:  make(map[string]*model.Group),
		newID: uuid.NewString,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Create registers a new group owned by ownerID. The owner is its only member.
func (s *Store) Create(label, ownerID string) (model.Group, error) {
	label = strings.TrimSpace(label)
	if label == "" || ownerID == "" {
		return model.Group{}, ErrInvalidGroup
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	g := &model.Group{
		ID:        s.newID(),
		Label:     label,
		OwnerID:   ownerID,
		MemberIDs: []string{ownerID},
	}
	if _, dup := s.byID[g.ID]; dup {
		return model.Group{}, fmt.Errorf("%w: duplicate id %s", ErrInvalidGroup, g.ID)
	}
	s.groups = append(s.groups, g)
	s.byID[g.ID] = g
	return g.Clone(), nil
}

// Join adds userID to the group. It returns false, leaving the store
// unchanged, when the group does not exist or the user is already a member.
func (s *Store) Join(groupID, userID string) (bool, error) {
	if userID == "" {
		return false, ErrInvalidGroup
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	g, ok := s.byID[groupID]
	if !ok {
		return false, fmt.Errorf("%w: %s", ErrGroupNotFound, groupID)
	}
	if g.HasMember(userID) {
		return false, fmt.Errorf("%w: %s in %s", ErrAlreadyMember, userID, groupID)
	}
	g.MemberIDs = append(g.MemberIDs, userID)
	return true, nil
}

// Kick removes targetID from the group. Only the owner may kick and the
// owner cannot be kicked.
func (s *Store) Kick(groupID, actorID, targetID string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	g, ok := s.byID[groupID]
	if !ok {
		return false, fmt.Errorf("%w: %s", ErrGroupNotFound, groupID)
	}
	if actorID != g.OwnerID {
		return false, fmt.Errorf("%w: %s does not own %s", ErrNotAuthorized, actorID, groupID)
	}
	if targetID == g.OwnerID {
		return false, fmt.Errorf("%w: the owner cannot be removed", ErrNotAuthorized)
	}
	idx := slices.Index(g.MemberIDs, targetID)
	if idx < 0 {
		return false, fmt.Errorf("%w: %s in %s", ErrNotMember, targetID, groupID)
	}
	g.MemberIDs = slices.Delete(g.MemberIDs, idx, idx+1)
	return true, nil
}

// ListFor returns the groups userID owns or belongs to, in creation order.
func (s *Store) ListFor(userID string) []model.Group {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var out []model.Group
	for _, g := range s.groups {
		if g.OwnerID == userID || g.HasMember(userID) {
			out = append(out, g.Clone())
		}
	}
	return out
}

// Get returns the group with the given id.
func (s *Store) Get(groupID string) (model.Group, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	g, ok := s.byID[groupID]
	if !ok {
		return model.Group{}, fmt.Errorf("%w: %s", ErrGroupNotFound, groupID)
	}
	return g.Clone(), nil
}

// IsMember reports whether userID belongs to groupID.
func (s *Store) IsMember(groupID, userID string) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()

	g, ok := s.byID[groupID]
	return ok && g.HasMember(userID)
}

// All returns every group in creation order.
func (s *Store) All() []model.Group {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]model.Group, len(s.groups))
	for i, g := range s.groups {
		out[i] = g.Clone()
	}
	return out
}

// Len returns the number of groups.
func (s *Store) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.groups)
}

// Restore replaces the store with groups loaded from storage. A restored
// group whose owner is missing from its members gets the owner added back.
func (s *Store) Restore(groups []model.Group) error {
	byID := make(map[string]*model.Group, len(groups))
	list := make([]*model.Group, 0, len(groups))
	for _, in := range groups {
		if in.ID == "" || in.OwnerID == "" {
			return fmt.Errorf("%w: missing id or owner", ErrInvalidGroup)
		}
		if _, dup := byID[in.ID]; dup {
			return fmt.Errorf("%w: duplicate id %s", ErrInvalidGroup, in.ID)
		}
		g := in.Clone()
		if !g.HasMember(g.OwnerID) {
			g.MemberIDs = append([]string{g.OwnerID}, g.MemberIDs...)
		}
		byID[g.ID] = &g
		list = append(list, &g)
	}

	s.mu.Lock()
	s.groups = list
	s.byID = byID
	s.mu.Unlock()
	return nil
}
