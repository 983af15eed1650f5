package service

import (
	"context"
	"fmt"

	"github.com/okian/nameswap/internal/adapters/storage"
	"github.com/okian/nameswap/internal/domain/groups"
	"github.com/okian/nameswap/internal/domain/model"
	"github.com/okian/nameswap/pkg/logger"
	"github.com/okian/nameswap/pkg/metrics"
)

// CreateGroup creates a group owned by ownerID, who becomes its only member.
func (s *Service) CreateGroup(ctx context.Context, label, ownerID string) (model.Group, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.ready(); err != nil {
		return model.Group{}, err
	}
	g, err := s.groups.Create(label, s.voterLocked(ownerID))
	if err != nil {
		return model.Group{}, err
	}
	s.groupsChanged(ctx)
	s.logger.Info(ctx, "group created", logger.String("group", g.ID), logger.String("owner", g.OwnerID))
	return g, nil
}

// JoinGroup adds userID to a group.
func (s *Service) JoinGroup(ctx context.Context, groupID, userID string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.ready(); err != nil {
		return false, err
	}
	ok, err := s.groups.Join(groupID, s.voterLocked(userID))
	if !ok {
		return false, err
	}
	s.groupsChanged(ctx)
	return true, nil
}

// KickMember removes targetID from a group. Only the owner may kick and the
// owner cannot be kicked. Votes already cast in the group stay in its
// ranking.
func (s *Service) KickMember(ctx context.Context, groupID, actorID, targetID string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.ready(); err != nil {
		return false, err
	}
	ok, err := s.groups.Kick(groupID, s.voterLocked(actorID), targetID)
	if !ok {
		return false, err
	}
	s.groupsChanged(ctx)
	if targetID == s.userID && s.currentGroup == groupID {
		s.currentGroup = ""
		s.persistLocked(ctx, storage.KeyCurrentGroup, "")
	}
	s.logger.Info(ctx, "member kicked", logger.String("group", groupID), logger.String("target", targetID))
	return true, nil
}

// GroupsFor lists the groups userID belongs to, in creation order.
func (s *Service) GroupsFor(ctx context.Context, userID string) ([]model.Group, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if err := s.ready(); err != nil {
		return nil, err
	}
	return s.groups.ListFor(s.voterLocked(userID)), nil
}

// Group returns one group.
func (s *Service) Group(ctx context.Context, groupID string) (model.Group, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if err := s.ready(); err != nil {
		return model.Group{}, err
	}
	return s.groups.Get(groupID)
}

// SetCurrentGroup selects the group the installation user votes in by
// default. An empty id leaves group mode.
func (s *Service) SetCurrentGroup(ctx context.Context, groupID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.ready(); err != nil {
		return err
	}
	if groupID != "" && !s.groups.IsMember(groupID, s.userID) {
		if _, err := s.groups.Get(groupID); err != nil {
			return err
		}
		return fmt.Errorf("%w: %s", groups.ErrNotMember, s.userID)
	}
	s.currentGroup = groupID
	s.persistLocked(ctx, storage.KeyCurrentGroup, groupID)
	return nil
}

// CurrentGroup returns the selected group id, empty outside group mode.
func (s *Service) CurrentGroup() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.currentGroup
}

func (s *Service) voterLocked(id string) string {
	if id != "" {
		return id
	}
	return s.userID
}

func (s *Service) groupsChanged(ctx context.Context) {
	s.persistLocked(ctx, storage.KeyGroups, s.groups.All())
	metrics.UpdateGroupsTotal(s.groups.Len())
}
