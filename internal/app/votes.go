package service

import (
	"context"
	"errors"
	"fmt"

	"github.com/okian/nameswap/internal/adapters/repository"
	"github.com/okian/nameswap/internal/adapters/storage"
	"github.com/okian/nameswap/internal/domain/groups"
	"github.com/okian/nameswap/internal/domain/model"
	"github.com/okian/nameswap/internal/domain/rating"
	"github.com/okian/nameswap/internal/domain/scope"
	"github.com/okian/nameswap/pkg/logger"
	"github.com/okian/nameswap/pkg/metrics"
)

// Ballot is a vote as submitted by a client.
type Ballot struct {
	// SubmissionID makes retries idempotent per voter. Optional.
	SubmissionID string
	// VoterID defaults to the installation user.
	VoterID string
	ItemID1 string
	ItemID2 string
	Outcome model.Outcome
	// GroupID scopes the vote to a group the voter belongs to. A ballot
	// without a voter and a group is cast into the current group.
	GroupID string
}

// Entry mirrors the read shape returned by leaderboard queries.
type Entry = repository.Entry

// CastVote records a comparison. Unscoped votes move the live board
// immediately; group votes only show up in that group's ranking.
func (s *Service) CastVote(ctx context.Context, b Ballot) (model.Vote, error) {
	if b.SubmissionID == "" {
		return s.castVote(ctx, b)
	}

	s.mu.RLock()
	deduper, voter := s.deduper, s.voterLocked(b.VoterID)
	s.mu.RUnlock()
	if deduper == nil {
		return model.Vote{}, ErrNotStarted
	}

	// Ids are per voter, so two clients cannot collide.
	key := voter + "/" + b.SubmissionID
	if deduper.SeenAndRecord(ctx, key) {
		metrics.RecordVoteDuplicate()
		return model.Vote{}, fmt.Errorf("%w: %s", ErrDuplicateSubmission, b.SubmissionID)
	}
	v, err := s.castVote(ctx, b)
	if err != nil {
		deduper.Unrecord(ctx, key)
	}
	return v, err
}

func (s *Service) castVote(ctx context.Context, b Ballot) (model.Vote, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.ready(); err != nil {
		return model.Vote{}, err
	}

	if b.VoterID == "" {
		b.VoterID = s.userID
		if b.GroupID == "" {
			b.GroupID = s.currentGroup
		}
	}

	first, err := s.item(ctx, b.ItemID1)
	if err != nil {
		return model.Vote{}, s.reject(ctx, "unknown_item", err)
	}
	second, err := s.item(ctx, b.ItemID2)
	if err != nil {
		return model.Vote{}, s.reject(ctx, "unknown_item", err)
	}
	if first.Category != second.Category {
		return model.Vote{}, s.reject(ctx, "category_mismatch",
			fmt.Errorf("%w: %s is %s, %s is %s", ErrCategoryMismatch, first.ID, first.Category, second.ID, second.Category))
	}
	if b.GroupID != "" && !s.groups.IsMember(b.GroupID, b.VoterID) {
		if _, err := s.groups.Get(b.GroupID); err != nil {
			return model.Vote{}, s.reject(ctx, "group_not_found", err)
		}
		return model.Vote{}, s.reject(ctx, "not_member", fmt.Errorf("%w: %s", groups.ErrNotMember, b.VoterID))
	}

	v, err := s.votes.Append(model.Vote{
		VoterID: b.VoterID,
		ItemID1: first.ID,
		ItemID2: second.ID,
		Outcome: b.Outcome,
		ScopeID: b.GroupID,
	})
	if err != nil {
		return model.Vote{}, s.reject(ctx, "invalid", err)
	}

	kind := scope.KindGroup
	if !v.Scoped() {
		kind = scope.KindUser
		ra, rb := rating.Rate(first.Rating, second.Rating, v.Outcome)
		if err := s.board.Update(ctx, first.ID, ra); err != nil {
			return model.Vote{}, err
		}
		if err := s.board.Update(ctx, second.ID, rb); err != nil {
			return model.Vote{}, err
		}
	}

	s.sampler.Reset(first.Category)
	s.persistLocked(ctx, storage.KeyVotes, s.votes.Snapshot())
	metrics.RecordVote(kind.String())

	s.logger.Debug(ctx, "vote recorded",
		logger.String("voter", v.VoterID),
		logger.String("first", v.ItemID1),
		logger.String("second", v.ItemID2),
		logger.String("outcome", v.Outcome.String()),
		logger.String("group", v.ScopeID),
	)
	return v, nil
}

func (s *Service) item(ctx context.Context, id string) (model.Item, error) {
	it, err := s.board.Get(ctx, id)
	if errors.Is(err, repository.ErrNotFound) {
		return model.Item{}, fmt.Errorf("%w: %q", ErrUnknownItem, id)
	}
	return it, err
}

func (s *Service) reject(ctx context.Context, reason string, err error) error {
	metrics.RecordVoteRejected(reason)
	s.logger.Debug(ctx, "vote rejected", logger.String("reason", reason), logger.Error(err))
	return err
}

// NextPair offers two distinct items of c to compare. It avoids repeating
// the previous pair of c.
func (s *Service) NextPair(ctx context.Context, c model.Category) (model.Item, model.Item, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if err := s.ready(); err != nil {
		return model.Item{}, model.Item{}, err
	}
	if !c.Valid() {
		return model.Item{}, model.Item{}, fmt.Errorf("%w: %q", model.ErrUnknownCategory, c)
	}
	items, err := s.board.Universe(ctx, c)
	if err != nil {
		return model.Item{}, model.Item{}, err
	}
	return s.sampler.NextPair(c, items)
}

// Rankings returns the items of c ranked within sc. Scopes without votes
// fall back to the top of the global board.
func (s *Service) Rankings(ctx context.Context, sc scope.Scope, c model.Category) (scope.Ranking, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if err := s.ready(); err != nil {
		return scope.Ranking{}, err
	}
	if sc.Kind == scope.KindGroup {
		if _, err := s.groups.Get(sc.ID); err != nil {
			return scope.Ranking{}, err
		}
	}
	r, err := s.resolver.Resolve(ctx, sc, c)
	if err != nil {
		return scope.Ranking{}, err
	}
	s.logger.Debug(ctx, "ranking resolved",
		logger.String("scope", sc.String()),
		logger.Bool("fallback", r.Fallback),
		logger.Int("applied", r.Applied),
	)
	return r, nil
}

// TopN returns the top n entries of the global board of c.
func (s *Service) TopN(ctx context.Context, c model.Category, n int) ([]Entry, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if err := s.ready(); err != nil {
		return nil, err
	}
	if !c.Valid() {
		return nil, fmt.Errorf("%w: %q", model.ErrUnknownCategory, c)
	}
	return s.board.TopN(ctx, c, n)
}

// Rank returns the global rank of one item within its category.
func (s *Service) Rank(ctx context.Context, itemID string) (Entry, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if err := s.ready(); err != nil {
		return Entry{}, err
	}
	e, err := s.board.Rank(ctx, itemID)
	if errors.Is(err, repository.ErrNotFound) {
		return Entry{}, fmt.Errorf("%w: %q", ErrUnknownItem, itemID)
	}
	return e, err
}

// Votes returns a copy of the vote log.
func (s *Service) Votes() []model.Vote {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if s.votes == nil {
		return nil
	}
	return s.votes.Snapshot()
}
