// Package service wires the rating engine together: the live board, the vote
// log, groups, scoped rankings, pair sampling and persistence. It implements
// the dependencies required by the HTTP API.
package service

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"

	eventqueue "github.com/okian/nameswap/internal/adapters/mq/queue"
	persistworker "github.com/okian/nameswap/internal/adapters/mq/worker"
	"github.com/okian/nameswap/internal/adapters/repository"
	"github.com/okian/nameswap/internal/adapters/storage"
	"github.com/okian/nameswap/internal/domain/dedupe"
	"github.com/okian/nameswap/internal/domain/groups"
	"github.com/okian/nameswap/internal/domain/model"
	"github.com/okian/nameswap/internal/domain/rating"
	"github.com/okian/nameswap/internal/domain/replay"
	"github.com/okian/nameswap/internal/domain/sampler"
	"github.com/okian/nameswap/internal/domain/scope"
	"github.com/okian/nameswap/internal/domain/universe"
	"github.com/okian/nameswap/internal/domain/votelog"
	"github.com/okian/nameswap/pkg/logger"
	"github.com/okian/nameswap/pkg/metrics"
)

// Service is the rating engine. Mutations hold the write lock across the
// vote log append and the live rating update, so readers never observe one
// without the other.
type Service struct {
	mu sync.RWMutex

	// Core components
	board    *repository.TreapStore
	votes    *votelog.Log
	groups   *groups.Store
	resolver *scope.Resolver
	sampler  *sampler.Sampler
	deduper  dedupe.Deduper

	// Persistence
	store     storage.Store
	ownsStore bool
	queue     *eventqueue.InMemoryQueue
	worker    *persistworker.InMemoryWorker
	seq       uint64
	cancelRun context.CancelFunc

	// Configuration
	catalogue       []universe.Entry
	catalogueFile   string
	baseline        float64
	fallbackLimit   int
	dedupeSize      int
	queueSize       int
	samplerAttempts int
	seed            *uint64
	now             func() time.Time

	// State
	started      bool
	userID       string
	currentGroup string

	logger logger.Logger
}

// New constructs a new Service with default configuration.
func New(opts ...Option) *Service {
	s := &Service{
		baseline:        rating.DefaultBaseline,
		fallbackLimit:   scope.DefaultFallbackLimit,
		dedupeSize:      50_000,
		queueSize:       1024,
		samplerAttempts: sampler.DefaultMaxAttempts,
		now:             time.Now,
	}

	for _, opt := range opts {
		opt(s)
	}

	return s
}

// Start loads the universe and the persisted state, rebuilds the global
// board by replaying every unscoped vote and starts the persistence worker.
func (s *Service) Start(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.started {
		return nil
	}

	if s.logger == nil {
		s.logger = logger.Get()
	}
	s.logger.Info(ctx, "starting rating engine...")

	items, err := s.loadUniverse()
	if err != nil {
		return err
	}

	s.board = repository.NewTreapStore()
	if err := s.board.Load(ctx, items); err != nil {
		return fmt.Errorf("load universe: %w", err)
	}

	if s.store == nil {
		s.store = storage.NewMemoryStore()
		s.ownsStore = true
	}
	s.votes = votelog.New(votelog.WithClock(s.now))
	s.groups = groups.New()
	if err := s.restore(ctx); err != nil {
		return err
	}

	applied, skipped, err := s.rebuildBoard(ctx)
	if err != nil {
		return err
	}

	s.resolver = scope.NewResolver(s.board, s.votes,
		scope.WithBaseline(s.baseline),
		scope.WithFallbackLimit(s.fallbackLimit),
		scope.WithObserver(func(k scope.Kind, res replay.Result, took time.Duration) {
			metrics.RecordReplay(k.String(), float64(took.Microseconds())/1000, res.Applied, res.Skipped)
		}),
	)

	samplerOpts := []sampler.Option{
		sampler.WithMaxAttempts(s.samplerAttempts),
		sampler.WithObserver(func(c model.Category, repeated bool) {
			metrics.RecordPairSampled(string(c), repeated)
		}),
	}
	if s.seed != nil {
		samplerOpts = append(samplerOpts, sampler.WithSeed(*s.seed))
	}
	s.sampler = sampler.New(samplerOpts...)
	s.deduper = dedupe.NewInMemoryDeduper(dedupe.WithMaxSize(s.dedupeSize))

	s.queue = eventqueue.NewInMemoryQueue(eventqueue.WithCapacity(s.queueSize))
	s.worker = persistworker.NewInMemoryWorker(s.queue, s.store,
		persistworker.WithName("persist"),
		persistworker.WithLogger(s.logger),
	)
	runCtx, cancel := context.WithCancel(context.Background())
	s.cancelRun = cancel
	go s.worker.Run(runCtx)

	s.started = true
	metrics.UpdateGroupsTotal(s.groups.Len())
	s.logger.Info(ctx, "rating engine started",
		logger.Int("items", len(items)),
		logger.Int("votes", s.votes.Len()),
		logger.Int("groups", s.groups.Len()),
		logger.Int("replayed", applied),
		logger.Int("skipped", skipped),
		logger.String("userId", s.userID),
	)

	return nil
}

func (s *Service) loadUniverse() ([]model.Item, error) {
	entries := s.catalogue
	var err error
	switch {
	case entries != nil:
	case s.catalogueFile != "":
		entries, err = universe.LoadFile(s.catalogueFile)
	default:
		entries, err = universe.Default()
	}
	if err != nil {
		return nil, err
	}
	return universe.Build(entries, s.baseline)
}

// restore reads every persisted document. Missing documents leave the
// corresponding state empty.
func (s *Service) restore(ctx context.Context) error {
	if err := storage.CheckSchema(ctx, s.store); err != nil {
		return err
	}

	var votes []model.Vote
	if _, err := storage.GetJSON(ctx, s.store, storage.KeyVotes, &votes); err != nil {
		return err
	}
	if err := s.votes.Restore(votes); err != nil {
		return fmt.Errorf("restore votes: %w", err)
	}

	var saved []model.Group
	if _, err := storage.GetJSON(ctx, s.store, storage.KeyGroups, &saved); err != nil {
		return err
	}
	if err := s.groups.Restore(saved); err != nil {
		return fmt.Errorf("restore groups: %w", err)
	}

	s.ensureUserID(ctx)

	// A current group the user no longer belongs to is dropped.
	var current string
	if _, err := storage.GetJSON(ctx, s.store, storage.KeyCurrentGroup, &current); err != nil {
		return err
	}
	s.currentGroup = ""
	if current != "" && s.groups.IsMember(current, s.userID) {
		s.currentGroup = current
	}

	return nil
}

// ensureUserID loads the installation user id, creating and saving one on
// first start.
func (s *Service) ensureUserID(ctx context.Context) {
	if s.userID != "" {
		return
	}
	var id string
	found, err := storage.GetJSON(ctx, s.store, storage.KeyUserID, &id)
	if err != nil {
		s.logger.Warn(ctx, "user id unreadable, generating a new one", logger.Error(err))
	}
	if !found || id == "" {
		id = uuid.NewString()
		if err := storage.PutJSON(ctx, s.store, storage.KeyUserID, id); err != nil {
			s.logger.Error(ctx, "failed to save user id", logger.Error(err))
		}
	}
	s.userID = id
}

// rebuildBoard replays the unscoped votes of every category into the live
// board.
func (s *Service) rebuildBoard(ctx context.Context) (int, int, error) {
	votes := s.votes.Collect(votelog.Unscoped())

	applied := 0
	for _, c := range model.Categories() {
		items, err := s.board.Universe(ctx, c)
		if err != nil {
			return 0, 0, err
		}
		res := replay.Run(items, votes, s.baseline)
		for id, r := range res.Ratings {
			if err := s.board.Update(ctx, id, r); err != nil {
				return 0, 0, err
			}
		}
		applied += res.Applied
	}
	return applied, len(votes) - applied, nil
}

// Stop drains pending saves and stops the persistence worker.
func (s *Service) Stop(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.started {
		return nil
	}

	s.logger.Info(ctx, "stopping rating engine...")

	err := s.worker.Shutdown(ctx)
	s.cancelRun()

	if s.ownsStore {
		if cerr := s.store.Close(); cerr != nil && err == nil {
			err = cerr
		}
		s.store = nil
		s.ownsStore = false
	}

	s.started = false
	s.logger.Info(ctx, "rating engine stopped")
	return err
}

// GetStats returns service statistics for monitoring.
func (s *Service) GetStats() map[string]interface{} {
	s.mu.RLock()
	defer s.mu.RUnlock()

	ctx := context.Background()
	stats := map[string]interface{}{
		"started":       s.started,
		"baseline":      s.baseline,
		"fallbackLimit": s.fallbackLimit,
		"queueCapacity": s.queueSize,
		"dedupeSize":    s.dedupeSize,
	}

	if s.started {
		items := make(map[string]int)
		for _, c := range model.Categories() {
			items[string(c)] = s.board.Count(ctx, c)
		}
		queueLen := s.queue.Len(ctx)

		stats["items"] = items
		stats["votes"] = s.votes.Len()
		stats["groups"] = s.groups.Len()
		stats["queueLength"] = queueLen
		stats["dedupeEntries"] = s.deduper.Size()
		stats["userId"] = s.userID
		stats["currentGroup"] = s.currentGroup

		metrics.UpdateQueueSize(queueLen)
		metrics.UpdateGroupsTotal(s.groups.Len())
	}

	return stats
}

// UserID returns the installation user id. It is the voter of every vote
// cast without an explicit voter.
func (s *Service) UserID() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.userID
}

// persistLocked saves v under key. Saves go through the queue; when it is
// full the save is written synchronously. The write lock must be held so
// saves are sequenced in mutation order.
func (s *Service) persistLocked(ctx context.Context, key string, v any) {
	raw, err := json.Marshal(v)
	if err != nil {
		s.logger.Error(ctx, "failed to encode document", logger.String("key", key), logger.Error(err))
		return
	}
	s.seq++
	job := eventqueue.Job{Key: key, Value: raw, Seq: s.seq, EnqueuedAt: s.now()}

	if s.queue.Enqueue(ctx, job) {
		return
	}
	s.logger.Warn(ctx, "persist queue full, writing synchronously", logger.String("key", key))
	if err := s.worker.Write(ctx, job); err != nil {
		s.logger.Error(ctx, "failed to persist document", logger.String("key", key), logger.Error(err))
	}
}

func (s *Service) ready() error {
	if !s.started {
		return ErrNotStarted
	}
	return nil
}
