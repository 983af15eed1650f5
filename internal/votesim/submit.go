package votesim

import (
	"context"
	"encoding/json"
	"net/http"
	"sync"
	"sync/atomic"
	"time"

	"github.com/okian/nameswap/internal/domain/model"
	"github.com/okian/nameswap/pkg/logger"
)

type submitResult int

const (
	resultAccepted submitResult = iota
	resultDuplicate
	resultFailed
)

// submitBallots posts ballots concurrently and returns the votes the service
// accepted.
func submitBallots(ctx context.Context, client *HTTPClient, config *Config, ballots []Ballot, stats *Stats) []model.Vote {
	log := logger.Get()
	log.Info(ctx, "submitting votes", logger.Int("ballots", len(ballots)), logger.Int("workers", config.Workers))

	var (
		accepted  int64
		duplicate int64
		failed    int64
		submitted int64

		mu    sync.Mutex
		votes = make([]model.Vote, 0, len(ballots))
	)

	var lastReport atomic.Int64
	ballotChan := make(chan Ballot, config.Workers*WorkerChannelMultiplier)
	var wg sync.WaitGroup

	for i := 0; i < config.Workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()

			for b := range ballotChan {
				v, res := submitSingleBallot(ctx, client, b)
				atomic.AddInt64(&submitted, 1)
				switch res {
				case resultAccepted:
					atomic.AddInt64(&accepted, 1)
					mu.Lock()
					votes = append(votes, v)
					mu.Unlock()
				case resultDuplicate:
					atomic.AddInt64(&duplicate, 1)
				case resultFailed:
					atomic.AddInt64(&failed, 1)
				}

				now := time.Now().UnixNano()
				last := lastReport.Load()
				if config.Verbose && now-last >= int64(progressInterval) && lastReport.CompareAndSwap(last, now) {
					log.Info(ctx, "progress",
						logger.Int("submitted", int(atomic.LoadInt64(&submitted))),
						logger.Int("total", len(ballots)),
						logger.Int("accepted", int(atomic.LoadInt64(&accepted))),
						logger.Int("duplicate", int(atomic.LoadInt64(&duplicate))),
						logger.Int("failed", int(atomic.LoadInt64(&failed))),
					)
				}
			}
		}()
	}

	go func() {
		defer close(ballotChan)
		for _, b := range ballots {
			select {
			case <-ctx.Done():
				return
			case ballotChan <- b:
			}
		}
	}()

	wg.Wait()

	stats.VotesSubmitted = int(submitted)
	stats.VotesAccepted = int(accepted)
	stats.VotesDuplicate = int(duplicate)
	stats.VotesFailed = int(failed)

	log.Info(ctx, "vote submission completed",
		logger.Int("accepted", stats.VotesAccepted),
		logger.Int("duplicate", stats.VotesDuplicate),
		logger.Int("failed", stats.VotesFailed),
	)
	return votes
}

func submitSingleBallot(ctx context.Context, client *HTTPClient, b Ballot) (model.Vote, submitResult) {
	status, body, err := client.Do(ctx, http.MethodPost, "/votes", b.VoterID, b)
	if err != nil {
		return model.Vote{}, resultFailed
	}

	switch status {
	case http.StatusCreated:
		var v model.Vote
		if err := json.Unmarshal(body, &v); err != nil {
			return model.Vote{}, resultFailed
		}
		return v, resultAccepted
	case http.StatusOK:
		var ack AckResponse
		if err := json.Unmarshal(body, &ack); err == nil && ack.Duplicate {
			return model.Vote{}, resultDuplicate
		}
		return model.Vote{}, resultFailed
	default:
		return model.Vote{}, resultFailed
	}
}
