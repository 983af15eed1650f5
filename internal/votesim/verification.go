package votesim

import (
	"context"
	"errors"
	"fmt"
	"math"
	"net/url"

	"github.com/okian/nameswap/internal/domain/model"
	"github.com/okian/nameswap/internal/domain/replay"
	"github.com/okian/nameswap/pkg/logger"
)

// ErrDrift reports a served rating that differs from the local replay.
var ErrDrift = errors.New("rating drift")

// verifyGlobal checks that the live board equals a replay of every accepted
// vote from the baseline.
func verifyGlobal(ctx context.Context, client *HTTPClient, config *Config, baseline float64, votes []model.Vote, stats *Stats) error {
	var r Ranking
	if err := client.GetJSON(ctx, rankingsPath(config.Category, "global", ""), "", &r); err != nil {
		return err
	}

	universe := make([]model.Item, len(r.Entries))
	for i, e := range r.Entries {
		universe[i] = e.Item
	}
	expected := replay.Run(universe, votes, baseline)

	for i, e := range r.Entries {
		if i > 0 && e.Item.Rating > r.Entries[i-1].Item.Rating {
			return fmt.Errorf("global board not sorted at %d: %s above %s", i, e.Item.ID, r.Entries[i-1].Item.ID)
		}
		if err := compare(stats, "global", e.Item, expected.Ratings[e.Item.ID]); err != nil {
			return err
		}
	}
	stats.ItemsVerified = len(r.Entries)
	logger.Get().Info(ctx, "global board verified", logger.Int("items", len(r.Entries)), logger.Int("applied", expected.Applied))
	return nil
}

// verifyVoters checks personal rankings of a few voters against a replay of
// their own votes.
func verifyVoters(ctx context.Context, client *HTTPClient, config *Config, baseline float64, votes []model.Vote, stats *Stats) error {
	byVoter := make(map[string][]model.Vote)
	order := make([]string, 0)
	for _, v := range replay.Chronological(votes) {
		if _, ok := byVoter[v.VoterID]; !ok {
			order = append(order, v.VoterID)
		}
		byVoter[v.VoterID] = append(byVoter[v.VoterID], v)
	}

	for _, voter := range order[:min(VotersToVerify, len(order))] {
		var r Ranking
		if err := client.GetJSON(ctx, rankingsPath(config.Category, "user", voter), "", &r); err != nil {
			return err
		}
		if r.Fallback {
			return fmt.Errorf("%w: voter %s got the fallback ranking", ErrDrift, voter)
		}

		universe := make([]model.Item, len(r.Entries))
		for i, e := range r.Entries {
			universe[i] = e.Item
		}
		expected := replay.Run(universe, byVoter[voter], baseline)
		if expected.Applied != r.Applied {
			return fmt.Errorf("%w: voter %s applied %d votes, want %d", ErrDrift, voter, r.Applied, expected.Applied)
		}
		for _, e := range r.Entries {
			if err := compare(stats, voter, e.Item, expected.Ratings[e.Item.ID]); err != nil {
				return err
			}
		}
		stats.VotersVerified++
	}

	logger.Get().Info(ctx, "personal rankings verified", logger.Int("voters", stats.VotersVerified))
	return nil
}

func compare(stats *Stats, scope string, it model.Item, want float64) error {
	drift := math.Abs(it.Rating - want)
	stats.MaxDrift = max(stats.MaxDrift, drift)
	if drift > RatingTolerance {
		return fmt.Errorf("%w: %s %s served %.6f, replay %.6f", ErrDrift, scope, it.ID, it.Rating, want)
	}
	return nil
}

func rankingsPath(c model.Category, kind, id string) string {
	q := url.Values{}
	q.Set("category", string(c))
	q.Set("scope", kind)
	if id != "" {
		q.Set("id", id)
	}
	return "/rankings?" + q.Encode()
}
