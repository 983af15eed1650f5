package votesim

import (
	"context"
	"fmt"
	"math/rand/v2"
	"net/url"

	"github.com/google/uuid"
	"github.com/okian/nameswap/internal/domain/model"
	"github.com/okian/nameswap/pkg/logger"
)

var outcomes = []model.Outcome{model.FirstWins, model.SecondWins, model.Tie}

// generateVoters creates n opaque voter ids.
func generateVoters(n int) []string {
	voters := make([]string, n)
	for i := range voters {
		voters[i] = "sim-" + uuid.NewString()
	}
	return voters
}

// generateBallots asks the service for pairs and fills in a random voter
// and outcome for each. Some ballots are repeated verbatim so that the
// submission dedupe is exercised.
func generateBallots(ctx context.Context, client *HTTPClient, config *Config, voters []string, stats *Stats) ([]Ballot, error) {
	logger.Get().Info(ctx, "generating ballots", logger.Int("votes", config.Votes), logger.Int("voters", len(voters)))

	rng := rand.New(rand.NewPCG(config.Seed, config.Seed^0x9e3779b97f4a7c15))
	path := "/pair?category=" + url.QueryEscape(string(config.Category))

	ballots := make([]Ballot, 0, config.Votes)
	for len(ballots) < config.Votes {
		if err := ctx.Err(); err != nil {
			return nil, fmt.Errorf("context cancelled during ballot generation: %w", err)
		}

		if len(ballots) > 0 && rng.Float64() < config.DuplicateRate {
			ballots = append(ballots, ballots[rng.IntN(len(ballots))])
			continue
		}

		voter := voters[rng.IntN(len(voters))]
		var p Pair
		if err := client.GetJSON(ctx, path, voter, &p); err != nil {
			return nil, fmt.Errorf("failed to fetch pair: %w", err)
		}
		ballots = append(ballots, Ballot{
			VoterID:      voter,
			SubmissionID: uuid.NewString(),
			FirstID:      p.First.ID,
			SecondID:     p.Second.ID,
			Outcome:      outcomes[rng.IntN(len(outcomes))].String(),
		})
	}

	stats.BallotsGenerated = len(ballots)
	logger.Get().Info(ctx, "generated ballots", logger.Int("count", len(ballots)))
	return ballots, nil
}
