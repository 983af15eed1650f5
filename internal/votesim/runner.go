package votesim

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"os"
	"path/filepath"
	"time"

	"github.com/okian/nameswap/internal/domain/model"
	"github.com/okian/nameswap/pkg/logger"
)

// File permission constants.
const (
	directoryPermission = 0750
	filePermission      = 0600
)

// Sentinel errors for invalid runs.
var (
	ErrInvalidConfig = errors.New("invalid simulation config")
	ErrUnhealthy     = errors.New("service unhealthy")
)

// Run executes a complete simulation against config.BaseURL and returns its
// statistics. It fails when any served rating drifts from the local replay.
func Run(ctx context.Context, config *Config) (*Stats, error) {
	if err := validate(config); err != nil {
		return nil, err
	}
	stats := &Stats{StartTime: time.Now()}
	log := logger.Get()

	log.Info(ctx, "starting vote simulation",
		logger.String("baseURL", config.BaseURL),
		logger.String("category", string(config.Category)),
		logger.Int("voters", config.Voters),
		logger.Int("votes", config.Votes),
		logger.Int("workers", config.Workers),
		logger.Float64("duplicateRate", config.DuplicateRate),
	)

	client := newHTTPClient(config.BaseURL, config.Timeout)

	if err := checkServiceHealth(ctx, client); err != nil {
		return nil, err
	}

	var before map[string]any
	if err := client.GetJSON(ctx, "/stats", "", &before); err != nil {
		return nil, fmt.Errorf("stats retrieval failed: %w", err)
	}
	baseline, _ := before["baseline"].(float64)
	existing, _ := before["votes"].(float64)

	voters := generateVoters(config.Voters)
	ballots, err := generateBallots(ctx, client, config, voters, stats)
	if err != nil {
		return nil, fmt.Errorf("ballot generation failed: %w", err)
	}

	votes := submitBallots(ctx, client, config, ballots, stats)

	if existing == 0 {
		if err := verifyGlobal(ctx, client, config, baseline, votes, stats); err != nil {
			return stats, fmt.Errorf("global verification failed: %w", err)
		}
	} else {
		log.Warn(ctx, "service already had votes; skipping global verification", logger.Int("votes", int(existing)))
	}
	if err := verifyVoters(ctx, client, config, baseline, votes, stats); err != nil {
		return stats, fmt.Errorf("personal verification failed: %w", err)
	}

	if config.OutputFile != "" {
		if err := saveVotesToFile(ctx, config.OutputFile, votes); err != nil {
			log.Warn(ctx, "failed to save votes to file", logger.Error(err))
		}
	}

	stats.EndTime = time.Now()
	stats.Duration = stats.EndTime.Sub(stats.StartTime)
	displayFinalStats(ctx, stats)
	return stats, nil
}

func validate(config *Config) error {
	switch {
	case config.BaseURL == "":
		return fmt.Errorf("%w: empty base url", ErrInvalidConfig)
	case !config.Category.Valid():
		return fmt.Errorf("%w: %w", ErrInvalidConfig, model.ErrUnknownCategory)
	case config.Voters < 1, config.Votes < 1, config.Workers < 1:
		return fmt.Errorf("%w: voters, votes and workers must be positive", ErrInvalidConfig)
	case config.DuplicateRate < 0 || config.DuplicateRate >= 1:
		return fmt.Errorf("%w: duplicate rate must be in [0, 1)", ErrInvalidConfig)
	}
	return nil
}

// checkServiceHealth verifies the service is running.
func checkServiceHealth(ctx context.Context, client *HTTPClient) error {
	status, _, err := client.Do(ctx, http.MethodGet, "/healthz", "", nil)
	if err != nil {
		return fmt.Errorf("%w: %w", ErrUnhealthy, err)
	}
	if status != http.StatusOK {
		return fmt.Errorf("%w: status %d", ErrUnhealthy, status)
	}
	logger.Get().Info(ctx, "service is healthy")
	return nil
}

// saveVotesToFile writes the accepted votes as a JSON array.
func saveVotesToFile(ctx context.Context, filename string, votes []model.Vote) error {
	if dir := filepath.Dir(filename); dir != "." {
		if err := os.MkdirAll(dir, directoryPermission); err != nil {
			return fmt.Errorf("failed to create directory: %w", err)
		}
	}

	data, err := json.MarshalIndent(votes, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal votes: %w", err)
	}
	if err := os.WriteFile(filename, data, filePermission); err != nil {
		return fmt.Errorf("failed to write file: %w", err)
	}

	logger.Get().Info(ctx, "votes saved to file", logger.String("filename", filename), logger.Int("count", len(votes)))
	return nil
}

func displayFinalStats(ctx context.Context, stats *Stats) {
	var acceptRate, votesPerSecond float64
	if stats.VotesSubmitted > 0 {
		acceptRate = float64(stats.VotesAccepted) / float64(stats.VotesSubmitted) * PercentageMultiplier
	}
	if stats.Duration > 0 {
		votesPerSecond = float64(stats.VotesSubmitted) / stats.Duration.Seconds()
	}

	logger.Get().Info(ctx, "final statistics",
		logger.Int("ballotsGenerated", stats.BallotsGenerated),
		logger.Int("votesSubmitted", stats.VotesSubmitted),
		logger.Int("votesAccepted", stats.VotesAccepted),
		logger.Int("votesDuplicate", stats.VotesDuplicate),
		logger.Int("votesFailed", stats.VotesFailed),
		logger.Int("itemsVerified", stats.ItemsVerified),
		logger.Int("votersVerified", stats.VotersVerified),
		logger.Float64("maxDrift", stats.MaxDrift),
		logger.Duration("duration", stats.Duration),
		logger.Float64("acceptRate", acceptRate),
		logger.Float64("votesPerSecond", votesPerSecond),
	)
}
