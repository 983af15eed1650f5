package votesim

import (
	"time"

	"github.com/okian/nameswap/internal/domain/model"
)

// Config holds configuration for a simulation run.
type Config struct {
	BaseURL       string         // Base URL of the service
	Category      model.Category // Category to vote in
	Voters        int            // Number of distinct voters
	Votes         int            // Number of votes to cast
	Workers       int            // Number of concurrent workers
	DuplicateRate float64        // Share of votes resent with the same submission id
	Seed          uint64         // Seed for voter choice and outcomes
	Timeout       time.Duration  // HTTP request timeout
	OutputFile    string         // Output file for accepted votes
	Verbose       bool           // Enable verbose logging
}

// Ballot is one POST /votes body plus the voter sending it.
type Ballot struct {
	VoterID      string `json:"-"`
	SubmissionID string `json:"submission_id"`
	FirstID      string `json:"first_id"`
	SecondID     string `json:"second_id"`
	Outcome      string `json:"outcome"`
}

// Pair is the GET /pair response.
type Pair struct {
	Category model.Category `json:"category"`
	First    model.Item     `json:"first"`
	Second   model.Item     `json:"second"`
}

// Ranking is the GET /rankings response.
type Ranking struct {
	Scope    string `json:"scope"`
	Fallback bool   `json:"fallback"`
	Applied  int    `json:"applied"`
	Entries  []struct {
		Rank int        `json:"rank"`
		Item model.Item `json:"item"`
	} `json:"entries"`
}

// AckResponse is returned for a resent submission.
type AckResponse struct {
	Status    string `json:"status"`
	Duplicate bool   `json:"duplicate"`
}

// Stats holds run statistics.
type Stats struct {
	BallotsGenerated int
	VotesSubmitted   int
	VotesAccepted    int
	VotesDuplicate   int
	VotesFailed      int
	ItemsVerified    int
	VotersVerified   int
	MaxDrift         float64
	StartTime        time.Time
	EndTime          time.Time
	Duration         time.Duration
}
