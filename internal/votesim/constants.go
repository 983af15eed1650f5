package votesim

import "time"

// Worker configuration constants.
const (
	WorkerChannelMultiplier = 2
)

// Verification constants.
const (
	// RatingTolerance absorbs float rounding through the JSON round trip.
	RatingTolerance      = 1e-6
	VotersToVerify       = 5
	PercentageMultiplier = 100
)

const progressInterval = time.Second
