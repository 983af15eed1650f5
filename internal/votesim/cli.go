package votesim

import (
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/okian/nameswap/pkg/logger"
)

const logFilePermission = 0600

// SetupLogging initializes the global logger on stdout and, when logFile is
// set, on that file too.
func SetupLogging(logFile string, verbose bool) (io.Closer, error) {
	var (
		w      io.Writer = os.Stdout
		closer io.Closer = io.NopCloser(nil)
	)
	if logFile != "" {
		f, err := os.OpenFile(logFile, os.O_CREATE|os.O_WRONLY|os.O_APPEND, logFilePermission)
		if err != nil {
			return nil, fmt.Errorf("failed to create log file: %w", err)
		}
		w, closer = io.MultiWriter(os.Stdout, f), f
	}

	if err := logger.Init(logger.WithWriter(w)); err != nil {
		return nil, fmt.Errorf("failed to initialize logger: %w", err)
	}
	level := slog.LevelInfo
	if verbose {
		level = slog.LevelDebug
	}
	logger.SetLevel(level)
	return closer, nil
}

// ShowHelp prints usage information for the simulator.
func ShowHelp() {
	os.Stdout.WriteString(`Nameswap Vote Simulator
=======================

Casts random votes from many voters against a running service, then checks
that the global board and personal rankings equal a local replay.

Usage:
  go run ./cmd/vote-sim [options]

Options:
  -url string
        Base URL of the service (default "http://localhost:9080")
  -category string
        Category to vote in: boy or girl (default "girl")
  -voters int
        Number of distinct voters (default 20)
  -votes int
        Number of votes to cast (default 1000)
  -workers int
        Number of concurrent workers (default CPU cores * 2)
  -duplicates float
        Share of votes resent with the same submission id (default 0.05)
  -seed uint
        Seed for voter choice and outcomes (default 1)
  -timeout duration
        HTTP request timeout (default 30s)
  -output string
        Write accepted votes to this JSON file
  -log string
        Also log to this file
  -verbose
        Enable verbose logging
  -help
        Show this help message

Run it against a freshly started service: the global check is skipped when
the service already holds votes.
`)
}
