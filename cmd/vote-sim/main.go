package main

import (
	"context"
	"flag"
	"os"
	"os/signal"
	"runtime"
	"syscall"
	"time"

	"github.com/okian/nameswap/internal/domain/model"
	"github.com/okian/nameswap/internal/votesim"
	"github.com/okian/nameswap/pkg/logger"
)

// Default configuration constants.
const (
	defaultVoters        = 20
	defaultVotes         = 1000
	defaultWorkers       = 2 // multiplier for runtime.NumCPU()
	defaultDuplicateRate = 0.05
	defaultTimeout       = 30 * time.Second
	defaultRunTimeout    = 10 * time.Minute
)

func main() {
	var (
		baseURL    = flag.String("url", "http://localhost:9080", "Base URL of the service")
		category   = flag.String("category", "girl", "Category to vote in")
		voters     = flag.Int("voters", defaultVoters, "Number of distinct voters")
		votes      = flag.Int("votes", defaultVotes, "Number of votes to cast")
		workers    = flag.Int("workers", runtime.NumCPU()*defaultWorkers, "Number of concurrent workers")
		duplicates = flag.Float64("duplicates", defaultDuplicateRate, "Share of votes resent with the same submission id")
		seed       = flag.Uint64("seed", 1, "Seed for voter choice and outcomes")
		timeout    = flag.Duration("timeout", defaultTimeout, "HTTP request timeout")
		outputFile = flag.String("output", "", "Write accepted votes to this JSON file")
		logFile    = flag.String("log", "", "Also log to this file")
		verbose    = flag.Bool("verbose", false, "Enable verbose logging")
		help       = flag.Bool("help", false, "Show help")
	)
	flag.Parse()

	if *help {
		votesim.ShowHelp()
		return
	}

	closer, err := votesim.SetupLogging(*logFile, *verbose)
	if err != nil {
		os.Stderr.WriteString("Failed to setup logging: " + err.Error() + "\n")
		os.Exit(1)
	}
	defer closer.Close()

	c, err := model.ParseCategory(*category)
	if err != nil {
		os.Stderr.WriteString(err.Error() + "\n")
		os.Exit(2)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()
	ctx, cancel := context.WithTimeout(ctx, defaultRunTimeout)
	defer cancel()

	config := &votesim.Config{
		BaseURL:       *baseURL,
		Category:      c,
		Voters:        *voters,
		Votes:         *votes,
		Workers:       *workers,
		DuplicateRate: *duplicates,
		Seed:          *seed,
		Timeout:       *timeout,
		OutputFile:    *outputFile,
		Verbose:       *verbose,
	}

	if _, err := votesim.Run(ctx, config); err != nil {
		logger.Get().Error(ctx, "simulation failed", logger.Error(err))
		cancel()
		os.Exit(1)
	}
}
