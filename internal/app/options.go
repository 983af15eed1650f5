package service

import (
	"time"

	"github.com/okian/nameswap/internal/adapters/storage"
	"github.com/okian/nameswap/internal/domain/universe"
	"github.com/okian/nameswap/pkg/logger"
)

// Option applies a configuration option to the Service.
type Option func(*Service)

// WithLogger sets a custom logger for the service.
func WithLogger(logger logger.Logger) Option {
	return func(s *Service) {
		if logger != nil {
			s.logger = logger
		}
	}
}

// WithStore sets the persistence backend. The caller keeps ownership and
// closes it after Stop.
func WithStore(store storage.Store) Option {
	return func(s *Service) {
		if store != nil {
			s.store = store
		}
	}
}

// WithCatalogue replaces the embedded name catalogue.
func WithCatalogue(entries []universe.Entry) Option {
	return func(s *Service) {
		s.catalogue = entries
	}
}

// WithCatalogueFile loads the name catalogue from a YAML file at Start.
func WithCatalogueFile(path string) Option {
	return func(s *Service) {
		s.catalogueFile = path
	}
}

// WithBaseline sets the starting rating of every item.
func WithBaseline(b float64) Option {
	return func(s *Service) {
		if b > 0 {
			s.baseline = b
		}
	}
}

// WithFallbackLimit caps the global board returned for scopes without votes.
func WithFallbackLimit(n int) Option {
	return func(s *Service) {
		if n > 0 {
			s.fallbackLimit = n
		}
	}
}

// WithDedupeSize sets how many submission ids are remembered.
func WithDedupeSize(size int) Option {
	return func(s *Service) {
		s.dedupeSize = size
	}
}

// WithPersistQueueSize bounds the pending save jobs.
func WithPersistQueueSize(size int) Option {
	return func(s *Service) {
		if size > 0 {
			s.queueSize = size
		}
	}
}

// WithSamplerMaxAttempts bounds redraws when the sampler repeats a pair.
func WithSamplerMaxAttempts(n int) Option {
	return func(s *Service) {
		if n > 0 {
			s.samplerAttempts = n
		}
	}
}

// WithSeed makes pair sampling reproducible.
func WithSeed(seed uint64) Option {
	return func(s *Service) {
		s.seed = &seed
	}
}

// WithClock sets the time source used to stamp votes.
func WithClock(now func() time.Time) Option {
	return func(s *Service) {
		if now != nil {
			s.now = now
		}
	}
}
