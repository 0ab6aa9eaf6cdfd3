package service

import (
	"time"

	"github.com/okian/outreach/internal/adapters/repository"
	"github.com/okian/outreach/pkg/logger"
)

// Option applies a configuration option to the Service.
type Option func(*Service)

// WithWorkerCount sets the number of worker goroutines.
func WithWorkerCount(count int) Option {
	return func(s *Service) {
		if count > 0 {
			s.workerCount = count
		}
	}
}

// WithQueueSize sets the maximum size of the job queue.
func WithQueueSize(size int) Option {
	return func(s *Service) {
		if size > 0 {
			s.queueSize = size
		}
	}
}

// WithDedupeSize sets the size of the deduplication cache.
func WithDedupeSize(size int) Option {
	return func(s *Service) {
		if size > 0 {
			s.dedupeSize = size
		}
	}
}

// WithMaxListLimit caps page sizes on listings.
func WithMaxListLimit(n int) Option {
	return func(s *Service) {
		if n > 0 {
			s.maxListLimit = n
		}
	}
}

// WithStore sets the backing store. Without it Start creates a memory store.
func WithStore(store repository.Store) Option {
	return func(s *Service) { s.store = store }
}

// WithFilingSource enables IngestRange.
func WithFilingSource(src FilingSource) Option {
	return func(s *Service) { s.filings = src }
}

// WithHistorySource makes ingest jobs pull funding history after the insert.
func WithHistorySource(src HistorySource) Option {
	return func(s *Service) { s.history = src }
}

// WithWorkflows enables enrichment and outreach draft requests.
func WithWorkflows(w Workflows) Option {
	return func(s *Service) { s.workflows = w }
}

// WithClock overrides the time source used for notes and groups.
func WithClock(now func() time.Time) Option {
	return func(s *Service) {
		if now != nil {
			s.now = now
		}
	}
}

// WithLogger sets a custom logger for the service.
func WithLogger(l logger.Logger) Option {
	return func(s *Service) {
		if l != nil {
			s.logger = l
		}
	}
}
