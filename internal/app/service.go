// Package service wires the store, deduper, job queue, workers,
// classification engine and upstream clients, and implements the operations
// the HTTP API exposes.
package service

import (
	"context"
	"encoding/json"
	"errors"
	"runtime"
	"sync"
	"time"

	"github.com/rotisserie/eris"

	jobqueue "github.com/okian/outreach/internal/adapters/mq/queue"
	workerpool "github.com/okian/outreach/internal/adapters/mq/worker"
	"github.com/okian/outreach/internal/adapters/repository"
	"github.com/okian/outreach/internal/adapters/webhook"
	"github.com/okian/outreach/internal/domain/dedupe"
	"github.com/okian/outreach/internal/domain/funding"
	"github.com/okian/outreach/internal/domain/model"
	"github.com/okian/outreach/internal/domain/pipeline"
	"github.com/okian/outreach/pkg/logger"
	"github.com/okian/outreach/pkg/metrics"
)

const (
	defaultQueueSize    = 10_000
	defaultDedupeSize   = 200_000
	defaultMaxListLimit = 500
	defaultListLimit    = 50
	stopTimeout         = 30 * time.Second
)

// FilingSource lists filings posted in a date range.
type FilingSource interface {
	FetchFilings(ctx context.Context, from, to time.Time) ([]model.Filing, error)
}

// HistorySource fetches a provider's funding history.
type HistorySource = workerpool.HistorySource

// Workflows triggers the automation platform's workflows.
type Workflows interface {
	TriggerEnrichment(ctx context.Context, filingID, hcp, clinic string) (json.RawMessage, error)
	RequestOutreachDraft(ctx context.Context, filingID, userID string) (webhook.Draft, error)
}

// SubmitStatus is the outcome of a submission.
type SubmitStatus string

const (
	SubmitAccepted  SubmitStatus = "accepted"
	SubmitDuplicate SubmitStatus = "duplicate"
)

// SubmitResult reports what happened to a submitted filing.
type SubmitResult struct {
	Status    SubmitStatus `json:"status"`
	DedupHash string       `json:"dedup_hash"`
	// FilingID names the stored filing a duplicate matched. It is empty
	// while the first submission is still queued.
	FilingID string `json:"filing_id,omitempty"`
}

// IngestSummary counts the outcome of a range ingest.
type IngestSummary struct {
	TotalFetched int `json:"total_fetched"`
	Inserted     int `json:"inserted"`
	Skipped      int `json:"skipped"`
	Errors       int `json:"errors"`
}

// Service implements the API dependencies for the outreach dashboard.
type Service struct {
	mu sync.RWMutex

	// Core components
	store   repository.Store
	deduper dedupe.Deduper
	queue   *jobqueue.InMemoryQueue
	engine  *pipeline.Engine
	handler *workerpool.Handler
	pool    *workerpool.Pool

	// Upstream integrations, optional
	filings   FilingSource
	history   HistorySource
	workflows Workflows

	// Configuration
	workerCount  int
	queueSize    int
	dedupeSize   int
	maxListLimit int

	now func() time.Time

	started bool
	cancel  context.CancelFunc

	logger logger.Logger
}

// New constructs a new Service with default configuration.
func New(opts ...Option) *Service {
	s := &Service{
		engine:       pipeline.New(),
		workerCount:  runtime.NumCPU() * 2,
		queueSize:    defaultQueueSize,
		dedupeSize:   defaultDedupeSize,
		maxListLimit: defaultMaxListLimit,
		now:          func() time.Time { return time.Now().UTC() },
	}

	for _, opt := range opts {
		opt(s)
	}

	return s
}

// Start initializes and starts the service components.
func (s *Service) Start(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.started {
		return nil
	}

	if s.logger == nil {
		s.logger = logger.Get().Named("service")
	}

	s.logger.Info(ctx, "starting outreach service...")

	// Workers outlive the ctx passed to Start; Stop cancels them.
	runCtx, cancel := context.WithCancel(context.WithoutCancel(ctx))
	s.cancel = cancel

	if s.store == nil {
		s.store = repository.NewMemoryStore(runCtx)
		s.logger.Info(ctx, "using memory store")
	}
	s.deduper = dedupe.NewInMemoryDeduper(dedupe.WithMaxSize(s.dedupeSize))
	s.queue = jobqueue.NewInMemoryQueue(
		jobqueue.WithCapacity(s.queueSize),
		jobqueue.WithBufferSize(s.queueSize),
	)

	handlerOpts := []workerpool.HandlerOption{
		workerpool.WithEnqueuer(s.queue),
		workerpool.WithForgetter(s.deduper),
		workerpool.WithHandlerLogger(s.logger.Named("handler")),
	}
	if s.history != nil {
		handlerOpts = append(handlerOpts, workerpool.WithHistorySource(s.history))
	}
	s.handler = workerpool.NewHandler(s.store, s.engine, handlerOpts...)

	s.pool = workerpool.NewPool(s.workerCount, s.queue, s.handler, workerpool.WithLogger(s.logger.Named("worker")))
	s.pool.Start(runCtx)

	s.started = true
	s.logger.Info(ctx, "outreach service started",
		logger.Int("workers", s.workerCount),
		logger.Int("queueSize", s.queueSize),
		logger.Int("dedupeSize", s.dedupeSize),
		logger.Bool("historySource", s.history != nil),
		logger.Bool("workflows", s.workflows != nil),
	)

	return nil
}

// Stop drains the queue, stops the workers and closes the store.
func (s *Service) Stop() {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.started {
		return
	}

	ctx := context.Background()
	s.logger.Info(ctx, "stopping outreach service...")

	shutdownCtx, cancel := context.WithTimeout(ctx, stopTimeout)
	defer cancel()
	if err := s.pool.Shutdown(shutdownCtx); err != nil {
		s.logger.Warn(ctx, "worker pool did not drain", logger.Error(err))
	}
	s.cancel()

	if err := s.store.Close(); err != nil {
		s.logger.Error(ctx, "error closing store", logger.Error(err))
	}

	s.started = false
	s.logger.Info(ctx, "outreach service stopped")
}

func (s *Service) running() error {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if !s.started {
		return ErrNotStarted
	}
	return nil
}

// Submit validates a raw filing and queues it for classification.
// Submissions already seen are reported as duplicates without queueing.
func (s *Service) Submit(ctx context.Context, f model.Filing) (SubmitResult, error) { //nolint:gocritic // hugeParam: filing is copied onto the queue
	if err := s.running(); err != nil {
		return SubmitResult{}, err
	}

	key, err := dedupe.StrictKey(f.HCPNumber, f.FilingDate, f.ClinicName, f.Address)
	if err != nil {
		metrics.RecordFilingRejected("empty_key")
		return SubmitResult{}, err
	}
	if err := funding.Validate(f.HistoricalFunding); err != nil {
		metrics.RecordFilingRejected("negative_funding")
		return SubmitResult{}, err
	}

	if s.deduper.SeenAndRecord(ctx, key) {
		metrics.RecordFilingDuplicate()
		return s.duplicate(ctx, key), nil
	}

	if len(f.HistoricalFunding) > 0 && f.HCPNumber != "" {
		if err := s.store.SetProviderFunding(ctx, f.HCPNumber, f.HistoricalFunding); err != nil {
			s.deduper.Unrecord(ctx, key)
			return SubmitResult{}, eris.Wrap(err, "store submitted funding history")
		}
	}

	f.ID = ""
	f.DedupHash = key
	f.HistoricalFunding = nil
	if !s.queue.Enqueue(ctx, jobqueue.IngestJob(f, s.history != nil)) {
		s.deduper.Unrecord(ctx, key)
		return SubmitResult{}, ErrQueueFull
	}

	return SubmitResult{Status: SubmitAccepted, DedupHash: key}, nil
}

func (s *Service) duplicate(ctx context.Context, key string) SubmitResult {
	res := SubmitResult{Status: SubmitDuplicate, DedupHash: key}
	existing, err := s.store.FilingByHash(ctx, key)
	switch {
	case err == nil:
		res.FilingID = existing.ID
	case !errors.Is(err, repository.ErrNotFound):
		s.logger.Warn(ctx, "duplicate lookup failed", logger.String("dedup_hash", key), logger.Error(err))
	}
	return res
}

// IngestRange pulls filings posted between from and to and submits each one.
func (s *Service) IngestRange(ctx context.Context, from, to time.Time) (IngestSummary, error) {
	if s.filings == nil {
		return IngestSummary{}, ErrNotConfigured
	}
	if !to.IsZero() && to.Before(from) {
		return IngestSummary{}, ErrInvalidRange
	}

	fetched, err := s.filings.FetchFilings(ctx, from, to)
	if err != nil {
		return IngestSummary{}, eris.Wrap(err, "fetch filings")
	}

	sum := IngestSummary{TotalFetched: len(fetched)}
	for i := range fetched {
		res, err := s.Submit(ctx, fetched[i])
		switch {
		case err != nil:
			sum.Errors++
			if errors.Is(err, ErrNotStarted) {
				return sum, err
			}
			s.logger.Debug(ctx, "filing not submitted",
				logger.String("hcp_number", fetched[i].HCPNumber),
				logger.Error(err),
			)
		case res.Status == SubmitDuplicate:
			sum.Skipped++
		default:
			sum.Inserted++
		}
	}

	s.logger.Info(ctx, "range ingested",
		logger.Int("fetched", sum.TotalFetched),
		logger.Int("inserted", sum.Inserted),
		logger.Int("skipped", sum.Skipped),
		logger.Int("errors", sum.Errors),
	)
	return sum, nil
}

// scheduleRescore queues a rescore, running it inline when the queue is full.
func (s *Service) scheduleRescore(ctx context.Context, j jobqueue.Job) { //nolint:gocritic // hugeParam: Job is passed by value
	if s.queue.Enqueue(ctx, j) {
		return
	}
	if err := s.handler.Process(ctx, j); err != nil {
		s.logger.Error(ctx, "inline rescore failed",
			logger.String("filing_id", j.FilingID),
			logger.String("hcp_number", j.HCPNumber),
			logger.Error(err),
		)
	}
}

// GetStats returns service statistics for monitoring.
func (s *Service) GetStats(ctx context.Context) map[string]interface{} {
	s.mu.RLock()
	defer s.mu.RUnlock()

	stats := map[string]interface{}{
		"started":     s.started,
		"workerCount": s.workerCount,
		"queueSize":   s.queueSize,
		"dedupeSize":  s.dedupeSize,
	}

	if s.started {
		queueLen := s.queue.Len(ctx)
		stats["queueLength"] = queueLen
		stats["dedupeEntries"] = s.deduper.Size()
		stats["jobsProcessed"] = s.pool.Processed()
		stats["jobsFailed"] = s.pool.Failed()

		if total, err := s.store.Count(ctx); err == nil {
			stats["totalFilings"] = total
			metrics.UpdateFilingsTotal(total)
		}
		metrics.UpdateQueueSize(queueLen)
	}

	return stats
}
