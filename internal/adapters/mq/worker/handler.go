package worker

import (
	"context"
	"errors"
	"time"

	"github.com/rotisserie/eris"

	"github.com/okian/outreach/internal/adapters/mq/queue"
	"github.com/okian/outreach/internal/adapters/repository"
	"github.com/okian/outreach/internal/domain/funding"
	"github.com/okian/outreach/internal/domain/model"
	"github.com/okian/outreach/internal/domain/pipeline"
	"github.com/okian/outreach/pkg/logger"
	"github.com/okian/outreach/pkg/metrics"
)

// Store is the part of the repository the handler writes through.
type Store interface {
	InsertFiling(ctx context.Context, f model.Filing) (model.Filing, error)
	FilingsByProvider(ctx context.Context, hcpNumber string) ([]model.Filing, error)
	Reclassify(ctx context.Context, id string, derive repository.Deriver) (model.Filing, bool, error)
	SetProviderFunding(ctx context.Context, hcpNumber string, years []model.FundingYear) error
	ProviderFunding(ctx context.Context, hcpNumber string) ([]model.FundingYear, error)
}

// Classifier derives classification fields for a filing.
type Classifier interface {
	Classify(f *model.Filing, history []model.FundingYear) pipeline.Result
	Rescore(f *model.Filing, history []model.FundingYear) pipeline.Result
}

// HistorySource fetches a provider's funding history from upstream.
type HistorySource interface {
	FetchFundingHistory(ctx context.Context, hcpNumber string) ([]model.FundingYear, error)
}

// Enqueuer schedules follow-up jobs.
type Enqueuer interface {
	Enqueue(ctx context.Context, j queue.Job) bool
}

// Forgetter releases a dedup key.
type Forgetter interface {
	Unrecord(ctx context.Context, key string)
}

// Handler is the Processor that classifies and stores filings.
type Handler struct {
	store      Store
	classifier Classifier
	history    HistorySource
	enqueuer   Enqueuer
	forgetter  Forgetter
	logger     logger.Logger
}

// NewHandler builds a Handler.
func NewHandler(store Store, classifier Classifier, opts ...HandlerOption) *Handler {
	h := &Handler{store: store, classifier: classifier}
	for _, opt := range opts {
		opt(h)
	}
	if h.logger == nil {
		h.logger = logger.Get().Named("handler")
	}
	return h
}

// Process implements Processor.
func (h *Handler) Process(ctx context.Context, j Job) error { //nolint:gocritic // hugeParam: Job is passed by value for channel semantics
	switch j.Kind {
	case queue.KindIngest:
		return h.ingest(ctx, j.Filing, j.FetchHistory)
	case queue.KindRescore:
		return h.rescore(ctx, j.FilingID, j.HCPNumber)
	default:
		return eris.Wrapf(queue.ErrUnknownKind, "kind %q", j.Kind)
	}
}

func (h *Handler) ingest(ctx context.Context, f model.Filing, fetchHistory bool) error { //nolint:gocritic // hugeParam: filing copied on purpose
	history, err := h.store.ProviderFunding(ctx, f.HCPNumber)
	if err != nil {
		return eris.Wrapf(err, "load funding history for %s", f.HCPNumber)
	}

	start := time.Now()
	res := h.classifier.Classify(&f, history)
	res.Apply(&f)
	metrics.RecordClassificationLatency(float64(time.Since(start).Microseconds()) / 1000)

	saved, err := h.store.InsertFiling(ctx, f)
	if errors.Is(err, repository.ErrDuplicate) {
		metrics.RecordFilingDuplicate()
		h.logger.Debug(ctx, "duplicate filing skipped", logger.String("dedup_hash", f.DedupHash))
		return nil
	}
	if err != nil {
		if h.forgetter != nil {
			h.forgetter.Unrecord(ctx, f.DedupHash)
		}
		return eris.Wrap(err, "insert filing")
	}

	metrics.RecordFilingIngested()

	// History stored after the read above is not visible to a provider
	// rescore that ran before the insert.
	latest, changed, err := h.store.Reclassify(ctx, saved.ID, h.derive)
	switch {
	case err != nil:
		h.logger.Warn(ctx, "post-insert rescore failed", logger.String("filing_id", saved.ID), logger.Error(err))
	case changed:
		saved = latest
	}
	recordClassification(&saved.Classification)

	if fetchHistory && h.history != nil && saved.HCPNumber != "" {
		h.refreshHistory(ctx, saved.HCPNumber)
	}
	return nil
}

// refreshHistory pulls upstream history, stores it and schedules a provider
// rescore. Failures are logged; the filing is already stored.
func (h *Handler) refreshHistory(ctx context.Context, hcp string) {
	years, err := h.history.FetchFundingHistory(ctx, hcp)
	if err != nil {
		metrics.RecordErrorByComponent("worker", "history_fetch")
		h.logger.Warn(ctx, "funding history fetch failed", logger.String("hcp_number", hcp), logger.Error(err))
		return
	}
	if len(years) == 0 {
		return
	}
	if err := funding.Validate(years); err != nil {
		h.logger.Warn(ctx, "funding history rejected", logger.String("hcp_number", hcp), logger.Error(err))
		return
	}
	if err := h.store.SetProviderFunding(ctx, hcp, years); err != nil {
		h.logger.Error(ctx, "store funding history failed", logger.String("hcp_number", hcp), logger.Error(err))
		return
	}
	if h.enqueuer != nil && !h.enqueuer.Enqueue(ctx, queue.RescoreProvider(hcp)) {
		h.logger.Warn(ctx, "rescore not enqueued, queue full", logger.String("hcp_number", hcp))
	}
}

func (h *Handler) rescore(ctx context.Context, filingID, hcp string) error {
	ids := []string{filingID}
	if filingID == "" {
		fs, err := h.store.FilingsByProvider(ctx, hcp)
		if err != nil {
			return eris.Wrapf(err, "load filings of %s", hcp)
		}
		ids = make([]string, len(fs))
		for i := range fs {
			ids[i] = fs[i].ID
		}
	}

	changed := 0
	for _, id := range ids {
		f, ok, err := h.store.Reclassify(ctx, id, h.derive)
		if err != nil {
			return eris.Wrapf(err, "rescore filing %s", id)
		}
		if ok {
			changed++
			recordClassification(&f.Classification)
		}
	}

	h.logger.Debug(ctx, "rescored filings",
		logger.String("hcp_number", hcp),
		logger.String("filing_id", filingID),
		logger.Int("filings", len(ids)),
		logger.Int("changed", changed),
	)
	return nil
}

// derive recomputes the funding, priority and routing fields of f and keeps
// its stored contact classification.
func (h *Handler) derive(f *model.Filing, history []model.FundingYear) model.Classification {
	return h.classifier.Rescore(f, history).Classification
}

func recordClassification(c *model.Classification) {
	metrics.RecordClassification(string(c.Route), string(c.PriorityLabel), string(c.ConsultantDetectionMethod))
	if c.IsConsultant {
		metrics.RecordConsultantDetection(string(c.ConsultantDetectionMethod))
	}
}
