package backfill

import (
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"time"

	"github.com/rotisserie/eris"

	"github.com/okian/outreach/internal/domain/model"
	"github.com/okian/outreach/pkg/logger"
)

// File permission constants.
const (
	directoryPermission = 0o750
	filePermission      = 0o600
	percentage          = 100
)

// FilingSource fetches filings posted in a date range.
type FilingSource interface {
	FetchFilings(ctx context.Context, from, to time.Time) ([]model.Filing, error)
}

// Runner ties a filing source to a service.
type Runner struct {
	cfg    *Config
	source FilingSource
	sub    Submitter
	health func(ctx context.Context) error
	log    logger.Logger
}

// NewRunner builds a Runner that submits through an HTTP Client for cfg.
func NewRunner(cfg *Config, source FilingSource, log logger.Logger) *Runner {
	client := NewClient(cfg, log)
	return &Runner{cfg: cfg, source: source, sub: client, health: client.Health, log: log}
}

// Run fetches [from, to], optionally snapshots the filings to a file, and
// submits them unless the run is dry.
func (r *Runner) Run(ctx context.Context, from, to time.Time) (*Stats, error) {
	if r.source == nil {
		return nil, ErrNoSource
	}
	stats := &Stats{StartTime: time.Now()}

	r.log.Info(ctx, "starting backfill",
		logger.String("baseURL", r.cfg.BaseURL),
		logger.String("from", from.Format(time.DateOnly)),
		logger.String("to", to.Format(time.DateOnly)),
		logger.Int("workers", r.cfg.Workers),
		logger.Bool("dryRun", r.cfg.DryRun),
	)

	if !r.cfg.DryRun {
		if err := r.health(ctx); err != nil {
			return nil, eris.Wrap(err, "service health check")
		}
	}

	filings, err := r.source.FetchFilings(ctx, from, to)
	if err != nil {
		return nil, eris.Wrap(err, "fetch filings")
	}
	stats.Fetched = len(filings)
	r.log.Info(ctx, "fetched filings", logger.Int("filings", len(filings)))

	if r.cfg.OutputFile != "" {
		if err := SaveFilings(r.cfg.OutputFile, filings); err != nil {
			r.log.Warn(ctx, "failed to save filings", logger.Error(err))
		} else {
			r.log.Info(ctx, "filings saved", logger.String("file", r.cfg.OutputFile))
		}
	}

	if !r.cfg.DryRun {
		if err := SubmitAll(ctx, r.sub, filings, r.cfg.Workers, stats, r.log); err != nil {
			return stats, eris.Wrap(err, "submit filings")
		}
	}

	stats.EndTime = time.Now()
	stats.Duration = stats.EndTime.Sub(stats.StartTime)
	r.logFinalStats(ctx, stats)
	return stats, nil
}

// SaveFilings writes filings as an indented JSON array, creating parent
// directories as needed.
func SaveFilings(path string, filings []model.Filing) error {
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, directoryPermission); err != nil {
			return eris.Wrap(err, "create directory")
		}
	}
	if filings == nil {
		filings = []model.Filing{}
	}
	data, err := json.MarshalIndent(filings, "", "  ")
	if err != nil {
		return eris.Wrap(err, "encode filings")
	}
	if err := os.WriteFile(path, append(data, '\n'), filePermission); err != nil {
		return eris.Wrap(err, "write filings")
	}
	return nil
}

func (r *Runner) logFinalStats(ctx context.Context, stats *Stats) {
	var acceptRate, perSecond float64
	if stats.Submitted > 0 {
		acceptRate = float64(stats.Accepted) / float64(stats.Submitted) * percentage
	}
	if stats.Duration > 0 {
		perSecond = float64(stats.Submitted) / stats.Duration.Seconds()
	}

	r.log.Info(ctx, "final statistics",
		logger.Int("fetched", stats.Fetched),
		logger.Int("submitted", stats.Submitted),
		logger.Int("accepted", stats.Accepted),
		logger.Int("duplicate", stats.Duplicate),
		logger.Int("rejected", stats.Rejected),
		logger.Int("failed", stats.Failed),
		logger.String("duration", stats.Duration.String()),
		logger.Float64("acceptRate", acceptRate),
		logger.Float64("filingsPerSecond", perSecond),
	)
}
