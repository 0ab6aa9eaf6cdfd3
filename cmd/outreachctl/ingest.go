package main

import (
	"os/signal"
	"runtime"
	"syscall"
	"time"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"

	"github.com/okian/outreach/internal/adapters/usac"
	"github.com/okian/outreach/internal/backfill"
	"github.com/okian/outreach/pkg/logger"
)

const workersPerCPU = 2

var ingestOpts struct {
	from       string
	to         string
	url        string
	workers    int
	timeout    time.Duration
	maxRetries int
	output     string
	dryRun     bool
}

var ingestCmd = &cobra.Command{
	Use:   "ingest",
	Short: "Fetch USAC filings for a date range and submit them to a running service",
	RunE: func(cmd *cobra.Command, _ []string) error {
		ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()

		from, to, err := parseRange(ingestOpts.from, ingestOpts.to, time.Now())
		if err != nil {
			return err
		}
		if cfg.USACFilingsDataset == "" {
			return eris.Wrap(usac.ErrNotConfigured, "usac_filings_dataset is empty")
		}

		log := logger.Get().Named("backfill")
		source := usac.New(
			usac.WithBaseURL(cfg.USACBaseURL),
			usac.WithFilingsDataset(cfg.USACFilingsDataset),
			usac.WithAppToken(cfg.USACAppToken),
			usac.WithRateLimit(cfg.USACRatePerSec),
			usac.WithPageSize(cfg.USACPageSize),
			usac.WithTimeout(cfg.USACTimeout()),
			usac.WithLogger(log.Named("usac")),
		)

		runner := backfill.NewRunner(&backfill.Config{
			BaseURL:    ingestOpts.url,
			Workers:    ingestOpts.workers,
			Timeout:    ingestOpts.timeout,
			MaxRetries: ingestOpts.maxRetries,
			OutputFile: ingestOpts.output,
			DryRun:     ingestOpts.dryRun,
		}, source, log)

		stats, err := runner.Run(ctx, from, to)
		if err != nil {
			return err
		}
		if stats.Failed > 0 {
			return eris.Errorf("%d of %d filings failed to submit", stats.Failed, stats.Submitted)
		}
		return nil
	},
}

// parseRange reads YYYY-MM-DD bounds. An empty to means today.
func parseRange(fromS, toS string, now time.Time) (time.Time, time.Time, error) {
	from, err := time.Parse(time.DateOnly, fromS)
	if err != nil {
		return time.Time{}, time.Time{}, eris.Wrap(err, "--from must be YYYY-MM-DD")
	}
	to := now.UTC().Truncate(24 * time.Hour)
	if toS != "" {
		if to, err = time.Parse(time.DateOnly, toS); err != nil {
			return time.Time{}, time.Time{}, eris.Wrap(err, "--to must be YYYY-MM-DD")
		}
	}
	if to.Before(from) {
		return time.Time{}, time.Time{}, eris.Errorf("--to (%s) is before --from (%s)", to.Format(time.DateOnly), from.Format(time.DateOnly))
	}
	return from, to, nil
}

func init() {
	f := ingestCmd.Flags()
	f.StringVar(&ingestOpts.from, "from", "", "first filing date, YYYY-MM-DD")
	f.StringVar(&ingestOpts.to, "to", "", "last filing date, YYYY-MM-DD (default today)")
	f.StringVar(&ingestOpts.url, "url", backfill.DefaultBaseURL, "base URL of the service")
	f.IntVar(&ingestOpts.workers, "workers", runtime.NumCPU()*workersPerCPU, "concurrent submitters")
	f.DurationVar(&ingestOpts.timeout, "timeout", backfill.DefaultTimeout, "HTTP request timeout")
	f.IntVar(&ingestOpts.maxRetries, "retries", backfill.DefaultMaxRetries, "retries on backpressure or server errors")
	f.StringVar(&ingestOpts.output, "output", "", "also write fetched filings to this JSON file")
	f.BoolVar(&ingestOpts.dryRun, "dry-run", false, "fetch only, do not submit")
	_ = ingestCmd.MarkFlagRequired("from")
	rootCmd.AddCommand(ingestCmd)
}
