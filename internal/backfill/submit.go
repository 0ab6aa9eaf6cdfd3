package backfill

import (
	"context"
	"sync/atomic"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/okian/outreach/internal/domain/model"
	"github.com/okian/outreach/pkg/logger"
)

const progressInterval = time.Second

// Submitter is what SubmitAll sends filings through.
type Submitter interface {
	Submit(ctx context.Context, f *model.Filing) (Outcome, error)
}

// SubmitAll submits filings concurrently and records the outcomes in stats.
// Individual failures are counted, not returned.
func SubmitAll(ctx context.Context, sub Submitter, filings []model.Filing, workers int, stats *Stats, log logger.Logger) error {
	if workers <= 0 {
		workers = 1
	}
	log.Info(ctx, "submitting filings", logger.Int("filings", len(filings)), logger.Int("workers", workers))

	var (
		submitted atomic.Int64
		accepted  atomic.Int64
		duplicate atomic.Int64
		rejected  atomic.Int64
		failed    atomic.Int64
		lastLog   atomic.Int64
	)

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(workers)

	for i := range filings {
		f := &filings[i]
		if gctx.Err() != nil {
			break
		}
		g.Go(func() error {
			outcome, err := sub.Submit(gctx, f)
			n := submitted.Add(1)
			switch outcome {
			case OutcomeAccepted:
				accepted.Add(1)
			case OutcomeDuplicate:
				duplicate.Add(1)
			case OutcomeRejected:
				rejected.Add(1)
				log.Warn(gctx, "filing rejected", logger.String("hcp_number", f.HCPNumber), logger.Error(err))
			default:
				failed.Add(1)
				log.Error(gctx, "filing submit failed", logger.String("hcp_number", f.HCPNumber), logger.Error(err))
			}

			now := time.Now().UnixNano()
			last := lastLog.Load()
			if now-last >= int64(progressInterval) && lastLog.CompareAndSwap(last, now) {
				log.Info(gctx, "progress",
					logger.Int64("submitted", n),
					logger.Int("total", len(filings)),
					logger.Int64("accepted", accepted.Load()),
					logger.Int64("duplicate", duplicate.Load()),
				)
			}
			return nil
		})
	}

	err := g.Wait()

	stats.Submitted += int(submitted.Load())
	stats.Accepted += int(accepted.Load())
	stats.Duplicate += int(duplicate.Load())
	stats.Rejected += int(rejected.Load())
	stats.Failed += int(failed.Load())

	if err != nil {
		return err
	}
	return ctx.Err()
}
