package backfill

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/rotisserie/eris"

	"github.com/okian/outreach/internal/domain/model"
	"github.com/okian/outreach/pkg/logger"
)

const (
	initialRetryInterval = 200 * time.Millisecond
	errorBodyBytes       = 512
)

// Outcome is how the service answered one submitted filing.
type Outcome string

const (
	OutcomeAccepted  Outcome = "accepted"
	OutcomeDuplicate Outcome = "duplicate"
	OutcomeRejected  Outcome = "rejected"
	OutcomeFailed    Outcome = "failed"
)

// Client talks to the service's HTTP API.
type Client struct {
	baseURL         string
	maxRetries      int
	initialInterval time.Duration
	http            *http.Client
	log             logger.Logger
}

// NewClient builds a Client for cfg.BaseURL.
func NewClient(cfg *Config, log logger.Logger) *Client {
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	return &Client{
		baseURL:         strings.TrimRight(cfg.BaseURL, "/"),
		maxRetries:      cfg.MaxRetries,
		initialInterval: initialRetryInterval,
		http:            &http.Client{Timeout: timeout},
		log:             log,
	}
}

// Health verifies the service answers /healthz.
func (c *Client) Health(ctx context.Context) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/healthz", http.NoBody)
	if err != nil {
		return eris.Wrap(err, "build health request")
	}
	resp, err := c.http.Do(req)
	if err != nil {
		return eris.Wrap(ErrUnhealthy, err.Error())
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusOK {
		return eris.Wrapf(ErrUnhealthy, "status %d", resp.StatusCode)
	}
	return nil
}

// Submit posts one filing to /filings, retrying on backpressure and server
// errors. The returned error is set only for OutcomeRejected and OutcomeFailed.
func (c *Client) Submit(ctx context.Context, f *model.Filing) (Outcome, error) {
	body, err := json.Marshal(f)
	if err != nil {
		return OutcomeFailed, eris.Wrap(err, "encode filing")
	}

	outcome := OutcomeFailed
	op := func() error {
		req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/filings", bytes.NewReader(body))
		if err != nil {
			return backoff.Permanent(eris.Wrap(err, "build request"))
		}
		req.Header.Set("Content-Type", "application/json")

		resp, err := c.http.Do(req)
		if err != nil {
			return eris.Wrap(err, "http request")
		}
		defer func() { _ = resp.Body.Close() }()

		switch {
		case resp.StatusCode == http.StatusAccepted:
			outcome = OutcomeAccepted
			return nil
		case resp.StatusCode == http.StatusOK:
			outcome = OutcomeDuplicate
			return nil
		}

		text, _ := io.ReadAll(io.LimitReader(resp.Body, errorBodyBytes))
		err = eris.Wrapf(ErrUnexpectedStatus, "status %d: %s", resp.StatusCode, bytes.TrimSpace(text))
		if resp.StatusCode == http.StatusTooManyRequests || resp.StatusCode >= http.StatusInternalServerError {
			return err
		}
		outcome = OutcomeRejected
		return backoff.Permanent(err)
	}

	b := backoff.NewExponentialBackOff()
	b.InitialInterval = c.initialInterval
	policy := backoff.WithContext(backoff.WithMaxRetries(b, uint64(max(c.maxRetries, 0))), ctx) //nolint:gosec // clamped to non-negative

	err = backoff.RetryNotify(op, policy, func(err error, wait time.Duration) {
		c.log.Debug(ctx, "submit failed, retrying",
			logger.String("hcp_number", f.HCPNumber),
			logger.Int64("wait_ms", wait.Milliseconds()),
			logger.Error(err),
		)
	})
	if err != nil && outcome != OutcomeRejected {
		outcome = OutcomeFailed
	}
	return outcome, err
}
