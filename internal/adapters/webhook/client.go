// Package webhook calls the automation platform's enrichment and outreach
// draft workflows.
package webhook

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/rotisserie/eris"

	"github.com/okian/outreach/pkg/logger"
	"github.com/okian/outreach/pkg/metrics"
)

const (
	defaultTimeout         = 10 * time.Second
	defaultMaxRetries      = 3
	defaultInitialInterval = 500 * time.Millisecond

	upstreamName   = "webhook"
	errorBodyBytes = 512
)

// EnrichmentRequest is the payload sent to the enrichment workflow.
type EnrichmentRequest struct {
	ClinicID   string `json:"clinic_id"`
	HCPNumber  string `json:"hcp_number,omitempty"`
	ClinicName string `json:"clinic_name,omitempty"`
}

// DraftRequest is the payload sent to the outreach draft workflow.
type DraftRequest struct {
	ClinicID string `json:"clinic_id"`
	UserID   string `json:"user_id"`
}

// Draft is the outreach workflow's answer.
type Draft struct {
	Success           bool   `json:"success"`
	DraftURL          string `json:"draft_url,omitempty"`
	DraftID           string `json:"draft_id,omitempty"`
	TemplateVariant   string `json:"template_variant,omitempty"`
	InstanceID        string `json:"instance_id,omitempty"`
	EnrichmentPreview string `json:"enrichment_preview,omitempty"`
	Subject           string `json:"subject,omitempty"`
	GeneratedAt       string `json:"generated_at,omitempty"`
	Error             string `json:"error,omitempty"`
}

// Client posts JSON to the configured workflow endpoints.
type Client struct {
	enrichmentURL   string
	outreachURL     string
	token           string
	maxRetries      int
	initialInterval time.Duration

	http *http.Client
	log  logger.Logger
}

// New builds a Client. Endpoints left empty answer ErrNotConfigured.
func New(opts ...Option) *Client {
	c := &Client{
		maxRetries:      defaultMaxRetries,
		initialInterval: defaultInitialInterval,
		http:            &http.Client{Timeout: defaultTimeout},
	}
	for _, opt := range opts {
		opt(c)
	}
	if c.log == nil {
		c.log = logger.Get().Named("webhook")
	}
	return c
}

// EnrichmentConfigured reports whether TriggerEnrichment can be called.
func (c *Client) EnrichmentConfigured() bool { return c.enrichmentURL != "" }

// OutreachConfigured reports whether RequestOutreachDraft can be called.
func (c *Client) OutreachConfigured() bool { return c.outreachURL != "" }

// TriggerEnrichment starts the enrichment workflow for a filing and returns
// the workflow's raw response.
func (c *Client) TriggerEnrichment(ctx context.Context, filingID, hcp, clinic string) (json.RawMessage, error) {
	if c.enrichmentURL == "" {
		return nil, ErrNotConfigured
	}
	var out json.RawMessage
	err := c.post(ctx, c.enrichmentURL, EnrichmentRequest{ClinicID: filingID, HCPNumber: hcp, ClinicName: clinic}, &out)
	if err != nil {
		return nil, eris.Wrapf(err, "trigger enrichment for %s", filingID)
	}
	return out, nil
}

// RequestOutreachDraft asks the outreach workflow to draft an email for a filing.
func (c *Client) RequestOutreachDraft(ctx context.Context, filingID, userID string) (Draft, error) {
	if c.outreachURL == "" {
		return Draft{}, ErrNotConfigured
	}
	var d Draft
	if err := c.post(ctx, c.outreachURL, DraftRequest{ClinicID: filingID, UserID: userID}, &d); err != nil {
		return Draft{}, eris.Wrapf(err, "request outreach draft for %s", filingID)
	}
	if !d.Success {
		msg := d.Error
		if msg == "" {
			msg = "unknown workflow error"
		}
		return d, eris.Wrap(ErrWorkflowFailed, msg)
	}
	return d, nil
}

func (c *Client) post(ctx context.Context, endpoint string, payload, out any) error {
	body, err := json.Marshal(payload)
	if err != nil {
		return eris.Wrap(err, "encode payload")
	}
	start := time.Now()

	op := func() error {
		req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(body))
		if err != nil {
			return backoff.Permanent(eris.Wrap(err, "build request"))
		}
		req.Header.Set("Content-Type", "application/json")
		if c.token != "" {
			req.Header.Set("Authorization", "Bearer "+c.token)
		}

		resp, err := c.http.Do(req)
		if err != nil {
			return eris.Wrap(err, "http request")
		}
		defer func() { _ = resp.Body.Close() }()

		if resp.StatusCode < http.StatusOK || resp.StatusCode >= http.StatusMultipleChoices {
			text, _ := io.ReadAll(io.LimitReader(resp.Body, errorBodyBytes))
			err := eris.Wrapf(ErrUnexpectedStatus, "status %d: %s", resp.StatusCode, text)
			if resp.StatusCode == http.StatusTooManyRequests || resp.StatusCode >= http.StatusInternalServerError {
				return err
			}
			return backoff.Permanent(err)
		}

		raw, err := io.ReadAll(resp.Body)
		if err != nil {
			return eris.Wrap(err, "read response")
		}
		if len(bytes.TrimSpace(raw)) == 0 {
			raw = []byte("{}")
		}
		if err := json.Unmarshal(raw, out); err != nil {
			return backoff.Permanent(eris.Wrap(err, "decode response"))
		}
		return nil
	}

	b := backoff.NewExponentialBackOff()
	b.InitialInterval = c.initialInterval
	policy := backoff.WithContext(backoff.WithMaxRetries(b, uint64(c.maxRetries)), ctx)

	err = backoff.RetryNotify(op, policy, func(err error, wait time.Duration) {
		c.log.Warn(ctx, "webhook call failed, retrying",
			logger.String("endpoint", endpoint),
			logger.Int64("wait_ms", wait.Milliseconds()),
			logger.Error(err),
		)
	})

	metrics.RecordUpstreamLatency(upstreamName, float64(time.Since(start).Milliseconds()))
	if err != nil {
		metrics.RecordUpstreamRequest(upstreamName, "error")
		return err
	}
	metrics.RecordUpstreamRequest(upstreamName, "ok")
	return nil
}
