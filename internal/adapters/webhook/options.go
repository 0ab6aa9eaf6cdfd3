package webhook

import (
	"net/http"
	"time"

	"github.com/okian/outreach/pkg/logger"
)

// Option configures a Client.
type Option func(*Client)

// WithEnrichmentURL sets the enrichment workflow endpoint.
func WithEnrichmentURL(u string) Option {
	return func(c *Client) { c.enrichmentURL = u }
}

// WithOutreachURL sets the outreach draft workflow endpoint.
func WithOutreachURL(u string) Option {
	return func(c *Client) { c.outreachURL = u }
}

// WithToken sends the token as a bearer credential.
func WithToken(token string) Option {
	return func(c *Client) { c.token = token }
}

// WithTimeout sets the per-request timeout of the default HTTP client.
func WithTimeout(d time.Duration) Option {
	return func(c *Client) {
		if d > 0 {
			c.http.Timeout = d
		}
	}
}

// WithMaxRetries sets how many times a failed call is retried.
func WithMaxRetries(n int) Option {
	return func(c *Client) {
		if n >= 0 {
			c.maxRetries = n
		}
	}
}

// WithInitialInterval sets the first retry delay.
func WithInitialInterval(d time.Duration) Option {
	return func(c *Client) {
		if d > 0 {
			c.initialInterval = d
		}
	}
}

// WithHTTPClient replaces the HTTP client.
func WithHTTPClient(h *http.Client) Option {
	return func(c *Client) {
		if h != nil {
			c.http = h
		}
	}
}

// WithLogger sets the logger.
func WithLogger(l logger.Logger) Option {
	return func(c *Client) { c.log = l }
}
