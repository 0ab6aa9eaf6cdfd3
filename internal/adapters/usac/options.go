package usac

import (
	"net/http"
	"time"

	"golang.org/x/time/rate"

	"github.com/okian/outreach/pkg/logger"
)

// Option configures a Client.
type Option func(*Client)

// WithBaseURL overrides the open data host, e.g. for tests.
func WithBaseURL(u string) Option {
	return func(c *Client) {
		if u != "" {
			c.baseURL = u
		}
	}
}

// WithFilingsDataset sets the dataset id that lists filings.
func WithFilingsDataset(id string) Option {
	return func(c *Client) { c.filingsDataset = id }
}

// WithFundingDataset sets the dataset id that lists funding commitments.
// Leaving it empty disables FetchFundingHistory.
func WithFundingDataset(id string) Option {
	return func(c *Client) { c.fundingDataset = id }
}

// WithAppToken sends the Socrata application token with every request.
func WithAppToken(token string) Option {
	return func(c *Client) { c.appToken = token }
}

// WithRateLimit caps requests per second.
func WithRateLimit(perSec float64) Option {
	return func(c *Client) {
		if perSec > 0 {
			c.limiter = rate.NewLimiter(rate.Limit(perSec), 1)
		}
	}
}

// WithPageSize sets the $limit used when paging.
func WithPageSize(n int) Option {
	return func(c *Client) {
		if n > 0 {
			c.pageSize = n
		}
	}
}

// WithMaxRetries sets how many times a failed request is retried.
func WithMaxRetries(n int) Option {
	return func(c *Client) {
		if n >= 0 {
			c.maxRetries = n
		}
	}
}

// WithTimeout sets the per-request timeout of the default HTTP client.
func WithTimeout(d time.Duration) Option {
	return func(c *Client) {
		if d > 0 {
			c.http.Timeout = d
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

// WithInitialInterval sets the first retry delay.
func WithInitialInterval(d time.Duration) Option {
	return func(c *Client) {
		if d > 0 {
			c.initialInterval = d
		}
	}
}
