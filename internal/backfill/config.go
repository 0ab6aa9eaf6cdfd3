// Package backfill pulls filings for a date range and submits them to a
// running service over HTTP.
package backfill

import "time"

// Default configuration constants.
const (
	DefaultBaseURL    = "http://localhost:9080"
	DefaultTimeout    = 30 * time.Second
	DefaultMaxRetries = 3
)

// Config holds configuration for a backfill run.
type Config struct {
	BaseURL    string        // Base URL of the service
	Workers    int           // Number of concurrent submitters
	Timeout    time.Duration // HTTP request timeout
	MaxRetries int           // Retries on backpressure or server errors
	OutputFile string        // Optional snapshot of the fetched filings
	DryRun     bool          // Fetch only, do not submit
}

// Stats holds run statistics.
type Stats struct {
	Fetched   int
	Submitted int
	Accepted  int
	Duplicate int
	Rejected  int
	Failed    int
	StartTime time.Time
	EndTime   time.Time
	Duration  time.Duration
}
