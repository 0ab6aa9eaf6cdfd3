// Package usac reads filings and funding history from the USAC open data
// portal, a Socrata instance exposing each dataset as /resource/<id>.json.
package usac

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/url"
	"slices"
	"strconv"
	"strings"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/rotisserie/eris"
	"golang.org/x/time/rate"

	"github.com/okian/outreach/internal/domain/model"
	"github.com/okian/outreach/pkg/logger"
	"github.com/okian/outreach/pkg/metrics"
)

const (
	defaultBaseURL         = "https://opendata.usac.org"
	defaultFilingsDataset  = "96rf-xd57"
	defaultPageSize        = 1000
	defaultMaxRetries      = 3
	defaultTimeout         = 30 * time.Second
	defaultInitialInterval = 500 * time.Millisecond

	dateLayout     = "2006-01-02"
	upstreamName   = "usac"
	errorBodyBytes = 512
)

// Client is a rate-limited, retrying reader of the open data API.
type Client struct {
	baseURL         string
	filingsDataset  string
	fundingDataset  string
	appToken        string
	pageSize        int
	maxRetries      int
	initialInterval time.Duration

	http    *http.Client
	limiter *rate.Limiter
	log     logger.Logger
}

// New builds a Client. The filings dataset defaults to the Telecom program
// listing; the funding dataset has no default.
func New(opts ...Option) *Client {
	c := &Client{
		baseURL:         defaultBaseURL,
		filingsDataset:  defaultFilingsDataset,
		pageSize:        defaultPageSize,
		maxRetries:      defaultMaxRetries,
		initialInterval: defaultInitialInterval,
		http:            &http.Client{Timeout: defaultTimeout},
		limiter:         rate.NewLimiter(5, 1),
	}
	for _, opt := range opts {
		opt(c)
	}
	if c.log == nil {
		c.log = logger.Get().Named("usac")
	}
	c.baseURL = strings.TrimRight(c.baseURL, "/")
	return c
}

// FetchFilings returns every Telecom filing posted between from and to,
// inclusive, newest first. A zero to restricts the query to the from day.
func (c *Client) FetchFilings(ctx context.Context, from, to time.Time) ([]model.Filing, error) {
	if c.filingsDataset == "" {
		return nil, ErrNotConfigured
	}
	if !to.IsZero() && to.Before(from) {
		return nil, eris.Wrapf(ErrInvalidRange, "%s is before %s", to.Format(dateLayout), from.Format(dateLayout))
	}

	where := "posting_start_date='" + from.Format(dateLayout) + "'"
	if !to.IsZero() {
		where = "posting_start_date>='" + from.Format(dateLayout) +
			"' AND posting_start_date<='" + to.Format(dateLayout) + "T23:59:59.999'"
	}

	var out []model.Filing
	for offset := 0; ; offset += c.pageSize {
		q := url.Values{}
		q.Set("program", programTelecom)
		q.Set("$where", where)
		q.Set("$order", "posting_start_date DESC")
		q.Set("$limit", strconv.Itoa(c.pageSize))
		q.Set("$offset", strconv.Itoa(offset))

		var page []RawFiling
		if err := c.getJSON(ctx, c.filingsDataset, q, &page); err != nil {
			return nil, eris.Wrapf(err, "fetch filings at offset %d", offset)
		}
		for i := range page {
			out = append(out, Normalize(&page[i]))
		}
		if len(page) < c.pageSize {
			break
		}
	}

	c.log.Info(ctx, "fetched filings",
		logger.String("from", from.Format(dateLayout)),
		logger.Int("count", len(out)),
	)
	return out, nil
}

// FetchFundingHistory returns the provider's approved funding per year,
// newest first. Rows with a negative or unparsable amount are skipped.
func (c *Client) FetchFundingHistory(ctx context.Context, hcp string) ([]model.FundingYear, error) {
	if c.fundingDataset == "" {
		return nil, ErrNotConfigured
	}
	hcp = strings.TrimSpace(hcp)
	if hcp == "" {
		return nil, nil
	}

	var rows []fundingRow
	for offset := 0; ; offset += c.pageSize {
		q := url.Values{}
		q.Set("$where", "hcp_number='"+strings.ReplaceAll(hcp, "'", "''")+"'")
		q.Set("$order", "funding_year DESC")
		q.Set("$limit", strconv.Itoa(c.pageSize))
		q.Set("$offset", strconv.Itoa(offset))

		var page []fundingRow
		if err := c.getJSON(ctx, c.fundingDataset, q, &page); err != nil {
			return nil, eris.Wrapf(err, "fetch funding history for %s", hcp)
		}
		rows = append(rows, page...)
		if len(page) < c.pageSize {
			break
		}
	}
	return aggregateFunding(rows), nil
}

func aggregateFunding(rows []fundingRow) []model.FundingYear {
	byYear := make(map[int]*model.FundingYear)
	for _, r := range rows {
		year, err := strconv.Atoi(first(r.FundingYear))
		if err != nil {
			continue
		}
		amount, err := strconv.ParseFloat(first(r.Amount), 64)
		if err != nil || amount < 0 {
			continue
		}
		fy, ok := byYear[year]
		if !ok {
			fy = &model.FundingYear{Year: year}
			byYear[year] = fy
		}
		fy.Amount += amount

		name := first(r.SiteName, r.HCPName)
		addr := first(r.SiteAddress, r.Address1)
		idx := slices.IndexFunc(fy.Locations, func(l model.FundingLocation) bool {
			return l.Name == name && l.Address == addr
		})
		if idx < 0 {
			fy.Locations = append(fy.Locations, model.FundingLocation{Name: name, Address: addr})
			idx = len(fy.Locations) - 1
		}
		fy.Locations[idx].Amount += amount
	}

	out := make([]model.FundingYear, 0, len(byYear))
	for _, fy := range byYear {
		out = append(out, *fy)
	}
	slices.SortFunc(out, func(a, b model.FundingYear) int { return b.Year - a.Year })
	return out
}

// getJSON issues one GET against a dataset and decodes the body into out.
// Network errors, 429 and 5xx are retried with exponential backoff.
func (c *Client) getJSON(ctx context.Context, dataset string, q url.Values, out any) error {
	endpoint := c.baseURL + "/resource/" + dataset + ".json?" + q.Encode()
	start := time.Now()

	op := func() error {
		if err := c.limiter.Wait(ctx); err != nil {
			return backoff.Permanent(eris.Wrap(err, "rate limiter wait"))
		}
		req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
		if err != nil {
			return backoff.Permanent(eris.Wrap(err, "build request"))
		}
		req.Header.Set("Accept", "application/json")
		if c.appToken != "" {
			req.Header.Set("X-App-Token", c.appToken)
		}

		resp, err := c.http.Do(req)
		if err != nil {
			return eris.Wrap(err, "http request")
		}
		defer func() { _ = resp.Body.Close() }()

		switch {
		case resp.StatusCode == http.StatusTooManyRequests || resp.StatusCode >= http.StatusInternalServerError:
			_, _ = io.Copy(io.Discard, resp.Body)
			return eris.Wrapf(ErrUnexpectedStatus, "status %d", resp.StatusCode)
		case resp.StatusCode != http.StatusOK:
			body, _ := io.ReadAll(io.LimitReader(resp.Body, errorBodyBytes))
			return backoff.Permanent(eris.Wrapf(ErrUnexpectedStatus, "status %d: %s", resp.StatusCode, body))
		}
		if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
			return backoff.Permanent(eris.Wrap(err, "decode response"))
		}
		return nil
	}

	b := backoff.NewExponentialBackOff()
	b.InitialInterval = c.initialInterval
	policy := backoff.WithContext(backoff.WithMaxRetries(b, uint64(c.maxRetries)), ctx)

	err := backoff.RetryNotify(op, policy, func(err error, wait time.Duration) {
		c.log.Warn(ctx, "usac request failed, retrying",
			logger.String("dataset", dataset),
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
