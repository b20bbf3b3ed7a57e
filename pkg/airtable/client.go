// Package airtable is a small client for the Airtable REST API holding
// the store, employee and daily activity tables.
package airtable

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/arnavshah/store-scheduler-api/internal/metrics"
	"github.com/codeGROOVE-dev/retry"
)

// Table names of the scheduling base
const (
	TableStores    = "Tiendas"
	TableEmployees = "Empleados"
	TableActivity  = "Actividad Diaria"
)

// Airtable accepts at most 10 records per write request
const maxBatch = 10

var (
	ErrNotFound         = errors.New("airtable record not found")
	ErrUnexpectedStatus = errors.New("unexpected airtable status")
)

// Record is one Airtable row
type Record struct {
	ID          string         `json:"id,omitempty"`
	CreatedTime string         `json:"createdTime,omitempty"`
	Fields      map[string]any `json:"fields"`
}

// ListOptions filters a table listing
type ListOptions struct {
	Formula  string
	Fields   []string
	PageSize int
	Sort     string
}

type listResponse struct {
	Records []Record `json:"records"`
	Offset  string   `json:"offset"`
}

type writeRequest struct {
	Records  []Record `json:"records"`
	Typecast bool     `json:"typecast,omitempty"`
}

// HTTPClient is the subset of *http.Client used by the client
type HTTPClient interface {
	Do(req *http.Request) (*http.Response, error)
}

// Client talks to one Airtable base
type Client struct {
	baseURL string
	baseID  string
	token   string
	http    HTTPClient
	logger  *slog.Logger

	attempts uint
	delay    time.Duration
}

// NewClient creates a client for baseID. baseURL is normally
// https://api.airtable.com/v0.
func NewClient(baseURL, baseID, token string, logger *slog.Logger) *Client {
	return &Client{
		baseURL:  baseURL,
		baseID:   baseID,
		token:    token,
		http:     &http.Client{Timeout: 15 * time.Second},
		logger:   logger,
		attempts: 5,
		delay:    time.Second,
	}
}

// WithHTTPClient replaces the underlying HTTP client
func (c *Client) WithHTTPClient(h HTTPClient) *Client {
	c.http = h
	return c
}

// WithRetry overrides the retry attempts and base delay
func (c *Client) WithRetry(attempts uint, delay time.Duration) *Client {
	c.attempts = attempts
	c.delay = delay
	return c
}

// List returns every record of table matching opts, following pagination
func (c *Client) List(ctx context.Context, table string, opts ListOptions) ([]Record, error) {
	var all []Record
	offset := ""
	for {
		q := url.Values{}
		if opts.Formula != "" {
			q.Set("filterByFormula", opts.Formula)
		}
		for _, f := range opts.Fields {
			q.Add("fields[]", f)
		}
		if opts.PageSize > 0 {
			q.Set("pageSize", strconv.Itoa(opts.PageSize))
		}
		if opts.Sort != "" {
			q.Set("sort[0][field]", opts.Sort)
		}
		if offset != "" {
			q.Set("offset", offset)
		}

		var page listResponse
		if err := c.do(ctx, http.MethodGet, c.tableURL(table)+"?"+q.Encode(), nil, &page); err != nil {
			return nil, fmt.Errorf("listing %s: %w", table, err)
		}
		all = append(all, page.Records...)
		if page.Offset == "" {
			return all, nil
		}
		offset = page.Offset
	}
}

// Get fetches a single record by id
func (c *Client) Get(ctx context.Context, table, id string) (*Record, error) {
	var rec Record
	if err := c.do(ctx, http.MethodGet, c.tableURL(table)+"/"+url.PathEscape(id), nil, &rec); err != nil {
		return nil, fmt.Errorf("getting %s/%s: %w", table, id, err)
	}
	return &rec, nil
}

// Create inserts records in batches of 10 and returns them with their ids
func (c *Client) Create(ctx context.Context, table string, records []Record) ([]Record, error) {
	return c.write(ctx, http.MethodPost, table, records)
}

// Update patches the given fields of existing records in batches of 10
func (c *Client) Update(ctx context.Context, table string, records []Record) ([]Record, error) {
	return c.write(ctx, http.MethodPatch, table, records)
}

func (c *Client) write(ctx context.Context, method, table string, records []Record) ([]Record, error) {
	out := make([]Record, 0, len(records))
	for start := 0; start < len(records); start += maxBatch {
		end := min(start+maxBatch, len(records))
		batch := make([]Record, 0, end-start)
		for _, r := range records[start:end] {
			if method == http.MethodPost {
				r.ID = ""
			}
			r.CreatedTime = ""
			batch = append(batch, r)
		}

		body, err := json.Marshal(writeRequest{Records: batch, Typecast: true})
		if err != nil {
			return nil, fmt.Errorf("encoding %s records: %w", table, err)
		}
		var resp listResponse
		if err := c.do(ctx, method, c.tableURL(table), body, &resp); err != nil {
			return nil, fmt.Errorf("writing %s: %w", table, err)
		}
		out = append(out, resp.Records...)
	}
	return out, nil
}

func (c *Client) tableURL(table string) string {
	return c.baseURL + "/" + url.PathEscape(c.baseID) + "/" + url.PathEscape(table)
}

func (c *Client) do(ctx context.Context, method, target string, body []byte, out any) error {
	start := time.Now()
	status := "error"
	defer func() {
		metrics.UpstreamDuration.WithLabelValues("airtable", status).Observe(time.Since(start).Seconds())
	}()

	var data []byte
	var code int
	err := retry.Do(
		func() error {
			var reader io.Reader
			if body != nil {
				reader = bytes.NewReader(body)
			}
			req, err := http.NewRequestWithContext(ctx, method, target, reader)
			if err != nil {
				return retry.Unrecoverable(fmt.Errorf("creating request: %w", err))
			}
			req.Header.Set("Authorization", "Bearer "+c.token)
			req.Header.Set("Accept", "application/json")
			if body != nil {
				req.Header.Set("Content-Type", "application/json")
			}

			resp, err := c.http.Do(req)
			if err != nil {
				return err
			}
			defer resp.Body.Close()

			data, err = io.ReadAll(io.LimitReader(resp.Body, 10<<20))
			if err != nil {
				return fmt.Errorf("reading response: %w", err)
			}
			code = resp.StatusCode
			status = strconv.Itoa(code)

			switch {
			case resp.StatusCode == http.StatusNotFound:
				return retry.Unrecoverable(ErrNotFound)
			case resp.StatusCode == http.StatusTooManyRequests || resp.StatusCode >= http.StatusInternalServerError:
				return fmt.Errorf("%w: HTTP %d: %s", ErrUnexpectedStatus, resp.StatusCode, truncate(data))
			case resp.StatusCode >= 300:
				return retry.Unrecoverable(fmt.Errorf("%w: HTTP %d: %s", ErrUnexpectedStatus, resp.StatusCode, truncate(data)))
			}
			return nil
		},
		retry.Context(ctx),
		retry.Attempts(c.attempts),
		retry.Delay(c.delay),
		retry.MaxDelay(30*time.Second),
		retry.DelayType(retry.FullJitterBackoffDelay),
		retry.LastErrorOnly(true),
		retry.OnRetry(func(n uint, err error) {
			c.logger.Debug("retrying airtable request", "attempt", n+1, "method", method, "url", target, "error", err)
		}),
	)
	switch {
	case code == http.StatusNotFound:
		return ErrNotFound
	case code >= 300:
		return fmt.Errorf("%w: HTTP %d: %s", ErrUnexpectedStatus, code, truncate(data))
	case err != nil:
		return err
	}

	if out == nil || len(data) == 0 {
		return nil
	}
	if err := json.Unmarshal(data, out); err != nil {
		return fmt.Errorf("decoding response: %w", err)
	}
	return nil
}

func truncate(b []byte) string {
	if len(b) > 256 {
		return string(b[:256])
	}
	return string(b)
}
