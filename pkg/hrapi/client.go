// Package hrapi is the client for the external HR API that owns the
// store directory, the employee roster and the door traffic counters.
package hrapi

import (
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
	"github.com/arnavshah/store-scheduler-api/pkg/models"
	"github.com/codeGROOVE-dev/retry"
)

var ErrUnexpectedStatus = errors.New("unexpected HR API status")

// trafficRow is the wire form of one hourly traffic count
type trafficRow struct {
	Date    string `json:"date"`
	Hour    string `json:"hour"`
	Entries int    `json:"entries"`
}

// Client calls the HR API
type Client struct {
	baseURL  string
	apiKey   string
	http     *http.Client
	logger   *slog.Logger
	attempts uint
	delay    time.Duration
}

// NewClient creates an HR API client
func NewClient(baseURL, apiKey string, logger *slog.Logger) *Client {
	return &Client{
		baseURL:  baseURL,
		apiKey:   apiKey,
		http:     &http.Client{Timeout: 20 * time.Second},
		logger:   logger,
		attempts: 4,
		delay:    time.Second,
	}
}

// WithRetry overrides the retry attempts and base delay
func (c *Client) WithRetry(attempts uint, delay time.Duration) *Client {
	c.attempts = attempts
	c.delay = delay
	return c
}

// Stores lists every store known to HR
func (c *Client) Stores(ctx context.Context) ([]models.StoreInfo, error) {
	var stores []models.StoreInfo
	if err := c.get(ctx, "/stores", nil, &stores); err != nil {
		return nil, fmt.Errorf("fetching stores: %w", err)
	}
	return stores, nil
}

// Employees lists the employees of a store
func (c *Client) Employees(ctx context.Context, storeCode string) ([]models.EmployeeInfo, error) {
	var emps []models.EmployeeInfo
	if err := c.get(ctx, "/stores/"+url.PathEscape(storeCode)+"/employees", nil, &emps); err != nil {
		return nil, fmt.Errorf("fetching employees of %s: %w", storeCode, err)
	}
	for i := range emps {
		if emps[i].StoreCode == "" {
			emps[i].StoreCode = storeCode
		}
	}
	return emps, nil
}

// Samples returns the hourly door counts of a store between from and to,
// both inclusive
func (c *Client) Samples(ctx context.Context, storeCode string, from, to time.Time) ([]models.TrafficSample, error) {
	q := url.Values{}
	q.Set("from", from.Format("2006-01-02"))
	q.Set("to", to.Format("2006-01-02"))

	var rows []trafficRow
	if err := c.get(ctx, "/stores/"+url.PathEscape(storeCode)+"/traffic", q, &rows); err != nil {
		return nil, fmt.Errorf("fetching traffic of %s: %w", storeCode, err)
	}

	samples := make([]models.TrafficSample, 0, len(rows))
	for _, r := range rows {
		d, err := time.Parse("2006-01-02", r.Date)
		if err != nil {
			c.logger.Warn("skipping traffic row with bad date", "store", storeCode, "date", r.Date)
			continue
		}
		samples = append(samples, models.TrafficSample{Date: d, Hour: r.Hour, Entries: r.Entries})
	}
	return samples, nil
}

func (c *Client) get(ctx context.Context, path string, q url.Values, out any) error {
	target := c.baseURL + path
	if len(q) > 0 {
		target += "?" + q.Encode()
	}

	start := time.Now()
	status := "error"
	defer func() {
		metrics.UpstreamDuration.WithLabelValues("hrapi", status).Observe(time.Since(start).Seconds())
	}()

	var data []byte
	err := retry.Do(
		func() error {
			req, err := http.NewRequestWithContext(ctx, http.MethodGet, target, nil)
			if err != nil {
				return retry.Unrecoverable(err)
			}
			req.Header.Set("Authorization", "Bearer "+c.apiKey)
			req.Header.Set("Accept", "application/json")

			resp, err := c.http.Do(req)
			if err != nil {
				return err
			}
			defer resp.Body.Close()

			data, err = io.ReadAll(io.LimitReader(resp.Body, 10<<20))
			if err != nil {
				return err
			}
			status = strconv.Itoa(resp.StatusCode)
			if resp.StatusCode == http.StatusOK {
				return nil
			}
			statusErr := fmt.Errorf("%w: HTTP %d", ErrUnexpectedStatus, resp.StatusCode)
			if resp.StatusCode == http.StatusTooManyRequests || resp.StatusCode >= http.StatusInternalServerError {
				return statusErr
			}
			return retry.Unrecoverable(statusErr)
		},
		retry.Context(ctx),
		retry.Attempts(c.attempts),
		retry.Delay(c.delay),
		retry.MaxDelay(time.Minute),
		retry.DelayType(retry.FullJitterBackoffDelay),
		retry.LastErrorOnly(true),
		retry.OnRetry(func(n uint, err error) {
			c.logger.Debug("retrying HR API request", "attempt", n+1, "url", target, "error", err)
		}),
	)
	if err != nil {
		if status != "error" && status != "200" {
			return fmt.Errorf("%w: HTTP %s", ErrUnexpectedStatus, status)
		}
		return err
	}

	if err := json.Unmarshal(data, out); err != nil {
		return fmt.Errorf("decoding response: %w", err)
	}
	return nil
}
