// internal/cloud/client.go
package cloud

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"github.com/cenkalti/backoff/v4"
	"go.uber.org/zap"

	"github.com/tamzrod/batchlink/internal/batch"
	"github.com/tamzrod/batchlink/internal/faults"
)

// Config is the cloud source connection config.
type Config struct {
	URL           string
	Timeout       time.Duration
	RetryAttempts int
	RetryDelay    time.Duration
}

// Client fetches batch records from the cloud store over plain HTTP.
// Transient transport failures are retried with exponential backoff;
// schema violations and auth/missing responses are terminal.
type Client struct {
	cfg  Config
	http *http.Client
}

// New validates the endpoint and builds a client.
func New(cfg Config) (*Client, error) {
	u, err := url.Parse(cfg.URL)
	if err != nil || u.Scheme == "" || u.Host == "" {
		return nil, fmt.Errorf("cloud: invalid url %q", cfg.URL)
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = 10 * time.Second
	}
	if cfg.RetryAttempts <= 0 {
		cfg.RetryAttempts = 3
	}
	if cfg.RetryDelay <= 0 {
		cfg.RetryDelay = 2 * time.Second
	}
	return &Client{
		cfg:  cfg,
		http: &http.Client{Timeout: cfg.Timeout},
	}, nil
}

// wireRecord is the JSON shape of one batch entry.
type wireRecord struct {
	BatchIndex     uint32 `json:"batchIndex"`
	Status         uint16 `json:"status"`
	PrintCount     uint16 `json:"printCount"`
	BatchCode      string `json:"batchCode"`
	DryerCode      string `json:"dryerCode"`
	ProductionDate string `json:"productionDate"`
	ExpiryDate     string `json:"expiryDate"`
}

// FetchBatches retrieves the latest batch records. Entries that fail
// field validation are skipped so one bad record cannot block the line;
// a response with no valid entry at all is a data error.
func (c *Client) FetchBatches(ctx context.Context) ([]batch.Record, error) {
	var body []byte

	op := func() error {
		req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.cfg.URL, nil)
		if err != nil {
			return backoff.Permanent(err)
		}
		req.Header.Set("Accept", "application/json")

		resp, err := c.http.Do(req)
		if err != nil {
			return err
		}
		defer resp.Body.Close()

		switch {
		case resp.StatusCode == http.StatusOK:
		case resp.StatusCode == http.StatusUnauthorized,
			resp.StatusCode == http.StatusForbidden,
			resp.StatusCode == http.StatusNotFound:
			// Retrying cannot fix these.
			return backoff.Permanent(fmt.Errorf("cloud: http %d", resp.StatusCode))
		default:
			return fmt.Errorf("cloud: http %d", resp.StatusCode)
		}

		body, err = io.ReadAll(resp.Body)
		return err
	}

	pol := backoff.NewExponentialBackOff()
	pol.InitialInterval = c.cfg.RetryDelay
	wrapped := backoff.WithContext(
		backoff.WithMaxRetries(pol, uint64(c.cfg.RetryAttempts-1)), ctx)

	if err := backoff.Retry(op, wrapped); err != nil {
		return nil, faults.NewTransport(faults.SourceCloud, err)
	}

	return parseResponse(body)
}

// parseResponse decodes and validates the fetched payload. Malformed
// JSON is a data error, never retried.
func parseResponse(body []byte) ([]batch.Record, error) {
	var entries []wireRecord
	if err := json.Unmarshal(body, &entries); err != nil {
		// A single object is accepted the way the store sometimes
		// returns one batch outside an array.
		var one wireRecord
		if err2 := json.Unmarshal(body, &one); err2 != nil {
			return nil, faults.NewData("response", "malformed json: %v", err)
		}
		entries = []wireRecord{one}
	}

	records := make([]batch.Record, 0, len(entries))
	var firstErr error
	for i, e := range entries {
		rec := batch.Record{
			Index:          e.BatchIndex,
			Status:         batch.Status(e.Status),
			PrintCount:     e.PrintCount,
			BatchCode:      e.BatchCode,
			DryerCode:      e.DryerCode,
			ProductionDate: e.ProductionDate,
			ExpiryDate:     e.ExpiryDate,
		}
		if err := rec.Validate(); err != nil {
			zap.S().Warnw("cloud entry skipped", "entry", i, "err", err)
			if firstErr == nil {
				firstErr = err
			}
			continue
		}
		records = append(records, rec)
	}

	if len(records) == 0 && firstErr != nil {
		return nil, faults.NewData("response", "all %d entries invalid: %v", len(entries), firstErr)
	}
	return records, nil
}

// Ping checks reachability of the cloud endpoint (used by --test-config).
func (c *Client) Ping(ctx context.Context) error {
	_, err := c.FetchBatches(ctx)
	return err
}
