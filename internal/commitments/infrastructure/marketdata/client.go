package marketdata

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/PaesslerAG/jsonpath"

	commitments "energy-commitments/internal/commitments/domain"
	"energy-commitments/internal/observability/metrics"
)

// RecordsPath locates the record list inside the API response envelope.
const RecordsPath = "$.result.records"

const (
	DatasetDispatch = "dispatch"
	DatasetPrice    = "price"
)

// Config holds the market data endpoints and dataset identifiers.
type Config struct {
	DispatchURL       string `yaml:"dispatch_url"`
	PriceURL          string `yaml:"price_url"`
	DispatchDatasetID string `yaml:"dispatch_dataset_id"`
	PriceDatasetID    string `yaml:"price_dataset_id"`
}

// Validate reports missing settings.
func (c Config) Validate() error {
	var missing []string
	if strings.TrimSpace(c.DispatchURL) == "" {
		missing = append(missing, "dispatch url")
	}
	if strings.TrimSpace(c.PriceURL) == "" {
		missing = append(missing, "price url")
	}
	if strings.TrimSpace(c.DispatchDatasetID) == "" {
		missing = append(missing, "dispatch dataset id")
	}
	if strings.TrimSpace(c.PriceDatasetID) == "" {
		missing = append(missing, "price dataset id")
	}
	if len(missing) > 0 {
		return fmt.Errorf("%w: %s", commitments.ErrMissingConfig, strings.Join(missing, ", "))
	}
	return nil
}

// Source is one dataset endpoint.
type Source struct {
	Name      string
	URL       string
	DatasetID string
}

// Client queries the dispatch and price datasets.
type Client struct {
	dispatch Source
	price    Source
	client   *http.Client
}

// Option configures the client.
type Option func(*Client)

// WithHTTPClient overrides the underlying HTTP client.
func WithHTTPClient(client *http.Client) Option {
	return func(c *Client) {
		if c != nil && client != nil {
			c.client = client
		}
	}
}

// WithTimeout sets a per-request timeout on the default HTTP client.
func WithTimeout(timeout time.Duration) Option {
	return func(c *Client) {
		if c != nil && timeout > 0 {
			c.client = &http.Client{Timeout: timeout}
		}
	}
}

// NewClient constructs a client. Configuration is validated before any call.
func NewClient(cfg Config, opts ...Option) (*Client, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	c := &Client{
		dispatch: Source{Name: DatasetDispatch, URL: strings.TrimSpace(cfg.DispatchURL), DatasetID: strings.TrimSpace(cfg.DispatchDatasetID)},
		price:    Source{Name: DatasetPrice, URL: strings.TrimSpace(cfg.PriceURL), DatasetID: strings.TrimSpace(cfg.PriceDatasetID)},
		client:   &http.Client{},
	}
	for _, opt := range opts {
		opt(c)
	}
	return c, nil
}

// FetchDispatch returns the dispatch records for date.
func (c *Client) FetchDispatch(ctx context.Context, date time.Time) ([]commitments.DispatchRecord, error) {
	raw, err := c.Fetch(ctx, c.dispatch, date)
	if err != nil {
		return nil, err
	}
	records := make([]commitments.DispatchRecord, 0, len(raw))
	for _, item := range raw {
		records = append(records, commitments.DispatchRecord{
			PlantCode:  stringField(item, "CodigoPlanta"),
			Timestamp:  item["FechaHora"],
			Value:      item["Valor"],
			Attributes: item,
		})
	}
	return records, nil
}

// FetchPrice returns the clearing price records for date.
func (c *Client) FetchPrice(ctx context.Context, date time.Time) ([]commitments.PriceRecord, error) {
	raw, err := c.Fetch(ctx, c.price, date)
	if err != nil {
		return nil, err
	}
	records := make([]commitments.PriceRecord, 0, len(raw))
	for _, item := range raw {
		records = append(records, commitments.PriceRecord{
			Variable:   stringField(item, "CodigoVariable"),
			Version:    stringField(item, "Version"),
			Value:      item["Valor"],
			Attributes: item,
		})
	}
	return records, nil
}

// Fetch issues a single request for the source on date and returns the raw records.
func (c *Client) Fetch(ctx context.Context, source Source, date time.Time) ([]map[string]any, error) {
	start := time.Now()
	records, err := c.fetch(ctx, source, date)
	result := metrics.ResultSuccess
	if err != nil {
		result = metrics.ResultError
	}
	metrics.ObserveUpstreamFetch(source.Name, result, time.Since(start))
	return records, err
}

func (c *Client) fetch(ctx context.Context, source Source, date time.Time) ([]map[string]any, error) {
	day := date.Format(commitments.DateLayout)
	upstreamErr := func(status int, err error) error {
		return &commitments.UpstreamError{URL: source.URL, Date: day, StatusCode: status, Err: err}
	}

	endpoint, err := url.Parse(source.URL)
	if err != nil {
		return nil, upstreamErr(0, err)
	}
	query := endpoint.Query()
	query.Set("startDate", day)
	query.Set("endDate", day)
	query.Set("datasetId", source.DatasetID)
	endpoint.RawQuery = query.Encode()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint.String(), nil)
	if err != nil {
		return nil, upstreamErr(0, err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.client.Do(req)
	if err != nil {
		return nil, upstreamErr(0, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		_, _ = io.Copy(io.Discard, resp.Body)
		return nil, upstreamErr(resp.StatusCode, fmt.Errorf("marketdata: http %d", resp.StatusCode))
	}

	decoder := json.NewDecoder(resp.Body)
	decoder.UseNumber()
	var envelope any
	if err := decoder.Decode(&envelope); err != nil {
		return nil, upstreamErr(resp.StatusCode, fmt.Errorf("marketdata: decode: %w", err))
	}
	records, err := extractRecords(envelope)
	if err != nil {
		return nil, upstreamErr(resp.StatusCode, err)
	}
	return records, nil
}

func extractRecords(envelope any) ([]map[string]any, error) {
	value, err := jsonpath.Get(RecordsPath, envelope)
	if err != nil {
		return nil, fmt.Errorf("marketdata: envelope %s: %w", RecordsPath, err)
	}
	if value == nil {
		return []map[string]any{}, nil
	}
	list, ok := value.([]any)
	if !ok {
		return nil, fmt.Errorf("marketdata: envelope %s is %T, not a list", RecordsPath, value)
	}
	records := make([]map[string]any, 0, len(list))
	for _, item := range list {
		record, ok := item.(map[string]any)
		if !ok {
			return nil, fmt.Errorf("marketdata: record is %T, not an object", item)
		}
		records = append(records, record)
	}
	return records, nil
}

func stringField(record map[string]any, key string) string {
	switch v := record[key].(type) {
	case string:
		return strings.TrimSpace(v)
	case json.Number:
		return v.String()
	default:
		return ""
	}
}
