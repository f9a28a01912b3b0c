package odata

import (
	"bytes"
	"context"
	"crypto/tls"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/rotisserie/eris"

	"github.com/couchcryptid/covid-stats-service/internal/domain"
	"github.com/couchcryptid/covid-stats-service/internal/observability"
)

// ErrMalformedPayload is returned when a response body is neither a JSON
// array nor an object carrying the array under "value".
var ErrMalformedPayload = errors.New("malformed odata payload")

// maxErrorBody bounds how much of a failed response is echoed into errors.
const maxErrorBody = 512

// Client reads grouped case rows from the OData aggregation API.
// It implements pipeline.Source.
type Client struct {
	httpClient *http.Client
	baseURL    string
	metrics    *observability.Metrics
	logger     *slog.Logger
}

// Options configures a Client.
type Options struct {
	BaseURL     string
	Timeout     time.Duration
	TLSInsecure bool
}

// NewClient creates an OData client rooted at opts.BaseURL,
// e.g. "https://localhost:7268/odata".
func NewClient(opts Options, metrics *observability.Metrics, logger *slog.Logger) *Client {
	transport := http.DefaultTransport.(*http.Transport).Clone()
	if opts.TLSInsecure {
		transport.TLSClientConfig = &tls.Config{InsecureSkipVerify: true} //nolint:gosec // opt-in for local dev certificates
	}
	return &Client{
		httpClient: &http.Client{
			Timeout:   opts.Timeout,
			Transport: transport,
		},
		baseURL: strings.TrimRight(opts.BaseURL, "/"),
		metrics: metrics,
		logger:  logger,
	}
}

// ApplyExpression is the server-side aggregation for a category: group by
// location and sum Cases into the category's total field.
func ApplyExpression(c domain.Category) string {
	return fmt.Sprintf("groupby((ProvinceState,CountryRegion,Lat,Long),aggregate(Cases with sum as %s))", c.TotalField())
}

// CategoryURL builds the request URL for a category.
func (c *Client) CategoryURL(category domain.Category) string {
	apply := strings.ReplaceAll(url.QueryEscape(ApplyExpression(category)), "+", "%20")
	return fmt.Sprintf("%s/%s?$apply=%s", c.baseURL, url.PathEscape(string(category)), apply)
}

// FetchCategory issues one grouped read for a category and returns its rows.
// Transport failures, non-2xx statuses and malformed bodies are errors;
// unparseable numeric fields are not (see domain.Number).
func (c *Client) FetchCategory(ctx context.Context, category domain.Category) ([]domain.RawLocationRow, error) {
	start := time.Now()
	rows, err := c.fetch(ctx, category)
	c.metrics.SourceRequestDuration.WithLabelValues(string(category)).Observe(time.Since(start).Seconds())

	if err != nil {
		c.metrics.SourceRequests.WithLabelValues(string(category), "error").Inc()
		return nil, err
	}
	c.metrics.SourceRequests.WithLabelValues(string(category), "success").Inc()
	c.countCoercionFailures(category, rows)

	c.logger.Debug("category fetched", "category", category, "rows", len(rows), "duration", time.Since(start))
	return rows, nil
}

func (c *Client) fetch(ctx context.Context, category domain.Category) ([]domain.RawLocationRow, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.CategoryURL(category), nil)
	if err != nil {
		return nil, eris.Wrapf(err, "%s: create request", category)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, eris.Wrapf(err, "%s: request", category)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
		return nil, eris.Errorf("%s: odata error: status %d: %s", category, resp.StatusCode, bytes.TrimSpace(body))
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, eris.Wrapf(err, "%s: read body", category)
	}

	items, err := decodeEnvelope(body)
	if err != nil {
		return nil, eris.Wrapf(err, "%s: decode response", category)
	}

	return toRows(items, category.TotalField()), nil
}

// decodeEnvelope accepts either a bare array or {"value": [...]}.
func decodeEnvelope(body []byte) ([]map[string]json.RawMessage, error) {
	body = bytes.TrimSpace(body)
	if len(body) == 0 {
		return nil, fmt.Errorf("%w: empty body", ErrMalformedPayload)
	}

	switch body[0] {
	case '[':
		var items []map[string]json.RawMessage
		if err := json.Unmarshal(body, &items); err != nil {
			return nil, fmt.Errorf("%w: %v", ErrMalformedPayload, err)
		}
		return items, nil
	case '{':
		var env struct {
			Value *[]map[string]json.RawMessage `json:"value"`
		}
		if err := json.Unmarshal(body, &env); err != nil {
			return nil, fmt.Errorf("%w: %v", ErrMalformedPayload, err)
		}
		if env.Value == nil {
			return nil, fmt.Errorf("%w: object without value array", ErrMalformedPayload)
		}
		return *env.Value, nil
	default:
		return nil, fmt.Errorf("%w: unexpected %q", ErrMalformedPayload, body[0])
	}
}

func toRows(items []map[string]json.RawMessage, totalField string) []domain.RawLocationRow {
	rows := make([]domain.RawLocationRow, 0, len(items))
	for _, item := range items {
		rows = append(rows, domain.RawLocationRow{
			CountryRegion: stringField(item["CountryRegion"]),
			ProvinceState: nullableString(item["ProvinceState"]),
			Lat:           domain.ParseNumber(item["Lat"]),
			Long:          domain.ParseNumber(item["Long"]),
			TotalCases:    domain.ParseCount(item[totalField]),
		})
	}
	return rows
}

func stringField(raw json.RawMessage) string {
	var s string
	if err := json.Unmarshal(raw, &s); err != nil {
		return ""
	}
	return s
}

func nullableString(raw json.RawMessage) *string {
	var s *string
	if err := json.Unmarshal(raw, &s); err != nil {
		return nil
	}
	return s
}

func (c *Client) countCoercionFailures(category domain.Category, rows []domain.RawLocationRow) {
	var lat, long, total int
	for _, r := range rows {
		if !r.Lat.Valid {
			lat++
		}
		if !r.Long.Valid {
			long++
		}
		if !r.TotalCases.Valid {
			total++
		}
	}
	cat := string(category)
	c.metrics.CoercionFailures.WithLabelValues(cat, "lat").Add(float64(lat))
	c.metrics.CoercionFailures.WithLabelValues(cat, "long").Add(float64(long))
	c.metrics.CoercionFailures.WithLabelValues(cat, "total").Add(float64(total))

	if lat+long+total > 0 {
		c.logger.Warn("unparseable numeric fields in source rows",
			"category", category,
			"lat", lat,
			"long", long,
			"total", total,
		)
	}
}
