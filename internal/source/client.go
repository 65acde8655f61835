// Package source retrieves schedule snapshots over HTTP.
package source

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"

	"github.com/wolfman30/schedule-availability/internal/observability/metrics"
	"github.com/wolfman30/schedule-availability/internal/schedule"
	"github.com/wolfman30/schedule-availability/pkg/logging"
)

const (
	defaultTimeout  = 15 * time.Second
	maxPayloadBytes = 8 << 20
)

var sourceTracer = otel.Tracer("schedule.internal.source")

// ErrMalformedPayload is returned when the source answers 2xx with a body
// that is not a schedule snapshot.
var ErrMalformedPayload = errors.New("malformed schedule payload")

// ErrPayloadTooLarge is returned when the body exceeds maxPayloadBytes.
var ErrPayloadTooLarge = errors.New("schedule payload too large")

// StatusError is returned for non-2xx responses.
type StatusError struct {
	StatusCode int
	Body       string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("schedule source returned %d: %s", e.StatusCode, e.Body)
}

// Client fetches snapshots with a plain GET. It implements schedule.Fetcher.
type Client struct {
	httpClient *http.Client
	logger     *logging.Logger
	metrics    *metrics.ScheduleMetrics
}

// Option configures a Client.
type Option func(*Client)

// WithHTTPClient replaces the underlying HTTP client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) {
		if hc != nil {
			c.httpClient = hc
		}
	}
}

// WithMetrics records fetch outcomes and latency.
func WithMetrics(m *metrics.ScheduleMetrics) Option {
	return func(c *Client) { c.metrics = m }
}

// NewClient constructs a snapshot client. A non-positive timeout uses the
// default.
func NewClient(timeout time.Duration, logger *logging.Logger, opts ...Option) *Client {
	if timeout <= 0 {
		timeout = defaultTimeout
	}
	if logger == nil {
		logger = logging.Default()
	}
	c := &Client{
		httpClient: &http.Client{Timeout: timeout},
		logger:     logger,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Fetch downloads and decodes the snapshot served at sourceURL.
func (c *Client) Fetch(ctx context.Context, sourceURL string) (*schedule.Snapshot, error) {
	ctx, span := sourceTracer.Start(ctx, "source.fetch")
	defer span.End()
	span.SetAttributes(attribute.String("schedule.source_url", sourceURL))

	start := time.Now()
	snap, err := c.fetch(ctx, sourceURL)
	elapsed := time.Since(start)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		c.metrics.ObserveFetch("error", elapsed.Seconds())
		c.logger.Warn("schedule fetch failed", "url", sourceURL, "error", err, "duration_ms", elapsed.Milliseconds())
		return nil, err
	}

	span.SetAttributes(
		attribute.Int("schedule.days", len(snap.Days)),
		attribute.Int("schedule.timeslots", len(snap.Timeslots)),
	)
	c.metrics.ObserveFetch("ok", elapsed.Seconds())
	c.logger.Info("schedule fetched",
		"url", sourceURL,
		"days", len(snap.Days),
		"timeslots", len(snap.Timeslots),
		"duration_ms", elapsed.Milliseconds(),
	)
	return snap, nil
}

func (c *Client) fetch(ctx context.Context, sourceURL string) (*schedule.Snapshot, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, sourceURL, nil)
	if err != nil {
		return nil, fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("http request: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxPayloadBytes+1))
	if err != nil {
		return nil, fmt.Errorf("read response: %w", err)
	}
	if len(body) > maxPayloadBytes {
		return nil, fmt.Errorf("%w: more than %d bytes", ErrPayloadTooLarge, maxPayloadBytes)
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		msg := string(body)
		if len(msg) > 300 {
			msg = msg[:300]
		}
		return nil, &StatusError{StatusCode: resp.StatusCode, Body: msg}
	}

	return Decode(body)
}

// Decode parses a snapshot payload. Both collections must be present.
func Decode(body []byte) (*schedule.Snapshot, error) {
	var snap schedule.Snapshot
	if err := json.Unmarshal(body, &snap); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformedPayload, err)
	}
	if snap.Days == nil {
		return nil, fmt.Errorf("%w: missing days", ErrMalformedPayload)
	}
	if snap.Timeslots == nil {
		return nil, fmt.Errorf("%w: missing timeslots", ErrMalformedPayload)
	}
	return &snap, nil
}
