// Package supabase reads the sensor_readings table through the PostgREST
// API of a hosted Supabase project.
package supabase

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"

	"golang.org/x/time/rate"

	"sensor-dashboard/backend/internal/sensor"
	"sensor-dashboard/backend/internal/store"
	"sensor-dashboard/backend/pkg/utils"
)

const (
	DefaultTable   = "sensor_readings"
	DefaultRPS     = 5
	DefaultTimeout = 10 * time.Second

	restPath      = "/rest/v1/"
	selectColumns = "id,created_at,bmp_temperature,humidity,pressure,altitude,accel_x,accel_y,accel_z"
	maxErrorBody  = 64 << 10
)

type Config struct {
	URL     string
	AnonKey string
	Table   string
	// RPS caps the request rate against the project, burst is the same value.
	RPS     float64
	Timeout time.Duration
}

// APIError is a non-success PostgREST response.
type APIError struct {
	Status  int
	Code    string `json:"code"`
	Message string `json:"message"`
	Details string `json:"details"`
	Hint    string `json:"hint"`
}

func (e *APIError) Error() string {
	if e.Message == "" {
		return fmt.Sprintf("supabase: status %d", e.Status)
	}

	return fmt.Sprintf("supabase: status %d: %s", e.Status, e.Message)
}

type Client struct {
	endpoint *url.URL
	key      string
	http     *http.Client
	limiter  *rate.Limiter
	l        *slog.Logger
}

// New creates a client. A nil httpClient gets one with cfg.Timeout.
func New(l *slog.Logger, cfg Config, httpClient *http.Client) (*Client, error) {
	if cfg.URL == "" {
		return nil, errors.New("supabase url is required")
	}

	if cfg.AnonKey == "" {
		return nil, errors.New("supabase anon key is required")
	}

	base, err := url.Parse(strings.TrimSuffix(cfg.URL, "/"))
	if err != nil {
		return nil, fmt.Errorf("invalid supabase url: %w", err)
	}

	if base.Scheme != "http" && base.Scheme != "https" {
		return nil, fmt.Errorf("invalid supabase url scheme %q", base.Scheme)
	}

	if cfg.Table == "" {
		cfg.Table = DefaultTable
	}

	if cfg.RPS <= 0 {
		cfg.RPS = DefaultRPS
	}

	if cfg.Timeout <= 0 {
		cfg.Timeout = DefaultTimeout
	}

	if httpClient == nil {
		httpClient = &http.Client{Timeout: cfg.Timeout}
	}

	return &Client{
		endpoint: base.JoinPath(restPath, cfg.Table),
		key:      cfg.AnonKey,
		http:     httpClient,
		limiter:  rate.NewLimiter(rate.Limit(cfg.RPS), max(1, int(cfg.RPS))),
		l:        l.With(slog.String("component", "supabase-store"), slog.String("table", cfg.Table)),
	}, nil
}

func (c *Client) Kind() store.Kind {
	return store.KindSupabase
}

func (c *Client) do(ctx context.Context, method string, query url.Values, body []byte, prefer string) (*http.Response, error) {
	if err := c.limiter.Wait(ctx); err != nil {
		return nil, fmt.Errorf("rate limiter: %w", err)
	}

	u := *c.endpoint
	u.RawQuery = query.Encode()

	var reader io.Reader
	if body != nil {
		reader = bytes.NewReader(body)
	}

	req, err := http.NewRequestWithContext(ctx, method, u.String(), reader)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}

	req.Header.Set("apikey", c.key)
	req.Header.Set("Authorization", "Bearer "+c.key)
	req.Header.Set("Accept", "application/json")

	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	if prefer != "" {
		req.Header.Set("Prefer", prefer)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("supabase request failed: %w", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		defer utils.LogOnError(c.l, resp.Body.Close, "failed to close response body")
		return nil, readAPIError(resp)
	}

	return resp, nil
}

func readAPIError(resp *http.Response) error {
	apiErr := &APIError{Status: resp.StatusCode}

	data, err := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
	if err == nil && len(data) > 0 {
		if parsed, err := utils.FromJSONStreamLenient[APIError](bytes.NewReader(data)); err == nil {
			parsed.Status = resp.StatusCode
			apiErr = &parsed
		}
	}

	return apiErr
}

func (c *Client) selectRows(ctx context.Context, query url.Values) ([]sensor.Row, error) {
	query.Set("select", selectColumns)

	resp, err := c.do(ctx, http.MethodGet, query, nil, "")
	if err != nil {
		return nil, err
	}
	defer utils.LogOnError(c.l, resp.Body.Close, "failed to close response body")

	rows, err := utils.FromJSONStreamLenient[[]sensor.Row](resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to decode rows: %w", err)
	}

	if rows == nil {
		rows = []sensor.Row{}
	}

	return rows, nil
}

func (c *Client) Latest(ctx context.Context) (sensor.Row, error) {
	rows, err := c.selectRows(ctx, url.Values{
		"order": {"created_at.desc"},
		"limit": {"1"},
	})
	if err != nil {
		return sensor.Row{}, err
	}

	if len(rows) == 0 {
		return sensor.Row{}, store.ErrNoData
	}

	return rows[0], nil
}

func (c *Client) Since(ctx context.Context, since time.Time) ([]sensor.Row, error) {
	return c.selectRows(ctx, url.Values{
		"created_at": {"gte." + since.UTC().Format(time.RFC3339Nano)},
		"order":      {"created_at.asc"},
	})
}

func (c *Client) Insert(ctx context.Context, r sensor.Row) error {
	if err := r.Validate(); err != nil {
		return fmt.Errorf("invalid reading: %w", err)
	}

	if r.ID == "" {
		r.ID = utils.NewUUID()
	}

	body, err := utils.ToJSON(r)
	if err != nil {
		return fmt.Errorf("failed to encode reading: %w", err)
	}

	resp, err := c.do(ctx, http.MethodPost, url.Values{}, body, "return=minimal")
	if err != nil {
		return err
	}

	return resp.Body.Close()
}

func (c *Client) Ping(ctx context.Context) error {
	resp, err := c.do(ctx, http.MethodGet, url.Values{"select": {"id"}, "limit": {"1"}}, nil, "")
	if err != nil {
		return err
	}

	return resp.Body.Close()
}

func (c *Client) Close() error {
	c.http.CloseIdleConnections()
	return nil
}
