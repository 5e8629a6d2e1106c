// Package feed polls a JSON endpoint on a fixed period and exposes the latest
// result as a loading, error or loaded state.
package feed

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"sync"
	"time"

	"github.com/cenkalti/backoff/v4"

	"sensor-dashboard/backend/pkg/utils"
)

const (
	DefaultRetryCount    = 3
	DefaultRetryInterval = 5 * time.Second
	DefaultTimeout       = 10 * time.Second
)

// Doer issues HTTP requests. *http.Client satisfies it.
type Doer interface {
	Do(req *http.Request) (*http.Response, error)
}

// DecodeFunc turns a successful response body into a value.
type DecodeFunc[T any] func(r io.Reader) (T, error)

// Config describes one feed.
type Config struct {
	Name              string        // Name used in logs
	URL               string        // Absolute URL of the endpoint
	Interval          time.Duration // Refresh period
	RetryCount        int           // Retries after a failed fetch before the error is surfaced
	RetryInterval     time.Duration // Delay between retries
	Timeout           time.Duration // Per request timeout
	RevalidateOnFocus bool          // Whether Revalidate triggers a refetch
}

func (c *Config) applyDefaults() {
	if c.RetryInterval <= 0 {
		c.RetryInterval = DefaultRetryInterval
	}

	if c.Timeout <= 0 {
		c.Timeout = DefaultTimeout
	}

	if c.Name == "" {
		c.Name = c.URL
	}
}

func (c Config) validate() error {
	u, err := url.Parse(c.URL)
	if err != nil {
		return fmt.Errorf("invalid url: %w", err)
	}

	if u.Scheme != "http" && u.Scheme != "https" {
		return fmt.Errorf("invalid url %q: scheme must be http or https", c.URL)
	}

	if c.Interval <= 0 {
		return errors.New("interval must be positive")
	}

	if c.RetryCount < 0 {
		return errors.New("retry count must not be negative")
	}

	return nil
}

// Feed is a single periodically refreshed endpoint.
type Feed[T any] struct {
	cfg    Config
	client Doer
	decode DecodeFunc[T]
	l      *slog.Logger

	mu    sync.RWMutex
	state State[T]

	revalidate chan struct{}
	updates    chan State[T]

	lifecycle sync.Mutex
	cancel    context.CancelFunc
	done      chan struct{}
}

// New creates a feed. A nil decode decodes the body as JSON into T.
func New[T any](l *slog.Logger, client Doer, cfg Config, decode DecodeFunc[T]) (*Feed[T], error) {
	cfg.applyDefaults()

	if err := cfg.validate(); err != nil {
		return nil, fmt.Errorf("feed %s: %w", cfg.Name, err)
	}

	if client == nil {
		client = &http.Client{Timeout: cfg.Timeout}
	}

	if decode == nil {
		decode = utils.FromJSONStreamLenient[T]
	}

	return &Feed[T]{
		cfg:        cfg,
		client:     client,
		decode:     decode,
		l:          l.With(slog.String("component", "feed"), slog.String("feed", cfg.Name)),
		revalidate: make(chan struct{}, 1),
		updates:    make(chan State[T], 1),
	}, nil
}

// Start fetches once and then on every tick until ctx ends or Stop is called.
// Calling Start on a running feed does nothing.
func (f *Feed[T]) Start(ctx context.Context) {
	f.lifecycle.Lock()
	defer f.lifecycle.Unlock()

	if f.cancel != nil {
		return
	}

	ctx, f.cancel = context.WithCancel(ctx)
	f.done = make(chan struct{})

	go f.run(ctx, f.done)
}

// Stop ends polling and waits for an in flight fetch to return. Safe to call more than once.
func (f *Feed[T]) Stop() {
	f.lifecycle.Lock()
	defer f.lifecycle.Unlock()

	if f.cancel == nil {
		return
	}

	f.cancel()
	<-f.done

	f.cancel = nil
	f.done = nil
}

// Revalidate asks for an immediate refetch, the hook for a view regaining focus.
// Requests made while a fetch is pending are coalesced.
func (f *Feed[T]) Revalidate() {
	if !f.cfg.RevalidateOnFocus {
		return
	}

	select {
	case f.revalidate <- struct{}{}:
	default:
	}
}

// State returns the current snapshot.
func (f *Feed[T]) State() State[T] {
	f.mu.RLock()
	defer f.mu.RUnlock()

	return f.state
}

// Updates delivers the latest state after every completed fetch. Only the most recent
// state is buffered; receivers that fall behind skip intermediate states.
func (f *Feed[T]) Updates() <-chan State[T] {
	return f.updates
}

// Config returns the feed configuration with defaults applied.
func (f *Feed[T]) Config() Config {
	return f.cfg
}

func (f *Feed[T]) run(ctx context.Context, done chan<- struct{}) {
	defer close(done)

	ticker := time.NewTicker(f.cfg.Interval)
	defer ticker.Stop()

	f.l.Debug("feed started", slog.Duration("interval", f.cfg.Interval))
	f.refresh(ctx, ticker.C)

	for {
		select {
		case <-ctx.Done():
			f.l.Debug("feed stopped")
			return
		case <-ticker.C:
			f.refresh(ctx, ticker.C)
		case <-f.revalidate:
			f.refresh(ctx, ticker.C)
		}
	}
}

func drain[C any](ch <-chan C) {
	select {
	case <-ch:
	default:
	}
}

func (f *Feed[T]) refresh(ctx context.Context, ticks <-chan time.Time) {
	var (
		value    T
		attempts int
	)

	op := func() error {
		attempts++

		v, err := f.fetch(ctx)
		if err != nil {
			if ctx.Err() != nil {
				return backoff.Permanent(err)
			}

			f.l.Warn("fetch failed", slog.Int("attempt", attempts), utils.ErrAttr(err))

			return err
		}

		value = v

		return nil
	}

	policy := backoff.WithContext(
		backoff.WithMaxRetries(backoff.NewConstantBackOff(f.cfg.RetryInterval), uint64(f.cfg.RetryCount)),
		ctx,
	)

	err := backoff.Retry(op, policy)
	if ctx.Err() != nil {
		// Teardown, not a failure of the endpoint.
		return
	}

	// Ticks and revalidations that piled up during this fetch are dropped before the
	// result is published, so requests never overlap or run back to back.
	drain(ticks)
	drain[struct{}](f.revalidate)

	f.mu.Lock()
	if err != nil {
		f.state = State[T]{Status: StatusError, Data: f.state.Data, Err: err, UpdatedAt: time.Now()}
		f.l.Error("feed failed", slog.Int("attempts", attempts), utils.ErrAttr(err))
	} else {
		f.state = State[T]{Status: StatusLoaded, Data: value, UpdatedAt: time.Now()}
	}
	snapshot := f.state
	f.mu.Unlock()

	drain[State[T]](f.updates)
	f.updates <- snapshot
}

func (f *Feed[T]) fetch(ctx context.Context) (T, error) {
	var zero T

	ctx, cancel := context.WithTimeout(ctx, f.cfg.Timeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, f.cfg.URL, nil)
	if err != nil {
		return zero, fmt.Errorf("failed to create request: %w", err)
	}

	req.Header.Set("Accept", "application/json")

	resp, err := f.client.Do(req)
	if err != nil {
		return zero, fmt.Errorf("failed to execute request: %w", err)
	}
	defer utils.LogOnError(f.l, resp.Body.Close, "failed to close response body")

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return zero, newFetchError(f.cfg.URL, resp)
	}

	v, err := f.decode(resp.Body)
	if err != nil {
		return zero, fmt.Errorf("failed to decode response from %s: %w", f.cfg.URL, err)
	}

	return v, nil
}
