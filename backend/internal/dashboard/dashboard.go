// Package dashboard owns the polling feeds of the page and turns their state
// into a scene, the HTML shell and the mini chart images.
package dashboard

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"sync"

	"sensor-dashboard/backend/internal/charts"
	"sensor-dashboard/backend/internal/config"
	"sensor-dashboard/backend/internal/scene"
	"sensor-dashboard/backend/internal/sensor"
	"sensor-dashboard/backend/pkg/feed"
	"sensor-dashboard/backend/pkg/utils"
)

// Endpoints polled by the feeds, relative to the base URL.
const (
	CurrentPath     = "/api/sensor-data"
	HistoryPath     = "/api/sensor-history"
	TemperaturePath = "/api/sensor-data/history"
)

var ErrChartUnavailable = errors.New("chart data is not available")

type Config struct {
	BaseURL string
	Feeds   config.FeedConfig
	Layout  scene.Layout
}

// Dashboard runs the current, history and 24h temperature feeds together.
type Dashboard struct {
	l      *slog.Logger
	layout scene.Layout

	current     *feed.Feed[sensor.Reading]
	history     *feed.Feed[sensor.History]
	temperature *feed.Feed[[]sensor.HistoryPoint]

	mu     sync.Mutex
	cancel context.CancelFunc
	wg     sync.WaitGroup
}

// New creates the feeds. A nil client gives every feed its own http.Client.
func New(l *slog.Logger, client feed.Doer, cfg Config) (*Dashboard, error) {
	if err := cfg.Layout.Validate(); err != nil {
		return nil, fmt.Errorf("invalid layout: %w", err)
	}

	l = l.With(slog.String("component", "dashboard"))
	base := strings.TrimSuffix(cfg.BaseURL, "/")

	current, err := feed.New[sensor.Reading](l, client, feed.Config{
		Name:              "current",
		URL:               base + CurrentPath,
		Interval:          cfg.Feeds.CurrentInterval,
		RetryCount:        cfg.Feeds.RetryCount,
		RetryInterval:     cfg.Feeds.RetryInterval,
		RevalidateOnFocus: true,
	}, nil)
	if err != nil {
		return nil, err
	}

	history, err := feed.New[sensor.History](l, client, feed.Config{
		Name:          "history",
		URL:           base + HistoryPath,
		Interval:      cfg.Feeds.HistoryInterval,
		RetryCount:    cfg.Feeds.RetryCount,
		RetryInterval: cfg.Feeds.RetryInterval,
	}, nil)
	if err != nil {
		return nil, err
	}

	temperature, err := feed.New[[]sensor.HistoryPoint](l, client, feed.Config{
		Name:          "temperature",
		URL:           base + TemperaturePath,
		Interval:      cfg.Feeds.TemperatureInterval,
		RetryCount:    cfg.Feeds.RetryCount,
		RetryInterval: cfg.Feeds.RetryInterval,
	}, nil)
	if err != nil {
		return nil, err
	}

	return &Dashboard{
		l:           l,
		layout:      cfg.Layout,
		current:     current,
		history:     history,
		temperature: temperature,
	}, nil
}

// Start starts all feeds. Calling Start on a running dashboard does nothing.
func (d *Dashboard) Start(ctx context.Context) {
	d.mu.Lock()
	defer d.mu.Unlock()

	if d.cancel != nil {
		return
	}

	ctx, d.cancel = context.WithCancel(ctx)

	d.current.Start(ctx)
	d.history.Start(ctx)
	d.temperature.Start(ctx)

	d.wg.Add(3)

	go watch(ctx, &d.wg, d.l, "current", d.current.Updates())
	go watch(ctx, &d.wg, d.l, "history", d.history.Updates())
	go watch(ctx, &d.wg, d.l, "temperature", d.temperature.Updates())

	d.l.Info("dashboard started")
}

// Stop stops all feeds and waits for them. Safe to call more than once.
func (d *Dashboard) Stop() {
	d.mu.Lock()
	defer d.mu.Unlock()

	if d.cancel == nil {
		return
	}

	d.cancel()
	d.current.Stop()
	d.history.Stop()
	d.temperature.Stop()
	d.wg.Wait()

	d.cancel = nil

	d.l.Info("dashboard stopped")
}

// watch logs the transitions of a feed between the error and loaded branches.
func watch[T any](ctx context.Context, wg *sync.WaitGroup, l *slog.Logger, name string, updates <-chan feed.State[T]) {
	defer wg.Done()

	l = l.With(slog.String("feed", name))
	failing := false

	for {
		select {
		case <-ctx.Done():
			return
		case st := <-updates:
			switch {
			case st.Failed() && !failing:
				l.Warn("feed failed", utils.ErrAttr(st.Err))
			case st.Loaded() && failing:
				l.Info("feed recovered")
			}

			failing = st.Failed()
		}
	}
}

// Revalidate refetches the feeds that follow view focus.
func (d *Dashboard) Revalidate() {
	d.current.Revalidate()
	d.history.Revalidate()
	d.temperature.Revalidate()
}

func (d *Dashboard) Layout() scene.Layout {
	return d.layout
}

// Scene composes the scene from the current feed states.
func (d *Dashboard) Scene() scene.Scene {
	return scene.Compose(d.layout, scene.Inputs{
		Snapshot:    d.current.State(),
		History:     d.history.State(),
		Temperature: d.temperature.State(),
	})
}

// Chart returns the mini chart of a metric from the loaded history.
func (d *Dashboard) Chart(m scene.Metric) (charts.Spec, error) {
	if err := m.Validate(); err != nil {
		return charts.Spec{}, err
	}

	st := d.history.State()
	if !st.Loaded() {
		return charts.Spec{}, ErrChartUnavailable
	}

	values, ok := scene.Series(st.Data, m)
	if !ok {
		return charts.Spec{}, ErrChartUnavailable
	}

	return charts.Spec{
		Metric: m,
		Labels: st.Data.Timestamps,
		Values: values,
		Color:  d.layout.Points[m].Color,
	}, nil
}
