// Package projection maps a time/value series onto a fixed 2D span of a 3D scene.
package projection

import (
	"errors"
	"math"
	"time"
)

// Defaults used by the 24h temperature graph.
const (
	DefaultWidth       = 10.0
	DefaultHeight      = 5.0
	DefaultIntervals   = 4
	DefaultLabelOffset = 0.5
	DefaultTimeLayout  = "15:04"
)

// Config controls the size of the span the series is projected into.
type Config struct {
	Width       float64        // Width of the x span, centered at the origin
	Height      float64        // Height of the y span, centered at the origin
	Intervals   int            // Number of label intervals; Intervals+1 labels are produced
	LabelOffset float64        // Distance of the labels below the baseline
	TimeLayout  string         // time.Format layout for label text
	Location    *time.Location // Zone used for label text; UTC when nil
}

// DefaultConfig returns the configuration of the temperature graph.
func DefaultConfig() Config {
	return Config{
		Width:       DefaultWidth,
		Height:      DefaultHeight,
		Intervals:   DefaultIntervals,
		LabelOffset: DefaultLabelOffset,
		TimeLayout:  DefaultTimeLayout,
		Location:    time.UTC,
	}
}

// Validate reports whether the configuration can produce a curve.
func (c Config) Validate() error {
	if c.Width <= 0 || c.Height <= 0 {
		return errors.New("width and height must be positive")
	}

	if c.Intervals < 1 {
		return errors.New("intervals must be at least 1")
	}

	return nil
}

// Sample is a single reading of the series.
type Sample struct {
	Time  time.Time
	Value float64
}

// Vec3 is a position in scene coordinates.
type Vec3 struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
	Z float64 `json:"z"`
}

// AxisLabel is a time tick placed below the curve.
type AxisLabel struct {
	Label    string `json:"label"`
	Position Vec3   `json:"position"`
}

// Curve is the projected series.
type Curve struct {
	Points     []Vec3      `json:"points"`
	MinValue   float64     `json:"minValue"`
	MaxValue   float64     `json:"maxValue"`
	AxisLabels []AxisLabel `json:"axisLabels"`
}

// Empty reports whether there is nothing to draw.
func (c Curve) Empty() bool {
	return len(c.Points) == 0
}

// Project maps samples, ordered by time, into cfg's span.
// Fewer than two samples produce an empty curve.
func Project(samples []Sample, cfg Config) Curve {
	if len(samples) < 2 {
		return Curve{Points: []Vec3{}, AxisLabels: []AxisLabel{}}
	}

	lo, hi := samples[0].Value, samples[0].Value
	for _, s := range samples[1:] {
		lo = math.Min(lo, s.Value)
		hi = math.Max(hi, s.Value)
	}

	minValue := math.Floor(lo)
	maxValue := math.Ceil(hi)

	valueRange := maxValue - minValue
	if valueRange == 0 {
		valueRange = 1
	}

	start := samples[0].Time
	// Milliseconds, never below one so a series sharing one instant still projects.
	duration := math.Max(1, float64(samples[len(samples)-1].Time.Sub(start).Milliseconds()))

	halfW, halfH := cfg.Width/2, cfg.Height/2

	points := make([]Vec3, len(samples))
	for i, s := range samples {
		elapsed := float64(s.Time.Sub(start).Milliseconds())
		points[i] = Vec3{
			X: elapsed/duration*cfg.Width - halfW,
			Y: (s.Value-minValue)/valueRange*cfg.Height - halfH,
		}
	}

	return Curve{
		Points:     points,
		MinValue:   minValue,
		MaxValue:   maxValue,
		AxisLabels: axisLabels(start, duration, cfg),
	}
}

func axisLabels(start time.Time, durationMs float64, cfg Config) []AxisLabel {
	loc := cfg.Location
	if loc == nil {
		loc = time.UTC
	}

	layout := cfg.TimeLayout
	if layout == "" {
		layout = DefaultTimeLayout
	}

	intervals := cfg.Intervals
	if intervals < 1 {
		intervals = DefaultIntervals
	}

	n := float64(intervals)
	labels := make([]AxisLabel, intervals+1)

	for i := range labels {
		frac := float64(i) / n
		at := start.Add(time.Duration(frac*durationMs) * time.Millisecond)
		labels[i] = AxisLabel{
			Label: at.In(loc).Format(layout),
			Position: Vec3{
				X: frac*cfg.Width - cfg.Width/2,
				Y: -cfg.Height/2 - cfg.LabelOffset,
			},
		}
	}

	return labels
}
