// Package charts renders the mini charts of the dashboard as SVG.
package charts

import (
	"errors"
	"fmt"
	"io"
	"strings"

	chart "github.com/wcharczuk/go-chart/v2"
	"github.com/wcharczuk/go-chart/v2/drawing"
	"golang.org/x/text/cases"
	"golang.org/x/text/language"

	"sensor-dashboard/backend/internal/scene"
)

const (
	DefaultWidth  = 240
	DefaultHeight = 120
)

var ErrNoValues = errors.New("no values to chart")

// Spec describes one mini chart. Labels and Values are parallel.
type Spec struct {
	Metric scene.Metric
	Labels []string
	Values []float64
	// Color is either rgb(r,g,b) or #rrggbb
	Color  string
	Width  int
	Height int
}

// Title returns the display title of a metric.
func Title(m scene.Metric) string {
	// Casers keep state and are created per call.
	return cases.Title(language.English).String(string(m))
}

// ParseColor accepts the color notations used by the scene layout.
func ParseColor(s string) (drawing.Color, error) {
	s = strings.ReplaceAll(strings.TrimSpace(s), " ", "")

	if strings.HasPrefix(s, "#") {
		hex := strings.TrimPrefix(s, "#")
		if len(hex) != 3 && len(hex) != 6 {
			return drawing.Color{}, fmt.Errorf("invalid hex color %q", s)
		}

		return drawing.ColorFromHex(hex), nil
	}

	var r, g, b uint8
	if n, err := fmt.Sscanf(s, "rgb(%d,%d,%d)", &r, &g, &b); err != nil || n != 3 {
		return drawing.Color{}, fmt.Errorf("invalid color %q", s)
	}

	return drawing.Color{R: r, G: g, B: b, A: 255}, nil
}

// Render writes the chart of s to w as SVG.
func Render(w io.Writer, s Spec) error {
	if len(s.Values) == 0 {
		return ErrNoValues
	}

	color, err := ParseColor(s.Color)
	if err != nil {
		return err
	}

	if s.Width <= 0 {
		s.Width = DefaultWidth
	}

	if s.Height <= 0 {
		s.Height = DefaultHeight
	}

	xs := make([]float64, len(s.Values))
	for i := range xs {
		xs[i] = float64(i)
	}

	ys := s.Values

	// A single sample is drawn as a flat segment, go-chart needs a non-zero x range.
	if len(ys) == 1 {
		xs = []float64{0, 1}
		ys = []float64{ys[0], ys[0]}
	}

	ch := chart.Chart{
		Title:      Title(s.Metric),
		Width:      s.Width,
		Height:     s.Height,
		Background: chart.Style{Padding: chart.Box{Top: 24, Left: 8, Right: 8, Bottom: 8}},
		XAxis:      chart.XAxis{Ticks: ticks(s.Labels)},
		YAxis:      chart.YAxis{Range: yRange(ys)},
		Series: []chart.Series{
			chart.ContinuousSeries{
				Name:    Title(s.Metric),
				XValues: xs,
				YValues: ys,
				Style: chart.Style{
					StrokeColor: color,
					StrokeWidth: 2,
					FillColor:   color.WithAlpha(48),
				},
			},
		},
	}

	if err := ch.Render(chart.SVG, w); err != nil {
		return fmt.Errorf("render %s chart: %w", s.Metric, err)
	}

	return nil
}

// ticks labels the first, middle and last sample.
func ticks(labels []string) []chart.Tick {
	if len(labels) < 2 {
		return nil
	}

	idx := []int{0, (len(labels) - 1) / 2, len(labels) - 1}
	out := make([]chart.Tick, 0, len(idx))

	for i, n := range idx {
		if i > 0 && n == idx[i-1] {
			continue
		}

		out = append(out, chart.Tick{Value: float64(n), Label: labels[n]})
	}

	return out
}

func yRange(values []float64) *chart.ContinuousRange {
	lo, hi := values[0], values[0]
	for _, v := range values[1:] {
		lo = min(lo, v)
		hi = max(hi, v)
	}

	if lo == hi {
		lo, hi = lo-1, hi+1
	}

	return &chart.ContinuousRange{Min: lo, Max: hi}
}
