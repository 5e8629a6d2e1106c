// Package scene declares what the dashboard shows for the current state of
// its feeds. Compose is a pure function; the page renders its result.
package scene

import (
	"fmt"
	"time"

	"sensor-dashboard/backend/internal/sensor"
	"sensor-dashboard/backend/pkg/feed"
	"sensor-dashboard/backend/pkg/projection"
)

// Branch is the render branch of the snapshot feed.
type Branch string

const (
	BranchError   Branch = "error"
	BranchLoading Branch = "loading"
	BranchLoaded  Branch = "loaded"
)

// MiniChart is the small line chart under a data point.
type MiniChart struct {
	Position projection.Vec3 `json:"position"`
	Labels   []string        `json:"labels"`
	Values   []float64       `json:"values"`
	Color    string          `json:"color"`
}

type DataPoint struct {
	Metric   Metric          `json:"metric"`
	Name     string          `json:"name"`
	Value    string          `json:"value"`
	Position projection.Vec3 `json:"position"`
	Chart    *MiniChart      `json:"chart,omitempty"`
}

type Label struct {
	Text     string          `json:"text"`
	Position projection.Vec3 `json:"position"`
}

// Graph is the projected 24h temperature curve. Positions are relative to Position.
type Graph struct {
	Position   projection.Vec3        `json:"position"`
	Title      Label                  `json:"title"`
	Color      string                 `json:"color"`
	Points     []projection.Vec3      `json:"points"`
	MinLabel   Label                  `json:"minLabel"`
	MaxLabel   Label                  `json:"maxLabel"`
	AxisLabels []projection.AxisLabel `json:"axisLabels"`
}

type Scene struct {
	Branch Branch `json:"branch"`
	// Message is the error banner or the loading placeholder
	Message string      `json:"message,omitempty"`
	Points  []DataPoint `json:"points"`
	// Graph is nil while the temperature series cannot be drawn
	Graph     *Graph    `json:"graph,omitempty"`
	UpdatedAt time.Time `json:"updatedAt"`
}

// Inputs are the feed states a scene is composed from.
type Inputs struct {
	Snapshot    feed.State[sensor.Reading]
	History     feed.State[sensor.History]
	Temperature feed.State[[]sensor.HistoryPoint]
}

// Compose builds the scene for the given feed states.
//
// The snapshot feed selects the branch. Data points need both the snapshot
// and a non-empty history; an empty or pending history keeps the loading
// branch, a failed one only hides the points. The graph depends on the
// temperature feed alone.
func Compose(layout Layout, in Inputs) Scene {
	s := Scene{
		Points:    []DataPoint{},
		Graph:     composeGraph(layout, in.Temperature),
		UpdatedAt: latest(in.Snapshot.UpdatedAt, in.History.UpdatedAt, in.Temperature.UpdatedAt),
	}

	switch {
	case in.Snapshot.Failed():
		s.Branch = BranchError
		s.Message = layout.ErrorText
	case in.Snapshot.Loading():
		s.Branch = BranchLoading
		s.Message = layout.LoadingText
	case in.History.Failed():
		s.Branch = BranchLoaded
	case in.History.Loading() || in.History.Data.Empty():
		s.Branch = BranchLoading
		s.Message = layout.LoadingText
	default:
		s.Branch = BranchLoaded
		s.Points = composePoints(layout, in.Snapshot.Data, in.History.Data)
	}

	return s
}

func latest(times ...time.Time) time.Time {
	var out time.Time
	for _, t := range times {
		if t.After(out) {
			out = t
		}
	}

	return out
}

// Series returns the chart values of a metric, false when the history does not carry it.
func Series(h sensor.History, m Metric) ([]float64, bool) {
	var values []float64

	switch m {
	case MetricTemperature:
		values = h.Temperature
	case MetricHumidity:
		values = h.Humidity
	case MetricPressure:
		values = h.Pressure
	case MetricAltitude:
		values = h.Altitude
	case MetricAcceleration:
		values = sensor.AccelerationMagnitude(h)
	}

	return values, len(values) > 0
}

func composePoints(layout Layout, r sensor.Reading, h sensor.History) []DataPoint {
	values := map[Metric]string{
		MetricTemperature: r.Temperature,
		MetricHumidity:    r.Humidity,
		MetricPressure:    r.Pressure,
	}

	if r.Altitude != nil {
		values[MetricAltitude] = *r.Altitude
	}

	if a := r.Acceleration; a != nil {
		values[MetricAcceleration] = fmt.Sprintf("X:%s Y:%s Z:%s", a.X, a.Y, a.Z)
	}

	points := make([]DataPoint, 0, len(Metrics))

	for _, m := range Metrics {
		value, ok := values[m]
		if !ok {
			continue
		}

		series, ok := Series(h, m)

		// Optional metrics are only shown together with their history.
		if !ok && (m == MetricAltitude || m == MetricAcceleration) {
			continue
		}

		pl := layout.Points[m]
		p := DataPoint{
			Metric:   m,
			Name:     pl.Name,
			Value:    value + pl.Suffix,
			Position: pl.Position,
		}

		if ok {
			p.Chart = &MiniChart{
				Position: projection.Vec3{X: pl.Position.X, Y: pl.Position.Y - layout.ChartDrop, Z: pl.Position.Z},
				Labels:   h.Timestamps,
				Values:   series,
				Color:    pl.Color,
			}
		}

		points = append(points, p)
	}

	return points
}

func composeGraph(layout Layout, st feed.State[[]sensor.HistoryPoint]) *Graph {
	if !st.Loaded() || len(st.Data) < 2 {
		return nil
	}

	samples := make([]projection.Sample, len(st.Data))
	for i, p := range st.Data {
		samples[i] = projection.Sample{Time: p.Timestamp, Value: p.Temperature}
	}

	curve := projection.Project(samples, layout.Projection)
	if curve.Empty() {
		return nil
	}

	halfW, halfH := layout.Projection.Width/2, layout.Projection.Height/2
	labelX := -halfW - layout.ValueLabelOffset

	return &Graph{
		Position: layout.GraphPosition,
		Title: Label{
			Text:     layout.GraphTitle,
			Position: projection.Vec3{Y: halfH + layout.TitleOffset},
		},
		Color:      layout.GraphColor,
		Points:     curve.Points,
		MaxLabel:   Label{Text: fmt.Sprintf("%g%s", curve.MaxValue, layout.GraphUnit), Position: projection.Vec3{X: labelX, Y: halfH}},
		MinLabel:   Label{Text: fmt.Sprintf("%g%s", curve.MinValue, layout.GraphUnit), Position: projection.Vec3{X: labelX, Y: -halfH}},
		AxisLabels: curve.AxisLabels,
	}
}
