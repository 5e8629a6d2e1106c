package scene

import (
	"errors"
	"fmt"

	"sensor-dashboard/backend/pkg/projection"
)

// Metric names a measurement shown in the scene.
type Metric string

const (
	MetricTemperature  Metric = "temperature"
	MetricHumidity     Metric = "humidity"
	MetricPressure     Metric = "pressure"
	MetricAltitude     Metric = "altitude"
	MetricAcceleration Metric = "acceleration"
)

// Metrics lists every metric in display order.
var Metrics = []Metric{MetricTemperature, MetricHumidity, MetricPressure, MetricAltitude, MetricAcceleration}

func (m Metric) Validate() error {
	for _, known := range Metrics {
		if m == known {
			return nil
		}
	}

	return fmt.Errorf("unknown metric %q", m)
}

// PointLayout places one labeled data point.
type PointLayout struct {
	Name     string          // Label shown before the value
	Position projection.Vec3 // Position of the label
	Color    string          // Line color of the mini chart
	Suffix   string          // Appended to the value, unit included
}

type Layout struct {
	Points map[Metric]PointLayout
	// ChartDrop is how far below its point a mini chart is placed
	ChartDrop float64

	GraphPosition projection.Vec3
	GraphTitle    string
	GraphColor    string
	GraphUnit     string
	// Gaps between the graph span and its title and min/max labels
	TitleOffset      float64
	ValueLabelOffset float64
	Projection       projection.Config

	ErrorText   string
	LoadingText string
}

// DefaultLayout returns the layout of the dashboard scene.
func DefaultLayout() Layout {
	return Layout{
		Points: map[Metric]PointLayout{
			MetricTemperature:  {Name: "Temp", Position: projection.Vec3{X: -5, Y: 3}, Color: "rgb(255,99,132)", Suffix: "°C"},
			MetricHumidity:     {Name: "Humidity", Position: projection.Vec3{X: 5, Y: 2.5}, Color: "rgb(54,162,235)", Suffix: "%"},
			MetricPressure:     {Name: "Pressure", Position: projection.Vec3{X: -6, Y: -2}, Color: "rgb(255,206,86)", Suffix: " hPa"},
			MetricAltitude:     {Name: "Altitude", Position: projection.Vec3{X: 0, Y: -4}, Color: "rgb(75,192,192)", Suffix: " m"},
			MetricAcceleration: {Name: "Accel", Position: projection.Vec3{X: 6, Y: -2.5}, Color: "rgb(153,102,255)"},
		},
		ChartDrop:        1.2,
		GraphPosition:    projection.Vec3{Z: -3},
		GraphTitle:       "Temperature (24h)",
		GraphColor:       "#88ddff",
		GraphUnit:        "°C",
		TitleOffset:      0.5,
		ValueLabelOffset: 0.2,
		Projection:       projection.DefaultConfig(),
		ErrorText:        "Failed to load data",
		LoadingText:      "Loading...",
	}
}

func (l Layout) Validate() error {
	for _, m := range Metrics {
		if _, ok := l.Points[m]; !ok {
			return fmt.Errorf("layout for %s is missing", m)
		}
	}

	if l.ChartDrop < 0 {
		return errors.New("chart drop must not be negative")
	}

	return l.Projection.Validate()
}
