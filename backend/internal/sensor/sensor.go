// Package sensor holds the reading types shared by the stores, the API and
// the dashboard, and the conversions between the storage row and the API forms.
package sensor

import (
	"errors"
	"math"
	"time"

	"github.com/shopspring/decimal"
)

const (
	// Precision of temperature, humidity, pressure and altitude display strings.
	DisplayPlaces int32 = 1
	// Precision of acceleration display strings.
	AccelerationPlaces int32 = 2

	// HistoryWindow is the trailing window served by the history endpoints.
	HistoryWindow = 24 * time.Hour

	// MissingValue is displayed for a required measurement the row does not carry.
	MissingValue = "N/A"

	// ShortTimeLayout formats the parallel-array timestamps.
	ShortTimeLayout = "15:04"
)

// Row is one row of the sensor_readings table. Every measurement is nullable.
type Row struct {
	ID          string    `json:"id,omitempty"`
	CreatedAt   time.Time `json:"created_at"`
	Temperature *float64  `json:"bmp_temperature"`
	Humidity    *float64  `json:"humidity"`
	Pressure    *float64  `json:"pressure"`
	Altitude    *float64  `json:"altitude"`
	AccelX      *float64  `json:"accel_x"`
	AccelY      *float64  `json:"accel_y"`
	AccelZ      *float64  `json:"accel_z"`
}

// Validate rejects rows that carry no measurement or non finite values.
func (r Row) Validate() error {
	if r.CreatedAt.IsZero() {
		return errors.New("created_at is required")
	}

	values := []*float64{r.Temperature, r.Humidity, r.Pressure, r.Altitude, r.AccelX, r.AccelY, r.AccelZ}
	present := 0

	for _, v := range values {
		if v == nil {
			continue
		}

		if math.IsNaN(*v) || math.IsInf(*v, 0) {
			return errors.New("measurements must be finite numbers")
		}

		present++
	}

	if present == 0 {
		return errors.New("at least one measurement is required")
	}

	return nil
}

// Acceleration is a 3-axis acceleration vector of display strings.
type Acceleration struct {
	X string `json:"x"`
	Y string `json:"y"`
	Z string `json:"z"`
}

// Reading is the current snapshot served by /api/sensor-data.
type Reading struct {
	// Temperature in °C, one decimal
	Temperature string `json:"temperature"`
	// Relative humidity in %, one decimal
	Humidity string `json:"humidity"`
	// Pressure in hPa, one decimal
	Pressure string `json:"pressure"`
	// Altitude in m, null when the device does not report it
	Altitude *string `json:"altitude"`
	// Acceleration in m/s², absent when the device does not report it
	Acceleration *Acceleration `json:"acceleration,omitempty"`
	// Time the reading was stored
	CreatedAt time.Time `json:"created_at"`
}

// HistoryPoint is one temperature sample of the 24h series.
type HistoryPoint struct {
	Timestamp   time.Time `json:"timestamp"`
	Temperature float64   `json:"temperature"`
}

type AccelerationSeries struct {
	X []float64 `json:"x"`
	Y []float64 `json:"y"`
	Z []float64 `json:"z"`
}

// History is the parallel-array form of the trailing window. When the window
// is empty only Message is set.
type History struct {
	Timestamps   []string            `json:"timestamps,omitempty"`
	Temperature  []float64           `json:"temperature,omitempty"`
	Humidity     []float64           `json:"humidity,omitempty"`
	Pressure     []float64           `json:"pressure,omitempty"`
	Altitude     []float64           `json:"altitude,omitempty"`
	Acceleration *AccelerationSeries `json:"acceleration,omitempty"`
	Message      string              `json:"message,omitempty"`
}

// NoHistoryMessage is the message of an empty History.
const NoHistoryMessage = "No data in last 24 hours"

// Empty reports whether the history carries no samples.
func (h History) Empty() bool {
	return len(h.Timestamps) == 0
}

// Fixed formats v with exactly places decimals. It rounds the shortest decimal
// form of v half away from zero, so 50.05 gives "50.1" where rounding the
// binary value would give "50.0".
func Fixed(v float64, places int32) string {
	return decimal.NewFromFloat(v).StringFixed(places)
}

func fixedOr(v *float64, places int32, fallback string) string {
	if v == nil {
		return fallback
	}

	return Fixed(*v, places)
}

// ToReading converts a stored row to the snapshot form.
func ToReading(r Row) Reading {
	reading := Reading{
		Temperature: fixedOr(r.Temperature, DisplayPlaces, MissingValue),
		Humidity:    fixedOr(r.Humidity, DisplayPlaces, MissingValue),
		Pressure:    fixedOr(r.Pressure, DisplayPlaces, MissingValue),
		CreatedAt:   r.CreatedAt,
	}

	if r.Altitude != nil {
		altitude := Fixed(*r.Altitude, DisplayPlaces)
		reading.Altitude = &altitude
	}

	if r.AccelX != nil && r.AccelY != nil && r.AccelZ != nil {
		reading.Acceleration = &Acceleration{
			X: Fixed(*r.AccelX, AccelerationPlaces),
			Y: Fixed(*r.AccelY, AccelerationPlaces),
			Z: Fixed(*r.AccelZ, AccelerationPlaces),
		}
	}

	return reading
}

// ToHistoryPoints keeps the rows that carry a temperature.
func ToHistoryPoints(rows []Row) []HistoryPoint {
	points := make([]HistoryPoint, 0, len(rows))

	for _, r := range rows {
		if r.CreatedAt.IsZero() || r.Temperature == nil {
			continue
		}

		points = append(points, HistoryPoint{Timestamp: r.CreatedAt, Temperature: *r.Temperature})
	}

	return points
}

// ToHistory builds the parallel-array form. Missing measurements become 0 and
// timestamps are formatted as HH:MM in loc.
func ToHistory(rows []Row, loc *time.Location) History {
	if len(rows) == 0 {
		return History{Message: NoHistoryMessage}
	}

	if loc == nil {
		loc = time.UTC
	}

	n := len(rows)
	h := History{
		Timestamps:   make([]string, 0, n),
		Temperature:  make([]float64, 0, n),
		Humidity:     make([]float64, 0, n),
		Pressure:     make([]float64, 0, n),
		Altitude:     make([]float64, 0, n),
		Acceleration: &AccelerationSeries{X: make([]float64, 0, n), Y: make([]float64, 0, n), Z: make([]float64, 0, n)},
	}

	for _, r := range rows {
		h.Timestamps = append(h.Timestamps, r.CreatedAt.In(loc).Format(ShortTimeLayout))
		h.Temperature = append(h.Temperature, orZero(r.Temperature))
		h.Humidity = append(h.Humidity, orZero(r.Humidity))
		h.Pressure = append(h.Pressure, orZero(r.Pressure))
		h.Altitude = append(h.Altitude, orZero(r.Altitude))
		h.Acceleration.X = append(h.Acceleration.X, orZero(r.AccelX))
		h.Acceleration.Y = append(h.Acceleration.Y, orZero(r.AccelY))
		h.Acceleration.Z = append(h.Acceleration.Z, orZero(r.AccelZ))
	}

	return h
}

func orZero(v *float64) float64 {
	if v == nil {
		return 0
	}

	return *v
}

// AccelerationMagnitude returns sqrt(x²+y²+z²) per sample, truncated to the
// shortest axis. It is empty when the history has no acceleration.
func AccelerationMagnitude(h History) []float64 {
	if h.Acceleration == nil {
		return []float64{}
	}

	a := h.Acceleration
	n := min(len(a.X), len(a.Y), len(a.Z))
	out := make([]float64, n)

	for i := range n {
		out[i] = math.Sqrt(a.X[i]*a.X[i] + a.Y[i]*a.Y[i] + a.Z[i]*a.Z[i])
	}

	return out
}
