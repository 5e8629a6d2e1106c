package ingest

import "time"

// Vector is a 3-axis acceleration sample in m/s².
type Vector struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
	Z float64 `json:"z"`
}

// ReadingMessage is the payload a device publishes on devices/{deviceID}/readings.
// Every measurement is optional, at least one must be present.
type ReadingMessage struct {
	// Temperature in °C from the BMP sensor
	Temperature *float64 `json:"temperature,omitempty"`
	// Relative humidity in %
	Humidity *float64 `json:"humidity,omitempty"`
	// Pressure in hPa
	Pressure *float64 `json:"pressure,omitempty"`
	// Altitude in m
	Altitude *float64 `json:"altitude,omitempty"`
	// Acceleration in m/s²
	Acceleration *Vector `json:"acceleration,omitempty"`
	// Time the device took the reading, the receive time when omitted
	Timestamp *time.Time `json:"timestamp,omitempty"`
}
