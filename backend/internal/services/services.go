package services

import (
	"log/slog"
	"time"

	"sensor-dashboard/backend/internal/store"
)

// ConnectionChecker reports the state of an optional broker connection.
type ConnectionChecker interface {
	IsConnected() bool
}

type Options struct {
	// Location of the short history timestamps, UTC when nil
	Location *time.Location
	// Now replaces time.Now
	Now func() time.Time
}

type Services struct {
	l      *slog.Logger
	Core   *CoreService
	Sensor *SensorService
}

// NewServices wires the services around st. mqtt may be nil when ingest is disabled.
func NewServices(l *slog.Logger, st store.Store, mqtt ConnectionChecker, opts Options) *Services {
	return &Services{
		l:      l.With(slog.String("module", "services")),
		Core:   NewCoreService(l, st, mqtt),
		Sensor: NewSensorService(l, st, opts),
	}
}
