package api

import (
	"log/slog"

	"sensor-dashboard/backend/internal/services"
)

const (
	CoreGroup   = "Core"
	SensorGroup = "Sensor"
)

// DocumentFunc renders the OpenAPI document of the registered routes.
type DocumentFunc func() ([]byte, error)

// Handler represents the API handler.
type Handler struct {
	l       *slog.Logger
	svc     *services.Services
	version string
	openapi DocumentFunc
}

// NewHandler creates a new API handler. openapi may be nil, the document
// route then answers 404.
func NewHandler(l *slog.Logger, svc *services.Services, version string, openapi DocumentFunc) *Handler {
	return &Handler{
		l:       l.With(slog.String("component", "api")),
		svc:     svc,
		version: version,
		openapi: openapi,
	}
}
