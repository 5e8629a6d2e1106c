package services

import (
	"context"
	"log/slog"

	"sensor-dashboard/backend/internal/store"
	"sensor-dashboard/backend/pkg/utils"
)

type CoreService struct {
	l     *slog.Logger
	store store.Store
	mqtt  ConnectionChecker
}

func NewCoreService(l *slog.Logger, st store.Store, mqtt ConnectionChecker) *CoreService {
	return &CoreService{
		l:     l.With(slog.String("service", "core")),
		store: st,
		mqtt:  mqtt,
	}
}

type HealthStatus struct {
	Store     bool
	StoreKind store.Kind
	// MQTT is nil when no broker connection is configured
	MQTT *bool
}

// Healthy reports whether every configured dependency is reachable.
func (h HealthStatus) Healthy() bool {
	return h.Store && (h.MQTT == nil || *h.MQTT)
}

func (s *CoreService) Health(ctx context.Context) HealthStatus {
	status := HealthStatus{
		Store:     true,
		StoreKind: s.store.Kind(),
	}

	if err := s.store.Ping(ctx); err != nil {
		s.l.Error("store unreachable", slog.String("store", s.store.Kind().String()), utils.ErrAttr(err))
		status.Store = false
	}

	if s.mqtt != nil {
		connected := s.mqtt.IsConnected()
		if !connected {
			s.l.Error("mqtt broker unreachable")
		}

		status.MQTT = utils.Ptr(connected)
	}

	return status
}
