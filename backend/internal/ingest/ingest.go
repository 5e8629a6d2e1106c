// Package ingest stores readings that devices publish over MQTT.
package ingest

import (
	"bytes"
	"context"
	"log/slog"
	"time"

	"sensor-dashboard/backend/internal/sensor"
	"sensor-dashboard/backend/pkg/mqtt"
	"sensor-dashboard/backend/pkg/utils"
)

const (
	ReadingsTopic = "devices/{deviceID}/readings"
	IngestGroup   = "Ingest"

	writeTimeout = 5 * time.Second
)

type Ingester interface {
	Ingest(ctx context.Context, row sensor.Row) error
}

// Handler handles MQTT message processing.
type Handler struct {
	l   *slog.Logger
	svc Ingester
}

// NewMQTTHandler creates a new MQTT handler.
func NewMQTTHandler(l *slog.Logger, svc Ingester) *Handler {
	return &Handler{
		l:   l.With(slog.String("component", "mqtt-handler")),
		svc: svc,
	}
}

// RegisterReadingSubscribe registers the device readings subscription.
func (h *Handler) RegisterReadingSubscribe(mb *mqtt.MQTTBuilder) {
	mb.MustRegisterSubscribe(ReadingsTopic, mqtt.SubscriptionSpec{
		OperationID: "ingestReading",
		Summary:     "Ingest device readings",
		Description: "Receives sensor readings from devices and stores them. The device ID is part of the topic path.",
		Group:       IngestGroup,
		Handler:     h.handleReading,
		QoS:         mqtt.QoSAtLeastOnce,
	})
}

// ToRow converts a device payload to a storage row. The ID is left to the store.
func (m ReadingMessage) ToRow(received time.Time) sensor.Row {
	row := sensor.Row{
		CreatedAt:   received,
		Temperature: m.Temperature,
		Humidity:    m.Humidity,
		Pressure:    m.Pressure,
		Altitude:    m.Altitude,
	}

	if m.Timestamp != nil && !m.Timestamp.IsZero() {
		row.CreatedAt = *m.Timestamp
	}

	if a := m.Acceleration; a != nil {
		row.AccelX, row.AccelY, row.AccelZ = utils.Ptr(a.X), utils.Ptr(a.Y), utils.Ptr(a.Z)
	}

	return row
}

func (h *Handler) handleReading(msg mqtt.Message) {
	l := h.l.With(slog.String("topic", msg.Topic), slog.String("deviceID", msg.Param("deviceID")))

	reading, err := utils.FromJSONStreamLenient[ReadingMessage](bytes.NewReader(msg.Payload))
	if err != nil {
		l.Error("Failed to unmarshal reading", utils.ErrAttr(err))
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), writeTimeout)
	defer cancel()

	if err := h.svc.Ingest(ctx, reading.ToRow(time.Now().UTC())); err != nil {
		l.Error("Failed to ingest reading", utils.ErrAttr(err))
		return
	}

	l.Debug("Ingested reading")
}
