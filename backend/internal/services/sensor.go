package services

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"sensor-dashboard/backend/internal/sensor"
	"sensor-dashboard/backend/internal/store"
)

// SensorService serves the snapshot and the trailing window of readings.
type SensorService struct {
	l      *slog.Logger
	reader store.Reader
	writer store.Writer
	loc    *time.Location
	now    func() time.Time
}

func NewSensorService(l *slog.Logger, st store.Store, opts Options) *SensorService {
	svc := &SensorService{
		l:      l.With(slog.String("service", "sensor")),
		reader: st,
		loc:    opts.Location,
		now:    opts.Now,
	}

	if svc.loc == nil {
		svc.loc = time.UTC
	}

	if svc.now == nil {
		svc.now = time.Now
	}

	// A nil writer means ingest is refused with store.ErrReadOnly.
	if w, err := store.AsWriter(st); err == nil {
		svc.writer = w
	}

	return svc
}

// Latest returns the newest reading, or store.ErrNoData for an empty table.
func (s *SensorService) Latest(ctx context.Context) (sensor.Reading, error) {
	row, err := s.reader.Latest(ctx)
	if err != nil {
		return sensor.Reading{}, fmt.Errorf("failed to read latest reading: %w", err)
	}

	return sensor.ToReading(row), nil
}

func (s *SensorService) window(ctx context.Context) ([]sensor.Row, error) {
	rows, err := s.reader.Since(ctx, s.now().Add(-sensor.HistoryWindow))
	if err != nil {
		return nil, fmt.Errorf("failed to read history window: %w", err)
	}

	return rows, nil
}

// TemperatureHistory returns the temperature samples of the trailing window, oldest first.
func (s *SensorService) TemperatureHistory(ctx context.Context) ([]sensor.HistoryPoint, error) {
	rows, err := s.window(ctx)
	if err != nil {
		return nil, err
	}

	return sensor.ToHistoryPoints(rows), nil
}

// History returns the parallel-array form of the trailing window.
func (s *SensorService) History(ctx context.Context) (sensor.History, error) {
	rows, err := s.window(ctx)
	if err != nil {
		return sensor.History{}, err
	}

	return sensor.ToHistory(rows, s.loc), nil
}

// Writable reports whether Ingest can store readings.
func (s *SensorService) Writable() bool {
	return s.writer != nil
}

// Ingest stores a reading received from a device. A zero CreatedAt is set to now.
func (s *SensorService) Ingest(ctx context.Context, row sensor.Row) error {
	if s.writer == nil {
		return store.ErrReadOnly
	}

	if row.CreatedAt.IsZero() {
		row.CreatedAt = s.now()
	}

	if err := s.writer.Insert(ctx, row); err != nil {
		return fmt.Errorf("failed to store reading: %w", err)
	}

	return nil
}
