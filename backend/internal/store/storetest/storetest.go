// Package storetest runs the behaviour every writable store must share.
package storetest

import (
	"context"
	"errors"
	"testing"
	"time"

	"sensor-dashboard/backend/internal/sensor"
	"sensor-dashboard/backend/internal/store"
	"sensor-dashboard/backend/pkg/utils"
)

// WritableStore is a store that also accepts inserts.
type WritableStore interface {
	store.Store
	store.Writer
}

// Run exercises an empty store returned by open.
func Run(t *testing.T, open func(t *testing.T) WritableStore) {
	t.Helper()

	t.Run("empty store", func(t *testing.T) {
		t.Parallel()

		s := open(t)
		ctx := context.Background()

		if _, err := s.Latest(ctx); !errors.Is(err, store.ErrNoData) {
			t.Fatalf("Latest() error = %v, want ErrNoData", err)
		}

		rows, err := s.Since(ctx, time.Now().Add(-sensor.HistoryWindow))
		if err != nil {
			t.Fatalf("Since() error = %v", err)
		}

		if len(rows) != 0 {
			t.Errorf("Since() returned %d rows, want 0", len(rows))
		}

		if err := s.Ping(ctx); err != nil {
			t.Errorf("Ping() error = %v", err)
		}
	})

	t.Run("insert latest since", func(t *testing.T) {
		t.Parallel()

		s := open(t)
		ctx := context.Background()
		now := time.Now().UTC().Truncate(time.Second)

		rows := []sensor.Row{
			{ID: utils.NewUUID(), CreatedAt: now.Add(-25 * time.Hour), Temperature: utils.Ptr(18.0)},
			{ID: utils.NewUUID(), CreatedAt: now.Add(-2 * time.Hour), Temperature: utils.Ptr(21.5), Humidity: utils.Ptr(55.0)},
			{ID: utils.NewUUID(), CreatedAt: now.Add(-1 * time.Hour), Humidity: utils.Ptr(56.0)},
			{
				ID: utils.NewUUID(), CreatedAt: now, Temperature: utils.Ptr(22.25), Pressure: utils.Ptr(1011.0),
				AccelX: utils.Ptr(0.1), AccelY: utils.Ptr(0.2), AccelZ: utils.Ptr(9.8),
			},
		}

		// Insert out of order, reads must still be time ordered.
		for _, i := range []int{2, 0, 3, 1} {
			if err := s.Insert(ctx, rows[i]); err != nil {
				t.Fatalf("Insert() error = %v", err)
			}
		}

		latest, err := s.Latest(ctx)
		if err != nil {
			t.Fatalf("Latest() error = %v", err)
		}

		if latest.ID != rows[3].ID || !latest.CreatedAt.Equal(now) {
			t.Errorf("Latest() = %s @ %s, want %s @ %s", latest.ID, latest.CreatedAt, rows[3].ID, now)
		}

		if latest.Temperature == nil || *latest.Temperature != 22.25 {
			t.Errorf("Latest().Temperature = %v, want 22.25", latest.Temperature)
		}

		if latest.Humidity != nil || latest.Altitude != nil {
			t.Error("null measurements must stay null")
		}

		if latest.AccelZ == nil || *latest.AccelZ != 9.8 {
			t.Errorf("Latest().AccelZ = %v, want 9.8", latest.AccelZ)
		}

		got, err := s.Since(ctx, now.Add(-sensor.HistoryWindow))
		if err != nil {
			t.Fatalf("Since() error = %v", err)
		}

		if len(got) != 3 {
			t.Fatalf("Since() returned %d rows, want 3", len(got))
		}

		for i, want := range rows[1:] {
			if got[i].ID != want.ID {
				t.Errorf("Since()[%d] = %s, want %s", i, got[i].ID, want.ID)
			}
		}

		// The lower bound is inclusive.
		got, err = s.Since(ctx, now)
		if err != nil {
			t.Fatalf("Since(now) error = %v", err)
		}

		if len(got) != 1 || got[0].ID != rows[3].ID {
			t.Errorf("Since(now) = %+v, want only the latest row", got)
		}
	})

	t.Run("insert rejects invalid rows", func(t *testing.T) {
		t.Parallel()

		s := open(t)
		if err := s.Insert(context.Background(), sensor.Row{ID: utils.NewUUID(), CreatedAt: time.Now()}); err == nil {
			t.Fatal("Insert() accepted a row without measurements")
		}
	})
}
