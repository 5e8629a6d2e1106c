//go:build cgo

package sqldb

import (
	"context"
	"io"
	"log/slog"
	"path/filepath"
	"testing"

	"sensor-dashboard/backend/internal/store"
	"sensor-dashboard/backend/internal/store/storetest"
	"sensor-dashboard/backend/pkg/dialect"
)

func openSQLite(t *testing.T) storetest.WritableStore {
	t.Helper()

	s, err := Open(context.Background(), slog.New(slog.NewTextHandler(io.Discard, nil)), dialect.SQLite, filepath.Join(t.TempDir(), "sensor.db"))
	if err != nil {
		t.Fatalf("Open() error = %v", err)
	}

	t.Cleanup(func() {
		if err := s.Close(); err != nil {
			t.Errorf("Close() error = %v", err)
		}
	})

	return s
}

func TestSQLiteStore(t *testing.T) {
	t.Parallel()

	storetest.Run(t, openSQLite)
}

func TestSQLiteKind(t *testing.T) {
	t.Parallel()

	if got := openSQLite(t).Kind(); got != store.KindSQLite {
		t.Errorf("Kind() = %q, want %q", got, store.KindSQLite)
	}
}

func TestOpenRejectsInMemory(t *testing.T) {
	t.Parallel()

	if _, err := Open(context.Background(), slog.New(slog.NewTextHandler(io.Discard, nil)), dialect.SQLite, ":memory:"); err == nil {
		t.Fatal("Open() accepted an in-memory database")
	}
}
