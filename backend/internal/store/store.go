// Package store defines how readings are read from and written to the
// configured backend. Implementations live in the sub packages.
package store

import (
	"context"
	"errors"
	"fmt"
	"time"

	"sensor-dashboard/backend/internal/sensor"
)

// ErrNoData is returned by Latest when the table holds no reading.
var ErrNoData = errors.New("no sensor data available")

// ErrReadOnly is returned when ingest is configured on a store that cannot write.
var ErrReadOnly = errors.New("store is read-only")

type Kind string

const (
	KindSupabase  Kind = "supabase"
	KindSQLite    Kind = "sqlite"
	KindPostgres  Kind = "postgres"
	KindBadger    Kind = "badger"
	KindSimulated Kind = "simulated"
)

func (k Kind) Validate() error {
	switch k {
	case KindSupabase, KindSQLite, KindPostgres, KindBadger, KindSimulated:
		return nil
	default:
		return fmt.Errorf("unsupported store: %q", k)
	}
}

func (k Kind) String() string {
	return string(k)
}

// Reader is the read side used by the API.
type Reader interface {
	// Latest returns the most recent row or ErrNoData.
	Latest(ctx context.Context) (sensor.Row, error)
	// Since returns the rows created at or after since, oldest first.
	Since(ctx context.Context, since time.Time) ([]sensor.Row, error)
}

// Writer is implemented by stores that accept ingested readings.
type Writer interface {
	Insert(ctx context.Context, row sensor.Row) error
}

type Store interface {
	Reader
	Kind() Kind
	Ping(ctx context.Context) error
	Close() error
}

// AsWriter returns the writer side of s, or ErrReadOnly.
//
//nolint:ireturn // Returns the Writer side of the store
func AsWriter(s Store) (Writer, error) {
	w, ok := s.(Writer)
	if !ok {
		return nil, fmt.Errorf("%s: %w", s.Kind(), ErrReadOnly)
	}

	return w, nil
}
