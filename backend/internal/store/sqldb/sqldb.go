// Package sqldb stores readings in SQLite or PostgreSQL through database/sql.
package sqldb

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	_ "github.com/jackc/pgx/v5/stdlib"
	_ "github.com/mattn/go-sqlite3"

	"sensor-dashboard/backend/internal/sensor"
	"sensor-dashboard/backend/internal/store"
	"sensor-dashboard/backend/pkg/dialect"
	"sensor-dashboard/backend/pkg/migrator"
	"sensor-dashboard/backend/pkg/utils"
)

const (
	table   = "sensor_readings"
	columns = "id, created_at, bmp_temperature, humidity, pressure, altitude, accel_x, accel_y, accel_z"

	sqliteOptions = "_busy_timeout=5000&_journal_mode=WAL"
)

type Store struct {
	db      *sql.DB
	dialect dialect.Dialect
	l       *slog.Logger

	latestQuery string
	sinceQuery  string
	insertQuery string
}

// Open migrates the database and opens a pool on it. For SQLite connStr is
// a file path, for PostgreSQL a postgres:// URL.
func Open(ctx context.Context, l *slog.Logger, d dialect.Dialect, connStr string) (*Store, error) {
	l = l.With(slog.String("component", "sql-store"), slog.String("dialect", d.String()))

	mig, err := migrator.New(l, d, connStr)
	if err != nil {
		return nil, fmt.Errorf("failed to create migrator: %w", err)
	}

	if err := mig.Migrate(); err != nil {
		return nil, err
	}

	dsn := connStr
	if d == dialect.SQLite {
		dsn = "file:" + connStr + "?" + sqliteOptions
	}

	db, err := sql.Open(d.Driver(), dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	if d == dialect.SQLite {
		// Writers are serialized by SQLite anyway.
		db.SetMaxOpenConns(1)
	}

	if err := db.PingContext(ctx); err != nil {
		utils.LogOnError(l, db.Close, "failed to close database")
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	placeholders := make([]string, 9)
	for i := range placeholders {
		placeholders[i] = d.Placeholder(i + 1)
	}

	return &Store{
		db:          db,
		dialect:     d,
		l:           l,
		latestQuery: "SELECT " + columns + " FROM " + table + " ORDER BY created_at DESC LIMIT 1",
		sinceQuery:  "SELECT " + columns + " FROM " + table + " WHERE created_at >= " + d.Placeholder(1) + " ORDER BY created_at ASC",
		insertQuery: "INSERT INTO " + table + " (" + columns + ") VALUES (" + strings.Join(placeholders, ", ") + ")",
	}, nil
}

func (s *Store) Kind() store.Kind {
	if s.dialect == dialect.PostgreSQL {
		return store.KindPostgres
	}

	return store.KindSQLite
}

type scanner interface {
	Scan(dest ...any) error
}

func scanRow(sc scanner) (sensor.Row, error) {
	var r sensor.Row

	err := sc.Scan(&r.ID, &r.CreatedAt, &r.Temperature, &r.Humidity, &r.Pressure, &r.Altitude, &r.AccelX, &r.AccelY, &r.AccelZ)
	r.CreatedAt = r.CreatedAt.UTC()

	return r, err
}

func (s *Store) Latest(ctx context.Context) (sensor.Row, error) {
	r, err := scanRow(s.db.QueryRowContext(ctx, s.latestQuery))
	if errors.Is(err, sql.ErrNoRows) {
		return sensor.Row{}, store.ErrNoData
	}

	if err != nil {
		return sensor.Row{}, fmt.Errorf("failed to query latest reading: %w", err)
	}

	return r, nil
}

func (s *Store) Since(ctx context.Context, since time.Time) ([]sensor.Row, error) {
	rows, err := s.db.QueryContext(ctx, s.sinceQuery, since.UTC())
	if err != nil {
		return nil, fmt.Errorf("failed to query readings: %w", err)
	}
	defer utils.LogOnError(s.l, rows.Close, "failed to close rows")

	out := []sensor.Row{}

	for rows.Next() {
		r, err := scanRow(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan reading: %w", err)
		}

		out = append(out, r)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate readings: %w", err)
	}

	return out, nil
}

func (s *Store) Insert(ctx context.Context, r sensor.Row) error {
	if err := r.Validate(); err != nil {
		return fmt.Errorf("invalid reading: %w", err)
	}

	if r.ID == "" {
		r.ID = utils.NewUUID()
	}

	_, err := s.db.ExecContext(ctx, s.insertQuery,
		r.ID, r.CreatedAt.UTC(), r.Temperature, r.Humidity, r.Pressure, r.Altitude, r.AccelX, r.AccelY, r.AccelZ)
	if err != nil {
		return fmt.Errorf("failed to insert reading: %w", err)
	}

	return nil
}

func (s *Store) Ping(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

func (s *Store) Close() error {
	return s.db.Close()
}
