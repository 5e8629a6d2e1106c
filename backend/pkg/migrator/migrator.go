package migrator

import (
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"net/url"
	"strings"

	"github.com/amacneil/dbmate/v2/pkg/dbmate"
	_ "github.com/amacneil/dbmate/v2/pkg/driver/postgres"
	_ "github.com/amacneil/dbmate/v2/pkg/driver/sqlite"

	"sensor-dashboard/backend/pkg/dialect"
	"sensor-dashboard/backend/pkg/utils"
)

const migrationsDir = "migrations"

// Migrator applies the embedded dbmate migrations of a dialect.
type Migrator struct {
	db      *dbmate.DB
	dialect dialect.Dialect
	l       *slog.Logger
}

// New creates a migrator for the given dialect. For SQLite the connection
// string is a file path, for PostgreSQL it must be a URL.
func New(l *slog.Logger, d dialect.Dialect, connStr string) (*Migrator, error) {
	if err := d.Validate(); err != nil {
		return nil, err
	}

	if connStr == "" {
		return nil, errors.New("connection string is required")
	}

	migrations := d.MigrationFS()
	if _, err := fs.ReadDir(migrations, migrationsDir); err != nil {
		return nil, fmt.Errorf("failed to read migrations directory: %w", err)
	}

	u, err := databaseURL(d, connStr)
	if err != nil {
		return nil, err
	}

	db := dbmate.New(u)
	db.Strict = true
	db.FS = migrations
	db.MigrationsDir = []string{migrationsDir}
	db.AutoDumpSchema = false

	l = l.With(slog.String("component", "db-migrator"), slog.String("dialect", d.String()))
	db.Log = utils.NewSlogWriter(l)

	return &Migrator{db: db, dialect: d, l: l}, nil
}

func databaseURL(d dialect.Dialect, connStr string) (*url.URL, error) {
	if d == dialect.SQLite {
		if strings.Contains(connStr, "memory") {
			return nil, errors.New("in-memory databases are not supported")
		}

		connStr = "sqlite:" + connStr
	}

	u, err := url.Parse(connStr)
	if err != nil {
		return nil, fmt.Errorf("failed to parse database url: %w", err)
	}

	return u, nil
}

// Migrate applies all pending migrations.
func (m *Migrator) Migrate() error {
	m.l.Info("Migrating database")

	if err := m.db.Migrate(); err != nil {
		return fmt.Errorf("failed to migrate database: %w", err)
	}

	return nil
}
