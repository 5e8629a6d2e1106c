package dialect

import (
	"io/fs"
	"testing"
)

func TestDialect(t *testing.T) {
	t.Parallel()

	tests := []struct {
		dialect     Dialect
		driver      string
		placeholder string
		wantErr     bool
	}{
		{SQLite, "sqlite3", "?", false},
		{PostgreSQL, "pgx", "$2", false},
		{Dialect("mysql"), "", "?", true},
	}

	for _, tt := range tests {
		t.Run(tt.dialect.String(), func(t *testing.T) {
			t.Parallel()

			if err := tt.dialect.Validate(); (err != nil) != tt.wantErr {
				t.Fatalf("Validate() error = %v, wantErr %v", err, tt.wantErr)
			}

			if got := tt.dialect.Driver(); got != tt.driver {
				t.Errorf("Driver() = %q, want %q", got, tt.driver)
			}

			if got := tt.dialect.Placeholder(2); got != tt.placeholder {
				t.Errorf("Placeholder(2) = %q, want %q", got, tt.placeholder)
			}

			if tt.wantErr {
				return
			}

			if _, err := fs.ReadDir(tt.dialect.MigrationFS(), "migrations"); err != nil {
				t.Errorf("MigrationFS() has no migrations directory: %v", err)
			}
		})
	}
}
