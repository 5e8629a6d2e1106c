package sqlite

import (
	"io/fs"
	"strings"
	"testing"
)

func TestMigrationFiles(t *testing.T) {
	t.Parallel()

	entries, err := fs.ReadDir(GetMigrationsFS(), "migrations")
	if err != nil {
		t.Fatalf("Failed to read migrations directory: %v", err)
	}

	if len(entries) == 0 {
		t.Fatal("migrations directory is empty")
	}

	var prev string

	for _, entry := range entries {
		name := entry.Name()
		if !strings.HasSuffix(name, ".sql") {
			t.Errorf("Expected .sql file, got: %s", name)
		}

		if prev != "" && name < prev {
			t.Errorf("Migration files not in order: %s comes before %s", name, prev)
		}

		prev = name

		content, err := fs.ReadFile(GetMigrationsFS(), "migrations/"+name)
		if err != nil {
			t.Fatalf("Failed to read %s: %v", name, err)
		}

		for _, marker := range []string{"-- migrate:up", "-- migrate:down"} {
			if !strings.Contains(string(content), marker) {
				t.Errorf("%s is missing %q", name, marker)
			}
		}
	}
}
