package config

import (
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"sensor-dashboard/backend/internal/store"
	"sensor-dashboard/backend/pkg/dialect"
)

func setEnv(t *testing.T, env map[EnvKey]string) {
	t.Helper()

	t.Setenv(string(EnvFile), "")
	t.Setenv(string(EnvDataDir), t.TempDir())

	for k, v := range env {
		t.Setenv(string(k), v)
	}
}

//nolint:paralleltest // t.Setenv
func TestDefaults(t *testing.T) {
	setEnv(t, map[EnvKey]string{
		EnvSupabaseURL:     "https://project.supabase.co",
		EnvSupabaseAnonKey: "anon",
	})

	c, err := New()
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}

	defer c.Close()

	if c.Port != 8080 || c.Store != store.KindSupabase || c.LogFormat != LogFormatJSON || c.LogLevel != slog.LevelInfo {
		t.Errorf("config = %+v", c)
	}

	if c.Supabase.Table != "sensor_readings" || c.Supabase.RPS != 5 {
		t.Errorf("supabase = %+v", c.Supabase)
	}

	want := FeedConfig{
		CurrentInterval:     2 * time.Second,
		HistoryInterval:     5 * time.Minute,
		TemperatureInterval: 60 * time.Second,
		RetryCount:          3,
		RetryInterval:       5 * time.Second,
	}
	if c.Feeds != want {
		t.Errorf("feeds = %+v, want %+v", c.Feeds, want)
	}

	if c.DashboardBaseURL != "http://127.0.0.1:8080" || c.Location != time.UTC {
		t.Errorf("base url = %q, location = %v", c.DashboardBaseURL, c.Location)
	}

	if c.MQTTEnabled || c.MQTTServerEnabled || c.MQTTBrokerPort != 1883 {
		t.Errorf("mqtt = %v %v %d", c.MQTTEnabled, c.MQTTServerEnabled, c.MQTTBrokerPort)
	}

	if _, ok := c.Dialect(); ok {
		t.Error("supabase store reported a SQL dialect")
	}
}

//nolint:paralleltest // t.Setenv
func TestStores(t *testing.T) {
	tests := []struct {
		name    string
		env     map[EnvKey]string
		dialect dialect.Dialect
		db      string
	}{
		{
			name:    "sqlite",
			env:     map[EnvKey]string{EnvStore: "sqlite"},
			dialect: dialect.SQLite,
			db:      "database.sqlite",
		},
		{
			name: "postgres",
			env: map[EnvKey]string{
				EnvStore: "postgres", EnvDBHost: "db", EnvDBPort: "6543", EnvDBName: "readings",
				EnvDBUser: "dash", EnvDBPass: "p@ss", EnvDBSSLMode: "require",
			},
			dialect: dialect.PostgreSQL,
			db:      "postgresql://dash:p%40ss@db:6543/readings?sslmode=require",
		},
		{name: "badger", env: map[EnvKey]string{EnvStore: "BADGER"}},
		{name: "simulated", env: map[EnvKey]string{EnvStore: "simulated"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			setEnv(t, tt.env)

			c, err := New()
			if err != nil {
				t.Fatalf("New() error = %v", err)
			}

			d, ok := c.Dialect()
			if ok != (tt.dialect != "") || d != tt.dialect {
				t.Errorf("Dialect() = %q, %v", d, ok)
			}

			if !strings.HasSuffix(c.Database, tt.db) || (tt.db == "" && c.Database != "") {
				t.Errorf("Database = %q, want suffix %q", c.Database, tt.db)
			}
		})
	}
}

//nolint:paralleltest // t.Setenv
func TestInvalid(t *testing.T) {
	tests := []struct {
		name string
		env  map[EnvKey]string
		want string
	}{
		{"missing supabase credentials", map[EnvKey]string{}, "SUPABASE_URL and SUPABASE_ANON_KEY are required"},
		{"missing anon key", map[EnvKey]string{EnvSupabaseURL: "https://x.supabase.co"}, "SUPABASE_ANON_KEY"},
		{"unknown store", map[EnvKey]string{EnvStore: "mongo"}, "unsupported store"},
		{"ingest into simulated", map[EnvKey]string{EnvStore: "simulated", EnvMQTTEnabled: "true"}, "requires a writable store"},
		{"bad timezone", map[EnvKey]string{EnvStore: "simulated", EnvTimezone: "Mars/Olympus"}, "DISPLAY_TIMEZONE"},
		{"bad log format", map[EnvKey]string{EnvStore: "simulated", EnvLogFormat: "xml"}, "LOG_FORMAT"},
		{"negative retries", map[EnvKey]string{EnvStore: "simulated", EnvFeedRetryCount: "-1"}, "FEED_RETRY_COUNT"},
		{"zero interval", map[EnvKey]string{EnvStore: "simulated", EnvFeedCurrentInterval: "0s"}, "intervals must be positive"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			setEnv(t, tt.env)

			_, err := New()
			if err == nil || !strings.Contains(err.Error(), tt.want) {
				t.Errorf("New() error = %v, want it to contain %q", err, tt.want)
			}
		})
	}
}

//nolint:paralleltest // t.Setenv
func TestEnvFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "test.env")

	content := "STORE=simulated\nFEED_CURRENT_INTERVAL=750ms\nPORT=9090\n"
	if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
		t.Fatalf("write env file: %v", err)
	}

	setEnv(t, map[EnvKey]string{EnvPort: "9191"})
	t.Setenv(string(EnvFile), path)

	// godotenv.Load sets variables with os.Setenv, restore them afterwards.
	t.Setenv(string(EnvStore), "")
	_ = os.Unsetenv(string(EnvStore))
	t.Setenv(string(EnvFeedCurrentInterval), "")
	_ = os.Unsetenv(string(EnvFeedCurrentInterval))

	c, err := New()
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}

	if c.Store != store.KindSimulated || c.Feeds.CurrentInterval != 750*time.Millisecond {
		t.Errorf("env file not applied: %+v", c)
	}

	if c.Port != 9191 {
		t.Errorf("Port = %d, existing variables must win over the env file", c.Port)
	}

	if c.DashboardBaseURL != "http://127.0.0.1:9191" {
		t.Errorf("DashboardBaseURL = %q", c.DashboardBaseURL)
	}
}

//nolint:paralleltest // t.Setenv
func TestLogToFile(t *testing.T) {
	setEnv(t, map[EnvKey]string{EnvStore: "simulated", EnvLogToFile: "1"})

	c, err := New()
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}

	f, ok := c.LogOutput.(*os.File)
	if !ok || filepath.Base(f.Name()) != "app.log" {
		t.Fatalf("LogOutput = %T", c.LogOutput)
	}

	if err := c.Close(); err != nil {
		t.Errorf("Close() error = %v", err)
	}
}
