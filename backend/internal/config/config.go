package config

import (
	"errors"
	"fmt"
	"io"
	"io/fs"
	"log/slog"
	"net"
	"net/url"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"

	"sensor-dashboard/backend/internal/store"
	"sensor-dashboard/backend/pkg/dialect"
)

type EnvKey string

const (
	EnvFile     EnvKey = "ENV_FILE"
	EnvGenerate EnvKey = "GENERATE"

	EnvPort      EnvKey = "PORT"
	EnvDataDir   EnvKey = "DATA_DIR"
	EnvLogLevel  EnvKey = "LOG_LEVEL"
	EnvLogToFile EnvKey = "LOG_TO_FILE"
	EnvLogFormat EnvKey = "LOG_FORMAT"
	EnvTimezone  EnvKey = "DISPLAY_TIMEZONE"

	EnvStore EnvKey = "STORE"

	EnvSupabaseURL     EnvKey = "SUPABASE_URL"
	EnvSupabaseAnonKey EnvKey = "SUPABASE_ANON_KEY"
	EnvSupabaseTable   EnvKey = "SUPABASE_TABLE"
	EnvSupabaseRPS     EnvKey = "SUPABASE_RPS"

	EnvDBHost    EnvKey = "DB_HOST"
	EnvDBPort    EnvKey = "DB_PORT"
	EnvDBName    EnvKey = "DB_NAME"
	EnvDBUser    EnvKey = "DB_USER"
	EnvDBPass    EnvKey = "DB_PASSWORD"
	EnvDBSSLMode EnvKey = "DB_SSLMODE"

	EnvMQTTEnabled       EnvKey = "MQTT_ENABLED"
	EnvMQTTServerEnabled EnvKey = "MQTT_SERVER_ENABLED"
	EnvMQTTBrokerPort    EnvKey = "MQTT_SERVER_PORT"

	EnvMQTTBroker   EnvKey = "MQTT_BROKER"
	EnvMQTTClientID EnvKey = "MQTT_CLIENT_ID"
	EnvMQTTUsername EnvKey = "MQTT_USERNAME"
	EnvMQTTPassword EnvKey = "MQTT_PASSWORD"

	EnvDashboardBaseURL EnvKey = "DASHBOARD_BASE_URL"

	EnvFeedCurrentInterval     EnvKey = "FEED_CURRENT_INTERVAL"
	EnvFeedHistoryInterval     EnvKey = "FEED_HISTORY_INTERVAL"
	EnvFeedTemperatureInterval EnvKey = "FEED_TEMPERATURE_INTERVAL"
	EnvFeedRetryCount          EnvKey = "FEED_RETRY_COUNT"
	EnvFeedRetryInterval       EnvKey = "FEED_RETRY_INTERVAL"
)

const (
	LogFormatJSON = "json"
	LogFormatText = "text"
)

// FeedConfig holds the polling periods of the dashboard feeds.
type FeedConfig struct {
	CurrentInterval     time.Duration
	HistoryInterval     time.Duration
	TemperatureInterval time.Duration
	RetryCount          int
	RetryInterval       time.Duration
}

type SupabaseConfig struct {
	URL     string
	AnonKey string
	Table   string
	RPS     float64
}

type Config struct {
	Port      int
	Generate  bool
	DataDir   string
	LogLevel  slog.Leveler
	LogFormat string
	LogOutput io.Writer
	Location  *time.Location

	Store store.Kind
	// Database is the connection string of the sqlite and postgres stores
	Database string
	// BadgerDir is the directory of the badger store
	BadgerDir string
	Supabase  SupabaseConfig

	// MQTT ingest is on when MQTTEnabled is set
	MQTTEnabled bool
	// Embedded broker configuration
	MQTTServerEnabled bool
	MQTTBrokerPort    int

	MQTTBroker   string
	MQTTClientID string
	MQTTUsername string
	MQTTPassword string

	// DashboardBaseURL is where the dashboard feeds reach the API
	DashboardBaseURL string
	Feeds            FeedConfig
}

func New() (*Config, error) {
	if err := loadEnvFile(getStringEnv(EnvFile, ".env")); err != nil {
		return nil, err
	}

	// Get data directory
	dataDir := getStringEnv(EnvDataDir, "data")

	// Ensure data directory exists
	if err := os.MkdirAll(dataDir, 0o750); err != nil {
		return nil, fmt.Errorf("failed to create data directory: %w", err)
	}

	kind := store.Kind(strings.ToLower(getStringEnv(EnvStore, string(store.KindSupabase))))
	if err := kind.Validate(); err != nil {
		return nil, err
	}

	loc, err := time.LoadLocation(getStringEnv(EnvTimezone, "UTC"))
	if err != nil {
		return nil, fmt.Errorf("invalid %s: %w", EnvTimezone, err)
	}

	logFormat := strings.ToLower(getStringEnv(EnvLogFormat, LogFormatJSON))
	if logFormat != LogFormatJSON && logFormat != LogFormatText {
		return nil, fmt.Errorf("invalid %s %q: must be %s or %s", EnvLogFormat, logFormat, LogFormatJSON, LogFormatText)
	}

	port := getIntEnv(EnvPort, 8080)

	c := &Config{
		Port:      port,
		Generate:  getBoolEnv(EnvGenerate, false),
		DataDir:   dataDir,
		LogLevel:  getLogLevelEnv(EnvLogLevel, slog.LevelInfo),
		LogFormat: logFormat,
		LogOutput: os.Stdout,
		Location:  loc,
		Store:     kind,
		BadgerDir: filepath.Join(dataDir, "badger"),
		Supabase: SupabaseConfig{
			URL:     getStringEnv(EnvSupabaseURL, ""),
			AnonKey: getStringEnv(EnvSupabaseAnonKey, ""),
			Table:   getStringEnv(EnvSupabaseTable, "sensor_readings"),
			RPS:     getFloatEnv(EnvSupabaseRPS, 5),
		},
		MQTTEnabled:       getBoolEnv(EnvMQTTEnabled, false),
		MQTTServerEnabled: getBoolEnv(EnvMQTTServerEnabled, false),
		MQTTBrokerPort:    getIntEnv(EnvMQTTBrokerPort, 1883),
		MQTTBroker:        getStringEnv(EnvMQTTBroker, "tcp://127.0.0.1:1883"),
		MQTTClientID:      getStringEnv(EnvMQTTClientID, "sensor-dashboard-server"),
		MQTTUsername:      getStringEnv(EnvMQTTUsername, ""),
		MQTTPassword:      getStringEnv(EnvMQTTPassword, ""),
		DashboardBaseURL:  strings.TrimSuffix(getStringEnv(EnvDashboardBaseURL, fmt.Sprintf("http://127.0.0.1:%d", port)), "/"),
		Feeds: FeedConfig{
			CurrentInterval:     getDurationEnv(EnvFeedCurrentInterval, 2*time.Second),
			HistoryInterval:     getDurationEnv(EnvFeedHistoryInterval, 5*time.Minute),
			TemperatureInterval: getDurationEnv(EnvFeedTemperatureInterval, 60*time.Second),
			RetryCount:          getIntEnv(EnvFeedRetryCount, 3),
			RetryInterval:       getDurationEnv(EnvFeedRetryInterval, 5*time.Second),
		},
	}

	if db, ok := databaseConnString(kind, dataDir); ok {
		c.Database = db
	}

	if err := c.validate(); err != nil {
		return nil, err
	}

	// Opened last so a validation error does not leak the file.
	if getBoolEnv(EnvLogToFile, false) {
		f, err := os.OpenFile(filepath.Join(dataDir, "app.log"), os.O_WRONLY|os.O_CREATE|os.O_APPEND, 0o600)
		if err != nil {
			return nil, fmt.Errorf("failed to open log file: %w", err)
		}

		c.LogOutput = f
	}

	return c, nil
}

func (c *Config) validate() error {
	if c.Store == store.KindSupabase && (c.Supabase.URL == "" || c.Supabase.AnonKey == "") {
		return fmt.Errorf("%s and %s are required when %s=%s", EnvSupabaseURL, EnvSupabaseAnonKey, EnvStore, store.KindSupabase)
	}

	if c.MQTTEnabled && c.Store == store.KindSimulated {
		return fmt.Errorf("%s requires a writable store, %s=%s is read-only", EnvMQTTEnabled, EnvStore, c.Store)
	}

	if _, err := url.Parse(c.DashboardBaseURL); err != nil {
		return fmt.Errorf("invalid %s: %w", EnvDashboardBaseURL, err)
	}

	if c.Feeds.CurrentInterval <= 0 || c.Feeds.HistoryInterval <= 0 || c.Feeds.TemperatureInterval <= 0 {
		return errors.New("feed intervals must be positive")
	}

	if c.Feeds.RetryCount < 0 {
		return fmt.Errorf("%s must not be negative", EnvFeedRetryCount)
	}

	return nil
}

// Dialect returns the SQL dialect of the sqlite and postgres stores.
func (c *Config) Dialect() (dialect.Dialect, bool) {
	switch c.Store {
	case store.KindSQLite:
		return dialect.SQLite, true
	case store.KindPostgres:
		return dialect.PostgreSQL, true
	default:
		return "", false
	}
}

func (c *Config) Close() error {
	if f, ok := c.LogOutput.(*os.File); ok {
		if f != os.Stdout && f != os.Stderr {
			return f.Close()
		}
	}

	return nil
}

func databaseConnString(kind store.Kind, dataDir string) (string, bool) {
	switch kind {
	case store.KindSQLite:
		return filepath.Join(dataDir, "database.sqlite"), true
	case store.KindPostgres:
		host := getStringEnv(EnvDBHost, "localhost")
		port := getIntEnv(EnvDBPort, 5432)
		dbName := getStringEnv(EnvDBName, "sensors")
		user := getStringEnv(EnvDBUser, "sensors")
		password := getStringEnv(EnvDBPass, "")
		sslmode := getStringEnv(EnvDBSSLMode, "disable")

		return fmt.Sprintf(
			"postgresql://%s:%s@%s/%s?sslmode=%s",
			url.QueryEscape(user),
			url.QueryEscape(password),
			net.JoinHostPort(host, strconv.Itoa(port)),
			dbName, sslmode,
		), true
	default:
		return "", false
	}
}

// loadEnvFile loads path into the environment without overriding variables
// that are already set. A missing file is not an error.
func loadEnvFile(path string) error {
	if path == "" {
		return nil
	}

	if _, err := os.Stat(path); errors.Is(err, fs.ErrNotExist) {
		return nil
	}

	if err := godotenv.Load(path); err != nil {
		return fmt.Errorf("failed to load env file %s: %w", path, err)
	}

	return nil
}

func getStringEnv(key EnvKey, defaultVal string) string {
	val, exists := os.LookupEnv(string(key))
	if !exists {
		return defaultVal
	}

	return val
}

func getBoolEnv(key EnvKey, defaultVal bool) bool {
	val, exists := os.LookupEnv(string(key))
	if !exists {
		return defaultVal
	}

	val = strings.ToLower(val)
	switch val {
	case "true", "1":
		return true
	default:
		return false
	}
}

func getIntEnv(key EnvKey, defaultVal int) int {
	val, exists := os.LookupEnv(string(key))
	if !exists {
		return defaultVal
	}

	if intVal, err := strconv.Atoi(val); err == nil {
		return intVal
	}

	return defaultVal
}

func getFloatEnv(key EnvKey, defaultVal float64) float64 {
	val, exists := os.LookupEnv(string(key))
	if !exists {
		return defaultVal
	}

	if f, err := strconv.ParseFloat(val, 64); err == nil {
		return f
	}

	return defaultVal
}

func getDurationEnv(key EnvKey, defaultVal time.Duration) time.Duration {
	val, exists := os.LookupEnv(string(key))
	if !exists {
		return defaultVal
	}

	if d, err := time.ParseDuration(val); err == nil {
		return d
	}

	return defaultVal
}

func getLogLevelEnv(key EnvKey, defaultVal slog.Leveler) slog.Leveler {
	val, exists := os.LookupEnv(string(key))
	if !exists {
		return defaultVal
	}

	switch strings.ToUpper(val) {
	case "DEBUG":
		return slog.LevelDebug
	case "INFO":
		return slog.LevelInfo
	case "WARN":
		return slog.LevelWarn
	case "ERROR":
		return slog.LevelError
	}

	return defaultVal
}
