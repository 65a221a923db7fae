// internal/config/environment.go
package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
)

const (
	DriverSQLite   = "sqlite"
	DriverPostgres = "postgres"
	DriverMySQL    = "mysql"
)

type Config struct {
	Port     int
	DBDriver string
	DBDSN    string
	// MaxOpenConns bounds the pool shared by requests and background jobs.
	MaxOpenConns int
	LogMode      string

	ProductionMode bool

	AuthSecret        string
	LoginURL          string
	AdminPasswordHash string
	CORSOrigins       []string

	RetentionDays    int
	ItemsPerSource   int
	FetchConcurrency int
	RefreshAt        ClockTime
	SweepAt          ClockTime
	StartupDelay     time.Duration
	SourcesFile      string

	NATSURL         string
	AnthropicAPIKey string
	AIModel         string
}

// ClockTime is a wall-clock time of day.
type ClockTime struct {
	Hour   int
	Minute int
}

func (c ClockTime) String() string {
	return fmt.Sprintf("%02d:%02d", c.Hour, c.Minute)
}

// ParseClockTime parses "HH:MM" in 24h notation.
func ParseClockTime(s string) (ClockTime, error) {
	t, err := time.Parse("15:04", strings.TrimSpace(s))
	if err != nil {
		return ClockTime{}, fmt.Errorf("invalid time of day %q: %w", s, err)
	}
	return ClockTime{Hour: t.Hour(), Minute: t.Minute()}, nil
}

func GetConfig() Config {
	config := Config{
		Port:             8080, // default port
		DBDriver:         DriverSQLite,
		MaxOpenConns:     5,
		LogMode:          "development",
		CORSOrigins:      []string{"http://localhost:5173", "http://localhost:3000"},
		RetentionDays:    2,
		ItemsPerSource:   10,
		FetchConcurrency: 4,
		RefreshAt:        ClockTime{Hour: 0},
		SweepAt:          ClockTime{Hour: 1},
		StartupDelay:     time.Second,
		AIModel:          "claude-sonnet-4-20250514",
	}

	// Override with environment variables if present
	if port := os.Getenv("NEWSFLOW_PORT"); port != "" {
		if p, err := strconv.Atoi(port); err == nil {
			config.Port = p
		}
	}
	if driver := os.Getenv("NEWSFLOW_DB_DRIVER"); driver != "" {
		config.DBDriver = strings.ToLower(driver)
	}
	config.DBDSN = os.Getenv("NEWSFLOW_DB_DSN")
	config.MaxOpenConns = getIntEnv("NEWSFLOW_DB_MAX_OPEN_CONNS", config.MaxOpenConns)
	if mode := os.Getenv("NEWSFLOW_LOG_MODE"); mode != "" {
		config.LogMode = mode
	}
	if prod, err := strconv.ParseBool(os.Getenv("NEWSFLOW_PROD")); err == nil {
		config.ProductionMode = prod
	}

	config.AuthSecret = os.Getenv("NEWSFLOW_AUTH_SECRET")
	config.LoginURL = os.Getenv("NEWSFLOW_LOGIN_URL")
	config.AdminPasswordHash = os.Getenv("NEWSFLOW_ADMIN_PASSWORD_HASH")
	if origins := os.Getenv("NEWSFLOW_CORS_ORIGINS"); origins != "" {
		config.CORSOrigins = splitList(origins)
	}

	config.RetentionDays = getIntEnv("NEWSFLOW_RETENTION_DAYS", config.RetentionDays)
	config.ItemsPerSource = clamp(getIntEnv("NEWSFLOW_ITEMS_PER_SOURCE", config.ItemsPerSource), 3, 10)
	config.FetchConcurrency = getIntEnv("NEWSFLOW_FETCH_CONCURRENCY", config.FetchConcurrency)
	if at, err := ParseClockTime(os.Getenv("NEWSFLOW_REFRESH_AT")); err == nil {
		config.RefreshAt = at
	}
	if at, err := ParseClockTime(os.Getenv("NEWSFLOW_SWEEP_AT")); err == nil {
		config.SweepAt = at
	}
	if d, err := time.ParseDuration(os.Getenv("NEWSFLOW_STARTUP_DELAY")); err == nil {
		config.StartupDelay = d
	}

	config.SourcesFile = os.Getenv("NEWSFLOW_SOURCES_FILE")
	config.NATSURL = os.Getenv("NEWSFLOW_NATS_URL")
	config.AnthropicAPIKey = os.Getenv("ANTHROPIC_API_KEY")
	if model := os.Getenv("NEWSFLOW_AI_MODEL"); model != "" {
		config.AIModel = model
	}

	return config
}

// DSN returns the connection string, defaulting to a local SQLite file.
func (c Config) DSN() string {
	if c.DBDSN == "" && c.DBDriver == DriverSQLite {
		return "data/newsflow.db"
	}
	return c.DBDSN
}

// Validate reports configuration errors that must abort startup.
func (c Config) Validate() error {
	var errs []error
	switch c.DBDriver {
	case DriverSQLite:
	case DriverPostgres, DriverMySQL:
		if c.DBDSN == "" {
			errs = append(errs, fmt.Errorf("NEWSFLOW_DB_DSN is required for the %s driver", c.DBDriver))
		}
	default:
		errs = append(errs, fmt.Errorf("unsupported database driver %q", c.DBDriver))
	}
	if c.Port <= 0 || c.Port > 65535 {
		errs = append(errs, fmt.Errorf("invalid port %d", c.Port))
	}
	if c.ProductionMode && c.AuthSecret == "" {
		errs = append(errs, errors.New("NEWSFLOW_AUTH_SECRET is required in production mode"))
	}
	if c.RetentionDays < 1 {
		errs = append(errs, fmt.Errorf("retention days must be positive, got %d", c.RetentionDays))
	}
	return errors.Join(errs...)
}

func (c Config) GetAddress() string {
	return fmt.Sprintf(":%d", c.Port)
}

func getIntEnv(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intValue, err := strconv.Atoi(value); err == nil {
			return intValue
		}
	}
	return defaultValue
}

func splitList(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}

func clamp(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
