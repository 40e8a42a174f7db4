// Package config loads process configuration from the environment with an
// optional YAML overlay.
package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	uptime "site-uptime/internal/uptime/domain"
)

// ConfigPathEnv names the YAML overlay file.
const ConfigPathEnv = "UPTIME_CONFIG"

var ErrDatabaseURLRequired = errors.New("config: DATABASE_URL or PG_DSN is required")

// ReportConfig tunes the report engine.
type ReportConfig struct {
	Workers            int    `yaml:"workers"`
	ClosedDayPolicy    string `yaml:"closed_day_policy"`
	MissingHoursPolicy string `yaml:"missing_hours_policy"`
	UniformUnits       bool   `yaml:"uniform_units"`
	// DailyAt ("15:04" UTC) schedules one report per day; empty disables.
	DailyAt string `yaml:"daily_at"`
}

// AuthConfig enables bearer auth when JWTSecret is set.
type AuthConfig struct {
	JWTSecret string `yaml:"jwt_secret"`
}

// LogConfig selects logrus level and formatter.
type LogConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
}

// Config is the process configuration.
type Config struct {
	HTTPAddr        string        `yaml:"http_addr"`
	DatabaseURL     string        `yaml:"database_url"`
	DefaultTimezone string        `yaml:"default_timezone"`
	ShutdownTimeout time.Duration `yaml:"shutdown_timeout"`
	Report          ReportConfig  `yaml:"report"`
	Auth            AuthConfig    `yaml:"auth"`
	Log             LogConfig     `yaml:"log"`
}

// Load reads env defaults and overlays the YAML file at path, or at
// $UPTIME_CONFIG when path is empty.
func Load(path string) (Config, error) {
	cfg := Config{
		HTTPAddr:        getenvDefault("HTTP_ADDR", ":8080"),
		DatabaseURL:     getenvDefault("DATABASE_URL", getenvDefault("PG_DSN", "")),
		DefaultTimezone: getenvDefault("DEFAULT_TIMEZONE", uptime.DefaultTimezone),
		ShutdownTimeout: getenvDuration("SHUTDOWN_TIMEOUT", 30*time.Second),
		Report: ReportConfig{
			Workers:            getenvIntDefault("REPORT_WORKERS", 1),
			ClosedDayPolicy:    getenvDefault("REPORT_CLOSED_DAY_POLICY", string(uptime.ClosedDayAbortSpan)),
			MissingHoursPolicy: getenvDefault("REPORT_MISSING_HOURS_POLICY", string(uptime.MissingHoursClosed)),
			UniformUnits:       getenvBool("REPORT_UNIFORM_UNITS", false),
			DailyAt:            getenvDefault("REPORT_DAILY_AT", ""),
		},
		Auth: AuthConfig{
			JWTSecret: getenvDefault("AUTH_JWT_SECRET", getenvDefault("JWT_SECRET", "")),
		},
		Log: LogConfig{
			Level:  getenvDefault("LOG_LEVEL", "info"),
			Format: getenvDefault("LOG_FORMAT", "text"),
		},
	}

	if path == "" {
		path = os.Getenv(ConfigPathEnv)
	}
	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return cfg, err
		}
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return cfg, fmt.Errorf("config: parse %s: %w", path, err)
		}
	}

	if err := cfg.Validate(); err != nil {
		return cfg, err
	}
	return cfg, nil
}

// Validate checks policy names, the fallback zone and numeric bounds.
func (c Config) Validate() error {
	if c.Report.Workers < 1 {
		return fmt.Errorf("config: report.workers must be >= 1, got %d", c.Report.Workers)
	}
	if _, err := c.ClosedDayPolicy(); err != nil {
		return err
	}
	if _, err := c.MissingHoursPolicy(); err != nil {
		return err
	}
	if _, err := c.FallbackLocation(); err != nil {
		return err
	}
	if c.Report.DailyAt != "" {
		if _, err := time.Parse("15:04", c.Report.DailyAt); err != nil {
			return fmt.Errorf("config: report.daily_at must be HH:MM, got %q", c.Report.DailyAt)
		}
	}
	switch strings.ToLower(c.Log.Format) {
	case "", "text", "json":
	default:
		return fmt.Errorf("config: unknown log.format %q", c.Log.Format)
	}
	return nil
}

// RequireDatabase fails when no DSN is configured.
func (c Config) RequireDatabase() error {
	if strings.TrimSpace(c.DatabaseURL) == "" {
		return ErrDatabaseURLRequired
	}
	return nil
}

// ClosedDayPolicy parses report.closed_day_policy.
func (c Config) ClosedDayPolicy() (uptime.ClosedDayPolicy, error) {
	return uptime.ParseClosedDayPolicy(c.Report.ClosedDayPolicy)
}

// MissingHoursPolicy parses report.missing_hours_policy.
func (c Config) MissingHoursPolicy() (uptime.MissingHoursPolicy, error) {
	return uptime.ParseMissingHoursPolicy(c.Report.MissingHoursPolicy)
}

// FallbackLocation loads default_timezone.
func (c Config) FallbackLocation() (*time.Location, error) {
	name := strings.TrimSpace(c.DefaultTimezone)
	if name == "" {
		name = uptime.DefaultTimezone
	}
	loc, err := time.LoadLocation(name)
	if err != nil {
		return nil, fmt.Errorf("config: default_timezone %q: %w", name, err)
	}
	return loc, nil
}

func getenvDefault(key, fallback string) string {
	value := os.Getenv(key)
	if value == "" {
		return fallback
	}
	return value
}

func getenvIntDefault(key string, fallback int) int {
	value := os.Getenv(key)
	if value == "" {
		return fallback
	}
	parsed, err := strconv.Atoi(value)
	if err != nil {
		return fallback
	}
	return parsed
}

func getenvBool(key string, fallback bool) bool {
	value := os.Getenv(key)
	if value == "" {
		return fallback
	}
	parsed, err := strconv.ParseBool(value)
	if err != nil {
		return fallback
	}
	return parsed
}

func getenvDuration(key string, fallback time.Duration) time.Duration {
	value := os.Getenv(key)
	if value == "" {
		return fallback
	}
	parsed, err := time.ParseDuration(value)
	if err != nil {
		return fallback
	}
	return parsed
}
