package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/robfig/cron/v3"
)

// DefaultEnvFile is read by Load when present.
const DefaultEnvFile = ".env"

// Config captures environment driven configuration values for the teamboard service.
type Config struct {
	HTTPPort                int
	Storage                 string
	SQLiteDSN               string
	SessionTTL              time.Duration
	VerificationTTL         time.Duration
	CookieSecure            bool
	Latency                 string
	Seed                    bool
	SweepSchedule           string
	Location                *time.Location
	HeatmapSource           string
	ExposeVerificationToken bool
	LogLevel                string
	LogFormat               string
}

// Defaults returns the configuration used when no variable is set.
func Defaults() Config {
	return Config{
		HTTPPort:                8080,
		Storage:                 "memory",
		SessionTTL:              7 * 24 * time.Hour,
		VerificationTTL:         48 * time.Hour,
		CookieSecure:            true,
		Latency:                 "off",
		Seed:                    true,
		SweepSchedule:           "@every 15m",
		Location:                time.Local,
		HeatmapSource:           "meetings",
		ExposeVerificationToken: true,
		LogLevel:                "info",
		LogFormat:               "json",
	}
}

// Load applies DefaultEnvFile when it exists and then parses the process environment.
func Load() (Config, error) {
	if err := godotenv.Load(DefaultEnvFile); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return Config{}, fmt.Errorf("failed to read %s: %w", DefaultEnvFile, err)
	}
	return FromEnvironment()
}

// LoadFile applies an explicitly requested env file, which must exist.
// Variables already present in the environment win over the file.
func LoadFile(path string) (Config, error) {
	if strings.TrimSpace(path) == "" {
		return Load()
	}
	if err := godotenv.Load(path); err != nil {
		return Config{}, fmt.Errorf("failed to read env file %s: %w", path, err)
	}
	return FromEnvironment()
}

// FromEnvironment parses configuration values from the current process environment.
//
// Defaults cover every optional field. Missing required values and invalid
// values are collected and reported together in one error.
func FromEnvironment() (Config, error) {
	cfg := Defaults()
	p := parser{}

	p.int("TEAMBOARD_HTTP_PORT", &cfg.HTTPPort, func(v int) bool { return v > 0 && v <= 65535 })
	p.choice("TEAMBOARD_STORAGE", &cfg.Storage, "memory", "sqlite")
	p.str("TEAMBOARD_SQLITE_DSN", &cfg.SQLiteDSN)
	if cfg.Storage == "sqlite" && cfg.SQLiteDSN == "" {
		p.missing = append(p.missing, "TEAMBOARD_SQLITE_DSN")
	}
	p.duration("TEAMBOARD_SESSION_TTL", &cfg.SessionTTL)
	p.duration("TEAMBOARD_VERIFICATION_TTL", &cfg.VerificationTTL)
	p.bool("TEAMBOARD_COOKIE_SECURE", &cfg.CookieSecure)
	p.choice("TEAMBOARD_LATENCY", &cfg.Latency, "off", "demo")
	p.bool("TEAMBOARD_SEED", &cfg.Seed)

	if value := lookup("TEAMBOARD_SWEEP_SCHEDULE"); value != "" {
		if _, err := cron.ParseStandard(value); err != nil {
			p.invalid = append(p.invalid, "TEAMBOARD_SWEEP_SCHEDULE")
		} else {
			cfg.SweepSchedule = value
		}
	}

	if value := lookup("TEAMBOARD_TIMEZONE"); value != "" {
		loc, err := time.LoadLocation(value)
		if err != nil {
			p.invalid = append(p.invalid, "TEAMBOARD_TIMEZONE")
		} else {
			cfg.Location = loc
		}
	}

	p.choice("TEAMBOARD_HEATMAP_SOURCE", &cfg.HeatmapSource, "meetings", "demo")
	p.bool("TEAMBOARD_EXPOSE_VERIFICATION_TOKEN", &cfg.ExposeVerificationToken)
	p.choice("TEAMBOARD_LOG_LEVEL", &cfg.LogLevel, "debug", "info", "warn", "error")
	p.choice("TEAMBOARD_LOG_FORMAT", &cfg.LogFormat, "json", "text")

	if err := p.err(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Addr returns the listen address for the HTTP server.
func (c Config) Addr() string {
	return fmt.Sprintf(":%d", c.HTTPPort)
}

func lookup(key string) string {
	return strings.TrimSpace(os.Getenv(key))
}

type parser struct {
	missing []string
	invalid []string
}

func (p *parser) err() error {
	var parts []string
	if len(p.missing) > 0 {
		parts = append(parts, "missing required environment variables: "+strings.Join(p.missing, ", "))
	}
	if len(p.invalid) > 0 {
		parts = append(parts, "invalid environment variable values: "+strings.Join(p.invalid, ", "))
	}
	if len(parts) == 0 {
		return nil
	}
	return errors.New(strings.Join(parts, "; "))
}

func (p *parser) str(key string, dst *string) {
	if value := lookup(key); value != "" {
		*dst = value
	}
}

func (p *parser) choice(key string, dst *string, allowed ...string) {
	value := strings.ToLower(lookup(key))
	if value == "" {
		return
	}
	for _, candidate := range allowed {
		if value == candidate {
			*dst = value
			return
		}
	}
	p.invalid = append(p.invalid, key)
}

func (p *parser) int(key string, dst *int, valid func(int) bool) {
	value := lookup(key)
	if value == "" {
		return
	}
	n, err := strconv.Atoi(value)
	if err != nil || !valid(n) {
		p.invalid = append(p.invalid, key)
		return
	}
	*dst = n
}

func (p *parser) duration(key string, dst *time.Duration) {
	value := lookup(key)
	if value == "" {
		return
	}
	d, err := time.ParseDuration(value)
	if err != nil || d <= 0 {
		p.invalid = append(p.invalid, key)
		return
	}
	*dst = d
}

func (p *parser) bool(key string, dst *bool) {
	value := lookup(key)
	if value == "" {
		return
	}
	b, err := strconv.ParseBool(value)
	if err != nil {
		p.invalid = append(p.invalid, key)
		return
	}
	*dst = b
}
