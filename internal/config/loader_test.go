package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

var allKeys = []string{
	"TEAMBOARD_HTTP_PORT",
	"TEAMBOARD_STORAGE",
	"TEAMBOARD_SQLITE_DSN",
	"TEAMBOARD_SESSION_TTL",
	"TEAMBOARD_VERIFICATION_TTL",
	"TEAMBOARD_COOKIE_SECURE",
	"TEAMBOARD_LATENCY",
	"TEAMBOARD_SEED",
	"TEAMBOARD_SWEEP_SCHEDULE",
	"TEAMBOARD_TIMEZONE",
	"TEAMBOARD_HEATMAP_SOURCE",
	"TEAMBOARD_EXPOSE_VERIFICATION_TOKEN",
	"TEAMBOARD_LOG_LEVEL",
	"TEAMBOARD_LOG_FORMAT",
}

// clearEnvironment unsets every variable for the duration of the test so that
// godotenv is allowed to populate them.
func clearEnvironment(t *testing.T) {
	t.Helper()
	for _, key := range allKeys {
		t.Setenv(key, "")
		if err := os.Unsetenv(key); err != nil {
			t.Fatalf("failed to unset %s: %v", key, err)
		}
	}
}

func TestLoader_ParseEnvironment(t *testing.T) {

	t.Run("applies defaults when variables are missing", func(t *testing.T) {
		clearEnvironment(t)

		cfg, err := FromEnvironment()
		if err != nil {
			t.Fatalf("FromEnvironment returned error: %v", err)
		}

		if cfg.HTTPPort != 8080 || cfg.Addr() != ":8080" {
			t.Fatalf("expected default HTTP port 8080, got %d", cfg.HTTPPort)
		}
		if cfg.Storage != "memory" {
			t.Fatalf("unexpected default storage: %q", cfg.Storage)
		}
		if cfg.SessionTTL != 168*time.Hour || cfg.VerificationTTL != 48*time.Hour {
			t.Fatalf("unexpected default TTLs %s %s", cfg.SessionTTL, cfg.VerificationTTL)
		}
		if !cfg.CookieSecure || !cfg.Seed || !cfg.ExposeVerificationToken {
			t.Fatalf("expected boolean defaults to be on: %+v", cfg)
		}
		if cfg.Latency != "off" || cfg.HeatmapSource != "meetings" || cfg.SweepSchedule != "@every 15m" {
			t.Fatalf("unexpected defaults: %+v", cfg)
		}
		if cfg.Location != time.Local || cfg.LogLevel != "info" || cfg.LogFormat != "json" {
			t.Fatalf("unexpected defaults: %+v", cfg)
		}
	})

	t.Run("parses every field", func(t *testing.T) {
		clearEnvironment(t)
		t.Setenv("TEAMBOARD_HTTP_PORT", "9090")
		t.Setenv("TEAMBOARD_STORAGE", "SQLite")
		t.Setenv("TEAMBOARD_SQLITE_DSN", "file:/tmp/teamboard.db")
		t.Setenv("TEAMBOARD_SESSION_TTL", "24h")
		t.Setenv("TEAMBOARD_VERIFICATION_TTL", "90m")
		t.Setenv("TEAMBOARD_COOKIE_SECURE", "false")
		t.Setenv("TEAMBOARD_LATENCY", "demo")
		t.Setenv("TEAMBOARD_SEED", "0")
		t.Setenv("TEAMBOARD_SWEEP_SCHEDULE", "*/5 * * * *")
		t.Setenv("TEAMBOARD_TIMEZONE", "UTC")
		t.Setenv("TEAMBOARD_HEATMAP_SOURCE", "demo")
		t.Setenv("TEAMBOARD_EXPOSE_VERIFICATION_TOKEN", "false")
		t.Setenv("TEAMBOARD_LOG_LEVEL", "debug")
		t.Setenv("TEAMBOARD_LOG_FORMAT", "text")

		cfg, err := FromEnvironment()
		if err != nil {
			t.Fatalf("FromEnvironment returned error: %v", err)
		}

		if cfg.HTTPPort != 9090 || cfg.Storage != "sqlite" || cfg.SQLiteDSN != "file:/tmp/teamboard.db" {
			t.Fatalf("unexpected server settings: %+v", cfg)
		}
		if cfg.SessionTTL != 24*time.Hour || cfg.VerificationTTL != 90*time.Minute {
			t.Fatalf("unexpected TTLs %s %s", cfg.SessionTTL, cfg.VerificationTTL)
		}
		if cfg.CookieSecure || cfg.Seed || cfg.ExposeVerificationToken {
			t.Fatalf("expected booleans to be off: %+v", cfg)
		}
		if cfg.Latency != "demo" || cfg.HeatmapSource != "demo" || cfg.SweepSchedule != "*/5 * * * *" {
			t.Fatalf("unexpected settings: %+v", cfg)
		}
		if cfg.Location != time.UTC || cfg.LogLevel != "debug" || cfg.LogFormat != "text" {
			t.Fatalf("unexpected settings: %+v", cfg)
		}
	})

	t.Run("aggregates missing and invalid values", func(t *testing.T) {
		clearEnvironment(t)
		t.Setenv("TEAMBOARD_STORAGE", "sqlite")
		t.Setenv("TEAMBOARD_HTTP_PORT", "http")
		t.Setenv("TEAMBOARD_SESSION_TTL", "-1h")
		t.Setenv("TEAMBOARD_SWEEP_SCHEDULE", "every now and then")
		t.Setenv("TEAMBOARD_TIMEZONE", "Mars/Olympus")

		_, err := FromEnvironment()
		if err == nil {
			t.Fatalf("expected error for invalid configuration")
		}
		expected := "missing required environment variables: TEAMBOARD_SQLITE_DSN; " +
			"invalid environment variable values: TEAMBOARD_HTTP_PORT, TEAMBOARD_SESSION_TTL, TEAMBOARD_SWEEP_SCHEDULE, TEAMBOARD_TIMEZONE"
		if err.Error() != expected {
			t.Fatalf("unexpected error message: %q", err.Error())
		}
	})
}

func TestLoadFile(t *testing.T) {

	t.Run("reads values from the env file", func(t *testing.T) {
		clearEnvironment(t)
		path := filepath.Join(t.TempDir(), "teamboard.env")
		content := "TEAMBOARD_HTTP_PORT=7070\nTEAMBOARD_LATENCY=demo\n"
		if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
			t.Fatalf("failed to write env file: %v", err)
		}

		cfg, err := LoadFile(path)
		if err != nil {
			t.Fatalf("LoadFile returned error: %v", err)
		}
		if cfg.HTTPPort != 7070 || cfg.Latency != "demo" {
			t.Fatalf("env file values not applied: %+v", cfg)
		}
	})

	t.Run("process environment wins over the file", func(t *testing.T) {
		clearEnvironment(t)
		path := filepath.Join(t.TempDir(), "teamboard.env")
		if err := os.WriteFile(path, []byte("TEAMBOARD_HTTP_PORT=7070\n"), 0o600); err != nil {
			t.Fatalf("failed to write env file: %v", err)
		}
		t.Setenv("TEAMBOARD_HTTP_PORT", "6060")

		cfg, err := LoadFile(path)
		if err != nil {
			t.Fatalf("LoadFile returned error: %v", err)
		}
		if cfg.HTTPPort != 6060 {
			t.Fatalf("expected the environment to win, got %d", cfg.HTTPPort)
		}
	})

	t.Run("explicit missing file is an error", func(t *testing.T) {
		clearEnvironment(t)
		_, err := LoadFile(filepath.Join(t.TempDir(), "absent.env"))
		if err == nil || !strings.Contains(err.Error(), "absent.env") {
			t.Fatalf("expected missing file error, got %v", err)
		}
	})

	t.Run("implicit env file is optional", func(t *testing.T) {
		clearEnvironment(t)
		if _, err := Load(); err != nil {
			t.Fatalf("Load returned error without a .env file: %v", err)
		}
	})
}
