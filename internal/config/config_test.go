package config

import (
	"strings"
	"testing"
	"time"
)

func TestLoadDefaults(t *testing.T) {
	t.Setenv("DATABASE_URL", "postgres://localhost/docport")
	t.Setenv("ENV", "development")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Port != "8000" {
		t.Errorf("Port = %s, want 8000", cfg.Port)
	}
	if cfg.DBMaxConns != 20 || cfg.DBMinConns != 5 {
		t.Errorf("pool sizes = %d/%d, want 20/5", cfg.DBMaxConns, cfg.DBMinConns)
	}
	if cfg.MigrationsDir != "migrations" {
		t.Errorf("MigrationsDir = %s", cfg.MigrationsDir)
	}
	if cfg.ThemeRefreshInterval != 10*time.Minute {
		t.Errorf("ThemeRefreshInterval = %v, want 10m", cfg.ThemeRefreshInterval)
	}
	if !cfg.IsDev() || cfg.IsProduction() {
		t.Error("ENV=development should report dev mode")
	}
}

func TestLoadRequiresDatabaseURL(t *testing.T) {
	t.Setenv("DATABASE_URL", "")
	_, err := Load()
	if err == nil || !strings.Contains(err.Error(), "DATABASE_URL") {
		t.Fatalf("err = %v, want DATABASE_URL required", err)
	}
}

func TestValidateProductionRequiresSecret(t *testing.T) {
	cfg := &Config{Env: "production"}
	if err := cfg.Validate(); err == nil || !strings.Contains(err.Error(), "AUTH_SECRET") {
		t.Fatalf("err = %v, want AUTH_SECRET required", err)
	}

	cfg.AuthSecret = "short"
	if err := cfg.Validate(); err == nil || !strings.Contains(err.Error(), "32 bytes") {
		t.Fatalf("err = %v, want length check", err)
	}

	cfg.AuthSecret = strings.Repeat("s", 32)
	if err := cfg.Validate(); err != nil {
		t.Fatalf("Validate with long secret: %v", err)
	}
}

func TestValidateDevSkipsSecret(t *testing.T) {
	cfg := &Config{Env: "development"}
	if err := cfg.Validate(); err != nil {
		t.Fatalf("Validate: %v", err)
	}
}

func TestValidateRejectsNegativeRefresh(t *testing.T) {
	cfg := &Config{Env: "development", ThemeRefreshInterval: -time.Second}
	if err := cfg.Validate(); err == nil {
		t.Fatal("want error for negative refresh interval")
	}
}
