package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

// validEnv sets the minimum required env vars for a valid config.
func validEnv(t *testing.T) {
	t.Helper()
	t.Setenv("DATABASE_DSN", "postgres://u:p@localhost:5432/testdb")
}

func writeYAML(t *testing.T, dir, content string) string {
	t.Helper()
	path := filepath.Join(dir, "config.yaml")
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("write yaml: %v", err)
	}
	return path
}

const validYAML = `
server:
  host: "127.0.0.1"
  port: 9090
  read_timeout: "5s"
  write_timeout: "15s"
  idle_timeout: "30s"
  shutdown_timeout: "5s"

database:
  dsn: "postgres://u:p@localhost:5432/testdb"
  max_conns: 10
  min_conns: 2

log:
  level: "debug"
  format: "text"

cache:
  redis_url: "redis://localhost:6379/0"
  ttl: "1h"

annotate:
  max_lookups: -1
  max_text_length: 5000
  rate_limit_per_minute: 30

cors:
  allowed_origins: "https://hanzi.example"
`

func TestLoad_ValidYAML(t *testing.T) {
	dir := t.TempDir()
	path := writeYAML(t, dir, validYAML)
	t.Setenv("CONFIG_PATH", path)

	cfg, err := Load()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	// Server
	if cfg.Server.Host != "127.0.0.1" {
		t.Errorf("server.host = %q, want %q", cfg.Server.Host, "127.0.0.1")
	}
	if cfg.Server.Port != 9090 {
		t.Errorf("server.port = %d, want %d", cfg.Server.Port, 9090)
	}
	if cfg.Server.ReadTimeout != 5*time.Second {
		t.Errorf("server.read_timeout = %v, want %v", cfg.Server.ReadTimeout, 5*time.Second)
	}

	// Database
	if cfg.Database.DSN != "postgres://u:p@localhost:5432/testdb" {
		t.Errorf("database.dsn = %q", cfg.Database.DSN)
	}
	if cfg.Database.MaxConns != 10 {
		t.Errorf("database.max_conns = %d, want 10", cfg.Database.MaxConns)
	}

	// Log
	if cfg.Log.Level != "debug" {
		t.Errorf("log.level = %q, want %q", cfg.Log.Level, "debug")
	}
	if cfg.Log.Format != "text" {
		t.Errorf("log.format = %q, want %q", cfg.Log.Format, "text")
	}

	// Cache
	if !cfg.Cache.Enabled() {
		t.Error("cache should be enabled")
	}
	if cfg.Cache.TTL != time.Hour {
		t.Errorf("cache.ttl = %v, want 1h", cfg.Cache.TTL)
	}

	// Annotate
	if cfg.Annotate.MaxLookups != -1 {
		t.Errorf("annotate.max_lookups = %d, want -1", cfg.Annotate.MaxLookups)
	}
	if cfg.Annotate.MaxTextLength != 5000 {
		t.Errorf("annotate.max_text_length = %d, want 5000", cfg.Annotate.MaxTextLength)
	}
	if cfg.Annotate.RateLimitPerMinute != 30 {
		t.Errorf("annotate.rate_limit_per_minute = %d, want 30", cfg.Annotate.RateLimitPerMinute)
	}

	// CORS
	if cfg.CORS.AllowedOrigins != "https://hanzi.example" {
		t.Errorf("cors.allowed_origins = %q", cfg.CORS.AllowedOrigins)
	}
	if cfg.CORS.AllowedMethods != "GET,POST,OPTIONS" {
		t.Errorf("cors.allowed_methods = %q (default)", cfg.CORS.AllowedMethods)
	}
}

func TestLoad_ENVOverridesYAML(t *testing.T) {
	dir := t.TempDir()
	path := writeYAML(t, dir, validYAML)
	t.Setenv("CONFIG_PATH", path)
	t.Setenv("SERVER_PORT", "3000")
	t.Setenv("LOG_LEVEL", "warn")
	t.Setenv("ANNOTATE_MAX_LOOKUPS", "10")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if cfg.Server.Port != 3000 {
		t.Errorf("server.port = %d, want 3000 (ENV override)", cfg.Server.Port)
	}
	if cfg.Log.Level != "warn" {
		t.Errorf("log.level = %q, want %q (ENV override)", cfg.Log.Level, "warn")
	}
	if cfg.Annotate.MaxLookups != 10 {
		t.Errorf("annotate.max_lookups = %d, want 10 (ENV override)", cfg.Annotate.MaxLookups)
	}
}

func TestLoad_NoFile_ENVOnly(t *testing.T) {
	validEnv(t)

	// Unset CONFIG_PATH so the fallback kicks in and the file is just absent.
	t.Setenv("CONFIG_PATH", "")
	origDir, _ := os.Getwd()
	t.Cleanup(func() { _ = os.Chdir(origDir) })
	_ = os.Chdir(t.TempDir())

	cfg, err := Load()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if cfg.Server.Port != 8080 {
		t.Errorf("server.port = %d, want 8080 (default)", cfg.Server.Port)
	}
	if cfg.Cache.Enabled() {
		t.Error("cache should be disabled without redis_url")
	}
	if cfg.Annotate.MaxLookups != 50 {
		t.Errorf("annotate.max_lookups = %d, want 50 (default)", cfg.Annotate.MaxLookups)
	}
	if cfg.Annotate.MaxTextLength != 20000 {
		t.Errorf("annotate.max_text_length = %d, want 20000 (default)", cfg.Annotate.MaxTextLength)
	}
}

func TestLoad_MissingDSN(t *testing.T) {
	t.Setenv("CONFIG_PATH", "")
	t.Setenv("DATABASE_DSN", "")
	origDir, _ := os.Getwd()
	t.Cleanup(func() { _ = os.Chdir(origDir) })
	_ = os.Chdir(t.TempDir())

	if _, err := Load(); err == nil {
		t.Fatal("expected error for missing database.dsn")
	}
}

func TestLoadLog_NoDSNRequired(t *testing.T) {
	t.Setenv("CONFIG_PATH", "")
	t.Setenv("DATABASE_DSN", "")
	t.Setenv("LOG_LEVEL", "warn")
	origDir, _ := os.Getwd()
	t.Cleanup(func() { _ = os.Chdir(origDir) })
	_ = os.Chdir(t.TempDir())

	cfg, err := LoadLog()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cfg.Level != "warn" || cfg.Format != "json" {
		t.Errorf("log = %+v, want level=warn format=json", cfg)
	}
}

func TestLoadLog_ReadsYAMLSection(t *testing.T) {
	dir := t.TempDir()
	path := writeYAML(t, dir, "database:\n  dsn: \"\"\nlog:\n  level: \"debug\"\n  format: \"text\"\n")
	t.Setenv("CONFIG_PATH", path)

	cfg, err := LoadLog()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cfg.Level != "debug" || cfg.Format != "text" {
		t.Errorf("log = %+v, want level=debug format=text", cfg)
	}
}

func TestLoadLog_RejectsUnknownFormat(t *testing.T) {
	dir := t.TempDir()
	path := writeYAML(t, dir, "log:\n  format: \"xml\"\n")
	t.Setenv("CONFIG_PATH", path)

	if _, err := LoadLog(); err == nil {
		t.Fatal("expected error for unknown log format")
	}
}

func TestLoad_ExplicitPathNotFound(t *testing.T) {
	t.Setenv("CONFIG_PATH", "/nonexistent/config.yaml")

	_, err := Load()
	if err == nil {
		t.Fatal("expected error for missing explicit config path")
	}
}

func TestLoad_InvalidYAML(t *testing.T) {
	dir := t.TempDir()
	path := writeYAML(t, dir, `{{{invalid yaml`)
	t.Setenv("CONFIG_PATH", path)

	_, err := Load()
	if err == nil {
		t.Fatal("expected error for invalid YAML")
	}
}

func TestValidate_ValidConfig(t *testing.T) {
	cfg := validConfig()
	if err := cfg.Validate(); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
}

func TestValidate_Rejects(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(c *Config)
	}{
		{"empty dsn", func(c *Config) { c.Database.DSN = "" }},
		{"blank dsn", func(c *Config) { c.Database.DSN = "   " }},
		{"port zero", func(c *Config) { c.Server.Port = 0 }},
		{"port too large", func(c *Config) { c.Server.Port = 70000 }},
		{"min conns above max", func(c *Config) { c.Database.MinConns = 30 }},
		{"unknown log level", func(c *Config) { c.Log.Level = "verbose" }},
		{"unknown log format", func(c *Config) { c.Log.Format = "xml" }},
		{"cache without ttl", func(c *Config) { c.Cache = CacheConfig{RedisURL: "redis://localhost:6379"} }},
		{"max lookups below sentinel", func(c *Config) { c.Annotate.MaxLookups = -2 }},
		{"max text length zero", func(c *Config) { c.Annotate.MaxTextLength = 0 }},
		{"negative rate limit", func(c *Config) { c.Annotate.RateLimitPerMinute = -1 }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := validConfig()
			tt.mutate(&cfg)
			if err := cfg.Validate(); err == nil {
				t.Fatal("expected validation error")
			}
		})
	}
}

func TestValidate_BoundaryValues(t *testing.T) {
	cfg := validConfig()
	cfg.Annotate.MaxLookups = 0
	cfg.Annotate.RateLimitPerMinute = 0
	cfg.Log.Level = "WARN"
	cfg.Cache = CacheConfig{}

	if err := cfg.Validate(); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
}

// validConfig returns a Config that passes all validation checks.
func validConfig() Config {
	return Config{
		Server:   ServerConfig{Port: 8080},
		Database: DatabaseConfig{DSN: "postgres://localhost/test", MaxConns: 25, MinConns: 5},
		Log:      LogConfig{Level: "info", Format: "json"},
		Cache:    CacheConfig{RedisURL: "redis://localhost:6379/0", TTL: time.Hour},
		Annotate: AnnotateConfig{MaxLookups: 50, MaxTextLength: 20000, RateLimitPerMinute: 60},
	}
}
