package config

import (
	"fmt"
	"strings"
)

// Validate performs business-rule validation on the loaded configuration.
// It must be called after loading; Load calls it automatically.
func (c *Config) Validate() error {
	if strings.TrimSpace(c.Database.DSN) == "" {
		return fmt.Errorf("database.dsn is required")
	}

	if c.Server.Port <= 0 || c.Server.Port > 65535 {
		return fmt.Errorf("server.port must be in 1..65535 (got %d)", c.Server.Port)
	}

	if c.Database.MinConns > c.Database.MaxConns {
		return fmt.Errorf("database.min_conns (%d) must not exceed max_conns (%d)", c.Database.MinConns, c.Database.MaxConns)
	}

	if err := c.Log.validate(); err != nil {
		return fmt.Errorf("log: %w", err)
	}

	if c.Cache.Enabled() && c.Cache.TTL <= 0 {
		return fmt.Errorf("cache.ttl must be > 0 when redis_url is set (got %s)", c.Cache.TTL)
	}

	if err := c.Annotate.validate(); err != nil {
		return fmt.Errorf("annotate: %w", err)
	}

	return nil
}

func (l LogConfig) validate() error {
	switch strings.ToLower(strings.TrimSpace(l.Level)) {
	case "debug", "info", "warn", "error":
	default:
		return fmt.Errorf("unknown level %q", l.Level)
	}
	switch strings.ToLower(l.Format) {
	case "json", "text":
	default:
		return fmt.Errorf("unknown format %q", l.Format)
	}
	return nil
}

func (a AnnotateConfig) validate() error {
	if a.MaxLookups < -1 {
		return fmt.Errorf("max_lookups must be >= 0, or -1 for no limit (got %d)", a.MaxLookups)
	}
	if a.MaxTextLength <= 0 {
		return fmt.Errorf("max_text_length must be > 0 (got %d)", a.MaxTextLength)
	}
	if a.RateLimitPerMinute < 0 {
		return fmt.Errorf("rate_limit_per_minute must be >= 0 (got %d)", a.RateLimitPerMinute)
	}
	return nil
}
