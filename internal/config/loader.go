package config

import (
	"fmt"
	"os"

	"github.com/ilyakaznacheev/cleanenv"
)

// Load reads configuration from a YAML file and environment variables.
// Priority: ENV > YAML > defaults (via env-default tags).
// The YAML file path is determined by CONFIG_PATH env (fallback "./config.yaml").
// If the file does not exist and CONFIG_PATH was not set explicitly,
// configuration is loaded from ENV + defaults only.
func Load() (*Config, error) {
	var cfg Config
	if err := read(&cfg); err != nil {
		return nil, err
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("config: validate: %w", err)
	}

	return &cfg, nil
}

// LoadLog reads only the log section from the same sources as Load.
// Commands that never touch the database, such as a dry-run import,
// use it so that no DSN is required.
func LoadLog() (LogConfig, error) {
	var cfg struct {
		Log LogConfig `yaml:"log"`
	}
	if err := read(&cfg); err != nil {
		return LogConfig{}, err
	}

	if err := cfg.Log.validate(); err != nil {
		return LogConfig{}, fmt.Errorf("config: validate: log: %w", err)
	}
	return cfg.Log, nil
}

func read(cfg any) error {
	path := os.Getenv("CONFIG_PATH")
	explicitPath := path != ""
	if !explicitPath {
		path = "./config.yaml"
	}

	if _, err := os.Stat(path); err == nil {
		if err := cleanenv.ReadConfig(path, cfg); err != nil {
			return fmt.Errorf("config: read %s: %w", path, err)
		}
		return nil
	} else if explicitPath {
		return fmt.Errorf("config: file %s: %w", path, err)
	}

	// No file, load from ENV + defaults only.
	if err := cleanenv.ReadEnv(cfg); err != nil {
		return fmt.Errorf("config: read env: %w", err)
	}
	return nil
}
