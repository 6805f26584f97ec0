package importer

import (
	"fmt"
	"os"
	"path/filepath"
	"slices"

	"github.com/ilyakaznacheev/cleanenv"
)

// MaxBatchSize is the largest number of rows written per statement.
const MaxBatchSize = 50

// Config holds import pipeline settings.
type Config struct {
	DataDir       string `yaml:"data_dir"       env:"IMPORTER_DATA_DIR"       env-default:"./var/unihan"`
	RadicalFile   string `yaml:"radical_file"   env:"IMPORTER_RADICAL_FILE"   env-default:"CJKRadicals.txt"`
	CharacterGlob string `yaml:"character_glob" env:"IMPORTER_CHARACTER_GLOB" env-default:"Unihan_*.txt"`
	BatchSize     int    `yaml:"batch_size"     env:"IMPORTER_BATCH_SIZE"     env-default:"50"`
	ProgressEvery int    `yaml:"progress_every" env:"IMPORTER_PROGRESS_EVERY" env-default:"10000"`
	DryRun        bool   `yaml:"dry_run"        env:"IMPORTER_DRY_RUN"`
}

// LoadConfig reads importer configuration from a YAML file and environment variables.
// Priority: ENV > YAML > defaults (via env-default tags).
func LoadConfig(path string) (*Config, error) {
	var cfg Config

	if path != "" {
		if _, err := os.Stat(path); err != nil {
			return nil, fmt.Errorf("importer config: file %s not found", path)
		}
		if err := cleanenv.ReadConfig(path, &cfg); err != nil {
			return nil, fmt.Errorf("importer config: read %s: %w", path, err)
		}
	} else if err := cleanenv.ReadEnv(&cfg); err != nil {
		return nil, fmt.Errorf("importer config: read env: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("importer config: %w", err)
	}
	return &cfg, nil
}

// Validate checks the batch ceiling and the progress interval.
func (c Config) Validate() error {
	if c.BatchSize < 1 || c.BatchSize > MaxBatchSize {
		return fmt.Errorf("batch_size must be in [1, %d] (got %d)", MaxBatchSize, c.BatchSize)
	}
	if c.ProgressEvery < 0 {
		return fmt.Errorf("progress_every must be >= 0 (got %d)", c.ProgressEvery)
	}
	return nil
}

// RadicalPath returns the path of the radical table.
func (c Config) RadicalPath() string {
	return filepath.Join(c.DataDir, c.RadicalFile)
}

// CharacterPaths returns the property files matching CharacterGlob, sorted by name.
func (c Config) CharacterPaths() ([]string, error) {
	paths, err := filepath.Glob(filepath.Join(c.DataDir, c.CharacterGlob))
	if err != nil {
		return nil, fmt.Errorf("glob %s: %w", c.CharacterGlob, err)
	}
	if len(paths) == 0 {
		return nil, fmt.Errorf("no files match %s in %s", c.CharacterGlob, c.DataDir)
	}
	slices.Sort(paths)
	return paths, nil
}
