package importer

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/heartmarshall/hanzi-backend/internal/domain"
)

// Phase names, in execution order. Characters reference radicals by
// foreign key, so "characters" never runs before "radicals".
const (
	PhaseRadicals   = "radicals"
	PhaseCharacters = "characters"
)

var allPhases = []string{PhaseRadicals, PhaseCharacters}

// PhaseResult holds the outcome of a single pipeline phase.
type PhaseResult struct {
	Inserted int
	Updated  int
	Skipped  int
	Duration time.Duration
	Err      error
}

// Pipeline orchestrates the Unihan import.
type Pipeline struct {
	log     *slog.Logger
	repo    UnihanBulkRepo
	cfg     Config
	results map[string]PhaseResult
}

// NewPipeline creates a new Pipeline.
func NewPipeline(log *slog.Logger, repo UnihanBulkRepo, cfg Config) *Pipeline {
	return &Pipeline{
		log:     log.With("component", "importer"),
		repo:    repo,
		cfg:     cfg,
		results: make(map[string]PhaseResult),
	}
}

// Results returns phase results after Run completes.
func (p *Pipeline) Results() map[string]PhaseResult {
	return p.results
}

// Run parses the source files and executes the pipeline. If phases is
// non-empty, only the listed phases run. The first failing phase aborts the run.
func (p *Pipeline) Run(ctx context.Context, phases []string) error {
	// Step 1: Parse and derive. Data errors are fatal.
	ds, err := LoadDataset(ctx, p.log, p.cfg)
	if err != nil {
		return fmt.Errorf("load dataset: %w", err)
	}

	// Step 2: Determine which phases to run.
	toRun := allPhases
	if len(phases) > 0 {
		filter := make(map[string]bool, len(phases))
		for _, ph := range phases {
			filter[ph] = true
		}
		var filtered []string
		for _, ph := range allPhases {
			if filter[ph] {
				filtered = append(filtered, ph)
			}
		}
		toRun = filtered
	}

	// Step 3: Execute phases in order.
	for _, phase := range toRun {
		if err := ctx.Err(); err != nil {
			return err
		}

		start := time.Now()
		p.log.Info("starting phase", slog.String("phase", phase))

		var result PhaseResult
		switch phase {
		case PhaseRadicals:
			result = p.runRadicals(ctx, ds)
		case PhaseCharacters:
			result = p.runCharacters(ctx, ds)
		}
		result.Duration = time.Since(start)
		p.results[phase] = result

		if result.Err != nil {
			p.log.Error("phase failed",
				slog.String("phase", phase),
				slog.String("error", result.Err.Error()),
				slog.Duration("duration", result.Duration),
			)
			return fmt.Errorf("phase %s: %w", phase, result.Err)
		}

		p.log.Info("phase completed",
			slog.String("phase", phase),
			slog.Int("inserted", result.Inserted),
			slog.Int("updated", result.Updated),
			slog.Int("skipped", result.Skipped),
			slog.Duration("duration", result.Duration),
		)
	}

	return nil
}

// runRadicals writes radical characters, then radicals, then the links
// from each radical character back to its own radical.
func (p *Pipeline) runRadicals(ctx context.Context, ds *Dataset) PhaseResult {
	if p.cfg.DryRun {
		return PhaseResult{Skipped: len(ds.Radicals) + len(ds.Orphans)}
	}

	var result PhaseResult

	// 1. Representative characters, radical_id still NULL.
	inserted, err := batchProcess(ds.RadicalCharacters, p.cfg.BatchSize, func(batch []domain.Character) (int, error) {
		return p.repo.BulkInsertCharacters(ctx, batch)
	})
	result.Inserted += inserted
	if err != nil {
		result.Err = fmt.Errorf("insert radical characters: %w", err)
		return result
	}

	// 2. Radical rows referencing those characters.
	radicals := make([]domain.Radical, len(ds.Radicals))
	links := make([]domain.RadicalLink, len(ds.Radicals))
	for i, d := range ds.Radicals {
		radicals[i] = d.Radical()
		links[i] = domain.RadicalLink{Codepoint: d.Codepoint, RadicalID: d.ID()}
	}
	inserted, err = batchProcess(radicals, p.cfg.BatchSize, func(batch []domain.Radical) (int, error) {
		return p.repo.BulkInsertRadicals(ctx, batch)
	})
	result.Inserted += inserted
	if err != nil {
		result.Err = fmt.Errorf("insert radicals: %w", err)
		return result
	}

	// 3. Close the cycle.
	updated, err := batchProcess(links, p.cfg.BatchSize, func(batch []domain.RadicalLink) (int, error) {
		return p.repo.UpdateCharacterRadicals(ctx, batch)
	})
	result.Updated += updated
	if err != nil {
		result.Err = fmt.Errorf("link radical characters: %w", err)
		return result
	}

	// 4. Radicals without property data get a stub character.
	for _, d := range ds.Orphans {
		ch, err := stubCharacter(d)
		if err != nil {
			result.Err = err
			return result
		}
		if _, err := p.repo.CreateRadical(ctx, d, ch); err != nil {
			result.Err = fmt.Errorf("create radical %s: %w", d.Key, err)
			return result
		}
		p.log.Warn("radical character missing from property files",
			slog.String("radical", d.Key),
			slog.String("glyph", ch.Glyph),
		)
		result.Inserted += 2
	}

	return result
}

// runCharacters writes every non-radical character.
func (p *Pipeline) runCharacters(ctx context.Context, ds *Dataset) PhaseResult {
	if p.cfg.DryRun {
		return PhaseResult{Skipped: len(ds.Characters)}
	}

	processed := 0
	inserted, err := batchProcess(ds.Characters, p.cfg.BatchSize, func(batch []domain.Character) (int, error) {
		n, err := p.repo.BulkInsertCharacters(ctx, batch)
		if err != nil {
			return n, err
		}
		before := processed
		processed += len(batch)
		if p.cfg.ProgressEvery > 0 && processed/p.cfg.ProgressEvery > before/p.cfg.ProgressEvery {
			p.log.Info("characters progress", slog.Int("processed", processed), slog.Int("total", len(ds.Characters)))
		}
		return n, nil
	})

	result := PhaseResult{Inserted: inserted, Skipped: len(ds.Characters) - inserted}
	if err != nil {
		result.Skipped = 0
		result.Err = fmt.Errorf("insert characters: %w", err)
	}
	return result
}

// batchProcess splits items into batches and processes each via fn.
func batchProcess[T any](items []T, batchSize int, fn func([]T) (int, error)) (int, error) {
	if len(items) == 0 {
		return 0, nil
	}
	if batchSize <= 0 || batchSize > MaxBatchSize {
		batchSize = MaxBatchSize
	}

	total := 0
	for i := 0; i < len(items); i += batchSize {
		end := min(i+batchSize, len(items))
		n, err := fn(items[i:end])
		if err != nil {
			return total, err
		}
		total += n
	}
	return total, nil
}
