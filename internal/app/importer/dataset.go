package importer

import (
	"cmp"
	"context"
	"fmt"
	"log/slog"
	"path/filepath"
	"slices"

	"github.com/heartmarshall/hanzi-backend/internal/app/importer/unihan"
	"github.com/heartmarshall/hanzi-backend/internal/domain"
	"github.com/heartmarshall/hanzi-backend/pkg/cjk"
)

// Dataset is the derived Unihan data split into the groups that must be
// written in order: radicals and their characters first, everything else after.
type Dataset struct {
	// Radicals whose representative character is present in the property files.
	Radicals []domain.RadicalDescriptor
	// RadicalCharacters are the representatives of Radicals, with no radical link yet.
	RadicalCharacters []domain.Character
	// Orphans are radicals whose representative has no property data.
	Orphans []domain.RadicalDescriptor
	// Characters are all other characters, each linked to its radical.
	Characters []domain.Character
	// DuplicateRadicals counts table rows sharing a representative codepoint
	// with an earlier row; only the first row is kept.
	DuplicateRadicals int
}

// LoadDataset parses the radical table and all property files named by cfg
// and derives every character.
func LoadDataset(ctx context.Context, log *slog.Logger, cfg Config) (*Dataset, error) {
	radicals, stats, err := unihan.ParseRadicalFile(cfg.RadicalPath())
	if err != nil {
		return nil, fmt.Errorf("parse radicals: %w", err)
	}
	log.Info("radical table parsed",
		slog.String("file", cfg.RadicalFile),
		slog.Int("radicals", len(radicals)),
		slog.Int("total_lines", stats.TotalLines),
		slog.Int("malformed_lines", stats.MalformedLines),
	)

	paths, err := cfg.CharacterPaths()
	if err != nil {
		return nil, err
	}

	records, files, err := unihan.ParsePropertyFiles(ctx, paths)
	if err != nil {
		return nil, fmt.Errorf("parse property files: %w", err)
	}
	for _, f := range files {
		log.Info("property file parsed",
			slog.String("file", filepath.Base(f.Path)),
			slog.Int("parsed_lines", f.Stats.ParsedLines),
			slog.Int("comment_lines", f.Stats.CommentLines),
			slog.Int("malformed_lines", f.Stats.MalformedLines),
			slog.Int("codepoints", f.Stats.Codepoints),
		)
	}

	derived, err := unihan.DeriveAll(records, radicals)
	if err != nil {
		return nil, fmt.Errorf("derive fields: %w", err)
	}

	ds := SplitDataset(radicals, derived)
	if ds.DuplicateRadicals > 0 {
		log.Warn("radical table has shared representatives", slog.Int("duplicates", ds.DuplicateRadicals))
	}
	log.Info("dataset ready",
		slog.Int("radicals", len(ds.Radicals)),
		slog.Int("orphan_radicals", len(ds.Orphans)),
		slog.Int("characters", len(ds.Characters)),
	)
	return ds, nil
}

// SplitDataset pulls radical representatives out of derived. derived must
// be sorted by codepoint; the output keeps that order.
func SplitDataset(radicals unihan.RadicalTable, derived []unihan.Derived) *Dataset {
	descs := make([]domain.RadicalDescriptor, 0, len(radicals))
	for _, d := range radicals {
		descs = append(descs, d)
	}
	slices.SortFunc(descs, func(a, b domain.RadicalDescriptor) int {
		return cmp.Or(cmp.Compare(a.Codepoint, b.Codepoint), cmp.Compare(a.Key, b.Key))
	})

	ds := &Dataset{}
	kept := descs[:0]
	isRadical := make(map[rune]bool, len(descs))
	for _, d := range descs {
		if isRadical[d.Codepoint] {
			ds.DuplicateRadicals++
			continue
		}
		isRadical[d.Codepoint] = true
		kept = append(kept, d)
	}

	present := make(map[rune]bool, len(kept))
	for _, d := range derived {
		c := d.Character
		if isRadical[c.Codepoint] {
			c.RadicalID = nil
			ds.RadicalCharacters = append(ds.RadicalCharacters, c)
			present[c.Codepoint] = true
			continue
		}
		ds.Characters = append(ds.Characters, c)
	}

	for _, d := range kept {
		if present[d.Codepoint] {
			ds.Radicals = append(ds.Radicals, d)
		} else {
			ds.Orphans = append(ds.Orphans, d)
		}
	}
	return ds
}

// stubCharacter builds the character row for an orphan radical.
func stubCharacter(d domain.RadicalDescriptor) (domain.Character, error) {
	key, err := unihan.SortKey(unihan.SortKeyInput{
		Codepoint:  d.Codepoint,
		Radical:    d.Number,
		Simplified: d.Simplified,
	})
	if err != nil {
		return domain.Character{}, fmt.Errorf("radical %s at %s: %w", d.Key, cjk.FormatCodepoint(d.Codepoint), err)
	}
	return domain.Character{
		Codepoint: d.Codepoint,
		Glyph:     string(d.Codepoint),
		SortOrder: key,
	}, nil
}
