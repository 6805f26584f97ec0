// Package annotate resolves the Han characters of a text span to their
// stored Unihan records.
package annotate

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"unicode/utf8"

	"github.com/heartmarshall/hanzi-backend/internal/domain"
	"github.com/heartmarshall/hanzi-backend/pkg/cjk"
)

// Unbounded disables the lookup budget of Annotate.
const Unbounded = -1

// TagDetail is the tag attached to characters resolved by Detail.
const TagDetail = "detail"

type characterStore interface {
	GetCharacterByCodepoint(ctx context.Context, cp rune) (*domain.Character, error)
}

// Service implements annotation, single-character lookup and detail.
type Service struct {
	log   *slog.Logger
	store characterStore
}

// NewService creates a new annotate service.
func NewService(logger *slog.Logger, store characterStore) *Service {
	return &Service{
		log:   logger.With("service", "annotate"),
		store: store,
	}
}

// Annotate maps every distinct Unihan character of text to its stored record,
// tagged with tag. Scanning stops once maxLookups records were found; a
// negative maxLookups means no limit and zero means no store access at all.
// Characters missing from the store are left out of the result, queried
// once per call, and reported in a single warning.
func (s *Service) Annotate(ctx context.Context, text string, maxLookups int, tag string) (domain.AnnotationMap, error) {
	result := make(domain.AnnotationMap)
	failed := make(map[rune]bool)
	var missing []rune
	lookups := 0

	for _, r := range text {
		if r >= 0x20 && r <= 0x7E {
			continue
		}
		if !cjk.IsUnihan(r) {
			continue
		}
		if _, ok := result[r]; ok || failed[r] {
			continue
		}
		if maxLookups >= 0 && lookups >= maxLookups {
			break
		}

		c, err := s.store.GetCharacterByCodepoint(ctx, r)
		if errors.Is(err, domain.ErrNotFound) {
			failed[r] = true
			missing = append(missing, r)
			continue
		}
		if err != nil {
			return nil, fmt.Errorf("annotate %s: %w", cjk.FormatCodepoint(r), err)
		}

		result[r] = domain.AnnotatedCharacter{Character: *c, Tag: tag}
		lookups++
	}

	if len(missing) > 0 {
		s.log.WarnContext(ctx, "unihan characters not found",
			slog.String("failed", string(missing)),
			slog.String("tag", tag),
		)
	}

	return result, nil
}

// Lookup returns the record of the single character in query.
func (s *Service) Lookup(ctx context.Context, query string) (*domain.Character, error) {
	if !utf8.ValidString(query) || utf8.RuneCountInString(query) != 1 {
		return nil, domain.NewValidationError("query", "must be a single character")
	}

	r, _ := utf8.DecodeRuneInString(query)
	if !cjk.IsUnihan(r) {
		return nil, fmt.Errorf("%s not found in Unihan data: %w", cjk.FormatCodepoint(r), domain.ErrNotFound)
	}

	c, err := s.store.GetCharacterByCodepoint(ctx, r)
	if err != nil {
		return nil, fmt.Errorf("lookup: %w", err)
	}
	return c, nil
}

// Detail is a character together with the records of its radical and variants.
type Detail struct {
	Character *domain.Character
	Related   domain.AnnotationMap
}

// Detail returns r with every related character that is itself stored.
func (s *Service) Detail(ctx context.Context, r rune) (*Detail, error) {
	if !cjk.IsUnihan(r) {
		return nil, fmt.Errorf("%s not found in Unihan data: %w", cjk.FormatCodepoint(r), domain.ErrNotFound)
	}

	c, err := s.store.GetCharacterByCodepoint(ctx, r)
	if err != nil {
		return nil, fmt.Errorf("detail: %w", err)
	}

	related := make([]rune, 0, 8)
	if c.Radical != nil {
		if g, _ := utf8.DecodeRuneInString(c.Radical.Glyph); g != r {
			related = append(related, g)
		}
	}
	related = append(related, c.Variants()...)

	m, err := s.Annotate(ctx, string(related), Unbounded, TagDetail)
	if err != nil {
		return nil, fmt.Errorf("detail: %w", err)
	}
	return &Detail{Character: c, Related: m}, nil
}
