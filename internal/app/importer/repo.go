// Package importer defines interfaces and orchestration for the Unihan ingest pipeline.
package importer

import (
	"context"

	"github.com/heartmarshall/hanzi-backend/internal/domain"
)

// UnihanBulkRepo defines the batch repository contract consumed by the import pipeline.
// All methods use only domain types, no adapter imports.
// Implemented by unihan.Repo.
type UnihanBulkRepo interface {
	// CreateRadical stores one radical and its representative character,
	// linking them both ways. Used for representatives absent from the
	// property files.
	CreateRadical(ctx context.Context, desc domain.RadicalDescriptor, ch domain.Character) (domain.RadicalID, error)

	// Batch inserts: ON CONFLICT DO NOTHING, callers keep batches within Config.BatchSize.
	BulkInsertCharacters(ctx context.Context, chars []domain.Character) (int, error)
	BulkInsertRadicals(ctx context.Context, radicals []domain.Radical) (int, error)

	// UpdateCharacterRadicals sets radical_id for existing characters.
	UpdateCharacterRadicals(ctx context.Context, links []domain.RadicalLink) (int, error)
}
