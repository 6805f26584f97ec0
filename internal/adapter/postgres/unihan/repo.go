// Package unihan implements Unihan character and radical persistence using PostgreSQL.
// Characters and radicals reference each other, so rows are written first and
// linked afterwards. Reads are point lookups by codepoint.
package unihan

import (
	"context"
	"fmt"

	"github.com/Masterminds/squirrel"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	postgres "github.com/heartmarshall/hanzi-backend/internal/adapter/postgres"
	"github.com/heartmarshall/hanzi-backend/internal/domain"
	"github.com/heartmarshall/hanzi-backend/pkg/cjk"
)

const (
	charactersTable = "unihan_characters"
	radicalsTable   = "unihan_radicals"
)

var psql = squirrel.StatementBuilder.PlaceholderFormat(squirrel.Dollar)

var characterColumns = []string{
	"codepoint", "utf8", "definition", "mandarin", "radical_id", "residual_strokes",
	"simplified_variants", "traditional_variants", "semantic_variants", "sort_order",
}

var radicalColumns = []string{"character_codepoint", "radical_number", "simplified", "utf8"}

// Repo provides Unihan persistence backed by PostgreSQL.
type Repo struct {
	pool *pgxpool.Pool
	txm  *postgres.TxManager
}

// New creates a new Unihan repository.
func New(pool *pgxpool.Pool, txm *postgres.TxManager) *Repo {
	return &Repo{pool: pool, txm: txm}
}

// ---------------------------------------------------------------------------
// Read operations
// ---------------------------------------------------------------------------

// GetCharacterByCodepoint returns the character with its radical, if linked.
// Returns domain.ErrNotFound if the codepoint is not stored.
func (r *Repo) GetCharacterByCodepoint(ctx context.Context, cp rune) (*domain.Character, error) {
	query, args, err := psql.
		Select(
			"c.codepoint", "c.utf8", "c.definition", "c.mandarin", "c.radical_id", "c.residual_strokes",
			"c.simplified_variants", "c.traditional_variants", "c.semantic_variants", "c.sort_order",
			"r.radical_number", "r.simplified", "r.utf8",
		).
		From(charactersTable + " c").
		LeftJoin(radicalsTable + " r ON r.character_codepoint = c.radical_id").
		Where(squirrel.Eq{"c.codepoint": int32(cp)}).
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("build query: %w", err)
	}

	q := postgres.QuerierFromCtx(ctx, r.pool)
	c, err := scanCharacter(q.QueryRow(ctx, query, args...))
	if err != nil {
		return nil, postgres.MapError(err, "unihan_character", cjk.FormatCodepoint(cp))
	}
	return c, nil
}

func scanCharacter(row pgx.Row) (*domain.Character, error) {
	var (
		codepoint, residual int32
		radicalID           *int32
		radicalNumber       *int16
		radicalSimplified   *bool
		radicalGlyph        *string
		c                   domain.Character
	)

	err := row.Scan(
		&codepoint, &c.Glyph, &c.Definition, &c.Mandarin, &radicalID, &residual,
		&c.SimplifiedVariants, &c.TraditionalVariants, &c.SemanticVariants, &c.SortOrder,
		&radicalNumber, &radicalSimplified, &radicalGlyph,
	)
	if err != nil {
		return nil, err
	}

	c.Codepoint = rune(codepoint)
	c.ResidualStrokes = int(residual)
	if radicalID != nil {
		id := domain.RadicalID(*radicalID)
		c.RadicalID = &id
		if radicalNumber != nil {
			c.Radical = &domain.Radical{
				ID:         id,
				Number:     int(*radicalNumber),
				Simplified: *radicalSimplified,
				Glyph:      *radicalGlyph,
			}
		}
	}
	return &c, nil
}

// ---------------------------------------------------------------------------
// Write operations
// ---------------------------------------------------------------------------

// BulkInsertCharacters inserts characters with one multi-row INSERT.
// Existing codepoints are skipped via ON CONFLICT DO NOTHING.
// Returns the number of actually inserted rows.
func (r *Repo) BulkInsertCharacters(ctx context.Context, chars []domain.Character) (int, error) {
	if len(chars) == 0 {
		return 0, nil
	}

	ins := psql.Insert(charactersTable).Columns(characterColumns...)
	for _, c := range chars {
		ins = ins.Values(characterValues(c)...)
	}

	n, err := r.execInsert(ctx, ins.Suffix("ON CONFLICT (codepoint) DO NOTHING"))
	if err != nil {
		return 0, postgres.MapError(err, "unihan_characters", batchRange(chars[0].Codepoint, chars[len(chars)-1].Codepoint))
	}
	return n, nil
}

// BulkInsertRadicals inserts radicals with one multi-row INSERT. Every
// radical's representative character must already exist.
// Existing radicals are skipped via ON CONFLICT DO NOTHING.
func (r *Repo) BulkInsertRadicals(ctx context.Context, radicals []domain.Radical) (int, error) {
	if len(radicals) == 0 {
		return 0, nil
	}

	ins := psql.Insert(radicalsTable).Columns(radicalColumns...)
	for _, rad := range radicals {
		ins = ins.Values(int32(rad.ID), int16(rad.Number), rad.Simplified, rad.Glyph)
	}

	n, err := r.execInsert(ctx, ins.Suffix("ON CONFLICT (character_codepoint) DO NOTHING"))
	if err != nil {
		return 0, postgres.MapError(err, "unihan_radicals", batchRange(rune(radicals[0].ID), rune(radicals[len(radicals)-1].ID)))
	}
	return n, nil
}

// UpdateCharacterRadicals sets radical_id on existing characters using pgx.Batch.
// Returns the number of updated rows.
func (r *Repo) UpdateCharacterRadicals(ctx context.Context, links []domain.RadicalLink) (int, error) {
	if len(links) == 0 {
		return 0, nil
	}

	batch := &pgx.Batch{}
	for _, l := range links {
		batch.Queue(
			`UPDATE unihan_characters SET radical_id = $1 WHERE codepoint = $2`,
			int32(l.RadicalID), int32(l.Codepoint),
		)
	}

	n, err := r.sendBatchExec(ctx, batch)
	if err != nil {
		return n, postgres.MapError(err, "unihan_characters", batchRange(links[0].Codepoint, links[len(links)-1].Codepoint))
	}
	return n, nil
}

// CreateRadical stores ch, then the radical described by desc, then links
// ch to that radical, all in one transaction. ch must be the radical's
// representative character.
func (r *Repo) CreateRadical(ctx context.Context, desc domain.RadicalDescriptor, ch domain.Character) (domain.RadicalID, error) {
	if ch.Codepoint != desc.Codepoint {
		return 0, domain.NewValidationError("character", fmt.Sprintf("%s does not represent radical %s",
			cjk.FormatCodepoint(ch.Codepoint), desc.Key))
	}

	ch.RadicalID = nil
	err := r.txm.RunInTx(ctx, func(ctx context.Context) error {
		if _, err := r.BulkInsertCharacters(ctx, []domain.Character{ch}); err != nil {
			return err
		}
		if _, err := r.BulkInsertRadicals(ctx, []domain.Radical{desc.Radical()}); err != nil {
			return err
		}
		_, err := r.UpdateCharacterRadicals(ctx, []domain.RadicalLink{{Codepoint: ch.Codepoint, RadicalID: desc.ID()}})
		return err
	})
	if err != nil {
		return 0, fmt.Errorf("create radical %s: %w", desc.Key, err)
	}
	return desc.ID(), nil
}

// ---------------------------------------------------------------------------
// Helpers
// ---------------------------------------------------------------------------

func (r *Repo) execInsert(ctx context.Context, ins squirrel.InsertBuilder) (int, error) {
	query, args, err := ins.ToSql()
	if err != nil {
		return 0, fmt.Errorf("build insert: %w", err)
	}

	tag, err := postgres.QuerierFromCtx(ctx, r.pool).Exec(ctx, query, args...)
	if err != nil {
		return 0, err
	}
	return int(tag.RowsAffected()), nil
}

// sendBatchExec sends a pgx.Batch and counts affected rows from Exec results.
func (r *Repo) sendBatchExec(ctx context.Context, batch *pgx.Batch) (int, error) {
	q := postgres.QuerierFromCtx(ctx, r.pool)
	results := q.SendBatch(ctx, batch)
	defer results.Close()

	var affected int
	for range batch.Len() {
		tag, err := results.Exec()
		if err != nil {
			return affected, fmt.Errorf("batch exec: %w", err)
		}
		affected += int(tag.RowsAffected())
	}

	return affected, nil
}

func characterValues(c domain.Character) []any {
	var radicalID *int32
	if c.RadicalID != nil {
		id := int32(*c.RadicalID)
		radicalID = &id
	}
	return []any{
		int32(c.Codepoint), c.Glyph, c.Definition, c.Mandarin, radicalID, int32(c.ResidualStrokes),
		c.SimplifiedVariants, c.TraditionalVariants, c.SemanticVariants, c.SortOrder,
	}
}

func batchRange(first, last rune) string {
	if first == last {
		return cjk.FormatCodepoint(first)
	}
	return cjk.FormatCodepoint(first) + ".." + cjk.FormatCodepoint(last)
}
