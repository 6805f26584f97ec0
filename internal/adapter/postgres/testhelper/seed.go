package testhelper

import (
	"context"
	"sync/atomic"
	"testing"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/heartmarshall/hanzi-backend/internal/domain"
)

// nextCodepoint hands out Extension B codepoints so parallel tests sharing
// one database never collide.
var nextCodepoint atomic.Int32

func init() {
	nextCodepoint.Store(0x20000)
}

// UniqueCodepoint returns a codepoint no other test in this run has used.
func UniqueCodepoint() rune {
	return rune(nextCodepoint.Add(1))
}

// SeedRadical inserts a radical together with its representative character
// and links the character to it.
func SeedRadical(t *testing.T, pool *pgxpool.Pool, number int, simplified bool) domain.Radical {
	t.Helper()
	ctx := context.Background()

	cp := UniqueCodepoint()
	radical := domain.RadicalDescriptor{Number: number, Simplified: simplified, Codepoint: cp}.Radical()

	_, err := pool.Exec(ctx,
		`INSERT INTO unihan_characters (codepoint, utf8, sort_order) VALUES ($1, $2, $3)`,
		int32(cp), radical.Glyph, int64(cp),
	)
	if err != nil {
		t.Fatalf("testhelper: SeedRadical insert character: %v", err)
	}

	_, err = pool.Exec(ctx,
		`INSERT INTO unihan_radicals (character_codepoint, radical_number, simplified, utf8) VALUES ($1, $2, $3, $4)`,
		int32(cp), int16(number), simplified, radical.Glyph,
	)
	if err != nil {
		t.Fatalf("testhelper: SeedRadical insert radical: %v", err)
	}

	_, err = pool.Exec(ctx, `UPDATE unihan_characters SET radical_id = $1 WHERE codepoint = $1`, int32(cp))
	if err != nil {
		t.Fatalf("testhelper: SeedRadical link: %v", err)
	}

	return radical
}

// SeedCharacter inserts a character linked to radical.
func SeedCharacter(t *testing.T, pool *pgxpool.Pool, radical domain.Radical, definition string) domain.Character {
	t.Helper()

	cp := UniqueCodepoint()
	id := radical.ID
	c := domain.Character{
		Codepoint:  cp,
		Glyph:      string(cp),
		Definition: definition,
		RadicalID:  &id,
		SortOrder:  int64(cp),
	}

	_, err := pool.Exec(context.Background(),
		`INSERT INTO unihan_characters (codepoint, utf8, definition, radical_id, sort_order) VALUES ($1, $2, $3, $4, $5)`,
		int32(cp), c.Glyph, c.Definition, int32(id), c.SortOrder,
	)
	if err != nil {
		t.Fatalf("testhelper: SeedCharacter: %v", err)
	}
	return c
}
