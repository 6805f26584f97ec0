package testhelper

import (
	"context"
	"testing"
)

func TestSetupTestDB_Smoke(t *testing.T) {
	pool := SetupTestDB(t)

	radical := SeedRadical(t, pool, 9, false)
	char := SeedCharacter(t, pool, radical, "smoke")

	// Verify the character resolves to the radical via SELECT.
	var number int16
	err := pool.QueryRow(
		context.Background(),
		`SELECT r.radical_number
		 FROM unihan_characters c JOIN unihan_radicals r ON r.character_codepoint = c.radical_id
		 WHERE c.codepoint = $1`,
		int32(char.Codepoint),
	).Scan(&number)
	if err != nil {
		t.Fatalf("expected character in DB, got error: %v", err)
	}

	if number != 9 {
		t.Fatalf("expected radical 9, got %d", number)
	}
}
