package postgres_test

import (
	"context"
	"errors"
	"testing"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/heartmarshall/hanzi-backend/internal/adapter/postgres"
	"github.com/heartmarshall/hanzi-backend/internal/adapter/postgres/testhelper"
)

const insertCharacterSQL = `INSERT INTO unihan_characters (codepoint, utf8, sort_order) VALUES ($1, $2, $3)`

// characterExists checks whether a character row with the given codepoint exists.
func characterExists(t *testing.T, pool *pgxpool.Pool, cp rune) bool {
	t.Helper()
	var exists bool
	err := pool.QueryRow(
		context.Background(),
		`SELECT EXISTS(SELECT 1 FROM unihan_characters WHERE codepoint = $1)`,
		int32(cp),
	).Scan(&exists)
	if err != nil {
		t.Fatalf("characterExists query: %v", err)
	}
	return exists
}

func TestRunInTx_Commit(t *testing.T) {
	pool := testhelper.SetupTestDB(t)
	tm := postgres.NewTxManager(pool)

	const cp = rune(0xFA10)

	err := tm.RunInTx(context.Background(), func(ctx context.Context) error {
		q := postgres.QuerierFromCtx(ctx, pool)
		_, err := q.Exec(ctx, insertCharacterSQL, int32(cp), string(cp), int64(cp))
		return err
	})
	if err != nil {
		t.Fatalf("RunInTx returned error: %v", err)
	}

	if !characterExists(t, pool, cp) {
		t.Fatal("expected character to exist after committed transaction")
	}
}

func TestRunInTx_RollbackOnError(t *testing.T) {
	pool := testhelper.SetupTestDB(t)
	tm := postgres.NewTxManager(pool)

	const cp = rune(0xFA11)
	sentinel := errors.New("business logic error")

	err := tm.RunInTx(context.Background(), func(ctx context.Context) error {
		q := postgres.QuerierFromCtx(ctx, pool)
		if _, execErr := q.Exec(ctx, insertCharacterSQL, int32(cp), string(cp), int64(cp)); execErr != nil {
			t.Fatalf("insert inside tx failed: %v", execErr)
		}
		return sentinel
	})

	if !errors.Is(err, sentinel) {
		t.Fatalf("expected sentinel error, got: %v", err)
	}
	if characterExists(t, pool, cp) {
		t.Fatal("expected character NOT to exist after rolled-back transaction")
	}
}

func TestRunInTx_RollbackOnPanic(t *testing.T) {
	pool := testhelper.SetupTestDB(t)
	tm := postgres.NewTxManager(pool)

	const cp = rune(0xFA12)

	defer func() {
		r := recover()
		if r == nil {
			t.Fatal("expected panic to be re-raised")
		}
		if r != "test panic" {
			t.Fatalf("expected panic value %q, got %v", "test panic", r)
		}
		if characterExists(t, pool, cp) {
			t.Fatal("expected character NOT to exist after panic-rolled-back transaction")
		}
	}()

	_ = tm.RunInTx(context.Background(), func(ctx context.Context) error {
		q := postgres.QuerierFromCtx(ctx, pool)
		if _, err := q.Exec(ctx, insertCharacterSQL, int32(cp), string(cp), int64(cp)); err != nil {
			t.Fatalf("insert inside tx failed: %v", err)
		}
		panic("test panic")
	})
}

func TestRunInTx_QuerierFromCtx_UsesTx(t *testing.T) {
	pool := testhelper.SetupTestDB(t)
	tm := postgres.NewTxManager(pool)

	const cp = rune(0xFA13)

	err := tm.RunInTx(context.Background(), func(ctx context.Context) error {
		q := postgres.QuerierFromCtx(ctx, pool)
		if _, err := q.Exec(ctx, insertCharacterSQL, int32(cp), string(cp), int64(cp)); err != nil {
			return err
		}

		// Visible within the transaction, not yet outside.
		var exists bool
		err := q.QueryRow(ctx, `SELECT EXISTS(SELECT 1 FROM unihan_characters WHERE codepoint = $1)`, int32(cp)).Scan(&exists)
		if err != nil {
			return err
		}
		if !exists {
			t.Fatal("expected character to be visible within the transaction")
		}
		if characterExists(t, pool, cp) {
			t.Fatal("expected character to be invisible outside the transaction before commit")
		}
		return nil
	})
	if err != nil {
		t.Fatalf("RunInTx returned error: %v", err)
	}

	if !characterExists(t, pool, cp) {
		t.Fatal("expected character to exist after committed transaction")
	}
}
