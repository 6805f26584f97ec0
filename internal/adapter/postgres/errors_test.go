package postgres

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"

	"github.com/heartmarshall/hanzi-backend/internal/domain"
)

const testID = "U+9C7C"

func TestMapError_Nil(t *testing.T) {
	t.Parallel()

	if got := MapError(nil, "unihan_character", testID); got != nil {
		t.Errorf("MapError(nil) = %v, want nil", got)
	}
}

func TestMapError_NoRows(t *testing.T) {
	t.Parallel()

	got := MapError(pgx.ErrNoRows, "unihan_character", testID)

	if got == nil {
		t.Fatal("MapError(ErrNoRows) = nil, want error")
	}
	if !errors.Is(got, domain.ErrNotFound) {
		t.Errorf("MapError(ErrNoRows) does not wrap domain.ErrNotFound: %v", got)
	}
	if want := "unihan_character U+9C7C: not found"; got.Error() != want {
		t.Errorf("MapError(ErrNoRows).Error() = %q, want %q", got.Error(), want)
	}
}

func TestMapError_WrappedNoRows(t *testing.T) {
	t.Parallel()

	wrapped := fmt.Errorf("scan row: %w", pgx.ErrNoRows)
	got := MapError(wrapped, "unihan_radical", testID)

	if !errors.Is(got, domain.ErrNotFound) {
		t.Errorf("MapError(wrapped ErrNoRows) does not wrap domain.ErrNotFound: %v", got)
	}
}

func TestMapError_AllPgCodes(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		code    string
		wantErr error
	}{
		{"unique_violation", "23505", domain.ErrAlreadyExists},
		{"foreign_key_violation", "23503", domain.ErrNotFound},
		{"check_violation", "23514", domain.ErrValidation},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			got := MapError(&pgconn.PgError{Code: tt.code}, "unihan_character", testID)
			if !errors.Is(got, tt.wantErr) {
				t.Errorf("MapError(code %s) does not wrap %v: %v", tt.code, tt.wantErr, got)
			}

			wrapped := MapError(fmt.Errorf("insert row: %w", &pgconn.PgError{Code: tt.code}), "unihan_character", testID)
			if !errors.Is(wrapped, tt.wantErr) {
				t.Errorf("MapError(wrapped code %s) does not wrap %v: %v", tt.code, tt.wantErr, wrapped)
			}
		})
	}
}

func TestMapError_ContextErrorsPassThrough(t *testing.T) {
	t.Parallel()

	for _, ctxErr := range []error{context.DeadlineExceeded, context.Canceled} {
		got := MapError(ctxErr, "unihan_character", testID)

		if !errors.Is(got, ctxErr) {
			t.Errorf("MapError(%v) does not wrap the context error: %v", ctxErr, got)
		}
		if errors.Is(got, domain.ErrNotFound) {
			t.Errorf("MapError(%v) should not wrap domain.ErrNotFound", ctxErr)
		}
	}
}

func TestMapError_UnknownPgError(t *testing.T) {
	t.Parallel()

	pgErr := &pgconn.PgError{Code: "42P01", Message: "relation does not exist"}
	got := MapError(pgErr, "unihan_character", testID)

	var unwrapped *pgconn.PgError
	if !errors.As(got, &unwrapped) {
		t.Errorf("MapError(unknown PgError) does not wrap *pgconn.PgError: %v", got)
	}
	if errors.Is(got, domain.ErrNotFound) || errors.Is(got, domain.ErrAlreadyExists) || errors.Is(got, domain.ErrValidation) {
		t.Error("MapError(unknown PgError) should not map to a domain error")
	}
}

func TestMapError_UnknownError(t *testing.T) {
	t.Parallel()

	original := errors.New("something unexpected")
	got := MapError(original, "unihan_radical", "U+9B5A")

	if !errors.Is(got, original) {
		t.Errorf("MapError(unknown) does not wrap original error: %v", got)
	}
	if want := "unihan_radical U+9B5A: something unexpected"; got.Error() != want {
		t.Errorf("MapError(unknown).Error() = %q, want %q", got.Error(), want)
	}
}
