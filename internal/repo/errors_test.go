package repo

import (
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/jackc/pgx/v5/pgconn"
)

func TestMapWriteError(t *testing.T) {
	unique := &pgconn.PgError{Code: uniqueViolation}
	if got := mapWriteError(fmt.Errorf("scan topic: %w", unique)); !errors.Is(got, ErrAlreadyExists) {
		t.Errorf("expected ErrAlreadyExists, got %v", got)
	}

	other := &pgconn.PgError{Code: "23503"}
	if got := mapWriteError(other); errors.Is(got, ErrAlreadyExists) {
		t.Errorf("foreign key violation must not map to ErrAlreadyExists")
	}

	plain := errors.New("boom")
	if got := mapWriteError(plain); got != plain {
		t.Errorf("expected error unchanged, got %v", got)
	}
}

func TestNullHelpers(t *testing.T) {
	if nullString("") != nil {
		t.Error("empty string must map to NULL")
	}
	if v := nullString("pro"); v == nil || *v != "pro" {
		t.Errorf("unexpected value: %v", v)
	}

	var zero time.Time
	if nullTime(&zero) != nil || nullTime(nil) != nil {
		t.Error("zero and nil time must map to NULL")
	}
	now := time.Now()
	if nullTime(&now) == nil {
		t.Error("non-zero time must be kept")
	}
}
