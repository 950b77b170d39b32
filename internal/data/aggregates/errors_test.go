package aggregates

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/jackc/pgx/v5/pgconn"
	"gorm.io/gorm"

	domainagg "github.com/yungbote/eigo-backend/internal/domain/aggregates"
)

func TestMapError_NotFound(t *testing.T) {
	err := MapError("op", gorm.ErrRecordNotFound)
	if !domainagg.IsCode(err, domainagg.CodeNotFound) {
		t.Fatalf("expected NOT_FOUND, got %q (%v)", domainagg.CodeOf(err), err)
	}
}

func TestMapError_PostgresUniqueViolation(t *testing.T) {
	err := MapError("op", fmt.Errorf("insert: %w", &pgconn.PgError{Code: "23505", Message: "duplicate"}))
	if !domainagg.IsCode(err, domainagg.CodeConflict) {
		t.Fatalf("expected CONFLICT, got %q (%v)", domainagg.CodeOf(err), err)
	}
}

func TestMapError_SQLiteUniqueViolation(t *testing.T) {
	err := MapError("op", errors.New("constraint failed: UNIQUE constraint failed: units.chapter_id, units.sort_order (2067)"))
	if !domainagg.IsCode(err, domainagg.CodeConflict) {
		t.Fatalf("expected CONFLICT, got %q (%v)", domainagg.CodeOf(err), err)
	}
}

func TestMapError_TranslatedDuplicate(t *testing.T) {
	if !domainagg.IsCode(MapError("op", gorm.ErrDuplicatedKey), domainagg.CodeConflict) {
		t.Fatalf("expected CONFLICT for gorm.ErrDuplicatedKey")
	}
}

func TestMapError_Internal(t *testing.T) {
	err := MapError("op", context.DeadlineExceeded)
	if !domainagg.IsCode(err, domainagg.CodeInternal) {
		t.Fatalf("expected INTERNAL, got %q (%v)", domainagg.CodeOf(err), err)
	}
	if !errors.Is(err, context.DeadlineExceeded) {
		t.Fatalf("cause must stay reachable through Unwrap")
	}
}

func TestMapError_PassthroughServiceError(t *testing.T) {
	in := domainagg.InvalidHierarchy("op", "cycle")
	if out := MapError("other", in); out != in {
		t.Fatalf("expected passthrough service error")
	}
}

func TestIsUniqueViolation(t *testing.T) {
	if !IsUniqueViolation(&pgconn.PgError{Code: "23505"}) {
		t.Fatalf("expected 23505 to be a unique violation")
	}
	if IsUniqueViolation(errors.New("no such table")) || IsUniqueViolation(nil) {
		t.Fatalf("unexpected unique violation")
	}
}

func TestMapError_ForeignKeyViolation(t *testing.T) {
	for _, in := range []error{
		&pgconn.PgError{Code: "23503", Message: "violates foreign key constraint"},
		errors.New("constraint failed: FOREIGN KEY constraint failed (787)"),
		gorm.ErrForeignKeyViolated,
	} {
		if err := MapError("op", in); !domainagg.IsCode(err, domainagg.CodeConflict) {
			t.Fatalf("%v: expected CONFLICT, got %q", in, domainagg.CodeOf(err))
		}
	}
}
