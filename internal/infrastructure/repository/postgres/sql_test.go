package postgres

import (
	"database/sql"
	"fmt"
	"testing"

	"github.com/lib/pq"
)

func TestIsNotFound(t *testing.T) {
	t.Run("matches sql.ErrNoRows", func(t *testing.T) {
		if !isNotFound(sql.ErrNoRows) {
			t.Fatalf("expected true for sql.ErrNoRows")
		}
	})

	t.Run("matches wrapped ErrNoRows", func(t *testing.T) {
		err := fmt.Errorf("get fixture: %w", sql.ErrNoRows)
		if !isNotFound(err) {
			t.Fatalf("expected true for wrapped ErrNoRows")
		}
	})

	t.Run("ignores unrelated error", func(t *testing.T) {
		err := fakeErr("pq: relation fixtures does not exist")
		if isNotFound(err) {
			t.Fatalf("expected false for unrelated error")
		}
	})
}

func TestIsUniqueViolation(t *testing.T) {
	t.Run("matches unique violation code", func(t *testing.T) {
		err := &pq.Error{Code: "23505"}
		if !isUniqueViolation(err) {
			t.Fatalf("expected true for 23505 error")
		}
	})

	t.Run("matches wrapped unique violation", func(t *testing.T) {
		err := fmt.Errorf("insert event: %w", &pq.Error{Code: "23505"})
		if !isUniqueViolation(err) {
			t.Fatalf("expected true for wrapped 23505 error")
		}
	})

	t.Run("ignores other pq codes", func(t *testing.T) {
		err := &pq.Error{Code: "23503"}
		if isUniqueViolation(err) {
			t.Fatalf("expected false for foreign key violation")
		}
	})

	t.Run("ignores non-pq error", func(t *testing.T) {
		err := fakeErr("duplicate key value violates unique constraint")
		if isUniqueViolation(err) {
			t.Fatalf("expected false for plain error")
		}
	})
}

type fakeErr string

func (e fakeErr) Error() string { return string(e) }
