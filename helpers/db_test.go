package helpers

import (
	"database/sql"
	"testing"

	"github.com/lib/pq"
	"github.com/pkg/errors"
)

func TestIsUniqueViolation(t *testing.T) {
	if !IsUniqueViolation(errors.Wrap(&pq.Error{Code: "23505"}, "saving failed")) {
		t.Fatal("helpers.IsUniqueViolation() missed a wrapped unique violation")
	}
	if IsUniqueViolation(&pq.Error{Code: "23503"}) {
		t.Fatal("helpers.IsUniqueViolation() matched a foreign key violation")
	}
	if IsUniqueViolation(sql.ErrNoRows) || IsUniqueViolation(nil) {
		t.Fatal("helpers.IsUniqueViolation() matched a non postgres error")
	}
}

func TestIsNoRows(t *testing.T) {
	if !IsNoRows(errors.Wrap(sql.ErrNoRows, "reading failed")) {
		t.Fatal("helpers.IsNoRows() missed a wrapped sql.ErrNoRows")
	}
	if IsNoRows(errors.New("connection reset")) {
		t.Fatal("helpers.IsNoRows() matched an unrelated error")
	}
}
