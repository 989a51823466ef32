package repository

import (
	"context"
	"database/sql"
	"errors"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
)

func TestReplaceIsAtomic(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock.New: %v", err)
	}
	defer db.Close()
	repo := NewTokenRepo(db)

	exp := time.Now().Add(30 * 24 * time.Hour)
	mock.ExpectBegin()
	mock.ExpectExec("DELETE FROM refresh_tokens WHERE user_id=").
		WithArgs(uint64(7)).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec("INSERT INTO refresh_tokens").
		WithArgs(uint64(7), "hash-abc", exp).
		WillReturnResult(sqlmock.NewResult(1, 1))
	mock.ExpectCommit()

	if err := repo.Replace(context.Background(), 7, "hash-abc", exp); err != nil {
		t.Fatalf("Replace: %v", err)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("unmet expectations: %v", err)
	}
}

func TestReplaceRollsBackOnInsertFailure(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock.New: %v", err)
	}
	defer db.Close()
	repo := NewTokenRepo(db)

	mock.ExpectBegin()
	mock.ExpectExec("DELETE FROM refresh_tokens WHERE user_id=").
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec("INSERT INTO refresh_tokens").
		WillReturnError(errors.New("disk full"))
	mock.ExpectRollback()

	if err := repo.Replace(context.Background(), 7, "hash-abc", time.Now()); err == nil {
		t.Fatal("expected insert failure to propagate")
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("unmet expectations: %v", err)
	}
}

func TestDeleteByUserReportsMissingSession(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock.New: %v", err)
	}
	defer db.Close()
	repo := NewTokenRepo(db)

	mock.ExpectExec("DELETE FROM refresh_tokens WHERE user_id=").
		WillReturnResult(sqlmock.NewResult(0, 0))

	err = repo.DeleteByUser(context.Background(), 7)
	if !errors.Is(err, sql.ErrNoRows) {
		t.Fatalf("expected sql.ErrNoRows, got %v", err)
	}
}
