package repository

import (
	"context"
	"database/sql"
	"errors"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
)

func TestUpdateCommentOwnership(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock.New: %v", err)
	}
	defer db.Close()
	repo := NewEngagementRepo(db)

	// Guarded update matches no rows; the comment exists but belongs to
	// user 2.
	mock.ExpectExec("UPDATE comments SET content=(.+) WHERE id=(.+) AND user_id=").
		WithArgs("edited", uint64(5), uint64(1)).
		WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectQuery("SELECT user_id FROM comments WHERE id=").
		WithArgs(uint64(5)).
		WillReturnRows(sqlmock.NewRows([]string{"user_id"}).AddRow(2))

	err = repo.UpdateComment(context.Background(), 5, 1, "edited")
	if !errors.Is(err, ErrForbidden) {
		t.Fatalf("expected ErrForbidden, got %v", err)
	}

	// Missing comment surfaces as sql.ErrNoRows instead.
	mock.ExpectExec("UPDATE comments SET content=(.+) WHERE id=(.+) AND user_id=").
		WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectQuery("SELECT user_id FROM comments WHERE id=").
		WillReturnError(sql.ErrNoRows)

	err = repo.UpdateComment(context.Background(), 6, 1, "edited")
	if !errors.Is(err, sql.ErrNoRows) {
		t.Fatalf("expected sql.ErrNoRows, got %v", err)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("unmet expectations: %v", err)
	}
}

func TestAverageRatingNoReviews(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock.New: %v", err)
	}
	defer db.Close()
	repo := NewEngagementRepo(db)

	mock.ExpectQuery("SELECT AVG\\(rating\\), COUNT\\(\\*\\) FROM reviews").
		WithArgs(uint64(9)).
		WillReturnRows(sqlmock.NewRows([]string{"avg", "count"}).AddRow(nil, 0))

	avg, n, err := repo.AverageRating(context.Background(), 9)
	if err != nil {
		t.Fatalf("AverageRating: %v", err)
	}
	if avg != 0 || n != 0 {
		t.Fatalf("expected zero rating for no reviews, got %v/%d", avg, n)
	}
}
