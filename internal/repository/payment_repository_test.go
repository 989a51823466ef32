package repository

import (
	"context"
	"errors"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"

	"github.com/addislearn/learning-platform/internal/model"
)

func TestMarkSuccessTxReportsTransition(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock.New: %v", err)
	}
	defer db.Close()
	repo := NewPaymentRepo(db)

	mock.ExpectBegin()
	mock.ExpectExec("UPDATE payments SET status=(.+) WHERE tx_ref=(.+) AND status<>").
		WithArgs(model.PaymentSuccess, "ref-1", "tx-a", model.PaymentSuccess).
		WillReturnResult(sqlmock.NewResult(0, 1))
	tx, err := db.Begin()
	if err != nil {
		t.Fatalf("Begin: %v", err)
	}
	promoted, err := repo.MarkSuccessTx(context.Background(), tx, "tx-a", "ref-1")
	if err != nil {
		t.Fatalf("MarkSuccessTx: %v", err)
	}
	if !promoted {
		t.Fatal("expected transition to be reported")
	}

	// Already successful: the guarded update matches no rows.
	mock.ExpectExec("UPDATE payments SET status=(.+) WHERE tx_ref=(.+) AND status<>").
		WillReturnResult(sqlmock.NewResult(0, 0))
	promoted, err = repo.MarkSuccessTx(context.Background(), tx, "tx-a", "ref-1")
	if err != nil {
		t.Fatalf("MarkSuccessTx repeat: %v", err)
	}
	if promoted {
		t.Fatal("repeat promotion must report false")
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("unmet expectations: %v", err)
	}
}

func TestMarkFailedOnlyTouchesPending(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock.New: %v", err)
	}
	defer db.Close()
	repo := NewPaymentRepo(db)

	ref := "gw-ref"
	mock.ExpectExec("UPDATE payments SET status=(.+) WHERE tx_ref=(.+) AND status=").
		WithArgs(model.PaymentFailed, &ref, "tx-a", model.PaymentPending).
		WillReturnResult(sqlmock.NewResult(0, 0))

	if err := repo.MarkFailed(context.Background(), "tx-a", &ref); err != nil {
		t.Fatalf("MarkFailed: %v", err)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("unmet expectations: %v", err)
	}
}

func TestCountByRejectsUnknownColumn(t *testing.T) {
	db, _, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock.New: %v", err)
	}
	defer db.Close()
	repo := NewPaymentRepo(db)

	if _, err := repo.CountBy(context.Background(), "status; DROP TABLE payments", 1, ""); err == nil {
		t.Fatal("expected unsupported column to be rejected")
	}
}

func TestEnrollmentCreateDuplicate(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock.New: %v", err)
	}
	defer db.Close()
	repo := NewEnrollmentRepo(db)

	mock.ExpectExec("INSERT INTO enrollments").
		WillReturnError(errors.New("Error 1062 (23000): Duplicate entry '1-10' for key 'enrollments.user_course'"))

	_, err = repo.Create(context.Background(), 1, 10)
	if !errors.Is(err, ErrAlreadyEnrolled) {
		t.Fatalf("expected ErrAlreadyEnrolled, got %v", err)
	}
}
