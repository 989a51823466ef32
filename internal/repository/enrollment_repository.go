package repository

import (
	"context"
	"database/sql"

	"github.com/addislearn/learning-platform/internal/model"
)

// EnrollmentRepo persists the user-course enrollment link. The
// UNIQUE(user_id, course_id) index is the idempotency guard for
// duplicate payment callbacks: a second insert surfaces as
// ErrAlreadyEnrolled instead of a second row.
type EnrollmentRepo struct{ DB *sql.DB }

func NewEnrollmentRepo(db *sql.DB) *EnrollmentRepo { return &EnrollmentRepo{DB: db} }

// Create inserts an enrollment. A duplicate (user, course) pair maps to
// ErrAlreadyEnrolled.
func (r *EnrollmentRepo) Create(ctx context.Context, userID, courseID uint64) (uint64, error) {
	res, err := r.DB.ExecContext(ctx,
		"INSERT INTO enrollments (user_id, course_id) VALUES (?,?)", userID, courseID)
	if err != nil {
		if isDuplicateKey(err) {
			return 0, ErrAlreadyEnrolled
		}
		return 0, err
	}
	id, err := res.LastInsertId()
	if err != nil {
		return 0, err
	}
	return uint64(id), nil
}

// CreateTx is Create inside an existing transaction, used by callback
// processing so the payment update and the enrollment commit together.
func (r *EnrollmentRepo) CreateTx(ctx context.Context, tx *sql.Tx, userID, courseID uint64) (uint64, error) {
	res, err := tx.ExecContext(ctx,
		"INSERT INTO enrollments (user_id, course_id) VALUES (?,?)", userID, courseID)
	if err != nil {
		if isDuplicateKey(err) {
			return 0, ErrAlreadyEnrolled
		}
		return 0, err
	}
	id, err := res.LastInsertId()
	if err != nil {
		return 0, err
	}
	return uint64(id), nil
}

// Get fetches the enrollment for a (user, course) pair.
func (r *EnrollmentRepo) Get(ctx context.Context, userID, courseID uint64) (model.Enrollment, error) {
	var e model.Enrollment
	err := r.DB.QueryRowContext(ctx,
		"SELECT id,user_id,course_id,enrolled_at FROM enrollments WHERE user_id=? AND course_id=? LIMIT 1",
		userID, courseID).Scan(&e.ID, &e.UserID, &e.CourseID, &e.EnrolledAt)
	return e, err
}

// Exists reports whether the user is enrolled in the course.
func (r *EnrollmentRepo) Exists(ctx context.Context, userID, courseID uint64) (bool, error) {
	var id uint64
	err := r.DB.QueryRowContext(ctx,
		"SELECT id FROM enrollments WHERE user_id=? AND course_id=? LIMIT 1",
		userID, courseID).Scan(&id)
	if err == sql.ErrNoRows {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return true, nil
}

// ListByUser returns all enrollments of a user, newest first.
func (r *EnrollmentRepo) ListByUser(ctx context.Context, userID uint64) ([]model.Enrollment, error) {
	rows, err := r.DB.QueryContext(ctx,
		"SELECT id,user_id,course_id,enrolled_at FROM enrollments WHERE user_id=? ORDER BY enrolled_at DESC",
		userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := []model.Enrollment{}
	for rows.Next() {
		var e model.Enrollment
		if err := rows.Scan(&e.ID, &e.UserID, &e.CourseID, &e.EnrolledAt); err != nil {
			return nil, err
		}
		out = append(out, e)
	}
	return out, rows.Err()
}

// CountByCourse returns the number of enrollments in a course.
func (r *EnrollmentRepo) CountByCourse(ctx context.Context, courseID uint64) (int, error) {
	var n int
	err := r.DB.QueryRowContext(ctx,
		"SELECT COUNT(*) FROM enrollments WHERE course_id=?", courseID).Scan(&n)
	return n, err
}
