package repository

import (
	"context"
	"database/sql"

	"github.com/addislearn/learning-platform/internal/model"
)

const courseColumns = "id,title,description,price,discount,instructor_id,thumbnail_url,view_count,created_at,updated_at"

// CourseRepo persists rows of the `courses` table.
type CourseRepo struct{ DB *sql.DB }

func NewCourseRepo(db *sql.DB) *CourseRepo { return &CourseRepo{DB: db} }

// Create inserts a course and returns its ID.
func (r *CourseRepo) Create(ctx context.Context, c *model.Course) (uint64, error) {
	res, err := r.DB.ExecContext(ctx,
		"INSERT INTO courses (title, description, price, discount, instructor_id, thumbnail_url) VALUES (?,?,?,?,?,?)",
		c.Title, c.Description, c.Price, c.Discount, c.InstructorID, c.ThumbnailURL)
	if err != nil {
		return 0, err
	}
	id, err := res.LastInsertId()
	if err != nil {
		return 0, err
	}
	return uint64(id), nil
}

func scanCourse(scan func(dest ...any) error) (model.Course, error) {
	var c model.Course
	err := scan(&c.ID, &c.Title, &c.Description, &c.Price, &c.Discount,
		&c.InstructorID, &c.ThumbnailURL, &c.ViewCount, &c.CreatedAt, &c.UpdatedAt)
	return c, err
}

// GetByID fetches a course by id.
func (r *CourseRepo) GetByID(ctx context.Context, id uint64) (model.Course, error) {
	return scanCourse(r.DB.QueryRowContext(ctx,
		"SELECT "+courseColumns+" FROM courses WHERE id=? LIMIT 1", id).Scan)
}

// IncrementViews bumps view_count by one. Missing courses are ignored;
// the fetch that precedes it already established existence.
func (r *CourseRepo) IncrementViews(ctx context.Context, id uint64) error {
	_, err := r.DB.ExecContext(ctx,
		"UPDATE courses SET view_count=view_count+1 WHERE id=?", id)
	return err
}

// List returns courses matching the optional title/description search,
// newest first, paged.
func (r *CourseRepo) List(ctx context.Context, search string, page, pageSize int) ([]model.Course, error) {
	if page < 1 {
		page = 1
	}
	if pageSize < 1 {
		pageSize = 10
	}
	q := "SELECT " + courseColumns + " FROM courses"
	args := []any{}
	if search != "" {
		like := "%" + search + "%"
		q += " WHERE title LIKE ? OR description LIKE ?"
		args = append(args, like, like)
	}
	q += " ORDER BY created_at DESC LIMIT ? OFFSET ?"
	args = append(args, pageSize, (page-1)*pageSize)

	rows, err := r.DB.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := []model.Course{}
	for rows.Next() {
		c, err := scanCourse(rows.Scan)
		if err != nil {
			return nil, err
		}
		out = append(out, c)
	}
	return out, rows.Err()
}

// ListByInstructor returns the courses taught by instructorID, paged.
func (r *CourseRepo) ListByInstructor(ctx context.Context, instructorID uint64, page, pageSize int) ([]model.Course, error) {
	if page < 1 {
		page = 1
	}
	if pageSize < 1 {
		pageSize = 10
	}
	rows, err := r.DB.QueryContext(ctx,
		"SELECT "+courseColumns+" FROM courses WHERE instructor_id=? ORDER BY created_at DESC LIMIT ? OFFSET ?",
		instructorID, pageSize, (page-1)*pageSize)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := []model.Course{}
	for rows.Next() {
		c, err := scanCourse(rows.Scan)
		if err != nil {
			return nil, err
		}
		out = append(out, c)
	}
	return out, rows.Err()
}

// Update mutates the editable columns of a course.
func (r *CourseRepo) Update(ctx context.Context, c *model.Course) error {
	res, err := r.DB.ExecContext(ctx,
		"UPDATE courses SET title=?, description=?, price=?, discount=?, thumbnail_url=? WHERE id=?",
		c.Title, c.Description, c.Price, c.Discount, c.ThumbnailURL, c.ID)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		var id uint64
		return r.DB.QueryRowContext(ctx,
			"SELECT id FROM courses WHERE id=? LIMIT 1", c.ID).Scan(&id)
	}
	return nil
}

// Delete removes a course and, through foreign keys, its lessons.
func (r *CourseRepo) Delete(ctx context.Context, id uint64) error {
	res, err := r.DB.ExecContext(ctx, "DELETE FROM courses WHERE id=?", id)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return sql.ErrNoRows
	}
	return nil
}

// CourseStats aggregates the basic analytics exposed on the admin
// surface for a single course.
type CourseStats struct {
	CourseID    uint64  `json:"course_id"`
	Enrollments int     `json:"enrollments"`
	Revenue     float64 `json:"revenue"`
	ViewCount   uint64  `json:"view_count"`
}

// Stats returns enrollment count, summed successful-payment revenue and
// view count for a course.
func (r *CourseRepo) Stats(ctx context.Context, courseID uint64) (CourseStats, error) {
	s := CourseStats{CourseID: courseID}
	err := r.DB.QueryRowContext(ctx, `
		SELECT c.view_count,
		       (SELECT COUNT(*) FROM enrollments e WHERE e.course_id=c.id),
		       (SELECT COALESCE(SUM(p.amount),0) FROM payments p WHERE p.course_id=c.id AND p.status='success')
		FROM courses c WHERE c.id=?`, courseID).
		Scan(&s.ViewCount, &s.Enrollments, &s.Revenue)
	return s, err
}
