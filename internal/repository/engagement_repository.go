package repository

import (
	"context"
	"database/sql"

	"github.com/addislearn/learning-platform/internal/model"
)

// EngagementRepo persists course comments and star reviews.
type EngagementRepo struct{ DB *sql.DB }

func NewEngagementRepo(db *sql.DB) *EngagementRepo { return &EngagementRepo{DB: db} }

// CreateComment inserts a comment and returns its ID.
func (r *EngagementRepo) CreateComment(ctx context.Context, c *model.Comment) (uint64, error) {
	res, err := r.DB.ExecContext(ctx,
		"INSERT INTO comments (user_id, course_id, content) VALUES (?,?,?)",
		c.UserID, c.CourseID, c.Content)
	if err != nil {
		return 0, err
	}
	id, err := res.LastInsertId()
	if err != nil {
		return 0, err
	}
	return uint64(id), nil
}

// ListComments returns a course's comments, newest first, paged.
func (r *EngagementRepo) ListComments(ctx context.Context, courseID uint64, page, pageSize int) ([]model.Comment, error) {
	if page < 1 {
		page = 1
	}
	if pageSize < 1 {
		pageSize = 10
	}
	rows, err := r.DB.QueryContext(ctx,
		"SELECT id,user_id,course_id,content,created_at,updated_at FROM comments WHERE course_id=? ORDER BY created_at DESC LIMIT ? OFFSET ?",
		courseID, pageSize, (page-1)*pageSize)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := []model.Comment{}
	for rows.Next() {
		var c model.Comment
		if err := rows.Scan(&c.ID, &c.UserID, &c.CourseID, &c.Content, &c.CreatedAt, &c.UpdatedAt); err != nil {
			return nil, err
		}
		out = append(out, c)
	}
	return out, rows.Err()
}

// UpdateComment changes a comment's content, enforcing ownership.
func (r *EngagementRepo) UpdateComment(ctx context.Context, commentID, userID uint64, content string) error {
	res, err := r.DB.ExecContext(ctx,
		"UPDATE comments SET content=? WHERE id=? AND user_id=?", content, commentID, userID)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return r.commentOwnership(ctx, commentID, userID)
	}
	return nil
}

// DeleteComment removes a comment, enforcing ownership.
func (r *EngagementRepo) DeleteComment(ctx context.Context, commentID, userID uint64) error {
	res, err := r.DB.ExecContext(ctx,
		"DELETE FROM comments WHERE id=? AND user_id=?", commentID, userID)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return r.commentOwnership(ctx, commentID, userID)
	}
	return nil
}

// commentOwnership distinguishes "comment missing" from "owned by
// someone else" after a guarded mutation matched no rows.
func (r *EngagementRepo) commentOwnership(ctx context.Context, commentID, userID uint64) error {
	var owner uint64
	err := r.DB.QueryRowContext(ctx,
		"SELECT user_id FROM comments WHERE id=? LIMIT 1", commentID).Scan(&owner)
	if err != nil {
		return err
	}
	if owner != userID {
		return ErrForbidden
	}
	return nil
}

// UpsertReview stores a user's 1-5 rating for a course; a repeat
// submission overwrites the previous rating.
func (r *EngagementRepo) UpsertReview(ctx context.Context, rev *model.Review) error {
	_, err := r.DB.ExecContext(ctx, `
		INSERT INTO reviews (user_id, course_id, rating) VALUES (?,?,?)
		ON DUPLICATE KEY UPDATE rating=VALUES(rating)`,
		rev.UserID, rev.CourseID, rev.Rating)
	return err
}

// AverageRating returns the mean rating and review count for a course.
func (r *EngagementRepo) AverageRating(ctx context.Context, courseID uint64) (float64, int, error) {
	var (
		avg sql.NullFloat64
		n   int
	)
	err := r.DB.QueryRowContext(ctx,
		"SELECT AVG(rating), COUNT(*) FROM reviews WHERE course_id=?", courseID).Scan(&avg, &n)
	if err != nil {
		return 0, 0, err
	}
	return avg.Float64, n, nil
}
