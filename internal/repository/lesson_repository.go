package repository

import (
	"context"
	"database/sql"

	"github.com/addislearn/learning-platform/internal/model"
)

// LessonRepo persists lessons and their one-to-one videos.
type LessonRepo struct{ DB *sql.DB }

func NewLessonRepo(db *sql.DB) *LessonRepo { return &LessonRepo{DB: db} }

// Create inserts a lesson and returns its ID.
func (r *LessonRepo) Create(ctx context.Context, l *model.Lesson) (uint64, error) {
	res, err := r.DB.ExecContext(ctx,
		"INSERT INTO lessons (course_id, title, description, duration, ord) VALUES (?,?,?,?,?)",
		l.CourseID, l.Title, l.Description, l.Duration, l.Ord)
	if err != nil {
		return 0, err
	}
	id, err := res.LastInsertId()
	if err != nil {
		return 0, err
	}
	return uint64(id), nil
}

// GetByID fetches a lesson by id.
func (r *LessonRepo) GetByID(ctx context.Context, id uint64) (model.Lesson, error) {
	var l model.Lesson
	err := r.DB.QueryRowContext(ctx,
		"SELECT id,course_id,title,description,duration,ord,created_at,updated_at FROM lessons WHERE id=? LIMIT 1",
		id).Scan(&l.ID, &l.CourseID, &l.Title, &l.Description, &l.Duration, &l.Ord, &l.CreatedAt, &l.UpdatedAt)
	return l, err
}

// ListByCourse returns a course's lessons in their teaching order.
func (r *LessonRepo) ListByCourse(ctx context.Context, courseID uint64) ([]model.Lesson, error) {
	rows, err := r.DB.QueryContext(ctx,
		"SELECT id,course_id,title,description,duration,ord,created_at,updated_at FROM lessons WHERE course_id=? ORDER BY ord, id",
		courseID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := []model.Lesson{}
	for rows.Next() {
		var l model.Lesson
		if err := rows.Scan(&l.ID, &l.CourseID, &l.Title, &l.Description, &l.Duration, &l.Ord, &l.CreatedAt, &l.UpdatedAt); err != nil {
			return nil, err
		}
		out = append(out, l)
	}
	return out, rows.Err()
}

// Delete removes a lesson and its video (foreign key cascade).
func (r *LessonRepo) Delete(ctx context.Context, id uint64) error {
	res, err := r.DB.ExecContext(ctx, "DELETE FROM lessons WHERE id=?", id)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return sql.ErrNoRows
	}
	return nil
}

// UpsertVideo attaches or replaces the single video of a lesson.
func (r *LessonRepo) UpsertVideo(ctx context.Context, v *model.Video) error {
	_, err := r.DB.ExecContext(ctx, `
		INSERT INTO videos (lesson_id, library_id, video_id, secret_key) VALUES (?,?,?,?)
		ON DUPLICATE KEY UPDATE library_id=VALUES(library_id), video_id=VALUES(video_id), secret_key=VALUES(secret_key)`,
		v.LessonID, v.LibraryID, v.VideoID, v.SecretKey)
	return err
}

// GetVideoByLesson fetches the video attached to a lesson.
func (r *LessonRepo) GetVideoByLesson(ctx context.Context, lessonID uint64) (model.Video, error) {
	var v model.Video
	err := r.DB.QueryRowContext(ctx,
		"SELECT id,lesson_id,library_id,video_id,secret_key,created_at,updated_at FROM videos WHERE lesson_id=? LIMIT 1",
		lessonID).Scan(&v.ID, &v.LessonID, &v.LibraryID, &v.VideoID, &v.SecretKey, &v.CreatedAt, &v.UpdatedAt)
	return v, err
}
