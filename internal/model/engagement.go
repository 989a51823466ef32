package model

import "time"

// Comment mirrors the `comments` table.
type Comment struct {
	ID        uint64    // comments.id
	UserID    uint64    // comments.user_id
	CourseID  uint64    // comments.course_id
	Content   string    // comments.content
	CreatedAt time.Time // comments.created_at
	UpdatedAt time.Time // comments.updated_at
}

// Review mirrors the `reviews` table. Rating is 1-5; each user may
// review a course once (UNIQUE(user_id, course_id)), later submissions
// overwrite the previous rating.
type Review struct {
	ID        uint64    // reviews.id
	UserID    uint64    // reviews.user_id
	CourseID  uint64    // reviews.course_id
	Rating    uint8     // reviews.rating
	CreatedAt time.Time // reviews.created_at
	UpdatedAt time.Time // reviews.updated_at
}
