package model

import "time"

// Course mirrors the `courses` table. Price is the list price in the
// platform currency and Discount is a fraction of the price (0.25 means
// a quarter off); the effective charge is computed at payment
// initiation, never stored.
//
// Fields:
//  ID           – primary key identifier.
//  Title        – course title.
//  Description  – free-form description.
//  Price        – list price; zero means the course is free.
//  Discount     – discount as a fraction of the price.
//  InstructorID – user who teaches the course.
//  ThumbnailURL – optional cover image URL.
//  ViewCount    – number of detail-page fetches.
//  CreatedAt    – creation timestamp.
//  UpdatedAt    – last update timestamp.
type Course struct {
	ID           uint64    // courses.id
	Title        string    // courses.title
	Description  string    // courses.description
	Price        float64   // courses.price
	Discount     float64   // courses.discount
	InstructorID uint64    // courses.instructor_id
	ThumbnailURL *string   // courses.thumbnail_url (nullable)
	ViewCount    uint64    // courses.view_count
	CreatedAt    time.Time // courses.created_at
	UpdatedAt    time.Time // courses.updated_at
}

// EffectiveAmount returns the price after applying the discount
// fraction. A zero discount leaves the price untouched.
func (c Course) EffectiveAmount() float64 {
	if c.Discount > 0 {
		return c.Price - c.Discount*c.Price
	}
	return c.Price
}

// Free reports whether enrolling requires no payment.
func (c Course) Free() bool { return c.Price <= 0 }

// Lesson mirrors the `lessons` table. Lessons are ordered within a
// course by the Ord column.
type Lesson struct {
	ID          uint64    // lessons.id
	CourseID    uint64    // lessons.course_id
	Title       string    // lessons.title
	Description string    // lessons.description
	Duration    uint32    // lessons.duration (seconds)
	Ord         uint32    // lessons.ord (position within the course)
	CreatedAt   time.Time // lessons.created_at
	UpdatedAt   time.Time // lessons.updated_at
}

// Video mirrors the `videos` table. Each lesson has at most one video;
// the stored fields identify the asset at the external CDN library.
// Playback-token signing happens outside this service.
type Video struct {
	ID        uint64    // videos.id
	LessonID  uint64    // videos.lesson_id (unique)
	LibraryID string    // videos.library_id
	VideoID   string    // videos.video_id
	SecretKey string    // videos.secret_key
	CreatedAt time.Time // videos.created_at
	UpdatedAt time.Time // videos.updated_at
}

// Enrollment links a user to a course. The UNIQUE(user_id, course_id)
// constraint guarantees at most one enrollment per pair regardless of
// how many payment callbacks the gateway delivers.
type Enrollment struct {
	ID         uint64    // enrollments.id
	UserID     uint64    // enrollments.user_id
	CourseID   uint64    // enrollments.course_id
	EnrolledAt time.Time // enrollments.enrolled_at
}
