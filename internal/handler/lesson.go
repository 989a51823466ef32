package handler

import (
	"database/sql"
	"errors"
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"

	"github.com/addislearn/learning-platform/internal/model"
	"github.com/addislearn/learning-platform/internal/repository"
)

// LessonHandler manages lessons and their video assets. Watching a
// lesson's video requires an enrollment in the owning course; managing
// lessons requires owning the course.
type LessonHandler struct {
	Lessons     *repository.LessonRepo
	Courses     *repository.CourseRepo
	Enrollments *repository.EnrollmentRepo
}

func NewLessonHandler(lessons *repository.LessonRepo, courses *repository.CourseRepo, enrollments *repository.EnrollmentRepo) *LessonHandler {
	return &LessonHandler{Lessons: lessons, Courses: courses, Enrollments: enrollments}
}

type lessonReq struct {
	Title       string `json:"title"`
	Description string `json:"description"`
	Duration    uint32 `json:"duration"`
	Ord         uint32 `json:"ord"`
}

type videoReq struct {
	LibraryID string `json:"library_id"`
	VideoID   string `json:"video_id"`
	SecretKey string `json:"secret_key"`
}

type lessonPart struct {
	ID          uint64 `json:"id"`
	CourseID    uint64 `json:"course_id"`
	Title       string `json:"title"`
	Description string `json:"description"`
	Duration    uint32 `json:"duration"`
	Ord         uint32 `json:"ord"`
}

func toLessonPart(l model.Lesson) lessonPart {
	return lessonPart{ID: l.ID, CourseID: l.CourseID, Title: l.Title, Description: l.Description, Duration: l.Duration, Ord: l.Ord}
}

// Create adds a lesson to a course owned by the caller.
func (h *LessonHandler) Create(c echo.Context) error {
	courseID, err := pathID(c, "id")
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid course id"})
	}
	var req lessonReq
	if err := c.Bind(&req); err != nil || strings.TrimSpace(req.Title) == "" {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "title is required"})
	}
	ctx, cancel := reqCtx(c)
	defer cancel()

	course, err := h.Courses.GetByID(ctx, courseID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return c.JSON(http.StatusNotFound, echo.Map{"error": "course not found"})
		}
		return fail(c, err)
	}
	if !h.canManage(c, course) {
		return c.JSON(http.StatusForbidden, echo.Map{"error": "not your course"})
	}

	lesson := model.Lesson{
		CourseID:    courseID,
		Title:       strings.TrimSpace(req.Title),
		Description: req.Description,
		Duration:    req.Duration,
		Ord:         req.Ord,
	}
	id, err := h.Lessons.Create(ctx, &lesson)
	if err != nil {
		return fail(c, err)
	}
	lesson.ID = id
	return c.JSON(http.StatusCreated, echo.Map{"lesson": toLessonPart(lesson)})
}

// ListByCourse returns a course's lessons in order. The lesson outline
// is public; only video playback is gated.
func (h *LessonHandler) ListByCourse(c echo.Context) error {
	courseID, err := pathID(c, "id")
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid course id"})
	}
	ctx, cancel := reqCtx(c)
	defer cancel()

	if _, err := h.Courses.GetByID(ctx, courseID); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return c.JSON(http.StatusNotFound, echo.Map{"error": "course not found"})
		}
		return fail(c, err)
	}
	lessons, err := h.Lessons.ListByCourse(ctx, courseID)
	if err != nil {
		return fail(c, err)
	}
	out := make([]lessonPart, 0, len(lessons))
	for _, l := range lessons {
		out = append(out, toLessonPart(l))
	}
	return c.JSON(http.StatusOK, echo.Map{"lessons": out})
}

// Delete removes a lesson from a course owned by the caller.
func (h *LessonHandler) Delete(c echo.Context) error {
	lessonID, err := pathID(c, "id")
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid lesson id"})
	}
	ctx, cancel := reqCtx(c)
	defer cancel()

	lesson, err := h.Lessons.GetByID(ctx, lessonID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return c.JSON(http.StatusNotFound, echo.Map{"error": "lesson not found"})
		}
		return fail(c, err)
	}
	course, err := h.Courses.GetByID(ctx, lesson.CourseID)
	if err != nil {
		return fail(c, err)
	}
	if !h.canManage(c, course) {
		return c.JSON(http.StatusForbidden, echo.Map{"error": "not your course"})
	}
	if err := h.Lessons.Delete(ctx, lessonID); err != nil {
		return fail(c, err)
	}
	return c.NoContent(http.StatusNoContent)
}

// AttachVideo sets or replaces the lesson's video asset.
func (h *LessonHandler) AttachVideo(c echo.Context) error {
	lessonID, err := pathID(c, "id")
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid lesson id"})
	}
	var req videoReq
	if err := c.Bind(&req); err != nil || req.LibraryID == "" || req.VideoID == "" {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "library_id and video_id required"})
	}
	ctx, cancel := reqCtx(c)
	defer cancel()

	lesson, err := h.Lessons.GetByID(ctx, lessonID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return c.JSON(http.StatusNotFound, echo.Map{"error": "lesson not found"})
		}
		return fail(c, err)
	}
	course, err := h.Courses.GetByID(ctx, lesson.CourseID)
	if err != nil {
		return fail(c, err)
	}
	if !h.canManage(c, course) {
		return c.JSON(http.StatusForbidden, echo.Map{"error": "not your course"})
	}

	v := model.Video{
		LessonID:  lessonID,
		LibraryID: req.LibraryID,
		VideoID:   req.VideoID,
		SecretKey: req.SecretKey,
	}
	if err := h.Lessons.UpsertVideo(ctx, &v); err != nil {
		return fail(c, err)
	}
	return c.JSON(http.StatusOK, echo.Map{"message": "video attached"})
}

// GetVideo returns the playback identifiers for a lesson's video. Only
// enrolled students, the course instructor, or an admin may fetch it.
// The secret key never leaves the server.
func (h *LessonHandler) GetVideo(c echo.Context) error {
	lessonID, err := pathID(c, "id")
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid lesson id"})
	}
	uid, ok := getUserID(c)
	if !ok {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}
	ctx, cancel := reqCtx(c)
	defer cancel()

	lesson, err := h.Lessons.GetByID(ctx, lessonID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return c.JSON(http.StatusNotFound, echo.Map{"error": "lesson not found"})
		}
		return fail(c, err)
	}
	course, err := h.Courses.GetByID(ctx, lesson.CourseID)
	if err != nil {
		return fail(c, err)
	}
	if !h.canManage(c, course) {
		enrolled, err := h.Enrollments.Exists(ctx, uid, lesson.CourseID)
		if err != nil {
			return fail(c, err)
		}
		if !enrolled {
			return c.JSON(http.StatusForbidden, echo.Map{"error": "enroll in the course to watch this lesson"})
		}
	}

	v, err := h.Lessons.GetVideoByLesson(ctx, lessonID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return c.JSON(http.StatusNotFound, echo.Map{"error": "no video for this lesson"})
		}
		return fail(c, err)
	}
	return c.JSON(http.StatusOK, echo.Map{
		"library_id": v.LibraryID,
		"video_id":   v.VideoID,
	})
}

func (h *LessonHandler) canManage(c echo.Context, course model.Course) bool {
	uid, ok := getUserID(c)
	if !ok {
		return false
	}
	if role, _ := c.Get("role").(string); role == model.RoleAdmin {
		return true
	}
	return course.InstructorID == uid
}
