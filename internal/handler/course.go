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

// CourseHandler covers the catalogue plus instructor/admin course
// management.
type CourseHandler struct {
	Courses     *repository.CourseRepo
	Enrollments *repository.EnrollmentRepo
	Engagement  *repository.EngagementRepo
}

func NewCourseHandler(courses *repository.CourseRepo, enrollments *repository.EnrollmentRepo, engagement *repository.EngagementRepo) *CourseHandler {
	return &CourseHandler{Courses: courses, Enrollments: enrollments, Engagement: engagement}
}

type courseReq struct {
	Title        string  `json:"title"`
	Description  string  `json:"description"`
	Price        float64 `json:"price"`
	Discount     float64 `json:"discount"`
	ThumbnailURL *string `json:"thumbnail_url"`
}

type coursePart struct {
	ID           uint64  `json:"id"`
	Title        string  `json:"title"`
	Description  string  `json:"description"`
	Price        float64 `json:"price"`
	Discount     float64 `json:"discount"`
	Amount       float64 `json:"amount"` // price after discount
	InstructorID uint64  `json:"instructor_id"`
	ThumbnailURL *string `json:"thumbnail_url,omitempty"`
	ViewCount    uint64  `json:"view_count"`
}

func toCoursePart(course model.Course) coursePart {
	return coursePart{
		ID:           course.ID,
		Title:        course.Title,
		Description:  course.Description,
		Price:        course.Price,
		Discount:     course.Discount,
		Amount:       course.EffectiveAmount(),
		InstructorID: course.InstructorID,
		ThumbnailURL: course.ThumbnailURL,
		ViewCount:    course.ViewCount,
	}
}

func validCourseReq(req courseReq) string {
	if strings.TrimSpace(req.Title) == "" {
		return "title is required"
	}
	if req.Price < 0 {
		return "price cannot be negative"
	}
	if req.Discount < 0 || req.Discount > 1 {
		return "discount must be a fraction between 0 and 1"
	}
	return ""
}

// Create registers a new course owned by the calling instructor.
func (h *CourseHandler) Create(c echo.Context) error {
	uid, ok := getUserID(c)
	if !ok {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}
	var req courseReq
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid body"})
	}
	if msg := validCourseReq(req); msg != "" {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": msg})
	}
	ctx, cancel := reqCtx(c)
	defer cancel()

	course := model.Course{
		Title:        strings.TrimSpace(req.Title),
		Description:  req.Description,
		Price:        req.Price,
		Discount:     req.Discount,
		InstructorID: uid,
		ThumbnailURL: req.ThumbnailURL,
	}
	id, err := h.Courses.Create(ctx, &course)
	if err != nil {
		return fail(c, err)
	}
	course.ID = id
	return c.JSON(http.StatusCreated, echo.Map{"course": toCoursePart(course)})
}

// List is the public catalogue with an optional ?search= over titles.
func (h *CourseHandler) List(c echo.Context) error {
	page, pageSize := pageParams(c)
	search := strings.TrimSpace(c.QueryParam("search"))

	ctx, cancel := reqCtx(c)
	defer cancel()

	courses, err := h.Courses.List(ctx, search, page, pageSize)
	if err != nil {
		return fail(c, err)
	}
	out := make([]coursePart, 0, len(courses))
	for _, course := range courses {
		out = append(out, toCoursePart(course))
	}
	return c.JSON(http.StatusOK, echo.Map{"courses": out, "page": page})
}

// ListMine returns the calling instructor's courses.
func (h *CourseHandler) ListMine(c echo.Context) error {
	uid, ok := getUserID(c)
	if !ok {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}
	page, pageSize := pageParams(c)

	ctx, cancel := reqCtx(c)
	defer cancel()

	courses, err := h.Courses.ListByInstructor(ctx, uid, page, pageSize)
	if err != nil {
		return fail(c, err)
	}
	out := make([]coursePart, 0, len(courses))
	for _, course := range courses {
		out = append(out, toCoursePart(course))
	}
	return c.JSON(http.StatusOK, echo.Map{"courses": out, "page": page})
}

// Get returns one course and bumps its view counter.
func (h *CourseHandler) Get(c echo.Context) error {
	id, err := pathID(c, "id")
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid course id"})
	}
	ctx, cancel := reqCtx(c)
	defer cancel()

	course, err := h.Courses.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return c.JSON(http.StatusNotFound, echo.Map{"error": "course not found"})
		}
		return fail(c, err)
	}
	// Best effort; a lost increment is not worth failing the request.
	if err := h.Courses.IncrementViews(ctx, id); err == nil {
		course.ViewCount++
	}

	rating, reviews, err := h.Engagement.AverageRating(ctx, id)
	if err != nil {
		return fail(c, err)
	}
	enrolled, err := h.Enrollments.CountByCourse(ctx, id)
	if err != nil {
		return fail(c, err)
	}
	return c.JSON(http.StatusOK, echo.Map{
		"course":   toCoursePart(course),
		"rating":   rating,
		"reviews":  reviews,
		"enrolled": enrolled,
	})
}

// Update edits a course. Instructors may only edit their own; admins may
// edit any.
func (h *CourseHandler) Update(c echo.Context) error {
	id, err := pathID(c, "id")
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid course id"})
	}
	var req courseReq
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid body"})
	}
	if msg := validCourseReq(req); msg != "" {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": msg})
	}
	ctx, cancel := reqCtx(c)
	defer cancel()

	course, err := h.Courses.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return c.JSON(http.StatusNotFound, echo.Map{"error": "course not found"})
		}
		return fail(c, err)
	}
	if !h.canManage(c, course) {
		return c.JSON(http.StatusForbidden, echo.Map{"error": "not your course"})
	}

	course.Title = strings.TrimSpace(req.Title)
	course.Description = req.Description
	course.Price = req.Price
	course.Discount = req.Discount
	course.ThumbnailURL = req.ThumbnailURL
	if err := h.Courses.Update(ctx, &course); err != nil {
		return fail(c, err)
	}
	return c.JSON(http.StatusOK, echo.Map{"course": toCoursePart(course)})
}

// Delete removes a course and its dependent rows.
func (h *CourseHandler) Delete(c echo.Context) error {
	id, err := pathID(c, "id")
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid course id"})
	}
	ctx, cancel := reqCtx(c)
	defer cancel()

	course, err := h.Courses.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return c.JSON(http.StatusNotFound, echo.Map{"error": "course not found"})
		}
		return fail(c, err)
	}
	if !h.canManage(c, course) {
		return c.JSON(http.StatusForbidden, echo.Map{"error": "not your course"})
	}
	if err := h.Courses.Delete(ctx, id); err != nil {
		return fail(c, err)
	}
	return c.NoContent(http.StatusNoContent)
}

// Stats reports enrollments, revenue and views for one course.
func (h *CourseHandler) Stats(c echo.Context) error {
	id, err := pathID(c, "id")
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid course id"})
	}
	ctx, cancel := reqCtx(c)
	defer cancel()

	course, err := h.Courses.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return c.JSON(http.StatusNotFound, echo.Map{"error": "course not found"})
		}
		return fail(c, err)
	}
	if !h.canManage(c, course) {
		return c.JSON(http.StatusForbidden, echo.Map{"error": "not your course"})
	}
	stats, err := h.Courses.Stats(ctx, id)
	if err != nil {
		return fail(c, err)
	}
	rating, reviews, err := h.Engagement.AverageRating(ctx, id)
	if err != nil {
		return fail(c, err)
	}
	return c.JSON(http.StatusOK, echo.Map{
		"course_id":   stats.CourseID,
		"enrollments": stats.Enrollments,
		"revenue":     stats.Revenue,
		"view_count":  stats.ViewCount,
		"rating":      rating,
		"reviews":     reviews,
	})
}

// canManage reports whether the caller owns the course or is an admin.
func (h *CourseHandler) canManage(c echo.Context, course model.Course) bool {
	uid, ok := getUserID(c)
	if !ok {
		return false
	}
	if role, _ := c.Get("role").(string); role == model.RoleAdmin {
		return true
	}
	return course.InstructorID == uid
}
