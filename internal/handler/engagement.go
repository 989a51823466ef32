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

// EngagementHandler covers comments and reviews on courses.
type EngagementHandler struct {
	Engagement  *repository.EngagementRepo
	Courses     *repository.CourseRepo
	Enrollments *repository.EnrollmentRepo
}

func NewEngagementHandler(engagement *repository.EngagementRepo, courses *repository.CourseRepo, enrollments *repository.EnrollmentRepo) *EngagementHandler {
	return &EngagementHandler{Engagement: engagement, Courses: courses, Enrollments: enrollments}
}

type commentReq struct {
	Content string `json:"content"`
}

type reviewReq struct {
	Rating uint8 `json:"rating"`
}

type commentPart struct {
	ID       uint64 `json:"id"`
	UserID   uint64 `json:"user_id"`
	CourseID uint64 `json:"course_id"`
	Content  string `json:"content"`
	Created  string `json:"created_at"`
}

func toCommentPart(cm model.Comment) commentPart {
	return commentPart{
		ID: cm.ID, UserID: cm.UserID, CourseID: cm.CourseID,
		Content: cm.Content, Created: cm.CreatedAt.UTC().Format("2006-01-02T15:04:05Z07:00"),
	}
}

// CreateComment posts a comment on a course. Any authenticated user may
// comment; enrollment is not required for discussion.
func (h *EngagementHandler) CreateComment(c echo.Context) error {
	uid, ok := getUserID(c)
	if !ok {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}
	courseID, err := pathID(c, "id")
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid course id"})
	}
	var req commentReq
	if err := c.Bind(&req); err != nil || strings.TrimSpace(req.Content) == "" {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "content is required"})
	}
	ctx, cancel := reqCtx(c)
	defer cancel()

	if _, err := h.Courses.GetByID(ctx, courseID); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return c.JSON(http.StatusNotFound, echo.Map{"error": "course not found"})
		}
		return fail(c, err)
	}
	cm := model.Comment{UserID: uid, CourseID: courseID, Content: strings.TrimSpace(req.Content)}
	id, err := h.Engagement.CreateComment(ctx, &cm)
	if err != nil {
		return fail(c, err)
	}
	cm.ID = id
	return c.JSON(http.StatusCreated, echo.Map{"comment": toCommentPart(cm)})
}

// ListComments returns a course's comments, newest first.
func (h *EngagementHandler) ListComments(c echo.Context) error {
	courseID, err := pathID(c, "id")
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid course id"})
	}
	page, pageSize := pageParams(c)

	ctx, cancel := reqCtx(c)
	defer cancel()

	comments, err := h.Engagement.ListComments(ctx, courseID, page, pageSize)
	if err != nil {
		return fail(c, err)
	}
	out := make([]commentPart, 0, len(comments))
	for _, cm := range comments {
		out = append(out, toCommentPart(cm))
	}
	return c.JSON(http.StatusOK, echo.Map{"comments": out, "page": page})
}

// UpdateComment edits the caller's own comment.
func (h *EngagementHandler) UpdateComment(c echo.Context) error {
	uid, ok := getUserID(c)
	if !ok {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}
	commentID, err := pathID(c, "id")
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid comment id"})
	}
	var req commentReq
	if err := c.Bind(&req); err != nil || strings.TrimSpace(req.Content) == "" {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "content is required"})
	}
	ctx, cancel := reqCtx(c)
	defer cancel()

	if err := h.Engagement.UpdateComment(ctx, commentID, uid, strings.TrimSpace(req.Content)); err != nil {
		switch {
		case errors.Is(err, sql.ErrNoRows):
			return c.JSON(http.StatusNotFound, echo.Map{"error": "comment not found"})
		case errors.Is(err, repository.ErrForbidden):
			return c.JSON(http.StatusForbidden, echo.Map{"error": "not your comment"})
		}
		return fail(c, err)
	}
	return c.JSON(http.StatusOK, echo.Map{"message": "comment updated"})
}

// DeleteComment removes the caller's own comment.
func (h *EngagementHandler) DeleteComment(c echo.Context) error {
	uid, ok := getUserID(c)
	if !ok {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}
	commentID, err := pathID(c, "id")
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid comment id"})
	}
	ctx, cancel := reqCtx(c)
	defer cancel()

	if err := h.Engagement.DeleteComment(ctx, commentID, uid); err != nil {
		switch {
		case errors.Is(err, sql.ErrNoRows):
			return c.JSON(http.StatusNotFound, echo.Map{"error": "comment not found"})
		case errors.Is(err, repository.ErrForbidden):
			return c.JSON(http.StatusForbidden, echo.Map{"error": "not your comment"})
		}
		return fail(c, err)
	}
	return c.NoContent(http.StatusNoContent)
}

// SubmitReview records a 1-5 rating from an enrolled student. A repeat
// submission overwrites the previous rating.
func (h *EngagementHandler) SubmitReview(c echo.Context) error {
	uid, ok := getUserID(c)
	if !ok {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}
	courseID, err := pathID(c, "id")
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid course id"})
	}
	var req reviewReq
	if err := c.Bind(&req); err != nil || req.Rating < 1 || req.Rating > 5 {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "rating must be between 1 and 5"})
	}
	ctx, cancel := reqCtx(c)
	defer cancel()

	if _, err := h.Courses.GetByID(ctx, courseID); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return c.JSON(http.StatusNotFound, echo.Map{"error": "course not found"})
		}
		return fail(c, err)
	}
	enrolled, err := h.Enrollments.Exists(ctx, uid, courseID)
	if err != nil {
		return fail(c, err)
	}
	if !enrolled {
		return c.JSON(http.StatusForbidden, echo.Map{"error": "enroll in the course to review it"})
	}

	rev := model.Review{UserID: uid, CourseID: courseID, Rating: req.Rating}
	if err := h.Engagement.UpsertReview(ctx, &rev); err != nil {
		return fail(c, err)
	}
	return c.JSON(http.StatusOK, echo.Map{"message": "review recorded"})
}

// CourseRating returns the average rating and review count for a course.
func (h *EngagementHandler) CourseRating(c echo.Context) error {
	courseID, err := pathID(c, "id")
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid course id"})
	}
	ctx, cancel := reqCtx(c)
	defer cancel()

	rating, count, err := h.Engagement.AverageRating(ctx, courseID)
	if err != nil {
		return fail(c, err)
	}
	return c.JSON(http.StatusOK, echo.Map{"rating": rating, "reviews": count})
}
