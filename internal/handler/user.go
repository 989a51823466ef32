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

// UserHandler covers profile updates and the admin user-management
// surface. CRUD goes straight to the repository; there is no business
// flow to coordinate here.
type UserHandler struct {
	Users *repository.UserRepo
}

func NewUserHandler(users *repository.UserRepo) *UserHandler {
	return &UserHandler{Users: users}
}

type updateProfileReq struct {
	FirstName      string  `json:"first_name"`
	LastName       string  `json:"last_name"`
	Email          *string `json:"email"`
	Profession     *string `json:"profession"`
	ProfilePicture *string `json:"profile_picture"`
}

type updateRoleReq struct {
	Role string `json:"role"`
}

// UpdateProfile lets the authenticated user change their own profile
// fields. Phone and password are managed by the auth flows.
func (h *UserHandler) UpdateProfile(c echo.Context) error {
	uid, ok := getUserID(c)
	if !ok {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}
	var req updateProfileReq
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid body"})
	}
	ctx, cancel := reqCtx(c)
	defer cancel()

	err := h.Users.UpdateProfile(ctx, uid,
		strings.TrimSpace(req.FirstName), strings.TrimSpace(req.LastName),
		req.Email, req.Profession, req.ProfilePicture)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return c.JSON(http.StatusNotFound, echo.Map{"error": "user not found"})
		}
		return fail(c, err)
	}
	u, err := h.Users.GetByID(ctx, uid)
	if err != nil {
		return fail(c, err)
	}
	return c.JSON(http.StatusOK, echo.Map{"user": toUserPart(u)})
}

// List returns users matching an optional ?search= over name and phone.
// Admin only.
func (h *UserHandler) List(c echo.Context) error {
	page, pageSize := pageParams(c)
	search := strings.TrimSpace(c.QueryParam("search"))

	ctx, cancel := reqCtx(c)
	defer cancel()

	users, err := h.Users.List(ctx, search, page, pageSize)
	if err != nil {
		return fail(c, err)
	}
	total, err := h.Users.Count(ctx, search)
	if err != nil {
		return fail(c, err)
	}
	out := make([]userPart, 0, len(users))
	for _, u := range users {
		out = append(out, toUserPart(u))
	}
	return c.JSON(http.StatusOK, echo.Map{"users": out, "total": total, "page": page})
}

// ListInstructors returns instructor accounts. Public catalogue surface.
func (h *UserHandler) ListInstructors(c echo.Context) error {
	page, pageSize := pageParams(c)
	search := strings.TrimSpace(c.QueryParam("search"))

	ctx, cancel := reqCtx(c)
	defer cancel()

	users, err := h.Users.ListInstructors(ctx, search, page, pageSize)
	if err != nil {
		return fail(c, err)
	}
	out := make([]userPart, 0, len(users))
	for _, u := range users {
		out = append(out, toUserPart(u))
	}
	return c.JSON(http.StatusOK, echo.Map{"instructors": out, "page": page})
}

// Get returns one user by ID. Admin only.
func (h *UserHandler) Get(c echo.Context) error {
	id, err := pathID(c, "id")
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid user id"})
	}
	ctx, cancel := reqCtx(c)
	defer cancel()

	u, err := h.Users.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return c.JSON(http.StatusNotFound, echo.Map{"error": "user not found"})
		}
		return fail(c, err)
	}
	return c.JSON(http.StatusOK, echo.Map{"user": toUserPart(u)})
}

// UpdateRole changes a user's role. Admin only; admins cannot demote
// themselves through this endpoint.
func (h *UserHandler) UpdateRole(c echo.Context) error {
	id, err := pathID(c, "id")
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid user id"})
	}
	if uid, ok := getUserID(c); ok && uid == id {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "cannot change your own role"})
	}
	var req updateRoleReq
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid body"})
	}
	role := strings.ToLower(strings.TrimSpace(req.Role))
	if !model.ValidRole(role) {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid role"})
	}
	ctx, cancel := reqCtx(c)
	defer cancel()

	if err := h.Users.UpdateRole(ctx, id, role); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return c.JSON(http.StatusNotFound, echo.Map{"error": "user not found"})
		}
		return fail(c, err)
	}
	return c.JSON(http.StatusOK, echo.Map{"message": "role updated"})
}

// Deactivate suspends an account without deleting its data. Admin only.
func (h *UserHandler) Deactivate(c echo.Context) error {
	id, err := pathID(c, "id")
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid user id"})
	}
	if uid, ok := getUserID(c); ok && uid == id {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "cannot deactivate yourself"})
	}
	ctx, cancel := reqCtx(c)
	defer cancel()

	if err := h.Users.Deactivate(ctx, id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return c.JSON(http.StatusNotFound, echo.Map{"error": "user not found"})
		}
		return fail(c, err)
	}
	return c.NoContent(http.StatusNoContent)
}

// Delete removes an account. Admin only.
func (h *UserHandler) Delete(c echo.Context) error {
	id, err := pathID(c, "id")
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid user id"})
	}
	if uid, ok := getUserID(c); ok && uid == id {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "cannot delete yourself"})
	}
	ctx, cancel := reqCtx(c)
	defer cancel()

	if err := h.Users.Delete(ctx, id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return c.JSON(http.StatusNotFound, echo.Map{"error": "user not found"})
		}
		return fail(c, err)
	}
	return c.NoContent(http.StatusNoContent)
}
