package handler

import (
	"database/sql"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/addislearn/learning-platform/internal/model"
	"github.com/addislearn/learning-platform/internal/service"
)

// AuthHandler bundles dependencies for auth endpoints.
type AuthHandler struct {
	Auth *service.AuthService
}

func NewAuthHandler(auth *service.AuthService) *AuthHandler {
	return &AuthHandler{Auth: auth}
}

// ----- DTOs -----

type signUpReq struct {
	Phone      string `json:"phone"`
	Password   string `json:"password"`
	FirstName  string `json:"first_name"`
	LastName   string `json:"last_name"`
	Email      string `json:"email"`
	Role       string `json:"role"` // student | instructor
	Profession string `json:"profession"`
}
type loginReq struct {
	Phone    string `json:"phone"`
	Password string `json:"password"`
}
type phoneReq struct {
	Phone string `json:"phone"`
}
type otpVerifyReq struct {
	Phone string `json:"phone"`
	Code  string `json:"code"`
}
type refreshReq struct {
	RefreshToken string `json:"refresh_token"`
}
type resetReq struct {
	ResetToken  string `json:"reset_token"`
	NewPassword string `json:"new_password"`
}

type tokenPart struct {
	Token   string    `json:"token"`
	Expires time.Time `json:"expires"`
}
type userPart struct {
	ID             uint64  `json:"id"`
	Phone          string  `json:"phone"`
	FirstName      string  `json:"first_name"`
	LastName       string  `json:"last_name"`
	Email          *string `json:"email,omitempty"`
	Role           string  `json:"role"`
	Profession     *string `json:"profession,omitempty"`
	ProfilePicture *string `json:"profile_picture,omitempty"`
	IsActive       bool    `json:"is_active"`
}

func toUserPart(u model.User) userPart {
	return userPart{
		ID:             u.ID,
		Phone:          u.Phone,
		FirstName:      u.FirstName,
		LastName:       u.LastName,
		Email:          u.Email,
		Role:           u.Role,
		Profession:     u.Profession,
		ProfilePicture: u.ProfilePicture,
		IsActive:       u.IsActive,
	}
}

// SignUp: create an inactive account; the client must confirm an OTP
// before logging in.
func (h *AuthHandler) SignUp(c echo.Context) error {
	var req signUpReq
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid body"})
	}
	ctx, cancel := reqCtx(c)
	defer cancel()

	u, err := h.Auth.SignUp(ctx, service.SignUpInput{
		Phone:      strings.TrimSpace(req.Phone),
		Password:   req.Password,
		FirstName:  strings.TrimSpace(req.FirstName),
		LastName:   strings.TrimSpace(req.LastName),
		Email:      strings.ToLower(strings.TrimSpace(req.Email)),
		Role:       strings.ToLower(strings.TrimSpace(req.Role)),
		Profession: strings.TrimSpace(req.Profession),
	})
	if err != nil {
		return fail(c, err)
	}
	return c.JSON(http.StatusCreated, echo.Map{
		"user":    toUserPart(u),
		"message": "account created, verify the OTP sent to your phone",
	})
}

// SendOTP delivers an activation code to the given phone.
func (h *AuthHandler) SendOTP(c echo.Context) error {
	var req phoneReq
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid body"})
	}
	ctx, cancel := reqCtx(c)
	defer cancel()

	if err := h.Auth.RequestOTP(ctx, strings.TrimSpace(req.Phone)); err != nil {
		return fail(c, err)
	}
	return c.JSON(http.StatusOK, echo.Map{"message": "OTP sent"})
}

// VerifyOTP confirms the activation code and activates the account.
func (h *AuthHandler) VerifyOTP(c echo.Context) error {
	var req otpVerifyReq
	if err := c.Bind(&req); err != nil || req.Code == "" {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "phone and code required"})
	}
	ctx, cancel := reqCtx(c)
	defer cancel()

	u, err := h.Auth.ConfirmOTP(ctx, strings.TrimSpace(req.Phone), strings.TrimSpace(req.Code))
	if err != nil {
		return fail(c, err)
	}
	return c.JSON(http.StatusOK, echo.Map{"user": toUserPart(u), "message": "account verified"})
}

// Login checks credentials and returns a token pair. Accounts that have
// not completed OTP verification get a 200 with is_active=false and no
// tokens so clients can route the user to verification.
func (h *AuthHandler) Login(c echo.Context) error {
	var req loginReq
	if err := c.Bind(&req); err != nil || req.Phone == "" || req.Password == "" {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "phone and password required"})
	}
	ctx, cancel := reqCtx(c)
	defer cancel()

	res, err := h.Auth.Login(ctx, strings.TrimSpace(req.Phone), req.Password)
	if err != nil {
		return fail(c, err)
	}
	if !res.IsActive {
		return c.JSON(http.StatusOK, echo.Map{
			"user":      toUserPart(res.User),
			"is_active": false,
			"message":   "account not verified, confirm the OTP sent to your phone",
		})
	}
	return c.JSON(http.StatusOK, echo.Map{
		"user":      toUserPart(res.User),
		"is_active": true,
		"access":    tokenPart{Token: res.Tokens.Access.Token, Expires: res.Tokens.Access.Exp},
		"refresh":   tokenPart{Token: res.Tokens.Refresh.Token, Expires: res.Tokens.Refresh.Exp},
	})
}

// Refresh redeems a refresh token for a new access token.
func (h *AuthHandler) Refresh(c echo.Context) error {
	var req refreshReq
	if err := c.Bind(&req); err != nil || strings.TrimSpace(req.RefreshToken) == "" {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "refresh_token required"})
	}
	ctx, cancel := reqCtx(c)
	defer cancel()

	access, err := h.Auth.Refresh(ctx, strings.TrimSpace(req.RefreshToken))
	if err != nil {
		return fail(c, err)
	}
	return c.JSON(http.StatusOK, echo.Map{
		"access": tokenPart{Token: access.Token, Expires: access.Exp},
	})
}

// Logout revokes the presented refresh token's session.
func (h *AuthHandler) Logout(c echo.Context) error {
	var req refreshReq
	if err := c.Bind(&req); err != nil || strings.TrimSpace(req.RefreshToken) == "" {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "refresh_token required"})
	}
	ctx, cancel := reqCtx(c)
	defer cancel()

	if err := h.Auth.Logout(ctx, strings.TrimSpace(req.RefreshToken)); err != nil {
		return fail(c, err)
	}
	return c.NoContent(http.StatusNoContent)
}

// ForgetPassword starts the reset flow by sending an OTP.
func (h *AuthHandler) ForgetPassword(c echo.Context) error {
	var req phoneReq
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid body"})
	}
	ctx, cancel := reqCtx(c)
	defer cancel()

	if err := h.Auth.ForgetPassword(ctx, strings.TrimSpace(req.Phone)); err != nil {
		return fail(c, err)
	}
	return c.JSON(http.StatusOK, echo.Map{"message": "OTP sent"})
}

// VerifyResetOTP exchanges a valid reset OTP for a short-lived reset
// token.
func (h *AuthHandler) VerifyResetOTP(c echo.Context) error {
	var req otpVerifyReq
	if err := c.Bind(&req); err != nil || req.Code == "" {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "phone and code required"})
	}
	ctx, cancel := reqCtx(c)
	defer cancel()

	tok, err := h.Auth.VerifyResetOTP(ctx, strings.TrimSpace(req.Phone), strings.TrimSpace(req.Code))
	if err != nil {
		return fail(c, err)
	}
	return c.JSON(http.StatusOK, echo.Map{
		"reset_token": tokenPart{Token: tok.Token, Expires: tok.Exp},
	})
}

// ResetPassword sets a new password using the reset token.
func (h *AuthHandler) ResetPassword(c echo.Context) error {
	var req resetReq
	if err := c.Bind(&req); err != nil || strings.TrimSpace(req.ResetToken) == "" {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "reset_token and new_password required"})
	}
	ctx, cancel := reqCtx(c)
	defer cancel()

	if err := h.Auth.ResetPassword(ctx, strings.TrimSpace(req.ResetToken), req.NewPassword); err != nil {
		return fail(c, err)
	}
	return c.JSON(http.StatusOK, echo.Map{"message": "password updated"})
}

// Me returns the authenticated user's profile.
func (h *AuthHandler) Me(c echo.Context) error {
	uid, ok := getUserID(c)
	if !ok {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}
	ctx, cancel := reqCtx(c)
	defer cancel()

	u, err := h.Auth.Users.GetByID(ctx, uid)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return c.JSON(http.StatusNotFound, echo.Map{"error": "user not found"})
		}
		return fail(c, err)
	}
	return c.JSON(http.StatusOK, echo.Map{"user": toUserPart(u)})
}
