// Package service implements the business flows that sit between the
// HTTP handlers and the repositories: account lifecycle, token
// lifecycle and the payment/enrollment state machine. Services return
// apperr-tagged errors so handlers can map every outcome to a status
// code without string matching.
package service

import (
	"context"
	"database/sql"
	"errors"
	"regexp"
	"strings"
	"time"

	"github.com/addislearn/learning-platform/internal/apperr"
	"github.com/addislearn/learning-platform/internal/config"
	"github.com/addislearn/learning-platform/internal/model"
	"github.com/addislearn/learning-platform/internal/otp"
	"github.com/addislearn/learning-platform/internal/repository"
	"github.com/addislearn/learning-platform/internal/utils"
)

// resetTokenTTL bounds how long a password-reset token stays usable
// after OTP verification.
const resetTokenTTL = 10 * time.Minute

var emailRe = regexp.MustCompile(`^[a-zA-Z0-9_.+-]+@[a-zA-Z0-9-]+\.[a-zA-Z0-9-.]+$`)

// AuthService coordinates signup, OTP activation, login, token
// redemption and password reset.
type AuthService struct {
	Cfg    config.Config
	Users  *repository.UserRepo
	Tokens *repository.TokenRepo
	OTP    otp.Provider
}

func NewAuthService(cfg config.Config, users *repository.UserRepo, tokens *repository.TokenRepo, provider otp.Provider) *AuthService {
	return &AuthService{Cfg: cfg, Users: users, Tokens: tokens, OTP: provider}
}

// SignUpInput carries the fields accepted at registration.
type SignUpInput struct {
	Phone      string
	Password   string
	FirstName  string
	LastName   string
	Email      string
	Role       string
	Profession string
}

// SignUp creates an inactive account. The account becomes usable only
// after ConfirmOTP activates it.
func (s *AuthService) SignUp(ctx context.Context, in SignUpInput) (model.User, error) {
	if !utils.ValidPhone(in.Phone) {
		return model.User{}, apperr.Validation("invalid phone number")
	}
	if strings.TrimSpace(in.Password) == "" || in.FirstName == "" || in.LastName == "" {
		return model.User{}, apperr.Validation("first name, last name and password are required")
	}
	if in.Email != "" && !emailRe.MatchString(in.Email) {
		return model.User{}, apperr.Validation("invalid email")
	}
	// Signup never grants admin; unknown roles fall back to student.
	role := in.Role
	if role != model.RoleInstructor {
		role = model.RoleStudent
	}

	hash, err := utils.HashPassword(in.Password, s.Cfg.BcryptCost)
	if err != nil {
		return model.User{}, err
	}
	u := model.User{
		Phone:        utils.NormalizePhone(in.Phone),
		PasswordHash: hash,
		FirstName:    in.FirstName,
		LastName:     in.LastName,
		Role:         role,
	}
	if in.Email != "" {
		u.Email = &in.Email
	}
	if in.Profession != "" {
		u.Profession = &in.Profession
	}

	id, err := s.Users.Create(ctx, &u)
	if err != nil {
		if errors.Is(err, repository.ErrPhoneExists) {
			return model.User{}, apperr.Duplicated("user with this phone number already exists")
		}
		return model.User{}, err
	}
	u.ID = id
	return u, nil
}

// TokenPair is the result of a successful login or refresh issuance.
type TokenPair struct {
	Access  utils.SignedToken
	Refresh utils.SignedToken
}

// LoginResult reports the outcome of a credential check. When the
// account has not been OTP-verified yet, IsActive is false and Tokens
// is nil; this is deliberately a non-error signal so clients can route
// the user to verification instead of showing a login failure.
type LoginResult struct {
	User     model.User
	IsActive bool
	Tokens   *TokenPair
}

// Login checks credentials and, for active accounts, issues a fresh
// token pair. Issuing replaces any previously stored refresh token, so
// every login invalidates all other sessions.
func (s *AuthService) Login(ctx context.Context, phone, password string) (LoginResult, error) {
	u, err := s.Users.GetByPhone(ctx, utils.NormalizePhone(phone))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return LoginResult{}, apperr.NotFound("user with this phone number does not exist")
		}
		return LoginResult{}, err
	}
	if !u.IsActive {
		return LoginResult{User: u, IsActive: false}, nil
	}
	if !utils.VerifyPassword(u.PasswordHash, password) {
		return LoginResult{}, apperr.Auth("incorrect password")
	}
	pair, err := s.issue(ctx, u.ID, u.Role)
	if err != nil {
		return LoginResult{}, err
	}
	return LoginResult{User: u, IsActive: true, Tokens: &pair}, nil
}

// issue mints an access/refresh pair and atomically replaces the stored
// refresh-token hash for the user.
func (s *AuthService) issue(ctx context.Context, userID uint64, role string) (TokenPair, error) {
	access, err := utils.NewAccessToken(s.Cfg.AccessSecret, userID, role, s.Cfg.AccessTTLMin)
	if err != nil {
		return TokenPair{}, err
	}
	refresh, err := utils.NewRefreshToken(s.Cfg.RefreshSecret, userID, role, s.Cfg.RefreshTTLDays)
	if err != nil {
		return TokenPair{}, err
	}
	if err := s.Tokens.Replace(ctx, userID, utils.HashRefreshRaw(refresh.Token), refresh.Exp); err != nil {
		return TokenPair{}, err
	}
	return TokenPair{Access: access, Refresh: refresh}, nil
}

// Refresh redeems a refresh token for a new access token. The refresh
// token itself is not rotated on this path; it stays valid until logout
// or the next login.
func (s *AuthService) Refresh(ctx context.Context, refreshRaw string) (utils.SignedToken, error) {
	claims, err := utils.VerifyToken(s.Cfg.RefreshSecret, refreshRaw)
	if err != nil {
		return utils.SignedToken{}, apperr.Auth("invalid refresh token")
	}
	stored, exp, err := s.Tokens.GetByUser(ctx, claims.UserID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return utils.SignedToken{}, apperr.Auth("no active session")
		}
		return utils.SignedToken{}, err
	}
	if !utils.RefreshHashEqual(stored, refreshRaw) {
		return utils.SignedToken{}, apperr.Auth("refresh token mismatch")
	}
	if time.Now().UTC().After(exp) {
		return utils.SignedToken{}, apperr.Auth("refresh token expired")
	}

	u, err := s.Users.GetByID(ctx, claims.UserID)
	if err != nil {
		return utils.SignedToken{}, apperr.Auth("invalid refresh token")
	}
	access, err := utils.NewAccessToken(s.Cfg.AccessSecret, u.ID, u.Role, s.Cfg.AccessTTLMin)
	if err != nil {
		return utils.SignedToken{}, err
	}
	return access, nil
}

// Logout verifies the presented refresh token against the stored hash
// and deletes the session row. A second logout with the same token
// reports not-found.
func (s *AuthService) Logout(ctx context.Context, refreshRaw string) error {
	claims, err := utils.VerifyToken(s.Cfg.RefreshSecret, refreshRaw)
	if err != nil {
		return apperr.Auth("invalid refresh token")
	}
	stored, _, err := s.Tokens.GetByUser(ctx, claims.UserID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return apperr.NotFound("no active session")
		}
		return err
	}
	if !utils.RefreshHashEqual(stored, refreshRaw) {
		return apperr.Auth("refresh token mismatch")
	}
	if err := s.Tokens.DeleteByUser(ctx, claims.UserID); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return apperr.NotFound("no active session")
		}
		return err
	}
	return nil
}

// RequestOTP asks the provider to deliver a challenge code. User state
// is never mutated here; a provider failure is retryable.
func (s *AuthService) RequestOTP(ctx context.Context, phone string) error {
	if !utils.ValidPhone(phone) {
		return apperr.Validation("invalid phone number")
	}
	if err := s.OTP.Send(ctx, utils.InternationalPhone(phone)); err != nil {
		return apperr.Wrap(apperr.KindValidation, "failed to send OTP", err)
	}
	return nil
}

// ConfirmOTP verifies the challenge code and activates the account.
// Confirming an already-active account is a no-op success.
func (s *AuthService) ConfirmOTP(ctx context.Context, phone, code string) (model.User, error) {
	normalized := utils.NormalizePhone(phone)
	u, err := s.Users.GetByPhone(ctx, normalized)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return model.User{}, apperr.NotFound("user with this phone number does not exist")
		}
		return model.User{}, err
	}
	if err := s.OTP.Verify(ctx, utils.InternationalPhone(phone), code); err != nil {
		return model.User{}, apperr.Wrap(apperr.KindValidation, "OTP verification failed", err)
	}
	if !u.IsActive {
		if err := s.Users.Activate(ctx, normalized); err != nil {
			return model.User{}, err
		}
		u.IsActive = true
	}
	return u, nil
}

// ForgetPassword starts the reset flow by sending an OTP to a known
// user's phone.
func (s *AuthService) ForgetPassword(ctx context.Context, phone string) error {
	if _, err := s.Users.GetByPhone(ctx, utils.NormalizePhone(phone)); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return apperr.NotFound("user with this phone number does not exist")
		}
		return err
	}
	if err := s.OTP.Send(ctx, utils.InternationalPhone(phone)); err != nil {
		return apperr.Wrap(apperr.KindValidation, "failed to send OTP", err)
	}
	return nil
}

// VerifyResetOTP checks the reset challenge code and mints a stateless
// reset token embedding the phone number, valid for ten minutes. The
// user row is not touched.
func (s *AuthService) VerifyResetOTP(ctx context.Context, phone, code string) (utils.SignedToken, error) {
	if err := s.OTP.Verify(ctx, utils.InternationalPhone(phone), code); err != nil {
		return utils.SignedToken{}, apperr.Wrap(apperr.KindValidation, "OTP verification failed", err)
	}
	return utils.NewResetToken(s.Cfg.ResetSecret, utils.NormalizePhone(phone), resetTokenTTL)
}

// ResetPassword validates the reset token and overwrites the user's
// password hash. Existing refresh tokens remain valid.
func (s *AuthService) ResetPassword(ctx context.Context, resetToken, newPassword string) error {
	claims, err := utils.VerifyToken(s.Cfg.ResetSecret, resetToken)
	if err != nil || claims.Phone == "" {
		return apperr.Auth("invalid or expired reset token")
	}
	if strings.TrimSpace(newPassword) == "" {
		return apperr.Validation("new password is required")
	}
	hash, err := utils.HashPassword(newPassword, s.Cfg.BcryptCost)
	if err != nil {
		return err
	}
	if err := s.Users.UpdatePasswordByPhone(ctx, claims.Phone, hash); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return apperr.NotFound("user with this phone number does not exist")
		}
		return err
	}
	return nil
}
