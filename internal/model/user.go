package model

import "time"

// Roles stored in users.role. Every user carries exactly one of these
// values; middleware and handlers compare against them when gating
// protected routes.
const (
	RoleStudent    = "student"
	RoleInstructor = "instructor"
	RoleAdmin      = "admin"
)

// User mirrors the `users` table. Phone numbers are stored in their
// normalized local form (no country code, no leading zero); handlers
// normalize input before any lookup. IsActive stays false until the
// account passes OTP verification.
//
// Fields:
//  ID             – primary key identifier of the user.
//  Phone          – unique normalized phone number.
//  PasswordHash   – bcrypt hashed password.
//  FirstName      – given name.
//  LastName       – family name.
//  Email          – optional email address.
//  Role           – one of student, instructor, admin.
//  Profession     – optional free-form occupation.
//  ProfilePicture – optional picture URL.
//  IsActive       – whether the account has been OTP-verified.
//  CreatedAt      – timestamp of creation.
//  UpdatedAt      – timestamp of last update.
type User struct {
	ID             uint64     // users.id
	Phone          string     // users.phone
	PasswordHash   string     // users.password_hash
	FirstName      string     // users.first_name
	LastName       string     // users.last_name
	Email          *string    // users.email (nullable)
	Role           string     // users.role
	Profession     *string    // users.profession (nullable)
	ProfilePicture *string    // users.profile_picture (nullable)
	IsActive       bool       // users.is_active
	CreatedAt      time.Time  // users.created_at
	UpdatedAt      time.Time  // users.updated_at
}

// RefreshToken models the single-row-per-user `refresh_tokens` table.
// Only the SHA-256 hash of the issued token is persisted; presenting a
// raw token means hashing it and comparing against TokenHash. The
// UNIQUE constraint on user_id enforces the one-live-session rule.
type RefreshToken struct {
	ID        uint64    // refresh_tokens.id
	UserID    uint64    // refresh_tokens.user_id (unique)
	TokenHash string    // refresh_tokens.token_hash
	ExpiresAt time.Time // refresh_tokens.expires_at
	CreatedAt time.Time // refresh_tokens.created_at
	UpdatedAt time.Time // refresh_tokens.updated_at
}

// ValidRole reports whether role is one of the enumerated role values.
func ValidRole(role string) bool {
	switch role {
	case RoleStudent, RoleInstructor, RoleAdmin:
		return true
	}
	return false
}
