// Package repository implements raw-SQL data access over MySQL. These
// sentinel values let services distinguish failure scenarios without
// parsing driver error strings at the call site. A missing row is
// reported as sql.ErrNoRows throughout.
package repository

import (
	"errors"
	"strings"
)

// ErrPhoneExists is returned when an insert collides with the unique
// phone constraint on users.
var ErrPhoneExists = errors.New("phone number already exists")

// ErrAlreadyEnrolled is returned when an enrollment insert collides
// with the unique (user_id, course_id) constraint. Callback processing
// treats it as "enrollment already present", not as a failure.
var ErrAlreadyEnrolled = errors.New("user already enrolled")

// ErrForbidden is returned when the caller attempts an operation on a
// resource they do not own. Handlers translate it into HTTP 403.
var ErrForbidden = errors.New("forbidden")

// isDuplicateKey reports whether err is a MySQL duplicate-entry error
// (error number 1062).
func isDuplicateKey(err error) bool {
	return err != nil && strings.Contains(err.Error(), "1062")
}
