// Package apperr defines the error taxonomy shared by services and
// handlers. Repositories return sentinel errors or sql.ErrNoRows;
// services wrap known conditions into one of the kinds below so that
// handlers can map each outcome to an HTTP status without inspecting
// error strings.
package apperr

import "errors"

// Kind classifies a business-level failure.
type Kind int

const (
	// KindValidation covers bad input and recoverable business-rule
	// violations (already enrolled, gateway reported failure, ...).
	KindValidation Kind = iota
	// KindNotFound signals that a referenced entity does not exist.
	KindNotFound
	// KindAuth signals an invalid, expired or mismatched credential.
	KindAuth
	// KindDuplicated signals a uniqueness violation such as a duplicate
	// phone number on signup.
	KindDuplicated
)

// Error carries a kind, a user-facing message and an optional cause.
type Error struct {
	Kind    Kind
	Message string
	Err     error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return e.Message + ": " + e.Err.Error()
	}
	return e.Message
}

func (e *Error) Unwrap() error { return e.Err }

// Validation builds a KindValidation error.
func Validation(msg string) *Error { return &Error{Kind: KindValidation, Message: msg} }

// NotFound builds a KindNotFound error.
func NotFound(msg string) *Error { return &Error{Kind: KindNotFound, Message: msg} }

// Auth builds a KindAuth error.
func Auth(msg string) *Error { return &Error{Kind: KindAuth, Message: msg} }

// Duplicated builds a KindDuplicated error.
func Duplicated(msg string) *Error { return &Error{Kind: KindDuplicated, Message: msg} }

// Wrap attaches a cause to a taxonomy error.
func Wrap(kind Kind, msg string, err error) *Error {
	return &Error{Kind: kind, Message: msg, Err: err}
}

// KindOf extracts the kind of err. The second return value is false when
// err does not belong to the taxonomy.
func KindOf(err error) (Kind, bool) {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind, true
	}
	return 0, false
}

// Is reports whether err is a taxonomy error of the given kind.
func Is(err error, kind Kind) bool {
	k, ok := KindOf(err)
	return ok && k == kind
}
