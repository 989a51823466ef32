// Package queue defines message payloads exchanged over the message
// broker plus the publisher and background consumer for them.
package queue

// EnrollmentConfirmedEvent is published when a user gains access to a
// course, either through a free enrollment or a verified payment. It
// carries enough context for downstream consumers to log or notify
// without querying the primary database.
type EnrollmentConfirmedEvent struct {
	EnrollmentID uint64  `json:"enrollment_id"`
	UserID       uint64  `json:"user_id"`
	CourseID     uint64  `json:"course_id"`
	CourseTitle  string  `json:"course_title"`
	Amount       float64 `json:"amount"`
	TxRef        string  `json:"tx_ref,omitempty"`
	EnrolledAt   string  `json:"enrolled_at"`
}
