package model

import "time"

// Payment status values. Transitions are monotonic: a payment starts
// pending and moves to success or failed exactly once; success is
// terminal, while a failed payment may still be promoted to success by
// a later gateway retry whose re-verification confirms it.
const (
	PaymentPending = "pending"
	PaymentSuccess = "success"
	PaymentFailed  = "failed"
)

// Payment mirrors the `payments` table. TxRef is generated locally
// before the gateway call and is globally unique; RefID is the
// gateway's own reference, filled in only after a verified callback.
type Payment struct {
	ID        uint64    // payments.id
	TxRef     string    // payments.tx_ref (unique)
	RefID     *string   // payments.ref_id (nullable until callback)
	UserID    uint64    // payments.user_id
	CourseID  uint64    // payments.course_id
	Amount    float64   // payments.amount
	Status    string    // payments.status
	CreatedAt time.Time // payments.created_at
	UpdatedAt time.Time // payments.updated_at
}
