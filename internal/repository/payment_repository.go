package repository

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/addislearn/learning-platform/internal/model"
)

const paymentColumns = "id,tx_ref,ref_id,user_id,course_id,amount,status,created_at,updated_at"

// PaymentRepo persists payment attempts. Status transitions are
// enforced at the SQL level with conditional updates so two concurrent
// callback deliveries cannot both win the pending -> success race: the
// guarded UPDATE reports through RowsAffected which caller performed
// the transition.
type PaymentRepo struct{ DB *sql.DB }

func NewPaymentRepo(db *sql.DB) *PaymentRepo { return &PaymentRepo{DB: db} }

// Create inserts a pending payment and returns its ID. Payments are
// only persisted after the gateway accepted the initialization, so no
// orphan rows exist for failed initiations.
func (r *PaymentRepo) Create(ctx context.Context, p *model.Payment) (uint64, error) {
	res, err := r.DB.ExecContext(ctx,
		"INSERT INTO payments (tx_ref, user_id, course_id, amount, status) VALUES (?,?,?,?,?)",
		p.TxRef, p.UserID, p.CourseID, p.Amount, model.PaymentPending)
	if err != nil {
		return 0, err
	}
	id, err := res.LastInsertId()
	if err != nil {
		return 0, err
	}
	return uint64(id), nil
}

func scanPayment(scan func(dest ...any) error) (model.Payment, error) {
	var p model.Payment
	err := scan(&p.ID, &p.TxRef, &p.RefID, &p.UserID, &p.CourseID, &p.Amount,
		&p.Status, &p.CreatedAt, &p.UpdatedAt)
	return p, err
}

// GetByTxRef fetches a payment by its locally generated reference.
func (r *PaymentRepo) GetByTxRef(ctx context.Context, txRef string) (model.Payment, error) {
	return scanPayment(r.DB.QueryRowContext(ctx,
		"SELECT "+paymentColumns+" FROM payments WHERE tx_ref=? LIMIT 1", txRef).Scan)
}

// MarkFailed transitions a pending payment to failed, recording the
// caller-supplied gateway reference for audit. A payment already in a
// terminal state is left untouched.
func (r *PaymentRepo) MarkFailed(ctx context.Context, txRef string, refID *string) error {
	_, err := r.DB.ExecContext(ctx,
		"UPDATE payments SET status=?, ref_id=COALESCE(?, ref_id) WHERE tx_ref=? AND status=?",
		model.PaymentFailed, refID, txRef, model.PaymentPending)
	return err
}

// MarkSuccessTx promotes a payment to success within tx, storing the
// gateway's own reference id. It returns true when this call performed
// the transition and false when the payment was already successful,
// letting the caller treat duplicate callbacks as no-ops. A previously
// failed payment may still be promoted: re-verification is
// authoritative each time.
func (r *PaymentRepo) MarkSuccessTx(ctx context.Context, tx *sql.Tx, txRef, refID string) (bool, error) {
	res, err := tx.ExecContext(ctx,
		"UPDATE payments SET status=?, ref_id=? WHERE tx_ref=? AND status<>?",
		model.PaymentSuccess, refID, txRef, model.PaymentSuccess)
	if err != nil {
		return false, err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, err
	}
	return n > 0, nil
}

// ListByUser returns a user's payments, optionally filtered by status,
// newest first, paged.
func (r *PaymentRepo) ListByUser(ctx context.Context, userID uint64, status string, page, pageSize int) ([]model.Payment, error) {
	return r.listBy(ctx, "user_id", userID, status, page, pageSize)
}

// ListByCourse returns a course's payments, optionally filtered by
// status, newest first, paged.
func (r *PaymentRepo) ListByCourse(ctx context.Context, courseID uint64, status string, page, pageSize int) ([]model.Payment, error) {
	return r.listBy(ctx, "course_id", courseID, status, page, pageSize)
}

func (r *PaymentRepo) listBy(ctx context.Context, col string, id uint64, status string, page, pageSize int) ([]model.Payment, error) {
	if page < 1 {
		page = 1
	}
	if pageSize < 1 {
		pageSize = 10
	}
	q := fmt.Sprintf("SELECT %s FROM payments WHERE %s=?", paymentColumns, col)
	args := []any{id}
	if status != "" {
		q += " AND status=?"
		args = append(args, status)
	}
	q += " ORDER BY created_at DESC LIMIT ? OFFSET ?"
	args = append(args, pageSize, (page-1)*pageSize)

	rows, err := r.DB.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := []model.Payment{}
	for rows.Next() {
		p, err := scanPayment(rows.Scan)
		if err != nil {
			return nil, err
		}
		out = append(out, p)
	}
	return out, rows.Err()
}

// CountBy returns the number of payments for a user or course with the
// optional status filter. col must be "user_id" or "course_id".
func (r *PaymentRepo) CountBy(ctx context.Context, col string, id uint64, status string) (int, error) {
	if col != "user_id" && col != "course_id" {
		return 0, fmt.Errorf("unsupported filter column %q", col)
	}
	q := fmt.Sprintf("SELECT COUNT(*) FROM payments WHERE %s=?", col)
	args := []any{id}
	if status != "" {
		q += " AND status=?"
		args = append(args, status)
	}
	var n int
	err := r.DB.QueryRowContext(ctx, q, args...).Scan(&n)
	return n, err
}
