package repository

import (
	"context"
	"database/sql"
	"time"
)

// TokenRepo persists refresh-token hashes, one row per user. The
// UNIQUE constraint on user_id plus the delete-then-insert transaction
// in Replace enforce the single-live-session rule even under a
// concurrent login and refresh.
type TokenRepo struct{ DB *sql.DB }

func NewTokenRepo(db *sql.DB) *TokenRepo { return &TokenRepo{DB: db} }

// Replace atomically removes any prior refresh token for userID and
// stores the hash of the newly issued one.
func (r *TokenRepo) Replace(ctx context.Context, userID uint64, tokenHash string, exp time.Time) error {
	tx, err := r.DB.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	committed := false
	defer func() {
		if !committed {
			_ = tx.Rollback()
		}
	}()
	if _, err := tx.ExecContext(ctx,
		"DELETE FROM refresh_tokens WHERE user_id=?", userID); err != nil {
		return err
	}
	if _, err := tx.ExecContext(ctx,
		"INSERT INTO refresh_tokens (user_id, token_hash, expires_at) VALUES (?,?,?)",
		userID, tokenHash, exp); err != nil {
		return err
	}
	if err := tx.Commit(); err != nil {
		return err
	}
	committed = true
	return nil
}

// GetByUser returns the stored hash and expiry for userID, or
// sql.ErrNoRows when the user has no live session.
func (r *TokenRepo) GetByUser(ctx context.Context, userID uint64) (string, time.Time, error) {
	var (
		hash string
		exp  time.Time
	)
	err := r.DB.QueryRowContext(ctx,
		"SELECT token_hash, expires_at FROM refresh_tokens WHERE user_id=? LIMIT 1",
		userID).Scan(&hash, &exp)
	if err != nil {
		return "", time.Time{}, err
	}
	return hash, exp, nil
}

// DeleteByUser removes the user's refresh-token row. sql.ErrNoRows is
// returned when there was nothing to delete, which logout maps to a
// not-found failure.
func (r *TokenRepo) DeleteByUser(ctx context.Context, userID uint64) error {
	res, err := r.DB.ExecContext(ctx,
		"DELETE FROM refresh_tokens WHERE user_id=?", userID)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return sql.ErrNoRows
	}
	return nil
}
