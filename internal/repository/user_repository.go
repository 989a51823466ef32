package repository

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	"github.com/addislearn/learning-platform/internal/model"
)

const userColumns = "id,phone,password_hash,first_name,last_name,email,role,profession,profile_picture,is_active,created_at,updated_at"

// UserRepo persists rows of the `users` table. Phone numbers must be
// normalized by the caller before any lookup.
type UserRepo struct{ DB *sql.DB }

func NewUserRepo(db *sql.DB) *UserRepo { return &UserRepo{DB: db} }

// Create inserts an inactive user and returns its ID.
func (r *UserRepo) Create(ctx context.Context, u *model.User) (uint64, error) {
	res, err := r.DB.ExecContext(ctx,
		"INSERT INTO users (phone, password_hash, first_name, last_name, email, role, profession) VALUES (?,?,?,?,?,?,?)",
		u.Phone, u.PasswordHash, u.FirstName, u.LastName, u.Email, u.Role, u.Profession)
	if err != nil {
		if isDuplicateKey(err) {
			return 0, ErrPhoneExists
		}
		return 0, err
	}
	id, err := res.LastInsertId()
	if err != nil {
		return 0, err
	}
	return uint64(id), nil
}

func scanUser(row *sql.Row) (model.User, error) {
	var u model.User
	err := row.Scan(&u.ID, &u.Phone, &u.PasswordHash, &u.FirstName, &u.LastName,
		&u.Email, &u.Role, &u.Profession, &u.ProfilePicture, &u.IsActive,
		&u.CreatedAt, &u.UpdatedAt)
	return u, err
}

// GetByPhone fetches a user by normalized phone number.
func (r *UserRepo) GetByPhone(ctx context.Context, phone string) (model.User, error) {
	return scanUser(r.DB.QueryRowContext(ctx,
		"SELECT "+userColumns+" FROM users WHERE phone=? LIMIT 1", phone))
}

// GetByID fetches a user by id.
func (r *UserRepo) GetByID(ctx context.Context, id uint64) (model.User, error) {
	return scanUser(r.DB.QueryRowContext(ctx,
		"SELECT "+userColumns+" FROM users WHERE id=? LIMIT 1", id))
}

// Activate flips is_active to true for the user with the given phone.
// Activating an already-active user is a no-op; the repository only
// reports whether a matching user exists.
func (r *UserRepo) Activate(ctx context.Context, phone string) error {
	res, err := r.DB.ExecContext(ctx,
		"UPDATE users SET is_active=1 WHERE phone=?", phone)
	if err != nil {
		return err
	}
	// MySQL reports 0 affected rows both for a missing user and for an
	// already-active one, so existence needs its own check.
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		var id uint64
		if err := r.DB.QueryRowContext(ctx,
			"SELECT id FROM users WHERE phone=? LIMIT 1", phone).Scan(&id); err != nil {
			return err
		}
	}
	return nil
}

// Deactivate soft-removes a user by clearing is_active.
func (r *UserRepo) Deactivate(ctx context.Context, id uint64) error {
	return r.touchUser(ctx, "UPDATE users SET is_active=0 WHERE id=?", id)
}

// UpdateRole changes the role of a user.
func (r *UserRepo) UpdateRole(ctx context.Context, id uint64, role string) error {
	res, err := r.DB.ExecContext(ctx, "UPDATE users SET role=? WHERE id=?", role, id)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return r.exists(ctx, id)
	}
	return nil
}

// UpdatePasswordByPhone overwrites the password hash of the user with
// the given normalized phone.
func (r *UserRepo) UpdatePasswordByPhone(ctx context.Context, phone, passwordHash string) error {
	res, err := r.DB.ExecContext(ctx,
		"UPDATE users SET password_hash=? WHERE phone=?", passwordHash, phone)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		var id uint64
		return r.DB.QueryRowContext(ctx,
			"SELECT id FROM users WHERE phone=? LIMIT 1", phone).Scan(&id)
	}
	return nil
}

// UpdateProfile mutates the optional profile fields. Empty values leave
// the column untouched.
func (r *UserRepo) UpdateProfile(ctx context.Context, id uint64, firstName, lastName string, email, profession, picture *string) error {
	sets := make([]string, 0, 5)
	args := make([]any, 0, 6)
	if firstName != "" {
		sets = append(sets, "first_name=?")
		args = append(args, firstName)
	}
	if lastName != "" {
		sets = append(sets, "last_name=?")
		args = append(args, lastName)
	}
	if email != nil {
		sets = append(sets, "email=?")
		args = append(args, *email)
	}
	if profession != nil {
		sets = append(sets, "profession=?")
		args = append(args, *profession)
	}
	if picture != nil {
		sets = append(sets, "profile_picture=?")
		args = append(args, *picture)
	}
	if len(sets) == 0 {
		return nil
	}
	args = append(args, id)
	_, err := r.DB.ExecContext(ctx,
		"UPDATE users SET "+strings.Join(sets, ",")+" WHERE id=?", args...)
	return err
}

// Delete removes a user permanently. Irreversible admin operation.
func (r *UserRepo) Delete(ctx context.Context, id uint64) error {
	res, err := r.DB.ExecContext(ctx, "DELETE FROM users WHERE id=?", id)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return sql.ErrNoRows
	}
	return nil
}

// List returns active users matching the optional search string, paged.
// Search matches phone, name, email and profession.
func (r *UserRepo) List(ctx context.Context, search string, page, pageSize int) ([]model.User, error) {
	return r.list(ctx, "is_active=1", search, "", page, pageSize)
}

// ListInstructors returns users with the instructor role, paged.
func (r *UserRepo) ListInstructors(ctx context.Context, search string, page, pageSize int) ([]model.User, error) {
	return r.list(ctx, "role=?", search, model.RoleInstructor, page, pageSize)
}

func (r *UserRepo) list(ctx context.Context, where, search, whereArg string, page, pageSize int) ([]model.User, error) {
	if page < 1 {
		page = 1
	}
	if pageSize < 1 {
		pageSize = 10
	}
	args := []any{}
	if whereArg != "" {
		args = append(args, whereArg)
	}
	if search != "" {
		like := "%" + search + "%"
		where += " AND (phone LIKE ? OR first_name LIKE ? OR last_name LIKE ? OR email LIKE ? OR profession LIKE ?)"
		args = append(args, like, like, like, like, like)
	}
	args = append(args, pageSize, (page-1)*pageSize)

	q := fmt.Sprintf("SELECT %s FROM users WHERE %s ORDER BY id LIMIT ? OFFSET ?", userColumns, where)
	rows, err := r.DB.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := []model.User{}
	for rows.Next() {
		var u model.User
		if err := rows.Scan(&u.ID, &u.Phone, &u.PasswordHash, &u.FirstName, &u.LastName,
			&u.Email, &u.Role, &u.Profession, &u.ProfilePicture, &u.IsActive,
			&u.CreatedAt, &u.UpdatedAt); err != nil {
			return nil, err
		}
		out = append(out, u)
	}
	return out, rows.Err()
}

// Count returns the number of active users matching search.
func (r *UserRepo) Count(ctx context.Context, search string) (int, error) {
	q := "SELECT COUNT(*) FROM users WHERE is_active=1"
	args := []any{}
	if search != "" {
		like := "%" + search + "%"
		q += " AND (phone LIKE ? OR first_name LIKE ? OR last_name LIKE ? OR email LIKE ? OR profession LIKE ?)"
		args = append(args, like, like, like, like, like)
	}
	var n int
	err := r.DB.QueryRowContext(ctx, q, args...).Scan(&n)
	return n, err
}

func (r *UserRepo) touchUser(ctx context.Context, q string, id uint64) error {
	res, err := r.DB.ExecContext(ctx, q, id)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return r.exists(ctx, id)
	}
	return nil
}

func (r *UserRepo) exists(ctx context.Context, id uint64) error {
	var found uint64
	return r.DB.QueryRowContext(ctx,
		"SELECT id FROM users WHERE id=? LIMIT 1", id).Scan(&found)
}
