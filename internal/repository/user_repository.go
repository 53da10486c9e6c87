package repository

import (
	"context"
	"database/sql"
	"strings"

	"github.com/iliyamo/user-account-service/internal/model"
)

// UserRepo provides CRUD access to the `users` table.
type UserRepo struct{ DB *sql.DB }

func NewUserRepo(db *sql.DB) *UserRepo { return &UserRepo{DB: db} }

const userColumns = "id,user_login,user_email,user_pass,display_name,created_at,updated_at"

func scanUser(row *sql.Row) (model.User, error) {
	var (
		u           model.User
		displayName sql.NullString
	)
	err := row.Scan(&u.ID, &u.Login, &u.Email, &u.PassHash, &displayName, &u.CreatedAt, &u.UpdatedAt)
	if err != nil {
		return model.User{}, err
	}
	if displayName.Valid {
		u.DisplayName = &displayName.String
	}
	return u, nil
}

// Create inserts a user row and returns its ID. Duplicate login or email
// are reported as ErrLoginExists / ErrEmailExists.
func (r *UserRepo) Create(ctx context.Context, login, email, passHash string, displayName *string) (uint64, error) {
	var dn sql.NullString
	if displayName != nil {
		dn = sql.NullString{String: *displayName, Valid: true}
	}
	res, err := r.DB.ExecContext(ctx,
		"INSERT INTO users (user_login, user_email, user_pass, display_name) VALUES (?,?,?,?)",
		login, email, passHash, dn)
	if err != nil {
		switch {
		case isDuplicate(err, "uq_users_login"):
			return 0, ErrLoginExists
		case isDuplicate(err, "uq_users_email"):
			return 0, ErrEmailExists
		}
		return 0, err
	}
	id, err := res.LastInsertId()
	if err != nil {
		return 0, err
	}
	return uint64(id), nil
}

// GetByID fetches a user by id.
func (r *UserRepo) GetByID(ctx context.Context, id uint64) (model.User, error) {
	return scanUser(r.DB.QueryRowContext(ctx,
		"SELECT "+userColumns+" FROM users WHERE id=? LIMIT 1", id))
}

// GetByLoginOrEmail fetches a user whose login or email matches the given
// identifier. Used by authentication so either credential works.
func (r *UserRepo) GetByLoginOrEmail(ctx context.Context, ident string) (model.User, error) {
	return scanUser(r.DB.QueryRowContext(ctx,
		"SELECT "+userColumns+" FROM users WHERE user_login=? OR user_email=? LIMIT 1",
		ident, ident))
}

// UpdateFields describes the mutable subset of a user row. Nil pointers
// leave the column untouched; PassHash must already be hashed.
type UpdateFields struct {
	DisplayName *string
	Email       *string
	PassHash    *string
}

// Empty reports whether no field is set.
func (f UpdateFields) Empty() bool {
	return f.DisplayName == nil && f.Email == nil && f.PassHash == nil
}

// Update applies the given fields to one user row. A duplicate email maps
// to ErrEmailExists; updating a missing user returns sql.ErrNoRows.
func (r *UserRepo) Update(ctx context.Context, id uint64, f UpdateFields) error {
	set := []string{}
	args := []any{}
	if f.DisplayName != nil {
		set = append(set, "display_name=?")
		args = append(args, *f.DisplayName)
	}
	if f.Email != nil {
		set = append(set, "user_email=?")
		args = append(args, *f.Email)
	}
	if f.PassHash != nil {
		set = append(set, "user_pass=?")
		args = append(args, *f.PassHash)
	}
	if len(set) == 0 {
		return nil
	}
	args = append(args, id)
	res, err := r.DB.ExecContext(ctx,
		"UPDATE users SET "+strings.Join(set, ", ")+" WHERE id=?", args...)
	if err != nil {
		if isDuplicate(err, "uq_users_email") {
			return ErrEmailExists
		}
		return err
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		// Either the user does not exist or the values already match.
		// Distinguish by probing for the row.
		var one int
		if err := r.DB.QueryRowContext(ctx, "SELECT 1 FROM users WHERE id=? LIMIT 1", id).Scan(&one); err != nil {
			return err
		}
	}
	return nil
}

// List returns one page of users ordered newest-first, plus the total
// number of rows matching the optional case-insensitive search term.
func (r *UserRepo) List(ctx context.Context, q string, limit, offset int) ([]model.User, int64, error) {
	cond := "1=1"
	args := []any{}
	if q != "" {
		cond = "(LOWER(user_login) LIKE ? OR LOWER(user_email) LIKE ? OR LOWER(COALESCE(display_name,'')) LIKE ?)"
		needle := "%" + strings.ToLower(q) + "%"
		args = append(args, needle, needle, needle)
	}

	var total int64
	if err := r.DB.QueryRowContext(ctx,
		"SELECT COUNT(*) FROM users WHERE "+cond, args...).Scan(&total); err != nil {
		return nil, 0, err
	}

	dataSQL := "SELECT " + userColumns + " FROM users WHERE " + cond +
		" ORDER BY created_at DESC, id DESC LIMIT ? OFFSET ?"
	argsData := append(append([]any{}, args...), limit, offset)

	rows, err := r.DB.QueryContext(ctx, dataSQL, argsData...)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	out := make([]model.User, 0, limit)
	for rows.Next() {
		var (
			u           model.User
			displayName sql.NullString
		)
		if err := rows.Scan(&u.ID, &u.Login, &u.Email, &u.PassHash, &displayName, &u.CreatedAt, &u.UpdatedAt); err != nil {
			return nil, 0, err
		}
		if displayName.Valid {
			u.DisplayName = &displayName.String
		}
		out = append(out, u)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, err
	}
	return out, total, nil
}
