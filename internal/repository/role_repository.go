package repository

import (
	"context"
	"database/sql"
	"encoding/json"

	"github.com/iliyamo/user-account-service/internal/model"
)

// RoleRepo manages roles and the user_roles join table. Role assignment
// runs inside a caller-owned transaction so the get-or-create plus upsert
// sequence stays consistent under concurrent attempts; the unique keys on
// roles.name and the user_roles pair make the whole operation idempotent.
type RoleRepo struct{ DB *sql.DB }

func NewRoleRepo(db *sql.DB) *RoleRepo { return &RoleRepo{DB: db} }

// decodeCaps parses the stored capabilities JSON. Malformed text degrades
// to an empty set rather than an error.
func decodeCaps(raw string) map[string]any {
	caps := map[string]any{}
	if raw == "" {
		return caps
	}
	if err := json.Unmarshal([]byte(raw), &caps); err != nil {
		return map[string]any{}
	}
	return caps
}

// GetByNameTx fetches a role by its unique name within a transaction.
func (r *RoleRepo) GetByNameTx(ctx context.Context, tx *sql.Tx, name string) (model.Role, error) {
	var (
		role model.Role
		raw  string
	)
	err := tx.QueryRowContext(ctx,
		"SELECT id,name,capabilities FROM roles WHERE name=? LIMIT 1", name).
		Scan(&role.ID, &role.Name, &raw)
	if err != nil {
		return model.Role{}, err
	}
	role.Capabilities = decodeCaps(raw)
	return role, nil
}

// CreateTx inserts a role with the given capability set. A concurrent
// creation of the same name surfaces the duplicate-key error from the
// storage layer; callers retry the whole transaction if they care.
func (r *RoleRepo) CreateTx(ctx context.Context, tx *sql.Tx, name string, caps map[string]any) (model.Role, error) {
	if caps == nil {
		caps = map[string]any{}
	}
	raw, err := json.Marshal(caps)
	if err != nil {
		return model.Role{}, err
	}
	res, err := tx.ExecContext(ctx,
		"INSERT INTO roles (name, capabilities) VALUES (?,?)", name, string(raw))
	if err != nil {
		return model.Role{}, err
	}
	id, err := res.LastInsertId()
	if err != nil {
		return model.Role{}, err
	}
	return model.Role{ID: uint64(id), Name: name, Capabilities: caps}, nil
}

// AssignTx links a user to a role. Re-assigning the same pair is a no-op
// thanks to the ON DUPLICATE KEY UPDATE clause.
func (r *RoleRepo) AssignTx(ctx context.Context, tx *sql.Tx, userID, roleID uint64) error {
	_, err := tx.ExecContext(ctx,
		`INSERT INTO user_roles (user_id, role_id) VALUES (?,?)
		 ON DUPLICATE KEY UPDATE user_id=user_id`,
		userID, roleID)
	return err
}

// ListByUser returns all roles held by the user, capabilities decoded.
func (r *RoleRepo) ListByUser(ctx context.Context, userID uint64) ([]model.Role, error) {
	rows, err := r.DB.QueryContext(ctx,
		`SELECT r.id, r.name, r.capabilities
		 FROM roles r
		 JOIN user_roles ur ON ur.role_id = r.id
		 WHERE ur.user_id = ?
		 ORDER BY r.name`,
		userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := []model.Role{}
	for rows.Next() {
		var (
			role model.Role
			raw  string
		)
		if err := rows.Scan(&role.ID, &role.Name, &raw); err != nil {
			return nil, err
		}
		role.Capabilities = decodeCaps(raw)
		out = append(out, role)
	}
	return out, rows.Err()
}
