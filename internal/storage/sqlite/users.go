package sqlite

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/bobmcallan/corebank/internal/models"
)

type userStore struct {
	s *Store
}

const userColumns = `id, username, email, COALESCE(mobile, ''), password_hash, status, customer_id, created_at, modified_at`

func (u *userStore) scan(row interface{ Scan(...any) error }) (*models.User, error) {
	var user models.User
	var customerID sql.NullInt64
	var createdAt, modifiedAt string
	err := row.Scan(&user.ID, &user.Username, &user.Email, &user.Mobile,
		&user.PasswordHash, &user.Status, &customerID, &createdAt, &modifiedAt)
	if err != nil {
		return nil, err
	}
	user.CustomerID = int64Ptr(customerID)
	user.CreatedAt = parseTime(createdAt)
	user.ModifiedAt = parseTime(modifiedAt)
	return &user, nil
}

func (u *userStore) loadRoles(ctx context.Context, user *models.User) error {
	rows, err := u.s.q.QueryContext(ctx,
		`SELECT role_name FROM user_roles WHERE user_id = ? ORDER BY role_name`, user.ID)
	if err != nil {
		return fmt.Errorf("failed to load roles for user %d: %w", user.ID, err)
	}
	defer rows.Close()
	user.Roles = []string{}
	for rows.Next() {
		var role string
		if err := rows.Scan(&role); err != nil {
			return err
		}
		user.Roles = append(user.Roles, role)
	}
	return rows.Err()
}

func (u *userStore) Create(ctx context.Context, user *models.User) error {
	res, err := u.s.q.ExecContext(ctx, `
		INSERT INTO users (username, email, mobile, password_hash, status, customer_id, created_at, modified_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		user.Username, user.Email, nullStr(user.Mobile), user.PasswordHash,
		string(user.Status), nullInt64(user.CustomerID),
		fmtTime(user.CreatedAt), fmtTime(user.ModifiedAt))
	if err != nil {
		return mapErr(err, "user", user.Username)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return fmt.Errorf("failed to read user id: %w", err)
	}
	user.ID = id
	for _, role := range user.Roles {
		if err := u.AssignRole(ctx, id, role); err != nil {
			return err
		}
	}
	return nil
}

func (u *userStore) getBy(ctx context.Context, where, key string) (*models.User, error) {
	row := u.s.q.QueryRowContext(ctx,
		`SELECT `+userColumns+` FROM users WHERE `+where+` = ?`, key)
	user, err := u.scan(row)
	if err != nil {
		return nil, mapErr(err, "user", key)
	}
	if err := u.loadRoles(ctx, user); err != nil {
		return nil, err
	}
	return user, nil
}

func (u *userStore) GetByID(ctx context.Context, id int64) (*models.User, error) {
	row := u.s.q.QueryRowContext(ctx,
		`SELECT `+userColumns+` FROM users WHERE id = ?`, id)
	user, err := u.scan(row)
	if err != nil {
		return nil, mapErr(err, "user", fmt.Sprintf("%d", id))
	}
	if err := u.loadRoles(ctx, user); err != nil {
		return nil, err
	}
	return user, nil
}

func (u *userStore) GetByUsername(ctx context.Context, username string) (*models.User, error) {
	return u.getBy(ctx, "username", username)
}

func (u *userStore) GetByEmail(ctx context.Context, email string) (*models.User, error) {
	return u.getBy(ctx, "email", email)
}

func (u *userStore) GetByMobile(ctx context.Context, mobile string) (*models.User, error) {
	return u.getBy(ctx, "mobile", mobile)
}

func (u *userStore) UpdateStatus(ctx context.Context, id int64, status models.UserStatus) error {
	res, err := u.s.q.ExecContext(ctx,
		`UPDATE users SET status = ?, modified_at = ? WHERE id = ?`,
		string(status), fmtTime(nowUTC()), id)
	if err != nil {
		return fmt.Errorf("failed to update user %d status: %w", id, err)
	}
	return requireRow(res, "user", id)
}

func (u *userStore) LinkCustomer(ctx context.Context, userID, customerID int64) error {
	res, err := u.s.q.ExecContext(ctx,
		`UPDATE users SET customer_id = ?, modified_at = ? WHERE id = ?`,
		customerID, fmtTime(nowUTC()), userID)
	if err != nil {
		return fmt.Errorf("failed to link customer %d to user %d: %w", customerID, userID, err)
	}
	return requireRow(res, "user", userID)
}

func (u *userStore) ListByStatus(ctx context.Context, status models.UserStatus) ([]*models.User, error) {
	rows, err := u.s.q.QueryContext(ctx,
		`SELECT `+userColumns+` FROM users WHERE status = ? ORDER BY created_at`, string(status))
	if err != nil {
		return nil, fmt.Errorf("failed to list users by status %s: %w", status, err)
	}
	defer rows.Close()
	var users []*models.User
	for rows.Next() {
		user, err := u.scan(rows)
		if err != nil {
			return nil, err
		}
		users = append(users, user)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	for _, user := range users {
		if err := u.loadRoles(ctx, user); err != nil {
			return nil, err
		}
	}
	return users, nil
}

// --- RBAC ---

func (u *userStore) SeedRBAC(ctx context.Context, permissions map[models.Permission]string, rolePermissions map[string][]models.Permission) error {
	for perm, desc := range permissions {
		if _, err := u.s.q.ExecContext(ctx,
			`INSERT INTO permissions (name, description) VALUES (?, ?)
			 ON CONFLICT(name) DO UPDATE SET description = excluded.description`,
			string(perm), desc); err != nil {
			return fmt.Errorf("failed to seed permission %s: %w", perm, err)
		}
	}
	for role, perms := range rolePermissions {
		if _, err := u.s.q.ExecContext(ctx,
			`INSERT INTO roles (name) VALUES (?) ON CONFLICT(name) DO NOTHING`, role); err != nil {
			return fmt.Errorf("failed to seed role %s: %w", role, err)
		}
		for _, perm := range perms {
			if _, err := u.s.q.ExecContext(ctx,
				`INSERT INTO role_permissions (role_name, permission_name) VALUES (?, ?)
				 ON CONFLICT DO NOTHING`, role, string(perm)); err != nil {
				return fmt.Errorf("failed to seed role permission %s/%s: %w", role, perm, err)
			}
		}
	}
	return nil
}

func (u *userStore) RolePermissions(ctx context.Context) (map[string][]models.Permission, error) {
	out := map[string][]models.Permission{}

	roleRows, err := u.s.q.QueryContext(ctx, `SELECT name FROM roles`)
	if err != nil {
		return nil, fmt.Errorf("failed to list roles: %w", err)
	}
	defer roleRows.Close()
	for roleRows.Next() {
		var role string
		if err := roleRows.Scan(&role); err != nil {
			return nil, err
		}
		out[role] = []models.Permission{}
	}
	if err := roleRows.Err(); err != nil {
		return nil, err
	}

	rows, err := u.s.q.QueryContext(ctx,
		`SELECT role_name, permission_name FROM role_permissions ORDER BY role_name, permission_name`)
	if err != nil {
		return nil, fmt.Errorf("failed to list role permissions: %w", err)
	}
	defer rows.Close()
	for rows.Next() {
		var role, perm string
		if err := rows.Scan(&role, &perm); err != nil {
			return nil, err
		}
		out[role] = append(out[role], models.Permission(perm))
	}
	return out, rows.Err()
}

func (u *userStore) AssignRole(ctx context.Context, userID int64, role string) error {
	if _, err := u.s.q.ExecContext(ctx,
		`INSERT INTO user_roles (user_id, role_name) VALUES (?, ?) ON CONFLICT DO NOTHING`,
		userID, role); err != nil {
		return fmt.Errorf("failed to assign role %s to user %d: %w", role, userID, err)
	}
	return nil
}
