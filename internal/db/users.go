package db

import (
	"context"
	"time"

	"github.com/pkg/errors"
)

const adminColumns = `id, username, name, password_hash, role, created_at, updated_at`

func scanAdmin(row interface{ Scan(...interface{}) error }) (AdminUser, error) {
	var u AdminUser
	err := row.Scan(&u.ID, &u.Username, &u.Name, &u.PasswordHash, &u.Role, &u.CreatedAt, &u.UpdatedAt)
	return u, err
}

func (q *Queries) ListAdminUsers(ctx context.Context) ([]AdminUser, error) {
	rows, err := q.db.Query(ctx, `SELECT `+adminColumns+` FROM admin_users ORDER BY username`)
	if err != nil {
		return nil, errors.Wrap(err, "list admin users")
	}
	defer rows.Close()
	var items []AdminUser
	for rows.Next() {
		u, err := scanAdmin(rows)
		if err != nil {
			return nil, errors.Wrap(err, "scan admin user")
		}
		items = append(items, u)
	}
	return items, errors.Wrap(rows.Err(), "list admin users")
}

func (q *Queries) GetAdminUser(ctx context.Context, id int64) (AdminUser, error) {
	u, err := scanAdmin(q.db.QueryRow(ctx, `SELECT `+adminColumns+` FROM admin_users WHERE id = $1`, id))
	return u, errors.Wrap(err, "get admin user")
}

func (q *Queries) GetAdminUserByUsername(ctx context.Context, username string) (AdminUser, error) {
	u, err := scanAdmin(q.db.QueryRow(ctx, `SELECT `+adminColumns+` FROM admin_users WHERE lower(username) = lower($1)`, username))
	return u, errors.Wrap(err, "get admin user by username")
}

func (q *Queries) CountAdminUsers(ctx context.Context) (int64, error) {
	var n int64
	err := q.db.QueryRow(ctx, `SELECT count(*) FROM admin_users`).Scan(&n)
	return n, errors.Wrap(err, "count admin users")
}

type CreateAdminUserParams struct {
	Username     string
	Name         string
	PasswordHash string
	Role         string
}

func (q *Queries) CreateAdminUser(ctx context.Context, arg CreateAdminUserParams) (AdminUser, error) {
	u, err := scanAdmin(q.db.QueryRow(ctx, `
		INSERT INTO admin_users (username, name, password_hash, role)
		VALUES ($1, $2, $3, $4)
		RETURNING `+adminColumns,
		arg.Username, arg.Name, arg.PasswordHash, arg.Role))
	return u, errors.Wrap(err, "create admin user")
}

func (q *Queries) UpdateAdminPassword(ctx context.Context, id int64, passwordHash string) error {
	_, err := q.db.Exec(ctx, `
		UPDATE admin_users SET password_hash = $2, updated_at = $3 WHERE id = $1
	`, id, passwordHash, time.Now().UTC())
	return errors.Wrap(err, "update admin password")
}

func (q *Queries) DeleteAdminUser(ctx context.Context, id int64) (bool, error) {
	tag, err := q.db.Exec(ctx, `DELETE FROM admin_users WHERE id = $1`, id)
	if err != nil {
		return false, errors.Wrap(err, "delete admin user")
	}
	return tag.RowsAffected() > 0, nil
}
