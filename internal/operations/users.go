package operations

import (
	"context"
	"errors"
	"strings"

	"github.com/simdigmanuda/pdp.sim/internal/auth"
	"github.com/simdigmanuda/pdp.sim/internal/crypto"
	"github.com/simdigmanuda/pdp.sim/internal/db"
)

type AdminBootstrapper interface {
	CountAdminUsers(ctx context.Context) (int64, error)
	CreateAdminUser(ctx context.Context, arg db.CreateAdminUserParams) (db.AdminUser, error)
}

// BootstrapAdmin creates the first superadmin when the user table is empty.
// It reports whether a user was created.
func BootstrapAdmin(ctx context.Context, users AdminBootstrapper, username, password string) (bool, error) {
	username = strings.TrimSpace(username)
	if username == "" || password == "" {
		return false, nil
	}
	count, err := users.CountAdminUsers(ctx)
	if err != nil {
		return false, err
	}
	if count > 0 {
		return false, nil
	}
	if len(password) < 8 {
		return false, errors.New("admin password must be at least 8 characters")
	}
	hash, err := crypto.HashPassword(password)
	if err != nil {
		return false, err
	}
	_, err = users.CreateAdminUser(ctx, db.CreateAdminUserParams{
		Username:     username,
		Name:         username,
		PasswordHash: hash,
		Role:         auth.RoleSuperAdmin,
	})
	if err != nil {
		return false, err
	}
	return true, nil
}
