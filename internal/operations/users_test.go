package operations

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/simdigmanuda/pdp.sim/internal/auth"
	"github.com/simdigmanuda/pdp.sim/internal/crypto"
	"github.com/simdigmanuda/pdp.sim/internal/db"
)

type fakeUsers struct {
	count   int64
	created []db.CreateAdminUserParams
}

func (f *fakeUsers) CountAdminUsers(context.Context) (int64, error) { return f.count, nil }

func (f *fakeUsers) CreateAdminUser(_ context.Context, arg db.CreateAdminUserParams) (db.AdminUser, error) {
	f.created = append(f.created, arg)
	f.count++
	return db.AdminUser{ID: f.count, Username: arg.Username, Role: arg.Role}, nil
}

func TestBootstrapAdmin(t *testing.T) {
	users := &fakeUsers{}
	created, err := BootstrapAdmin(context.Background(), users, " admin ", "rahasia123")
	require.NoError(t, err)
	assert.True(t, created)
	require.Len(t, users.created, 1)
	assert.Equal(t, "admin", users.created[0].Username)
	assert.Equal(t, auth.RoleSuperAdmin, users.created[0].Role)
	assert.NoError(t, crypto.CheckPassword(users.created[0].PasswordHash, "rahasia123"))

	created, err = BootstrapAdmin(context.Background(), users, "admin", "rahasia123")
	require.NoError(t, err)
	assert.False(t, created)
	assert.Len(t, users.created, 1)
}

func TestBootstrapAdminNeedsPassword(t *testing.T) {
	users := &fakeUsers{}
	created, err := BootstrapAdmin(context.Background(), users, "admin", "")
	require.NoError(t, err)
	assert.False(t, created)

	_, err = BootstrapAdmin(context.Background(), users, "admin", "short")
	assert.Error(t, err)
	assert.Empty(t, users.created)
}
