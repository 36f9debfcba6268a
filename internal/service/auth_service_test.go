package service

import (
	"context"
	"testing"
	"time"

	"logiflow/internal/model"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAuth_LoginAuthenticateLogout(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	g := env.newGroup(t, "Store 1")
	employee := env.newUser(t, "emp", model.RoleEmployee, g.ID)

	res, err := env.auth.Login(ctx, LoginRequest{Login: "emp", Password: "password123"}, SessionMeta{IP: "10.0.0.1", UserAgent: "test"})
	require.NoError(t, err)
	require.NotEmpty(t, res.Token)
	assert.Equal(t, model.RoleEmployee, res.Profile.Role)
	assert.Equal(t, []uint{g.ID}, res.Profile.GroupIDs)
	assert.False(t, res.Profile.AllGroups)
	assert.Contains(t, res.Profile.Permissions, PermOrdersWrite)

	p, err := env.auth.Authenticate(ctx, res.Token)
	require.NoError(t, err)
	assert.Equal(t, employee.UserID, p.Requester.UserID)
	assert.True(t, p.Requester.Scope.Allows(g.ID))
	assert.False(t, p.Requester.Has(PermUsersManage))

	require.NoError(t, env.auth.Logout(ctx, p.SessionID))
	_, err = env.auth.Authenticate(ctx, res.Token)
	assert.ErrorIs(t, err, ErrUnauthenticated)
}

func TestAuth_LoginByEmailAndWrongPassword(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	env.newUser(t, "emp", model.RoleEmployee)

	_, err := env.auth.Login(ctx, LoginRequest{Login: "emp@example.com", Password: "password123"}, SessionMeta{})
	require.NoError(t, err)

	_, err = env.auth.Login(ctx, LoginRequest{Login: "emp", Password: "nope"}, SessionMeta{})
	assert.ErrorIs(t, err, ErrUnauthenticated)

	_, err = env.auth.Login(ctx, LoginRequest{Login: "ghost", Password: "password123"}, SessionMeta{})
	assert.ErrorIs(t, err, ErrUnauthenticated)
}

func TestAuth_RejectsForeignAndTamperedTokens(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	env.newUser(t, "emp", model.RoleEmployee)

	res, err := env.auth.Login(ctx, LoginRequest{Login: "emp", Password: "password123"}, SessionMeta{})
	require.NoError(t, err)

	_, err = env.auth.Authenticate(ctx, res.Token+"x")
	assert.ErrorIs(t, err, ErrUnauthenticated)

	_, err = env.auth.Authenticate(ctx, "not-a-jwt")
	assert.ErrorIs(t, err, ErrUnauthenticated)

	other := NewAuthService(nil, nil, nil, nil, "other-secret", time.Hour)
	_, err = other.Authenticate(ctx, res.Token)
	assert.ErrorIs(t, err, ErrUnauthenticated)
}

func TestAuth_ExpiredSessionIsRemoved(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	env.newUser(t, "emp", model.RoleEmployee)

	res, err := env.auth.Login(ctx, LoginRequest{Login: "emp", Password: "password123"}, SessionMeta{})
	require.NoError(t, err)
	p, err := env.auth.Authenticate(ctx, res.Token)
	require.NoError(t, err)

	// The session row is authoritative even while the token itself is still valid
	require.NoError(t, env.db.Model(&model.Session{}).Where("id = ?", p.SessionID).
		Update("expires_at", time.Now().Add(-time.Minute)).Error)
	_, err = env.auth.Authenticate(ctx, res.Token)
	assert.ErrorIs(t, err, ErrUnauthenticated)

	var count int64
	require.NoError(t, env.db.Model(&model.Session{}).Where("id = ?", p.SessionID).Count(&count).Error)
	assert.Zero(t, count)
}

func TestAuth_PurgeExpiredSessions(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	env.newUser(t, "emp", model.RoleEmployee)

	svc := env.auth.(*authService)
	start := time.Now()
	svc.now = func() time.Time { return start }
	_, err := env.auth.Login(ctx, LoginRequest{Login: "emp", Password: "password123"}, SessionMeta{})
	require.NoError(t, err)
	_, err = env.auth.Login(ctx, LoginRequest{Login: "emp", Password: "password123"}, SessionMeta{})
	require.NoError(t, err)

	n, err := env.auth.PurgeExpiredSessions(ctx)
	require.NoError(t, err)
	assert.Zero(t, n)

	svc.now = func() time.Time { return start.Add(2 * time.Hour) }
	n, err = env.auth.PurgeExpiredSessions(ctx)
	require.NoError(t, err)
	assert.EqualValues(t, 2, n)
}

func TestAuth_RoleChangeAppliesToExistingSession(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	employee := env.newUser(t, "emp", model.RoleEmployee)

	res, err := env.auth.Login(ctx, LoginRequest{Login: "emp", Password: "password123"}, SessionMeta{})
	require.NoError(t, err)

	admin, err := env.roleRepo.FindByName(ctx, model.RoleAdmin)
	require.NoError(t, err)
	_, err = env.users.AssignRole(ctx, env.admin, employee.UserID, admin.ID)
	require.NoError(t, err)

	p, err := env.auth.Authenticate(ctx, res.Token)
	require.NoError(t, err)
	assert.True(t, p.Requester.IsAdmin())
	assert.True(t, p.Requester.Scope.Unrestricted())
}

func TestAuth_ChangePasswordEndsOtherSessions(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	env.newUser(t, "emp", model.RoleEmployee)

	first, err := env.auth.Login(ctx, LoginRequest{Login: "emp", Password: "password123"}, SessionMeta{})
	require.NoError(t, err)
	second, err := env.auth.Login(ctx, LoginRequest{Login: "emp", Password: "password123"}, SessionMeta{})
	require.NoError(t, err)

	p, err := env.auth.Authenticate(ctx, first.Token)
	require.NoError(t, err)

	err = env.auth.ChangePassword(ctx, *p, ChangePasswordRequest{CurrentPassword: "wrong", NewPassword: "newpassword1"})
	assert.ErrorIs(t, err, ErrValidation)

	require.NoError(t, env.auth.ChangePassword(ctx, *p, ChangePasswordRequest{CurrentPassword: "password123", NewPassword: "newpassword1"}))

	_, err = env.auth.Authenticate(ctx, first.Token)
	assert.NoError(t, err)
	_, err = env.auth.Authenticate(ctx, second.Token)
	assert.ErrorIs(t, err, ErrUnauthenticated)

	me, err := env.auth.Me(ctx, p.Requester)
	require.NoError(t, err)
	assert.True(t, me.User.PasswordChanged)

	_, err = env.auth.Login(ctx, LoginRequest{Login: "emp", Password: "newpassword1"}, SessionMeta{})
	assert.NoError(t, err)
}
