package service

import (
	"context"
	"testing"

	"logiflow/internal/model"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func permissionIDsByCode(t *testing.T, env *testEnv, codes ...string) []uint {
	t.Helper()
	perms, err := env.roleRepo.ListPermissions(context.Background())
	require.NoError(t, err)
	byCode := make(map[string]uint, len(perms))
	for _, p := range perms {
		byCode[p.Name] = p.ID
	}
	ids := make([]uint, 0, len(codes))
	for _, c := range codes {
		id, ok := byCode[c]
		require.True(t, ok, "permission %s not seeded", c)
		ids = append(ids, id)
	}
	return ids
}

func TestDiffIDs(t *testing.T) {
	added, removed := diffIDs([]uint{1, 2, 3}, []uint{2, 3, 4, 5})
	assert.Equal(t, []uint{4, 5}, added)
	assert.Equal(t, []uint{1}, removed)

	added, removed = diffIDs([]uint{1, 2}, []uint{1, 2})
	assert.Empty(t, added)
	assert.Empty(t, removed)
}

func TestRoles_SeedDefaultsIsIdempotent(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	require.NoError(t, env.roles.SeedDefaults(ctx))

	roles, err := env.roles.ListRoles(ctx)
	require.NoError(t, err)
	require.Len(t, roles, len(SystemRoles))
	for _, r := range roles {
		assert.True(t, r.IsSystem, r.Name)
	}

	categories, err := env.roles.ListPermissions(ctx)
	require.NoError(t, err)
	total := 0
	for _, c := range categories {
		total += len(c.Permissions)
	}
	assert.Equal(t, len(DefaultPermissions), total)
}

func TestRoles_UpdatePermissionsAppliesDiff(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	role, err := env.roles.CreateRole(ctx, env.admin, CreateRoleRequest{
		Name:          "auditor",
		DisplayName:   "Auditor",
		PermissionIDs: permissionIDsByCode(t, env, PermAuditRead, PermOrdersRead),
	})
	require.NoError(t, err)
	assert.Len(t, role.Permissions, 2)

	updated, err := env.roles.UpdateRolePermissions(ctx, env.admin, role.ID,
		permissionIDsByCode(t, env, PermOrdersRead, PermDeliveriesRead, PermDeliveriesRead))
	require.NoError(t, err)
	codes := make([]string, 0, len(updated.Permissions))
	for _, p := range updated.Permissions {
		codes = append(codes, p.Code)
	}
	assert.ElementsMatch(t, []string{PermOrdersRead, PermDeliveriesRead}, codes)

	_, err = env.roles.UpdateRolePermissions(ctx, env.admin, role.ID, []uint{99999})
	assert.ErrorIs(t, err, ErrValidation)

	_, err = env.roles.UpdateRolePermissions(ctx, env.admin, 99999, nil)
	assert.ErrorIs(t, err, ErrNotFound)

	logs, _, err := env.audit.GetAuditLogs(ctx, AuditQuery{EntityType: "role"}, 1, 10)
	require.NoError(t, err)
	require.NotEmpty(t, logs)
	assert.Equal(t, model.ActionUpdateRolePerms, logs[0].Action)
	assert.Contains(t, logs[0].Details, `"added"`)
}

func TestRoles_PermissionChangeReachesAuthenticatedUsers(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	role, err := env.roles.CreateRole(ctx, env.admin, CreateRoleRequest{Name: "viewer", DisplayName: "Viewer"})
	require.NoError(t, err)

	user, err := env.users.CreateUser(ctx, env.admin, CreateUserRequest{
		Username: "viewer1", Email: "viewer1@example.com", Password: "password123", RoleID: role.ID,
	})
	require.NoError(t, err)

	codes, err := env.roleRepo.PermissionCodesForUser(ctx, user.ID)
	require.NoError(t, err)
	assert.Empty(t, codes)

	_, err = env.roles.UpdateRolePermissions(ctx, env.admin, role.ID, permissionIDsByCode(t, env, PermDlcRead))
	require.NoError(t, err)

	codes, err = env.roleRepo.PermissionCodesForUser(ctx, user.ID)
	require.NoError(t, err)
	assert.Equal(t, []string{PermDlcRead}, codes)
}

func TestRoles_CreateAndDeleteRules(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	_, err := env.roles.CreateRole(ctx, env.admin, CreateRoleRequest{Name: "Bad Name", DisplayName: "Bad"})
	assert.ErrorIs(t, err, ErrValidation)

	_, err = env.roles.CreateRole(ctx, env.admin, CreateRoleRequest{Name: model.RoleManager, DisplayName: "Dup"})
	assert.ErrorIs(t, err, ErrConflict)

	admin, err := env.roleRepo.FindByName(ctx, model.RoleAdmin)
	require.NoError(t, err)
	assert.ErrorIs(t, env.roles.DeleteRole(ctx, admin.ID), ErrConflict)

	custom, err := env.roles.CreateRole(ctx, env.admin, CreateRoleRequest{Name: "temp", DisplayName: "Temp"})
	require.NoError(t, err)
	_, err = env.users.CreateUser(ctx, env.admin, CreateUserRequest{
		Username: "temp1", Email: "temp1@example.com", Password: "password123", RoleID: custom.ID,
	})
	require.NoError(t, err)
	assert.ErrorIs(t, env.roles.DeleteRole(ctx, custom.ID), ErrConflict)

	unused, err := env.roles.CreateRole(ctx, env.admin, CreateRoleRequest{Name: "unused", DisplayName: "Unused"})
	require.NoError(t, err)
	require.NoError(t, env.roles.DeleteRole(ctx, unused.ID))
	_, err = env.roles.GetRole(ctx, unused.ID)
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestRoles_EnsureAdminOnlyOnEmptyDatabase(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	_, err := env.roles.EnsureAdmin(ctx, "admin", "admin@example.com", "short")
	assert.ErrorIs(t, err, ErrValidation)

	created, err := env.roles.EnsureAdmin(ctx, "admin", "Admin@Example.com", "password123")
	require.NoError(t, err)
	assert.True(t, created)

	created, err = env.roles.EnsureAdmin(ctx, "admin2", "admin2@example.com", "password123")
	require.NoError(t, err)
	assert.False(t, created)

	res, err := env.auth.Login(ctx, LoginRequest{Login: "admin@example.com", Password: "password123"}, SessionMeta{})
	require.NoError(t, err)
	assert.Equal(t, model.RoleAdmin, res.Profile.Role)
	assert.True(t, res.Profile.AllGroups)
}
