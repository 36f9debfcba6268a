package service

import (
	"context"
	"testing"

	"logiflow/internal/model"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestUsers_CreateRejectsDuplicates(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	employee, err := env.roleRepo.FindByName(ctx, model.RoleEmployee)
	require.NoError(t, err)

	_, err = env.users.CreateUser(ctx, env.admin, CreateUserRequest{
		Username: "alice", Email: "alice@example.com", Password: "password123", RoleID: employee.ID,
	})
	require.NoError(t, err)

	_, err = env.users.CreateUser(ctx, env.admin, CreateUserRequest{
		Username: "alice", Email: "other@example.com", Password: "password123", RoleID: employee.ID,
	})
	assert.ErrorIs(t, err, ErrConflict)

	_, err = env.users.CreateUser(ctx, env.admin, CreateUserRequest{
		Username: "alice2", Email: "ALICE@example.com", Password: "password123", RoleID: employee.ID,
	})
	assert.ErrorIs(t, err, ErrConflict)

	_, err = env.users.CreateUser(ctx, env.admin, CreateUserRequest{
		Username: "bob", Email: "bob@example.com", Password: "password123", RoleID: 9999,
	})
	assert.ErrorIs(t, err, ErrValidation)

	_, err = env.users.CreateUser(ctx, env.admin, CreateUserRequest{
		Username: "carol", Email: "carol@example.com", Password: "password123", RoleID: employee.ID, GroupIDs: []uint{42},
	})
	assert.ErrorIs(t, err, ErrValidation)
}

func TestUsers_AssignRoleRefreshesRoleColumn(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	employee := env.newUser(t, "emp", model.RoleEmployee)
	manager, err := env.roleRepo.FindByName(ctx, model.RoleManager)
	require.NoError(t, err)

	res, err := env.users.AssignRole(ctx, env.admin, employee.UserID, manager.ID)
	require.NoError(t, err)
	assert.Equal(t, model.RoleManager, res.Role)

	stored, err := env.users.GetUserByID(ctx, employee.UserID)
	require.NoError(t, err)
	assert.Equal(t, model.RoleManager, stored.Role)

	ur, err := env.roleRepo.FindUserRole(ctx, employee.UserID)
	require.NoError(t, err)
	assert.Equal(t, manager.ID, ur.RoleID)

	codes, err := env.roleRepo.PermissionCodesForUser(ctx, employee.UserID)
	require.NoError(t, err)
	assert.Contains(t, codes, PermDeliveriesDelete)

	_, err = env.users.AssignRole(ctx, env.admin, employee.UserID, 9999)
	assert.ErrorIs(t, err, ErrValidation)
}

func TestUsers_AdminCannotDemoteOrDeleteSelf(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	admin := env.newUser(t, "root", model.RoleAdmin)
	employee, err := env.roleRepo.FindByName(ctx, model.RoleEmployee)
	require.NoError(t, err)

	_, err = env.users.AssignRole(ctx, admin, admin.UserID, employee.ID)
	assert.ErrorIs(t, err, ErrConflict)

	assert.ErrorIs(t, env.users.DeleteUser(ctx, admin, admin.UserID), ErrConflict)
}

func TestUsers_ReplaceGroups(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	g1 := env.newGroup(t, "Store 1")
	g2 := env.newGroup(t, "Store 2")
	employee := env.newUser(t, "emp", model.RoleEmployee, g1.ID)

	ids, err := env.users.ReplaceUserGroups(ctx, env.admin, employee.UserID, []uint{g2.ID, g1.ID, g2.ID})
	require.NoError(t, err)
	assert.Equal(t, []uint{g1.ID, g2.ID}, ids)

	ids, err = env.users.ReplaceUserGroups(ctx, env.admin, employee.UserID, nil)
	require.NoError(t, err)
	assert.Empty(t, ids)

	stored, err := env.users.GetUserGroups(ctx, employee.UserID)
	require.NoError(t, err)
	assert.Empty(t, stored)

	_, err = env.users.ReplaceUserGroups(ctx, env.admin, employee.UserID, []uint{999})
	assert.ErrorIs(t, err, ErrValidation)

	_, err = env.users.ReplaceUserGroups(ctx, env.admin, "missing", []uint{g1.ID})
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestUsers_DeleteKeepsAuditTrail(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	g := env.newGroup(t, "Store 1")
	sup := env.newSupplier(t, "Fresh Co")
	manager := env.newUser(t, "boss", model.RoleManager, g.ID)
	order := env.newOrder(t, manager, g.ID, sup.ID)
	require.NoError(t, env.orders.DeleteOrder(ctx, manager, order.ID))

	require.NoError(t, env.users.DeleteUser(ctx, env.admin, manager.UserID))
	_, err := env.users.GetUserByID(ctx, manager.UserID)
	assert.ErrorIs(t, err, ErrNotFound)

	logs, _, err := env.audit.GetAuditLogs(ctx, AuditQuery{EntityType: "order"}, 1, 10)
	require.NoError(t, err)
	require.Len(t, logs, 2)
	assert.Empty(t, logs[0].UserID)
	assert.Equal(t, "System", logs[0].Username)
}

func TestUsers_ListIsPaginated(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	env.newUser(t, "u1", model.RoleEmployee)
	env.newUser(t, "u2", model.RoleEmployee)
	env.newUser(t, "u3", model.RoleEmployee)

	page, total, err := env.users.ListUsers(ctx, 2, 2)
	require.NoError(t, err)
	assert.EqualValues(t, 3, total)
	assert.Len(t, page, 1)
}
