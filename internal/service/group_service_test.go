package service

import (
	"context"
	"testing"

	"logiflow/internal/access"
	"logiflow/internal/model"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGroups_ManagerJoinsCreatedStore(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	existing := env.newGroup(t, "Store 1")
	manager := env.newUser(t, "boss", model.RoleManager, existing.ID)

	created, err := env.groups.CreateGroup(ctx, manager, CreateGroupRequest{Name: "  Store 2 ", Color: "#ab12cd"})
	require.NoError(t, err)
	assert.Equal(t, "Store 2", created.Name)
	assert.Equal(t, "#AB12CD", created.Color)

	ids, err := env.memberRepo.GroupIDsForUser(ctx, manager.UserID)
	require.NoError(t, err)
	assert.ElementsMatch(t, []uint{existing.ID, created.ID}, ids)

	// A fresh requester picks the new membership up
	refreshed := access.NewRequester(manager.UserID, manager.Role, manager.Permissions, ids)
	mine, err := env.groups.ListGroups(ctx, refreshed, true)
	require.NoError(t, err)
	assert.Len(t, mine, 2)
}

func TestGroups_ListMineOnly(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	g1 := env.newGroup(t, "Store 1")
	env.newGroup(t, "Store 2")
	employee := env.newUser(t, "emp", model.RoleEmployee, g1.ID)

	all, err := env.groups.ListGroups(ctx, employee, false)
	require.NoError(t, err)
	assert.Len(t, all, 2)

	mine, err := env.groups.ListGroups(ctx, employee, true)
	require.NoError(t, err)
	require.Len(t, mine, 1)
	assert.Equal(t, g1.ID, mine[0].ID)

	loner := env.newUser(t, "loner", model.RoleEmployee)
	mine, err = env.groups.ListGroups(ctx, loner, true)
	require.NoError(t, err)
	assert.Empty(t, mine)

	mine, err = env.groups.ListGroups(ctx, env.admin, true)
	require.NoError(t, err)
	assert.Len(t, mine, 2)
}

func TestGroups_DefaultsAndValidation(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	g, err := env.groups.CreateGroup(ctx, env.admin, CreateGroupRequest{Name: "Depot"})
	require.NoError(t, err)
	assert.Equal(t, model.DefaultGroupColor, g.Color)

	_, err = env.groups.CreateGroup(ctx, env.admin, CreateGroupRequest{Name: "Depot", Color: "blue"})
	assert.ErrorIs(t, err, ErrValidation)

	_, err = env.groups.CreateGroup(ctx, env.admin, CreateGroupRequest{Name: "   "})
	assert.ErrorIs(t, err, ErrValidation)
}

func TestGroups_DeleteBlockedByReferences(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	g := env.newGroup(t, "Store 1")
	other := env.newGroup(t, "Store 2")
	sup := env.newSupplier(t, "Fresh Co")
	order := env.newOrder(t, env.admin, g.ID, sup.ID)

	assert.ErrorIs(t, env.groups.DeleteGroup(ctx, env.admin, g.ID), ErrConflict)

	manager := env.newUser(t, "boss", model.RoleManager, g.ID)
	assert.ErrorIs(t, env.groups.DeleteGroup(ctx, manager, other.ID), ErrForbidden)

	require.NoError(t, env.orders.DeleteOrder(ctx, env.admin, order.ID))
	require.NoError(t, env.groups.DeleteGroup(ctx, manager, g.ID))

	ids, err := env.memberRepo.GroupIDsForUser(ctx, manager.UserID)
	require.NoError(t, err)
	assert.Empty(t, ids)

	assert.ErrorIs(t, env.groups.DeleteGroup(ctx, env.admin, 9999), ErrNotFound)
}

func TestGroups_UpdateOutsideScopeForbidden(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	g1 := env.newGroup(t, "Store 1")
	g2 := env.newGroup(t, "Store 2")
	manager := env.newUser(t, "boss", model.RoleManager, g1.ID)

	name := "Renamed"
	_, err := env.groups.UpdateGroup(ctx, manager, g2.ID, UpdateGroupRequest{Name: &name})
	assert.ErrorIs(t, err, ErrForbidden)

	updated, err := env.groups.UpdateGroup(ctx, manager, g1.ID, UpdateGroupRequest{Name: &name})
	require.NoError(t, err)
	assert.Equal(t, "Renamed", updated.Name)
	assert.Contains(t, env.notifier.Published(), TagGroups)
}
