package service

import (
	"context"
	"testing"

	"logiflow/internal/model"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestOrders_StatusOnlyMovesForward(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	g := env.newGroup(t, "Store 1")
	sup := env.newSupplier(t, "Fresh Co")
	order := env.newOrder(t, env.admin, g.ID, sup.ID)

	delivered := model.OrderStatusDelivered
	got, err := env.orders.UpdateOrder(ctx, env.admin, order.ID, UpdateOrderRequest{Status: &delivered})
	require.NoError(t, err)
	assert.Equal(t, model.OrderStatusDelivered, got.Status)

	pending := model.OrderStatusPending
	_, err = env.orders.UpdateOrder(ctx, env.admin, order.ID, UpdateOrderRequest{Status: &pending})
	assert.ErrorIs(t, err, ErrInvalidTransition)

	bogus := "shipped"
	_, err = env.orders.UpdateOrder(ctx, env.admin, order.ID, UpdateOrderRequest{Status: &bogus})
	assert.ErrorIs(t, err, ErrValidation)
}

func TestOrders_CreateValidatesQuantityAndUnit(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	g := env.newGroup(t, "Store 1")
	sup := env.newSupplier(t, "Fresh Co")

	zero := 0
	_, err := env.orders.CreateOrder(ctx, env.admin, CreateOrderRequest{
		SupplierID: sup.ID, GroupID: g.ID, PlannedDate: "2026-03-02", Quantity: &zero, Unit: model.UnitColis,
	})
	assert.ErrorIs(t, err, ErrValidation)

	qty := 2
	_, err = env.orders.CreateOrder(ctx, env.admin, CreateOrderRequest{
		SupplierID: sup.ID, GroupID: g.ID, PlannedDate: "2026-03-02", Quantity: &qty, Unit: "boxes",
	})
	assert.ErrorIs(t, err, ErrValidation)

	_, err = env.orders.CreateOrder(ctx, env.admin, CreateOrderRequest{
		SupplierID: sup.ID, GroupID: 0, PlannedDate: "2026-03-02", Quantity: &qty, Unit: model.UnitColis,
	})
	assert.ErrorIs(t, err, ErrValidation)
}

func TestOrders_ScopeFiltersListAndStoreNarrowing(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	g1 := env.newGroup(t, "Store 1")
	g2 := env.newGroup(t, "Store 2")
	g3 := env.newGroup(t, "Store 3")
	sup := env.newSupplier(t, "Fresh Co")
	env.newOrder(t, env.admin, g1.ID, sup.ID)
	inG2 := env.newOrder(t, env.admin, g2.ID, sup.ID)
	env.newOrder(t, env.admin, g3.ID, sup.ID)

	manager := env.newUser(t, "boss", model.RoleManager, g1.ID, g2.ID)

	list, err := env.orders.ListOrders(ctx, manager, ListQuery{})
	require.NoError(t, err)
	assert.Len(t, list, 2)

	list, err = env.orders.ListOrders(ctx, manager, ListQuery{StoreID: &g2.ID})
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.Equal(t, inG2.ID, list[0].ID)

	// Asking for a store outside the scope yields nothing rather than an error
	list, err = env.orders.ListOrders(ctx, manager, ListQuery{StoreID: &g3.ID})
	require.NoError(t, err)
	assert.Empty(t, list)

	list, err = env.orders.ListOrders(ctx, env.admin, ListQuery{StoreID: &g3.ID})
	require.NoError(t, err)
	assert.Len(t, list, 1)
}

func TestOrders_ForeignRowsHiddenOnReadForbiddenOnWrite(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	g1 := env.newGroup(t, "Store 1")
	g2 := env.newGroup(t, "Store 2")
	sup := env.newSupplier(t, "Fresh Co")
	foreign := env.newOrder(t, env.admin, g1.ID, sup.ID)

	employee := env.newUser(t, "emp", model.RoleEmployee, g2.ID)

	_, err := env.orders.GetOrder(ctx, employee, foreign.ID)
	assert.ErrorIs(t, err, ErrNotFound)

	comments := "hijack"
	_, err = env.orders.UpdateOrder(ctx, employee, foreign.ID, UpdateOrderRequest{Comments: &comments})
	assert.ErrorIs(t, err, ErrForbidden)

	assert.ErrorIs(t, env.orders.DeleteOrder(ctx, employee, foreign.ID), ErrForbidden)

	// Moving an own order into a foreign store is refused as well
	own := env.newOrder(t, employee, g2.ID, sup.ID)
	_, err = env.orders.UpdateOrder(ctx, employee, own.ID, UpdateOrderRequest{GroupID: &g1.ID})
	assert.ErrorIs(t, err, ErrForbidden)

	require.NoError(t, env.orders.DeleteOrder(ctx, employee, own.ID))
}

func TestOrders_WritesAreAudited(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	g := env.newGroup(t, "Store 1")
	sup := env.newSupplier(t, "Fresh Co")
	manager := env.newUser(t, "boss", model.RoleManager, g.ID)
	order := env.newOrder(t, manager, g.ID, sup.ID)
	require.NoError(t, env.orders.DeleteOrder(ctx, manager, order.ID))

	logs, total, err := env.audit.GetAuditLogs(ctx, AuditQuery{EntityType: "order"}, 1, 20)
	require.NoError(t, err)
	assert.EqualValues(t, 2, total)
	require.Len(t, logs, 2)
	actions := []string{logs[0].Action, logs[1].Action}
	assert.ElementsMatch(t, []string{model.ActionCreateOrder, model.ActionDeleteOrder}, actions)
	assert.Equal(t, manager.UserID, logs[0].UserID)
	assert.Equal(t, "boss", logs[0].Username)
}
