package service

import (
	"context"
	"testing"
	"time"

	"logiflow/internal/model"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func fixClock(env *testEnv, day time.Time) {
	env.dlc.(*dlcService).now = func() time.Time { return day }
}

func TestDlc_EffectiveStatusAndStats(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	fixClock(env, time.Date(2026, 3, 10, 9, 0, 0, 0, time.UTC))
	g := env.newGroup(t, "Store 1")
	sup := env.newSupplier(t, "Dairy Co")

	create := func(name, date string) *DlcResponse {
		p, err := env.dlc.CreateProduct(ctx, env.admin, CreateDlcRequest{
			ProductName: name, SupplierID: sup.ID, GroupID: g.ID, DlcDate: date,
		})
		require.NoError(t, err)
		return p
	}

	expired := create("Yogurt", "2026-03-09")
	soon := create("Cheese", "2026-03-13")
	active := create("Butter", "2026-04-01")

	assert.Equal(t, model.DlcStatusExpired, expired.Status)
	assert.Equal(t, model.DlcStatusExpiresSoon, soon.Status)
	assert.Equal(t, 3, soon.DaysLeft)
	assert.Equal(t, model.DlcStatusActive, active.Status)
	assert.Equal(t, 1, active.Quantity)
	assert.Equal(t, model.UnitColis, active.Unit)

	validated, err := env.dlc.ValidateProduct(ctx, env.admin, expired.ID)
	require.NoError(t, err)
	assert.Equal(t, model.DlcStatusValidated, validated.Status)
	require.NotNil(t, validated.ValidatedAt)

	_, err = env.dlc.ValidateProduct(ctx, env.admin, expired.ID)
	assert.ErrorIs(t, err, ErrConflict)

	stats, err := env.dlc.Stats(ctx, env.admin, nil)
	require.NoError(t, err)
	assert.Equal(t, model.DlcStats{Active: 1, ExpiresSoon: 1, Expired: 0, Validated: 1}, *stats)

	list, err := env.dlc.ListProducts(ctx, env.admin, DlcListQuery{Status: model.DlcStatusExpiresSoon})
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.Equal(t, soon.ID, list[0].ID)

	_, err = env.dlc.ListProducts(ctx, env.admin, DlcListQuery{Status: "rotten"})
	assert.ErrorIs(t, err, ErrValidation)
}

func TestDlc_ScopeAndOwnership(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	g1 := env.newGroup(t, "Store 1")
	g2 := env.newGroup(t, "Store 2")
	sup := env.newSupplier(t, "Dairy Co")
	author := env.newUser(t, "author", model.RoleEmployee, g1.ID)
	colleague := env.newUser(t, "colleague", model.RoleEmployee, g1.ID)
	outsider := env.newUser(t, "outsider", model.RoleEmployee, g2.ID)

	p, err := env.dlc.CreateProduct(ctx, author, CreateDlcRequest{
		ProductName: "Milk", SupplierID: sup.ID, GroupID: g1.ID, DlcDate: "2030-01-01",
	})
	require.NoError(t, err)

	_, err = env.dlc.GetProduct(ctx, outsider, p.ID)
	assert.ErrorIs(t, err, ErrNotFound)

	_, err = env.dlc.ValidateProduct(ctx, colleague, p.ID)
	assert.ErrorIs(t, err, ErrForbidden)

	assert.ErrorIs(t, env.dlc.DeleteProduct(ctx, outsider, p.ID), ErrForbidden)

	stats, err := env.dlc.Stats(ctx, outsider, nil)
	require.NoError(t, err)
	assert.Zero(t, stats.Active)

	require.NoError(t, env.dlc.DeleteProduct(ctx, author, p.ID))
}

func TestStatistics_DashboardIsScoped(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	g1 := env.newGroup(t, "Store 1")
	g2 := env.newGroup(t, "Store 2")
	sup := env.newSupplier(t, "Fresh Co")

	env.newOrder(t, env.admin, g1.ID, sup.ID)
	env.newOrder(t, env.admin, g2.ID, sup.ID)
	d := env.newDelivery(t, env.admin, g1.ID, sup.ID, nil)
	_, err := env.deliveries.ValidateDelivery(ctx, env.admin, d.ID, ValidateDeliveryRequest{BLNumber: Str("BL-9"), BLAmount: Amt("55.10")})
	require.NoError(t, err)
	env.newDelivery(t, env.admin, g2.ID, sup.ID, nil)

	manager := env.newUser(t, "boss", model.RoleManager, g1.ID)
	stats, err := env.stats.GetDashboard(ctx, manager, ListQuery{})
	require.NoError(t, err)
	assert.EqualValues(t, 1, stats.OrdersByStatus[model.OrderStatusPending])
	assert.EqualValues(t, 0, stats.OrdersByStatus[model.OrderStatusDelivered])
	assert.EqualValues(t, 1, stats.DeliveriesByStatus[model.DeliveryStatusDelivered])
	assert.EqualValues(t, 0, stats.DeliveriesByStatus[model.DeliveryStatusPlanned])
	assert.Equal(t, "55.10", stats.TotalBLAmount)

	all, err := env.stats.GetDashboard(ctx, env.admin, ListQuery{})
	require.NoError(t, err)
	assert.EqualValues(t, 2, all.OrdersByStatus[model.OrderStatusPending])
	assert.EqualValues(t, 1, all.DeliveriesByStatus[model.DeliveryStatusPlanned])

	_, err = env.stats.GetDashboard(ctx, env.admin, ListQuery{StartDate: "yesterday"})
	assert.ErrorIs(t, err, ErrValidation)
}
