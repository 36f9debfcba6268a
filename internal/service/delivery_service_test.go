package service

import (
	"context"
	"testing"

	"logiflow/internal/model"
	"logiflow/internal/reconciliation"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDeliveries_VisibilityFollowsGroupMembership(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	g1 := env.newGroup(t, "Store 1")
	g2 := env.newGroup(t, "Store 2")
	sup := env.newSupplier(t, "Fresh Co")

	inStore1 := env.newDelivery(t, env.admin, g1.ID, sup.ID, nil)
	inStore2 := env.newDelivery(t, env.admin, g2.ID, sup.ID, nil)

	employee := env.newUser(t, "emp2", model.RoleEmployee, g2.ID)

	list, err := env.deliveries.ListDeliveries(ctx, employee, DeliveryListQuery{})
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.Equal(t, inStore2.ID, list[0].ID)

	_, err = env.deliveries.GetDelivery(ctx, employee, inStore1.ID)
	assert.ErrorIs(t, err, ErrNotFound)

	_, err = env.deliveries.UpdateDelivery(ctx, employee, inStore1.ID, UpdateDeliveryRequest{Comments: ptr("mine now")})
	assert.ErrorIs(t, err, ErrForbidden)

	_, err = env.deliveries.CreateDelivery(ctx, employee, CreateDeliveryRequest{
		SupplierID:  sup.ID,
		GroupID:     g1.ID,
		PlannedDate: "2026-03-05",
		Quantity:    1,
		Unit:        model.UnitPalettes,
	})
	assert.ErrorIs(t, err, ErrForbidden)

	all, err := env.deliveries.ListDeliveries(ctx, env.admin, DeliveryListQuery{})
	require.NoError(t, err)
	assert.Len(t, all, 2)
}

func TestDeliveries_EmployeeWithoutGroupsSeesNothing(t *testing.T) {
	env := newTestEnv(t)
	g1 := env.newGroup(t, "Store 1")
	sup := env.newSupplier(t, "Fresh Co")
	env.newDelivery(t, env.admin, g1.ID, sup.ID, nil)

	loner := env.newUser(t, "loner", model.RoleEmployee)
	list, err := env.deliveries.ListDeliveries(context.Background(), loner, DeliveryListQuery{})
	require.NoError(t, err)
	assert.Empty(t, list)
}

func TestDeliveries_EmployeeMayOnlyModifyOwnRows(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	g := env.newGroup(t, "Store 1")
	sup := env.newSupplier(t, "Fresh Co")

	author := env.newUser(t, "author", model.RoleEmployee, g.ID)
	colleague := env.newUser(t, "colleague", model.RoleEmployee, g.ID)
	manager := env.newUser(t, "boss", model.RoleManager, g.ID)

	d := env.newDelivery(t, author, g.ID, sup.ID, nil)

	_, err := env.deliveries.GetDelivery(ctx, colleague, d.ID)
	require.NoError(t, err)

	_, err = env.deliveries.UpdateDelivery(ctx, colleague, d.ID, UpdateDeliveryRequest{Comments: ptr("x")})
	assert.ErrorIs(t, err, ErrForbidden)

	updated, err := env.deliveries.UpdateDelivery(ctx, manager, d.ID, UpdateDeliveryRequest{Comments: ptr("checked")})
	require.NoError(t, err)
	assert.Equal(t, "checked", updated.Comments)

	// Employees lack deliveries.delete even on their own rows
	assert.ErrorIs(t, env.deliveries.DeleteDelivery(ctx, author, d.ID), ErrForbidden)
	require.NoError(t, env.deliveries.DeleteDelivery(ctx, manager, d.ID))

	_, err = env.deliveries.GetDelivery(ctx, manager, d.ID)
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestDeliveries_InvoiceFieldsRequireReconciliationWrite(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	g := env.newGroup(t, "Store 1")
	sup := env.newSupplier(t, "Fresh Co")
	employee := env.newUser(t, "emp", model.RoleEmployee, g.ID)

	ref := "INV-1"
	_, err := env.deliveries.CreateDelivery(ctx, employee, CreateDeliveryRequest{
		SupplierID:       sup.ID,
		GroupID:          g.ID,
		PlannedDate:      "2026-03-05",
		Quantity:         2,
		Unit:             model.UnitColis,
		InvoiceReference: &ref,
	})
	assert.ErrorIs(t, err, ErrForbidden)

	d := env.newDelivery(t, employee, g.ID, sup.ID, nil)
	_, err = env.deliveries.UpdateDelivery(ctx, employee, d.ID, UpdateDeliveryRequest{InvoiceAmount: Amt("10.00")})
	assert.ErrorIs(t, err, ErrForbidden)
}

func TestDeliveries_RejectsInvalidInput(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	g := env.newGroup(t, "Store 1")
	sup := env.newSupplier(t, "Fresh Co")

	_, err := env.deliveries.CreateDelivery(ctx, env.admin, CreateDeliveryRequest{
		SupplierID: sup.ID, GroupID: g.ID, PlannedDate: "2026-03-05", Quantity: 1, Unit: "crates",
	})
	assert.ErrorIs(t, err, ErrValidation)

	_, err = env.deliveries.CreateDelivery(ctx, env.admin, CreateDeliveryRequest{
		SupplierID: sup.ID, GroupID: g.ID, PlannedDate: "05/03/2026", Quantity: 1, Unit: model.UnitColis,
	})
	assert.ErrorIs(t, err, ErrValidation)

	_, err = env.deliveries.CreateDelivery(ctx, env.admin, CreateDeliveryRequest{
		SupplierID: 999, GroupID: g.ID, PlannedDate: "2026-03-05", Quantity: 1, Unit: model.UnitColis,
	})
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestDeliveries_LinkedOrderFollowsLifecycle(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	g := env.newGroup(t, "Store 1")
	sup := env.newSupplier(t, "Fresh Co")
	manager := env.newUser(t, "boss", model.RoleManager, g.ID)

	order := env.newOrder(t, manager, g.ID, sup.ID)
	assert.Equal(t, model.OrderStatusPending, order.Status)

	d := env.newDelivery(t, manager, g.ID, sup.ID, &order.ID)
	require.NotNil(t, d.OrderID)

	got, err := env.orders.GetOrder(ctx, manager, order.ID)
	require.NoError(t, err)
	assert.Equal(t, model.OrderStatusPlanned, got.Status)

	date := "2026-03-06"
	validated, err := env.deliveries.ValidateDelivery(ctx, manager, d.ID, ValidateDeliveryRequest{
		DeliveredDate: &date,
		BLNumber:      Str("BL-7"),
	})
	require.NoError(t, err)
	assert.Equal(t, model.DeliveryStatusDelivered, validated.Status)
	require.NotNil(t, validated.DeliveredDate)
	assert.Equal(t, date, *validated.DeliveredDate)

	got, err = env.orders.GetOrder(ctx, manager, order.ID)
	require.NoError(t, err)
	assert.Equal(t, model.OrderStatusDelivered, got.Status)

	_, err = env.deliveries.ValidateDelivery(ctx, manager, d.ID, ValidateDeliveryRequest{})
	assert.ErrorIs(t, err, ErrConflict)

	assert.Contains(t, env.notifier.Published(), TagOrders)
}

func TestDeliveries_LinkToOrderOfAnotherStoreIsRejected(t *testing.T) {
	env := newTestEnv(t)
	g1 := env.newGroup(t, "Store 1")
	g2 := env.newGroup(t, "Store 2")
	sup := env.newSupplier(t, "Fresh Co")
	order := env.newOrder(t, env.admin, g1.ID, sup.ID)

	_, err := env.deliveries.CreateDelivery(context.Background(), env.admin, CreateDeliveryRequest{
		OrderID:     &order.ID,
		SupplierID:  sup.ID,
		GroupID:     g2.ID,
		PlannedDate: "2026-03-05",
		Quantity:    1,
		Unit:        model.UnitColis,
	})
	assert.ErrorIs(t, err, ErrValidation)
}

func TestReconciliation_BLWalkthrough(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	g := env.newGroup(t, "Store 1")
	sup := env.newSupplier(t, "Fresh Co")
	manager := env.newUser(t, "boss", model.RoleManager, g.ID)

	blNumber := "100"
	created, err := env.deliveries.CreateDelivery(ctx, manager, CreateDeliveryRequest{
		SupplierID:  sup.ID,
		GroupID:     g.ID,
		PlannedDate: "2026-03-05",
		Quantity:    3,
		Unit:        model.UnitPalettes,
		BLNumber:    &blNumber,
		BLAmount:    Amt("120.50").Value,
	})
	require.NoError(t, err)
	assert.Equal(t, reconciliation.StatusAwaiting, created.ReconciliationStatus)

	// Only delivered rows with a BL number are reconciliation candidates
	list, err := env.reconciliation.List(ctx, manager, ListQuery{})
	require.NoError(t, err)
	assert.Empty(t, list.Items)

	_, err = env.deliveries.ValidateDelivery(ctx, manager, created.ID, ValidateDeliveryRequest{})
	require.NoError(t, err)

	list, err = env.reconciliation.List(ctx, manager, ListQuery{})
	require.NoError(t, err)
	require.Len(t, list.Items, 1)
	assert.Equal(t, 1, list.Summary.Counts[reconciliation.StatusAwaiting])
	assert.Equal(t, "120.50", list.Summary.TotalBL)

	_, err = env.reconciliation.Validate(ctx, manager, created.ID)
	assert.ErrorIs(t, err, ErrPrecondition)

	partial, err := env.reconciliation.UpdateInvoice(ctx, manager, created.ID, UpdateInvoiceRequest{InvoiceReference: Str("INV-100")})
	require.NoError(t, err)
	assert.Equal(t, reconciliation.StatusPartialInvoice, partial.ReconciliationStatus)

	ready, err := env.reconciliation.UpdateInvoice(ctx, manager, created.ID, UpdateInvoiceRequest{InvoiceAmount: Amt("100.50")})
	require.NoError(t, err)
	assert.Equal(t, reconciliation.StatusReadyToValidate, ready.ReconciliationStatus)
	assert.Equal(t, reconciliation.BLHigher, ready.VarianceClass)

	done, err := env.reconciliation.Validate(ctx, manager, created.ID)
	require.NoError(t, err)
	assert.True(t, done.Reconciled)
	assert.Equal(t, reconciliation.StatusValidated, done.ReconciliationStatus)

	_, err = env.reconciliation.Validate(ctx, manager, created.ID)
	assert.ErrorIs(t, err, ErrConflict)

	list, err = env.reconciliation.List(ctx, manager, ListQuery{})
	require.NoError(t, err)
	assert.Equal(t, 1, list.Summary.Counts[reconciliation.StatusValidated])
	assert.Equal(t, "20.00", list.Summary.TotalVariance)
}

func TestReconciliation_RejectsDeliveriesOutsideTheList(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	g := env.newGroup(t, "Store 1")
	sup := env.newSupplier(t, "Fresh Co")
	planned := env.newDelivery(t, env.admin, g.ID, sup.ID, nil)

	_, err := env.reconciliation.UpdateInvoice(ctx, env.admin, planned.ID, UpdateInvoiceRequest{
		InvoiceReference: Str("FAC-1"), InvoiceAmount: Amt("10"),
	})
	assert.ErrorIs(t, err, ErrPrecondition)
	_, err = env.reconciliation.Validate(ctx, env.admin, planned.ID)
	assert.ErrorIs(t, err, ErrPrecondition)

	// invoice data may still be typed on the delivery, but it cannot be reconciled there
	_, err = env.deliveries.UpdateDelivery(ctx, env.admin, planned.ID, UpdateDeliveryRequest{
		InvoiceReference: Str("FAC-1"), InvoiceAmount: Amt("10"), Reconciled: ptr(true),
	})
	assert.ErrorIs(t, err, ErrPrecondition)

	stored, err := env.deliveries.GetDelivery(ctx, env.admin, planned.ID)
	require.NoError(t, err)
	assert.False(t, stored.Reconciled)
	assert.Nil(t, stored.InvoiceReference)

	// delivered without a BL number is still outside the list
	_, err = env.deliveries.ValidateDelivery(ctx, env.admin, planned.ID, ValidateDeliveryRequest{})
	require.NoError(t, err)
	_, err = env.reconciliation.UpdateInvoice(ctx, env.admin, planned.ID, UpdateInvoiceRequest{InvoiceReference: Str("FAC-1")})
	assert.ErrorIs(t, err, ErrPrecondition)

	list, err := env.reconciliation.List(ctx, env.admin, ListQuery{})
	require.NoError(t, err)
	assert.Empty(t, list.Items)
}

func TestReconciliation_ReconciledDeliveryKeepsItsBL(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	g := env.newGroup(t, "Store 1")
	sup := env.newSupplier(t, "Fresh Co")
	d := env.newDelivery(t, env.admin, g.ID, sup.ID, nil)
	_, err := env.deliveries.ValidateDelivery(ctx, env.admin, d.ID, ValidateDeliveryRequest{BLNumber: Str("BL-7"), BLAmount: Amt("30")})
	require.NoError(t, err)
	_, err = env.reconciliation.UpdateInvoice(ctx, env.admin, d.ID, UpdateInvoiceRequest{InvoiceReference: Str("FAC-7"), InvoiceAmount: Amt("30")})
	require.NoError(t, err)
	_, err = env.reconciliation.Validate(ctx, env.admin, d.ID)
	require.NoError(t, err)

	_, err = env.deliveries.UpdateDelivery(ctx, env.admin, d.ID, UpdateDeliveryRequest{BLNumber: OptionalString{Set: true}})
	assert.ErrorIs(t, err, ErrPrecondition)

	list, err := env.reconciliation.List(ctx, env.admin, ListQuery{})
	require.NoError(t, err)
	require.Len(t, list.Items, 1)
	assert.Equal(t, reconciliation.StatusValidated, list.Items[0].ReconciliationStatus)
}

func TestReconciliation_UpdateInvoiceRequiresAField(t *testing.T) {
	env := newTestEnv(t)
	_, err := env.reconciliation.UpdateInvoice(context.Background(), env.admin, 1, UpdateInvoiceRequest{})
	assert.ErrorIs(t, err, ErrValidation)
}

func TestReconciliation_ExportProducesWorkbook(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	g := env.newGroup(t, "Store 1")
	sup := env.newSupplier(t, "Fresh Co")
	d := env.newDelivery(t, env.admin, g.ID, sup.ID, nil)
	_, err := env.deliveries.ValidateDelivery(ctx, env.admin, d.ID, ValidateDeliveryRequest{BLNumber: Str("BL-1"), BLAmount: Amt("10")})
	require.NoError(t, err)

	buf, err := env.reconciliation.Export(ctx, env.admin, ListQuery{})
	require.NoError(t, err)
	// xlsx files are zip archives
	assert.Equal(t, "PK", string(buf.Bytes()[:2]))
}

func ptr[T any](v T) *T { return &v }
