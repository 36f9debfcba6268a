package service

import (
	"context"
	"sync"
	"testing"
	"time"

	"logiflow/internal/access"
	"logiflow/internal/database"
	"logiflow/internal/model"
	"logiflow/internal/repository"

	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

type recordingNotifier struct {
	mu   sync.Mutex
	tags []string
}

func (n *recordingNotifier) Publish(tags ...string) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.tags = append(n.tags, tags...)
}

func (n *recordingNotifier) Published() []string {
	n.mu.Lock()
	defer n.mu.Unlock()
	return append([]string(nil), n.tags...)
}

type testEnv struct {
	db       *gorm.DB
	notifier *recordingNotifier

	roleRepo   repository.RoleRepository
	memberRepo repository.UserGroupRepository

	auth           AuthService
	users          UserService
	roles          RoleService
	groups         GroupService
	suppliers      SupplierService
	orders         OrderService
	deliveries     DeliveryService
	reconciliation ReconciliationService
	dlc            DlcService
	stats          StatisticsService
	audit          AuditService

	admin access.Requester
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	db, err := gorm.Open(sqlite.Open("file:"+t.Name()+"?mode=memory&cache=shared"), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)
	require.NoError(t, database.Migrate(db))

	userRepo := repository.NewUserRepository(db)
	roleRepo := repository.NewRoleRepository(db)
	groupRepo := repository.NewGroupRepository(db)
	memberRepo := repository.NewUserGroupRepository(db)
	supplierRepo := repository.NewSupplierRepository(db)
	orderRepo := repository.NewOrderRepository(db)
	deliveryRepo := repository.NewDeliveryRepository(db)
	dlcRepo := repository.NewDlcRepository(db)
	sessionRepo := repository.NewSessionRepository(db)
	auditRepo := repository.NewAuditRepository(db)
	txManager := repository.NewTransactionManager(db)
	notifier := &recordingNotifier{}

	env := &testEnv{db: db, notifier: notifier, roleRepo: roleRepo, memberRepo: memberRepo}
	env.auth = NewAuthService(userRepo, sessionRepo, roleRepo, memberRepo, "test-secret", time.Hour)
	env.users = NewUserService(userRepo, roleRepo, groupRepo, memberRepo, auditRepo, txManager, notifier)
	env.roles = NewRoleService(roleRepo, userRepo, auditRepo, txManager, notifier)
	env.groups = NewGroupService(groupRepo, memberRepo, auditRepo, txManager, notifier)
	env.suppliers = NewSupplierService(supplierRepo, notifier)
	env.orders = NewOrderService(orderRepo, groupRepo, supplierRepo, auditRepo, txManager, notifier)
	env.deliveries = NewDeliveryService(deliveryRepo, orderRepo, groupRepo, supplierRepo, auditRepo, txManager, notifier)
	env.reconciliation = NewReconciliationService(deliveryRepo, auditRepo, txManager, env.deliveries, notifier)
	env.dlc = NewDlcService(dlcRepo, groupRepo, supplierRepo, auditRepo, txManager, notifier, 3)
	env.stats = NewStatisticsService(orderRepo, deliveryRepo, env.reconciliation, env.dlc)
	env.audit = NewAuditService(auditRepo)

	require.NoError(t, env.roles.SeedDefaults(context.Background()))
	env.admin = access.NewRequester("", model.RoleAdmin, nil, nil)
	return env
}

// newUser creates an account with a system role and returns the requester it would authenticate as
func (e *testEnv) newUser(t *testing.T, username, roleName string, groupIDs ...uint) access.Requester {
	t.Helper()
	ctx := context.Background()
	role, err := e.roleRepo.FindByName(ctx, roleName)
	require.NoError(t, err)

	user, err := e.users.CreateUser(ctx, e.admin, CreateUserRequest{
		Username: username,
		Email:    username + "@example.com",
		Name:     username,
		Password: "password123",
		RoleID:   role.ID,
		GroupIDs: groupIDs,
	})
	require.NoError(t, err)

	perms, err := e.roleRepo.PermissionCodesForUser(ctx, user.ID)
	require.NoError(t, err)
	memberships, err := e.memberRepo.GroupIDsForUser(ctx, user.ID)
	require.NoError(t, err)
	return access.NewRequester(user.ID, roleName, perms, memberships)
}

func (e *testEnv) newGroup(t *testing.T, name string) *model.Group {
	t.Helper()
	g, err := e.groups.CreateGroup(context.Background(), e.admin, CreateGroupRequest{Name: name})
	require.NoError(t, err)
	return g
}

func (e *testEnv) newSupplier(t *testing.T, name string) *model.Supplier {
	t.Helper()
	s, err := e.suppliers.CreateSupplier(context.Background(), SupplierRequest{Name: name, HasDlc: true})
	require.NoError(t, err)
	return s
}

func (e *testEnv) newOrder(t *testing.T, actor access.Requester, groupID, supplierID uint) *OrderResponse {
	t.Helper()
	qty := 4
	o, err := e.orders.CreateOrder(context.Background(), actor, CreateOrderRequest{
		SupplierID:  supplierID,
		GroupID:     groupID,
		PlannedDate: "2026-03-02",
		Quantity:    &qty,
		Unit:        model.UnitPalettes,
	})
	require.NoError(t, err)
	return o
}

func (e *testEnv) newDelivery(t *testing.T, actor access.Requester, groupID, supplierID uint, orderID *uint) *DeliveryResponse {
	t.Helper()
	d, err := e.deliveries.CreateDelivery(context.Background(), actor, CreateDeliveryRequest{
		OrderID:     orderID,
		SupplierID:  supplierID,
		GroupID:     groupID,
		PlannedDate: "2026-03-05",
		Quantity:    6,
		Unit:        model.UnitColis,
	})
	require.NoError(t, err)
	return d
}
