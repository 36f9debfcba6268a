package service

import (
	"context"
	"fmt"
	"strings"

	"logiflow/internal/access"
	"logiflow/internal/model"
	"logiflow/internal/repository"
)

// --- DTOs ---

type CreateOrderRequest struct {
	SupplierID  uint   `json:"supplierId" binding:"required"`
	GroupID     uint   `json:"groupId" binding:"required"`
	PlannedDate string `json:"plannedDate" binding:"required"`
	Quantity    *int   `json:"quantity" binding:"required,gt=0"`
	Unit        string `json:"unit" binding:"required,unit"`
	Comments    string `json:"comments"`
}

type UpdateOrderRequest struct {
	SupplierID  *uint   `json:"supplierId"`
	GroupID     *uint   `json:"groupId"`
	PlannedDate *string `json:"plannedDate"`
	Quantity    *int    `json:"quantity" binding:"omitempty,gt=0"`
	Unit        *string `json:"unit" binding:"omitempty,unit"`
	Status      *string `json:"status"`
	Comments    *string `json:"comments"`
}

// ListQuery holds the shared list filters of orders, deliveries and reconciliation
type ListQuery struct {
	StoreID    *uint  `form:"storeId"`
	StartDate  string `form:"startDate"`
	EndDate    string `form:"endDate"`
	Status     string `form:"status"`
	SupplierID *uint  `form:"supplierId"`
}

func (q ListQuery) dateRange() (repository.DateRange, error) {
	from, err := parseOptionalDate("startDate", &q.StartDate)
	if err != nil {
		return repository.DateRange{}, err
	}
	to, err := parseOptionalDate("endDate", &q.EndDate)
	if err != nil {
		return repository.DateRange{}, err
	}
	if from != nil && to != nil && to.Before(*from) {
		return repository.DateRange{}, validationf("endDate must not be before startDate")
	}
	return repository.DateRange{From: from, To: to}, nil
}

type OrderResponse struct {
	ID          uint            `json:"id"`
	SupplierID  uint            `json:"supplierId"`
	Supplier    *model.Supplier `json:"supplier,omitempty"`
	GroupID     uint            `json:"groupId"`
	Group       *model.Group    `json:"group,omitempty"`
	PlannedDate string          `json:"plannedDate"`
	Quantity    *int            `json:"quantity"`
	Unit        string          `json:"unit"`
	Status      string          `json:"status"`
	Comments    string          `json:"comments"`
	CreatedBy   string          `json:"createdBy"`
	CreatedAt   string          `json:"createdAt"`
	UpdatedAt   string          `json:"updatedAt"`
}

func toOrderResponse(o *model.Order) OrderResponse {
	return OrderResponse{
		ID:          o.ID,
		SupplierID:  o.SupplierID,
		Supplier:    o.Supplier,
		GroupID:     o.GroupID,
		Group:       o.Group,
		PlannedDate: formatDate(o.PlannedDate),
		Quantity:    o.Quantity,
		Unit:        o.Unit,
		Status:      o.Status,
		Comments:    o.Comments,
		CreatedBy:   o.CreatedBy,
		CreatedAt:   o.CreatedAt.Format("2006-01-02T15:04:05Z07:00"),
		UpdatedAt:   o.UpdatedAt.Format("2006-01-02T15:04:05Z07:00"),
	}
}

// --- Interface ---

type OrderService interface {
	ListOrders(ctx context.Context, actor access.Requester, q ListQuery) ([]OrderResponse, error)
	GetOrder(ctx context.Context, actor access.Requester, id uint) (*OrderResponse, error)
	CreateOrder(ctx context.Context, actor access.Requester, req CreateOrderRequest) (*OrderResponse, error)
	UpdateOrder(ctx context.Context, actor access.Requester, id uint, req UpdateOrderRequest) (*OrderResponse, error)
	DeleteOrder(ctx context.Context, actor access.Requester, id uint) error
}

type orderService struct {
	repo      repository.OrderRepository
	auditRepo repository.AuditRepository
	txManager repository.TransactionManager
	refs      references
	notifier  Notifier
}

func NewOrderService(
	repo repository.OrderRepository,
	groupRepo repository.GroupRepository,
	supplierRepo repository.SupplierRepository,
	auditRepo repository.AuditRepository,
	txManager repository.TransactionManager,
	notifier Notifier,
) OrderService {
	return &orderService{
		repo:      repo,
		auditRepo: auditRepo,
		txManager: txManager,
		refs:      references{groupRepo: groupRepo, supplierRepo: supplierRepo},
		notifier:  notifierOrNoop(notifier),
	}
}

// --- Implementation ---

func (s *orderService) ListOrders(ctx context.Context, actor access.Requester, q ListQuery) ([]OrderResponse, error) {
	planned, err := q.dateRange()
	if err != nil {
		return nil, err
	}
	if q.Status != "" && !model.ValidOrderStatus(q.Status) {
		return nil, validationf("unknown order status '%s'", q.Status)
	}

	orders, err := s.repo.List(ctx, repository.OrderFilter{
		Scope:      actor.Scope.Narrow(q.StoreID),
		Planned:    planned,
		Status:     q.Status,
		SupplierID: q.SupplierID,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to fetch orders: %w", err)
	}

	res := make([]OrderResponse, 0, len(orders))
	for i := range orders {
		res = append(res, toOrderResponse(&orders[i]))
	}
	return res, nil
}

func (s *orderService) load(ctx context.Context, actor access.Requester, id uint) (*model.Order, error) {
	order, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, notFound(err, "order")
	}
	if err := visible(actor, order, "order"); err != nil {
		return nil, err
	}
	return order, nil
}

// loadForWrite answers 403 rather than 404 for rows of foreign stores
func (s *orderService) loadForWrite(ctx context.Context, actor access.Requester, id uint) (*model.Order, error) {
	order, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, notFound(err, "order")
	}
	if err := canModify(actor, order, "order"); err != nil {
		return nil, err
	}
	return order, nil
}

func (s *orderService) GetOrder(ctx context.Context, actor access.Requester, id uint) (*OrderResponse, error) {
	order, err := s.load(ctx, actor, id)
	if err != nil {
		return nil, err
	}
	resp := toOrderResponse(order)
	return &resp, nil
}

func (s *orderService) CreateOrder(ctx context.Context, actor access.Requester, req CreateOrderRequest) (*OrderResponse, error) {
	if err := s.refs.check(ctx, actor, req.GroupID, req.SupplierID); err != nil {
		return nil, err
	}
	planned, err := parseDate("plannedDate", req.PlannedDate)
	if err != nil {
		return nil, err
	}
	if req.Quantity == nil || *req.Quantity <= 0 {
		return nil, validationf("quantity must be positive")
	}
	if err := validateUnit(req.Unit); err != nil {
		return nil, err
	}

	order := &model.Order{
		SupplierID:  req.SupplierID,
		GroupID:     req.GroupID,
		PlannedDate: planned,
		Quantity:    req.Quantity,
		Unit:        req.Unit,
		Status:      model.OrderStatusPending,
		Comments:    strings.TrimSpace(req.Comments),
		CreatedBy:   actor.UserID,
	}

	err = s.txManager.RunInTx(ctx, func(txCtx context.Context) error {
		if err := s.repo.Create(txCtx, order); err != nil {
			return fmt.Errorf("failed to create order: %w", err)
		}
		return recordAudit(txCtx, s.auditRepo, actor, auditEntry{
			Action:     model.ActionCreateOrder,
			EntityType: "order",
			EntityID:   order.ID,
			Details:    req,
		})
	})
	if err != nil {
		return nil, err
	}

	s.notifier.Publish(TagOrders, TagStats)
	return s.GetOrder(ctx, actor, order.ID)
}

func (s *orderService) UpdateOrder(ctx context.Context, actor access.Requester, id uint, req UpdateOrderRequest) (*OrderResponse, error) {
	err := s.txManager.RunInTx(ctx, func(txCtx context.Context) error {
		order, err := s.loadForWrite(txCtx, actor, id)
		if err != nil {
			return err
		}
		if err := applyOrderUpdate(order, req); err != nil {
			return err
		}
		if err := s.refs.check(txCtx, actor, order.GroupID, order.SupplierID); err != nil {
			return err
		}

		order.Supplier, order.Group = nil, nil
		if err := s.repo.Update(txCtx, order); err != nil {
			return fmt.Errorf("failed to update order: %w", err)
		}
		return recordAudit(txCtx, s.auditRepo, actor, auditEntry{
			Action:     model.ActionUpdateOrder,
			EntityType: "order",
			EntityID:   order.ID,
			Details:    req,
		})
	})
	if err != nil {
		return nil, err
	}

	s.notifier.Publish(TagOrders, TagStats)
	return s.GetOrder(ctx, actor, id)
}

func applyOrderUpdate(order *model.Order, req UpdateOrderRequest) error {
	if req.SupplierID != nil {
		order.SupplierID = *req.SupplierID
	}
	if req.GroupID != nil {
		order.GroupID = *req.GroupID
	}
	if req.PlannedDate != nil {
		planned, err := parseDate("plannedDate", *req.PlannedDate)
		if err != nil {
			return err
		}
		order.PlannedDate = planned
	}
	if req.Quantity != nil {
		if *req.Quantity <= 0 {
			return validationf("quantity must be positive")
		}
		order.Quantity = req.Quantity
	}
	if req.Unit != nil {
		if err := validateUnit(*req.Unit); err != nil {
			return err
		}
		order.Unit = *req.Unit
	}
	if req.Status != nil {
		if !model.ValidOrderStatus(*req.Status) {
			return validationf("unknown order status '%s'", *req.Status)
		}
		if !model.OrderStatusAdvances(order.Status, *req.Status) {
			return fmt.Errorf("order cannot go from %s to %s: %w", order.Status, *req.Status, ErrInvalidTransition)
		}
		order.Status = *req.Status
	}
	if req.Comments != nil {
		order.Comments = strings.TrimSpace(*req.Comments)
	}
	return nil
}

func (s *orderService) DeleteOrder(ctx context.Context, actor access.Requester, id uint) error {
	err := s.txManager.RunInTx(ctx, func(txCtx context.Context) error {
		order, err := s.loadForWrite(txCtx, actor, id)
		if err != nil {
			return err
		}
		if err := s.repo.Delete(txCtx, id); err != nil {
			return fmt.Errorf("failed to delete order: %w", err)
		}
		return recordAudit(txCtx, s.auditRepo, actor, auditEntry{
			Action:     model.ActionDeleteOrder,
			EntityType: "order",
			EntityID:   id,
			Details:    toOrderResponse(order),
		})
	})
	if err != nil {
		return err
	}

	s.notifier.Publish(TagOrders, TagDeliveries, TagStats)
	return nil
}
