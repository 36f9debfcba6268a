package service

import (
	"context"
	"fmt"
	"strings"

	"logiflow/internal/access"
	"logiflow/internal/model"
	"logiflow/internal/reconciliation"
	"logiflow/internal/repository"

	"github.com/shopspring/decimal"
)

// --- DTOs ---

type CreateDeliveryRequest struct {
	OrderID          *uint               `json:"orderId"`
	SupplierID       uint                `json:"supplierId" binding:"required"`
	GroupID          uint                `json:"groupId" binding:"required"`
	PlannedDate      string              `json:"plannedDate" binding:"required"`
	Quantity         int                 `json:"quantity" binding:"required,gt=0"`
	Unit             string              `json:"unit" binding:"required,unit"`
	Comments         string              `json:"comments"`
	BLNumber         *string             `json:"blNumber"`
	BLAmount         decimal.NullDecimal `json:"blAmount" swaggertype:"string"`
	InvoiceReference *string             `json:"invoiceReference"`
	InvoiceAmount    decimal.NullDecimal `json:"invoiceAmount" swaggertype:"string"`
}

type UpdateDeliveryRequest struct {
	OrderID          *uint          `json:"orderId"`
	UnlinkOrder      bool           `json:"unlinkOrder"`
	SupplierID       *uint          `json:"supplierId"`
	GroupID          *uint          `json:"groupId"`
	PlannedDate      *string        `json:"plannedDate"`
	DeliveredDate    *string        `json:"deliveredDate"`
	Quantity         *int           `json:"quantity" binding:"omitempty,gt=0"`
	Unit             *string        `json:"unit" binding:"omitempty,unit"`
	Status           *string        `json:"status"`
	Comments         *string        `json:"comments"`
	BLNumber         OptionalString `json:"blNumber" swaggertype:"string"`
	BLAmount         OptionalAmount `json:"blAmount" swaggertype:"string"`
	InvoiceReference OptionalString `json:"invoiceReference" swaggertype:"string"`
	InvoiceAmount    OptionalAmount `json:"invoiceAmount" swaggertype:"string"`
	Reconciled       *bool          `json:"reconciled"`
}

type ValidateDeliveryRequest struct {
	DeliveredDate *string        `json:"deliveredDate"`
	BLNumber      OptionalString `json:"blNumber" swaggertype:"string"`
	BLAmount      OptionalAmount `json:"blAmount" swaggertype:"string"`
}

type DeliveryListQuery struct {
	ListQuery
	WithBL  bool  `form:"withBL"`
	OrderID *uint `form:"orderId"`
}

type DeliveryResponse struct {
	ID                   uint            `json:"id"`
	OrderID              *uint           `json:"orderId"`
	SupplierID           uint            `json:"supplierId"`
	Supplier             *model.Supplier `json:"supplier,omitempty"`
	GroupID              uint            `json:"groupId"`
	Group                *model.Group    `json:"group,omitempty"`
	PlannedDate          string          `json:"plannedDate"`
	DeliveredDate        *string         `json:"deliveredDate"`
	Quantity             int             `json:"quantity"`
	Unit                 string          `json:"unit"`
	Status               string          `json:"status"`
	Comments             string          `json:"comments"`
	BLNumber             *string         `json:"blNumber"`
	BLAmount             *string         `json:"blAmount"`
	InvoiceReference     *string         `json:"invoiceReference"`
	InvoiceAmount        *string         `json:"invoiceAmount"`
	Reconciled           bool            `json:"reconciled"`
	ReconciliationStatus string          `json:"reconciliationStatus"`
	Variance             *string         `json:"variance"`
	VarianceClass        string          `json:"varianceClass"`
	CreatedBy            string          `json:"createdBy"`
	CreatedAt            string          `json:"createdAt"`
	UpdatedAt            string          `json:"updatedAt"`
}

func toDeliveryResponse(d *model.Delivery) DeliveryResponse {
	variance := reconciliation.Variance(d.BLAmount, d.InvoiceAmount)
	return DeliveryResponse{
		ID:                   d.ID,
		OrderID:              d.OrderID,
		SupplierID:           d.SupplierID,
		Supplier:             d.Supplier,
		GroupID:              d.GroupID,
		Group:                d.Group,
		PlannedDate:          formatDate(d.PlannedDate),
		DeliveredDate:        formatOptionalDate(d.DeliveredDate),
		Quantity:             d.Quantity,
		Unit:                 d.Unit,
		Status:               d.Status,
		Comments:             d.Comments,
		BLNumber:             d.BLNumber,
		BLAmount:             formatAmount(d.BLAmount),
		InvoiceReference:     d.InvoiceReference,
		InvoiceAmount:        formatAmount(d.InvoiceAmount),
		Reconciled:           d.Reconciled,
		ReconciliationStatus: reconciliation.StatusOf(reconciliation.FieldsOf(d)),
		Variance:             formatAmount(variance),
		VarianceClass:        reconciliation.Classify(variance),
		CreatedBy:            d.CreatedBy,
		CreatedAt:            d.CreatedAt.Format("2006-01-02T15:04:05Z07:00"),
		UpdatedAt:            d.UpdatedAt.Format("2006-01-02T15:04:05Z07:00"),
	}
}

// --- Interface ---

type DeliveryService interface {
	ListDeliveries(ctx context.Context, actor access.Requester, q DeliveryListQuery) ([]DeliveryResponse, error)
	GetDelivery(ctx context.Context, actor access.Requester, id uint) (*DeliveryResponse, error)
	CreateDelivery(ctx context.Context, actor access.Requester, req CreateDeliveryRequest) (*DeliveryResponse, error)
	UpdateDelivery(ctx context.Context, actor access.Requester, id uint, req UpdateDeliveryRequest) (*DeliveryResponse, error)
	ValidateDelivery(ctx context.Context, actor access.Requester, id uint, req ValidateDeliveryRequest) (*DeliveryResponse, error)
	DeleteDelivery(ctx context.Context, actor access.Requester, id uint) error
}

type deliveryService struct {
	repo      repository.DeliveryRepository
	orderRepo repository.OrderRepository
	auditRepo repository.AuditRepository
	txManager repository.TransactionManager
	refs      references
	notifier  Notifier
}

func NewDeliveryService(
	repo repository.DeliveryRepository,
	orderRepo repository.OrderRepository,
	groupRepo repository.GroupRepository,
	supplierRepo repository.SupplierRepository,
	auditRepo repository.AuditRepository,
	txManager repository.TransactionManager,
	notifier Notifier,
) DeliveryService {
	return &deliveryService{
		repo:      repo,
		orderRepo: orderRepo,
		auditRepo: auditRepo,
		txManager: txManager,
		refs:      references{groupRepo: groupRepo, supplierRepo: supplierRepo},
		notifier:  notifierOrNoop(notifier),
	}
}

// --- Implementation ---

func (s *deliveryService) ListDeliveries(ctx context.Context, actor access.Requester, q DeliveryListQuery) ([]DeliveryResponse, error) {
	planned, err := q.dateRange()
	if err != nil {
		return nil, err
	}
	if q.Status != "" && !model.ValidDeliveryStatus(q.Status) {
		return nil, validationf("unknown delivery status '%s'", q.Status)
	}

	deliveries, err := s.repo.List(ctx, repository.DeliveryFilter{
		Scope:      actor.Scope.Narrow(q.StoreID),
		Planned:    planned,
		Status:     q.Status,
		SupplierID: q.SupplierID,
		OrderID:    q.OrderID,
		WithBL:     q.WithBL,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to fetch deliveries: %w", err)
	}

	res := make([]DeliveryResponse, 0, len(deliveries))
	for i := range deliveries {
		res = append(res, toDeliveryResponse(&deliveries[i]))
	}
	return res, nil
}

func (s *deliveryService) GetDelivery(ctx context.Context, actor access.Requester, id uint) (*DeliveryResponse, error) {
	delivery, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, notFound(err, "delivery")
	}
	if err := visible(actor, delivery, "delivery"); err != nil {
		return nil, err
	}
	resp := toDeliveryResponse(delivery)
	return &resp, nil
}

// loadDeliveryForWrite answers 403 rather than 404 for rows of foreign stores
func loadDeliveryForWrite(ctx context.Context, repo repository.DeliveryRepository, actor access.Requester, id uint) (*model.Delivery, error) {
	delivery, err := repo.FindByID(ctx, id)
	if err != nil {
		return nil, notFound(err, "delivery")
	}
	if err := canModify(actor, delivery, "delivery"); err != nil {
		return nil, err
	}
	delivery.Supplier, delivery.Group, delivery.Order = nil, nil, nil
	return delivery, nil
}

// checkOrderLink requires the linked order to be visible and to belong to the delivery's store
func (s *deliveryService) checkOrderLink(ctx context.Context, actor access.Requester, orderID, groupID uint) (*model.Order, error) {
	order, err := s.orderRepo.FindByID(ctx, orderID)
	if err != nil {
		return nil, notFound(err, "linked order")
	}
	if err := visible(actor, order, "linked order"); err != nil {
		return nil, err
	}
	if order.GroupID != groupID {
		return nil, validationf("linked order %d belongs to another store", orderID)
	}
	return order, nil
}

// advanceOrder moves a linked order forward; it never moves one back
func (s *deliveryService) advanceOrder(ctx context.Context, order *model.Order, status string, quantity int) error {
	changed := false
	if order.Status != status && model.OrderStatusAdvances(order.Status, status) {
		order.Status = status
		changed = true
	}
	if order.Quantity == nil && quantity > 0 {
		q := quantity
		order.Quantity = &q
		changed = true
	}
	if !changed {
		return nil
	}
	order.Supplier, order.Group = nil, nil
	if err := s.orderRepo.Update(ctx, order); err != nil {
		return fmt.Errorf("failed to update linked order: %w", err)
	}
	return nil
}

func (s *deliveryService) CreateDelivery(ctx context.Context, actor access.Requester, req CreateDeliveryRequest) (*DeliveryResponse, error) {
	if err := s.refs.check(ctx, actor, req.GroupID, req.SupplierID); err != nil {
		return nil, err
	}
	planned, err := parseDate("plannedDate", req.PlannedDate)
	if err != nil {
		return nil, err
	}
	if req.Quantity <= 0 {
		return nil, validationf("quantity must be positive")
	}
	if err := validateUnit(req.Unit); err != nil {
		return nil, err
	}

	delivery := &model.Delivery{
		OrderID:          req.OrderID,
		SupplierID:       req.SupplierID,
		GroupID:          req.GroupID,
		PlannedDate:      planned,
		Quantity:         req.Quantity,
		Unit:             req.Unit,
		Status:           model.DeliveryStatusPlanned,
		Comments:         strings.TrimSpace(req.Comments),
		BLNumber:         trimmedOrNil(req.BLNumber),
		BLAmount:         req.BLAmount,
		InvoiceReference: trimmedOrNil(req.InvoiceReference),
		InvoiceAmount:    req.InvoiceAmount,
		CreatedBy:        actor.UserID,
	}
	if (delivery.InvoiceReference != nil || delivery.InvoiceAmount.Valid) && !actor.Has(PermReconciliationWrite) {
		return nil, fmt.Errorf("entering invoice data requires %s: %w", PermReconciliationWrite, ErrForbidden)
	}

	err = s.txManager.RunInTx(ctx, func(txCtx context.Context) error {
		var order *model.Order
		if req.OrderID != nil {
			var err error
			if order, err = s.checkOrderLink(txCtx, actor, *req.OrderID, req.GroupID); err != nil {
				return err
			}
		}
		if err := s.repo.Create(txCtx, delivery); err != nil {
			return fmt.Errorf("failed to create delivery: %w", err)
		}
		if order != nil {
			if err := s.advanceOrder(txCtx, order, model.OrderStatusPlanned, delivery.Quantity); err != nil {
				return err
			}
		}
		return recordAudit(txCtx, s.auditRepo, actor, auditEntry{
			Action:     model.ActionCreateDelivery,
			EntityType: "delivery",
			EntityID:   delivery.ID,
			Details:    toDeliveryResponse(delivery),
		})
	})
	if err != nil {
		return nil, err
	}

	s.notifier.Publish(TagDeliveries, TagOrders, TagStats)
	return s.GetDelivery(ctx, actor, delivery.ID)
}

func (s *deliveryService) UpdateDelivery(ctx context.Context, actor access.Requester, id uint, req UpdateDeliveryRequest) (*DeliveryResponse, error) {
	invoiceTouched := req.InvoiceReference.Set || req.InvoiceAmount.Set
	if invoiceTouched && !actor.Has(PermReconciliationWrite) {
		return nil, fmt.Errorf("editing invoice data requires %s: %w", PermReconciliationWrite, ErrForbidden)
	}
	if req.Reconciled != nil && !actor.Has(PermReconciliationValidate) {
		return nil, fmt.Errorf("changing reconciliation requires %s: %w", PermReconciliationValidate, ErrForbidden)
	}

	err := s.txManager.RunInTx(ctx, func(txCtx context.Context) error {
		delivery, err := loadDeliveryForWrite(txCtx, s.repo, actor, id)
		if err != nil {
			return err
		}
		wasDelivered := delivery.Status == model.DeliveryStatusDelivered

		if err := applyDeliveryUpdate(delivery, req); err != nil {
			return err
		}
		if err := s.refs.check(txCtx, actor, delivery.GroupID, delivery.SupplierID); err != nil {
			return err
		}

		var order *model.Order
		if delivery.OrderID != nil {
			if order, err = s.checkOrderLink(txCtx, actor, *delivery.OrderID, delivery.GroupID); err != nil {
				return err
			}
		}

		if err := s.repo.Update(txCtx, delivery); err != nil {
			return fmt.Errorf("failed to update delivery: %w", err)
		}
		if order != nil {
			target := model.OrderStatusPlanned
			if delivery.Status == model.DeliveryStatusDelivered {
				target = model.OrderStatusDelivered
			}
			if err := s.advanceOrder(txCtx, order, target, delivery.Quantity); err != nil {
				return err
			}
		}

		action := model.ActionUpdateDelivery
		if !wasDelivered && delivery.Status == model.DeliveryStatusDelivered {
			action = model.ActionValidateDelivery
		}
		return recordAudit(txCtx, s.auditRepo, actor, auditEntry{
			Action:     action,
			EntityType: "delivery",
			EntityID:   delivery.ID,
			Details:    toDeliveryResponse(delivery),
		})
	})
	if err != nil {
		return nil, err
	}

	s.notifier.Publish(TagDeliveries, TagOrders, TagReconciliation, TagStats)
	return s.GetDelivery(ctx, actor, id)
}

func applyDeliveryUpdate(d *model.Delivery, req UpdateDeliveryRequest) error {
	if req.UnlinkOrder {
		d.OrderID = nil
	} else if req.OrderID != nil {
		d.OrderID = req.OrderID
	}
	if req.SupplierID != nil {
		d.SupplierID = *req.SupplierID
	}
	if req.GroupID != nil {
		d.GroupID = *req.GroupID
	}
	if req.PlannedDate != nil {
		planned, err := parseDate("plannedDate", *req.PlannedDate)
		if err != nil {
			return err
		}
		d.PlannedDate = planned
	}
	if req.Quantity != nil {
		if *req.Quantity <= 0 {
			return validationf("quantity must be positive")
		}
		d.Quantity = *req.Quantity
	}
	if req.Unit != nil {
		if err := validateUnit(*req.Unit); err != nil {
			return err
		}
		d.Unit = *req.Unit
	}
	if req.Comments != nil {
		d.Comments = strings.TrimSpace(*req.Comments)
	}
	if req.BLNumber.Set {
		d.BLNumber = req.BLNumber.Value
	}
	if req.BLAmount.Set {
		d.BLAmount = req.BLAmount.Value
	}
	if req.InvoiceReference.Set {
		d.InvoiceReference = req.InvoiceReference.Value
	}
	if req.InvoiceAmount.Set {
		d.InvoiceAmount = req.InvoiceAmount.Value
	}

	if req.Status != nil {
		if !model.ValidDeliveryStatus(*req.Status) {
			return validationf("unknown delivery status '%s'", *req.Status)
		}
		if !model.DeliveryStatusAdvances(d.Status, *req.Status) {
			return fmt.Errorf("delivery cannot go from %s to %s: %w", d.Status, *req.Status, ErrInvalidTransition)
		}
		d.Status = *req.Status
	}
	if req.DeliveredDate != nil {
		delivered, err := parseOptionalDate("deliveredDate", req.DeliveredDate)
		if err != nil {
			return err
		}
		d.DeliveredDate = delivered
	}
	if d.Status == model.DeliveryStatusDelivered && d.DeliveredDate == nil {
		t := today()
		d.DeliveredDate = &t
	}

	if req.Reconciled != nil && *req.Reconciled && !d.Reconciled {
		if err := checkCanValidate(d); err != nil {
			return err
		}
	}
	if req.Reconciled != nil {
		d.Reconciled = *req.Reconciled
	}
	return checkReconciledInvariant(d)
}

// ValidateDelivery marks a planned delivery as delivered and attaches its BL data
func (s *deliveryService) ValidateDelivery(ctx context.Context, actor access.Requester, id uint, req ValidateDeliveryRequest) (*DeliveryResponse, error) {
	err := s.txManager.RunInTx(ctx, func(txCtx context.Context) error {
		delivery, err := loadDeliveryForWrite(txCtx, s.repo, actor, id)
		if err != nil {
			return err
		}
		if delivery.Status == model.DeliveryStatusDelivered {
			return fmt.Errorf("delivery %d is already delivered: %w", id, ErrConflict)
		}

		delivered := today()
		if req.DeliveredDate != nil {
			d, err := parseOptionalDate("deliveredDate", req.DeliveredDate)
			if err != nil {
				return err
			}
			if d != nil {
				delivered = *d
			}
		}
		delivery.Status = model.DeliveryStatusDelivered
		delivery.DeliveredDate = &delivered
		if req.BLNumber.Set {
			delivery.BLNumber = req.BLNumber.Value
		}
		if req.BLAmount.Set {
			delivery.BLAmount = req.BLAmount.Value
		}

		if err := s.repo.Update(txCtx, delivery); err != nil {
			return fmt.Errorf("failed to validate delivery: %w", err)
		}
		if delivery.OrderID != nil {
			order, err := s.orderRepo.FindByID(txCtx, *delivery.OrderID)
			if err != nil {
				return notFound(err, "linked order")
			}
			if err := s.advanceOrder(txCtx, order, model.OrderStatusDelivered, delivery.Quantity); err != nil {
				return err
			}
		}
		return recordAudit(txCtx, s.auditRepo, actor, auditEntry{
			Action:     model.ActionValidateDelivery,
			EntityType: "delivery",
			EntityID:   delivery.ID,
			Details:    req,
		})
	})
	if err != nil {
		return nil, err
	}

	s.notifier.Publish(TagDeliveries, TagOrders, TagReconciliation, TagStats)
	return s.GetDelivery(ctx, actor, id)
}

// DeleteDelivery applies one rule for every view: deliveries.delete plus the row ownership rule
func (s *deliveryService) DeleteDelivery(ctx context.Context, actor access.Requester, id uint) error {
	if !actor.Has(PermDeliveriesDelete) {
		return fmt.Errorf("deleting deliveries requires %s: %w", PermDeliveriesDelete, ErrForbidden)
	}

	err := s.txManager.RunInTx(ctx, func(txCtx context.Context) error {
		delivery, err := loadDeliveryForWrite(txCtx, s.repo, actor, id)
		if err != nil {
			return err
		}
		if err := s.repo.Delete(txCtx, id); err != nil {
			return fmt.Errorf("failed to delete delivery: %w", err)
		}
		return recordAudit(txCtx, s.auditRepo, actor, auditEntry{
			Action:     model.ActionDeleteDelivery,
			EntityType: "delivery",
			EntityID:   id,
			Details:    toDeliveryResponse(delivery),
		})
	})
	if err != nil {
		return err
	}

	s.notifier.Publish(TagDeliveries, TagReconciliation, TagStats)
	return nil
}
