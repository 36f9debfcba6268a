package service

import (
	"context"
	"fmt"
	"strings"
	"time"

	"logiflow/internal/access"
	"logiflow/internal/model"
	"logiflow/internal/repository"
)

type CreateDlcRequest struct {
	ProductName string `json:"productName" binding:"required,max=255"`
	GTIN        string `json:"gtin" binding:"max=20"`
	SupplierID  uint   `json:"supplierId" binding:"required"`
	GroupID     uint   `json:"groupId" binding:"required"`
	DlcDate     string `json:"dlcDate" binding:"required"`
	Quantity    int    `json:"quantity" binding:"omitempty,gt=0"`
	Unit        string `json:"unit" binding:"omitempty,unit"`
	Comments    string `json:"comments"`
}

type UpdateDlcRequest struct {
	ProductName *string `json:"productName" binding:"omitempty,max=255"`
	GTIN        *string `json:"gtin" binding:"omitempty,max=20"`
	SupplierID  *uint   `json:"supplierId"`
	GroupID     *uint   `json:"groupId"`
	DlcDate     *string `json:"dlcDate"`
	Quantity    *int    `json:"quantity" binding:"omitempty,gt=0"`
	Unit        *string `json:"unit" binding:"omitempty,unit"`
	Comments    *string `json:"comments"`
}

type DlcListQuery struct {
	StoreID    *uint  `form:"storeId"`
	SupplierID *uint  `form:"supplierId"`
	Status     string `form:"status"`
	Search     string `form:"search"`
}

type DlcResponse struct {
	ID          uint            `json:"id"`
	ProductName string          `json:"productName"`
	GTIN        string          `json:"gtin"`
	SupplierID  uint            `json:"supplierId"`
	Supplier    *model.Supplier `json:"supplier,omitempty"`
	GroupID     uint            `json:"groupId"`
	Group       *model.Group    `json:"group,omitempty"`
	DlcDate     string          `json:"dlcDate"`
	Quantity    int             `json:"quantity"`
	Unit        string          `json:"unit"`
	Status      string          `json:"status"`
	DaysLeft    int             `json:"daysLeft"`
	Comments    string          `json:"comments"`
	ValidatedBy *string         `json:"validatedBy"`
	ValidatedAt *string         `json:"validatedAt"`
	CreatedBy   string          `json:"createdBy"`
	CreatedAt   string          `json:"createdAt"`
}

type DlcService interface {
	ListProducts(ctx context.Context, actor access.Requester, q DlcListQuery) ([]DlcResponse, error)
	GetProduct(ctx context.Context, actor access.Requester, id uint) (*DlcResponse, error)
	CreateProduct(ctx context.Context, actor access.Requester, req CreateDlcRequest) (*DlcResponse, error)
	UpdateProduct(ctx context.Context, actor access.Requester, id uint, req UpdateDlcRequest) (*DlcResponse, error)
	ValidateProduct(ctx context.Context, actor access.Requester, id uint) (*DlcResponse, error)
	DeleteProduct(ctx context.Context, actor access.Requester, id uint) error
	Stats(ctx context.Context, actor access.Requester, storeID *uint) (*model.DlcStats, error)
}

type dlcService struct {
	repo        repository.DlcRepository
	auditRepo   repository.AuditRepository
	txManager   repository.TransactionManager
	refs        references
	notifier    Notifier
	warningDays int
	now         func() time.Time
}

func NewDlcService(
	repo repository.DlcRepository,
	groupRepo repository.GroupRepository,
	supplierRepo repository.SupplierRepository,
	auditRepo repository.AuditRepository,
	txManager repository.TransactionManager,
	notifier Notifier,
	warningDays int,
) DlcService {
	return &dlcService{
		repo:        repo,
		auditRepo:   auditRepo,
		txManager:   txManager,
		refs:        references{groupRepo: groupRepo, supplierRepo: supplierRepo},
		notifier:    notifierOrNoop(notifier),
		warningDays: warningDays,
		now:         time.Now,
	}
}

func (s *dlcService) toResponse(p *model.DlcProduct) DlcResponse {
	now := s.now().UTC()
	day := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, time.UTC)
	var validatedAt *string
	if p.ValidatedAt != nil {
		v := p.ValidatedAt.Format("2006-01-02T15:04:05Z07:00")
		validatedAt = &v
	}
	return DlcResponse{
		ID:          p.ID,
		ProductName: p.ProductName,
		GTIN:        p.GTIN,
		SupplierID:  p.SupplierID,
		Supplier:    p.Supplier,
		GroupID:     p.GroupID,
		Group:       p.Group,
		DlcDate:     formatDate(p.DlcDate),
		Quantity:    p.Quantity,
		Unit:        p.Unit,
		Status:      p.EffectiveStatus(now, s.warningDays),
		DaysLeft:    int(time.Date(p.DlcDate.Year(), p.DlcDate.Month(), p.DlcDate.Day(), 0, 0, 0, 0, time.UTC).Sub(day).Hours() / 24),
		Comments:    p.Comments,
		ValidatedBy: p.ValidatedBy,
		ValidatedAt: validatedAt,
		CreatedBy:   p.CreatedBy,
		CreatedAt:   p.CreatedAt.Format("2006-01-02T15:04:05Z07:00"),
	}
}

func validDlcStatus(s string) bool {
	switch s {
	case model.DlcStatusActive, model.DlcStatusExpiresSoon, model.DlcStatusExpired, model.DlcStatusValidated:
		return true
	}
	return false
}

func (s *dlcService) ListProducts(ctx context.Context, actor access.Requester, q DlcListQuery) ([]DlcResponse, error) {
	if q.Status != "" && !validDlcStatus(q.Status) {
		return nil, validationf("unknown DLC status '%s'", q.Status)
	}

	products, err := s.repo.List(ctx, repository.DlcFilter{
		Scope:      actor.Scope.Narrow(q.StoreID),
		SupplierID: q.SupplierID,
		Search:     q.Search,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to fetch DLC products: %w", err)
	}

	res := make([]DlcResponse, 0, len(products))
	for i := range products {
		item := s.toResponse(&products[i])
		if q.Status != "" && item.Status != q.Status {
			continue
		}
		res = append(res, item)
	}
	return res, nil
}

func (s *dlcService) GetProduct(ctx context.Context, actor access.Requester, id uint) (*DlcResponse, error) {
	product, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, notFound(err, "DLC product")
	}
	if err := visible(actor, product, "DLC product"); err != nil {
		return nil, err
	}
	resp := s.toResponse(product)
	return &resp, nil
}

func (s *dlcService) loadForWrite(ctx context.Context, actor access.Requester, id uint) (*model.DlcProduct, error) {
	product, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, notFound(err, "DLC product")
	}
	if err := canModify(actor, product, "DLC product"); err != nil {
		return nil, err
	}
	product.Supplier, product.Group = nil, nil
	return product, nil
}

func (s *dlcService) CreateProduct(ctx context.Context, actor access.Requester, req CreateDlcRequest) (*DlcResponse, error) {
	if err := s.refs.check(ctx, actor, req.GroupID, req.SupplierID); err != nil {
		return nil, err
	}
	name := strings.TrimSpace(req.ProductName)
	if name == "" {
		return nil, validationf("productName is required")
	}
	dlcDate, err := parseDate("dlcDate", req.DlcDate)
	if err != nil {
		return nil, err
	}
	quantity := req.Quantity
	if quantity == 0 {
		quantity = 1
	}
	unit := req.Unit
	if unit == "" {
		unit = model.UnitColis
	}
	if err := validateUnit(unit); err != nil {
		return nil, err
	}

	product := &model.DlcProduct{
		ProductName: name,
		GTIN:        strings.TrimSpace(req.GTIN),
		SupplierID:  req.SupplierID,
		GroupID:     req.GroupID,
		DlcDate:     dlcDate,
		Quantity:    quantity,
		Unit:        unit,
		Status:      model.DlcStatusActive,
		Comments:    strings.TrimSpace(req.Comments),
		CreatedBy:   actor.UserID,
	}

	err = s.txManager.RunInTx(ctx, func(txCtx context.Context) error {
		if err := s.repo.Create(txCtx, product); err != nil {
			return fmt.Errorf("failed to create DLC product: %w", err)
		}
		return recordAudit(txCtx, s.auditRepo, actor, auditEntry{
			Action:     model.ActionCreateDlc,
			EntityType: "dlc_product",
			EntityID:   product.ID,
			EntityName: product.ProductName,
			Details:    req,
		})
	})
	if err != nil {
		return nil, err
	}

	s.notifier.Publish(TagDlc, TagStats)
	return s.GetProduct(ctx, actor, product.ID)
}

func (s *dlcService) UpdateProduct(ctx context.Context, actor access.Requester, id uint, req UpdateDlcRequest) (*DlcResponse, error) {
	err := s.txManager.RunInTx(ctx, func(txCtx context.Context) error {
		product, err := s.loadForWrite(txCtx, actor, id)
		if err != nil {
			return err
		}
		if product.Status == model.DlcStatusValidated {
			return fmt.Errorf("DLC product %d is already validated: %w", id, ErrConflict)
		}

		if req.ProductName != nil {
			name := strings.TrimSpace(*req.ProductName)
			if name == "" {
				return validationf("productName must not be empty")
			}
			product.ProductName = name
		}
		if req.GTIN != nil {
			product.GTIN = strings.TrimSpace(*req.GTIN)
		}
		if req.SupplierID != nil {
			product.SupplierID = *req.SupplierID
		}
		if req.GroupID != nil {
			product.GroupID = *req.GroupID
		}
		if req.DlcDate != nil {
			d, err := parseDate("dlcDate", *req.DlcDate)
			if err != nil {
				return err
			}
			product.DlcDate = d
		}
		if req.Quantity != nil {
			if *req.Quantity <= 0 {
				return validationf("quantity must be positive")
			}
			product.Quantity = *req.Quantity
		}
		if req.Unit != nil {
			if err := validateUnit(*req.Unit); err != nil {
				return err
			}
			product.Unit = *req.Unit
		}
		if req.Comments != nil {
			product.Comments = strings.TrimSpace(*req.Comments)
		}
		if err := s.refs.check(txCtx, actor, product.GroupID, product.SupplierID); err != nil {
			return err
		}

		if err := s.repo.Update(txCtx, product); err != nil {
			return fmt.Errorf("failed to update DLC product: %w", err)
		}
		return recordAudit(txCtx, s.auditRepo, actor, auditEntry{
			Action:     model.ActionUpdateDlc,
			EntityType: "dlc_product",
			EntityID:   product.ID,
			EntityName: product.ProductName,
			Details:    req,
		})
	})
	if err != nil {
		return nil, err
	}

	s.notifier.Publish(TagDlc, TagStats)
	return s.GetProduct(ctx, actor, id)
}

// ValidateProduct marks a lot as handled (sold, withdrawn or destroyed)
func (s *dlcService) ValidateProduct(ctx context.Context, actor access.Requester, id uint) (*DlcResponse, error) {
	err := s.txManager.RunInTx(ctx, func(txCtx context.Context) error {
		product, err := s.loadForWrite(txCtx, actor, id)
		if err != nil {
			return err
		}
		if product.Status == model.DlcStatusValidated {
			return fmt.Errorf("DLC product %d is already validated: %w", id, ErrConflict)
		}

		now := s.now()
		uid := actor.UserID
		product.Status = model.DlcStatusValidated
		product.ValidatedAt = &now
		product.ValidatedBy = &uid

		if err := s.repo.Update(txCtx, product); err != nil {
			return fmt.Errorf("failed to validate DLC product: %w", err)
		}
		return recordAudit(txCtx, s.auditRepo, actor, auditEntry{
			Action:     model.ActionValidateDlc,
			EntityType: "dlc_product",
			EntityID:   product.ID,
			EntityName: product.ProductName,
		})
	})
	if err != nil {
		return nil, err
	}

	s.notifier.Publish(TagDlc, TagStats)
	return s.GetProduct(ctx, actor, id)
}

func (s *dlcService) DeleteProduct(ctx context.Context, actor access.Requester, id uint) error {
	err := s.txManager.RunInTx(ctx, func(txCtx context.Context) error {
		product, err := s.loadForWrite(txCtx, actor, id)
		if err != nil {
			return err
		}
		if err := s.repo.Delete(txCtx, id); err != nil {
			return fmt.Errorf("failed to delete DLC product: %w", err)
		}
		return recordAudit(txCtx, s.auditRepo, actor, auditEntry{
			Action:     model.ActionDeleteDlc,
			EntityType: "dlc_product",
			EntityID:   id,
			EntityName: product.ProductName,
		})
	})
	if err != nil {
		return err
	}

	s.notifier.Publish(TagDlc, TagStats)
	return nil
}

func (s *dlcService) Stats(ctx context.Context, actor access.Requester, storeID *uint) (*model.DlcStats, error) {
	products, err := s.repo.List(ctx, repository.DlcFilter{Scope: actor.Scope.Narrow(storeID)})
	if err != nil {
		return nil, fmt.Errorf("failed to fetch DLC products: %w", err)
	}

	now := s.now()
	stats := &model.DlcStats{}
	for i := range products {
		switch products[i].EffectiveStatus(now, s.warningDays) {
		case model.DlcStatusValidated:
			stats.Validated++
		case model.DlcStatusExpired:
			stats.Expired++
		case model.DlcStatusExpiresSoon:
			stats.ExpiresSoon++
		default:
			stats.Active++
		}
	}
	return stats, nil
}
