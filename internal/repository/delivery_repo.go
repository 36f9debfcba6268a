package repository

import (
	"context"

	"logiflow/internal/access"
	"logiflow/internal/model"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// DeliveryFilter narrows a delivery listing. Scope is always applied.
type DeliveryFilter struct {
	Scope      access.Scope
	Planned    DateRange
	Status     string
	SupplierID *uint
	OrderID    *uint
	WithBL     bool
}

type DeliveryRepository interface {
	Create(ctx context.Context, delivery *model.Delivery) error
	Update(ctx context.Context, delivery *model.Delivery) error
	Delete(ctx context.Context, id uint) error
	FindByID(ctx context.Context, id uint) (*model.Delivery, error)
	List(ctx context.Context, f DeliveryFilter) ([]model.Delivery, error)
	ListReconciliation(ctx context.Context, scope access.Scope, delivered DateRange) ([]model.Delivery, error)
	CountByStatus(ctx context.Context, scope access.Scope, planned DateRange) (map[string]int64, error)
}

type deliveryRepository struct {
	db *gorm.DB
}

func NewDeliveryRepository(db *gorm.DB) DeliveryRepository {
	return &deliveryRepository{db: db}
}

func (r *deliveryRepository) Create(ctx context.Context, delivery *model.Delivery) error {
	return GetDB(ctx, r.db).Omit(clause.Associations).Create(delivery).Error
}

func (r *deliveryRepository) Update(ctx context.Context, delivery *model.Delivery) error {
	return GetDB(ctx, r.db).Omit(clause.Associations).Save(delivery).Error
}

func (r *deliveryRepository) Delete(ctx context.Context, id uint) error {
	return GetDB(ctx, r.db).Delete(&model.Delivery{}, id).Error
}

func (r *deliveryRepository) FindByID(ctx context.Context, id uint) (*model.Delivery, error) {
	var delivery model.Delivery
	if err := GetDB(ctx, r.db).
		Preload("Supplier").
		Preload("Group").
		Preload("Order").
		First(&delivery, id).Error; err != nil {
		return nil, err
	}
	return &delivery, nil
}

func (r *deliveryRepository) List(ctx context.Context, f DeliveryFilter) ([]model.Delivery, error) {
	deliveries := []model.Delivery{}

	db := applyScope(GetDB(ctx, r.db), f.Scope, "group_id")
	db = applyDateRange(db, f.Planned, "planned_date")
	if f.Status != "" {
		db = db.Where("status = ?", f.Status)
	}
	if f.SupplierID != nil {
		db = db.Where("supplier_id = ?", *f.SupplierID)
	}
	if f.OrderID != nil {
		db = db.Where("order_id = ?", *f.OrderID)
	}
	if f.WithBL {
		db = db.Where("bl_number IS NOT NULL AND bl_number <> ''")
	}

	if err := db.
		Preload("Supplier").
		Preload("Group").
		Order("planned_date desc, id desc").
		Find(&deliveries).Error; err != nil {
		return nil, err
	}
	return deliveries, nil
}

// ListReconciliation returns delivered deliveries that carry a BL number
func (r *deliveryRepository) ListReconciliation(ctx context.Context, scope access.Scope, delivered DateRange) ([]model.Delivery, error) {
	deliveries := []model.Delivery{}

	db := applyScope(GetDB(ctx, r.db), scope, "group_id").
		Where("status = ?", model.DeliveryStatusDelivered).
		Where("bl_number IS NOT NULL AND bl_number <> ''")
	db = applyDateRange(db, delivered, "COALESCE(delivered_date, planned_date)")

	if err := db.
		Preload("Supplier").
		Preload("Group").
		Order("delivered_date desc, id desc").
		Find(&deliveries).Error; err != nil {
		return nil, err
	}
	return deliveries, nil
}

func (r *deliveryRepository) CountByStatus(ctx context.Context, scope access.Scope, planned DateRange) (map[string]int64, error) {
	var rows []statusCount
	db := applyScope(GetDB(ctx, r.db).Model(&model.Delivery{}), scope, "group_id")
	db = applyDateRange(db, planned, "planned_date")
	if err := db.Select("status, COUNT(*) AS total").Group("status").Scan(&rows).Error; err != nil {
		return nil, err
	}
	return rowsToMap(rows), nil
}
