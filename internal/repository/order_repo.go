package repository

import (
	"context"

	"logiflow/internal/access"
	"logiflow/internal/model"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// OrderFilter narrows an order listing. Scope is always applied.
type OrderFilter struct {
	Scope      access.Scope
	Planned    DateRange
	Status     string
	SupplierID *uint
}

type OrderRepository interface {
	Create(ctx context.Context, order *model.Order) error
	Update(ctx context.Context, order *model.Order) error
	Delete(ctx context.Context, id uint) error
	FindByID(ctx context.Context, id uint) (*model.Order, error)
	List(ctx context.Context, f OrderFilter) ([]model.Order, error)
	CountByStatus(ctx context.Context, scope access.Scope, planned DateRange) (map[string]int64, error)
}

type orderRepository struct {
	db *gorm.DB
}

func NewOrderRepository(db *gorm.DB) OrderRepository {
	return &orderRepository{db: db}
}

func (r *orderRepository) Create(ctx context.Context, order *model.Order) error {
	return GetDB(ctx, r.db).Omit(clause.Associations).Create(order).Error
}

func (r *orderRepository) Update(ctx context.Context, order *model.Order) error {
	return GetDB(ctx, r.db).Omit(clause.Associations).Save(order).Error
}

// Delete unlinks the order's deliveries before removing it
func (r *orderRepository) Delete(ctx context.Context, id uint) error {
	db := GetDB(ctx, r.db)
	if err := db.Model(&model.Delivery{}).Where("order_id = ?", id).Update("order_id", nil).Error; err != nil {
		return err
	}
	return db.Delete(&model.Order{}, id).Error
}

func (r *orderRepository) FindByID(ctx context.Context, id uint) (*model.Order, error) {
	var order model.Order
	if err := GetDB(ctx, r.db).
		Preload("Supplier").
		Preload("Group").
		First(&order, id).Error; err != nil {
		return nil, err
	}
	return &order, nil
}

func (r *orderRepository) List(ctx context.Context, f OrderFilter) ([]model.Order, error) {
	orders := []model.Order{}

	db := applyScope(GetDB(ctx, r.db), f.Scope, "group_id")
	db = applyDateRange(db, f.Planned, "planned_date")
	if f.Status != "" {
		db = db.Where("status = ?", f.Status)
	}
	if f.SupplierID != nil {
		db = db.Where("supplier_id = ?", *f.SupplierID)
	}

	if err := db.
		Preload("Supplier").
		Preload("Group").
		Order("planned_date desc, id desc").
		Find(&orders).Error; err != nil {
		return nil, err
	}
	return orders, nil
}

func (r *orderRepository) CountByStatus(ctx context.Context, scope access.Scope, planned DateRange) (map[string]int64, error) {
	var rows []statusCount
	db := applyScope(GetDB(ctx, r.db).Model(&model.Order{}), scope, "group_id")
	db = applyDateRange(db, planned, "planned_date")
	if err := db.Select("status, COUNT(*) AS total").Group("status").Scan(&rows).Error; err != nil {
		return nil, err
	}
	return rowsToMap(rows), nil
}

type statusCount struct {
	Status string
	Total  int64
}

func rowsToMap(rows []statusCount) map[string]int64 {
	out := make(map[string]int64, len(rows))
	for _, row := range rows {
		out[row.Status] = row.Total
	}
	return out
}
