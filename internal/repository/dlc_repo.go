package repository

import (
	"context"
	"strings"

	"logiflow/internal/access"
	"logiflow/internal/model"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type DlcFilter struct {
	Scope      access.Scope
	SupplierID *uint
	Search     string
}

type DlcRepository interface {
	Create(ctx context.Context, product *model.DlcProduct) error
	Update(ctx context.Context, product *model.DlcProduct) error
	Delete(ctx context.Context, id uint) error
	FindByID(ctx context.Context, id uint) (*model.DlcProduct, error)
	List(ctx context.Context, f DlcFilter) ([]model.DlcProduct, error)
}

type dlcRepository struct {
	db *gorm.DB
}

func NewDlcRepository(db *gorm.DB) DlcRepository {
	return &dlcRepository{db: db}
}

func (r *dlcRepository) Create(ctx context.Context, product *model.DlcProduct) error {
	return GetDB(ctx, r.db).Omit(clause.Associations).Create(product).Error
}

func (r *dlcRepository) Update(ctx context.Context, product *model.DlcProduct) error {
	return GetDB(ctx, r.db).Omit(clause.Associations).Save(product).Error
}

func (r *dlcRepository) Delete(ctx context.Context, id uint) error {
	return GetDB(ctx, r.db).Delete(&model.DlcProduct{}, id).Error
}

func (r *dlcRepository) FindByID(ctx context.Context, id uint) (*model.DlcProduct, error) {
	var product model.DlcProduct
	if err := GetDB(ctx, r.db).
		Preload("Supplier").
		Preload("Group").
		First(&product, id).Error; err != nil {
		return nil, err
	}
	return &product, nil
}

func (r *dlcRepository) List(ctx context.Context, f DlcFilter) ([]model.DlcProduct, error) {
	products := []model.DlcProduct{}

	db := applyScope(GetDB(ctx, r.db), f.Scope, "group_id")
	if f.SupplierID != nil {
		db = db.Where("supplier_id = ?", *f.SupplierID)
	}
	if s := strings.TrimSpace(f.Search); s != "" {
		like := "%" + strings.ToLower(s) + "%"
		db = db.Where("LOWER(product_name) LIKE ? OR gtin LIKE ?", like, like)
	}

	if err := db.
		Preload("Supplier").
		Preload("Group").
		Order("dlc_date asc, id asc").
		Find(&products).Error; err != nil {
		return nil, err
	}
	return products, nil
}
