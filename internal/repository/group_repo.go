package repository

import (
	"context"

	"logiflow/internal/model"

	"gorm.io/gorm"
)

type GroupRepository interface {
	Create(ctx context.Context, group *model.Group) error
	Update(ctx context.Context, group *model.Group) error
	Delete(ctx context.Context, id uint) error
	FindByID(ctx context.Context, id uint) (*model.Group, error)
	List(ctx context.Context, ids []uint) ([]model.Group, error)
	CountExisting(ctx context.Context, ids []uint) (int64, error)
	CountReferences(ctx context.Context, id uint) (int64, error)
}

type groupRepository struct {
	db *gorm.DB
}

func NewGroupRepository(db *gorm.DB) GroupRepository {
	return &groupRepository{db: db}
}

func (r *groupRepository) Create(ctx context.Context, group *model.Group) error {
	return GetDB(ctx, r.db).Create(group).Error
}

func (r *groupRepository) Update(ctx context.Context, group *model.Group) error {
	return GetDB(ctx, r.db).Save(group).Error
}

func (r *groupRepository) Delete(ctx context.Context, id uint) error {
	db := GetDB(ctx, r.db)
	if err := db.Where("group_id = ?", id).Delete(&model.UserGroup{}).Error; err != nil {
		return err
	}
	return db.Delete(&model.Group{}, id).Error
}

func (r *groupRepository) FindByID(ctx context.Context, id uint) (*model.Group, error) {
	var group model.Group
	if err := GetDB(ctx, r.db).First(&group, id).Error; err != nil {
		return nil, err
	}
	return &group, nil
}

// List returns every group, or only ids when ids is non-nil
func (r *groupRepository) List(ctx context.Context, ids []uint) ([]model.Group, error) {
	groups := []model.Group{}
	db := GetDB(ctx, r.db).Order("name asc")
	if ids != nil {
		if len(ids) == 0 {
			return groups, nil
		}
		db = db.Where("id IN ?", ids)
	}
	if err := db.Find(&groups).Error; err != nil {
		return nil, err
	}
	return groups, nil
}

func (r *groupRepository) CountExisting(ctx context.Context, ids []uint) (int64, error) {
	var n int64
	if len(ids) == 0 {
		return 0, nil
	}
	err := GetDB(ctx, r.db).Model(&model.Group{}).Where("id IN ?", ids).Count(&n).Error
	return n, err
}

// CountReferences counts orders, deliveries and DLC products that belong to the group
func (r *groupRepository) CountReferences(ctx context.Context, id uint) (int64, error) {
	return countReferences(GetDB(ctx, r.db), "group_id", id)
}

func countReferences(db *gorm.DB, column string, id uint) (int64, error) {
	var total int64
	for _, m := range []interface{}{&model.Order{}, &model.Delivery{}, &model.DlcProduct{}} {
		var n int64
		if err := db.Model(m).Where(column+" = ?", id).Count(&n).Error; err != nil {
			return 0, err
		}
		total += n
	}
	return total, nil
}
