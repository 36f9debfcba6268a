package repository

import (
	"context"

	"logiflow/internal/model"

	"gorm.io/gorm"
)

// UserGroupRepository manages store memberships
type UserGroupRepository interface {
	GroupIDsForUser(ctx context.Context, userID string) ([]uint, error)
	Replace(ctx context.Context, userID string, groupIDs []uint) error
	Add(ctx context.Context, userID string, groupID uint) error
}

type userGroupRepository struct {
	db *gorm.DB
}

func NewUserGroupRepository(db *gorm.DB) UserGroupRepository {
	return &userGroupRepository{db: db}
}

func (r *userGroupRepository) GroupIDsForUser(ctx context.Context, userID string) ([]uint, error) {
	var ids []uint
	err := GetDB(ctx, r.db).Model(&model.UserGroup{}).
		Where("user_id = ?", userID).
		Order("group_id asc").
		Pluck("group_id", &ids).Error
	return ids, err
}

// Replace must run inside a transaction to swap the whole set atomically
func (r *userGroupRepository) Replace(ctx context.Context, userID string, groupIDs []uint) error {
	db := GetDB(ctx, r.db)
	if err := db.Where("user_id = ?", userID).Delete(&model.UserGroup{}).Error; err != nil {
		return err
	}
	if len(groupIDs) == 0 {
		return nil
	}
	rows := make([]model.UserGroup, 0, len(groupIDs))
	for _, gid := range groupIDs {
		rows = append(rows, model.UserGroup{UserID: userID, GroupID: gid})
	}
	return db.Create(&rows).Error
}

func (r *userGroupRepository) Add(ctx context.Context, userID string, groupID uint) error {
	return GetDB(ctx, r.db).
		Where(model.UserGroup{UserID: userID, GroupID: groupID}).
		FirstOrCreate(&model.UserGroup{UserID: userID, GroupID: groupID}).Error
}
