package repository

import (
	"context"

	"gorm.io/gorm"

	"attend-ease/backend/internal/model"
)

// ClassSlotRepository 课表时段数据访问接口
type ClassSlotRepository interface {
	ListAll(ctx context.Context) ([]model.ClassSlot, error)
	// ReplaceAll 在事务中整体替换课表：先删除全部旧时段，再批量插入
	ReplaceAll(ctx context.Context, slots []model.ClassSlot) error
}

type classSlotRepo struct {
	db *gorm.DB
}

// NewClassSlotRepo 创建 ClassSlotRepository 实例
func NewClassSlotRepo(db *gorm.DB) ClassSlotRepository {
	return &classSlotRepo{db: db}
}

func (r *classSlotRepo) ListAll(ctx context.Context) ([]model.ClassSlot, error) {
	var slots []model.ClassSlot
	err := r.db.WithContext(ctx).
		Order("position ASC").
		Find(&slots).Error
	return slots, err
}

func (r *classSlotRepo) ReplaceAll(ctx context.Context, slots []model.ClassSlot) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Session(&gorm.Session{AllowGlobalUpdate: true}).
			Delete(&model.ClassSlot{}).Error; err != nil {
			return err
		}
		if len(slots) > 0 {
			if err := tx.CreateInBatches(&slots, 200).Error; err != nil {
				return err
			}
		}
		return nil
	})
}
