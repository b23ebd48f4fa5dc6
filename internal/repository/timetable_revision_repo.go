package repository

import (
	"context"

	"gorm.io/gorm"

	"attend-ease/backend/internal/model"
)

// TimetableRevisionRepository 课表修订历史数据访问接口
type TimetableRevisionRepository interface {
	Create(ctx context.Context, rev *model.TimetableRevision) error
	Latest(ctx context.Context) (*model.TimetableRevision, error)
}

type timetableRevisionRepo struct {
	db *gorm.DB
}

// NewTimetableRevisionRepo 创建 TimetableRevisionRepository 实例
func NewTimetableRevisionRepo(db *gorm.DB) TimetableRevisionRepository {
	return &timetableRevisionRepo{db: db}
}

func (r *timetableRevisionRepo) Create(ctx context.Context, rev *model.TimetableRevision) error {
	return r.db.WithContext(ctx).Create(rev).Error
}

func (r *timetableRevisionRepo) Latest(ctx context.Context) (*model.TimetableRevision, error) {
	var rev model.TimetableRevision
	err := r.db.WithContext(ctx).
		Order("created_at DESC").
		First(&rev).Error
	if err != nil {
		return nil, err
	}
	return &rev, nil
}
