package repository

import (
	"context"

	"gorm.io/gorm"

	"attend-ease/backend/internal/model"
	pkgerrors "attend-ease/backend/pkg/errors"
)

// ProfileRepository 学生档案数据访问接口
type ProfileRepository interface {
	Create(ctx context.Context, profile *model.StudentProfile) error
	GetByUserID(ctx context.Context, userID string) (*model.StudentProfile, error)
	// Update 乐观锁更新：version 不匹配时返回 pkgerrors.ErrOptimisticLock
	Update(ctx context.Context, profile *model.StudentProfile) error
	List(ctx context.Context, offset, limit int) ([]model.StudentProfile, int64, error)
	Count(ctx context.Context) (int64, error)
}

type profileRepo struct {
	db *gorm.DB
}

// NewProfileRepo 创建 ProfileRepository 实例
func NewProfileRepo(db *gorm.DB) ProfileRepository {
	return &profileRepo{db: db}
}

func (r *profileRepo) Create(ctx context.Context, profile *model.StudentProfile) error {
	return r.db.WithContext(ctx).Create(profile).Error
}

func (r *profileRepo) GetByUserID(ctx context.Context, userID string) (*model.StudentProfile, error) {
	var profile model.StudentProfile
	err := r.db.WithContext(ctx).
		Where("user_id = ?", userID).
		First(&profile).Error
	if err != nil {
		return nil, err
	}
	return &profile, nil
}

func (r *profileRepo) Update(ctx context.Context, profile *model.StudentProfile) error {
	current := profile.Version
	res := r.db.WithContext(ctx).
		Model(&model.StudentProfile{}).
		Where("user_id = ? AND version = ?", profile.UserID, current).
		Updates(map[string]interface{}{
			"college_id":       profile.CollegeID,
			"name":             profile.Name,
			"auth_email":       profile.AuthEmail,
			"year":             profile.Year,
			"branch":           profile.Branch,
			"roll_number":      profile.RollNumber,
			"cohort_group":     profile.Group,
			"current_semester": profile.CurrentSemester,
			"updated_by":       profile.UpdatedBy,
			"updated_at":       gorm.Expr("NOW()"),
			"version":          current + 1,
		})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return pkgerrors.ErrOptimisticLock
	}
	profile.Version = current + 1
	return nil
}

func (r *profileRepo) List(ctx context.Context, offset, limit int) ([]model.StudentProfile, int64, error) {
	var (
		profiles []model.StudentProfile
		total    int64
	)
	q := r.db.WithContext(ctx).Model(&model.StudentProfile{})
	if err := q.Count(&total).Error; err != nil {
		return nil, 0, err
	}
	err := q.Order("created_at DESC").
		Offset(offset).
		Limit(limit).
		Find(&profiles).Error
	return profiles, total, err
}

func (r *profileRepo) Count(ctx context.Context) (int64, error) {
	var total int64
	err := r.db.WithContext(ctx).Model(&model.StudentProfile{}).Count(&total).Error
	return total, err
}
