package repository

import (
	"context"

	"gorm.io/gorm"

	"attend-ease/backend/internal/model"
)

// CalendarRepository 节假日 / 考试周数据访问接口
type CalendarRepository interface {
	ListHolidays(ctx context.Context) ([]model.Holiday, error)
	ListExamPeriods(ctx context.Context) ([]model.ExamPeriod, error)
	ReplaceHolidays(ctx context.Context, holidays []model.Holiday) error
	ReplaceExamPeriods(ctx context.Context, periods []model.ExamPeriod) error
}

type calendarRepo struct {
	db *gorm.DB
}

// NewCalendarRepo 创建 CalendarRepository 实例
func NewCalendarRepo(db *gorm.DB) CalendarRepository {
	return &calendarRepo{db: db}
}

func (r *calendarRepo) ListHolidays(ctx context.Context) ([]model.Holiday, error) {
	var holidays []model.Holiday
	err := r.db.WithContext(ctx).
		Order("date ASC").
		Find(&holidays).Error
	return holidays, err
}

func (r *calendarRepo) ListExamPeriods(ctx context.Context) ([]model.ExamPeriod, error) {
	var periods []model.ExamPeriod
	err := r.db.WithContext(ctx).
		Order("start_date ASC").
		Find(&periods).Error
	return periods, err
}

func (r *calendarRepo) ReplaceHolidays(ctx context.Context, holidays []model.Holiday) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Session(&gorm.Session{AllowGlobalUpdate: true}).
			Delete(&model.Holiday{}).Error; err != nil {
			return err
		}
		if len(holidays) == 0 {
			return nil
		}
		return tx.Create(&holidays).Error
	})
}

func (r *calendarRepo) ReplaceExamPeriods(ctx context.Context, periods []model.ExamPeriod) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Session(&gorm.Session{AllowGlobalUpdate: true}).
			Delete(&model.ExamPeriod{}).Error; err != nil {
			return err
		}
		if len(periods) == 0 {
			return nil
		}
		return tx.Create(&periods).Error
	})
}
