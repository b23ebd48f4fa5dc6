package repository

import (
	"context"

	"gorm.io/gorm"
)

// Repository 所有 Repository 的聚合入口
type Repository struct {
	db *gorm.DB

	Semester   SemesterRepository
	ClassSlot  ClassSlotRepository
	Calendar   CalendarRepository
	Attendance AttendanceRepository
	Profile    ProfileRepository
	Revision   TimetableRevisionRepository
}

// NewRepository 创建 Repository 聚合
func NewRepository(db *gorm.DB) *Repository {
	return &Repository{
		db:         db,
		Semester:   NewSemesterRepo(db),
		ClassSlot:  NewClassSlotRepo(db),
		Calendar:   NewCalendarRepo(db),
		Attendance: NewAttendanceRepo(db),
		Profile:    NewProfileRepo(db),
		Revision:   NewTimetableRevisionRepo(db),
	}
}

// BeginTx 开启事务
// 单元测试中使用 mock 聚合（db 为 nil）时返回 nil 事务，调用方需判空
func (r *Repository) BeginTx(ctx context.Context) (*gorm.DB, error) {
	if r.db == nil {
		return nil, nil
	}
	tx := r.db.WithContext(ctx).Begin()
	return tx, tx.Error
}

// WithTx 返回绑定到事务的 Repository 聚合；tx 为 nil 时返回自身
func (r *Repository) WithTx(tx *gorm.DB) *Repository {
	if tx == nil {
		return r
	}
	return NewRepository(tx)
}
