package repository

import (
	"context"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"attend-ease/backend/internal/model"
	pkgerrors "attend-ease/backend/pkg/errors"
)

// AttendanceRepository 考勤记录数据访问接口
//
// 同一 (student_id, record_id) 只有一条记录；写入按 marked_at 后写覆盖先写，
// 比库中记录更旧的写入返回 pkgerrors.ErrStaleMark。
type AttendanceRepository interface {
	ListByStudent(ctx context.Context, studentID string) ([]model.AttendanceRecord, error)
	Get(ctx context.Context, studentID, recordID string) (*model.AttendanceRecord, error)
	Upsert(ctx context.Context, record *model.AttendanceRecord) error
	Delete(ctx context.Context, studentID, recordID string, markedAt time.Time) error
}

type attendanceRepo struct {
	db *gorm.DB
}

// NewAttendanceRepo 创建 AttendanceRepository 实例
func NewAttendanceRepo(db *gorm.DB) AttendanceRepository {
	return &attendanceRepo{db: db}
}

func (r *attendanceRepo) ListByStudent(ctx context.Context, studentID string) ([]model.AttendanceRecord, error) {
	var records []model.AttendanceRecord
	err := r.db.WithContext(ctx).
		Where("student_id = ?", studentID).
		Order("class_date ASC, time_start ASC, subject_code ASC").
		Find(&records).Error
	return records, err
}

func (r *attendanceRepo) Get(ctx context.Context, studentID, recordID string) (*model.AttendanceRecord, error) {
	var record model.AttendanceRecord
	err := r.db.WithContext(ctx).
		Where("student_id = ? AND record_id = ?", studentID, recordID).
		First(&record).Error
	if err != nil {
		return nil, err
	}
	return &record, nil
}

func (r *attendanceRepo) Upsert(ctx context.Context, record *model.AttendanceRecord) error {
	res := r.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns: []clause.Column{{Name: "student_id"}, {Name: "record_id"}},
			DoUpdates: clause.AssignmentColumns([]string{
				"subject_code", "class_date", "time_start", "status", "marked_at", "updated_at",
			}),
			Where: clause.Where{Exprs: []clause.Expression{
				clause.Expr{SQL: "attendance_records.marked_at <= EXCLUDED.marked_at"},
			}},
		}).
		Create(record)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return pkgerrors.ErrStaleMark
	}
	return nil
}

func (r *attendanceRepo) Delete(ctx context.Context, studentID, recordID string, markedAt time.Time) error {
	res := r.db.WithContext(ctx).
		Where("student_id = ? AND record_id = ? AND marked_at <= ?", studentID, recordID, markedAt).
		Delete(&model.AttendanceRecord{})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected > 0 {
		return nil
	}

	// 没有删除任何行：记录本就不存在（幂等）或已有更新的写入
	var newer int64
	if err := r.db.WithContext(ctx).
		Model(&model.AttendanceRecord{}).
		Where("student_id = ? AND record_id = ?", studentID, recordID).
		Count(&newer).Error; err != nil {
		return err
	}
	if newer > 0 {
		return pkgerrors.ErrStaleMark
	}
	return nil
}
