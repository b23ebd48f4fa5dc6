package model

import "time"

// AttendanceRecord 考勤记录表 对应 attendance_records
//
// 主键 (student_id, record_id)，record_id 沿用旧数据格式 subject_date[_HHMM]。
// 未标记状态不落库：取消标记即删除记录。
type AttendanceRecord struct {
	StudentID   string    `gorm:"type:varchar(128);primaryKey"          json:"student_id"`
	RecordID    string    `gorm:"type:varchar(120);primaryKey"          json:"record_id"`
	SubjectCode string    `gorm:"type:varchar(50);not null"             json:"subject_code"`
	ClassDate   time.Time `gorm:"type:date;not null"                    json:"class_date"`
	TimeStart   string    `gorm:"type:varchar(5);not null;default:''"   json:"time_start"`
	Status      string    `gorm:"type:varchar(10);not null"             json:"status"` // present | absent | cancelled
	MarkedAt    time.Time `gorm:"not null"                              json:"marked_at"`
	CreatedAt   time.Time `gorm:"not null;default:CURRENT_TIMESTAMP"    json:"created_at"`
	UpdatedAt   time.Time `gorm:"not null;default:CURRENT_TIMESTAMP"    json:"updated_at"`
}

// TableName 指定表名
func (AttendanceRecord) TableName() string { return "attendance_records" }
