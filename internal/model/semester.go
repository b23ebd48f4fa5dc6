package model

import "time"

// Semester 学期表 对应 semesters
// 当前激活学期的起止日期即考勤计算使用的学期窗口
type Semester struct {
	SemesterID string    `gorm:"type:uuid;primaryKey;default:gen_random_uuid()" json:"semester_id"`
	Name       string    `gorm:"type:varchar(100);not null"                     json:"name"`
	StartDate  time.Time `gorm:"type:date;not null"                             json:"start_date"`
	EndDate    time.Time `gorm:"type:date;not null"                             json:"end_date"`
	IsActive   bool      `gorm:"not null;default:false"                         json:"is_active"`
	SoftDeleteModel
}

// TableName 指定表名
func (Semester) TableName() string { return "semesters" }
