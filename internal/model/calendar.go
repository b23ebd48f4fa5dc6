package model

import "time"

// Holiday 节假日表 对应 holidays
type Holiday struct {
	HolidayID string    `gorm:"type:uuid;primaryKey;default:gen_random_uuid()" json:"holiday_id"`
	Date      time.Time `gorm:"type:date;not null;uniqueIndex"                 json:"date"`
	Name      string    `gorm:"type:varchar(200);not null"                     json:"name"`
	BaseModel
}

// TableName 指定表名
func (Holiday) TableName() string { return "holidays" }

// ExamPeriod 考试周表 对应 exam_periods（日期闭区间）
type ExamPeriod struct {
	ExamPeriodID string    `gorm:"type:uuid;primaryKey;default:gen_random_uuid()" json:"exam_period_id"`
	StartDate    time.Time `gorm:"type:date;not null"                             json:"start_date"`
	EndDate      time.Time `gorm:"type:date;not null"                             json:"end_date"`
	Type         string    `gorm:"type:varchar(100);not null"                     json:"type"`
	BaseModel
}

// TableName 指定表名
func (ExamPeriod) TableName() string { return "exam_periods" }
