package model

// ClassSlot 每周课表时段 对应 class_slots
// 整张课表由管理员整体替换，Position 保留原始文档中的顺序
type ClassSlot struct {
	ClassSlotID string `gorm:"type:uuid;primaryKey;default:gen_random_uuid()" json:"class_slot_id"`
	Position    int    `gorm:"not null"                                       json:"position"`
	Semester    int    `gorm:"not null;default:0"                             json:"semester"`
	Branch      string `gorm:"type:varchar(20);not null"                      json:"branch"` // 专业代码或 ALL
	ClassName   string `gorm:"type:varchar(200);not null"                     json:"class_name"`
	SubjectCode string `gorm:"type:varchar(50);not null"                      json:"subject_code"` // BREAK 表示非教学时段
	Classroom   string `gorm:"type:varchar(100);not null;default:''"          json:"classroom"`
	DayOfWeek   int    `gorm:"type:smallint;not null"                         json:"day_of_week"` // 0=Sunday … 6=Saturday
	TimeStart   string `gorm:"type:varchar(5);not null"                       json:"time_start"`  // HH:MM
	TimeEnd     string `gorm:"type:varchar(5);not null"                       json:"time_end"`
	Group       string `gorm:"column:cohort_group;type:varchar(5);not null;default:'ALL'" json:"group"` // A | B | ALL
	BaseModel
}

// TableName 指定表名
func (ClassSlot) TableName() string { return "class_slots" }
