package dto

// ── 课表模块 DTO ──
//
// 字段名沿用原有 schedule.json 文档格式，前端与管理员编辑器无需改动。

// SemesterConfig 课表文档中的学期窗口
type SemesterConfig struct {
	Start string `json:"start" validate:"required,datetime=2006-01-02"`
	End   string `json:"end"   validate:"required,datetime=2006-01-02"`
}

// ClassSlotDTO 课表中的一个每周时段
type ClassSlotDTO struct {
	Semester    int    `json:"semester"     validate:"gte=0"`
	Branch      string `json:"branch"       validate:"required,max=20"`
	ClassName   string `json:"class_name"   validate:"required,max=200"`
	SubjectCode string `json:"subject_code" validate:"required,max=50"`
	Classroom   string `json:"classroom"    validate:"max=100"`
	TimeStart   string `json:"time_start"   validate:"required,datetime=15:04"`
	TimeEnd     string `json:"time_end"     validate:"required,datetime=15:04"`
	Day         string `json:"day"          validate:"required"`
	Group       string `json:"group"        validate:"required,oneof=A B ALL"`
}

// TimetableDocument 完整课表文档
type TimetableDocument struct {
	SemesterConfig *SemesterConfig `json:"semesterConfig,omitempty" validate:"omitempty"`
	Classes        []ClassSlotDTO  `json:"classes"                  validate:"dive"`
}

// ReplaceTimetableResponse 替换课表结果
type ReplaceTimetableResponse struct {
	RevisionID string `json:"revision_id"`
	ClassCount int    `json:"class_count"`
}

// SlotResponse 视图中的一个时段
type SlotResponse struct {
	SubjectCode string `json:"subject_code"`
	ClassName   string `json:"class_name"`
	Classroom   string `json:"classroom"`
	Day         string `json:"day"`
	TimeStart   string `json:"time_start"`
	TimeEnd     string `json:"time_end"`
	Branch      string `json:"branch"`
	Group       string `json:"group"`
	IsBreak     bool   `json:"is_break"`
}

// WeeklyDay 周课表中的一天
type WeeklyDay struct {
	Day   string         `json:"day"`
	Slots []SlotResponse `json:"slots"`
}

// WeeklyScheduleResponse 周课表（周一至周日）
type WeeklyScheduleResponse struct {
	Branch string      `json:"branch"`
	Group  string      `json:"group"`
	Days   []WeeklyDay `json:"days"`
}

// DailySlotResponse 日课表中的一个时段及其考勤状态
type DailySlotResponse struct {
	SlotResponse
	Status *string `json:"status"` // null 表示未标记
}

// DailyScheduleResponse 某一天的课表
type DailyScheduleResponse struct {
	Date           string              `json:"date"`
	Day            string              `json:"day"`
	Exception      string              `json:"exception,omitempty"` // holiday | exam | weekend
	ExceptionLabel string              `json:"exception_label,omitempty"`
	InSemester     bool                `json:"in_semester"`
	DayStatus      *string             `json:"day_status"`
	Slots          []DailySlotResponse `json:"slots"`
}
