package dto

// ── 日历例外 DTO ──

// HolidayDTO 节假日
type HolidayDTO struct {
	Date string `json:"date" validate:"required,datetime=2006-01-02"`
	Name string `json:"name" validate:"required,max=200"`
}

// ExamPeriodDTO 考试周
type ExamPeriodDTO struct {
	Start string `json:"start" validate:"required,datetime=2006-01-02"`
	End   string `json:"end"   validate:"required,datetime=2006-01-02"`
	Type  string `json:"type"  validate:"required,max=100"`
}

// HolidayTable holidays.json 文档
type HolidayTable struct {
	Holidays []HolidayDTO `json:"holidays" validate:"dive"`
}

// ExamTable exams.json 文档
type ExamTable struct {
	Periods []ExamPeriodDTO `json:"periods" validate:"dive"`
}

// ClassifyResponse 日期分类
type ClassifyResponse struct {
	Date        string `json:"date"`
	IsHoliday   bool   `json:"is_holiday"`
	HolidayName string `json:"holiday_name,omitempty"`
	IsExam      bool   `json:"is_exam"`
	ExamLabel   string `json:"exam_label,omitempty"`
	IsWeekend   bool   `json:"is_weekend"`
	Label       string `json:"label,omitempty"` // 节假日 > 考试周 > 周末
	InSemester  bool   `json:"in_semester"`
}
