package dto

// ── 考勤模块 DTO ──

// MarkAttendanceRequest 设置考勤状态；status 为 null 表示取消标记
type MarkAttendanceRequest struct {
	SubjectCode string  `json:"subjectCode" binding:"required,max=50"`
	Status      *string `json:"status"      binding:"omitempty,oneof=present absent cancelled"`
	ClassDate   string  `json:"classDate"   binding:"required,datetime=2006-01-02"`
	TimeStart   string  `json:"timeStart"   binding:"omitempty,datetime=15:04"`
	Timestamp   string  `json:"timestamp"   binding:"omitempty,datetime=2006-01-02T15:04:05Z07:00"`
}

// ToggleAttendanceRequest 点击某个状态按钮
type ToggleAttendanceRequest struct {
	SubjectCode string `json:"subjectCode" binding:"required,max=50"`
	Status      string `json:"status"      binding:"required,oneof=present absent cancelled"`
	ClassDate   string `json:"classDate"   binding:"required,datetime=2006-01-02"`
	TimeStart   string `json:"timeStart"   binding:"omitempty,datetime=15:04"`
}

// AttendanceRecordResponse 考勤记录
type AttendanceRecordResponse struct {
	ID          string  `json:"id"`
	StudentID   string  `json:"studentId"`
	SubjectCode string  `json:"subjectCode"`
	Status      *string `json:"status"`
	ClassDate   string  `json:"classDate"`
	TimeStart   string  `json:"timeStart,omitempty"`
	MarkedAt    string  `json:"markedAt,omitempty"`
	// Unsynced 写入失败时随 503 返回的乐观记录为 true，客户端据此提示并重试
	Unsynced bool `json:"unsynced,omitempty"`
}

// SubjectStatResponse 课程统计
type SubjectStatResponse struct {
	SubjectCode string  `json:"subject_code"`
	Name        string  `json:"name"`
	Known       bool    `json:"known"`
	Present     int     `json:"present"`
	Absent      int     `json:"absent"`
	Cancelled   int     `json:"cancelled"`
	Percentage  float64 `json:"percentage"`
}

// AlertResponse 出勤预警
type AlertResponse struct {
	SubjectCode string  `json:"subject_code"`
	Name        string  `json:"name"`
	Percentage  float64 `json:"percentage"`
	Severity    string  `json:"severity"` // warning | critical
}

// AttendanceSummaryResponse 总览
type AttendanceSummaryResponse struct {
	Present    int             `json:"present"`
	Absent     int             `json:"absent"`
	Cancelled  int             `json:"cancelled"`
	Percentage float64         `json:"percentage"`
	Alerts     []AlertResponse `json:"alerts"`
}

// CourseDetailResponse 课程详情
type CourseDetailResponse struct {
	Stat     SubjectStatResponse        `json:"stat"`
	Schedule []SlotResponse             `json:"schedule"`
	History  []AttendanceRecordResponse `json:"history"`
}
