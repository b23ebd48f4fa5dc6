package dto

// ── 学期模块 DTO ──

// CreateSemesterRequest 创建学期请求
type CreateSemesterRequest struct {
	Name      string `json:"name"       binding:"required,min=2,max=100"`
	StartDate string `json:"start_date" binding:"required"` // "2024-01-08"
	EndDate   string `json:"end_date"   binding:"required"`
}

// UpdateSemesterRequest 更新学期请求
type UpdateSemesterRequest struct {
	Name      *string `json:"name"       binding:"omitempty,min=2,max=100"`
	StartDate *string `json:"start_date"`
	EndDate   *string `json:"end_date"`
}

// SemesterResponse 学期信息响应
type SemesterResponse struct {
	ID        string `json:"id"`
	Name      string `json:"name"`
	StartDate string `json:"start_date"`
	EndDate   string `json:"end_date"`
	IsActive  bool   `json:"is_active"`
	CreatedAt string `json:"created_at"`
	UpdatedAt string `json:"updated_at"`
}

// SemesterWindowResponse 考勤计算实际使用的学期窗口
// source: semester（激活学期）| timetable（课表 semesterConfig）| none（不限制）
type SemesterWindowResponse struct {
	Source   string            `json:"source"`
	Start    string            `json:"start,omitempty"`
	End      string            `json:"end,omitempty"`
	Semester *SemesterResponse `json:"semester,omitempty"`
}
