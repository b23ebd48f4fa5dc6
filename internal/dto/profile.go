package dto

// ── 学生档案 DTO ──

// UpsertProfileRequest 创建 / 更新学生档案
type UpsertProfileRequest struct {
	CollegeID       string `json:"collegeId"       binding:"required,max=50"`
	Name            string `json:"name"            binding:"required,min=1,max=100"`
	Year            string `json:"year"            binding:"required,max=10"`
	Branch          string `json:"branch"          binding:"required,max=20"`
	RollNumber      string `json:"rollNumber"      binding:"required,max=50"`
	Group           string `json:"group"           binding:"required,oneof=A B"`
	CurrentSemester int    `json:"currentSemester" binding:"omitempty,min=1,max=12"`
	Version         int    `json:"version"` // 更新时携带，用于乐观锁；0 表示不校验
}

// ProfileResponse 学生档案
type ProfileResponse struct {
	ID              string `json:"id"`
	CollegeID       string `json:"collegeId"`
	Name            string `json:"name"`
	AuthEmail       string `json:"authEmail"`
	Year            string `json:"year"`
	Branch          string `json:"branch"`
	BranchName      string `json:"branchName"`
	RollNumber      string `json:"rollNumber"`
	Group           string `json:"group"`
	CurrentSemester int    `json:"currentSemester"`
	Version         int    `json:"version"`
	CreatedAt       string `json:"createdAt"`
}

// AdminStatsResponse 管理员统计
type AdminStatsResponse struct {
	TotalUsers    int64  `json:"totalUsers"`
	ActiveSession string `json:"activeSession"`
}

// PageRequest 通用分页请求
type PageRequest struct {
	Page     int `form:"page"      binding:"omitempty,min=1"`
	PageSize int `form:"page_size" binding:"omitempty,min=1,max=100"`
}
