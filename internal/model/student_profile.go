package model

// StudentProfile 学生档案表 对应 student_profiles
// UserID 为外部身份服务的用户 ID
type StudentProfile struct {
	UserID          string `gorm:"type:varchar(128);primaryKey"                  json:"user_id"`
	CollegeID       string `gorm:"type:varchar(50);not null;uniqueIndex"         json:"college_id"`
	Name            string `gorm:"type:varchar(100);not null"                    json:"name"`
	AuthEmail       string `gorm:"type:varchar(200);not null;default:''"         json:"auth_email"`
	Year            string `gorm:"type:varchar(10);not null"                     json:"year"`
	Branch          string `gorm:"type:varchar(20);not null"                     json:"branch"`
	RollNumber      string `gorm:"type:varchar(50);not null"                     json:"roll_number"`
	Group           string `gorm:"column:cohort_group;type:varchar(5);not null"  json:"group"` // A | B
	CurrentSemester int    `gorm:"not null;default:2"                            json:"current_semester"`
	VersionedModel
}

// TableName 指定表名
func (StudentProfile) TableName() string { return "student_profiles" }
