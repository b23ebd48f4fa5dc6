package model

import "gorm.io/datatypes"

// TimetableRevision 课表修订历史 对应 timetable_revisions
// 每次管理员整体替换课表都保存一份原始文档快照
type TimetableRevision struct {
	RevisionID string         `gorm:"type:uuid;primaryKey;default:gen_random_uuid()" json:"revision_id"`
	Document   datatypes.JSON `gorm:"type:jsonb;not null"                            json:"document"`
	ClassCount int            `gorm:"not null;default:0"                             json:"class_count"`
	BaseModel
}

// TableName 指定表名
func (TimetableRevision) TableName() string { return "timetable_revisions" }
