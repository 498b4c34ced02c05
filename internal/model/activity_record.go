package model

import (
	"time"
)

// ActivityRecord 浏览器插件上报的学习时段记录
// 会话结束后补齐 EndedAt/DurationMinutes 并置 IsActive=false，之后不再修改
// swagger:model ActivityRecord
type ActivityRecord struct {
	BaseModel
	StudentID       uint       `gorm:"index;type:bigint unsigned;not null" json:"studentId"`
	AssignmentID    *uint      `gorm:"index;type:bigint unsigned" json:"assignmentId"`
	StartedAt       time.Time  `gorm:"index;not null" json:"startedAt"`
	EndedAt         *time.Time `json:"endedAt"`
	DurationMinutes int        `gorm:"default:0" json:"durationMinutes"`
	SiteName        string     `gorm:"size:255" json:"siteName"`
	AssignmentTitle string     `gorm:"size:255" json:"assignmentTitle"`
	IsActive        bool       `gorm:"default:true" json:"isActive"`
}

func (ActivityRecord) TableName() string {
	return "activity_records"
}
