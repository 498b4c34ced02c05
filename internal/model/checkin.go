package model

import (
	"time"
)

// Checkin 记录学生的每日学习打卡
// swagger:model Checkin
type Checkin struct {
	BaseModel
	StudentID  uint      `gorm:"index;type:bigint unsigned;not null" json:"studentId"`
	CheckinAt  time.Time `gorm:"not null;index:idx_student_checkin_date,unique" json:"checkinAt"`
	StreakDays int       `gorm:"default:1" json:"streakDays"` // 连续打卡天数
}

func (Checkin) TableName() string {
	return "checkins"
}
