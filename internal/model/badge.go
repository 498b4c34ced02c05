package model

import (
	"time"
)

// BadgeCriteria 徽章解锁条件依据的计数器
type BadgeCriteria string

const (
	CriteriaSessionCount BadgeCriteria = "session_count"
	CriteriaLmsSessions  BadgeCriteria = "lms_sessions"
	CriteriaStreakDays   BadgeCriteria = "streak_days"
	CriteriaCompleted    BadgeCriteria = "assignments_completed"
)

// swagger:model Badge
type Badge struct {
	BaseModel
	Code      string        `gorm:"size:50;unique;not null" json:"code"`
	Name      string        `gorm:"size:100;not null" json:"name"`
	Icon      string        `gorm:"size:255" json:"icon"`
	Criteria  BadgeCriteria `gorm:"size:50;not null" json:"criteria"`
	Threshold int           `gorm:"not null" json:"threshold"`
	RewardXP  int           `gorm:"default:0" json:"rewardXp"`
}

func (Badge) TableName() string {
	return "badges"
}

// swagger:model StudentBadge
type StudentBadge struct {
	BaseModel
	StudentID uint      `gorm:"index:idx_student_badge,unique;type:bigint unsigned;not null" json:"studentId"`
	BadgeID   uint      `gorm:"index:idx_student_badge,unique;type:bigint unsigned;not null" json:"badgeId"`
	EarnedAt  time.Time `gorm:"not null" json:"earnedAt"`
	Badge     Badge     `json:"badge"`
}

func (StudentBadge) TableName() string {
	return "student_badges"
}
