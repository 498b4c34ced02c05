package model

import (
	"time"
)

type UserRole string

const (
	Student UserRole = "student"
	Advisor UserRole = "advisor"
	Admin   UserRole = "admin"
)

// AccountStatus 学生账号状态
type AccountStatus string

const (
	StatusActive             AccountStatus = "active"
	StatusInactive           AccountStatus = "inactive"
	StatusGraduatedSuspected AccountStatus = "graduated_suspected"
	StatusGraduatedConfirmed AccountStatus = "graduated_confirmed"
	StatusDormant            AccountStatus = "dormant"
)

// AllAccountStatuses 汇总接口按固定顺序输出各状态计数
var AllAccountStatuses = []AccountStatus{
	StatusActive,
	StatusInactive,
	StatusGraduatedSuspected,
	StatusGraduatedConfirmed,
	StatusDormant,
}

// StudyProfile 估算引擎使用的学生个性化系数
// swagger:model StudyProfile
type StudyProfile struct {
	WritingSpeed          float64 `json:"writingSpeed"`          // 词/小时
	ReadingSpeed          float64 `json:"readingSpeed"`          // 页/小时
	ProblemSolvingSpeed   float64 `json:"problemSolvingSpeed"`   // 题/小时
	ProcrastinationFactor float64 `json:"procrastinationFactor"` // >= 1.0
}

// swagger:model StudentUser
type StudentUser struct {
	BaseModel
	Name         string   `gorm:"size:100;not null" json:"name"`
	Email        string   `gorm:"size:100;unique;not null" json:"email"`
	Password     string   `gorm:"size:100;not null" json:"-"`
	Role         UserRole `gorm:"type:enum('student','advisor','admin');default:'student'" json:"role"`
	UniversityID uint     `gorm:"index;type:bigint unsigned" json:"universityId"`
	Avatar       string   `gorm:"size:255" json:"avatar"`
	XP           int      `gorm:"default:0" json:"xp"`
	Disabled     bool     `gorm:"default:false" json:"disabled"`

	// 个性化系数（速度必须为正，数据访问边界校验）
	WritingSpeed          float64 `gorm:"default:400" json:"writingSpeed"`
	ReadingSpeed          float64 `gorm:"default:30" json:"readingSpeed"`
	ProblemSolvingSpeed   float64 `gorm:"default:5" json:"problemSolvingSpeed"`
	ProcrastinationFactor float64 `gorm:"default:1.2" json:"procrastinationFactor"`
	PeakStartHour         int     `gorm:"default:19" json:"peakStartHour"`
	PeakEndHour           int     `gorm:"default:23" json:"peakEndHour"`

	// 状态检测结果字段
	AccountStatus     AccountStatus `gorm:"type:enum('active','inactive','graduated_suspected','graduated_confirmed','dormant');default:'active'" json:"accountStatus"`
	StatusConfidence  int           `gorm:"default:100" json:"statusConfidence"` // 始终处于 [0,100]
	GraduationSignals string        `gorm:"type:json" json:"graduationSignals"`
	LastLmsActivity   *time.Time    `json:"lastLmsActivity"`
	LastActive        time.Time     `gorm:"default:CURRENT_TIMESTAMP(3)" json:"lastActive"`

	// 被动计数器，由活动事件驱动，供徽章引擎使用
	SessionCount    int `gorm:"default:0" json:"sessionCount"`
	LmsSessionCount int `gorm:"default:0" json:"lmsSessionCount"`
}

func (StudentUser) TableName() string {
	return "students"
}

// Profile 返回估算引擎需要的系数快照
func (u *StudentUser) Profile() StudyProfile {
	return StudyProfile{
		WritingSpeed:          u.WritingSpeed,
		ReadingSpeed:          u.ReadingSpeed,
		ProblemSolvingSpeed:   u.ProblemSolvingSpeed,
		ProcrastinationFactor: u.ProcrastinationFactor,
	}
}
