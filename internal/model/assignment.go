package model

import (
	"time"
)

type AssignmentType string

const (
	AssignmentEssay      AssignmentType = "essay"
	AssignmentProblemSet AssignmentType = "problem_set"
	AssignmentReading    AssignmentType = "reading"
)

// swagger:model Assignment
type Assignment struct {
	BaseModel
	StudentID      uint           `gorm:"index;type:bigint unsigned;not null" json:"studentId"`
	Title          string         `gorm:"size:255;not null" json:"title"`
	Type           AssignmentType `gorm:"type:enum('essay','problem_set','reading');not null" json:"type"`
	WordCount      int            `gorm:"default:0" json:"wordCount"`
	ProblemCount   int            `gorm:"default:0" json:"problemCount"`
	PageCount      int            `gorm:"default:0" json:"pageCount"`
	EstimatedHours float64        `gorm:"default:0" json:"estimatedHours"`
	ActualHours    float64        `gorm:"default:0" json:"actualHours"`
	Completed      bool           `gorm:"default:false" json:"completed"`
	CompletedAt    *time.Time     `json:"completedAt"`
	DueDate        *time.Time     `json:"dueDate"`
}

func (Assignment) TableName() string {
	return "assignments"
}

// SizeMetric 返回与作业类型对应的规模指标
func (a *Assignment) SizeMetric() float64 {
	switch a.Type {
	case AssignmentEssay:
		return float64(a.WordCount)
	case AssignmentProblemSet:
		return float64(a.ProblemCount)
	case AssignmentReading:
		return float64(a.PageCount)
	}
	return 0
}
