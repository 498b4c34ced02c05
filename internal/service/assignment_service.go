package service

import (
	"math"
	"studytrack_backend/internal/model"
	"studytrack_backend/internal/repository"
	"studytrack_backend/pkg/logger"
	"time"

	"go.uber.org/zap"
)

const xpPerAssignment = 50

// AssignmentRequest 作业创建与更新入参
type AssignmentRequest struct {
	Title        string               `json:"title" binding:"required,max=255"`
	Type         model.AssignmentType `json:"type" binding:"required,oneof=essay problem_set reading"`
	WordCount    int                  `json:"wordCount"`
	ProblemCount int                  `json:"problemCount"`
	PageCount    int                  `json:"pageCount"`
	DueDate      *time.Time           `json:"dueDate"`
}

// AssignmentService 作业管理，创建与更新时自动刷新耗时估算
type AssignmentService struct {
	Assignments *repository.AssignmentRepository
	Students    *repository.StudentRepository
	Activity    *repository.ActivityRepository
	Estimator   *EstimatorService
	Badges      *BadgeService
}

func NewAssignmentService(
	assignments *repository.AssignmentRepository,
	students *repository.StudentRepository,
	activity *repository.ActivityRepository,
	estimator *EstimatorService,
	badges *BadgeService,
) *AssignmentService {
	return &AssignmentService{
		Assignments: assignments,
		Students:    students,
		Activity:    activity,
		Estimator:   estimator,
		Badges:      badges,
	}
}

func (s *AssignmentService) Create(studentID uint, req *AssignmentRequest) (*model.Assignment, *EstimateResult, error) {
	assignment := &model.Assignment{
		StudentID:    studentID,
		Title:        req.Title,
		Type:         req.Type,
		WordCount:    req.WordCount,
		ProblemCount: req.ProblemCount,
		PageCount:    req.PageCount,
		DueDate:      req.DueDate,
	}

	estimate, err := s.refreshEstimate(assignment, studentID)
	if err != nil {
		return nil, nil, err
	}

	if err := s.Assignments.Create(assignment); err != nil {
		return nil, nil, err
	}
	return assignment, estimate, nil
}

func (s *AssignmentService) List(studentID uint) ([]model.Assignment, error) {
	return s.Assignments.FindByStudent(studentID)
}

func (s *AssignmentService) Get(id, studentID uint) (*model.Assignment, error) {
	return s.Assignments.FindByIDAndStudent(id, studentID)
}

func (s *AssignmentService) Update(id, studentID uint, req *AssignmentRequest) (*model.Assignment, *EstimateResult, error) {
	assignment, err := s.Assignments.FindByIDAndStudent(id, studentID)
	if err != nil {
		return nil, nil, err
	}

	assignment.Title = req.Title
	assignment.Type = req.Type
	assignment.WordCount = req.WordCount
	assignment.ProblemCount = req.ProblemCount
	assignment.PageCount = req.PageCount
	assignment.DueDate = req.DueDate

	estimate, err := s.refreshEstimate(assignment, studentID)
	if err != nil {
		return nil, nil, err
	}

	if err := s.Assignments.Update(assignment); err != nil {
		return nil, nil, err
	}
	return assignment, estimate, nil
}

func (s *AssignmentService) Delete(id, studentID uint) error {
	assignment, err := s.Assignments.FindByIDAndStudent(id, studentID)
	if err != nil {
		return err
	}
	return s.Assignments.Delete(assignment)
}

// Estimate 按学生当前系数重新估算并持久化
func (s *AssignmentService) Estimate(id, studentID uint) (*EstimateResult, error) {
	assignment, err := s.Assignments.FindByIDAndStudent(id, studentID)
	if err != nil {
		return nil, err
	}
	estimate, err := s.refreshEstimate(assignment, studentID)
	if err != nil {
		return nil, err
	}
	if err := s.Assignments.Update(assignment); err != nil {
		return nil, err
	}
	return estimate, nil
}

// Complete 标记完成，用已结束会话的累计分钟数回填实际耗时
func (s *AssignmentService) Complete(id, studentID uint) (*model.Assignment, error) {
	assignment, err := s.Assignments.FindByIDAndStudent(id, studentID)
	if err != nil {
		return nil, err
	}
	if assignment.Completed {
		return assignment, nil
	}

	minutes, err := s.Activity.SumMinutesByAssignment(assignment.ID)
	if err != nil {
		return nil, err
	}

	now := time.Now()
	assignment.Completed = true
	assignment.CompletedAt = &now
	assignment.ActualHours = math.Round(float64(minutes)/60*100) / 100

	if err := s.Assignments.Update(assignment); err != nil {
		return nil, err
	}

	if err := s.Badges.AddXP(studentID, xpPerAssignment); err != nil {
		return nil, err
	}
	if _, err := s.Badges.EvaluateBadges(studentID); err != nil {
		logger.Log.Warn("badge evaluation after completion failed",
			zap.Uint("studentId", studentID),
			zap.Error(err),
		)
	}

	logger.Log.Info("assignment completed",
		zap.Uint("studentId", studentID),
		zap.Uint("assignmentId", assignment.ID),
		zap.Float64("estimatedHours", assignment.EstimatedHours),
		zap.Float64("actualHours", assignment.ActualHours),
	)
	return assignment, nil
}

func (s *AssignmentService) refreshEstimate(assignment *model.Assignment, studentID uint) (*EstimateResult, error) {
	student, err := s.Students.FindByID(studentID)
	if err != nil {
		return nil, err
	}
	estimate, err := s.Estimator.EstimateAssignment(assignment, student)
	if err != nil {
		return nil, err
	}
	assignment.EstimatedHours = estimate.HoursEstimate
	return estimate, nil
}
