package service

import (
	"encoding/json"
	"studytrack_backend/internal/model"
	"studytrack_backend/internal/util"
	"studytrack_backend/pkg/logger"
	"time"

	"go.uber.org/zap"
)

// UpdateProfileRequest 个性化系数与资料更新入参，nil 字段不改动
type UpdateProfileRequest struct {
	Name                  *string  `json:"name"`
	WritingSpeed          *float64 `json:"writingSpeed"`
	ReadingSpeed          *float64 `json:"readingSpeed"`
	ProblemSolvingSpeed   *float64 `json:"problemSolvingSpeed"`
	ProcrastinationFactor *float64 `json:"procrastinationFactor"`
	PeakStartHour         *int     `json:"peakStartHour"`
	PeakEndHour           *int     `json:"peakEndHour"`
}

// 管理员可手动设置的状态：检测器自身永远不产生 graduated_confirmed 和 dormant
var manualStatuses = map[model.AccountStatus]bool{
	model.StatusActive:             true,
	model.StatusGraduatedConfirmed: true,
	model.StatusDormant:            true,
}

type UserService struct {
	Students StudentAccountStore
}

func NewUserService(students StudentAccountStore) *UserService {
	return &UserService{Students: students}
}

func (s *UserService) GetProfile(studentID uint) (*model.StudentUser, error) {
	return s.Students.FindByID(studentID)
}

// UpdateProfile 局部更新学生资料，速度系数在落库前整体校验
func (s *UserService) UpdateProfile(studentID uint, req *UpdateProfileRequest) (*model.StudentUser, error) {
	student, err := s.Students.FindByID(studentID)
	if err != nil {
		return nil, err
	}

	if req.Name != nil {
		student.Name = *req.Name
	}
	if req.WritingSpeed != nil {
		student.WritingSpeed = *req.WritingSpeed
	}
	if req.ReadingSpeed != nil {
		student.ReadingSpeed = *req.ReadingSpeed
	}
	if req.ProblemSolvingSpeed != nil {
		student.ProblemSolvingSpeed = *req.ProblemSolvingSpeed
	}
	if req.ProcrastinationFactor != nil {
		student.ProcrastinationFactor = *req.ProcrastinationFactor
	}
	if req.PeakStartHour != nil {
		student.PeakStartHour = *req.PeakStartHour
	}
	if req.PeakEndHour != nil {
		student.PeakEndHour = *req.PeakEndHour
	}

	if err := ValidateProfile(student.Profile()); err != nil {
		return nil, err
	}

	if err := s.Students.Update(student); err != nil {
		return nil, err
	}
	return student, nil
}

// SetAccountStatus 管理员手动改状态，置信度重置为100并标记人工来源
func (s *UserService) SetAccountStatus(studentID uint, status model.AccountStatus) (*model.StudentUser, error) {
	if !manualStatuses[status] {
		return nil, util.ErrInvalidStatus
	}

	student, err := s.Students.FindByID(studentID)
	if err != nil {
		return nil, err
	}

	signals, _ := json.Marshal(map[string]bool{"manual_override": true})
	if err := s.Students.UpdateStatus(studentID, status, 100, string(signals), student.LastActive); err != nil {
		return nil, err
	}

	logger.Log.Info("account status set manually",
		zap.Uint("studentId", studentID),
		zap.String("from", string(student.AccountStatus)),
		zap.String("to", string(status)),
	)

	student.AccountStatus = status
	student.StatusConfidence = 100
	return student, nil
}

// UpdateAvatar 存储层上传完成后落库头像地址
func (s *UserService) UpdateAvatar(studentID uint, avatarURL string) error {
	student, err := s.Students.FindByID(studentID)
	if err != nil {
		return err
	}
	student.Avatar = avatarURL
	student.UpdatedAt = time.Now()
	return s.Students.Update(student)
}
