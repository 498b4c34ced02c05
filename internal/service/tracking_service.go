package service

import (
	"studytrack_backend/internal/model"
	"studytrack_backend/internal/repository"
	"studytrack_backend/internal/util"
	"studytrack_backend/pkg/logger"
	"time"

	"go.uber.org/zap"
)

// StartSessionRequest 开始跟踪会话入参
// 来自浏览器插件，站点和文档标题都可能缺失
type StartSessionRequest struct {
	SiteName        string `json:"siteName"`
	AssignmentTitle string `json:"assignmentTitle"`
	AssignmentID    *uint  `json:"assignmentId"`
}

// TrackingService 学习会话的开始与结束
type TrackingService struct {
	Activity *repository.ActivityRepository
	Detector *DetectorService
	Badges   *BadgeService
}

func NewTrackingService(activity *repository.ActivityRepository, detector *DetectorService, badges *BadgeService) *TrackingService {
	return &TrackingService{
		Activity: activity,
		Detector: detector,
		Badges:   badges,
	}
}

// StartSession 创建进行中的活动记录，同步刷新学生的活跃计数器
func (s *TrackingService) StartSession(studentID uint, req *StartSessionRequest) (*model.ActivityRecord, error) {
	record := &model.ActivityRecord{
		StudentID:       studentID,
		AssignmentID:    req.AssignmentID,
		StartedAt:       time.Now(),
		SiteName:        req.SiteName,
		AssignmentTitle: req.AssignmentTitle,
		IsActive:        true,
	}
	if err := s.Activity.Create(record); err != nil {
		return nil, err
	}

	if err := s.Detector.RecordLmsActivity(studentID, req.SiteName); err != nil {
		return nil, err
	}

	// 会话计数刚更新过，顺带检查 session_count / lms_sessions 类徽章
	if _, err := s.Badges.EvaluateBadges(studentID); err != nil {
		logger.Log.Warn("badge evaluation after session start failed",
			zap.Uint("studentId", studentID),
			zap.Error(err),
		)
	}
	return record, nil
}

// EndSession 结束会话并结算时长，重复结束报错
func (s *TrackingService) EndSession(studentID, sessionID uint) (*model.ActivityRecord, error) {
	record, err := s.Activity.FindByIDAndStudent(sessionID, studentID)
	if err != nil {
		return nil, err
	}
	if !record.IsActive {
		return nil, util.ErrSessionAlreadyEnded
	}

	now := time.Now()
	record.EndedAt = &now
	record.DurationMinutes = int(now.Sub(record.StartedAt).Minutes())
	record.IsActive = false

	if err := s.Activity.Update(record); err != nil {
		return nil, err
	}

	if err := s.Badges.AddXP(studentID, xpPerSession); err != nil {
		return nil, err
	}
	return record, nil
}

// RecentSessions 最近的活动记录，插件侧展示用
func (s *TrackingService) RecentSessions(studentID uint, limit int) ([]model.ActivityRecord, error) {
	if limit <= 0 || limit > 100 {
		limit = 20
	}
	return s.Activity.FindRecentByStudent(studentID, limit)
}

// TotalStudyMinutes 已结束会话的累计学习分钟数
func (s *TrackingService) TotalStudyMinutes(studentID uint) (int64, error) {
	return s.Activity.TotalMinutesByStudent(studentID)
}
