package service

import (
	"context"
	"strconv"
	"studytrack_backend/internal/model"
	"studytrack_backend/internal/repository"
	"studytrack_backend/internal/util"
	"studytrack_backend/pkg/logger"
	"time"

	"github.com/go-redis/redis/v8"
	"go.uber.org/zap"
)

const (
	leaderboardKey = "leaderboard:xp"

	xpPerCheckin = 5
	xpPerSession = 10
)

// LeaderboardEntry XP 排行榜条目
// swagger:model LeaderboardEntry
type LeaderboardEntry struct {
	Rank      int    `json:"rank"`
	StudentID uint   `json:"studentId"`
	Name      string `json:"name"`
	Avatar    string `json:"avatar"`
	XP        int    `json:"xp"`
}

// StudentXPStore 徽章引擎与排行榜需要的学生读写能力
type StudentXPStore interface {
	FindByID(id uint) (*model.StudentUser, error)
	FindByIDs(ids []uint) ([]model.StudentUser, error)
	UpdateXP(studentID uint, xp int) error
	FindTopByXP(limit int) ([]model.StudentUser, error)
}

// BadgeService 徽章解锁、XP 记账与排行榜
type BadgeService struct {
	Badges      *repository.BadgeRepository
	Students    StudentXPStore
	Checkins    *repository.CheckinRepository
	Assignments *repository.AssignmentRepository
	Redis       *redis.Client
}

func NewBadgeService(
	badges *repository.BadgeRepository,
	students StudentXPStore,
	checkins *repository.CheckinRepository,
	assignments *repository.AssignmentRepository,
	rdb *redis.Client,
) *BadgeService {
	return &BadgeService{
		Badges:      badges,
		Students:    students,
		Checkins:    checkins,
		Assignments: assignments,
		Redis:       rdb,
	}
}

func (s *BadgeService) ListBadges() ([]model.Badge, error) {
	return s.Badges.ListAll()
}

func (s *BadgeService) StudentBadges(studentID uint) ([]model.StudentBadge, error) {
	return s.Badges.ListByStudent(studentID)
}

// AddXP 数据库为准，排行榜 ZSET 同步增量，Redis 失败不影响主流程
func (s *BadgeService) AddXP(studentID uint, amount int) error {
	if amount <= 0 {
		return nil
	}
	if err := s.Students.UpdateXP(studentID, amount); err != nil {
		return err
	}
	if s.Redis != nil {
		member := strconv.FormatUint(uint64(studentID), 10)
		if err := s.Redis.ZIncrBy(context.Background(), leaderboardKey, float64(amount), member).Err(); err != nil {
			logger.Log.Warn("leaderboard increment failed", zap.Error(err))
		}
	}
	return nil
}

// Leaderboard 优先读 Redis ZSET，不可用时回退数据库排序
func (s *BadgeService) Leaderboard(limit int) ([]LeaderboardEntry, error) {
	if limit <= 0 || limit > 100 {
		limit = 10
	}

	if s.Redis != nil {
		members, err := s.Redis.ZRevRangeWithScores(context.Background(), leaderboardKey, 0, int64(limit-1)).Result()
		if err == nil && len(members) > 0 {
			ids := make([]uint, 0, len(members))
			scores := make(map[uint]int, len(members))
			for _, m := range members {
				id, err := strconv.ParseUint(m.Member.(string), 10, 64)
				if err != nil {
					continue
				}
				ids = append(ids, uint(id))
				scores[uint(id)] = int(m.Score)
			}

			entries, err := s.rankedEntries(ids, scores)
			if err == nil {
				return entries, nil
			}
			logger.Log.Warn("leaderboard assembly failed, falling back to database", zap.Error(err))
		}
	}

	students, err := s.Students.FindTopByXP(limit)
	if err != nil {
		return nil, err
	}
	entries := make([]LeaderboardEntry, 0, len(students))
	for i, student := range students {
		entries = append(entries, LeaderboardEntry{
			Rank:      i + 1,
			StudentID: student.ID,
			Name:      student.Name,
			Avatar:    student.Avatar,
			XP:        student.XP,
		})
	}
	return entries, nil
}

// rankedEntries 按 ZSET 名次顺序组装条目，学生资料一次批量取齐
func (s *BadgeService) rankedEntries(ids []uint, scores map[uint]int) ([]LeaderboardEntry, error) {
	students, err := s.Students.FindByIDs(ids)
	if err != nil {
		return nil, err
	}
	byID := make(map[uint]*model.StudentUser, len(students))
	for i := range students {
		byID[students[i].ID] = &students[i]
	}

	entries := make([]LeaderboardEntry, 0, len(ids))
	for _, id := range ids {
		student, ok := byID[id]
		if !ok {
			// ZSET 里可能残留已删除的学生
			continue
		}
		entries = append(entries, LeaderboardEntry{
			Rank:      len(entries) + 1,
			StudentID: student.ID,
			Name:      student.Name,
			Avatar:    student.Avatar,
			XP:        scores[id],
		})
	}
	return entries, nil
}

// EvaluateBadges 对照各计数器检查全部徽章，返回本次新解锁的
func (s *BadgeService) EvaluateBadges(studentID uint) ([]model.Badge, error) {
	student, err := s.Students.FindByID(studentID)
	if err != nil {
		return nil, err
	}

	badges, err := s.Badges.ListAll()
	if err != nil {
		return nil, err
	}

	var earned []model.Badge
	for _, badge := range badges {
		counter, err := s.counterFor(student, badge.Criteria)
		if err != nil {
			return nil, err
		}
		if counter < int64(badge.Threshold) {
			continue
		}

		has, err := s.Badges.HasBadge(studentID, badge.ID)
		if err != nil {
			return nil, err
		}
		if has {
			continue
		}

		if err := s.Badges.Award(studentID, badge.ID); err != nil {
			return nil, err
		}
		if err := s.AddXP(studentID, badge.RewardXP); err != nil {
			return nil, err
		}
		logger.Log.Info("badge earned",
			zap.Uint("studentId", studentID),
			zap.String("badge", badge.Code),
		)
		earned = append(earned, badge)
	}
	return earned, nil
}

func (s *BadgeService) counterFor(student *model.StudentUser, criteria model.BadgeCriteria) (int64, error) {
	switch criteria {
	case model.CriteriaSessionCount:
		return int64(student.SessionCount), nil
	case model.CriteriaLmsSessions:
		return int64(student.LmsSessionCount), nil
	case model.CriteriaStreakDays:
		latest, err := s.Checkins.FindLatestByStudent(student.ID)
		if err != nil {
			return 0, err
		}
		if latest == nil {
			return 0, nil
		}
		return int64(latest.StreakDays), nil
	case model.CriteriaCompleted:
		return s.Assignments.CountCompletedByStudent(student.ID)
	}
	return 0, nil
}

// Checkin 每日打卡：同日重复打卡报错，昨日有打卡则连续天数+1
func (s *BadgeService) Checkin(studentID uint) (*model.Checkin, error) {
	now := time.Now()

	existing, err := s.Checkins.FindByStudentAndDate(studentID, now)
	if err != nil {
		return nil, err
	}
	if existing != nil {
		return nil, util.ErrAlreadyCheckedIn
	}

	streak := 1
	latest, err := s.Checkins.FindLatestByStudent(studentID)
	if err != nil {
		return nil, err
	}
	if latest != nil {
		yesterday := now.AddDate(0, 0, -1)
		if latest.CheckinAt.Format(util.DateFormat) == yesterday.Format(util.DateFormat) {
			streak = latest.StreakDays + 1
		}
	}

	checkin := &model.Checkin{
		StudentID:  studentID,
		CheckinAt:  now,
		StreakDays: streak,
	}
	if err := s.Checkins.Create(checkin); err != nil {
		return nil, err
	}

	if err := s.AddXP(studentID, xpPerCheckin); err != nil {
		return nil, err
	}
	if _, err := s.EvaluateBadges(studentID); err != nil {
		logger.Log.Warn("badge evaluation after checkin failed",
			zap.Uint("studentId", studentID),
			zap.Error(err),
		)
	}
	return checkin, nil
}
