package service

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"studytrack_backend/internal/model"
	"studytrack_backend/pkg/logger"
	"studytrack_backend/pkg/monitoring"
	"time"

	"github.com/go-redis/redis/v8"
	"go.uber.org/zap"
)

// 毕业启发式检测的兼容性常量
// 权重和阈值来自既有插件协议，调参只改这里，不改判定逻辑
const (
	startingConfidence = 100

	activityWindowDays = 90 // 检测窗口
	lmsWindowDays      = 60 // LMS 访问信号的子窗口

	SignalExtendedInactivity   = "extended_inactivity"
	SignalNoLmsActivity        = "no_lms_activity"
	SignalWorkDocumentPatterns = "work_document_patterns"
	SignalWorkSchedulePatterns = "work_schedule_patterns"

	weightExtendedInactivity = 40
	weightNoLmsActivity      = 25
	weightWorkDocuments      = 20
	weightWorkSchedule       = 15

	minWorkTitleHits   = 3   // work_document_patterns 的最低命中数
	minScheduleRecords = 10  // work_schedule_patterns 的最低样本数，来源未说明，按原值保留
	businessHourRatio  = 0.8 // 同上

	businessDayStart = 9  // 工作日 [9,17) 视为上班时段
	businessDayEnd   = 17
	eveningStart     = 18 // 18点以后视为学生时段

	// 状态边界：不高于 inactiveCeil 判 inactive
	// 零记录学生恰好落在 100-40=60，必须进 inactive 档
	confidenceSuspectedBelow = 30
	confidenceInactiveCeil   = 60
)

// 已知 LMS 域名，大小写不敏感子串匹配
var lmsDomains = []string{
	"instructure.com",
	"blackboard.com",
	"moodle",
	"brightspace",
	"schoology.com",
	"canvas",
	"d2l.com",
}

// 标题关键词，简单子串匹配，不做词干化
var academicKeywords = []string{
	"essay", "homework", "exam", "syllabus", "professor", "lecture",
	"assignment", "quiz", "midterm", "thesis", "semester", "study guide",
}

var workKeywords = []string{
	"invoice", "meeting", "quarterly", "client", "sprint", "kpi",
	"payroll", "standup", "stakeholder", "onboarding", "roadmap", "deliverable",
}

// activityRule 挂在活动记录集上的单条启发式规则
// extended_inactivity 不在表里：空记录集与其余三条互斥，单独处理
type activityRule struct {
	Name   string
	Weight int
	Fire   func(records []model.ActivityRecord, now time.Time) bool
}

var activityRules = []activityRule{
	{Name: SignalNoLmsActivity, Weight: weightNoLmsActivity, Fire: noRecentLmsVisit},
	{Name: SignalWorkDocumentPatterns, Weight: weightWorkDocuments, Fire: workDocumentPattern},
	{Name: SignalWorkSchedulePatterns, Weight: weightWorkSchedule, Fire: workSchedulePattern},
}

// ActivityReader 检测器需要的活动读取能力
type ActivityReader interface {
	FindByStudentSince(studentID uint, since time.Time) ([]model.ActivityRecord, error)
}

// StudentStatusStore 检测器需要的学生状态读写能力
type StudentStatusStore interface {
	FindByID(id uint) (*model.StudentUser, error)
	ListByStatus(status model.AccountStatus) ([]model.StudentUser, error)
	UpdateStatus(studentID uint, status model.AccountStatus, confidence int, signals string, lastActive time.Time) error
	TouchActivity(studentID uint, at time.Time, lms bool) error
	CountByStatus(universityID uint) (map[model.AccountStatus]int64, error)
}

// AnalysisResult 单个学生的检测结果
// swagger:model AnalysisResult
type AnalysisResult struct {
	StudentID       uint                `json:"studentId"`
	Signals         map[string]bool     `json:"signals"`
	ConfidenceScore int                 `json:"confidenceScore"`
	PreviousStatus  model.AccountStatus `json:"previousStatus"`
	NewStatus       model.AccountStatus `json:"newStatus"`
	RecordsExamined int                 `json:"recordsExamined"`
}

// StatusSummary 某大学的账号状态汇总
// swagger:model StatusSummary
type StatusSummary struct {
	UniversityID uint                          `json:"universityId"`
	Counts       map[model.AccountStatus]int64 `json:"counts"`
	Total        int64                         `json:"total"`
}

// DetectorService 毕业状态启发式检测器
// 对数据只依赖两个窄接口，方便用内存夹具做单元测试
type DetectorService struct {
	Activity        ActivityReader
	Students        StudentStatusStore
	Redis           *redis.Client
	SummaryCacheTTL time.Duration
}

func NewDetectorService(activity ActivityReader, students StudentStatusStore, rdb *redis.Client, summaryTTL time.Duration) *DetectorService {
	return &DetectorService{
		Activity:        activity,
		Students:        students,
		Redis:           rdb,
		SummaryCacheTTL: summaryTTL,
	}
}

// AnalyzeStudent 拉取学生近90天活动快照，计算信号与置信度并持久化新状态
func (s *DetectorService) AnalyzeStudent(studentID uint) (*AnalysisResult, error) {
	student, err := s.Students.FindByID(studentID)
	if err != nil {
		return nil, err
	}

	now := time.Now()
	since := now.AddDate(0, 0, -activityWindowDays)
	records, err := s.Activity.FindByStudentSince(studentID, since)
	if err != nil {
		return nil, fmt.Errorf("fetch activity for student %d: %w", studentID, err)
	}

	signals, confidence := evaluateSignals(records, now)
	newStatus := statusForConfidence(confidence)

	payload, err := json.Marshal(signals)
	if err != nil {
		return nil, err
	}

	if err := s.Students.UpdateStatus(studentID, newStatus, confidence, string(payload), now); err != nil {
		return nil, err
	}

	monitoring.StudentsAnalyzed.Inc()
	if newStatus != student.AccountStatus {
		monitoring.StatusChanges.WithLabelValues(string(newStatus)).Inc()
		logger.Log.Info("student status changed",
			zap.Uint("studentId", studentID),
			zap.String("from", string(student.AccountStatus)),
			zap.String("to", string(newStatus)),
			zap.Int("confidence", confidence),
		)
	}

	return &AnalysisResult{
		StudentID:       studentID,
		Signals:         signals,
		ConfidenceScore: confidence,
		PreviousStatus:  student.AccountStatus,
		NewStatus:       newStatus,
		RecordsExamined: len(records),
	}, nil
}

// AnalyzeAllStudents 遍历所有 active 学生逐个检测
// 单个学生失败只记日志跳过，不中断扫描；返回状态离开 active 的学生
func (s *DetectorService) AnalyzeAllStudents() ([]AnalysisResult, error) {
	students, err := s.Students.ListByStatus(model.StatusActive)
	if err != nil {
		return nil, err
	}

	var changed []AnalysisResult
	for _, student := range students {
		result, err := s.AnalyzeStudent(student.ID)
		if err != nil {
			monitoring.SweepFailures.Inc()
			logger.Log.Error("student analysis failed during sweep",
				zap.Uint("studentId", student.ID),
				zap.Error(err),
			)
			continue
		}
		if result.NewStatus != model.StatusActive {
			changed = append(changed, *result)
		}
	}

	logger.Log.Info("status sweep finished",
		zap.Int("analyzed", len(students)),
		zap.Int("changed", len(changed)),
	)
	return changed, nil
}

// RecordLmsActivity 跟踪会话开始时同步调用
// 命中 LMS 域名时额外刷新 last_lms_activity，否则只刷新 last_active
func (s *DetectorService) RecordLmsActivity(studentID uint, siteName string) error {
	return s.Students.TouchActivity(studentID, time.Now(), IsLmsDomain(siteName))
}

// StatusSummary 按状态汇总某大学的学生数，短 TTL 缓存
func (s *DetectorService) StatusSummary(universityID uint) (*StatusSummary, error) {
	cacheKey := fmt.Sprintf("status_summary:%d", universityID)

	if s.Redis != nil {
		cached, err := s.Redis.Get(context.Background(), cacheKey).Result()
		if err == nil {
			var summary StatusSummary
			if err := json.Unmarshal([]byte(cached), &summary); err == nil {
				return &summary, nil
			}
		}
	}

	counts, err := s.Students.CountByStatus(universityID)
	if err != nil {
		return nil, err
	}

	// 固定输出全部状态，没有学生的状态计 0
	full := make(map[model.AccountStatus]int64, len(model.AllAccountStatuses))
	var total int64
	for _, status := range model.AllAccountStatuses {
		full[status] = counts[status]
		total += counts[status]
	}

	summary := &StatusSummary{
		UniversityID: universityID,
		Counts:       full,
		Total:        total,
	}

	if s.Redis != nil {
		if payload, err := json.Marshal(summary); err == nil {
			s.Redis.Set(context.Background(), cacheKey, payload, s.SummaryCacheTTL)
		}
	}

	return summary, nil
}

// evaluateSignals 对活动快照跑规则表，返回触发信号和钳制后的置信度
func evaluateSignals(records []model.ActivityRecord, now time.Time) (map[string]bool, int) {
	signals := map[string]bool{
		SignalExtendedInactivity:   false,
		SignalNoLmsActivity:        false,
		SignalWorkDocumentPatterns: false,
		SignalWorkSchedulePatterns: false,
	}

	confidence := startingConfidence

	// 90天内无任何记录：只触发 extended_inactivity，与其余信号互斥
	if len(records) == 0 {
		signals[SignalExtendedInactivity] = true
		return signals, clampConfidence(confidence - weightExtendedInactivity)
	}

	for _, rule := range activityRules {
		if rule.Fire(records, now) {
			signals[rule.Name] = true
			confidence -= rule.Weight
		}
	}

	return signals, clampConfidence(confidence)
}

func statusForConfidence(confidence int) model.AccountStatus {
	switch {
	case confidence < confidenceSuspectedBelow:
		return model.StatusGraduatedSuspected
	case confidence <= confidenceInactiveCeil:
		return model.StatusInactive
	default:
		return model.StatusActive
	}
}

func clampConfidence(confidence int) int {
	if confidence < 0 {
		return 0
	}
	if confidence > 100 {
		return 100
	}
	return confidence
}

// IsLmsDomain 判断站点是否为已知 LMS 域名
func IsLmsDomain(siteName string) bool {
	if siteName == "" {
		return false
	}
	site := strings.ToLower(siteName)
	for _, domain := range lmsDomains {
		if strings.Contains(site, domain) {
			return true
		}
	}
	return false
}

// noRecentLmsVisit 近60天的记录里没有任何 LMS 站点访问
func noRecentLmsVisit(records []model.ActivityRecord, now time.Time) bool {
	cutoff := now.AddDate(0, 0, -lmsWindowDays)
	for _, r := range records {
		if r.StartedAt.Before(cutoff) {
			continue
		}
		if IsLmsDomain(r.SiteName) {
			return false
		}
	}
	return true
}

// workDocumentPattern 标题里职场关键词多于学术关键词，且命中数达到下限
func workDocumentPattern(records []model.ActivityRecord, _ time.Time) bool {
	academicCount, workCount := 0, 0
	for _, r := range records {
		title := strings.ToLower(r.AssignmentTitle)
		if title == "" {
			continue
		}
		if containsAny(title, academicKeywords) {
			academicCount++
		}
		if containsAny(title, workKeywords) {
			workCount++
		}
	}
	return workCount > academicCount && workCount >= minWorkTitleHits
}

// workSchedulePattern 学习时段集中在工作日上班时间
// 工作日 [17,18) 的记录两边都不算，不计入样本
func workSchedulePattern(records []model.ActivityRecord, _ time.Time) bool {
	businessCount, studentCount := 0, 0
	for _, r := range records {
		weekday := r.StartedAt.Weekday()
		hour := r.StartedAt.Hour()
		weekend := weekday == time.Saturday || weekday == time.Sunday

		switch {
		case !weekend && hour >= businessDayStart && hour < businessDayEnd:
			businessCount++
		case weekend || hour >= eveningStart || hour < businessDayStart:
			studentCount++
		}
	}

	total := businessCount + studentCount
	if total < minScheduleRecords {
		return false
	}
	return float64(businessCount)/float64(total) > businessHourRatio
}

func containsAny(s string, keywords []string) bool {
	for _, kw := range keywords {
		if strings.Contains(s, kw) {
			return true
		}
	}
	return false
}
