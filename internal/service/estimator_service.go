package service

import (
	"math"
	"studytrack_backend/internal/model"
	"studytrack_backend/internal/util"
)

// 估算公式的兼容性常量，与插件端展示逻辑保持一致
const (
	essayResearchRatio  = 0.3 // 研究资料时间占写作时间比例
	essayEditingRatio   = 0.2 // 修改润色时间占写作时间比例
	essayBaseMultiplier = 1.5 // writing + research + editing

	multiSessionThresholdHours = 3.0

	RecommendMultipleSessions = "needs multiple sessions"
	RecommendSingleSession    = "one focused session"
)

// EstimateResult 时长估算结果
// swagger:model EstimateResult
type EstimateResult struct {
	HoursEstimate  float64            `json:"hoursEstimate"`
	Breakdown      map[string]float64 `json:"breakdown"`
	Recommendation string             `json:"recommendation"`
}

// EstimatorService 根据学生个性化系数估算作业耗时，纯计算，无副作用
type EstimatorService struct{}

func NewEstimatorService() *EstimatorService {
	return &EstimatorService{}
}

// Estimate 估算给定类型作业的耗时
// sizeMetric 按类型解释：essay=字数，problem_set=题数，reading=页数
// 规模指标缺失或为零视为输入不足，返回零估算而非错误
func (s *EstimatorService) Estimate(assignmentType model.AssignmentType, sizeMetric float64, profile model.StudyProfile) (*EstimateResult, error) {
	if err := ValidateProfile(profile); err != nil {
		return nil, err
	}

	if sizeMetric <= 0 {
		return &EstimateResult{
			HoursEstimate: 0,
			Breakdown:     map[string]float64{},
		}, nil
	}

	var base float64
	breakdown := map[string]float64{}

	switch assignmentType {
	case model.AssignmentEssay:
		writingHours := sizeMetric / profile.WritingSpeed
		breakdown["writingHours"] = round2(writingHours)
		breakdown["researchHours"] = round2(writingHours * essayResearchRatio)
		breakdown["editingHours"] = round2(writingHours * essayEditingRatio)
		base = writingHours * essayBaseMultiplier
	case model.AssignmentProblemSet:
		base = sizeMetric / profile.ProblemSolvingSpeed
		breakdown["problems"] = sizeMetric
		breakdown["problemsPerHour"] = profile.ProblemSolvingSpeed
	case model.AssignmentReading:
		base = sizeMetric / profile.ReadingSpeed
		breakdown["pages"] = sizeMetric
		breakdown["pagesPerHour"] = profile.ReadingSpeed
	default:
		// 未知类型与缺失规模同等对待
		return &EstimateResult{
			HoursEstimate: 0,
			Breakdown:     map[string]float64{},
		}, nil
	}

	hours := round2(base * profile.ProcrastinationFactor)

	recommendation := RecommendSingleSession
	if hours > multiSessionThresholdHours {
		recommendation = RecommendMultipleSessions
	}

	return &EstimateResult{
		HoursEstimate:  hours,
		Breakdown:      breakdown,
		Recommendation: recommendation,
	}, nil
}

// EstimateAssignment 取作业自身的规模指标做估算
func (s *EstimatorService) EstimateAssignment(assignment *model.Assignment, student *model.StudentUser) (*EstimateResult, error) {
	return s.Estimate(assignment.Type, assignment.SizeMetric(), student.Profile())
}

// ValidateProfile 数据访问边界的系数校验：速度必须严格为正，防止除零
func ValidateProfile(profile model.StudyProfile) error {
	if profile.WritingSpeed <= 0 || profile.ReadingSpeed <= 0 || profile.ProblemSolvingSpeed <= 0 {
		return util.ErrInvalidProfile
	}
	if profile.ProcrastinationFactor < 1.0 {
		return util.ErrInvalidProfile
	}
	return nil
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}
