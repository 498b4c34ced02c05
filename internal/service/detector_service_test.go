package service

import (
	"errors"
	"studytrack_backend/internal/model"
	"studytrack_backend/internal/util"
	"studytrack_backend/pkg/logger"
	"testing"
	"time"

	"go.uber.org/zap"
)

func TestMain(m *testing.M) {
	logger.Log = zap.NewNop()
	m.Run()
}

// ---- 内存夹具 ----

type fakeActivityReader struct {
	records map[uint][]model.ActivityRecord
	errs    map[uint]error
}

func (f *fakeActivityReader) FindByStudentSince(studentID uint, since time.Time) ([]model.ActivityRecord, error) {
	if err, ok := f.errs[studentID]; ok {
		return nil, err
	}
	var out []model.ActivityRecord
	for _, r := range f.records[studentID] {
		if !r.StartedAt.Before(since) {
			out = append(out, r)
		}
	}
	return out, nil
}

type fakeStudentStore struct {
	students map[uint]*model.StudentUser
	counts   map[model.AccountStatus]int64
}

func (f *fakeStudentStore) FindByID(id uint) (*model.StudentUser, error) {
	s, ok := f.students[id]
	if !ok {
		return nil, util.ErrStudentNotFound
	}
	copied := *s
	return &copied, nil
}

func (f *fakeStudentStore) ListByStatus(status model.AccountStatus) ([]model.StudentUser, error) {
	var out []model.StudentUser
	for _, s := range f.students {
		if s.AccountStatus == status {
			out = append(out, *s)
		}
	}
	return out, nil
}

func (f *fakeStudentStore) UpdateStatus(studentID uint, status model.AccountStatus, confidence int, signals string, lastActive time.Time) error {
	s, ok := f.students[studentID]
	if !ok {
		return util.ErrStudentNotFound
	}
	s.AccountStatus = status
	s.StatusConfidence = confidence
	s.GraduationSignals = signals
	s.LastActive = lastActive
	return nil
}

func (f *fakeStudentStore) TouchActivity(studentID uint, at time.Time, lms bool) error {
	s, ok := f.students[studentID]
	if !ok {
		return util.ErrStudentNotFound
	}
	s.LastActive = at
	s.SessionCount++
	if lms {
		s.LastLmsActivity = &at
		s.LmsSessionCount++
	}
	return nil
}

func (f *fakeStudentStore) CountByStatus(universityID uint) (map[model.AccountStatus]int64, error) {
	return f.counts, nil
}

func newDetectorFixture(students ...*model.StudentUser) (*DetectorService, *fakeActivityReader, *fakeStudentStore) {
	store := &fakeStudentStore{students: map[uint]*model.StudentUser{}}
	for _, s := range students {
		store.students[s.ID] = s
	}
	activity := &fakeActivityReader{
		records: map[uint][]model.ActivityRecord{},
		errs:    map[uint]error{},
	}
	return NewDetectorService(activity, store, nil, time.Minute), activity, store
}

// ---- 记录构造 ----

func record(startedAt time.Time, site, title string) model.ActivityRecord {
	return model.ActivityRecord{
		StudentID:       1,
		StartedAt:       startedAt,
		SiteName:        site,
		AssignmentTitle: title,
		DurationMinutes: 45,
	}
}

// weekdayAt 最近第 daysAgo 天往前找到的工作日，指定小时
func weekdayAt(daysAgo, hour int) time.Time {
	t := time.Now().AddDate(0, 0, -daysAgo)
	for t.Weekday() == time.Saturday || t.Weekday() == time.Sunday {
		t = t.AddDate(0, 0, -1)
	}
	return time.Date(t.Year(), t.Month(), t.Day(), hour, 0, 0, 0, t.Location())
}

// weekendAt 最近第 daysAgo 天往前找到的周末，指定小时
func weekendAt(daysAgo, hour int) time.Time {
	t := time.Now().AddDate(0, 0, -daysAgo)
	for t.Weekday() != time.Saturday && t.Weekday() != time.Sunday {
		t = t.AddDate(0, 0, -1)
	}
	return time.Date(t.Year(), t.Month(), t.Day(), hour, 0, 0, 0, t.Location())
}

// ---- 信号与置信度 ----

func TestAnalyzeStudentNoRecords(t *testing.T) {
	detector, _, store := newDetectorFixture(&model.StudentUser{
		BaseModel:     model.BaseModel{ID: 1},
		AccountStatus: model.StatusActive,
	})

	result, err := detector.AnalyzeStudent(1)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if !result.Signals[SignalExtendedInactivity] {
		t.Fatalf("expected extended_inactivity to fire on empty history")
	}
	if result.ConfidenceScore != 60 {
		t.Fatalf("expected confidence 60, got %d", result.ConfidenceScore)
	}
	if result.NewStatus != model.StatusInactive {
		t.Fatalf("expected status inactive, got %s", result.NewStatus)
	}
	if store.students[1].AccountStatus != model.StatusInactive {
		t.Fatalf("expected persisted status inactive, got %s", store.students[1].AccountStatus)
	}
	if store.students[1].GraduationSignals == "" {
		t.Fatalf("expected persisted signal record")
	}
}

func TestAnalyzeStudentWorkerProfile(t *testing.T) {
	detector, activity, _ := newDetectorFixture(&model.StudentUser{
		BaseModel:     model.BaseModel{ID: 1},
		AccountStatus: model.StatusActive,
	})

	// 12条记录全部落在工作日上班时段，无 LMS 站点，标题是职场词汇
	titles := []string{
		"Q3 invoice review", "client onboarding notes", "sprint planning",
		"quarterly roadmap", "meeting minutes", "kpi dashboard",
		"invoice batch", "client follow-up", "sprint retro",
		"payroll checklist", "stakeholder update", "deliverable draft",
	}
	var records []model.ActivityRecord
	for i, title := range titles {
		records = append(records, record(weekdayAt(3+i*2, 10), "docs.google.com", title))
	}
	activity.records[1] = records

	result, err := detector.AnalyzeStudent(1)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	for _, signal := range []string{SignalNoLmsActivity, SignalWorkDocumentPatterns, SignalWorkSchedulePatterns} {
		if !result.Signals[signal] {
			t.Fatalf("expected %s to fire", signal)
		}
	}
	if result.Signals[SignalExtendedInactivity] {
		t.Fatalf("extended_inactivity must not fire with records present")
	}
	if result.ConfidenceScore != 40 {
		t.Fatalf("expected confidence 40 (100-25-20-15), got %d", result.ConfidenceScore)
	}
	if result.NewStatus != model.StatusInactive {
		t.Fatalf("expected status inactive, got %s", result.NewStatus)
	}
}

func TestAnalyzeStudentHealthyStudent(t *testing.T) {
	detector, activity, _ := newDetectorFixture(&model.StudentUser{
		BaseModel:     model.BaseModel{ID: 1},
		AccountStatus: model.StatusActive,
	})

	var records []model.ActivityRecord
	for i := 0; i < 6; i++ {
		records = append(records, record(weekdayAt(2+i*3, 20), "canvas.university.edu", "essay draft chapter 3"))
		records = append(records, record(weekendAt(2+i*3, 14), "myuni.instructure.com", "homework set 5"))
	}
	activity.records[1] = records

	result, err := detector.AnalyzeStudent(1)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if result.ConfidenceScore != 100 {
		t.Fatalf("expected confidence 100, got %d", result.ConfidenceScore)
	}
	if result.NewStatus != model.StatusActive {
		t.Fatalf("expected status active, got %s", result.NewStatus)
	}
	for name, fired := range result.Signals {
		if fired {
			t.Fatalf("expected no signals, %s fired", name)
		}
	}
}

func TestAnalyzeStudentLmsVisitMonotonicity(t *testing.T) {
	// 逐步增加晚间 LMS 访问，置信度只增不减
	previous := -1
	for _, visits := range []int{1, 3, 10, 25} {
		detector, activity, _ := newDetectorFixture(&model.StudentUser{
			BaseModel:     model.BaseModel{ID: 1},
			AccountStatus: model.StatusActive,
		})

		var records []model.ActivityRecord
		for i := 0; i < visits; i++ {
			records = append(records, record(weekdayAt(2+(i%40), 20), "canvas.edu", "quiz prep"))
		}
		activity.records[1] = records

		result, err := detector.AnalyzeStudent(1)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if result.ConfidenceScore < previous {
			t.Fatalf("confidence dropped from %d to %d after adding LMS visits", previous, result.ConfidenceScore)
		}
		previous = result.ConfidenceScore
	}
}

func TestWorkSchedulePatternThresholds(t *testing.T) {
	now := time.Now()

	// 9条样本不足下限，不触发
	var few []model.ActivityRecord
	for i := 0; i < 9; i++ {
		few = append(few, record(weekdayAt(3+i, 10), "", ""))
	}
	if workSchedulePattern(few, now) {
		t.Fatalf("expected no fire below %d records", minScheduleRecords)
	}

	// 恰好 0.8 不触发（严格大于）
	var ratio []model.ActivityRecord
	for i := 0; i < 8; i++ {
		ratio = append(ratio, record(weekdayAt(3+i, 10), "", ""))
	}
	for i := 0; i < 2; i++ {
		ratio = append(ratio, record(weekendAt(3+i*3, 14), "", ""))
	}
	if workSchedulePattern(ratio, now) {
		t.Fatalf("expected no fire at ratio exactly 0.8")
	}

	// 10/12 > 0.8 触发
	ratio = append(ratio, record(weekdayAt(20, 11), "", ""))
	ratio = append(ratio, record(weekdayAt(22, 13), "", ""))
	if !workSchedulePattern(ratio, now) {
		t.Fatalf("expected fire above ratio 0.8")
	}
}

func TestWorkDocumentPatternRequiresMargin(t *testing.T) {
	now := time.Now()

	// 职场命中未达下限
	records := []model.ActivityRecord{
		record(weekdayAt(3, 10), "", "invoice for client"),
		record(weekdayAt(4, 10), "", "meeting notes"),
	}
	if workDocumentPattern(records, now) {
		t.Fatalf("expected no fire below %d work hits", minWorkTitleHits)
	}

	// 职场命中数不多于学术命中数
	records = []model.ActivityRecord{
		record(weekdayAt(3, 10), "", "invoice"),
		record(weekdayAt(4, 10), "", "client meeting"),
		record(weekdayAt(5, 10), "", "sprint board"),
		record(weekdayAt(6, 10), "", "essay outline"),
		record(weekdayAt(7, 10), "", "homework 4"),
		record(weekdayAt(8, 10), "", "exam review"),
	}
	if workDocumentPattern(records, now) {
		t.Fatalf("expected no fire when academic hits match work hits")
	}

	records = append(records, record(weekdayAt(9, 10), "", "quarterly kpi report"))
	if !workDocumentPattern(records, now) {
		t.Fatalf("expected fire with work hits above academic hits")
	}
}

func TestIsLmsDomain(t *testing.T) {
	cases := map[string]bool{
		"myschool.instructure.com": true,
		"Blackboard.com":           true,
		"moodle.university.edu":    true,
		"CANVAS.school.edu":        true,
		"d2l.com":                  true,
		"docs.google.com":          false,
		"":                         false,
	}
	for site, want := range cases {
		if got := IsLmsDomain(site); got != want {
			t.Fatalf("IsLmsDomain(%q) = %v, want %v", site, got, want)
		}
	}
}

func TestStatusForConfidenceBoundaries(t *testing.T) {
	cases := []struct {
		confidence int
		want       model.AccountStatus
	}{
		{0, model.StatusGraduatedSuspected},
		{29, model.StatusGraduatedSuspected},
		{30, model.StatusInactive},
		{59, model.StatusInactive},
		{60, model.StatusInactive}, // 零记录学生的分值，必须还在 inactive 档
		{61, model.StatusActive},
		{100, model.StatusActive},
	}
	for _, c := range cases {
		if got := statusForConfidence(c.confidence); got != c.want {
			t.Fatalf("statusForConfidence(%d) = %s, want %s", c.confidence, got, c.want)
		}
	}
}

func TestClampConfidence(t *testing.T) {
	if clampConfidence(-10) != 0 {
		t.Fatalf("expected floor at 0")
	}
	if clampConfidence(140) != 100 {
		t.Fatalf("expected ceiling at 100")
	}
	if clampConfidence(55) != 55 {
		t.Fatalf("expected pass-through inside range")
	}
}

// ---- 批量扫描 ----

func TestAnalyzeAllStudentsErrorIsolation(t *testing.T) {
	students := make([]*model.StudentUser, 0, 3)
	for i := uint(1); i <= 3; i++ {
		students = append(students, &model.StudentUser{
			BaseModel:     model.BaseModel{ID: i},
			AccountStatus: model.StatusActive,
		})
	}
	detector, activity, store := newDetectorFixture(students...)

	// 学生2的活动查询失败；1 和 3 没有记录，应转 inactive
	activity.errs[2] = errors.New("connection reset")

	changed, err := detector.AnalyzeAllStudents()
	if err != nil {
		t.Fatalf("sweep must not fail on a single student: %v", err)
	}

	if len(changed) != 2 {
		t.Fatalf("expected 2 changed students, got %d", len(changed))
	}
	for _, result := range changed {
		if result.StudentID == 2 {
			t.Fatalf("failed student must not appear in results")
		}
		if result.NewStatus != model.StatusInactive {
			t.Fatalf("expected inactive, got %s", result.NewStatus)
		}
	}
	if store.students[2].AccountStatus != model.StatusActive {
		t.Fatalf("failed student's status must stay untouched")
	}
}

func TestAnalyzeAllStudentsSkipsUnchangedStudents(t *testing.T) {
	detector, activity, _ := newDetectorFixture(
		&model.StudentUser{BaseModel: model.BaseModel{ID: 1}, AccountStatus: model.StatusActive},
		&model.StudentUser{BaseModel: model.BaseModel{ID: 2}, AccountStatus: model.StatusActive},
	)

	// 学生1健康活跃，学生2无记录
	var records []model.ActivityRecord
	for i := 0; i < 5; i++ {
		records = append(records, record(weekdayAt(2+i*4, 20), "canvas.edu", "homework"))
	}
	activity.records[1] = records

	changed, err := detector.AnalyzeAllStudents()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(changed) != 1 || changed[0].StudentID != 2 {
		t.Fatalf("expected only student 2 in change list, got %+v", changed)
	}
}

// ---- 活动记账 ----

func TestRecordLmsActivity(t *testing.T) {
	detector, _, store := newDetectorFixture(&model.StudentUser{
		BaseModel:     model.BaseModel{ID: 1},
		AccountStatus: model.StatusActive,
	})

	if err := detector.RecordLmsActivity(1, "myuni.instructure.com"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	student := store.students[1]
	if student.LastLmsActivity == nil {
		t.Fatalf("expected last_lms_activity stamp for LMS site")
	}
	if student.LmsSessionCount != 1 || student.SessionCount != 1 {
		t.Fatalf("expected both counters bumped, got lms=%d session=%d", student.LmsSessionCount, student.SessionCount)
	}

	if err := detector.RecordLmsActivity(1, "youtube.com"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if student.LmsSessionCount != 1 {
		t.Fatalf("non-LMS site must not bump lms counter")
	}
	if student.SessionCount != 2 {
		t.Fatalf("expected session counter bumped for any site")
	}
}

func TestRecordLmsActivityUnknownStudent(t *testing.T) {
	detector, _, _ := newDetectorFixture()
	if err := detector.RecordLmsActivity(99, "canvas.edu"); !errors.Is(err, util.ErrStudentNotFound) {
		t.Fatalf("expected ErrStudentNotFound, got %v", err)
	}
}

// ---- 大学汇总 ----

func TestStatusSummaryTotals(t *testing.T) {
	detector, _, store := newDetectorFixture()
	store.counts = map[model.AccountStatus]int64{
		model.StatusActive:             12,
		model.StatusInactive:           3,
		model.StatusGraduatedSuspected: 2,
	}

	summary, err := detector.StatusSummary(7)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if summary.Total != 17 {
		t.Fatalf("expected total 17, got %d", summary.Total)
	}
	var sum int64
	for _, status := range model.AllAccountStatuses {
		count, ok := summary.Counts[status]
		if !ok {
			t.Fatalf("expected count entry for %s", status)
		}
		sum += count
	}
	if sum != summary.Total {
		t.Fatalf("counts sum %d != total %d", sum, summary.Total)
	}
	if summary.Counts[model.StatusDormant] != 0 {
		t.Fatalf("statuses with no students must report 0")
	}
}

func TestAnalyzeStudentNotFound(t *testing.T) {
	detector, _, _ := newDetectorFixture()
	_, err := detector.AnalyzeStudent(42)
	if !errors.Is(err, util.ErrStudentNotFound) {
		t.Fatalf("expected ErrStudentNotFound, got %v", err)
	}
}

func TestEvaluateSignalsOldRecordsOutsideLmsWindow(t *testing.T) {
	// LMS 访问落在60天窗口外：no_lms_activity 仍触发
	now := time.Now()
	records := []model.ActivityRecord{
		record(now.AddDate(0, 0, -70), "canvas.edu", "homework"),
		record(now.AddDate(0, 0, -75), "myuni.instructure.com", "essay"),
	}

	signals, confidence := evaluateSignals(records, now)
	if !signals[SignalNoLmsActivity] {
		t.Fatalf("LMS visits older than %d days must not satisfy the LMS signal", lmsWindowDays)
	}
	if confidence != 100-weightNoLmsActivity {
		t.Fatalf("expected confidence %d, got %d", 100-weightNoLmsActivity, confidence)
	}
}

func TestEvaluateSignalsTreatsMissingFieldsAsEmpty(t *testing.T) {
	// 缺失站点与标题不触发异常，按无信号处理
	now := time.Now()
	var records []model.ActivityRecord
	for i := 0; i < 4; i++ {
		records = append(records, record(weekdayAt(3+i, 20), "", ""))
	}

	signals, confidence := evaluateSignals(records, now)
	if signals[SignalWorkDocumentPatterns] || signals[SignalWorkSchedulePatterns] {
		t.Fatalf("empty titles/sites must not fire content signals: %+v", signals)
	}
	if confidence != 100-weightNoLmsActivity {
		t.Fatalf("expected only no_lms_activity to fire, confidence %d", confidence)
	}
}
