package repository

import (
	"errors"
	"studytrack_backend/internal/model"
	"studytrack_backend/internal/util"
	"time"

	"gorm.io/gorm"
)

type StudentRepository struct {
	DB *gorm.DB
}

func NewStudentRepository(db *gorm.DB) *StudentRepository {
	return &StudentRepository{DB: db}
}

func (r *StudentRepository) Create(student *model.StudentUser) error {
	// 确保创建时间被设置
	now := time.Now()
	if student.CreatedAt.IsZero() {
		student.CreatedAt = now
	}
	if student.UpdatedAt.IsZero() {
		student.UpdatedAt = now
	}
	if student.LastActive.IsZero() {
		student.LastActive = now
	}

	return r.DB.Create(student).Error
}

func (r *StudentRepository) FindByID(id uint) (*model.StudentUser, error) {
	var student model.StudentUser
	err := r.DB.First(&student, id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, util.ErrStudentNotFound
	}
	if err != nil {
		return nil, err
	}
	return &student, nil
}

func (r *StudentRepository) FindByEmail(email string) (*model.StudentUser, error) {
	var student model.StudentUser
	err := r.DB.Where("email = ?", email).First(&student).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, util.ErrStudentNotFound
	}
	if err != nil {
		return nil, err
	}
	return &student, nil
}

// FindByIDs 批量查询，排行榜等场景一次取齐
func (r *StudentRepository) FindByIDs(ids []uint) ([]model.StudentUser, error) {
	if len(ids) == 0 {
		return nil, nil
	}
	var students []model.StudentUser
	err := r.DB.Where("id IN ?", ids).Find(&students).Error
	return students, err
}

func (r *StudentRepository) Update(student *model.StudentUser) error {
	return r.DB.Save(student).Error
}

func (r *StudentRepository) UpdateXP(studentID uint, xp int) error {
	return r.DB.Model(&model.StudentUser{}).
		Where("id = ?", studentID).
		Update("xp", gorm.Expr("xp + ?", xp)).
		Error
}

func (r *StudentRepository) FindTopByXP(limit int) ([]model.StudentUser, error) {
	var students []model.StudentUser
	err := r.DB.Order("xp DESC").Limit(limit).Find(&students).Error
	return students, err
}

// ListByStatus 按账号状态列出学生，批量检测用
func (r *StudentRepository) ListByStatus(status model.AccountStatus) ([]model.StudentUser, error) {
	var students []model.StudentUser
	err := r.DB.Where("account_status = ?", status).Find(&students).Error
	return students, err
}

// UpdateStatus 持久化检测结果并刷新 last_active
func (r *StudentRepository) UpdateStatus(studentID uint, status model.AccountStatus, confidence int, signals string, lastActive time.Time) error {
	result := r.DB.Model(&model.StudentUser{}).
		Where("id = ?", studentID).
		Updates(map[string]interface{}{
			"account_status":     status,
			"status_confidence":  confidence,
			"graduation_signals": signals,
			"last_active":        lastActive,
		})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return util.ErrStudentNotFound
	}
	return nil
}

// UpdateLastSeen 只刷新活跃时间，不动会话计数器
func (r *StudentRepository) UpdateLastSeen(studentID uint, at time.Time) error {
	return r.DB.Model(&model.StudentUser{}).
		Where("id = ?", studentID).
		Update("last_active", at).
		Error
}

// TouchActivity 活动事件的被动记账：刷新活跃时间并递增会话计数器
func (r *StudentRepository) TouchActivity(studentID uint, at time.Time, lms bool) error {
	updates := map[string]interface{}{
		"last_active":   at,
		"session_count": gorm.Expr("session_count + 1"),
	}
	if lms {
		updates["last_lms_activity"] = at
		updates["lms_session_count"] = gorm.Expr("lms_session_count + 1")
	}

	result := r.DB.Model(&model.StudentUser{}).Where("id = ?", studentID).Updates(updates)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return util.ErrStudentNotFound
	}
	return nil
}

type statusCountRow struct {
	AccountStatus model.AccountStatus
	Count         int64
}

// CountByStatus 按状态分组统计某大学的学生数
func (r *StudentRepository) CountByStatus(universityID uint) (map[model.AccountStatus]int64, error) {
	var rows []statusCountRow
	err := r.DB.Model(&model.StudentUser{}).
		Select("account_status, COUNT(*) as count").
		Where("university_id = ?", universityID).
		Group("account_status").
		Scan(&rows).Error
	if err != nil {
		return nil, err
	}

	counts := make(map[model.AccountStatus]int64, len(rows))
	for _, row := range rows {
		counts[row.AccountStatus] = row.Count
	}
	return counts, nil
}
