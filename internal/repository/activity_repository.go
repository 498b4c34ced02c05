package repository

import (
	"errors"
	"studytrack_backend/internal/model"
	"studytrack_backend/internal/util"
	"time"

	"gorm.io/gorm"
)

type ActivityRepository struct {
	DB *gorm.DB
}

func NewActivityRepository(db *gorm.DB) *ActivityRepository {
	return &ActivityRepository{DB: db}
}

func (r *ActivityRepository) Create(record *model.ActivityRecord) error {
	return r.DB.Create(record).Error
}

func (r *ActivityRepository) Update(record *model.ActivityRecord) error {
	return r.DB.Save(record).Error
}

func (r *ActivityRepository) FindByIDAndStudent(id, studentID uint) (*model.ActivityRecord, error) {
	var record model.ActivityRecord
	err := r.DB.Where("id = ? AND student_id = ?", id, studentID).First(&record).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, util.ErrSessionNotFound
	}
	if err != nil {
		return nil, err
	}
	return &record, nil
}

// FindByStudentSince 取某学生自 since 以来的活动记录，检测器的数据入口
func (r *ActivityRepository) FindByStudentSince(studentID uint, since time.Time) ([]model.ActivityRecord, error) {
	var records []model.ActivityRecord
	err := r.DB.Where("student_id = ? AND started_at >= ?", studentID, since).
		Order("started_at DESC").
		Find(&records).Error
	return records, err
}

func (r *ActivityRepository) FindRecentByStudent(studentID uint, limit int) ([]model.ActivityRecord, error) {
	var records []model.ActivityRecord
	err := r.DB.Where("student_id = ?", studentID).
		Order("started_at DESC").
		Limit(limit).
		Find(&records).Error
	return records, err
}

// TotalMinutesByStudent 已结束会话的累计学习分钟数
func (r *ActivityRepository) TotalMinutesByStudent(studentID uint) (int64, error) {
	var total int64
	err := r.DB.Model(&model.ActivityRecord{}).
		Where("student_id = ? AND is_active = ?", studentID, false).
		Select("COALESCE(SUM(duration_minutes), 0)").
		Scan(&total).Error
	return total, err
}

// SumMinutesByAssignment 某作业的累计实际学习分钟数
func (r *ActivityRepository) SumMinutesByAssignment(assignmentID uint) (int64, error) {
	var total int64
	err := r.DB.Model(&model.ActivityRecord{}).
		Where("assignment_id = ? AND is_active = ?", assignmentID, false).
		Select("COALESCE(SUM(duration_minutes), 0)").
		Scan(&total).Error
	return total, err
}
