package repository

import (
	"errors"
	"studytrack_backend/internal/model"
	"time"

	"gorm.io/gorm"
)

type CheckinRepository struct {
	DB *gorm.DB
}

// NewCheckinRepository 创建新的打卡仓库实例
func NewCheckinRepository(db *gorm.DB) *CheckinRepository {
	return &CheckinRepository{DB: db}
}

// Create 创建新的打卡记录
func (r *CheckinRepository) Create(checkin *model.Checkin) error {
	return r.DB.Create(checkin).Error
}

// FindByStudentAndDate 检查学生在指定日期是否已打卡
func (r *CheckinRepository) FindByStudentAndDate(studentID uint, date time.Time) (*model.Checkin, error) {
	var checkin model.Checkin
	// 获取日期的开始和结束时间
	startOfDay := time.Date(date.Year(), date.Month(), date.Day(), 0, 0, 0, 0, date.Location())
	endOfDay := startOfDay.Add(24 * time.Hour).Add(-1 * time.Nanosecond)

	err := r.DB.Where("student_id = ? AND checkin_at BETWEEN ? AND ?", studentID, startOfDay, endOfDay).First(&checkin).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &checkin, nil
}

// FindLatestByStudent 获取学生最近的打卡记录
func (r *CheckinRepository) FindLatestByStudent(studentID uint) (*model.Checkin, error) {
	var checkin model.Checkin
	err := r.DB.Where("student_id = ?", studentID).Order("checkin_at DESC").First(&checkin).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &checkin, nil
}

// GetCheckinCountByStudent 获取学生的总打卡次数
func (r *CheckinRepository) GetCheckinCountByStudent(studentID uint) (int64, error) {
	var count int64
	err := r.DB.Model(&model.Checkin{}).Where("student_id = ?", studentID).Count(&count).Error
	return count, err
}
