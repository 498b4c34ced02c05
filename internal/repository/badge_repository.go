package repository

import (
	"studytrack_backend/internal/model"
	"time"

	"gorm.io/gorm"
)

type BadgeRepository struct {
	DB *gorm.DB
}

func NewBadgeRepository(db *gorm.DB) *BadgeRepository {
	return &BadgeRepository{DB: db}
}

func (r *BadgeRepository) ListAll() ([]model.Badge, error) {
	var badges []model.Badge
	err := r.DB.Order("threshold ASC").Find(&badges).Error
	return badges, err
}

func (r *BadgeRepository) ListByStudent(studentID uint) ([]model.StudentBadge, error) {
	var earned []model.StudentBadge
	err := r.DB.Preload("Badge").
		Where("student_id = ?", studentID).
		Order("earned_at DESC").
		Find(&earned).Error
	return earned, err
}

func (r *BadgeRepository) HasBadge(studentID, badgeID uint) (bool, error) {
	var count int64
	err := r.DB.Model(&model.StudentBadge{}).
		Where("student_id = ? AND badge_id = ?", studentID, badgeID).
		Count(&count).Error
	return count > 0, err
}

func (r *BadgeRepository) Award(studentID, badgeID uint) error {
	return r.DB.Create(&model.StudentBadge{
		StudentID: studentID,
		BadgeID:   badgeID,
		EarnedAt:  time.Now(),
	}).Error
}
