package repository

import (
	"errors"
	"studytrack_backend/internal/model"
	"studytrack_backend/internal/util"

	"gorm.io/gorm"
)

type AssignmentRepository struct {
	DB *gorm.DB
}

func NewAssignmentRepository(db *gorm.DB) *AssignmentRepository {
	return &AssignmentRepository{DB: db}
}

func (r *AssignmentRepository) Create(assignment *model.Assignment) error {
	return r.DB.Create(assignment).Error
}

func (r *AssignmentRepository) FindByIDAndStudent(id, studentID uint) (*model.Assignment, error) {
	var assignment model.Assignment
	err := r.DB.Where("id = ? AND student_id = ?", id, studentID).First(&assignment).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, util.ErrAssignmentNotFound
	}
	if err != nil {
		return nil, err
	}
	return &assignment, nil
}

func (r *AssignmentRepository) FindByStudent(studentID uint) ([]model.Assignment, error) {
	var assignments []model.Assignment
	err := r.DB.Where("student_id = ?", studentID).Order("created_at DESC").Find(&assignments).Error
	return assignments, err
}

func (r *AssignmentRepository) Update(assignment *model.Assignment) error {
	return r.DB.Save(assignment).Error
}

func (r *AssignmentRepository) Delete(assignment *model.Assignment) error {
	return r.DB.Delete(assignment).Error
}

func (r *AssignmentRepository) CountCompletedByStudent(studentID uint) (int64, error) {
	var count int64
	err := r.DB.Model(&model.Assignment{}).
		Where("student_id = ? AND completed = ?", studentID, true).
		Count(&count).Error
	return count, err
}
