package repository

import (
	"errors"
	"studytrack_backend/internal/model"
	"studytrack_backend/internal/util"

	"gorm.io/gorm"
)

type UniversityRepository struct {
	DB *gorm.DB
}

func NewUniversityRepository(db *gorm.DB) *UniversityRepository {
	return &UniversityRepository{DB: db}
}

func (r *UniversityRepository) FindByID(id uint) (*model.University, error) {
	var university model.University
	err := r.DB.First(&university, id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, util.ErrUniversityNotFound
	}
	if err != nil {
		return nil, err
	}
	return &university, nil
}

func (r *UniversityRepository) ListAll() ([]model.University, error) {
	var universities []model.University
	err := r.DB.Order("name ASC").Find(&universities).Error
	return universities, err
}
