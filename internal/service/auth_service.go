package service

import (
	"errors"
	"studytrack_backend/internal/config"
	"studytrack_backend/internal/model"
	"studytrack_backend/internal/util"
	"studytrack_backend/pkg/logger"
	"time"

	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"
)

// StudentAccountStore 认证和资料服务依赖的学生账号读写能力
type StudentAccountStore interface {
	Create(student *model.StudentUser) error
	FindByID(id uint) (*model.StudentUser, error)
	FindByEmail(email string) (*model.StudentUser, error)
	Update(student *model.StudentUser) error
	UpdateStatus(studentID uint, status model.AccountStatus, confidence int, signals string, lastActive time.Time) error
}

// RegisterRequest 注册入参
type RegisterRequest struct {
	Name         string `json:"name" binding:"required,min=2,max=100"`
	Email        string `json:"email" binding:"required,email"`
	Password     string `json:"password" binding:"required,min=8"`
	UniversityID uint   `json:"universityId"`
}

// LoginRequest 登录入参
type LoginRequest struct {
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required"`
}

type AuthService struct {
	Students StudentAccountStore
	cfg      *config.Config
}

func NewAuthService(students StudentAccountStore, cfg *config.Config) *AuthService {
	return &AuthService{Students: students, cfg: cfg}
}

// Register 创建学生账号，邮箱唯一
func (s *AuthService) Register(req *RegisterRequest) (*model.StudentUser, error) {
	existing, err := s.Students.FindByEmail(req.Email)
	if err != nil && !errors.Is(err, util.ErrStudentNotFound) {
		return nil, err
	}
	if existing != nil {
		return nil, util.ErrEmailRegistered
	}

	hashed, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.DefaultCost)
	if err != nil {
		return nil, err
	}

	student := &model.StudentUser{
		Name:         req.Name,
		Email:        req.Email,
		Password:     string(hashed),
		Role:         model.Student,
		UniversityID: req.UniversityID,
	}
	if err := s.Students.Create(student); err != nil {
		return nil, err
	}

	logger.Log.Info("student registered",
		zap.Uint("studentId", student.ID),
		zap.Uint("universityId", student.UniversityID),
	)
	return student, nil
}

// Login 校验凭据并签发 JWT
func (s *AuthService) Login(req *LoginRequest) (string, *model.StudentUser, error) {
	student, err := s.Students.FindByEmail(req.Email)
	if err != nil {
		return "", nil, util.ErrPermissionDenied
	}
	if student.Disabled {
		return "", nil, util.ErrPermissionDenied
	}

	if err := bcrypt.CompareHashAndPassword([]byte(student.Password), []byte(req.Password)); err != nil {
		return "", nil, util.ErrPermissionDenied
	}

	token, err := util.GenerateJWT(student, s.cfg.JWT.Secret, s.cfg.JWT.ExpireTime)
	if err != nil {
		return "", nil, err
	}
	return token, student, nil
}
