package util

import "errors"

var (
	ErrStudentNotFound     = errors.New("student not found")
	ErrEmailRegistered     = errors.New("该邮箱已被注册")
	ErrPermissionDenied    = errors.New("permission denied")
	ErrInvalidProfile      = errors.New("profile speed coefficients must be positive")
	ErrAssignmentNotFound  = errors.New("assignment not found")
	ErrSessionNotFound     = errors.New("tracking session not found")
	ErrSessionAlreadyEnded = errors.New("tracking session already ended")
	ErrUniversityNotFound  = errors.New("university not found")
	ErrAlreadyCheckedIn    = errors.New("already checked in today")
	ErrInvalidStatus       = errors.New("status cannot be set manually")
	ErrInvalidFileType     = errors.New("unsupported file type")
)
