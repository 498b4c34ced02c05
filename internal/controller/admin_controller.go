package controller

import (
	"errors"
	"studytrack_backend/internal/model"
	"studytrack_backend/internal/repository"
	"studytrack_backend/internal/service"
	"studytrack_backend/internal/util"

	"github.com/gin-gonic/gin"
)

type AdminController struct {
	DetectorService *service.DetectorService
	UserService     *service.UserService
	Universities    *repository.UniversityRepository
}

func NewAdminController(detectorService *service.DetectorService, userService *service.UserService, universities *repository.UniversityRepository) *AdminController {
	return &AdminController{
		DetectorService: detectorService,
		UserService:     userService,
		Universities:    universities,
	}
}

// TriggerSweep godoc
// @Summary 手动触发全量状态检测
// @Description 遍历所有 active 学生，返回状态发生变化的学生
// @Tags 管理
// @Produce  json
// @Security BearerAuth
// @Success 200 {object} util.Response{data=[]service.AnalysisResult}
// @Router /api/admin/detector/sweep [post]
func (c *AdminController) TriggerSweep(ctx *gin.Context) {
	changed, err := c.DetectorService.AnalyzeAllStudents()
	if err != nil {
		util.LogInternalError(ctx, err)
		return
	}
	util.Success(ctx, gin.H{
		"changed": changed,
		"count":   len(changed),
	})
}

// AnalyzeStudent godoc
// @Summary 单个学生状态检测
// @Tags 管理
// @Produce  json
// @Security BearerAuth
// @Param   id path int true "学生ID"
// @Success 200 {object} util.Response{data=service.AnalysisResult}
// @Failure 404 {object} util.Response "学生不存在"
// @Router /api/admin/students/{id}/analyze [post]
func (c *AdminController) AnalyzeStudent(ctx *gin.Context) {
	id, ok := parseIDParam(ctx, "id")
	if !ok {
		return
	}

	result, err := c.DetectorService.AnalyzeStudent(id)
	if err != nil {
		if errors.Is(err, util.ErrStudentNotFound) {
			util.NotFound(ctx)
		} else {
			util.LogInternalError(ctx, err)
		}
		return
	}
	util.Success(ctx, result)
}

// StatusSummary godoc
// @Summary 某大学的账号状态汇总
// @Tags 管理
// @Produce  json
// @Security BearerAuth
// @Param   id path int true "大学ID"
// @Success 200 {object} util.Response{data=service.StatusSummary}
// @Failure 404 {object} util.Response "大学不存在"
// @Router /api/admin/universities/{id}/status-summary [get]
func (c *AdminController) StatusSummary(ctx *gin.Context) {
	id, ok := parseIDParam(ctx, "id")
	if !ok {
		return
	}

	if _, err := c.Universities.FindByID(id); err != nil {
		if errors.Is(err, util.ErrUniversityNotFound) {
			util.NotFound(ctx)
		} else {
			util.LogInternalError(ctx, err)
		}
		return
	}

	summary, err := c.DetectorService.StatusSummary(id)
	if err != nil {
		util.LogInternalError(ctx, err)
		return
	}
	util.Success(ctx, summary)
}

// SetStatusRequest 人工改状态入参
type SetStatusRequest struct {
	Status model.AccountStatus `json:"status" binding:"required"`
}

// SetStatus godoc
// @Summary 人工设置学生账号状态
// @Description 仅允许 active / graduated_confirmed / dormant，确认毕业和休眠只能人工设置
// @Tags 管理
// @Accept  json
// @Produce  json
// @Security BearerAuth
// @Param   id path int true "学生ID"
// @Param   body body SetStatusRequest true "目标状态"
// @Success 200 {object} util.Response{data=model.StudentUser}
// @Failure 400 {object} util.Response "状态不允许人工设置"
// @Failure 404 {object} util.Response "学生不存在"
// @Router /api/admin/students/{id}/status [put]
func (c *AdminController) SetStatus(ctx *gin.Context) {
	id, ok := parseIDParam(ctx, "id")
	if !ok {
		return
	}

	var req SetStatusRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		util.BadRequest(ctx, err.Error())
		return
	}

	student, err := c.UserService.SetAccountStatus(id, req.Status)
	if err != nil {
		switch {
		case errors.Is(err, util.ErrInvalidStatus):
			util.BadRequest(ctx, err.Error())
		case errors.Is(err, util.ErrStudentNotFound):
			util.NotFound(ctx)
		default:
			util.LogInternalError(ctx, err)
		}
		return
	}
	util.Success(ctx, student)
}
