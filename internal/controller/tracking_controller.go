package controller

import (
	"errors"
	"strconv"
	"studytrack_backend/internal/service"
	"studytrack_backend/internal/util"

	"github.com/gin-gonic/gin"
)

type TrackingController struct {
	TrackingService *service.TrackingService
}

func NewTrackingController(trackingService *service.TrackingService) *TrackingController {
	return &TrackingController{TrackingService: trackingService}
}

// StartSession godoc
// @Summary 开始学习会话
// @Description 浏览器插件上报会话开始，站点命中 LMS 域名时同时刷新 LMS 活跃
// @Tags 跟踪
// @Accept  json
// @Produce  json
// @Security BearerAuth
// @Param   body body service.StartSessionRequest true "会话信息"
// @Success 201 {object} util.Response{data=model.ActivityRecord}
// @Router /api/tracking/start [post]
func (c *TrackingController) StartSession(ctx *gin.Context) {
	claims := util.GetUserFromContext(ctx)
	if claims == nil {
		util.Unauthorized(ctx)
		return
	}

	var req service.StartSessionRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		util.BadRequest(ctx, err.Error())
		return
	}

	record, err := c.TrackingService.StartSession(claims.UserID, &req)
	if err != nil {
		util.LogInternalError(ctx, err)
		return
	}
	util.Created(ctx, record)
}

// EndSession godoc
// @Summary 结束学习会话
// @Description 结算时长，重复结束返回409
// @Tags 跟踪
// @Produce  json
// @Security BearerAuth
// @Param   id path int true "会话ID"
// @Success 200 {object} util.Response{data=model.ActivityRecord}
// @Failure 404 {object} util.Response "会话不存在"
// @Failure 409 {object} util.Response "会话已结束"
// @Router /api/tracking/{id}/end [post]
func (c *TrackingController) EndSession(ctx *gin.Context) {
	claims := util.GetUserFromContext(ctx)
	if claims == nil {
		util.Unauthorized(ctx)
		return
	}
	id, ok := parseIDParam(ctx, "id")
	if !ok {
		return
	}

	record, err := c.TrackingService.EndSession(claims.UserID, id)
	if err != nil {
		switch {
		case errors.Is(err, util.ErrSessionNotFound):
			util.NotFound(ctx)
		case errors.Is(err, util.ErrSessionAlreadyEnded):
			util.Error(ctx, 409, err.Error())
		default:
			util.LogInternalError(ctx, err)
		}
		return
	}
	util.Success(ctx, record)
}

// RecentSessions godoc
// @Summary 最近的学习会话
// @Tags 跟踪
// @Produce  json
// @Security BearerAuth
// @Param   limit query int false "返回条数，默认20"
// @Success 200 {object} util.Response{data=[]model.ActivityRecord}
// @Router /api/tracking/recent [get]
func (c *TrackingController) RecentSessions(ctx *gin.Context) {
	claims := util.GetUserFromContext(ctx)
	if claims == nil {
		util.Unauthorized(ctx)
		return
	}

	limit, _ := strconv.Atoi(ctx.DefaultQuery("limit", "20"))
	records, err := c.TrackingService.RecentSessions(claims.UserID, limit)
	if err != nil {
		util.LogInternalError(ctx, err)
		return
	}
	util.Success(ctx, records)
}

// StudyTotals godoc
// @Summary 累计学习时长
// @Tags 跟踪
// @Produce  json
// @Security BearerAuth
// @Success 200 {object} util.Response{data=object}
// @Router /api/tracking/totals [get]
func (c *TrackingController) StudyTotals(ctx *gin.Context) {
	claims := util.GetUserFromContext(ctx)
	if claims == nil {
		util.Unauthorized(ctx)
		return
	}

	minutes, err := c.TrackingService.TotalStudyMinutes(claims.UserID)
	if err != nil {
		util.LogInternalError(ctx, err)
		return
	}
	util.Success(ctx, gin.H{"totalMinutes": minutes})
}
