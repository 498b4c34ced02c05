package controller

import (
	"errors"
	"strconv"
	"studytrack_backend/internal/service"
	"studytrack_backend/internal/util"

	"github.com/gin-gonic/gin"
)

type BadgeController struct {
	BadgeService *service.BadgeService
}

func NewBadgeController(badgeService *service.BadgeService) *BadgeController {
	return &BadgeController{BadgeService: badgeService}
}

// ListBadges godoc
// @Summary 全部徽章
// @Tags 激励
// @Produce  json
// @Security BearerAuth
// @Success 200 {object} util.Response{data=[]model.Badge}
// @Router /api/badges [get]
func (c *BadgeController) ListBadges(ctx *gin.Context) {
	badges, err := c.BadgeService.ListBadges()
	if err != nil {
		util.LogInternalError(ctx, err)
		return
	}
	util.Success(ctx, badges)
}

// MyBadges godoc
// @Summary 已获得的徽章
// @Tags 激励
// @Produce  json
// @Security BearerAuth
// @Success 200 {object} util.Response{data=[]model.StudentBadge}
// @Router /api/badges/mine [get]
func (c *BadgeController) MyBadges(ctx *gin.Context) {
	claims := util.GetUserFromContext(ctx)
	if claims == nil {
		util.Unauthorized(ctx)
		return
	}

	badges, err := c.BadgeService.StudentBadges(claims.UserID)
	if err != nil {
		util.LogInternalError(ctx, err)
		return
	}
	util.Success(ctx, badges)
}

// Leaderboard godoc
// @Summary XP排行榜
// @Tags 激励
// @Produce  json
// @Security BearerAuth
// @Param   limit query int false "返回条数，默认10"
// @Success 200 {object} util.Response{data=[]service.LeaderboardEntry}
// @Router /api/leaderboard [get]
func (c *BadgeController) Leaderboard(ctx *gin.Context) {
	limit, _ := strconv.Atoi(ctx.DefaultQuery("limit", "10"))
	entries, err := c.BadgeService.Leaderboard(limit)
	if err != nil {
		util.LogInternalError(ctx, err)
		return
	}
	util.Success(ctx, entries)
}

// Checkin godoc
// @Summary 每日打卡
// @Description 同日重复打卡返回409，昨日有打卡则连续天数累加
// @Tags 激励
// @Produce  json
// @Security BearerAuth
// @Success 201 {object} util.Response{data=model.Checkin}
// @Failure 409 {object} util.Response "今日已打卡"
// @Router /api/checkin [post]
func (c *BadgeController) Checkin(ctx *gin.Context) {
	claims := util.GetUserFromContext(ctx)
	if claims == nil {
		util.Unauthorized(ctx)
		return
	}

	checkin, err := c.BadgeService.Checkin(claims.UserID)
	if err != nil {
		if errors.Is(err, util.ErrAlreadyCheckedIn) {
			util.Error(ctx, 409, err.Error())
		} else {
			util.LogInternalError(ctx, err)
		}
		return
	}
	util.Created(ctx, checkin)
}
