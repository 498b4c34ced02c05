package controller

import (
	"studytrack_backend/internal/repository"
	"studytrack_backend/internal/util"

	"github.com/gin-gonic/gin"
)

type UniversityController struct {
	Universities *repository.UniversityRepository
}

func NewUniversityController(universities *repository.UniversityRepository) *UniversityController {
	return &UniversityController{Universities: universities}
}

// List godoc
// @Summary 大学列表
// @Description 注册页下拉框用，无需登录
// @Tags 大学
// @Produce  json
// @Success 200 {object} util.Response{data=[]model.University}
// @Router /api/universities [get]
func (c *UniversityController) List(ctx *gin.Context) {
	universities, err := c.Universities.ListAll()
	if err != nil {
		util.LogInternalError(ctx, err)
		return
	}
	util.Success(ctx, universities)
}
