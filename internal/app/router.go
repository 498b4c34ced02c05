package app

import (
	"studytrack_backend/internal/config"
	"studytrack_backend/internal/middleware"
	"studytrack_backend/internal/model"
	"studytrack_backend/pkg/monitoring"

	"github.com/gin-gonic/gin"
)

func (a *App) registerRoutes(router *gin.Engine, c *controllers, repos *repositories, cfg *config.Config) {
	router.GET("/metrics", monitoring.PrometheusHandler())
	router.GET("/health", c.health.Health)

	// 1. 公共路由(无需登录)
	public := router.Group("/api")
	{
		public.POST("/register", c.auth.Register)
		public.POST("/login", c.auth.Login)
		public.GET("/universities", c.university.List)
	}

	// 2. 需要授权的路由
	authGroup := router.Group("/api")
	authGroup.Use(middleware.AuthMiddleware(cfg), middleware.ActivityMiddleware(repos.student))
	{
		authGroup.GET("/me", c.auth.Me)

		authGroup.GET("/profile", c.user.GetProfile)
		authGroup.PUT("/profile", c.user.UpdateProfile)
		authGroup.POST("/profile/avatar", c.user.UploadAvatar)

		authGroup.POST("/assignments", c.assignment.Create)
		authGroup.GET("/assignments", c.assignment.List)
		authGroup.GET("/assignments/:id", c.assignment.Get)
		authGroup.PUT("/assignments/:id", c.assignment.Update)
		authGroup.DELETE("/assignments/:id", c.assignment.Delete)
		authGroup.POST("/assignments/:id/estimate", c.assignment.Estimate)
		authGroup.POST("/assignments/:id/complete", c.assignment.Complete)

		authGroup.POST("/tracking/start", c.tracking.StartSession)
		authGroup.POST("/tracking/:id/end", c.tracking.EndSession)
		authGroup.GET("/tracking/recent", c.tracking.RecentSessions)
		authGroup.GET("/tracking/totals", c.tracking.StudyTotals)

		authGroup.GET("/badges", c.badge.ListBadges)
		authGroup.GET("/badges/mine", c.badge.MyBadges)
		authGroup.GET("/leaderboard", c.badge.Leaderboard)
		authGroup.POST("/checkin", c.badge.Checkin)
	}

	// 3. 管理员/辅导员接口
	adminGroup := router.Group("/api/admin")
	adminGroup.Use(middleware.AuthMiddleware(cfg), middleware.RoleMiddleware(model.Advisor, model.Admin))
	{
		adminGroup.POST("/detector/sweep", c.admin.TriggerSweep)
		adminGroup.POST("/students/:id/analyze", c.admin.AnalyzeStudent)
		adminGroup.PUT("/students/:id/status", c.admin.SetStatus)
		adminGroup.GET("/universities/:id/status-summary", c.admin.StatusSummary)
	}
}
