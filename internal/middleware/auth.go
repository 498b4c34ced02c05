package middleware

import (
	"strings"
	"studytrack_backend/internal/config"
	"studytrack_backend/internal/model"
	"studytrack_backend/internal/util"
	"studytrack_backend/pkg/logger"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

func AuthMiddleware(cfg *config.Config) gin.HandlerFunc {
	return func(c *gin.Context) {
		tokenString := ""
		authHeader := c.GetHeader("Authorization")
		if authHeader != "" {
			tokenString = strings.TrimPrefix(authHeader, "Bearer ")
		}

		if tokenString == "" {
			tokenString = c.Query("token")
		}

		if tokenString == "" {
			util.Unauthorized(c)
			c.Abort()
			return
		}

		claims, err := util.ParseJWT(tokenString, cfg.JWT.Secret)
		if err != nil {
			logger.Log.Debug("JWT parse failed", zap.Error(err))
			util.Unauthorized(c)
			c.Abort()
			return
		}

		c.Set("user", claims)
		c.Next()
	}
}

func RoleMiddleware(roles ...model.UserRole) gin.HandlerFunc {
	return func(c *gin.Context) {
		user := util.GetUserFromContext(c)
		if user == nil {
			util.Unauthorized(c)
			c.Abort()
			return
		}

		hasRole := false
		for _, role := range roles {
			// 管理员拥有全部权限，直接放行
			if user.Role == model.Admin {
				hasRole = true
				break
			}
			if user.Role == role {
				hasRole = true
				break
			}
		}

		if !hasRole {
			util.Forbidden(c)
			c.Abort()
			return
		}
		c.Next()
	}
}

// StudentActivityRepo 活跃时间戳更新的最小依赖
type StudentActivityRepo interface {
	UpdateLastSeen(studentID uint, at time.Time) error
}

// ActivityMiddleware 带鉴权请求刷新学生的 last_active
// 只动时间戳，会话计数器由跟踪接口负责
func ActivityMiddleware(repo StudentActivityRepo) gin.HandlerFunc {
	return func(c *gin.Context) {
		claims := util.GetUserFromContext(c)
		if claims != nil {
			// 异步更新，不阻塞主流程，失败只记日志
			go func(studentID uint) {
				if err := repo.UpdateLastSeen(studentID, time.Now()); err != nil {
					logger.Log.Warn("last_active update failed",
						zap.Uint("studentId", studentID),
						zap.Error(err),
					)
				}
			}(claims.UserID)
		}
		c.Next()
	}
}
