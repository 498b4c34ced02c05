// @title StudyTrack 后端 API
// @version 1.0
// @description 学习习惯跟踪插件的后端服务器：作业耗时估算、毕业状态检测与学习激励。
// @termsOfService http://swagger.io/terms/

// @contact.name API支持
// @contact.email support@studytrack.dev

// @license.name Apache 2.0
// @license.url http://www.apache.org/licenses/LICENSE-2.0.html

// @host localhost:8080
// @BasePath /api
// @securityDefinitions.apikey BearerAuth
// @in header
// @name Authorization

package main

import (
	"flag"
	"log"
	"studytrack_backend/internal/app"
	"studytrack_backend/internal/config"
	"studytrack_backend/pkg/configwatcher"
	"studytrack_backend/pkg/logger"

	"go.uber.org/zap"
)

func main() {
	// 命令行参数
	migrateOnly := flag.Bool("migrate-only", false, "只执行数据库迁移，完成后退出")
	migrate := flag.Bool("migrate", false, "启动时强制执行数据库迁移（即使是 release 模式）")
	flag.Parse()

	cfg, err := config.LoadConfig("configs")
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	// 设置迁移标志
	cfg.ForceMigrate = *migrate || *migrateOnly
	cfg.MigrateOnly = *migrateOnly

	application := app.NewApp(cfg)
	defer logger.Log.Sync()

	// 迁移完成后直接退出
	if *migrateOnly {
		log.Println("数据库迁移完成，退出程序")
		return
	}

	// 配置文件热加载，只对注册过回调的配置生效
	go configwatcher.WatchConfig("configs/config.yaml", cfg, func(newCfg interface{}) {
		if c, ok := newCfg.(*config.Config); ok {
			logger.Log.Info("config reloaded", zap.String("path", "configs/config.yaml"))
			application.ApplyConfig(c)
		}
	})

	application.Run()
}
