package app

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"studytrack_backend/internal/config"
	"studytrack_backend/internal/controller"
	"studytrack_backend/internal/repository"
	"studytrack_backend/internal/service"
	"studytrack_backend/pkg/database"
	"studytrack_backend/pkg/logger"
	"studytrack_backend/pkg/monitoring"
	"studytrack_backend/pkg/security"
	"studytrack_backend/pkg/tracing"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/go-redis/redis/v8"
	"github.com/robfig/cron/v3"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

type App struct {
	Config          *config.Config
	Router          *gin.Engine
	DB              *gorm.DB
	Redis           *redis.Client
	cron            *cron.Cron
	services        *services
	configCallbacks []func(*config.Config)
}

type repositories struct {
	student    *repository.StudentRepository
	activity   *repository.ActivityRepository
	assignment *repository.AssignmentRepository
	badge      *repository.BadgeRepository
	checkin    *repository.CheckinRepository
	university *repository.UniversityRepository
}

type services struct {
	auth       *service.AuthService
	user       *service.UserService
	storage    *service.StorageService
	estimator  *service.EstimatorService
	detector   *service.DetectorService
	tracking   *service.TrackingService
	badge      *service.BadgeService
	assignment *service.AssignmentService
}

type controllers struct {
	auth       *controller.AuthController
	user       *controller.UserController
	assignment *controller.AssignmentController
	tracking   *controller.TrackingController
	badge      *controller.BadgeController
	admin      *controller.AdminController
	university *controller.UniversityController
	health     *controller.HealthController
}

func (a *App) RegisterConfigCallback(callback func(*config.Config)) {
	a.configCallbacks = append(a.configCallbacks, callback)
}

// ApplyConfig 热加载后把新配置分发给注册过的回调
func (a *App) ApplyConfig(cfg *config.Config) {
	a.Config = cfg
	for _, callback := range a.configCallbacks {
		callback(cfg)
	}
}

func (a *App) initRepositories(db *gorm.DB) *repositories {
	return &repositories{
		student:    repository.NewStudentRepository(db),
		activity:   repository.NewActivityRepository(db),
		assignment: repository.NewAssignmentRepository(db),
		badge:      repository.NewBadgeRepository(db),
		checkin:    repository.NewCheckinRepository(db),
		university: repository.NewUniversityRepository(db),
	}
}

func (a *App) initServices(repos *repositories, cfg *config.Config, rdb *redis.Client) *services {
	s := &services{}

	s.storage = service.NewStorageService(cfg)
	s.auth = service.NewAuthService(repos.student, cfg)
	s.user = service.NewUserService(repos.student)
	s.estimator = service.NewEstimatorService()

	summaryTTL := time.Duration(cfg.Detector.SummaryCacheTTLMinutes) * time.Minute
	s.detector = service.NewDetectorService(repos.activity, repos.student, rdb, summaryTTL)

	s.badge = service.NewBadgeService(repos.badge, repos.student, repos.checkin, repos.assignment, rdb)
	s.tracking = service.NewTrackingService(repos.activity, s.detector, s.badge)
	s.assignment = service.NewAssignmentService(repos.assignment, repos.student, repos.activity, s.estimator, s.badge)

	return s
}

func (a *App) initControllers(s *services, repos *repositories, db *gorm.DB, rdb *redis.Client) *controllers {
	return &controllers{
		auth:       controller.NewAuthController(s.auth, s.user),
		user:       controller.NewUserController(s.user, s.storage),
		assignment: controller.NewAssignmentController(s.assignment),
		tracking:   controller.NewTrackingController(s.tracking),
		badge:      controller.NewBadgeController(s.badge),
		admin:      controller.NewAdminController(s.detector, s.user, repos.university),
		university: controller.NewUniversityController(repos.university),
		health:     controller.NewHealthController(db, rdb),
	}
}

func (a *App) setupMiddlewares(router *gin.Engine, cfg *config.Config) {
	router.Use(security.CORS(cfg.CORS.AllowedOrigins))
	router.Use(security.Secure())

	maxRequests := cfg.RateLimit.MaxRequests
	if maxRequests <= 0 {
		maxRequests = 1000
	}
	windowMinutes := cfg.RateLimit.WindowMinutes
	if windowMinutes <= 0 {
		windowMinutes = 1
	}
	router.Use(security.RateLimiter(maxRequests, time.Duration(windowMinutes)*time.Minute))

	if cfg.Tracing.Enabled {
		router.Use(tracing.GinMiddleware())
	}

	router.Use(monitoring.MetricsMiddleware())
}

// startBackgroundTasks 夜间全量状态扫描，cron表达式来自配置
func (a *App) startBackgroundTasks(s *services, cfg *config.Config) {
	if !cfg.Detector.SweepEnabled {
		logger.Log.Info("status sweep disabled by config")
		return
	}

	a.cron = cron.New()
	_, err := a.cron.AddFunc(cfg.Detector.SweepSchedule, func() {
		if _, err := s.detector.AnalyzeAllStudents(); err != nil {
			logger.Log.Error("scheduled status sweep failed", zap.Error(err))
		}
	})
	if err != nil {
		logger.Log.Fatal("invalid sweep schedule",
			zap.String("schedule", cfg.Detector.SweepSchedule),
			zap.Error(err),
		)
	}
	a.cron.Start()
	logger.Log.Info("status sweep scheduled", zap.String("schedule", cfg.Detector.SweepSchedule))
}

func NewApp(cfg *config.Config) *App {
	logger.InitLogger(cfg)

	logger.Log.Info("Logger initialized successfully")

	db, err := database.InitDB(cfg)
	if err != nil {
		logger.Log.Fatal("Failed to initialize database", zap.Error(err))
		log.Fatalf("Failed to initialize database: %v", err)
	}

	rdb, err := database.InitRedis(&cfg.Redis)
	if err != nil {
		logger.Log.Fatal("Failed to initialize redis", zap.Error(err))
		log.Fatalf("Failed to initialize redis: %v", err)
	}

	app := &App{
		Config: cfg,
		DB:     db,
		Redis:  rdb,
	}

	repos := app.initRepositories(db)
	services := app.initServices(repos, cfg, rdb)
	app.services = services
	controllers := app.initControllers(services, repos, db, rdb)

	// 汇总缓存 TTL 支持热加载
	app.RegisterConfigCallback(func(c *config.Config) {
		services.detector.SummaryCacheTTL = time.Duration(c.Detector.SummaryCacheTTLMinutes) * time.Minute
	})

	monitoring.Init()

	if cfg.Server.Mode == "release" {
		gin.SetMode(gin.ReleaseMode)
	}

	router := gin.Default()
	app.Router = router

	app.setupMiddlewares(router, cfg)

	if cfg.Tracing.Enabled {
		if _, err := tracing.InitTracer("studytrack-backend", cfg.Tracing.CollectorEndpoint); err != nil {
			logger.Log.Fatal("Failed to initialize tracing", zap.Error(err))
		}
	}

	app.registerRoutes(router, controllers, repos, cfg)

	if cfg.Storage.Type == "local" {
		router.Static("/uploads", cfg.Storage.LocalPath)
	}

	app.startBackgroundTasks(services, cfg)

	return app
}

func (a *App) Run() {
	srv := &http.Server{
		Addr:    ":" + a.Config.Server.Port,
		Handler: a.Router,
	}

	go func() {
		log.Printf("Server running on port %s", a.Config.Server.Port)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("listen: %s\n", err)
		}
	}()

	// 等待中断信号优雅地关闭服务器（设置5秒的超时时间）
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Println("Shutting down server...")

	if a.cron != nil {
		a.cron.Stop()
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		log.Fatal("Server forced to shutdown:", err)
	}

	log.Println("Server exiting")
}
