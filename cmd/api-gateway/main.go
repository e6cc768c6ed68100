package main

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"

	_ "github.com/seims-dev/seims-api/api/swagger"
	"github.com/seims-dev/seims-api/internal/handler"
	"github.com/seims-dev/seims-api/internal/middleware"
	"github.com/seims-dev/seims-api/internal/models"
	"github.com/seims-dev/seims-api/internal/permissions"
	"github.com/seims-dev/seims-api/internal/repository"
	"github.com/seims-dev/seims-api/internal/service"
	"github.com/seims-dev/seims-api/pkg/cache"
	"github.com/seims-dev/seims-api/pkg/config"
	"github.com/seims-dev/seims-api/pkg/database"
	"github.com/seims-dev/seims-api/pkg/jobs"
	"github.com/seims-dev/seims-api/pkg/logger"
	corsmiddleware "github.com/seims-dev/seims-api/pkg/middleware/cors"
	reqidmiddleware "github.com/seims-dev/seims-api/pkg/middleware/requestid"
	"github.com/seims-dev/seims-api/pkg/storage"
)

// @title SEIMS API
// @version 1.0.0
// @description Special education student registration and management service
// @BasePath /api/v1
// @schemes http

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}

	logr, err := logger.New(cfg)
	if err != nil {
		log.Fatalf("failed to init logger: %v", err)
	}
	defer logr.Sync() //nolint:errcheck

	db, err := database.NewPostgres(cfg.Database)
	if err != nil {
		logr.Sugar().Fatalw("failed to connect to postgres", "error", err)
	}
	defer db.Close()

	redisClient, err := cache.NewRedis(cfg.Redis)
	if err != nil {
		logr.Sugar().Warnw("redis unavailable, caching disabled", "error", err)
		redisClient = nil
	}

	validate := validator.New()

	userRepo := repository.NewUserRepository(db)
	registrationRepo := repository.NewRegistrationRepository(db)
	iepRepo := repository.NewIEPRepository(db)
	sessionRepo := repository.NewSessionLogRepository(db)
	assessmentRepo := repository.NewAssessmentRepository(db)
	reportRepo := repository.NewReportRepository(db)

	metricsSvc := service.NewMetricsService()

	var cacheSvc *service.CacheService
	if redisClient != nil {
		cacheRepo := repository.NewCacheRepository(redisClient, logr)
		cacheSvc = service.NewCacheService(cacheRepo, metricsSvc, cfg.Dashboard.CacheTTL, logr, cfg.Dashboard.Enabled)
	}

	authSvc := service.NewAuthService(userRepo, validate, logr, service.AuthConfig{
		AccessTokenSecret:  cfg.JWT.Secret,
		AccessTokenExpiry:  cfg.JWT.Expiration,
		RefreshTokenExpiry: cfg.JWT.RefreshExpiration,
		Issuer:             "seims-api",
		Audience:           []string{"seims"},
	})
	userSvc := service.NewUserService(userRepo, validate, logr)
	registrationSvc := service.NewRegistrationService(registrationRepo, userRepo, validate, logr)
	approvalSvc := service.NewApprovalService(registrationRepo, userRepo, cacheSvc, logr)
	studentSvc := service.NewStudentService(registrationRepo, logr)
	iepSvc := service.NewIEPService(iepRepo, registrationRepo, validate, logr)
	sessionSvc := service.NewSessionLogService(sessionRepo, registrationRepo, validate, logr)
	assessmentSvc := service.NewAssessmentService(assessmentRepo, registrationRepo, validate, logr)
	dashboardSvc := service.NewDashboardService(registrationRepo, iepRepo, sessionRepo, cacheSvc, cfg.Dashboard.CacheTTL, logr)

	var reportSvc *service.ReportService
	if cfg.Reports.Enabled {
		reportStore, err := storage.NewLocalStorage(cfg.Reports.StorageDir)
		if err != nil {
			logr.Sugar().Fatalw("failed to init report storage", "error", err)
		}
		signer := storage.NewSignedURLSigner(cfg.Reports.SignedURLSecret, cfg.Reports.SignedURLTTL)
		reportSvc = service.NewReportService(service.ReportServiceParams{
			Repo:    reportRepo,
			Source:  registrationRepo,
			Store:   reportStore,
			Signer:  signer,
			Metrics: metricsSvc,
			Logger:  logr,
			Queue: jobs.QueueConfig{
				Workers:    cfg.Reports.WorkerConcurrency,
				MaxRetries: cfg.Reports.WorkerRetries,
				Logger:     logr,
			},
		})
	}

	if cfg.Env == config.EnvProduction {
		gin.SetMode(gin.ReleaseMode)
	}

	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(reqidmiddleware.Middleware())
	r.Use(logger.GinMiddleware(logr))
	r.Use(corsmiddleware.New(cfg.CORS.AllowedOrigins))
	r.Use(middleware.Metrics(metricsSvc))

	r.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})
	r.GET("/ready", func(c *gin.Context) {
		if err := db.PingContext(c.Request.Context()); err != nil {
			c.JSON(http.StatusServiceUnavailable, gin.H{"status": "degraded"})
			return
		}
		c.JSON(http.StatusOK, gin.H{"status": "ready"})
	})
	r.GET("/metrics", gin.WrapH(metricsSvc.Handler()))

	if cfg.Env != config.EnvProduction {
		r.GET("/docs/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))
	}

	registerRoutes(r, routeDeps{
		cfg:             cfg,
		userRepo:        userRepo,
		authSvc:         authSvc,
		userSvc:         userSvc,
		registrationSvc: registrationSvc,
		approvalSvc:     approvalSvc,
		studentSvc:      studentSvc,
		iepSvc:          iepSvc,
		sessionSvc:      sessionSvc,
		assessmentSvc:   assessmentSvc,
		dashboardSvc:    dashboardSvc,
		reportSvc:       reportSvc,
		metricsSvc:      metricsSvc,
	})

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if reportSvc != nil {
		reportSvc.Start(ctx)
		defer reportSvc.Stop()
	}

	addr := fmt.Sprintf(":%d", cfg.Port)
	srv := &http.Server{Addr: addr, Handler: r}

	go func() {
		logr.Sugar().Infow("server starting", "addr", addr, "env", cfg.Env)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logr.Sugar().Fatalw("server failed", "error", err)
		}
	}()

	<-ctx.Done()
	logr.Sugar().Infow("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logr.Sugar().Errorw("graceful shutdown failed", "error", err)
	}
}

type routeDeps struct {
	cfg             *config.Config
	userRepo        *repository.UserRepository
	authSvc         *service.AuthService
	userSvc         *service.UserService
	registrationSvc *service.RegistrationService
	approvalSvc     *service.ApprovalService
	studentSvc      *service.StudentService
	iepSvc          *service.IEPService
	sessionSvc      *service.SessionLogService
	assessmentSvc   *service.AssessmentService
	dashboardSvc    *service.DashboardService
	reportSvc       *service.ReportService
	metricsSvc      *service.MetricsService
}

func registerRoutes(r *gin.Engine, deps routeDeps) {
	authHandler := handler.NewAuthHandler(deps.authSvc)
	userHandler := handler.NewUserHandler(deps.userSvc)
	registrationHandler := handler.NewRegistrationHandler(deps.registrationSvc)
	approvalHandler := handler.NewApprovalHandler(deps.approvalSvc, deps.registrationSvc, deps.metricsSvc)
	studentHandler := handler.NewStudentHandler(deps.studentSvc)
	iepHandler := handler.NewIEPHandler(deps.iepSvc)
	sessionHandler := handler.NewSessionLogHandler(deps.sessionSvc)
	assessmentHandler := handler.NewAssessmentHandler(deps.assessmentSvc)
	dashboardHandler := handler.NewDashboardHandler(deps.dashboardSvc)

	prefix := deps.cfg.APIPrefix
	if prefix == "" {
		prefix = "/api/v1"
	}
	api := r.Group(prefix)
	authRequired := middleware.JWT(deps.authSvc)

	auth := api.Group("/auth")
	{
		auth.POST("/login", authHandler.Login)
		auth.POST("/refresh", authHandler.Refresh)
		auth.POST("/logout", authRequired, authHandler.Logout)
		auth.POST("/change-password", authRequired, authHandler.ChangePassword)
		auth.GET("/me", authRequired, authHandler.Me)
	}

	users := api.Group("/users", authRequired, middleware.RequireCapability(permissions.UserManagement))
	{
		users.GET("", userHandler.List)
		users.POST("", userHandler.Create)
		users.GET("/:id", userHandler.Get)
		users.PATCH("/:id", userHandler.Update)
	}
	api.GET("/audit-logs", authRequired, middleware.RequireCapability(permissions.AuditLogs), userHandler.AuditLogs)

	registrations := api.Group("/registrations", authRequired, middleware.RequireAnyCapability(permissions.StudentManagement, permissions.RegistrationApproval))
	{
		registrations.GET("", registrationHandler.List)
		registrations.POST("", registrationHandler.CreateBasicInfo)
		registrations.GET("/:id", registrationHandler.Get)
		registrations.PUT("/:id/steps/basic-info", registrationHandler.UpdateBasicInfo)
		registrations.PUT("/:id/steps/contact-info", registrationHandler.SaveContactInfo)
		registrations.PUT("/:id/steps/academic-info", registrationHandler.SaveAcademicInfo)
		registrations.PUT("/:id/steps/medical-info", registrationHandler.SaveMedicalInfo)
		registrations.PUT("/:id/steps/learning-profile", registrationHandler.SaveLearningProfile)
		registrations.POST("/:id/submit",
			middleware.Audit(deps.userRepo, models.AuditActionRegistrationSubmit, "registration"),
			registrationHandler.Submit)
	}

	approvals := api.Group("/approvals", authRequired, middleware.RequireCapability(permissions.RegistrationApproval))
	{
		approvals.GET("", approvalHandler.Queue)
		approvals.GET("/:id", approvalHandler.Open)
		approvals.POST("/:id/decision",
			middleware.Audit(deps.userRepo, models.AuditActionRegistrationDecide, "registration"),
			approvalHandler.Decide)
	}

	students := api.Group("/students", authRequired)
	{
		students.GET("", studentHandler.List)
		students.GET("/:id", studentHandler.Get)
	}

	ieps := api.Group("/ieps", authRequired, middleware.RequireCapability(permissions.IEPManagement))
	{
		ieps.GET("", iepHandler.List)
		ieps.POST("", iepHandler.Create)
		ieps.GET("/:id", iepHandler.Get)
		ieps.POST("/:id/activate", iepHandler.Activate)
		ieps.POST("/:id/goals", iepHandler.AddGoal)
	}
	api.PATCH("/goals/:id/status", authRequired, middleware.RequireCapability(permissions.IEPManagement), iepHandler.UpdateGoalStatus)

	sessions := api.Group("/sessions", authRequired, middleware.RequireCapability(permissions.SessionLogging))
	{
		sessions.GET("", sessionHandler.List)
		sessions.POST("", sessionHandler.Create)
		sessions.GET("/:id", sessionHandler.Get)
	}

	assessments := api.Group("/assessments", authRequired, middleware.RequireCapability(permissions.AssessmentReporting))
	{
		assessments.GET("", assessmentHandler.List)
		assessments.POST("", assessmentHandler.Create)
		assessments.GET("/:id", assessmentHandler.Get)
		assessments.POST("/:id/finalize", assessmentHandler.Finalize)
	}

	api.GET("/dashboard", authRequired, dashboardHandler.Summary)

	if deps.reportSvc != nil {
		reportHandler := handler.NewReportHandler(deps.reportSvc)
		reports := api.Group("/reports")
		{
			// Download authenticates via the signed token itself.
			reports.GET("/download", reportHandler.Download)
			reports.GET("", authRequired, middleware.RequireCapability(permissions.AssessmentReporting), reportHandler.List)
			reports.POST("", authRequired, middleware.RequireCapability(permissions.AssessmentReporting), reportHandler.Queue)
			reports.GET("/:id", authRequired, middleware.RequireCapability(permissions.AssessmentReporting), reportHandler.Get)
		}
	}
}
