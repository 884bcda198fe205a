package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"os/signal"
	"syscall"
	"time"
	_ "time/tzdata"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
	"go.uber.org/zap"

	_ "github.com/noah-isme/wset-admin-api/api/swagger"
	"github.com/noah-isme/wset-admin-api/internal/handler"
	"github.com/noah-isme/wset-admin-api/internal/middleware"
	"github.com/noah-isme/wset-admin-api/internal/models"
	"github.com/noah-isme/wset-admin-api/internal/repository"
	"github.com/noah-isme/wset-admin-api/internal/service"
	"github.com/noah-isme/wset-admin-api/pkg/cache"
	"github.com/noah-isme/wset-admin-api/pkg/config"
	"github.com/noah-isme/wset-admin-api/pkg/database"
	"github.com/noah-isme/wset-admin-api/pkg/jobs"
	"github.com/noah-isme/wset-admin-api/pkg/logger"
	corsmiddleware "github.com/noah-isme/wset-admin-api/pkg/middleware/cors"
	reqidmiddleware "github.com/noah-isme/wset-admin-api/pkg/middleware/requestid"
)

// @title WSET Admin API
// @version 1.0.0
// @description Exam-submission workflow for WSET course orders
// @BasePath /api/v1
// @schemes http https
// @securityDefinitions.apikey BearerAuth
// @in header
// @name Authorization

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

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	db, err := database.NewPostgres(cfg.Database)
	if err != nil {
		logr.Fatal("failed to connect to postgres", zap.Error(err))
	}
	defer db.Close()
	if cfg.Database.AutoMigrate {
		if err := database.Migrate(ctx, db); err != nil {
			logr.Fatal("failed to apply schema", zap.Error(err))
		}
	}

	redisClient, err := cache.NewRedis(ctx, cfg.Redis)
	if err != nil {
		logr.Warn("redis unavailable, caching disabled", zap.Error(err))
		redisClient = nil
	}

	metricsSvc := service.NewMetricsService()
	validate := validator.New()

	workflowRepo := repository.NewWorkflowRepository(db)
	personRepo := repository.NewPersonRepository(db)
	candidateRepo := repository.NewCandidateRepository(db)
	intakeRepo := repository.NewIntakeRepository(db)
	logRepo := repository.NewWorkflowLogRepository(db)
	cacheRepo := repository.NewCacheRepository(redisClient, logr)
	defer cacheRepo.Close() //nolint:errcheck

	cacheSvc := service.NewCacheService(cacheRepo, metricsSvc, cfg.Dashboard.CacheTTL, logr, redisClient != nil)
	businessZone, err := cfg.Deadlines.Location()
	if err != nil {
		logr.Fatal("invalid deadline time zone", zap.String("zone", cfg.Deadlines.TimeZone), zap.Error(err))
	}
	deadlines := service.NewDeadlineValidator(service.DeadlineRules{
		PDFLeadDays:     cfg.Deadlines.PDFLeadDays,
		RILeadDays:      cfg.Deadlines.RILeadDays,
		LateLeadDays:    cfg.Deadlines.LateLeadDays,
		UrgentDays:      cfg.Deadlines.UrgentDays,
		ApproachingDays: cfg.Deadlines.ApproachingDays,
		Location:        businessZone,
	}, metricsSvc)
	workflowLogger := service.NewWorkflowLogger(service.WorkflowLoggerParams{
		Logs:       logRepo,
		Workflows:  workflowRepo,
		Candidates: candidateRepo,
		Deadlines:  deadlines,
		Cache:      cacheSvc,
		Metrics:    metricsSvc,
		Logger:     logr,
	})
	processor := service.NewOrderProcessor(service.OrderProcessorParams{
		Workflows:             workflowRepo,
		People:                personRepo,
		Intake:                intakeRepo,
		Audit:                 workflowLogger,
		Validator:             deadlines,
		Extractor:             service.NewHeuristicCourseExtractor(),
		Cache:                 cacheSvc,
		Metrics:               metricsSvc,
		Logger:                logr,
		DefaultExamOffsetDays: cfg.Deadlines.DefaultExamOffsetDays,
	})
	dashboardSvc := service.NewDashboardService(service.DashboardServiceParams{
		Workflows: workflowRepo,
		Activity:  workflowLogger,
		Updater:   workflowLogger,
		Validator: deadlines,
		Cache:     cacheSvc,
		Logger:    logr,
		Config: service.DashboardServiceConfig{
			CacheTTL:            cfg.Dashboard.CacheTTL,
			RecentActivityLimit: cfg.Dashboard.RecentActivityLimit,
		},
	})
	tokens := service.NewTokenService(service.TokenConfig{
		Secret: cfg.JWT.Secret,
		Issuer: cfg.JWT.Issuer,
		Expiry: cfg.JWT.Expiration,
	})

	scheduler := jobs.NewScheduler(logr)
	if cfg.Dashboard.ComplianceSweepInterval > 0 {
		err := scheduler.Add(jobs.Task{
			Name:       "compliance_sweep",
			Interval:   cfg.Dashboard.ComplianceSweepInterval,
			Timeout:    2 * time.Minute,
			MaxRetries: 2,
			RetryDelay: 30 * time.Second,
			RunOnStart: true,
			Run: func(ctx context.Context) error {
				_, err := dashboardSvc.SweepCompliance(ctx)
				return err
			},
		})
		if err != nil {
			logr.Fatal("failed to schedule compliance sweep", zap.Error(err))
		}
	}
	scheduler.Start(ctx)
	defer scheduler.Stop()

	if cfg.Env == config.EnvProduction {
		gin.SetMode(gin.ReleaseMode)
	}

	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(reqidmiddleware.Middleware())
	r.Use(logger.GinMiddleware(logr, "/health", "/metrics"))
	r.Use(corsmiddleware.New(cfg.CORS.AllowedOrigins))
	r.Use(middleware.Metrics(metricsSvc, "/health", "/ready", "/metrics"))
	r.Use(middleware.WithResponseMeta())

	checks := map[string]handler.Pinger{"postgres": db}
	if redisClient != nil {
		checks["redis"] = handler.PingFunc(cacheRepo.Ping)
	}
	metricsHandler := handler.NewMetricsHandler(metricsSvc, checks)
	r.GET("/health", metricsHandler.Health)
	r.GET("/ready", metricsHandler.Ready)
	r.GET("/metrics", metricsHandler.Prometheus)

	if cfg.Env != config.EnvProduction {
		r.GET("/docs/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))
	}

	api := r.Group(cfg.APIPrefix)
	staff := api.Group("", middleware.JWT(tokens), middleware.RequireRoles(models.RoleOwner, models.RoleAdmin, models.RoleEducator))
	managers := middleware.RequireRoles(models.RoleOwner, models.RoleAdmin)

	if cfg.Orders.Enabled {
		orderHandler := handler.NewOrderHandler(processor)
		api.POST("/orders/webhook", middleware.WebhookSignature(cfg.Orders.WebhookSecret), orderHandler.Webhook)
		staff.POST("/orders/:orderId/reprocess", managers, orderHandler.Reprocess)
		if cfg.Orders.WebhookSecret == "" {
			logr.Warn("order webhook signature check disabled: ORDER_WEBHOOK_SECRET is empty")
		}
	}

	workflowHandler := handler.NewWorkflowHandler(dashboardSvc, workflowLogger)
	staff.GET("/workflows", workflowHandler.List)
	staff.PATCH("/workflows/:id", managers, workflowHandler.Update)
	staff.GET("/workflows/:id/logs", workflowHandler.Logs)
	staff.GET("/activity", workflowHandler.Activity)

	deadlineHandler := handler.NewDeadlineHandler(deadlines, validate)
	staff.GET("/deadlines/check", deadlineHandler.Check)

	if cfg.Dashboard.Enabled {
		dashboardHandler := handler.NewDashboardHandler(dashboardSvc)
		staff.GET("/dashboard", dashboardHandler.Overview)
		staff.GET("/dashboard/statistics", dashboardHandler.Statistics)
		staff.GET("/dashboard/export", dashboardHandler.Export)
	}

	srv := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.Port),
		Handler:           r,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		logr.Sugar().Infow("server starting", "addr", srv.Addr, "env", cfg.Env)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logr.Sugar().Fatalw("server failed", "error", err)
		}
	}()

	<-ctx.Done()
	logr.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logr.Error("graceful shutdown failed", zap.Error(err))
	}
}
