package main

import (
	"context"
	"errors"
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
	"go.uber.org/zap"

	_ "github.com/himilaisan-astr/elts-backend/api/swagger"
	"github.com/himilaisan-astr/elts-backend/internal/handler"
	internalmiddleware "github.com/himilaisan-astr/elts-backend/internal/middleware"
	"github.com/himilaisan-astr/elts-backend/internal/repository"
	"github.com/himilaisan-astr/elts-backend/internal/server"
	"github.com/himilaisan-astr/elts-backend/internal/service"
	"github.com/himilaisan-astr/elts-backend/pkg/cache"
	"github.com/himilaisan-astr/elts-backend/pkg/config"
	"github.com/himilaisan-astr/elts-backend/pkg/database"
	"github.com/himilaisan-astr/elts-backend/pkg/jobs"
	"github.com/himilaisan-astr/elts-backend/pkg/logger"
	corsmiddleware "github.com/himilaisan-astr/elts-backend/pkg/middleware/cors"
	reqidmiddleware "github.com/himilaisan-astr/elts-backend/pkg/middleware/requestid"
	"github.com/himilaisan-astr/elts-backend/pkg/security"
)

// @title ELTS Admin API
// @version 1.0.0
// @description Administration backend for an English language school.
// @BasePath /api
// @schemes http
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

	if cfg.Env == config.EnvProduction {
		gin.SetMode(gin.ReleaseMode)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	db, err := database.NewPostgres(cfg.Database)
	if err != nil {
		logr.Fatal("failed to connect database", zap.Error(err))
	}
	defer db.Close()

	if cfg.Database.AutoMigrate {
		if err := database.Migrate(ctx, db.DB); err != nil {
			logr.Fatal("failed to apply migrations", zap.Error(err))
		}
		logr.Info("migrations applied")
	}

	metricsSvc := service.NewMetricsService()

	var cacheRepo *repository.CacheRepository
	if cfg.Dashboard.CacheEnabled {
		client, err := cache.NewRedis(ctx, cfg.Redis)
		if err != nil {
			logr.Warn("redis unavailable, dashboard cache disabled", zap.Error(err))
		} else {
			cacheRepo = repository.NewCacheRepository(client, logr)
			defer cacheRepo.Close()
		}
	}
	cacheSvc := service.NewCacheService(cacheRepo, metricsSvc, cfg.Dashboard.CacheTTL, logr, cacheRepo != nil)

	validate := validator.New()
	hasher := security.NewPasswordHasher(cfg.Security.BcryptCost)
	tokens := security.NewTokenManager(security.TokenConfig{
		Secret: cfg.JWT.Secret,
		Issuer: cfg.JWT.Issuer,
		TTL:    cfg.JWT.Expiration,
	})

	userRepo := repository.NewUserRepository(db)
	auditRepo := repository.NewAuditRepository(db)
	studentRepo := repository.NewStudentRepository(db)
	teacherRepo := repository.NewTeacherRepository(db)
	courseRepo := repository.NewCourseRepository(db)
	enrollmentRepo := repository.NewEnrollmentRepository(db)
	dashboardRepo := repository.NewDashboardRepository(db)

	auditSvc := service.NewAuditService(auditRepo, jobs.Config{
		Workers:    cfg.Audit.Workers,
		BufferSize: cfg.Audit.BufferSize,
	}, logr)
	auditSvc.Start(context.Background())
	defer auditSvc.Stop()

	authSvc := service.NewAuthService(userRepo, auditSvc, hasher, tokens, validate, logr)
	studentSvc := service.NewStudentService(studentRepo, cacheSvc, validate, logr)
	teacherSvc := service.NewTeacherService(teacherRepo, cacheSvc, validate, logr)
	courseSvc := service.NewCourseService(courseRepo, studentRepo, cacheSvc, validate, logr)
	enrollmentSvc := service.NewEnrollmentService(enrollmentRepo, cacheSvc, metricsSvc, validate, logr)
	dashboardSvc := service.NewDashboardService(dashboardRepo, cacheSvc, metricsSvc, service.DashboardServiceConfig{CacheTTL: cfg.Dashboard.CacheTTL}, logr)
	exportSvc := service.NewExportService(courseSvc, logr)

	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(reqidmiddleware.Middleware())
	r.Use(logger.GinMiddleware(logr))
	r.Use(corsmiddleware.New(cfg.CORS.AllowedOrigins))
	r.Use(internalmiddleware.Metrics(metricsSvc))
	r.Use(internalmiddleware.WithResponseMeta())

	checks := map[string]handler.Pinger{"database": db}
	if cacheRepo != nil {
		checks["cache"] = cacheRepo
	}
	ops := handler.NewMetricsHandler(metricsSvc, checks, logr)
	r.GET("/health", ops.Health)
	r.GET("/ready", ops.Ready)
	if cfg.Metrics.Enabled {
		r.GET("/metrics", ops.Prometheus)
	}
	if cfg.Docs.Enabled || cfg.Env != config.EnvProduction {
		r.GET("/docs/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))
	}

	routes := server.Routes(server.Handlers{
		Auth:        handler.NewAuthHandler(authSvc),
		Dashboard:   handler.NewDashboardHandler(dashboardSvc),
		Students:    handler.NewStudentHandler(studentSvc),
		Teachers:    handler.NewTeacherHandler(teacherSvc),
		Courses:     handler.NewCourseHandler(courseSvc, exportSvc),
		Enrollments: handler.NewEnrollmentHandler(enrollmentSvc),
	})
	server.Register(r, routes, server.Options{
		Prefix: cfg.APIPrefix,
		Gate:   authSvc,
		Audit:  auditSvc,
		Logger: logr,
	})

	srv := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.Port),
		Handler:           r,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		logr.Sugar().Infow("server starting", "addr", srv.Addr, "env", cfg.Env, "prefix", cfg.APIPrefix)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logr.Sugar().Fatalw("server failed", "error", err)
		}
	}()

	<-ctx.Done()
	logr.Info("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logr.Error("graceful shutdown failed", zap.Error(err))
	}
}
