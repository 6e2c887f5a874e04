package main

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"

	_ "github.com/smart-campus/campus-api/api/swagger"
	"github.com/smart-campus/campus-api/internal/geofence"
	"github.com/smart-campus/campus-api/internal/handler"
	internalmiddleware "github.com/smart-campus/campus-api/internal/middleware"
	"github.com/smart-campus/campus-api/internal/repository"
	"github.com/smart-campus/campus-api/internal/scheduler"
	"github.com/smart-campus/campus-api/internal/service"
	"github.com/smart-campus/campus-api/pkg/cache"
	"github.com/smart-campus/campus-api/pkg/config"
	"github.com/smart-campus/campus-api/pkg/database"
	"github.com/smart-campus/campus-api/pkg/logger"
	corsmiddleware "github.com/smart-campus/campus-api/pkg/middleware/cors"
	reqidmiddleware "github.com/smart-campus/campus-api/pkg/middleware/requestid"
	"github.com/smart-campus/campus-api/pkg/storage"
)

// @title Smart Campus API
// @version 0.1.0
// @description Automatic course scheduling and geofenced attendance for campus operations
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
	defer db.Close() //nolint:errcheck

	redisClient, err := cache.NewRedis(cfg.Redis)
	if err != nil {
		logr.Sugar().Warnw("redis unavailable, caching disabled", "error", err)
		redisClient = nil
	}

	validate := validator.New()
	metricsSvc := service.NewMetricsService()

	cacheRepo := repository.NewCacheRepository(redisClient, logr)
	cacheSvc := service.NewCacheService(cacheRepo, metricsSvc, cfg.Scheduler.CacheTTL, logr, redisClient != nil)

	workdayStart, _ := scheduler.ParseClock(cfg.Scheduler.WorkdayStart)
	workdayEnd, _ := scheduler.ParseClock(cfg.Scheduler.WorkdayEnd)
	engine := scheduler.NewEngine(scheduler.CatalogConfig{
		WorkdayStart: workdayStart,
		WorkdayEnd:   workdayEnd,
		SlotMinutes:  cfg.Scheduler.SlotMinutes,
	}, logr)

	autoScheduleSvc := service.NewAutoScheduleService(
		repository.NewSectionRepository(db),
		repository.NewClassroomRepository(db),
		repository.NewScheduleRepository(db),
		engine,
		cacheSvc,
		metricsSvc,
		service.AutoScheduleConfig{
			MaxIterations:    cfg.Scheduler.MaxIterations,
			TimetableTTL:     cfg.Scheduler.CacheTTL,
			AsyncWorkers:     cfg.Scheduler.AsyncWorkers,
			AsyncQueueBuffer: cfg.Scheduler.AsyncQueueBuffer,
			AsyncResultTTL:   cfg.Scheduler.AsyncResultTTL,
		},
		validate,
		logr,
	)

	attendanceSvc := service.NewAttendanceService(
		repository.NewAttendanceRepository(db),
		geofence.NewEvaluator(geofence.Config{
			MaxRealisticVelocityKmh: cfg.Attendance.MaxRealisticVelocityKmh,
			VelocityWindow:          time.Duration(cfg.Attendance.VelocityWindowSeconds) * time.Second,
		}),
		service.AttendanceConfig{DefaultGeofenceRadiusMeters: cfg.Attendance.DefaultGeofenceRadiusMeters},
		validate,
		logr,
	)

	var exportSvc *service.ExportService
	if cfg.Exports.Enabled {
		files, err := storage.NewLocalStorage(cfg.Exports.Dir)
		if err != nil {
			logr.Sugar().Fatalw("failed to init export storage", "error", err)
		}
		signer := storage.NewSignedURLSigner(cfg.Exports.SigningSecret, cfg.Exports.ResultTTL)
		exportSvc = service.NewExportService(autoScheduleSvc, files, signer, service.ExportConfig{
			APIPrefix: cfg.APIPrefix,
			ResultTTL: cfg.Exports.ResultTTL,
		}, logr, nil, nil)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	autoScheduleSvc.StartWorkers(ctx)
	defer autoScheduleSvc.StopWorkers()

	if cfg.Env == config.EnvProduction {
		gin.SetMode(gin.ReleaseMode)
	}

	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(reqidmiddleware.Middleware())
	r.Use(logger.GinMiddleware(logr))
	r.Use(corsmiddleware.New(cfg.CORS.AllowedOrigins))
	r.Use(internalmiddleware.Metrics(metricsSvc))

	scheduleHandler := handler.NewScheduleHandler(autoScheduleSvc, exportSvc)
	attendanceHandler := handler.NewAttendanceHandler(attendanceSvc)
	metricsHandler := handler.NewMetricsHandler(metricsSvc)

	r.GET("/health", metricsHandler.Health)
	r.GET("/ready", func(c *gin.Context) {
		if err := db.PingContext(c.Request.Context()); err != nil {
			c.JSON(http.StatusServiceUnavailable, gin.H{"status": "degraded"})
			return
		}
		c.JSON(http.StatusOK, gin.H{"status": "ready"})
	})
	r.GET("/metrics", metricsHandler.Prometheus)

	api := r.Group(cfg.APIPrefix)
	{
		api.POST("/schedule/auto", scheduleHandler.AutoSchedule)
		api.GET("/schedule/runs/:id", scheduleHandler.GetRunStatus)
		api.GET("/schedule", scheduleHandler.GetTimetable)
		if exportSvc != nil {
			api.POST("/schedule/export", scheduleHandler.ExportTimetable)
			api.GET("/schedule/export/:token", scheduleHandler.DownloadExport)
		}

		api.POST("/attendance/sessions", attendanceHandler.CreateSession)
		api.POST("/attendance/check-in", attendanceHandler.CheckIn)
		api.GET("/attendance/sessions/:id/check-ins", attendanceHandler.ListCheckIns)

		api.GET("/metrics/snapshot", metricsHandler.Snapshot)
	}

	if cfg.Env != config.EnvProduction {
		r.GET("/docs/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))
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
