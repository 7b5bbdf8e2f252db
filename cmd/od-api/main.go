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
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"

	_ "github.com/acconduty/od-form-api/api/swagger"
	"github.com/acconduty/od-form-api/internal/handler"
	"github.com/acconduty/od-form-api/internal/importer"
	"github.com/acconduty/od-form-api/internal/middleware"
	"github.com/acconduty/od-form-api/internal/repository"
	"github.com/acconduty/od-form-api/internal/service"
	"github.com/acconduty/od-form-api/pkg/cache"
	"github.com/acconduty/od-form-api/pkg/config"
	"github.com/acconduty/od-form-api/pkg/database"
	"github.com/acconduty/od-form-api/pkg/jobs"
	"github.com/acconduty/od-form-api/pkg/logger"
	"github.com/acconduty/od-form-api/pkg/mail"
	corsmiddleware "github.com/acconduty/od-form-api/pkg/middleware/cors"
	reqidmiddleware "github.com/acconduty/od-form-api/pkg/middleware/requestid"
	"github.com/acconduty/od-form-api/pkg/storage"
)

// @title OD Form API
// @version 1.0.0
// @description Leave-request (On Duty) submission and mailing service
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
		logr.Sugar().Fatalw("failed to connect to database", "error", err)
	}
	defer db.Close()

	// Redis is optional: the cache repository degrades to a no-op when
	// the client is nil.
	redisClient, err := cache.NewRedis(cfg.Redis)
	if err != nil {
		logr.Sugar().Warnw("redis unavailable, continuing without cache", "error", err)
		redisClient = nil
	}

	store, err := storage.NewLocalStorage(cfg.Storage.BaseDir)
	if err != nil {
		logr.Sugar().Fatalw("failed to init storage", "error", err)
	}
	signer := storage.NewSignedURLSigner(cfg.Storage.SignedURLSecret, cfg.Storage.SignedURLTTL)

	filesBaseURL := cfg.Storage.PublicBaseURL + cfg.APIPrefix + "/files"
	previewTransport := mail.NewPreviewTransport(store, signer, filesBaseURL, logr)

	// Repositories.
	formRepo := repository.NewSubmissionRepository(db)
	recordRepo := repository.NewStudentRecordRepository(db)
	coordRepo := repository.NewCoordinatorRepository(db)
	cacheRepo := repository.NewCacheRepository(redisClient, logr)

	// Services.
	metricsSvc := service.NewMetricsService()
	composer := service.NewComposer()
	authSvc := service.NewAuthService(coordRepo, nil, logr, cfg.JWT)
	fileSvc := service.NewFileService(store, signer, filesBaseURL, cfg.Storage.MaxUploadBytes, logr)
	mailSvc := service.NewMailService(cfg.SMTP, formRepo, cacheRepo, composer, previewTransport, metricsSvc, logr)

	var submissionSvc *service.SubmissionService
	recordQueue := jobs.NewQueue("student-records", func(ctx context.Context, job jobs.Job) error {
		return submissionSvc.HandleRecordJob(ctx, job)
	}, jobs.QueueConfig{
		Workers:    cfg.Fanout.Workers,
		BufferSize: cfg.Fanout.BufferSize,
		MaxRetries: cfg.Fanout.MaxRetries,
		RetryDelay: cfg.Fanout.RetryDelay,
		Logger:     logr,
	})
	submissionSvc = service.NewSubmissionService(formRepo, recordRepo, authSvc, composer, recordQueue, logr)

	queueCtx, cancelQueue := context.WithCancel(context.Background())
	recordQueue.Start(queueCtx)
	defer cancelQueue()
	defer recordQueue.Stop()

	// Preview mail files have no value once inspected; sweep them daily.
	go func() {
		ticker := time.NewTicker(time.Hour)
		defer ticker.Stop()
		for {
			select {
			case <-queueCtx.Done():
				return
			case <-ticker.C:
				deleted, err := store.CleanupOlderThan(mail.PreviewDir, 24*time.Hour)
				if err != nil {
					logr.Sugar().Warnw("preview mail cleanup failed", "error", err)
					continue
				}
				if len(deleted) > 0 {
					logr.Sugar().Infow("preview mail cleanup", "deleted", len(deleted))
				}
			}
		}
	}()

	imp := importer.NewImporter(cfg.Imports, logr)

	// Handlers.
	authHandler := handler.NewAuthHandler(authSvc)
	submissionHandler := handler.NewSubmissionHandler(submissionSvc)
	importHandler := handler.NewImportHandler(imp, metricsSvc, cfg.Imports.MaxFileSizeBytes, logr)
	mailHandler := handler.NewMailHandler(mailSvc)
	fileHandler := handler.NewFileHandler(fileSvc)
	metricsHandler := handler.NewMetricsHandler(metricsSvc)

	if cfg.Env == config.EnvProduction {
		gin.SetMode(gin.ReleaseMode)
	}

	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(reqidmiddleware.Middleware())
	r.Use(logger.GinMiddleware(logr))
	r.Use(corsmiddleware.New(cfg.CORS.AllowedOrigins))
	r.Use(middleware.Metrics(metricsSvc))

	r.GET("/health", metricsHandler.Health)
	r.GET("/ready", func(c *gin.Context) {
		if err := db.PingContext(c.Request.Context()); err != nil {
			c.JSON(http.StatusServiceUnavailable, gin.H{"status": "degraded", "error": err.Error()})
			return
		}
		c.JSON(http.StatusOK, gin.H{"status": "ready"})
	})
	r.GET("/metrics", metricsHandler.Prometheus)

	if cfg.Env != config.EnvProduction {
		r.GET("/docs/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))
	}

	api := r.Group(cfg.APIPrefix)
	{
		api.POST("/auth/login", authHandler.Login)
		api.POST("/auth/session", authHandler.Session)

		api.POST("/imports", importHandler.Import)
		api.POST("/timetables", fileHandler.UploadTimetable)
		api.GET("/files/:token", fileHandler.Download)

		api.POST("/submissions", middleware.OptionalJWT(authSvc), submissionHandler.Create)
		api.GET("/submissions", middleware.OptionalJWT(authSvc), submissionHandler.List)
		api.GET("/submissions/:id", middleware.OptionalJWT(authSvc), submissionHandler.Get)
		api.GET("/submissions/:id/records", middleware.OptionalJWT(authSvc), submissionHandler.Records)
		api.GET("/submissions/:id/export", middleware.JWT(authSvc), submissionHandler.Export)

		api.POST("/send-email", mailHandler.Send)
	}

	addr := fmt.Sprintf(":%d", cfg.Port)
	srv := &http.Server{Addr: addr, Handler: r}

	go func() {
		logr.Sugar().Infow("server starting", "addr", addr, "env", cfg.Env)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logr.Sugar().Fatalw("server failed", "error", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logr.Sugar().Infow("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logr.Sugar().Errorw("graceful shutdown failed", "error", err)
	}
}
