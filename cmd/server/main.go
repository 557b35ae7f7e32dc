package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-contrib/gzip"
	"github.com/gin-gonic/gin"
	"github.com/inkvault/backend/internal/auth"
	"github.com/inkvault/backend/internal/cache"
	"github.com/inkvault/backend/internal/config"
	"github.com/inkvault/backend/internal/database"
	"github.com/inkvault/backend/internal/email"
	"github.com/inkvault/backend/internal/handlers"
	"github.com/inkvault/backend/internal/logger"
	"github.com/inkvault/backend/internal/metrics"
	"github.com/inkvault/backend/internal/middleware"
	"github.com/inkvault/backend/internal/repository"
	"github.com/inkvault/backend/internal/services"
	"github.com/inkvault/backend/internal/storage"
	"github.com/inkvault/backend/internal/tasks"
	"github.com/inkvault/backend/internal/telemetry"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"
)

func main() {
	config.LoadDotEnv()
	cfg, err := config.Load()
	if err != nil {
		// logger is not up yet
		fmt.Fprintf(os.Stderr, "config: %v\n", err)
		os.Exit(1)
	}

	if err := logger.Initialize(cfg.LogLevel, cfg.LogFile); err != nil {
		fmt.Fprintf(os.Stderr, "logger: %v\n", err)
		os.Exit(1)
	}
	defer logger.Close()

	if err := run(cfg); err != nil {
		logger.FatalWithFields("Server failed", err)
	}
}

func run(cfg *config.Config) error {
	logger.Log.Info("=== Inkvault server starting ===",
		zap.String("environment", cfg.Environment),
		zap.String("db_driver", cfg.DBDriver))

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	tp, err := telemetry.InitTracer(ctx, telemetry.Config{
		ServiceName:  telemetry.ServiceName,
		Environment:  cfg.Environment,
		OTLPEndpoint: cfg.OTelEndpoint,
		Enabled:      cfg.OTelEnabled,
		SamplingRate: cfg.OTelSamplingRate,
	})
	if err != nil {
		return err
	}
	if tp != nil {
		defer func() {
			shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			if err := tp.Shutdown(shutdownCtx); err != nil {
				logger.WarnWithFields("Tracer shutdown failed", err)
			}
		}()
	}

	metrics.Initialize()

	if err := database.Initialize(cfg); err != nil {
		return err
	}
	defer database.Close()
	db := database.DB
	if cfg.OTelEnabled {
		if err := db.Use(telemetry.GORMTracingPlugin()); err != nil {
			return err
		}
	}
	if err := database.Migrate(); err != nil {
		return err
	}

	// Cache: Redis when configured, otherwise an in-process store
	var (
		backend cache.Backend
		counter middleware.WindowCounter
	)
	if cfg.RedisEnabled() {
		rc, err := cache.NewRedisClient(cfg.RedisHost, cfg.RedisPort, cfg.RedisPassword)
		if err != nil {
			return err
		}
		defer rc.Close()
		backend, counter = rc, rc
	} else {
		mem := cache.NewMemoryStore()
		go mem.RunJanitor(ctx, time.Minute)
		backend = mem
		logger.Log.Info("REDIS_HOST not set, using in-process cache")
	}

	users := repository.NewUserRepository(db)
	sessions := repository.NewSessionRepository(db)
	posts := repository.NewPostRepository(db)

	var mailer auth.Mailer = email.LogMailer{}
	if cfg.SESFromEmail != "" {
		ses, err := email.NewEmailService(cfg.AWSRegion, cfg.SESFromEmail, cfg.SESFromName, cfg.AppBaseURL)
		if err != nil {
			return err
		}
		mailer = ses
	} else {
		logger.Log.Warn("SES_FROM_EMAIL not set, codes are written to the log")
	}

	authService := auth.NewService([]byte(cfg.JWTSecret), cfg.SessionTTL, users, sessions, mailer)
	postService := services.NewPostService(posts, cache.NewPostCache(backend, cfg.CacheTTL))
	profileService := services.NewProfileService(repository.NewProfileRepository(db), cache.NewProfileCache(backend, cfg.CacheTTL))
	commentService := services.NewCommentService(posts, repository.NewCommentRepository(db), repository.NewCommentRepliesRepository(db))

	h := handlers.NewHandlers(authService, postService, profileService, commentService, users, repository.NewReportRepository(db))
	h.SetMaxUploadBytes(cfg.MaxUploadBytes)
	if cfg.S3Bucket != "" {
		uploader, err := storage.NewS3Uploader(cfg.AWSRegion, cfg.S3Bucket, cfg.CDNBaseURL, cfg.S3Endpoint)
		if err != nil {
			return err
		}
		if err := uploader.CheckBucketAccess(ctx); err != nil {
			logger.Log.Warn("S3 bucket access failed, uploads may fail", zap.Error(err))
		}
		h.SetUploader(uploader)
	} else {
		logger.Log.Warn("S3_BUCKET not set, uploads are disabled")
	}

	cleanup := tasks.NewCleanupService(sessions, users, cfg.CleanupInterval)
	cleanup.Start()
	defer cleanup.Stop()

	if cfg.IsProduction() {
		gin.SetMode(gin.ReleaseMode)
	}
	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(middleware.RequestIDMiddleware())
	r.Use(middleware.GinLoggerMiddleware())
	r.Use(middleware.MetricsMiddleware())
	if cfg.OTelEnabled {
		r.Use(middleware.TracingMiddleware(telemetry.ServiceName))
	}

	corsConfig := cors.DefaultConfig()
	corsConfig.AllowOrigins = cfg.CORSOrigins
	corsConfig.AllowMethods = []string{"GET", "POST", "PATCH", "PUT", "DELETE", "OPTIONS"}
	corsConfig.AllowHeaders = []string{"Origin", "Content-Length", "Content-Type", "Authorization", "X-Request-ID"}
	corsConfig.ExposeHeaders = []string{"X-Request-ID", "Retry-After"}
	r.Use(cors.New(corsConfig))
	r.Use(gzip.Gzip(gzip.DefaultCompression))

	r.GET("/health", func(c *gin.Context) {
		status := http.StatusOK
		checks := gin.H{"database": "ok", "cache": "ok"}
		if err := database.Health(); err != nil {
			status, checks["database"] = http.StatusServiceUnavailable, "unreachable"
		}
		if err := backend.Ping(c.Request.Context()); err != nil {
			status, checks["cache"] = http.StatusServiceUnavailable, "unreachable"
		}
		c.JSON(status, gin.H{
			"status":    http.StatusText(status),
			"timestamp": time.Now().UTC(),
			"service":   telemetry.ServiceName,
			"checks":    checks,
		})
	})
	r.GET("/metrics", gin.WrapH(promhttp.Handler()))

	api := r.Group("/api", middleware.RateLimit(ctx, counter, middleware.DefaultRateLimitConfig()))
	h.RegisterRoutes(api, handlers.RouteGuards{
		Session:     middleware.RequireSession(authService),
		Admin:       middleware.RequireAdmin(profileService),
		AuthLimit:   middleware.RateLimit(ctx, counter, middleware.AuthRateLimitConfig()),
		UploadLimit: middleware.RateLimit(ctx, counter, middleware.UploadRateLimitConfig()),
	})

	srv := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           r,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Log.Info("Inkvault backend listening", zap.String("port", cfg.Port))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}
	logger.Log.Info("Shutting down server...")

	// Give outstanding requests 30 seconds to complete
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return err
	}
	logger.Log.Info("Server exited")
	return nil
}
