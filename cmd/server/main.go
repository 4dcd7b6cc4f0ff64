// Package main runs the outreach HTTP server with the in-process
// scheduled-email dispatcher and graceful shutdown.
package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/ib-outreach/backend/config"
	"github.com/ib-outreach/backend/internal/auth"
	"github.com/ib-outreach/backend/internal/companies"
	"github.com/ib-outreach/backend/internal/contacts"
	"github.com/ib-outreach/backend/internal/emails"
	"github.com/ib-outreach/backend/internal/gmailauth"
	"github.com/ib-outreach/backend/internal/mail"
	"github.com/ib-outreach/backend/internal/middleware"
	"github.com/ib-outreach/backend/internal/profile"
	"github.com/ib-outreach/backend/internal/templates"
	"github.com/ib-outreach/backend/pkg/database"
	"github.com/ib-outreach/backend/pkg/metrics"
	"github.com/ib-outreach/backend/pkg/redis"
	"github.com/ib-outreach/backend/pkg/response"
	"github.com/ib-outreach/backend/pkg/storage"
)

func main() {
	logger := newLogger()
	defer logger.Sync()

	cfg, err := config.Load()
	if err != nil {
		logger.Fatal("load config", zap.Error(err))
	}

	ctx := context.Background()
	pool, err := database.NewPostgresPool(ctx, cfg.Database.DSN(), logger)
	if err != nil {
		logger.Fatal("database", zap.Error(err))
	}
	defer pool.Close()

	if err := database.Migrate(ctx, pool); err != nil {
		logger.Fatal("migrate", zap.Error(err))
	}

	rdb, err := redis.NewClient(ctx, cfg.Redis.Addr, cfg.Redis.Password, cfg.Redis.DB, logger)
	if err != nil {
		logger.Fatal("redis", zap.Error(err))
	}
	defer rdb.Close()

	var s3Client *storage.S3
	if cfg.AWS.Region != "" && cfg.AWS.ResumesBucket != "" {
		s3Cfg := storage.S3Config{
			Region:          cfg.AWS.Region,
			AccessKeyID:     cfg.AWS.AccessKeyID,
			SecretAccessKey: cfg.AWS.SecretAccessKey,
			ResumesBucket:   cfg.AWS.ResumesBucket,
		}
		s3Client, err = storage.NewS3(ctx, s3Cfg, logger)
		if err != nil {
			logger.Warn("s3 disabled", zap.Error(err))
		}
	}

	metrics.Init()

	jwtService := auth.NewJWTService(cfg.JWT.Secret, cfg.JWT.ExpireHours)

	// Auth
	authRepo := auth.NewRepository(pool)
	authHandler := auth.NewHandler(authRepo, jwtService, logger)

	// Gmail connect
	oauthCfg := gmailauth.NewOAuthConfig(cfg.Google)
	gmailRepo := gmailauth.NewRepository(pool)
	tokenProvider := gmailauth.NewTokenProvider(oauthCfg, gmailRepo, rdb, logger)
	gmailHandler := gmailauth.NewHandler(oauthCfg, gmailRepo, tokenProvider, logger)

	// Templates
	templateRepo := templates.NewRepository(pool)
	templateHandler := templates.NewHandler(templateRepo, logger)

	// Companies and contacts
	companyRepo := companies.NewRepository(pool)
	companyHandler := companies.NewHandler(companyRepo)
	contactRepo := contacts.NewRepository(pool)
	contactHandler := contacts.NewHandler(contactRepo)

	// Profile (signature + resume)
	profileRepo := profile.NewRepository(pool)
	profileSource := profile.NewSource(profileRepo, s3Client)
	profileHandler := profile.NewHandler(profileRepo, s3Client, logger)

	// Emails
	gateway := mail.NewGmailGateway(logger)
	emailRepo := emails.NewRepository(pool, rdb)
	emailHandler := emails.NewHandler(emailRepo, gateway, tokenProvider, profileSource, contactRepo, logger)
	dispatcher := emails.NewDispatcher(emailRepo, gateway, tokenProvider, profileSource, contactRepo, cfg.Dispatch, logger)

	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(middleware.CORS(cfg.Server.CORSAllowedOrigins))
	router.Use(middleware.Logger(logger))

	router.GET("/health", func(c *gin.Context) { response.OK(c, gin.H{"status": "ok"}) })
	router.GET("/metrics", gin.WrapH(promhttp.Handler()))

	// Auth (public)
	authGroup := router.Group("/api/auth")
	{
		authGroup.POST("/signup", authHandler.Signup)
		authGroup.POST("/login", authHandler.Login)
	}

	// Gmail OAuth callback (public; Google redirects here)
	router.GET("/api/gmail/callback", gmailHandler.Callback)

	// Protected API (JWT required)
	api := router.Group("/api")
	api.Use(middleware.JWT(jwtService))
	{
		api.GET("/auth/me", authHandler.Me)

		// Gmail connect
		api.GET("/gmail/auth-url", gmailHandler.AuthURL)
		api.GET("/gmail/status", gmailHandler.Status)
		api.POST("/gmail/disconnect", gmailHandler.Disconnect)

		// Templates
		api.POST("/templates", templateHandler.Create)
		api.GET("/templates", templateHandler.List)
		api.GET("/templates/:id", templateHandler.Get)
		api.PUT("/templates/:id", templateHandler.Update)
		api.DELETE("/templates/:id", templateHandler.Delete)

		// Companies
		api.POST("/companies", companyHandler.Create)
		api.GET("/companies", companyHandler.List)
		api.GET("/companies/:id", companyHandler.GetByID)
		api.PUT("/companies/:id", companyHandler.Update)
		api.DELETE("/companies/:id", companyHandler.Delete)

		// Contacts and interactions
		api.POST("/contacts", contactHandler.Create)
		api.GET("/contacts", contactHandler.List)
		api.GET("/contacts/:id", contactHandler.GetByID)
		api.PUT("/contacts/:id", contactHandler.Update)
		api.DELETE("/contacts/:id", contactHandler.Delete)
		api.GET("/contacts/:id/interactions", contactHandler.ListInteractions)
		api.POST("/contacts/:id/interactions", contactHandler.AddInteraction)

		// Emails
		api.POST("/emails/send", emailHandler.Send)
		api.GET("/emails/sent", emailHandler.ListSent)
		api.GET("/emails/stats", emailHandler.GetStats)
		api.POST("/emails/schedule", emailHandler.Schedule)
		api.GET("/emails/scheduled", emailHandler.ListScheduled)
		api.DELETE("/emails/scheduled/:id", emailHandler.Cancel)

		// Profile
		api.GET("/profile/signature", profileHandler.GetSignature)
		api.PUT("/profile/signature", profileHandler.UpdateSignature)
		api.POST("/profile/resume", profileHandler.UploadResume)
		api.GET("/profile/resume/info", profileHandler.GetResumeInfo)
		api.GET("/profile/resume/download", profileHandler.DownloadResume)
		api.DELETE("/profile/resume", profileHandler.DeleteResume)
	}

	srv := &http.Server{
		Addr:         ":" + cfg.Server.Port,
		Handler:      router,
		ReadTimeout:  time.Duration(cfg.Server.ReadTimeout) * time.Second,
		WriteTimeout: time.Duration(cfg.Server.WriteTimeout) * time.Second,
	}

	// In-process dispatcher. Run cmd/worker instead to dispatch from a
	// separate process; the claim update keeps both arrangements safe.
	dispatchCtx, dispatchCancel := context.WithCancel(context.Background())
	defer dispatchCancel()
	go dispatcher.Run(dispatchCtx)

	go func() {
		logger.Info("server listening", zap.String("port", cfg.Server.Port))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Fatal("server", zap.Error(err))
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	dispatchCancel()
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("server shutdown", zap.Error(err))
	}
	logger.Info("server stopped")
}

func newLogger() *zap.Logger {
	config := zap.NewProductionConfig()
	config.EncoderConfig.TimeKey = "timestamp"
	config.EncoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder
	logger, _ := config.Build()
	return logger
}
