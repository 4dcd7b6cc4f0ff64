// Package main runs the scheduled-email dispatcher as a standalone process.
package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/ib-outreach/backend/config"
	"github.com/ib-outreach/backend/internal/contacts"
	"github.com/ib-outreach/backend/internal/emails"
	"github.com/ib-outreach/backend/internal/gmailauth"
	"github.com/ib-outreach/backend/internal/mail"
	"github.com/ib-outreach/backend/internal/profile"
	"github.com/ib-outreach/backend/pkg/database"
	"github.com/ib-outreach/backend/pkg/metrics"
	"github.com/ib-outreach/backend/pkg/redis"
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

	oauthCfg := gmailauth.NewOAuthConfig(cfg.Google)
	gmailRepo := gmailauth.NewRepository(pool)
	tokenProvider := gmailauth.NewTokenProvider(oauthCfg, gmailRepo, rdb, logger)

	profileRepo := profile.NewRepository(pool)
	profileSource := profile.NewSource(profileRepo, s3Client)
	contactRepo := contacts.NewRepository(pool)

	gateway := mail.NewGmailGateway(logger)
	emailRepo := emails.NewRepository(pool, rdb)
	dispatcher := emails.NewDispatcher(emailRepo, gateway, tokenProvider, profileSource, contactRepo, cfg.Dispatch, logger)

	dispatchCtx, cancel := context.WithCancel(context.Background())
	defer cancel()

	go dispatcher.Run(dispatchCtx)
	logger.Info("worker started")

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	cancel()
	time.Sleep(2 * time.Second)
	logger.Info("worker stopped")
}

func newLogger() *zap.Logger {
	config := zap.NewProductionConfig()
	config.EncoderConfig.TimeKey = "timestamp"
	config.EncoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder
	logger, _ := config.Build()
	return logger
}
