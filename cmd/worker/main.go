package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"

	"go.uber.org/zap"

	"github.com/noah-isme/gym-admin-api/internal/notification"
	"github.com/noah-isme/gym-admin-api/internal/service"
	"github.com/noah-isme/gym-admin-api/pkg/cache"
	"github.com/noah-isme/gym-admin-api/pkg/config"
	"github.com/noah-isme/gym-admin-api/pkg/jobs"
	"github.com/noah-isme/gym-admin-api/pkg/logger"
)

// worker consumes notification jobs published to Redis by the API.
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

	client, err := cache.NewRedis(cfg.Redis)
	if err != nil {
		logr.Fatal("failed to connect redis", zap.Error(err))
	}
	defer client.Close()

	metrics := service.NewMetricsService()
	mailHandler, err := notification.NewRegistrationMailHandler(notification.NewLogMailer(logr), notification.MailConfig{
		FromName:      cfg.Mail.FromName,
		FromAddress:   cfg.Mail.FromAddress,
		SubjectPrefix: cfg.Mail.SubjectPrefix,
		Location:      cfg.Location(),
	}, metrics, logr)
	if err != nil {
		logr.Fatal("failed to build mail handler", zap.Error(err))
	}

	handler := notification.Router(map[string]jobs.Handler{
		notification.JobRegistrationMail: mailHandler.Handle,
	}, metrics, logr)

	queue := jobs.NewRedisQueue(client, cfg.Queue.RedisKey, jobs.QueueConfig{
		MaxRetries: cfg.Queue.MaxRetries,
		RetryDelay: cfg.Queue.RetryDelay,
		Logger:     logr,
	})

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	logr.Info("worker started", zap.String("queue", cfg.Queue.RedisKey))
	if err := queue.Consume(ctx, handler); err != nil {
		logr.Error("worker stopped with error", zap.Error(err))
	}
	logr.Info("worker stopped")
}
