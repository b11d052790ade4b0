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
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	_ "github.com/noah-isme/gym-admin-api/api/swagger"
	"github.com/noah-isme/gym-admin-api/internal/handler"
	"github.com/noah-isme/gym-admin-api/internal/middleware"
	"github.com/noah-isme/gym-admin-api/internal/notification"
	"github.com/noah-isme/gym-admin-api/internal/repository"
	"github.com/noah-isme/gym-admin-api/internal/router"
	"github.com/noah-isme/gym-admin-api/internal/service"
	"github.com/noah-isme/gym-admin-api/pkg/cache"
	"github.com/noah-isme/gym-admin-api/pkg/config"
	"github.com/noah-isme/gym-admin-api/pkg/database"
	"github.com/noah-isme/gym-admin-api/pkg/jobs"
	"github.com/noah-isme/gym-admin-api/pkg/logger"
)

// @title Gym Admin API
// @version 1.0.0
// @description Registration, attendance and help-order management for a gym.
// @BasePath /api/v1
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

	db, err := database.NewPostgres(cfg.Database)
	if err != nil {
		logr.Fatal("failed to connect postgres", zap.Error(err))
	}
	defer db.Close()
	logr.Info("postgres connected", zap.Bool("auto_migrate", cfg.Database.AutoMigrate))

	var redisClient *redis.Client
	if cfg.Redis.Host != "" {
		redisClient, err = cache.NewRedis(cfg.Redis)
		if err != nil {
			logr.Warn("redis unavailable, plan cache disabled", zap.Error(err))
			redisClient = nil
		} else {
			defer redisClient.Close()
		}
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	metrics := service.NewMetricsService()
	validate := validator.New()
	loc := cfg.Location()

	studentRepo := repository.NewStudentRepository(db)
	planRepo := repository.NewPlanRepository(db)
	registrationRepo := repository.NewRegistrationRepository(db)
	checkinRepo := repository.NewCheckinRepository(db)
	helpOrderRepo := repository.NewHelpOrderRepository(db)

	cacheSvc := service.NewCacheService(repository.NewCacheRepository(redisClient, logr), metrics, cfg.Cache.PlanTTL, logr, cfg.Cache.Enabled && redisClient != nil)
	catalog := service.NewPlanCatalog(planRepo, cacheSvc, cfg.Cache.PlanTTL)

	queue, stopQueue, err := buildQueue(cfg, redisClient, metrics, logr)
	if err != nil {
		logr.Fatal("failed to build job queue", zap.Error(err))
	}
	// Runs after srv.Shutdown returns, so jobs enqueued by draining requests still reach a worker.
	defer stopQueue()
	dispatcher := notification.NewDispatcher(queue, metrics, logr)

	studentSvc := service.NewStudentService(studentRepo, validate, logr, cfg.Pagination.PageSize)
	planSvc := service.NewPlanService(planRepo, catalog, validate, logr)
	registrationSvc := service.NewRegistrationService(service.RegistrationServiceParams{
		Registrations: registrationRepo,
		Students:      studentRepo,
		Plans:         catalog,
		Notifier:      dispatcher,
		Metrics:       metrics,
		Validator:     validate,
		Logger:        logr,
		Config:        service.RegistrationServiceConfig{Location: loc, PageSize: cfg.Pagination.PageSize},
	})
	checkinSvc := service.NewCheckinService(checkinRepo, studentRepo, registrationRepo, metrics, logr, service.CheckinServiceConfig{
		Location:    loc,
		WeeklyLimit: cfg.Checkins.WeeklyLimit,
		PageSize:    cfg.Pagination.PageSize,
	})
	helpOrderSvc := service.NewHelpOrderService(helpOrderRepo, studentRepo, metrics, validate, logr, cfg.Pagination.PageSize)
	authSvc := service.NewAuthService(logr, service.AuthConfig{
		AccessTokenSecret: cfg.JWT.Secret,
		Issuer:            cfg.JWT.Issuer,
		Audience:          cfg.JWT.Audience,
	})

	checks := map[string]handler.ReadinessCheck{"postgres": db.PingContext}
	if redisClient != nil {
		checks["redis"] = func(ctx context.Context) error { return redisClient.Ping(ctx).Err() }
	}

	engine := router.New(router.Dependencies{
		Config:      cfg,
		Logger:      logr,
		Auth:        authSvc,
		Metrics:     metrics,
		RateLimiter: middleware.NewRateLimiter(cfg.RateLimit.PerMinute, cfg.RateLimit.Burst),
	}, router.Handlers{
		Students:      handler.NewStudentHandler(studentSvc),
		Plans:         handler.NewPlanHandler(planSvc),
		Registrations: handler.NewRegistrationHandler(registrationSvc),
		Checkins:      handler.NewCheckinHandler(checkinSvc),
		HelpOrders:    handler.NewHelpOrderHandler(helpOrderSvc),
		Metrics:       handler.NewMetricsHandler(metrics, checks),
	})

	srv := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.Port),
		Handler:           engine,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		logr.Sugar().Infow("server starting", "addr", srv.Addr, "env", cfg.Env, "timezone", loc.String(), "queue", cfg.Queue.Backend)
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

type jobPublisher interface {
	Publish(ctx context.Context, job jobs.Job) error
}

// buildQueue returns the publisher registrations enqueue to. The memory backend
// also runs the mail consumers in this process; the redis backend leaves that to
// cmd/worker. The consumers are not tied to the signal context: only the returned
// stop func ends them.
func buildQueue(cfg *config.Config, client *redis.Client, metrics *service.MetricsService, logr *zap.Logger) (jobPublisher, func(), error) {
	queueCfg := jobs.QueueConfig{
		Workers:    cfg.Queue.Workers,
		BufferSize: cfg.Queue.BufferSize,
		MaxRetries: cfg.Queue.MaxRetries,
		RetryDelay: cfg.Queue.RetryDelay,
		Logger:     logr,
	}

	if cfg.Queue.Backend == config.QueueBackendRedis {
		if client == nil {
			return nil, nil, errors.New("QUEUE_BACKEND=redis requires a reachable redis")
		}
		return jobs.NewRedisQueue(client, cfg.Queue.RedisKey, queueCfg), func() {}, nil
	}

	mailHandler, err := notification.NewRegistrationMailHandler(notification.NewLogMailer(logr), notification.MailConfig{
		FromName:      cfg.Mail.FromName,
		FromAddress:   cfg.Mail.FromAddress,
		SubjectPrefix: cfg.Mail.SubjectPrefix,
		Location:      cfg.Location(),
	}, metrics, logr)
	if err != nil {
		return nil, nil, err
	}
	routes := map[string]jobs.Handler{notification.JobRegistrationMail: mailHandler.Handle}
	queue := jobs.NewQueue("notifications", notification.Router(routes, metrics, logr), queueCfg)
	queue.Start(context.Background())
	return queue, queue.Stop, nil
}
