package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	dbadapter "linkup/internal/adapters/database"
	"linkup/internal/adapters/httpapi"
	"linkup/internal/adapters/mail"
	redisadapter "linkup/internal/adapters/redis"
	"linkup/internal/config"
	accountapp "linkup/internal/core/account/service"
	connectionapp "linkup/internal/core/connection/service"
	fanoutqueueapp "linkup/internal/core/fanoutqueue/service"
	followerapp "linkup/internal/core/follower/service"
	postapp "linkup/internal/core/post/service"
	profileapp "linkup/internal/core/profile/service"
	timelineapp "linkup/internal/core/timeline/service"
	userapp "linkup/internal/core/user/service"
	userPort "linkup/internal/ports/user"
	"linkup/internal/retry"
	"linkup/internal/workers"

	"github.com/gin-gonic/gin"
	"github.com/go-redis/redis/v8"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

func main() {
	settings, err := config.Load()
	if err != nil {
		// no logger yet
		panic(err)
	}

	logger, err := config.InitLogger(settings.Env)
	if err != nil {
		panic(err)
	}
	defer func() { _ = logger.Sync() }()
	zap.ReplaceGlobals(logger)

	db, err := config.InitDB(settings, logger)
	if err != nil {
		logger.Fatal("Database init failed", zap.Error(err))
	}

	if err := dbadapter.AutoMigrate(db); err != nil {
		logger.Fatal("Error during migrations", zap.Error(err))
	}
	logger.Info("✅ Database migrations completed")

	// `app migrate` only applies the schema.
	if len(os.Args) > 1 && os.Args[1] == "migrate" {
		closeDB(db, logger)
		return
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	redisClient, err := config.InitRedis(ctx, settings, logger)
	if err != nil {
		logger.Fatal("Redis init failed", zap.Error(err))
	}

	// بستن منابع بعد از اتمام کار سرور
	defer closeResources(db, redisClient, logger)

	if settings.Env == "production" {
		gin.SetMode(gin.ReleaseMode)
	}

	unitOfWork := dbadapter.NewUnitOfWork(db)
	fanoutRedis := redisadapter.NewFanoutRepositoryRedis(redisClient, logger)
	timelineRepo := redisadapter.NewTimelineRepositoryRedis(redisClient)

	var mailer userPort.Mailer
	if settings.SMTPHost != "" {
		mailer = mail.NewSMTPMailer(settings.SMTPHost, settings.SMTPPort, settings.SMTPUsername, settings.SMTPPassword, settings.MailFrom, logger)
	} else {
		logger.Warn("SMTP_HOST is not set, reset codes will only be logged")
		mailer = mail.NewLogMailer(logger)
	}

	deletePolicy := retry.DefaultPolicy(dbadapter.IsTransient)
	deletePolicy.MaxAttempts = settings.DeleteMaxAttempts
	deletePolicy.BaseDelay = settings.DeleteBaseDelay

	repos := unitOfWork.Repos()
	userSvc := userapp.NewUserService(unitOfWork, mailer, []byte(settings.JWTSecret), settings.JWTTTL, logger)
	profileSvc := profileapp.NewProfileService(repos.Profiles, logger)
	postSvc := postapp.NewPostService(unitOfWork, fanoutRedis, logger)
	followerSvc := followerapp.NewFollowerService(repos.Followers, repos.Profiles, logger)
	connectionSvc := connectionapp.NewConnectionService(unitOfWork, dbadapter.IsDuplicateKey, logger)
	accountSvc := accountapp.NewDeletionService(unitOfWork, timelineRepo, deletePolicy, logger)
	timelineSvc := timelineapp.NewTimelineService(timelineRepo, postSvc, logger)
	fanoutSvc := fanoutqueueapp.NewFanoutService(unitOfWork, fanoutRedis, settings.BatchSize, logger)

	r := httpapi.SetupRoutes(ctx, httpapi.UseCases{
		User:       userSvc,
		Role:       userSvc,
		Profile:    profileSvc,
		Post:       postSvc,
		Follower:   followerSvc,
		Connection: connectionSvc,
		Account:    accountSvc,
		Timeline:   timelineSvc,
	}, httpapi.Options{
		Logger:             logger,
		RateLimitPerMinute: settings.RateLimitPerMinute,
		RateLimitBurst:     settings.RateLimitBurst,
	})

	fanoutWorker := workers.NewFanoutWorker(fanoutSvc, settings.FanoutInterval, logger)
	workerDone := make(chan struct{})
	go func() {
		defer close(workerDone)
		fanoutWorker.Run(ctx)
	}()

	srv := &http.Server{
		Addr:              ":" + settings.AppPort,
		Handler:           r,
		ReadHeaderTimeout: 10 * time.Second,
	}
	go func() {
		logger.Info("App is running...", zap.String("addr", srv.Addr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("Server failed", zap.Error(err))
			stop()
		}
	}()

	<-ctx.Done()
	logger.Info("Shutting down...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("Server shutdown failed", zap.Error(err))
	}
	<-workerDone
}

// closeResources بستن اتصالات به Redis و دیتابیس
func closeResources(db *gorm.DB, redisClient *redis.Client, logger *zap.Logger) {
	if err := redisClient.Close(); err != nil {
		logger.Error("Error closing Redis connection", zap.Error(err))
	}
	closeDB(db, logger)
}

func closeDB(db *gorm.DB, logger *zap.Logger) {
	sqlDB, err := db.DB()
	if err != nil {
		logger.Error("Error getting raw DB", zap.Error(err))
		return
	}
	if err := sqlDB.Close(); err != nil {
		logger.Error("Error closing database connection", zap.Error(err))
	}
}
