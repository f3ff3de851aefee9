package main

import (
	"context"
	"os/signal"
	"syscall"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
	"go.mongodb.org/mongo-driver/v2/mongo"

	"nextlevel/api/internal/cache"
	"nextlevel/api/internal/config"
	"nextlevel/api/internal/database"
	"nextlevel/api/internal/handlers"
	"nextlevel/api/internal/jobs"
	"nextlevel/api/internal/log"
	"nextlevel/api/internal/mail"
	"nextlevel/api/internal/notify"
	"nextlevel/api/internal/repository"
	"nextlevel/api/internal/server"
	"nextlevel/api/internal/service"
	"nextlevel/api/internal/storage"
	"nextlevel/api/internal/webhook"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		panic(err)
	}

	logger := log.New(cfg.Environment)

	ctx := context.Background()

	mongoClient, db, err := database.Connect(ctx, cfg.Mongo)
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to connect mongo")
	}
	if err := database.EnsureIndexes(ctx, db); err != nil {
		logger.Fatal().Err(err).Msg("failed to ensure indexes")
	}

	redisClient, err := cache.NewRedisClient(ctx, cfg.Redis)
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to connect redis")
	}

	objectStore, err := storage.NewObjectStore(cfg.Storage)
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to init object store")
	}
	if err := objectStore.EnsureBucket(ctx); err != nil {
		logger.Warn().Err(err).Msg("ensure bucket failed")
	}

	mailer, err := mail.NewMailer(cfg.Email)
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to init mailer")
	}

	webhookClient := webhook.NewClient(5 * time.Second)
	notifier := notify.NewOneSignal(webhookClient, cfg.OneSignal, logger)

	userRepo := repository.NewUserRepository(db)
	sessionRepo := repository.NewSessionRepository(db)
	otpRepo := repository.NewOTPRepository(db)

	appCache := cache.New(redisClient)
	authService := service.NewAuthService(userRepo, sessionRepo, cfg, logger)
	otpService := service.NewOTPService(otpRepo, mailer, appCache, cfg.OTP, logger)
	uploadService := service.NewUploadService(objectStore, userRepo, logger)

	handlerSet := handlers.NewHandlerSet(handlers.Deps{
		Log:    logger,
		Cfg:    cfg,
		Auth:   authService,
		OTP:    otpService,
		Upload: uploadService,
		Users:  userRepo,
		Mailer: mailer,
		Push:   notifier,
		Mongo:  mongoClient,
		Cache:  redisClient,
	})
	httpServer := server.NewHTTPServer(cfg, logger, handlerSet)

	scheduler := jobs.NewScheduler(sessionRepo, otpRepo, cfg.Security.SessionRetention, logger)
	if err := scheduler.Start(); err != nil {
		logger.Error().Err(err).Msg("scheduler start failed")
	}

	go func() {
		if err := httpServer.Start(); err != nil {
			logger.Fatal().Err(err).Msg("http server failed")
		}
	}()

	waitForShutdown(logger, httpServer, scheduler, mongoClient, redisClient)
}

func waitForShutdown(logger zerolog.Logger, srv *server.HTTPServer, scheduler *jobs.Scheduler, mongoClient *mongo.Client, redisClient *redis.Client) {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	<-ctx.Done()
	logger.Info().Msg("shutdown signal received")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error().Err(err).Msg("graceful shutdown failed")
		if err := srv.Shutdown(context.Background()); err != nil {
			logger.Error().Err(err).Msg("forced shutdown failed")
		}
	}

	scheduler.Stop()

	if err := mongoClient.Disconnect(context.Background()); err != nil {
		logger.Error().Err(err).Msg("mongo disconnect error")
	}
	if err := redisClient.Close(); err != nil {
		logger.Error().Err(err).Msg("redis close error")
	}

	logger.Info().Msg("server exited cleanly")
}
