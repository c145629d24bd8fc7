package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"

	"github.com/stworldstudy/auth-service/config"
	"github.com/stworldstudy/auth-service/db"
	"github.com/stworldstudy/auth-service/internal/auth/domain"
	"github.com/stworldstudy/auth-service/internal/auth/handler"
	repo "github.com/stworldstudy/auth-service/internal/auth/repository/postgres"
	"github.com/stworldstudy/auth-service/internal/auth/service"
	"github.com/stworldstudy/auth-service/internal/logger"
	"github.com/stworldstudy/auth-service/internal/mailer"
	"github.com/stworldstudy/auth-service/internal/ratelimit"
)

func main() {
	cfg := config.Load()
	log := logger.New(cfg.Env)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	dbPool, err := db.NewPostgresPool(ctx, cfg.DBURL)
	if err != nil {
		log.Fatal().Err(err).Msg("database unavailable")
	}
	defer dbPool.Close()

	if err := db.Migrate(ctx, dbPool); err != nil {
		log.Fatal().Err(err).Msg("migration failed")
	}

	throttle, redisClient := newThrottle(ctx, cfg, log)
	if redisClient != nil {
		defer redisClient.Close()
	}

	tokenService, err := service.NewTokenService(cfg.JWTSecret, cfg.AccessTokenTTL(), cfg.RefreshTokenTTL())
	if err != nil {
		log.Fatal().Err(err).Msg("token service")
	}

	accountService, err := service.NewAccountService(
		repo.NewPostgresRepository(dbPool),
		repo.NewVerificationRepository(dbPool),
		tokenService,
		newMailer(cfg, log),
		throttle,
		cfg,
		log,
	)
	if err != nil {
		log.Fatal().Err(err).Msg("account service")
	}

	authHandler := handler.NewAuthHandler(accountService, tokenService)

	app := fiber.New(fiber.Config{
		ErrorHandler: handler.ErrorHandler(log),
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 10 * time.Second,
	})
	app.Use(recover.New())
	app.Use(handler.RequestLogger(log))
	handler.RegisterRoutes(app, authHandler)

	go func() {
		log.Info().Str("port", cfg.Port).Msg("starting server")
		if err := app.Listen(":" + cfg.Port); err != nil {
			log.Error().Err(err).Msg("server stopped")
			cancel()
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	select {
	case <-quit:
	case <-ctx.Done():
	}
	log.Info().Msg("shutting down server")

	if err := app.ShutdownWithTimeout(10 * time.Second); err != nil {
		log.Error().Err(err).Msg("server forced to shutdown")
	}
	log.Info().Msg("server exited")
}

// newThrottle uses redis when REDIS_ADDR is set and otherwise allows every
// send.
func newThrottle(ctx context.Context, cfg *config.Config, log zerolog.Logger) (domain.Throttle, *redis.Client) {
	if cfg.RedisAddr == "" {
		log.Warn().Msg("REDIS_ADDR not set, verification emails are not throttled")
		return ratelimit.NoopThrottle{}, nil
	}

	client, err := ratelimit.NewRedisClient(ctx, cfg.RedisAddr, cfg.RedisPassword, cfg.RedisDB)
	if err != nil {
		log.Fatal().Err(err).Msg("redis unavailable")
	}
	return ratelimit.NewRedisThrottle(client, "auth:verification:", cfg.VerificationCooldown()), client
}

// newMailer uses SMTP when SMTP_HOST is set. Outside production a missing
// host falls back to logging the recipient and subject.
func newMailer(cfg *config.Config, log zerolog.Logger) domain.Mailer {
	if cfg.SMTPHost == "" {
		if cfg.IsProduction() {
			log.Fatal().Msg("Missing required config: SMTP_HOST")
		}
		log.Warn().Msg("SMTP_HOST not set, emails are logged instead of sent")
		return mailer.NewLogMailer(log)
	}

	m, err := mailer.NewSMTPMailer(cfg.SMTPHost, cfg.SMTPPort, cfg.SMTPUsername, cfg.SMTPPassword, cfg.SMTPFrom)
	if err != nil {
		log.Fatal().Err(err).Msg("mailer")
	}
	return m
}
