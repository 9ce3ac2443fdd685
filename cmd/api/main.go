package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/nats-io/nats.go"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"

	"github.com/noah-isme/kegiatan-api/internal/config"
	"github.com/noah-isme/kegiatan-api/internal/database"
	"github.com/noah-isme/kegiatan-api/internal/handler"
	"github.com/noah-isme/kegiatan-api/internal/middleware"
	"github.com/noah-isme/kegiatan-api/internal/repository"
	"github.com/noah-isme/kegiatan-api/internal/router"
	"github.com/noah-isme/kegiatan-api/internal/service"
	"github.com/noah-isme/kegiatan-api/internal/utils"
	"github.com/noah-isme/kegiatan-api/pkg/password"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("failed to load configuration: %v", err)
	}

	logger := zerolog.New(os.Stdout).With().Timestamp().Logger()
	if cfg.IsDevelopment() {
		logger = zerolog.New(zerolog.ConsoleWriter{Out: os.Stdout, TimeFormat: time.RFC3339}).With().Timestamp().Logger()
	}

	rootCtx, cancelRoot := context.WithCancel(context.Background())
	defer cancelRoot()

	db, err := database.Connect(rootCtx, cfg.Database())
	if err != nil {
		log.Fatalf("failed to connect to database: %v", err)
	}

	if err := database.EnsureSchema(rootCtx, db); err != nil {
		log.Fatalf("failed to initialise schema: %v", err)
	}

	var redisClient *redis.Client
	if cfg.RedisURL != "" {
		redisClient, err = database.ConnectRedis(rootCtx, cfg.RedisURL)
		if err != nil {
			logger.Warn().Err(err).Msg("redis unavailable, activity list cache disabled")
			redisClient = nil
		} else {
			defer redisClient.Close()
		}
	}

	var natsConn *nats.Conn
	if cfg.NATSURL != "" {
		natsConn, err = database.ConnectNATS(cfg.NATSURL, cfg.AppName, logger)
		if err != nil {
			logger.Warn().Err(err).Msg("nats unavailable, change feed limited to this instance")
			natsConn = nil
		} else {
			defer natsConn.Close()
		}
	}

	validate := utils.NewValidator()
	hasher := password.NewBcryptHasher(cfg.BcryptCost)

	transactor := repository.NewTransactor(db)
	roleRepo := repository.NewRoleRepository(db)
	userRepo := repository.NewUserRepository(db)
	activityRepo := repository.NewActivityRepository(db)
	changeLogRepo := repository.NewActivityChangeLogRepository(db)

	feed := service.NewChangeFeed(natsConn, cfg.NATSSubject, logger)
	feed.Start(rootCtx)

	activityService := service.NewActivityService(service.ActivityServiceDeps{
		Transactor: transactor,
		Activities: activityRepo,
		Users:      userRepo,
		ChangeLogs: changeLogRepo,
		Changes:    service.NewChangeLogger(changeLogRepo),
		Validator:  validate,
		Cache:      redisClient,
		CacheTTL:   cfg.CacheTTL,
		Feed:       feed,
	}, logger)
	userService := service.NewUserService(service.UserServiceDeps{
		Transactor: transactor,
		Users:      userRepo,
		Roles:      roleRepo,
		Hasher:     hasher,
		Validator:  validate,
		Cache:      redisClient,
	}, logger)
	authService := service.NewAuthService(userService, cfg.JWTSecret, cfg.JWTTTL, validate, logger)
	seedService := service.NewSeedService(service.SeedServiceDeps{
		Transactor:      transactor,
		Roles:           roleRepo,
		Users:           userRepo,
		Activities:      activityRepo,
		ActivityService: activityService,
		Hasher:          hasher,
		Cache:           redisClient,
	}, logger)

	if cfg.SeedEnabled {
		report := seedService.SeedIfEmpty(rootCtx)
		event := logger.Info()
		if err := report.Err(); err != nil {
			event = logger.Warn().Err(err)
		}
		event.Int("roles", report.Roles).
			Int("users", report.Users).
			Int("activities", report.Activities).
			Msg("seed finished")
	}

	app := fiber.New(fiber.Config{
		AppName:      cfg.AppName,
		ServerHeader: cfg.AppName,
	})

	middleware.Register(app, middleware.Config{Logger: &logger, AllowOrigins: cfg.AllowOrigins})
	router.Register(app, cfg, router.Dependencies{
		ActivityHandler:    handler.NewActivityHandler(activityService, logger),
		ActivityLogHandler: handler.NewActivityLogHandler(activityService, feed, logger),
		AuthHandler:        handler.NewAuthHandler(authService, userService, logger),
		UserHandler:        handler.NewUserHandler(userService, logger),
		SeedHandler:        handler.NewSeedHandler(seedService, cfg.SeedToken, logger),
		JWTMiddleware:      middleware.JWTProtected(cfg.JWTSecret),
		LoginLimiter:       middleware.RateLimit("login", cfg.LoginRateLimit, cfg.LoginRateLimitEvery),
		HealthPing: func(ctx context.Context) error {
			sqlDB, err := db.DB()
			if err != nil {
				return err
			}
			return sqlDB.PingContext(ctx)
		},
	})

	go func() {
		if err := app.Listen(cfg.HTTPAddress()); err != nil {
			log.Fatalf("failed to start server: %v", err)
		}
	}()

	waitForShutdown(app, cancelRoot)
}

func waitForShutdown(app *fiber.App, cancel context.CancelFunc) {
	shutdownCtx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	<-shutdownCtx.Done()
	cancel()

	ctx, cancelTimeout := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancelTimeout()

	if err := app.ShutdownWithContext(ctx); err != nil {
		log.Printf("graceful shutdown failed: %v", err)
	}

	log.Println("server stopped")
}
