package main

import (
	"context"
	"devlinkr/backend/internal/api/handler"
	"devlinkr/backend/internal/chathub"
	"devlinkr/backend/internal/config"
	"devlinkr/backend/internal/localization"
	"devlinkr/backend/internal/logging"
	"devlinkr/backend/internal/storage"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	"golang.org/x/sync/errgroup"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
)

func setupDependencies(ctx context.Context, cfg *config.Config) (*gorm.DB, *redis.Client, error) {
	// 1. PostgreSQL
	db, err := gorm.Open(postgres.Open(cfg.Database.DSN), &gorm.Config{TranslateError: true})
	if err != nil {
		return nil, nil, fmt.Errorf("connect postgres: %w", err)
	}

	// 2. Redis
	rdb := redis.NewClient(&redis.Options{
		Addr:     cfg.Redis.Addr,
		Password: cfg.Redis.Password,
		DB:       cfg.Redis.DB,
	})
	if err := rdb.Ping(ctx).Err(); err != nil {
		return nil, nil, fmt.Errorf("connect redis: %w", err)
	}

	return db, rdb, nil
}

func main() {
	if err := run(); err != nil {
		slog.Error("devlinkr backend stopped", slog.Any("error", err))
		os.Exit(1)
	}
}

func run() error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	cfg, err := config.Load(slog.Default(), "config")
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("invalid config: %w", err)
	}
	logger := logging.New(cfg.Log.Level, cfg.Log.Format)
	slog.SetDefault(logger)
	logger.Info("starting DevLinkr backend", slog.String("address", cfg.Server.Address))

	// 1. Dependencies
	db, rdb, err := setupDependencies(ctx, cfg)
	if err != nil {
		return err
	}
	defer rdb.Close()

	s := storage.NewStorageService(db, rdb, logger)
	if err := s.Migrate(); err != nil {
		return fmt.Errorf("run migrations: %w", err)
	}
	logger.Info("database and redis connections established, migrations complete")

	localizer, err := localization.NewDefault()
	if err != nil {
		return err
	}

	// 2. Hub and HTTP layer
	hub := chathub.NewManagerService(s, chathub.WithLogger(logger))
	mailer := handler.NewLogMailer(localizer, cfg.Localization.Lang, cfg.OTP.TTL, logger)
	h := handler.NewHandler(hub, s, mailer, handler.Options{
		JWTSecret:      []byte(cfg.Auth.JWTSecret),
		TokenTTL:       cfg.Auth.TokenTTL,
		OTPTTL:         cfg.OTP.TTL,
		OTPLength:      cfg.OTP.Length,
		OTPRequired:    cfg.OTP.Required,
		SendBuffer:     cfg.Realtime.SendBuffer,
		AllowedOrigins: cfg.Server.AllowedOrigins,
	}, logger)

	if cfg.Log.Level != "debug" {
		gin.SetMode(gin.ReleaseMode)
	}
	r := gin.New()
	r.Use(gin.Recovery())
	h.RegisterRoutes(r)

	server := &http.Server{
		Addr:           cfg.Server.Address,
		Handler:        r,
		ReadTimeout:    10 * time.Second,
		WriteTimeout:   10 * time.Second,
		MaxHeaderBytes: 1 << 20,
	}

	// 3. Run everything until a signal or the first failure.
	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		hub.Run(gctx)
		return nil
	})

	g.Go(func() error {
		notifications, closeSub := s.SubscribeNotifications(gctx)
		defer closeSub()
		hub.ListenNotifications(gctx, notifications)
		return nil
	})

	g.Go(func() error {
		logger.Info("http server listening", slog.String("address", server.Addr))
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("http server: %w", err)
		}
		return nil
	})

	g.Go(func() error {
		<-gctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		logger.Info("shutting down")
		return server.Shutdown(shutdownCtx)
	})

	return g.Wait()
}
