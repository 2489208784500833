package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/Baaaki/message-board/internal/broker"
	"github.com/Baaaki/message-board/internal/config"
	"github.com/Baaaki/message-board/internal/database"
	"github.com/Baaaki/message-board/internal/handler"
	"github.com/Baaaki/message-board/internal/middleware"
	"github.com/Baaaki/message-board/internal/repository"
	"github.com/Baaaki/message-board/internal/server"
	"github.com/Baaaki/message-board/internal/service"
	"github.com/Baaaki/message-board/pkg/logger"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}

	if err := logger.Init(!cfg.IsProduction()); err != nil {
		fmt.Fprintln(os.Stderr, "Failed to initialize logger:", err)
		os.Exit(1)
	}
	defer logger.Sync()

	logger.Log.Info("Config loaded successfully", zap.String("environment", cfg.Environment))

	if err := run(cfg); err != nil {
		logger.Log.Error("Server stopped with error", zap.Error(err))
		logger.Sync()
		os.Exit(1)
	}
}

func run(cfg *config.Config) error {
	if cfg.IsProduction() {
		gin.SetMode(gin.ReleaseMode)
	}

	db, err := database.Connect(cfg)
	if err != nil {
		if database.IsUnavailable(err) {
			logger.Log.Error("Database is not reachable, check that PostgreSQL is running and DB_* settings are correct")
		}
		return fmt.Errorf("connect database: %w", err)
	}

	if err := database.Migrate(db); err != nil {
		_ = database.Close(db)
		return err
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// Redis is optional: without it there is no change feed and no rate limiting
	var (
		events      broker.Publisher
		wsHandler   *handler.WebSocketHandler
		rateLimiter *middleware.RateLimiter
		redisBroker *broker.RedisMessageBroker
	)
	if cfg.RedisEnabled() {
		redisBroker, err = broker.NewRedisMessageBroker(ctx, cfg.RedisURL)
		if err != nil {
			_ = database.Close(db)
			return fmt.Errorf("connect redis: %w", err)
		}
		logger.Log.Info("Redis broker connected")

		events = redisBroker
		wsHandler = handler.NewWebSocketHandler(redisBroker, cfg.CORSOrigins)
		rateLimiter = middleware.NewRateLimiter(redisBroker.Client(), middleware.RateLimiterConfig{
			MaxRequests: cfg.RateLimitMaxRequests,
			Window:      cfg.RateLimitWindow,
		})
	} else {
		logger.Log.Warn("REDIS_URL not set, change feed and rate limiting are disabled")
	}

	messageRepo := repository.NewMessageRepository(db)
	messageService := service.NewMessageService(messageRepo, events)

	router := server.NewRouter(server.Deps{
		IsProduction: cfg.IsProduction(),
		CORSOrigins:  cfg.CORSOrigins,
		Messages:     handler.NewMessageHandler(messageService),
		General:      handler.NewGeneralHandler(),
		WebSocket:    wsHandler,
		RateLimiter:  rateLimiter,
	})

	srv := server.New(cfg.Addr(), router, cfg.ShutdownTimeout)
	srv.OnShutdownFunc("database", func() error { return database.Close(db) })
	if redisBroker != nil {
		srv.OnShutdown("redis broker", redisBroker)
	}

	logger.Log.Info("Server starting",
		zap.Int("port", cfg.ServerPort),
		zap.String("environment", cfg.Environment),
		zap.String("url", fmt.Sprintf("http://localhost:%d", cfg.ServerPort)),
		zap.String("api", fmt.Sprintf("http://localhost:%d/api", cfg.ServerPort)),
	)

	err = srv.Run(ctx)
	if errors.Is(err, server.ErrShutdownTimeout) {
		logger.Log.Error("Could not finish in-flight requests in time, forcing exit",
			zap.Duration("timeout", cfg.ShutdownTimeout),
		)
		return err
	}
	if err != nil {
		return err
	}

	logger.Log.Info("Server stopped")
	return nil
}
