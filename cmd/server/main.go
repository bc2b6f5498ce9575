package main

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"os"
	"time"

	gfshutdown "github.com/gelmium/graceful-shutdown"

	"github.com/EgehanKilicarslan/sellerhub/backend-go/internal/api"
	"github.com/EgehanKilicarslan/sellerhub/backend-go/internal/config"
	"github.com/EgehanKilicarslan/sellerhub/backend-go/internal/database"
	"github.com/EgehanKilicarslan/sellerhub/backend-go/internal/database/repository"
	"github.com/EgehanKilicarslan/sellerhub/backend-go/internal/database/service"
	internalgrpc "github.com/EgehanKilicarslan/sellerhub/backend-go/internal/grpc"
	"github.com/EgehanKilicarslan/sellerhub/backend-go/internal/handler"
	"github.com/EgehanKilicarslan/sellerhub/backend-go/internal/logger"
	"github.com/EgehanKilicarslan/sellerhub/backend-go/internal/middleware"
	"github.com/EgehanKilicarslan/sellerhub/backend-go/internal/token"
	"github.com/EgehanKilicarslan/sellerhub/backend-go/internal/worker"
)

func main() {
	// 1. Config
	cfg := config.LoadConfig()

	// 2. Logger
	appLogger := logger.New(cfg)

	appLogger.Info("🚀 [Go] Starting sellerhub API...",
		"environment", cfg.AppEnv,
		"db_driver", cfg.DatabaseDriver,
	)

	// 3. Connect to Database
	db, err := database.ConnectDatabase(cfg, appLogger)
	if err != nil {
		appLogger.Error("❌ Failed to connect to database", "error", err)
		os.Exit(1)
	}

	// 4. Initialize Repositories
	userRepo := repository.NewUserRepository(db)
	productRepo := repository.NewProductRepository(db)

	// 5. Token manager; a missing secret surfaces as 500 on auth routes
	tokenManager := token.NewManager(token.Config{
		Secret: cfg.JWTSecret,
		TTL:    token.TTL,
		Issuer: "sellerhub",
	})
	if !tokenManager.Configured() {
		appLogger.Warn("⚠️ JWT_SECRET is not set, login and product routes will fail with 500")
	}

	// 6. Background tasks
	pool := worker.NewPool(appLogger)

	// 7. Initialize Services
	uploadService, err := service.NewUploadService(productRepo, cfg, appLogger)
	if err != nil {
		appLogger.Error("❌ Failed to prepare upload storage", "error", err)
		os.Exit(1)
	}
	authService := service.NewAuthService(userRepo, tokenManager, appLogger)
	productService := service.NewProductService(productRepo, uploadService, pool, appLogger)

	// 8. Initialize Rate Limiter
	var rateLimiter middleware.RateLimiter
	redisClient, err := database.NewRedisClient(cfg, appLogger)
	if err != nil {
		appLogger.Warn("⚠️ Failed to connect to Redis, using no-op rate limiter", "error", err)
		rateLimiter = middleware.NewNoOpRateLimiter(appLogger)
	} else {
		rateLimiter = middleware.NewRateLimiter(
			redisClient,
			cfg.AuthRateLimit,
			time.Duration(cfg.AuthRateWindow)*time.Second,
			appLogger,
		)
	}

	// 9. Initialize Handlers & Middleware
	authHandler := handler.NewAuthHandler(authService, appLogger)
	productHandler := handler.NewProductHandler(productService, appLogger)
	uploadHandler := handler.NewUploadHandler(uploadService, cfg.MaxUploadSize, appLogger)
	authMiddleware := middleware.NewAuthMiddleware(tokenManager, appLogger)

	r := api.SetupRouter(
		authHandler,
		productHandler,
		uploadHandler,
		authMiddleware,
		middleware.LimitByClientIP(rateLimiter, "auth", appLogger),
		uploadService.Dir(),
		func() error { return database.Ping(db) },
	)

	// 10. Start gRPC health server
	var healthServer *internalgrpc.HealthServer
	if cfg.GrpcPort != "" {
		grpcListener, err := net.Listen("tcp", fmt.Sprintf(":%s", cfg.GrpcPort))
		if err != nil {
			appLogger.Error("❌ Failed to listen for gRPC", "error", err)
			os.Exit(1)
		}

		healthServer = internalgrpc.NewHealthServer(func(ctx context.Context) error {
			return database.Ping(db.WithContext(ctx))
		}, 10*time.Second, appLogger)

		pool.Submit("grpc-health-watch", healthServer.Watch)
		go func() {
			if err := healthServer.Serve(grpcListener); err != nil {
				appLogger.Error("❌ gRPC Server failed", "error", err)
			}
		}()
	}

	// 11. Start HTTP Server
	httpServer := &http.Server{
		Addr:              fmt.Sprintf(":%s", cfg.Port),
		Handler:           r,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		appLogger.Info("🌍 [Go] HTTP Server running on port...", "port", cfg.Port)
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			appLogger.Error("❌ HTTP Server failed to start", "error", err)
			os.Exit(1)
		}
	}()

	// 12. Wait for SIGINT/SIGTERM and release resources
	operations := map[string]gfshutdown.Operation{
		"http-server": func(ctx context.Context) error {
			return httpServer.Shutdown(ctx)
		},
		"worker-pool": func(ctx context.Context) error {
			return pool.Shutdown(ctx)
		},
		"database": func(ctx context.Context) error {
			return database.Close(db)
		},
	}
	if healthServer != nil {
		operations["grpc-server"] = healthServer.Shutdown
	}
	if redisClient != nil {
		operations["redis"] = func(ctx context.Context) error {
			return redisClient.Close()
		}
	}

	wait := gfshutdown.GracefulShutdown(
		context.Background(),
		time.Duration(cfg.ShutdownTimeout)*time.Second,
		operations,
	)

	exitCode := <-wait
	appLogger.Info("👋 [Go] Shutdown complete", "exit_code", exitCode)
	os.Exit(exitCode)
}
