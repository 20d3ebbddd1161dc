// File: app/app.go
package app

import (
	"context"
	"go-dating-api/config"
	"go-dating-api/db"
	"go-dating-api/logger"
	"go-dating-api/repository"
	"go-dating-api/router"
	"go-dating-api/service"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"
)

func Run() {
	logger.Init()
	logger.Log.Info("Logger initialized")

	cfg, err := config.Load(".")
	if err != nil {
		logger.Log.Fatalf("Error loading configuration: %v", err)
	}
	logger.Log.Info("Configuration loaded successfully")

	database, err := db.Connect(cfg)
	if err != nil {
		logger.Log.Fatalf("Error connecting to the database: %v", err)
	}
	defer database.Close()

	if err := db.RunMigrations(cfg, "file://db/migrations"); err != nil {
		logger.Log.Fatalf("Error running migrations: %v", err)
	}

	redisClient, err := db.ConnectRedis(cfg)
	if err != nil {
		logger.Log.Fatalf("Error connecting to redis: %v", err)
	}
	defer redisClient.Close()

	// --- Wiring All Layers Together ---
	userRepo := repository.NewUserRepository(database)
	tokenStore := service.NewRedisTokenStore(redisClient)
	sessionService := service.NewSessionService(tokenStore, userRepo, service.SessionConfig{
		SecretKey:           []byte(cfg.JWT.SecretKey),
		Issuer:              cfg.JWT.Issuer,
		AccessTTL:           time.Duration(cfg.JWT.AccessTTLSeconds) * time.Second,
		RefreshTTL:          time.Duration(cfg.JWT.RefreshTTLSeconds) * time.Second,
		BcryptCost:          cfg.Auth.BcryptCost,
		MaxConcurrentHashes: cfg.Auth.MaxConcurrentHashes,
	})

	r := router.NewRouter(sessionService)

	// --- Start the Server with Graceful Shutdown ---
	port := cfg.Server.Port
	srv := &http.Server{
		Addr:    ":" + port,
		Handler: r,
	}

	go func() {
		logger.Log.Infof("Server starting on port :%s", port)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Log.Fatalf("Failed to start server: %v", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Log.Warn("Shutdown signal received. Starting graceful shutdown...")

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		logger.Log.Fatalf("Server forced to shutdown: %v", err)
	}

	logger.Log.Info("Server exited properly")
}
