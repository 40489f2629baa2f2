package main

import (
	"context"
	"errors"
	"flag"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/GoPolymarket/logkeep/internal/config"
	"github.com/GoPolymarket/logkeep/internal/handler"
	"github.com/GoPolymarket/logkeep/internal/pkg/logger"
	"github.com/GoPolymarket/logkeep/internal/repository"
	"github.com/GoPolymarket/logkeep/internal/service"
	"github.com/gin-gonic/gin"
)

func main() {
	configPath := flag.String("config", "", "path to config file")
	flag.Parse()

	// 1. Load Configuration
	cfg, err := config.Load(*configPath)
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	// 2. Initialize Logger
	logger.Init(cfg.Log.Level, cfg.Log.Format)

	// 3. Initialize Persistence
	port, closePort, err := repository.Open(cfg)
	if err != nil {
		log.Fatalf("Failed to open %s store: %v", cfg.Store.Backend, err)
	}
	logger.Info("✅ Store backend ready", "backend", cfg.Store.Backend, "key", cfg.Store.Key)

	// 4. Initialize Log Store
	tail := service.NewBroadcaster(cfg.Tail.Buffer)
	store, err := service.NewLogStore(context.Background(), port,
		service.WithKey(cfg.Store.Key),
		service.WithBroadcaster(tail),
	)
	if err != nil {
		log.Fatalf("Failed to load log store: %v", err)
	}
	logger.Info("Log store loaded", "entries", store.Count())

	idem, closeIdem, err := repository.OpenIdempotency(cfg)
	if err != nil {
		log.Fatalf("Failed to open idempotency store: %v", err)
	}

	// 5. Setup Router
	gin.SetMode(gin.ReleaseMode)
	r := handler.NewRouter(cfg, store, idem)

	// 6. Start Server with Graceful Shutdown
	srv := &http.Server{
		Addr:    ":" + cfg.Server.Port,
		Handler: r,
	}

	go func() {
		logger.Info("🚀 logkeep started", "port", cfg.Server.Port, "read_only", cfg.Server.ReadOnly)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatalf("Server listen failed: %v", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	logger.Info("🛑 Shutting down server...")

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		logger.Error("Server forced to shutdown", "error", err)
	}
	if err := closeIdem(); err != nil {
		logger.Error("Failed to close idempotency store", "error", err)
	}
	if err := closePort(); err != nil {
		logger.Error("Failed to close store backend", "error", err)
	}

	logger.Info("Server exiting")
}
