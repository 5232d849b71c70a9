package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/Oak-and-Sprout/sprout-track-sub002/internal/config"
	"github.com/Oak-and-Sprout/sprout-track-sub002/internal/database"
	"github.com/Oak-and-Sprout/sprout-track-sub002/internal/lockout"
	"github.com/Oak-and-Sprout/sprout-track-sub002/internal/logging"
	"github.com/Oak-and-Sprout/sprout-track-sub002/internal/server"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		if errors.Is(err, config.ErrSessionSecretMissing) {
			fmt.Fprintln(os.Stderr, "SPROUT_SESSION_SECRET must be set")
			os.Exit(1)
		}
		fmt.Fprintf(os.Stderr, "load config: %v\n", err)
		os.Exit(1)
	}

	logger := logging.Setup(cfg.LogLevel, cfg.LogFormat)

	db, err := database.Open(cfg.DBPath)
	if err != nil {
		slog.Error("failed to open database", "error", err)
		os.Exit(1)
	}
	defer db.Close()

	lockoutCfg := lockout.Config{
		Threshold: cfg.LockoutThreshold,
		Window:    cfg.LockoutWindow,
		Duration:  cfg.LockoutDuration,
	}
	var ledger lockout.Ledger
	var memLedger *lockout.MemoryLedger
	if cfg.RedisAddr != "" {
		redisLedger, err := lockout.NewRedis(cfg.RedisAddr, cfg.RedisPassword, lockoutCfg)
		if err != nil {
			slog.Error("failed to connect to redis", "error", err)
			os.Exit(1)
		}
		defer redisLedger.Close()
		ledger = redisLedger
		logger.Info("lockout ledger using redis", "addr", cfg.RedisAddr)
	} else {
		memLedger = lockout.NewMemory(lockoutCfg)
		ledger = memLedger
	}

	srv := server.New(db, cfg, ledger, logger)

	httpServer := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           srv.Router(),
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       10 * time.Second,
		WriteTimeout:      10 * time.Second,
		IdleTimeout:       120 * time.Second,
	}

	// Background cleanup goroutine
	cleanupCtx, cleanupCancel := context.WithCancel(context.Background())
	defer cleanupCancel()
	go func() {
		ticker := time.NewTicker(10 * time.Minute)
		defer ticker.Stop()
		for {
			select {
			case <-ticker.C:
				srv.RateLimiter().Cleanup()
				if memLedger != nil {
					memLedger.Cleanup()
				}
			case <-cleanupCtx.Done():
				return
			}
		}
	}()

	go func() {
		logger.Info("sprout track listening", "port", cfg.Port, "mode", cfg.Mode)
		if err := httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			slog.Error("server error", "error", err)
			os.Exit(1)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info("shutting down")
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := httpServer.Shutdown(ctx); err != nil {
		slog.Error("shutdown error", "error", err)
		os.Exit(1)
	}
}
