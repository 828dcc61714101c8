package main

import (
	"context"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/getresett/resett/internal/backup"
	"github.com/getresett/resett/internal/config"
	"github.com/getresett/resett/internal/database"
	"github.com/getresett/resett/internal/logging"
	"github.com/getresett/resett/internal/push"
	"github.com/getresett/resett/internal/server"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		slog.Error("load config", "error", err)
		os.Exit(1)
	}

	logger := logging.Setup(cfg.LogLevel)

	db, err := database.Open(cfg.DBPath)
	if err != nil {
		logger.Error("failed to open database", "error", err)
		os.Exit(1)
	}
	defer db.Close()

	srv := server.New(db, cfg, logger)

	httpServer := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           srv.Router(),
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       10 * time.Second,
		WriteTimeout:      10 * time.Second,
		IdleTimeout:       120 * time.Second,
	}

	bgCtx, bgCancel := context.WithCancel(context.Background())
	defer bgCancel()

	// Hourly housekeeping: expired sessions, rate-limit windows, and usage
	// records old enough that no timezone can still call them today.
	go func() {
		ticker := time.NewTicker(1 * time.Hour)
		defer ticker.Stop()
		for {
			select {
			case <-ticker.C:
				if n, err := srv.SessionStore().DeleteExpired(); err != nil {
					logger.Error("cleanup expired sessions", "error", err)
				} else if n > 0 {
					logger.Info("cleaned up expired sessions", "count", n)
				}
				if n, err := srv.UsageStore().DeleteStale(time.Now().Add(-72 * time.Hour)); err != nil {
					logger.Error("cleanup stale usage records", "error", err)
				} else if n > 0 {
					logger.Info("cleaned up stale usage records", "count", n)
				}
				srv.RateLimiter().Cleanup()
			case <-bgCtx.Done():
				return
			}
		}
	}()

	if svc := srv.PushService(); svc != nil {
		scheduler := push.NewScheduler(svc, srv.PushStore(), logger.With("component", "push-scheduler"))
		scheduler.Start(bgCtx)
		defer scheduler.Stop()
	}

	if cfg.BackupEnabled() {
		mgr := backup.NewManager(cfg.Backup, db, cfg.DBPath, logger.With("component", "backup"))
		mgr.Start(bgCtx)
		defer mgr.Stop()
	}

	go func() {
		logger.Info("resett starting", "addr", ":"+cfg.Port)
		if err := httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Error("server error", "error", err)
			os.Exit(1)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info("shutting down")
	bgCancel()
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := httpServer.Shutdown(ctx); err != nil {
		logger.Error("shutdown error", "error", err)
		os.Exit(1)
	}
}
