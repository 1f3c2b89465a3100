package main

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	_ "github.com/lib/pq"
	"github.com/redis/go-redis/v9"

	"github.com/alexisq/pastracker/internal/api"
	"github.com/alexisq/pastracker/internal/config"
	"github.com/alexisq/pastracker/internal/importer"
	"github.com/alexisq/pastracker/internal/pkg/logger"
	"github.com/alexisq/pastracker/internal/repository/postgres"
	"github.com/alexisq/pastracker/internal/store"
	"github.com/alexisq/pastracker/internal/walink"
)

func main() {
	cfg, err := config.LoadFromEnv("config/config.yaml")
	if err != nil {
		logger.Error("load config", "error", err)
		os.Exit(1)
	}

	// The remote store is optional: without it the tracker runs
	// memory-only and nothing persists between restarts.
	var gw store.Gateway
	if cfg.Database.URL != "" {
		db, err := sql.Open("postgres", cfg.Database.URL)
		if err != nil {
			logger.Error("open database", "error", err)
			os.Exit(1)
		}
		defer db.Close()
		db.SetMaxOpenConns(5)
		db.SetConnMaxLifetime(5 * time.Minute)

		pingCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		if err := db.PingContext(pingCtx); err != nil {
			logger.Warn("database unreachable, running memory-only", "error", err)
		} else {
			gw = postgres.New(db)
		}
		cancel()
	} else {
		logger.Warn("no database configured, running memory-only")
	}

	st := store.New(gw)
	loadCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	st.LoadAll(loadCtx)
	cancel()

	var redisClient *redis.Client
	if cfg.Redis.Enabled && cfg.Redis.Addr != "" {
		redisClient = redis.NewClient(&redis.Options{Addr: cfg.Redis.Addr})
		defer redisClient.Close()
	}

	links := walink.New(cfg.Outreach.CountryPrefix, cfg.Outreach.Greeting)
	handlers := api.NewHandlers(st, importer.NewService(st, redisClient), links, cfg.Outreach.PageSize, cfg.Outreach.StaleDays)
	server := api.NewServer(handlers)

	addr := fmt.Sprintf("%s:%d", cfg.Server.GetHost(), cfg.Server.Port)

	errCh := make(chan error, 1)
	go func() {
		logger.Info("server listening", "addr", addr, "persistent", gw != nil)
		errCh <- server.ListenAndServe(addr)
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)

	select {
	case err := <-errCh:
		logger.Error("server stopped", "error", err)
		os.Exit(1)
	case sig := <-stop:
		logger.Info("shutting down", "signal", sig.String())
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Warn("shutdown", "error", err)
	}

	// Let queued replace-all saves reach the remote store before exit.
	st.Flush()
	logger.Info("bye")
}
