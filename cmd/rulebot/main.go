package main

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"rulebot/internal/config"
	"rulebot/internal/content"
	"rulebot/internal/engine"
	"rulebot/internal/scheduler"
	"rulebot/internal/server"
	"rulebot/internal/store"
	"rulebot/internal/telegram"
)

func main() {
	if err := godotenv.Load(".env"); err != nil {
		log.Printf("Warning: .env file not found: %v", err)
	}

	cfg := config.New()

	st, err := openStore(cfg)
	if err != nil {
		log.Fatalf("failed to open store: %v", err)
	}
	defer func() { _ = st.Close() }()

	tables := content.Defaults()
	if cfg.ContentFilePath != "" {
		tables, err = content.Load(cfg.ContentFilePath)
		if err != nil {
			log.Printf("content overrides not loaded, using defaults: %v", err)
		}
	}

	eng := engine.New(st, tables)

	if cfg.PruneSchedule != "" {
		sched := scheduler.New(st, time.Duration(cfg.PruneRetentionDays)*24*time.Hour)
		if err := sched.Start(cfg.PruneSchedule); err != nil {
			log.Printf("failed to start scheduler: %v", err)
		} else {
			defer sched.Stop()
		}
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if cfg.TelegramBotToken != "" {
		bot, err := telegram.New(cfg.TelegramBotToken, eng, cfg.TelegramAllowedUsers)
		if err != nil {
			log.Fatalf("failed to create telegram bot: %v", err)
		}
		go bot.Start(ctx)
	}

	srv := server.New(eng, cfg.ListenAddr)
	go func() {
		if err := srv.Start(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("http server: %v", err)
		}
	}()

	<-ctx.Done()
	log.Printf("shutting down")
	if err := srv.Stop(); err != nil {
		log.Printf("http shutdown: %v", err)
	}
}

func openStore(cfg *config.Config) (store.Store, error) {
	switch cfg.StorageBackend {
	case config.BackendMemory:
		return store.NewMemory(cfg.HistoryLimit), nil
	case config.BackendBolt:
		return store.NewBolt(cfg.BoltFilePath, cfg.HistoryLimit)
	case config.BackendFile, "":
		return store.NewFile(cfg.DataFilePath, cfg.HistoryLimit)
	default:
		return nil, fmt.Errorf("unknown storage backend %q", cfg.StorageBackend)
	}
}
