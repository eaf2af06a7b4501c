package main

import (
	"context"
	"errors"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/charmbracelet/log"

	"todo-keeper/internal/bot"
	"todo-keeper/internal/config"
	"todo-keeper/internal/logging"
	"todo-keeper/internal/repository"
	"todo-keeper/internal/service"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	cfg, err := config.Load()
	if err != nil {
		log.Fatal("config", "err", err)
	}
	if err := cfg.RequireBot(); err != nil {
		log.Fatal("config", "err", err)
	}
	logger := logging.New(os.Stderr, cfg.LogLevel, cfg.LogFormat)

	db, err := repository.NewDB(cfg.DatabaseDriver, cfg.DatabaseURL, logger)
	if err != nil {
		logger.Fatal("db", "err", err)
	}
	sqlDB, err := db.DB()
	if err == nil {
		defer sqlDB.Close()
	}

	chatRepo := repository.NewChatRepository(db)
	stores := service.NewStoreRegistry(func(namespace string) service.KeyValueStore {
		return repository.NewKVRepository(db, namespace)
	})
	digestSvc := service.NewDigestService()

	telegramBot, err := bot.New(cfg.TelegramToken, chatRepo, stores, digestSvc, logger)
	if err != nil {
		logger.Fatal("bot", "err", err)
	}

	scheduler := service.NewSchedulerService(time.Local)
	scheduled, err := scheduler.ScheduleDigest(cfg.DigestTime, cfg.DigestInterval, func() {
		jobCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()
		if err := telegramBot.SendDigests(jobCtx); err != nil && !errors.Is(err, context.Canceled) {
			logger.Error("digest", "err", err)
		}
	})
	if err != nil {
		logger.Fatal("schedule digest", "err", err)
	}
	if scheduled {
		scheduler.Start()
		defer scheduler.Stop()
		logger.Info("digest scheduled", "time", cfg.DigestTime, "interval", cfg.DigestInterval)
	}

	logger.Info("todo keeper bot started", "driver", cfg.DatabaseDriver)
	if err := telegramBot.Start(ctx); err != nil && !errors.Is(err, context.Canceled) {
		logger.Fatal("bot stopped with error", "err", err)
	}
	logger.Info("shutdown complete")
}
