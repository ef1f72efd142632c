package main

import (
	"context"
	"flag"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/leonid6372/crypto-tracker/internal/admin"
	"github.com/leonid6372/crypto-tracker/internal/bot"
	"github.com/leonid6372/crypto-tracker/internal/common/clients/coingecko"
	"github.com/leonid6372/crypto-tracker/internal/common/clients/mailer"
	"github.com/leonid6372/crypto-tracker/internal/common/config"
	"github.com/leonid6372/crypto-tracker/internal/common/repositories/postgres"
	"github.com/leonid6372/crypto-tracker/internal/holdings"
	"github.com/leonid6372/crypto-tracker/internal/notify"
	"github.com/leonid6372/crypto-tracker/internal/pricesync"
	"github.com/leonid6372/crypto-tracker/internal/scheduler"
	"github.com/leonid6372/crypto-tracker/migrations"
	"github.com/leonid6372/crypto-tracker/pkg/dictionary"
	"github.com/leonid6372/crypto-tracker/pkg/goosemigrate"
	"github.com/leonid6372/crypto-tracker/pkg/log"
	"go.uber.org/zap"
)

const stopTimeout = 30 * time.Second

func main() {
	var configPath string
	flag.StringVar(&configPath, "config", "prod.yaml", "tracker config path")
	flag.Parse()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	cfg := config.GetConfig(configPath)

	if err := log.Configure(cfg.LogLevel, cfg.LogFormat); err != nil {
		log.Warn("invalid log settings, keeping default",
			zap.String("level", cfg.LogLevel),
			zap.String("format", cfg.LogFormat),
			zap.Error(err),
		)
	}

	log.Info("tracker starting...", zap.String("env", cfg.Env))

	log.Info("init postgres...")
	pool, err := pgxpool.New(ctx, cfg.GetPostgresURL())
	if err != nil {
		log.Fatal("postgres init failed", zap.Error(err))
	}

	if err := goosemigrate.NewMigrator(cfg.GetPostgresURL(), migrations.FS, cfg.Postgres.Schema).Up(ctx); err != nil {
		log.Fatal("migrations up failed", zap.Error(err))
	}

	usersRepository := postgres.NewUsersRepository(pool)
	holdingsRepository := postgres.NewHoldingsRepository(pool)

	log.Info("init coingecko...")
	oracle := coingecko.NewClient(&cfg.CoinGecko)

	engine := pricesync.NewEngine(holdingsRepository, oracle, cfg.Sync.Concurrency)
	holdingsService := holdings.NewService(holdingsRepository, oracle, engine)

	var channels notify.Channels

	if cfg.SMTP.Enabled() {
		log.Info("init mailer...")
		mail, err := mailer.NewClient(&cfg.SMTP)
		if err != nil {
			log.Fatal("mailer init failed", zap.Error(err))
		}
		channels = append(channels, mail)
	} else {
		log.Warn("smtp is not configured, email digests disabled")
	}

	var telegram *bot.Bot

	if cfg.Bot.APIKey != "" {
		log.Info("init dictionary...")
		dict, err := dictionary.New()
		if err != nil {
			log.Fatal("dictionary init failed", zap.Error(err))
		}

		log.Info("init telebot...")
		telegram, err = bot.New(&cfg.Bot, dict, usersRepository, holdingsService)
		if err != nil {
			log.Fatal("bot starting failed", zap.Error(err))
		}
		channels = append(channels, telegram)

		go telegram.Start()
	}

	digests := notify.NewService(holdingsRepository, usersRepository, channels)

	sched, err := scheduler.New(&cfg.Schedule, engine, digests)
	if err != nil {
		log.Fatal("scheduler init failed", zap.Error(err))
	}
	sched.Start()

	adminServer := admin.NewServer(&cfg.Admin, usersRepository, engine, sched, holdingsService)
	go func() {
		if err := adminServer.Start(); err != nil {
			log.Error("admin server stopped", zap.Error(err))
		}
	}()

	log.Info("tracker starting complete")

	done := make(chan os.Signal, 1)
	signal.Notify(done, os.Interrupt, syscall.SIGINT, syscall.SIGTERM)

	<-done
	log.Info("tracker shutting down...")

	stopCtx, stop := context.WithTimeout(context.Background(), stopTimeout)
	defer stop()

	sched.Stop(stopCtx)

	if err := adminServer.Shutdown(stopCtx); err != nil {
		log.Error("admin server shutdown failed", zap.Error(err))
	}

	if telegram != nil {
		telegram.Stop()
	}

	pool.Close()

	log.Info("tracker shut down complete")

	if err := log.Sync(); err != nil {
		log.Error("log sync failed", zap.Error(err))
	}
}
