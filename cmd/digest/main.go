package main

import (
	"context"
	"flag"
	"os"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/leonid6372/crypto-tracker/internal/bot"
	"github.com/leonid6372/crypto-tracker/internal/common/clients/coingecko"
	"github.com/leonid6372/crypto-tracker/internal/common/clients/mailer"
	"github.com/leonid6372/crypto-tracker/internal/common/config"
	"github.com/leonid6372/crypto-tracker/internal/common/domain"
	"github.com/leonid6372/crypto-tracker/internal/common/repositories/postgres"
	"github.com/leonid6372/crypto-tracker/internal/holdings"
	"github.com/leonid6372/crypto-tracker/internal/notify"
	"github.com/leonid6372/crypto-tracker/internal/pricesync"
	"github.com/leonid6372/crypto-tracker/pkg/dictionary"
	"github.com/leonid6372/crypto-tracker/pkg/log"
	"go.uber.org/zap"
)

// digest sends one digest run outside the schedule. With -user it targets a
// single account, otherwise it sweeps every user opted in to -kind.
func main() {
	var (
		configPath string
		userID     int64
		kind       string
	)
	flag.StringVar(&configPath, "config", "prod.yaml", "tracker config path")
	flag.Int64Var(&userID, "user", 0, "user id to send the digest to, 0 for every due user")
	flag.StringVar(&kind, "kind", string(domain.DigestDaily), "digest kind: daily or weekly")
	flag.Parse()

	os.Exit(run(configPath, userID, domain.DigestKind(kind)))
}

func run(configPath string, userID int64, kind domain.DigestKind) int {
	defer func() { _ = log.Sync() }()

	if !kind.Valid() {
		log.Error("unknown digest kind", zap.String("kind", kind.String()))
		return 2
	}

	ctx := context.Background()

	cfg, err := config.Load(configPath)
	if err != nil {
		log.Error("config load failed", zap.Error(err))
		return 1
	}

	if err := log.Configure(cfg.LogLevel, cfg.LogFormat); err != nil {
		log.Warn("invalid log settings, keeping default",
			zap.String("level", cfg.LogLevel),
			zap.String("format", cfg.LogFormat),
			zap.Error(err),
		)
	}

	pool, err := pgxpool.New(ctx, cfg.GetPostgresURL())
	if err != nil {
		log.Error("postgres init failed", zap.Error(err))
		return 1
	}
	defer pool.Close()

	usersRepository := postgres.NewUsersRepository(pool)
	holdingsRepository := postgres.NewHoldingsRepository(pool)

	var channels notify.Channels

	if cfg.SMTP.Enabled() {
		mail, err := mailer.NewClient(&cfg.SMTP)
		if err != nil {
			log.Error("mailer init failed", zap.Error(err))
			return 1
		}
		channels = append(channels, mail)
	}

	if cfg.Bot.APIKey != "" {
		dict, err := dictionary.New()
		if err != nil {
			log.Error("dictionary init failed", zap.Error(err))
			return 1
		}

		oracle := coingecko.NewClient(&cfg.CoinGecko)
		engine := pricesync.NewEngine(holdingsRepository, oracle, cfg.Sync.Concurrency)

		telegram, err := bot.New(&cfg.Bot, dict, usersRepository, holdings.NewService(holdingsRepository, oracle, engine))
		if err != nil {
			log.Error("bot init failed", zap.Error(err))
			return 1
		}
		channels = append(channels, telegram)
	}

	if len(channels) == 0 {
		log.Error("no notification channel configured")
		return 1
	}

	digests := notify.NewService(holdingsRepository, usersRepository, channels)

	var res *notify.Result
	if userID != 0 {
		user, err := usersRepository.GetUserByID(ctx, userID)
		if err != nil {
			log.Error("user lookup failed", zap.Int64("userID", userID), zap.Error(err))
			return 1
		}

		res, err = digests.RunDigest(ctx, kind, []*domain.User{user})
		if err != nil {
			log.Error("digest failed", zap.Error(err))
			return 1
		}
	} else {
		res, err = digests.Sweep(ctx, kind)
		if err != nil {
			log.Error("digest sweep failed", zap.Error(err))
			return 1
		}
	}

	log.Info("digest finished",
		zap.String("kind", kind.String()),
		zap.Int("sent", res.Sent),
		zap.Int("skipped", res.Skipped),
		zap.Int("failed", res.Failed),
	)

	if res.Failed > 0 {
		return 1
	}

	return 0
}
