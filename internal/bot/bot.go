// Package bot is the Telegram side of the tracker: a long-polling bot that
// answers portfolio commands for linked chats, and a digest channel that
// pushes scheduled reports to the same chats.
package bot

import (
	"context"
	"fmt"
	"time"

	"github.com/leonid6372/crypto-tracker/internal/common/config"
	"github.com/leonid6372/crypto-tracker/internal/common/domain"
	"github.com/leonid6372/crypto-tracker/internal/holdings"
	"github.com/leonid6372/crypto-tracker/internal/pricesync"
	"github.com/leonid6372/crypto-tracker/pkg/dictionary"
	"github.com/leonid6372/crypto-tracker/pkg/errs"
	"github.com/patrickmn/go-cache"
	"gopkg.in/telebot.v4"
)

const (
	userCacheTTL     = 16 * time.Minute
	userCacheCleanup = 8 * time.Minute
)

type Portfolios interface {
	Portfolio(ctx context.Context, userID int64) (*holdings.Portfolio, error)
	RefreshPrices(ctx context.Context, userID int64) (*pricesync.Result, error)
}

type Bot struct {
	Telebot *telebot.Bot
	cfg     *config.Bot
	cache   *cache.Cache

	deps *Dependencies
}

type Dependencies struct {
	dictionary *dictionary.Dictionary

	usersRepository domain.UsersRepository
	portfolios      Portfolios
}

func New(cfg *config.Bot,
	dictionary *dictionary.Dictionary,
	usersRepository domain.UsersRepository,
	portfolios Portfolios,
) (*Bot, error) {
	return newBot(telebot.Settings{
		Token:  cfg.APIKey,
		Poller: &telebot.LongPoller{Timeout: cfg.Timeout},
	}, cfg, dictionary, usersRepository, portfolios)
}

func newBot(settings telebot.Settings,
	cfg *config.Bot,
	dictionary *dictionary.Dictionary,
	usersRepository domain.UsersRepository,
	portfolios Portfolios,
) (*Bot, error) {
	b, err := telebot.NewBot(settings)
	if err != nil {
		return nil, fmt.Errorf("telebot.NewBot: %w", err)
	}

	bot := &Bot{
		Telebot: b,
		cfg:     cfg,
		cache:   cache.New(userCacheTTL, userCacheCleanup),
		deps: &Dependencies{
			dictionary:      dictionary,
			usersRepository: usersRepository,
			portfolios:      portfolios,
		},
	}

	if err := bot.setCommands(); err != nil {
		return nil, fmt.Errorf("bot.setCommands: %w", err)
	}

	bot.setupMiddlewares()
	bot.setupMessageRoutes()

	return bot, nil
}

func (b *Bot) setCommands() error {
	commands := []telebot.Command{
		{Text: "start", Description: "📈 Get started"},
		{Text: "portfolio", Description: "📊 Show portfolio"},
		{Text: "refresh", Description: "🔄 Refresh prices"},
	}

	if err := b.Telebot.SetCommands(commands); err != nil {
		return errs.NewStack(err)
	}

	return nil
}

func (b *Bot) setupMiddlewares() {
	b.Telebot.Use(
		b.recoveryMiddleware,
		b.defaultErrorMiddleware,
		b.timeoutMiddleware,
		b.selectUserMiddleware,
	)
}

func (b *Bot) setupMessageRoutes() {
	message := b.Telebot.Group()

	message.Handle("/start", b.startHandler)
	message.Handle("/portfolio", b.portfolioHandler)
	message.Handle("/refresh", b.refreshHandler)

	lang := dictionary.DefaultLanguage
	message.Handle(&telebot.Btn{Text: b.deps.dictionary.Text(lang, btnPortfolio)}, b.portfolioHandler)
	message.Handle(&telebot.Btn{Text: b.deps.dictionary.Text(lang, btnRefresh)}, b.refreshHandler)
}

func (b *Bot) Start() {
	b.Telebot.Start()
}

func (b *Bot) Stop() {
	b.Telebot.Stop()
}

// linkedUser returns the tracker user bound to the sender's chat, if any.
func (b *Bot) linkedUser(c telebot.Context) *domain.User {
	if user, ok := c.Get(ctxUser).(*domain.User); ok {
		return user
	}
	return nil
}

func (b *Bot) requestContext(c telebot.Context) context.Context {
	if ctx, ok := c.Get(ctxContext).(context.Context); ok {
		return ctx
	}
	return context.Background()
}
