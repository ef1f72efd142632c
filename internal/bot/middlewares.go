package bot

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/leonid6372/crypto-tracker/internal/trackererrs"
	"github.com/leonid6372/crypto-tracker/pkg/dictionary"
	"github.com/leonid6372/crypto-tracker/pkg/log"
	"go.uber.org/zap"
	"gopkg.in/telebot.v4"
)

func (b *Bot) recoveryMiddleware(next telebot.HandlerFunc) telebot.HandlerFunc {
	return func(c telebot.Context) error {
		defer func() {
			if r := recover(); r != nil {
				log.Error("recovered from panic",
					zap.Any("panic", r),
					zap.Stack("stack"),
				)
			}
		}()

		return next(c)
	}
}

func (b *Bot) timeoutMiddleware(next telebot.HandlerFunc) telebot.HandlerFunc {
	return func(c telebot.Context) error {
		ctx, cancel := context.WithTimeout(context.Background(), b.cfg.Timeout)
		defer cancel()

		c.Set(ctxContext, ctx)

		return next(c)
	}
}

// selectUserMiddleware resolves the tracker account linked to the chat.
// Unlinked chats only get /start.
func (b *Bot) selectUserMiddleware(next telebot.HandlerFunc) telebot.HandlerFunc {
	return func(c telebot.Context) error {
		if c.Sender() == nil {
			return nil
		}

		tgID := c.Sender().ID
		key := strconv.FormatInt(tgID, 10)

		if user, ok := b.cache.Get(key); ok {
			b.cache.SetDefault(key, user)
			c.Set(ctxUser, user)

			return next(c)
		}

		user, err := b.deps.usersRepository.GetUserByTelegramID(b.requestContext(c), tgID)
		switch {
		case errors.Is(err, trackererrs.ErrUserNotFound):
			if strings.HasPrefix(c.Text(), "/start") {
				return next(c)
			}
			return b.notLinkedHandler(c)
		case err != nil:
			return fmt.Errorf("failed to get user by telegram ID from repository: %w", err)
		}

		b.cache.SetDefault(key, user)
		c.Set(ctxUser, user)

		return next(c)
	}
}

func (b *Bot) defaultErrorMiddleware(next telebot.HandlerFunc) telebot.HandlerFunc {
	return func(c telebot.Context) error {
		if err := next(c); err != nil {
			log.Error("unknown error", zap.Error(err))
			return b.defaultErrorHandler(c)
		}

		return nil
	}
}

func (b *Bot) defaultErrorHandler(c telebot.Context) error {
	text := b.deps.dictionary.Text(dictionary.DefaultLanguage, msgDefaultError)

	if err := c.Send(text); err != nil {
		return fmt.Errorf("failed to send message: %v", err)
	}

	return nil
}
