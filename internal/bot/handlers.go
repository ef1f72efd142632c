package bot

import (
	"fmt"
	"strconv"

	"github.com/leonid6372/crypto-tracker/pkg/dictionary"
	"github.com/leonid6372/crypto-tracker/pkg/errs"
	"gopkg.in/telebot.v4"
)

func (b *Bot) startHandler(c telebot.Context) error {
	user := b.linkedUser(c)
	lang := dictionary.DefaultLanguage

	if user == nil {
		return b.notLinkedHandler(c)
	}

	data := map[string]any{
		"Name":   escape(user.Name),
		"ChatID": strconv.FormatInt(c.Chat().ID, 10),
	}

	text := b.deps.dictionary.Text(lang, msgStart, data)

	if err := c.Send(text, &telebot.SendOptions{
		ReplyMarkup: b.mainMenuKeyboard(lang),
		ParseMode:   telebot.ModeHTML,
	}); err != nil {
		return errs.NewStack(fmt.Errorf("failed to send message: %v", err))
	}

	return nil
}

func (b *Bot) notLinkedHandler(c telebot.Context) error {
	data := map[string]any{
		"ChatID": strconv.FormatInt(c.Chat().ID, 10),
	}

	text := b.deps.dictionary.Text(dictionary.DefaultLanguage, msgNotLinked, data)

	if err := c.Send(text, telebot.ModeHTML); err != nil {
		return errs.NewStack(fmt.Errorf("failed to send message: %v", err))
	}

	return nil
}

func (b *Bot) portfolioHandler(c telebot.Context) error {
	user := b.linkedUser(c)
	if user == nil {
		return b.notLinkedHandler(c)
	}

	portfolio, err := b.deps.portfolios.Portfolio(b.requestContext(c), user.ID)
	if err != nil {
		return errs.NewStack(fmt.Errorf("failed to load portfolio: %w", err))
	}

	return b.sendPortfolio(c, portfolio.PortfolioSnapshot, portfolio.Holdings)
}

func (b *Bot) refreshHandler(c telebot.Context) error {
	user := b.linkedUser(c)
	if user == nil {
		return b.notLinkedHandler(c)
	}

	ctx := b.requestContext(c)
	lang := dictionary.DefaultLanguage

	res, err := b.deps.portfolios.RefreshPrices(ctx, user.ID)
	if err != nil {
		return errs.NewStack(fmt.Errorf("failed to refresh prices: %w", err))
	}

	text := b.deps.dictionary.Text(lang, msgRefreshed, map[string]any{"Count": res.Updated})
	if err := c.Send(text); err != nil {
		return errs.NewStack(fmt.Errorf("failed to send message: %v", err))
	}

	portfolio, err := b.deps.portfolios.Portfolio(ctx, user.ID)
	if err != nil {
		return errs.NewStack(fmt.Errorf("failed to load portfolio: %w", err))
	}

	return b.sendPortfolio(c, portfolio.PortfolioSnapshot, portfolio.Holdings)
}
