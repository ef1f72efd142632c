package bot

import (
	"fmt"
	"html"
	"strings"
	"unicode/utf8"

	"github.com/leonid6372/crypto-tracker/internal/common/domain"
	"github.com/leonid6372/crypto-tracker/pkg/dictionary"
	"github.com/leonid6372/crypto-tracker/pkg/errs"
	"github.com/leonid6372/crypto-tracker/pkg/format"
	"gopkg.in/telebot.v4"
)

func escape(s string) string {
	return html.EscapeString(s)
}

func (b *Bot) sendPortfolio(c telebot.Context, snapshot domain.PortfolioSnapshot, holdings []*domain.Holding) error {
	lang := dictionary.DefaultLanguage

	if len(holdings) == 0 {
		text := b.deps.dictionary.Text(lang, msgEmptyPortfolio)
		if err := c.Send(text); err != nil {
			return errs.NewStack(fmt.Errorf("failed to send message: %v", err))
		}
		return nil
	}

	title := b.deps.dictionary.Text(lang, msgPortfolioTitle)
	chunks := b.portfolioMessages(lang, title, snapshot, holdings)

	for i, text := range chunks {
		opts := &telebot.SendOptions{ParseMode: telebot.ModeHTML}
		if i == len(chunks)-1 {
			opts.ReplyMarkup = b.mainMenuKeyboard(lang)
		}
		if err := c.Send(text, opts); err != nil {
			return errs.NewStack(fmt.Errorf("failed to send message: %v", err))
		}
	}

	return nil
}

// portfolioMessages renders a title, the snapshot summary and one block per
// holding as Telegram HTML, split into messages of at most maxMessageLen
// characters. A holding block is never split.
func (b *Bot) portfolioMessages(lang, title string, snapshot domain.PortfolioSnapshot, holdings []*domain.Holding) []string {
	var (
		chunks []string
		sb     strings.Builder
		size   int
	)

	head := title + "\n\n" + b.deps.dictionary.Text(lang, msgSummary, map[string]any{
		"Invested": format.Money(snapshot.TotalInvested),
		"Value":    format.Money(snapshot.CurrentValue),
		"Profit":   format.SignedMoney(snapshot.TotalProfit),
		"Percent":  format.SignedPercent(snapshot.ProfitPercentage),
	})
	sb.WriteString(head)
	size = utf8.RuneCountInString(head)

	for _, h := range holdings {
		block := b.deps.dictionary.Text(lang, msgHolding, map[string]any{
			"Name":     escape(h.Name),
			"Symbol":   escape(strings.ToUpper(h.Symbol)),
			"Quantity": format.PrettyNumber(h.Quantity, ",", ".", true),
			"Price":    format.Money(h.CurrentPrice),
			"Value":    format.Money(h.CurrentValue),
			"Profit":   format.SignedMoney(h.Profit),
			"Percent":  format.SignedPercent(h.ProfitPercentage),
			"Change":   format.SignedPercent(h.PriceChange24h),
		})
		blockSize := utf8.RuneCountInString(block)

		if size > 0 && size+2+blockSize > maxMessageLen {
			chunks = append(chunks, sb.String())
			sb.Reset()
			size = 0
		}
		if size > 0 {
			sb.WriteString("\n\n")
			size += 2
		}
		sb.WriteString(block)
		size += blockSize
	}

	return append(chunks, sb.String())
}
