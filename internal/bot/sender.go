package bot

import (
	"context"
	"fmt"

	"github.com/leonid6372/crypto-tracker/internal/common/domain"
	"github.com/leonid6372/crypto-tracker/pkg/dictionary"
	"github.com/leonid6372/crypto-tracker/pkg/errs"
	"gopkg.in/telebot.v4"
)

// Send delivers a digest to the user's linked chat. Users without a linked
// chat are skipped.
func (b *Bot) Send(_ context.Context, user *domain.User, report *domain.Report, kind domain.DigestKind) (bool, error) {
	if user.TelegramID == 0 {
		return false, nil
	}

	lang := dictionary.DefaultLanguage

	titleKey := msgDigestDaily
	if kind == domain.DigestWeekly {
		titleKey = msgDigestWeekly
	}

	title := b.deps.dictionary.Text(lang, titleKey)
	chat := &telebot.Chat{ID: user.TelegramID}

	for _, text := range b.portfolioMessages(lang, title, report.PortfolioSnapshot, report.Holdings) {
		if _, err := b.Telebot.Send(chat, text, telebot.ModeHTML); err != nil {
			return false, errs.NewStack(fmt.Errorf("failed to send telegram digest: %w", err))
		}
	}

	return true, nil
}
