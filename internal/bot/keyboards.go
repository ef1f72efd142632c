package bot

import "gopkg.in/telebot.v4"

func (b *Bot) mainMenuKeyboard(lang string) *telebot.ReplyMarkup {
	markup := &telebot.ReplyMarkup{}

	btnPortfolio := telebot.Btn{Text: b.deps.dictionary.Text(lang, btnPortfolio)}
	btnRefresh := telebot.Btn{Text: b.deps.dictionary.Text(lang, btnRefresh)}

	markup.Reply(telebot.Row{btnPortfolio, btnRefresh})
	markup.ResizeKeyboard = true

	return markup
}
