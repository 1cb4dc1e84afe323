package reporter

import (
	"fmt"
	"strings"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
)

type sender interface {
	Send(c tgbotapi.Chattable) (tgbotapi.Message, error)
}

// TelegramReporter posts one message per run to a chat.
type TelegramReporter struct {
	bot    sender
	chatID int64
}

func NewTelegramReporter(token string, chatID int64) (*TelegramReporter, error) {
	bot, err := tgbotapi.NewBotAPI(token)
	if err != nil {
		return nil, fmt.Errorf("failed to init telegram bot: %w", err)
	}

	//turn this on in case of debug
	//bot.Debug = true

	return &TelegramReporter{bot: bot, chatID: chatID}, nil
}

func (t *TelegramReporter) SendMessage(text string) error {
	msg := tgbotapi.NewMessage(t.chatID, text)
	msg.ParseMode = tgbotapi.ModeHTML
	msg.DisableWebPagePreview = true
	_, err := t.bot.Send(msg)
	return err
}

// SendSummary sends the run outcome of every source as one message.
func (t *TelegramReporter) SendSummary(reports []SourceReport) error {
	return t.SendMessage(FormatSummary(reports))
}

func (t *TelegramReporter) SendError(errReq error) error {
	text := fmt.Sprintf("⚠️ <b>Scraper Error</b>:\n%s", escape(errReq.Error()))
	return t.SendMessage(text)
}

// FormatSummary renders reports as Telegram HTML.
func FormatSummary(reports []SourceReport) string {
	var b strings.Builder
	b.WriteString("📊 <b>Scrape run</b>\n")
	for _, r := range reports {
		icon := "✅"
		if r.Failed() {
			icon = "⚠️"
		}
		fmt.Fprintf(&b, "\n%s <b>%s</b>: %d records from %d pages\n", icon, escape(r.Source), r.Records, r.Stats.Pages)
		if r.Err != nil {
			fmt.Fprintf(&b, "   ❌ %s\n", escape(r.Err.Error()))
			continue
		}
		if r.Stats.StopReason != "" {
			fmt.Fprintf(&b, "   🛑 %s\n", escape(r.Stats.StopReason))
		}
		if r.Vacancies != nil {
			fmt.Fprintf(&b, "   💼 %d vacancies in %d jobs, %d with deadline\n",
				r.Vacancies.TotalVacancies, r.Vacancies.WithVacancies, r.Vacancies.WithDeadline)
		}
		for _, res := range r.Results {
			line := res.Detail
			if res.Err != nil {
				line = res.Err.Error()
			}
			fmt.Fprintf(&b, "   %s %s: %s\n", statusIcon(res.Status), escape(res.Sink), escape(line))
		}
	}
	return b.String()
}

func escape(s string) string {
	return tgbotapi.EscapeText(tgbotapi.ModeHTML, s)
}
