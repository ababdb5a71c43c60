package notify

import (
	"context"

	tgbot "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"signal_bot/internal/models"
)

// TelegramSender: то, что нужно от *tgbot.BotAPI.
type TelegramSender interface {
	Send(c tgbot.Chattable) (tgbot.Message, error)
}

// Telegram: пассивный нотифайер в один чат.
type Telegram struct {
	bot    TelegramSender
	chatID int64
}

func NewTelegram(bot TelegramSender, chatID int64) *Telegram {
	return &Telegram{bot: bot, chatID: chatID}
}

func (t *Telegram) Deliver(ctx context.Context, sig models.Signal, cfg models.StrategyConfig) error {
	return t.send(ctx, FormatSignal(sig, cfg))
}

func (t *Telegram) Announce(ctx context.Context, text string) error {
	return t.send(ctx, text)
}

func (t *Telegram) send(ctx context.Context, text string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	msg := tgbot.NewMessage(t.chatID, text)
	msg.ParseMode = tgbot.ModeMarkdown
	_, err := t.bot.Send(msg)
	return err
}
