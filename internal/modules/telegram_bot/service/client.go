package service

import (
	"context"
	"fmt"
	"sync"

	tgbot "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"signal_bot/internal/models"
	"signal_bot/internal/runner"
	"signal_bot/pkg/logger"
)

// Controller: команды раннера, доступные из чата.
type Controller interface {
	Start(ctx context.Context) error
	Stop(ctx context.Context) error
	Analyze(ctx context.Context) (runner.Outcome, error)
	Status() runner.Status
	RecentSignals(n int) []models.Signal
	UpdateConfig(upd models.ConfigUpdate) models.StrategyConfig
}

// BotAPI: то, что нужно от *tgbot.BotAPI.
type BotAPI interface {
	Send(c tgbot.Chattable) (tgbot.Message, error)
	GetUpdatesChan(config tgbot.UpdateConfig) tgbot.UpdatesChannel
	StopReceivingUpdates()
}

// Telegram: командный интерфейс бота. Принимает команды только из одного чата.
type Telegram struct {
	bot    BotAPI
	chatID int64
	ctl    Controller

	cancel context.CancelFunc
	wg     sync.WaitGroup
}

func NewTelegram(bot BotAPI, chatID int64, ctl Controller) *Telegram {
	return &Telegram{
		bot:    bot,
		chatID: chatID,
		ctl:    ctl,
	}
}

func (t *Telegram) Send(_ context.Context, chatID int64, msg string) (tgbot.Message, error) {
	m := tgbot.NewMessage(chatID, msg)
	m.ParseMode = tgbot.ModeMarkdown
	return t.bot.Send(m)
}

func (t *Telegram) SendF(ctx context.Context, chatID int64, format string, args ...any) (tgbot.Message, error) {
	return t.Send(ctx, chatID, fmt.Sprintf(format, args...))
}

// Start: long polling апдейтов в отдельной горутине.
func (t *Telegram) Start(parent context.Context) {
	ctx, cancel := context.WithCancel(parent)
	t.cancel = cancel

	u := tgbot.NewUpdate(0)
	u.Timeout = 30
	updates := t.bot.GetUpdatesChan(u)

	t.wg.Add(1)
	go func() {
		defer t.wg.Done()
		for {
			select {
			case <-ctx.Done():
				return
			case update, ok := <-updates:
				if !ok {
					return
				}
				t.handleUpdate(ctx, update)
			}
		}
	}()
	logger.Info("[TG] listening for commands from chat %d", t.chatID)
}

func (t *Telegram) Stop() {
	if t.cancel != nil {
		t.cancel()
	}
	t.bot.StopReceivingUpdates()
	t.wg.Wait()
}
