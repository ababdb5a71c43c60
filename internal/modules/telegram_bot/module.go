package telegram

import (
	"context"

	tgbot "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"go.uber.org/fx"

	"signal_bot/internal/modules/config"
	"signal_bot/internal/modules/telegram_bot/service"
	"signal_bot/internal/runner"
	"signal_bot/pkg/logger"
)

type params struct {
	fx.In

	Lc     fx.Lifecycle
	Cfg    *config.Config
	Bot    *tgbot.BotAPI `optional:"true"`
	Runner *runner.Runner
}

// run поднимает командный интерфейс, если есть токен, chat_id и telegram.commands.
func run(p params) {
	tc := p.Cfg.Notifier.Telegram
	if !tc.Commands {
		return
	}
	if p.Bot == nil || tc.ChatID == 0 {
		logger.Warn("[TG] commands enabled but token/chat_id missing, skipped")
		return
	}

	t := service.NewTelegram(p.Bot, tc.ChatID, p.Runner)
	p.Lc.Append(fx.Hook{
		OnStart: func(context.Context) error {
			t.Start(context.Background())
			return nil
		},
		OnStop: func(context.Context) error {
			t.Stop()
			return nil
		},
	})
}

func Module() fx.Option {
	return fx.Module("telegram",
		fx.Invoke(run),
	)
}
