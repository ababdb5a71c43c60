package notify

import (
	"context"
	"fmt"
	"time"

	tgbot "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"go.uber.org/fx"

	"signal_bot/internal/modules/config"
	"signal_bot/pkg/db"
	"signal_bot/pkg/logger"
)

// NewBotAPI: общий клиент Telegram для нотифайера и командного модуля.
// Без токена возвращает nil.
func NewBotAPI(cfg *config.Config) (*tgbot.BotAPI, error) {
	if cfg.Notifier.Telegram.Token == "" {
		return nil, nil
	}
	bot, err := tgbot.NewBotAPI(cfg.Notifier.Telegram.Token)
	if err != nil {
		return nil, fmt.Errorf("telegram: %w", err)
	}
	logger.Info("[TG] authorized as @%s", bot.Self.UserName)
	return bot, nil
}

type params struct {
	fx.In

	Lc  fx.Lifecycle
	Ctx context.Context
	Cfg *config.Config
	Bot *tgbot.BotAPI   `optional:"true"`
	Tx  *db.PgTxManager `optional:"true"`
}

// NewFromConfig собирает Multi из notifier.backends.
// Пустой список: только лог.
func NewFromConfig(p params) (*Multi, error) {
	names := p.Cfg.BackendList()
	if len(names) == 0 {
		names = []string{"log"}
	}

	var backends []Backend
	fail := func(err error) (*Multi, error) {
		_ = NewMulti(backends...).Close()
		return nil, err
	}

	for _, name := range names {
		var n Notifier
		switch name {
		case "log":
			n = NewLog()
		case "telegram":
			if p.Bot == nil || p.Cfg.Notifier.Telegram.ChatID == 0 {
				return fail(fmt.Errorf("notifier telegram: token and chat_id are required"))
			}
			n = NewTelegram(p.Bot, p.Cfg.Notifier.Telegram.ChatID)
		case "webhook":
			w := p.Cfg.Notifier.Webhook
			if w.URL == "" {
				return fail(fmt.Errorf("notifier webhook: url is required"))
			}
			n = NewWebhook(w.URL, time.Duration(w.TimeoutMs)*time.Millisecond)
		case "redis":
			r := p.Cfg.Notifier.Redis
			rn, err := NewRedis(p.Ctx, r.Addr, r.Password, r.DB, r.Channel)
			if err != nil {
				return fail(err)
			}
			n = rn
		case "amqp":
			a := p.Cfg.Notifier.AMQP
			an, err := NewAMQP(a.URL, a.Exchange)
			if err != nil {
				return fail(err)
			}
			n = an
		case "journal":
			if p.Tx == nil {
				return fail(fmt.Errorf("notifier journal: dsn is required"))
			}
			j := NewJournal(p.Tx, p.Cfg.Notifier.Journal.Table)
			if err := j.EnsureSchema(p.Ctx); err != nil {
				return fail(fmt.Errorf("notifier journal: %w", err))
			}
			n = j
		default:
			return fail(fmt.Errorf("unknown notifier backend %q", name))
		}
		backends = append(backends, Backend{Name: name, Notifier: n})
	}

	m := NewMulti(backends...)
	logger.Info("[NOTIFY] backends: %v", m.Names())

	p.Lc.Append(fx.Hook{
		OnStop: func(context.Context) error {
			return m.Close()
		},
	})
	return m, nil
}

func Module() fx.Option {
	return fx.Module("notify",
		fx.Provide(
			NewBotAPI,
			NewFromConfig,
			func(m *Multi) Notifier { return m },
		),
	)
}
