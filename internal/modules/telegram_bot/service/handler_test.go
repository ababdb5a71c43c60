package service

import (
	"context"
	"strings"
	"sync"
	"testing"
	"time"

	tgbot "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"signal_bot/internal/models"
	"signal_bot/internal/runner"
)

type fakeBot struct {
	sent    []tgbot.MessageConfig
	updates chan tgbot.Update
	stopped bool
}

func (f *fakeBot) Send(c tgbot.Chattable) (tgbot.Message, error) {
	if m, ok := c.(tgbot.MessageConfig); ok {
		f.sent = append(f.sent, m)
	}
	return tgbot.Message{}, nil
}

func (f *fakeBot) GetUpdatesChan(tgbot.UpdateConfig) tgbot.UpdatesChannel { return f.updates }

func (f *fakeBot) StopReceivingUpdates() { f.stopped = true }

func (f *fakeBot) last() string {
	if len(f.sent) == 0 {
		return ""
	}
	return f.sent[len(f.sent)-1].Text
}

type fakeCtl struct {
	mu      sync.Mutex
	active  bool
	cfg     models.StrategyConfig
	signals []models.Signal
	limit   int
}

func (f *fakeCtl) isActive() bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.active
}

func (f *fakeCtl) Start(context.Context) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.active {
		return runner.ErrAlreadyActive
	}
	f.active = true
	return nil
}

func (f *fakeCtl) Stop(context.Context) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if !f.active {
		return runner.ErrNotActive
	}
	f.active = false
	return nil
}

func (f *fakeCtl) Analyze(context.Context) (runner.Outcome, error) {
	return runner.OutcomeNoSignal, nil
}

func (f *fakeCtl) Status() runner.Status {
	return runner.Status{
		State:      models.StateActive,
		IsActive:   f.active,
		Config:     f.cfg,
		LastFastMA: 101.25,
		Stats:      models.Stats{TotalSignals: 3, BuySignals: 2, SellSignals: 1},
	}
}

func (f *fakeCtl) RecentSignals(n int) []models.Signal {
	f.limit = n
	if n > len(f.signals) {
		n = len(f.signals)
	}
	return f.signals[:n]
}

func (f *fakeCtl) UpdateConfig(upd models.ConfigUpdate) models.StrategyConfig {
	if upd.Symbol != "" {
		f.cfg.Symbol = upd.Symbol
	}
	if upd.Timeframe != "" {
		f.cfg.Timeframe = upd.Timeframe
	}
	return f.cfg
}

func command(chatID int64, text string) tgbot.Update {
	cmdLen := len(strings.SplitN(text, " ", 2)[0])
	return tgbot.Update{Message: &tgbot.Message{
		Chat: &tgbot.Chat{ID: chatID},
		Text: text,
		Entities: []tgbot.MessageEntity{
			{Type: "bot_command", Offset: 0, Length: cmdLen},
		},
	}}
}

func TestHandleCommands(t *testing.T) {
	bot := &fakeBot{}
	ctl := &fakeCtl{cfg: models.StrategyConfig{Symbol: "BTC/USDT", Timeframe: "5m", FastPeriod: 25, SlowPeriod: 99}}
	tg := NewTelegram(bot, 7, ctl)
	ctx := context.Background()

	tests := []struct {
		text string
		want string
	}{
		{"/run", "Bot started"},
		{"/run", "already running"},
		{"/status", "MA(25): `101.250000`"},
		{"/analyze", "no_signal"},
		{"/tf 1h", "BTC/USDT 1h"},
		{"/pair ETH/USDT", "ETH/USDT 1h"},
		{"/pair", "Usage"},
		{"/signals", "No signals yet"},
		{"/halt", "Bot stopped"},
		{"/halt", "not running"},
		{"/help", "/analyze"},
		{"/whatever", "Unknown command"},
	}
	for _, tc := range tests {
		tg.handleUpdate(ctx, command(7, tc.text))
		if got := bot.last(); !strings.Contains(got, tc.want) {
			t.Fatalf("%s: reply %q does not contain %q", tc.text, got, tc.want)
		}
	}
	if ctl.limit != defaultSignalsLimit {
		t.Fatalf("signals limit=%d want %d", ctl.limit, defaultSignalsLimit)
	}
	for _, m := range bot.sent {
		if m.ChatID != 7 {
			t.Fatalf("reply to chat %d", m.ChatID)
		}
	}
}

func TestForeignChatIgnored(t *testing.T) {
	bot := &fakeBot{}
	ctl := &fakeCtl{}
	tg := NewTelegram(bot, 7, ctl)

	tg.handleUpdate(context.Background(), command(8, "/run"))
	if ctl.isActive() || len(bot.sent) != 0 {
		t.Fatalf("command from foreign chat executed")
	}
}

func TestSignalsLimitArgument(t *testing.T) {
	bot := &fakeBot{}
	ctl := &fakeCtl{signals: []models.Signal{
		{Side: models.SideSell, Symbol: "BTC/USDT", EntryPrice: 2, Timestamp: time.Date(2024, 3, 4, 5, 6, 0, 0, time.UTC).UnixMilli()},
		{Side: models.SideBuy, Symbol: "BTC/USDT", EntryPrice: 1},
	}}
	tg := NewTelegram(bot, 7, ctl)

	tg.handleUpdate(context.Background(), command(7, "/signals 1"))
	if ctl.limit != 1 {
		t.Fatalf("limit=%d want 1", ctl.limit)
	}
	got := bot.last()
	if !strings.Contains(got, "*SELL* BTC/USDT @ `2.000000`") || !strings.Contains(got, "03-04 05:06") {
		t.Fatalf("reply: %s", got)
	}
}

func TestStartStopPolling(t *testing.T) {
	bot := &fakeBot{updates: make(chan tgbot.Update, 1)}
	ctl := &fakeCtl{}
	tg := NewTelegram(bot, 7, ctl)

	tg.Start(context.Background())
	bot.updates <- command(7, "/run")

	deadline := time.Now().Add(time.Second)
	for !ctl.isActive() {
		if time.Now().After(deadline) {
			t.Fatalf("update not handled")
		}
		time.Sleep(5 * time.Millisecond)
	}
	tg.Stop()
	if !bot.stopped {
		t.Fatalf("StopReceivingUpdates not called")
	}
}
