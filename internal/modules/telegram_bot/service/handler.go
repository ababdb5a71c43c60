package service

import (
	"context"
	"strconv"
	"strings"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"signal_bot/internal/models"
	"signal_bot/pkg/logger"
)

const defaultSignalsLimit = 10

func (t *Telegram) handleUpdate(ctx context.Context, update tgbotapi.Update) {
	msg := update.Message
	if msg == nil || msg.Chat == nil || !msg.IsCommand() {
		return
	}
	chatID := msg.Chat.ID
	if chatID != t.chatID {
		logger.Warn("[TG] command /%s from foreign chat %d ignored", msg.Command(), chatID)
		return
	}

	var reply string
	switch msg.Command() {
	case "start", "help":
		reply = helpText
	case "status":
		reply = formatStatus(t.ctl.Status())
	case "signals":
		n := defaultSignalsLimit
		if arg := strings.TrimSpace(msg.CommandArguments()); arg != "" {
			if v, err := strconv.Atoi(arg); err == nil && v > 0 {
				n = v
			}
		}
		reply = formatSignals(t.ctl.RecentSignals(n))
	case "run":
		if err := t.ctl.Start(ctx); err != nil {
			reply = "❌ " + err.Error()
		} else {
			reply = "✅ Bot started"
		}
	case "halt":
		if err := t.ctl.Stop(ctx); err != nil {
			reply = "⚠️ " + err.Error()
		} else {
			reply = "🛑 Bot stopped"
		}
	case "analyze":
		out, err := t.ctl.Analyze(ctx)
		if err != nil {
			reply = "⏳ " + err.Error()
		} else {
			reply = "🔍 Analysis completed: `" + string(out) + "`"
		}
	case "pair", "tf":
		arg := strings.TrimSpace(msg.CommandArguments())
		if arg == "" {
			reply = "Usage: /pair BTC/USDT or /tf 15m"
			break
		}
		upd := models.ConfigUpdate{Symbol: arg}
		if msg.Command() == "tf" {
			upd = models.ConfigUpdate{Timeframe: arg}
		}
		cfg := t.ctl.UpdateConfig(upd)
		reply = "⚙️ Config updated: " + cfg.Symbol + " " + cfg.Timeframe
	default:
		reply = "Unknown command. " + helpText
	}

	if _, err := t.Send(ctx, chatID, reply); err != nil {
		logger.Error("[TG] reply to /%s: %v", msg.Command(), err)
	}
}
