package notify

import (
	"fmt"
	"strings"
	"time"

	"signal_bot/internal/models"
)

// Payload: JSON-представление сигнала для webhook/redis/amqp.
type Payload struct {
	Event           string        `json:"event"`
	Signal          models.Signal `json:"signal"`
	FastPeriod      int           `json:"fastPeriod"`
	SlowPeriod      int           `json:"slowPeriod"`
	RiskRewardRatio float64       `json:"riskRewardRatio"`
	StopLossPercent float64       `json:"stopLossPercent"`
	SentAt          time.Time     `json:"sentAt"`
}

func NewPayload(sig models.Signal, cfg models.StrategyConfig) Payload {
	return Payload{
		Event:           "signal",
		Signal:          sig,
		FastPeriod:      cfg.FastPeriod,
		SlowPeriod:      cfg.SlowPeriod,
		RiskRewardRatio: cfg.RiskRewardRatio,
		StopLossPercent: cfg.StopLossPercent,
		SentAt:          time.Now().UTC(),
	}
}

// FormatSignal: текст алерта в Markdown для чата.
func FormatSignal(sig models.Signal, cfg models.StrategyConfig) string {
	emoji, direction := "🔴", "📉"
	if sig.Side == models.SideBuy {
		emoji, direction = "🟢", "📈"
	}

	var b strings.Builder
	fmt.Fprintf(&b, "%s *CRYPTO SCALPING SIGNAL* %s\n\n", emoji, emoji)
	fmt.Fprintf(&b, "%s *%s SIGNAL*\n", direction, sig.Side)
	fmt.Fprintf(&b, "💰 *Pair:* %s\n", sig.Symbol)
	fmt.Fprintf(&b, "⏰ *Time:* %s\n\n", sig.Time().UTC().Format("2006-01-02 15:04:05 MST"))
	fmt.Fprintf(&b, "📊 *Entry Price:* $%.6f\n", sig.EntryPrice)
	fmt.Fprintf(&b, "🎯 *Take Profit:* $%.6f\n", sig.TakeProfit)
	fmt.Fprintf(&b, "🛑 *Stop Loss:* $%.6f\n\n", sig.StopLoss)
	fmt.Fprintf(&b, "📈 *MA(%d):* %.6f\n", cfg.FastPeriod, sig.FastMA)
	fmt.Fprintf(&b, "📉 *MA(%d):* %.6f\n\n", cfg.SlowPeriod, sig.SlowMA)
	fmt.Fprintf(&b, "💡 *Risk/Reward:* 1:%s\n", f2(cfg.RiskRewardRatio))
	fmt.Fprintf(&b, "📊 *Timeframe:* %s\n\n", sig.Timeframe)
	b.WriteString("⚡ _Trade at your own risk!_")
	return b.String()
}

// FormatStarted: сообщение при старте поллинга.
func FormatStarted(cfg models.StrategyConfig) string {
	return fmt.Sprintf(
		"🤖 *Signal Bot Started*\n\n"+
			"📊 Monitoring: %s\n"+
			"⏰ Timeframe: %s\n"+
			"📈 Strategy: MA(%d) / MA(%d) Crossover\n"+
			"💰 Risk/Reward: 1:%s\n\n"+
			"🔄 Checking market every %s...",
		cfg.Symbol, cfg.Timeframe, cfg.FastPeriod, cfg.SlowPeriod,
		f2(cfg.RiskRewardRatio), cfg.PollInterval().String(),
	)
}

const StoppedText = "🛑 *Signal Bot Stopped*"

// f2: число без лишних нулей: 2 -> "2", 1.5 -> "1.5".
func f2(v float64) string {
	s := fmt.Sprintf("%.2f", v)
	s = strings.TrimRight(s, "0")
	return strings.TrimSuffix(s, ".")
}
