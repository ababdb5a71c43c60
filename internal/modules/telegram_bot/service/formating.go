package service

import (
	"fmt"
	"strings"
	"time"

	"signal_bot/internal/models"
	"signal_bot/internal/runner"
)

const helpText = "Commands:\n" +
	"/status - bot state and stats\n" +
	"/signals [n] - last signals\n" +
	"/run - start polling\n" +
	"/halt - stop polling\n" +
	"/analyze - run analysis now\n" +
	"/pair SYMBOL, /tf TIMEFRAME - change market"

func formatStatus(st runner.Status) string {
	var b strings.Builder
	fmt.Fprintf(&b, "*📊 Status:* %s %s\n\n", activeIcon(st.IsActive), st.State)
	fmt.Fprintf(&b, "💰 Pair: `%s`\n", st.Config.Symbol)
	fmt.Fprintf(&b, "⏰ Timeframe: `%s`\n", st.Config.Timeframe)
	fmt.Fprintf(&b, "📈 MA(%d): `%s`\n", st.Config.FastPeriod, f6(st.LastFastMA))
	fmt.Fprintf(&b, "📉 MA(%d): `%s`\n", st.Config.SlowPeriod, f6(st.LastSlowMA))
	fmt.Fprintf(&b, "💵 Price: `%s`\n\n", f6(st.LastPrice))
	fmt.Fprintf(&b, "🎯 Signals: %d (BUY %d / SELL %d)\n",
		st.Stats.TotalSignals, st.Stats.BuySignals, st.Stats.SellSignals)
	fmt.Fprintf(&b, "⏱ Up since: %s", st.Stats.StartedAt.UTC().Format(time.DateTime))
	if !st.LastCycleAt.IsZero() {
		fmt.Fprintf(&b, "\n🔄 Last cycle: %s (%s)", st.LastCycleAt.UTC().Format(time.TimeOnly), st.LastOutcome)
	}
	return b.String()
}

func formatSignals(signals []models.Signal) string {
	if len(signals) == 0 {
		return "📭 No signals yet"
	}
	var b strings.Builder
	b.WriteString("*🎯 Recent signals*\n")
	for _, s := range signals {
		fmt.Fprintf(&b, "\n%s *%s* %s @ `%.6f` TP `%.6f` SL `%.6f` - %s",
			sideIcon(s.Side), s.Side, s.Symbol, s.EntryPrice, s.TakeProfit, s.StopLoss,
			s.Time().UTC().Format("01-02 15:04"))
	}
	return b.String()
}
