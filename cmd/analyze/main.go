// analyze: разовый прогон цикла анализа без HTTP и таймера.
// Сигнал, если он есть, уходит только в лог.
package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"
	"time"

	"github.com/bytedance/sonic"

	"signal_bot/internal/exchange"
	"signal_bot/internal/models"
	"signal_bot/internal/modules/config"
	"signal_bot/internal/notify"
	"signal_bot/internal/runner"
	"signal_bot/pkg/logger"
)

func main() {
	symbol := flag.String("symbol", "", "override strategy.symbol")
	timeframe := flag.String("timeframe", "", "override strategy.timeframe")
	timeout := flag.Duration("timeout", 30*time.Second, "overall timeout")
	flag.Parse()

	cfg, err := config.NewConfig()
	if err != nil {
		log.Fatal(err)
	}
	if err := logger.Init(cfg.Service.LogLevel, "signal_bot_analyze"); err != nil {
		log.Fatal(err)
	}
	defer logger.Sync()

	ctx, cancel := context.WithTimeout(context.Background(), *timeout)
	defer cancel()

	md := exchange.NewBinanceFromConfig(cfg, nil)
	r := runner.New(ctx, md, notify.NewLog(), cfg.StrategyConfig(), nil)
	r.UpdateConfig(models.ConfigUpdate{Symbol: *symbol, Timeframe: *timeframe})

	out, err := r.Analyze(ctx)
	if err != nil {
		logger.Fatal("analyze: %v", err)
	}

	bs, err := sonic.ConfigStd.MarshalIndent(map[string]any{
		"outcome": out,
		"status":  r.Status(),
		"signals": r.Signals(),
	}, "", "  ")
	if err != nil {
		logger.Fatal("marshal: %v", err)
	}
	fmt.Fprintln(os.Stdout, string(bs))
	if out == runner.OutcomeProviderError {
		os.Exit(1)
	}
}
