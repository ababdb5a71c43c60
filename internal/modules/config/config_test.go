package config

import (
	"os"
	"path/filepath"
	"reflect"
	"strings"
	"testing"
)

func writeConfig(t *testing.T, body string) {
	t.Helper()
	dir := t.TempDir()
	if err := os.WriteFile(filepath.Join(dir, "test.yaml"), []byte(body), 0o600); err != nil {
		t.Fatalf("write config: %v", err)
	}
	t.Setenv(configDirENV, dir)
	t.Setenv(configFilePathENV, "test.yaml")
}

func TestNewConfigDefaults(t *testing.T) {
	t.Setenv(configDirENV, t.TempDir())
	t.Setenv(configFilePathENV, "")

	cfg, err := NewConfig()
	if err != nil {
		t.Fatalf("NewConfig: %v", err)
	}
	sc := cfg.StrategyConfig()
	if sc.Symbol != "BTC/USDT" || sc.Timeframe != "5m" {
		t.Fatalf("unexpected symbol/timeframe: %+v", sc)
	}
	if sc.FastPeriod != 25 || sc.SlowPeriod != 99 || sc.CandleCount() != 109 {
		t.Fatalf("unexpected periods: %+v", sc)
	}
	if sc.PollIntervalMs != 60000 || sc.RiskRewardRatio != 2 || sc.StopLossPercent != 1 {
		t.Fatalf("unexpected risk/poll params: %+v", sc)
	}
	if cfg.Service.PublicPort != 3000 {
		t.Fatalf("PublicPort = %d, want 3000", cfg.Service.PublicPort)
	}
}

func TestNewConfigFileAndEnv(t *testing.T) {
	writeConfig(t, `
strategy:
  symbol: ETH/USDT
  fast_period: 5
  slow_period: 20
notifier:
  backends: "telegram, redis"
  telegram:
    chat_id: 42
`)
	t.Setenv("STRATEGY_TIMEFRAME", "15m")
	t.Setenv("TELEGRAM_BOT_TOKEN", "secret-token")
	t.Setenv("PORT", "8081")

	cfg, err := NewConfig()
	if err != nil {
		t.Fatalf("NewConfig: %v", err)
	}
	if cfg.Strategy.Symbol != "ETH/USDT" || cfg.Strategy.Timeframe != "15m" {
		t.Fatalf("unexpected strategy: %+v", cfg.Strategy)
	}
	if cfg.Strategy.FastPeriod != 5 || cfg.Strategy.SlowPeriod != 20 {
		t.Fatalf("unexpected periods: %+v", cfg.Strategy)
	}
	if cfg.Notifier.Telegram.Token != "secret-token" || cfg.Notifier.Telegram.ChatID != 42 {
		t.Fatalf("unexpected telegram config: %+v", cfg.Notifier.Telegram)
	}
	if cfg.Service.PublicPort != 8081 {
		t.Fatalf("PublicPort = %d, want 8081", cfg.Service.PublicPort)
	}
	if got := cfg.BackendList(); !reflect.DeepEqual(got, []string{"telegram", "redis"}) {
		t.Fatalf("BackendList = %v", got)
	}
}

func TestNewConfigRejectsFastNotBelowSlow(t *testing.T) {
	writeConfig(t, `
strategy:
  fast_period: 50
  slow_period: 50
`)
	if _, err := NewConfig(); err == nil {
		t.Fatalf("expected validation error for fast >= slow")
	}
}

func TestNewConfigMissingExplicitFile(t *testing.T) {
	t.Setenv(configDirENV, t.TempDir())
	t.Setenv(configFilePathENV, "nope.yaml")
	if _, err := NewConfig(); err == nil {
		t.Fatalf("expected error for missing explicit config file")
	}
}

func TestDumpMasksSecrets(t *testing.T) {
	cfg := &Config{}
	cfg.Notifier.Telegram.Token = "123:abc"
	cfg.Notifier.Journal.DSN = "postgres://u:p@h/db"
	cfg.Strategy.Symbol = "BTC/USDT"

	out := cfg.Dump()
	if strings.Contains(out, "123:abc") || strings.Contains(out, "u:p@h") {
		t.Fatalf("dump leaks secrets:\n%s", out)
	}
	if !strings.Contains(out, "symbol: BTC/USDT") {
		t.Fatalf("dump misses symbol:\n%s", out)
	}
}
