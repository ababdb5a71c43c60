package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
	"gopkg.in/yaml.v2"

	"signal_bot/internal/models"
)

const (
	configFilePathENV = "CONFIG_FILE"
	configDirENV      = "CONFIG_DIR"
	defaultConfigName = "values_local.yaml"
)

// Config ...
type Config struct {
	Service struct {
		Name       string `mapstructure:"name" yaml:"name"`
		Host       string `mapstructure:"host" yaml:"host"`
		PublicPort int    `mapstructure:"public_port" yaml:"public_port"`
		LogLevel   string `mapstructure:"log_level" yaml:"log_level"`
		// запускать поллинг сразу после старта приложения
		Autostart bool `mapstructure:"autostart" yaml:"autostart"`
	} `mapstructure:"service" yaml:"service"`

	Strategy struct {
		Symbol          string  `mapstructure:"symbol" yaml:"symbol"`
		Timeframe       string  `mapstructure:"timeframe" yaml:"timeframe"`
		FastPeriod      int     `mapstructure:"fast_period" yaml:"fast_period"`
		SlowPeriod      int     `mapstructure:"slow_period" yaml:"slow_period"`
		RiskRewardRatio float64 `mapstructure:"risk_reward_ratio" yaml:"risk_reward_ratio"`
		StopLossPercent float64 `mapstructure:"stop_loss_percent" yaml:"stop_loss_percent"`
		PollIntervalMs  int64   `mapstructure:"poll_interval_ms" yaml:"poll_interval_ms"`
		CandleMargin    int     `mapstructure:"candle_margin" yaml:"candle_margin"`
	} `mapstructure:"strategy" yaml:"strategy"`

	Exchange struct {
		APIKey    string `mapstructure:"api_key" yaml:"api_key"`
		APISecret string `mapstructure:"api_secret" yaml:"api_secret"`
		Testnet   bool   `mapstructure:"testnet" yaml:"testnet"`
		// websocket-кэш последней цены; 0: всегда REST
		StreamPrices  bool  `mapstructure:"stream_prices" yaml:"stream_prices"`
		PriceStaleMs  int64 `mapstructure:"price_stale_ms" yaml:"price_stale_ms"`
		HTTPTimeoutMs int64 `mapstructure:"http_timeout_ms" yaml:"http_timeout_ms"`
	} `mapstructure:"exchange" yaml:"exchange"`

	Notifier struct {
		// telegram,webhook,redis,amqp,journal,log через запятую
		Backends string `mapstructure:"backends" yaml:"backends"`

		Telegram struct {
			Token  string `mapstructure:"token" yaml:"token"`
			ChatID int64  `mapstructure:"chat_id" yaml:"chat_id"`
			// принимать команды /status, /run ... из этого чата
			Commands bool `mapstructure:"commands" yaml:"commands"`
		} `mapstructure:"telegram" yaml:"telegram"`

		Webhook struct {
			URL       string `mapstructure:"url" yaml:"url"`
			TimeoutMs int64  `mapstructure:"timeout_ms" yaml:"timeout_ms"`
		} `mapstructure:"webhook" yaml:"webhook"`

		Redis struct {
			Addr     string `mapstructure:"addr" yaml:"addr"`
			Password string `mapstructure:"password" yaml:"password"`
			DB       int    `mapstructure:"db" yaml:"db"`
			Channel  string `mapstructure:"channel" yaml:"channel"`
		} `mapstructure:"redis" yaml:"redis"`

		AMQP struct {
			URL      string `mapstructure:"url" yaml:"url"`
			Exchange string `mapstructure:"exchange" yaml:"exchange"`
		} `mapstructure:"amqp" yaml:"amqp"`

		Journal struct {
			DSN   string `mapstructure:"dsn" yaml:"dsn"`
			Table string `mapstructure:"table" yaml:"table"`
		} `mapstructure:"journal" yaml:"journal"`
	} `mapstructure:"notifier" yaml:"notifier"`

	Tracing struct {
		Enabled bool   `mapstructure:"enabled" yaml:"enabled"`
		Host    string `mapstructure:"host" yaml:"host"`
		Port    int    `mapstructure:"port" yaml:"port"`
	} `mapstructure:"tracing" yaml:"tracing"`
}

var defaults = map[string]any{
	"service.name":        "signal_bot",
	"service.host":        "",
	"service.public_port": 3000,
	"service.log_level":   "info",
	"service.autostart":   false,

	"strategy.symbol":            "BTC/USDT",
	"strategy.timeframe":         "5m",
	"strategy.fast_period":       25,
	"strategy.slow_period":       99,
	"strategy.risk_reward_ratio": 2.0,
	"strategy.stop_loss_percent": 1.0,
	"strategy.poll_interval_ms":  60000,
	"strategy.candle_margin":     10,

	"exchange.api_key":         "",
	"exchange.api_secret":      "",
	"exchange.testnet":         false,
	"exchange.stream_prices":   true,
	"exchange.price_stale_ms":  10000,
	"exchange.http_timeout_ms": 10000,

	"notifier.backends":           "",
	"notifier.telegram.token":     "",
	"notifier.telegram.chat_id":   0,
	"notifier.telegram.commands":  false,
	"notifier.webhook.url":        "",
	"notifier.webhook.timeout_ms": 5000,
	"notifier.redis.addr":         "",
	"notifier.redis.password":     "",
	"notifier.redis.db":           0,
	"notifier.redis.channel":      "signals",
	"notifier.amqp.url":           "",
	"notifier.amqp.exchange":      "signals",
	"notifier.journal.dsn":        "",
	"notifier.journal.table":      "signals",

	"tracing.enabled": false,
	"tracing.host":    "localhost",
	"tracing.port":    6831,
}

// старые имена переменных окружения (.env из первой версии бота)
var legacyEnv = map[string][]string{
	"strategy.symbol":           {"TRADING_PAIR"},
	"strategy.timeframe":        {"TIMEFRAME"},
	"service.public_port":       {"PORT"},
	"notifier.telegram.token":   {"TELEGRAM_BOT_TOKEN", "TELEGRAM_TOKEN"},
	"notifier.telegram.chat_id": {"TELEGRAM_CHAT_ID"},
	"notifier.journal.dsn":      {"DATABASE_DSN"},
	"exchange.api_key":          {"BINANCE_API_KEY"},
	"exchange.api_secret":       {"BINANCE_API_SECRET"},
}

// NewConfig читает configs/$CONFIG_FILE (если есть) поверх дефолтов,
// затем накладывает переменные окружения. Ключ strategy.fast_period
// переопределяется STRATEGY_FAST_PERIOD.
func NewConfig() (*Config, error) {
	_ = godotenv.Load()

	engine := viper.New()
	for k, v := range defaults {
		engine.SetDefault(k, v)
	}

	engine.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	engine.AutomaticEnv()
	for key, envs := range legacyEnv {
		names := append([]string{strings.ToUpper(strings.ReplaceAll(key, ".", "_"))}, envs...)
		if err := engine.BindEnv(append([]string{key}, names...)...); err != nil {
			return nil, fmt.Errorf("bind env %s: %w", key, err)
		}
	}

	file := configFilePath()
	if _, err := os.Stat(file); err == nil {
		engine.SetConfigFile(file)
		if err := engine.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("read config file %s: %w", file, err)
		}
	} else if os.Getenv(configFilePathENV) != "" {
		return nil, fmt.Errorf("config file %s: %w", file, err)
	}

	var config Config
	if err := engine.Unmarshal(&config); err != nil {
		return nil, fmt.Errorf("decode config: %w", err)
	}
	if err := config.Validate(); err != nil {
		return nil, err
	}
	return &config, nil
}

func configFilePath() string {
	name := os.Getenv(configFilePathENV)
	if name == "" {
		name = defaultConfigName
	}
	if filepath.IsAbs(name) {
		return name
	}
	dir := os.Getenv(configDirENV)
	if dir == "" {
		dir = "configs"
	}
	return filepath.Join(dir, name)
}

// Validate проверяет только стартовые параметры стратегии.
// Символ и таймфрейм не проверяются: ошибку покажет первый запрос к бирже.
func (c *Config) Validate() error {
	s := c.Strategy
	if s.FastPeriod < 1 || s.SlowPeriod < 1 {
		return fmt.Errorf("strategy periods must be >= 1 (fast=%d slow=%d)", s.FastPeriod, s.SlowPeriod)
	}
	if s.FastPeriod >= s.SlowPeriod {
		return fmt.Errorf("strategy.fast_period must be < strategy.slow_period (fast=%d slow=%d)", s.FastPeriod, s.SlowPeriod)
	}
	if s.PollIntervalMs <= 0 {
		return fmt.Errorf("strategy.poll_interval_ms must be > 0")
	}
	if s.StopLossPercent <= 0 || s.RiskRewardRatio <= 0 {
		return fmt.Errorf("strategy.stop_loss_percent and strategy.risk_reward_ratio must be > 0")
	}
	return nil
}

// StrategyConfig: стартовый конфиг стратегии для раннера.
func (c *Config) StrategyConfig() models.StrategyConfig {
	s := c.Strategy
	return models.StrategyConfig{
		Symbol:          s.Symbol,
		Timeframe:       s.Timeframe,
		FastPeriod:      s.FastPeriod,
		SlowPeriod:      s.SlowPeriod,
		RiskRewardRatio: s.RiskRewardRatio,
		StopLossPercent: s.StopLossPercent,
		PollIntervalMs:  s.PollIntervalMs,
		CandleMargin:    s.CandleMargin,
	}
}

// BackendList разбирает notifier.backends.
func (c *Config) BackendList() []string {
	var out []string
	for _, b := range strings.Split(c.Notifier.Backends, ",") {
		b = strings.ToLower(strings.TrimSpace(b))
		if b != "" {
			out = append(out, b)
		}
	}
	return out
}

// Dump: эффективный конфиг в yaml без секретов, для стартового лога.
func (c *Config) Dump() string {
	cp := *c
	cp.Exchange.APIKey = mask(cp.Exchange.APIKey)
	cp.Exchange.APISecret = mask(cp.Exchange.APISecret)
	cp.Notifier.Telegram.Token = mask(cp.Notifier.Telegram.Token)
	cp.Notifier.Redis.Password = mask(cp.Notifier.Redis.Password)
	cp.Notifier.AMQP.URL = mask(cp.Notifier.AMQP.URL)
	cp.Notifier.Journal.DSN = mask(cp.Notifier.Journal.DSN)

	bs, err := yaml.Marshal(cp)
	if err != nil {
		return fmt.Sprintf("<config dump failed: %v>", err)
	}
	return string(bs)
}

func mask(s string) string {
	if s == "" {
		return ""
	}
	return "***"
}
