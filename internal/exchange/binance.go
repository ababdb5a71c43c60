package exchange

import (
	"context"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/adshao/go-binance/v2/futures"
	"github.com/pkg/errors"

	"signal_bot/internal/models"
)

// ErrProvider: любая ошибка биржи: сеть, таймаут, неизвестный символ, битый ответ.
var ErrProvider = errors.New("market data provider error")

// Binance: провайдер рыночных данных USDⓈ-M фьючерсов.
// Ключи не обязательны: используются только публичные эндпоинты.
type Binance struct {
	client *futures.Client
	stream *PriceStream
	// сколько считать цену из ws-кэша свежей
	staleAfter time.Duration
}

type BinanceConfig struct {
	APIKey      string
	APISecret   string
	BaseURL     string
	HTTPTimeout time.Duration
	StaleAfter  time.Duration
}

func NewBinance(cfg BinanceConfig, stream *PriceStream) *Binance {
	client := futures.NewClient(cfg.APIKey, cfg.APISecret)
	if cfg.BaseURL != "" {
		client.BaseURL = strings.TrimSuffix(cfg.BaseURL, "/")
	}
	timeout := cfg.HTTPTimeout
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	client.HTTPClient = &http.Client{Timeout: timeout}

	return &Binance{
		client:     client,
		stream:     stream,
		staleAfter: cfg.StaleAfter,
	}
}

// Ping: проверка связи перед стартом поллинга.
func (b *Binance) Ping(ctx context.Context) error {
	if err := b.client.NewPingService().Do(ctx); err != nil {
		return errors.Wrapf(ErrProvider, "ping: %v", err)
	}
	return nil
}

// RecentCandles возвращает до count последних свечей, от старых к новым.
// Последняя свеча может быть ещё не закрыта.
func (b *Binance) RecentCandles(ctx context.Context, symbol, timeframe string, count int) ([]models.Candle, error) {
	klines, err := b.client.NewKlinesService().
		Symbol(MarketSymbol(symbol)).
		Interval(Interval(timeframe)).
		Limit(count).
		Do(ctx)
	if err != nil {
		return nil, errors.Wrapf(ErrProvider, "klines %s %s: %v", symbol, timeframe, err)
	}

	out := make([]models.Candle, 0, len(klines))
	for _, k := range klines {
		c, err := toCandle(k)
		if err != nil {
			return nil, errors.Wrapf(ErrProvider, "klines %s: %v", symbol, err)
		}
		out = append(out, c)
	}
	return out, nil
}

// LastPrice: цена из ws-кэша, если она свежая, иначе REST.
func (b *Binance) LastPrice(ctx context.Context, symbol string) (float64, error) {
	market := MarketSymbol(symbol)
	if b.stream != nil && b.staleAfter > 0 {
		if p, at, ok := b.stream.Price(market); ok && time.Since(at) <= b.staleAfter {
			return p, nil
		}
	}

	prices, err := b.client.NewListPricesService().Symbol(market).Do(ctx)
	if err != nil {
		return 0, errors.Wrapf(ErrProvider, "ticker %s: %v", symbol, err)
	}
	for _, p := range prices {
		if p.Symbol != market {
			continue
		}
		v, err := strconv.ParseFloat(p.Price, 64)
		if err != nil || v <= 0 {
			return 0, errors.Wrapf(ErrProvider, "ticker %s: bad price %q", symbol, p.Price)
		}
		return v, nil
	}
	return 0, errors.Wrapf(ErrProvider, "ticker %s: no price", symbol)
}

// Interval приводит таймфрейм к виду Binance: "60m" -> "1h", "candle5m" -> "5m".
// Неизвестные значения уходят как есть: ответ биржи и есть проверка.
// "1M" (месяц) единственный регистрозависимый интервал Binance, его не понижаем.
func Interval(raw string) string {
	s := strings.TrimPrefix(strings.TrimSpace(raw), "candle")
	if s == "1M" {
		return s
	}
	s = strings.TrimPrefix(strings.ToLower(s), "candle")
	switch s {
	case "60m":
		return "1h"
	case "120m":
		return "2h"
	case "240m":
		return "4h"
	case "1440m", "24h":
		return "1d"
	case "1mo", "1mth":
		return "1M"
	default:
		return s
	}
}

// MarketSymbol переводит "BTC/USDT" и "BTC/USDT:USDT" в "BTCUSDT".
func MarketSymbol(symbol string) string {
	s := strings.ToUpper(strings.TrimSpace(symbol))
	if i := strings.IndexByte(s, ':'); i >= 0 {
		s = s[:i]
	}
	return strings.NewReplacer("/", "", "-", "", "_", "").Replace(s)
}

func toCandle(k *futures.Kline) (models.Candle, error) {
	var (
		c   = models.Candle{Timestamp: k.OpenTime}
		err error
	)
	fields := []struct {
		dst *float64
		src string
	}{
		{&c.Open, k.Open},
		{&c.High, k.High},
		{&c.Low, k.Low},
		{&c.Close, k.Close},
		{&c.Volume, k.Volume},
	}
	for _, f := range fields {
		if *f.dst, err = strconv.ParseFloat(f.src, 64); err != nil {
			return models.Candle{}, errors.Wrapf(err, "kline %d", k.OpenTime)
		}
	}
	return c, nil
}

// Watch переключает ws-кэш на новый символ (после смены конфига).
func (b *Binance) Watch(symbol string) {
	if b.stream != nil {
		b.stream.Watch(symbol)
	}
}
