package exchange

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"
	"time"
)

func kline(openTime int64, close float64) string {
	return fmt.Sprintf(`[%d,"1.0","2.0","0.5","%g","100.5",%d,"1000.0",10,"50.0","500.0","0"]`,
		openTime, close, openTime+59999)
}

func newTestServer(t *testing.T, handler func(w http.ResponseWriter, r *http.Request)) *Binance {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(handler))
	t.Cleanup(srv.Close)
	return NewBinance(BinanceConfig{BaseURL: srv.URL, HTTPTimeout: time.Second}, nil)
}

func TestMarketSymbol(t *testing.T) {
	cases := map[string]string{
		"BTC/USDT":      "BTCUSDT",
		"btc/usdt":      "BTCUSDT",
		"ETH/USDT:USDT": "ETHUSDT",
		"SOLUSDT":       "SOLUSDT",
		" doge-usdt ":   "DOGEUSDT",
	}
	for in, want := range cases {
		if got := MarketSymbol(in); got != want {
			t.Fatalf("MarketSymbol(%q)=%q want %q", in, got, want)
		}
	}
}

func TestInterval(t *testing.T) {
	cases := map[string]string{
		"5m":       "5m",
		" 15M ":    "15m",
		"60m":      "1h",
		"candle1h": "1h",
		"240m":     "4h",
		"24h":      "1d",
		"1mo":      "1M",
		"1M":       "1M",
		" 1M ":     "1M",
		"candle1M": "1M",
		"1m":       "1m",
		"7x":       "7x",
	}
	for in, want := range cases {
		if got := Interval(in); got != want {
			t.Fatalf("Interval(%q)=%q want %q", in, got, want)
		}
	}
}

func TestRecentCandles(t *testing.T) {
	b := newTestServer(t, func(w http.ResponseWriter, r *http.Request) {
		if !strings.HasSuffix(r.URL.Path, "/klines") {
			http.NotFound(w, r)
			return
		}
		q := r.URL.Query()
		if q.Get("symbol") != "BTCUSDT" || q.Get("interval") != "5m" || q.Get("limit") != "3" {
			t.Errorf("query: %s", r.URL.RawQuery)
		}
		w.Header().Set("Content-Type", "application/json")
		fmt.Fprintf(w, "[%s,%s,%s]", kline(1000, 10), kline(2000, 11.5), kline(3000, 12.25))
	})

	candles, err := b.RecentCandles(context.Background(), "BTC/USDT", "5m", 3)
	if err != nil {
		t.Fatalf("candles: %v", err)
	}
	if len(candles) != 3 {
		t.Fatalf("len=%d want 3", len(candles))
	}
	if candles[0].Timestamp != 1000 || candles[2].Timestamp != 3000 {
		t.Fatalf("order: %+v", candles)
	}
	if candles[2].Close != 12.25 || candles[1].High != 2 || candles[0].Volume != 100.5 {
		t.Fatalf("values: %+v", candles)
	}
}

func TestRecentCandlesProviderError(t *testing.T) {
	b := newTestServer(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
		_, _ = w.Write([]byte(`{"code":-1121,"msg":"Invalid symbol."}`))
	})

	_, err := b.RecentCandles(context.Background(), "NOPE/USDT", "5m", 10)
	if !errors.Is(err, ErrProvider) {
		t.Fatalf("expected ErrProvider, got %v", err)
	}
}

func TestPing(t *testing.T) {
	var down atomic.Bool
	b := newTestServer(t, func(w http.ResponseWriter, r *http.Request) {
		if down.Load() {
			w.WriteHeader(http.StatusServiceUnavailable)
			return
		}
		_, _ = w.Write([]byte(`{}`))
	})

	if err := b.Ping(context.Background()); err != nil {
		t.Fatalf("ping: %v", err)
	}
	down.Store(true)
	if err := b.Ping(context.Background()); !errors.Is(err, ErrProvider) {
		t.Fatalf("expected ErrProvider, got %v", err)
	}
}

func TestLastPriceREST(t *testing.T) {
	b := newTestServer(t, func(w http.ResponseWriter, r *http.Request) {
		if !strings.HasSuffix(r.URL.Path, "/ticker/price") {
			http.NotFound(w, r)
			return
		}
		_, _ = w.Write([]byte(`{"symbol":"ETHUSDT","price":"3120.55","time":1700000000000}`))
	})

	p, err := b.LastPrice(context.Background(), "ETH/USDT")
	if err != nil {
		t.Fatalf("price: %v", err)
	}
	if p != 3120.55 {
		t.Fatalf("price=%v", p)
	}
}

func TestLastPricePrefersFreshStream(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		_, _ = w.Write([]byte(`{"symbol":"BTCUSDT","price":"1.0","time":1}`))
	}))
	defer srv.Close()

	stream := NewPriceStream("ws://unused")
	stream.SetPrice("BTCUSDT", 42000)
	b := NewBinance(BinanceConfig{BaseURL: srv.URL, StaleAfter: time.Minute}, stream)

	p, err := b.LastPrice(context.Background(), "BTC/USDT")
	if err != nil || p != 42000 {
		t.Fatalf("price=%v err=%v", p, err)
	}
	if calls.Load() != 0 {
		t.Fatalf("REST called %d times", calls.Load())
	}

	b.staleAfter = time.Nanosecond
	time.Sleep(time.Millisecond)
	p, err = b.LastPrice(context.Background(), "BTC/USDT")
	if err != nil || p != 1 {
		t.Fatalf("stale cache: price=%v err=%v", p, err)
	}
	if calls.Load() != 1 {
		t.Fatalf("REST calls=%d want 1", calls.Load())
	}
}
