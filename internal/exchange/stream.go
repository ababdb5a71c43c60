package exchange

import (
	"context"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/bytedance/sonic"
	"github.com/gorilla/websocket"

	"signal_bot/pkg/logger"
)

const defaultStreamURL = "wss://fstream.binance.com/ws"

type cachedPrice struct {
	price float64
	at    time.Time
}

// PriceStream держит ws-подписку <symbol>@ticker и кэш последней цены.
// Символ можно сменить на лету: текущее соединение рвётся и поднимается заново.
type PriceStream struct {
	baseURL  string
	wsDialer *websocket.Dialer

	mu       sync.RWMutex
	prices   map[string]cachedPrice
	symbol   string
	conn     *websocket.Conn
	onStatus func(connected bool)

	changed chan struct{}
}

func NewPriceStream(baseURL string) *PriceStream {
	if baseURL == "" {
		baseURL = defaultStreamURL
	}
	return &PriceStream{
		baseURL:  strings.TrimSuffix(baseURL, "/"),
		wsDialer: &websocket.Dialer{HandshakeTimeout: 10 * time.Second},
		prices:   make(map[string]cachedPrice),
		changed:  make(chan struct{}, 1),
	}
}

// OnStatus: колбэк смены состояния соединения (для /healthz).
func (s *PriceStream) OnStatus(fn func(connected bool)) {
	s.mu.Lock()
	s.onStatus = fn
	s.mu.Unlock()
}

func (s *PriceStream) SetPrice(symbol string, price float64) {
	s.mu.Lock()
	s.prices[symbol] = cachedPrice{price: price, at: time.Now()}
	s.mu.Unlock()
}

// Price: последняя цена и время её получения.
func (s *PriceStream) Price(symbol string) (float64, time.Time, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	p, ok := s.prices[symbol]
	return p.price, p.at, ok
}

// Watch переключает подписку на symbol ("BTC/USDT" или "BTCUSDT").
func (s *PriceStream) Watch(symbol string) {
	market := MarketSymbol(symbol)

	s.mu.Lock()
	if s.symbol == market {
		s.mu.Unlock()
		return
	}
	s.symbol = market
	conn := s.conn
	s.mu.Unlock()

	if conn != nil {
		_ = conn.Close()
	}
	select {
	case s.changed <- struct{}{}:
	default:
	}
}

func (s *PriceStream) current() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.symbol
}

func (s *PriceStream) setConn(conn *websocket.Conn) {
	s.mu.Lock()
	s.conn = conn
	fn := s.onStatus
	s.mu.Unlock()
	if fn != nil {
		fn(conn != nil)
	}
}

// Run: цикл переподключений до отмены ctx.
func (s *PriceStream) Run(ctx context.Context) {
	retry := 0
	for {
		symbol := s.current()
		if symbol == "" {
			select {
			case <-ctx.Done():
				return
			case <-s.changed:
				continue
			}
		}

		url := s.baseURL + "/" + strings.ToLower(symbol) + "@ticker"
		conn, _, err := s.wsDialer.DialContext(ctx, url, nil)
		if err != nil {
			retry++
			logger.Warn("[WS] dial %s: %v (retry %d)", url, err, retry)
			if !s.sleep(ctx, backoff(retry)) {
				return
			}
			continue
		}
		retry = 0
		logger.Info("[WS] subscribed %s", url)
		s.setConn(conn)
		if s.current() != symbol {
			// Watch успел сменить символ, пока шёл dial
			_ = conn.Close()
		}

		done := make(chan struct{})
		go func() {
			select {
			case <-ctx.Done():
				_ = conn.Close()
			case <-done:
			}
		}()

		s.readLoop(conn, symbol)
		close(done)
		_ = conn.Close()
		s.setConn(nil)

		if ctx.Err() != nil {
			return
		}
		if s.current() == symbol && !s.sleep(ctx, time.Second) {
			return
		}
	}
}

func (s *PriceStream) readLoop(conn *websocket.Conn, symbol string) {
	for {
		_, msg, err := conn.ReadMessage()
		if err != nil {
			logger.Debug("[WS] read %s: %v", symbol, err)
			return
		}
		var frame struct {
			Event  string `json:"e"`
			Symbol string `json:"s"`
			Last   string `json:"c"`
		}
		if err := sonic.Unmarshal(msg, &frame); err != nil || frame.Event != "24hrTicker" {
			continue
		}
		p, err := strconv.ParseFloat(frame.Last, 64)
		if err != nil || p <= 0 {
			continue
		}
		s.SetPrice(frame.Symbol, p)
	}
}

func (s *PriceStream) sleep(ctx context.Context, d time.Duration) bool {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return false
	case <-s.changed:
		return true
	case <-t.C:
		return true
	}
}

func backoff(retry int) time.Duration {
	d := time.Duration(300*retry) * time.Millisecond
	if d > 10*time.Second {
		d = 10 * time.Second
	}
	return d
}
