package models

import "time"

// Candle: OHLCV свеча, Timestamp в миллисекундах (время открытия).
type Candle struct {
	Timestamp int64   `json:"timestamp"`
	Open      float64 `json:"open"`
	High      float64 `json:"high"`
	Low       float64 `json:"low"`
	Close     float64 `json:"close"`
	Volume    float64 `json:"volume"`
}

// Closes вытаскивает цены закрытия в том же порядке (от старых к новым).
func Closes(candles []Candle) []float64 {
	out := make([]float64, len(candles))
	for i, c := range candles {
		out[i] = c.Close
	}
	return out
}

// Signal: принятый сигнал кроссовера. После создания не меняется.
type Signal struct {
	ID         string  `json:"id"`
	Symbol     string  `json:"symbol"`
	Timeframe  string  `json:"timeframe"`
	Side       Side    `json:"type"`
	EntryPrice float64 `json:"entryPrice"`
	StopLoss   float64 `json:"stopLoss"`
	TakeProfit float64 `json:"takeProfit"`
	FastMA     float64 `json:"fastMA"`
	SlowMA     float64 `json:"slowMA"`
	Timestamp  int64   `json:"timestamp"` // unix ms
}

func (s Signal) Time() time.Time { return time.UnixMilli(s.Timestamp) }

// Stats: счётчики принятых сигналов. Total == Buy + Sell.
type Stats struct {
	TotalSignals int64     `json:"totalSignals"`
	BuySignals   int64     `json:"buySignals"`
	SellSignals  int64     `json:"sellSignals"`
	StartedAt    time.Time `json:"startedAt"`
}
