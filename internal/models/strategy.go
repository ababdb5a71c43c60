package models

import "time"

// Side: направление сигнала: "BUY"/"SELL" или пустая строка.
type Side string

const (
	SideNone Side = ""
	SideBuy  Side = "BUY"
	SideSell Side = "SELL"
)

// StrategyConfig: параметры MA-кроссовера, которыми владеет Runner.
type StrategyConfig struct {
	Symbol          string  `json:"symbol"`
	Timeframe       string  `json:"timeframe"`
	FastPeriod      int     `json:"fastPeriod"`
	SlowPeriod      int     `json:"slowPeriod"`
	RiskRewardRatio float64 `json:"riskRewardRatio"`
	StopLossPercent float64 `json:"stopLossPercent"`
	PollIntervalMs  int64   `json:"pollIntervalMs"`
	// сколько свечей брать сверх SlowPeriod
	CandleMargin int `json:"candleMargin"`
}

func (c StrategyConfig) PollInterval() time.Duration {
	return time.Duration(c.PollIntervalMs) * time.Millisecond
}

// CandleCount: сколько последних свечей запрашивать у провайдера за цикл.
func (c StrategyConfig) CandleCount() int {
	margin := c.CandleMargin
	if margin < 0 {
		margin = 0
	}
	return c.SlowPeriod + margin
}

// ConfigUpdate: частичное обновление конфига из API/Telegram.
// Пустые значения игнорируются, проверки символа/таймфрейма нет.
type ConfigUpdate struct {
	Symbol    string `json:"symbol"`
	Timeframe string `json:"timeframe"`
}

// LifecycleState: состояние раннера.
type LifecycleState string

const (
	StateInactive LifecycleState = "INACTIVE"
	StateActive   LifecycleState = "ACTIVE"
)
