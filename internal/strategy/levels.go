package strategy

import (
	"fmt"

	"github.com/shopspring/decimal"

	"signal_bot/internal/models"
)

// LevelPrecision: число знаков после запятой у SL/TP.
const LevelPrecision = 6

type Levels struct {
	StopLoss   float64
	TakeProfit float64
}

// CalcLevels считает SL/TP из StopLossPercent и RiskRewardRatio:
// стоп на stopLossPercent% от входа, тейк на rr стопов в сторону сделки.
// Отрицательный SL при экстремальных параметрах не отсекается.
func CalcLevels(entry float64, side models.Side, stopLossPercent, rr float64) (Levels, error) {
	stopDist := entry * stopLossPercent / 100
	profitDist := stopDist * rr

	var sl, tp float64
	switch side {
	case models.SideBuy:
		sl = entry - stopDist
		tp = entry + profitDist
	case models.SideSell:
		sl = entry + stopDist
		tp = entry - profitDist
	default:
		return Levels{}, fmt.Errorf("levels: unsupported side %q", side)
	}

	return Levels{
		StopLoss:   round(sl),
		TakeProfit: round(tp),
	}, nil
}

func round(v float64) float64 {
	f, _ := decimal.NewFromFloat(v).Round(LevelPrecision).Float64()
	return f
}
