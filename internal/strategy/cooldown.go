package strategy

import "signal_bot/internal/models"

// CooldownWindowMs: окно, в котором повтор сигнала того же направления глушится.
const CooldownWindowMs int64 = 300_000

// Mark: направление и время последнего принятого сигнала.
type Mark struct {
	Side      models.Side
	Timestamp int64 // unix ms
}

// Suppressed возвращает true, если кандидат дублирует последний сигнал
// того же направления внутри окна. Противоположное направление не глушится никогда.
func Suppressed(last *Mark, side models.Side, ts int64) bool {
	if last == nil || last.Side != side {
		return false
	}
	return ts-last.Timestamp < CooldownWindowMs
}
