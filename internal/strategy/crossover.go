package strategy

import "signal_bot/internal/models"

// Crossover классифицирует пересечение быстрой средней с медленной между
// предыдущим и текущим тиком. Равенство на текущем тике сигналом не является,
// равенство на предыдущем допускает пересечение.
func Crossover(fastPrev, slowPrev, fastCur, slowCur float64) models.Side {
	// golden cross
	if fastPrev <= slowPrev && fastCur > slowCur {
		return models.SideBuy
	}
	// death cross
	if fastPrev >= slowPrev && fastCur < slowCur {
		return models.SideSell
	}
	return models.SideNone
}
