package service

import (
	"strconv"

	"signal_bot/internal/models"
)

func activeIcon(v bool) string {
	if v {
		return "🟢"
	}
	return "🔴"
}

func sideIcon(s models.Side) string {
	if s == models.SideBuy {
		return "🟢"
	}
	return "🔴"
}

// f6: значение средней/цены; 0 значит «ещё не посчитано».
func f6(v float64) string {
	if v == 0 {
		return "n/a"
	}
	return strconv.FormatFloat(v, 'f', 6, 64)
}
