package strategy

import (
	"fmt"

	"signal_bot/internal/models"
)

// Evaluation: результат оценки серии закрытий на одном тике.
type Evaluation struct {
	FastPeriod int
	SlowPeriod int

	FastCur, SlowCur   float64
	FastPrev, SlowPrev float64
	// текущие средние посчитаны, даже если предыдущих ещё нет
	FastReady, SlowReady bool
	// Ready == false, если хотя бы одна из четырёх средних не посчитана
	Ready bool
	Side  models.Side
}

// Evaluate считает быструю/медленную SMA по полной серии и по серии без
// последней свечи и классифицирует пересечение.
func Evaluate(closes []float64, fastPeriod, slowPeriod int) Evaluation {
	ev := Evaluation{FastPeriod: fastPeriod, SlowPeriod: slowPeriod}

	var okFP, okSP bool
	ev.FastCur, ev.FastReady = SMA(closes, fastPeriod)
	ev.SlowCur, ev.SlowReady = SMA(closes, slowPeriod)

	if len(closes) > 0 {
		prev := closes[:len(closes)-1]
		ev.FastPrev, okFP = SMA(prev, fastPeriod)
		ev.SlowPrev, okSP = SMA(prev, slowPeriod)
	}

	ev.Ready = ev.FastReady && ev.SlowReady && okFP && okSP
	if !ev.Ready {
		return ev
	}
	ev.Side = Crossover(ev.FastPrev, ev.SlowPrev, ev.FastCur, ev.SlowCur)
	return ev
}

// Dump: чтобы в логах показывать состояние средних.
func (e Evaluation) Dump() string {
	if !e.Ready {
		return fmt.Sprintf("MA(%d)/MA(%d): warmup", e.FastPeriod, e.SlowPeriod)
	}
	return fmt.Sprintf("MA(%d)=%.6f MA(%d)=%.6f prev=%.6f/%.6f",
		e.FastPeriod, e.FastCur, e.SlowPeriod, e.SlowCur, e.FastPrev, e.SlowPrev)
}
