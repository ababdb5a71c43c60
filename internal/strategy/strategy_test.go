package strategy

import (
	"math"
	"testing"

	"signal_bot/internal/models"
)

func TestSMA(t *testing.T) {
	tests := []struct {
		name   string
		series []float64
		period int
		want   float64
		ok     bool
	}{
		{name: "last three", series: []float64{1, 2, 3, 4, 5}, period: 3, want: 4, ok: true},
		{name: "whole series", series: []float64{1, 2, 3, 4, 5}, period: 5, want: 3, ok: true},
		{name: "period one", series: []float64{7, 9}, period: 1, want: 9, ok: true},
		{name: "too short", series: []float64{1, 2}, period: 3, ok: false},
		{name: "empty", series: nil, period: 1, ok: false},
		{name: "zero period", series: []float64{1, 2}, period: 0, ok: false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := SMA(tt.series, tt.period)
			if ok != tt.ok {
				t.Fatalf("ok = %v, want %v", ok, tt.ok)
			}
			if ok && math.Abs(got-tt.want) > 1e-12 {
				t.Fatalf("SMA = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestSMADoesNotMutateInput(t *testing.T) {
	series := []float64{1, 2, 3, 4, 5}
	_, _ = SMA(series, 3)
	_, _ = SMA(series[:len(series)-1], 3)
	for i, v := range []float64{1, 2, 3, 4, 5} {
		if series[i] != v {
			t.Fatalf("series[%d] = %v, want %v", i, series[i], v)
		}
	}
}

func TestSMATruncatedSeries(t *testing.T) {
	series := []float64{1, 2, 3, 4, 5}
	prev, ok := SMA(series[:len(series)-1], 3)
	if !ok || prev != 3 {
		t.Fatalf("SMA(prev) = %v,%v, want 3,true", prev, ok)
	}
}

func TestCrossover(t *testing.T) {
	tests := []struct {
		name                                 string
		fastPrev, slowPrev, fastCur, slowCur float64
		want                                 models.Side
	}{
		{"golden cross", 1, 2, 3, 2, models.SideBuy},
		{"death cross", 2, 1, 1, 2, models.SideSell},
		{"stays above", 3, 2, 3, 2, models.SideNone},
		{"stays below", 1, 2, 1, 3, models.SideNone},
		{"prior tie then above", 2, 2, 3, 2, models.SideBuy},
		{"prior tie then below", 2, 2, 1, 2, models.SideSell},
		{"current tie from below", 1, 2, 2, 2, models.SideNone},
		{"current tie from above", 3, 2, 2, 2, models.SideNone},
		{"ties both", 2, 2, 2, 2, models.SideNone},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Crossover(tt.fastPrev, tt.slowPrev, tt.fastCur, tt.slowCur); got != tt.want {
				t.Fatalf("Crossover = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestCalcLevels(t *testing.T) {
	buy, err := CalcLevels(100, models.SideBuy, 1, 2)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if buy.StopLoss != 99 || buy.TakeProfit != 102 {
		t.Fatalf("BUY levels = %+v, want SL=99 TP=102", buy)
	}

	sell, err := CalcLevels(100, models.SideSell, 1, 2)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if sell.StopLoss != 101 || sell.TakeProfit != 98 {
		t.Fatalf("SELL levels = %+v, want SL=101 TP=98", sell)
	}
}

func TestCalcLevelsRoundsToSixDigits(t *testing.T) {
	lv, err := CalcLevels(0.123456789, models.SideBuy, 1.5, 2)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	// stop 0.001851851835, tp 0.00370370367
	if lv.StopLoss != 0.121605 {
		t.Fatalf("StopLoss = %v, want 0.121605", lv.StopLoss)
	}
	if lv.TakeProfit != 0.12716 {
		t.Fatalf("TakeProfit = %v, want 0.12716", lv.TakeProfit)
	}
}

func TestCalcLevelsNegativeStopNotGuarded(t *testing.T) {
	lv, err := CalcLevels(10, models.SideBuy, 150, 1)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if lv.StopLoss != -5 {
		t.Fatalf("StopLoss = %v, want -5", lv.StopLoss)
	}
}

func TestCalcLevelsRejectsNoSide(t *testing.T) {
	if _, err := CalcLevels(100, models.SideNone, 1, 2); err == nil {
		t.Fatalf("expected error for empty side")
	}
}

func TestSuppressed(t *testing.T) {
	a := &Mark{Side: models.SideBuy, Timestamp: 0}

	if Suppressed(nil, models.SideBuy, 1) {
		t.Fatalf("no previous signal must never suppress")
	}
	if !Suppressed(a, models.SideBuy, 299_999) {
		t.Fatalf("same side inside window must be suppressed")
	}
	if Suppressed(a, models.SideBuy, 300_000) {
		t.Fatalf("same side at window boundary must be accepted")
	}
	if Suppressed(a, models.SideSell, 1) {
		t.Fatalf("opposite side must never be suppressed")
	}
}

func TestEvaluate(t *testing.T) {
	// fast(2) пересекает slow(4) снизу вверх на последней свече
	closes := []float64{10, 10, 10, 9, 9, 12}
	ev := Evaluate(closes, 2, 4)
	if !ev.Ready {
		t.Fatalf("expected ready evaluation")
	}
	if ev.Side != models.SideBuy {
		t.Fatalf("Side = %q, want BUY (%s)", ev.Side, ev.Dump())
	}
	if ev.FastCur != 10.5 || ev.SlowCur != 10 {
		t.Fatalf("current MAs = %v/%v, want 10.5/10", ev.FastCur, ev.SlowCur)
	}
}

func TestEvaluateNotReady(t *testing.T) {
	// слишком мало свечей для предыдущего значения медленной средней
	ev := Evaluate([]float64{1, 2, 3, 4}, 2, 4)
	if ev.Ready {
		t.Fatalf("expected not ready, got %s", ev.Dump())
	}
	if ev.Side != models.SideNone {
		t.Fatalf("Side = %q, want none", ev.Side)
	}
	// текущие средние при этом уже есть
	if !ev.FastReady || !ev.SlowReady || ev.FastCur != 3.5 || ev.SlowCur != 2.5 {
		t.Fatalf("current MAs = %v(%t)/%v(%t), want 3.5/2.5", ev.FastCur, ev.FastReady, ev.SlowCur, ev.SlowReady)
	}
	if ev := Evaluate(nil, 2, 4); ev.Ready || ev.FastReady || ev.SlowReady {
		t.Fatalf("empty series must not be ready")
	}
}
