package runner

import (
	"sync"
	"time"

	"signal_bot/internal/models"
)

// Ledger: история принятых сигналов и счётчики.
// Растёт без ограничений: сигналы не удаляются за время жизни процесса.
type Ledger struct {
	mu      sync.RWMutex
	signals []models.Signal
	stats   models.Stats
}

func NewLedger(startedAt time.Time) *Ledger {
	return &Ledger{stats: models.Stats{StartedAt: startedAt}}
}

// Append добавляет сигнал и обновляет счётчики. Сигнал без направления игнорируется.
func (l *Ledger) Append(sig models.Signal) {
	l.mu.Lock()
	defer l.mu.Unlock()

	switch sig.Side {
	case models.SideBuy:
		l.stats.BuySignals++
	case models.SideSell:
		l.stats.SellSignals++
	default:
		return
	}
	l.stats.TotalSignals++
	l.signals = append(l.signals, sig)
}

// All: копия истории в порядке добавления.
func (l *Ledger) All() []models.Signal {
	l.mu.RLock()
	defer l.mu.RUnlock()
	out := make([]models.Signal, len(l.signals))
	copy(out, l.signals)
	return out
}

// Recent: последние n сигналов, новые первыми. n <= 0 - все.
func (l *Ledger) Recent(n int) []models.Signal {
	l.mu.RLock()
	defer l.mu.RUnlock()

	if n <= 0 || n > len(l.signals) {
		n = len(l.signals)
	}
	out := make([]models.Signal, 0, n)
	for i := len(l.signals) - 1; i >= len(l.signals)-n; i-- {
		out = append(out, l.signals[i])
	}
	return out
}

func (l *Ledger) Stats() models.Stats {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return l.stats
}

func (l *Ledger) Len() int {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return len(l.signals)
}
