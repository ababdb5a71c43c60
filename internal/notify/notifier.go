package notify

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"golang.org/x/sync/errgroup"

	"signal_bot/internal/models"
	"signal_bot/pkg/logger"
)

// Notifier доставляет принятый сигнал во внешний канал.
// Ошибка доставки для пайплайна не фатальна.
type Notifier interface {
	Deliver(ctx context.Context, sig models.Signal, cfg models.StrategyConfig) error
}

// Announcer: опционально: служебные сообщения (старт/стоп бота).
type Announcer interface {
	Announce(ctx context.Context, text string) error
}

// DeliveryError: ошибка конкретного бэкенда.
type DeliveryError struct {
	Backend string
	Err     error
}

func (e *DeliveryError) Error() string {
	return fmt.Sprintf("deliver via %s: %v", e.Backend, e.Err)
}

func (e *DeliveryError) Unwrap() error { return e.Err }

// Backend: именованный нотифайер для Multi.
type Backend struct {
	Name     string
	Notifier Notifier
}

// Multi рассылает сигнал во все бэкенды параллельно и собирает ошибки.
type Multi struct {
	backends []Backend
}

func NewMulti(backends ...Backend) *Multi {
	return &Multi{backends: backends}
}

func (m *Multi) Names() []string {
	names := make([]string, 0, len(m.backends))
	for _, b := range m.backends {
		names = append(names, b.Name)
	}
	return names
}

func (m *Multi) Deliver(ctx context.Context, sig models.Signal, cfg models.StrategyConfig) error {
	return m.each(ctx, func(ctx context.Context, b Backend) error {
		return b.Notifier.Deliver(ctx, sig, cfg)
	})
}

func (m *Multi) Announce(ctx context.Context, text string) error {
	return m.each(ctx, func(ctx context.Context, b Backend) error {
		a, ok := b.Notifier.(Announcer)
		if !ok {
			return nil
		}
		return a.Announce(ctx, text)
	})
}

// each не отменяет остальные бэкенды при ошибке одного: ошибки копятся.
func (m *Multi) each(ctx context.Context, fn func(context.Context, Backend) error) error {
	var (
		mu   sync.Mutex
		errs []error
	)
	var g errgroup.Group
	for _, b := range m.backends {
		g.Go(func() error {
			if err := fn(ctx, b); err != nil {
				var de *DeliveryError
				if !errors.As(err, &de) {
					err = &DeliveryError{Backend: b.Name, Err: err}
				}
				mu.Lock()
				errs = append(errs, err)
				mu.Unlock()
			}
			return nil
		})
	}
	_ = g.Wait()
	return errors.Join(errs...)
}

// Close закрывает бэкенды, которые держат соединения.
func (m *Multi) Close() error {
	var errs []error
	for _, b := range m.backends {
		if c, ok := b.Notifier.(interface{ Close() error }); ok {
			if err := c.Close(); err != nil {
				errs = append(errs, fmt.Errorf("close %s: %w", b.Name, err))
			}
		}
	}
	return errors.Join(errs...)
}

// Log: пишет сигнал в лог. Бэкенд по умолчанию.
type Log struct{}

func NewLog() *Log { return &Log{} }

func (l *Log) Deliver(_ context.Context, sig models.Signal, cfg models.StrategyConfig) error {
	logger.Info("[NOTIFY] %s %s @ %.6f | TP=%.6f SL=%.6f | MA(%d)=%.6f MA(%d)=%.6f | %s",
		sig.Side, sig.Symbol, sig.EntryPrice, sig.TakeProfit, sig.StopLoss,
		cfg.FastPeriod, sig.FastMA, cfg.SlowPeriod, sig.SlowMA, sig.Timeframe)
	return nil
}

func (l *Log) Announce(_ context.Context, text string) error {
	logger.Info("[NOTIFY] %s", text)
	return nil
}
