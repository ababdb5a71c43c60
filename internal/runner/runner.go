package runner

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"

	"signal_bot/internal/metrics"
	"signal_bot/internal/models"
	"signal_bot/internal/notify"
	"signal_bot/internal/strategy"
	"signal_bot/pkg/logger"
	"signal_bot/pkg/tracing"
)

// MarketData: то, что раннеру нужно от биржи.
type MarketData interface {
	Ping(ctx context.Context) error
	RecentCandles(ctx context.Context, symbol, timeframe string, count int) ([]models.Candle, error)
	LastPrice(ctx context.Context, symbol string) (float64, error)
}

// symbolWatcher: провайдеры с ws-кэшем цены, которым надо знать о смене символа.
type symbolWatcher interface {
	Watch(symbol string)
}

// Outcome: чем закончился цикл анализа.
type Outcome string

const (
	OutcomeAccepted         Outcome = "accepted"
	OutcomeNoSignal         Outcome = "no_signal"
	OutcomeInsufficientData Outcome = "insufficient_data"
	OutcomeProviderError    Outcome = "provider_error"
	OutcomeSuppressed       Outcome = "suppressed"
	OutcomeDiscarded        Outcome = "discarded"
	OutcomeSkipped          Outcome = "skipped"
)

// Status: снимок состояния для API и Telegram.
type Status struct {
	State       models.LifecycleState `json:"state"`
	IsActive    bool                  `json:"isActive"`
	Config      models.StrategyConfig `json:"config"`
	Stats       models.Stats          `json:"stats"`
	LastFastMA  float64               `json:"lastFastMA"`
	LastSlowMA  float64               `json:"lastSlowMA"`
	LastPrice   float64               `json:"lastPrice"`
	Busy        bool                  `json:"busy"`
	LastCycleAt time.Time             `json:"lastCycleAt"`
	LastOutcome Outcome               `json:"lastOutcome,omitempty"`
}

// Runner: машина состояний INACTIVE/ACTIVE и цикл анализа по таймеру.
type Runner struct {
	// контекст приложения: сетевые вызовы цикла живут в нём, Stop их не обрывает
	base context.Context

	md     MarketData
	n      notify.Notifier
	m      *metrics.Metrics
	ledger *Ledger

	now     func() time.Time
	newID   func() string
	onCycle func(at time.Time)

	// одна ячейка: не больше одного цикла одновременно
	slot chan struct{}

	// сериализует Start/Stop между собой
	lifecycle sync.Mutex

	mu          sync.RWMutex
	state       models.LifecycleState
	epoch       uint64 // период ACTIVE: растёт на Start и Stop
	stops       uint64 // растёт только на Stop: результат цикла после Stop отбрасывается
	cfg         models.StrategyConfig
	cancel      context.CancelFunc
	lastSignal  *strategy.Mark
	lastFast    float64
	lastSlow    float64
	lastPrice   float64
	lastCycleAt time.Time
	lastOutcome Outcome
}

func New(base context.Context, md MarketData, n notify.Notifier, cfg models.StrategyConfig, m *metrics.Metrics) *Runner {
	if base == nil {
		base = context.Background()
	}
	return &Runner{
		base:   base,
		md:     md,
		n:      n,
		m:      m,
		ledger: NewLedger(time.Now()),
		slot:   make(chan struct{}, 1),
		now:    time.Now,
		newID:  uuid.NewString,
		state:  models.StateInactive,
		cfg:    cfg,
	}
}

// OnCycle: хук после каждого завершённого цикла (health).
func (r *Runner) OnCycle(fn func(at time.Time)) {
	r.mu.Lock()
	r.onCycle = fn
	r.mu.Unlock()
}

// Start переводит бота в ACTIVE, сразу прогоняет один цикл и взводит таймер.
// Если ячейка занята ручным циклом, стартовый цикл ждёт его завершения.
func (r *Runner) Start(ctx context.Context) error {
	r.lifecycle.Lock()

	if r.State() == models.StateActive {
		r.lifecycle.Unlock()
		return ErrAlreadyActive
	}
	if err := r.md.Ping(ctx); err != nil {
		r.lifecycle.Unlock()
		return fmt.Errorf("%w: %w", ErrConnectivity, err)
	}

	tickCtx, cancel := context.WithCancel(r.base)
	r.mu.Lock()
	r.state = models.StateActive
	r.epoch++
	r.cancel = cancel
	epoch, cfg := r.epoch, r.cfg
	r.mu.Unlock()
	r.lifecycle.Unlock()

	r.m.SetActive(true)
	logger.Info("[RUNNER] ▶️ started %s %s MA(%d)/MA(%d) every %s",
		cfg.Symbol, cfg.Timeframe, cfg.FastPeriod, cfg.SlowPeriod, cfg.PollInterval())
	r.announce(ctx, notify.FormatStarted(cfg))

	r.runCycle("start", &epoch, true)

	go r.loop(tickCtx, cfg.PollInterval(), epoch)
	return nil
}

// Stop гасит таймер. Цикл, который уже в полёте, доработает, но его результат отбросится.
func (r *Runner) Stop(ctx context.Context) error {
	r.lifecycle.Lock()
	defer r.lifecycle.Unlock()

	r.mu.Lock()
	if r.state != models.StateActive {
		r.mu.Unlock()
		return ErrNotActive
	}
	r.state = models.StateInactive
	r.epoch++
	r.stops++
	cancel := r.cancel
	r.cancel = nil
	r.mu.Unlock()

	if cancel != nil {
		cancel()
	}
	r.m.SetActive(false)
	logger.Info("[RUNNER] 🛑 stopped")
	r.announce(ctx, notify.StoppedText)
	return nil
}

// Analyze: ручной запуск цикла. Работает и в INACTIVE.
func (r *Runner) Analyze(_ context.Context) (Outcome, error) {
	out := r.runCycle("manual", nil, false)
	if out == OutcomeSkipped {
		return out, ErrCycleInFlight
	}
	return out, nil
}

func (r *Runner) loop(ctx context.Context, every time.Duration, epoch uint64) {
	t := time.NewTicker(every)
	defer t.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-t.C:
			go r.runCycle("timer", &epoch, false)
		}
	}
}

// runCycle: обёртка над analyze: ячейка, спан, метрики.
// activeEpoch != nil: цикл таймера/старта, который имеет смысл только в своей эпохе ACTIVE.
// wait: ждать освобождения ячейки вместо skip (цикл старта).
func (r *Runner) runCycle(trigger string, activeEpoch *uint64, wait bool) Outcome {
	if wait {
		r.slot <- struct{}{}
	} else {
		select {
		case r.slot <- struct{}{}:
		default:
			logger.Debug("[CYCLE] %s: previous cycle still running, skip", trigger)
			r.m.ObserveCycle(string(OutcomeSkipped), 0)
			return OutcomeSkipped
		}
	}
	defer func() { <-r.slot }()

	r.mu.RLock()
	epoch, stops, state, cfg, last := r.epoch, r.stops, r.state, r.cfg, r.lastSignal
	r.mu.RUnlock()

	if activeEpoch != nil && (state != models.StateActive || epoch != *activeEpoch) {
		return OutcomeDiscarded
	}

	span, ctx := tracing.StartSpan(r.base, "runner.cycle", map[string]any{
		"trigger":   trigger,
		"symbol":    cfg.Symbol,
		"timeframe": cfg.Timeframe,
	})
	defer span.Finish()

	started := r.now()
	out := r.analyze(ctx, stops, cfg, last)
	span.SetTag("outcome", string(out))
	r.m.ObserveCycle(string(out), r.now().Sub(started))

	r.mu.Lock()
	r.lastCycleAt = started
	r.lastOutcome = out
	hook := r.onCycle
	r.mu.Unlock()
	if hook != nil {
		hook(started)
	}
	return out
}

func (r *Runner) analyze(ctx context.Context, stops uint64, cfg models.StrategyConfig, last *strategy.Mark) Outcome {
	logger.Info("[CYCLE] 🔍 analyzing %s %s", cfg.Symbol, cfg.Timeframe)

	candles, err := r.md.RecentCandles(ctx, cfg.Symbol, cfg.Timeframe, cfg.CandleCount())
	if err != nil {
		logger.Error("[CYCLE] fetch candles %s: %v", cfg.Symbol, err)
		return OutcomeProviderError
	}
	if len(candles) < cfg.SlowPeriod {
		logger.Info("[CYCLE] ⚠️ insufficient data: %d candles, need %d", len(candles), cfg.SlowPeriod)
		return OutcomeInsufficientData
	}

	ev := strategy.Evaluate(models.Closes(candles), cfg.FastPeriod, cfg.SlowPeriod)
	r.mu.Lock()
	if ev.FastReady {
		r.lastFast = ev.FastCur
	}
	if ev.SlowReady {
		r.lastSlow = ev.SlowCur
	}
	r.mu.Unlock()
	if !ev.Ready {
		logger.Info("[CYCLE] ⚠️ unable to calculate moving averages: %s", ev.Dump())
		return OutcomeInsufficientData
	}

	if ev.Side == models.SideNone {
		logger.Info("[CYCLE] 📊 no signal | %s", ev.Dump())
		return OutcomeNoSignal
	}

	price, err := r.md.LastPrice(ctx, cfg.Symbol)
	if err != nil || price <= 0 {
		logger.Error("[CYCLE] unable to get current price %s: %v", cfg.Symbol, err)
		return OutcomeProviderError
	}
	r.mu.Lock()
	r.lastPrice = price
	r.mu.Unlock()

	ts := r.now().UnixMilli()
	if strategy.Suppressed(last, ev.Side, ts) {
		logger.Info("[CYCLE] 🔄 cooldown active, skipping duplicate %s signal", ev.Side)
		return OutcomeSuppressed
	}

	levels, err := strategy.CalcLevels(price, ev.Side, cfg.StopLossPercent, cfg.RiskRewardRatio)
	if err != nil {
		logger.Error("[CYCLE] levels: %v", err)
		return OutcomeNoSignal
	}

	sig := models.Signal{
		ID:         r.newID(),
		Symbol:     cfg.Symbol,
		Timeframe:  cfg.Timeframe,
		Side:       ev.Side,
		EntryPrice: price,
		StopLoss:   levels.StopLoss,
		TakeProfit: levels.TakeProfit,
		FastMA:     ev.FastCur,
		SlowMA:     ev.SlowCur,
		Timestamp:  ts,
	}

	if r.stoppedSince(stops) {
		logger.Info("[CYCLE] bot stopped, %s signal discarded", sig.Side)
		return OutcomeDiscarded
	}

	if err := r.n.Deliver(ctx, sig, cfg); err != nil {
		logger.Error("[NOTIFY] deliver %s %s: %v", sig.Side, sig.Symbol, err)
		r.m.DeliveryFailed()
	}

	r.mu.Lock()
	if r.stops != stops {
		r.mu.Unlock()
		logger.Info("[CYCLE] bot stopped during delivery, %s signal discarded", sig.Side)
		return OutcomeDiscarded
	}
	r.lastSignal = &strategy.Mark{Side: sig.Side, Timestamp: sig.Timestamp}
	r.ledger.Append(sig)
	r.mu.Unlock()

	r.m.SignalAccepted(string(sig.Side))
	logger.Info("[SIGNAL] 🎯 %s signal generated at $%.6f (SL %.6f, TP %.6f)",
		sig.Side, sig.EntryPrice, sig.StopLoss, sig.TakeProfit)
	return OutcomeAccepted
}

func (r *Runner) stoppedSince(stops uint64) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.stops != stops
}

func (r *Runner) announce(ctx context.Context, text string) {
	a, ok := r.n.(notify.Announcer)
	if !ok {
		return
	}
	if err := a.Announce(ctx, text); err != nil {
		logger.Warn("[NOTIFY] announce: %v", err)
	}
}

func (r *Runner) State() models.LifecycleState {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.state
}

func (r *Runner) Status() Status {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return Status{
		State:       r.state,
		IsActive:    r.state == models.StateActive,
		Config:      r.cfg,
		Stats:       r.ledger.Stats(),
		LastFastMA:  r.lastFast,
		LastSlowMA:  r.lastSlow,
		LastPrice:   r.lastPrice,
		Busy:        len(r.slot) > 0,
		LastCycleAt: r.lastCycleAt,
		LastOutcome: r.lastOutcome,
	}
}

func (r *Runner) Config() models.StrategyConfig {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.cfg
}

// Signals: вся история в порядке поступления.
func (r *Runner) Signals() []models.Signal { return r.ledger.All() }

// RecentSignals: последние n, новые первыми.
func (r *Runner) RecentSignals(n int) []models.Signal { return r.ledger.Recent(n) }

// UpdateConfig меняет символ/таймфрейм без проверки: ошибку покажет следующий цикл.
func (r *Runner) UpdateConfig(upd models.ConfigUpdate) models.StrategyConfig {
	r.mu.Lock()
	if upd.Symbol != "" {
		r.cfg.Symbol = upd.Symbol
	}
	if upd.Timeframe != "" {
		r.cfg.Timeframe = upd.Timeframe
	}
	cfg := r.cfg
	r.mu.Unlock()

	if w, ok := r.md.(symbolWatcher); ok && upd.Symbol != "" {
		w.Watch(cfg.Symbol)
	}
	logger.Info("[RUNNER] config updated: %s %s", cfg.Symbol, cfg.Timeframe)
	return cfg
}

// LastPrice: цена произвольного символа; пустой символ - текущий из конфига.
func (r *Runner) LastPrice(ctx context.Context, symbol string) (string, float64, error) {
	cfg := r.Config()
	if symbol == "" {
		symbol = cfg.Symbol
	}
	price, err := r.md.LastPrice(ctx, symbol)
	if err != nil {
		return symbol, 0, err
	}
	if symbol == cfg.Symbol {
		r.mu.Lock()
		r.lastPrice = price
		r.mu.Unlock()
	}
	return symbol, price, nil
}
