package runner

import "errors"

var (
	ErrAlreadyActive = errors.New("bot is already running")
	ErrNotActive     = errors.New("bot is not running")
	// ErrConnectivity: провайдер недоступен при старте.
	ErrConnectivity = errors.New("market data provider unreachable")
	// ErrCycleInFlight: ручной анализ, когда цикл уже идёт.
	ErrCycleInFlight = errors.New("analysis cycle already in progress")
)
