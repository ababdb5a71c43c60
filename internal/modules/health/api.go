package health

import (
	"context"
	"errors"
	"io"
	"net/http"
	"strconv"
	"time"

	"github.com/bytedance/sonic"

	"signal_bot/internal/models"
	"signal_bot/internal/runner"
	"signal_bot/pkg/logger"
)

// Controller: поверхность раннера, которую отдаёт REST.
type Controller interface {
	Start(ctx context.Context) error
	Stop(ctx context.Context) error
	Analyze(ctx context.Context) (runner.Outcome, error)
	Status() runner.Status
	Signals() []models.Signal
	RecentSignals(n int) []models.Signal
	UpdateConfig(upd models.ConfigUpdate) models.StrategyConfig
	LastPrice(ctx context.Context, symbol string) (string, float64, error)
}

type commandResponse struct {
	Success bool   `json:"success"`
	Message string `json:"message,omitempty"`
	Error   string `json:"error,omitempty"`
	// для analyze/config: дополнительные данные
	Outcome runner.Outcome         `json:"outcome,omitempty"`
	Config  *models.StrategyConfig `json:"config,omitempty"`
}

type api struct {
	ctl Controller
}

func registerAPI(mux *http.ServeMux, ctl Controller) {
	a := &api{ctl: ctl}
	mux.HandleFunc("GET /api/status", a.status)
	mux.HandleFunc("GET /api/signals", a.signals)
	mux.HandleFunc("POST /api/start", a.start)
	mux.HandleFunc("POST /api/stop", a.stop)
	mux.HandleFunc("POST /api/analyze", a.analyze)
	mux.HandleFunc("PUT /api/config", a.updateConfig)
	mux.HandleFunc("GET /api/price/{symbol}", a.price)
}

func (a *api) status(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, a.ctl.Status())
}

// ?limit=N: последние N, новые первыми; без limit - вся история по порядку.
func (a *api) signals(w http.ResponseWriter, r *http.Request) {
	var out []models.Signal
	if raw := r.URL.Query().Get("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 0 {
			writeJSON(w, http.StatusBadRequest, commandResponse{Error: "limit must be a non-negative integer"})
			return
		}
		out = a.ctl.RecentSignals(n)
	} else {
		out = a.ctl.Signals()
	}
	if out == nil {
		out = []models.Signal{}
	}
	writeJSON(w, http.StatusOK, map[string]any{"signals": out})
}

func (a *api) start(w http.ResponseWriter, r *http.Request) {
	if err := a.ctl.Start(r.Context()); err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, commandResponse{Success: true, Message: "Bot started successfully"})
}

func (a *api) stop(w http.ResponseWriter, r *http.Request) {
	if err := a.ctl.Stop(r.Context()); err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, commandResponse{Success: true, Message: "Bot stopped successfully"})
}

func (a *api) analyze(w http.ResponseWriter, r *http.Request) {
	out, err := a.ctl.Analyze(r.Context())
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, commandResponse{Success: true, Message: "Market analysis completed", Outcome: out})
}

func (a *api) updateConfig(w http.ResponseWriter, r *http.Request) {
	body, err := io.ReadAll(io.LimitReader(r.Body, 1<<16))
	if err != nil {
		writeJSON(w, http.StatusBadRequest, commandResponse{Error: err.Error()})
		return
	}
	var upd models.ConfigUpdate
	if err := sonic.Unmarshal(body, &upd); err != nil {
		writeJSON(w, http.StatusBadRequest, commandResponse{Error: "invalid JSON body"})
		return
	}
	cfg := a.ctl.UpdateConfig(upd)
	writeJSON(w, http.StatusOK, commandResponse{Success: true, Message: "Configuration updated", Config: &cfg})
}

func (a *api) price(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 15*time.Second)
	defer cancel()

	symbol, p, err := a.ctl.LastPrice(ctx, r.PathValue("symbol"))
	if err != nil {
		writeJSON(w, http.StatusBadGateway, map[string]string{"error": err.Error()})
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"symbol": symbol, "price": p})
}

func writeError(w http.ResponseWriter, err error) {
	code := http.StatusInternalServerError
	switch {
	case errors.Is(err, runner.ErrAlreadyActive),
		errors.Is(err, runner.ErrNotActive),
		errors.Is(err, runner.ErrCycleInFlight):
		code = http.StatusConflict
	case errors.Is(err, runner.ErrConnectivity):
		code = http.StatusBadGateway
	}
	writeJSON(w, code, commandResponse{Error: err.Error()})
}

func writeJSON(w http.ResponseWriter, code int, v any) {
	body, err := sonic.Marshal(v)
	if err != nil {
		logger.Error("[HTTP] marshal response: %v", err)
		http.Error(w, "internal error", http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_, _ = w.Write(body)
}
