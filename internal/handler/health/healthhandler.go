package healthhandler

import (
	"context"
	"encoding/json"
	"github.com/koyif/atm/pkg/dto"
	"github.com/koyif/atm/pkg/logger"
	"net/http"
)

type pinger interface {
	Ping(ctx context.Context) error
}

type sessionReporter interface {
	Active() bool
}

type HealthHandler struct {
	ledgerName string
	ledger     pinger
	sessions   sessionReporter
}

func New(ledgerName string, ledger pinger, sessions sessionReporter) *HealthHandler {
	return &HealthHandler{
		ledgerName: ledgerName,
		ledger:     ledger,
		sessions:   sessions,
	}
}

func (h HealthHandler) Live(w http.ResponseWriter, _ *http.Request) {
	w.WriteHeader(http.StatusOK)
}

func (h HealthHandler) Ready(w http.ResponseWriter, r *http.Request) {
	resp := dto.Health{
		Status:        "ok",
		Ledger:        h.ledgerName,
		ActiveSession: h.sessions.Active(),
	}
	status := http.StatusOK

	if err := h.ledger.Ping(r.Context()); err != nil {
		logger.Log.Error("ledger is unreachable", logger.String("ledger", h.ledgerName), logger.Error(err))
		resp.Status = "unavailable"
		resp.Error = err.Error()
		status = http.StatusServiceUnavailable
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(resp); err != nil {
		logger.Log.Error("error while encoding health to JSON", logger.Error(err))
	}
}
