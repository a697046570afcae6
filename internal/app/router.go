package app

import (
	"github.com/go-chi/chi/v5"
	"github.com/koyif/atm/internal/dispatcher"
	"github.com/koyif/atm/internal/handler/health"
)

type dispatcherSessions struct {
	d *dispatcher.Dispatcher
}

func (s dispatcherSessions) Active() bool {
	_, ok := s.d.Session().AccountID()
	return ok
}

func (a *App) Router() *chi.Mux {
	r := chi.NewRouter()

	healthHandler := healthhandler.New(a.Config.LedgerDriver, a.Ledger, dispatcherSessions{d: a.Dispatcher})

	r.Get("/healthz", healthHandler.Live)
	r.Get("/readyz", healthHandler.Ready)

	return r
}
