package app

import (
	"context"
	"database/sql"
	"fmt"

	_ "github.com/jackc/pgx/v5/stdlib"
	"github.com/koyif/atm/internal/config"
	"github.com/koyif/atm/internal/dispatcher"
	"github.com/koyif/atm/internal/domain"
	"github.com/koyif/atm/internal/memory"
	"github.com/koyif/atm/internal/postgres"
	"github.com/koyif/atm/internal/service"
	"github.com/koyif/atm/pkg/logger"
)

type ledger interface {
	service.Ledger
	Ping(ctx context.Context) error
}

type App struct {
	Config     *config.Config
	DB         *sql.DB
	Ledger     ledger
	Dispatcher *dispatcher.Dispatcher
}

func New(cfg *config.Config) (*App, error) {
	a := &App{Config: cfg}

	switch cfg.LedgerDriver {
	case config.DriverPostgres:
		db, err := initDB(cfg.DatabaseURL)
		if err != nil {
			return nil, err
		}
		if cfg.Migrate {
			if err = postgres.Migrate(db); err != nil {
				_ = db.Close()
				return nil, err
			}
		}
		a.DB = db
		a.Ledger = postgres.New(db, service.BcryptVerifier{})
	case config.DriverMemory:
		l, err := initMemory(cfg.CashPoolAccountID)
		if err != nil {
			return nil, err
		}
		a.Ledger = l
	default:
		return nil, fmt.Errorf("unknown ledger driver %q", cfg.LedgerDriver)
	}

	policy := service.Policy{
		Denomination: cfg.Denomination,
		OverdraftFee: cfg.OverdraftFee,
	}
	txs := service.NewTransactionService(a.Ledger, policy, cfg.CashPoolAccountID)
	a.Dispatcher = dispatcher.New(txs, dispatcher.NewTimer(), cfg.LoginTimeout)

	logger.Log.Info("ledger ready", logger.String("driver", cfg.LedgerDriver))
	return a, nil
}

func (a *App) Close() error {
	a.Dispatcher.Close()
	if a.DB == nil {
		return nil
	}
	return a.DB.Close()
}

func initDB(url string) (*sql.DB, error) {
	db, err := sql.Open("pgx", url)
	if err != nil {
		return nil, fmt.Errorf("error opening database: %w", err)
	}

	if err = db.Ping(); err != nil {
		closeErr := db.Close()
		if closeErr != nil {
			return nil, fmt.Errorf("error closing database after ping failure: %w", closeErr)
		}
		return nil, fmt.Errorf("error pinging database: %w", err)
	}

	return db, nil
}

var seedAccounts = []domain.Account{
	{ID: "user1", PIN: "1234", Balance: 30048},
	{ID: "cooluser", PIN: "8923", Balance: 57823},
	{ID: "brokeuser", PIN: "1230", Balance: -3024},
}

const seedCashPool = 1_000_000

// initMemory provisions the same accounts the database migrations seed.
func initMemory(cashPoolID string) (*memory.Ledger, error) {
	l := memory.New(service.BcryptVerifier{})

	accounts := append([]domain.Account{{ID: cashPoolID, PIN: "2345", Balance: seedCashPool}}, seedAccounts...)
	for _, acc := range accounts {
		hash, err := service.HashPIN(acc.PIN)
		if err != nil {
			return nil, err
		}
		acc.PIN = hash
		if err = l.Add(acc); err != nil {
			return nil, fmt.Errorf("error seeding account: %w", err)
		}
	}

	return l, nil
}
