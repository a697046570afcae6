package config

import (
	"flag"
	"fmt"
	"github.com/ilyakaznacheev/cleanenv"
	"time"
)

const (
	DriverPostgres = "postgres"
	DriverMemory   = "memory"
)

type Config struct {
	DatabaseURL       string        `env:"DATABASE_URI"`
	LedgerDriver      string        `env:"LEDGER_DRIVER"`
	Migrate           bool          `env:"MIGRATE" env-default:"true"`
	LoginTimeout      time.Duration `env:"LOGIN_TIMEOUT"`
	CashPoolAccountID string        `env:"CASH_POOL_ACCOUNT_ID" env-default:"bankcorp-atm"`
	Denomination      int64         `env:"DENOMINATION" env-default:"2000"`
	OverdraftFee      int64         `env:"OVERDRAFT_FEE" env-default:"500"`
	LogLevel          string        `env:"LOG_LEVEL" env-default:"info"`
	HealthAddr        string        `env:"HEALTH_ADDRESS"`
}

// Load reads flags from args and then lets environment variables override them.
func Load(args []string) (*Config, error) {
	cfg := &Config{}

	fs := flag.NewFlagSet("atm", flag.ContinueOnError)
	fs.StringVar(&cfg.DatabaseURL, "d", "", "database URL")
	fs.StringVar(&cfg.LedgerDriver, "l", DriverPostgres, "ledger driver: postgres or memory")
	fs.DurationVar(&cfg.LoginTimeout, "t", 2*time.Minute, "inactivity timeout before automatic logout")
	fs.StringVar(&cfg.HealthAddr, "a", "", "health endpoint address, empty to disable")

	if err := fs.Parse(args); err != nil {
		return nil, fmt.Errorf("couldn't parse flags: %w", err)
	}

	if err := cleanenv.ReadEnv(cfg); err != nil {
		return nil, fmt.Errorf("couldn't read environment variables: %w", err)
	}

	if err := cfg.validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

func (c *Config) validate() error {
	switch c.LedgerDriver {
	case DriverPostgres:
		if c.DatabaseURL == "" {
			return fmt.Errorf("database URL is required for the %s ledger", DriverPostgres)
		}
	case DriverMemory:
	default:
		return fmt.Errorf("unknown ledger driver %q", c.LedgerDriver)
	}

	if c.LoginTimeout <= 0 {
		return fmt.Errorf("login timeout must be positive, got %s", c.LoginTimeout)
	}
	if c.Denomination <= 0 {
		return fmt.Errorf("denomination must be positive, got %d", c.Denomination)
	}
	if c.OverdraftFee < 0 {
		return fmt.Errorf("overdraft fee must not be negative, got %d", c.OverdraftFee)
	}
	if c.CashPoolAccountID == "" {
		return fmt.Errorf("cash pool account id is required")
	}

	return nil
}
