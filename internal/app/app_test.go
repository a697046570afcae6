package app

import (
	"bytes"
	"context"
	"encoding/json"
	"github.com/koyif/atm/internal/config"
	"github.com/koyif/atm/pkg/dto"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"
)

func memoryConfig() *config.Config {
	return &config.Config{
		LedgerDriver:      config.DriverMemory,
		LoginTimeout:      time.Minute,
		CashPoolAccountID: "bankcorp-atm",
		Denomination:      2000,
		OverdraftFee:      500,
	}
}

func TestNewMemoryApp(t *testing.T) {
	a, err := New(memoryConfig())
	require.NoError(t, err)
	t.Cleanup(func() { require.NoError(t, a.Close()) })

	script := strings.Join([]string{
		"authorize bankcorp-atm 2345",
		"authorize user1 1234",
		"deposit 10",
		"withdraw 20",
		"logout",
		"authorize brokeuser 1230",
		"withdraw 20",
		"end",
	}, "\n")
	var out bytes.Buffer

	require.NoError(t, a.RunTerminal(context.Background(), strings.NewReader(script), &out))

	got := out.String()
	assert.Contains(t, got, "Authorization failed.")
	assert.Contains(t, got, "user1 successfully authorized.")
	assert.Contains(t, got, "Current balance: $310.48")
	assert.Contains(t, got, "Amount dispensed: $20\nCurrent balance: $290.48")
	assert.Contains(t, got, "Account user1 logged out.")
	assert.Contains(t, got, "Your account is overdrawn! You may not make withdrawals at this time.")

	pool, err := a.Ledger.Balance(context.Background(), "bankcorp-atm")
	require.NoError(t, err)
	assert.Equal(t, int64(seedCashPool+1000-2000), pool)
}

func TestNewUnknownDriver(t *testing.T) {
	cfg := memoryConfig()
	cfg.LedgerDriver = "sqlite"

	_, err := New(cfg)
	assert.Error(t, err)
}

func TestRouterHealth(t *testing.T) {
	a, err := New(memoryConfig())
	require.NoError(t, err)
	t.Cleanup(func() { require.NoError(t, a.Close()) })

	srv := httptest.NewServer(a.Router())
	t.Cleanup(srv.Close)

	resp, err := http.Get(srv.URL + "/healthz")
	require.NoError(t, err)
	_ = resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	_, err = a.Dispatcher.Execute(context.Background(), "authorize user1 1234")
	require.NoError(t, err)

	resp, err = http.Get(srv.URL + "/readyz")
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	var health dto.Health
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&health))
	assert.Equal(t, dto.Health{Status: "ok", Ledger: config.DriverMemory, ActiveSession: true}, health)
}
