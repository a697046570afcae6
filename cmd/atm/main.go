package main

import (
	"context"
	"errors"
	"github.com/koyif/atm/internal/app"
	"github.com/koyif/atm/internal/config"
	"github.com/koyif/atm/pkg/logger"
	"log"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"
)

func main() {
	cfg, err := config.Load(os.Args[1:])
	if err != nil {
		log.Fatalf("error loading config: %v", err)
	}

	if err = logger.Initialize(cfg.LogLevel); err != nil {
		log.Fatalf("error starting logger: %v", err)
	}
	defer logger.Sync()

	logger.Log.Info("loaded config",
		logger.String("ledger", cfg.LedgerDriver),
		logger.Duration("login_timeout", cfg.LoginTimeout),
		logger.String("health_address", cfg.HealthAddr),
	)

	a, err := app.New(cfg)
	if err != nil {
		logger.Log.Fatal("error creating app", logger.Error(err))
	}

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGTERM, syscall.SIGINT)
	defer cancel()

	var server *http.Server
	if cfg.HealthAddr != "" {
		server = &http.Server{
			Addr:              cfg.HealthAddr,
			Handler:           a.Router(),
			ReadHeaderTimeout: 5 * time.Second,
			BaseContext: func(_ net.Listener) context.Context {
				return ctx
			},
		}
		go startServer(server)
	}

	exitCode := 0
	terminalDone := make(chan error, 1)
	go func() {
		terminalDone <- a.RunTerminal(ctx, os.Stdin, os.Stdout)
	}()

	select {
	case <-ctx.Done():
		logger.Log.Info("shutting down")
	case err = <-terminalDone:
		if err != nil {
			logger.Log.Error("terminal stopped", logger.Error(err))
			exitCode = 1
		}
	}

	if server != nil {
		logger.Log.Info("stopping server")
		shutdownCtx, cancelShutdown := context.WithTimeout(context.Background(), 5*time.Second)
		if err = server.Shutdown(shutdownCtx); err != nil {
			logger.Log.Error("error shutting down server", logger.Error(err))
		}
		cancelShutdown()
		logger.Log.Info("server stopped")
	}

	logger.Log.Info("closing ledger")
	if err = a.Close(); err != nil {
		logger.Log.Error("error closing ledger", logger.Error(err))
	}

	logger.Log.Info("shutdown complete")
	if exitCode != 0 {
		logger.Sync()
		os.Exit(exitCode)
	}
}

func startServer(server *http.Server) {
	logger.Log.Info("starting health server", logger.String("address", server.Addr))
	if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		logger.Log.Error("server error", logger.Error(err))
	}
}
