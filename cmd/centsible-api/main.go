package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"centsible/internal/advisor"
	"centsible/internal/api"
	"centsible/internal/config"
	"centsible/internal/game"
	"centsible/internal/store"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	cfg := config.LoadAPIFromEnv()
	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelInfo}))

	var snapshots *store.Store
	if cfg.DatabaseURL != "" {
		var err error
		snapshots, err = store.Connect(ctx, cfg.DatabaseURL)
		if err != nil {
			logger.Error("db connect failed", "err", err)
			os.Exit(1)
		}
		defer snapshots.Close()
	}

	session := game.NewSession(startingOverrides(cfg), cfg.RandSeed, logger)
	if snapshots != nil {
		saved, err := snapshots.LoadLatest(ctx)
		switch {
		case err == nil:
			session.Restore(saved)
		case errors.Is(err, store.ErrNoSnapshot):
			logger.Info("no saved game; starting fresh")
		default:
			logger.Error("snapshot load failed", "err", err)
			os.Exit(1)
		}
	}

	advisorClient := advisor.NewClient(cfg.AdvisorURL, cfg.AdvisorAPIKey)
	server := api.New(cfg, logger, session, advisorClient, snapshots)
	httpServer := &http.Server{
		Addr:              cfg.Addr,
		Handler:           server.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	if cfg.AutoAdvanceEvery > 0 {
		go autoAdvance(ctx, logger, session, cfg.AutoAdvanceEvery)
	}

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
		defer cancel()
		_ = httpServer.Shutdown(shutdownCtx)
	}()

	logger.Info("centsible api listening", "addr", cfg.Addr)
	if err := httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		logger.Error("server failed", "err", err)
		os.Exit(1)
	}
}

// autoAdvance ticks the simulation forward on a timer so the game keeps
// moving without a client. It stops ticking once the game is over and never
// resolves events; those wait for the player.
func autoAdvance(ctx context.Context, logger *slog.Logger, session *game.Session, every time.Duration) {
	ticker := time.NewTicker(every)
	defer ticker.Stop()

	logger.Info("auto-advance enabled", "every", every.String())
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			_, event, err := session.AdvanceMonth()
			if errors.Is(err, game.ErrGameOver) {
				logger.Info("auto-advance stopped", "reason", "game over")
				return
			}
			if err != nil {
				logger.Error("auto-advance failed", "err", err)
				continue
			}
			if event != nil {
				logger.Info("event awaiting player choice", "event", event.ID)
			}
		}
	}
}

func startingOverrides(cfg config.APIConfig) *game.StateOverrides {
	o := &game.StateOverrides{
		Cash:            cfg.StartingCash,
		MonthlyIncome:   cfg.StartingIncome,
		MonthlyExpenses: cfg.StartingExpenses,
		Debt:            cfg.StartingDebt,
	}
	if cfg.PlayerName != "" {
		o.PlayerName = &cfg.PlayerName
	}
	return o
}
