package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"golang.org/x/crypto/bcrypt"

	"github.com/dkeye/Duet/internal/adapters/assistant"
	"github.com/dkeye/Duet/internal/adapters/bus"
	router "github.com/dkeye/Duet/internal/adapters/http"
	wsignal "github.com/dkeye/Duet/internal/adapters/signal"
	"github.com/dkeye/Duet/internal/app"
	"github.com/dkeye/Duet/internal/app/orch"
	"github.com/dkeye/Duet/internal/config"
	"github.com/dkeye/Duet/internal/core"
	"github.com/dkeye/Duet/internal/metrics"
)

func main() {
	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	// Initialize zerolog global logger early so config.Load can use it.
	zerolog.TimeFieldFormat = zerolog.TimeFormatUnix
	log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr})
	zerolog.SetGlobalLevel(zerolog.InfoLevel)

	cfg, err := config.Load()
	if err != nil {
		log.Fatal().Err(err).Msg("failed to load config")
	}
	if lvl, err := zerolog.ParseLevel(cfg.LogLevel); err == nil {
		zerolog.SetGlobalLevel(lvl)
	}

	password, err := passwordChecker(cfg.Room)
	if err != nil {
		log.Fatal().Err(err).Msg("admin password")
	}
	if password == nil {
		log.Warn().Msg("no admin password configured, any admin join is accepted")
	}

	conns := app.NewRegistry()
	m := metrics.New()
	m.WatchConnections(conns.Count)

	policy, err := app.PolicyByName(cfg.Limits.Backpressure)
	if err != nil {
		log.Fatal().Err(err).Msg("backpressure policy")
	}
	var gw core.Gateway = wsignal.NewGateway(conns, policy)
	if cfg.Redis.Addr != "" {
		rdb, err := bus.Connect(ctx, cfg.Redis.Addr)
		if err != nil {
			log.Fatal().Err(err).Str("addr", cfg.Redis.Addr).Msg("redis")
		}
		defer rdb.Close()
		mirror := bus.NewMirror(gw, rdb, cfg.Redis.Channel)
		go mirror.Run(ctx)
		gw = mirror
		log.Info().Str("addr", cfg.Redis.Addr).Str("channel", cfg.Redis.Channel).Msg("event mirror enabled")
	}

	room := core.NewRegistry(password, cfg.Room.HistorySize, cfg.Room.MaxPending)
	coord := core.NewCoordinator(room, core.SweepPolicy{
		Inactivity:   cfg.Timeouts.InactivityTimeout,
		SessionLimit: cfg.Timeouts.SessionLimit,
		WarningAt:    cfg.Timeouts.SessionWarning,
	})

	o := orch.New(ctx, orch.Deps{
		Coordinator:   coord,
		Gateway:       gw,
		Conns:         conns,
		Metrics:       m,
		Assistant:     newAssistant(cfg.Assistant),
		SweepInterval: cfg.Timeouts.SweepInterval,
	})
	go o.Run(ctx)

	r := router.SetupRouter(ctx, cfg, o, m)
	addr := fmt.Sprintf(":%d", cfg.Port)

	srv := &http.Server{
		Addr:              addr,
		Handler:           router.Handler(cfg, r),
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		log.Info().Str("addr", addr).Msg("Duet server started")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Error().Err(err).Msg("server error")
			cancel()
		}
	}()

	<-ctx.Done()
	log.Info().Msg("Shutting down")
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer shutdownCancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("Server forced to shutdown")
	}
	o.Wait()
	log.Info().Msg("Server exited gracefully")
}

func passwordChecker(cfg config.RoomConfig) (core.PasswordChecker, error) {
	if cfg.AdminPasswordHash != "" {
		return app.NewHashChecker(cfg.AdminPasswordHash)
	}
	return app.NewPasswordChecker(cfg.AdminPassword, bcrypt.DefaultCost)
}

func newAssistant(cfg config.AssistantConfig) *orch.Assistant {
	if !cfg.Enabled() {
		log.Info().Msg("assistant disabled, no API key")
		return nil
	}
	return &orch.Assistant{
		Responder: assistant.New(assistant.Config{
			APIKey:      cfg.APIKey,
			BaseURL:     cfg.BaseURL,
			Model:       cfg.Model,
			MaxTokens:   cfg.MaxTokens,
			Temperature: cfg.Temperature,
		}),
		Name:     cfg.Name,
		MinDelay: cfg.MinDelay,
		MaxDelay: cfg.MaxDelay,
		Timeout:  cfg.Timeout,
		History:  cfg.History,
	}
}
