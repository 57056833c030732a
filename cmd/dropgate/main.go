package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/alpha-markets/dropgate/internal/config"
	"github.com/alpha-markets/dropgate/internal/httpapi"
	"github.com/alpha-markets/dropgate/internal/paywall"
	"github.com/alpha-markets/dropgate/internal/store"
	"github.com/alpha-markets/dropgate/pkg/logx"
	"github.com/alpha-markets/dropgate/pkg/network"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		logx.Fatal().Err(err).Msg("failed to load configuration")
	}
	logx.Init(logx.ParseEnvironment(cfg.Environment))

	ctx := context.Background()

	st, cleanup, err := buildStore(ctx, cfg)
	if err != nil {
		logx.Fatal().Err(err).Msg("failed to initialize store")
	}
	defer cleanup()

	deployment, err := network.GetUSDCDeployment(cfg.SettlementNetwork())
	if err != nil {
		logx.Fatal().Err(err).Str("network", cfg.Network).Msg("unsupported settlement network")
	}

	facilitator := paywall.NewClient(cfg.FacilitatorURL)
	gateway := paywall.New(st, facilitator, paywall.Config{
		Network:           cfg.SettlementNetwork(),
		Asset:             deployment.TokenAddress,
		MaxTimeoutSeconds: cfg.MaxTimeoutSeconds,
	})

	// Reachability check only; a facilitator outage should not block boot.
	probeCtx, probeCancel := context.WithTimeout(ctx, 5*time.Second)
	if kinds, err := facilitator.Supported(probeCtx); err != nil {
		logx.Warn().Err(err).Str("url", cfg.FacilitatorURL).Msg("facilitator not reachable")
	} else {
		logx.Info().Int("kinds", len(kinds.Kinds)).Str("url", cfg.FacilitatorURL).Msg("facilitator reachable")
	}
	probeCancel()

	app := httpapi.NewApp(st, gateway)
	mux := http.NewServeMux()
	app.SetupRoutes(mux)

	limiter := httpapi.NewRateLimiter(cfg.RateLimitPerMinute, cfg.RateLimitBurst)
	var handler http.Handler = mux
	handler = httpapi.LoggingMiddleware(handler)
	handler = httpapi.RateLimitMiddleware(limiter)(handler)
	handler = httpapi.SizeLimitMiddleware(handler, cfg.MaxRequestBytes)
	handler = httpapi.CORSMiddleware(handler)
	handler = httpapi.RequestIDMiddleware(handler)

	server := &http.Server{
		Addr:         cfg.Addr(),
		Handler:      handler,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		logx.Info().
			Str("addr", cfg.Addr()).
			Str("network", cfg.Network).
			Msg("starting dropgate")
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logx.Fatal().Err(err).Msg("server failed")
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logx.Info().Msg("shutting down server")

	shutdownCtx, cancel := context.WithTimeout(ctx, cfg.ShutdownTimeout())
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		logx.Fatal().Err(err).Msg("server forced to shutdown")
	}

	logx.Info().Msg("server exited")
}

// buildStore selects the storage backend from configuration: Postgres when
// DATABASE_URL is set, otherwise in-memory; optionally wrapped with the
// Redis stats cache.
func buildStore(ctx context.Context, cfg *config.Config) (store.Store, func(), error) {
	cleanup := func() {}

	var st store.Store
	if cfg.DatabaseURL != "" {
		pg, err := store.NewPostgres(ctx, cfg.DatabaseURL)
		if err != nil {
			return nil, cleanup, err
		}
		if err := pg.EnsureSchema(ctx); err != nil {
			pg.Close()
			return nil, cleanup, err
		}
		st = pg
		cleanup = pg.Close
		logx.Info().Msg("using postgres store")
	} else {
		st = store.NewMemory()
		logx.Info().Msg("using in-memory store")
	}

	if cfg.RedisURL != "" {
		client, err := store.NewRedisClient(ctx, cfg.RedisURL)
		if err != nil {
			return nil, cleanup, err
		}
		st = store.NewStatsCache(st, client, cfg.StatsCacheTTL())
		logx.Info().Dur("ttl", cfg.StatsCacheTTL()).Msg("seller stats cache enabled")
	}

	return st, cleanup, nil
}
