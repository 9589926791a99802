package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/anonto42/nano-midea/engagement/internal/live"
	"github.com/anonto42/nano-midea/engagement/internal/metrics"
	"github.com/anonto42/nano-midea/engagement/internal/middleware"
	"github.com/anonto42/nano-midea/engagement/internal/repositories"
	"github.com/anonto42/nano-midea/engagement/internal/router"
	"github.com/anonto42/nano-midea/engagement/internal/validators"
	"github.com/anonto42/nano-midea/engagement/pkg/config"
	"github.com/anonto42/nano-midea/engagement/pkg/firebase"
	"github.com/anonto42/nano-midea/engagement/pkg/logger"
)

func main() {
	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		l := logger.L()
		l.Fatal().Err(err).Msg("failed to load configuration")
	}

	logger.Init(logger.Config{
		Level:       cfg.LogLevel,
		Pretty:      cfg.LogPretty,
		ServiceName: "engagement-api",
	})
	l := logger.L()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// Initialize database connections
	db, err := config.InitDB(cfg)
	if err != nil {
		l.Fatal().Err(err).Msg("failed to initialize databases")
	}
	defer db.CloseDB()

	verifier, err := identityVerifier(ctx, cfg, db)
	if err != nil {
		l.Fatal().Err(err).Msg("failed to initialize identity provider")
	}

	hub := live.NewHub()
	var (
		registry  live.Registry  = hub
		connector live.Connector = hub
		closeLive                = func(context.Context) { hub.CloseAll() }
	)
	if cfg.LiveBackend == "redis" {
		rr := live.NewRedisRegistry(db.Redis, hub)
		registry, connector, closeLive = rr, rr, rr.Close
		go rr.Run(ctx)
		l.Info().Str("addr", cfg.RedisAddr).Msg("live delivery relayed through redis")
	}

	e := echo.New()
	e.HideBanner = true
	e.Validator = validators.NewValidator()
	config.SetupMiddleware(e, l)

	fanout, err := router.SetupRoutes(e, router.Dependencies{
		Config:    cfg,
		DB:        db,
		Verifier:  verifier,
		Registry:  registry,
		Connector: connector,
	})
	if err != nil {
		l.Fatal().Err(err).Msg("failed to set up routes")
	}

	metricsSrv := &http.Server{Addr: ":" + cfg.MetricsPort, Handler: metrics.Handler()}
	go func() {
		if err := metricsSrv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			l.Error().Err(err).Msg("metrics server stopped")
		}
	}()

	go func() {
		l.Info().Str("port", cfg.Port).Str("env", cfg.Env).Msg("starting server")
		if err := e.Start(":" + cfg.Port); err != nil && !errors.Is(err, http.ErrServerClosed) {
			l.Fatal().Err(err).Msg("server stopped")
		}
	}()

	<-ctx.Done()
	l.Info().Msg("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()

	if err := e.Shutdown(shutdownCtx); err != nil {
		l.Error().Err(err).Msg("http shutdown")
	}
	if err := fanout.Drain(shutdownCtx); err != nil {
		l.Warn().Err(err).Msg("fan-out did not drain")
	}
	closeLive(shutdownCtx)
	if err := metricsSrv.Shutdown(shutdownCtx); err != nil {
		l.Error().Err(err).Msg("metrics shutdown")
	}
}

func identityVerifier(ctx context.Context, cfg *config.Config, db *config.DB) (middleware.IdentityVerifier, error) {
	if cfg.IdentityProvider != "firebase" {
		return middleware.NewJWTVerifier(cfg.JWTSecret), nil
	}

	app, err := firebase.InitFirebase(ctx, cfg.FirebaseCredentialsPath)
	if err != nil {
		return nil, err
	}
	return middleware.NewFirebaseVerifier(app, repositories.NewPostgresUserRepository(db.SQL)), nil
}
