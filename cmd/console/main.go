// File: cmd/console/main.go
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"interview-analysis/internal/application"
	"interview-analysis/internal/config"
	"interview-analysis/internal/infra/api"
	"interview-analysis/internal/infra/logging"
	"interview-analysis/internal/infra/metrics"
	red "interview-analysis/internal/infra/redis"
)

var (
	version = "dev"
	commit  = "none"
)

func main() {
	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	// ---- CLI flags ----
	cfgPath := flag.String("config", "config.yaml", "path to YAML config file")
	envPath := flag.String("env", ".env", "optional .env file with ANALYSIS_* overrides")
	devMode := flag.Bool("dev", false, "enable developer mode")
	flag.Parse()

	if err := godotenv.Load(*envPath); err != nil && !errors.Is(err, os.ErrNotExist) {
		log.Printf("env: %v", err)
	}
	cfg, err := config.LoadConfig(*cfgPath, *devMode)
	if err != nil {
		log.Fatalf("config: %v", err)
	}
	logger := logging.New(cfg.Log, cfg.Runtime.Dev)
	if cfg.Runtime.Dev {
		logger.Info().Msg("[DEV MODE] Enabled")
	}

	metrics.MustRegister()
	metrics.SetBuildInfo(version, commit)

	app, err := application.New(ctx, cfg, logger, application.Options{})
	if err != nil {
		logger.Fatal().Err(err).Msg("startup failed")
	}
	defer app.Close()

	srv := api.NewServer(app.Analysis, app.History, logger).WithRequestTimeout(cfg.Console.RequestTimeout)
	if cfg.Console.SubmitLimit > 0 {
		limiter := red.NewRateLimiter(app.Redis)
		srv.WithSubmitLimit(api.RateLimit(limiter, red.SubmitKey, cfg.Console.SubmitLimit, cfg.Console.SubmitWindow, logger))
	}

	server := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.Console.Port),
		Handler:           srv.Routes(),
		ReadHeaderTimeout: 5 * time.Second,
	}
	go func() {
		logger.Info().Str("addr", server.Addr).Str("service", cfg.Service.BaseURL).Msg("console listening")
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error().Err(err).Msg("http server error")
			cancel()
		}
	}()

	// ---- Graceful shutdown ----
	<-ctx.Done()
	logger.Info().Msg("shutdown requested")
	shutdownCtx, stop := context.WithTimeout(context.Background(), 10*time.Second)
	defer stop()
	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Warn().Err(err).Msg("http shutdown")
	}
}
