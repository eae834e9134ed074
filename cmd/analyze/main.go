// File: cmd/analyze/main.go
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/rs/zerolog"

	"interview-analysis/internal/application"
	"interview-analysis/internal/config"
	"interview-analysis/internal/domain"
	"interview-analysis/internal/domain/model"
	"interview-analysis/internal/infra/logging"
	"interview-analysis/internal/infra/presenter"
)

func main() {
	os.Exit(run())
}

func run() int {
	// ---- CLI flags ----
	cfgPath := flag.String("config", "config.yaml", "path to YAML config file")
	envPath := flag.String("env", ".env", "optional .env file with ANALYSIS_* overrides")
	devMode := flag.Bool("dev", false, "developer mode (console logs, no redaction of log fields)")
	video := flag.String("video", "", "video locator, e.g. s3://bucket/interview.mp4")
	prompt := flag.String("prompt", "", "custom analysis prompt")
	question := flag.String("question", "", "original interview question")
	color := flag.Bool("color", false, "colorize the result")
	listHistory := flag.Bool("history", false, "print previously submitted video locators and exit")
	clearHistory := flag.Bool("clear-history", false, "forget previously submitted video locators and exit")
	flag.Parse()

	if err := godotenv.Load(*envPath); err != nil && !errors.Is(err, os.ErrNotExist) {
		log.Printf("env: %v", err)
	}

	cfg, err := config.LoadConfig(*cfgPath, *devMode)
	if err != nil {
		log.Printf("config: %v", err)
		return 2
	}
	if cfg.Log.Output == "" {
		// stdout carries the result
		cfg.Log.Output = "stderr"
	}
	logger := logging.New(cfg.Log, cfg.Runtime.Dev)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	app, err := application.New(ctx, cfg, logger, application.Options{})
	if err != nil {
		logger.Error().Err(err).Msg("startup failed")
		return 2
	}
	defer func() {
		if err := app.Close(); err != nil {
			logger.Warn().Err(err).Msg("shutdown")
		}
	}()

	switch {
	case *listHistory:
		for _, v := range app.History.List() {
			fmt.Println(v)
		}
		return 0
	case *clearHistory:
		if err := app.History.Clear(ctx); err != nil {
			logger.Error().Err(err).Msg("clear history")
			return 1
		}
		return 0
	}

	req := model.JobRequest{VideoLocator: *video, CustomPrompt: *prompt, OriginalQuestion: *question}
	logger.Info().
		Str("video", logging.Redact(req.VideoLocator, cfg.Runtime.Dev)).
		Str("service", cfg.Service.BaseURL).
		Msg("submitting analysis")

	if _, err := app.Analysis.Submit(ctx, req); err != nil && !errors.Is(err, domain.ErrValidation) {
		logger.Error().Err(err).Msg("submit")
	}

	done := make(chan struct{})
	go progress(app, done)
	out, err := app.Analysis.Wait(ctx)
	close(done)
	fmt.Fprintln(os.Stderr)
	if err != nil {
		logger.Error().Err(err).Msg("job did not finish")
		return 130
	}

	return printOutcome(logger, app.Analysis.View(), out, *color)
}

// progress redraws the status line on stderr until done is closed.
func progress(app *application.App, done <-chan struct{}) {
	t := time.NewTicker(250 * time.Millisecond)
	defer t.Stop()
	last := ""
	for {
		select {
		case <-done:
			return
		case <-t.C:
			v := app.Analysis.View()
			line := fmt.Sprintf("[%s] %s", v.Elapsed, v.StatusMessage)
			if line != last {
				fmt.Fprintf(os.Stderr, "\r\033[K%s", line)
				last = line
			}
		}
	}
}

func printOutcome(logger *zerolog.Logger, v model.JobView, out model.Outcome, color bool) int {
	doc, err := presenter.Render(out, color)
	if err != nil {
		logger.Error().Err(err).Msg("render result")
		return 1
	}
	fmt.Println(string(doc))
	if !out.Succeeded() {
		ev := logger.Warn()
		if errors.Is(out.Err, domain.ErrServerReportedFailure) {
			ev = logger.Error()
		}
		ev.Err(out.Err).Str("job_id", v.JobID).Str("elapsed", v.Elapsed).Msg("analysis failed")
		return 1
	}
	logger.Info().Str("job_id", v.JobID).Str("elapsed", v.Elapsed).Msg("analysis completed")
	return 0
}
