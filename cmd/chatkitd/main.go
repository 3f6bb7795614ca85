// chatkitd serves the streaming chat gateway: SSE chat turns over the
// backend, model capability listing, document conversion, transcription,
// and speech routes.
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/kbukum/chatkit/backend"
	"github.com/kbukum/chatkit/config"
	"github.com/kbukum/chatkit/docconvert"
	"github.com/kbukum/chatkit/gateway"
	"github.com/kbukum/chatkit/logger"
	"github.com/kbukum/chatkit/observability"
	"github.com/kbukum/chatkit/session"
	"github.com/kbukum/chatkit/transcribe"
	"github.com/kbukum/chatkit/version"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintln(os.Stderr, "chatkitd:", err)
		os.Exit(1)
	}
}

func run() error {
	cfg, err := config.Load()
	if err != nil {
		return err
	}

	logger.Init(cfg.Logging)
	log := logger.Component("main")
	log.Info("starting", map[string]interface{}{
		"version":     version.Get().String(),
		"environment": cfg.Environment,
	})

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	shutdownTelemetry, err := observability.Init(ctx, cfg.Telemetry)
	if err != nil {
		return fmt.Errorf("telemetry: %w", err)
	}
	defer func() {
		flushCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := shutdownTelemetry(flushCtx); err != nil {
			log.Warn("telemetry shutdown", map[string]interface{}{
				logger.FieldError: err.Error(),
			})
		}
	}()

	backendClient, err := backend.New(cfg.Backend)
	if err != nil {
		return fmt.Errorf("backend client: %w", err)
	}

	metrics, err := observability.NewTurnMetrics(observability.Meter("chatkit"))
	if err != nil {
		return fmt.Errorf("turn metrics: %w", err)
	}

	sessions := session.New(backendClient, cfg.Retry, metrics)
	converter := docconvert.New(cfg.DocConvert)
	stt := transcribe.New(cfg.Transcribe)

	gw, err := gateway.New(cfg.Gateway, sessions, backendClient, converter, stt, version.Get().Version)
	if err != nil {
		return fmt.Errorf("gateway: %w", err)
	}
	if err := gw.Start(ctx); err != nil {
		return err
	}

	<-ctx.Done()
	log.Info("shutdown signal received")
	return gw.Stop(context.Background())
}
