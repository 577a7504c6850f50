package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"

	"sap-address-assistant/internal/app"
	"sap-address-assistant/internal/common/config"
	"sap-address-assistant/internal/common/logger"
	"sap-address-assistant/internal/common/observability"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		bootLog := logger.New("info", "console")
		bootLog.Fatal("config load failed", zap.Error(err))
	}

	zapLog := logger.New(cfg.Logging.Level, cfg.Logging.Format)
	defer zapLog.Sync()

	zapLog.Info("Starting SAP address assistant...",
		zap.String("version", cfg.App.Version),
		zap.String("environment", cfg.App.Environment),
	)
	if cfg.EnvFile != "" {
		zapLog.Info("Loaded environment file", zap.String("path", cfg.EnvFile))
	}

	obs, err := observability.New(cfg.App.Name)
	if err != nil {
		zapLog.Fatal("observability setup failed", zap.Error(err))
	}
	defer obs.Shutdown()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	assistant, err := app.New(ctx, cfg, zapLog, app.Options{Observability: obs})
	if err != nil {
		zapLog.Fatal("assistant initialization failed", zap.Error(err))
	}
	defer assistant.Close()

	srv := assistant.Server.HTTPServer()
	errCh := make(chan error, 1)
	go func() {
		zapLog.Info("HTTP server listening", zap.String("addr", srv.Addr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	// --- Graceful Shutdown ---
	select {
	case <-ctx.Done():
		zapLog.Info("Shutdown signal received, stopping server...")
	case err := <-errCh:
		if err != nil {
			zapLog.Error("HTTP server failed", zap.Error(err))
		}
	}

	timeout := config.GetDuration(cfg.Server.ShutdownTimeout)
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	shutdownCtx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		zapLog.Error("Error shutting down HTTP server", zap.Error(err))
	}
	zapLog.Info("SAP address assistant stopped gracefully")
}
