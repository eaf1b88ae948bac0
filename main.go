package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/locvowork/hrms/internal/bootstrap"
	"github.com/locvowork/hrms/internal/config"
	"github.com/locvowork/hrms/internal/logger"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	app := bootstrap.NewApp()
	if err := app.Initialize(ctx); err != nil {
		logger.ErrorLog(ctx, "Failed to initialize application: %v", err)
		os.Exit(1)
	}
	app.RegisterHTTP()

	errCh := make(chan error, 1)
	go func() {
		logger.InfoLog(ctx, "HTTP server listening on :%s", config.DefaultEnvConfig.APP_PORT)
		errCh <- app.Run()
	}()

	select {
	case err := <-errCh:
		if err != nil {
			logger.ErrorLog(ctx, "HTTP server stopped: %v", err)
		}
	case <-ctx.Done():
		logger.InfoLog(context.Background(), "Shutdown signal received")
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), config.DefaultEnvConfig.APP_SHUTDOWN_TIMEOUT)
	defer cancel()
	if err := app.Shutdown(shutdownCtx); err != nil {
		logger.ErrorLog(shutdownCtx, "Shutdown failed: %v", err)
		os.Exit(1)
	}
	logger.InfoLog(shutdownCtx, "Server stopped")
}
