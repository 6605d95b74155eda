package main

import (
	"context"
	"errors"
	"log"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"mealresolver"
	"mealresolver/app"
	"mealresolver/httpapi"

	"github.com/gin-gonic/gin"
)

func main() {
	if os.Getenv("APP_ENV") != "production" {
		if err := godotenv.Load(); err != nil {
			slog.Info("SETUP: No .env file loaded", "error", err)
		}
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	cfg, err := app.LoadConfig()
	if err != nil {
		log.Fatalf("Failed to decode: %s", err)
	}

	tracerProvider, meterProvider, otelShutdown, err := mealresolver.InitOtel(ctx)
	if err != nil {
		slog.Error("SETUP: Failed to initialize OpenTelemetry", "error", err)
		return
	}
	defer func() {
		if err := otelShutdown(context.Background()); err != nil {
			slog.Error("SETUP: Failed to shutdown OpenTelemetry", "error", err)
		}
	}()

	resolver, cleanup, err := app.NewBuilder(&http.Client{Timeout: 30 * time.Second}).NewResolver(ctx, cfg,
		tracerProvider.Tracer(mealresolver.TracerNamePipeline),
		meterProvider.Meter(mealresolver.TracerNamePipeline))
	if err != nil {
		slog.Error("SETUP: Failed to build resolver", "error", err)
		return
	}
	defer func() {
		if err := cleanup(); err != nil {
			slog.Error("Failed to flush run log", "error", err)
		}
	}()

	if os.Getenv("APP_ENV") == "production" {
		gin.SetMode(gin.ReleaseMode)
	}

	srv := &http.Server{
		Addr:              cfg.Resolver.ListenAddr,
		Handler:           httpapi.NewRouter(resolver),
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		slog.Info("SERVER: Listening", "addr", srv.Addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			slog.Error("SERVER: Listen failed", "error", err)
			stop()
		}
	}()

	<-ctx.Done()
	slog.Info("SERVER: Shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		slog.Error("SERVER: Graceful shutdown failed", "error", err)
	}
}
