package main

import (
	"context"
	"log"
	"log/slog"
	"net/http"
	"os"
	"time"

	"github.com/joho/godotenv"
	"github.com/modelcontextprotocol/go-sdk/mcp"

	"mealresolver"
	"mealresolver/app"
	"mealresolver/tools"
)

func main() {
	// stdout carries the protocol; logs go to stderr.
	slog.SetDefault(slog.New(slog.NewTextHandler(os.Stderr, nil)))

	if os.Getenv("APP_ENV") != "production" {
		_ = godotenv.Load()
	}

	ctx := context.Background()

	cfg, err := app.LoadConfig()
	if err != nil {
		log.Fatalf("Failed to decode: %s", err)
	}
	if cfg.Resolver.RunLog == app.RunLogStdout {
		cfg.Resolver.RunLog = app.RunLogNone
	}

	tracerProvider, meterProvider, otelShutdown, err := mealresolver.InitOtel(ctx)
	if err != nil {
		slog.Error("SETUP: Failed to initialize OpenTelemetry", "error", err)
		return
	}
	defer func() {
		if err := otelShutdown(ctx); err != nil {
			slog.Error("SETUP: Failed to shutdown OpenTelemetry", "error", err)
		}
	}()

	b := app.NewBuilder(&http.Client{Timeout: 30 * time.Second})
	source, err := b.NewSource(ctx, cfg.Nutrients)
	if err != nil {
		slog.Error("SETUP: Failed to build nutrient source", "error", err)
		return
	}

	resolver, cleanup, err := b.NewResolverWithSource(ctx, cfg, source,
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

	registry, err := tools.NewRegistry(resolver, source, cfg.Resolver.LookupTimeout)
	if err != nil {
		slog.Error("SETUP: Failed to create tool registry", "error", err)
		return
	}

	server := mcp.NewServer(&mcp.Implementation{Name: "meal-resolver", Version: "0.1.0"}, nil)
	tools.RegisterMCP(server, registry)

	slog.Info("MCP: Serving over stdio")
	if err := server.Run(ctx, mcp.NewStdioTransport()); err != nil {
		slog.Error("MCP: Server stopped", "error", err)
	}
}
