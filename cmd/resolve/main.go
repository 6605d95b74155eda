package main

import (
	"context"
	"encoding/json"
	"flag"
	"log"
	"log/slog"
	"net/http"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"

	"mealresolver"
	"mealresolver/app"
	"mealresolver/slack"
)

func main() {
	dump := flag.Bool("dump", false, "print the result with spew instead of JSON")
	notify := flag.Bool("notify", false, "post a summary to SLACK_WEBHOOK_URL")
	channel := flag.String("channel", "#meals", "Slack channel for -notify")
	flag.Parse()

	if os.Getenv("APP_ENV") != "production" {
		_ = godotenv.Load()
	}

	ctx := context.Background()

	cfg, err := app.LoadConfig()
	if err != nil {
		log.Fatalf("Failed to decode: %s", err)
	}

	query := argOr(strings.Join(flag.Args(), " "), "2 eggs, 1 banana")

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

	res, err := resolver.Resolve(ctx, query)
	if err != nil {
		slog.Error("RESULT: Error resolving meal", "error", err)
		os.Exit(1)
	}

	if *dump {
		mealresolver.Fdump(os.Stdout, res)
	} else {
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		if err := enc.Encode(res); err != nil {
			slog.Error("RESULT: Failed to encode result", "error", err)
		}
	}

	if *notify {
		sc := slack.NewClient(os.Getenv("SLACK_WEBHOOK_URL"), http.DefaultClient)
		if err := slack.PostMealSummary(ctx, sc, *channel, query, res); err != nil {
			slog.Error("Failed to post result to Slack", "error", err)
		}
	}
}

func argOr(arg, def string) string {
	if strings.TrimSpace(arg) != "" {
		return arg
	}
	return def
}
