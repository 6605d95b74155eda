package main

import (
	"context"
	"errors"
	"log"
	"log/slog"
	"net/http"
	"time"

	"mealresolver"
	"mealresolver/app"
	"mealresolver/pipeline"

	"github.com/aws/aws-lambda-go/lambda"
	"github.com/aws/aws-lambda-go/lambdacontext"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
)

type Params struct {
	Query string `json:"query"`
}

func main() {
	ctx := context.Background()

	cfg, err := app.LoadConfig()
	if err != nil {
		log.Fatalf("Failed to decode: %s", err)
	}
	// CloudWatch collects stdout.
	if cfg.Resolver.RunLog == app.RunLogFile {
		cfg.Resolver.RunLog = app.RunLogStdout
	}

	tracerProvider, meterProvider, _, err := mealresolver.InitOtel(ctx)
	if err != nil {
		log.Fatalf("Failed to initialize OpenTelemetry: %s", err)
	}

	resolver, _, err := app.NewBuilder(&http.Client{Timeout: 20 * time.Second}).NewResolver(ctx, cfg,
		tracerProvider.Tracer(mealresolver.TracerNamePipeline),
		meterProvider.Meter(mealresolver.TracerNamePipeline))
	if err != nil {
		log.Fatalf("Failed to build resolver: %s", err)
	}
	slog.Info("SETUP: Resolver ready", "provider", cfg.Model.Provider, "source", cfg.Nutrients.Source)

	tracer := tracerProvider.Tracer(mealresolver.TracerNameLambda)

	fn := func(ctx context.Context, params Params) (mealresolver.MealResult, error) {
		// Spans and metrics must leave before the execution environment freezes.
		defer func() {
			if err := tracerProvider.ForceFlush(ctx); err != nil {
				slog.Warn("SETUP: Failed to flush traces", "error", err)
			}
			if err := meterProvider.ForceFlush(ctx); err != nil {
				slog.Warn("SETUP: Failed to flush metrics", "error", err)
			}
		}()

		if lc, ok := lambdacontext.FromContext(ctx); ok {
			ctx = pipeline.WithRequestID(ctx, lc.AwsRequestID)
		}

		ctx, span := tracer.Start(ctx, mealresolver.TracerNameLambda)
		defer span.End()

		res, err := resolver.Resolve(ctx, params.Query)
		if err != nil {
			span.RecordError(err)
			span.SetStatus(codes.Error, "resolution failed")
			return mealresolver.MealResult{}, publicError(err)
		}

		span.SetAttributes(attribute.Int("items", len(res.Items)), attribute.Int("calories", res.Calories))
		return res, nil
	}

	lambda.Start(fn)
}

// publicError keeps internal detail out of the invocation response.
func publicError(err error) error {
	slog.Error("LAMBDA: Resolution failed", "error", err)
	return errors.New(mealresolver.PublicMessage(err))
}
