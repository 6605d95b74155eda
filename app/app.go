// Package app assembles a resolver from environment configuration.
package app

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"path/filepath"
	"sync"

	"mealresolver"
	"mealresolver/extract"
	"mealresolver/fdc"
	"mealresolver/foodtable"
	"mealresolver/foodtable/storage"
	"mealresolver/llm/bedrock"
	"mealresolver/llm/mock"
	"mealresolver/llm/ollama"
	"mealresolver/llm/openai"
	"mealresolver/pipeline"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/bedrockruntime"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/joeshaw/envdecode"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/trace"
)

const defaultOllamaModel = "llama3.2"

// Run log modes accepted in RUN_LOG.
const (
	RunLogNone   = "none"
	RunLogStdout = "stdout"
	RunLogFile   = "file"
)

type Config struct {
	Model     mealresolver.ModelConfig
	Nutrients mealresolver.NutrientConfig
	Resolver  mealresolver.ResolverConfig
}

func LoadConfig() (Config, error) {
	var cfg Config
	if err := envdecode.Decode(&cfg.Model); err != nil {
		return Config{}, fmt.Errorf("failed to decode model config: %w", err)
	}
	if err := envdecode.Decode(&cfg.Nutrients); err != nil {
		return Config{}, fmt.Errorf("failed to decode nutrient config: %w", err)
	}
	if err := envdecode.Decode(&cfg.Resolver); err != nil {
		return Config{}, fmt.Errorf("failed to decode resolver config: %w", err)
	}
	return cfg, nil
}

// Builder constructs collaborators, loading the AWS config at most once and only when needed.
type Builder struct {
	HTTPClient mealresolver.HTTPClient

	awsOnce sync.Once
	awsCfg  aws.Config
	awsErr  error
}

func NewBuilder(hc mealresolver.HTTPClient) *Builder {
	if hc == nil {
		hc = http.DefaultClient
	}
	return &Builder{HTTPClient: hc}
}

func (b *Builder) awsConfig(ctx context.Context) (aws.Config, error) {
	b.awsOnce.Do(func() {
		b.awsCfg, b.awsErr = config.LoadDefaultConfig(ctx, config.WithRetryMaxAttempts(5))
	})
	return b.awsCfg, b.awsErr
}

// NewCompleter returns the generative backend named by cfg.Provider.
func (b *Builder) NewCompleter(ctx context.Context, cfg mealresolver.ModelConfig) (mealresolver.TextCompleter, error) {
	switch cfg.Provider {
	case mealresolver.ProviderOllama:
		model := cfg.ModelID
		if model == "" {
			model = defaultOllamaModel
		}
		c, err := ollama.NewClient(ollama.ClientOpts{
			BaseEndpoint: cfg.BaseOllamaEndpoint,
			ModelID:      model,
			Temperature:  float64(cfg.Temperature),
			TopP:         float64(cfg.TopP),
			MaxTokens:    int(cfg.MaxTokens),
			HTTPClient:   b.HTTPClient,
		})
		if err != nil {
			return nil, err
		}
		return c, nil

	case mealresolver.ProviderBedrock:
		awsCfg, err := b.awsConfig(ctx)
		if err != nil {
			return nil, fmt.Errorf("failed to load AWS config: %w", err)
		}
		return bedrock.NewLLMClient(bedrockruntime.NewFromConfig(awsCfg), bedrock.LLMOptions{
			ModelID:     cfg.ModelID,
			MaxTokens:   cfg.MaxTokens,
			Temperature: cfg.Temperature,
			TopP:        cfg.TopP,
		}), nil

	case mealresolver.ProviderOpenAI:
		return openai.NewClient(openai.ClientOpts{
			APIKey:      cfg.OpenAIAPIKey,
			BaseURL:     cfg.OpenAIEndpoint,
			ModelID:     cfg.ModelID,
			Temperature: cfg.Temperature,
			MaxTokens:   cfg.MaxTokens,
			HTTPClient:  b.HTTPClient,
		}), nil

	case mealresolver.ProviderMock:
		return mock.NewLLMClient(), nil

	default:
		return nil, fmt.Errorf("unknown model provider %q", cfg.Provider)
	}
}

// NewSource returns the nutrient database named by cfg.Source. A food table is
// read from S3 when a bucket is configured, otherwise from the local path.
func (b *Builder) NewSource(ctx context.Context, cfg mealresolver.NutrientConfig) (mealresolver.NutrientSource, error) {
	switch cfg.Source {
	case mealresolver.SourceFDC:
		return fdc.NewMatcher(fdc.NewClient(fdc.ClientOpts{
			APIKey:     cfg.FDCAPIKey,
			Endpoint:   cfg.FDCEndpoint,
			HTTPClient: b.HTTPClient,
		})), nil

	case mealresolver.SourceTable:
		var state storage.TableState
		if cfg.FoodTableS3Bucket != "" {
			if cfg.FoodTableS3Key == "" {
				return nil, errors.New("FOOD_TABLE_S3_KEY must be set with FOOD_TABLE_S3_BUCKET")
			}
			awsCfg, err := b.awsConfig(ctx)
			if err != nil {
				return nil, fmt.Errorf("failed to load AWS config: %w", err)
			}
			state = storage.NewS3TableState(s3.NewFromConfig(awsCfg), cfg.FoodTableS3Bucket, cfg.FoodTableS3Key)
			slog.Info("SETUP: Food table will be read from S3", "bucket", cfg.FoodTableS3Bucket, "key", cfg.FoodTableS3Key)
		} else {
			state = storage.NewFileTableState(cfg.FoodTablePath)
			slog.Info("SETUP: Food table will be read from file", "path", cfg.FoodTablePath)
		}
		src, err := foodtable.Load(ctx, state)
		if err != nil {
			return nil, err
		}
		return src, nil

	default:
		return nil, fmt.Errorf("unknown nutrient source %q", cfg.Source)
	}
}

// NewRunLogger returns the run logger for mode and a cleanup func that flushes it.
func NewRunLogger(mode, modelID string) (mealresolver.ResolutionLogger, func() error, error) {
	noop := func() error { return nil }

	switch mode {
	case "", RunLogNone:
		return mealresolver.NewNoOpResolutionLogger(), noop, nil

	case RunLogStdout:
		return mealresolver.NewStdoutResolutionLogger(), noop, nil

	case RunLogFile:
		path := mealresolver.NewRunLogFilePath(modelID)
		if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
			return nil, noop, fmt.Errorf("failed to create log dir: %w", err)
		}
		logFile, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0o644)
		if err != nil {
			return nil, noop, fmt.Errorf("failed to open log file: %w", err)
		}
		logger := mealresolver.NewFileResolutionLogger(logFile)
		cleanup := func() error {
			return errors.Join(logger.Flush(), logFile.Close())
		}
		return logger, cleanup, nil

	default:
		return nil, noop, fmt.Errorf("unknown run log mode %q", mode)
	}
}

// NewResolver builds the full instrumented pipeline from cfg.
func (b *Builder) NewResolver(ctx context.Context, cfg Config, tracer trace.Tracer, meter metric.Meter) (*pipeline.InstrumentedResolver, func() error, error) {
	source, err := b.NewSource(ctx, cfg.Nutrients)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to create nutrient source: %w", err)
	}
	slog.Info("SETUP: Nutrient source ready", "source", cfg.Nutrients.Source)

	return b.NewResolverWithSource(ctx, cfg, source, tracer, meter)
}

// NewResolverWithSource builds the pipeline around an existing nutrient source
// so callers that also expose the source directly load it once.
func (b *Builder) NewResolverWithSource(ctx context.Context, cfg Config, source mealresolver.NutrientSource, tracer trace.Tracer, meter metric.Meter) (*pipeline.InstrumentedResolver, func() error, error) {
	llm, err := b.NewCompleter(ctx, cfg.Model)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to create model client: %w", err)
	}
	slog.Info("SETUP: Model client ready", "provider", cfg.Model.Provider, "model", cfg.Model.ModelID)

	logger, cleanup, err := NewRunLogger(cfg.Resolver.RunLog, cfg.Model.Provider+"-"+cfg.Model.ModelID)
	if err != nil {
		return nil, nil, err
	}

	resolver, err := pipeline.NewInstrumentedResolver(extract.NewExtractor(llm), source, pipeline.Options{
		ExtractTimeout:    cfg.Resolver.ExtractTimeout,
		LookupTimeout:     cfg.Resolver.LookupTimeout,
		LookupConcurrency: cfg.Resolver.LookupConcurrency,
		Logger:            logger,
	}, tracer, meter)
	if err != nil {
		return nil, nil, errors.Join(fmt.Errorf("failed to create metrics: %w", err), cleanup())
	}

	return resolver, cleanup, nil
}
