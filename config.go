package mealresolver

import "time"

type ModelConfig struct {
	Provider           string  `env:"MODEL_PROVIDER,default=ollama"`
	ModelID            string  `env:"MODEL_ID"`
	MaxTokens          int32   `env:"MAX_TOKENS,default=1024"`
	Temperature        float32 `env:"TEMPERATURE,default=0.2"`
	TopP               float32 `env:"TOP_P,default=0.9"`
	BaseOllamaEndpoint string  `env:"BASE_OLLAMA_ENDPOINT,default=http://localhost:11434"`
	OpenAIAPIKey       string  `env:"OPENAI_API_KEY"`
	OpenAIEndpoint     string  `env:"OPENAI_BASE_URL,default=https://api.openai.com/v1"`
}

type NutrientConfig struct {
	Source            string `env:"NUTRIENT_SOURCE,default=fdc"`
	FDCAPIKey         string `env:"USDA_FDC_API_KEY"`
	FDCEndpoint       string `env:"USDA_FDC_ENDPOINT,default=https://api.nal.usda.gov/fdc/v1/foods/search"`
	FoodTablePath     string `env:"FOOD_TABLE_PATH,default=artifacts/foods.json"`
	FoodTableS3Bucket string `env:"FOOD_TABLE_S3_BUCKET"`
	FoodTableS3Key    string `env:"FOOD_TABLE_S3_KEY"`
}

type ResolverConfig struct {
	ExtractTimeout    time.Duration `env:"EXTRACT_TIMEOUT,default=30s"`
	LookupTimeout     time.Duration `env:"LOOKUP_TIMEOUT,default=10s"`
	LookupConcurrency int           `env:"LOOKUP_CONCURRENCY,default=4"`
	ListenAddr        string        `env:"LISTEN_ADDR,default=:8080"`
	RunLog            string        `env:"RUN_LOG,default=none"`
}

// Model providers accepted in MODEL_PROVIDER.
const (
	ProviderOllama  = "ollama"
	ProviderBedrock = "bedrock"
	ProviderOpenAI  = "openai"
	ProviderMock    = "mock"
)

// Nutrient sources accepted in NUTRIENT_SOURCE.
const (
	SourceFDC   = "fdc"
	SourceTable = "table"
)
