package extract

import (
	"context"
	"fmt"
	"log/slog"

	"mealresolver"
)

// Extractor turns meal text into candidate items with a single model call.
type Extractor struct {
	llm mealresolver.TextCompleter
}

func NewExtractor(llm mealresolver.TextCompleter) *Extractor {
	return &Extractor{llm: llm}
}

// CheckCredentials forwards to the completer when it needs a key.
func (e *Extractor) CheckCredentials() error {
	if cc, ok := e.llm.(mealresolver.CredentialChecker); ok {
		return cc.CheckCredentials()
	}
	return nil
}

// Extract calls the model once. A failed call is returned as an error; output
// that cannot be parsed yields an empty, degraded extraction instead.
func (e *Extractor) Extract(ctx context.Context, text string) (mealresolver.Extraction, error) {
	out, err := e.llm.Complete(ctx, NewPrompt(text))
	if err != nil {
		return mealresolver.Extraction{}, fmt.Errorf("failed to invoke LLM: %w", err)
	}

	ex := ParseOrEmpty(out)
	ex.Raw = out
	if ex.Degraded {
		slog.Warn("EXTRACTOR: Model output unparsable; continuing with no items", "output_length", len(out))
	}

	slog.Info("EXTRACTOR: Extraction complete",
		"items", len(ex.Items),
		"estimated_calories", ex.Estimates.Calories,
		"degraded", ex.Degraded,
	)
	return ex, nil
}
