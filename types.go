package mealresolver

import (
	"context"
	"net/http"
	"strings"
	"unicode/utf8"
)

type HTTPClient interface {
	Do(req *http.Request) (*http.Response, error)
}

type SlackClient interface {
	PostMessage(ctx context.Context, channel string, message string) error
}

// TextCompleter is a generative text backend: one system instruction plus one user message in, free text out.
type TextCompleter interface {
	Complete(ctx context.Context, prompt Prompt) (string, error)
}

type TextExtractor interface {
	Extract(ctx context.Context, text string) (Extraction, error)
}

type NutrientSource interface {
	Match(ctx context.Context, foodName string) (NutrientMatch, error)
}

// MealResolver is the operation every transport exposes.
type MealResolver interface {
	Resolve(ctx context.Context, text string) (MealResult, error)
}

// CredentialChecker is implemented by collaborators that need an API key before they can be called.
type CredentialChecker interface {
	CheckCredentials() error
}

type Prompt struct {
	System string `json:"system"`
	User   string `json:"user"`
}

// MaxItemNameLen is the rune limit applied to extracted item names.
const MaxItemNameLen = 80

// MaxItemGrams is the largest portion accepted for one extracted item (100 kg).
const MaxItemGrams = 100_000

// MealQuery is a validated, trimmed meal description.
type MealQuery struct {
	text string
}

func NewMealQuery(text string) (MealQuery, error) {
	t := strings.TrimSpace(text)
	if t == "" {
		return MealQuery{}, ErrInvalidInput
	}
	return MealQuery{text: t}, nil
}

func (q MealQuery) Text() string { return q.text }

// ExtractedItem is one food candidate produced by the extractor.
type ExtractedItem struct {
	Name     string  `json:"name"`
	Quantity float64 `json:"quantity"`
	Unit     string  `json:"unit"`
	Grams    float64 `json:"grams"`
}

// RoughEstimate holds model-generated meal totals, used only when no database match contributes calories.
type RoughEstimate struct {
	Calories float64 `json:"calories"`
	Protein  float64 `json:"protein"`
	Carbs    float64 `json:"carbs"`
	Fat      float64 `json:"fat"`
}

type Extraction struct {
	Items     []ExtractedItem `json:"items"`
	Estimates RoughEstimate   `json:"estimates"`

	// Raw is the unparsed model output.
	Raw string `json:"-"`
	// Degraded is set when the model output could not be parsed.
	Degraded bool `json:"-"`
}

// Nutrients holds the four tracked nutrients. A nil field is absent, not zero.
type Nutrients struct {
	Calories *float64 `json:"calories"`
	Protein  *float64 `json:"protein"`
	Carbs    *float64 `json:"carbs"`
	Fat      *float64 `json:"fat"`
}

func (n Nutrients) Empty() bool {
	return n.Calories == nil && n.Protein == nil && n.Carbs == nil && n.Fat == nil
}

// NutrientMatch is the best database record for a food name, per 100 g.
// The zero value means no match.
type NutrientMatch struct {
	Description string    `json:"description,omitempty"`
	Per100g     Nutrients `json:"per_100g"`
}

func (m NutrientMatch) Found() bool {
	return m.Description != "" || !m.Per100g.Empty()
}

type ResolvedItem struct {
	Name     string   `json:"name"`
	Grams    float64  `json:"grams"`
	Source   string   `json:"source"`
	Calories *float64 `json:"calories"`
	Protein  *float64 `json:"protein"`
	Carbs    *float64 `json:"carbs"`
	Fat      *float64 `json:"fat"`
}

type MealTotals struct {
	Calories int     `json:"calories"`
	Protein  float64 `json:"protein"`
	Carbs    float64 `json:"carbs"`
	Fat      float64 `json:"fat"`
	Note     string  `json:"note,omitempty"`
}

// MealResult is the response contract: items plus flattened totals.
type MealResult struct {
	Items []ResolvedItem `json:"items"`
	MealTotals
}

// TruncateName trims s and cuts it to MaxItemNameLen runes.
func TruncateName(s string) string {
	s = strings.TrimSpace(s)
	if utf8.RuneCountInString(s) <= MaxItemNameLen {
		return s
	}
	return strings.TrimSpace(string([]rune(s)[:MaxItemNameLen]))
}

// Float returns a pointer to v.
func Float(v float64) *float64 { return &v }
