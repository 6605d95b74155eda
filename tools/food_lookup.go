package tools

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/modelcontextprotocol/go-sdk/jsonschema"

	"mealresolver"
	"mealresolver/nutrition"
)

// FoodLookup matches a single food name and optionally scales it to a portion.
// A positive timeout bounds each lookup the same way resolver lookups are bounded.
type FoodLookup struct {
	source  mealresolver.NutrientSource
	timeout time.Duration
}

func NewFoodLookup(source mealresolver.NutrientSource, timeout time.Duration) *FoodLookup {
	return &FoodLookup{source: source, timeout: timeout}
}

func (t *FoodLookup) Name() string  { return "food_lookup" }
func (t *FoodLookup) Title() string { return "Look Up Food" }
func (t *FoodLookup) Description() string {
	return "Finds the best nutrient database match for one food name. Values are per 100 g unless grams is given."
}

func (t *FoodLookup) InputSchema() *jsonschema.Schema {
	return &jsonschema.Schema{
		Type: "object",
		Properties: map[string]*jsonschema.Schema{
			"name":  {Type: "string"},
			"grams": {Type: "number", Description: "Portion size in grams (optional)"},
		},
		Required: []string{"name"},
	}
}

func (t *FoodLookup) OutputSchema() *jsonschema.Schema {
	nullableNumber := &jsonschema.Schema{Types: []string{"number", "null"}}
	return &jsonschema.Schema{
		Type: "object",
		Properties: map[string]*jsonschema.Schema{
			"found":       {Type: "boolean"},
			"description": {Type: "string"},
			"grams":       {Type: "number"},
			"calories":    nullableNumber,
			"protein":     nullableNumber,
			"carbs":       nullableNumber,
			"fat":         nullableNumber,
		},
		Required: []string{"found"},
	}
}

func (t *FoodLookup) Run(ctx context.Context, input map[string]any) (map[string]any, error) {
	name, _ := input["name"].(string)
	name = mealresolver.TruncateName(name)
	if name == "" {
		return nil, fmt.Errorf("food_lookup: %w", mealresolver.ErrInvalidInput)
	}

	grams := 100.0
	if g, ok := input["grams"].(float64); ok && g > 0 {
		grams = g
	}

	if cc, ok := t.source.(mealresolver.CredentialChecker); ok {
		if err := cc.CheckCredentials(); err != nil {
			return nil, fmt.Errorf("food_lookup: %w", err)
		}
	}

	if t.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, t.timeout)
		defer cancel()
	}

	match, err := t.source.Match(ctx, name)
	if err != nil {
		return nil, fmt.Errorf("food_lookup: %w", err)
	}
	if !match.Found() {
		return map[string]any{"found": false}, nil
	}

	item, _ := nutrition.Resolve(mealresolver.ExtractedItem{Name: name, Grams: grams}, match)
	return map[string]any{
		"found":       true,
		"description": strings.TrimSpace(item.Source),
		"grams":       grams,
		"calories":    item.Calories,
		"protein":     item.Protein,
		"carbs":       item.Carbs,
		"fat":         item.Fat,
	}, nil
}
