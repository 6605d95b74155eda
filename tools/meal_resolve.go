package tools

import (
	"context"
	"fmt"

	"github.com/modelcontextprotocol/go-sdk/jsonschema"

	"mealresolver"
)

type MealResolve struct{ resolver mealresolver.MealResolver }

func NewMealResolve(resolver mealresolver.MealResolver) *MealResolve {
	return &MealResolve{resolver: resolver}
}

func (t *MealResolve) Name() string  { return "meal_resolve" }
func (t *MealResolve) Title() string { return "Resolve Meal Nutrition" }
func (t *MealResolve) Description() string {
	return "Estimates calories, protein, carbs and fat for a free-text meal description, itemised per food."
}

func (t *MealResolve) InputSchema() *jsonschema.Schema {
	return &jsonschema.Schema{
		Type: "object",
		Properties: map[string]*jsonschema.Schema{
			"query": {
				Type:        "string",
				Description: "What was eaten, e.g. \"2 eggs and a slice of toast\"",
			},
		},
		Required: []string{"query"},
	}
}

func (t *MealResolve) OutputSchema() *jsonschema.Schema {
	nullableNumber := &jsonschema.Schema{Types: []string{"number", "null"}}
	return &jsonschema.Schema{
		Type: "object",
		Properties: map[string]*jsonschema.Schema{
			"items": {
				Type: "array",
				Items: &jsonschema.Schema{
					Type: "object",
					Properties: map[string]*jsonschema.Schema{
						"name":     {Type: "string"},
						"grams":    {Type: "number"},
						"source":   {Type: "string"},
						"calories": nullableNumber,
						"protein":  nullableNumber,
						"carbs":    nullableNumber,
						"fat":      nullableNumber,
					},
				},
			},
			"calories": {Type: "integer"},
			"protein":  {Type: "number"},
			"carbs":    {Type: "number"},
			"fat":      {Type: "number"},
			"note":     {Type: "string"},
		},
		Required: []string{"items", "calories", "protein", "carbs", "fat"},
	}
}

func (t *MealResolve) Run(ctx context.Context, input map[string]any) (map[string]any, error) {
	query, _ := input["query"].(string)

	res, err := t.resolver.Resolve(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("meal_resolve: %w", err)
	}
	return toMap(res)
}
