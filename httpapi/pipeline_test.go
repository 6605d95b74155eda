package httpapi

import (
	"context"
	"encoding/json"
	"net/http"
	"testing"

	"mealresolver"
	"mealresolver/extract"
	"mealresolver/pipeline"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type cannedCompleter struct{ output string }

func (c cannedCompleter) Complete(ctx context.Context, prompt mealresolver.Prompt) (string, error) {
	return c.output, nil
}

type eggSource struct{}

func (eggSource) Match(ctx context.Context, name string) (mealresolver.NutrientMatch, error) {
	return mealresolver.NutrientMatch{
		Description: "Egg, whole, raw, fresh",
		Per100g: mealresolver.Nutrients{
			Calories: mealresolver.Float(143), Protein: mealresolver.Float(12.6),
			Carbs: mealresolver.Float(0.72), Fat: mealresolver.Float(9.51),
		},
	}, nil
}

func TestParseMeal_OutOfRangeModelNumbers(t *testing.T) {
	tests := []struct {
		name       string
		output     string
		wantItems  int
		wantCalory int
		wantNote   bool
	}{
		{
			name:       "absurd grams are dropped",
			output:     `{"items":[{"name":"egg","grams":1e307}],"estimates":{"calories":90}}`,
			wantCalory: 90,
			wantNote:   true,
		},
		{
			name:       "infinite estimate is ignored",
			output:     `{"items":[],"estimates":{"calories":"Infinity"}}`,
			wantCalory: 0,
		},
		{
			name:       "huge estimate is ignored",
			output:     `{"items":[],"estimates":{"calories":1e30}}`,
			wantCalory: 0,
		},
		{
			name:       "sane item still resolves",
			output:     `{"items":[{"name":"egg","grams":100}],"estimates":{"calories":1e30}}`,
			wantItems:  1,
			wantCalory: 143,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			resolver := pipeline.NewResolver(extract.NewExtractor(cannedCompleter{output: tt.output}), eggSource{}, pipeline.Options{})
			w := serve(NewRouter(resolver), http.MethodPost, ParseMealPath, `{"query":"a meal"}`)
			require.Equal(t, http.StatusOK, w.Code)

			var got mealresolver.MealResult
			require.NoError(t, json.Unmarshal(w.Body.Bytes(), &got))
			assert.Len(t, got.Items, tt.wantItems)
			assert.Equal(t, tt.wantCalory, got.Calories)
			assert.Equal(t, tt.wantNote, got.Note != "")
		})
	}
}
