package nutrition

import (
	"math"
	"testing"

	"mealresolver"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var f = mealresolver.Float

func eggPer100g() mealresolver.Nutrients {
	return mealresolver.Nutrients{Calories: f(143), Protein: f(12.6), Carbs: f(0.72), Fat: f(9.51)}
}

func bananaPer100g() mealresolver.Nutrients {
	return mealresolver.Nutrients{Calories: f(89), Protein: f(1.09), Carbs: f(22.8), Fat: f(0.33)}
}

func TestScale(t *testing.T) {
	t.Run("present values are scaled by grams/100", func(t *testing.T) {
		got := Scale(bananaPer100g(), 118)
		require.NotNil(t, got.Calories)
		assert.InDelta(t, 105.02, *got.Calories, 1e-9)
		assert.InDelta(t, 1.2862, *got.Protein, 1e-9)
		assert.InDelta(t, 26.904, *got.Carbs, 1e-9)
		assert.InDelta(t, 0.3894, *got.Fat, 1e-9)
	})

	t.Run("absent values stay absent", func(t *testing.T) {
		got := Scale(mealresolver.Nutrients{Calories: f(200)}, 50)
		assert.InDelta(t, 100.0, *got.Calories, 1e-9)
		assert.Nil(t, got.Protein)
		assert.Nil(t, got.Carbs)
		assert.Nil(t, got.Fat)
	})

	t.Run("empty profile scales to empty", func(t *testing.T) {
		assert.True(t, Scale(mealresolver.Nutrients{}, 250).Empty())
	})
}

func TestScale_Linear(t *testing.T) {
	for _, grams := range []float64{1, 37.5, 100, 118, 333} {
		single := Scale(eggPer100g(), grams)
		double := Scale(eggPer100g(), 2*grams)

		assert.InDelta(t, 2**single.Calories, *double.Calories, 1e-9)
		assert.InDelta(t, 2**single.Protein, *double.Protein, 1e-9)
		assert.InDelta(t, 2**single.Carbs, *double.Carbs, 1e-9)
		assert.InDelta(t, 2**single.Fat, *double.Fat, 1e-9)
	}
}

func TestRound(t *testing.T) {
	assert.Nil(t, Round0(nil))
	assert.Nil(t, Round1(nil))
	assert.Equal(t, 105.0, *Round0(f(105.02)))
	assert.Equal(t, 106.0, *Round0(f(105.5)))
	assert.Equal(t, 1.3, *Round1(f(1.2862)))
	assert.Equal(t, 0.0, *Round1(f(0.04)))
}

func TestResolve(t *testing.T) {
	t.Run("matched item uses database description", func(t *testing.T) {
		item := mealresolver.ExtractedItem{Name: "banana", Grams: 118}
		match := mealresolver.NutrientMatch{Description: "Bananas, raw", Per100g: bananaPer100g()}

		got, raw := Resolve(item, match)

		assert.Equal(t, "banana", got.Name)
		assert.Equal(t, 118.0, got.Grams)
		assert.Equal(t, "Bananas, raw", got.Source)
		assert.Equal(t, 105.0, *got.Calories)
		assert.Equal(t, 1.3, *got.Protein)
		assert.Equal(t, 26.9, *got.Carbs)
		assert.Equal(t, 0.4, *got.Fat)
		assert.InDelta(t, 105.02, *raw.Calories, 1e-9, "raw values must stay unrounded")
	})

	t.Run("no match keeps all nutrients null", func(t *testing.T) {
		item := mealresolver.ExtractedItem{Name: "mystery energy bar", Grams: 40}

		got, raw := Resolve(item, mealresolver.NutrientMatch{})

		assert.Equal(t, "mystery energy bar", got.Source)
		assert.Nil(t, got.Calories)
		assert.Nil(t, got.Protein)
		assert.Nil(t, got.Carbs)
		assert.Nil(t, got.Fat)
		assert.True(t, raw.Empty())
	})
}

func TestAggregate(t *testing.T) {
	tests := []struct {
		name  string
		items []mealresolver.Nutrients
		rough mealresolver.RoughEstimate
		want  mealresolver.MealTotals
	}{
		{
			name: "sums matched items and ignores estimate",
			items: []mealresolver.Nutrients{
				Scale(eggPer100g(), 100),
				Scale(bananaPer100g(), 118),
			},
			rough: mealresolver.RoughEstimate{Calories: 250, Protein: 14, Carbs: 27, Fat: 10},
			want:  mealresolver.MealTotals{Calories: 248, Protein: 13.9, Carbs: 27.6, Fat: 9.9},
		},
		{
			name:  "all null items fall back to positive estimate",
			items: []mealresolver.Nutrients{{}, {}},
			rough: mealresolver.RoughEstimate{Calories: 180.4, Protein: 8.04, Carbs: 22.25, Fat: 6},
			want: mealresolver.MealTotals{
				Calories: 180, Protein: 8, Carbs: 22.3, Fat: 6,
				Note: EstimatedNote,
			},
		},
		{
			name:  "no items and zero estimate gives zero totals",
			items: nil,
			rough: mealresolver.RoughEstimate{},
			want:  mealresolver.MealTotals{},
		},
		{
			name:  "zero calories with protein only still falls back",
			items: []mealresolver.Nutrients{{Protein: f(5)}},
			rough: mealresolver.RoughEstimate{Calories: 90, Protein: 3},
			want:  mealresolver.MealTotals{Calories: 90, Protein: 3, Note: EstimatedNote},
		},
		{
			name:  "partial match with nonzero calories is kept",
			items: []mealresolver.Nutrients{{Calories: f(0.4)}, {}},
			rough: mealresolver.RoughEstimate{Calories: 500},
			want:  mealresolver.MealTotals{Calories: 0},
		},
		{
			name:  "negative estimate never triggers fallback",
			items: []mealresolver.Nutrients{{}},
			rough: mealresolver.RoughEstimate{Calories: -20, Protein: 4},
			want:  mealresolver.MealTotals{},
		},
		{
			name:  "infinite estimate is unusable",
			items: []mealresolver.Nutrients{{}},
			rough: mealresolver.RoughEstimate{Calories: math.Inf(1), Protein: 4},
			want:  mealresolver.MealTotals{},
		},
		{
			name:  "huge estimate is unusable",
			items: []mealresolver.Nutrients{{}},
			rough: mealresolver.RoughEstimate{Calories: 1e30, Protein: 4},
			want:  mealresolver.MealTotals{},
		},
		{
			name:  "overflowing sum falls back to a sane estimate",
			items: []mealresolver.Nutrients{Scale(eggPer100g(), 1e307)},
			rough: mealresolver.RoughEstimate{Calories: 300, Protein: 20, Carbs: 2, Fat: 22},
			want: mealresolver.MealTotals{
				Calories: 300, Protein: 20, Carbs: 2, Fat: 22,
				Note: EstimatedNote,
			},
		},
		{
			name:  "overflowing sum with no estimate gives zero totals",
			items: []mealresolver.Nutrients{Scale(eggPer100g(), 1e307)},
			want:  mealresolver.MealTotals{},
		},
		{
			name: "nulls do not block other items",
			items: []mealresolver.Nutrients{
				{Calories: f(100), Protein: nil, Carbs: f(10), Fat: nil},
				{Calories: nil, Protein: f(2.25), Carbs: nil, Fat: f(1)},
			},
			want: mealresolver.MealTotals{Calories: 100, Protein: 2.3, Carbs: 10, Fat: 1},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Aggregate(tt.items, tt.rough))
		})
	}
}

func TestAggregate_UsesUnroundedValues(t *testing.T) {
	// Three items at 0.34 g protein each round to 0.3 individually (0.9 total)
	// but must aggregate to 1.0.
	items := []mealresolver.Nutrients{
		{Calories: f(10), Protein: f(0.34)},
		{Calories: f(10), Protein: f(0.34)},
		{Calories: f(10), Protein: f(0.34)},
	}
	assert.Equal(t, 1.0, Aggregate(items, mealresolver.RoughEstimate{}).Protein)
}

func TestFallback(t *testing.T) {
	assert.True(t, Fallback(0, mealresolver.RoughEstimate{Calories: 1}))
	assert.False(t, Fallback(0, mealresolver.RoughEstimate{}))
	assert.False(t, Fallback(0.001, mealresolver.RoughEstimate{Calories: 1}))
}

func TestAggregate_NeverWrapsCalories(t *testing.T) {
	for _, c := range []float64{math.Inf(1), math.Inf(-1), math.NaN(), 1e30, -1e30, MaxTotal + 1} {
		got := Aggregate([]mealresolver.Nutrients{{Calories: f(c)}}, mealresolver.RoughEstimate{Calories: c})
		assert.GreaterOrEqual(t, got.Calories, 0)
		assert.LessOrEqual(t, got.Calories, int(MaxTotal))
	}
}
