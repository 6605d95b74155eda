package nutrition

import (
	"math"

	"mealresolver"
)

// EstimatedNote marks totals taken from the model's rough estimate.
const EstimatedNote = "Totals estimated by model (USDA match not found)"

// Aggregate sums unrounded per-item nutrients into meal totals. Absent values
// count as zero here only. When the summed calories are exactly zero and the
// rough estimate has positive calories, the estimate replaces the sums.
func Aggregate(items []mealresolver.Nutrients, rough mealresolver.RoughEstimate) mealresolver.MealTotals {
	var sum mealresolver.RoughEstimate
	for _, n := range items {
		sum.Calories += value(n.Calories)
		sum.Protein += value(n.Protein)
		sum.Carbs += value(n.Carbs)
		sum.Fat += value(n.Fat)
	}

	sum = bounded(sum)
	rough = bounded(rough)

	if Fallback(sum.Calories, rough) {
		totals := finalize(rough)
		totals.Note = EstimatedNote
		return totals
	}
	return finalize(sum)
}

// Fallback reports whether the rough estimate should replace summed totals.
func Fallback(summedCalories float64, rough mealresolver.RoughEstimate) bool {
	return summedCalories == 0 && rough.Calories > 0
}

func finalize(t mealresolver.RoughEstimate) mealresolver.MealTotals {
	return mealresolver.MealTotals{
		Calories: int(round0(t.Calories)),
		Protein:  round1(t.Protein),
		Carbs:    round1(t.Carbs),
		Fat:      round1(t.Fat),
	}
}

// MaxTotal bounds every summed or estimated value. Anything larger, or not
// finite, is treated as 0 so integer calories cannot overflow.
const MaxTotal = 1e9

func bounded(t mealresolver.RoughEstimate) mealresolver.RoughEstimate {
	return mealresolver.RoughEstimate{
		Calories: clamp(t.Calories),
		Protein:  clamp(t.Protein),
		Carbs:    clamp(t.Carbs),
		Fat:      clamp(t.Fat),
	}
}

func clamp(v float64) float64 {
	if math.IsNaN(v) || math.Abs(v) > MaxTotal {
		return 0
	}
	return v
}

func value(v *float64) float64 {
	if v == nil {
		return 0
	}
	return *v
}
