// Package nutrition scales per-100g nutrient profiles and aggregates meal totals.
package nutrition

import (
	"math"

	"mealresolver"
)

// Scale multiplies each present per-100g value by grams/100. Absent values stay absent.
func Scale(per100g mealresolver.Nutrients, grams float64) mealresolver.Nutrients {
	factor := grams / 100
	return mealresolver.Nutrients{
		Calories: mul(per100g.Calories, factor),
		Protein:  mul(per100g.Protein, factor),
		Carbs:    mul(per100g.Carbs, factor),
		Fat:      mul(per100g.Fat, factor),
	}
}

// Resolve builds the output item for one extracted item and its match. The
// returned nutrients are the unrounded scaled values for aggregation.
func Resolve(item mealresolver.ExtractedItem, match mealresolver.NutrientMatch) (mealresolver.ResolvedItem, mealresolver.Nutrients) {
	raw := Scale(match.Per100g, item.Grams)

	source := match.Description
	if source == "" {
		source = item.Name
	}

	return mealresolver.ResolvedItem{
		Name:     item.Name,
		Grams:    item.Grams,
		Source:   source,
		Calories: Round0(raw.Calories),
		Protein:  Round1(raw.Protein),
		Carbs:    Round1(raw.Carbs),
		Fat:      Round1(raw.Fat),
	}, raw
}

// Round0 rounds to the nearest integer, keeping nil as nil.
func Round0(v *float64) *float64 {
	if v == nil {
		return nil
	}
	r := round0(*v)
	return &r
}

// Round1 rounds to one decimal place, keeping nil as nil.
func Round1(v *float64) *float64 {
	if v == nil {
		return nil
	}
	r := round1(*v)
	return &r
}

func round0(v float64) float64 { return math.Round(v) }

func round1(v float64) float64 { return math.Round(v*10) / 10 }

func mul(v *float64, factor float64) *float64 {
	if v == nil {
		return nil
	}
	r := *v * factor
	return &r
}
