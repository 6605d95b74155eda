package extract

import (
	"fmt"

	"mealresolver"
)

// NewPrompt builds the extraction prompt for a meal description.
func NewPrompt(meal string) mealresolver.Prompt {
	return mealresolver.Prompt{
		System: systemPrompt,
		User:   fmt.Sprintf("Meal: %q\nReturn JSON exactly like this example (keys & types), no prose:\n%s", meal, schemaExample),
	}
}

const systemPrompt = `You are a nutrition parsing engine. Convert a natural language meal into
a JSON object with normalized grams per item.

RULES
- Every quantity must be converted to a mass in grams ("grams" field).
- When the portion is unclear, estimate grams conservatively.
- Use short, generic food names a nutrient database would recognize (e.g. "banana", "white rice, cooked").
- "estimates" holds rough totals for the whole meal; they are only used when the database lookup fails.

IMPORTANT: Return ONLY valid JSON. No markdown, no code fences, no commentary.`

const schemaExample = `{
  "items": [
    { "name": "chicken breast, cooked", "quantity": 1, "unit": "piece", "grams": 120 },
    { "name": "white rice, cooked", "quantity": 1, "unit": "cup", "grams": 158 },
    { "name": "avocado", "quantity": 0.5, "unit": "fruit", "grams": 75 }
  ],
  "estimates": { "calories": 0, "protein": 0, "carbs": 0, "fat": 0 }
}`
