package mock

import (
	"context"
	"encoding/json"
	"log/slog"
	"strconv"
	"strings"

	"mealresolver"
)

// portion is a canned serving used by the mock backend.
type portion struct {
	name     string
	unit     string
	grams    float64
	calories float64
	protein  float64
	carbs    float64
	fat      float64
}

var catalog = []struct {
	keyword string
	portion portion
}{
	{"egg", portion{"egg", "large", 50, 72, 6.3, 0.4, 4.8}},
	{"banana", portion{"banana", "medium", 118, 105, 1.3, 27, 0.4}},
	{"toast", portion{"bread, whole wheat, toasted", "slice", 30, 80, 4, 14, 1}},
	{"oatmeal", portion{"oatmeal, cooked", "bowl", 234, 166, 5.9, 28, 3.6}},
	{"rice", portion{"white rice, cooked", "cup", 158, 205, 4.3, 45, 0.4}},
	{"chicken", portion{"chicken breast, cooked", "piece", 120, 198, 37, 0, 4.3}},
	{"apple", portion{"apple", "medium", 182, 95, 0.5, 25, 0.3}},
	{"coffee", portion{"coffee, brewed", "cup", 240, 2, 0.3, 0, 0}},
}

var numberWords = map[string]float64{
	"a": 1, "an": 1, "one": 1, "two": 2, "three": 3, "four": 4, "five": 5, "half": 0.5,
}

type LLMClient struct{}

func NewLLMClient() *LLMClient {
	return &LLMClient{}
}

// Complete returns deterministic extraction JSON for the meal named in the prompt.
// Known foods are itemised with canned portions. Anything else becomes a single
// item with a rough estimate so the estimate path can be exercised offline.
func (m *LLMClient) Complete(ctx context.Context, prompt mealresolver.Prompt) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}

	meal := mealText(prompt.User)
	slog.Info("LLM_CLIENT: Invoked", "provider", "mock", "meal_len", len(meal))

	type item struct {
		Name     string  `json:"name"`
		Quantity float64 `json:"quantity"`
		Unit     string  `json:"unit"`
		Grams    float64 `json:"grams"`
	}
	out := struct {
		Items     []item                     `json:"items"`
		Estimates mealresolver.RoughEstimate `json:"estimates"`
	}{Items: []item{}}

	words := strings.FieldsFunc(strings.ToLower(meal), func(r rune) bool {
		return !(r >= 'a' && r <= 'z' || r >= '0' && r <= '9' || r == '.')
	})
	for i, w := range words {
		for _, c := range catalog {
			if !strings.HasPrefix(w, c.keyword) {
				continue
			}
			qty := 1.0
			if i > 0 {
				qty = quantity(words[i-1])
			}
			p := c.portion
			out.Items = append(out.Items, item{Name: p.name, Quantity: qty, Unit: p.unit, Grams: p.grams * qty})
			out.Estimates.Calories += p.calories * qty
			out.Estimates.Protein += p.protein * qty
			out.Estimates.Carbs += p.carbs * qty
			out.Estimates.Fat += p.fat * qty
			break
		}
	}

	if len(out.Items) == 0 && meal != "" {
		out.Items = append(out.Items, item{Name: meal, Quantity: 1, Unit: "serving", Grams: 60})
		out.Estimates = mealresolver.RoughEstimate{Calories: 250, Protein: 10, Carbs: 30, Fat: 9}
	}

	b, err := json.Marshal(out)
	if err != nil {
		return "", err
	}

	slog.Info("LLM_CLIENT: Returning canned extraction", "items", len(out.Items))
	return string(b), nil
}

// mealText pulls the quoted meal out of the first prompt line, falling back to the whole text.
func mealText(user string) string {
	line, _, _ := strings.Cut(user, "\n")
	if rest, ok := strings.CutPrefix(line, "Meal: "); ok {
		if s, err := strconv.Unquote(rest); err == nil {
			return strings.TrimSpace(s)
		}
	}
	return strings.TrimSpace(user)
}

func quantity(word string) float64 {
	if n, ok := numberWords[word]; ok {
		return n
	}
	if n, err := strconv.ParseFloat(word, 64); err == nil && n > 0 {
		return n
	}
	return 1
}
