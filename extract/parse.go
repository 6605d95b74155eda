package extract

import (
	"encoding/json"
	"errors"
	"math"
	"strconv"
	"strings"

	"mealresolver"
)

var errNoJSONObject = errors.New("no JSON object in model output")

// JSONBlock returns the span from the first '{' to the last '}' that follows it.
// Code fences and prose around the object are discarded.
func JSONBlock(s string) (string, bool) {
	start := strings.IndexByte(s, '{')
	if start < 0 {
		return "", false
	}
	end := strings.LastIndexByte(s, '}')
	if end < start {
		return "", false
	}
	return s[start : end+1], true
}

type wireItem struct {
	Name     flexString `json:"name"`
	Quantity flexNumber `json:"quantity"`
	Unit     flexString `json:"unit"`
	Grams    flexNumber `json:"grams"`
}

type wireEstimates struct {
	Calories flexNumber `json:"calories"`
	Protein  flexNumber `json:"protein"`
	Carbs    flexNumber `json:"carbs"`
	Fat      flexNumber `json:"fat"`
}

type wireExtraction struct {
	Items     []wireItem     `json:"items"`
	Estimates *wireEstimates `json:"estimates"`
}

// Parse decodes model output into an Extraction.
func Parse(text string) (mealresolver.Extraction, error) {
	block, ok := JSONBlock(text)
	if !ok {
		return mealresolver.Extraction{}, errNoJSONObject
	}

	var w wireExtraction
	if err := json.Unmarshal([]byte(block), &w); err != nil {
		return mealresolver.Extraction{}, err
	}

	out := mealresolver.Extraction{Items: make([]mealresolver.ExtractedItem, 0, len(w.Items))}
	for _, it := range w.Items {
		out.Items = append(out.Items, mealresolver.ExtractedItem{
			Name:     mealresolver.TruncateName(string(it.Name)),
			Quantity: float64(it.Quantity),
			Unit:     strings.TrimSpace(string(it.Unit)),
			Grams:    float64(it.Grams),
		})
	}
	if w.Estimates != nil {
		out.Estimates = mealresolver.RoughEstimate{
			Calories: float64(w.Estimates.Calories),
			Protein:  float64(w.Estimates.Protein),
			Carbs:    float64(w.Estimates.Carbs),
			Fat:      float64(w.Estimates.Fat),
		}
	}
	return out, nil
}

// ParseOrEmpty is Parse with a safe default: any failure yields no items,
// zero estimates and Degraded set.
func ParseOrEmpty(text string) mealresolver.Extraction {
	ex, err := Parse(text)
	if err != nil {
		return Empty()
	}
	return ex
}

// Empty is the extraction used when model output is unusable.
func Empty() mealresolver.Extraction {
	return mealresolver.Extraction{
		Items:    []mealresolver.ExtractedItem{},
		Degraded: true,
	}
}

// Usable drops items with an empty name or a gram amount that is not in
// (0, MaxItemGrams]. Order is preserved.
func Usable(items []mealresolver.ExtractedItem) []mealresolver.ExtractedItem {
	out := make([]mealresolver.ExtractedItem, 0, len(items))
	for _, it := range items {
		name := mealresolver.TruncateName(it.Name)
		if name == "" || !(it.Grams > 0) || !(it.Grams <= mealresolver.MaxItemGrams) {
			continue
		}
		it.Name = name
		out = append(out, it)
	}
	return out
}

// flexNumber accepts a JSON number or a numeric string. Anything else is 0.
type flexNumber float64

func (f *flexNumber) UnmarshalJSON(b []byte) error {
	var v any
	if err := json.Unmarshal(b, &v); err != nil {
		return err
	}
	switch t := v.(type) {
	case float64:
		*f = flexNumber(finite(t))
	case string:
		n, err := strconv.ParseFloat(strings.TrimSpace(t), 64)
		if err != nil {
			n = 0
		}
		*f = flexNumber(finite(n))
	default:
		*f = 0
	}
	return nil
}

func finite(n float64) float64 {
	if math.IsNaN(n) || math.IsInf(n, 0) {
		return 0
	}
	return n
}

// flexString accepts a JSON string. Anything else is "".
type flexString string

func (s *flexString) UnmarshalJSON(b []byte) error {
	var v any
	if err := json.Unmarshal(b, &v); err != nil {
		return err
	}
	str, _ := v.(string)
	*s = flexString(str)
	return nil
}
