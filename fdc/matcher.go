package fdc

import (
	"context"

	"mealresolver"
)

type searcher interface {
	Search(ctx context.Context, sr SearchRequest) (SearchResponse, error)
}

// Matcher resolves a food name to its top-ranked reference record.
type Matcher struct {
	search searcher
}

func NewMatcher(c *Client) *Matcher {
	return &Matcher{search: c}
}

// CheckCredentials forwards to the underlying client when it needs a key.
func (m *Matcher) CheckCredentials() error {
	if cc, ok := m.search.(mealresolver.CredentialChecker); ok {
		return cc.CheckCredentials()
	}
	return nil
}

// Match returns the best reference record for name. An empty result set is a
// zero NutrientMatch with no error; transport failures are returned.
func (m *Matcher) Match(ctx context.Context, name string) (mealresolver.NutrientMatch, error) {
	res, err := m.search.Search(ctx, SearchRequest{
		Query:     name,
		PageSize:  1,
		DataTypes: ReferenceDataTypes,
	})
	if err != nil {
		return mealresolver.NutrientMatch{}, err
	}
	if len(res.Foods) == 0 {
		return mealresolver.NutrientMatch{}, nil
	}
	return ToMatch(res.Foods[0]), nil
}

// ToMatch maps a food record to its per-100g profile. Missing ids stay nil.
func ToMatch(food Food) mealresolver.NutrientMatch {
	return mealresolver.NutrientMatch{
		Description: food.Description,
		Per100g: mealresolver.Nutrients{
			Calories: food.Nutrient(NutrientIDEnergy),
			Protein:  food.Nutrient(NutrientIDProtein),
			Carbs:    food.Nutrient(NutrientIDCarbohydrate),
			Fat:      food.Nutrient(NutrientIDTotalFat),
		},
	}
}
