// Package foodtable is an offline nutrient source backed by a JSON table of per-100g profiles.
package foodtable

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"strings"
	"unicode"

	"mealresolver"
	"mealresolver/foodtable/storage"
)

// minScore is the token overlap required for a fuzzy match.
const minScore = 0.5

type Entry struct {
	Name     string   `json:"name"`
	Aliases  []string `json:"aliases,omitempty"`
	Calories *float64 `json:"calories"`
	Protein  *float64 `json:"protein"`
	Carbs    *float64 `json:"carbs"`
	Fat      *float64 `json:"fat"`
}

type Table struct {
	Foods []Entry `json:"foods"`
}

type indexed struct {
	entry  Entry
	keys   []string
	tokens map[string]bool
}

// Source matches food names against a loaded table.
type Source struct {
	entries []indexed
}

// Load reads and indexes the table from state.
func Load(ctx context.Context, state storage.TableState) (*Source, error) {
	b, err := state.Load(ctx)
	if err != nil {
		return nil, fmt.Errorf("read food table: %w", err)
	}
	var t Table
	if err := json.Unmarshal(b, &t); err != nil {
		return nil, fmt.Errorf("parse food table: %w", err)
	}
	slog.Info("FOODTABLE: Loaded reference table", "foods", len(t.Foods))
	return New(t), nil
}

func New(t Table) *Source {
	s := &Source{entries: make([]indexed, 0, len(t.Foods))}
	for _, e := range t.Foods {
		ix := indexed{entry: e, tokens: map[string]bool{}}
		for _, k := range append([]string{e.Name}, e.Aliases...) {
			norm := normalize(k)
			if norm == "" {
				continue
			}
			ix.keys = append(ix.keys, norm)
			for _, tok := range strings.Fields(norm) {
				ix.tokens[tok] = true
			}
		}
		s.entries = append(s.entries, ix)
	}
	return s
}

// Match returns the exact name or alias match, else the entry sharing the
// largest share of the query's tokens. Ties go to the earlier entry.
func (s *Source) Match(ctx context.Context, name string) (mealresolver.NutrientMatch, error) {
	if err := ctx.Err(); err != nil {
		return mealresolver.NutrientMatch{}, err
	}

	query := normalize(name)
	if query == "" {
		return mealresolver.NutrientMatch{}, nil
	}

	for _, ix := range s.entries {
		for _, k := range ix.keys {
			if k == query {
				return toMatch(ix.entry), nil
			}
		}
	}

	qTokens := strings.Fields(query)
	best, bestScore := -1, 0.0
	for i, ix := range s.entries {
		hits := 0
		for _, tok := range qTokens {
			if ix.tokens[tok] || ix.tokens[singular(tok)] {
				hits++
			}
		}
		score := float64(hits) / float64(len(qTokens))
		if score > bestScore {
			best, bestScore = i, score
		}
	}
	if best < 0 || bestScore < minScore {
		return mealresolver.NutrientMatch{}, nil
	}
	return toMatch(s.entries[best].entry), nil
}

func toMatch(e Entry) mealresolver.NutrientMatch {
	return mealresolver.NutrientMatch{
		Description: e.Name,
		Per100g: mealresolver.Nutrients{
			Calories: e.Calories,
			Protein:  e.Protein,
			Carbs:    e.Carbs,
			Fat:      e.Fat,
		},
	}
}

// normalize lowercases and replaces punctuation with spaces.
func normalize(s string) string {
	s = strings.Map(func(r rune) rune {
		if unicode.IsLetter(r) || unicode.IsDigit(r) {
			return unicode.ToLower(r)
		}
		return ' '
	}, s)
	return strings.Join(strings.Fields(s), " ")
}

func singular(tok string) string {
	switch {
	case strings.HasSuffix(tok, "ies") && len(tok) > 4:
		return tok[:len(tok)-3] + "y"
	case strings.HasSuffix(tok, "es") && len(tok) > 3 && strings.ContainsAny(tok[len(tok)-3:len(tok)-2], "hsxz"):
		return tok[:len(tok)-2]
	case strings.HasSuffix(tok, "s") && !strings.HasSuffix(tok, "ss") && len(tok) > 3:
		return tok[:len(tok)-1]
	}
	return tok
}
