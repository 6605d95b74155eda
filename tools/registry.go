package tools

import (
	"context"
	"fmt"
	"sort"
	"time"

	"mealresolver"
)

// Registry maps tool names to implementations
type Registry map[string]Tool

// NewRegistry creates a registry exposing meal resolution and single food lookup.
// lookupTimeout bounds each food_lookup call; zero means unbounded.
func NewRegistry(resolver mealresolver.MealResolver, source mealresolver.NutrientSource, lookupTimeout time.Duration) (*Registry, error) {
	if resolver == nil || source == nil {
		return nil, fmt.Errorf("resolver and nutrient source are required")
	}

	tools := map[string]Tool{}
	for _, t := range []Tool{NewMealResolve(resolver), NewFoodLookup(source, lookupTimeout)} {
		tools[t.Name()] = t
	}

	registry := Registry(tools)
	return &registry, nil
}

// GetTools returns all tools in the registry sorted by name
func (r *Registry) GetTools() []Tool {
	tools := make([]Tool, 0, len(*r))
	for _, tool := range *r {
		tools = append(tools, tool)
	}
	sort.Slice(tools, func(i, j int) bool { return tools[i].Name() < tools[j].Name() })
	return tools
}

// GetTool retrieves a tool by name from the registry
func (r Registry) GetTool(name string) (Tool, error) {
	tool, exists := r[name]
	if !exists {
		return nil, fmt.Errorf("tool %q not found in registry", name)
	}
	return tool, nil
}

// Execute runs a named call against the registry.
func (r Registry) Execute(ctx context.Context, call Call) (map[string]any, error) {
	tool, err := r.GetTool(call.Name)
	if err != nil {
		return nil, err
	}
	return tool.Run(ctx, call.Input)
}
