// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package logic holds the deterministic content blocks templates can name.
// A block is a pure function from enriched state to a BlockResult: it does
// no I/O, never calls the model, and returns a fallback result instead of
// failing when the fields it needs are missing.
package logic

import (
	"sort"

	"github.com/pdiddy/content-engine/pkg/types"
)

// Func computes one block from the state. It must be total.
type Func func(s *types.EnrichedState) types.BlockResult

// Registry maps stable block identifiers to functions. It is built once and
// only read afterwards.
type Registry struct {
	blocks map[string]Func
}

// NewRegistry returns a registry over blocks. The map is copied.
func NewRegistry(blocks map[string]Func) *Registry {
	r := &Registry{blocks: make(map[string]Func, len(blocks))}
	for name, fn := range blocks {
		r.blocks[name] = fn
	}
	return r
}

// Resolve returns the block named name, or a configuration error.
func (r *Registry) Resolve(name string) (Func, error) {
	fn, ok := r.blocks[name]
	if !ok {
		return nil, types.Configurationf("unknown logic block %q", name)
	}
	return fn, nil
}

// Has reports whether name is registered.
func (r *Registry) Has(name string) bool {
	_, ok := r.blocks[name]
	return ok
}

// Names returns the registered identifiers in sorted order.
func (r *Registry) Names() []string {
	names := make([]string, 0, len(r.blocks))
	for name := range r.blocks {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

var defaultRegistry = NewRegistry(map[string]Func{
	"product_overview":   ProductOverview,
	"feature_list":       FeatureList,
	"benefits_block":     Benefits,
	"usage_block":        Usage,
	"safety_block":       Safety,
	"ingredients_block":  Ingredients,
	"price_comparison":   PriceComparison,
	"feature_comparison": FeatureComparison,
	"comparison_table":   ComparisonTable,
})

// Default returns the static registry of built-in blocks.
func Default() *Registry { return defaultRegistry }
