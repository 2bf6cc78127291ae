// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package logic

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pdiddy/content-engine/pkg/types"
)

func kettleState() *types.EnrichedState {
	return &types.EnrichedState{
		Product: types.ProductRecord{
			Name:     "Acme Kettle",
			Brand:    "Acme",
			Features: []string{"fast boil", "auto shutoff"},
			Price:    types.Float(49.99),
			Currency: "USD",
			HowToUse: "Fill with water. Press the switch.",
		},
		Competitor: types.CompetitorProduct{
			ProductRecord: types.ProductRecord{
				Name:     "Rival Kettle",
				Features: []string{"Auto Shutoff", "keep warm"},
				Price:    types.Float(39.99),
				Currency: "USD",
			},
			Synthetic: true,
		},
	}
}

func TestRegistryResolve(t *testing.T) {
	r := Default()
	for _, name := range r.Names() {
		fn, err := r.Resolve(name)
		require.NoError(t, err, name)
		assert.NotNil(t, fn)
		assert.True(t, r.Has(name))
	}

	_, err := r.Resolve("nonexistent_block")
	require.Error(t, err)
	assert.True(t, errors.Is(err, types.ErrConfiguration))
	assert.False(t, r.Has("nonexistent_block"))
}

func TestRegistryNamesSorted(t *testing.T) {
	names := Default().Names()
	assert.IsIncreasing(t, names)
	assert.Contains(t, names, "price_comparison")
	assert.Contains(t, names, "comparison_table")
}

// Every block must return a result for the empty state, a nil state, and a
// fully populated state, and the result must name the block.
func TestBlocksAreTotal(t *testing.T) {
	states := map[string]*types.EnrichedState{
		"nil":    nil,
		"empty":  {},
		"kettle": kettleState(),
	}
	r := Default()
	for _, name := range r.Names() {
		fn, err := r.Resolve(name)
		require.NoError(t, err)
		for label, s := range states {
			t.Run(name+"/"+label, func(t *testing.T) {
				var res types.BlockResult
				assert.NotPanics(t, func() { res = fn(s) })
				assert.Equal(t, name, res.Block)
				assert.NotEmpty(t, res.Summary)
			})
		}
	}
}

func TestPriceComparison(t *testing.T) {
	res := PriceComparison(kettleState())
	assert.True(t, res.Available)
	assert.Equal(t, "Acme Kettle is USD 10.00 more expensive than Rival Kettle", res.Summary)
	require.Len(t, res.Rows, 1)
	assert.Equal(t, "USD 49.99", res.Rows[0].Product)
	assert.Equal(t, "USD 39.99", res.Rows[0].Competitor)
}

func TestPriceComparisonFallbacks(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(s *types.EnrichedState)
	}{
		{"product price missing", func(s *types.EnrichedState) { s.Product.Price = nil }},
		{"competitor price missing", func(s *types.EnrichedState) { s.Competitor.Price = nil }},
		{"both missing", func(s *types.EnrichedState) { s.Product.Price, s.Competitor.Price = nil, nil }},
		{"currency mismatch", func(s *types.EnrichedState) { s.Competitor.Currency = "EUR" }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := kettleState()
			tt.mutate(s)
			res := PriceComparison(s)
			assert.False(t, res.Available)
			assert.Equal(t, PriceComparisonUnavailable, res.Summary)
			assert.Empty(t, res.Rows)
		})
	}
}

func TestPriceComparisonCheaper(t *testing.T) {
	s := kettleState()
	s.Product.Price = types.Float(29.99)
	assert.Equal(t, "Acme Kettle is USD 10.00 cheaper than Rival Kettle", PriceComparison(s).Summary)
}

func TestFeatureComparison(t *testing.T) {
	res := FeatureComparison(kettleState())
	assert.True(t, res.Available)
	assert.Equal(t, []string{"Only Acme Kettle: fast boil", "Both: auto shutoff"}, res.Items)

	s := kettleState()
	s.Competitor.Features = nil
	assert.Equal(t, FeatureComparisonUnavailable, FeatureComparison(s).Summary)
}

func TestComparisonTableMissingValues(t *testing.T) {
	s := kettleState()
	s.Competitor.Price = nil
	res := ComparisonTable(s)
	assert.True(t, res.Available)
	for _, row := range res.Rows {
		if row.Attribute == "price" {
			assert.Equal(t, "n/a", row.Competitor)
		}
		if row.Attribute == "brand" {
			assert.Equal(t, "Acme", row.Product)
			assert.Equal(t, "n/a", row.Competitor)
		}
	}
}

func TestUsageSteps(t *testing.T) {
	res := Usage(kettleState())
	assert.True(t, res.Available)
	assert.Equal(t, []string{"Fill with water", "Press the switch"}, res.Items)
}

func TestStepsKeepDecimals(t *testing.T) {
	tests := []struct {
		in   string
		want []string
	}{
		{"Apply 2.5 ml twice daily. Rinse after 10 min.", []string{"Apply 2.5 ml twice daily", "Rinse after 10 min"}},
		{"Shake well; use 0.5 cup\nStore cold", []string{"Shake well", "use 0.5 cup", "Store cold"}},
		{"One step", []string{"One step"}},
		{"  ", nil},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			assert.Equal(t, tt.want, steps(tt.in))
		})
	}
}

func TestRegistryIsCopied(t *testing.T) {
	blocks := map[string]Func{"a": FeatureList}
	r := NewRegistry(blocks)
	delete(blocks, "a")
	assert.True(t, r.Has("a"))
}
