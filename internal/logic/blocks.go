// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package logic

import (
	"fmt"
	"math"
	"regexp"
	"sort"
	"strings"

	"github.com/pdiddy/content-engine/internal/normalize"
	"github.com/pdiddy/content-engine/pkg/types"
)

// Fallback summaries for blocks whose inputs are missing.
const (
	PriceComparisonUnavailable   = "price comparison unavailable"
	FeatureComparisonUnavailable = "feature comparison unavailable"
)

// product and competitor tolerate a nil state so every block stays total.
func product(s *types.EnrichedState) types.ProductRecord {
	if s == nil {
		return types.ProductRecord{}
	}
	return s.Product
}

func competitor(s *types.EnrichedState) types.ProductRecord {
	if s == nil {
		return types.ProductRecord{}
	}
	return s.Competitor.ProductRecord
}

func displayName(p types.ProductRecord, fallback string) string {
	if p.Name == "" {
		return fallback
	}
	return p.Name
}

// ProductOverview summarizes name, brand, description, and price.
func ProductOverview(s *types.EnrichedState) types.BlockResult {
	p := product(s)
	name := displayName(p, "This product")

	summary := name
	if p.Brand != "" {
		summary += " by " + p.Brand
	}
	if p.Description != "" {
		summary += ": " + strings.TrimSpace(p.Description)
	}

	var items []string
	if p.HasPrice() {
		items = append(items, "Price: "+normalize.FormatPrice(p.Price, p.Currency))
	}
	if len(p.Features) > 0 {
		items = append(items, fmt.Sprintf("Features: %d", len(p.Features)))
	}
	for _, k := range sortedAttrKeys(p.Attributes) {
		items = append(items, fmt.Sprintf("%s: %s", attrLabel(k), p.Attributes[k]))
	}
	return types.BlockResult{
		Block:     "product_overview",
		Summary:   summary,
		Items:     items,
		Available: p.Name != "",
	}
}

// FeatureList lists the product features in source order.
func FeatureList(s *types.EnrichedState) types.BlockResult {
	return listBlock("feature_list", product(s).Features, "key features", "no features listed")
}

// Benefits lists the claimed benefits.
func Benefits(s *types.EnrichedState) types.BlockResult {
	return listBlock("benefits_block", product(s).Benefits, "benefits", "no benefits listed")
}

// Ingredients lists key ingredients or materials.
func Ingredients(s *types.EnrichedState) types.BlockResult {
	return listBlock("ingredients_block", product(s).Ingredients, "key ingredients", "no ingredients listed")
}

func listBlock(block string, items []string, noun, fallback string) types.BlockResult {
	if len(items) == 0 {
		return types.BlockResult{Block: block, Summary: fallback}
	}
	return types.BlockResult{
		Block:     block,
		Summary:   fmt.Sprintf("%d %s", len(items), noun),
		Items:     append([]string(nil), items...),
		Available: true,
	}
}

// Usage returns the usage instructions split into steps.
func Usage(s *types.EnrichedState) types.BlockResult {
	p := product(s)
	if strings.TrimSpace(p.HowToUse) == "" {
		return types.BlockResult{Block: "usage_block", Summary: "usage instructions unavailable"}
	}
	return types.BlockResult{
		Block:     "usage_block",
		Summary:   strings.TrimSpace(p.HowToUse),
		Items:     steps(p.HowToUse),
		Available: true,
	}
}

// Safety reports side effects and warnings.
func Safety(s *types.EnrichedState) types.BlockResult {
	p := product(s)
	if strings.TrimSpace(p.SideEffects) == "" {
		return types.BlockResult{Block: "safety_block", Summary: "no known side effects listed"}
	}
	return types.BlockResult{
		Block:     "safety_block",
		Summary:   strings.TrimSpace(p.SideEffects),
		Items:     steps(p.SideEffects),
		Available: true,
	}
}

// PriceComparison compares the two prices. It falls back when either price
// is absent or the currencies differ.
func PriceComparison(s *types.EnrichedState) types.BlockResult {
	p, c := product(s), competitor(s)
	res := types.BlockResult{Block: "price_comparison", Summary: PriceComparisonUnavailable}
	if !p.HasPrice() || !c.HasPrice() {
		return res
	}
	if p.Currency != "" && c.Currency != "" && p.Currency != c.Currency {
		return res
	}
	currency := p.Currency
	if currency == "" {
		currency = c.Currency
	}

	pn, cn := displayName(p, "The product"), displayName(c, "the competitor")
	diff := *p.Price - *c.Price
	switch {
	case math.Abs(diff) < 0.005:
		res.Summary = fmt.Sprintf("%s and %s cost the same", pn, cn)
	case diff < 0:
		res.Summary = fmt.Sprintf("%s is %s cheaper than %s", pn, normalize.FormatPrice(types.Float(-diff), currency), cn)
	default:
		res.Summary = fmt.Sprintf("%s is %s more expensive than %s", pn, normalize.FormatPrice(types.Float(diff), currency), cn)
	}
	res.Rows = []types.ComparisonRow{{
		Attribute:  "price",
		Product:    normalize.FormatPrice(p.Price, currency),
		Competitor: normalize.FormatPrice(c.Price, currency),
	}}
	res.Available = true
	return res
}

// FeatureComparison splits features into shared and unique sets. Matching
// is case-insensitive.
func FeatureComparison(s *types.EnrichedState) types.BlockResult {
	p, c := product(s), competitor(s)
	res := types.BlockResult{Block: "feature_comparison", Summary: FeatureComparisonUnavailable}
	if len(p.Features) == 0 || len(c.Features) == 0 {
		return res
	}

	theirs := make(map[string]bool, len(c.Features))
	for _, f := range c.Features {
		theirs[strings.ToLower(strings.TrimSpace(f))] = true
	}
	var shared, unique []string
	for _, f := range p.Features {
		if theirs[strings.ToLower(strings.TrimSpace(f))] {
			shared = append(shared, f)
		} else {
			unique = append(unique, f)
		}
	}

	for _, f := range unique {
		res.Items = append(res.Items, "Only "+displayName(p, "the product")+": "+f)
	}
	for _, f := range shared {
		res.Items = append(res.Items, "Both: "+f)
	}
	res.Summary = fmt.Sprintf("%d unique and %d shared features", len(unique), len(shared))
	res.Available = true
	return res
}

// ComparisonTable lays out every attribute known on either side. Missing
// values read "n/a". The table is available when both sides are named.
func ComparisonTable(s *types.EnrichedState) types.BlockResult {
	p, c := product(s), competitor(s)
	rows := []types.ComparisonRow{
		{Attribute: "name", Product: orNA(p.Name), Competitor: orNA(c.Name)},
		{Attribute: "brand", Product: orNA(p.Brand), Competitor: orNA(c.Brand)},
		{Attribute: "price", Product: normalize.FormatPrice(p.Price, p.Currency), Competitor: normalize.FormatPrice(c.Price, c.Currency)},
		{Attribute: "features", Product: joinOrNA(p.Features), Competitor: joinOrNA(c.Features)},
	}
	if len(p.Ingredients) > 0 || len(c.Ingredients) > 0 {
		rows = append(rows, types.ComparisonRow{Attribute: "ingredients", Product: joinOrNA(p.Ingredients), Competitor: joinOrNA(c.Ingredients)})
	}
	if len(p.Benefits) > 0 || len(c.Benefits) > 0 {
		rows = append(rows, types.ComparisonRow{Attribute: "benefits", Product: joinOrNA(p.Benefits), Competitor: joinOrNA(c.Benefits)})
	}

	available := p.Name != "" && c.Name != ""
	summary := "comparison unavailable"
	if available {
		summary = fmt.Sprintf("%s compared with %s", p.Name, c.Name)
	}
	return types.BlockResult{Block: "comparison_table", Summary: summary, Rows: rows, Available: available}
}

func orNA(s string) string {
	if strings.TrimSpace(s) == "" {
		return "n/a"
	}
	return s
}

func joinOrNA(items []string) string {
	if len(items) == 0 {
		return "n/a"
	}
	return strings.Join(items, ", ")
}

// stepBreak matches a sentence end (a period followed by space or the end of
// the text), a semicolon, or a newline. Decimal points do not break.
var stepBreak = regexp.MustCompile(`\.(?:\s+|$)|[;\n]`)

// steps splits free text into sentences or lines.
func steps(text string) []string {
	fields := stepBreak.Split(text, -1)
	var out []string
	for _, f := range fields {
		if f = strings.TrimSpace(f); f != "" {
			out = append(out, f)
		}
	}
	return out
}

func sortedAttrKeys(m map[string]string) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

func attrLabel(k string) string {
	k = strings.ReplaceAll(k, "_", " ")
	if k == "" {
		return k
	}
	return strings.ToUpper(k[:1]) + k[1:]
}
