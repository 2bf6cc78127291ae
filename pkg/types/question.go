// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package types

import (
	"fmt"
	"strings"
)

// Category classifies a user question. The set is closed: adding a category
// means adding a constant here and to Categories, which keeps the coverage
// invariant checkable.
type Category string

const (
	CategoryInformational Category = "informational"
	CategorySafety        Category = "safety"
	CategoryUsage         Category = "usage"
	CategoryPricing       Category = "pricing"
	CategoryComparison    Category = "comparison"
)

// QuestionCount is the number of questions generated per run.
const QuestionCount = 15

// Categories returns every category in canonical order.
func Categories() []Category {
	return []Category{
		CategoryInformational,
		CategorySafety,
		CategoryUsage,
		CategoryPricing,
		CategoryComparison,
	}
}

// categoryAliases maps loose labels a model tends to produce onto the closed set.
var categoryAliases = map[string]Category{
	"info":        CategoryInformational,
	"information": CategoryInformational,
	"general":     CategoryInformational,
	"purchase":    CategoryPricing,
	"price":       CategoryPricing,
	"cost":        CategoryPricing,
	"buying":      CategoryPricing,
	"how-to":      CategoryUsage,
	"howto":       CategoryUsage,
	"use":         CategoryUsage,
	"compare":     CategoryComparison,
	"comparisons": CategoryComparison,
	"safe":        CategorySafety,
}

// Valid reports whether c is a member of the closed set.
func (c Category) Valid() bool {
	for _, known := range Categories() {
		if c == known {
			return true
		}
	}
	return false
}

// ParseCategory maps s onto the closed category set. Matching is
// case-insensitive and accepts a few aliases ("Purchase" -> pricing).
func ParseCategory(s string) (Category, error) {
	key := strings.ToLower(strings.TrimSpace(s))
	if c := Category(key); c.Valid() {
		return c, nil
	}
	if c, ok := categoryAliases[key]; ok {
		return c, nil
	}
	return "", fmt.Errorf("unknown question category %q", s)
}

// UserQuestion is one generated user question. Answer is filled lazily at
// render time, never at generation.
type UserQuestion struct {
	Text     string   `json:"text" yaml:"text"`
	Category Category `json:"category" yaml:"category"`
	Answer   string   `json:"answer,omitempty" yaml:"answer,omitempty"`
}

// QAPair is an answered question as it appears in a page section.
type QAPair struct {
	Question string   `json:"question" yaml:"question"`
	Answer   string   `json:"answer" yaml:"answer"`
	Category Category `json:"category" yaml:"category"`
}
