// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package questions

import (
	"fmt"
	"strings"

	"github.com/pdiddy/content-engine/pkg/types"
)

// fallbackBank holds the synthetic questions used to fill a category the
// model under-supplied. "%s" is replaced with the product name. Each
// category has at least perCategory entries.
var fallbackBank = map[types.Category][]string{
	types.CategoryInformational: {
		"What is %s?",
		"What are the main features of %s?",
		"Who is %s designed for?",
	},
	types.CategorySafety: {
		"Is %s safe to use?",
		"Are there any side effects or warnings for %s?",
		"What precautions should I take when using %s?",
	},
	types.CategoryUsage: {
		"How do I use %s?",
		"How often should I use %s?",
		"How should I store %s?",
	},
	types.CategoryPricing: {
		"How much does %s cost?",
		"Is %s good value for the money?",
		"Where can I buy %s?",
	},
	types.CategoryComparison: {
		"How does %s compare to similar products?",
		"What makes %s different from alternatives?",
		"Is %s better than cheaper options?",
	},
}

func perCategory() int {
	return types.QuestionCount / len(types.Categories())
}

// reconcile turns whatever the model returned into exactly QuestionCount
// questions. Categories appear in canonical order, perCategory each. Within
// a category the model's order is kept; duplicates and excess are dropped;
// gaps are filled from fallbackBank, skipping entries that repeat a model
// question, and then with numbered generic questions if the bank runs dry.
// The second return value counts padded questions.
func reconcile(name string, got []types.UserQuestion) ([]types.UserQuestion, int) {
	if name == "" {
		name = "this product"
	}
	n := perCategory()

	byCat := make(map[types.Category][]types.UserQuestion)
	seen := make(map[string]bool)
	for _, q := range got {
		key := strings.ToLower(strings.TrimSpace(q.Text))
		if key == "" || seen[key] || !q.Category.Valid() {
			continue
		}
		seen[key] = true
		byCat[q.Category] = append(byCat[q.Category], types.UserQuestion{Text: strings.TrimSpace(q.Text), Category: q.Category})
	}

	out := make([]types.UserQuestion, 0, types.QuestionCount)
	padded := 0
	for _, c := range types.Categories() {
		qs := byCat[c]
		if len(qs) > n {
			qs = qs[:n]
		}
		out = append(out, qs...)
		for _, tmpl := range fallbackBank[c] {
			if len(qs) >= n {
				break
			}
			text := strings.Replace(tmpl, "%s", name, 1)
			if seen[strings.ToLower(text)] {
				continue
			}
			seen[strings.ToLower(text)] = true
			q := types.UserQuestion{Text: text, Category: c}
			qs = append(qs, q)
			out = append(out, q)
			padded++
		}
		for i := 1; len(qs) < n; i++ {
			q := types.UserQuestion{
				Text:     fmt.Sprintf("What else should I know about %s (%s, %d)?", name, c, i),
				Category: c,
			}
			qs = append(qs, q)
			out = append(out, q)
			padded++
		}
	}
	return out, padded
}

// conforming reports whether got already satisfies the count and coverage
// rules without reconciliation.
func conforming(got []types.UserQuestion) bool {
	if len(got) != types.QuestionCount {
		return false
	}
	counts := make(map[types.Category]int)
	for _, q := range got {
		if !q.Category.Valid() || strings.TrimSpace(q.Text) == "" {
			return false
		}
		counts[q.Category]++
	}
	for _, c := range types.Categories() {
		if counts[c] != perCategory() {
			return false
		}
	}
	return true
}
