// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package llm

import (
	"context"
	"encoding/json"
	"fmt"
	"math"
	"strings"

	"github.com/pdiddy/content-engine/internal/invoke"
)

// Offline is a deterministic backend that never touches the network. It
// reads the product record embedded in the prompt and answers by task, so
// dry runs produce plausible, repeatable pages.
type Offline struct{}

// Call implements invoke.ModelClient.
func (Offline) Call(ctx context.Context, req invoke.Request) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	p := promptProduct(req.User)

	switch req.Task {
	case "questions":
		return offlineQuestions(p)
	case "competitor":
		return offlineCompetitor(p)
	case "answer":
		q := promptLine(req.User, "Question:")
		return fmt.Sprintf("%s: %s", p.name(), answerFor(q, p)), nil
	case "section":
		instr := promptLine(req.User, "Instruction:")
		return fmt.Sprintf("%s. %s", sentence(p.Description, p.name()+" is built for everyday use"), strings.TrimSpace(instr)), nil
	}
	if req.Structured {
		return "{}", nil
	}
	return p.name(), nil
}

// Close implements Client.
func (Offline) Close() error { return nil }

// offlineProduct is the subset of the product record the offline answers use.
type offlineProduct struct {
	Name        string   `json:"name"`
	Description string   `json:"description"`
	Brand       string   `json:"brand"`
	Features    []string `json:"features"`
	Price       *float64 `json:"price"`
	Currency    string   `json:"currency"`
	HowToUse    string   `json:"how_to_use"`
	SideEffects string   `json:"side_effects"`
}

func (p offlineProduct) name() string {
	if p.Name == "" {
		return "The product"
	}
	return p.Name
}

// promptProduct decodes the first JSON object in the prompt. A prompt
// without one yields the zero product.
func promptProduct(user string) offlineProduct {
	var p offlineProduct
	if frag, ok := invoke.FirstFragment(user); ok {
		_ = json.Unmarshal([]byte(frag), &p)
	}
	return p
}

// promptLine returns the text after the first line starting with prefix.
func promptLine(user, prefix string) string {
	for _, line := range strings.Split(user, "\n") {
		line = strings.TrimSpace(line)
		if rest, ok := strings.CutPrefix(line, prefix); ok {
			return strings.TrimSpace(rest)
		}
	}
	return ""
}

func offlineQuestions(p offlineProduct) (string, error) {
	n := p.name()
	type q struct {
		Text     string `json:"text"`
		Category string `json:"category"`
	}
	qs := []q{
		{"What is " + n + "?", "informational"},
		{"Who makes " + n + "?", "informational"},
		{"What are the main features of " + n + "?", "informational"},
		{"Is " + n + " safe to use every day?", "safety"},
		{"Are there any side effects or risks with " + n + "?", "safety"},
		{"What precautions should I take with " + n + "?", "safety"},
		{"How do I use " + n + "?", "usage"},
		{"How often should I use " + n + "?", "usage"},
		{"How do I clean and store " + n + "?", "usage"},
		{"How much does " + n + " cost?", "pricing"},
		{"Is " + n + " good value for money?", "pricing"},
		{"Where can I buy " + n + "?", "pricing"},
		{"How does " + n + " compare to similar products?", "comparison"},
		{"What makes " + n + " different from alternatives?", "comparison"},
		{"Is " + n + " better than cheaper options?", "comparison"},
	}
	out, err := json.Marshal(map[string]any{"questions": qs})
	return string(out), err
}

func offlineCompetitor(p offlineProduct) (string, error) {
	price := 29.99
	if p.Price != nil && *p.Price > 0 {
		price = math.Round(*p.Price*0.9*100) / 100
	}
	features := []string{"standard build", "one-year warranty"}
	if len(p.Features) > 0 {
		features = append([]string{p.Features[0]}, features...)
	}
	c := map[string]any{
		"name":        "Rival " + strings.TrimPrefix(p.name(), "The "),
		"brand":       "Generic Goods",
		"description": "A lower-priced alternative to " + p.name() + ".",
		"features":    features,
		"price":       price,
	}
	if p.Currency != "" {
		c["currency"] = p.Currency
	}
	out, err := json.Marshal(c)
	return string(out), err
}

// answerFor picks a canned answer from keywords in the question.
func answerFor(question string, p offlineProduct) string {
	lq := strings.ToLower(question)
	switch {
	case strings.Contains(lq, "cost"), strings.Contains(lq, "price"), strings.Contains(lq, "value"), strings.Contains(lq, "buy"):
		if p.Price != nil {
			return fmt.Sprintf("it sells for %s%.2f.", currencyPrefix(p.Currency), *p.Price)
		}
		return "pricing varies by retailer."
	case strings.Contains(lq, "safe"), strings.Contains(lq, "side effect"), strings.Contains(lq, "precaution"), strings.Contains(lq, "risk"):
		return sentence(p.SideEffects, "follow the manufacturer's safety guidance") + "."
	case strings.HasPrefix(lq, "how"):
		return sentence(p.HowToUse, "follow the included instructions") + "."
	case len(p.Features) > 0:
		return "key features include " + strings.Join(p.Features, ", ") + "."
	default:
		return sentence(p.Description, "see the product description") + "."
	}
}

func currencyPrefix(c string) string {
	if c == "" {
		return ""
	}
	return c + " "
}

func sentence(s, fallback string) string {
	s = strings.TrimRight(strings.TrimSpace(s), ".")
	if s == "" {
		return fallback
	}
	return s
}
