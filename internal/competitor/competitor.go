// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package competitor fabricates the synthetic product a run compares against.
package competitor

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"text/template"

	"github.com/pdiddy/content-engine/internal/invoke"
	"github.com/pdiddy/content-engine/internal/normalize"
	"github.com/pdiddy/content-engine/internal/schema"
	"github.com/pdiddy/content-engine/pkg/types"
)

const systemPrompt = "You are a product strategist. You invent plausible competing products for comparison pages."

var promptTmpl = template.Must(template.New("competitor").Parse(`Product record:
{{.Product}}

Invent one fictional competing product in the same category. It must have a different name and brand, a realistic price in the same currency, and a feature list that overlaps partly with the product's.

Respond with a JSON object with these fields:
- name: string
- brand: string
- description: string
- features: array of strings
- price: number or price string such as "$39.99"
- currency: ISO code, if known
- ingredients, benefits: arrays of strings, when they apply
- how_to_use, side_effects: strings, when they apply
{{- if .Correction}}

Your previous answer was rejected: {{.Correction}}. Follow the format exactly.
{{- end}}
`))

// responseSchema bounds the shape before the normalization rules run.
var responseSchema = schema.MustCompile("competitor", `{
  "type": "object",
  "required": ["name"],
  "properties": {
    "name": {"type": "string", "minLength": 1},
    "brand": {"type": "string"},
    "description": {"type": "string"},
    "features": {"type": ["array", "string"], "items": {"type": "string"}},
    "price": {"type": ["number", "string", "null"]},
    "currency": {"type": "string"}
  }
}`)

// Invoker is the model capability the fabricator needs.
type Invoker interface {
	Invoke(ctx context.Context, p invoke.Prompt, expectJSON bool) (invoke.Result, error)
}

// Fabricator builds synthetic competitors.
type Fabricator struct {
	inv    Invoker
	logger *slog.Logger
}

// Option configures a Fabricator.
type Option func(*Fabricator)

// WithLogger sets the logger.
func WithLogger(l *slog.Logger) Option {
	return func(f *Fabricator) {
		if l != nil {
			f.logger = l
		}
	}
}

// New returns a Fabricator over inv.
func New(inv Invoker, opts ...Option) *Fabricator {
	f := &Fabricator{inv: inv, logger: slog.Default()}
	for _, opt := range opts {
		opt(f)
	}
	return f
}

// Fabricate asks the model for a competitor and normalizes it with the same
// rules as the input record. A response that fails the schema or the
// normalization rules is re-requested once. Any remaining failure is
// model_fatal: a comparison cannot be written without a competitor.
func (f *Fabricator) Fabricate(ctx context.Context, p types.ProductRecord) (types.CompetitorProduct, error) {
	c, problem, err := f.request(ctx, p, "")
	if err != nil {
		return types.CompetitorProduct{}, err
	}
	if problem == "" {
		return c, nil
	}

	f.logger.Warn("competitor response invalid, re-requesting", "product", p.Name, "problem", problem)
	c, problem, err = f.request(ctx, p, problem)
	if err != nil {
		return types.CompetitorProduct{}, err
	}
	if problem != "" {
		return types.CompetitorProduct{}, types.NewError(types.KindModelFatal, types.StageAnalyst,
			fmt.Errorf("competitor fabrication: %s", problem))
	}
	return c, nil
}

func (f *Fabricator) request(ctx context.Context, p types.ProductRecord, correction string) (types.CompetitorProduct, string, error) {
	product, err := json.MarshalIndent(p, "", "  ")
	if err != nil {
		return types.CompetitorProduct{}, "", fmt.Errorf("encoding product: %w", err)
	}
	var buf bytes.Buffer
	if err := promptTmpl.Execute(&buf, struct {
		Product    string
		Correction string
	}{string(product), correction}); err != nil {
		return types.CompetitorProduct{}, "", fmt.Errorf("rendering competitor prompt: %w", err)
	}

	res, err := f.inv.Invoke(ctx, invoke.Prompt{System: systemPrompt, User: buf.String(), Task: "competitor"}, true)
	if err != nil {
		return types.CompetitorProduct{}, "", fmt.Errorf("fabricating competitor: %w", err)
	}

	if err := schema.Check(responseSchema, res.JSON); err != nil {
		return types.CompetitorProduct{}, err.Error(), nil
	}
	var raw map[string]any
	if err := json.Unmarshal(res.JSON, &raw); err != nil {
		return types.CompetitorProduct{}, err.Error(), nil
	}
	c, err := normalize.Competitor(raw)
	if err != nil {
		return types.CompetitorProduct{}, err.Error(), nil
	}
	if c.Currency == "" && c.HasPrice() {
		c.Currency = p.Currency
	}
	if c.Name == p.Name {
		return types.CompetitorProduct{}, fmt.Sprintf("competitor reuses the product name %q", p.Name), nil
	}
	return c, "", nil
}
