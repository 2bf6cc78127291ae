// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package questions generates, filters, and answers the categorized user
// questions a run is built around.
package questions

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/pdiddy/content-engine/internal/invoke"
	"github.com/pdiddy/content-engine/internal/schema"
	"github.com/pdiddy/content-engine/pkg/types"
)

// Unavailable is the answer recorded when the model could not answer.
const Unavailable = "Answer unavailable."

// responseSchema describes the structured generation response. Counts and
// category membership are checked after decoding so that a near miss can
// be reconciled instead of rejected.
var responseSchema = schema.MustCompile("questions", `{
  "type": "object",
  "required": ["questions"],
  "properties": {
    "questions": {
      "type": "array",
      "minItems": 1,
      "items": {
        "type": "object",
        "required": ["text", "category"],
        "properties": {
          "text": {"type": "string", "minLength": 1},
          "category": {"type": "string", "minLength": 1}
        }
      }
    }
  }
}`)

// Invoker is the model capability the bank needs.
type Invoker interface {
	Invoke(ctx context.Context, p invoke.Prompt, expectJSON bool) (invoke.Result, error)
}

// Bank generates and answers questions through an Invoker.
type Bank struct {
	inv    Invoker
	logger *slog.Logger
}

// Option configures a Bank.
type Option func(*Bank)

// WithLogger sets the logger.
func WithLogger(l *slog.Logger) Option {
	return func(b *Bank) {
		if l != nil {
			b.logger = l
		}
	}
}

// New returns a Bank over inv.
func New(inv Invoker, opts ...Option) *Bank {
	b := &Bank{inv: inv, logger: slog.Default()}
	for _, opt := range opts {
		opt(b)
	}
	return b
}

type rawQuestion struct {
	Text     string `json:"text"`
	Category string `json:"category"`
}

type rawResponse struct {
	Questions []rawQuestion `json:"questions"`
}

// Generate returns exactly QuestionCount questions covering every category.
//
// One structured call is made. If the response does not match the schema,
// or its count or category spread is off, the call is repeated once with a
// correction note. The better of the two responses is then reconciled:
// three questions per category in canonical order, the model's order kept
// within a category, excess dropped, and gaps padded from a fixed synthetic
// bank. Two schema-invalid responses, or an invoker failure on the first
// call, are returned as errors.
func (b *Bank) Generate(ctx context.Context, p types.ProductRecord) ([]types.UserQuestion, error) {
	got, problem, err := b.request(ctx, p, "")
	if err != nil {
		return nil, err
	}

	if problem != "" {
		b.logger.Warn("question response non-conforming, re-requesting", "product", p.Name, "problem", problem)
		retry, retryProblem, retryErr := b.request(ctx, p, problem)
		switch {
		case retryErr != nil && got == nil:
			return nil, retryErr
		case retryErr != nil:
			b.logger.Warn("question re-request failed, reconciling first response", "error", retryErr)
		case retry != nil && (got == nil || retryProblem == "" || len(retry) >= len(got)):
			got, problem = retry, retryProblem
		}
		if got == nil {
			return nil, types.NewError(types.KindModelFatal, types.StageAnalyst,
				fmt.Errorf("question generation: %s", problem))
		}
	}

	out, padded := reconcile(p.Name, got)
	if padded > 0 || problem != "" {
		b.logger.Info("questions reconciled", "product", p.Name, "from_model", len(got), "padded", padded)
	}
	return out, nil
}

// request makes one generation call. It returns the decoded questions (nil
// when the response fails the schema), a description of any problem, and
// an error only when the invoker itself failed.
func (b *Bank) request(ctx context.Context, p types.ProductRecord, correction string) ([]types.UserQuestion, string, error) {
	user, err := renderGenerate(p, correction)
	if err != nil {
		return nil, "", fmt.Errorf("rendering question prompt: %w", err)
	}

	res, err := b.inv.Invoke(ctx, invoke.Prompt{System: systemPrompt, User: user, Task: "questions"}, true)
	if err != nil {
		return nil, "", fmt.Errorf("generating questions: %w", err)
	}

	raw := wrapArray(res.JSON)
	if err := schema.Check(responseSchema, raw); err != nil {
		return nil, err.Error(), nil
	}
	var resp rawResponse
	if err := json.Unmarshal(raw, &resp); err != nil {
		return nil, err.Error(), nil
	}

	qs := make([]types.UserQuestion, 0, len(resp.Questions))
	var unknown []string
	for _, rq := range resp.Questions {
		c, err := types.ParseCategory(rq.Category)
		if err != nil {
			unknown = append(unknown, rq.Category)
			continue
		}
		qs = append(qs, types.UserQuestion{Text: strings.TrimSpace(rq.Text), Category: c})
	}

	switch {
	case len(unknown) > 0:
		return qs, fmt.Sprintf("unknown categories %q", unknown), nil
	case !conforming(qs):
		return qs, fmt.Sprintf("expected %d questions, %d per category, got %d", types.QuestionCount, perCategory(), len(qs)), nil
	}
	return qs, "", nil
}

// wrapArray accepts a bare array of questions as if it were wrapped.
func wrapArray(raw json.RawMessage) json.RawMessage {
	trimmed := strings.TrimSpace(string(raw))
	if strings.HasPrefix(trimmed, "[") {
		return json.RawMessage(`{"questions":` + trimmed + `}`)
	}
	return raw
}

// Filter returns the questions tagged with category, in order. An unknown
// category yields an empty slice, never an error.
func Filter(qs []types.UserQuestion, category string) []types.UserQuestion {
	c, err := types.ParseCategory(category)
	if err != nil {
		return []types.UserQuestion{}
	}
	out := []types.UserQuestion{}
	for _, q := range qs {
		if q.Category == c {
			out = append(out, q)
		}
	}
	return out
}

// Answer returns q with its answer filled from one text call. On failure
// the answer is set to Unavailable and the error is returned alongside so
// the caller can mark the section degraded.
func (b *Bank) Answer(ctx context.Context, q types.UserQuestion, p types.ProductRecord) (types.UserQuestion, error) {
	user, err := renderAnswer(q, p)
	if err != nil {
		q.Answer = Unavailable
		return q, fmt.Errorf("rendering answer prompt: %w", err)
	}

	res, err := b.inv.Invoke(ctx, invoke.Prompt{System: systemPrompt, User: user, Task: "answer"}, false)
	if err == nil && strings.TrimSpace(res.Text) == "" {
		err = errors.New("empty answer")
	}
	if err != nil {
		q.Answer = Unavailable
		return q, fmt.Errorf("answering %q: %w", q.Text, err)
	}
	q.Answer = strings.TrimSpace(res.Text)
	return q, nil
}
