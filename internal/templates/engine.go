// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package templates holds the page templates and renders their sections.
// A template is a static, ordered list of section specs; each spec draws its
// content from a logic block, a subset of the generated questions, or a
// model instruction.
package templates

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"text/template"

	"github.com/pdiddy/content-engine/internal/invoke"
	"github.com/pdiddy/content-engine/internal/logic"
	"github.com/pdiddy/content-engine/internal/questions"
	"github.com/pdiddy/content-engine/pkg/types"
)

// Placeholder is the text of an instruction section whose model call failed.
const Placeholder = "Content unavailable: this section could not be generated."

// ErrDegraded marks a section rendered with fallback content.
var ErrDegraded = errors.New("section degraded")

const systemPrompt = "You are a product copywriter. You write clear, factual web page sections using only the data provided."

var instructionPromptTmpl = template.Must(template.New("instruction").Parse(`Product record:
{{.Product}}

Competitor record (fictional, for comparison only):
{{.Competitor}}

Shopper questions:
{{- range .Questions}}
- [{{.Category}}] {{.Text}}
{{- end}}

Section heading: {{.Heading}}
Instruction: {{.Instruction}}

Respond with the section text only, without the heading.
`))

// Answerer answers one question about a product.
type Answerer interface {
	Answer(ctx context.Context, q types.UserQuestion, p types.ProductRecord) (types.UserQuestion, error)
}

// Invoker is the model capability instruction sections need.
type Invoker interface {
	Invoke(ctx context.Context, p invoke.Prompt, expectJSON bool) (invoke.Result, error)
}

// Engine renders sections against an enriched state.
type Engine struct {
	blocks   *logic.Registry
	answerer Answerer
	inv      Invoker
	logger   *slog.Logger
}

// EngineOption configures an Engine.
type EngineOption func(*Engine)

// WithLogger sets the logger.
func WithLogger(l *slog.Logger) EngineOption {
	return func(e *Engine) {
		if l != nil {
			e.logger = l
		}
	}
}

// WithBlocks replaces the logic registry.
func WithBlocks(r *logic.Registry) EngineOption {
	return func(e *Engine) { e.blocks = r }
}

// NewEngine returns an Engine that answers questions with answerer and runs
// instructions through inv.
func NewEngine(answerer Answerer, inv Invoker, opts ...EngineOption) *Engine {
	e := &Engine{
		blocks:   logic.Default(),
		answerer: answerer,
		inv:      inv,
		logger:   slog.Default(),
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// RenderSection produces the content of one section.
//
// On a model failure the returned content is the fallback (Placeholder for
// instructions, the questions.Unavailable marker for unanswered questions)
// and the error wraps ErrDegraded. A configuration error comes back with
// empty content and must abort the page.
func (e *Engine) RenderSection(ctx context.Context, spec SectionSpec, s *types.EnrichedState) (types.SectionContent, error) {
	switch src := spec.Source.(type) {
	case LogicBlock:
		fn, err := e.blocks.Resolve(src.Name)
		if err != nil {
			return types.SectionContent{}, err
		}
		return types.BlockContent(fn(s)), nil

	case SubsetQuestions:
		return e.renderQuestions(ctx, src.Category, s)

	case Instruction:
		return e.renderInstruction(ctx, spec.Heading, src.Text, s)

	default:
		return types.SectionContent{}, types.NewError(types.KindConfiguration, types.StagePublisher,
			fmt.Errorf("section %q has unsupported source %T", spec.Heading, spec.Source))
	}
}

func (e *Engine) renderQuestions(ctx context.Context, c types.Category, s *types.EnrichedState) (types.SectionContent, error) {
	if s == nil {
		return types.QAContent(nil), nil
	}
	subset := questions.Filter(s.Questions, string(c))
	pairs := make([]types.QAPair, 0, len(subset))
	var failed []error
	for _, q := range subset {
		answered, err := e.answerer.Answer(ctx, q, s.Product)
		if err != nil {
			e.logger.Warn("question unanswered", "category", c, "question", q.Text, "error", err)
			failed = append(failed, err)
		}
		pairs = append(pairs, types.QAPair{Question: answered.Text, Answer: answered.Answer, Category: answered.Category})
	}
	if len(failed) > 0 {
		return types.QAContent(pairs), fmt.Errorf("%w: %d of %d answers unavailable: %w",
			ErrDegraded, len(failed), len(subset), errors.Join(failed...))
	}
	return types.QAContent(pairs), nil
}

func (e *Engine) renderInstruction(ctx context.Context, heading, instruction string, s *types.EnrichedState) (types.SectionContent, error) {
	user, err := renderInstructionPrompt(heading, instruction, s)
	if err != nil {
		return types.TextContent(Placeholder), fmt.Errorf("%w: rendering prompt: %w", ErrDegraded, err)
	}
	res, err := e.inv.Invoke(ctx, invoke.Prompt{System: systemPrompt, User: user, Task: "section"}, false)
	if err == nil && strings.TrimSpace(res.Text) == "" {
		err = errors.New("empty response")
	}
	if err != nil {
		e.logger.Warn("section degraded", "heading", heading, "error", err)
		return types.TextContent(Placeholder), fmt.Errorf("%w: %w", ErrDegraded, err)
	}
	return types.TextContent(strings.TrimSpace(res.Text)), nil
}

func renderInstructionPrompt(heading, instruction string, s *types.EnrichedState) (string, error) {
	var state types.EnrichedState
	if s != nil {
		state = *s
	}
	product, err := json.MarshalIndent(state.Product, "", "  ")
	if err != nil {
		return "", err
	}
	comp, err := json.MarshalIndent(state.Competitor, "", "  ")
	if err != nil {
		return "", err
	}
	var buf bytes.Buffer
	err = instructionPromptTmpl.Execute(&buf, struct {
		Product, Competitor  string
		Questions            []types.UserQuestion
		Heading, Instruction string
	}{string(product), string(comp), state.Questions, heading, instruction})
	return buf.String(), err
}
