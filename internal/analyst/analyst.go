// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package analyst runs the enrichment stage: it turns a raw product record
// into an EnrichedState with generated questions and a fabricated
// competitor. It knows nothing about templates or output.
package analyst

import (
	"context"
	"log/slog"

	"github.com/google/uuid"

	"github.com/pdiddy/content-engine/internal/normalize"
	"github.com/pdiddy/content-engine/pkg/types"
)

// QuestionGenerator produces the question set for a product.
type QuestionGenerator interface {
	Generate(ctx context.Context, p types.ProductRecord) ([]types.UserQuestion, error)
}

// CompetitorFabricator produces the synthetic competitor for a product.
type CompetitorFabricator interface {
	Fabricate(ctx context.Context, p types.ProductRecord) (types.CompetitorProduct, error)
}

// Stage is the analyst stage.
type Stage struct {
	questions  QuestionGenerator
	competitor CompetitorFabricator
	logger     *slog.Logger
	newID      func() string
}

// Option configures a Stage.
type Option func(*Stage)

// WithLogger sets the logger.
func WithLogger(l *slog.Logger) Option {
	return func(s *Stage) {
		if l != nil {
			s.logger = l
		}
	}
}

// WithRunID fixes the run identifier generator. Tests use it for stable IDs.
func WithRunID(fn func() string) Option {
	return func(s *Stage) { s.newID = fn }
}

// New returns a Stage.
func New(q QuestionGenerator, c CompetitorFabricator, opts ...Option) *Stage {
	s := &Stage{
		questions:  q,
		competitor: c,
		logger:     slog.Default(),
		newID:      func() string { return uuid.NewString() },
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Run normalizes raw, generates questions, fabricates a competitor, and
// assembles the state. Validation errors are reported before any model call.
// Any failure aborts the stage; no partial state is returned. Errors carry
// their taxonomy kind and the stage they happened at.
func (s *Stage) Run(ctx context.Context, raw map[string]any) (*types.EnrichedState, error) {
	product, err := normalize.Product(raw)
	if err != nil {
		return nil, types.WithStage(err, types.KindValidation, types.StageInput)
	}
	return s.Enrich(ctx, product)
}

// Enrich runs the model steps for an already normalized product.
func (s *Stage) Enrich(ctx context.Context, product types.ProductRecord) (*types.EnrichedState, error) {
	runID := s.newID()
	log := s.logger.With("run_id", runID, "product", product.Name)

	log.Info("generating questions")
	qs, err := s.questions.Generate(ctx, product)
	if err != nil {
		return nil, types.WithStage(err, types.KindModelFatal, types.StageAnalyst)
	}

	log.Info("fabricating competitor")
	comp, err := s.competitor.Fabricate(ctx, product)
	if err != nil {
		return nil, types.WithStage(err, types.KindModelFatal, types.StageAnalyst)
	}

	state, err := types.NewEnrichedState(runID, product, qs, comp)
	if err != nil {
		return nil, types.NewError(types.KindModelFatal, types.StageAnalyst, err)
	}
	log.Info("analyst stage complete", "questions", len(state.Questions), "competitor", comp.Name)
	return state, nil
}
