// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package pipeline wires the analyst and publisher stages into one run.
// The stages run strictly in sequence: the publisher starts only after the
// analyst has returned a complete state.
package pipeline

import (
	"context"
	"log/slog"
	"time"

	"github.com/pdiddy/content-engine/internal/analyst"
	"github.com/pdiddy/content-engine/internal/competitor"
	"github.com/pdiddy/content-engine/internal/invoke"
	"github.com/pdiddy/content-engine/internal/publish"
	"github.com/pdiddy/content-engine/internal/questions"
	"github.com/pdiddy/content-engine/internal/templates"
	"github.com/pdiddy/content-engine/pkg/types"
)

// Result is the outcome of a complete run.
type Result struct {
	State    *types.EnrichedState
	Pages    []types.PageOutput
	Degraded bool
	Duration time.Duration
}

// Pipeline holds the two stages.
type Pipeline struct {
	analyst   *analyst.Stage
	publisher *publish.Publisher
	logger    *slog.Logger
}

// Options configures New.
type Options struct {
	Retry       types.RetryConfig
	Concurrency int
	Templates   *templates.Registry
	Logger      *slog.Logger
	RunID       func() string
}

// New builds a pipeline over one model client. Both stages share a single
// invoker and therefore a single retry policy.
func New(client invoke.ModelClient, opts Options) *Pipeline {
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}
	registry := opts.Templates
	if registry == nil {
		registry = templates.Default()
	}

	inv := invoke.New(client,
		invoke.WithPolicy(invoke.PolicyFrom(opts.Retry)),
		invoke.WithLogger(logger),
	)
	bank := questions.New(inv, questions.WithLogger(logger))

	analystOpts := []analyst.Option{analyst.WithLogger(logger)}
	if opts.RunID != nil {
		analystOpts = append(analystOpts, analyst.WithRunID(opts.RunID))
	}

	return &Pipeline{
		analyst: analyst.New(bank, competitor.New(inv, competitor.WithLogger(logger)), analystOpts...),
		publisher: publish.New(registry,
			templates.NewEngine(bank, inv, templates.WithLogger(logger)),
			publish.WithConcurrency(opts.Concurrency),
			publish.WithLogger(logger),
		),
		logger: logger,
	}
}

// Analyze runs the analyst stage only.
func (p *Pipeline) Analyze(ctx context.Context, raw map[string]any) (*types.EnrichedState, error) {
	return p.analyst.Run(ctx, raw)
}

// Publish runs the publisher stage only, over a state produced earlier.
func (p *Pipeline) Publish(ctx context.Context, state *types.EnrichedState, templateIDs []string) ([]types.PageOutput, error) {
	if err := state.Validate(); err != nil {
		return nil, types.NewError(types.KindValidation, types.StagePublisher, err)
	}
	return p.publisher.BuildPages(ctx, state, templateIDs)
}

// Run executes analyst then publisher. It returns either every requested
// page, possibly with degraded sections, or one error naming the kind and
// stage of the failure.
func (p *Pipeline) Run(ctx context.Context, raw map[string]any, templateIDs []string) (*Result, error) {
	start := time.Now()

	state, err := p.Analyze(ctx, raw)
	if err != nil {
		return nil, err
	}

	pages, err := p.Publish(ctx, state, templateIDs)
	if err != nil {
		return nil, err
	}

	res := &Result{State: state, Pages: pages, Duration: time.Since(start)}
	for _, page := range pages {
		if page.Degraded {
			res.Degraded = true
		}
	}
	p.logger.Info("run complete",
		"run_id", state.RunID,
		"pages", len(pages),
		"degraded", res.Degraded,
		"duration", res.Duration.Round(time.Millisecond),
	)
	return res, nil
}
