// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package publish runs the publisher stage: it renders pages from an
// enriched state, one template at a time, with the sections of a page
// rendered concurrently and assembled in declared order.
package publish

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"golang.org/x/sync/errgroup"

	"github.com/pdiddy/content-engine/internal/templates"
	"github.com/pdiddy/content-engine/pkg/types"
)

// DefaultConcurrency is the number of sections rendered at once.
const DefaultConcurrency = 4

// Renderer renders one section.
type Renderer interface {
	RenderSection(ctx context.Context, spec templates.SectionSpec, s *types.EnrichedState) (types.SectionContent, error)
}

// Publisher builds pages.
type Publisher struct {
	registry    *templates.Registry
	renderer    Renderer
	concurrency int
	logger      *slog.Logger
}

// Option configures a Publisher.
type Option func(*Publisher)

// WithConcurrency bounds how many sections render at once. Values below 1
// mean one at a time.
func WithConcurrency(n int) Option {
	return func(p *Publisher) { p.concurrency = max(1, n) }
}

// WithLogger sets the logger.
func WithLogger(l *slog.Logger) Option {
	return func(p *Publisher) {
		if l != nil {
			p.logger = l
		}
	}
}

// New returns a Publisher over the template registry and renderer.
func New(registry *templates.Registry, renderer Renderer, opts ...Option) *Publisher {
	p := &Publisher{
		registry:    registry,
		renderer:    renderer,
		concurrency: DefaultConcurrency,
		logger:      slog.Default(),
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// BuildPage renders template id against s.
//
// Sections render concurrently but appear in declared order. A section
// whose model call failed keeps its fallback content and is flagged
// degraded, as is the page; the page still completes. Configuration errors
// and cancellation abort the page.
func (p *Publisher) BuildPage(ctx context.Context, s *types.EnrichedState, id string) (types.PageOutput, error) {
	tmpl, err := p.registry.Get(id)
	if err != nil {
		return types.PageOutput{}, types.AtStage(err, types.StagePublisher)
	}
	meta, err := tmpl.Metadata(s)
	if err != nil {
		return types.PageOutput{}, types.AtStage(err, types.StagePublisher)
	}

	sections := make([]types.PageSection, len(tmpl.Sections))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(p.concurrency)

	for i, spec := range tmpl.Sections {
		g.Go(func() error {
			content, err := p.renderer.RenderSection(gctx, spec, s)
			section := types.PageSection{Heading: spec.Heading, Content: content}
			if err != nil {
				if errors.Is(err, types.ErrConfiguration) {
					return types.AtStage(err, types.StagePublisher)
				}
				if ctxErr := ctx.Err(); ctxErr != nil {
					return ctxErr
				}
				p.logger.Warn("section degraded",
					"template", id,
					"section", spec.Heading,
					"error", err,
				)
				if section.Content.Kind == "" {
					section.Content = types.TextContent(templates.Placeholder)
				}
				section.Degraded = true
			}
			sections[i] = section
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		if errors.Is(err, types.ErrConfiguration) {
			return types.PageOutput{}, err
		}
		return types.PageOutput{}, types.NewError(types.KindModelFatal, types.StagePublisher,
			fmt.Errorf("building %s page: %w", id, err))
	}

	page := types.PageOutput{Template: id, Sections: sections, Metadata: meta}
	for _, sec := range sections {
		if sec.Degraded {
			page.Degraded = true
			break
		}
	}
	if page.Degraded {
		p.logger.Warn("page degraded", "template", id, "sections", page.DegradedSections())
	}
	return page, nil
}

// BuildPages renders each template in order. The first configuration error
// or cancellation aborts the run; degraded sections do not.
func (p *Publisher) BuildPages(ctx context.Context, s *types.EnrichedState, ids []string) ([]types.PageOutput, error) {
	for _, id := range ids {
		if _, err := p.registry.Get(id); err != nil {
			return nil, types.AtStage(err, types.StagePublisher)
		}
	}
	pages := make([]types.PageOutput, 0, len(ids))
	for _, id := range ids {
		page, err := p.BuildPage(ctx, s, id)
		if err != nil {
			return nil, err
		}
		p.logger.Info("page built", "template", id, "sections", len(page.Sections), "degraded", page.Degraded)
		pages = append(pages, page)
	}
	return pages, nil
}
