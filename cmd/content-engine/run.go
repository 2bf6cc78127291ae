// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"context"
	"fmt"
	"io"
	"time"

	"github.com/pdiddy/content-engine/internal/llm"
	"github.com/pdiddy/content-engine/internal/normalize"
	"github.com/pdiddy/content-engine/internal/pipeline"
	"github.com/pdiddy/content-engine/internal/runstore"
	"github.com/pdiddy/content-engine/pkg/types"
)

// newPipeline builds the model client for the configured provider and a
// pipeline over it. The caller closes the client.
func newPipeline(ctx context.Context) (*pipeline.Pipeline, llm.Client, error) {
	client, err := llm.New(ctx, resolveAPIKey(cfg.AI))
	if err != nil {
		return nil, nil, err
	}
	logger.Debug("model client ready", "model", cfg.AI.String())

	p := pipeline.New(client, pipeline.Options{
		Retry:       cfg.Retry,
		Concurrency: cfg.Publish.Concurrency,
		Logger:      logger,
	})
	return p, client, nil
}

// loadProduct reads the raw product record. Unreadable files are input
// validation failures like malformed ones.
func loadProduct(path string) (map[string]any, error) {
	raw, err := normalize.LoadFile(path)
	if err != nil {
		return nil, types.WithStage(err, types.KindValidation, types.StageInput)
	}
	return raw, nil
}

// productName returns the record's name for the run history, or "" when
// the record does not normalize.
func productName(raw map[string]any) string {
	p, err := normalize.Product(raw)
	if err != nil {
		return ""
	}
	return p.Name
}

// recordRun stores r in the history database when history is enabled.
// Recording failures are logged and never fail the command.
func recordRun(ctx context.Context, r runstore.Run) {
	if !cfg.History.Enabled {
		return
	}
	store, err := runstore.Open(cfg.History.Path)
	if err != nil {
		logger.Warn("opening run history", "path", cfg.History.Path, "error", err)
		return
	}
	defer store.Close()

	// Record even when the run was cancelled.
	ctx = context.WithoutCancel(ctx)
	id, err := store.Record(ctx, r)
	if err != nil {
		logger.Warn("recording run", "error", err)
		return
	}
	logger.Debug("run recorded", "id", id, "status", r.Status)
}

// newRun starts a history record for command.
func newRun(command string, templates []string) runstore.Run {
	return runstore.Run{
		Command:   command,
		Model:     cfg.AI.String(),
		Templates: templates,
		StartedAt: time.Now().UTC(),
	}
}

// printPages writes a summary of the written pages to w.
func printPages(w io.Writer, pages []types.PageOutput, paths []string) {
	for _, page := range pages {
		status := "ok"
		if page.Degraded {
			status = fmt.Sprintf("degraded: %v", page.DegradedSections())
		}
		fmt.Fprintf(w, "%-12s %d sections (%s)\n", page.Template, len(page.Sections), status)
	}
	for _, p := range paths {
		fmt.Fprintf(w, "Wrote %s\n", p)
	}
}
