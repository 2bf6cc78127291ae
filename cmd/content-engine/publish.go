// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"time"

	"github.com/spf13/cobra"

	"github.com/pdiddy/content-engine/internal/output"
	"github.com/pdiddy/content-engine/internal/runstore"
	"github.com/pdiddy/content-engine/pkg/types"
)

var publishCmd = &cobra.Command{
	Use:   "publish <state-file>",
	Short: "Render pages from a saved enriched state",
	Long: `Publish loads an enriched state written by analyze (or generate
--save-state) and renders the requested page templates from it. The
state is validated before any model call.`,
	Args: cobra.ExactArgs(1),
	RunE: runPublish,
}

func init() {
	rootCmd.AddCommand(publishCmd)
}

func runPublish(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()

	run := newRun("publish", cfg.Publish.Templates)
	pages, state, err := publishState(cmd, args[0], &run)
	run.Duration = time.Since(run.StartedAt)
	degraded := false
	for _, p := range pages {
		degraded = degraded || p.Degraded
	}
	if state != nil {
		run.State = state
		run.Pages = pages
	}
	run.Outcome(degraded, err)
	recordRun(ctx, run)
	return err
}

func publishState(cmd *cobra.Command, statePath string, run *runstore.Run) ([]types.PageOutput, *types.EnrichedState, error) {
	ctx := cmd.Context()

	state, err := output.LoadState(statePath)
	if err != nil {
		return nil, nil, types.WithStage(err, types.KindValidation, types.StageInput)
	}
	run.Product = state.Product.Name

	p, client, err := newPipeline(ctx)
	if err != nil {
		return nil, state, err
	}
	defer client.Close()

	pages, err := p.Publish(ctx, state, cfg.Publish.Templates)
	if err != nil {
		return nil, state, err
	}

	paths, err := output.WritePages(cfg.Output.Dir, pages, cfg.Output.Markdown)
	if err != nil {
		return pages, state, err
	}
	printPages(cmd.OutOrStdout(), pages, paths)
	return pages, state, nil
}
