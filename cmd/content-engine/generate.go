// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"path/filepath"
	"time"

	"github.com/spf13/cobra"

	"github.com/pdiddy/content-engine/internal/output"
	"github.com/pdiddy/content-engine/internal/pipeline"
	"github.com/pdiddy/content-engine/internal/runstore"
)

var generateCmd = &cobra.Command{
	Use:   "generate <product-file>",
	Short: "Run the full pipeline on a product record and write pages",
	Long: `Generate reads a product record (JSON or YAML), enriches it with shopper
questions and a fabricated competitor, then renders every requested page
template and writes each page as <template>.json in the output directory.

Sections whose model calls keep failing are filled with placeholder text
and flagged as degraded; the run still succeeds. Invalid input, bad
configuration, or a failed analyst stage aborts with no pages written.`,
	Args: cobra.ExactArgs(1),
	RunE: runGenerate,
}

func init() {
	generateCmd.Flags().Bool("save-state", false, "also write the enriched state as state.json")
	rootCmd.AddCommand(generateCmd)
}

func runGenerate(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	saveState, _ := cmd.Flags().GetBool("save-state")
	saveState = saveState || cfg.Output.SaveState

	run := newRun("generate", cfg.Publish.Templates)
	res, err := generate(cmd, args[0], saveState, &run)
	run.Duration = time.Since(run.StartedAt)
	if res != nil {
		run.ID = res.State.RunID
		run.State = res.State
		run.Pages = res.Pages
	}
	run.Outcome(res != nil && res.Degraded, err)
	recordRun(ctx, run)
	return err
}

func generate(cmd *cobra.Command, productFile string, saveState bool, run *runstore.Run) (*pipeline.Result, error) {
	ctx := cmd.Context()

	raw, err := loadProduct(productFile)
	if err != nil {
		return nil, err
	}
	run.Product = productName(raw)

	p, client, err := newPipeline(ctx)
	if err != nil {
		return nil, err
	}
	defer client.Close()

	res, err := p.Run(ctx, raw, cfg.Publish.Templates)
	if err != nil {
		return nil, err
	}

	paths, err := output.WritePages(cfg.Output.Dir, res.Pages, cfg.Output.Markdown)
	if err != nil {
		return res, err
	}
	if saveState {
		statePath := filepath.Join(cfg.Output.Dir, output.StateFile)
		if err := output.WriteState(statePath, res.State); err != nil {
			return res, err
		}
		paths = append(paths, statePath)
	}

	printPages(cmd.OutOrStdout(), res.Pages, paths)
	return res, nil
}
