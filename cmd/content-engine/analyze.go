// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"fmt"
	"path/filepath"
	"time"

	"github.com/spf13/cobra"

	"github.com/pdiddy/content-engine/internal/output"
	"github.com/pdiddy/content-engine/pkg/types"
)

var analyzeCmd = &cobra.Command{
	Use:   "analyze <product-file>",
	Short: "Run the analyst stage and save the enriched state",
	Long: `Analyze normalizes a product record, generates the 15 categorized shopper
questions and the fabricated competitor, and writes the enriched state to
a JSON or YAML file. Feed the file to publish to render pages later.`,
	Args: cobra.ExactArgs(1),
	RunE: runAnalyze,
}

func init() {
	analyzeCmd.Flags().String("state", "", "state file to write (default <output-dir>/state.json; .yaml for YAML)")
	rootCmd.AddCommand(analyzeCmd)
}

func runAnalyze(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	statePath, _ := cmd.Flags().GetString("state")
	if statePath == "" {
		statePath = filepath.Join(cfg.Output.Dir, output.StateFile)
	}

	run := newRun("analyze", nil)
	state, err := analyze(cmd, args[0], statePath, &run.Product)
	run.Duration = time.Since(run.StartedAt)
	if state != nil {
		run.ID = state.RunID
		run.State = state
	}
	run.Outcome(false, err)
	recordRun(ctx, run)
	return err
}

func analyze(cmd *cobra.Command, productFile, statePath string, product *string) (*types.EnrichedState, error) {
	ctx := cmd.Context()

	raw, err := loadProduct(productFile)
	if err != nil {
		return nil, err
	}
	*product = productName(raw)

	p, client, err := newPipeline(ctx)
	if err != nil {
		return nil, err
	}
	defer client.Close()

	state, err := p.Analyze(ctx, raw)
	if err != nil {
		return nil, err
	}
	if err := output.WriteState(statePath, state); err != nil {
		return state, err
	}

	w := cmd.OutOrStdout()
	fmt.Fprintf(w, "Run %s: %d questions, competitor %q\n",
		state.RunID, len(state.Questions), state.Competitor.Name)
	fmt.Fprintf(w, "Wrote %s\n", statePath)
	return state, nil
}
