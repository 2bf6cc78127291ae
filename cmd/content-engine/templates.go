// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/pdiddy/content-engine/internal/templates"
)

var templatesCmd = &cobra.Command{
	Use:   "templates",
	Short: "List the page templates and their sections",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		reg := templates.Default()
		w := cmd.OutOrStdout()
		for _, id := range reg.IDs() {
			specs, err := reg.Resolve(id)
			if err != nil {
				return err
			}
			fmt.Fprintf(w, "%s\n", id)
			for i, spec := range specs {
				fmt.Fprintf(w, "  %d. %-24s %s\n", i+1, spec.Heading, describeSource(spec.Source))
			}
		}
		return nil
	},
}

func init() {
	rootCmd.AddCommand(templatesCmd)
}

func describeSource(s templates.Source) string {
	switch src := s.(type) {
	case templates.LogicBlock:
		return fmt.Sprintf("logic_block(%s)", src.Name)
	case templates.SubsetQuestions:
		return fmt.Sprintf("subset_questions(%s)", src.Category)
	default:
		return templates.Kind(s)
	}
}
