package main

import (
	"fmt"
	"os"

	"github.com/aretw0/storyline"
	"github.com/aretw0/storyline/internal/validator"
	"github.com/spf13/cobra"
)

var validateCmd = &cobra.Command{
	Use:   "validate <story>",
	Short: "Check the story graph for consistency",
	Long: `Loads the story, which rejects dangling links and malformed nodes, then
crawls the graph from its start and reports unreachable nodes, choices without
options, scenes without content and stories that never end.`,
	Args: cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		if err := runValidate(cmd, args[0]); err != nil {
			fmt.Fprintf(os.Stderr, "Validation failed: %v\n", err)
			os.Exit(1)
		}
	},
}

func init() {
	rootCmd.AddCommand(validateCmd)
	validateCmd.Flags().Bool("strict", false, "Treat warnings as errors")
}

func runValidate(cmd *cobra.Command, path string) error {
	story, err := storyline.LoadStory(cmd.Context(), path)
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	report := validator.ValidateStory(story)
	warnings := report.Warnings()
	for _, w := range warnings {
		fmt.Fprintf(out, "warning: %s\n", w)
	}

	if strict, _ := cmd.Flags().GetBool("strict"); strict && len(warnings) > 0 {
		return fmt.Errorf("%d warning(s)", len(warnings))
	}
	fmt.Fprintf(out, "Story %q is valid (%d nodes, %d endings).\n", story.ID, story.Graph.Len(), len(report.Endings))
	return nil
}
