package main

import (
	"fmt"
	"os"

	"github.com/aretw0/storyline/internal/presentation/graph"
	"github.com/aretw0/storyline/internal/presentation/tui"
	"github.com/muesli/termenv"
	"github.com/spf13/cobra"
)

var mapCmd = &cobra.Command{
	Use:   "map <story>",
	Short: "Draw the progress map of a story",
	Long: `Lays out the story graph against the saved checkpoint and prints it as a
Mermaid flowchart (graph LR) or as a text map.`,
	Args: cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		if err := runMap(cmd, args[0]); err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			os.Exit(1)
		}
	},
}

func init() {
	rootCmd.AddCommand(mapCmd)
	mapCmd.Flags().StringP("format", "f", "mermaid", "Output format: mermaid or text")
}

func runMap(cmd *cobra.Command, path string) error {
	format, _ := cmd.Flags().GetString("format")
	if format != "mermaid" && format != "text" {
		return fmt.Errorf("unknown format %q (want mermaid or text)", format)
	}

	e, err := openEnv(cmd)
	if err != nil {
		return err
	}
	defer e.Close()

	s, _, err := e.openSession(cmd.Context(), path)
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	l := s.ProgressMap()
	if format == "text" {
		profile := termenv.Ascii
		if isTerminal(out) {
			profile = termenv.NewOutput(out).ColorProfile()
		}
		fmt.Fprint(out, tui.RenderTextMap(l, profile))
		return nil
	}
	fmt.Fprint(out, graph.GenerateMermaid(l, s.Story().Graph.Start()))
	return nil
}
