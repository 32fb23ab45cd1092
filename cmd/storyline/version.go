package main

import (
	"fmt"
	"strings"

	"github.com/aretw0/storyline"
	"github.com/spf13/cobra"
)

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print the version number of storyline",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Fprintf(cmd.OutOrStdout(), "storyline version %s\n", strings.TrimSpace(storyline.Version))
	},
}

func init() {
	rootCmd.AddCommand(versionCmd)
}
