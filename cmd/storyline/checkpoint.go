package main

import (
	"bytes"
	"encoding/json"
	"fmt"
	"os"

	"github.com/aretw0/storyline/pkg/checkpoint"
	"github.com/spf13/cobra"
)

var checkpointCmd = &cobra.Command{
	Use:   "checkpoint",
	Short: "Manage saved checkpoints",
	Long:  `List, inspect, and remove the checkpoints held by the configured store.`,
}

var checkpointLsCmd = &cobra.Command{
	Use:   "ls",
	Short: "List the stories holding a checkpoint",
	Run: func(cmd *cobra.Command, args []string) {
		if err := runCheckpointLs(cmd); err != nil {
			fmt.Fprintf(os.Stderr, "Error listing checkpoints: %v\n", err)
			os.Exit(1)
		}
	},
}

var checkpointInspectCmd = &cobra.Command{
	Use:   "inspect <story-id>",
	Short: "Print the stored checkpoint of a story",
	Args:  cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		if err := runCheckpointInspect(cmd, args[0]); err != nil {
			fmt.Fprintf(os.Stderr, "Error inspecting '%s': %v\n", args[0], err)
			os.Exit(1)
		}
	},
}

var checkpointRmCmd = &cobra.Command{
	Use:   "rm <story-id>...",
	Short: "Remove one or more checkpoints",
	Args:  cobra.MinimumNArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		if err := runCheckpointRm(cmd, args); err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			os.Exit(1)
		}
	},
}

func init() {
	rootCmd.AddCommand(checkpointCmd)
	checkpointCmd.AddCommand(checkpointLsCmd)
	checkpointCmd.AddCommand(checkpointInspectCmd)
	checkpointCmd.AddCommand(checkpointRmCmd)
}

// checkpointStore opens the configured medium without a scene catalog: these
// commands never validate scene ids.
func checkpointStore(cmd *cobra.Command) (*env, *checkpoint.Store, error) {
	e, err := openEnv(cmd)
	if err != nil {
		return nil, nil, err
	}
	opts := []checkpoint.Option{checkpoint.WithLogger(e.logger)}
	if e.cfg.CheckpointPrefix != "" {
		opts = append(opts, checkpoint.WithPrefix(e.cfg.CheckpointPrefix))
	}
	return e, checkpoint.New(e.storage.Medium, nil, opts...), nil
}

func runCheckpointLs(cmd *cobra.Command) error {
	e, store, err := checkpointStore(cmd)
	if err != nil {
		return err
	}
	defer e.Close()

	ids, err := store.List(cmd.Context())
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	if len(ids) == 0 {
		fmt.Fprintln(out, "No checkpoints found.")
		return nil
	}
	fmt.Fprintln(out, "Checkpoints:")
	for _, id := range ids {
		fmt.Fprintln(out, "- "+id)
	}
	return nil
}

// runCheckpointInspect prints the raw envelope. Reading through the store
// would delete an entry that fails validation.
func runCheckpointInspect(cmd *cobra.Command, storyID string) error {
	e, store, err := checkpointStore(cmd)
	if err != nil {
		return err
	}
	defer e.Close()

	raw, found, err := e.storage.Medium.GetItem(cmd.Context(), store.Key(storyID))
	if err != nil {
		return err
	}
	if !found {
		return fmt.Errorf("no checkpoint")
	}

	var pretty bytes.Buffer
	if err := json.Indent(&pretty, []byte(raw), "", "  "); err != nil {
		// Not JSON; show it as stored.
		fmt.Fprintln(cmd.OutOrStdout(), raw)
		return nil
	}
	fmt.Fprintln(cmd.OutOrStdout(), pretty.String())
	return nil
}

func runCheckpointRm(cmd *cobra.Command, storyIDs []string) error {
	e, store, err := checkpointStore(cmd)
	if err != nil {
		return err
	}
	defer e.Close()

	out := cmd.OutOrStdout()
	failed := 0
	for _, id := range storyIDs {
		if err := e.storage.Medium.RemoveItem(cmd.Context(), store.Key(id)); err != nil {
			fmt.Fprintf(out, "Error removing '%s': %v\n", id, err)
			failed++
			continue
		}
		fmt.Fprintf(out, "Removed checkpoint '%s'\n", id)
	}
	if failed > 0 {
		return fmt.Errorf("%d checkpoint(s) could not be removed", failed)
	}
	return nil
}
