package main

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/aretw0/storyline/internal/config"
	"github.com/aretw0/storyline/internal/logging"
	"github.com/spf13/cobra"
)

var rootCmd = &cobra.Command{
	Use:   "storyline",
	Short: "Storyline plays branching stories and remembers where you left off",
	Long: `Storyline walks a story graph of scenes and choices, saves a checkpoint after
every step and draws the progress map. Stories are YAML/JSON files or
directories of Markdown scenes.`,
	SilenceUsage: true,
}

// Execute adds all child commands to the root command and sets flags appropriately.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func init() {
	// Persistent flags override the STORYLINE_* environment.
	rootCmd.PersistentFlags().String("env-file", ".env", "Dotenv file read before the environment")
	rootCmd.PersistentFlags().String("store", "", "Checkpoint store: memory, file, redis or sqlite")
	rootCmd.PersistentFlags().String("checkpoints", "", "Checkpoint directory for the file store")
	rootCmd.PersistentFlags().String("log-level", "", "Log level: debug, info, warn or error")
}

// loadConfig reads the environment and applies the flags the user set.
func loadConfig(cmd *cobra.Command) (config.Config, error) {
	envFile, _ := cmd.Flags().GetString("env-file")
	cfg, err := config.Load(envFile)
	if err != nil {
		return config.Config{}, err
	}

	if cmd.Flags().Changed("store") {
		cfg.Store, _ = cmd.Flags().GetString("store")
	}
	if cmd.Flags().Changed("checkpoints") {
		cfg.Dir, _ = cmd.Flags().GetString("checkpoints")
	}
	if cmd.Flags().Changed("log-level") {
		cfg.LogLevel, _ = cmd.Flags().GetString("log-level")
	}
	return cfg, cfg.Validate()
}

func newLogger(cfg config.Config) *slog.Logger {
	level, err := logging.ParseLevel(cfg.LogLevel)
	if err != nil {
		level = slog.LevelInfo
	}
	return logging.New(level)
}
