package main

import (
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/aretw0/storyline"
	httpAdapter "github.com/aretw0/storyline/pkg/adapters/http"
	"github.com/aretw0/storyline/pkg/domain"
	"github.com/aretw0/storyline/pkg/observability"
	"github.com/aretw0/storyline/pkg/session"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/spf13/cobra"
)

var serveCmd = &cobra.Command{
	Use:   "serve <story>...",
	Short: "Serve stories over HTTP",
	Long: `Starts the JSON HTTP API for one or more stories. Each story has a single
shared session persisted in the configured store. With the redis store,
replicas coordinate through a distributed lock. Metrics are exposed on /metrics.`,
	Args: cobra.MinimumNArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		if err := runServe(cmd, args); err != nil {
			fmt.Fprintf(os.Stderr, "Server error: %v\n", err)
			os.Exit(1)
		}
	},
}

func init() {
	rootCmd.AddCommand(serveCmd)
	serveCmd.Flags().StringP("addr", "a", "", "Address to listen on (default STORYLINE_HTTP_ADDR)")
}

func runServe(cmd *cobra.Command, paths []string) error {
	e, err := openEnv(cmd)
	if err != nil {
		return err
	}
	defer e.Close()

	addr := e.cfg.HTTPAddr
	if cmd.Flags().Changed("addr") {
		addr, _ = cmd.Flags().GetString("addr")
	}

	mgr, err := e.newManager(cmd, paths, prometheus.DefaultRegisterer)
	if err != nil {
		return err
	}
	handler, err := httpAdapter.NewHandler(mgr, httpAdapter.WithLogger(e.logger))
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	e.logger.Info("serving stories", "stories", mgr.StoryIDs(), "store", e.cfg.Store)
	return httpAdapter.ListenAndServe(ctx, addr, handler, e.logger)
}

// newManager loads every story and hosts it with per-story metrics.
// A nil registerer disables metrics.
func (e *env) newManager(cmd *cobra.Command, paths []string, reg prometheus.Registerer) (*session.Manager, error) {
	opts := []session.Option{
		session.WithLogger(e.logger),
		session.WithSessionOptions(e.sessionOptions()...),
	}
	if e.storage.Locker != nil {
		opts = append(opts, session.WithLocker(e.storage.Locker))
	}
	if reg != nil {
		metrics, err := observability.NewMetrics(reg)
		if err != nil {
			return nil, err
		}
		opts = append(opts, session.WithStoryOptions(func(s *domain.Story) []storyline.Option {
			return []storyline.Option{storyline.WithLifecycleHooks(metrics.Hooks(s.ID))}
		}))
	}

	mgr := session.NewManager(opts...)
	for _, path := range paths {
		story, err := storyline.LoadStory(cmd.Context(), path)
		if err != nil {
			return nil, err
		}
		if err := mgr.Register(story); err != nil {
			return nil, err
		}
	}
	return mgr, nil
}
