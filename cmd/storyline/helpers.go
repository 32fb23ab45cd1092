package main

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/aretw0/storyline"
	"github.com/aretw0/storyline/internal/config"
	"github.com/aretw0/storyline/pkg/domain"
	"github.com/aretw0/storyline/pkg/observability"
	"github.com/spf13/cobra"
)

// env bundles what every command needs: settings, a logger and the opened storage.
type env struct {
	cfg     config.Config
	logger  *slog.Logger
	storage *config.Storage
}

func openEnv(cmd *cobra.Command) (*env, error) {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return nil, err
	}
	storage, err := cfg.OpenStorage()
	if err != nil {
		return nil, fmt.Errorf("open %s store: %w", cfg.Store, err)
	}
	return &env{cfg: cfg, logger: newLogger(cfg), storage: storage}, nil
}

func (e *env) Close() {
	if err := e.storage.Close(); err != nil {
		e.logger.Warn("failed to close checkpoint store", "err", err)
	}
}

// sessionOptions are shared by single-player commands and hosted sessions.
func (e *env) sessionOptions() []storyline.Option {
	opts := []storyline.Option{
		storyline.WithMedium(e.storage.Medium),
		storyline.WithCheckpointPrefix(e.cfg.CheckpointPrefix),
		storyline.WithLogger(e.logger),
		storyline.WithLifecycleHooks(observability.LogHooks(e.logger)),
	}
	if e.cfg.StrictOptions {
		opts = append(opts, storyline.WithStrictOptions())
	}
	return opts
}

// openSession loads the story at path and resumes its checkpoint.
func (e *env) openSession(ctx context.Context, path string) (*storyline.Session, domain.Step, error) {
	story, err := storyline.LoadStory(ctx, path)
	if err != nil {
		return nil, domain.Step{}, err
	}
	s, err := storyline.New(story, e.sessionOptions()...)
	if err != nil {
		return nil, domain.Step{}, err
	}
	step, restored := s.Resume(ctx)
	e.logger.Debug("session opened", "story", story.ID, "restored", restored, "node", step.NodeID)
	return s, step, nil
}
