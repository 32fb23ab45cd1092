package observability

import (
	"context"
	"log/slog"

	"github.com/aretw0/storyline/pkg/domain"
)

// LogHooks returns lifecycle hooks that write every event to logger.
func LogHooks(logger *slog.Logger) domain.LifecycleHooks {
	node := func(msg string) func(context.Context, *domain.NodeEvent) {
		return func(ctx context.Context, e *domain.NodeEvent) {
			logger.DebugContext(ctx, msg,
				"node_id", e.NodeID,
				"scene_id", e.SceneID,
				"choice_id", e.ChoiceID,
			)
		}
	}

	return domain.LifecycleHooks{
		OnSceneEnter:  node("scene_enter"),
		OnChoiceEnter: node("choice_enter"),
		OnRetreat:     node("retreat"),
		OnEnd: func(ctx context.Context, e *domain.NodeEvent) {
			logger.InfoContext(ctx, "story_end", "node_id", e.NodeID)
		},
		OnOptionFallback: func(ctx context.Context, e *domain.FallbackEvent) {
			logger.WarnContext(ctx, "option_fallback",
				"choice_id", e.ChoiceID,
				"requested", e.Requested,
				"used", e.Used,
			)
		},
		OnCheckpoint: func(ctx context.Context, e *domain.CheckpointEvent) {
			level := slog.LevelDebug
			if e.Outcome == "rejected" || e.Outcome == "error" {
				level = slog.LevelWarn
			}
			logger.Log(ctx, level, "checkpoint",
				"story", e.StoryID,
				"op", e.Op,
				"outcome", e.Outcome,
			)
		},
		OnRestore: func(ctx context.Context, e *domain.RestoreEvent) {
			logger.InfoContext(ctx, "restore",
				"story", e.StoryID,
				"outcome", e.Outcome,
				"depth", e.Depth,
			)
		},
	}
}
