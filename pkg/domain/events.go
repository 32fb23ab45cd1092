package domain

import (
	"context"
	"time"
)

// EventType defines the category of the event.
type EventType string

const (
	EventSceneEnter     EventType = "scene_enter"
	EventChoiceEnter    EventType = "choice_enter"
	EventEnd            EventType = "end"
	EventRetreat        EventType = "retreat"
	EventOptionFallback EventType = "option_fallback"
	EventCheckpoint     EventType = "checkpoint"
	EventRestore        EventType = "restore"
)

// EventBase contains common fields for all events.
type EventBase struct {
	Timestamp time.Time `json:"timestamp"`
	Type      EventType `json:"type"`
}

// NodeEvent reports the cursor entering or leaving a node.
type NodeEvent struct {
	EventBase
	NodeID   string `json:"node_id"`
	SceneID  string `json:"scene_id,omitempty"`
	ChoiceID string `json:"choice_id,omitempty"`
}

// FallbackEvent reports an unknown option replaced by the first-declared one.
type FallbackEvent struct {
	EventBase
	ChoiceID  string `json:"choice_id"`
	Requested string `json:"requested"`
	Used      string `json:"used"`
}

// CheckpointOp names a checkpoint store operation.
type CheckpointOp string

const (
	CheckpointSave  CheckpointOp = "save"
	CheckpointLoad  CheckpointOp = "load"
	CheckpointClear CheckpointOp = "clear"
)

// CheckpointEvent reports the outcome of a checkpoint store operation.
// Outcome is "ok", "absent", "rejected", "skipped" or "error".
type CheckpointEvent struct {
	EventBase
	StoryID string       `json:"story_id"`
	Op      CheckpointOp `json:"op"`
	Outcome string       `json:"outcome"`
}

// RestoreEvent reports the outcome of resuming a story from its checkpoint.
// Outcome is "restored", "fresh" (no checkpoint) or "mismatch".
type RestoreEvent struct {
	EventBase
	StoryID string `json:"story_id"`
	Outcome string `json:"outcome"`
	Depth   int    `json:"depth"`
}

// LifecycleHooks defines callbacks for engine observability.
type LifecycleHooks struct {
	OnSceneEnter     func(context.Context, *NodeEvent)
	OnChoiceEnter    func(context.Context, *NodeEvent)
	OnEnd            func(context.Context, *NodeEvent)
	OnRetreat        func(context.Context, *NodeEvent)
	OnOptionFallback func(context.Context, *FallbackEvent)
	OnCheckpoint     func(context.Context, *CheckpointEvent)
	OnRestore        func(context.Context, *RestoreEvent)
}

// Merge returns hooks that call h first and then other.
func (h LifecycleHooks) Merge(other LifecycleHooks) LifecycleHooks {
	return LifecycleHooks{
		OnSceneEnter:     chain(h.OnSceneEnter, other.OnSceneEnter),
		OnChoiceEnter:    chain(h.OnChoiceEnter, other.OnChoiceEnter),
		OnEnd:            chain(h.OnEnd, other.OnEnd),
		OnRetreat:        chain(h.OnRetreat, other.OnRetreat),
		OnOptionFallback: chain(h.OnOptionFallback, other.OnOptionFallback),
		OnCheckpoint:     chain(h.OnCheckpoint, other.OnCheckpoint),
		OnRestore:        chain(h.OnRestore, other.OnRestore),
	}
}

func chain[E any](a, b func(context.Context, E)) func(context.Context, E) {
	switch {
	case a == nil:
		return b
	case b == nil:
		return a
	}
	return func(ctx context.Context, e E) {
		a(ctx, e)
		b(ctx, e)
	}
}
