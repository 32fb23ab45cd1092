package storyline

import (
	"context"
	"fmt"
	"log/slog"
	"slices"
	"time"

	"github.com/aretw0/storyline/internal/logging"
	"github.com/aretw0/storyline/internal/runtime"
	"github.com/aretw0/storyline/pkg/checkpoint"
	"github.com/aretw0/storyline/pkg/domain"
	"github.com/aretw0/storyline/pkg/layout"
	"github.com/aretw0/storyline/pkg/ports"
	"github.com/aretw0/storyline/pkg/registry"
)

// Restore outcomes reported through OnRestore.
const (
	RestoreRestored = "restored"
	RestoreFresh    = "fresh"
	RestoreMismatch = "mismatch"
)

// Session is the high-level entry point for playing one story.
// It wraps the traversal engine and persists progress after every transition.
// A Session is owned by a single player and is not safe for concurrent use;
// see pkg/session for a concurrent host.
type Session struct {
	story   *domain.Story
	catalog *registry.Registry
	engine  *runtime.Engine
	store   *checkpoint.Store

	medium      ports.Medium
	storeOpts   []checkpoint.Option
	runtimeOpts []runtime.EngineOption
	hooks       domain.LifecycleHooks
	logger      *slog.Logger
	now         func() time.Time
}

// Option defines a functional option for configuring the Session.
type Option func(*Session)

// WithMedium persists checkpoints on the given medium.
// Without a medium the session plays without saving.
func WithMedium(m ports.Medium) Option {
	return func(s *Session) {
		s.medium = m
	}
}

// WithCheckpointPrefix sets the key prefix used on the medium.
func WithCheckpointPrefix(prefix string) Option {
	return func(s *Session) {
		if prefix != "" {
			s.storeOpts = append(s.storeOpts, checkpoint.WithPrefix(prefix))
		}
	}
}

// WithLifecycleHooks registers observability hooks.
// Repeated calls are merged.
func WithLifecycleHooks(hooks domain.LifecycleHooks) Option {
	return func(s *Session) {
		s.hooks = s.hooks.Merge(hooks)
	}
}

// WithLogger sets a custom structured logger for the session.
func WithLogger(logger *slog.Logger) Option {
	return func(s *Session) {
		if logger != nil {
			s.logger = logger
		}
	}
}

// WithStrictOptions makes Select reject unknown options with domain.ErrUnknownOption.
func WithStrictOptions() Option {
	return func(s *Session) {
		s.runtimeOpts = append(s.runtimeOpts, runtime.WithStrictOptions())
	}
}

// WithClock overrides the time source for events and checkpoints.
func WithClock(now func() time.Time) Option {
	return func(s *Session) {
		s.now = now
	}
}

// New creates a session positioned at the start of story.
// Call Resume to continue from a saved checkpoint.
func New(story *domain.Story, opts ...Option) (*Session, error) {
	if story == nil || story.Graph == nil {
		return nil, fmt.Errorf("new session: %w", domain.ErrStoryNotFound)
	}

	s := &Session{
		story:  story,
		logger: logging.NewNop(),
		now:    time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	s.logger = s.logger.With("story", story.ID)
	s.catalog = registry.FromStory(story)

	runtimeOpts := []runtime.EngineOption{
		runtime.WithLogger(s.logger),
		runtime.WithLifecycleHooks(s.hooks),
		runtime.WithClock(s.now),
	}
	s.engine = runtime.NewEngine(story.Graph, append(runtimeOpts, s.runtimeOpts...)...)

	storeOpts := []checkpoint.Option{
		checkpoint.WithLogger(s.logger),
		checkpoint.WithLifecycleHooks(s.hooks),
		checkpoint.WithClock(s.now),
	}
	s.store = checkpoint.New(s.medium, s.catalog, append(storeOpts, s.storeOpts...)...)

	return s, nil
}

// Story returns the story being played.
func (s *Session) Story() *domain.Story {
	return s.story
}

// Checkpoints returns the store the session saves into.
func (s *Session) Checkpoints() *checkpoint.Store {
	return s.store
}

// Resume continues from the saved checkpoint, if there is a usable one.
// A checkpoint that no longer replays on the current graph is cleared and the
// session starts fresh. The returned bool reports whether progress was restored.
func (s *Session) Resume(ctx context.Context) (domain.Step, bool) {
	cp, ok := s.store.Load(ctx, s.story.ID)
	if !ok {
		s.engine.Reset()
		s.emitRestore(ctx, RestoreFresh, 0)
		return s.engine.Step(), false
	}

	if err := s.engine.RestoreFromHistory(ctx, cp.History); err != nil {
		s.logger.Warn("stale checkpoint discarded", "error", err)
		s.store.Clear(ctx, s.story.ID)
		s.engine.Reset()
		s.emitRestore(ctx, RestoreMismatch, len(cp.History))
		return s.engine.Step(), false
	}

	s.emitRestore(ctx, RestoreRestored, len(cp.History))
	return s.engine.Step(), true
}

// Sync catches up with a checkpoint written by another process sharing the
// medium. It does nothing without a medium, when no checkpoint is readable, or
// when the checkpoint already matches the local history, so a session sitting
// at a choice keeps its position. It reports whether the position changed.
func (s *Session) Sync(ctx context.Context) bool {
	if s.medium == nil {
		return false
	}
	cp, ok := s.store.Load(ctx, s.story.ID)
	if !ok || slices.Equal(cp.History, s.engine.SceneHistory()) {
		return false
	}
	s.Resume(ctx)
	return true
}

// Step describes the current position without moving.
func (s *Session) Step() domain.Step {
	return s.engine.Step()
}

// Advance leaves the current scene.
func (s *Session) Advance(ctx context.Context) domain.Step {
	step := s.engine.AdvanceFromScene(ctx)
	s.save(ctx)
	return step
}

// Select takes an option of the current choice.
func (s *Session) Select(ctx context.Context, optionID string) (domain.Step, error) {
	step, err := s.engine.SelectChoice(ctx, optionID)
	if err != nil {
		return step, err
	}
	s.save(ctx)
	return step, nil
}

// Retreat goes back to the previous scene. It returns false at the first scene.
func (s *Session) Retreat(ctx context.Context) (domain.Step, bool) {
	if !s.engine.RetreatToPreviousScene(ctx) {
		return s.engine.Step(), false
	}
	s.save(ctx)
	return s.engine.Step(), true
}

// Reset returns to the start and forgets the saved checkpoint.
func (s *Session) Reset(ctx context.Context) domain.Step {
	s.engine.Reset()
	s.store.Clear(ctx, s.story.ID)
	return s.engine.Step()
}

// History returns the visited scene ids, oldest first.
func (s *Session) History() []string {
	return s.engine.SceneHistory()
}

// Choices returns the options taken along the current history.
func (s *Session) Choices() []domain.ChoiceRecord {
	return s.engine.ChoiceHistory()
}

// Content returns the presentable content of a scene.
func (s *Session) Content(sceneID string) (domain.SceneContent, bool) {
	return s.catalog.Content(sceneID)
}

// ProgressMap lays out the story graph against the current position.
func (s *Session) ProgressMap(opts ...layout.Option) *layout.Layout {
	return layout.New(s.engine.FlowNodes(), s.engine.CurrentNodeID(), s.engine.SceneHistory(), opts...)
}

func (s *Session) save(ctx context.Context) {
	s.store.Save(ctx, s.story.ID, s.engine.Progress())
}

func (s *Session) emitRestore(ctx context.Context, outcome string, depth int) {
	if s.hooks.OnRestore == nil {
		return
	}
	s.hooks.OnRestore(ctx, &domain.RestoreEvent{
		EventBase: domain.EventBase{Timestamp: s.now(), Type: domain.EventRestore},
		StoryID:   s.story.ID,
		Outcome:   outcome,
		Depth:     depth,
	})
}
