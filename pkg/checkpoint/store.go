package checkpoint

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"sort"
	"strings"
	"time"

	"github.com/aretw0/storyline/internal/logging"
	"github.com/aretw0/storyline/pkg/domain"
	"github.com/aretw0/storyline/pkg/ports"
	"github.com/aretw0/storyline/pkg/schema"
)

// DefaultPrefix namespaces checkpoint keys in the medium.
const DefaultPrefix = "storyline:checkpoint:"

// Load outcomes reported through OnCheckpoint.
const (
	OutcomeOK       = "ok"
	OutcomeAbsent   = "absent"
	OutcomeRejected = "rejected"
	OutcomeSkipped  = "skipped"
	OutcomeError    = "error"
)

var envelopeSchema = schema.Schema{
	"version": schema.Int(),
	"storyId": schema.NonEmptyString(),
	"sceneId": schema.NonEmptyString(),
	"history": schema.Slice(schema.Custom("any", func(any) error { return nil })),
	"savedAt": schema.Int(),
}

// Store persists traversal progress per story on a key/value medium.
// Every medium fault is logged and degrades to "no checkpoint".
type Store struct {
	medium  ports.Medium
	catalog domain.SceneCatalog
	prefix  string
	logger  *slog.Logger
	hooks   domain.LifecycleHooks
	now     func() time.Time
}

// Option configures a Store.
type Option func(*Store)

// WithPrefix sets the key prefix for checkpoints.
func WithPrefix(prefix string) Option {
	return func(s *Store) {
		s.prefix = prefix
	}
}

// WithLogger sets the logger used for persistence warnings.
func WithLogger(logger *slog.Logger) Option {
	return func(s *Store) {
		if logger != nil {
			s.logger = logger
		}
	}
}

// WithLifecycleHooks registers OnCheckpoint callbacks.
func WithLifecycleHooks(hooks domain.LifecycleHooks) Option {
	return func(s *Store) {
		s.hooks = s.hooks.Merge(hooks)
	}
}

// WithClock overrides the time source used for SavedAt.
func WithClock(now func() time.Time) Option {
	return func(s *Store) {
		s.now = now
	}
}

// New creates a checkpoint store. A nil medium yields a store that never
// persists anything. catalog decides which scene ids are still valid on load;
// a nil catalog accepts every id.
func New(medium ports.Medium, catalog domain.SceneCatalog, opts ...Option) *Store {
	s := &Store{
		medium:  medium,
		catalog: catalog,
		prefix:  DefaultPrefix,
		logger:  logging.NewNop(),
		now:     time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Key returns the medium key holding the checkpoint of storyID.
func (s *Store) Key(storyID string) string {
	return s.prefix + storyID
}

// Save writes the envelope for progress. Empty histories are not saved.
func (s *Store) Save(ctx context.Context, storyID string, progress domain.Progress) {
	if len(progress.History) == 0 || s.medium == nil {
		s.emit(ctx, storyID, domain.CheckpointSave, OutcomeSkipped)
		return
	}

	cp := domain.Checkpoint{
		Version: domain.CheckpointVersion,
		StoryID: storyID,
		SceneID: progress.SceneID,
		History: append([]string(nil), progress.History...),
		SavedAt: s.now().UnixMilli(),
	}
	data, err := json.Marshal(cp)
	if err != nil {
		s.logger.Warn("checkpoint marshal failed", "story", storyID, "error", err)
		s.emit(ctx, storyID, domain.CheckpointSave, OutcomeError)
		return
	}

	if err := s.medium.SetItem(ctx, s.Key(storyID), string(data)); err != nil {
		s.logger.Warn("checkpoint save failed", "story", storyID, "error", err)
		s.emit(ctx, storyID, domain.CheckpointSave, OutcomeError)
		return
	}

	s.logger.Debug("checkpoint saved", "story", storyID, "scene", cp.SceneID, "depth", len(cp.History))
	s.emit(ctx, storyID, domain.CheckpointSave, OutcomeOK)
}

// Load returns the stored checkpoint of storyID, or false when there is no
// usable one. Entries that fail validation are removed from the medium.
func (s *Store) Load(ctx context.Context, storyID string) (*domain.Checkpoint, bool) {
	if s.medium == nil {
		s.emit(ctx, storyID, domain.CheckpointLoad, OutcomeSkipped)
		return nil, false
	}

	raw, found, err := s.medium.GetItem(ctx, s.Key(storyID))
	if err != nil {
		s.logger.Warn("checkpoint load failed", "story", storyID, "error", err)
		s.emit(ctx, storyID, domain.CheckpointLoad, OutcomeError)
		return nil, false
	}
	if !found {
		s.emit(ctx, storyID, domain.CheckpointLoad, OutcomeAbsent)
		return nil, false
	}

	cp, err := s.decode(storyID, raw)
	if err != nil {
		s.logger.Warn("checkpoint rejected", "story", storyID, "error", err)
		s.invalidate(ctx, storyID)
		s.emit(ctx, storyID, domain.CheckpointLoad, OutcomeRejected)
		return nil, false
	}

	s.emit(ctx, storyID, domain.CheckpointLoad, OutcomeOK)
	return cp, true
}

// Clear removes the checkpoint of storyID.
func (s *Store) Clear(ctx context.Context, storyID string) {
	if s.medium == nil {
		s.emit(ctx, storyID, domain.CheckpointClear, OutcomeSkipped)
		return
	}
	if err := s.medium.RemoveItem(ctx, s.Key(storyID)); err != nil {
		s.logger.Warn("checkpoint clear failed", "story", storyID, "error", err)
		s.emit(ctx, storyID, domain.CheckpointClear, OutcomeError)
		return
	}
	s.emit(ctx, storyID, domain.CheckpointClear, OutcomeOK)
}

// List returns the story ids holding a checkpoint, sorted.
// It returns domain.ErrMediumUnavailable when the medium cannot enumerate keys.
func (s *Store) List(ctx context.Context) ([]string, error) {
	listable, ok := s.medium.(ports.ListableMedium)
	if !ok {
		return nil, fmt.Errorf("list checkpoints: %w", domain.ErrMediumUnavailable)
	}
	keys, err := listable.Keys(ctx, s.prefix)
	if err != nil {
		return nil, fmt.Errorf("list checkpoints: %w", err)
	}
	ids := make([]string, 0, len(keys))
	for _, k := range keys {
		if id := strings.TrimPrefix(k, s.prefix); id != "" && id != k {
			ids = append(ids, id)
		}
	}
	sort.Strings(ids)
	return ids, nil
}

var errRejected = errors.New("invalid checkpoint")

func (s *Store) decode(storyID, raw string) (*domain.Checkpoint, error) {
	var doc map[string]any
	if err := json.Unmarshal([]byte(raw), &doc); err != nil {
		return nil, fmt.Errorf("%w: %v", errRejected, err)
	}
	if err := schema.Validate(envelopeSchema, doc); err != nil {
		return nil, fmt.Errorf("%w: %v", errRejected, err)
	}

	// History entries stay untyped until filtering; non-string ids are drift too.
	var env struct {
		domain.Checkpoint
		History []any `json:"history"`
	}
	if err := json.Unmarshal([]byte(raw), &env); err != nil {
		return nil, fmt.Errorf("%w: %v", errRejected, err)
	}
	cp := env.Checkpoint

	switch {
	case cp.Version != domain.CheckpointVersion:
		return nil, fmt.Errorf("%w: version %d, want %d", errRejected, cp.Version, domain.CheckpointVersion)
	case cp.StoryID != storyID:
		return nil, fmt.Errorf("%w: belongs to story %q", errRejected, cp.StoryID)
	case !s.known(cp.SceneID):
		return nil, fmt.Errorf("%w: unknown scene %q", errRejected, cp.SceneID)
	}

	history := make([]string, 0, len(env.History))
	for _, v := range env.History {
		if id, ok := v.(string); ok && s.known(id) {
			history = append(history, id)
		}
	}
	if len(history) == 0 {
		return nil, fmt.Errorf("%w: no known scenes in history", errRejected)
	}
	if dropped := len(env.History) - len(history); dropped > 0 {
		s.logger.Info("checkpoint history filtered", "story", storyID, "dropped", dropped)
	}
	cp.History = history
	return &cp, nil
}

func (s *Store) known(sceneID string) bool {
	return s.catalog == nil || s.catalog.IsKnownSceneID(sceneID)
}

func (s *Store) invalidate(ctx context.Context, storyID string) {
	if err := s.medium.RemoveItem(ctx, s.Key(storyID)); err != nil {
		s.logger.Warn("checkpoint invalidation failed", "story", storyID, "error", err)
	}
}

func (s *Store) emit(ctx context.Context, storyID string, op domain.CheckpointOp, outcome string) {
	if s.hooks.OnCheckpoint == nil {
		return
	}
	s.hooks.OnCheckpoint(ctx, &domain.CheckpointEvent{
		EventBase: domain.EventBase{Timestamp: s.now(), Type: domain.EventCheckpoint},
		StoryID:   storyID,
		Op:        op,
		Outcome:   outcome,
	})
}
