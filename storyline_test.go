package storyline_test

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/aretw0/storyline"
	"github.com/aretw0/storyline/pkg/adapters/memory"
	"github.com/aretw0/storyline/pkg/checkpoint"
	"github.com/aretw0/storyline/pkg/domain"
	"github.com/aretw0/storyline/pkg/dsl"
	"github.com/aretw0/storyline/pkg/layout"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// lighthouse: harbor -> path {climb: lamp, wait: harbor}; lamp is terminal.
func lighthouse(t *testing.T) *domain.Story {
	t.Helper()
	b := dsl.New("lighthouse").Title("The Lighthouse")
	b.Scene("harbor").Title("The Harbor").Speaker("Keeper").Body("The fog rolls in.").Then("path")
	b.Choice("path").Option("climb", "lamp").Option("wait", "harbor")
	b.Scene("lamp").Body("The lamp is dark.")

	loader, err := b.Build()
	require.NoError(t, err)
	story, err := loader.Load(context.Background())
	require.NoError(t, err)
	return story
}

func stored(t *testing.T, m *memory.Medium, storyID string) *domain.Checkpoint {
	t.Helper()
	raw, found, err := m.GetItem(context.Background(), checkpoint.DefaultPrefix+storyID)
	require.NoError(t, err)
	if !found {
		return nil
	}
	var cp domain.Checkpoint
	require.NoError(t, json.Unmarshal([]byte(raw), &cp))
	return &cp
}

func TestNew_NilStory(t *testing.T) {
	_, err := storyline.New(nil)
	assert.ErrorIs(t, err, domain.ErrStoryNotFound)
}

func TestSession_PersistsAfterTransitions(t *testing.T) {
	ctx := context.Background()
	medium := memory.NewMedium()
	s, err := storyline.New(lighthouse(t), storyline.WithMedium(medium))
	require.NoError(t, err)

	step := s.Advance(ctx)
	assert.Equal(t, domain.ModeChoice, step.Mode)
	assert.Equal(t, []string{"climb", "wait"}, step.Options)

	step, err = s.Select(ctx, "climb")
	require.NoError(t, err)
	assert.Equal(t, "lamp", step.SceneID)

	cp := stored(t, medium, "lighthouse")
	require.NotNil(t, cp)
	assert.Equal(t, domain.CheckpointVersion, cp.Version)
	assert.Equal(t, "lamp", cp.SceneID)
	assert.Equal(t, []string{"harbor", "lamp"}, cp.History)

	assert.Equal(t, domain.ModeEnd, s.Advance(ctx).Mode)
	assert.Equal(t, []domain.ChoiceRecord{{NodeID: "path", ChoiceID: "path", OptionID: "climb"}}, s.Choices())
}

func TestSession_Resume(t *testing.T) {
	ctx := context.Background()
	medium := memory.NewMedium()
	story := lighthouse(t)

	first, err := storyline.New(story, storyline.WithMedium(medium))
	require.NoError(t, err)
	first.Advance(ctx)
	_, err = first.Select(ctx, "climb")
	require.NoError(t, err)

	var outcomes []string
	hooks := domain.LifecycleHooks{OnRestore: func(_ context.Context, e *domain.RestoreEvent) {
		outcomes = append(outcomes, e.Outcome)
	}}
	second, err := storyline.New(story, storyline.WithMedium(medium), storyline.WithLifecycleHooks(hooks))
	require.NoError(t, err)

	step, restored := second.Resume(ctx)
	assert.True(t, restored)
	assert.Equal(t, "lamp", step.SceneID)
	assert.Equal(t, []string{"harbor", "lamp"}, second.History())
	assert.Equal(t, []domain.ChoiceRecord{{NodeID: "path", ChoiceID: "path", OptionID: "climb"}}, second.Choices(),
		"option history is rebuilt on restore")
	assert.Equal(t, []string{storyline.RestoreRestored}, outcomes)
}

func TestSession_ResumeFresh(t *testing.T) {
	s, err := storyline.New(lighthouse(t), storyline.WithMedium(memory.NewMedium()))
	require.NoError(t, err)

	step, restored := s.Resume(context.Background())
	assert.False(t, restored)
	assert.Equal(t, "harbor", step.SceneID)
}

func TestSession_ResumeMismatchClears(t *testing.T) {
	ctx := context.Background()
	medium := memory.NewMedium()
	// Both scene ids exist, but lamp is not reachable from harbor without the choice.
	stale := `{"version":1,"storyId":"lighthouse","sceneId":"harbor","history":["lamp","harbor"],"savedAt":0}`
	require.NoError(t, medium.SetItem(ctx, checkpoint.DefaultPrefix+"lighthouse", stale))

	var outcomes []string
	hooks := domain.LifecycleHooks{OnRestore: func(_ context.Context, e *domain.RestoreEvent) {
		outcomes = append(outcomes, e.Outcome)
	}}
	s, err := storyline.New(lighthouse(t), storyline.WithMedium(medium), storyline.WithLifecycleHooks(hooks))
	require.NoError(t, err)

	step, restored := s.Resume(ctx)
	assert.False(t, restored)
	assert.Equal(t, "harbor", step.SceneID)
	assert.Equal(t, []string{"harbor"}, s.History())
	assert.Nil(t, stored(t, medium, "lighthouse"), "stale checkpoint is cleared")
	assert.Equal(t, []string{storyline.RestoreMismatch}, outcomes)
}

func TestSession_RetreatAndReset(t *testing.T) {
	ctx := context.Background()
	medium := memory.NewMedium()
	s, err := storyline.New(lighthouse(t), storyline.WithMedium(medium))
	require.NoError(t, err)

	_, moved := s.Retreat(ctx)
	assert.False(t, moved, "cannot retreat past the first scene")

	s.Advance(ctx)
	_, err = s.Select(ctx, "climb")
	require.NoError(t, err)

	step, moved := s.Retreat(ctx)
	assert.True(t, moved)
	assert.Equal(t, "harbor", step.SceneID)
	assert.Equal(t, []string{"harbor"}, stored(t, medium, "lighthouse").History)

	step = s.Reset(ctx)
	assert.Equal(t, "harbor", step.SceneID)
	assert.Nil(t, stored(t, medium, "lighthouse"))
}

func TestSession_OptionPolicy(t *testing.T) {
	ctx := context.Background()

	lenient, err := storyline.New(lighthouse(t))
	require.NoError(t, err)
	lenient.Advance(ctx)
	step, err := lenient.Select(ctx, "fly")
	require.NoError(t, err)
	assert.True(t, step.Fallback)
	assert.Equal(t, "lamp", step.SceneID, "unknown options fall back to the first-declared one")

	strict, err := storyline.New(lighthouse(t), storyline.WithStrictOptions())
	require.NoError(t, err)
	strict.Advance(ctx)
	_, err = strict.Select(ctx, "fly")
	assert.ErrorIs(t, err, domain.ErrUnknownOption)
	assert.Equal(t, domain.ModeChoice, strict.Step().Mode, "strict mode leaves the cursor in place")
}

func TestSession_ClockStampsCheckpoints(t *testing.T) {
	ctx := context.Background()
	medium := memory.NewMedium()
	at := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)
	s, err := storyline.New(lighthouse(t), storyline.WithMedium(medium), storyline.WithClock(func() time.Time { return at }))
	require.NoError(t, err)

	s.Advance(ctx)
	assert.Equal(t, at.UnixMilli(), stored(t, medium, "lighthouse").SavedAt)
}

func TestSession_CheckpointPrefix(t *testing.T) {
	ctx := context.Background()
	medium := memory.NewMedium()
	s, err := storyline.New(lighthouse(t), storyline.WithMedium(medium), storyline.WithCheckpointPrefix("game:"))
	require.NoError(t, err)

	s.Advance(ctx)
	_, found, err := medium.GetItem(ctx, "game:lighthouse")
	require.NoError(t, err)
	assert.True(t, found)
}

func TestSession_Sync(t *testing.T) {
	ctx := context.Background()
	medium := memory.NewMedium()
	story := lighthouse(t)

	a, err := storyline.New(story, storyline.WithMedium(medium))
	require.NoError(t, err)
	b, err := storyline.New(story, storyline.WithMedium(medium))
	require.NoError(t, err)

	a.Advance(ctx)
	assert.False(t, a.Sync(ctx), "a session at a choice keeps its position when the checkpoint matches")
	assert.Equal(t, domain.ModeChoice, a.Step().Mode)

	_, err = a.Select(ctx, "climb")
	require.NoError(t, err)
	assert.True(t, b.Sync(ctx))
	assert.Equal(t, []string{"harbor", "lamp"}, b.History())
}

func TestSession_ProgressMap(t *testing.T) {
	ctx := context.Background()
	s, err := storyline.New(lighthouse(t))
	require.NoError(t, err)
	s.Advance(ctx)

	m := s.ProgressMap()
	harbor, ok := m.Node("harbor")
	require.True(t, ok)
	assert.Equal(t, layout.StateCompleted, harbor.State)

	path, _ := m.Node("path")
	assert.Equal(t, layout.StateCurrent, path.State)

	lamp, _ := m.Node("lamp")
	assert.Equal(t, layout.StateLocked, lamp.State)
}

func TestSession_Content(t *testing.T) {
	s, err := storyline.New(lighthouse(t))
	require.NoError(t, err)

	c, ok := s.Content("harbor")
	require.True(t, ok)
	assert.Equal(t, "Keeper", c.Speaker)
	assert.Equal(t, "lighthouse", s.Story().ID)
}
