package checkpoint_test

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/aretw0/storyline/pkg/adapters/memory"
	"github.com/aretw0/storyline/pkg/checkpoint"
	"github.com/aretw0/storyline/pkg/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type sceneSet map[string]bool

func (s sceneSet) IsKnownSceneID(id string) bool { return s[id] }

var known = sceneSet{"harbor": true, "cliff": true, "lighthouse": true}

var fixedNow = time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)

func clock() time.Time { return fixedNow }

// failingMedium fails every operation.
type failingMedium struct{ removes int }

var errDown = errors.New("medium down")

func (f *failingMedium) GetItem(ctx context.Context, key string) (string, bool, error) {
	return "", false, errDown
}
func (f *failingMedium) SetItem(ctx context.Context, key, value string) error { return errDown }
func (f *failingMedium) RemoveItem(ctx context.Context, key string) error {
	f.removes++
	return errDown
}

func TestStore_SaveLoad(t *testing.T) {
	ctx := context.Background()
	medium := memory.NewMedium()
	store := checkpoint.New(medium, known, checkpoint.WithClock(clock))

	store.Save(ctx, "coast", domain.Progress{SceneID: "cliff", History: []string{"harbor", "cliff"}})

	raw, found, err := medium.GetItem(ctx, "storyline:checkpoint:coast")
	require.NoError(t, err)
	require.True(t, found)
	assert.JSONEq(t, `{"version":1,"storyId":"coast","sceneId":"cliff","history":["harbor","cliff"],"savedAt":1714564800000}`, raw)

	cp, ok := store.Load(ctx, "coast")
	require.True(t, ok)
	assert.Equal(t, []string{"harbor", "cliff"}, cp.History)
	assert.Equal(t, "cliff", cp.SceneID)
	assert.True(t, cp.SavedTime().Equal(fixedNow))
}

func TestStore_SaveEmptyHistoryIsNoop(t *testing.T) {
	ctx := context.Background()
	medium := memory.NewMedium()
	store := checkpoint.New(medium, known)

	store.Save(ctx, "coast", domain.Progress{SceneID: "harbor"})

	_, found, _ := medium.GetItem(ctx, store.Key("coast"))
	assert.False(t, found)
}

func TestStore_LoadRejects(t *testing.T) {
	ctx := context.Background()

	tests := []struct {
		name string
		raw  string
	}{
		{"Not JSON", `{{{`},
		{"Not An Object", `["harbor"]`},
		{"Missing History", `{"version":1,"storyId":"coast","sceneId":"harbor","savedAt":0}`},
		{"History Not Strings", `{"version":1,"storyId":"coast","sceneId":"harbor","history":[1,2],"savedAt":0}`},
		{"History Not Array", `{"version":1,"storyId":"coast","sceneId":"harbor","history":"harbor","savedAt":0}`},
		{"Old Version", `{"version":0,"storyId":"coast","sceneId":"harbor","history":["harbor"],"savedAt":0}`},
		{"Future Version", `{"version":2,"storyId":"coast","sceneId":"harbor","history":["harbor"],"savedAt":0}`},
		{"Other Story", `{"version":1,"storyId":"desert","sceneId":"harbor","history":["harbor"],"savedAt":0}`},
		{"Unknown Scene", `{"version":1,"storyId":"coast","sceneId":"volcano","history":["harbor"],"savedAt":0}`},
		{"History Filtered Empty", `{"version":1,"storyId":"coast","sceneId":"harbor","history":["volcano","reef"],"savedAt":0}`},
		{"Empty History", `{"version":1,"storyId":"coast","sceneId":"harbor","history":[],"savedAt":0}`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			medium := memory.NewMedium()
			var outcomes []string
			store := checkpoint.New(medium, known, checkpoint.WithLifecycleHooks(domain.LifecycleHooks{
				OnCheckpoint: func(_ context.Context, e *domain.CheckpointEvent) {
					outcomes = append(outcomes, e.Outcome)
				},
			}))
			require.NoError(t, medium.SetItem(ctx, store.Key("coast"), tt.raw))

			cp, ok := store.Load(ctx, "coast")
			assert.False(t, ok)
			assert.Nil(t, cp)
			assert.Equal(t, []string{checkpoint.OutcomeRejected}, outcomes)

			_, found, _ := medium.GetItem(ctx, store.Key("coast"))
			assert.False(t, found, "rejected checkpoints are invalidated")
		})
	}
}

func TestStore_LoadFiltersUnknownHistory(t *testing.T) {
	ctx := context.Background()
	medium := memory.NewMedium()
	store := checkpoint.New(medium, known)

	raw := `{"version":1,"storyId":"coast","sceneId":"cliff","history":["harbor","old_pier","cliff"],"savedAt":1}`
	require.NoError(t, medium.SetItem(ctx, store.Key("coast"), raw))

	cp, ok := store.Load(ctx, "coast")
	require.True(t, ok)
	assert.Equal(t, []string{"harbor", "cliff"}, cp.History)
}

func TestStore_LoadDropsNonStringHistory(t *testing.T) {
	ctx := context.Background()
	medium := memory.NewMedium()
	store := checkpoint.New(medium, known)

	raw := `{"version":1,"storyId":"coast","sceneId":"harbor","history":["harbor",7,null],"savedAt":1}`
	require.NoError(t, medium.SetItem(ctx, store.Key("coast"), raw))

	cp, ok := store.Load(ctx, "coast")
	require.True(t, ok)
	assert.Equal(t, []string{"harbor"}, cp.History)
	assert.Equal(t, int64(1), cp.SavedAt)

	_, found, _ := medium.GetItem(ctx, store.Key("coast"))
	assert.True(t, found, "tolerated checkpoints stay stored")
}

func TestStore_LoadAbsent(t *testing.T) {
	store := checkpoint.New(memory.NewMedium(), known)
	_, ok := store.Load(context.Background(), "coast")
	assert.False(t, ok)
}

func TestStore_MediumFailuresAreSwallowed(t *testing.T) {
	ctx := context.Background()
	medium := &failingMedium{}

	var events []domain.CheckpointEvent
	store := checkpoint.New(medium, known, checkpoint.WithLifecycleHooks(domain.LifecycleHooks{
		OnCheckpoint: func(_ context.Context, e *domain.CheckpointEvent) {
			events = append(events, *e)
		},
	}))

	assert.NotPanics(t, func() {
		store.Save(ctx, "coast", domain.Progress{SceneID: "harbor", History: []string{"harbor"}})
		store.Clear(ctx, "coast")
	})
	_, ok := store.Load(ctx, "coast")
	assert.False(t, ok)

	require.Len(t, events, 3)
	for _, e := range events {
		assert.Equal(t, checkpoint.OutcomeError, e.Outcome)
	}
	assert.Equal(t, 1, medium.removes, "a read failure is not an invalid entry")
}

func TestStore_NilMedium(t *testing.T) {
	ctx := context.Background()
	store := checkpoint.New(nil, known)

	store.Save(ctx, "coast", domain.Progress{SceneID: "harbor", History: []string{"harbor"}})
	store.Clear(ctx, "coast")
	_, ok := store.Load(ctx, "coast")
	assert.False(t, ok)

	_, err := store.List(ctx)
	assert.ErrorIs(t, err, domain.ErrMediumUnavailable)
}

func TestStore_ClearAndList(t *testing.T) {
	ctx := context.Background()
	medium := memory.NewMedium()
	store := checkpoint.New(medium, nil, checkpoint.WithPrefix("game:"))

	for _, id := range []string{"desert", "coast"} {
		store.Save(ctx, id, domain.Progress{SceneID: "start", History: []string{"start"}})
	}
	require.NoError(t, medium.SetItem(ctx, "unrelated", "x"))

	ids, err := store.List(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{"coast", "desert"}, ids)

	store.Clear(ctx, "coast")
	ids, err = store.List(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{"desert"}, ids)
}

func TestStore_EnvelopeShape(t *testing.T) {
	ctx := context.Background()
	medium := memory.NewMedium()
	store := checkpoint.New(medium, known, checkpoint.WithClock(clock))
	store.Save(ctx, "coast", domain.Progress{SceneID: "harbor", History: []string{"harbor"}})

	raw, _, _ := medium.GetItem(ctx, store.Key("coast"))
	var doc map[string]any
	require.NoError(t, json.Unmarshal([]byte(raw), &doc))
	assert.ElementsMatch(t, []string{"version", "storyId", "sceneId", "history", "savedAt"}, keysOf(doc))
}

func keysOf(m map[string]any) []string {
	out := make([]string, 0, len(m))
	for k := range m {
		out = append(out, k)
	}
	return out
}
