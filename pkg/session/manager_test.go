package session_test

import (
	"context"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/aretw0/storyline"
	"github.com/aretw0/storyline/pkg/adapters/memory"
	"github.com/aretw0/storyline/pkg/domain"
	"github.com/aretw0/storyline/pkg/ports"
	"github.com/aretw0/storyline/pkg/session"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func linearStory(t *testing.T, id string, n int) *domain.Story {
	t.Helper()
	ids := make([]string, n)
	for i := range ids {
		ids[i] = fmt.Sprintf("s%02d", i)
	}
	g, err := domain.NewLinearGraph(ids...)
	require.NoError(t, err)
	return &domain.Story{ID: id, Graph: g, Scenes: map[string]domain.SceneContent{}}
}

func history(t *testing.T, m *session.Manager, storyID string) []string {
	t.Helper()
	var h []string
	require.NoError(t, m.WithSession(context.Background(), storyID, func(_ context.Context, s *storyline.Session) error {
		h = s.History()
		return nil
	}))
	return h
}

func advance(t *testing.T, m *session.Manager, storyID string) {
	t.Helper()
	require.NoError(t, m.WithSession(context.Background(), storyID, func(ctx context.Context, s *storyline.Session) error {
		s.Advance(ctx)
		return nil
	}))
}

func TestManager_Register(t *testing.T) {
	m := session.NewManager()
	require.NoError(t, m.Register(linearStory(t, "b", 2)))
	require.NoError(t, m.Register(linearStory(t, "a", 2)))

	assert.Error(t, m.Register(linearStory(t, "a", 3)), "duplicate ids are rejected")
	assert.ErrorIs(t, m.Register(nil), domain.ErrStoryNotFound)
	assert.Equal(t, []string{"a", "b"}, m.StoryIDs())

	_, ok := m.Story("a")
	assert.True(t, ok)
}

func TestManager_UnknownStory(t *testing.T) {
	m := session.NewManager()
	called := false
	err := m.WithSession(context.Background(), "ghost", func(context.Context, *storyline.Session) error {
		called = true
		return nil
	})
	assert.ErrorIs(t, err, domain.ErrStoryNotFound)
	assert.False(t, called)
}

func TestManager_ResumesFromCheckpoint(t *testing.T) {
	ctx := context.Background()
	medium := memory.NewMedium()
	story := linearStory(t, "trail", 5)

	first, err := storyline.New(story, storyline.WithMedium(medium))
	require.NoError(t, err)
	first.Advance(ctx)
	first.Advance(ctx)

	m := session.NewManager(session.WithSessionOptions(storyline.WithMedium(medium)))
	require.NoError(t, m.Register(story))
	assert.Equal(t, []string{"s00", "s01", "s02"}, history(t, m, "trail"))
}

func TestManager_Locking(t *testing.T) {
	m := session.NewManager(session.WithSessionOptions(storyline.WithMedium(memory.NewMedium())))
	require.NoError(t, m.Register(linearStory(t, "race", 40)))

	var wg sync.WaitGroup
	concurrent := 20
	for i := 0; i < concurrent; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			err := m.WithSession(context.Background(), "race", func(ctx context.Context, s *storyline.Session) error {
				s.Advance(ctx)
				return nil
			})
			assert.NoError(t, err)
		}()
	}
	wg.Wait()

	assert.Len(t, history(t, m, "race"), concurrent+1, "every advance must be applied exactly once")
}

func TestManager_ForgetKeepsCheckpoint(t *testing.T) {
	m := session.NewManager(session.WithSessionOptions(storyline.WithMedium(memory.NewMedium())))
	require.NoError(t, m.Register(linearStory(t, "trail", 4)))

	advance(t, m, "trail")
	require.NoError(t, m.Forget(context.Background(), "trail"))
	assert.Equal(t, []string{"s00", "s01"}, history(t, m, "trail"))
}

// localLocker is a process-local DistributedLocker for tests.
type localLocker struct {
	mu    sync.Mutex
	held  map[string]*sync.Mutex
	calls int
}

func (l *localLocker) Lock(ctx context.Context, key string, ttl time.Duration) (ports.UnlockFunc, error) {
	l.mu.Lock()
	if l.held == nil {
		l.held = make(map[string]*sync.Mutex)
	}
	km, ok := l.held[key]
	if !ok {
		km = &sync.Mutex{}
		l.held[key] = km
	}
	l.calls++
	l.mu.Unlock()

	km.Lock()
	return func(context.Context) error {
		km.Unlock()
		return nil
	}, nil
}

func TestManager_DistributedReplicas(t *testing.T) {
	medium := memory.NewMedium()
	locker := &localLocker{}
	story := linearStory(t, "shared", 6)

	replicaA := session.NewManager(session.WithLocker(locker), session.WithSessionOptions(storyline.WithMedium(medium)))
	replicaB := session.NewManager(session.WithLocker(locker), session.WithSessionOptions(storyline.WithMedium(medium)))
	require.NoError(t, replicaA.Register(story))
	require.NoError(t, replicaB.Register(story))

	advance(t, replicaA, "shared")
	assert.Equal(t, []string{"s00", "s01"}, history(t, replicaB, "shared"))

	advance(t, replicaB, "shared")
	advance(t, replicaB, "shared")
	assert.Equal(t, []string{"s00", "s01", "s02", "s03"}, history(t, replicaA, "shared"),
		"a cached session catches up with writes from another replica")

	locker.mu.Lock()
	defer locker.mu.Unlock()
	assert.Equal(t, 5, locker.calls)
}

type failingLocker struct{}

func (failingLocker) Lock(context.Context, string, time.Duration) (ports.UnlockFunc, error) {
	return nil, context.DeadlineExceeded
}

func TestManager_LockFailure(t *testing.T) {
	m := session.NewManager(session.WithLocker(failingLocker{}))
	require.NoError(t, m.Register(linearStory(t, "x", 2)))

	err := m.WithSession(context.Background(), "x", func(context.Context, *storyline.Session) error {
		t.Fatal("must not run without the lock")
		return nil
	})
	assert.ErrorIs(t, err, context.DeadlineExceeded)
}

func TestManager_StoryOptions(t *testing.T) {
	entered := map[string]int{}
	var mu sync.Mutex
	m := session.NewManager(session.WithStoryOptions(func(story *domain.Story) []storyline.Option {
		return []storyline.Option{storyline.WithLifecycleHooks(domain.LifecycleHooks{
			OnSceneEnter: func(context.Context, *domain.NodeEvent) {
				mu.Lock()
				entered[story.ID]++
				mu.Unlock()
			},
		})}
	}))
	require.NoError(t, m.Register(linearStory(t, "a", 3)))
	require.NoError(t, m.Register(linearStory(t, "b", 3)))

	advance(t, m, "a")
	advance(t, m, "a")
	advance(t, m, "b")

	assert.Equal(t, map[string]int{"a": 2, "b": 1}, entered)
}
