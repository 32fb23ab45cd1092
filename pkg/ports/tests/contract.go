package tests

import (
	"context"
	"errors"
	"testing"

	"github.com/aretw0/storyline/pkg/domain"
	"github.com/aretw0/storyline/pkg/ports"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// StoryLoaderContractTest is a reusable test suite that verifies if an adapter complies
// with ports.StoryLoader. wantScenes lists the scene ids the loaded story must contain,
// in the order they are first declared.
func StoryLoaderContractTest(t *testing.T, loader ports.StoryLoader, wantID string, wantScenes []string) {
	t.Helper()

	story, err := loader.Load(context.Background())
	require.NoError(t, err)
	require.NotNil(t, story)
	require.NotNil(t, story.Graph)

	t.Run("Identity", func(t *testing.T) {
		assert.Equal(t, wantID, story.ID)
	})

	t.Run("Scenes", func(t *testing.T) {
		assert.Equal(t, wantScenes, story.Graph.SceneIDs())
	})

	t.Run("Start Is A Scene", func(t *testing.T) {
		node, ok := story.Graph.Node(story.Graph.Start())
		require.True(t, ok)
		assert.Equal(t, domain.KindScene, node.Kind())
	})

	t.Run("Reload Is Stable", func(t *testing.T) {
		again, err := loader.Load(context.Background())
		require.NoError(t, err)
		assert.Equal(t, story.Graph.Nodes(), again.Graph.Nodes())
	})
}

// InvalidStoryContractTest verifies that a loader reports graph problems as a
// *domain.ConfigError wrapping domain.ErrInvalidGraph.
func InvalidStoryContractTest(t *testing.T, loader ports.StoryLoader) {
	t.Helper()

	_, err := loader.Load(context.Background())
	require.Error(t, err)
	assert.ErrorIs(t, err, domain.ErrInvalidGraph)

	var cfgErr *domain.ConfigError
	assert.True(t, errors.As(err, &cfgErr), "expected *domain.ConfigError, got %T", err)
}
