package registry_test

import (
	"testing"

	"github.com/aretw0/storyline/pkg/domain"
	"github.com/aretw0/storyline/pkg/registry"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRegistry_RegisterAndSeal(t *testing.T) {
	r := registry.NewRegistry()
	require.NoError(t, r.Register("harbor", domain.SceneContent{Title: "Harbor"}))
	assert.Error(t, r.Register("", domain.SceneContent{}))

	assert.True(t, r.IsKnownSceneID("harbor"))
	assert.False(t, r.IsKnownSceneID("lighthouse"))

	content, ok := r.Content("harbor")
	require.True(t, ok)
	assert.Equal(t, "Harbor", content.Title)

	r.Seal()
	err := r.Register("lighthouse", domain.SceneContent{})
	assert.ErrorIs(t, err, registry.ErrSealed)
	assert.False(t, r.IsKnownSceneID("lighthouse"))
}

func TestFromGraph(t *testing.T) {
	g, err := domain.NewLinearGraph("b", "a")
	require.NoError(t, err)

	r := registry.FromGraph(g)
	assert.Equal(t, []string{"a", "b"}, r.SceneIDs())
}

func TestFromStory_GuardsGraphConstruction(t *testing.T) {
	g, err := domain.NewLinearGraph("harbor", "lighthouse")
	require.NoError(t, err)
	story := &domain.Story{
		ID:     "coast",
		Graph:  g,
		Scenes: map[string]domain.SceneContent{"harbor": {Speaker: "Keeper"}},
	}

	r := registry.FromStory(story)
	content, ok := r.Content("harbor")
	require.True(t, ok)
	assert.Equal(t, "Keeper", content.Speaker)
	assert.ErrorIs(t, r.Register("cliff", domain.SceneContent{}), registry.ErrSealed)

	_, err = domain.NewGraph([]domain.Node{
		domain.SceneNode{ID: "s1", SceneID: "cliff"},
	}, "s1", domain.WithSceneCatalog(r))
	assert.ErrorIs(t, err, domain.ErrInvalidGraph)
}
