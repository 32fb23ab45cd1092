package dsl

import (
	"context"
	"testing"

	"github.com/aretw0/storyline/pkg/domain"
	"github.com/aretw0/storyline/pkg/ports/tests"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func lighthouse() *Builder {
	b := New("lighthouse").Title("The Lighthouse")

	b.Scene("harbor").
		Title("The Harbor").
		Speaker("Keeper").
		Body("The fog rolls in.").
		Then("path")

	b.Choice("path").
		Option("climb", "lamp").
		Option("wait", "harbor")

	b.Scene("lamp").Shows("lamp_room").Body("The lamp is dark.")
	return b
}

func TestBuilder_Contract(t *testing.T) {
	loader, err := lighthouse().Build()
	require.NoError(t, err)
	tests.StoryLoaderContractTest(t, loader, "lighthouse", []string{"harbor", "lamp_room"})
}

func TestBuilder_SimpleFlow(t *testing.T) {
	loader, err := lighthouse().Build()
	require.NoError(t, err)

	story, err := loader.Load(context.Background())
	require.NoError(t, err)

	assert.Equal(t, "The Lighthouse", story.Title)
	assert.Equal(t, "harbor", story.Graph.Start(), "first declared node is the start")

	n, ok := story.Graph.Node("path")
	require.True(t, ok)
	choice, ok := n.(domain.ChoiceNode)
	require.True(t, ok)
	assert.Equal(t, []string{"climb", "wait"}, choice.OptionIDs())

	content, ok := story.Content("lamp_room")
	require.True(t, ok, "content is keyed by scene id")
	assert.Equal(t, "The lamp is dark.", content.Body)

	harbor, _ := story.Content("harbor")
	assert.Equal(t, "Keeper", harbor.Speaker)
}

func TestBuilder_Sequence(t *testing.T) {
	loader, err := New("day").Sequence("dawn", "noon", "dusk").Build()
	require.NoError(t, err)

	story, err := loader.Load(context.Background())
	require.NoError(t, err)
	assert.Equal(t, []string{"dawn", "noon", "dusk"}, story.Graph.SceneIDs())
}

func TestBuilder_Start(t *testing.T) {
	b := New("s").Start("b")
	b.Scene("a")
	b.Scene("b").Then("a")

	loader, err := b.Build()
	require.NoError(t, err)
	story, err := loader.Load(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "b", story.Graph.Start())
}

func TestBuilder_RepeatedDeclaration(t *testing.T) {
	b := New("s")
	b.Scene("a").Title("first")
	b.Scene("a").Then("b")
	b.Scene("b")

	loader, err := b.Build()
	require.NoError(t, err)
	story, err := loader.Load(context.Background())
	require.NoError(t, err)

	n, _ := story.Graph.Node("a")
	assert.Equal(t, "b", n.(domain.SceneNode).Next, "re-declaring returns the same builder")
	assert.Equal(t, 2, story.Graph.Len())
}

func TestBuilder_KindConflict(t *testing.T) {
	b := New("s")
	b.Scene("x")
	b.Choice("x").Option("o", "x")

	_, err := b.Build()
	assert.ErrorIs(t, err, domain.ErrInvalidGraph)
}

func TestBuilder_InvalidGraphSurfacesOnLoad(t *testing.T) {
	b := New("s")
	b.Scene("a").Then("ghost")

	loader, err := b.Build()
	require.NoError(t, err)
	tests.InvalidStoryContractTest(t, loader)
}
