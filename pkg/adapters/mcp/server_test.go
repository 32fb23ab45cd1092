package mcp

import (
	"context"
	"encoding/json"
	"testing"

	"github.com/aretw0/storyline"
	"github.com/aretw0/storyline/pkg/adapters/memory"
	"github.com/aretw0/storyline/pkg/domain"
	"github.com/aretw0/storyline/pkg/dsl"
	"github.com/aretw0/storyline/pkg/session"
	"github.com/mark3labs/mcp-go/mcp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestServer(t *testing.T) *Server {
	t.Helper()
	b := dsl.New("lighthouse")
	b.Scene("harbor").Body("The fog rolls in.").Then("path")
	b.Choice("path").Option("climb", "lamp").Option("wait", "harbor")
	b.Scene("lamp")
	loader, err := b.Build()
	require.NoError(t, err)
	story, err := loader.Load(context.Background())
	require.NoError(t, err)

	mgr := session.NewManager(session.WithSessionOptions(storyline.WithMedium(memory.NewMedium())))
	require.NoError(t, mgr.Register(story))
	return NewServer(mgr, nil)
}

func TestTools_Play(t *testing.T) {
	ctx := context.Background()
	s := newTestServer(t)
	args := storyArgs{StoryID: "lighthouse"}

	state, err := s.handleState(ctx, mcp.CallToolRequest{}, args)
	require.NoError(t, err)
	assert.Equal(t, "harbor", state.SceneID)
	require.NotNil(t, state.Content)
	assert.Equal(t, "The fog rolls in.", state.Content.Body)

	state, err = s.handleAdvance(ctx, mcp.CallToolRequest{}, args)
	require.NoError(t, err)
	assert.Equal(t, domain.ModeChoice, state.Mode)
	assert.Equal(t, []string{"climb", "wait"}, state.Options)

	state, err = s.handleSelect(ctx, mcp.CallToolRequest{}, selectArgs{StoryID: "lighthouse", Option: "fly"})
	require.NoError(t, err)
	assert.True(t, state.Fallback)
	assert.Equal(t, "lamp", state.SceneID)

	state, err = s.handleRetreat(ctx, mcp.CallToolRequest{}, args)
	require.NoError(t, err)
	assert.Equal(t, []string{"harbor"}, state.History)

	s.handleAdvance(ctx, mcp.CallToolRequest{}, args)
	s.handleSelect(ctx, mcp.CallToolRequest{}, selectArgs{StoryID: "lighthouse", Option: "climb"})
	state, err = s.handleAdvance(ctx, mcp.CallToolRequest{}, args)
	require.NoError(t, err)
	assert.True(t, state.Terminal)
}

func TestTools_UnknownStory(t *testing.T) {
	s := newTestServer(t)
	_, err := s.handleState(context.Background(), mcp.CallToolRequest{}, storyArgs{StoryID: "ghost"})
	assert.ErrorIs(t, err, domain.ErrStoryNotFound)
}

func TestTools_ProgressMap(t *testing.T) {
	ctx := context.Background()
	s := newTestServer(t)

	res, err := s.handleMap(ctx, mcp.CallToolRequest{}, mapArgs{StoryID: "lighthouse"})
	require.NoError(t, err)
	assert.Equal(t, "text", res.Format)
	assert.Contains(t, res.Map, "> harbor")

	res, err = s.handleMap(ctx, mcp.CallToolRequest{}, mapArgs{StoryID: "lighthouse", Format: "mermaid"})
	require.NoError(t, err)
	assert.Contains(t, res.Map, "graph LR")

	_, err = s.handleMap(ctx, mcp.CallToolRequest{}, mapArgs{StoryID: "lighthouse", Format: "svg"})
	assert.Error(t, err)
}

func TestTools_Listed(t *testing.T) {
	s := newTestServer(t)
	resp := s.mcpServer.HandleMessage(context.Background(),
		json.RawMessage(`{"jsonrpc":"2.0","id":1,"method":"tools/list","params":{}}`))

	data, err := json.Marshal(resp)
	require.NoError(t, err)
	for _, name := range []string{"story_state", "advance", "select_choice", "retreat", "progress_map"} {
		assert.Contains(t, string(data), `"name":"`+name+`"`)
	}
}
