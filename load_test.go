package storyline_test

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/aretw0/storyline"
	"github.com/aretw0/storyline/internal/testutils"
	"github.com/aretw0/storyline/pkg/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadStory_File(t *testing.T) {
	path := filepath.Join(t.TempDir(), "day.yaml")
	require.NoError(t, os.WriteFile(path, []byte("sequence: [dawn, dusk]\n"), 0644))

	story, err := storyline.LoadStory(context.Background(), path)
	require.NoError(t, err)
	assert.Equal(t, "day", story.ID)
	assert.Equal(t, []string{"dawn", "dusk"}, story.Graph.SceneIDs())
}

func TestLoadStory_Directory(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "harbor-tale")
	testutils.WriteFiles(t, dir, map[string]string{
		"start.md": "---\ntitle: Dock\nnext: end\n---\nWaves.",
		"end.md":   "---\ntitle: Home\n---\nQuiet.",
	})

	story, err := storyline.LoadStory(context.Background(), dir)
	require.NoError(t, err)
	assert.Equal(t, "harbor-tale", story.ID)
	assert.Equal(t, "start", story.Graph.Start())

	content, ok := story.Content("start")
	require.True(t, ok)
	assert.Equal(t, "Waves.", content.Body)
}

func TestLoadStory_Missing(t *testing.T) {
	_, err := storyline.LoadStory(context.Background(), filepath.Join(t.TempDir(), "nope"))
	assert.ErrorIs(t, err, domain.ErrStoryNotFound)
}
