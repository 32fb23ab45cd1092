package storyline

import (
	"context"
	"fmt"
	"os"

	"github.com/aretw0/storyline/pkg/adapters/loam"
	"github.com/aretw0/storyline/pkg/adapters/storyfile"
	"github.com/aretw0/storyline/pkg/domain"
	"github.com/aretw0/storyline/pkg/ports"
)

// LoadStory loads a story from path. A directory is read as a Loam repository
// of Markdown scenes; a file is parsed as a YAML or JSON story document.
func LoadStory(ctx context.Context, path string) (*domain.Story, error) {
	info, err := os.Stat(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("%s: %w", path, domain.ErrStoryNotFound)
		}
		return nil, fmt.Errorf("failed to stat story: %w", err)
	}

	var loader ports.StoryLoader
	if info.IsDir() {
		l, err := loam.Open(path)
		if err != nil {
			return nil, err
		}
		loader = l
	} else {
		loader = storyfile.New(path)
	}
	return loader.Load(ctx)
}
