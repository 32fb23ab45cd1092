package memory

import (
	"context"
	"fmt"

	"github.com/aretw0/storyline/pkg/domain"
)

// Loader implements ports.StoryLoader for stories declared in code.
type Loader struct {
	id     string
	title  string
	start  string
	nodes  []domain.Node
	scenes map[string]domain.SceneContent
}

// NewLoader creates a Loader for the given nodes rooted at start.
func NewLoader(id, start string, nodes ...domain.Node) *Loader {
	return &Loader{
		id:     id,
		start:  start,
		nodes:  nodes,
		scenes: make(map[string]domain.SceneContent),
	}
}

// WithTitle sets the story title.
func (l *Loader) WithTitle(title string) *Loader {
	l.title = title
	return l
}

// WithContent attaches presentable content to a scene id.
func (l *Loader) WithContent(sceneID string, content domain.SceneContent) *Loader {
	l.scenes[sceneID] = content
	return l
}

// Load validates the nodes and returns the story.
func (l *Loader) Load(ctx context.Context) (*domain.Story, error) {
	g, err := domain.NewGraph(l.nodes, l.start)
	if err != nil {
		return nil, fmt.Errorf("load story %q: %w", l.id, err)
	}
	scenes := make(map[string]domain.SceneContent, len(l.scenes))
	for k, v := range l.scenes {
		scenes[k] = v
	}
	return &domain.Story{ID: l.id, Title: l.title, Graph: g, Scenes: scenes}, nil
}
