package dsl

import (
	"fmt"

	"github.com/aretw0/storyline/pkg/adapters/memory"
	"github.com/aretw0/storyline/pkg/domain"
)

// Builder manages the story construction.
// Nodes keep their declaration order; the first one is the start unless Start is called.
type Builder struct {
	id       string
	title    string
	start    string
	order    []string
	scenes   map[string]*SceneBuilder
	choices  map[string]*ChoiceBuilder
	problems []string
}

// New creates a new story builder.
func New(storyID string) *Builder {
	return &Builder{
		id:      storyID,
		scenes:  make(map[string]*SceneBuilder),
		choices: make(map[string]*ChoiceBuilder),
	}
}

// Title sets the story title.
func (b *Builder) Title(title string) *Builder {
	b.title = title
	return b
}

// Start overrides the start node.
func (b *Builder) Start(nodeID string) *Builder {
	b.start = nodeID
	return b
}

// Scene creates a scene node, or returns the existing builder for id.
func (b *Builder) Scene(id string) *SceneBuilder {
	if sb, ok := b.scenes[id]; ok {
		return sb
	}
	sb := &SceneBuilder{node: domain.SceneNode{ID: id, SceneID: id}}
	if b.declare(id, domain.KindScene) {
		b.scenes[id] = sb
	}
	return sb
}

// Choice creates a choice node, or returns the existing builder for id.
func (b *Builder) Choice(id string) *ChoiceBuilder {
	if cb, ok := b.choices[id]; ok {
		return cb
	}
	cb := &ChoiceBuilder{node: domain.ChoiceNode{ID: id, ChoiceID: id}}
	if b.declare(id, domain.KindChoice) {
		b.choices[id] = cb
	}
	return cb
}

// Sequence declares linked scenes, each continuing to the next.
func (b *Builder) Sequence(ids ...string) *Builder {
	for i, id := range ids {
		sb := b.Scene(id)
		if i+1 < len(ids) {
			sb.Then(ids[i+1])
		}
	}
	return b
}

func (b *Builder) declare(id string, kind domain.NodeKind) bool {
	for _, existing := range b.order {
		if existing == id {
			b.problems = append(b.problems, fmt.Sprintf("node %q is declared as both scene and %s", id, kind))
			return false
		}
	}
	b.order = append(b.order, id)
	return true
}

// Build compiles the story into a memory.Loader.
// Graph validation happens when the loader is loaded.
func (b *Builder) Build() (*memory.Loader, error) {
	if len(b.problems) > 0 {
		return nil, &domain.ConfigError{Problems: b.problems}
	}

	start := b.start
	if start == "" && len(b.order) > 0 {
		start = b.order[0]
	}

	nodes := make([]domain.Node, 0, len(b.order))
	content := make(map[string]domain.SceneContent)
	for _, id := range b.order {
		if sb, ok := b.scenes[id]; ok {
			nodes = append(nodes, sb.node)
			if sb.hasContent {
				content[sb.node.SceneID] = sb.content
			}
			continue
		}
		nodes = append(nodes, b.choices[id].node)
	}

	loader := memory.NewLoader(b.id, start, nodes...).WithTitle(b.title)
	for sceneID, c := range content {
		loader.WithContent(sceneID, c)
	}
	return loader, nil
}
