package loam

import (
	"context"
	"fmt"
	"path/filepath"
	"sort"
	"strings"

	"github.com/aretw0/loam"
	"github.com/aretw0/storyline/pkg/domain"
)

// Loader adapts a Loam repository of Markdown documents to ports.StoryLoader.
// Every document is one node; its body is the scene content.
type Loader struct {
	Repo  *loam.TypedRepository[SceneMetadata]
	id    string
	title string
}

// New creates a new Loam adapter for the story identified by storyID.
func New(repo *loam.TypedRepository[SceneMetadata], storyID, title string) *Loader {
	return &Loader{
		Repo:  repo,
		id:    storyID,
		title: title,
	}
}

// Open initializes a read-only Loam repository at dir and returns a loader for
// it. The story id is the directory name.
func Open(dir string) (*Loader, error) {
	absPath, err := filepath.Abs(dir)
	if err != nil {
		return nil, fmt.Errorf("invalid path: %w", err)
	}

	// The loader never writes; read-only mode avoids Loam's dev sandbox.
	repo, err := loam.Init(absPath,
		loam.WithStrict(true),
		loam.WithReadOnly(true),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize loam: %w", err)
	}

	id := filepath.Base(absPath)
	return New(loam.NewTypedRepository[SceneMetadata](repo), id, id), nil
}

type document struct {
	id      string
	meta    SceneMetadata
	content string
}

// Load lists the repository and builds the story graph.
// The start node is the one marked "start: true", or else the node named "start".
// Nodes are declared start first and then by id.
func (l *Loader) Load(ctx context.Context) (*domain.Story, error) {
	docs, err := l.documents(ctx)
	if err != nil {
		return nil, err
	}

	start := ""
	for _, d := range docs {
		if d.meta.Start {
			if start != "" {
				return nil, &domain.ConfigError{Problems: []string{
					fmt.Sprintf("both %q and %q are marked as start", start, d.id),
				}}
			}
			start = d.id
		}
	}
	if start == "" {
		start = "start"
	}

	sort.SliceStable(docs, func(i, j int) bool {
		if (docs[i].id == start) != (docs[j].id == start) {
			return docs[i].id == start
		}
		return docs[i].id < docs[j].id
	})

	nodes := make([]domain.Node, 0, len(docs))
	scenes := make(map[string]domain.SceneContent)
	for _, d := range docs {
		n := toNode(d)
		nodes = append(nodes, n)
		if scene, ok := n.(domain.SceneNode); ok {
			scenes[scene.SceneID] = domain.SceneContent{
				Title:   d.meta.Title,
				Speaker: d.meta.Speaker,
				Body:    strings.TrimSpace(d.content),
			}
		}
	}

	g, err := domain.NewGraph(nodes, start)
	if err != nil {
		return nil, fmt.Errorf("load story %q: %w", l.id, err)
	}
	return &domain.Story{ID: l.id, Title: l.title, Graph: g, Scenes: scenes}, nil
}

func (l *Loader) documents(ctx context.Context) ([]document, error) {
	list, err := l.Repo.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("loam list failed: %w", err)
	}

	seen := make(map[string]string)
	docs := make([]document, 0, len(list))
	for _, doc := range list {
		// Use the ID from metadata if available, otherwise filename ID
		rawID := doc.Data.ID
		if rawID == "" {
			rawID = doc.ID
		}
		id := trimExtension(rawID)

		if existing, ok := seen[id]; ok {
			return nil, fmt.Errorf("collision detected: ID '%s' is defined in both '%s' and '%s'", id, existing, doc.ID)
		}
		seen[id] = doc.ID
		docs = append(docs, document{id: id, meta: doc.Data, content: doc.Content})
	}
	return docs, nil
}

func toNode(d document) domain.Node {
	if d.meta.isChoice() {
		choiceID := d.meta.Choice
		if choiceID == "" {
			choiceID = d.id
		}
		options := make([]domain.Option, 0, len(d.meta.Options))
		for _, opt := range d.meta.Options {
			options = append(options, domain.Option{ID: opt.ID, Target: trimExtension(opt.To)})
		}
		return domain.ChoiceNode{ID: d.id, ChoiceID: choiceID, Options: options}
	}

	sceneID := d.meta.Scene
	if sceneID == "" {
		sceneID = d.id
	}
	next := d.meta.Next
	if next != "" {
		next = trimExtension(next)
	}
	return domain.SceneNode{ID: d.id, SceneID: sceneID, Next: next}
}

func trimExtension(id string) string {
	ext := filepath.Ext(id)
	if ext != "" {
		return filepath.ToSlash(strings.TrimSuffix(id, ext))
	}
	return filepath.ToSlash(id)
}
