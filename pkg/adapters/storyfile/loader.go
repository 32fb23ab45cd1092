// Package storyfile loads stories from a single YAML or JSON document.
//
//	id: lighthouse
//	title: The Lighthouse
//	start: harbor
//	scenes:
//	  harbor: {title: The Harbor, body: The fog rolls in.}
//	nodes:
//	  - {id: harbor, scene: harbor, next: path}
//	  - id: path
//	    options:
//	      - {id: climb, to: lamp}
//	      - {id: wait, to: harbor}
//	  - {id: lamp, scene: lamp_room}
//
// Linear stories may use the shorthand "sequence: [a, b, c]" instead of nodes.
package storyfile

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/aretw0/storyline/pkg/domain"
	"github.com/mitchellh/mapstructure"
	"gopkg.in/yaml.v3"
)

// Loader implements ports.StoryLoader for a story file on disk.
type Loader struct {
	Path string
}

// New creates a loader for the file at path.
func New(path string) *Loader {
	return &Loader{Path: path}
}

// Load reads and parses the file. The story id defaults to the file name.
func (l *Loader) Load(ctx context.Context) (*domain.Story, error) {
	data, err := os.ReadFile(l.Path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("%s: %w", l.Path, domain.ErrStoryNotFound)
		}
		return nil, fmt.Errorf("failed to read story file: %w", err)
	}
	base := filepath.Base(l.Path)
	return Parse(data, strings.TrimSuffix(base, filepath.Ext(base)))
}

type storyDocument struct {
	ID       string                         `mapstructure:"id"`
	Title    string                         `mapstructure:"title"`
	Start    string                         `mapstructure:"start"`
	Scenes   map[string]domain.SceneContent `mapstructure:"scenes"`
	Nodes    []nodeSpec                     `mapstructure:"nodes"`
	Sequence []string                       `mapstructure:"sequence"`
}

type nodeSpec struct {
	ID      string       `mapstructure:"id"`
	Kind    string       `mapstructure:"kind"`
	Scene   string       `mapstructure:"scene"`
	Next    string       `mapstructure:"next"`
	Choice  string       `mapstructure:"choice"`
	Options []optionSpec `mapstructure:"options"`
}

type optionSpec struct {
	ID string `mapstructure:"id"`
	To string `mapstructure:"to"`
}

// Parse decodes a YAML or JSON story document. defaultID is used when the
// document does not name the story.
func Parse(data []byte, defaultID string) (*domain.Story, error) {
	var raw map[string]any
	if err := yaml.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("failed to parse story: %w", err)
	}

	var doc storyDocument
	decoder, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		Result:           &doc,
		ErrorUnused:      true,
		WeaklyTypedInput: true,
	})
	if err != nil {
		return nil, err
	}
	if err := decoder.Decode(raw); err != nil {
		return nil, &domain.ConfigError{Problems: []string{err.Error()}}
	}

	if doc.ID == "" {
		doc.ID = defaultID
	}
	if len(doc.Nodes) > 0 && len(doc.Sequence) > 0 {
		return nil, &domain.ConfigError{Problems: []string{"story declares both nodes and sequence"}}
	}

	var g *domain.Graph
	if len(doc.Sequence) > 0 {
		g, err = domain.NewLinearGraph(doc.Sequence...)
	} else {
		g, err = buildGraph(doc)
	}
	if err != nil {
		return nil, fmt.Errorf("load story %q: %w", doc.ID, err)
	}

	scenes := doc.Scenes
	if scenes == nil {
		scenes = make(map[string]domain.SceneContent)
	}
	return &domain.Story{ID: doc.ID, Title: doc.Title, Graph: g, Scenes: scenes}, nil
}

func buildGraph(doc storyDocument) (*domain.Graph, error) {
	var problems []string
	nodes := make([]domain.Node, 0, len(doc.Nodes))
	for i, spec := range doc.Nodes {
		n, err := spec.node()
		if err != nil {
			problems = append(problems, fmt.Sprintf("node #%d: %v", i, err))
			continue
		}
		nodes = append(nodes, n)
	}
	if len(problems) > 0 {
		return nil, &domain.ConfigError{Problems: problems}
	}

	start := doc.Start
	if start == "" && len(nodes) > 0 {
		start = nodes[0].NodeID()
	}
	return domain.NewGraph(nodes, start)
}

func (s nodeSpec) node() (domain.Node, error) {
	kind := domain.NodeKind(s.Kind)
	if kind == "" {
		kind = domain.KindScene
		if len(s.Options) > 0 || s.Choice != "" {
			kind = domain.KindChoice
		}
	}

	switch kind {
	case domain.KindScene:
		if len(s.Options) > 0 {
			return nil, fmt.Errorf("scene %q declares options", s.ID)
		}
		sceneID := s.Scene
		if sceneID == "" {
			sceneID = s.ID
		}
		return domain.SceneNode{ID: s.ID, SceneID: sceneID, Next: s.Next}, nil

	case domain.KindChoice:
		if s.Next != "" {
			return nil, fmt.Errorf("choice %q declares next; use options", s.ID)
		}
		choiceID := s.Choice
		if choiceID == "" {
			choiceID = s.ID
		}
		options := make([]domain.Option, 0, len(s.Options))
		for _, o := range s.Options {
			options = append(options, domain.Option{ID: o.ID, Target: o.To})
		}
		return domain.ChoiceNode{ID: s.ID, ChoiceID: choiceID, Options: options}, nil
	}
	return nil, fmt.Errorf("unknown kind %q", s.Kind)
}
