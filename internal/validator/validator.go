// Package validator reports authoring problems that a valid graph may still have.
package validator

import (
	"fmt"
	"sort"

	"github.com/aretw0/storyline/pkg/domain"
)

// Report lists the findings of a story analysis. None of them prevents play.
type Report struct {
	// Unreachable holds nodes that no path from the start reaches.
	Unreachable []string
	// DeadEndChoices holds choices without options; entering one ends the story.
	DeadEndChoices []string
	// Endings holds scene nodes without a next node.
	Endings []string
	// MissingContent holds scene ids with no entry in the content table.
	MissingContent []string
}

// Warnings renders the report as human readable lines.
func (r Report) Warnings() []string {
	var out []string
	for _, id := range r.Unreachable {
		out = append(out, fmt.Sprintf("node %q is unreachable from the start", id))
	}
	for _, id := range r.DeadEndChoices {
		out = append(out, fmt.Sprintf("choice %q has no options", id))
	}
	for _, id := range r.MissingContent {
		out = append(out, fmt.Sprintf("scene %q has no content", id))
	}
	if len(r.Endings) == 0 && len(r.DeadEndChoices) == 0 {
		out = append(out, "story has no ending")
	}
	return out
}

// OK reports whether there is nothing to warn about.
func (r Report) OK() bool {
	return len(r.Warnings()) == 0
}

// ValidateGraph crawls the graph from its start node.
func ValidateGraph(g *domain.Graph) Report {
	var r Report

	visited := make(map[string]bool)
	queue := []string{g.Start()}
	for len(queue) > 0 {
		currentID := queue[0]
		queue = queue[1:]

		if visited[currentID] {
			continue
		}
		visited[currentID] = true

		n, ok := g.Node(currentID)
		if !ok {
			continue
		}
		for _, target := range n.Targets() {
			if !visited[target] {
				queue = append(queue, target)
			}
		}
	}

	for _, n := range g.Nodes() {
		if !visited[n.NodeID()] {
			r.Unreachable = append(r.Unreachable, n.NodeID())
		}
		switch n := n.(type) {
		case domain.SceneNode:
			if n.Next == "" {
				r.Endings = append(r.Endings, n.ID)
			}
		case domain.ChoiceNode:
			if len(n.Options) == 0 {
				r.DeadEndChoices = append(r.DeadEndChoices, n.ID)
			}
		}
	}
	return r
}

// ValidateStory runs ValidateGraph and also checks the content table.
func ValidateStory(s *domain.Story) Report {
	r := ValidateGraph(s.Graph)
	for _, id := range s.Graph.SceneIDs() {
		if _, ok := s.Content(id); !ok {
			r.MissingContent = append(r.MissingContent, id)
		}
	}
	sort.Strings(r.MissingContent)
	return r
}
