package domain

import "fmt"

// SceneCatalog answers whether a scene identifier refers to available content.
type SceneCatalog interface {
	IsKnownSceneID(id string) bool
}

// Graph is the immutable flow graph of a story.
// Nodes are stored in a flat arena keyed by id; order records declaration order.
type Graph struct {
	start string
	order []string
	nodes map[string]Node
}

// GraphOption configures graph validation.
type GraphOption func(*graphConfig)

type graphConfig struct {
	catalog SceneCatalog
}

// WithSceneCatalog makes construction reject scene nodes whose scene id is unknown.
func WithSceneCatalog(c SceneCatalog) GraphOption {
	return func(cfg *graphConfig) {
		cfg.catalog = c
	}
}

// NewGraph validates nodes and returns the graph rooted at start.
// All problems are collected into a single *ConfigError.
func NewGraph(nodes []Node, start string, opts ...GraphOption) (*Graph, error) {
	cfg := &graphConfig{}
	for _, opt := range opts {
		opt(cfg)
	}

	if len(nodes) == 0 {
		return nil, &ConfigError{Problems: []string{"graph has no nodes"}}
	}

	g := &Graph{
		start: start,
		order: make([]string, 0, len(nodes)),
		nodes: make(map[string]Node, len(nodes)),
	}

	var problems []string
	for i, n := range nodes {
		if n == nil {
			problems = append(problems, fmt.Sprintf("node #%d is nil", i))
			continue
		}
		switch n.(type) {
		case SceneNode, ChoiceNode:
		default:
			problems = append(problems, fmt.Sprintf("node #%d has unsupported type %T", i, n))
			continue
		}
		id := n.NodeID()
		if id == "" {
			problems = append(problems, fmt.Sprintf("node #%d has an empty id", i))
			continue
		}
		if _, dup := g.nodes[id]; dup {
			problems = append(problems, fmt.Sprintf("duplicate node id %q", id))
			continue
		}
		g.nodes[id] = n
		g.order = append(g.order, id)
	}

	startNode, ok := g.nodes[start]
	switch {
	case !ok:
		problems = append(problems, fmt.Sprintf("start node %q does not exist", start))
	case startNode.Kind() != KindScene:
		problems = append(problems, fmt.Sprintf("start node %q is a %s node, want scene", start, startNode.Kind()))
	}

	for _, id := range g.order {
		switch n := g.nodes[id].(type) {
		case SceneNode:
			if n.Next != "" {
				if _, ok := g.nodes[n.Next]; !ok {
					problems = append(problems, fmt.Sprintf("scene node %q points to unknown node %q", id, n.Next))
				}
			}
			if cfg.catalog != nil && !cfg.catalog.IsKnownSceneID(n.SceneID) {
				problems = append(problems, fmt.Sprintf("scene node %q references unknown scene %q", id, n.SceneID))
			}
		case ChoiceNode:
			seen := make(map[string]bool, len(n.Options))
			for _, opt := range n.Options {
				if seen[opt.ID] {
					problems = append(problems, fmt.Sprintf("choice node %q declares option %q twice", id, opt.ID))
				}
				seen[opt.ID] = true
				if _, ok := g.nodes[opt.Target]; !ok {
					problems = append(problems, fmt.Sprintf("choice node %q option %q points to unknown node %q", id, opt.ID, opt.Target))
				}
			}
		}
	}

	if len(problems) > 0 {
		return nil, &ConfigError{Problems: problems}
	}
	return g, nil
}

// NewLinearGraph builds a purely linear graph from an ordered list of scene ids.
// Each node id equals its scene id.
func NewLinearGraph(sceneIDs ...string) (*Graph, error) {
	if len(sceneIDs) == 0 {
		return nil, &ConfigError{Problems: []string{"graph has no nodes"}}
	}
	nodes := make([]Node, 0, len(sceneIDs))
	for i, id := range sceneIDs {
		n := SceneNode{ID: id, SceneID: id}
		if i+1 < len(sceneIDs) {
			n.Next = sceneIDs[i+1]
		}
		nodes = append(nodes, n)
	}
	return NewGraph(nodes, sceneIDs[0])
}

// Start returns the id of the start node.
func (g *Graph) Start() string {
	return g.start
}

// Node looks up a node by id.
func (g *Graph) Node(id string) (Node, bool) {
	n, ok := g.nodes[id]
	return n, ok
}

// Nodes returns the nodes in declaration order.
func (g *Graph) Nodes() []Node {
	out := make([]Node, 0, len(g.order))
	for _, id := range g.order {
		out = append(out, g.nodes[id])
	}
	return out
}

// Len returns the number of nodes.
func (g *Graph) Len() int {
	return len(g.order)
}

// SceneIDs returns the distinct scene ids referenced by scene nodes.
func (g *Graph) SceneIDs() []string {
	seen := make(map[string]bool)
	var ids []string
	for _, id := range g.order {
		if n, ok := g.nodes[id].(SceneNode); ok && !seen[n.SceneID] {
			seen[n.SceneID] = true
			ids = append(ids, n.SceneID)
		}
	}
	return ids
}
