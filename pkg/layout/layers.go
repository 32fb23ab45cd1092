package layout

import "github.com/aretw0/storyline/pkg/domain"

type edgeKey struct{ from, to string }

// buildEdges collects edges in declaration order, skipping unknown targets.
func (l *Layout) buildEdges() {
	for _, n := range l.nodes {
		switch src := l.source[n.ID].(type) {
		case domain.SceneNode:
			if _, ok := l.source[src.Next]; ok {
				l.edges = append(l.edges, Edge{From: src.ID, To: src.Next})
			}
		case domain.ChoiceNode:
			for _, opt := range src.Options {
				if _, ok := l.source[opt.Target]; ok {
					l.edges = append(l.edges, Edge{From: src.ID, To: opt.Target, Option: opt.ID})
				}
			}
		}
	}
}

// roots returns nodes without incoming edges, falling back to the first node.
func (l *Layout) roots() []string {
	incoming := make(map[string]bool, len(l.nodes))
	for _, e := range l.edges {
		incoming[e.To] = true
	}
	var roots []string
	for _, n := range l.nodes {
		if !incoming[n.ID] {
			roots = append(roots, n.ID)
		}
	}
	if len(roots) == 0 {
		roots = []string{l.nodes[0].ID}
	}
	return roots
}

// markBackEdges flags edges that close a cycle, found by depth-first search
// from the roots and then from any node still unvisited, in declaration order.
func (l *Layout) markBackEdges() {
	const (
		white = iota
		grey
		black
	)
	adj := make(map[string][]edgeKey, len(l.nodes))
	for _, e := range l.edges {
		adj[e.From] = append(adj[e.From], edgeKey{e.From, e.To})
	}

	color := make(map[string]int, len(l.nodes))
	back := make(map[edgeKey]bool)

	var visit func(id string)
	visit = func(id string) {
		color[id] = grey
		for _, k := range adj[id] {
			switch color[k.to] {
			case grey:
				back[k] = true
			case white:
				visit(k.to)
			}
		}
		color[id] = black
	}

	for _, id := range l.roots() {
		if color[id] == white {
			visit(id)
		}
	}
	for _, n := range l.nodes {
		if color[n.ID] == white {
			visit(n.ID)
		}
	}

	for i := range l.edges {
		l.edges[i].Back = back[edgeKey{l.edges[i].From, l.edges[i].To}]
	}
}

// assignLayers computes the longest-path layer of every node over the
// forward edges by breadth-first relaxation: a node is re-enqueued whenever
// a later edge pushes it further right.
func (l *Layout) assignLayers() {
	l.markBackEdges()

	succ := make(map[string][]string, len(l.nodes))
	hasPred := make(map[string]bool, len(l.nodes))
	for _, e := range l.edges {
		if e.Back {
			continue
		}
		succ[e.From] = append(succ[e.From], e.To)
		hasPred[e.To] = true
	}

	layer := make(map[string]int, len(l.nodes))
	var queue []string
	for _, n := range l.nodes {
		if !hasPred[n.ID] {
			layer[n.ID] = 0
			queue = append(queue, n.ID)
		}
	}

	for len(queue) > 0 {
		id := queue[0]
		queue = queue[1:]
		for _, next := range succ[id] {
			candidate := layer[id] + 1
			if current, ok := layer[next]; !ok || candidate > current {
				layer[next] = candidate
				queue = append(queue, next)
			}
		}
	}

	maxLayer := 0
	for i := range l.nodes {
		l.nodes[i].Layer = layer[l.nodes[i].ID]
		if l.nodes[i].Layer > maxLayer {
			maxLayer = l.nodes[i].Layer
		}
	}
	l.layers = make([][]string, maxLayer+1)
	for _, n := range l.nodes {
		l.layers[n.Layer] = append(l.layers[n.Layer], n.ID)
	}
}

// position spreads layers across the width and centers each layer vertically.
func (l *Layout) position() {
	cfg := l.cfg

	spacing := 0.0
	if len(l.layers) > 1 {
		spacing = (cfg.Width - 2*cfg.Padding) / float64(len(l.layers)-1)
		if spacing > cfg.MaxLayerSpacing {
			spacing = cfg.MaxLayerSpacing
		}
		if spacing < 0 {
			spacing = 0
		}
	}

	tallest := 0
	for _, ids := range l.layers {
		if len(ids) > tallest {
			tallest = len(ids)
		}
	}
	if needed := float64(tallest-1)*cfg.NodeSpacing + 2*cfg.Padding; needed > l.height {
		l.height = needed
	}
	if needed := float64(len(l.layers)-1)*spacing + 2*cfg.Padding; needed > l.width {
		l.width = needed
	}

	center := l.height / 2
	for layer, ids := range l.layers {
		top := center - float64(len(ids)-1)*cfg.NodeSpacing/2
		for i, id := range ids {
			n := &l.nodes[l.index[id]]
			n.X = cfg.Padding + float64(layer)*spacing
			n.Y = top + float64(i)*cfg.NodeSpacing
		}
	}
}
