package layout

import "github.com/aretw0/storyline/pkg/domain"

// Defaults for Config.
const (
	DefaultWidth           = 960
	DefaultHeight          = 540
	DefaultNodeSpacing     = 80
	DefaultMaxLayerSpacing = 180
	DefaultPadding         = 40

	CompletedOpacity = 1.0
	PlainOpacity     = 0.35
)

// State is the visual classification of a node.
type State string

const (
	StateLocked    State = "locked"
	StateCompleted State = "completed"
	StateCurrent   State = "current"
)

// Node is a positioned, classified graph node.
type Node struct {
	ID    string          `json:"id"`
	Kind  domain.NodeKind `json:"kind"`
	Label string          `json:"label"`
	Layer int             `json:"layer"`
	X     float64         `json:"x"`
	Y     float64         `json:"y"`
	State State           `json:"state"`
}

// Edge connects two positioned nodes. Option is set for edges leaving a choice.
// Back marks an edge that closes a cycle and is ignored for layering.
type Edge struct {
	From      string  `json:"from"`
	To        string  `json:"to"`
	Option    string  `json:"option,omitempty"`
	Back      bool    `json:"back,omitempty"`
	Completed bool    `json:"completed"`
	Opacity   float64 `json:"opacity"`
}

// Config holds the geometry of a layout.
type Config struct {
	Width           float64
	Height          float64
	NodeSpacing     float64
	MaxLayerSpacing float64
	Padding         float64
}

// Option configures a Layout.
type Option func(*Layout)

// WithSize sets the available canvas size.
func WithSize(width, height float64) Option {
	return func(l *Layout) {
		l.cfg.Width = width
		l.cfg.Height = height
	}
}

// WithConfig replaces the whole geometry. Zero fields keep their defaults.
func WithConfig(cfg Config) Option {
	return func(l *Layout) {
		if cfg.Width > 0 {
			l.cfg.Width = cfg.Width
		}
		if cfg.Height > 0 {
			l.cfg.Height = cfg.Height
		}
		if cfg.NodeSpacing > 0 {
			l.cfg.NodeSpacing = cfg.NodeSpacing
		}
		if cfg.MaxLayerSpacing > 0 {
			l.cfg.MaxLayerSpacing = cfg.MaxLayerSpacing
		}
		if cfg.Padding > 0 {
			l.cfg.Padding = cfg.Padding
		}
	}
}

// WithNodeClicked makes the layout interactive: Click dispatches to fn.
func WithNodeClicked(fn func(Node)) Option {
	return func(l *Layout) {
		l.onClick = fn
	}
}

// Layout is a layered left-to-right drawing of a flow graph.
// Positions are fixed at construction; Update only reclassifies.
type Layout struct {
	cfg     Config
	source  map[string]domain.Node
	nodes   []Node
	index   map[string]int
	edges   []Edge
	layers  [][]string
	width   float64
	height  float64
	onClick func(Node)
}

// New lays out nodes and classifies them against the current node and the
// completed history.
func New(nodes []domain.Node, currentNodeID string, history []string, opts ...Option) *Layout {
	l := &Layout{
		cfg: Config{
			Width:           DefaultWidth,
			Height:          DefaultHeight,
			NodeSpacing:     DefaultNodeSpacing,
			MaxLayerSpacing: DefaultMaxLayerSpacing,
			Padding:         DefaultPadding,
		},
		source: make(map[string]domain.Node, len(nodes)),
		index:  make(map[string]int, len(nodes)),
	}
	for _, opt := range opts {
		opt(l)
	}
	l.width, l.height = l.cfg.Width, l.cfg.Height

	for _, n := range nodes {
		if n == nil {
			continue
		}
		if _, dup := l.source[n.NodeID()]; dup {
			continue
		}
		l.source[n.NodeID()] = n
		l.index[n.NodeID()] = len(l.nodes)
		l.nodes = append(l.nodes, Node{ID: n.NodeID(), Kind: n.Kind(), Label: label(n)})
	}
	if len(l.nodes) == 0 {
		return l
	}

	l.buildEdges()
	l.assignLayers()
	l.position()
	l.Update(currentNodeID, history)
	return l
}

func label(n domain.Node) string {
	switch n := n.(type) {
	case domain.SceneNode:
		return n.SceneID
	case domain.ChoiceNode:
		return n.ChoiceID
	}
	return n.NodeID()
}

// Update reclassifies nodes and edges without moving anything.
func (l *Layout) Update(currentNodeID string, history []string) {
	seen := make(map[string]bool, len(history))
	for _, id := range history {
		seen[id] = true
	}

	for i := range l.nodes {
		n := &l.nodes[i]
		switch {
		case n.ID == currentNodeID:
			n.State = StateCurrent
		case l.completed(n.ID, seen):
			n.State = StateCompleted
		default:
			n.State = StateLocked
		}
	}

	for i := range l.edges {
		e := &l.edges[i]
		from := l.nodes[l.index[e.From]].State
		to := l.nodes[l.index[e.To]].State
		e.Completed = from == StateCompleted && to != StateLocked
		e.Opacity = PlainOpacity
		if e.Completed {
			e.Opacity = CompletedOpacity
		}
	}
}

func (l *Layout) completed(id string, seen map[string]bool) bool {
	switch n := l.source[id].(type) {
	case domain.SceneNode:
		return seen[n.SceneID] || seen[n.ID]
	case domain.ChoiceNode:
		for _, opt := range n.Options {
			if l.visited(opt.Target, seen) {
				return true
			}
		}
	}
	return false
}

// visited reports whether history names the node, directly or through its scene id.
func (l *Layout) visited(id string, seen map[string]bool) bool {
	if seen[id] {
		return true
	}
	if n, ok := l.source[id].(domain.SceneNode); ok {
		return seen[n.SceneID]
	}
	return false
}

// Nodes returns the positioned nodes in declaration order.
func (l *Layout) Nodes() []Node {
	return append([]Node(nil), l.nodes...)
}

// Edges returns the drawable edges.
func (l *Layout) Edges() []Edge {
	return append([]Edge(nil), l.edges...)
}

// Node looks up a positioned node by id.
func (l *Layout) Node(id string) (Node, bool) {
	i, ok := l.index[id]
	if !ok {
		return Node{}, false
	}
	return l.nodes[i], true
}

// Layers returns node ids grouped by layer, left to right.
func (l *Layout) Layers() [][]string {
	out := make([][]string, len(l.layers))
	for i, ids := range l.layers {
		out[i] = append([]string(nil), ids...)
	}
	return out
}

// Width returns the canvas width needed by the drawing.
func (l *Layout) Width() float64 { return l.width }

// Height returns the canvas height needed by the drawing.
func (l *Layout) Height() float64 { return l.height }

// Interactive reports whether a click handler is registered.
func (l *Layout) Interactive() bool { return l.onClick != nil }

// Click notifies the registered handler that a node was clicked.
// It returns false when the layout is not interactive or the node is unknown.
func (l *Layout) Click(nodeID string) bool {
	if l.onClick == nil {
		return false
	}
	n, ok := l.Node(nodeID)
	if !ok {
		return false
	}
	l.onClick(n)
	return true
}
