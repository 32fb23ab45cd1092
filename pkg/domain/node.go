package domain

// NodeKind discriminates the variants of the Node union.
type NodeKind string

const (
	// KindScene presents narrative content and has at most one successor.
	KindScene NodeKind = "scene"
	// KindChoice is a branch point; the player picks one of its options.
	KindChoice NodeKind = "choice"
)

// Node is a closed sum type: the only implementations are SceneNode and ChoiceNode.
// Consumers are expected to switch on the concrete type.
type Node interface {
	// NodeID returns the identifier of the node, unique within a graph.
	NodeID() string
	// Kind returns the discriminant of the variant.
	Kind() NodeKind
	// Targets returns the ids of the outgoing edges in declaration order.
	Targets() []string

	sealed()
}

// SceneNode presents a scene. An empty Next marks a terminal scene.
type SceneNode struct {
	ID      string `json:"id" yaml:"id"`
	SceneID string `json:"scene_id" yaml:"scene"`
	Next    string `json:"next,omitempty" yaml:"next,omitempty"`
}

func (n SceneNode) NodeID() string { return n.ID }
func (n SceneNode) Kind() NodeKind { return KindScene }
func (n SceneNode) sealed()        {}

func (n SceneNode) Targets() []string {
	if n.Next == "" {
		return nil
	}
	return []string{n.Next}
}

// Option is a single outgoing branch of a ChoiceNode.
type Option struct {
	ID     string `json:"id" yaml:"id"`
	Target string `json:"to" yaml:"to"`
}

// ChoiceNode branches to one of its options. Options keep their declaration order.
type ChoiceNode struct {
	ID       string   `json:"id" yaml:"id"`
	ChoiceID string   `json:"choice_id" yaml:"choice"`
	Options  []Option `json:"options" yaml:"options"`
}

func (n ChoiceNode) NodeID() string { return n.ID }
func (n ChoiceNode) Kind() NodeKind { return KindChoice }
func (n ChoiceNode) sealed()        {}

func (n ChoiceNode) Targets() []string {
	targets := make([]string, 0, len(n.Options))
	for _, opt := range n.Options {
		targets = append(targets, opt.Target)
	}
	return targets
}

// OptionIDs returns the option identifiers in declaration order.
func (n ChoiceNode) OptionIDs() []string {
	ids := make([]string, 0, len(n.Options))
	for _, opt := range n.Options {
		ids = append(ids, opt.ID)
	}
	return ids
}

// Target resolves the node an option leads to.
func (n ChoiceNode) Target(optionID string) (string, bool) {
	for _, opt := range n.Options {
		if opt.ID == optionID {
			return opt.Target, true
		}
	}
	return "", false
}
