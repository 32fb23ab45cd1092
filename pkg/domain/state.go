package domain

// Mode defines where the traversal cursor currently sits.
type Mode string

const (
	ModeScene  Mode = "scene"  // A scene is being presented
	ModeChoice Mode = "choice" // Waiting for the player to pick an option
	ModeEnd    Mode = "end"    // Sink state reached
)

// Step is the outcome of a traversal operation, ready for the presentation layer.
type Step struct {
	Mode   Mode   `json:"mode"`
	NodeID string `json:"node_id,omitempty"`

	// SceneID is set when Mode == ModeScene.
	SceneID string `json:"scene_id,omitempty"`

	// ChoiceID and Options are set when Mode == ModeChoice.
	ChoiceID string   `json:"choice_id,omitempty"`
	Options  []string `json:"options,omitempty"`

	// Fallback reports that an unknown option was replaced by the first-declared one.
	Fallback bool `json:"fallback,omitempty"`
}

// ChoiceRecord remembers which option was taken at a branch.
type ChoiceRecord struct {
	NodeID   string `json:"node_id"`
	ChoiceID string `json:"choice_id"`
	OptionID string `json:"option_id"`
}

// Progress is the persistable part of a traversal cursor.
type Progress struct {
	SceneID string   `json:"scene_id"`
	History []string `json:"history"`
}
