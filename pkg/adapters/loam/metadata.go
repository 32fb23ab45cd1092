package loam

// SceneMetadata is the front matter of one node document.
// It uses "mapstructure" tags to match standard Frontmatter/YAML keys.
//
//	---
//	id: harbor
//	title: The Harbor
//	speaker: Keeper
//	next: lighthouse
//	---
//	The fog rolls in...
//
// A document with options is a choice node; anything else is a scene node.
type SceneMetadata struct {
	ID    string `json:"id" mapstructure:"id"`
	Start bool   `json:"start,omitempty" mapstructure:"start"`

	// Scene fields. Scene defaults to the node id.
	Scene   string `json:"scene,omitempty" mapstructure:"scene"`
	Title   string `json:"title,omitempty" mapstructure:"title"`
	Speaker string `json:"speaker,omitempty" mapstructure:"speaker"`
	Next    string `json:"next,omitempty" mapstructure:"next"`

	// Choice fields. Choice defaults to the node id.
	Choice  string           `json:"choice,omitempty" mapstructure:"choice"`
	Options []OptionMetadata `json:"options,omitempty" mapstructure:"options"`
}

// OptionMetadata declares one option of a choice.
type OptionMetadata struct {
	ID string `json:"id" mapstructure:"id"`
	To string `json:"to" mapstructure:"to"`
}

func (m SceneMetadata) isChoice() bool {
	return len(m.Options) > 0 || m.Choice != ""
}
