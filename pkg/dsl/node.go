package dsl

import "github.com/aretw0/storyline/pkg/domain"

// SceneBuilder provides a fluent API for configuring a scene node.
type SceneBuilder struct {
	node       domain.SceneNode
	content    domain.SceneContent
	hasContent bool
}

// Shows sets the scene id presented by this node. It defaults to the node id.
func (s *SceneBuilder) Shows(sceneID string) *SceneBuilder {
	s.node.SceneID = sceneID
	return s
}

// Then sets the node that follows this scene.
func (s *SceneBuilder) Then(target string) *SceneBuilder {
	s.node.Next = target
	return s
}

// Terminal marks the scene as the end of its path.
func (s *SceneBuilder) Terminal() *SceneBuilder {
	s.node.Next = ""
	return s
}

// Title sets the scene title.
func (s *SceneBuilder) Title(title string) *SceneBuilder {
	s.content.Title = title
	s.hasContent = true
	return s
}

// Speaker sets who delivers the scene.
func (s *SceneBuilder) Speaker(speaker string) *SceneBuilder {
	s.content.Speaker = speaker
	s.hasContent = true
	return s
}

// Body sets the scene text.
func (s *SceneBuilder) Body(body string) *SceneBuilder {
	s.content.Body = body
	s.hasContent = true
	return s
}

// Build returns the underlying domain.SceneNode.
func (s *SceneBuilder) Build() domain.SceneNode {
	return s.node
}

// ChoiceBuilder provides a fluent API for configuring a choice node.
type ChoiceBuilder struct {
	node domain.ChoiceNode
}

// As sets the choice id reported to the presentation layer. It defaults to the node id.
func (c *ChoiceBuilder) As(choiceID string) *ChoiceBuilder {
	c.node.ChoiceID = choiceID
	return c
}

// Option appends an option. The first option is the fallback for unknown selections.
func (c *ChoiceBuilder) Option(id, target string) *ChoiceBuilder {
	c.node.Options = append(c.node.Options, domain.Option{ID: id, Target: target})
	return c
}

// Build returns the underlying domain.ChoiceNode.
func (c *ChoiceBuilder) Build() domain.ChoiceNode {
	return c.node
}
