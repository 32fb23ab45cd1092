package runtime

import (
	"fmt"

	"github.com/aretw0/storyline/pkg/domain"
)

// entry is one visited scene. via is the branch taken to reach it, if any.
type entry struct {
	nodeID  string
	sceneID string
	via     *domain.ChoiceRecord
}

// cursor is the mutable traversal position. History is never empty.
type cursor struct {
	mode    domain.Mode
	current string
	history []entry
}

func newCursor(g *domain.Graph) *cursor {
	start, _ := g.Node(g.Start())
	scene := start.(domain.SceneNode)
	return &cursor{
		mode:    domain.ModeScene,
		current: scene.ID,
		history: []entry{{nodeID: scene.ID, sceneID: scene.SceneID}},
	}
}

func (c *cursor) last() entry {
	return c.history[len(c.history)-1]
}

func (c *cursor) sceneIDs() []string {
	ids := make([]string, 0, len(c.history))
	for _, en := range c.history {
		ids = append(ids, en.sceneID)
	}
	return ids
}

func (c *cursor) step(g *domain.Graph) domain.Step {
	switch c.mode {
	case domain.ModeScene:
		return domain.Step{Mode: domain.ModeScene, NodeID: c.current, SceneID: c.last().sceneID}
	case domain.ModeChoice:
		n, _ := g.Node(c.current)
		choice := n.(domain.ChoiceNode)
		return domain.Step{
			Mode:     domain.ModeChoice,
			NodeID:   c.current,
			ChoiceID: choice.ChoiceID,
			Options:  choice.OptionIDs(),
		}
	default:
		return domain.Step{Mode: domain.ModeEnd, NodeID: c.current}
	}
}

func (c *cursor) end() domain.Step {
	c.mode = domain.ModeEnd
	return domain.Step{Mode: domain.ModeEnd, NodeID: c.current}
}

// advance follows the next edge of the current scene. The caller checks the mode.
func (c *cursor) advance(g *domain.Graph) domain.Step {
	n, _ := g.Node(c.current)
	scene, ok := n.(domain.SceneNode)
	if !ok || scene.Next == "" {
		return c.end()
	}

	target, ok := g.Node(scene.Next)
	if !ok {
		return c.end()
	}

	switch t := target.(type) {
	case domain.SceneNode:
		c.current = t.ID
		c.mode = domain.ModeScene
		c.history = append(c.history, entry{nodeID: t.ID, sceneID: t.SceneID})
		return domain.Step{Mode: domain.ModeScene, NodeID: t.ID, SceneID: t.SceneID}
	case domain.ChoiceNode:
		c.current = t.ID
		if len(t.Options) == 0 {
			return c.end()
		}
		c.mode = domain.ModeChoice
		return domain.Step{
			Mode:     domain.ModeChoice,
			NodeID:   t.ID,
			ChoiceID: t.ChoiceID,
			Options:  t.OptionIDs(),
		}
	}
	return c.end()
}

// selectOption takes an option of the current choice and reports the option id
// actually used. The caller checks the mode.
func (c *cursor) selectOption(g *domain.Graph, optionID string, strict bool) (domain.Step, string, error) {
	n, _ := g.Node(c.current)
	choice := n.(domain.ChoiceNode)

	targetID, ok := choice.Target(optionID)
	used := optionID
	if !ok {
		if strict || len(choice.Options) == 0 {
			return domain.Step{}, "", fmt.Errorf("%w: %q is not an option of choice %q", domain.ErrUnknownOption, optionID, choice.ChoiceID)
		}
		used = choice.Options[0].ID
		targetID = choice.Options[0].Target
	}

	target, ok := g.Node(targetID)
	scene, isScene := target.(domain.SceneNode)
	if !ok || !isScene {
		return c.end(), used, nil
	}

	// Loop back: drop everything from the last visit of the target scene onwards.
	for i := len(c.history) - 1; i >= 0; i-- {
		if c.history[i].sceneID == scene.SceneID {
			c.history = c.history[:i]
			break
		}
	}

	c.history = append(c.history, entry{
		nodeID:  scene.ID,
		sceneID: scene.SceneID,
		via:     &domain.ChoiceRecord{NodeID: choice.ID, ChoiceID: choice.ChoiceID, OptionID: used},
	})
	c.current = scene.ID
	c.mode = domain.ModeScene

	step := domain.Step{Mode: domain.ModeScene, NodeID: scene.ID, SceneID: scene.SceneID}
	step.Fallback = used != optionID
	return step, used, nil
}

func (c *cursor) retreat() bool {
	if len(c.history) <= 1 {
		return false
	}
	c.history = c.history[:len(c.history)-1]
	c.current = c.last().nodeID
	c.mode = domain.ModeScene
	return true
}
