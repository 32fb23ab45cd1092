package runtime

import (
	"context"
	"fmt"

	"github.com/aretw0/storyline/pkg/domain"
)

// RestoreFromHistory replays history from the start node, requiring each step to
// land on the expected scene. Branches are resolved by picking the option that
// leads to the expected scene, so the option history is rebuilt as a live player
// would have produced it. On any mismatch the engine is left untouched and an
// error wrapping domain.ErrRestoreMismatch is returned.
func (e *Engine) RestoreFromHistory(ctx context.Context, history []string) error {
	c, err := replay(e.graph, history)
	if err != nil {
		e.logger.Warn("restore failed", "err", err, "length", len(history))
		return err
	}

	e.cur = c
	e.logger.Debug("restored", "node", c.current, "length", len(c.history))
	e.emitStep(ctx, c.step(e.graph))
	return nil
}

func replay(g *domain.Graph, history []string) (*cursor, error) {
	if len(history) == 0 {
		return nil, fmt.Errorf("%w: empty history", domain.ErrRestoreMismatch)
	}

	c := newCursor(g)
	if got := c.last().sceneID; got != history[0] {
		return nil, fmt.Errorf("%w: step 0: expected scene %q, start is %q", domain.ErrRestoreMismatch, history[0], got)
	}

	for i := 1; i < len(history); i++ {
		expected := history[i]

		step := c.advance(g)
		if step.Mode == domain.ModeChoice {
			optionID, ok := optionLeadingTo(g, c.current, expected)
			if !ok {
				return nil, fmt.Errorf("%w: step %d: no option of choice %q leads to scene %q", domain.ErrRestoreMismatch, i, step.ChoiceID, expected)
			}
			step, _, _ = c.selectOption(g, optionID, true)
		}

		if step.Mode != domain.ModeScene {
			return nil, fmt.Errorf("%w: step %d: expected scene %q, reached %s", domain.ErrRestoreMismatch, i, expected, step.Mode)
		}
		if step.SceneID != expected {
			return nil, fmt.Errorf("%w: step %d: expected scene %q, got %q", domain.ErrRestoreMismatch, i, expected, step.SceneID)
		}
	}

	// A trimmed loop can make the replayed history shorter than the input.
	if len(c.history) != len(history) {
		return nil, fmt.Errorf("%w: replay produced %d scenes, want %d", domain.ErrRestoreMismatch, len(c.history), len(history))
	}
	return c, nil
}

// optionLeadingTo returns the first-declared option of the choice at nodeID whose
// target is a scene with the given scene id.
func optionLeadingTo(g *domain.Graph, nodeID, sceneID string) (string, bool) {
	n, _ := g.Node(nodeID)
	choice, ok := n.(domain.ChoiceNode)
	if !ok {
		return "", false
	}
	for _, opt := range choice.Options {
		target, ok := g.Node(opt.Target)
		if !ok {
			continue
		}
		if scene, ok := target.(domain.SceneNode); ok && scene.SceneID == sceneID {
			return opt.ID, true
		}
	}
	return "", false
}
