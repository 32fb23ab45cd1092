package runtime

import (
	"context"
	"log/slog"
	"time"

	"github.com/aretw0/storyline/internal/logging"
	"github.com/aretw0/storyline/pkg/domain"
)

// Engine is a single-cursor walker over a flow graph.
// It is owned by one session and is not safe for concurrent use.
type Engine struct {
	graph  *domain.Graph
	cur    *cursor
	strict bool
	hooks  domain.LifecycleHooks
	logger *slog.Logger
	now    func() time.Time
}

// EngineOption defines a functional option for configuring the Engine.
type EngineOption func(*Engine)

// WithLogger sets a custom structured logger for the engine.
func WithLogger(logger *slog.Logger) EngineOption {
	return func(e *Engine) {
		if logger != nil {
			e.logger = logger
		}
	}
}

// WithLifecycleHooks registers observability hooks.
func WithLifecycleHooks(hooks domain.LifecycleHooks) EngineOption {
	return func(e *Engine) {
		e.hooks = e.hooks.Merge(hooks)
	}
}

// WithStrictOptions makes SelectChoice reject unknown options with
// domain.ErrUnknownOption instead of falling back to the first-declared option.
func WithStrictOptions() EngineOption {
	return func(e *Engine) {
		e.strict = true
	}
}

// WithClock overrides the time source used for event timestamps.
func WithClock(now func() time.Time) EngineOption {
	return func(e *Engine) {
		e.now = now
	}
}

// NewEngine creates an engine positioned at the start scene of graph.
// The graph must have been built with domain.NewGraph.
func NewEngine(graph *domain.Graph, opts ...EngineOption) *Engine {
	e := &Engine{
		graph:  graph,
		logger: logging.NewNop(),
		now:    time.Now,
	}
	for _, opt := range opts {
		opt(e)
	}
	e.cur = newCursor(graph)
	return e
}

// Graph returns the graph the engine walks.
func (e *Engine) Graph() *domain.Graph {
	return e.graph
}

// Mode returns the current cursor mode.
func (e *Engine) Mode() domain.Mode {
	return e.cur.mode
}

// CurrentNodeID returns the id of the node the cursor sits on.
func (e *Engine) CurrentNodeID() string {
	return e.cur.current
}

// CurrentSceneID returns the active scene id when the cursor is on a scene.
func (e *Engine) CurrentSceneID() (string, bool) {
	if e.cur.mode != domain.ModeScene {
		return "", false
	}
	return e.cur.last().sceneID, true
}

// CurrentChoiceID returns the active choice id when the cursor is on a choice.
func (e *Engine) CurrentChoiceID() (string, bool) {
	if e.cur.mode != domain.ModeChoice {
		return "", false
	}
	n, _ := e.graph.Node(e.cur.current)
	return n.(domain.ChoiceNode).ChoiceID, true
}

// CurrentChoiceOptionIDs returns the options of the active choice, or nil.
func (e *Engine) CurrentChoiceOptionIDs() []string {
	if e.cur.mode != domain.ModeChoice {
		return nil
	}
	n, _ := e.graph.Node(e.cur.current)
	return n.(domain.ChoiceNode).OptionIDs()
}

// Step describes the current cursor position without moving it.
func (e *Engine) Step() domain.Step {
	return e.cur.step(e.graph)
}

// SceneHistory returns a copy of the visited scene ids, oldest first.
func (e *Engine) SceneHistory() []string {
	return e.cur.sceneIDs()
}

// ChoiceHistory returns the options taken along the current history.
func (e *Engine) ChoiceHistory() []domain.ChoiceRecord {
	var out []domain.ChoiceRecord
	for _, en := range e.cur.history {
		if en.via != nil {
			out = append(out, *en.via)
		}
	}
	return out
}

// FlowNodes returns the graph nodes in declaration order.
func (e *Engine) FlowNodes() []domain.Node {
	return e.graph.Nodes()
}

// Progress returns the persistable snapshot of the cursor.
func (e *Engine) Progress() domain.Progress {
	return domain.Progress{
		SceneID: e.cur.last().sceneID,
		History: e.cur.sceneIDs(),
	}
}

// Reset moves the cursor back to the start scene and forgets the history.
func (e *Engine) Reset() {
	e.cur = newCursor(e.graph)
}

// AdvanceFromScene follows the outgoing edge of the current scene.
// Outside scene mode it is a no-op that reports the current step.
func (e *Engine) AdvanceFromScene(ctx context.Context) domain.Step {
	if e.cur.mode != domain.ModeScene {
		e.logger.Debug("advance ignored", "mode", e.cur.mode, "node", e.cur.current)
		return e.Step()
	}

	from := e.cur.current
	step := e.cur.advance(e.graph)
	e.logger.Debug("advanced", "from", from, "to", step.NodeID, "mode", step.Mode)
	e.emitStep(ctx, step)
	return step
}

// SelectChoice takes an option of the current choice.
// Unknown options fall back to the first-declared option unless strict mode is on,
// in which case domain.ErrUnknownOption is returned and the cursor does not move.
// Outside choice mode it is a no-op that reports the current step.
func (e *Engine) SelectChoice(ctx context.Context, optionID string) (domain.Step, error) {
	if e.cur.mode != domain.ModeChoice {
		e.logger.Debug("select ignored", "mode", e.cur.mode, "node", e.cur.current, "option", optionID)
		return e.Step(), nil
	}

	choiceNode, _ := e.graph.Node(e.cur.current)
	choice := choiceNode.(domain.ChoiceNode)

	step, used, err := e.cur.selectOption(e.graph, optionID, e.strict)
	if err != nil {
		e.logger.Warn("unknown option rejected", "choice", choice.ChoiceID, "option", optionID)
		return e.Step(), err
	}

	if used != optionID {
		e.logger.Warn("unknown option, falling back to first-declared",
			"choice", choice.ChoiceID, "requested", optionID, "used", used)
		if e.hooks.OnOptionFallback != nil {
			e.hooks.OnOptionFallback(ctx, &domain.FallbackEvent{
				EventBase: e.base(domain.EventOptionFallback),
				ChoiceID:  choice.ChoiceID,
				Requested: optionID,
				Used:      used,
			})
		}
	}

	e.logger.Debug("selected", "choice", choice.ChoiceID, "option", used, "to", step.NodeID, "mode", step.Mode)
	e.emitStep(ctx, step)
	return step, nil
}

// RetreatToPreviousScene drops the latest scene from the history and moves the
// cursor back to the one before it. It returns false when only one scene remains.
func (e *Engine) RetreatToPreviousScene(ctx context.Context) bool {
	if !e.cur.retreat() {
		return false
	}
	last := e.cur.last()
	e.logger.Debug("retreated", "to", last.nodeID)
	if e.hooks.OnRetreat != nil {
		e.hooks.OnRetreat(ctx, &domain.NodeEvent{
			EventBase: e.base(domain.EventRetreat),
			NodeID:    last.nodeID,
			SceneID:   last.sceneID,
		})
	}
	return true
}

func (e *Engine) emitStep(ctx context.Context, step domain.Step) {
	switch step.Mode {
	case domain.ModeScene:
		if e.hooks.OnSceneEnter != nil {
			e.hooks.OnSceneEnter(ctx, &domain.NodeEvent{
				EventBase: e.base(domain.EventSceneEnter),
				NodeID:    step.NodeID,
				SceneID:   step.SceneID,
			})
		}
	case domain.ModeChoice:
		if e.hooks.OnChoiceEnter != nil {
			e.hooks.OnChoiceEnter(ctx, &domain.NodeEvent{
				EventBase: e.base(domain.EventChoiceEnter),
				NodeID:    step.NodeID,
				ChoiceID:  step.ChoiceID,
			})
		}
	case domain.ModeEnd:
		if e.hooks.OnEnd != nil {
			e.hooks.OnEnd(ctx, &domain.NodeEvent{
				EventBase: e.base(domain.EventEnd),
				NodeID:    step.NodeID,
			})
		}
	}
}

func (e *Engine) base(t domain.EventType) domain.EventBase {
	return domain.EventBase{Timestamp: e.now(), Type: t}
}
