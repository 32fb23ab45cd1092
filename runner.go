package storyline

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/aretw0/storyline/internal/sanitize"
	"github.com/aretw0/storyline/pkg/domain"
)

// Runner plays a Session over line-oriented IO.
// This allows for easy testing and integration with different frontends (CLI, TUI, etc).
//
// At a scene an empty line advances, "back" retreats, "map" prints the progress
// map and "quit" stops. At a choice the player types an option id or its
// 1-based position.
type Runner struct {
	Input    io.Reader
	Output   io.Writer
	Headless bool
	Renderer ContentRenderer
	MapView  func(*Session) string
}

// ContentRenderer is a function that transforms scene markdown before outputting it.
// This allows for TUI rendering (markdown to ANSI) without coupling the core package.
type ContentRenderer func(string) (string, error)

// NewRunner creates a new Runner with the given IO.
func NewRunner(in io.Reader, out io.Writer) *Runner {
	return &Runner{Input: in, Output: out}
}

// Run drives the session until the story ends, the player quits or input is exhausted.
// In headless mode scenes advance on their own and choices still read input.
func (r *Runner) Run(ctx context.Context, s *Session) error {
	if r.Input == nil {
		return fmt.Errorf("input reader must be set (use os.Stdin)")
	}
	if r.Output == nil {
		return fmt.Errorf("output writer must be set (use os.Stdout)")
	}
	lines := bufio.NewReader(r.Input)

	step := s.Step()
	lastRendered := ""
	for {
		if err := ctx.Err(); err != nil {
			return err
		}

		switch step.Mode {
		case domain.ModeEnd:
			fmt.Fprintln(r.Output, "-- The End --")
			return nil

		case domain.ModeScene:
			if step.NodeID != lastRendered {
				r.renderScene(s, step.SceneID)
				lastRendered = step.NodeID
			}
			if r.Headless {
				step = s.Advance(ctx)
				continue
			}

		case domain.ModeChoice:
			lastRendered = step.NodeID
			for i, opt := range step.Options {
				fmt.Fprintf(r.Output, "  [%d] %s\n", i+1, opt)
			}
		}

		fmt.Fprint(r.Output, "> ")
		text, err := lines.ReadString('\n')
		if err != nil && (!errors.Is(err, io.EOF) || text == "") {
			if errors.Is(err, io.EOF) {
				return nil
			}
			return fmt.Errorf("input error: %w", err)
		}
		input, err := sanitize.Input(text)
		if err != nil {
			fmt.Fprintf(r.Output, "(%v)\n", err)
			continue
		}

		switch input {
		case "quit", "exit":
			fmt.Fprintln(r.Output, "Bye!")
			return nil
		case "back":
			var moved bool
			if step, moved = s.Retreat(ctx); !moved {
				fmt.Fprintln(r.Output, "(already at the first scene)")
			}
			lastRendered = ""
			continue
		case "map":
			if r.MapView != nil {
				fmt.Fprintln(r.Output, r.MapView(s))
			}
			continue
		}

		if step.Mode == domain.ModeScene {
			step = s.Advance(ctx)
			continue
		}

		if input == "" {
			fmt.Fprintln(r.Output, "(pick an option)")
			continue
		}
		next, err := s.Select(ctx, resolveOption(step.Options, input))
		if err != nil {
			fmt.Fprintf(r.Output, "(%v)\n", err)
			continue
		}
		step = next
	}
}

func (r *Runner) renderScene(s *Session, sceneID string) {
	content, _ := s.Content(sceneID)

	var sb strings.Builder
	if content.Title != "" {
		sb.WriteString("# " + content.Title + "\n\n")
	}
	if content.Speaker != "" {
		sb.WriteString("**" + content.Speaker + ":** ")
	}
	sb.WriteString(content.Body)

	text := strings.TrimSpace(sb.String())
	if text == "" {
		text = "[" + sceneID + "]"
	}
	if r.Renderer != nil {
		if rendered, err := r.Renderer(text); err == nil {
			text = rendered
		}
	}
	fmt.Fprintln(r.Output, strings.TrimSpace(text))
}

// resolveOption accepts an option id or its 1-based position.
func resolveOption(options []string, input string) string {
	if n, err := strconv.Atoi(input); err == nil && n >= 1 && n <= len(options) {
		return options[n-1]
	}
	return input
}
