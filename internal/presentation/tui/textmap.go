package tui

import (
	"fmt"
	"strings"

	"github.com/aretw0/storyline/pkg/domain"
	"github.com/aretw0/storyline/pkg/layout"
	"github.com/muesli/termenv"
)

var stateMarks = map[layout.State]string{
	layout.StateCurrent:   ">",
	layout.StateCompleted: "*",
	layout.StateLocked:    ".",
}

var stateColors = map[layout.State]string{
	layout.StateCurrent:   "#fbc02d",
	layout.StateCompleted: "#4fc3f7",
	layout.StateLocked:    "#757575",
}

// RenderTextMap draws a layout one layer per line, left to right.
// Choices are shown in angle brackets. Colors follow profile; termenv.Ascii
// produces plain text.
func RenderTextMap(l *layout.Layout, profile termenv.Profile) string {
	var sb strings.Builder
	for i, layer := range l.Layers() {
		cells := make([]string, 0, len(layer))
		for _, id := range layer {
			n, _ := l.Node(id)
			name := n.Label
			if n.Kind == domain.KindChoice {
				name = "<" + name + ">"
			}
			cell := profile.String(stateMarks[n.State] + " " + name).Foreground(profile.Color(stateColors[n.State]))
			if n.State == layout.StateCurrent {
				cell = cell.Bold()
			}
			cells = append(cells, cell.String())
		}
		fmt.Fprintf(&sb, "%2d | %s\n", i, strings.Join(cells, "   "))
	}
	sb.WriteString("     > current   * completed   . locked\n")
	return sb.String()
}
