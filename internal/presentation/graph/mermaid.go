// Package graph renders progress maps as Mermaid flowcharts.
package graph

import (
	"fmt"
	"strings"

	"github.com/aretw0/storyline/pkg/domain"
	"github.com/aretw0/storyline/pkg/layout"
)

// GenerateMermaid produces a Mermaid flowchart from a progress layout.
// It applies semantic styling:
// - Start: ((Circle))
// - Choice: {Rhombus}
// - Scene: [Rectangle]
// Completed edges are drawn thick and back edges dotted. Every node gets the
// class of its state (completed, current or locked).
func GenerateMermaid(l *layout.Layout, startID string) string {
	var sb strings.Builder
	sb.WriteString("graph LR\n")

	for _, n := range l.Nodes() {
		safeID := sanitizeMermaidID(n.ID)

		opener, closer := "[", "]"
		switch {
		case n.ID == startID:
			opener, closer = "((", "))"
		case n.Kind == domain.KindChoice:
			opener, closer = "{", "}"
		}
		fmt.Fprintf(&sb, "    %s%s\"%s\"%s\n", safeID, opener, escapeLabel(n.Label), closer)
	}

	for _, e := range l.Edges() {
		from, to := sanitizeMermaidID(e.From), sanitizeMermaidID(e.To)
		fmt.Fprintf(&sb, "    %s %s %s\n", from, arrow(e), to)
	}

	sb.WriteString("\n    %% Progress Styles\n")
	// Force black text (color:#000) for high-contrast on light backgrounds, regardless of theme (Light/Dark)
	sb.WriteString("    classDef completed fill:#e1f5fe,stroke:#01579b,stroke-width:2px,color:#000;\n")
	sb.WriteString("    classDef current fill:#ffeb3b,stroke:#fbc02d,stroke-width:4px,color:#000;\n")
	sb.WriteString("    classDef locked fill:#eeeeee,stroke:#9e9e9e,color:#666,opacity:0.35;\n")
	for _, n := range l.Nodes() {
		fmt.Fprintf(&sb, "    class %s %s;\n", sanitizeMermaidID(n.ID), n.State)
	}

	return sb.String()
}

func arrow(e layout.Edge) string {
	switch {
	case e.Back && e.Option != "":
		return fmt.Sprintf("-. \"%s\" .->", escapeLabel(e.Option))
	case e.Back:
		return "-.->"
	case e.Completed && e.Option != "":
		return fmt.Sprintf("== \"%s\" ==>", escapeLabel(e.Option))
	case e.Completed:
		return "==>"
	case e.Option != "":
		return fmt.Sprintf("-- \"%s\" -->", escapeLabel(e.Option))
	}
	return "-->"
}

func escapeLabel(s string) string {
	return strings.ReplaceAll(s, "\"", "'")
}

func sanitizeMermaidID(id string) string {
	s := strings.ReplaceAll(id, ".", "_")
	s = strings.ReplaceAll(s, "-", "_")
	s = strings.ReplaceAll(s, "/", "_")
	s = strings.ReplaceAll(s, "\\", "_")
	s = strings.ReplaceAll(s, " ", "_")
	return s
}
