package storyline_test

import (
	"bytes"
	"context"
	"strings"
	"testing"

	"github.com/aretw0/storyline"
	"github.com/aretw0/storyline/pkg/adapters/memory"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func play(t *testing.T, input string, configure func(*storyline.Runner)) (string, *storyline.Session) {
	t.Helper()
	s, err := storyline.New(lighthouse(t), storyline.WithMedium(memory.NewMedium()))
	require.NoError(t, err)

	var out bytes.Buffer
	r := storyline.NewRunner(strings.NewReader(input), &out)
	if configure != nil {
		configure(r)
	}
	require.NoError(t, r.Run(context.Background(), s))
	return out.String(), s
}

func TestRunner_PlaysToTheEnd(t *testing.T) {
	out, s := play(t, "\n2\nmap\n\nclimb\n\n", func(r *storyline.Runner) {
		r.MapView = func(*storyline.Session) string { return "[map]" }
	})

	assert.Contains(t, out, "# The Harbor")
	assert.Contains(t, out, "**Keeper:** The fog rolls in.")
	assert.Contains(t, out, "  [1] climb\n  [2] wait")
	assert.Contains(t, out, "[map]")
	assert.Contains(t, out, "The lamp is dark.")
	assert.True(t, strings.HasSuffix(out, "-- The End --\n"))
	assert.Equal(t, 2, strings.Count(out, "# The Harbor"), "looping back renders the scene again")
	assert.Equal(t, []string{"harbor", "lamp"}, s.History())
}

func TestRunner_Quit(t *testing.T) {
	out, s := play(t, "\nquit\n", nil)
	assert.Contains(t, out, "Bye!")
	assert.NotContains(t, out, "The End")
	assert.Equal(t, "path", s.Step().NodeID)
}

func TestRunner_EOF(t *testing.T) {
	out, _ := play(t, "", nil)
	assert.Contains(t, out, "# The Harbor")
	assert.NotContains(t, out, "The End")
}

func TestRunner_BackAtFirstScene(t *testing.T) {
	out, _ := play(t, "back\nquit\n", nil)
	assert.Contains(t, out, "(already at the first scene)")
}

func TestRunner_Headless(t *testing.T) {
	out, s := play(t, "1\n", func(r *storyline.Runner) { r.Headless = true })
	assert.Contains(t, out, "The lamp is dark.")
	assert.Contains(t, out, "-- The End --")
	assert.Equal(t, []string{"harbor", "lamp"}, s.History())
}

func TestRunner_EmptyLineAtChoiceReprompts(t *testing.T) {
	out, s := play(t, "\n\n\nclimb\n\n", nil)
	assert.Equal(t, 2, strings.Count(out, "(pick an option)"))
	assert.Equal(t, 3, strings.Count(out, "[1] climb"))
	assert.Equal(t, []string{"harbor", "lamp"}, s.History())
}

func TestRunner_Renderer(t *testing.T) {
	out, _ := play(t, "quit\n", func(r *storyline.Runner) {
		r.Renderer = func(s string) (string, error) { return strings.ToUpper(s), nil }
	})
	assert.Contains(t, out, "THE FOG ROLLS IN.")
}

func TestRunner_RequiresIO(t *testing.T) {
	s, err := storyline.New(lighthouse(t))
	require.NoError(t, err)
	assert.Error(t, (&storyline.Runner{}).Run(context.Background(), s))
}
