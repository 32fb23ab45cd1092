package tui

import (
	"fmt"
	"io"

	"github.com/muesli/termenv"
)

var bannerLines = []string{
	"      _                   _ _",
	"  ___| |_ ___  _ __ _   _| (_)_ __   ___",
	" / __| __/ _ \\| '__| | | | | | '_ \\ / _ \\",
	" \\__ \\ || (_) | |  | |_| | | | | | |  __/",
	" |___/\\__\\___/|_|   \\__, |_|_|_| |_|\\___|",
	"                    |___/",
}

// Indigo to rose, one color per line.
var bannerColors = []string{"#818cf8", "#a78bfa", "#c084fc", "#e879f9", "#f472b6", "#fb7185"}

// PrintBanner writes the storyline banner using the color profile of out.
func PrintBanner(out io.Writer) {
	p := termenv.NewOutput(out).ColorProfile()

	fmt.Fprintln(out)
	for i, line := range bannerLines {
		fmt.Fprintln(out, p.String(line).Foreground(p.Color(bannerColors[i])))
	}
	fmt.Fprintln(out)
}
