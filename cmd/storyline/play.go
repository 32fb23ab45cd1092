package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/aretw0/storyline"
	"github.com/aretw0/storyline/internal/presentation/tui"
	"github.com/muesli/termenv"
	"github.com/spf13/cobra"
	"golang.org/x/term"
)

var playCmd = &cobra.Command{
	Use:   "play <story>",
	Short: "Play a story in the terminal",
	Long: `Plays a story file or directory, resuming from its checkpoint.
Press Enter to continue, type an option (or its number) at a choice,
"back" to go back, "map" to see your progress and "quit" to stop.`,
	Args: cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		if err := runPlay(cmd, args[0]); err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			os.Exit(1)
		}
	},
}

func init() {
	rootCmd.AddCommand(playCmd)
	playCmd.Flags().Bool("headless", false, "Advance scenes without prompting; choices still read input")
	playCmd.Flags().Bool("plain", false, "Do not render Markdown or colors")
	playCmd.Flags().Bool("fresh", false, "Start over, discarding the checkpoint")
}

func runPlay(cmd *cobra.Command, path string) error {
	e, err := openEnv(cmd)
	if err != nil {
		return err
	}
	defer e.Close()

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	s, _, err := e.openSession(ctx, path)
	if err != nil {
		return err
	}
	if fresh, _ := cmd.Flags().GetBool("fresh"); fresh {
		s.Reset(ctx)
	}

	headless, _ := cmd.Flags().GetBool("headless")
	plain, _ := cmd.Flags().GetBool("plain")
	out := cmd.OutOrStdout()
	interactive := !plain && !headless && isTerminal(out)

	r := storyline.NewRunner(cmd.InOrStdin(), out)
	r.Headless = headless

	profile := termenv.Ascii
	if interactive {
		tui.PrintBanner(out)
		profile = termenv.NewOutput(out).ColorProfile()

		width := 80
		if f, ok := out.(*os.File); ok {
			if w, _, err := term.GetSize(int(f.Fd())); err == nil && w > 0 {
				width = w
			}
		}
		if render, err := tui.NewRenderer(width); err == nil {
			r.Renderer = storyline.ContentRenderer(render)
		} else {
			e.logger.Warn("markdown renderer unavailable", "err", err)
		}
	}
	r.MapView = func(s *storyline.Session) string {
		return tui.RenderTextMap(s.ProgressMap(), profile)
	}

	err = r.Run(ctx, s)
	if errors.Is(err, context.Canceled) {
		fmt.Fprintln(out, "\nProgress saved.")
		return nil
	}
	return err
}

func isTerminal(w any) bool {
	f, ok := w.(*os.File)
	return ok && term.IsTerminal(int(f.Fd()))
}
