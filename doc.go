/*
Package storyline is a branching-narrative flow engine.

A story is a directed graph of scene and choice nodes. A Session walks that graph
for one player, saves a checkpoint after every transition and can lay the graph
out as a progress map.

# Concept

Scenes present content and lead to at most one next node. Choices branch to one
of several nodes depending on the option the player picks. Going back is
supported; looping back to an earlier scene trims the history instead of
growing it, so the saved history never contains the same scene twice because of
a loop.

Checkpoints are validated before they are trusted: a checkpoint is only resumed
if replaying its history on the current graph reproduces it step by step.
Anything else is discarded and the player starts over.

# Usage

	story, err := storyline.LoadStory(ctx, "./stories/lighthouse.yaml")
	if err != nil {
		log.Fatal(err)
	}

	s, err := storyline.New(story, storyline.WithMedium(file.New(".storyline")))
	if err != nil {
		log.Fatal(err)
	}

	step, _ := s.Resume(ctx)
	for step.Mode != domain.ModeEnd {
		switch step.Mode {
		case domain.ModeScene:
			step = s.Advance(ctx)
		case domain.ModeChoice:
			step, _ = s.Select(ctx, step.Options[0])
		}
	}

For interactive terminals see Runner; for concurrent hosts see pkg/session.
*/
package storyline
