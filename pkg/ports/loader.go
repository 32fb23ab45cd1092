package ports

import (
	"context"

	"github.com/aretw0/storyline/pkg/domain"
)

// StoryLoader defines how hosts obtain a story definition.
// This allows the source (YAML file, Loam directory, code) to be decoupled.
type StoryLoader interface {
	// Load reads and validates the story. Graph problems are reported as a
	// *domain.ConfigError.
	Load(ctx context.Context) (*domain.Story, error)
}
