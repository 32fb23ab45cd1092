package domain

import (
	"errors"
	"fmt"
	"strings"
)

// ErrInvalidGraph is wrapped by every ConfigError.
var ErrInvalidGraph = errors.New("invalid flow graph")

// ErrUnknownOption is returned in strict mode when a selected option does not exist.
var ErrUnknownOption = errors.New("unknown choice option")

// ErrRestoreMismatch is returned when a history cannot be replayed over the graph.
var ErrRestoreMismatch = errors.New("history does not match flow graph")

// ErrStoryNotFound is returned when a story id is not known to a host.
var ErrStoryNotFound = errors.New("story not found")

// ErrMediumUnavailable signals that the persistence medium cannot be reached.
var ErrMediumUnavailable = errors.New("persistence medium unavailable")

// ConfigError reports every problem found while constructing a graph.
// It indicates a content or build defect, not a runtime condition.
type ConfigError struct {
	Problems []string
}

func (e *ConfigError) Error() string {
	if len(e.Problems) == 1 {
		return fmt.Sprintf("%s: %s", ErrInvalidGraph, e.Problems[0])
	}
	return fmt.Sprintf("%s: %d problems:\n  - %s", ErrInvalidGraph, len(e.Problems), strings.Join(e.Problems, "\n  - "))
}

// Unwrap allows errors.Is(err, ErrInvalidGraph).
func (e *ConfigError) Unwrap() error {
	return ErrInvalidGraph
}
