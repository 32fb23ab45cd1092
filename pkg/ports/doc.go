/*
Package ports defines the driven ports (interfaces) for the storyline engine.

These interfaces decouple the core from external implementations, allowing
checkpoints to live in any key/value backend and stories to come from any source.

# Key Interfaces

  - Medium: A string key/value store holding serialized checkpoints.
  - ListableMedium: A Medium that can enumerate its keys by prefix.
  - StoryLoader: Produces a validated domain.Story (e.g. from YAML or Loam).
*/
package ports
