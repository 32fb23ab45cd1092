/*
Package domain contains the core domain models of the storyline engine.

It defines the flow graph of a story and the values exchanged between the
traversal engine, the checkpoint store and the layout engine. This package is
kept pure and free of I/O, following Hexagonal Architecture principles.

# Key Entities

  - Node: a closed union of SceneNode and ChoiceNode.
  - Graph: the validated, immutable flow graph (arena of nodes keyed by id).
  - Step: the outcome of a traversal operation (scene, choice or end).
  - Checkpoint: the versioned envelope persisted for a story.
  - LifecycleHooks: observability callbacks fired by the engine and store.
*/
package domain
