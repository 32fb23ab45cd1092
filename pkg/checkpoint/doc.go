// Package checkpoint persists and validates traversal progress.
//
// A checkpoint is stored as a versioned JSON envelope:
//
//	{"version":1,"storyId":"lighthouse","sceneId":"cliff","history":["harbor","cliff"],"savedAt":1700000000000}
//
// Loading is strict about the envelope shape, version, story identity and the
// current scene, but tolerant about history: entries naming scenes that are no
// longer registered are dropped. Anything rejected is removed from the medium.
// Medium failures never reach the caller; they are logged and reported as
// "no checkpoint".
package checkpoint
