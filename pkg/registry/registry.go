// Package registry provides the scene catalog consulted when graphs are built
// and checkpoints are loaded.
package registry

import (
	"errors"
	"fmt"
	"sort"
	"sync"

	"github.com/aretw0/storyline/pkg/domain"
)

// ErrSealed is returned when registering into a sealed registry.
var ErrSealed = errors.New("registry is sealed")

// Registry manages the known scenes and their content.
// It is populated once at startup and sealed before use.
type Registry struct {
	mu     sync.RWMutex
	scenes map[string]domain.SceneContent
	sealed bool
}

// NewRegistry creates a new empty registry.
func NewRegistry() *Registry {
	return &Registry{
		scenes: make(map[string]domain.SceneContent),
	}
}

// FromGraph creates a registry holding every scene id referenced by g.
func FromGraph(g *domain.Graph) *Registry {
	r := NewRegistry()
	for _, id := range g.SceneIDs() {
		r.scenes[id] = domain.SceneContent{}
	}
	return r
}

// FromStory creates a sealed registry with the scenes of the story graph and
// any content the story declares for them.
func FromStory(s *domain.Story) *Registry {
	r := FromGraph(s.Graph)
	for id, content := range s.Scenes {
		r.scenes[id] = content
	}
	r.sealed = true
	return r
}

// Register adds a scene to the registry.
// If a scene with the same id exists, its content is overwritten.
func (r *Registry) Register(id string, content domain.SceneContent) error {
	if id == "" {
		return fmt.Errorf("register scene: empty id")
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	if r.sealed {
		return fmt.Errorf("register scene %q: %w", id, ErrSealed)
	}
	r.scenes[id] = content
	return nil
}

// Seal makes the registry read-only.
func (r *Registry) Seal() {
	r.mu.Lock()
	r.sealed = true
	r.mu.Unlock()
}

// IsKnownSceneID implements domain.SceneCatalog.
func (r *Registry) IsKnownSceneID(id string) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	_, ok := r.scenes[id]
	return ok
}

// Content returns the content registered for a scene.
func (r *Registry) Content(id string) (domain.SceneContent, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	c, ok := r.scenes[id]
	return c, ok
}

// SceneIDs returns the registered scene ids, sorted.
func (r *Registry) SceneIDs() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	ids := make([]string, 0, len(r.scenes))
	for id := range r.scenes {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}
