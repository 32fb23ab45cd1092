package domain

// SceneContent is the presentable content of a scene. The engine never inspects it.
type SceneContent struct {
	Title   string `json:"title,omitempty" yaml:"title,omitempty"`
	Speaker string `json:"speaker,omitempty" yaml:"speaker,omitempty"`
	Body    string `json:"body,omitempty" yaml:"body,omitempty"`
}

// Story bundles a validated graph with its content table.
type Story struct {
	ID     string
	Title  string
	Graph  *Graph
	Scenes map[string]SceneContent
}

// Content returns the content registered for a scene id.
func (s *Story) Content(sceneID string) (SceneContent, bool) {
	c, ok := s.Scenes[sceneID]
	return c, ok
}
