// Package http exposes story sessions over a JSON HTTP API.
package http

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/aretw0/storyline"
	"github.com/aretw0/storyline/internal/logging"
	"github.com/aretw0/storyline/internal/presentation/graph"
	"github.com/aretw0/storyline/internal/sanitize"
	"github.com/aretw0/storyline/pkg/domain"
	"github.com/aretw0/storyline/pkg/layout"
	"github.com/aretw0/storyline/pkg/session"
	"github.com/getkin/kin-openapi/openapi3"
	"github.com/getkin/kin-openapi/openapi3filter"
	"github.com/getkin/kin-openapi/routers"
	"github.com/go-chi/chi/v5"
	"github.com/oapi-codegen/runtime"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// State is the JSON view of a session position.
type State struct {
	StoryID  string               `json:"story_id"`
	Mode     domain.Mode          `json:"mode"`
	NodeID   string               `json:"node_id,omitempty"`
	SceneID  string               `json:"scene_id,omitempty"`
	ChoiceID string               `json:"choice_id,omitempty"`
	Options  []string             `json:"options,omitempty"`
	Fallback bool                 `json:"fallback,omitempty"`
	History  []string             `json:"history"`
	Content  *domain.SceneContent `json:"content,omitempty"`
}

// SelectRequest is the body of POST /stories/{storyID}/select.
type SelectRequest struct {
	Option string `json:"option"`
}

// Error is the body of every non-2xx JSON response.
type Error struct {
	Error string `json:"error"`
}

// Server serves the sessions held by a session.Manager.
type Server struct {
	Sessions *session.Manager

	doc      *openapi3.T
	router   routers.Router
	gatherer prometheus.Gatherer
	logger   *slog.Logger
}

// Option configures the Server.
type Option func(*Server)

// WithGatherer serves /metrics from g instead of the default registry.
func WithGatherer(g prometheus.Gatherer) Option {
	return func(s *Server) {
		s.gatherer = g
	}
}

// WithLogger sets the request logger.
func WithLogger(logger *slog.Logger) Option {
	return func(s *Server) {
		if logger != nil {
			s.logger = logger
		}
	}
}

// NewHandler creates the HTTP handler for the sessions held by mgr.
// Requests under /stories are validated against the embedded OpenAPI document.
func NewHandler(mgr *session.Manager, opts ...Option) (http.Handler, error) {
	doc, err := GetSwagger()
	if err != nil {
		return nil, err
	}
	router, err := newRouter(doc)
	if err != nil {
		return nil, fmt.Errorf("failed to build request router: %w", err)
	}

	s := &Server{
		Sessions: mgr,
		doc:      doc,
		router:   router,
		gatherer: prometheus.DefaultGatherer,
		logger:   logging.NewNop(),
	}
	for _, opt := range opts {
		opt(s)
	}

	r := chi.NewRouter()
	r.Get("/openapi.yaml", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/yaml")
		_, _ = w.Write(rawSpec)
	})
	r.Get("/swagger", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/html")
		_, _ = w.Write([]byte(swaggerHTML))
	})
	r.Handle("/metrics", promhttp.HandlerFor(s.gatherer, promhttp.HandlerOpts{}))
	r.Get("/health", s.GetHealth)
	r.Get("/info", s.GetInfo)

	r.Route("/stories", func(r chi.Router) {
		r.Use(s.validateRequest)
		r.Get("/", s.ListStories)
		r.Route("/{storyID}", func(r chi.Router) {
			r.Get("/state", s.GetState)
			r.Post("/advance", s.Advance)
			r.Post("/select", s.Select)
			r.Post("/retreat", s.Retreat)
			r.Get("/checkpoint", s.GetCheckpoint)
			r.Delete("/checkpoint", s.Reset)
			r.Get("/map", s.GetMap)
			r.Post("/map/nodes/{nodeID}/click", s.ClickNode)
		})
	})

	return enableCORS(r), nil
}

// ListenAndServe serves h on addr until ctx is cancelled, then shuts down gracefully.
func ListenAndServe(ctx context.Context, addr string, h http.Handler, logger *slog.Logger) error {
	if logger == nil {
		logger = logging.NewNop()
	}
	srv := &http.Server{
		Addr:              addr,
		Handler:           h,
		ReadHeaderTimeout: 10 * time.Second,
	}

	serverErrors := make(chan error, 1)
	go func() {
		logger.Info("HTTP server listening", "address", addr)
		serverErrors <- srv.ListenAndServe()
	}()

	select {
	case err := <-serverErrors:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()

		logger.Info("shutting down HTTP server")
		if err := srv.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("could not stop server gracefully: %w", err)
		}
		return nil
	}
}

func enableCORS(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Methods", "GET, POST, DELETE, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type")
		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusOK)
			return
		}
		next.ServeHTTP(w, r)
	})
}

// validateRequest checks parameters and bodies against the OpenAPI document.
// Routes the document does not know are left to chi.
func (s *Server) validateRequest(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		route, pathParams, err := s.router.FindRoute(r)
		if err != nil {
			next.ServeHTTP(w, r)
			return
		}
		input := &openapi3filter.RequestValidationInput{
			Request:    r,
			PathParams: pathParams,
			Route:      route,
		}
		if err := openapi3filter.ValidateRequest(r.Context(), input); err != nil {
			s.logger.Warn("request rejected", "path", r.URL.Path, "err", err)
			writeError(w, http.StatusBadRequest, err)
			return
		}
		next.ServeHTTP(w, r)
	})
}

const swaggerHTML = `
<!DOCTYPE html>
<html lang="en">
<head>
    <meta charset="utf-8" />
    <meta name="viewport" content="width=device-width, initial-scale=1" />
    <title>Storyline API Documentation</title>
    <link rel="stylesheet" href="https://unpkg.com/swagger-ui-dist@5.11.0/swagger-ui.css" />
</head>
<body>
<div id="swagger-ui"></div>
<script src="https://unpkg.com/swagger-ui-dist@5.11.0/swagger-ui-bundle.js" crossorigin></script>
<script>
    window.onload = () => {
    window.ui = SwaggerUIBundle({
        url: '/openapi.yaml',
        dom_id: '#swagger-ui',
    });
    };
</script>
</body>
</html>
`

// GetHealth handles GET /health.
func (s *Server) GetHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// GetInfo handles GET /info.
func (s *Server) GetInfo(w http.ResponseWriter, r *http.Request) {
	apiVersion := "unknown"
	if s.doc.Info != nil {
		apiVersion = s.doc.Info.Version
	}
	writeJSON(w, http.StatusOK, map[string]string{
		"app":         "storyline-http",
		"version":     strings.TrimSpace(storyline.Version),
		"api_version": apiVersion,
	})
}

// ListStories handles GET /stories.
func (s *Server) ListStories(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, s.Sessions.StoryIDs())
}

// GetState handles GET /stories/{storyID}/state.
func (s *Server) GetState(w http.ResponseWriter, r *http.Request) {
	s.play(w, r, func(ctx context.Context, sess *storyline.Session) (domain.Step, error) {
		return sess.Step(), nil
	})
}

// Advance handles POST /stories/{storyID}/advance.
func (s *Server) Advance(w http.ResponseWriter, r *http.Request) {
	s.play(w, r, func(ctx context.Context, sess *storyline.Session) (domain.Step, error) {
		return sess.Advance(ctx), nil
	})
}

// Select handles POST /stories/{storyID}/select.
func (s *Server) Select(w http.ResponseWriter, r *http.Request) {
	var body SelectRequest
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		s.logger.Warn("Select: invalid request body", "err", err)
		writeError(w, http.StatusBadRequest, fmt.Errorf("invalid request body: %w", err))
		return
	}
	option, err := sanitize.Input(body.Option)
	if err != nil {
		s.logger.Warn("Select: input rejected", "err", err, "size", len(body.Option))
		writeError(w, http.StatusBadRequest, err)
		return
	}

	s.play(w, r, func(ctx context.Context, sess *storyline.Session) (domain.Step, error) {
		return sess.Select(ctx, option)
	})
}

// Retreat handles POST /stories/{storyID}/retreat.
// Retreating at the first scene is not an error; the position is returned unchanged.
func (s *Server) Retreat(w http.ResponseWriter, r *http.Request) {
	s.play(w, r, func(ctx context.Context, sess *storyline.Session) (domain.Step, error) {
		step, _ := sess.Retreat(ctx)
		return step, nil
	})
}

// Reset handles DELETE /stories/{storyID}/checkpoint.
func (s *Server) Reset(w http.ResponseWriter, r *http.Request) {
	s.play(w, r, func(ctx context.Context, sess *storyline.Session) (domain.Step, error) {
		return sess.Reset(ctx), nil
	})
}

// GetCheckpoint handles GET /stories/{storyID}/checkpoint.
func (s *Server) GetCheckpoint(w http.ResponseWriter, r *http.Request) {
	storyID, ok := s.storyParam(w, r)
	if !ok {
		return
	}

	var cp *domain.Checkpoint
	err := s.Sessions.WithSession(r.Context(), storyID, func(ctx context.Context, sess *storyline.Session) error {
		var found bool
		if cp, found = sess.Checkpoints().Load(ctx, storyID); !found {
			return fmt.Errorf("story %q: %w", storyID, errNoCheckpoint)
		}
		return nil
	})
	if err != nil {
		writeError(w, statusFor(err), err)
		return
	}
	writeJSON(w, http.StatusOK, cp)
}

// GetMap handles GET /stories/{storyID}/map.
func (s *Server) GetMap(w http.ResponseWriter, r *http.Request) {
	storyID, ok := s.storyParam(w, r)
	if !ok {
		return
	}

	var (
		format        *string
		width, height *float64
	)
	query := r.URL.Query()
	for name, dest := range map[string]any{"format": &format, "width": &width, "height": &height} {
		if err := runtime.BindQueryParameter("form", true, false, name, query, dest); err != nil {
			writeError(w, http.StatusBadRequest, fmt.Errorf("invalid format for parameter %s: %w", name, err))
			return
		}
	}

	var size layout.Config
	if width != nil {
		size.Width = *width
	}
	if height != nil {
		size.Height = *height
	}
	opts := []layout.Option{layout.WithConfig(size)}

	var (
		l     *layout.Layout
		start string
	)
	err := s.Sessions.WithSession(r.Context(), storyID, func(ctx context.Context, sess *storyline.Session) error {
		l = sess.ProgressMap(opts...)
		start = sess.Story().Graph.Start()
		return nil
	})
	if err != nil {
		writeError(w, statusFor(err), err)
		return
	}

	if format != nil && *format == "mermaid" {
		w.Header().Set("Content-Type", "text/plain; charset=utf-8")
		_, _ = w.Write([]byte(graph.GenerateMermaid(l, start)))
		return
	}
	writeJSON(w, http.StatusOK, mapView{
		Width:  l.Width(),
		Height: l.Height(),
		Nodes:  l.Nodes(),
		Edges:  l.Edges(),
		Layers: l.Layers(),
	})
}

// ClickNode handles POST /stories/{storyID}/map/nodes/{nodeID}/click.
func (s *Server) ClickNode(w http.ResponseWriter, r *http.Request) {
	storyID, ok := s.storyParam(w, r)
	if !ok {
		return
	}
	var nodeID string
	if err := runtime.BindStyledParameterWithOptions("simple", "nodeID", chi.URLParam(r, "nodeID"), &nodeID,
		runtime.BindStyledParameterOptions{ParamLocation: runtime.ParamLocationPath, Explode: false, Required: true}); err != nil {
		writeError(w, http.StatusBadRequest, fmt.Errorf("invalid format for parameter nodeID: %w", err))
		return
	}

	var clicked *layout.Node
	err := s.Sessions.WithSession(r.Context(), storyID, func(ctx context.Context, sess *storyline.Session) error {
		l := sess.ProgressMap(layout.WithNodeClicked(func(n layout.Node) {
			clicked = &n
		}))
		l.Click(nodeID)
		return nil
	})
	if err != nil {
		writeError(w, statusFor(err), err)
		return
	}
	if clicked == nil {
		writeError(w, http.StatusNotFound, fmt.Errorf("node %q is not on the map", nodeID))
		return
	}
	s.logger.Debug("map node clicked", "story", storyID, "node", nodeID, "state", clicked.State)
	writeJSON(w, http.StatusOK, clicked)
}

type mapView struct {
	Width  float64       `json:"width"`
	Height float64       `json:"height"`
	Nodes  []layout.Node `json:"nodes"`
	Edges  []layout.Edge `json:"edges"`
	Layers [][]string    `json:"layers"`
}

// play runs op on the session named by the path and writes the resulting state.
func (s *Server) play(w http.ResponseWriter, r *http.Request, op func(context.Context, *storyline.Session) (domain.Step, error)) {
	storyID, ok := s.storyParam(w, r)
	if !ok {
		return
	}

	var state State
	err := s.Sessions.WithSession(r.Context(), storyID, func(ctx context.Context, sess *storyline.Session) error {
		step, err := op(ctx, sess)
		if err != nil {
			return err
		}
		state = stateOf(sess, step)
		return nil
	})
	if err != nil {
		status := statusFor(err)
		if status == http.StatusInternalServerError {
			s.logger.Error("session operation failed", "story", storyID, "path", r.URL.Path, "err", err)
		}
		writeError(w, status, err)
		return
	}
	writeJSON(w, http.StatusOK, state)
}

func (s *Server) storyParam(w http.ResponseWriter, r *http.Request) (string, bool) {
	var storyID string
	err := runtime.BindStyledParameterWithOptions("simple", "storyID", chi.URLParam(r, "storyID"), &storyID,
		runtime.BindStyledParameterOptions{ParamLocation: runtime.ParamLocationPath, Explode: false, Required: true})
	if err != nil {
		writeError(w, http.StatusBadRequest, fmt.Errorf("invalid format for parameter storyID: %w", err))
		return "", false
	}
	return storyID, true
}

func stateOf(sess *storyline.Session, step domain.Step) State {
	state := State{
		StoryID:  sess.Story().ID,
		Mode:     step.Mode,
		NodeID:   step.NodeID,
		SceneID:  step.SceneID,
		ChoiceID: step.ChoiceID,
		Options:  step.Options,
		Fallback: step.Fallback,
		History:  sess.History(),
	}
	if step.Mode == domain.ModeScene {
		if c, ok := sess.Content(step.SceneID); ok {
			state.Content = &c
		}
	}
	return state
}

var errNoCheckpoint = errors.New("no checkpoint")

func statusFor(err error) int {
	switch {
	case errors.Is(err, domain.ErrStoryNotFound), errors.Is(err, errNoCheckpoint):
		return http.StatusNotFound
	case errors.Is(err, domain.ErrUnknownOption):
		return http.StatusUnprocessableEntity
	case errors.Is(err, context.DeadlineExceeded), errors.Is(err, context.Canceled):
		return http.StatusServiceUnavailable
	}
	return http.StatusInternalServerError
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		slog.Error("response encode failed", "err", err)
	}
}

func writeError(w http.ResponseWriter, status int, err error) {
	writeJSON(w, status, Error{Error: err.Error()})
}
