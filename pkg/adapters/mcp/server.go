// Package mcp exposes story sessions as Model Context Protocol tools.
package mcp

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
	"github.com/aretw0/storyline/internal/presentation/tui"
	"github.com/aretw0/storyline/internal/sanitize"
	"github.com/aretw0/storyline/pkg/domain"
	"github.com/aretw0/storyline/pkg/session"
	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"
	"github.com/muesli/termenv"
)

// StoryState aligns with the HTTP API state and is shared by every tool.
type StoryState struct {
	StoryID  string               `json:"story_id" jsonschema_description:"The story being played"`
	Mode     domain.Mode          `json:"mode" jsonschema_description:"scene, choice or end"`
	NodeID   string               `json:"node_id,omitempty"`
	SceneID  string               `json:"scene_id,omitempty"`
	ChoiceID string               `json:"choice_id,omitempty"`
	Options  []string             `json:"options,omitempty" jsonschema_description:"Option ids available at a choice"`
	Fallback bool                 `json:"fallback,omitempty" jsonschema_description:"The requested option was unknown and the first-declared one was taken"`
	History  []string             `json:"history" jsonschema_description:"Visited scene ids, oldest first"`
	Content  *domain.SceneContent `json:"content,omitempty"`
	Terminal bool                 `json:"terminal" jsonschema_description:"Indicates the story has ended"`
}

// MapResult is the output of the progress_map tool.
type MapResult struct {
	StoryID string `json:"story_id"`
	Format  string `json:"format"`
	Map     string `json:"map"`
}

type storyArgs struct {
	StoryID string `json:"story_id"`
}

type selectArgs struct {
	StoryID string `json:"story_id"`
	Option  string `json:"option"`
}

type mapArgs struct {
	StoryID string `json:"story_id"`
	Format  string `json:"format"`
}

// Server wraps a session.Manager and exposes it as an MCP Server.
type Server struct {
	sessions  *session.Manager
	mcpServer *server.MCPServer
	logger    *slog.Logger
}

// NewServer creates a new MCP Server instance.
func NewServer(sessions *session.Manager, logger *slog.Logger) *Server {
	if logger == nil {
		logger = logging.NewNop()
	}
	s := &Server{
		sessions:  sessions,
		mcpServer: server.NewMCPServer("storyline-mcp", strings.TrimSpace(storyline.Version)),
		logger:    logger,
	}
	s.registerTools()
	s.registerResources()
	return s
}

// ServeStdio starts the server on Stdin/Stdout.
func (s *Server) ServeStdio() error {
	return server.ServeStdio(s.mcpServer)
}

// ServeSSE starts the server on the given port using SSE and stops it when ctx is done.
func (s *Server) ServeSSE(ctx context.Context, port int) error {
	addr := fmt.Sprintf(":%d", port)
	baseURL := fmt.Sprintf("http://localhost:%d", port)

	sseServer := server.NewSSEServer(s.mcpServer, server.WithBaseURL(baseURL))

	mux := http.NewServeMux()
	mux.Handle("/sse", corsMiddleware(sseServer.SSEHandler()))
	mux.Handle("/message", corsMiddleware(sseServer.MessageHandler()))

	httpServer := &http.Server{
		Addr:              addr,
		Handler:           mux,
		ReadHeaderTimeout: 10 * time.Second,
	}

	serverErrors := make(chan error, 1)
	go func() {
		s.logger.Info("MCP Server listening (SSE)", "address", addr)
		serverErrors <- httpServer.ListenAndServe()
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

		s.logger.Info("shutting down MCP server")
		if err := httpServer.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("could not stop server gracefully: %w", err)
		}
		return nil
	}
}

func corsMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Methods", "GET, POST, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type, Authorization, X-Requested-With")

		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusOK)
			return
		}
		next.ServeHTTP(w, r)
	})
}

func (s *Server) registerTools() {
	storyID := mcp.WithString("story_id", mcp.Required(), mcp.Description("The story to play"))

	s.mcpServer.AddTool(mcp.NewTool("story_state",
		mcp.WithDescription("Describe the current position in a story without moving."),
		storyID,
		mcp.WithOutputSchema[StoryState](),
	), mcp.NewStructuredToolHandler(s.handleState))

	s.mcpServer.AddTool(mcp.NewTool("advance",
		mcp.WithDescription("Leave the current scene. Does nothing at a choice or at the end."),
		storyID,
		mcp.WithOutputSchema[StoryState](),
	), mcp.NewStructuredToolHandler(s.handleAdvance))

	s.mcpServer.AddTool(mcp.NewTool("select_choice",
		mcp.WithDescription("Take an option of the current choice. Unknown options fall back to the first-declared one."),
		storyID,
		mcp.WithString("option", mcp.Required(), mcp.Description("The option id, as listed in options")),
		mcp.WithOutputSchema[StoryState](),
	), mcp.NewStructuredToolHandler(s.handleSelect))

	s.mcpServer.AddTool(mcp.NewTool("retreat",
		mcp.WithDescription("Go back to the previous scene."),
		storyID,
		mcp.WithOutputSchema[StoryState](),
	), mcp.NewStructuredToolHandler(s.handleRetreat))

	s.mcpServer.AddTool(mcp.NewTool("progress_map",
		mcp.WithDescription("Draw the story graph with completed, current and locked nodes."),
		storyID,
		mcp.WithString("format", mcp.Description("text (default) or mermaid"), mcp.Enum("text", "mermaid")),
		mcp.WithOutputSchema[MapResult](),
	), mcp.NewStructuredToolHandler(s.handleMap))
}

func (s *Server) handleState(ctx context.Context, _ mcp.CallToolRequest, args storyArgs) (StoryState, error) {
	return s.play(ctx, args.StoryID, func(ctx context.Context, sess *storyline.Session) (domain.Step, error) {
		return sess.Step(), nil
	})
}

func (s *Server) handleAdvance(ctx context.Context, _ mcp.CallToolRequest, args storyArgs) (StoryState, error) {
	return s.play(ctx, args.StoryID, func(ctx context.Context, sess *storyline.Session) (domain.Step, error) {
		return sess.Advance(ctx), nil
	})
}

func (s *Server) handleSelect(ctx context.Context, _ mcp.CallToolRequest, args selectArgs) (StoryState, error) {
	option, err := sanitize.Input(args.Option)
	if err != nil {
		s.logger.Warn("MCP Select: input rejected", "err", err, "size", len(args.Option))
		return StoryState{}, fmt.Errorf("input rejected: %w", err)
	}
	return s.play(ctx, args.StoryID, func(ctx context.Context, sess *storyline.Session) (domain.Step, error) {
		return sess.Select(ctx, option)
	})
}

func (s *Server) handleRetreat(ctx context.Context, _ mcp.CallToolRequest, args storyArgs) (StoryState, error) {
	return s.play(ctx, args.StoryID, func(ctx context.Context, sess *storyline.Session) (domain.Step, error) {
		step, _ := sess.Retreat(ctx)
		return step, nil
	})
}

func (s *Server) handleMap(ctx context.Context, _ mcp.CallToolRequest, args mapArgs) (MapResult, error) {
	format := args.Format
	if format == "" {
		format = "text"
	}
	if format != "text" && format != "mermaid" {
		return MapResult{}, fmt.Errorf("unknown map format %q", format)
	}

	res := MapResult{StoryID: args.StoryID, Format: format}
	err := s.sessions.WithSession(ctx, args.StoryID, func(ctx context.Context, sess *storyline.Session) error {
		l := sess.ProgressMap()
		if format == "mermaid" {
			res.Map = graph.GenerateMermaid(l, sess.Story().Graph.Start())
		} else {
			res.Map = tui.RenderTextMap(l, termenv.Ascii)
		}
		return nil
	})
	if err != nil {
		return MapResult{}, fmt.Errorf("progress map failed: %w", err)
	}
	return res, nil
}

func (s *Server) play(ctx context.Context, storyID string, op func(context.Context, *storyline.Session) (domain.Step, error)) (StoryState, error) {
	var state StoryState
	err := s.sessions.WithSession(ctx, storyID, func(ctx context.Context, sess *storyline.Session) error {
		step, err := op(ctx, sess)
		if err != nil {
			return err
		}
		state = stateOf(sess, step)
		return nil
	})
	if err != nil {
		s.logger.Debug("MCP tool failed", "story", storyID, "err", err)
		return StoryState{}, err
	}
	return state, nil
}

func stateOf(sess *storyline.Session, step domain.Step) StoryState {
	state := StoryState{
		StoryID:  sess.Story().ID,
		Mode:     step.Mode,
		NodeID:   step.NodeID,
		SceneID:  step.SceneID,
		ChoiceID: step.ChoiceID,
		Options:  step.Options,
		Fallback: step.Fallback,
		History:  sess.History(),
		Terminal: step.Mode == domain.ModeEnd,
	}
	if step.Mode == domain.ModeScene {
		if c, ok := sess.Content(step.SceneID); ok {
			state.Content = &c
		}
	}
	return state
}

func (s *Server) registerResources() {
	s.mcpServer.AddResource(mcp.NewResource("storyline://stories", "Registered Stories",
		mcp.WithMIMEType("application/json"),
	), func(ctx context.Context, request mcp.ReadResourceRequest) ([]mcp.ResourceContents, error) {
		jsonBytes, err := json.Marshal(s.sessions.StoryIDs())
		if err != nil {
			return nil, fmt.Errorf("failed to list stories: %w", err)
		}
		return []mcp.ResourceContents{
			mcp.TextResourceContents{
				URI:      "storyline://stories",
				MIMEType: "application/json",
				Text:     string(jsonBytes),
			},
		}, nil
	})
}
