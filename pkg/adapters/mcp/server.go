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

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"

	learnpath "github.com/pseng/MyH5P-pages"
	"github.com/pseng/MyH5P-pages/internal/logging"
	"github.com/pseng/MyH5P-pages/internal/validator"
	"github.com/pseng/MyH5P-pages/pkg/domain"
	"github.com/pseng/MyH5P-pages/pkg/persistence/middleware"
	"github.com/pseng/MyH5P-pages/pkg/ports"
	"github.com/pseng/MyH5P-pages/pkg/registry"
	"github.com/pseng/MyH5P-pages/pkg/traversal"
)

// PathArgs selects one stored path.
type PathArgs struct {
	ID string `json:"id"`
}

// ListPathsArgs optionally filters the listing.
type ListPathsArgs struct {
	Status string `json:"status,omitempty"`
}

// NodeTypesResponse is the catalog grouped by category.
type NodeTypesResponse struct {
	Groups []registry.Group `json:"groups" jsonschema_description:"Node types grouped by category"`
}

// ListPathsResponse lists stored paths.
type ListPathsResponse struct {
	Paths []domain.PathSummary `json:"paths" jsonschema_description:"Path summaries, most recently updated first"`
}

// ValidateResponse is a validation report.
type ValidateResponse struct {
	PathID string `json:"pathId"`
	validator.Result
}

// LinearizeResponse is the learner-facing order of a path.
type LinearizeResponse struct {
	PathID string `json:"pathId"`
	traversal.Order
}

// Server exposes read-only learnpath operations as MCP tools.
// Documents it returns pass through the redaction middleware so record-store credentials never leave.
type Server struct {
	svc       *learnpath.Service
	store     ports.PathStore
	logger    *slog.Logger
	mcpServer *server.MCPServer
}

// Option configures the MCP server.
type Option func(*Server)

// WithLogger sets the logger.
func WithLogger(l *slog.Logger) Option {
	return func(s *Server) {
		s.logger = l
	}
}

// NewServer creates a new MCP Server instance.
func NewServer(svc *learnpath.Service, opts ...Option) *Server {
	s := &Server{
		svc:       svc,
		store:     middleware.NewRedactMiddleware(middleware.DefaultRedactPatterns)(svc.Store()),
		logger:    logging.NewNop(),
		mcpServer: server.NewMCPServer("learnpath-mcp", strings.TrimSpace(learnpath.Version)),
	}
	for _, opt := range opts {
		opt(s)
	}
	s.registerTools()
	s.registerResources()
	return s
}

// ServeStdio starts the server on Stdin/Stdout.
func (s *Server) ServeStdio() error {
	return server.ServeStdio(s.mcpServer)
}

// ServeSSE serves the SSE transport on addr until ctx is done.
func (s *Server) ServeSSE(ctx context.Context, addr, baseURL string) error {
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
		s.logger.Info("MCP server listening (SSE)", "address", addr)
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serverErrors <- err
		}
		close(serverErrors)
	}()

	select {
	case err := <-serverErrors:
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
	s.mcpServer.AddTool(mcp.NewTool("list_node_types",
		mcp.WithDescription("List the node types an author can place on a learning path, grouped by category."),
		mcp.WithOutputSchema[NodeTypesResponse](),
	), mcp.NewStructuredToolHandler(s.handleListNodeTypes))

	s.mcpServer.AddTool(mcp.NewTool("list_paths",
		mcp.WithDescription("List stored learning paths."),
		mcp.WithString("status", mcp.Description("Only paths with this status"), mcp.Enum("draft", "published")),
		mcp.WithOutputSchema[ListPathsResponse](),
	), mcp.NewStructuredToolHandler(s.handleListPaths))

	s.mcpServer.AddTool(mcp.NewTool("get_path",
		mcp.WithDescription("Get a learning path document. Credentials are masked."),
		mcp.WithString("id", mcp.Required(), mcp.Description("Path ID")),
	), s.handleGetPath)

	s.mcpServer.AddTool(mcp.NewTool("validate_path",
		mcp.WithDescription("Check a stored learning path for structural errors and warnings."),
		mcp.WithString("id", mcp.Required(), mcp.Description("Path ID")),
		mcp.WithOutputSchema[ValidateResponse](),
	), mcp.NewStructuredToolHandler(s.handleValidatePath))

	s.mcpServer.AddTool(mcp.NewTool("linearize_path",
		mcp.WithDescription("Return the order in which a learner visits the nodes of a path."),
		mcp.WithString("id", mcp.Required(), mcp.Description("Path ID")),
		mcp.WithOutputSchema[LinearizeResponse](),
	), mcp.NewStructuredToolHandler(s.handleLinearizePath))

	s.mcpServer.AddTool(mcp.NewTool("path_graph",
		mcp.WithDescription("Render a learning path as a Mermaid flowchart."),
		mcp.WithString("id", mcp.Required(), mcp.Description("Path ID")),
	), s.handlePathGraph)
}

func (s *Server) handleListNodeTypes(ctx context.Context, request mcp.CallToolRequest, _ struct{}) (NodeTypesResponse, error) {
	return NodeTypesResponse{Groups: s.svc.NodeTypes()}, nil
}

func (s *Server) handleListPaths(ctx context.Context, request mcp.CallToolRequest, args ListPathsArgs) (ListPathsResponse, error) {
	paths, err := s.svc.ListPaths(ctx, domain.PathStatus(args.Status))
	if err != nil {
		return ListPathsResponse{}, fmt.Errorf("list failed: %w", err)
	}
	return ListPathsResponse{Paths: paths}, nil
}

func (s *Server) handleGetPath(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	id, err := request.RequireString("id")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	p, err := s.store.Get(ctx, id)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("get failed: %v", err)), nil
	}
	data, err := json.Marshal(p)
	if err != nil {
		return nil, err
	}
	return mcp.NewToolResultText(string(data)), nil
}

func (s *Server) handleValidatePath(ctx context.Context, request mcp.CallToolRequest, args PathArgs) (ValidateResponse, error) {
	if args.ID == "" {
		return ValidateResponse{}, errors.New("id is required")
	}
	res, err := s.svc.ValidatePath(ctx, args.ID)
	if err != nil {
		return ValidateResponse{}, fmt.Errorf("validate failed: %w", err)
	}
	s.logger.Debug("MCP validate_path", "path_id", args.ID, "valid", res.Valid)
	return ValidateResponse{PathID: args.ID, Result: res}, nil
}

func (s *Server) handleLinearizePath(ctx context.Context, request mcp.CallToolRequest, args PathArgs) (LinearizeResponse, error) {
	if args.ID == "" {
		return LinearizeResponse{}, errors.New("id is required")
	}
	order, err := s.svc.LinearizePath(ctx, args.ID)
	if err != nil {
		return LinearizeResponse{}, fmt.Errorf("linearize failed: %w", err)
	}
	return LinearizeResponse{PathID: args.ID, Order: order}, nil
}

func (s *Server) handlePathGraph(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	id, err := request.RequireString("id")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	chart, err := s.svc.PathGraph(ctx, id, "")
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("graph failed: %v", err)), nil
	}
	return mcp.NewToolResultText(chart), nil
}

func (s *Server) registerResources() {
	s.mcpServer.AddResource(mcp.NewResource("learnpath://node-types", "Node-type catalog",
		mcp.WithMIMEType("application/json"),
	), func(ctx context.Context, request mcp.ReadResourceRequest) ([]mcp.ResourceContents, error) {
		jsonBytes, err := json.Marshal(s.svc.NodeTypes())
		if err != nil {
			return nil, fmt.Errorf("failed to encode catalog: %w", err)
		}
		return []mcp.ResourceContents{
			mcp.TextResourceContents{
				URI:      "learnpath://node-types",
				MIMEType: "application/json",
				Text:     string(jsonBytes),
			},
		}, nil
	})
}
