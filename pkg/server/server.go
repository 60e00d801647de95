// Package server provides the MCP server implementation for the trip carbon service.
package server

import (
	"context"
	"io"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"github.com/mark3labs/mcp-go/mcp"
	mcpserver "github.com/mark3labs/mcp-go/server"

	"github.com/greentrip/carbonmcp/pkg/emissions"
	"github.com/greentrip/carbonmcp/pkg/routes"
	"github.com/greentrip/carbonmcp/pkg/tools"
)

const (
	// ServerName is the name of the MCP server
	ServerName = "carbonmcp-server"

	// ServerVersion is the version of the MCP server
	ServerVersion = "0.1.0"
)

// tripPlanningPrompt guides MCP clients on combining the trip carbon tools.
const tripPlanningPrompt = `You have access to trip carbon accounting tools.

When a user asks about the environmental cost of a trip:
1. Use list_places to discover which places the route catalog knows.
2. Use find_distance to resolve the distance between two places. Matching is
   case-insensitive, works in either direction, and accepts a bare city name
   without its region suffix.
3. Use calculate_emission for a single transport mode, or compare_modes to
   rank every mode for the same distance. The car is the reference baseline.
4. Use calculate_savings to express how much CO2 a mode saves against
   driving, and estimate_credits to translate an emission into carbon
   credits with an offsetting price range.
5. Prefer plan_trip when the user wants the full picture in one call. If the
   catalog has no route for the pair, pass distance_km as a manual override.

Report emissions in kilograms of CO2 and round to two decimals when
summarizing for the user.`

// Server encapsulates the MCP server with trip carbon tools.
type Server struct {
	srv          *mcpserver.MCPServer
	logger       *slog.Logger
	registry     *tools.Registry
	stopCh       chan struct{}
	doneCh       chan struct{}
	running      bool
	mu           sync.Mutex
	once         sync.Once // Ensure we only close stopCh once
	ctxCancel    context.CancelFunc
	ctxGoroutine sync.Once // Ensure we only start one context goroutine
}

// NewServer creates a new trip carbon MCP server with all tools registered.
func NewServer() (*Server, error) {
	logger := slog.Default()
	logger.Info("initializing trip carbon MCP server",
		"name", ServerName,
		"version", ServerVersion)

	catalog, err := routes.DefaultCatalog()
	if err != nil {
		return nil, err
	}

	engine, err := emissions.NewEngine(emissions.DefaultConfig())
	if err != nil {
		return nil, err
	}

	// Create MCP server with options
	srv := mcpserver.NewMCPServer(
		ServerName,
		ServerVersion,
		mcpserver.WithToolCapabilities(false),
		mcpserver.WithRecovery(),
	)

	// Create tool registry and register all tools
	registry, err := tools.NewRegistry(logger, catalog, engine)
	if err != nil {
		return nil, err
	}
	registry.RegisterAll(srv)

	// Register the trip planning system prompt
	planningPrompt := mcp.NewPrompt("trip_planning_system",
		mcp.WithPromptDescription("System prompt with trip carbon accounting instructions"),
	)

	srv.AddPrompt(planningPrompt, func(ctx context.Context, req mcp.GetPromptRequest) (*mcp.GetPromptResult, error) {
		return mcp.NewGetPromptResult(
			"Trip Planning System Instructions",
			[]mcp.PromptMessage{
				mcp.NewPromptMessage(
					mcp.RoleAssistant,
					mcp.NewTextContent(tripPlanningPrompt),
				),
			},
		), nil
	})

	return &Server{
		srv:      srv,
		logger:   logger,
		registry: registry,
		stopCh:   make(chan struct{}),
		doneCh:   make(chan struct{}),
	}, nil
}

// Run starts the MCP server using stdin/stdout for communication.
// This method blocks until the server is stopped or an error occurs.
func (s *Server) Run() error {
	s.mu.Lock()
	if s.running {
		s.mu.Unlock()
		return nil
	}
	s.running = true
	s.mu.Unlock()

	// Run the server in a goroutine
	go func() {
		defer close(s.doneCh)
		err := mcpserver.ServeStdio(s.srv)
		if err != nil && err != io.EOF {
			s.logger.Error("server error", "error", err)
		}

		// Ensure the main Run loop is notified that the
		// server has finished processing.
		s.Shutdown()
	}()

	// Wait for stop signal
	<-s.stopCh

	s.mu.Lock()
	s.running = false
	s.mu.Unlock()

	// Wait for server to finish before returning
	<-s.doneCh
	return nil
}

// RunWithContext starts the MCP server and allows for graceful shutdown via context.
// This method blocks until the context is canceled or an error occurs.
func (s *Server) RunWithContext(ctx context.Context) error {
	// Create a goroutine to watch the context for cancellation
	s.ctxGoroutine.Do(func() {
		// Create a derived context that we can cancel
		derived, cancel := context.WithCancel(ctx)
		s.ctxCancel = cancel

		go func() {
			select {
			case <-derived.Done():
				s.Shutdown()
			case <-s.stopCh:
				// Already being shut down
			}
		}()
	})

	return s.Run()
}

// Shutdown initiates a graceful shutdown of the server.
// It does not block and returns immediately.
// Using sync.Once to ensure we don't close an already closed channel.
func (s *Server) Shutdown() {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.running {
		return
	}

	// Signal the server to stop using sync.Once to avoid panics
	// on double close of the channel
	s.once.Do(func() {
		close(s.stopCh)
	})

	// Cancel the context if we have one
	if s.ctxCancel != nil {
		s.ctxCancel()
	}
}

// WaitForShutdown blocks until the server has fully shut down.
func (s *Server) WaitForShutdown() {
	<-s.doneCh
}

// GetMCPServer returns the underlying MCP server instance for HTTP transport
func (s *Server) GetMCPServer() *mcpserver.MCPServer {
	return s.srv
}

// Registry returns the tool registry backing this server.
func (s *Server) Registry() *tools.Registry {
	return s.registry
}

// Handler is a plain HTTP facade over the trip carbon tools, for callers
// that are not MCP clients.
type Handler struct {
	logger   *slog.Logger
	registry *tools.Registry
}

// NewHandler creates a new server handler
func NewHandler(logger *slog.Logger, registry *tools.Registry) *Handler {
	return &Handler{
		logger:   logger,
		registry: registry,
	}
}

// ServeHTTP implements the http.Handler interface
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	start := time.Now()
	path := r.URL.Path
	method := r.Method

	// Add request ID to context
	reqID := r.Header.Get("X-Request-ID")
	if reqID == "" {
		reqID = generateRequestID()
	}

	// Log request
	h.logger.Info("request started",
		"request_id", reqID,
		"method", method,
		"path", path,
		"remote_addr", r.RemoteAddr,
		"user_agent", r.UserAgent())

	// Handle request
	var status int
	var err error

	switch {
	case path == "/health":
		status, err = h.handleHealth(w, r)
	case path == "/places":
		status, err = h.handlePlaces(w, r)
	case path == "/distance":
		status, err = h.handleDistance(w, r)
	case path == "/trip":
		status, err = h.handleTrip(w, r)
	default:
		status = http.StatusNotFound
		http.NotFound(w, r)
	}

	// Log response
	duration := time.Since(start)
	if err != nil {
		h.logger.Error("request failed",
			"request_id", reqID,
			"method", method,
			"path", path,
			"status", status,
			"duration", duration,
			"error", err)
	} else {
		h.logger.Info("request completed",
			"request_id", reqID,
			"method", method,
			"path", path,
			"status", status,
			"duration", duration)
	}
}

// handleHealth handles health check requests
func (h *Handler) handleHealth(w http.ResponseWriter, r *http.Request) (int, error) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)

	if _, err := w.Write([]byte(`{"status":"ok"}`)); err != nil {
		h.logger.Error("failed to write health response", "error", err)
		return http.StatusOK, err // Status already written, but return error for logging
	}

	return http.StatusOK, nil
}

// handlePlaces handles catalog place listing requests
func (h *Handler) handlePlaces(w http.ResponseWriter, r *http.Request) (int, error) {
	req := mcp.CallToolRequest{
		Params: mcp.CallToolParams{
			Name: "list_places",
		},
	}

	result, err := h.registry.HandleListPlaces(r.Context(), req)
	if err != nil {
		return http.StatusInternalServerError, err
	}

	return h.writeToolResult(w, result)
}

// handleDistance handles distance lookup requests
func (h *Handler) handleDistance(w http.ResponseWriter, r *http.Request) (int, error) {
	q := r.URL.Query()
	req := mcp.CallToolRequest{
		Params: mcp.CallToolParams{
			Name: "find_distance",
			Arguments: map[string]any{
				"origin":      q.Get("origin"),
				"destination": q.Get("destination"),
			},
		},
	}

	result, err := h.registry.HandleFindDistance(r.Context(), req)
	if err != nil {
		return http.StatusInternalServerError, err
	}

	return h.writeToolResult(w, result)
}

// handleTrip handles composite trip report requests
func (h *Handler) handleTrip(w http.ResponseWriter, r *http.Request) (int, error) {
	q := r.URL.Query()
	args := map[string]any{
		"origin":      q.Get("origin"),
		"destination": q.Get("destination"),
	}
	if mode := q.Get("mode"); mode != "" {
		args["mode"] = mode
	}

	req := mcp.CallToolRequest{
		Params: mcp.CallToolParams{
			Name:      "plan_trip",
			Arguments: args,
		},
	}

	result, err := h.registry.HandlePlanTrip(r.Context(), req)
	if err != nil {
		return http.StatusInternalServerError, err
	}

	return h.writeToolResult(w, result)
}

// writeToolResult serializes a tool result as an HTTP response. Domain
// errors map to 400.
func (h *Handler) writeToolResult(w http.ResponseWriter, result *mcp.CallToolResult) (int, error) {
	var content string
	for _, c := range result.Content {
		if t, ok := c.(mcp.TextContent); ok {
			content = t.Text
			break
		}
	}

	w.Header().Set("Content-Type", "application/json")
	status := http.StatusOK
	if result.IsError {
		status = http.StatusBadRequest
	}
	w.WriteHeader(status)

	if _, err := w.Write([]byte(content)); err != nil {
		h.logger.Error("failed to write response", "error", err)
		return status, err
	}

	return status, nil
}

// generateRequestID generates a unique request ID
func generateRequestID() string {
	return time.Now().Format("20060102150405.000000000")
}
