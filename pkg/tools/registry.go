// Package tools provides the trip carbon MCP tools implementations.
package tools

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/greentrip/carbonmcp/pkg/core"
	"github.com/greentrip/carbonmcp/pkg/emissions"
	"github.com/greentrip/carbonmcp/pkg/monitoring"
	"github.com/greentrip/carbonmcp/pkg/routes"
	"github.com/greentrip/carbonmcp/pkg/tracing"
)

// Registry contains all tool definitions and handlers together with the
// catalog and engine they operate on.
type Registry struct {
	logger  *slog.Logger
	factory *core.ToolFactory
	catalog *routes.Catalog
	engine  *emissions.Engine
	lookups *lookupCache
}

// NewRegistry creates a new tool registry over the given catalog and engine.
func NewRegistry(logger *slog.Logger, catalog *routes.Catalog, engine *emissions.Engine) (*Registry, error) {
	lookups, err := newLookupCache(defaultLookupCacheSize)
	if err != nil {
		return nil, fmt.Errorf("tools: creating lookup cache: %w", err)
	}
	return &Registry{
		logger:  logger,
		factory: core.NewToolFactory(),
		catalog: catalog,
		engine:  engine,
		lookups: lookups,
	}, nil
}

// ToolDefinition represents a trip carbon MCP tool definition.
type ToolDefinition struct {
	Name        string
	Description string
	Tool        mcp.Tool
	Handler     func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error)
}

// GetToolDefinitions returns the list of all available tools.
func (r *Registry) GetToolDefinitions() []ToolDefinition {
	defs := []ToolDefinition{
		// Version and capability tools
		{
			Name:        "get_version",
			Description: "Get the version information for this trip carbon MCP",
			Tool:        GetVersionTool(),
			Handler:     HandleGetVersion,
		},

		// Catalog tools
		{
			Name:        "list_places",
			Description: "List every place known to the route catalog, in locale order",
			Tool:        ListPlacesTool(),
			Handler:     r.HandleListPlaces,
		},
		{
			Name:        "find_distance",
			Description: "Look up the known distance between two places. Parameters: origin (string), destination (string)",
			Tool:        FindDistanceTool(),
			Handler:     r.HandleFindDistance,
		},

		// Emission tools
		{
			Name:        "calculate_emission",
			Description: "Calculate trip CO2 emission for one transport mode. Parameters: distance_km (number), mode (string: bicycle, car, bus, truck)",
			Tool:        r.factory.CreateDistanceTool("calculate_emission", "Calculate the CO2 emission in kg for a trip distance and transport mode", "car"),
			Handler:     r.HandleCalculateEmission,
		},
		{
			Name:        "compare_modes",
			Description: "Compare CO2 emissions of every transport mode for one distance. Parameters: distance_km (number)",
			Tool:        CompareModesTool(),
			Handler:     r.HandleCompareModes,
		},
		{
			Name:        "calculate_savings",
			Description: "Calculate CO2 savings of a transport mode against the car baseline. Parameters: distance_km (number), mode (string)",
			Tool:        r.factory.CreateDistanceTool("calculate_savings", "Calculate how much CO2 a transport mode saves against the car baseline for a trip distance", "bus"),
			Handler:     r.HandleCalculateSavings,
		},
		{
			Name:        "estimate_credits",
			Description: "Convert a CO2 emission into carbon credits and an offsetting price range. Parameters: emission_kg (number)",
			Tool:        EstimateCreditsTool(),
			Handler:     r.HandleEstimateCredits,
		},

		// Composite trip tool
		{
			Name:        "plan_trip",
			Description: "Full trip report: resolved distance, per-mode comparison, savings vs car, carbon credits and price. Parameters: origin (string), destination (string), mode (string), distance_km (number, optional override)",
			Tool:        PlanTripTool(),
			Handler:     r.HandlePlanTrip,
		},
	}

	return defs
}

// RegisterTools registers all tools with the MCP server.
func (r *Registry) RegisterTools(mcpServer *server.MCPServer) {
	for _, def := range r.GetToolDefinitions() {
		r.logger.Info("registering tool", "name", def.Name)
		// Wrap handler with tracing and metrics
		tracedHandler := r.wrapWithTracing(def.Name, def.Handler)
		mcpServer.AddTool(def.Tool, tracedHandler)
	}
}

// wrapWithTracing wraps a tool handler with OpenTelemetry tracing and
// request metrics
func (r *Registry) wrapWithTracing(toolName string, handler func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error)) func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	return func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		// Start span
		spanName := fmt.Sprintf("mcp.tool.%s", toolName)
		ctx, span := tracing.StartSpan(ctx, spanName,
			trace.WithAttributes(
				attribute.String(tracing.AttrMCPToolName, toolName),
			),
		)
		defer span.End()

		// Record start time
		startTime := time.Now()

		// Execute handler
		result, err := handler(ctx, req)

		// Calculate duration
		duration := time.Since(startTime)
		durationMs := duration.Milliseconds()

		// Determine status; domain errors come back as error results with
		// a nil Go error
		status := tracing.StatusSuccess
		success := err == nil && (result == nil || !result.IsError)
		if err != nil {
			status = tracing.StatusError
			span.RecordError(err)
			span.SetStatus(codes.Error, err.Error())
		} else if !success {
			status = tracing.StatusError
			span.SetStatus(codes.Error, "tool returned error result")
		} else {
			span.SetStatus(codes.Ok, "")
		}

		monitoring.RecordToolRequest(toolName, duration, success)

		// Calculate result size
		resultSize := 0
		if result != nil && result.Content != nil {
			if data, marshalErr := json.Marshal(result.Content); marshalErr == nil {
				resultSize = len(data)
			}
		}

		// Set final attributes
		span.SetAttributes(
			attribute.String(tracing.AttrMCPToolStatus, status),
			attribute.Int64(tracing.AttrMCPToolDuration, durationMs),
			attribute.Int(tracing.AttrMCPResultSize, resultSize),
		)

		// Log for debugging
		r.logger.Debug("tool execution traced",
			"tool", toolName,
			"duration_ms", durationMs,
			"status", status,
			"result_size", resultSize,
		)

		return result, err
	}
}

// GetToolNames returns a list of all tool names.
func (r *Registry) GetToolNames() []string {
	defs := r.GetToolDefinitions()
	names := make([]string, len(defs))
	for i, def := range defs {
		names[i] = def.Name
	}
	return names
}

// RegisterAll registers all tools with the MCP server.
func (r *Registry) RegisterAll(mcpServer *server.MCPServer) {
	r.RegisterTools(mcpServer)
}

// knownModes returns the configured mode identifiers as plain strings, in
// declaration order, for error suggestions.
func (r *Registry) knownModes() []string {
	modes := r.engine.Config().Modes()
	out := make([]string, len(modes))
	for i, m := range modes {
		out[i] = string(m)
	}
	return out
}

// parseMode validates a raw mode string against the factor table. An empty
// string falls back to the baseline mode.
func (r *Registry) parseMode(raw string) (emissions.Mode, *mcp.CallToolResult) {
	if raw == "" {
		return r.engine.Config().Baseline, nil
	}
	mode := emissions.Mode(raw)
	for _, m := range r.engine.Config().Modes() {
		if m == mode {
			return mode, nil
		}
	}
	return "", core.UnknownModeError(raw, r.knownModes()).ToMCPResult()
}
