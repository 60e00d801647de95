// Package core provides shared utilities for the trip carbon MCP tools.
package core

import (
	"fmt"

	"github.com/mark3labs/mcp-go/mcp"
)

// ToolFactory provides a simplified way to create new tool definitions
// with standardized parameters
type ToolFactory struct {
	// Factory configuration options could be added here
}

// NewToolFactory creates a new tool factory
func NewToolFactory() *ToolFactory {
	return &ToolFactory{}
}

// CreateBasicTool creates a new tool with the specified name and description
func (f *ToolFactory) CreateBasicTool(name, description string) mcp.Tool {
	return mcp.NewTool(name, mcp.WithDescription(description))
}

// CreateDistanceTool creates a tool that takes a distance and an optional
// transport mode
func (f *ToolFactory) CreateDistanceTool(name, description, defaultMode string) mcp.Tool {
	return mcp.NewTool(name,
		mcp.WithDescription(description),
		mcp.WithNumber("distance_km",
			mcp.Required(),
			mcp.Description(fmt.Sprintf("Trip distance in kilometers (0 to %.0f)", MaxDistanceKm)),
		),
		mcp.WithString("mode",
			mcp.Description("Transport mode: bicycle, car, bus, or truck"),
			mcp.DefaultString(defaultMode),
		),
	)
}

// CreateTripTool creates a tool that takes origin and destination place
// labels and an optional transport mode
func (f *ToolFactory) CreateTripTool(name, description, defaultMode string) mcp.Tool {
	return mcp.NewTool(name,
		mcp.WithDescription(description),
		mcp.WithString("origin",
			mcp.Required(),
			mcp.Description("Origin place label, optionally with region suffix (e.g. \"São Paulo, SP\")"),
		),
		mcp.WithString("destination",
			mcp.Required(),
			mcp.Description("Destination place label, optionally with region suffix"),
		),
		mcp.WithString("mode",
			mcp.Description("Transport mode: bicycle, car, bus, or truck"),
			mcp.DefaultString(defaultMode),
		),
	)
}
