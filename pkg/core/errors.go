// Package core provides shared utilities for the trip carbon MCP tools.
package core

import (
	"encoding/json"
	"fmt"

	"github.com/mark3labs/mcp-go/mcp"
)

// ErrorCode defines standard error codes for MCP tools
type ErrorCode string

// Standard error codes
const (
	// Input validation errors
	ErrInvalidInput     ErrorCode = "INVALID_INPUT"
	ErrInvalidDistance  ErrorCode = "INVALID_DISTANCE"
	ErrInvalidEmission  ErrorCode = "INVALID_EMISSION"
	ErrInvalidCredits   ErrorCode = "INVALID_CREDITS"
	ErrEmptyParameter   ErrorCode = "EMPTY_PARAMETER"
	ErrMissingParameter ErrorCode = "MISSING_PARAMETER"
	ErrInvalidParameter ErrorCode = "INVALID_PARAMETER"

	// Domain errors
	ErrRouteNotFound ErrorCode = "ROUTE_NOT_FOUND"
	ErrUnknownMode   ErrorCode = "UNKNOWN_MODE"

	// Service errors
	ErrInternalError ErrorCode = "INTERNAL_ERROR"
)

// MCPError represents a detailed error structure for MCP tool responses
type MCPError struct {
	Code        string   `json:"code"`
	Message     string   `json:"message"`
	Query       string   `json:"query,omitempty"`
	Suggestions []string `json:"suggestions,omitempty"`
	Guidance    string   `json:"guidance,omitempty"`
}

// Error implements the error interface
func (e MCPError) Error() string {
	if e.Guidance != "" {
		return fmt.Sprintf("%s: %s. %s", e.Code, e.Message, e.Guidance)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

// NewError creates a new MCPError with the given code and message
func NewError(code ErrorCode, message string) *MCPError {
	return &MCPError{
		Code:    string(code),
		Message: message,
	}
}

// WithQuery adds query information to the error
func (e *MCPError) WithQuery(query string) *MCPError {
	e.Query = query
	return e
}

// WithGuidance adds guidance information to the error
func (e *MCPError) WithGuidance(guidance string) *MCPError {
	e.Guidance = guidance
	return e
}

// WithSuggestions adds suggestions to the error
func (e *MCPError) WithSuggestions(suggestions ...string) *MCPError {
	e.Suggestions = append(e.Suggestions, suggestions...)
	return e
}

// ToMCPResult converts the error to an MCP tool result
func (e *MCPError) ToMCPResult() *mcp.CallToolResult {
	errorJSON, err := json.Marshal(e)
	if err != nil {
		// Fallback if marshaling fails
		return mcp.NewToolResultError(fmt.Sprintf("ERROR: %s - %s", e.Code, e.Message))
	}

	return mcp.NewToolResultError(string(errorJSON))
}

// RouteNotFoundError creates the recoverable lookup-miss error. The caller
// is expected to fall back to a manually supplied distance.
func RouteNotFoundError(origin, destination string) *MCPError {
	return NewError(ErrRouteNotFound,
		fmt.Sprintf("No known route between %q and %q", origin, destination)).
		WithGuidance("Supply distance_km directly, or pick both places from the list_places tool.")
}

// UnknownModeError creates the error for a mode absent from the factor
// table. The emission is never silently reported as zero.
func UnknownModeError(mode string, known []string) *MCPError {
	return NewError(ErrUnknownMode,
		fmt.Sprintf("Transport mode %q is not in the emission factor table", mode)).
		WithSuggestions(known...).
		WithGuidance("Use one of the listed transport modes.")
}
