package tools

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"

	"github.com/mark3labs/mcp-go/mcp"

	"github.com/greentrip/carbonmcp/pkg/core"
	"github.com/greentrip/carbonmcp/pkg/emissions"
	"github.com/greentrip/carbonmcp/pkg/monitoring"
	"github.com/greentrip/carbonmcp/pkg/routes"
)

// ListPlacesOutput defines the output for the place enumeration
type ListPlacesOutput struct {
	Places []string `json:"places"`
}

// ListPlacesTool returns a tool definition for enumerating catalog places
func ListPlacesTool() mcp.Tool {
	return mcp.NewTool("list_places",
		mcp.WithDescription("List every distinct place in the route catalog, deduplicated and sorted in locale order"),
	)
}

// HandleListPlaces implements catalog place enumeration
func (r *Registry) HandleListPlaces(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	logger := slog.Default().With("tool", "list_places")

	output := ListPlacesOutput{Places: r.catalog.Places()}
	return marshalResult(output, logger), nil
}

// FindDistanceInput defines the input parameters for a distance lookup
type FindDistanceInput struct {
	Origin      string `json:"origin"`
	Destination string `json:"destination"`
}

// FindDistanceOutput defines the output for a distance lookup
type FindDistanceOutput struct {
	Origin      string  `json:"origin"`
	Destination string  `json:"destination"`
	DistanceKm  float64 `json:"distance_km"`
}

// FindDistanceTool returns a tool definition for looking up a known distance
func FindDistanceTool() mcp.Tool {
	return mcp.NewTool("find_distance",
		mcp.WithDescription("Look up the known distance in km between two places; matching is case-insensitive, undirected and tolerant of a missing region suffix"),
		mcp.WithString("origin",
			mcp.Required(),
			mcp.Description("Origin place label (e.g. \"São Paulo, SP\" or just \"São Paulo\")"),
		),
		mcp.WithString("destination",
			mcp.Required(),
			mcp.Description("Destination place label"),
		),
	)
}

// HandleFindDistance implements catalog distance lookup
func (r *Registry) HandleFindDistance(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	logger := slog.Default().With("tool", "find_distance")

	// Parse input
	var input FindDistanceInput
	inputJSON, err := json.Marshal(req.Params.Arguments)
	if err != nil {
		logger.Error("failed to marshal input", "error", err)
		return core.NewError(core.ErrInvalidInput, "Invalid input format").ToMCPResult(), nil
	}

	if err := json.Unmarshal(inputJSON, &input); err != nil {
		logger.Error("failed to parse input", "error", err)
		return core.NewError(core.ErrInvalidInput, "Invalid input format").ToMCPResult(), nil
	}

	// Validate labels
	if err := core.ValidatePlaceLabel("origin", input.Origin); err != nil {
		logger.Error("invalid origin", "error", err)
		return core.NewError(core.ErrEmptyParameter, err.Error()).ToMCPResult(), nil
	}
	if err := core.ValidatePlaceLabel("destination", input.Destination); err != nil {
		logger.Error("invalid destination", "error", err)
		return core.NewError(core.ErrEmptyParameter, err.Error()).ToMCPResult(), nil
	}

	distance, err := r.lookupDistance(input.Origin, input.Destination)
	if err != nil {
		logger.Info("route not found", "origin", input.Origin, "destination", input.Destination)
		return core.RouteNotFoundError(input.Origin, input.Destination).ToMCPResult(), nil
	}

	output := FindDistanceOutput{
		Origin:      input.Origin,
		Destination: input.Destination,
		DistanceKm:  distance,
	}
	return marshalResult(output, logger), nil
}

// lookupDistance resolves a distance through the LRU cache, falling through
// to the catalog's two-pass matching on a miss. Misses are not cached, so a
// later catalog with more routes would not serve stale not-founds.
func (r *Registry) lookupDistance(origin, destination string) (float64, error) {
	if d, ok := r.lookups.get(origin, destination); ok {
		monitoring.RecordRouteLookup(true)
		return d, nil
	}

	d, err := r.catalog.FindDistance(origin, destination)
	if err != nil {
		monitoring.RecordRouteLookup(false)
		return 0, err
	}

	monitoring.RecordRouteLookup(true)
	r.lookups.add(origin, destination, d)
	return d, nil
}

// PlanTripInput defines the input parameters for the composite trip report
type PlanTripInput struct {
	Origin      string   `json:"origin"`
	Destination string   `json:"destination"`
	Mode        string   `json:"mode,omitempty"`
	DistanceKm  *float64 `json:"distance_km,omitempty"` // manual override when the catalog has no route
}

// PlanTripOutput defines the composite trip report
type PlanTripOutput struct {
	Origin         string                        `json:"origin"`
	Destination    string                        `json:"destination"`
	DistanceKm     float64                       `json:"distance_km"`
	DistanceSource string                        `json:"distance_source"` // "catalog" or "manual"
	Mode           emissions.Mode                `json:"mode"`
	EmissionKg     float64                       `json:"emission_kg"`
	BaselineKg     float64                       `json:"baseline_kg"`
	Modes          []emissions.ModeResult        `json:"modes"`
	Savings        emissions.SavingsResult       `json:"savings"`
	Credits        float64                       `json:"credits"`
	Price          emissions.CreditPriceEstimate `json:"price"`
}

// PlanTripTool returns a tool definition for the composite trip report
func PlanTripTool() mcp.Tool {
	return mcp.NewTool("plan_trip",
		mcp.WithDescription("Build a full trip carbon report: distance (catalog lookup or manual override), emission for the chosen mode, every-mode comparison, savings against car, and carbon credit pricing"),
		mcp.WithString("origin",
			mcp.Required(),
			mcp.Description("Origin place label"),
		),
		mcp.WithString("destination",
			mcp.Required(),
			mcp.Description("Destination place label"),
		),
		mcp.WithString("mode",
			mcp.Description("Transport mode: bicycle, car, bus, or truck"),
			mcp.DefaultString("car"),
		),
		mcp.WithNumber("distance_km",
			mcp.Description("Manual distance override in km, used when the catalog has no route for the pair"),
		),
	)
}

// HandlePlanTrip implements the composite trip report
func (r *Registry) HandlePlanTrip(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	logger := slog.Default().With("tool", "plan_trip")

	var input PlanTripInput
	inputJSON, err := json.Marshal(req.Params.Arguments)
	if err != nil {
		logger.Error("failed to marshal input", "error", err)
		return core.NewError(core.ErrInvalidInput, "Invalid input format").ToMCPResult(), nil
	}

	if err := json.Unmarshal(inputJSON, &input); err != nil {
		logger.Error("failed to parse input", "error", err)
		return core.NewError(core.ErrInvalidInput, "Invalid input format").ToMCPResult(), nil
	}

	if err := core.ValidatePlaceLabel("origin", input.Origin); err != nil {
		logger.Error("invalid origin", "error", err)
		return core.NewError(core.ErrEmptyParameter, err.Error()).ToMCPResult(), nil
	}
	if err := core.ValidatePlaceLabel("destination", input.Destination); err != nil {
		logger.Error("invalid destination", "error", err)
		return core.NewError(core.ErrEmptyParameter, err.Error()).ToMCPResult(), nil
	}

	mode, errResult := r.parseMode(input.Mode)
	if errResult != nil {
		logger.Error("unknown mode", "mode", input.Mode)
		return errResult, nil
	}

	// Resolve the distance: catalog first, manual override as fallback.
	var distance float64
	source := "catalog"
	distance, err = r.lookupDistance(input.Origin, input.Destination)
	if err != nil {
		if !errors.Is(err, routes.ErrRouteNotFound) {
			logger.Error("lookup failed", "error", err)
			return core.NewError(core.ErrInternalError, "Distance lookup failed").ToMCPResult(), nil
		}
		if input.DistanceKm == nil {
			logger.Info("route not found and no override", "origin", input.Origin, "destination", input.Destination)
			return core.RouteNotFoundError(input.Origin, input.Destination).ToMCPResult(), nil
		}
		if err := core.ValidateDistance(*input.DistanceKm); err != nil {
			logger.Error("invalid distance override", "error", err)
			return core.NewError(core.ErrInvalidDistance, err.Error()).ToMCPResult(), nil
		}
		distance = *input.DistanceKm
		source = "manual"
	}

	emission, err := r.engine.Emission(distance, mode)
	if err != nil {
		logger.Error("emission calculation failed", "error", err)
		return core.NewError(core.ErrInternalError, "Emission calculation failed").ToMCPResult(), nil
	}

	baseline, err := r.engine.Emission(distance, r.engine.Config().Baseline)
	if err != nil {
		logger.Error("baseline calculation failed", "error", err)
		return core.NewError(core.ErrInternalError, "Emission calculation failed").ToMCPResult(), nil
	}

	modeResults, err := r.engine.AllModes(distance)
	if err != nil {
		logger.Error("mode comparison failed", "error", err)
		return core.NewError(core.ErrInternalError, "Mode comparison failed").ToMCPResult(), nil
	}

	credits, err := r.engine.CarbonCredits(emission)
	if err != nil {
		logger.Error("credit conversion failed", "error", err)
		return core.NewError(core.ErrInternalError, "Credit conversion failed").ToMCPResult(), nil
	}

	price, err := r.engine.CreditPrice(credits)
	if err != nil {
		logger.Error("credit pricing failed", "error", err)
		return core.NewError(core.ErrInternalError, "Credit pricing failed").ToMCPResult(), nil
	}

	output := PlanTripOutput{
		Origin:         input.Origin,
		Destination:    input.Destination,
		DistanceKm:     distance,
		DistanceSource: source,
		Mode:           mode,
		EmissionKg:     emission,
		BaselineKg:     baseline,
		Modes:          modeResults,
		Savings:        r.engine.Savings(emission, baseline),
		Credits:        credits,
		Price:          price,
	}
	return marshalResult(output, logger), nil
}
