package tools

import (
	"context"
	"encoding/json"
	"log/slog"

	"github.com/mark3labs/mcp-go/mcp"

	"github.com/greentrip/carbonmcp/pkg/core"
	"github.com/greentrip/carbonmcp/pkg/emissions"
)

// CalculateEmissionInput defines the input parameters for a single-mode
// emission calculation
type CalculateEmissionInput struct {
	DistanceKm float64 `json:"distance_km"`
	Mode       string  `json:"mode,omitempty"`
}

// CalculateEmissionOutput defines the output for a single-mode emission
type CalculateEmissionOutput struct {
	Mode       emissions.Mode `json:"mode"`
	DistanceKm float64        `json:"distance_km"`
	EmissionKg float64        `json:"emission_kg"`
}

// HandleCalculateEmission implements single-mode emission calculation
func (r *Registry) HandleCalculateEmission(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	logger := slog.Default().With("tool", "calculate_emission")

	input, errResult, err := InputParser[CalculateEmissionInput](req)
	if err != nil {
		logger.Error("failed to parse input", "error", err)
		return errResult, nil
	}

	if err := core.ValidateDistance(input.DistanceKm); err != nil {
		logger.Error("invalid distance", "error", err)
		return core.NewError(core.ErrInvalidDistance, err.Error()).ToMCPResult(), nil
	}

	mode, modeErr := r.parseMode(input.Mode)
	if modeErr != nil {
		logger.Error("unknown mode", "mode", input.Mode)
		return modeErr, nil
	}

	emission, err := r.engine.Emission(input.DistanceKm, mode)
	if err != nil {
		logger.Error("emission calculation failed", "error", err)
		return core.NewError(core.ErrInternalError, "Emission calculation failed").ToMCPResult(), nil
	}

	output := CalculateEmissionOutput{
		Mode:       mode,
		DistanceKm: input.DistanceKm,
		EmissionKg: emission,
	}
	return marshalResult(output, logger), nil
}

// CompareModesInput defines the input parameters for the cross-mode
// comparison
type CompareModesInput struct {
	DistanceKm float64 `json:"distance_km"`
}

// CompareModesOutput defines the cross-mode comparison output, ordered by
// ascending emission
type CompareModesOutput struct {
	DistanceKm float64                `json:"distance_km"`
	Results    []emissions.ModeResult `json:"results"`
}

// CompareModesTool returns a tool definition for comparing all modes
func CompareModesTool() mcp.Tool {
	return mcp.NewTool("compare_modes",
		mcp.WithDescription("Compute CO2 emissions for every transport mode over one distance, sorted ascending, each with its percentage of the car baseline"),
		mcp.WithNumber("distance_km",
			mcp.Required(),
			mcp.Description("Trip distance in kilometers"),
		),
	)
}

// HandleCompareModes implements the cross-mode comparison
func (r *Registry) HandleCompareModes(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	logger := slog.Default().With("tool", "compare_modes")

	input, errResult, err := InputParser[CompareModesInput](req)
	if err != nil {
		logger.Error("failed to parse input", "error", err)
		return errResult, nil
	}

	if err := core.ValidateDistance(input.DistanceKm); err != nil {
		logger.Error("invalid distance", "error", err)
		return core.NewError(core.ErrInvalidDistance, err.Error()).ToMCPResult(), nil
	}

	results, err := r.engine.AllModes(input.DistanceKm)
	if err != nil {
		logger.Error("mode comparison failed", "error", err)
		return core.NewError(core.ErrInternalError, "Mode comparison failed").ToMCPResult(), nil
	}

	output := CompareModesOutput{
		DistanceKm: input.DistanceKm,
		Results:    results,
	}
	return marshalResult(output, logger), nil
}

// CalculateSavingsInput defines the input parameters for the savings
// calculation
type CalculateSavingsInput struct {
	DistanceKm float64 `json:"distance_km"`
	Mode       string  `json:"mode,omitempty"`
}

// CalculateSavingsOutput defines the savings of a mode against the car
// baseline. SavedKg is negative when the mode emits more than the baseline.
type CalculateSavingsOutput struct {
	Mode       emissions.Mode          `json:"mode"`
	DistanceKm float64                 `json:"distance_km"`
	EmissionKg float64                 `json:"emission_kg"`
	BaselineKg float64                 `json:"baseline_kg"`
	Savings    emissions.SavingsResult `json:"savings"`
}

// HandleCalculateSavings implements the savings calculation
func (r *Registry) HandleCalculateSavings(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	logger := slog.Default().With("tool", "calculate_savings")

	input, errResult, err := InputParser[CalculateSavingsInput](req)
	if err != nil {
		logger.Error("failed to parse input", "error", err)
		return errResult, nil
	}

	if err := core.ValidateDistance(input.DistanceKm); err != nil {
		logger.Error("invalid distance", "error", err)
		return core.NewError(core.ErrInvalidDistance, err.Error()).ToMCPResult(), nil
	}

	mode, modeErr := r.parseMode(input.Mode)
	if modeErr != nil {
		logger.Error("unknown mode", "mode", input.Mode)
		return modeErr, nil
	}

	emission, err := r.engine.Emission(input.DistanceKm, mode)
	if err != nil {
		logger.Error("emission calculation failed", "error", err)
		return core.NewError(core.ErrInternalError, "Emission calculation failed").ToMCPResult(), nil
	}

	baseline, err := r.engine.Emission(input.DistanceKm, r.engine.Config().Baseline)
	if err != nil {
		logger.Error("baseline calculation failed", "error", err)
		return core.NewError(core.ErrInternalError, "Emission calculation failed").ToMCPResult(), nil
	}

	output := CalculateSavingsOutput{
		Mode:       mode,
		DistanceKm: input.DistanceKm,
		EmissionKg: emission,
		BaselineKg: baseline,
		Savings:    r.engine.Savings(emission, baseline),
	}
	return marshalResult(output, logger), nil
}

// EstimateCreditsInput defines the input parameters for credit estimation
type EstimateCreditsInput struct {
	EmissionKg float64 `json:"emission_kg"`
}

// EstimateCreditsOutput defines the credit amount and price estimate for an
// emission
type EstimateCreditsOutput struct {
	EmissionKg float64                       `json:"emission_kg"`
	Credits    float64                       `json:"credits"`
	Price      emissions.CreditPriceEstimate `json:"price"`
}

// EstimateCreditsTool returns a tool definition for carbon credit estimation
func EstimateCreditsTool() mcp.Tool {
	return mcp.NewTool("estimate_credits",
		mcp.WithDescription("Convert a CO2 emission in kg to carbon credits and estimate the min/max/average offsetting price"),
		mcp.WithNumber("emission_kg",
			mcp.Required(),
			mcp.Description("CO2 emission in kilograms"),
		),
	)
}

// HandleEstimateCredits implements carbon credit estimation
func (r *Registry) HandleEstimateCredits(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	logger := slog.Default().With("tool", "estimate_credits")

	// Parse input
	var input EstimateCreditsInput
	inputJSON, err := json.Marshal(req.Params.Arguments)
	if err != nil {
		logger.Error("failed to marshal input", "error", err)
		return core.NewError(core.ErrInvalidInput, "Invalid input format").ToMCPResult(), nil
	}

	if err := json.Unmarshal(inputJSON, &input); err != nil {
		logger.Error("failed to parse input", "error", err)
		return core.NewError(core.ErrInvalidInput, "Invalid input format").ToMCPResult(), nil
	}

	if err := core.ValidateEmission(input.EmissionKg); err != nil {
		logger.Error("invalid emission", "error", err)
		return core.NewError(core.ErrInvalidEmission, err.Error()).ToMCPResult(), nil
	}

	credits, err := r.engine.CarbonCredits(input.EmissionKg)
	if err != nil {
		logger.Error("credit conversion failed", "error", err)
		return core.NewError(core.ErrInternalError, "Credit conversion failed").ToMCPResult(), nil
	}

	price, err := r.engine.CreditPrice(credits)
	if err != nil {
		logger.Error("credit pricing failed", "error", err)
		return core.NewError(core.ErrInternalError, "Credit pricing failed").ToMCPResult(), nil
	}

	output := EstimateCreditsOutput{
		EmissionKg: input.EmissionKg,
		Credits:    credits,
		Price:      price,
	}
	return marshalResult(output, logger), nil
}
