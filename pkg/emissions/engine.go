// Package emissions computes trip CO2 emissions, cross-mode comparisons and
// carbon-credit cost estimates. Every operation is a pure function of its
// inputs and the engine configuration; nothing is cached or mutated, so an
// Engine is safe for concurrent use.
package emissions

import (
	"errors"
	"fmt"
	"math"
	"sort"
)

// Sentinel errors returned by the engine.
var (
	// ErrUnknownMode is returned when a mode identifier is not present in
	// the factor table. An unknown mode is never coerced to a zero emission,
	// since that would silently corrupt comparisons and credit pricing.
	ErrUnknownMode = errors.New("unknown transport mode")

	// ErrInvalidDistance is returned for negative distances.
	ErrInvalidDistance = errors.New("distance must not be negative")

	// ErrInvalidEmission is returned for negative emission inputs.
	ErrInvalidEmission = errors.New("emission must not be negative")

	// ErrInvalidCredits is returned for negative credit amounts.
	ErrInvalidCredits = errors.New("credits must not be negative")
)

// ModeResult is the per-mode outcome of a comparison request.
type ModeResult struct {
	Mode            Mode    `json:"mode"`
	EmissionKg      float64 `json:"emission_kg"`
	PercentageVsCar float64 `json:"percentage_vs_car"`
}

// SavingsResult describes how much a mode saves against the baseline.
// SavedKg is negative when the mode emits more than the baseline; that is
// valid output, not an error.
type SavingsResult struct {
	SavedKg    float64 `json:"saved_kg"`
	Percentage float64 `json:"percentage"`
}

// CreditPriceEstimate is the price range for a credit amount. Average is
// derived from the rounded min and max, not from unrounded intermediates.
type CreditPriceEstimate struct {
	Min     float64 `json:"min"`
	Max     float64 `json:"max"`
	Average float64 `json:"average"`
}

// Engine performs all numeric derivations from a distance and a mode.
type Engine struct {
	cfg Config
}

// NewEngine validates the configuration and returns an engine.
func NewEngine(cfg Config) (*Engine, error) {
	if len(cfg.Factors) == 0 {
		return nil, errors.New("emissions: factor table is empty")
	}
	seen := make(map[Mode]bool, len(cfg.Factors))
	for _, f := range cfg.Factors {
		if f.KgPerKm < 0 {
			return nil, fmt.Errorf("emissions: negative factor for mode %q", f.Mode)
		}
		if seen[f.Mode] {
			return nil, fmt.Errorf("emissions: duplicate mode %q in factor table", f.Mode)
		}
		seen[f.Mode] = true
	}
	if !seen[cfg.Baseline] {
		return nil, fmt.Errorf("emissions: baseline mode %q not in factor table", cfg.Baseline)
	}
	if cfg.Credits.KgPerCredit <= 0 {
		return nil, errors.New("emissions: kg per credit must be positive")
	}
	if cfg.Credits.PriceMinCredit > cfg.Credits.PriceMaxCredit {
		return nil, errors.New("emissions: min credit price exceeds max")
	}
	return &Engine{cfg: cfg}, nil
}

// Config returns the engine configuration.
func (e *Engine) Config() Config {
	return e.cfg
}

// factor looks up the emission factor for a mode.
func (e *Engine) factor(mode Mode) (float64, error) {
	for _, f := range e.cfg.Factors {
		if f.Mode == mode {
			return f.KgPerKm, nil
		}
	}
	return 0, fmt.Errorf("%w: %q", ErrUnknownMode, mode)
}

// Emission returns the CO2 emission in kg for traveling distanceKm with the
// given mode, rounded to 2 decimals. Negative distances are rejected rather
// than clamped.
func (e *Engine) Emission(distanceKm float64, mode Mode) (float64, error) {
	if distanceKm < 0 {
		return 0, fmt.Errorf("%w: %g", ErrInvalidDistance, distanceKm)
	}
	f, err := e.factor(mode)
	if err != nil {
		return 0, err
	}
	return round2(distanceKm * f), nil
}

// AllModes computes one ModeResult per configured mode and returns them
// sorted ascending by emission. The sort is stable, so modes with equal
// emissions keep their factor-table declaration order. When the baseline
// emission is zero (distance 0), every percentage is defined as 0 rather
// than dividing by zero.
func (e *Engine) AllModes(distanceKm float64) ([]ModeResult, error) {
	if distanceKm < 0 {
		return nil, fmt.Errorf("%w: %g", ErrInvalidDistance, distanceKm)
	}
	baseline, err := e.Emission(distanceKm, e.cfg.Baseline)
	if err != nil {
		return nil, err
	}

	results := make([]ModeResult, 0, len(e.cfg.Factors))
	for _, f := range e.cfg.Factors {
		emission := round2(distanceKm * f.KgPerKm)
		pct := 0.0
		if baseline > 0 {
			pct = round2(emission / baseline * 100)
		}
		results = append(results, ModeResult{
			Mode:            f.Mode,
			EmissionKg:      emission,
			PercentageVsCar: pct,
		})
	}

	sort.SliceStable(results, func(i, j int) bool {
		return results[i].EmissionKg < results[j].EmissionKg
	})
	return results, nil
}

// Savings compares an emission against a baseline emission. A zero or
// negative baseline yields a 0 percentage.
func (e *Engine) Savings(emissionKg, baselineKg float64) SavingsResult {
	saved := round2(baselineKg - emissionKg)
	pct := 0.0
	if baselineKg > 0 {
		pct = round2(saved / baselineKg * 100)
	}
	return SavingsResult{SavedKg: saved, Percentage: pct}
}

// CarbonCredits converts an emission in kg to carbon credits, rounded to
// 4 decimals.
func (e *Engine) CarbonCredits(emissionKg float64) (float64, error) {
	if emissionKg < 0 {
		return 0, fmt.Errorf("%w: %g", ErrInvalidEmission, emissionKg)
	}
	return round4(emissionKg / e.cfg.Credits.KgPerCredit), nil
}

// CreditPrice estimates the offsetting cost for a credit amount.
func (e *Engine) CreditPrice(credits float64) (CreditPriceEstimate, error) {
	if credits < 0 {
		return CreditPriceEstimate{}, fmt.Errorf("%w: %g", ErrInvalidCredits, credits)
	}
	min := round2(credits * e.cfg.Credits.PriceMinCredit)
	max := round2(credits * e.cfg.Credits.PriceMaxCredit)
	return CreditPriceEstimate{
		Min:     min,
		Max:     max,
		Average: round2((min + max) / 2),
	}, nil
}

// round2 and round4 round half away from zero, the single rounding rule used
// at every rounding site in the engine.
func round2(v float64) float64 {
	return math.Round(v*100) / 100
}

func round4(v float64) float64 {
	return math.Round(v*10000) / 10000
}
