package core

import (
	"fmt"
	"strings"
)

// Validation limits for tool inputs.
const (
	// MaxDistanceKm caps user-supplied distances. Longer trips than a
	// pole-to-pole circumnavigation indicate garbage input.
	MaxDistanceKm = 40075.0

	// MaxPlaceLabelLen caps free-text place labels.
	MaxPlaceLabelLen = 128
)

// ValidateDistance checks that a distance is non-negative and plausible.
func ValidateDistance(distanceKm float64) error {
	if distanceKm < 0 {
		return fmt.Errorf("distance must not be negative, got %g", distanceKm)
	}
	if distanceKm > MaxDistanceKm {
		return fmt.Errorf("distance must be at most %g km, got %g", MaxDistanceKm, distanceKm)
	}
	return nil
}

// ValidateEmission checks that an emission figure is non-negative.
func ValidateEmission(emissionKg float64) error {
	if emissionKg < 0 {
		return fmt.Errorf("emission must not be negative, got %g", emissionKg)
	}
	return nil
}

// ValidatePlaceLabel checks that a place label is non-blank and of sane size.
func ValidatePlaceLabel(name, label string) error {
	if strings.TrimSpace(label) == "" {
		return fmt.Errorf("%s must not be blank", name)
	}
	if len(label) > MaxPlaceLabelLen {
		return fmt.Errorf("%s must be at most %d bytes, got %d", name, MaxPlaceLabelLen, len(label))
	}
	return nil
}
