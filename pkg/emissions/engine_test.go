package emissions

import (
	"errors"
	"math"
	"testing"
)

func newTestEngine(t *testing.T) *Engine {
	t.Helper()
	e, err := NewEngine(DefaultConfig())
	if err != nil {
		t.Fatalf("NewEngine() error = %v", err)
	}
	return e
}

func TestEmission(t *testing.T) {
	e := newTestEngine(t)

	tests := []struct {
		name       string
		distanceKm float64
		mode       Mode
		want       float64
		wantErr    error
	}{
		{name: "car 430km", distanceKm: 430, mode: ModeCar, want: 51.6},
		{name: "bicycle is zero", distanceKm: 430, mode: ModeBicycle, want: 0},
		{name: "bus 430km", distanceKm: 430, mode: ModeBus, want: 38.27},
		{name: "truck 430km", distanceKm: 430, mode: ModeTruck, want: 107.07},
		{name: "zero distance", distanceKm: 0, mode: ModeCar, want: 0},
		{name: "unknown mode", distanceKm: 10, mode: Mode("jetpack"), wantErr: ErrUnknownMode},
		{name: "negative distance rejected", distanceKm: -1, mode: ModeCar, wantErr: ErrInvalidDistance},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := e.Emission(tt.distanceKm, tt.mode)
			if tt.wantErr != nil {
				if !errors.Is(err, tt.wantErr) {
					t.Fatalf("Emission() error = %v, want %v", err, tt.wantErr)
				}
				return
			}
			if err != nil {
				t.Fatalf("Emission() error = %v", err)
			}
			if got != tt.want {
				t.Errorf("Emission() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestEmissionNeverSilentZeroOnUnknownMode(t *testing.T) {
	e := newTestEngine(t)

	// The error must be explicit; a silent zero would corrupt downstream
	// comparisons and credit pricing without warning.
	if _, err := e.Emission(100, Mode("hoverboard")); err == nil {
		t.Fatal("Emission() with unknown mode: expected error, got nil")
	}
}

func TestAllModes(t *testing.T) {
	e := newTestEngine(t)

	results, err := e.AllModes(430)
	if err != nil {
		t.Fatalf("AllModes() error = %v", err)
	}
	if len(results) != 4 {
		t.Fatalf("AllModes() returned %d results, want 4", len(results))
	}

	// Ascending by emission.
	for i := 1; i < len(results); i++ {
		if results[i].EmissionKg < results[i-1].EmissionKg {
			t.Errorf("results not sorted: %v before %v", results[i-1], results[i])
		}
	}

	if results[0].Mode != ModeBicycle || results[0].EmissionKg != 0 {
		t.Errorf("first result = %+v, want bicycle at 0", results[0])
	}

	var car ModeResult
	for _, r := range results {
		if r.Mode == ModeCar {
			car = r
		}
	}
	if car.EmissionKg != 51.6 {
		t.Errorf("car emission = %v, want 51.6", car.EmissionKg)
	}
	if car.PercentageVsCar != 100 {
		t.Errorf("car percentage = %v, want exactly 100", car.PercentageVsCar)
	}
}

func TestAllModesZeroDistance(t *testing.T) {
	e := newTestEngine(t)

	results, err := e.AllModes(0)
	if err != nil {
		t.Fatalf("AllModes(0) error = %v", err)
	}
	for _, r := range results {
		if r.PercentageVsCar != 0 {
			t.Errorf("mode %s percentage = %v, want 0 for zero baseline", r.Mode, r.PercentageVsCar)
		}
	}
}

func TestAllModesStableTieBreak(t *testing.T) {
	cfg := DefaultConfig()
	// Walking shares the bicycle factor; declaration order must decide.
	cfg.Factors = append(cfg.Factors, ModeFactor{Mode: Mode("walking"), KgPerKm: 0})
	e, err := NewEngine(cfg)
	if err != nil {
		t.Fatalf("NewEngine() error = %v", err)
	}

	results, err := e.AllModes(100)
	if err != nil {
		t.Fatalf("AllModes() error = %v", err)
	}
	if results[0].Mode != ModeBicycle || results[1].Mode != Mode("walking") {
		t.Errorf("tie not broken by declaration order: got %s, %s", results[0].Mode, results[1].Mode)
	}
}

func TestSavings(t *testing.T) {
	e := newTestEngine(t)

	tests := []struct {
		name           string
		emission       float64
		baseline       float64
		wantSaved      float64
		wantPercentage float64
	}{
		{name: "bus vs car at 430km", emission: 38.27, baseline: 51.6, wantSaved: 13.33, wantPercentage: 25.83},
		{name: "bicycle vs car", emission: 0, baseline: 51.6, wantSaved: 51.6, wantPercentage: 100},
		{name: "negative savings allowed", emission: 107.07, baseline: 51.6, wantSaved: -55.47, wantPercentage: -107.5},
		{name: "zero baseline", emission: 10, baseline: 0, wantSaved: -10, wantPercentage: 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := e.Savings(tt.emission, tt.baseline)
			if got.SavedKg != tt.wantSaved {
				t.Errorf("SavedKg = %v, want %v", got.SavedKg, tt.wantSaved)
			}
			if got.Percentage != tt.wantPercentage {
				t.Errorf("Percentage = %v, want %v", got.Percentage, tt.wantPercentage)
			}
		})
	}
}

func TestCarbonCredits(t *testing.T) {
	e := newTestEngine(t)

	credits, err := e.CarbonCredits(1000)
	if err != nil {
		t.Fatalf("CarbonCredits() error = %v", err)
	}
	if credits != 1.0 {
		t.Errorf("CarbonCredits(1000) = %v, want 1.0", credits)
	}

	credits, err = e.CarbonCredits(51.6)
	if err != nil {
		t.Fatalf("CarbonCredits() error = %v", err)
	}
	if credits != 0.0516 {
		t.Errorf("CarbonCredits(51.6) = %v, want 0.0516", credits)
	}

	if _, err := e.CarbonCredits(-1); !errors.Is(err, ErrInvalidEmission) {
		t.Errorf("CarbonCredits(-1) error = %v, want ErrInvalidEmission", err)
	}
}

func TestCreditPrice(t *testing.T) {
	e := newTestEngine(t)

	price, err := e.CreditPrice(1.0)
	if err != nil {
		t.Fatalf("CreditPrice() error = %v", err)
	}
	want := CreditPriceEstimate{Min: 50, Max: 150, Average: 100}
	if price != want {
		t.Errorf("CreditPrice(1.0) = %+v, want %+v", price, want)
	}

	if _, err := e.CreditPrice(-0.5); !errors.Is(err, ErrInvalidCredits) {
		t.Errorf("CreditPrice(-0.5) error = %v, want ErrInvalidCredits", err)
	}
}

func TestCreditPriceAverageUsesRoundedBounds(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Credits.PriceMinCredit = 33.335
	cfg.Credits.PriceMaxCredit = 66.665
	e, err := NewEngine(cfg)
	if err != nil {
		t.Fatalf("NewEngine() error = %v", err)
	}

	price, err := e.CreditPrice(1.0)
	if err != nil {
		t.Fatalf("CreditPrice() error = %v", err)
	}
	// min rounds to 33.34 (half away from zero), max to 66.67; the average
	// must come from those rounded bounds.
	if got := round2((price.Min + price.Max) / 2); price.Average != got {
		t.Errorf("Average = %v, want %v from rounded bounds", price.Average, got)
	}
}

func TestEngineIsPure(t *testing.T) {
	e := newTestEngine(t)

	for i := 0; i < 3; i++ {
		first, err := e.AllModes(123.45)
		if err != nil {
			t.Fatalf("AllModes() error = %v", err)
		}
		second, err := e.AllModes(123.45)
		if err != nil {
			t.Fatalf("AllModes() error = %v", err)
		}
		for j := range first {
			if first[j] != second[j] {
				t.Fatalf("AllModes() not idempotent: %+v != %+v", first[j], second[j])
			}
		}
	}
}

func TestRoundingHalfAwayFromZero(t *testing.T) {
	tests := []struct {
		in   float64
		want float64
	}{
		{2.675, 2.68},
		{-2.675, -2.68},
		{2.674, 2.67},
		{0.005, 0.01},
	}
	for _, tt := range tests {
		if got := round2(tt.in); math.Abs(got-tt.want) > 1e-9 {
			t.Errorf("round2(%v) = %v, want %v", tt.in, got, tt.want)
		}
	}
}

func TestNewEngineValidation(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config)
	}{
		{name: "empty factor table", mutate: func(c *Config) { c.Factors = nil }},
		{name: "negative factor", mutate: func(c *Config) { c.Factors[1].KgPerKm = -0.1 }},
		{name: "duplicate mode", mutate: func(c *Config) { c.Factors = append(c.Factors, ModeFactor{Mode: ModeCar, KgPerKm: 0.2}) }},
		{name: "baseline missing", mutate: func(c *Config) { c.Baseline = Mode("sled") }},
		{name: "non-positive kg per credit", mutate: func(c *Config) { c.Credits.KgPerCredit = 0 }},
		{name: "min price above max", mutate: func(c *Config) { c.Credits.PriceMinCredit = 200 }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := DefaultConfig()
			tt.mutate(&cfg)
			if _, err := NewEngine(cfg); err == nil {
				t.Error("NewEngine() expected error, got nil")
			}
		})
	}
}
