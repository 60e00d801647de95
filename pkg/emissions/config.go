package emissions

// Mode identifies a transport mode in the factor table.
type Mode string

// Supported transport modes.
const (
	ModeBicycle Mode = "bicycle"
	ModeCar     Mode = "car"
	ModeBus     Mode = "bus"
	ModeTruck   Mode = "truck"
)

// Per-mode CO2 emission factors in kg per km.
//
// The car figure matches the commonly used average passenger vehicle value;
// bus and truck figures are per-vehicle-km averages for urban diesel fleets.
const (
	BicycleCO2PerKm = 0.0   // No direct emissions
	CarCO2PerKm     = 0.12  // Average car
	BusCO2PerKm     = 0.089 // Urban diesel bus
	TruckCO2PerKm   = 0.249 // Light/medium freight truck
)

// Carbon credit defaults: one credit covers 1000 kg of CO2, priced on the
// voluntary market somewhere between the min and max per-credit figures.
const (
	DefaultKgPerCredit    = 1000.0
	DefaultPriceMinCredit = 50.0
	DefaultPriceMaxCredit = 150.0
)

// ModeFactor binds a transport mode to its emission factor.
// The factor table is an ordered slice rather than a map so that the
// declaration order is preserved for iteration and tie-breaking.
type ModeFactor struct {
	Mode    Mode
	KgPerKm float64
}

// CreditConfig holds the carbon-credit conversion and pricing constants.
type CreditConfig struct {
	KgPerCredit    float64
	PriceMinCredit float64
	PriceMaxCredit float64
}

// Config is the full engine configuration. It is an immutable value supplied
// at construction; the engine never loads configuration from the environment.
type Config struct {
	Factors  []ModeFactor
	Baseline Mode
	Credits  CreditConfig
}

// DefaultConfig returns the static production configuration.
func DefaultConfig() Config {
	return Config{
		Factors: []ModeFactor{
			{Mode: ModeBicycle, KgPerKm: BicycleCO2PerKm},
			{Mode: ModeCar, KgPerKm: CarCO2PerKm},
			{Mode: ModeBus, KgPerKm: BusCO2PerKm},
			{Mode: ModeTruck, KgPerKm: TruckCO2PerKm},
		},
		Baseline: ModeCar,
		Credits: CreditConfig{
			KgPerCredit:    DefaultKgPerCredit,
			PriceMinCredit: DefaultPriceMinCredit,
			PriceMaxCredit: DefaultPriceMaxCredit,
		},
	}
}

// Modes returns the configured mode identifiers in declaration order.
func (c Config) Modes() []Mode {
	modes := make([]Mode, len(c.Factors))
	for i, f := range c.Factors {
		modes[i] = f.Mode
	}
	return modes
}
