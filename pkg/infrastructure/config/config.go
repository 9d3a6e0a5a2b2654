// Package config loads the season scenario from YAML with environment overrides.
package config

import (
	"fmt"
	"path/filepath"

	"github.com/ilyakaznacheev/cleanenv"

	"github.com/vsinha/dualsource/pkg/domain/entities"
)

// Config holds everything needed to run one optimization.
// Load starts from Default(); the scenario file overrides it and environment
// variables override both. An explicit zero in the file is kept.
type Config struct {
	Financial FinancialConfig `yaml:"financial"`
	Demand    DemandConfig    `yaml:"demand"`

	// Suppliers may be listed inline or loaded from a CSV file. The built-in
	// four-supplier season is used when neither is given.
	Suppliers    []SupplierConfig `yaml:"suppliers"`
	SuppliersCSV string           `yaml:"suppliers_csv" env:"DUALSOURCE_SUPPLIERS_CSV"`

	Pairing    PairingConfig    `yaml:"pairing"`
	Simulation SimulationConfig `yaml:"simulation"`
	Optimizer  OptimizerConfig  `yaml:"optimizer"`
	Screening  ScreeningConfig  `yaml:"screening"`

	// Database configuration (PostgreSQL, optional)
	Database DatabaseConfig `yaml:"-"`
}

// FinancialConfig holds the season's money constants.
type FinancialConfig struct {
	SellingPrice       float64 `yaml:"selling_price" env:"DUALSOURCE_SELLING_PRICE"`
	MonthlyHoldingCost float64 `yaml:"monthly_holding_cost" env:"DUALSOURCE_MONTHLY_HOLDING_COST"`
	LiquidationPrice   float64 `yaml:"liquidation_price" env:"DUALSOURCE_LIQUIDATION_PRICE"`
	OrderChangeFee     float64 `yaml:"order_change_fee" env:"DUALSOURCE_ORDER_CHANGE_FEE"`
	// HoldingMonths is how long leftover inventory is held before liquidation.
	HoldingMonths float64 `yaml:"holding_months" env:"DUALSOURCE_HOLDING_MONTHS"`
}

// DemandConfig holds the planning-time and realized demand distributions.
type DemandConfig struct {
	PlanningMean   float64 `yaml:"planning_mean" env:"DUALSOURCE_PLANNING_MEAN"`
	PlanningStdDev float64 `yaml:"planning_std_dev" env:"DUALSOURCE_PLANNING_STD_DEV"`
	RealizedMean   float64 `yaml:"realized_mean" env:"DUALSOURCE_REALIZED_MEAN"`
	RealizedStdDev float64 `yaml:"realized_std_dev" env:"DUALSOURCE_REALIZED_STD_DEV"`
	// OutlierCapSigma caps draws at mean + sigma*std. Zero disables the cap.
	OutlierCapSigma float64 `yaml:"outlier_cap_sigma" env:"DUALSOURCE_OUTLIER_CAP_SIGMA"`
}

// SupplierConfig is one supplier entry in the scenario file.
type SupplierConfig struct {
	Name           string  `yaml:"name"`
	Capacity       int64   `yaml:"capacity"`
	LeadTimeMonths int     `yaml:"lead_time_months"`
	UnitCost       float64 `yaml:"unit_cost"`
	SetupCost      float64 `yaml:"setup_cost"`
}

// PairingConfig controls the base/surge partition.
type PairingConfig struct {
	LeadTimeThreshold int `yaml:"lead_time_threshold" env:"DUALSOURCE_LEAD_TIME_THRESHOLD"`
}

// SimulationConfig holds the Monte Carlo settings.
type SimulationConfig struct {
	// NumSimulations is the sample count of the final pass on each pair's best plan.
	NumSimulations int `yaml:"num_simulations" env:"DUALSOURCE_NUM_SIMULATIONS"`
	// SearchSimulations is the sample count of every estimate made during search.
	SearchSimulations int   `yaml:"search_simulations" env:"DUALSOURCE_SEARCH_SIMULATIONS"`
	Seed              int64 `yaml:"seed" env:"DUALSOURCE_SEED"`
	// Workers bounds concurrency; zero uses GOMAXPROCS.
	Workers int `yaml:"workers" env:"DUALSOURCE_WORKERS"`
}

// OptimizerConfig holds the gradient ascent tuning.
type OptimizerConfig struct {
	LearningRate    float64 `yaml:"learning_rate" env:"DUALSOURCE_LEARNING_RATE"`
	Epsilon         float64 `yaml:"epsilon" env:"DUALSOURCE_EPSILON"`
	Tolerance       float64 `yaml:"tolerance" env:"DUALSOURCE_TOLERANCE"`
	MaxIterations   int     `yaml:"max_iterations" env:"DUALSOURCE_MAX_ITERATIONS"`
	StallIterations int     `yaml:"stall_iterations" env:"DUALSOURCE_STALL_ITERATIONS"`
	MinImprovement  float64 `yaml:"min_improvement" env:"DUALSOURCE_MIN_IMPROVEMENT"`
	StepDecay       float64 `yaml:"step_decay" env:"DUALSOURCE_STEP_DECAY"`
	// StartStrategy is "midpoint" or "forecast".
	StartStrategy string `yaml:"start_strategy" env:"DUALSOURCE_START_STRATEGY"`
}

// ScreeningConfig controls the quick pre-screen of supplier pairs.
type ScreeningConfig struct {
	Enabled          bool    `yaml:"enabled" env:"DUALSOURCE_SCREENING_ENABLED"`
	MinProfit        float64 `yaml:"min_profit" env:"DUALSOURCE_SCREENING_MIN_PROFIT"`
	MinCapacityRatio float64 `yaml:"min_capacity_ratio" env:"DUALSOURCE_SCREENING_MIN_CAPACITY_RATIO"`
	Draws            int     `yaml:"draws" env:"DUALSOURCE_SCREENING_DRAWS"`
}

// DatabaseConfig holds the optional run history database.
// The URL is a secret and only comes from the environment.
type DatabaseConfig struct {
	URL string `env:"DATABASE_URL"`
}

// Enabled reports whether a database URL was provided.
func (d DatabaseConfig) Enabled() bool {
	return d.URL != ""
}

// Load reads the scenario at path with environment overrides. An empty path
// uses defaults and environment variables only.
func Load(path string) (*Config, error) {
	cfg := Default()
	cfg.Suppliers = nil

	if path == "" {
		if err := cleanenv.ReadEnv(cfg); err != nil {
			return nil, fmt.Errorf("failed to read environment: %w", err)
		}
	} else if err := cleanenv.ReadConfig(path, cfg); err != nil {
		return nil, fmt.Errorf("failed to read %s: %w", path, err)
	}

	// Relative CSV paths are resolved against the scenario file's directory
	if path != "" && cfg.SuppliersCSV != "" && !filepath.IsAbs(cfg.SuppliersCSV) {
		cfg.SuppliersCSV = filepath.Join(filepath.Dir(path), cfg.SuppliersCSV)
	}
	if len(cfg.Suppliers) == 0 && cfg.SuppliersCSV == "" {
		cfg.Suppliers = DefaultSuppliers()
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// LoadDatabase reads only the database settings from the environment.
func LoadDatabase() (DatabaseConfig, error) {
	var db DatabaseConfig
	if err := cleanenv.ReadEnv(&db); err != nil {
		return db, fmt.Errorf("failed to read environment: %w", err)
	}
	return db, nil
}

// Default returns the built-in season scenario.
func Default() *Config {
	return &Config{
		Financial: FinancialConfig{
			SellingPrice:       230,
			MonthlyHoldingCost: 4.6,
			LiquidationPrice:   144,
			OrderChangeFee:     2000000,
			HoldingMonths:      1,
		},
		Demand: DemandConfig{
			PlanningMean:   60000,
			PlanningStdDev: 12000,
			RealizedMean:   53000,
			RealizedStdDev: 12000,
		},
		Suppliers: DefaultSuppliers(),
		Pairing:   PairingConfig{LeadTimeThreshold: 1},
		Simulation: SimulationConfig{
			NumSimulations:    5000,
			SearchSimulations: 500,
			Seed:              42,
		},
		Optimizer: OptimizerConfig{
			LearningRate:    400,
			Epsilon:         100,
			Tolerance:       1,
			MaxIterations:   200,
			StallIterations: 10,
			MinImprovement:  1,
			StepDecay:       0.5,
			StartStrategy:   "midpoint",
		},
		Screening: ScreeningConfig{
			MinCapacityRatio: 0.7,
			Draws:            200,
		},
	}
}

// DefaultSuppliers returns two slow offshore and two fast nearshore suppliers.
func DefaultSuppliers() []SupplierConfig {
	return []SupplierConfig{
		{Name: "FarFarAway", Capacity: 60000, LeadTimeMonths: 4, UnitCost: 160, SetupCost: 1000000},
		{Name: "FarAway", Capacity: 60000, LeadTimeMonths: 3, UnitCost: 160, SetupCost: 2000000},
		{Name: "PrettyClose", Capacity: 35000, LeadTimeMonths: 0, UnitCost: 170, SetupCost: 1000000},
		{Name: "VeryClose", Capacity: 40000, LeadTimeMonths: 0, UnitCost: 170, SetupCost: 2000000},
	}
}

// Validate checks the values that can be checked without loading suppliers.
func (c *Config) Validate() error {
	if err := c.FinancialParams().Validate(); err != nil {
		return err
	}
	if err := c.PlanningDemand().Validate(); err != nil {
		return fmt.Errorf("planning demand: %w", err)
	}
	if err := c.RealizedDemand().Validate(); err != nil {
		return fmt.Errorf("realized demand: %w", err)
	}
	if c.Pairing.LeadTimeThreshold < 0 {
		return fmt.Errorf("%w: lead time threshold cannot be negative, got %d",
			entities.ErrConfiguration, c.Pairing.LeadTimeThreshold)
	}
	if c.Simulation.SearchSimulations <= 0 {
		return fmt.Errorf("%w: search_simulations must be positive, got %d",
			entities.ErrConfiguration, c.Simulation.SearchSimulations)
	}
	if c.Simulation.NumSimulations <= c.Simulation.SearchSimulations {
		return fmt.Errorf("%w: num_simulations (%d) must exceed search_simulations (%d)",
			entities.ErrConfiguration, c.Simulation.NumSimulations, c.Simulation.SearchSimulations)
	}
	if c.Simulation.Workers < 0 {
		return fmt.Errorf("%w: workers cannot be negative, got %d", entities.ErrConfiguration, c.Simulation.Workers)
	}
	return nil
}

// FinancialParams converts the financial section into domain parameters.
func (c *Config) FinancialParams() entities.FinancialParams {
	return entities.FinancialParams{
		SellingPrice:       c.Financial.SellingPrice,
		MonthlyHoldingCost: c.Financial.MonthlyHoldingCost,
		LiquidationPrice:   c.Financial.LiquidationPrice,
		OrderChangeFee:     c.Financial.OrderChangeFee,
		HoldingMonths:      c.Financial.HoldingMonths,
	}
}

// PlanningDemand returns the planning-time demand distribution.
func (c *Config) PlanningDemand() entities.DemandDistribution {
	return entities.DemandDistribution{Mean: c.Demand.PlanningMean, StdDev: c.Demand.PlanningStdDev}
}

// RealizedDemand returns the realized demand distribution.
func (c *Config) RealizedDemand() entities.DemandDistribution {
	return entities.DemandDistribution{Mean: c.Demand.RealizedMean, StdDev: c.Demand.RealizedStdDev}
}

// SupplierEntities validates and converts the inline supplier list.
func (c *Config) SupplierEntities() ([]*entities.Supplier, error) {
	suppliers := make([]*entities.Supplier, 0, len(c.Suppliers))
	for _, s := range c.Suppliers {
		supplier, err := entities.NewSupplier(s.Name, entities.Quantity(s.Capacity), s.LeadTimeMonths, s.UnitCost, s.SetupCost)
		if err != nil {
			return nil, err
		}
		suppliers = append(suppliers, supplier)
	}
	return suppliers, nil
}
