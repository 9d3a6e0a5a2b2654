package commands

import (
	"context"
	encodingcsv "encoding/csv"
	"fmt"
	"io"
	"math/rand"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/vsinha/dualsource/pkg/domain/entities"
	"github.com/vsinha/dualsource/pkg/domain/services"
	"github.com/vsinha/dualsource/pkg/infrastructure/config"
	"github.com/vsinha/dualsource/pkg/infrastructure/repositories/csv"
)

const (
	generatedSuppliersFile = "suppliers.csv"
	generatedScenarioFile  = "scenario.yaml"
)

// GenerateConfig holds configuration for scenario generation
type GenerateConfig struct {
	Suppliers int    // Total number of suppliers to generate
	OutputDir string // Output directory for generated files
	Seed      int64  // Random seed for reproducible generation
	Help      bool   // Show help
	Verbose   bool   // Verbose output
	Stdout    io.Writer
}

// GenerateCommand writes a synthetic supplier market and a scenario that uses it
type GenerateCommand struct {
	config GenerateConfig
	rand   *rand.Rand
	stdout io.Writer
}

// NewGenerateCommand creates a new generate command
func NewGenerateCommand(cfg GenerateConfig) *GenerateCommand {
	seed := cfg.Seed
	if seed == 0 {
		seed = time.Now().UnixNano()
	}
	stdout := cfg.Stdout
	if stdout == nil {
		stdout = os.Stdout
	}

	return &GenerateCommand{
		config: cfg,
		rand:   rand.New(rand.NewSource(seed)),
		stdout: stdout,
	}
}

// Execute runs the generate command
func (cmd *GenerateCommand) Execute(ctx context.Context) error {
	if cmd.config.Help {
		cmd.printHelp()
		return nil
	}
	if cmd.config.OutputDir == "" {
		return fmt.Errorf("validation error: -output directory is required")
	}
	if cmd.config.Suppliers < 2 {
		return fmt.Errorf("validation error: need at least 2 suppliers to form a pair, got %d", cmd.config.Suppliers)
	}

	if cmd.config.Verbose {
		fmt.Fprintf(cmd.stdout, "Generating %d suppliers into %s\n", cmd.config.Suppliers, cmd.config.OutputDir)
	}

	if err := os.MkdirAll(cmd.config.OutputDir, 0755); err != nil {
		return fmt.Errorf("failed to create output directory: %w", err)
	}

	suppliers := cmd.generateSuppliers()
	if len(services.GeneratePairs(suppliers, services.DefaultLeadTimeThreshold)) == 0 {
		return fmt.Errorf("generated market has no base/surge pairing")
	}

	if err := cmd.writeSuppliers(suppliers); err != nil {
		return fmt.Errorf("failed to generate suppliers: %w", err)
	}
	if err := cmd.writeScenario(); err != nil {
		return fmt.Errorf("failed to generate scenario: %w", err)
	}

	if cmd.config.Verbose {
		fmt.Fprintf(cmd.stdout, "Scenario generated in %s\n", cmd.config.OutputDir)
	}
	return nil
}

// generateSuppliers splits the market into slow offshore suppliers eligible
// as base and fast nearshore suppliers eligible as surge
func (cmd *GenerateCommand) generateSuppliers() []entities.Supplier {
	offshore := (cmd.config.Suppliers + 1) / 2
	suppliers := make([]entities.Supplier, 0, cmd.config.Suppliers)

	for i := 0; i < offshore; i++ {
		suppliers = append(suppliers, entities.Supplier{
			Name:           fmt.Sprintf("Offshore-%02d", i+1),
			Capacity:       entities.Quantity(40000 + 5000*cmd.rand.Intn(7)), // 40k-70k
			LeadTimeMonths: 2 + cmd.rand.Intn(entities.MaxLeadTimeMonths-1),  // 2-4 months
			UnitCost:       float64(150 + cmd.rand.Intn(16)),                 // $150-165
			SetupCost:      float64(500000 * (1 + cmd.rand.Intn(5))),         // $0.5M-2.5M
		})
	}
	for i := offshore; i < cmd.config.Suppliers; i++ {
		suppliers = append(suppliers, entities.Supplier{
			Name:           fmt.Sprintf("Nearshore-%02d", i-offshore+1),
			Capacity:       entities.Quantity(20000 + 5000*cmd.rand.Intn(6)), // 20k-45k
			LeadTimeMonths: 0,
			UnitCost:       float64(165 + cmd.rand.Intn(21)),         // $165-185
			SetupCost:      float64(500000 * (1 + cmd.rand.Intn(4))), // $0.5M-2M
		})
	}
	return suppliers
}

// writeSuppliers creates the suppliers.csv file
func (cmd *GenerateCommand) writeSuppliers(suppliers []entities.Supplier) error {
	file, err := os.Create(filepath.Join(cmd.config.OutputDir, generatedSuppliersFile))
	if err != nil {
		return err
	}
	defer file.Close()

	writer := encodingcsv.NewWriter(file)
	if err := writer.Write(csv.SupplierHeader); err != nil {
		return err
	}
	for _, s := range suppliers {
		if err := writer.Write([]string{
			s.Name,
			strconv.FormatInt(int64(s.Capacity), 10),
			strconv.Itoa(s.LeadTimeMonths),
			strconv.FormatFloat(s.UnitCost, 'f', -1, 64),
			strconv.FormatFloat(s.SetupCost, 'f', -1, 64),
		}); err != nil {
			return err
		}
	}
	writer.Flush()
	return writer.Error()
}

// writeScenario creates scenario.yaml with the default season pointing at suppliers.csv
func (cmd *GenerateCommand) writeScenario() error {
	scenario := config.Default()
	scenario.Suppliers = nil
	scenario.SuppliersCSV = generatedSuppliersFile

	data, err := yaml.Marshal(scenario)
	if err != nil {
		return err
	}
	return os.WriteFile(filepath.Join(cmd.config.OutputDir, generatedScenarioFile), data, 0644)
}

// printHelp shows usage information
func (cmd *GenerateCommand) printHelp() {
	fmt.Fprintln(cmd.stdout, `Dual-Source Scenario Generator

USAGE:
    dualsource generate [OPTIONS]

OPTIONS:
    -suppliers <N>      Number of suppliers to generate (default: 6)
    -output <DIR>       Output directory for generated files (required)
    -seed <N>           Random seed for reproducible generation (optional)
    -verbose            Enable verbose output
    -help               Show this help message

Half of the suppliers (rounded up) are slow offshore suppliers that can act
as base; the rest are fast nearshore suppliers that can act as surge.

EXAMPLES:
    # Generate a reproducible eight-supplier market
    dualsource generate -suppliers 8 -output ./market -seed 12345

    # Optimize it
    dualsource -config ./market/scenario.yaml`)
}
