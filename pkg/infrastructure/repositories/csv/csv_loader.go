package csv

import (
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"github.com/shopspring/decimal"

	"github.com/vsinha/dualsource/pkg/domain/entities"
)

// maxMoneyPlaces is the finest money precision accepted in supplier files
const maxMoneyPlaces = 4

// SupplierHeader is the required column layout of a supplier CSV file
var SupplierHeader = []string{"name", "capacity", "lead_time_months", "unit_cost", "setup_cost"}

// Loader handles loading supplier data from CSV files
type Loader struct{}

// NewLoader creates a new CSV loader
func NewLoader() *Loader {
	return &Loader{}
}

// LoadSuppliers loads suppliers from a CSV file
func (l *Loader) LoadSuppliers(filename string) ([]*entities.Supplier, error) {
	file, err := os.Open(filename)
	if err != nil {
		return nil, fmt.Errorf("failed to open suppliers file %s: %w", filename, err)
	}
	defer file.Close()

	return l.ReadSuppliers(file)
}

// ReadSuppliers parses supplier rows from r. Row numbers in errors count the header as row 1.
func (l *Loader) ReadSuppliers(r io.Reader) ([]*entities.Supplier, error) {
	reader := csv.NewReader(r)
	reader.TrimLeadingSpace = true
	records, err := reader.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("failed to read suppliers CSV: %w", err)
	}

	if len(records) < 2 {
		return nil, fmt.Errorf("suppliers CSV must have header and at least one data row")
	}

	// Validate header
	header := records[0]
	if !validateHeader(header, SupplierHeader) {
		return nil, fmt.Errorf("suppliers CSV header mismatch. Expected: %v, Got: %v", SupplierHeader, header)
	}

	suppliers := make([]*entities.Supplier, 0, len(records)-1)
	for i, record := range records[1:] {
		if len(record) != len(SupplierHeader) {
			return nil, fmt.Errorf("suppliers CSV row %d: expected %d columns, got %d", i+2, len(SupplierHeader), len(record))
		}

		supplier, err := parseSupplier(record)
		if err != nil {
			return nil, fmt.Errorf("suppliers CSV row %d: %w", i+2, err)
		}

		suppliers = append(suppliers, supplier)
	}

	return suppliers, nil
}

func validateHeader(actual, expected []string) bool {
	if len(actual) != len(expected) {
		return false
	}

	for i, col := range expected {
		if strings.ToLower(strings.TrimSpace(actual[i])) != col {
			return false
		}
	}

	return true
}

func parseSupplier(record []string) (*entities.Supplier, error) {
	name := strings.TrimSpace(record[0])

	capacity, err := strconv.ParseInt(strings.TrimSpace(record[1]), 10, 64)
	if err != nil {
		return nil, fmt.Errorf("invalid capacity: %s", record[1])
	}

	leadTime, err := strconv.Atoi(strings.TrimSpace(record[2]))
	if err != nil {
		return nil, fmt.Errorf("invalid lead_time_months: %s", record[2])
	}

	unitCost, err := parseMoney("unit_cost", record[3])
	if err != nil {
		return nil, err
	}

	setupCost, err := parseMoney("setup_cost", record[4])
	if err != nil {
		return nil, err
	}

	return entities.NewSupplier(name, entities.Quantity(capacity), leadTime, unitCost, setupCost)
}

// parseMoney reads an exact decimal amount, allowing thousands separators
func parseMoney(field, raw string) (float64, error) {
	value := strings.ReplaceAll(strings.TrimSpace(raw), "_", "")
	value = strings.ReplaceAll(value, ",", "")
	amount, err := decimal.NewFromString(value)
	if err != nil {
		return 0, fmt.Errorf("invalid %s: %s", field, raw)
	}
	if -amount.Exponent() > maxMoneyPlaces {
		return 0, fmt.Errorf("invalid %s: %s has more than %d decimal places", field, raw, maxMoneyPlaces)
	}
	return amount.InexactFloat64(), nil
}
