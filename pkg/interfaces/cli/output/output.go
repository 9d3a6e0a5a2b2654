package output

import (
	"bytes"
	"encoding/csv"
	"encoding/json"
	"fmt"
	"io"
	"math"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"github.com/shopspring/decimal"
	"gopkg.in/yaml.v3"

	"github.com/vsinha/dualsource/pkg/application/dto"
	"github.com/vsinha/dualsource/pkg/domain/entities"
)

const (
	textFile           = "results.txt"
	jsonFile           = "results.json"
	csvFile            = "results.csv"
	resolvedConfigFile = "resolved_config.yaml"
)

// Config holds configuration for output generation
type Config struct {
	Format    string
	OutputDir string
	Verbose   bool
	// Writer receives the report; defaults to os.Stdout
	Writer io.Writer
	// ResolvedConfig is written as YAML to the output directory when set
	ResolvedConfig interface{}
}

// Generate creates output in the specified format
func Generate(result *dto.RunResult, config Config) error {
	if result == nil || result.Record == nil {
		return fmt.Errorf("no run result to report")
	}
	if config.Writer == nil {
		config.Writer = os.Stdout
	}

	var err error
	switch config.Format {
	case "text", "":
		err = generateTextOutput(result, config)
	case "json":
		err = generateJSONOutput(result, config)
	case "csv":
		err = generateCSVOutput(result, config)
	default:
		return fmt.Errorf("unsupported output format: %s", config.Format)
	}
	if err != nil {
		return err
	}

	return writeResolvedConfig(config)
}

// generateTextOutput prints the ranked combinations and the best one in detail
func generateTextOutput(result *dto.RunResult, config Config) error {
	var buf bytes.Buffer
	WriteText(&buf, result)

	if _, err := config.Writer.Write(buf.Bytes()); err != nil {
		return fmt.Errorf("failed to write report: %w", err)
	}
	return saveFile(config, textFile, buf.Bytes())
}

// WriteText renders the human-readable report
func WriteText(w io.Writer, result *dto.RunResult) {
	record := result.Record
	settings := result.Settings

	fmt.Fprintf(w, "Dual-Source Procurement Results\n")
	fmt.Fprintf(w, "===============================\n\n")
	fmt.Fprintf(w, "Run ID: %s\n", record.ID)
	fmt.Fprintf(w, "Suppliers: %d | Pairs: %d | Optimized: %d | Skipped: %d | Infeasible: %d\n",
		len(result.Suppliers), result.PairCount, len(record.Results), len(record.Skipped), len(record.Infeasible))
	fmt.Fprintf(w, "Simulations: %d final, %d per search estimate | Seed: %d | Start: %s\n",
		settings.FinalSimulations, settings.SearchSimulations, settings.Seed, settings.StartStrategy)
	fmt.Fprintf(w, "Run Time: %v\n\n", result.Duration().Round(time.Millisecond))

	results := result.Results()
	if len(results) == 0 {
		fmt.Fprintf(w, "No feasible strategy: every supplier pair was skipped or infeasible.\n")
		writeFailures(w, record)
		return
	}

	fmt.Fprintf(w, "All Combinations (ranked by mean profit)\n")
	fmt.Fprintf(w, "----------------------------------------\n\n")
	for rank, r := range results {
		summary := r.ProfitDistribution.Summary()
		fmt.Fprintf(w, "%d. %s (%dmo lead) + %s (%dmo lead)\n",
			rank+1, r.Pair.Base.Name, r.Pair.Base.LeadTimeMonths, r.Pair.Surge.Name, r.Pair.Surge.LeadTimeMonths)
		fmt.Fprintf(w, "   Plan: base %s | surge %s -> %s%s\n",
			formatQty(r.BestPlan.BaseQty), formatQty(r.BestPlan.SurgeInitialQty),
			formatQty(r.BestPlan.SurgeAdjustedQty), changeMarker(r.BestPlan))
		fmt.Fprintf(w, "   Mean: %s ± %s | Median: %s | Range: [%s, %s]\n",
			FormatMoney(r.ProfitDistribution.Mean), FormatMoney(r.ProfitDistribution.StdDev),
			FormatMoney(summary.P50), FormatMoney(r.ProfitDistribution.Min), FormatMoney(r.ProfitDistribution.Max))
		fmt.Fprintf(w, "   10th-90th Percentile: [%s, %s] | Option value: %s\n\n",
			FormatMoney(summary.P10), FormatMoney(summary.P90), FormatMoney(r.OptionValue))
	}

	best := results[0]
	summary := best.ProfitDistribution.Summary()
	fmt.Fprintf(w, "Best Supplier Combination\n")
	fmt.Fprintf(w, "-------------------------\n\n")
	fmt.Fprintf(w, "Base Supplier:  %s (%d month lead time, capacity %d)\n",
		best.Pair.Base.Name, best.Pair.Base.LeadTimeMonths, best.Pair.Base.Capacity)
	fmt.Fprintf(w, "Surge Supplier: %s (%d month lead time, capacity %d)\n",
		best.Pair.Surge.Name, best.Pair.Surge.LeadTimeMonths, best.Pair.Surge.Capacity)
	fmt.Fprintf(w, "Base Order:             %s\n", formatQty(best.BestPlan.BaseQty))
	fmt.Fprintf(w, "Surge Order (initial):  %s\n", formatQty(best.BestPlan.SurgeInitialQty))
	fmt.Fprintf(w, "Surge Order (adjusted): %s\n", formatQty(best.BestPlan.SurgeAdjustedQty))
	if best.BestPlan.ExercisesChange() {
		fmt.Fprintf(w, "Order change fee applies: %s\n", FormatMoney(settings.Financial.OrderChangeFee))
	}
	fmt.Fprintf(w, "Search: %d iterations, %s\n\n", best.IterationsRun, best.Termination)

	fmt.Fprintf(w, "Expected Profit: %s ± %s (std dev)\n",
		FormatMoney(best.ProfitDistribution.Mean), FormatMoney(best.ProfitDistribution.StdDev))
	fmt.Fprintf(w, "Surge Option Value: %s\n", FormatMoney(best.OptionValue))
	fmt.Fprintf(w, "\nProfit Distribution:\n")
	fmt.Fprintf(w, "  Minimum:          %s\n", FormatMoney(best.ProfitDistribution.Min))
	fmt.Fprintf(w, "  10th Percentile:  %s\n", FormatMoney(summary.P10))
	fmt.Fprintf(w, "  25th Percentile:  %s\n", FormatMoney(summary.P25))
	fmt.Fprintf(w, "  Median (50th):    %s\n", FormatMoney(summary.P50))
	fmt.Fprintf(w, "  75th Percentile:  %s\n", FormatMoney(summary.P75))
	fmt.Fprintf(w, "  90th Percentile:  %s\n", FormatMoney(summary.P90))
	fmt.Fprintf(w, "  Maximum:          %s\n", FormatMoney(best.ProfitDistribution.Max))

	writeFailures(w, record)
}

func writeFailures(w io.Writer, record *entities.RunRecord) {
	if len(record.Skipped) > 0 {
		fmt.Fprintf(w, "\nSkipped Pairs:\n")
		for _, f := range record.Skipped {
			fmt.Fprintf(w, "  %s: %s\n", f.Pair.Key(), f.Reason)
		}
	}
	if len(record.Infeasible) > 0 {
		fmt.Fprintf(w, "\nInfeasible Pairs:\n")
		for _, f := range record.Infeasible {
			fmt.Fprintf(w, "  %s: %s\n", f.Pair.Key(), f.Reason)
		}
	}
}

type jsonSupplier struct {
	Name           string  `json:"name"`
	Capacity       int64   `json:"capacity"`
	LeadTimeMonths int     `json:"lead_time_months"`
	UnitCost       float64 `json:"unit_cost"`
	SetupCost      float64 `json:"setup_cost"`
}

type jsonProfit struct {
	Mean        float64 `json:"mean"`
	StdDev      float64 `json:"std_dev"`
	Min         float64 `json:"min"`
	Max         float64 `json:"max"`
	P10         float64 `json:"p10"`
	P25         float64 `json:"p25"`
	P50         float64 `json:"p50"`
	P75         float64 `json:"p75"`
	P90         float64 `json:"p90"`
	SampleCount int     `json:"sample_count"`
}

type jsonResult struct {
	Rank             int                        `json:"rank"`
	Base             jsonSupplier               `json:"base"`
	Surge            jsonSupplier               `json:"surge"`
	Plan             entities.OrderPlan         `json:"plan"`
	ChangeExercised  bool                       `json:"change_exercised"`
	Profit           jsonProfit                 `json:"profit"`
	OptionValue      float64                    `json:"option_value"`
	SearchMeanProfit float64                    `json:"search_mean_profit"`
	Iterations       int                        `json:"iterations"`
	Termination      entities.TerminationReason `json:"termination"`
}

type jsonFailure struct {
	Pair   string `json:"pair"`
	Reason string `json:"reason"`
}

type jsonReport struct {
	RunID             string                   `json:"run_id"`
	StartedAt         time.Time                `json:"started_at"`
	DurationMS        int64                    `json:"duration_ms"`
	Feasible          bool                     `json:"feasible"`
	Financial         entities.FinancialParams `json:"financial"`
	LeadTimeThreshold int                      `json:"lead_time_threshold"`
	SearchSimulations int                      `json:"search_simulations"`
	FinalSimulations  int                      `json:"final_simulations"`
	Seed              int64                    `json:"seed"`
	StartStrategy     string                   `json:"start_strategy"`
	PairCount         int                      `json:"pair_count"`
	Results           []jsonResult             `json:"results"`
	Skipped           []jsonFailure            `json:"skipped"`
	Infeasible        []jsonFailure            `json:"infeasible"`
}

func buildJSONReport(result *dto.RunResult) jsonReport {
	record := result.Record
	settings := result.Settings
	report := jsonReport{
		RunID:             record.ID.String(),
		StartedAt:         record.StartedAt,
		DurationMS:        result.Duration().Milliseconds(),
		Feasible:          len(record.Results) > 0,
		Financial:         settings.Financial,
		LeadTimeThreshold: settings.LeadTimeThreshold,
		SearchSimulations: settings.SearchSimulations,
		FinalSimulations:  settings.FinalSimulations,
		Seed:              settings.Seed,
		StartStrategy:     settings.StartStrategy,
		PairCount:         result.PairCount,
		Results:           make([]jsonResult, 0, len(record.Results)),
		Skipped:           toJSONFailures(record.Skipped),
		Infeasible:        toJSONFailures(record.Infeasible),
	}

	for i, r := range record.Results {
		summary := r.ProfitDistribution.Summary()
		report.Results = append(report.Results, jsonResult{
			Rank:            i + 1,
			Base:            toJSONSupplier(r.Pair.Base),
			Surge:           toJSONSupplier(r.Pair.Surge),
			Plan:            r.BestPlan,
			ChangeExercised: r.BestPlan.ExercisesChange(),
			Profit: jsonProfit{
				Mean:        RoundMoney(r.ProfitDistribution.Mean),
				StdDev:      RoundMoney(r.ProfitDistribution.StdDev),
				Min:         RoundMoney(r.ProfitDistribution.Min),
				Max:         RoundMoney(r.ProfitDistribution.Max),
				P10:         RoundMoney(summary.P10),
				P25:         RoundMoney(summary.P25),
				P50:         RoundMoney(summary.P50),
				P75:         RoundMoney(summary.P75),
				P90:         RoundMoney(summary.P90),
				SampleCount: r.ProfitDistribution.SampleCount,
			},
			OptionValue:      RoundMoney(r.OptionValue),
			SearchMeanProfit: RoundMoney(r.SearchMeanProfit),
			Iterations:       r.IterationsRun,
			Termination:      r.Termination,
		})
	}
	return report
}

func toJSONSupplier(s entities.Supplier) jsonSupplier {
	return jsonSupplier{
		Name:           s.Name,
		Capacity:       int64(s.Capacity),
		LeadTimeMonths: s.LeadTimeMonths,
		UnitCost:       s.UnitCost,
		SetupCost:      s.SetupCost,
	}
}

func toJSONFailures(failures []entities.PairFailure) []jsonFailure {
	out := make([]jsonFailure, 0, len(failures))
	for _, f := range failures {
		out = append(out, jsonFailure{Pair: f.Pair.Key(), Reason: f.Reason})
	}
	return out
}

// generateJSONOutput creates JSON output
func generateJSONOutput(result *dto.RunResult, config Config) error {
	jsonData, err := json.MarshalIndent(buildJSONReport(result), "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal JSON: %w", err)
	}

	if config.OutputDir == "" {
		fmt.Fprintln(config.Writer, string(jsonData))
		return nil
	}
	return saveFile(config, jsonFile, jsonData)
}

var csvHeader = []string{
	"rank", "base_supplier", "surge_supplier",
	"base_qty", "surge_initial_qty", "surge_adjusted_qty", "change_exercised",
	"mean_profit", "std_dev", "min", "p10", "p25", "p50", "p75", "p90", "max",
	"option_value", "iterations", "termination",
}

// generateCSVOutput writes one row per ranked combination
func generateCSVOutput(result *dto.RunResult, config Config) error {
	var buf bytes.Buffer
	writer := csv.NewWriter(&buf)
	if err := writer.Write(csvHeader); err != nil {
		return fmt.Errorf("failed to write CSV header: %w", err)
	}

	for i, r := range result.Results() {
		d := r.ProfitDistribution
		summary := d.Summary()
		row := []string{
			strconv.Itoa(i + 1),
			r.Pair.Base.Name,
			r.Pair.Surge.Name,
			formatQty(r.BestPlan.BaseQty),
			formatQty(r.BestPlan.SurgeInitialQty),
			formatQty(r.BestPlan.SurgeAdjustedQty),
			strconv.FormatBool(r.BestPlan.ExercisesChange()),
			moneyField(d.Mean),
			moneyField(d.StdDev),
			moneyField(d.Min),
			moneyField(summary.P10),
			moneyField(summary.P25),
			moneyField(summary.P50),
			moneyField(summary.P75),
			moneyField(summary.P90),
			moneyField(d.Max),
			moneyField(r.OptionValue),
			strconv.Itoa(r.IterationsRun),
			string(r.Termination),
		}
		if err := writer.Write(row); err != nil {
			return fmt.Errorf("failed to write CSV row: %w", err)
		}
	}
	writer.Flush()
	if err := writer.Error(); err != nil {
		return fmt.Errorf("failed to write CSV: %w", err)
	}

	if config.OutputDir == "" {
		_, err := config.Writer.Write(buf.Bytes())
		return err
	}
	return saveFile(config, csvFile, buf.Bytes())
}

func writeResolvedConfig(config Config) error {
	if config.OutputDir == "" || config.ResolvedConfig == nil {
		return nil
	}
	data, err := yaml.Marshal(config.ResolvedConfig)
	if err != nil {
		return fmt.Errorf("failed to marshal resolved config: %w", err)
	}
	return saveFile(config, resolvedConfigFile, data)
}

func saveFile(config Config, name string, data []byte) error {
	if config.OutputDir == "" {
		return nil
	}
	if err := os.MkdirAll(config.OutputDir, 0755); err != nil {
		return fmt.Errorf("failed to create output directory: %w", err)
	}

	filename := filepath.Join(config.OutputDir, name)
	if err := os.WriteFile(filename, data, 0644); err != nil {
		return fmt.Errorf("failed to write %s: %w", filename, err)
	}
	if config.Verbose {
		fmt.Fprintf(config.Writer, "Saved %s\n", filename)
	}
	return nil
}

// FormatMoney renders v in dollars rounded to cents, e.g. "-$1234.50"
func FormatMoney(v float64) string {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return fmt.Sprintf("$%g", v)
	}
	d := decimal.NewFromFloat(v).Round(2)
	if d.IsNegative() {
		return "-$" + d.Neg().StringFixed(2)
	}
	return "$" + d.StringFixed(2)
}

// RoundMoney rounds v half away from zero to cents
func RoundMoney(v float64) float64 {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return v
	}
	return decimal.NewFromFloat(v).Round(2).InexactFloat64()
}

func moneyField(v float64) string {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return strconv.FormatFloat(v, 'g', -1, 64)
	}
	return decimal.NewFromFloat(v).StringFixed(2)
}

func formatQty(q float64) string {
	return strconv.FormatFloat(math.Round(q), 'f', 0, 64)
}

func changeMarker(plan entities.OrderPlan) string {
	if plan.ExercisesChange() {
		return " (changed)"
	}
	return ""
}
