package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"

	"github.com/vsinha/dualsource/pkg/domain/entities"
	"github.com/vsinha/dualsource/pkg/interfaces/cli/commands"
)

const (
	exitError      = 1
	exitNoFeasible = 2
)

// Command is implemented by every CLI subcommand
type Command interface {
	Execute(ctx context.Context) error
}

func main() {
	// A missing .env file is fine; the environment is used as is
	_ = godotenv.Load()

	args := os.Args[1:]
	name := "optimize"
	if len(args) > 0 && (args[0] == "optimize" || args[0] == "generate" || args[0] == "history") {
		name, args = args[0], args[1:]
	}

	var cmd Command
	switch name {
	case "generate":
		cmd = parseGenerate(args)
	case "history":
		cmd = parseHistory(args)
	default:
		cmd = parseOptimize(args)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	err := cmd.Execute(ctx)
	stop()

	if errors.Is(err, entities.ErrNoFeasiblePairs) {
		fmt.Printf("No feasible strategy: %v\n", err)
		os.Exit(exitNoFeasible)
	}
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(exitError)
	}
}

func parseOptimize(args []string) Command {
	fs := flag.NewFlagSet("optimize", flag.ExitOnError)
	var (
		configFile    = fs.String("config", "", "Path to scenario YAML file")
		suppliersFile = fs.String("suppliers", "", "Path to suppliers CSV file")
		outputDir     = fs.String("output", "", "Output directory for results (optional)")
		format        = fs.String("format", "text", "Output format: text, json, csv")
		simulations   = fs.Int("simulations", 0, "Final-pass simulation count")
		seed          = fs.Int64("seed", 0, "Random seed")
		workers       = fs.Int("workers", 0, "Concurrency bound (0 = GOMAXPROCS)")
		logFormat     = fs.String("log-format", "console", "Log format: console, json")
		verbose       = fs.Bool("verbose", false, "Enable verbose output")
		debug         = fs.Bool("debug", false, "Enable debug logging")
		help          = fs.Bool("help", false, "Show help message")
	)
	_ = fs.Parse(args)

	config := commands.Config{
		ConfigFile:    *configFile,
		SuppliersFile: *suppliersFile,
		OutputDir:     *outputDir,
		Format:        *format,
		Simulations:   *simulations,
		Workers:       *workers,
		LogFormat:     *logFormat,
		Verbose:       *verbose,
		Debug:         *debug,
		Help:          *help,
	}
	// -seed 0 is a valid seed, so only an explicit flag overrides the scenario
	fs.Visit(func(f *flag.Flag) {
		if f.Name == "seed" {
			config.Seed = seed
		}
	})

	return commands.NewOptimizeCommand(config)
}

func parseGenerate(args []string) Command {
	fs := flag.NewFlagSet("generate", flag.ExitOnError)
	var (
		suppliers = fs.Int("suppliers", 6, "Number of suppliers to generate")
		outputDir = fs.String("output", "", "Output directory for generated files")
		seed      = fs.Int64("seed", 0, "Random seed (0 = time based)")
		verbose   = fs.Bool("verbose", false, "Enable verbose output")
		help      = fs.Bool("help", false, "Show help message")
	)
	_ = fs.Parse(args)

	return commands.NewGenerateCommand(commands.GenerateConfig{
		Suppliers: *suppliers,
		OutputDir: *outputDir,
		Seed:      *seed,
		Verbose:   *verbose,
		Help:      *help,
	})
}

func parseHistory(args []string) Command {
	fs := flag.NewFlagSet("history", flag.ExitOnError)
	var (
		runID = fs.String("run", "", "Run ID to show in detail")
		limit = fs.Int("limit", 10, "Number of recent runs to list")
		help  = fs.Bool("help", false, "Show help message")
	)
	_ = fs.Parse(args)

	return commands.NewHistoryCommand(commands.HistoryConfig{
		RunID: *runID,
		Limit: *limit,
		Help:  *help,
	})
}
