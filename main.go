package main

import (
	"context"
	"flag"
	"fmt"
	"io"
	"os"
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/pkg/errors"

	"pqleval/pkg/catalog"
	"pqleval/pkg/catalog/pgcatalog"
	"pqleval/pkg/eval"
	"pqleval/pkg/execution"
	"pqleval/pkg/logging"
	"pqleval/pkg/plan/planyaml"
	"pqleval/pkg/ui"
)

type Configuration struct {
	PlanFile       string
	GlobalsFile    string
	Mode           string
	LogLevel       string
	LogFormat      string
	LogPath        string
	PostgresURL    string
	PostgresSchema string
	Interactive    bool
	DemoMode       bool
	DemoSeed       int64
}

func main() {
	config := parseArguments()
	if err := run(config, os.Stdout); err != nil {
		fmt.Fprintln(os.Stderr, ui.ErrorLine(err))
		os.Exit(1)
	}
}

// parseArguments processes command-line flags
func parseArguments() Configuration {
	var config Configuration

	flag.StringVar(&config.PlanFile, "plan", "", "YAML plan file to evaluate (- for stdin)")
	flag.StringVar(&config.GlobalsFile, "globals", "", "YAML file of globals")
	flag.StringVar(&config.Mode, "mode", "permissive", "Typing mode: permissive or strict")
	flag.StringVar(&config.LogLevel, "log-level", "warn", "Log level: debug, info, warn or error")
	flag.StringVar(&config.LogFormat, "log-format", "text", "Log format: text or json")
	flag.StringVar(&config.LogPath, "log", "", "Log file path (default stderr)")
	flag.StringVar(&config.PostgresURL, "pg", "", "PostgreSQL connection string to resolve globals from tables")
	flag.StringVar(&config.PostgresSchema, "pg-schema", "", "PostgreSQL schema of global tables")
	flag.BoolVar(&config.Interactive, "i", false, "Open the interactive plan runner")
	flag.BoolVar(&config.DemoMode, "demo", false, "Add generated customers and orders globals")
	flag.Int64Var(&config.DemoSeed, "seed", 1, "Seed for demo data")

	flag.Parse()

	return config
}

func run(config Configuration, out io.Writer) error {
	mode, err := execution.ParseMode(config.Mode)
	if err != nil {
		return err
	}
	level, err := logging.ParseLevel(config.LogLevel)
	if err != nil {
		return err
	}
	if err := logging.Init(logging.Config{Level: level, OutputPath: config.LogPath, Format: config.LogFormat}); err != nil {
		return errors.Wrap(err, "failed to initialize logging")
	}
	defer logging.Close()

	ctx := context.Background()
	cat, closeCatalog, err := buildCatalog(ctx, config)
	if err != nil {
		return err
	}
	defer closeCatalog()

	doc, err := loadPlan(config)
	if err != nil {
		return err
	}

	engine := eval.New()
	if config.Interactive {
		return startInteractiveMode(engine, cat, mode, doc)
	}
	if strings.TrimSpace(doc) == "" {
		return errors.New("no plan given; use -plan, -demo or -i")
	}
	return runBatch(ctx, out, engine, cat, mode, doc)
}

// buildCatalog layers the configured global sources: the globals file
// first, then demo data, then PostgreSQL tables.
func buildCatalog(ctx context.Context, config Configuration) (catalog.Catalog, func(), error) {
	var chain catalog.Chain
	closer := func() {}
	log := logging.WithComponent("cli")

	if config.GlobalsFile != "" {
		f, err := os.Open(config.GlobalsFile)
		if err != nil {
			return nil, closer, errors.Wrap(err, "failed to open globals file")
		}
		defer f.Close()

		mem, err := catalog.LoadYAML(f)
		if err != nil {
			return nil, closer, err
		}
		log.Info("globals loaded", "path", config.GlobalsFile, "globals", len(mem.Names()))
		chain = append(chain, mem)
	}

	if config.DemoMode {
		chain = append(chain, demoCatalog(config.DemoSeed))
		log.Debug("demo globals generated", "seed", config.DemoSeed)
	}

	if config.PostgresURL != "" {
		pg, err := pgcatalog.Connect(ctx, config.PostgresURL, config.PostgresSchema)
		if err != nil {
			return nil, closer, err
		}
		closer = pg.Close
		log.Info("postgres catalog connected", "schema", config.PostgresSchema)
		chain = append(chain, pg)
	}

	if len(chain) == 1 {
		return chain[0], closer, nil
	}
	return chain, closer, nil
}

// loadPlan reads the plan document. Demo mode supplies one when no file is given.
func loadPlan(config Configuration) (string, error) {
	switch config.PlanFile {
	case "":
		if config.DemoMode {
			return demoPlan, nil
		}
		return "", nil
	case "-":
		data, err := io.ReadAll(os.Stdin)
		return string(data), errors.Wrap(err, "failed to read plan from stdin")
	default:
		data, err := os.ReadFile(config.PlanFile)
		return string(data), errors.Wrap(err, "failed to read plan file")
	}
}

// runBatch evaluates doc once and prints the result.
func runBatch(ctx context.Context, out io.Writer, engine *eval.Engine, cat catalog.Catalog, mode execution.Mode, doc string) error {
	root, err := planyaml.Decode(strings.NewReader(doc))
	if err != nil {
		return err
	}
	stmt, err := engine.Prepare(root)
	if err != nil {
		return err
	}

	result, err := engine.Execute(ctx, stmt, cat, mode)
	if err != nil {
		return err
	}

	fmt.Fprintln(out, ui.SuccessLine(mode.String(), fmt.Sprintf("%s (%s)", result.Kind(), stmt.ID())))
	fmt.Fprintln(out, lipgloss.NewStyle().Foreground(lipgloss.Color("#F8FAFC")).Render(result.Pretty()))
	return nil
}

// startInteractiveMode launches the Bubble Tea UI
func startInteractiveMode(engine *eval.Engine, cat catalog.Catalog, mode execution.Mode, doc string) error {
	p := tea.NewProgram(
		ui.NewModel(engine, cat, mode, doc),
		tea.WithAltScreen(),
		tea.WithMouseCellMotion(),
	)

	if _, err := p.Run(); err != nil {
		return fmt.Errorf("error running program: %v", err)
	}
	return nil
}
