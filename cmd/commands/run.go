package commands

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"sort"
	"strings"
	"text/tabwriter"

	"github.com/urfave/cli/v3"

	"github.com/dohr-michael/drudge/internal/activity"
	"github.com/dohr-michael/drudge/internal/character"
	"github.com/dohr-michael/drudge/internal/config"
	"github.com/dohr-michael/drudge/internal/events"
	"github.com/dohr-michael/drudge/internal/item"
	"github.com/dohr-michael/drudge/internal/journal"
	"github.com/dohr-michael/drudge/internal/saves"
	"github.com/dohr-michael/drudge/internal/sim"
	"github.com/dohr-michael/drudge/internal/storage"
	"github.com/dohr-michael/drudge/internal/telemetry"
)

// NewRunCommand returns the run subcommand.
func NewRunCommand() *cli.Command {
	return &cli.Command{
		Name:      "run",
		Usage:     "Work through a scenario in the foreground",
		ArgsUsage: "<scenario>",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:  "save",
				Usage: "Resume character state from an existing save",
			},
			&cli.StringFlag{
				Name:  "save-as",
				Usage: "Record this run under a new save with the given name",
			},
		},
		Action: runRun,
	}
}

func runRun(_ context.Context, cmd *cli.Command) error {
	// Setup debug logging
	if cmd.Bool("debug") {
		slog.SetDefault(slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelDebug})))
	}

	cfg, err := config.LoadOrDefault(cmd.String("config"))
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	scenarioArg := cmd.Args().First()
	saveFlag := cmd.String("save")
	if scenarioArg == "" && saveFlag == "" {
		return fmt.Errorf("usage: drudge run <scenario> (or --save <id> to resume)")
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	// Item catalog — built-ins plus any configured directories.
	catalog := item.Default()
	for _, dir := range cfg.Items.Dirs {
		if _, err := os.Stat(dir); err != nil {
			continue
		}
		if err := catalog.LoadDir(dir); err != nil {
			slog.Warn("load item dir", "dir", dir, "error", err)
		}
	}

	registry := activity.NewDefaultRegistry()

	// Event bus
	bus := events.NewBus(cfg.Events.BufferSize)
	defer bus.Close()

	eventLogger := storage.NewEventLogger(filepath.Join(config.DrudgePath(), "logs"), bus)
	defer eventLogger.Close()

	// Run journal
	var j *journal.Journal
	if !cfg.Journal.Disabled {
		j, err = journal.Open(journalPath(cfg))
		if err != nil {
			slog.Warn("journal unavailable", "error", err)
		} else {
			defer j.Close()
		}
	}

	// Tracing
	if cfg.Telemetry.Endpoint != "" {
		shutdown, err := telemetry.Init(ctx, telemetry.Config{
			ServiceName:  "drudge",
			OTLPEndpoint: cfg.Telemetry.Endpoint,
			Insecure:     cfg.Telemetry.Insecure,
		})
		if err != nil {
			slog.Warn("telemetry init failed", "error", err)
		} else {
			defer shutdown(context.Background())
		}
	}

	store := saves.NewFileStore(config.SavesPath())

	// Resolve the character and work queue from the save and/or scenario.
	var who *character.Character
	var queue []sim.Request
	var scenarioName, saveID string

	if saveFlag != "" {
		meta, err := store.Get(saveFlag)
		if err != nil {
			return fmt.Errorf("load save: %w", err)
		}
		who, err = store.LoadCharacter(saveFlag, registry)
		if err != nil {
			return fmt.Errorf("load save: %w", err)
		}
		saveID = saveFlag
		scenarioName = meta.Scenario
		slog.Info("resumed save", "save_id", saveID, "turn", meta.Turn, "busy", who.Busy())
	}

	if scenarioArg != "" {
		sc, err := sim.LoadScenario(resolveScenarioPath(scenarioArg))
		if err != nil {
			return fmt.Errorf("load scenario: %w", err)
		}
		queue = sc.Activities
		scenarioName = sc.Name
		if who == nil {
			who = sc.BuildCharacter()
		}
	}

	if saveAs := cmd.String("save-as"); saveAs != "" {
		meta := &saves.Save{Name: saveAs, Scenario: scenarioName}
		if err := store.Create(meta); err != nil {
			return fmt.Errorf("create save: %w", err)
		}
		saveID = meta.ID
		fmt.Printf("Recording to save %s\n", saveID)
	}

	opts := sim.Options{
		Config:    cfg,
		Character: who,
		Catalog:   catalog,
		Registry:  registry,
		Bus:       bus,
		Journal:   j,
		Scenario:  scenarioName,
		Queue:     queue,
	}
	if saveID != "" {
		opts.Saves = store
		opts.SaveID = saveID
	}
	sm := sim.New(opts)

	runErr := sm.Run(ctx)
	if runErr != nil && !errors.Is(runErr, context.Canceled) {
		return runErr
	}
	if errors.Is(runErr, context.Canceled) {
		fmt.Println("\nInterrupted.")
	}

	printRunSummary(sm.State())
	return nil
}

func printRunSummary(st sim.State) {
	fmt.Printf("\nRun %s: %d turns, %d moves.\n", st.RunID, st.Turn, st.MovesSpent)
	if st.Character.Busy {
		fmt.Printf("%s is still mid-%s (%d moves left).\n",
			st.Character.Name, st.Character.Kind, st.Character.MovesLeft)
	}

	if len(st.Character.Inventory) == 0 {
		return
	}
	ids := make([]string, 0, len(st.Character.Inventory))
	for id := range st.Character.Inventory {
		ids = append(ids, id)
	}
	sort.Strings(ids)

	w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, "ITEM\tCOUNT")
	for _, id := range ids {
		fmt.Fprintf(w, "%s\t%s\n", id, st.Character.Inventory[id])
	}
	w.Flush()
}

// journalPath picks the configured sqlite path or the home default.
func journalPath(cfg *config.Config) string {
	if cfg.Journal.Path != "" {
		return cfg.Journal.Path
	}
	return filepath.Join(config.DrudgePath(), "journal.db")
}

// resolveScenarioPath accepts a literal path or a bare scenario name
// living under the scenarios directory.
func resolveScenarioPath(arg string) string {
	if _, err := os.Stat(arg); err == nil {
		return arg
	}
	name := arg
	if !strings.HasSuffix(name, ".jsonc") && !strings.HasSuffix(name, ".json") {
		name += ".jsonc"
	}
	return filepath.Join(config.ScenariosPath(), name)
}
