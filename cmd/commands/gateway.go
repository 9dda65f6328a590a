package commands

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"time"

	"github.com/urfave/cli/v3"

	"github.com/dohr-michael/drudge/internal/activity"
	"github.com/dohr-michael/drudge/internal/config"
	"github.com/dohr-michael/drudge/internal/events"
	"github.com/dohr-michael/drudge/internal/gateway"
	"github.com/dohr-michael/drudge/internal/heartbeat"
	"github.com/dohr-michael/drudge/internal/item"
	"github.com/dohr-michael/drudge/internal/journal"
	"github.com/dohr-michael/drudge/internal/saves"
	"github.com/dohr-michael/drudge/internal/sim"
	"github.com/dohr-michael/drudge/internal/storage"
	"github.com/dohr-michael/drudge/internal/telemetry"
)

// NewGatewayCommand returns the gateway subcommand.
func NewGatewayCommand() *cli.Command {
	return &cli.Command{
		Name:      "gateway",
		Usage:     "Run the drudge daemon: a live simulation behind an HTTP/WS gateway",
		ArgsUsage: "[scenario]",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:  "host",
				Usage: "Host to listen on",
			},
			&cli.IntFlag{
				Name:  "port",
				Usage: "Port to listen on",
			},
			&cli.StringFlag{
				Name:  "save",
				Usage: "Resume character state from an existing save",
			},
			&cli.StringFlag{
				Name:  "save-as",
				Usage: "Record the daemon's run under a new save with the given name",
			},
		},
		Action: runGateway,
	}
}

func runGateway(_ context.Context, cmd *cli.Command) error {
	// Setup debug logging
	if cmd.Bool("debug") {
		slog.SetDefault(slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelDebug})))
	}

	cfg, err := config.LoadOrDefault(cmd.String("config"))
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	// CLI flags override config
	if cmd.IsSet("host") {
		cfg.Gateway.Host = cmd.String("host")
	}
	if cmd.IsSet("port") {
		cfg.Gateway.Port = cmd.Int("port")
	}

	// A daemon has no business stopping itself after N turns.
	cfg.Sim.MaxTurns = 0

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

	stats := storage.NewStatsTracker(bus)
	defer stats.Close()

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

	// Seed the simulation from a save and/or a scenario, if given.
	opts := sim.Options{
		Config:    cfg,
		Catalog:   catalog,
		Registry:  registry,
		Bus:       bus,
		Journal:   j,
		KeepAlive: true,
	}

	if saveFlag := cmd.String("save"); saveFlag != "" {
		meta, err := store.Get(saveFlag)
		if err != nil {
			return fmt.Errorf("load save: %w", err)
		}
		who, err := store.LoadCharacter(saveFlag, registry)
		if err != nil {
			return fmt.Errorf("load save: %w", err)
		}
		opts.Character = who
		opts.Saves = store
		opts.SaveID = saveFlag
		opts.Scenario = meta.Scenario
		slog.Info("resumed save", "save_id", saveFlag, "turn", meta.Turn)
	}

	if scenarioArg := cmd.Args().First(); scenarioArg != "" {
		sc, err := sim.LoadScenario(resolveScenarioPath(scenarioArg))
		if err != nil {
			return fmt.Errorf("load scenario: %w", err)
		}
		opts.Queue = sc.Activities
		opts.Scenario = sc.Name
		if opts.Character == nil {
			opts.Character = sc.BuildCharacter()
		}
	}

	if saveAs := cmd.String("save-as"); saveAs != "" {
		meta := &saves.Save{Name: saveAs, Scenario: opts.Scenario}
		if err := store.Create(meta); err != nil {
			return fmt.Errorf("create save: %w", err)
		}
		opts.Saves = store
		opts.SaveID = meta.ID
		slog.Info("recording to save", "save_id", meta.ID)
	}

	sm := sim.New(opts)

	// Heartbeat for the status command
	hb := heartbeat.NewWriter(config.HeartbeatPath())
	hb.SetProbe(func() (string, int) { return sm.RunID(), sm.Turn() })
	hb.Start()
	defer hb.Stop()

	// Simulation loop
	go func() {
		if err := sm.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
			slog.Error("sim loop stopped", "error", err)
		}
	}()

	// Gateway server
	server := gateway.NewServer(bus, sm, cfg.Gateway.Host, cfg.Gateway.Port)
	server.SetSaves(store)
	server.SetStats(stats)
	if j != nil {
		server.SetJournal(j)
	}

	// Start server in goroutine
	errCh := make(chan error, 1)
	go func() {
		errCh <- server.Start()
	}()

	// Wait for signal or error
	select {
	case <-ctx.Done():
		slog.Info("shutting down...")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		return server.Shutdown(shutdownCtx)
	case err := <-errCh:
		return err
	}
}
