package commands

import (
	"context"
	"fmt"
	"os"
	"text/tabwriter"

	"github.com/urfave/cli/v3"

	"github.com/dohr-michael/drudge/internal/config"
	"github.com/dohr-michael/drudge/internal/journal"
)

// NewRunsCommand returns the runs subcommand.
func NewRunsCommand() *cli.Command {
	return &cli.Command{
		Name:  "runs",
		Usage: "Inspect the run journal",
		Commands: []*cli.Command{
			{
				Name:  "list",
				Usage: "List recorded runs",
				Flags: []cli.Flag{
					&cli.IntFlag{
						Name:  "limit",
						Usage: "Maximum runs to show (0 = all)",
						Value: 20,
					},
				},
				Action: runRunsList,
			},
			{
				Name:      "show",
				Usage:     "Show a run and its activity log",
				ArgsUsage: "<run_id>",
				Action:    runRunsShow,
			},
		},
		DefaultCommand: "list",
	}
}

func openJournal(cmd *cli.Command) (*journal.Journal, error) {
	cfg, err := config.LoadOrDefault(cmd.String("config"))
	if err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}
	j, err := journal.Open(journalPath(cfg))
	if err != nil {
		return nil, fmt.Errorf("open journal: %w", err)
	}
	return j, nil
}

func runRunsList(_ context.Context, cmd *cli.Command) error {
	j, err := openJournal(cmd)
	if err != nil {
		return err
	}
	defer j.Close()

	runs, err := j.ListRuns(cmd.Int("limit"))
	if err != nil {
		return fmt.Errorf("list runs: %w", err)
	}

	if len(runs) == 0 {
		fmt.Println("No runs recorded.")
		return nil
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, "RUN\tSTATUS\tSCENARIO\tCHARACTER\tTURNS\tMOVES\tSTARTED")
	for _, r := range runs {
		scenario := r.Scenario
		if scenario == "" {
			scenario = "-"
		}
		fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%d\t%d\t%s\n",
			r.RunID,
			r.Status,
			scenario,
			r.Character,
			r.Turns,
			r.MovesSpent,
			r.StartedAt,
		)
	}
	return w.Flush()
}

func runRunsShow(_ context.Context, cmd *cli.Command) error {
	runID := cmd.Args().First()
	if runID == "" {
		return fmt.Errorf("usage: drudge runs show <run_id>")
	}

	j, err := openJournal(cmd)
	if err != nil {
		return err
	}
	defer j.Close()

	r, err := j.GetRun(runID)
	if err != nil {
		return fmt.Errorf("load run: %w", err)
	}

	fmt.Printf("Run %s (%s)\n", r.RunID, r.Status)
	fmt.Printf("  Scenario:  %s\n", r.Scenario)
	fmt.Printf("  Character: %s\n", r.Character)
	fmt.Printf("  Turns:     %d (%d moves)\n", r.Turns, r.MovesSpent)
	fmt.Printf("  Started:   %s\n", r.StartedAt)
	if r.FinishedAt != "" {
		fmt.Printf("  Finished:  %s\n", r.FinishedAt)
	}

	log, err := j.ActivityLog(runID)
	if err != nil {
		return fmt.Errorf("load activity log: %w", err)
	}
	if len(log) == 0 {
		fmt.Println("No activity recorded.")
		return nil
	}

	fmt.Println()
	for _, e := range log {
		line := fmt.Sprintf("turn %3d  %-8s %s", e.Turn, e.Kind, e.Event)
		if e.Detail != "" {
			line += "  (" + e.Detail + ")"
		}
		fmt.Println(line)
	}
	return nil
}
