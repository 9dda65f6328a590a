package commands

import (
	"context"
	"fmt"
	"os"
	"text/tabwriter"

	"github.com/urfave/cli/v3"

	"github.com/dohr-michael/drudge/internal/config"
	"github.com/dohr-michael/drudge/internal/saves"
)

// NewSavesCommand returns the saves subcommand.
func NewSavesCommand() *cli.Command {
	return &cli.Command{
		Name:  "saves",
		Usage: "Manage character saves",
		Commands: []*cli.Command{
			{
				Name:   "list",
				Usage:  "List all saves",
				Action: runSavesList,
			},
			{
				Name:      "show",
				Usage:     "Show a save and its turn history",
				ArgsUsage: "<save_id>",
				Action:    runSavesShow,
			},
			{
				Name:      "delete",
				Usage:     "Delete a save",
				ArgsUsage: "<save_id>",
				Action:    runSavesDelete,
			},
		},
		DefaultCommand: "list",
	}
}

func newSaveStore() *saves.FileStore {
	return saves.NewFileStore(config.SavesPath())
}

func runSavesList(_ context.Context, _ *cli.Command) error {
	store := newSaveStore()

	list, err := store.List()
	if err != nil {
		return fmt.Errorf("list saves: %w", err)
	}

	if len(list) == 0 {
		fmt.Println("No saves found.")
		return nil
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, "ID\tSTATUS\tSCENARIO\tTURN\tUPDATED\tNAME")
	for _, s := range list {
		scenario := s.Scenario
		if scenario == "" {
			scenario = "-"
		}
		name := s.Name
		if name == "" {
			name = "-"
		}
		fmt.Fprintf(w, "%s\t%s\t%s\t%d\t%s\t%s\n",
			s.ID,
			s.Status,
			scenario,
			s.Turn,
			s.UpdatedAt.Format("2006-01-02 15:04"),
			name,
		)
	}
	return w.Flush()
}

func runSavesShow(_ context.Context, cmd *cli.Command) error {
	saveID := cmd.Args().First()
	if saveID == "" {
		return fmt.Errorf("usage: drudge saves show <save_id>")
	}

	store := newSaveStore()

	s, err := store.Get(saveID)
	if err != nil {
		return fmt.Errorf("load save: %w", err)
	}

	fmt.Printf("Save %s (%s)\n", s.ID, s.Status)
	fmt.Printf("  Scenario: %s\n", s.Scenario)
	fmt.Printf("  Turn:     %d\n", s.Turn)
	fmt.Printf("  Updated:  %s\n", s.UpdatedAt.Format("2006-01-02 15:04:05"))

	turns, err := store.LoadTurns(saveID)
	if err != nil {
		return fmt.Errorf("load turns: %w", err)
	}
	if len(turns) == 0 {
		fmt.Println("No turn records.")
		return nil
	}

	for _, rec := range turns {
		line := fmt.Sprintf("[%s] turn %d  stamina %.0f",
			rec.Ts.Format("15:04:05"), rec.Turn, rec.Stamina)
		if rec.Kind != "" {
			line += fmt.Sprintf("  %s (%d moves left)", rec.Kind, rec.MovesLeft)
		}
		if rec.Note != "" {
			line += "  " + rec.Note
		}
		fmt.Println(line)
	}
	return nil
}

func runSavesDelete(_ context.Context, cmd *cli.Command) error {
	saveID := cmd.Args().First()
	if saveID == "" {
		return fmt.Errorf("usage: drudge saves delete <save_id>")
	}

	store := newSaveStore()
	if err := store.Delete(saveID); err != nil {
		return fmt.Errorf("delete save: %w", err)
	}
	fmt.Printf("Deleted %s\n", saveID)
	return nil
}
