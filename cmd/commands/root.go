package commands

import (
	"github.com/urfave/cli/v3"

	"github.com/dohr-michael/drudge/internal/config"
)

// NewRootCommand returns the top-level CLI command.
func NewRootCommand() *cli.Command {
	return &cli.Command{
		Name:  "drudge",
		Usage: "A tireless worker that grinds through activity queues, one turn at a time",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "config",
				Aliases: []string{"c"},
				Usage:   "Path to config file",
				Value:   config.ConfigPath(),
			},
			&cli.BoolFlag{
				Name:  "debug",
				Usage: "Enable debug logging",
			},
		},
		Commands: []*cli.Command{
			NewInitCommand(),
			NewRunCommand(),
			NewGatewayCommand(),
			NewSubmitCommand(),
			NewCancelCommand(),
			NewWatchCommand(),
			NewStatusCommand(),
			NewSavesCommand(),
			NewRunsCommand(),
			NewKindsCommand(),
		},
	}
}
