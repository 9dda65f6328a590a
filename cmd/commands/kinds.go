package commands

import (
	"context"
	"fmt"

	"github.com/urfave/cli/v3"

	"github.com/dohr-michael/drudge/internal/activity"
)

// NewKindsCommand returns the kinds subcommand.
func NewKindsCommand() *cli.Command {
	return &cli.Command{
		Name:  "kinds",
		Usage: "List the activity kinds this build supports",
		Action: func(_ context.Context, _ *cli.Command) error {
			for _, k := range activity.NewDefaultRegistry().Kinds() {
				fmt.Println(k)
			}
			return nil
		},
	}
}
