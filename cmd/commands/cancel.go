package commands

import (
	"context"
	"fmt"

	"github.com/urfave/cli/v3"
)

// NewCancelCommand returns the cancel subcommand.
func NewCancelCommand() *cli.Command {
	return &cli.Command{
		Name:  "cancel",
		Usage: "Stop whatever the daemon's character is doing",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:  "gateway",
				Usage: "Gateway WebSocket URL",
				Value: defaultGatewayURL,
			},
			&cli.IntFlag{
				Name:  "timeout",
				Usage: "Response timeout in seconds",
				Value: 30,
			},
			&cli.StringFlag{
				Name:  "reason",
				Usage: "Reason recorded with the cancellation",
				Value: "client request",
			},
		},
		Action: runCancel,
	}
}

func runCancel(_ context.Context, cmd *cli.Command) error {
	client, cancel, err := dialGateway(cmd)
	if err != nil {
		return err
	}
	defer cancel()
	defer client.Close()

	canceled, err := client.CancelActivity(cmd.String("reason"))
	if err != nil {
		return fmt.Errorf("cancel: %w", err)
	}

	if !canceled {
		fmt.Println("Nothing in progress.")
		return nil
	}
	fmt.Println("Canceled. Progress is kept; resubmitting the same work resumes it.")
	return nil
}
