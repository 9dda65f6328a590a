package commands

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"os/signal"

	"github.com/urfave/cli/v3"

	wsclient "github.com/dohr-michael/drudge/clients/ws"
	"github.com/dohr-michael/drudge/internal/events"
	wsprotocol "github.com/dohr-michael/drudge/internal/gateway/ws"
)

// NewWatchCommand returns the watch subcommand.
func NewWatchCommand() *cli.Command {
	return &cli.Command{
		Name:  "watch",
		Usage: "Stream live events from a running daemon",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:  "gateway",
				Usage: "Gateway WebSocket URL",
				Value: defaultGatewayURL,
			},
			&cli.StringFlag{
				Name:  "run",
				Usage: "Only show events for this run",
			},
			&cli.IntFlag{
				Name:  "count",
				Usage: "Exit after N events (0 = run until interrupted)",
			},
		},
		Action: runWatch,
	}
}

func runWatch(_ context.Context, cmd *cli.Command) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	client, err := wsclient.Dial(ctx, cmd.String("gateway"))
	if err != nil {
		return fmt.Errorf("connect to gateway: %w", err)
	}
	defer client.Close()

	runFilter := cmd.String("run")
	limit := cmd.Int("count")

	fmt.Fprintln(os.Stderr, "watching; ctrl-c to stop")

	seen := 0
	for {
		frame, err := client.ReadFrame()
		if err != nil {
			if ctx.Err() != nil {
				return nil
			}
			return fmt.Errorf("read frame: %w", err)
		}

		if frame.Type != wsprotocol.FrameTypeEvent {
			continue
		}
		if runFilter != "" && frame.RunID != runFilter {
			continue
		}

		var evt events.Event
		if err := json.Unmarshal(frame.Payload, &evt); err != nil {
			continue
		}
		printEvent(evt)

		seen++
		if limit > 0 && seen >= limit {
			return nil
		}
	}
}

func printEvent(e events.Event) {
	detail, _ := json.Marshal(e.Payload)
	fmt.Printf("%s  %-20s %s\n", e.Timestamp.Format("15:04:05"), e.Type, detail)
}
