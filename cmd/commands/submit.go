package commands

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/urfave/cli/v3"

	wsclient "github.com/dohr-michael/drudge/clients/ws"
	"github.com/dohr-michael/drudge/internal/sim"
)

const defaultGatewayURL = "ws://127.0.0.1:18730/api/ws"

// NewSubmitCommand returns the submit subcommand.
func NewSubmitCommand() *cli.Command {
	return &cli.Command{
		Name:  "submit",
		Usage: "Queue an activity on a running daemon",
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
		},
		Commands: []*cli.Command{
			{
				Name:      "wash",
				Usage:     "Queue a wash of soiled items",
				ArgsUsage: "<item[=count]>...",
				Action:    runSubmitWash,
			},
			{
				Name:  "dig",
				Usage: "Queue earthmoving work",
				Flags: []cli.Flag{
					&cli.IntFlag{
						Name:  "x",
						Usage: "Dig site X coordinate",
					},
					&cli.IntFlag{
						Name:  "y",
						Usage: "Dig site Y coordinate",
					},
					&cli.IntFlag{
						Name:  "moves",
						Usage: "Total moves the dig takes",
						Value: 100,
					},
					&cli.StringFlag{
						Name:  "yield",
						Usage: "Item the dig yields",
					},
					&cli.IntFlag{
						Name:  "count",
						Usage: "How many of the yield item",
					},
				},
				Action: runSubmitDig,
			},
		},
	}
}

func dialGateway(cmd *cli.Command) (*wsclient.Client, context.CancelFunc, error) {
	timeoutSecs := cmd.Int("timeout")
	ctx, cancel := context.WithTimeout(context.Background(), time.Duration(timeoutSecs)*time.Second)

	client, err := wsclient.Dial(ctx, cmd.String("gateway"))
	if err != nil {
		cancel()
		return nil, nil, fmt.Errorf("connect to gateway: %w", err)
	}
	return client, cancel, nil
}

func runSubmitWash(_ context.Context, cmd *cli.Command) error {
	args := cmd.Args().Slice()
	if len(args) == 0 {
		return fmt.Errorf("usage: drudge submit wash <item[=count]>...")
	}

	items := make([]sim.WashCount, 0, len(args))
	for _, arg := range args {
		id, countStr, found := strings.Cut(arg, "=")
		count := 1
		if found {
			n, err := strconv.Atoi(countStr)
			if err != nil || n < 1 {
				return fmt.Errorf("bad count in %q", arg)
			}
			count = n
		}
		items = append(items, sim.WashCount{ID: id, Count: count})
	}

	return submit(cmd, sim.Request{
		Kind: "wash",
		Wash: &sim.WashParams{Items: items},
	})
}

func runSubmitDig(_ context.Context, cmd *cli.Command) error {
	return submit(cmd, sim.Request{
		Kind: "dig",
		Dig: &sim.DigParams{
			X:     cmd.Int("x"),
			Y:     cmd.Int("y"),
			Moves: cmd.Int("moves"),
			Yield: cmd.String("yield"),
			Count: cmd.Int("count"),
		},
	})
}

func submit(cmd *cli.Command, req sim.Request) error {
	client, cancel, err := dialGateway(cmd)
	if err != nil {
		return err
	}
	defer cancel()
	defer client.Close()

	if err := client.SubmitActivity(req); err != nil {
		return fmt.Errorf("submit %s: %w", req.Kind, err)
	}

	fmt.Printf("Queued %s. Follow along with: drudge watch\n", req.Kind)
	return nil
}
