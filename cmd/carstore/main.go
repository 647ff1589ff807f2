// Command carstore is a small CLI over the blockstore and sharing
// packages: creating and inspecting CARv2 files, reading and writing
// individual blocks, and managing a sharing map's recipients.
package main

import (
	"fmt"
	"os"

	"github.com/google/uuid"
	logging "github.com/ipfs/go-log/v2"
	"github.com/urfave/cli/v2"
)

var cliLogger = logging.Logger("carstore")

func main() {
	app := &cli.App{
		Name:  "carstore",
		Usage: "inspect and manipulate CARv2 block stores",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:  "session-id",
				Usage: "correlation id attached to this invocation's log lines; defaults to a fresh one",
			},
		},
		Before: func(c *cli.Context) error {
			sessionID := c.String("session-id")
			if sessionID == "" {
				sessionID = uuid.NewString()
			}
			cliLogger.Infow("invocation started", "session", sessionID, "args", c.Args().Slice())
			return nil
		},
		Commands: []*cli.Command{
			createCommand,
			putCommand,
			getCommand,
			rootCommand,
			setRootCommand,
			inspectCommand,
			shareCommand,
		},
	}

	if err := app.Run(os.Args); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
