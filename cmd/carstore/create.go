package main

import (
	"github.com/urfave/cli/v2"

	"github.com/grovefs/carstore/v2/blockstore"
)

var createCommand = &cli.Command{
	Name:      "create",
	Usage:     "create a new, empty CARv2 file",
	ArgsUsage: "<path>",
	Action: func(c *cli.Context) error {
		path, err := requirePath(c)
		if err != nil {
			return err
		}
		store, err := blockstore.OpenSingleFile(path)
		if err != nil {
			return err
		}
		return store.Close()
	},
}

func requirePath(c *cli.Context) (string, error) {
	if c.Args().Len() != 1 {
		return "", cli.Exit("exactly one path argument is required", 1)
	}
	return c.Args().First(), nil
}
