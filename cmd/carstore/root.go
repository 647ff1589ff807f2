package main

import (
	"fmt"

	"github.com/ipfs/go-cid"
	"github.com/urfave/cli/v2"

	"github.com/grovefs/carstore/v2/blockstore"
)

var rootCommand = &cli.Command{
	Name:      "root",
	Usage:     "print a store's current root CID",
	ArgsUsage: "<car-path>",
	Action: func(c *cli.Context) error {
		path, err := requirePath(c)
		if err != nil {
			return err
		}

		store, err := blockstore.OpenSingleFile(path)
		if err != nil {
			return err
		}
		defer store.Close()

		root, ok := store.GetRoot()
		if !ok {
			return cli.Exit("store has no root set", 1)
		}
		fmt.Println(root.String())
		return nil
	},
}

var setRootCommand = &cli.Command{
	Name:      "set-root",
	Usage:     "set a store's root CID",
	ArgsUsage: "<car-path> <cid>",
	Action: func(c *cli.Context) error {
		if c.Args().Len() != 2 {
			return cli.Exit("exactly two arguments are required: <car-path> <cid>", 1)
		}
		path := c.Args().Get(0)
		root, err := cid.Decode(c.Args().Get(1))
		if err != nil {
			return err
		}

		store, err := blockstore.OpenSingleFile(path)
		if err != nil {
			return err
		}
		defer store.Close()

		return store.SetRoot(root)
	},
}
