package main

import (
	"os"

	"github.com/ipfs/go-cid"
	"github.com/urfave/cli/v2"

	"github.com/grovefs/carstore/v2/blockstore"
)

var getCommand = &cli.Command{
	Name:      "get",
	Usage:     "read a block's content by CID and write it to stdout",
	ArgsUsage: "<car-path> <cid>",
	Action: func(c *cli.Context) error {
		if c.Args().Len() != 2 {
			return cli.Exit("exactly two arguments are required: <car-path> <cid>", 1)
		}
		path := c.Args().Get(0)
		target, err := cid.Decode(c.Args().Get(1))
		if err != nil {
			return err
		}

		store, err := blockstore.OpenSingleFile(path)
		if err != nil {
			return err
		}
		defer store.Close()

		block, err := store.GetBlock(target)
		if err != nil {
			return err
		}

		_, err = os.Stdout.Write(block.Content)
		return err
	},
}
