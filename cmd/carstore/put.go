package main

import (
	"io"
	"os"

	"github.com/urfave/cli/v2"

	car "github.com/grovefs/carstore"
	"github.com/grovefs/carstore/v2/blockstore"
)

var putCommand = &cli.Command{
	Name:      "put",
	Usage:     "read bytes from stdin (or --input) and store them as a raw block",
	ArgsUsage: "<car-path>",
	Flags: []cli.Flag{
		&cli.StringFlag{Name: "input", Usage: "file to read block content from; defaults to stdin"},
	},
	Action: func(c *cli.Context) error {
		path, err := requirePath(c)
		if err != nil {
			return err
		}

		var in io.Reader = os.Stdin
		if inputPath := c.String("input"); inputPath != "" {
			f, err := os.Open(inputPath)
			if err != nil {
				return err
			}
			defer f.Close()
			in = f
		}

		content, err := io.ReadAll(in)
		if err != nil {
			return err
		}

		block, err := car.NewBlock(content, car.CodecRaw)
		if err != nil {
			return err
		}

		store, err := blockstore.OpenSingleFile(path)
		if err != nil {
			return err
		}
		defer store.Close()

		if err := store.PutBlock(block); err != nil {
			return err
		}

		_, err = os.Stdout.WriteString(block.ID.String() + "\n")
		return err
	},
}
