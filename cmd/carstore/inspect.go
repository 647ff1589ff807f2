package main

import (
	"fmt"
	"os"

	"github.com/urfave/cli/v2"

	v2 "github.com/grovefs/carstore/v2"
)

var inspectCommand = &cli.Command{
	Name:      "inspect",
	Usage:     "print a CARv2 file's header and index summary",
	ArgsUsage: "<car-path>",
	Action: func(c *cli.Context) error {
		path, err := requirePath(c)
		if err != nil {
			return err
		}

		f, err := os.Open(path)
		if err != nil {
			return err
		}
		defer f.Close()

		container, err := v2.Read(f)
		if err != nil {
			return err
		}

		fmt.Printf("data offset:  %d\n", container.Header.DataOffset)
		fmt.Printf("data size:    %d\n", container.Header.DataSize)
		fmt.Printf("index offset: %d\n", container.Header.IndexOffset)
		fmt.Printf("fully indexed: %t\n", container.Header.Characteristics.IsFullyIndexed())
		fmt.Printf("v1 version:   %d\n", container.V1Header.Version)
		fmt.Printf("blocks:       %d\n", container.Index.Len())
		if root, ok := container.GetRoot(); ok {
			fmt.Printf("root:         %s\n", root.String())
		} else {
			fmt.Println("root:         (none)")
		}
		return nil
	},
}
