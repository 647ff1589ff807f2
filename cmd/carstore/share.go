package main

import (
	"encoding/hex"
	"fmt"
	"os"

	"github.com/urfave/cli/v2"

	"github.com/grovefs/carstore/sharing"
)

var shareCommand = &cli.Command{
	Name:  "share",
	Usage: "manage recipients of a sharing map",
	Subcommands: []*cli.Command{
		shareAddRecipientCommand,
		shareRotateCommand,
		shareRecoverCommand,
	},
}

var shareAddRecipientCommand = &cli.Command{
	Name:      "add-recipient",
	Usage:     "register a recipient's public key in a sharing map",
	ArgsUsage: "<map-path> <public-key-path>",
	Action: func(c *cli.Context) error {
		if c.Args().Len() != 2 {
			return cli.Exit("exactly two arguments are required: <map-path> <public-key-path>", 1)
		}
		mapPath, keyPath := c.Args().Get(0), c.Args().Get(1)

		m, err := loadOrNewMap(mapPath)
		if err != nil {
			return err
		}

		keyBytes, err := os.ReadFile(keyPath)
		if err != nil {
			return err
		}
		pub, err := sharing.ImportPublicKey(keyBytes)
		if err != nil {
			return err
		}

		if err := m.AddRecipient(nil, pub); err != nil {
			return err
		}
		return saveMap(mapPath, m)
	},
}

var shareRotateCommand = &cli.Command{
	Name:      "rotate",
	Usage:     "generate a fresh access key and reseal it for every registered recipient",
	ArgsUsage: "<map-path>",
	Action: func(c *cli.Context) error {
		mapPath, err := requirePath(c)
		if err != nil {
			return err
		}

		m, err := loadOrNewMap(mapPath)
		if err != nil {
			return err
		}

		key, err := sharing.GenerateAccessKey()
		if err != nil {
			return err
		}
		if err := m.Rotate(key); err != nil {
			return err
		}
		if err := saveMap(mapPath, m); err != nil {
			return err
		}

		fmt.Println(hex.EncodeToString(key[:]))
		return nil
	},
}

var shareRecoverCommand = &cli.Command{
	Name:      "recover",
	Usage:     "recover the access key sealed for a recipient's private key",
	ArgsUsage: "<map-path> <private-key-path>",
	Action: func(c *cli.Context) error {
		if c.Args().Len() != 2 {
			return cli.Exit("exactly two arguments are required: <map-path> <private-key-path>", 1)
		}
		mapPath, keyPath := c.Args().Get(0), c.Args().Get(1)

		m, err := loadMap(mapPath)
		if err != nil {
			return err
		}

		keyBytes, err := os.ReadFile(keyPath)
		if err != nil {
			return err
		}
		priv, err := sharing.ImportPrivateKey(keyBytes)
		if err != nil {
			return err
		}

		key, err := m.RecoverAccessKey(priv)
		if err != nil {
			return err
		}
		fmt.Println(hex.EncodeToString(key[:]))
		return nil
	},
}

func loadMap(path string) (*sharing.Map, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	m := sharing.NewMap()
	if err := m.UnmarshalCBOR(data); err != nil {
		return nil, err
	}
	return m, nil
}

func loadOrNewMap(path string) (*sharing.Map, error) {
	if _, err := os.Stat(path); os.IsNotExist(err) {
		return sharing.NewMap(), nil
	}
	return loadMap(path)
}

func saveMap(path string, m *sharing.Map) error {
	data, err := m.MarshalCBOR()
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0o644)
}
