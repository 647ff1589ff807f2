package main

import (
	"os"

	"github.com/grovefs/carstore/sharing"
)

func writeFile(path string, content []byte) error {
	return os.WriteFile(path, content, 0o644)
}

func generateKeypairFiles(privPath, pubPath string) error {
	priv, err := sharing.GeneratePrivateKey()
	if err != nil {
		return err
	}
	if err := os.WriteFile(privPath, priv.Bytes(), 0o644); err != nil {
		return err
	}
	return os.WriteFile(pubPath, priv.PublicKey().Bytes(), 0o644)
}
