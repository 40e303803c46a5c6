package main

import (
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/bluesky-social/ledgercrypto/crypto"
)

// Reads path, or stdin when path is "-".
func readInput(path string) ([]byte, error) {
	if path == "-" {
		return io.ReadAll(os.Stdin)
	}
	return os.ReadFile(path)
}

// Writes to path, or stdout when path is empty.
func writeOutput(path string, data []byte, perm os.FileMode) error {
	if path == "" {
		_, err := os.Stdout.Write(data)
		return err
	}
	return os.WriteFile(path, data, perm)
}

func loadPrivateKey(path string) (crypto.PrivateKey, error) {
	if path == "" {
		return nil, fmt.Errorf("need a private key file")
	}
	data, err := readInput(path)
	if err != nil {
		return nil, err
	}
	return crypto.DecodePrivateKeyPEM(data)
}

// Accepts a public key PEM, a private key PEM (its public half is used) or a base58 key string.
func loadPublicKey(path string) (crypto.PublicKey, error) {
	if path == "" {
		return nil, fmt.Errorf("need a public key file")
	}
	data, err := readInput(path)
	if err != nil {
		return nil, err
	}
	return parsePublicKey(data)
}

func parsePublicKey(data []byte) (crypto.PublicKey, error) {
	if pub, err := crypto.DecodePublicKeyPEM(data); err == nil {
		return pub, nil
	}
	if priv, err := crypto.DecodePrivateKeyPEM(data); err == nil {
		return priv.PublicKey(), nil
	}
	return crypto.ParsePublicKeyBase58(strings.TrimSpace(string(data)))
}
