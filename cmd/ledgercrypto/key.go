package main

import (
	"encoding/hex"
	"fmt"
	"math/big"

	"github.com/bluesky-social/ledgercrypto/crypto"

	"github.com/urfave/cli/v2"
)

var cmdSchemes = &cli.Command{
	Name:   "schemes",
	Usage:  "list the supported signature schemes",
	Action: runSchemes,
}

var schemeFlag = &cli.StringFlag{
	Name:    "scheme",
	Aliases: []string{"s"},
	Usage:   "signature scheme code name (see 'schemes')",
	Value:   crypto.DefaultSignatureScheme().CodeName(),
	EnvVars: []string{"LEDGERCRYPTO_SCHEME"},
}

var cmdKey = &cli.Command{
	Name:  "key",
	Usage: "sub-commands for cryptographic keys",
	Subcommands: []*cli.Command{
		&cli.Command{
			Name:  "generate",
			Usage: "create a new key pair, written as a PKCS#8 PEM file",
			Flags: []cli.Flag{
				schemeFlag,
				&cli.StringFlag{
					Name:    "out",
					Aliases: []string{"o"},
					Usage:   "private key output path (stdout if unset)",
				},
			},
			Action: runKeyGenerate,
		},
		&cli.Command{
			Name:      "inspect",
			Usage:     "parses and outputs metadata about a public or private key file",
			ArgsUsage: `<key-file>`,
			Action:    runKeyInspect,
		},
		&cli.Command{
			Name:  "derive",
			Usage: "deterministically derive a child key pair from a private key and a seed",
			Flags: []cli.Flag{
				&cli.StringFlag{
					Name:     "key",
					Usage:    "parent private key PEM file",
					Required: true,
				},
				&cli.StringFlag{
					Name:     "seed",
					Usage:    "hex-encoded derivation seed",
					Required: true,
				},
				&cli.StringFlag{
					Name:    "out",
					Aliases: []string{"o"},
					Usage:   "derived private key output path (stdout if unset)",
				},
			},
			Action: runKeyDerive,
		},
		&cli.Command{
			Name:  "from-entropy",
			Usage: "build an Ed25519 test key pair from a decimal or 0x-prefixed integer",
			Flags: []cli.Flag{
				&cli.StringFlag{
					Name:    "out",
					Aliases: []string{"o"},
					Usage:   "private key output path (stdout if unset)",
				},
			},
			ArgsUsage: `<integer>`,
			Action:    runKeyFromEntropy,
		},
	},
}

func runSchemes(cctx *cli.Context) error {
	for _, s := range crypto.SupportedSchemes() {
		def := ""
		if s.Equal(crypto.DefaultSignatureScheme()) {
			def = " (default)"
		}
		fmt.Printf("%d\t%s%s\n", s.ID(), s.CodeName(), def)
		fmt.Printf("\t%s\n", s.Description())
		fmt.Printf("\tkey: %s %d bits, signature: %s, provider: %s\n", s.KeyAlgorithm(), s.KeySize(), s.SignatureAlgorithm(), s.ProviderName())
		fmt.Printf("\talgorithm id: %s\n", s.AlgorithmID())
	}
	return nil
}

func runKeyGenerate(cctx *cli.Context) error {
	s, err := crypto.FindScheme(cctx.String("scheme"))
	if err != nil {
		return err
	}
	kp, err := crypto.GenerateKeyPair(s)
	if err != nil {
		return err
	}
	return writeKeyPair(cctx.String("out"), kp)
}

// Writes the private key PEM. When it goes to a file, the public half is summarised on stdout.
func writeKeyPair(out string, kp *crypto.KeyPair) error {
	if err := writeOutput(out, crypto.EncodePrivateKeyPEM(kp.Private), 0600); err != nil {
		return err
	}
	if out == "" {
		return nil
	}
	fmt.Printf("Scheme: %s\n", kp.Public.Scheme().CodeName())
	fmt.Printf("Private Key: written to %s, keep this secret\n", out)
	fmt.Printf("Public Key (base58): share or publish this\n\t%s\n", crypto.PublicKeyToBase58(kp.Public))
	fmt.Printf("Short Identifier: %s\n", crypto.ShortString(kp.Public))
	return nil
}

func runKeyInspect(cctx *cli.Context) error {
	path := cctx.Args().First()
	if path == "" {
		return fmt.Errorf("need to provide key file as an argument")
	}
	data, err := readInput(path)
	if err != nil {
		return err
	}

	var pub crypto.PublicKey
	if priv, err := crypto.DecodePrivateKeyPEM(data); err == nil {
		fmt.Printf("Type: private key\n")
		if err := crypto.ValidatePrivateKey(priv); err != nil {
			fmt.Printf("Validation: FAILED (%v)\n", err)
		} else {
			fmt.Printf("Validation: ok\n")
		}
		pub = priv.PublicKey()
	} else if pub, err = parsePublicKey(data); err == nil {
		fmt.Printf("Type: public key\n")
		if err := crypto.ValidatePublicKey(pub); err != nil {
			fmt.Printf("Validation: FAILED (%v)\n", err)
		} else {
			fmt.Printf("Validation: ok\n")
		}
	} else {
		return fmt.Errorf("unknown key encoding or type: %w", err)
	}

	s := pub.Scheme()
	fmt.Printf("Scheme: %s (id %d)\n", s.CodeName(), s.ID())
	fmt.Printf("Algorithm: %s\n", s.AlgorithmID())
	if onCurve, err := crypto.IsOnCurve(s, pub); err == nil {
		fmt.Printf("On Curve: %t\n", onCurve)
	}
	fmt.Printf("Public Key (base58): %s\n", crypto.PublicKeyToBase58(pub))
	fmt.Printf("Short Identifier: %s\n", crypto.ShortString(pub))
	return nil
}

func runKeyDerive(cctx *cli.Context) error {
	priv, err := loadPrivateKey(cctx.String("key"))
	if err != nil {
		return err
	}
	seed, err := hex.DecodeString(cctx.String("seed"))
	if err != nil {
		return fmt.Errorf("seed: %w", err)
	}
	kp, err := crypto.DeriveKeyPairFromKey(priv, seed)
	if err != nil {
		return err
	}
	return writeKeyPair(cctx.String("out"), kp)
}

func runKeyFromEntropy(cctx *cli.Context) error {
	arg := cctx.Args().First()
	entropy, ok := new(big.Int).SetString(arg, 0)
	if !ok {
		return fmt.Errorf("not an integer: %q", arg)
	}
	kp, err := crypto.EntropyToKeyPair(crypto.EdDSAEd25519SHA512(), entropy)
	if err != nil {
		return err
	}
	return writeKeyPair(cctx.String("out"), kp)
}
