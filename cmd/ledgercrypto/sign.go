package main

import (
	"encoding/hex"
	"fmt"
	"log/slog"
	"strings"

	"github.com/bluesky-social/ledgercrypto/crypto"

	"github.com/urfave/cli/v2"
)

var cmdSign = &cli.Command{
	Name:  "sign",
	Usage: "sign a message file, printing the hex-encoded signature",
	Flags: []cli.Flag{
		&cli.StringFlag{
			Name:     "key",
			Usage:    "private key PEM file",
			Required: true,
		},
		&cli.StringFlag{
			Name:  "in",
			Usage: "message file ('-' for stdin)",
			Value: "-",
		},
		&cli.BoolFlag{
			Name:  "transaction",
			Usage: "produce a transaction signature whose metadata carries the message",
		},
	},
	Action: runSign,
}

var cmdVerify = &cli.Command{
	Name:  "verify",
	Usage: "verify a hex-encoded signature over a message file",
	Flags: []cli.Flag{
		&cli.StringFlag{
			Name:     "pub",
			Usage:    "public key file (PEM or base58); a private key PEM also works",
			Required: true,
		},
		&cli.StringFlag{
			Name:     "sig",
			Usage:    "hex-encoded signature",
			Required: true,
		},
		&cli.StringFlag{
			Name:  "in",
			Usage: "message file ('-' for stdin); ignored with --transaction",
			Value: "-",
		},
		&cli.BoolFlag{
			Name:  "transaction",
			Usage: "the signature is a transaction signature",
		},
	},
	Action: runVerify,
}

func runSign(cctx *cli.Context) error {
	priv, err := loadPrivateKey(cctx.String("key"))
	if err != nil {
		return err
	}
	msg, err := readInput(cctx.String("in"))
	if err != nil {
		return err
	}

	if cctx.Bool("transaction") {
		ts, err := crypto.SignTransaction(priv, crypto.SignatureMetadata{
			SchemeCodeName: priv.Scheme().CodeName(),
			PublicKey:      priv.PublicKey(),
			Extra:          msg,
		})
		if err != nil {
			return err
		}
		out, err := ts.Bytes()
		if err != nil {
			return err
		}
		fmt.Println(hex.EncodeToString(out))
		return nil
	}

	sig, err := crypto.Sign(priv, msg)
	if err != nil {
		return err
	}
	slog.Debug("signed message", "scheme", priv.Scheme().CodeName(), "len", len(msg))
	fmt.Println(hex.EncodeToString(sig))
	return nil
}

func runVerify(cctx *cli.Context) error {
	pub, err := loadPublicKey(cctx.String("pub"))
	if err != nil {
		return err
	}
	sig, err := hex.DecodeString(strings.TrimSpace(cctx.String("sig")))
	if err != nil {
		return fmt.Errorf("signature: %w", err)
	}

	if cctx.Bool("transaction") {
		ts, err := crypto.ParseTransactionSignature(sig)
		if err != nil {
			return err
		}
		if err := crypto.VerifyTransactionSignature(pub, ts); err != nil {
			return err
		}
		fmt.Printf("valid transaction signature by %s over %d bytes of metadata\n", crypto.ShortString(ts.By()), len(ts.Metadata.Extra))
		return nil
	}

	msg, err := readInput(cctx.String("in"))
	if err != nil {
		return err
	}
	if err := crypto.VerifyByKey(pub, sig, msg); err != nil {
		return err
	}
	fmt.Println("valid signature")
	return nil
}
