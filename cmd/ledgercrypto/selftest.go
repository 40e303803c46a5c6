package main

import (
	"bytes"
	"crypto/x509/pkix"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/bluesky-social/ledgercrypto/crypto"
	"github.com/bluesky-social/ledgercrypto/x509util"

	"github.com/urfave/cli/v2"
	"golang.org/x/sync/errgroup"
)

var cmdSelfTest = &cli.Command{
	Name:  "selftest",
	Usage: "exercise every supported scheme end to end",
	Flags: []cli.Flag{
		&cli.IntFlag{
			Name:  "rounds",
			Usage: "sign/verify rounds per scheme",
			Value: 8,
		},
	},
	Action: runSelfTest,
}

func runSelfTest(cctx *cli.Context) error {
	rounds := cctx.Int("rounds")
	schemes := crypto.SupportedSchemes()
	results := make([]time.Duration, len(schemes))

	eg, _ := errgroup.WithContext(cctx.Context)
	for i, s := range schemes {
		eg.Go(func() error {
			start := time.Now()
			if err := selfTestScheme(s, rounds); err != nil {
				return fmt.Errorf("%s: %w", s.CodeName(), err)
			}
			results[i] = time.Since(start)
			return nil
		})
	}
	if err := eg.Wait(); err != nil {
		return err
	}
	for i, s := range schemes {
		fmt.Printf("%-24s ok (%s)\n", s.CodeName(), results[i].Round(time.Millisecond))
	}
	return nil
}

func selfTestScheme(s *crypto.SignatureScheme, rounds int) error {
	kp, err := crypto.GenerateKeyPair(s)
	if err != nil {
		return err
	}

	priv, err := crypto.DecodePrivateKey(kp.Private.Encoded())
	if err != nil {
		return fmt.Errorf("private key round trip: %w", err)
	}
	pub, err := crypto.DecodePublicKey(kp.Public.Encoded())
	if err != nil {
		return fmt.Errorf("public key round trip: %w", err)
	}
	if !priv.Equal(kp.Private) || !pub.Equal(kp.Public) {
		return fmt.Errorf("key round trip changed the key")
	}
	if err := crypto.ValidatePublicKey(pub); err != nil {
		return err
	}

	for r := 0; r < rounds; r++ {
		msg := []byte(fmt.Sprintf("selftest %s round %d", s.CodeName(), r))
		sig, err := crypto.Sign(priv, msg)
		if err != nil {
			return err
		}
		if err := crypto.Verify(s, pub, sig, msg); err != nil {
			return err
		}
		sig[len(sig)-1] ^= 0x01
		if ok, err := crypto.IsValid(s, pub, sig, msg); err != nil || ok {
			return fmt.Errorf("tampered signature accepted (err=%v)", err)
		}
	}

	if _, err := crypto.DeriveKeyPairFromKey(priv, []byte("selftest")); err != nil && !errors.Is(err, crypto.ErrUnsupportedOperation) {
		return fmt.Errorf("derivation: %w", err)
	}

	window, err := x509util.NewValidityWindow(time.Minute, time.Hour, nil)
	if err != nil {
		return err
	}
	cert, err := x509util.CreateSelfSignedCACertificate(pkix.Name{CommonName: s.CodeName()}, kp, window)
	if err != nil {
		return err
	}
	if err := x509util.ValidateCertificateChain(cert); err != nil {
		return err
	}
	csr, err := x509util.CreateCertificateSigningRequest(pkix.Name{CommonName: s.CodeName() + " request"}, "", kp, s)
	if err != nil {
		return err
	}
	if err := csr.CheckSignature(); err != nil {
		return err
	}
	if !bytes.Equal(csr.PublicKey.Encoded(), kp.Public.Encoded()) {
		return fmt.Errorf("certification request carries the wrong key")
	}
	slog.Info("scheme selftest passed", "scheme", s.CodeName(), "rounds", rounds)
	return nil
}
