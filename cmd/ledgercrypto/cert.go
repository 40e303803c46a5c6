package main

import (
	"crypto/x509/pkix"
	"fmt"
	"strings"
	"time"

	"github.com/bluesky-social/ledgercrypto/crypto"
	"github.com/bluesky-social/ledgercrypto/x509util"

	"github.com/urfave/cli/v2"
)

var subjectFlags = []cli.Flag{
	&cli.StringFlag{
		Name:     "cn",
		Usage:    "subject common name",
		Required: true,
	},
	&cli.StringFlag{
		Name:    "org",
		Usage:   "subject organization",
		EnvVars: []string{"LEDGERCRYPTO_ORG"},
	},
	&cli.StringFlag{
		Name:    "country",
		Usage:   "subject country code",
		EnvVars: []string{"LEDGERCRYPTO_COUNTRY"},
	},
}

var validityFlags = []cli.Flag{
	&cli.DurationFlag{
		Name:  "backdate",
		Usage: "start of validity, relative to now",
		Value: time.Hour,
	},
	&cli.DurationFlag{
		Name:  "validity",
		Usage: "end of validity, relative to now",
		Value: 365 * 24 * time.Hour,
	},
}

var outFlag = &cli.StringFlag{
	Name:    "out",
	Aliases: []string{"o"},
	Usage:   "PEM output path (stdout if unset)",
}

var cmdCert = &cli.Command{
	Name:  "cert",
	Usage: "sub-commands for X.509 certificates and certification requests",
	Subcommands: []*cli.Command{
		&cli.Command{
			Name:  "self-signed",
			Usage: "create a self-signed root CA certificate",
			Flags: append(append([]cli.Flag{
				&cli.StringFlag{
					Name:     "key",
					Usage:    "root private key PEM file",
					Required: true,
				},
				outFlag,
			}, subjectFlags...), validityFlags...),
			Action: runCertSelfSigned,
		},
		&cli.Command{
			Name:  "issue",
			Usage: "issue a certificate for a public key or certification request",
			Flags: append(append([]cli.Flag{
				&cli.StringFlag{
					Name:     "issuer-key",
					Usage:    "issuer private key PEM file",
					Required: true,
				},
				&cli.StringFlag{
					Name:     "issuer-cert",
					Usage:    "issuer certificate PEM file",
					Required: true,
				},
				&cli.StringFlag{
					Name:  "pub",
					Usage: "subject public key file (PEM or base58)",
				},
				&cli.StringFlag{
					Name:  "csr",
					Usage: "subject certification request PEM file; replaces --pub and the subject flags",
				},
				&cli.StringFlag{
					Name:  "type",
					Usage: "certificate type (eg: TLS, NODE_CA, INTERMEDIATE_CA)",
					Value: x509util.TLS.String(),
				},
				&cli.StringSliceFlag{
					Name:  "permit-dns",
					Usage: "permitted DNS subtree for subordinate certificates",
				},
				outFlag,
			}, subjectFlagsOptional()...), validityFlags...),
			Action: runCertIssue,
		},
		&cli.Command{
			Name:  "csr",
			Usage: "create a PKCS#10 certification request",
			Flags: append([]cli.Flag{
				&cli.StringFlag{
					Name:     "key",
					Usage:    "subject private key PEM file",
					Required: true,
				},
				&cli.StringFlag{
					Name:  "email",
					Usage: "contact email address",
				},
				outFlag,
			}, subjectFlags...),
			Action: runCertCSR,
		},
		&cli.Command{
			Name:      "inspect",
			Usage:     "print certificates or a certification request, and validate a chain",
			ArgsUsage: `<pem-file>`,
			Flags: []cli.Flag{
				&cli.StringFlag{
					Name:  "root",
					Usage: "trusted root certificate PEM file; validates the file as a leaf-first chain",
				},
			},
			Action: runCertInspect,
		},
	},
}

// The subject flags, without the required marker.
func subjectFlagsOptional() []cli.Flag {
	return []cli.Flag{
		&cli.StringFlag{Name: "cn", Usage: "subject common name"},
		&cli.StringFlag{Name: "org", Usage: "subject organization", EnvVars: []string{"LEDGERCRYPTO_ORG"}},
		&cli.StringFlag{Name: "country", Usage: "subject country code", EnvVars: []string{"LEDGERCRYPTO_COUNTRY"}},
	}
}

func subjectName(cctx *cli.Context) pkix.Name {
	var name pkix.Name
	name.CommonName = cctx.String("cn")
	if org := cctx.String("org"); org != "" {
		name.Organization = []string{org}
	}
	if c := cctx.String("country"); c != "" {
		name.Country = []string{c}
	}
	return name
}

func runCertSelfSigned(cctx *cli.Context) error {
	priv, err := loadPrivateKey(cctx.String("key"))
	if err != nil {
		return err
	}
	window, err := x509util.NewValidityWindow(cctx.Duration("backdate"), cctx.Duration("validity"), nil)
	if err != nil {
		return err
	}
	kp := &crypto.KeyPair{Private: priv, Public: priv.PublicKey()}
	cert, err := x509util.CreateSelfSignedCACertificate(subjectName(cctx), kp, window)
	if err != nil {
		return err
	}
	return writeOutput(cctx.String("out"), x509util.EncodeCertificatePEM(cert), 0644)
}

func runCertIssue(cctx *cli.Context) error {
	priv, err := loadPrivateKey(cctx.String("issuer-key"))
	if err != nil {
		return err
	}
	issuerData, err := readInput(cctx.String("issuer-cert"))
	if err != nil {
		return err
	}
	issuerChain, err := x509util.DecodeCertificatesPEM(issuerData)
	if err != nil {
		return err
	}
	issuerCert := issuerChain[0]

	certType, err := x509util.ParseCertificateType(cctx.String("type"))
	if err != nil {
		return err
	}

	var subject pkix.Name
	var subjectPub crypto.PublicKey
	switch {
	case cctx.String("csr") != "":
		data, err := readInput(cctx.String("csr"))
		if err != nil {
			return err
		}
		csr, err := x509util.DecodeCertificateRequestPEM(data)
		if err != nil {
			return err
		}
		if err := csr.CheckSignature(); err != nil {
			return fmt.Errorf("certification request: %w", err)
		}
		subject, subjectPub = csr.Subject, csr.PublicKey
	case cctx.String("pub") != "":
		if cctx.String("cn") == "" {
			return fmt.Errorf("need --cn with --pub")
		}
		subjectPub, err = loadPublicKey(cctx.String("pub"))
		if err != nil {
			return err
		}
		subject = subjectName(cctx)
	default:
		return fmt.Errorf("need either --pub or --csr")
	}

	window, err := x509util.NewValidityWindow(cctx.Duration("backdate"), cctx.Duration("validity"), issuerCert)
	if err != nil {
		return err
	}
	var nc *x509util.NameConstraints
	if dns := cctx.StringSlice("permit-dns"); len(dns) > 0 {
		nc = &x509util.NameConstraints{PermittedDNSDomains: dns}
	}

	issuerKP := &crypto.KeyPair{Private: priv, Public: issuerCert.PublicKey}
	cert, err := x509util.IssueCertificateWithKeyPair(certType, issuerCert.Subject, issuerKP, subject, subjectPub, window, nc)
	if err != nil {
		return err
	}
	// the new certificate is followed by the issuer's chain
	return writeOutput(cctx.String("out"), x509util.EncodeCertificatePEM(append([]*x509util.Certificate{cert}, issuerChain...)...), 0644)
}

func runCertCSR(cctx *cli.Context) error {
	priv, err := loadPrivateKey(cctx.String("key"))
	if err != nil {
		return err
	}
	kp := &crypto.KeyPair{Private: priv, Public: priv.PublicKey()}
	csr, err := x509util.CreateCertificateSigningRequest(subjectName(cctx), cctx.String("email"), kp, priv.Scheme())
	if err != nil {
		return err
	}
	return writeOutput(cctx.String("out"), x509util.EncodeCertificateRequestPEM(csr), 0644)
}

func runCertInspect(cctx *cli.Context) error {
	path := cctx.Args().First()
	if path == "" {
		return fmt.Errorf("need to provide a PEM file as an argument")
	}
	data, err := readInput(path)
	if err != nil {
		return err
	}

	if csr, err := x509util.DecodeCertificateRequestPEM(data); err == nil {
		fmt.Printf("Certification Request\n")
		fmt.Printf("\tSubject: %s\n", csr.Subject.String())
		if csr.EmailAddress != "" {
			fmt.Printf("\tEmail: %s\n", csr.EmailAddress)
		}
		fmt.Printf("\tScheme: %s\n", csr.PublicKey.Scheme().CodeName())
		fmt.Printf("\tPublic Key: %s\n", crypto.ShortString(csr.PublicKey))
		fmt.Printf("\tSignature: %s\n", verdict(csr.CheckSignature()))
		return nil
	}

	certs, err := x509util.DecodeCertificatesPEM(data)
	if err != nil {
		return err
	}
	now := time.Now()
	for i, c := range certs {
		fmt.Printf("Certificate %d\n", i)
		fmt.Printf("\tSubject: %s\n", c.Subject.String())
		fmt.Printf("\tIssuer: %s\n", c.Issuer.String())
		fmt.Printf("\tSerial: %s\n", c.SerialNumber.Text(16))
		fmt.Printf("\tValidity: %s to %s (%s)\n", c.NotBefore.Format(time.RFC3339), c.NotAfter.Format(time.RFC3339), verdict(c.CheckValidity(now)))
		fmt.Printf("\tScheme: %s\n", c.PublicKey.Scheme().CodeName())
		fmt.Printf("\tPublic Key: %s\n", crypto.ShortString(c.PublicKey))
		fmt.Printf("\tCA: %t\n", c.IsCA)
		fmt.Printf("\tKey Usage: %s\n", describeKeyUsage(c))
		if c.NameConstraints != nil {
			fmt.Printf("\tPermitted DNS: %s\n", strings.Join(c.NameConstraints.PermittedDNSDomains, ", "))
		}
		if i+1 < len(certs) {
			fmt.Printf("\tSigned by next: %s\n", verdict(c.CheckSignatureFrom(certs[i+1])))
		}
	}

	if rootPath := cctx.String("root"); rootPath != "" {
		rootData, err := readInput(rootPath)
		if err != nil {
			return err
		}
		roots, err := x509util.DecodeCertificatesPEM(rootData)
		if err != nil {
			return err
		}
		chain := certs
		// a chain file usually ends with the root itself
		if last := chain[len(chain)-1]; last.Equal(roots[0]) {
			chain = chain[:len(chain)-1]
		}
		if err := x509util.ValidateCertificateChain(roots[0], chain...); err != nil {
			return err
		}
		fmt.Printf("Chain: valid up to %s\n", roots[0].Subject.String())
	}
	return nil
}

func verdict(err error) string {
	if err != nil {
		return "FAILED: " + err.Error()
	}
	return "ok"
}

func describeKeyUsage(c *x509util.Certificate) string {
	names := []string{"digitalSignature", "contentCommitment", "keyEncipherment", "dataEncipherment", "keyAgreement", "keyCertSign", "cRLSign", "encipherOnly", "decipherOnly"}
	var out []string
	for i, n := range names {
		if c.KeyUsage&(1<<i) != 0 {
			out = append(out, n)
		}
	}
	return strings.Join(out, ", ")
}
