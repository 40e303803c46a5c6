package x509util

import (
	"fmt"
	"time"
)

// Validates chain, ordered leaf first, against the trusted root.
//
// Every certificate must be valid now and signed by the next one up, the last by root. Every issuer must be a CA, and directory name constraints of each CA apply to all certificates below it.
func ValidateCertificateChain(root *Certificate, chain ...*Certificate) error {
	if root == nil {
		return invalidCertificate("no trusted root")
	}
	now := time.Now()
	if err := root.CheckValidity(now); err != nil {
		return fmt.Errorf("root %q: %w", root.Subject.String(), err)
	}
	if err := root.CheckSignatureFrom(root); err != nil {
		return fmt.Errorf("root %q is not a self-signed CA: %w", root.Subject.String(), err)
	}

	// walk from the root downwards so constraints accumulate
	path := make([]*Certificate, 0, len(chain)+1)
	path = append(path, root)
	for i := len(chain) - 1; i >= 0; i-- {
		path = append(path, chain[i])
	}
	for i := 1; i < len(path); i++ {
		cert, parent := path[i], path[i-1]
		if cert == nil {
			return invalidCertificate("nil certificate in chain")
		}
		if err := cert.CheckValidity(now); err != nil {
			return fmt.Errorf("%q: %w", cert.Subject.String(), err)
		}
		if err := cert.CheckSignatureFrom(parent); err != nil {
			return fmt.Errorf("%q: %w", cert.Subject.String(), err)
		}
		_, subject, err := parseName(cert.RawSubject)
		if err != nil {
			return invalidCertificate("subject: %v", err)
		}
		for _, ca := range path[:i] {
			if ca.NameConstraints == nil {
				continue
			}
			if err := ca.NameConstraints.permitsDirectoryName(subject); err != nil {
				return invalidCertificate("name constraints of %q: %v", ca.Subject.String(), err)
			}
		}
	}
	return nil
}
