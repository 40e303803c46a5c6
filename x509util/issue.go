package x509util

import (
	"crypto/x509/pkix"
	"fmt"
	"log/slog"
	"time"

	"github.com/bluesky-social/ledgercrypto/crypto"
)

// Builds a certificate for subjectPub and signs it with signer. No self-checks are run; see [IssueCertificateWithKeyPair].
func IssueCertificate(certType CertificateType, issuer pkix.Name, signer ContentSigner, subject pkix.Name, subjectPub crypto.PublicKey, window Window, nc *NameConstraints) (*Certificate, error) {
	cb, err := BuildCertificateTemplate(certType, issuer, subject, subjectPub, window, nc)
	if err != nil {
		return nil, err
	}
	cert, err := cb.Sign(signer)
	if err != nil {
		return nil, err
	}
	certificatesIssued.WithLabelValues(certType.String()).Inc()
	slog.Debug("issued certificate", "type", certType, "subject", subject.String(), "issuer", issuer.String(), "serial", cert.SerialNumber.Text(16), "scheme", signer.Scheme().CodeName())
	return cert, nil
}

// Like [IssueCertificate], signing with issuerKP.Private. The result must be valid now and verify under issuerKP.Public, otherwise ErrCertificateBuild is returned.
func IssueCertificateWithKeyPair(certType CertificateType, issuer pkix.Name, issuerKP *crypto.KeyPair, subject pkix.Name, subjectPub crypto.PublicKey, window Window, nc *NameConstraints) (*Certificate, error) {
	if issuerKP == nil || issuerKP.Private == nil || issuerKP.Public == nil {
		return nil, fmt.Errorf("%w: incomplete issuer key pair", crypto.ErrInvalidKey)
	}
	signer, err := NewContentSigner(issuerKP.Private)
	if err != nil {
		return nil, err
	}
	cert, err := IssueCertificate(certType, issuer, signer, subject, subjectPub, window, nc)
	if err != nil {
		return nil, err
	}
	if err := cert.CheckValidity(time.Now()); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrCertificateBuild, err)
	}
	if err := cert.CheckSignature(issuerKP.Public); err != nil {
		return nil, fmt.Errorf("%w: signature does not verify under the issuer key: %w", ErrCertificateBuild, err)
	}
	return cert, nil
}

// Issues a root CA certificate for kp, signed by kp itself.
func CreateSelfSignedCACertificate(subject pkix.Name, kp *crypto.KeyPair, window Window) (*Certificate, error) {
	if kp == nil {
		return nil, fmt.Errorf("%w: nil key pair", crypto.ErrInvalidKey)
	}
	return IssueCertificateWithKeyPair(RootCA, subject, kp, subject, kp.Public, window, nil)
}
