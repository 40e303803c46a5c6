package x509util

import (
	"bytes"
	"crypto/x509"
	"crypto/x509/pkix"
	"encoding/asn1"
	"fmt"
	"math/big"
	"time"

	"github.com/bluesky-social/ledgercrypto/crypto"

	"golang.org/x/crypto/cryptobyte"
	cryptobyte_asn1 "golang.org/x/crypto/cryptobyte/asn1"
)

// A parsed X.509 v3 certificate whose subject key belongs to one of the registered signature schemes.
//
// The standard library parser rejects secp256k1 and SLH-DSA subject keys, so certificates are parsed here and the public key is decoded through the scheme registry. [Certificate.X509] gives the standard library view where one exists.
type Certificate struct {
	Raw                []byte
	RawTBSCertificate  []byte
	RawIssuer          []byte
	RawSubject         []byte
	SerialNumber       *big.Int
	Issuer             pkix.Name
	Subject            pkix.Name
	NotBefore          time.Time
	NotAfter           time.Time
	PublicKey          crypto.PublicKey
	SignatureAlgorithm crypto.AlgorithmIdentifier
	Signature          []byte

	BasicConstraintsValid bool
	IsCA                  bool
	KeyUsage              x509.KeyUsage
	ExtKeyUsage           []asn1.ObjectIdentifier
	SubjectKeyId          []byte
	AuthorityKeyId        []byte
	NameConstraints       *NameConstraints

	// All extensions, including those parsed into the fields above.
	Extensions []pkix.Extension
}

func invalidCertificate(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrInvalidCertificate, fmt.Sprintf(format, args...))
}

// Parses a single DER certificate. Trailing data is an error.
func ParseCertificate(der []byte) (*Certificate, error) {
	input := cryptobyte.String(der)
	var certSeq cryptobyte.String
	if !input.ReadASN1Element(&certSeq, cryptobyte_asn1.SEQUENCE) || !input.Empty() {
		return nil, invalidCertificate("malformed certificate")
	}
	cert := &Certificate{Raw: bytes.Clone(certSeq)}

	var body, tbsElem cryptobyte.String
	if !certSeq.ReadASN1(&body, cryptobyte_asn1.SEQUENCE) || !body.ReadASN1Element(&tbsElem, cryptobyte_asn1.SEQUENCE) {
		return nil, invalidCertificate("malformed tbs certificate")
	}
	cert.RawTBSCertificate = bytes.Clone(tbsElem)

	outerAlg, err := crypto.ParseAlgorithmIdentifier(&body)
	if err != nil {
		return nil, invalidCertificate("signature algorithm: %v", err)
	}
	if !body.ReadASN1BitStringAsBytes(&cert.Signature) || !body.Empty() {
		return nil, invalidCertificate("malformed signature")
	}
	cert.Signature = bytes.Clone(cert.Signature)

	if err := cert.parseTBS(tbsElem); err != nil {
		return nil, err
	}
	if !outerAlg.Equal(cert.SignatureAlgorithm) {
		return nil, invalidCertificate("outer signature algorithm %s does not match %s", outerAlg, cert.SignatureAlgorithm)
	}
	return cert, nil
}

func readTime(s *cryptobyte.String, out *time.Time) bool {
	switch {
	case s.PeekASN1Tag(cryptobyte_asn1.UTCTime):
		return s.ReadASN1UTCTime(out)
	case s.PeekASN1Tag(cryptobyte_asn1.GeneralizedTime):
		return s.ReadASN1GeneralizedTime(out)
	default:
		return false
	}
}

func (c *Certificate) parseTBS(tbsElem cryptobyte.String) error {
	var tbs cryptobyte.String
	if !tbsElem.ReadASN1(&tbs, cryptobyte_asn1.SEQUENCE) {
		return invalidCertificate("malformed tbs certificate")
	}

	var version int64
	var versionStr cryptobyte.String
	var hasVersion bool
	if !tbs.ReadOptionalASN1(&versionStr, &hasVersion, tagVersion) {
		return invalidCertificate("malformed version")
	}
	if hasVersion && !versionStr.ReadASN1Integer(&version) {
		return invalidCertificate("malformed version")
	}
	if version != 2 {
		return invalidCertificate("unsupported certificate version %d", version+1)
	}

	c.SerialNumber = new(big.Int)
	if !tbs.ReadASN1Integer(c.SerialNumber) {
		return invalidCertificate("malformed serial number")
	}

	alg, err := crypto.ParseAlgorithmIdentifier(&tbs)
	if err != nil {
		return invalidCertificate("signature algorithm: %v", err)
	}
	c.SignatureAlgorithm = alg

	var issuer, validity, subject, spki cryptobyte.String
	if !tbs.ReadASN1Element(&issuer, cryptobyte_asn1.SEQUENCE) {
		return invalidCertificate("malformed issuer")
	}
	c.RawIssuer = bytes.Clone(issuer)
	if c.Issuer, _, err = parseName(issuer); err != nil {
		return invalidCertificate("issuer: %v", err)
	}

	if !tbs.ReadASN1(&validity, cryptobyte_asn1.SEQUENCE) ||
		!readTime(&validity, &c.NotBefore) ||
		!readTime(&validity, &c.NotAfter) ||
		!validity.Empty() {
		return invalidCertificate("malformed validity")
	}

	if !tbs.ReadASN1Element(&subject, cryptobyte_asn1.SEQUENCE) {
		return invalidCertificate("malformed subject")
	}
	c.RawSubject = bytes.Clone(subject)
	if c.Subject, _, err = parseName(subject); err != nil {
		return invalidCertificate("subject: %v", err)
	}

	if !tbs.ReadASN1Element(&spki, cryptobyte_asn1.SEQUENCE) {
		return invalidCertificate("malformed subject public key info")
	}
	if c.PublicKey, err = crypto.DecodePublicKey(spki); err != nil {
		return fmt.Errorf("%w: subject public key: %w", ErrInvalidCertificate, err)
	}

	if !tbs.SkipOptionalASN1(tagIssuerUniqueID) || !tbs.SkipOptionalASN1(tagSubjectUniqueID) {
		return invalidCertificate("malformed unique identifier")
	}

	var extsOuter cryptobyte.String
	var hasExts bool
	if !tbs.ReadOptionalASN1(&extsOuter, &hasExts, tagExtensions) {
		return invalidCertificate("malformed extensions")
	}
	if !tbs.Empty() {
		return invalidCertificate("trailing data in tbs certificate")
	}
	if hasExts {
		return c.parseExtensions(extsOuter)
	}
	return nil
}

func (c *Certificate) parseExtensions(extsOuter cryptobyte.String) error {
	var exts cryptobyte.String
	if !extsOuter.ReadASN1(&exts, cryptobyte_asn1.SEQUENCE) || !extsOuter.Empty() {
		return invalidCertificate("malformed extensions")
	}
	seen := make(map[string]bool)
	for !exts.Empty() {
		var extSeq cryptobyte.String
		var ext pkix.Extension
		if !exts.ReadASN1(&extSeq, cryptobyte_asn1.SEQUENCE) || !extSeq.ReadASN1ObjectIdentifier(&ext.Id) {
			return invalidCertificate("malformed extension")
		}
		if extSeq.PeekASN1Tag(cryptobyte_asn1.BOOLEAN) && !extSeq.ReadASN1Boolean(&ext.Critical) {
			return invalidCertificate("malformed extension criticality")
		}
		var value cryptobyte.String
		if !extSeq.ReadASN1(&value, cryptobyte_asn1.OCTET_STRING) || !extSeq.Empty() {
			return invalidCertificate("malformed extension value")
		}
		ext.Value = bytes.Clone(value)
		if seen[ext.Id.String()] {
			return invalidCertificate("duplicate extension %s", ext.Id)
		}
		seen[ext.Id.String()] = true
		if err := c.applyExtension(ext); err != nil {
			return invalidCertificate("extension %s: %v", ext.Id, err)
		}
		c.Extensions = append(c.Extensions, ext)
	}
	return nil
}

func (c *Certificate) applyExtension(ext pkix.Extension) error {
	val := cryptobyte.String(ext.Value)
	switch {
	case ext.Id.Equal(OIDExtensionBasicConstraints):
		var seq cryptobyte.String
		if !val.ReadASN1(&seq, cryptobyte_asn1.SEQUENCE) {
			return fmt.Errorf("expected SEQUENCE")
		}
		if seq.PeekASN1Tag(cryptobyte_asn1.BOOLEAN) && !seq.ReadASN1Boolean(&c.IsCA) {
			return fmt.Errorf("bad cA flag")
		}
		c.BasicConstraintsValid = true
	case ext.Id.Equal(OIDExtensionKeyUsage):
		var bits asn1.BitString
		if !val.ReadASN1BitString(&bits) {
			return fmt.Errorf("expected BIT STRING")
		}
		for i := 0; i < 9; i++ {
			if bits.At(i) != 0 {
				c.KeyUsage |= 1 << i
			}
		}
	case ext.Id.Equal(OIDExtensionExtendedKeyUsage):
		var seq cryptobyte.String
		if !val.ReadASN1(&seq, cryptobyte_asn1.SEQUENCE) {
			return fmt.Errorf("expected SEQUENCE")
		}
		for !seq.Empty() {
			var oid asn1.ObjectIdentifier
			if !seq.ReadASN1ObjectIdentifier(&oid) {
				return fmt.Errorf("bad purpose")
			}
			c.ExtKeyUsage = append(c.ExtKeyUsage, oid)
		}
	case ext.Id.Equal(OIDExtensionSubjectKeyID):
		var keyID []byte
		if !val.ReadASN1Bytes(&keyID, cryptobyte_asn1.OCTET_STRING) {
			return fmt.Errorf("expected OCTET STRING")
		}
		c.SubjectKeyId = bytes.Clone(keyID)
	case ext.Id.Equal(OIDExtensionAuthorityKeyID):
		var seq cryptobyte.String
		var keyID []byte
		var present bool
		if !val.ReadASN1(&seq, cryptobyte_asn1.SEQUENCE) || !seq.ReadOptionalASN1((*cryptobyte.String)(&keyID), &present, tagKeyIdentifier) {
			return fmt.Errorf("bad authority key identifier")
		}
		if present {
			c.AuthorityKeyId = bytes.Clone(keyID)
		}
	case ext.Id.Equal(OIDExtensionNameConstraints):
		nc, err := parseNameConstraints(ext.Value)
		if err != nil {
			return err
		}
		c.NameConstraints = nc
		return nil
	default:
		if ext.Critical {
			return fmt.Errorf("unhandled critical extension")
		}
		return nil
	}
	if !val.Empty() {
		return fmt.Errorf("trailing data")
	}
	return nil
}

// Verifies the certificate's signature under pub. The signature algorithm must be the one pub's scheme writes.
func (c *Certificate) CheckSignature(pub crypto.PublicKey) error {
	if pub == nil {
		return fmt.Errorf("%w: nil public key", crypto.ErrInvalidKey)
	}
	s := pub.Scheme()
	if !c.SignatureAlgorithm.Equal(s.SignatureAlgorithmID()) {
		return fmt.Errorf("%w: certificate signed with %s, key scheme %s expects %s", crypto.ErrVerificationFailed, c.SignatureAlgorithm, s.CodeName(), s.SignatureAlgorithmID())
	}
	return crypto.Verify(s, pub, c.Signature, c.RawTBSCertificate)
}

// Verifies that parent issued c: parent must be a CA allowed to sign certificates, its subject must be c's issuer, and its key must verify c's signature.
func (c *Certificate) CheckSignatureFrom(parent *Certificate) error {
	if !parent.BasicConstraintsValid || !parent.IsCA {
		return invalidCertificate("issuer %q is not a CA", parent.Subject.String())
	}
	if parent.KeyUsage != 0 && parent.KeyUsage&x509.KeyUsageCertSign == 0 {
		return invalidCertificate("issuer %q may not sign certificates", parent.Subject.String())
	}
	if !bytes.Equal(c.RawIssuer, parent.RawSubject) {
		return invalidCertificate("issuer %q does not match parent subject %q", c.Issuer.String(), parent.Subject.String())
	}
	return c.CheckSignature(parent.PublicKey)
}

// Fails unless now lies within the certificate's validity period.
func (c *Certificate) CheckValidity(now time.Time) error {
	if now.Before(c.NotBefore) {
		return invalidCertificate("not valid before %s", c.NotBefore.Format(time.RFC3339))
	}
	if now.After(c.NotAfter) {
		return invalidCertificate("expired at %s", c.NotAfter.Format(time.RFC3339))
	}
	return nil
}

func (c *Certificate) Equal(other *Certificate) bool {
	return other != nil && bytes.Equal(c.Raw, other.Raw)
}

// Standard library view of the certificate. Fails for subject keys the standard library cannot represent (secp256k1).
func (c *Certificate) X509() (*x509.Certificate, error) {
	return x509.ParseCertificate(c.Raw)
}
