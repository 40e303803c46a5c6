package x509util

import (
	"crypto/rand"
	"crypto/sha1"
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

// Certificate extension OIDs
var (
	OIDExtensionSubjectKeyID     = asn1.ObjectIdentifier{2, 5, 29, 14}
	OIDExtensionKeyUsage         = asn1.ObjectIdentifier{2, 5, 29, 15}
	OIDExtensionBasicConstraints = asn1.ObjectIdentifier{2, 5, 29, 19}
	OIDExtensionNameConstraints  = asn1.ObjectIdentifier{2, 5, 29, 30}
	OIDExtensionAuthorityKeyID   = asn1.ObjectIdentifier{2, 5, 29, 35}
	OIDExtensionExtendedKeyUsage = asn1.ObjectIdentifier{2, 5, 29, 37}
)

var (
	tagVersion         = cryptobyte_asn1.Tag(0).ContextSpecific().Constructed()
	tagExtensions      = cryptobyte_asn1.Tag(3).ContextSpecific().Constructed()
	tagKeyIdentifier   = cryptobyte_asn1.Tag(0).ContextSpecific()
	tagIssuerUniqueID  = cryptobyte_asn1.Tag(1).ContextSpecific()
	tagSubjectUniqueID = cryptobyte_asn1.Tag(2).ContextSpecific()
)

// serial numbers are drawn uniformly from [1, 2^127)
var serialLimit = new(big.Int).Lsh(big.NewInt(1), 127)

// An unsigned certificate: everything but the issuer's signature.
type CertificateBuilder struct {
	certType        CertificateType
	serial          *big.Int
	issuer          pkix.Name
	subject         pkix.Name
	subjectPub      crypto.PublicKey
	window          Window
	nameConstraints *NameConstraints
	subjectKeyID    []byte
}

// Prepares a certificate of the given type for subjectPub, with a fresh random serial number and the extensions that certType implies.
func BuildCertificateTemplate(certType CertificateType, issuer, subject pkix.Name, subjectPub crypto.PublicKey, window Window, nc *NameConstraints) (*CertificateBuilder, error) {
	if !certType.valid() {
		return nil, fmt.Errorf("unknown certificate type: %s", certType)
	}
	if subjectPub == nil {
		return nil, fmt.Errorf("%w: nil subject public key", crypto.ErrInvalidKey)
	}
	if err := window.check(); err != nil {
		return nil, err
	}
	ski, err := keyIdentifier(subjectPub)
	if err != nil {
		return nil, err
	}
	serial, err := randomSerial()
	if err != nil {
		return nil, err
	}
	return &CertificateBuilder{
		certType:        certType,
		serial:          serial,
		issuer:          issuer,
		subject:         subject,
		subjectPub:      subjectPub,
		window:          window,
		nameConstraints: nc,
		subjectKeyID:    ski,
	}, nil
}

func (cb *CertificateBuilder) Type() CertificateType  { return cb.certType }
func (cb *CertificateBuilder) SerialNumber() *big.Int { return new(big.Int).Set(cb.serial) }
func (cb *CertificateBuilder) SubjectKeyID() []byte   { return append([]byte(nil), cb.subjectKeyID...) }

func randomSerial() (*big.Int, error) {
	for {
		serial, err := rand.Int(rand.Reader, serialLimit)
		if err != nil {
			return nil, fmt.Errorf("generating serial number: %w", err)
		}
		if serial.Sign() > 0 {
			return serial, nil
		}
	}
}

// SHA-1 over the subjectPublicKey BIT STRING contents (RFC 5280 section 4.2.1.2, method 1).
func keyIdentifier(pub crypto.PublicKey) ([]byte, error) {
	input := cryptobyte.String(pub.Encoded())
	var spki, alg cryptobyte.String
	var bits []byte
	if !input.ReadASN1(&spki, cryptobyte_asn1.SEQUENCE) ||
		!spki.ReadASN1Element(&alg, cryptobyte_asn1.SEQUENCE) ||
		!spki.ReadASN1BitStringAsBytes(&bits) {
		return nil, fmt.Errorf("%w: cannot read subject public key", crypto.ErrMalformedKey)
	}
	sum := sha1.Sum(bits)
	return sum[:], nil
}

// Encodes a key usage set as a minimal DER BIT STRING.
func marshalKeyUsage(ku x509.KeyUsage) ([]byte, error) {
	var a [2]byte
	for i := 0; i < 9; i++ {
		if ku&(1<<i) != 0 {
			a[i/8] |= 0x80 >> (i % 8)
		}
	}
	n := 1
	if a[1] != 0 {
		n = 2
	}
	bitLen := n * 8
	for bitLen > 0 && a[(bitLen-1)/8]&(0x80>>((bitLen-1)%8)) == 0 {
		bitLen--
	}
	return asn1.Marshal(asn1.BitString{Bytes: a[:n], BitLength: bitLen})
}

func marshalExtKeyUsage(oids []asn1.ObjectIdentifier) ([]byte, error) {
	b := cryptobyte.NewBuilder(nil)
	b.AddASN1(cryptobyte_asn1.SEQUENCE, func(b *cryptobyte.Builder) {
		for _, oid := range oids {
			b.AddASN1ObjectIdentifier(oid)
		}
	})
	return b.Bytes()
}

func marshalBasicConstraints(isCA bool) ([]byte, error) {
	b := cryptobyte.NewBuilder(nil)
	b.AddASN1(cryptobyte_asn1.SEQUENCE, func(b *cryptobyte.Builder) {
		// DEFAULT FALSE is omitted under DER
		if isCA {
			b.AddASN1Boolean(true)
		}
	})
	return b.Bytes()
}

func marshalOctetString(v []byte) ([]byte, error) {
	b := cryptobyte.NewBuilder(nil)
	b.AddASN1OctetString(v)
	return b.Bytes()
}

func marshalAuthorityKeyID(keyID []byte) ([]byte, error) {
	b := cryptobyte.NewBuilder(nil)
	b.AddASN1(cryptobyte_asn1.SEQUENCE, func(b *cryptobyte.Builder) {
		b.AddASN1(tagKeyIdentifier, func(b *cryptobyte.Builder) {
			b.AddBytes(keyID)
		})
	})
	return b.Bytes()
}

func (cb *CertificateBuilder) extensions(authorityKeyID []byte) ([]pkix.Extension, error) {
	var exts []pkix.Extension
	add := func(id asn1.ObjectIdentifier, critical bool, value []byte, err error) error {
		if err != nil {
			return fmt.Errorf("encoding extension %s: %w", id, err)
		}
		exts = append(exts, pkix.Extension{Id: id, Critical: critical, Value: value})
		return nil
	}

	ski, err := marshalOctetString(cb.subjectKeyID)
	if err := add(OIDExtensionSubjectKeyID, false, ski, err); err != nil {
		return nil, err
	}
	aki, err := marshalAuthorityKeyID(authorityKeyID)
	if err := add(OIDExtensionAuthorityKeyID, false, aki, err); err != nil {
		return nil, err
	}
	bc, err := marshalBasicConstraints(cb.certType.IsCA())
	if err := add(OIDExtensionBasicConstraints, cb.certType.IsCA(), bc, err); err != nil {
		return nil, err
	}
	ku, err := marshalKeyUsage(cb.certType.KeyUsage())
	if err := add(OIDExtensionKeyUsage, false, ku, err); err != nil {
		return nil, err
	}
	eku, err := marshalExtKeyUsage(cb.certType.ExtKeyUsages())
	if err := add(OIDExtensionExtendedKeyUsage, false, eku, err); err != nil {
		return nil, err
	}
	if !cb.nameConstraints.empty() {
		nc, err := cb.nameConstraints.marshal()
		if err := add(OIDExtensionNameConstraints, true, nc, err); err != nil {
			return nil, err
		}
	}
	return exts, nil
}

// UTCTime through 2049, GeneralizedTime afterwards (RFC 5280 section 4.1.2.5).
func addTime(b *cryptobyte.Builder, t time.Time) {
	t = t.UTC()
	if t.Year() >= 1950 && t.Year() < 2050 {
		b.AddASN1UTCTime(t)
	} else {
		b.AddASN1GeneralizedTime(t)
	}
}

func (cb *CertificateBuilder) marshalTBS(alg crypto.AlgorithmIdentifier, authorityKeyID []byte) ([]byte, error) {
	issuer, err := marshalName(cb.issuer)
	if err != nil {
		return nil, fmt.Errorf("encoding issuer name: %w", err)
	}
	subject, err := marshalName(cb.subject)
	if err != nil {
		return nil, fmt.Errorf("encoding subject name: %w", err)
	}
	exts, err := cb.extensions(authorityKeyID)
	if err != nil {
		return nil, err
	}

	b := cryptobyte.NewBuilder(nil)
	b.AddASN1(cryptobyte_asn1.SEQUENCE, func(b *cryptobyte.Builder) {
		b.AddASN1(tagVersion, func(b *cryptobyte.Builder) {
			b.AddASN1Int64(2)
		})
		b.AddASN1BigInt(cb.serial)
		alg.MarshalCryptobyte(b)
		b.AddBytes(issuer)
		b.AddASN1(cryptobyte_asn1.SEQUENCE, func(b *cryptobyte.Builder) {
			addTime(b, cb.window.NotBefore)
			addTime(b, cb.window.NotAfter)
		})
		b.AddBytes(subject)
		b.AddBytes(cb.subjectPub.Encoded())
		b.AddASN1(tagExtensions, func(b *cryptobyte.Builder) {
			b.AddASN1(cryptobyte_asn1.SEQUENCE, func(b *cryptobyte.Builder) {
				for _, ext := range exts {
					b.AddASN1(cryptobyte_asn1.SEQUENCE, func(b *cryptobyte.Builder) {
						b.AddASN1ObjectIdentifier(ext.Id)
						if ext.Critical {
							b.AddASN1Boolean(true)
						}
						b.AddASN1OctetString(ext.Value)
					})
				}
			})
		})
	})
	return b.Bytes()
}

// Signs the certificate with signer, whose public key also supplies the authority key identifier.
func (cb *CertificateBuilder) Sign(signer ContentSigner) (*Certificate, error) {
	if signer == nil {
		return nil, fmt.Errorf("%w: nil signer", crypto.ErrInvalidKey)
	}
	aki, err := keyIdentifier(signer.PublicKey())
	if err != nil {
		return nil, err
	}
	alg := signer.AlgorithmID()
	tbs, err := cb.marshalTBS(alg, aki)
	if err != nil {
		return nil, fmt.Errorf("encoding certificate: %w", err)
	}
	sig, err := signer.Sign(tbs)
	if err != nil {
		return nil, err
	}

	b := cryptobyte.NewBuilder(nil)
	b.AddASN1(cryptobyte_asn1.SEQUENCE, func(b *cryptobyte.Builder) {
		b.AddBytes(tbs)
		alg.MarshalCryptobyte(b)
		b.AddASN1BitString(sig)
	})
	raw, err := b.Bytes()
	if err != nil {
		return nil, fmt.Errorf("encoding certificate: %w", err)
	}
	return ParseCertificate(raw)
}
