package x509util

import (
	"bytes"
	"crypto/x509/pkix"
	"encoding/asn1"
	"fmt"

	"github.com/bluesky-social/ledgercrypto/crypto"

	"golang.org/x/crypto/cryptobyte"
	cryptobyte_asn1 "golang.org/x/crypto/cryptobyte/asn1"
)

// PKCS#9 emailAddress
var OIDEmailAddress = asn1.ObjectIdentifier{1, 2, 840, 113549, 1, 9, 1}

var tagAttributes = cryptobyte_asn1.Tag(0).ContextSpecific().Constructed()

// A parsed PKCS#10 certification request.
type CertificateRequest struct {
	Raw                []byte
	RawRequestInfo     []byte
	RawSubject         []byte
	Subject            pkix.Name
	EmailAddress       string
	PublicKey          crypto.PublicKey
	SignatureAlgorithm crypto.AlgorithmIdentifier
	Signature          []byte
}

// Builds and signs a PKCS#10 request for kp under scheme. A non-empty email is carried as a PKCS#9 emailAddress attribute.
func CreateCertificateSigningRequest(subject pkix.Name, email string, kp *crypto.KeyPair, s *crypto.SignatureScheme) (*CertificateRequest, error) {
	if kp == nil || kp.Public == nil || kp.Private == nil {
		return nil, fmt.Errorf("%w: incomplete key pair", crypto.ErrInvalidKey)
	}
	if !crypto.IsSupported(s) {
		return nil, fmt.Errorf("%w: %s", crypto.ErrUnsupportedScheme, s)
	}
	if !s.Equal(kp.Private.Scheme()) {
		return nil, fmt.Errorf("%w: key pair is %s, requested %s", crypto.ErrSchemeMismatch, kp.Private.Scheme().CodeName(), s.CodeName())
	}
	signer, err := NewContentSigner(kp.Private)
	if err != nil {
		return nil, err
	}
	rawSubject, err := marshalName(subject)
	if err != nil {
		return nil, fmt.Errorf("encoding subject name: %w", err)
	}

	b := cryptobyte.NewBuilder(nil)
	b.AddASN1(cryptobyte_asn1.SEQUENCE, func(b *cryptobyte.Builder) {
		b.AddASN1Int64(0)
		b.AddBytes(rawSubject)
		b.AddBytes(kp.Public.Encoded())
		b.AddASN1(tagAttributes, func(b *cryptobyte.Builder) {
			if email == "" {
				return
			}
			b.AddASN1(cryptobyte_asn1.SEQUENCE, func(b *cryptobyte.Builder) {
				b.AddASN1ObjectIdentifier(OIDEmailAddress)
				b.AddASN1(cryptobyte_asn1.SET, func(b *cryptobyte.Builder) {
					b.AddASN1(cryptobyte_asn1.IA5String, func(b *cryptobyte.Builder) {
						b.AddBytes([]byte(email))
					})
				})
			})
		})
	})
	info, err := b.Bytes()
	if err != nil {
		return nil, fmt.Errorf("encoding certification request: %w", err)
	}
	sig, err := signer.Sign(info)
	if err != nil {
		return nil, err
	}

	b = cryptobyte.NewBuilder(nil)
	b.AddASN1(cryptobyte_asn1.SEQUENCE, func(b *cryptobyte.Builder) {
		b.AddBytes(info)
		signer.AlgorithmID().MarshalCryptobyte(b)
		b.AddASN1BitString(sig)
	})
	raw, err := b.Bytes()
	if err != nil {
		return nil, fmt.Errorf("encoding certification request: %w", err)
	}
	csrsCreated.WithLabelValues(s.CodeName()).Inc()
	return ParseCertificateRequest(raw)
}

// Parses a DER PKCS#10 request. Attributes other than emailAddress are ignored.
func ParseCertificateRequest(der []byte) (*CertificateRequest, error) {
	input := cryptobyte.String(der)
	var reqSeq cryptobyte.String
	if !input.ReadASN1Element(&reqSeq, cryptobyte_asn1.SEQUENCE) || !input.Empty() {
		return nil, invalidCertificate("malformed certification request")
	}
	csr := &CertificateRequest{Raw: bytes.Clone(reqSeq)}

	var body, infoElem, info cryptobyte.String
	if !reqSeq.ReadASN1(&body, cryptobyte_asn1.SEQUENCE) || !body.ReadASN1Element(&infoElem, cryptobyte_asn1.SEQUENCE) {
		return nil, invalidCertificate("malformed certification request info")
	}
	csr.RawRequestInfo = bytes.Clone(infoElem)

	alg, err := crypto.ParseAlgorithmIdentifier(&body)
	if err != nil {
		return nil, invalidCertificate("signature algorithm: %v", err)
	}
	csr.SignatureAlgorithm = alg
	if !body.ReadASN1BitStringAsBytes(&csr.Signature) || !body.Empty() {
		return nil, invalidCertificate("malformed signature")
	}
	csr.Signature = bytes.Clone(csr.Signature)

	var version int64
	var subject, spki, attrs cryptobyte.String
	if !infoElem.ReadASN1(&info, cryptobyte_asn1.SEQUENCE) ||
		!info.ReadASN1Integer(&version) ||
		!info.ReadASN1Element(&subject, cryptobyte_asn1.SEQUENCE) ||
		!info.ReadASN1Element(&spki, cryptobyte_asn1.SEQUENCE) ||
		!info.ReadASN1(&attrs, tagAttributes) ||
		!info.Empty() {
		return nil, invalidCertificate("malformed certification request info")
	}
	if version != 0 {
		return nil, invalidCertificate("unsupported certification request version %d", version)
	}
	csr.RawSubject = bytes.Clone(subject)
	if csr.Subject, _, err = parseName(subject); err != nil {
		return nil, invalidCertificate("subject: %v", err)
	}
	if csr.PublicKey, err = crypto.DecodePublicKey(spki); err != nil {
		return nil, fmt.Errorf("%w: subject public key: %w", ErrInvalidCertificate, err)
	}

	for !attrs.Empty() {
		var attr, values cryptobyte.String
		var oid asn1.ObjectIdentifier
		if !attrs.ReadASN1(&attr, cryptobyte_asn1.SEQUENCE) ||
			!attr.ReadASN1ObjectIdentifier(&oid) ||
			!attr.ReadASN1(&values, cryptobyte_asn1.SET) {
			return nil, invalidCertificate("malformed attribute")
		}
		if !oid.Equal(OIDEmailAddress) {
			continue
		}
		var email cryptobyte.String
		if !values.ReadASN1(&email, cryptobyte_asn1.IA5String) {
			return nil, invalidCertificate("malformed emailAddress attribute")
		}
		csr.EmailAddress = string(email)
	}
	return csr, nil
}

// Verifies the request's self-signature under its own subject key.
func (r *CertificateRequest) CheckSignature() error {
	s := r.PublicKey.Scheme()
	if !r.SignatureAlgorithm.Equal(s.SignatureAlgorithmID()) {
		return fmt.Errorf("%w: request signed with %s, key scheme %s expects %s", crypto.ErrVerificationFailed, r.SignatureAlgorithm, s.CodeName(), s.SignatureAlgorithmID())
	}
	return crypto.Verify(s, r.PublicKey, r.Signature, r.RawRequestInfo)
}
