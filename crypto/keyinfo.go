package crypto

import (
	"encoding/asn1"
	"fmt"

	"golang.org/x/crypto/cryptobyte"
	cryptobyte_asn1 "golang.org/x/crypto/cryptobyte/asn1"
)

// Outer fields of a PKCS#8 PrivateKeyInfo / OneAsymmetricKey structure.
type privateKeyInfo struct {
	Algorithm  AlgorithmIdentifier
	PrivateKey []byte // contents of the privateKey OCTET STRING
	Raw        []byte
}

// Outer fields of a SubjectPublicKeyInfo structure.
type publicKeyInfo struct {
	Algorithm AlgorithmIdentifier
	PublicKey []byte // contents of the subjectPublicKey BIT STRING
	Raw       []byte
}

func parsePrivateKeyInfo(der []byte) (*privateKeyInfo, error) {
	input := cryptobyte.String(der)
	var seq cryptobyte.String
	if !input.ReadASN1(&seq, cryptobyte_asn1.SEQUENCE) || !input.Empty() {
		return nil, fmt.Errorf("%w: expected a single PKCS#8 SEQUENCE", ErrMalformedKey)
	}
	var version int
	if !seq.ReadASN1Integer(&version) || (version != 0 && version != 1) {
		return nil, fmt.Errorf("%w: unsupported PKCS#8 version", ErrMalformedKey)
	}
	alg, err := ParseAlgorithmIdentifier(&seq)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrMalformedKey, err)
	}
	var priv cryptobyte.String
	if !seq.ReadASN1(&priv, cryptobyte_asn1.OCTET_STRING) {
		return nil, fmt.Errorf("%w: expected privateKey OCTET STRING", ErrMalformedKey)
	}
	// attributes [0] and publicKey [1] (version 1) are tolerated but ignored
	return &privateKeyInfo{
		Algorithm:  alg,
		PrivateKey: []byte(priv),
		Raw:        der,
	}, nil
}

func parsePublicKeyInfo(der []byte) (*publicKeyInfo, error) {
	input := cryptobyte.String(der)
	var seq cryptobyte.String
	if !input.ReadASN1(&seq, cryptobyte_asn1.SEQUENCE) || !input.Empty() {
		return nil, fmt.Errorf("%w: expected a single SubjectPublicKeyInfo SEQUENCE", ErrMalformedKey)
	}
	alg, err := ParseAlgorithmIdentifier(&seq)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrMalformedKey, err)
	}
	var bits asn1.BitString
	if !seq.ReadASN1BitString(&bits) || !seq.Empty() {
		return nil, fmt.Errorf("%w: expected subjectPublicKey BIT STRING", ErrMalformedKey)
	}
	if bits.BitLength%8 != 0 {
		return nil, fmt.Errorf("%w: subjectPublicKey is not byte aligned", ErrMalformedKey)
	}
	return &publicKeyInfo{
		Algorithm: alg,
		PublicKey: bits.RightAlign(),
		Raw:       der,
	}, nil
}

func marshalPrivateKeyInfo(alg AlgorithmIdentifier, privateKey []byte) ([]byte, error) {
	b := cryptobyte.NewBuilder(nil)
	b.AddASN1(cryptobyte_asn1.SEQUENCE, func(b *cryptobyte.Builder) {
		b.AddASN1Int64(0)
		alg.MarshalCryptobyte(b)
		b.AddASN1OctetString(privateKey)
	})
	return b.Bytes()
}

func marshalPublicKeyInfo(alg AlgorithmIdentifier, publicKey []byte) ([]byte, error) {
	b := cryptobyte.NewBuilder(nil)
	b.AddASN1(cryptobyte_asn1.SEQUENCE, func(b *cryptobyte.Builder) {
		alg.MarshalCryptobyte(b)
		b.AddASN1BitString(publicKey)
	})
	return b.Bytes()
}
