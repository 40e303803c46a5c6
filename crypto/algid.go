package crypto

import (
	"encoding/asn1"
	"fmt"
	"slices"

	"golang.org/x/crypto/cryptobyte"
	cryptobyte_asn1 "golang.org/x/crypto/cryptobyte/asn1"
)

// Key algorithm OIDs
var (
	OIDPublicKeyRSA     = asn1.ObjectIdentifier{1, 2, 840, 113549, 1, 1, 1}
	OIDPublicKeyECDSA   = asn1.ObjectIdentifier{1, 2, 840, 10045, 2, 1}
	OIDPublicKeyEd25519 = asn1.ObjectIdentifier{1, 3, 101, 112}

	// Pre-RFC 8410 Ed25519 identifier, still emitted by some older toolkits.
	OIDPublicKeyEd25519Legacy = asn1.ObjectIdentifier{1, 3, 6, 1, 4, 1, 11591, 15, 1}

	// id-slh-dsa-sha2-256f (FIPS 205)
	OIDSLHDSASHA2256f = asn1.ObjectIdentifier{2, 16, 840, 1, 101, 3, 4, 3, 25}
)

// Named curve OIDs
var (
	OIDNamedCurveSecp256k1 = asn1.ObjectIdentifier{1, 3, 132, 0, 10}
	OIDNamedCurveP256      = asn1.ObjectIdentifier{1, 2, 840, 10045, 3, 1, 7}
)

// Signature algorithm OIDs, as placed in certificates and certification requests.
var (
	OIDSignatureSHA256WithRSA   = asn1.ObjectIdentifier{1, 2, 840, 113549, 1, 1, 11}
	OIDSignatureECDSAWithSHA256 = asn1.ObjectIdentifier{1, 2, 840, 10045, 4, 3, 2}
	OIDSignatureEd25519         = OIDPublicKeyEd25519
	OIDSignatureSLHDSASHA2256f  = OIDSLHDSASHA2256f
)

// AlgorithmIdentifier is the (algorithm, parameters) pair embedded in key and certificate encodings.
//
// Only named parameters (an OID, eg a named curve) are modelled. NullParameters marks the explicit ASN.1 NULL that RSA identifiers carry; it does not take part in lookups, since encoders disagree on whether to include it.
type AlgorithmIdentifier struct {
	Algorithm      asn1.ObjectIdentifier
	Parameters     asn1.ObjectIdentifier
	NullParameters bool
}

// Lookup key used by the scheme registry.
func (a AlgorithmIdentifier) String() string {
	if len(a.Parameters) == 0 {
		return a.Algorithm.String()
	}
	return a.Algorithm.String() + "/" + a.Parameters.String()
}

func (a AlgorithmIdentifier) Equal(other AlgorithmIdentifier) bool {
	return a.Algorithm.Equal(other.Algorithm) && a.Parameters.Equal(other.Parameters)
}

// Like Equal, but NullParameters must match too.
func (a AlgorithmIdentifier) identical(other AlgorithmIdentifier) bool {
	return a.Equal(other) && a.NullParameters == other.NullParameters
}

func (a AlgorithmIdentifier) clone() AlgorithmIdentifier {
	return AlgorithmIdentifier{
		Algorithm:      slices.Clone(a.Algorithm),
		Parameters:     slices.Clone(a.Parameters),
		NullParameters: a.NullParameters,
	}
}

func cloneAlgorithmIDs(ids []AlgorithmIdentifier) []AlgorithmIdentifier {
	if ids == nil {
		return nil
	}
	out := make([]AlgorithmIdentifier, len(ids))
	for i, id := range ids {
		out[i] = id.clone()
	}
	return out
}

// Appends the DER AlgorithmIdentifier SEQUENCE to the builder.
func (a AlgorithmIdentifier) MarshalCryptobyte(b *cryptobyte.Builder) {
	b.AddASN1(cryptobyte_asn1.SEQUENCE, func(b *cryptobyte.Builder) {
		b.AddASN1ObjectIdentifier(a.Algorithm)
		switch {
		case len(a.Parameters) > 0:
			b.AddASN1ObjectIdentifier(a.Parameters)
		case a.NullParameters:
			b.AddASN1NULL()
		}
	})
}

// Serializes to a standalone DER AlgorithmIdentifier.
func (a AlgorithmIdentifier) Marshal() ([]byte, error) {
	b := cryptobyte.NewBuilder(nil)
	a.MarshalCryptobyte(b)
	return b.Bytes()
}

// Reads one DER AlgorithmIdentifier SEQUENCE. Parameters other than an OID or NULL (eg, explicit curve parameters) are rejected.
func ParseAlgorithmIdentifier(s *cryptobyte.String) (AlgorithmIdentifier, error) {
	var out AlgorithmIdentifier
	var seq cryptobyte.String
	if !s.ReadASN1(&seq, cryptobyte_asn1.SEQUENCE) {
		return out, fmt.Errorf("algorithm identifier: expected SEQUENCE")
	}
	if !seq.ReadASN1ObjectIdentifier(&out.Algorithm) {
		return out, fmt.Errorf("algorithm identifier: expected OID")
	}
	switch {
	case seq.Empty():
	case seq.PeekASN1Tag(cryptobyte_asn1.OBJECT_IDENTIFIER):
		if !seq.ReadASN1ObjectIdentifier(&out.Parameters) {
			return out, fmt.Errorf("algorithm identifier: bad parameter OID")
		}
	case seq.PeekASN1Tag(cryptobyte_asn1.NULL):
		var null cryptobyte.String
		if !seq.ReadASN1(&null, cryptobyte_asn1.NULL) || !null.Empty() {
			return out, fmt.Errorf("algorithm identifier: bad NULL parameters")
		}
		out.NullParameters = true
	default:
		return out, fmt.Errorf("algorithm identifier: unsupported parameters for %s", out.Algorithm)
	}
	if !seq.Empty() {
		return out, fmt.Errorf("algorithm identifier: trailing data")
	}
	return out, nil
}
