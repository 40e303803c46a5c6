package crypto

import (
	"fmt"
	"slices"
)

// Stable numeric identifier of a [SignatureScheme]. These values are persisted and must never be reassigned.
type SchemeID int

const (
	SchemeIDRSASHA256            SchemeID = 1
	SchemeIDECDSASecp256k1SHA256 SchemeID = 2
	SchemeIDECDSASecp256r1SHA256 SchemeID = 3
	SchemeIDEdDSAEd25519SHA512   SchemeID = 4
	SchemeIDSPHINCS256SHA512     SchemeID = 5
)

// Provider names. Each maps to one fixed backend library; see [SignatureScheme.ProviderName].
const (
	ProviderStdlib    = "go-stdlib"
	ProviderSecp256k1 = "secp256k1-voi"
	ProviderCircl     = "circl"
)

// Key algorithm names.
const (
	KeyAlgorithmRSA     = "RSA"
	KeyAlgorithmEC      = "EC"
	KeyAlgorithmEd25519 = "Ed25519"
	KeyAlgorithmSLHDSA  = "SLH-DSA"
)

// SignatureScheme describes one supported signature algorithm together with its curve/hash choice.
//
// The registry's own entries never leave this package: lookups and the catalog functions (eg, [EdDSAEd25519SHA512]) hand out copies, so changing a returned value cannot change the registry. Compare schemes with [SignatureScheme.Equal]. A value that differs from its catalog entry in any field is rejected by [IsSupported] and by every operation.
type SignatureScheme struct {
	id                   SchemeID
	codeName             string
	algorithmID          AlgorithmIdentifier
	alternativeIDs       []AlgorithmIdentifier
	providerName         string
	keyAlgorithm         string
	signatureAlgorithm   string
	signatureAlgorithmID AlgorithmIdentifier
	curveName            string
	keySize              int
	description          string
}

func (s *SignatureScheme) ID() SchemeID                     { return s.id }
func (s *SignatureScheme) CodeName() string                 { return s.codeName }
func (s *SignatureScheme) AlgorithmID() AlgorithmIdentifier { return s.algorithmID.clone() }
func (s *SignatureScheme) ProviderName() string             { return s.providerName }
func (s *SignatureScheme) KeyAlgorithm() string             { return s.keyAlgorithm }
func (s *SignatureScheme) SignatureAlgorithm() string       { return s.signatureAlgorithm }
func (s *SignatureScheme) CurveName() string                { return s.curveName }
func (s *SignatureScheme) KeySize() int                     { return s.keySize }
func (s *SignatureScheme) Description() string              { return s.description }

// Other identifiers under which keys of this scheme may be encoded. Returns a copy.
func (s *SignatureScheme) AlternativeAlgorithmIDs() []AlgorithmIdentifier {
	return cloneAlgorithmIDs(s.alternativeIDs)
}

// Identifier of the signature algorithm, as written in certificates and certification requests.
func (s *SignatureScheme) SignatureAlgorithmID() AlgorithmIdentifier {
	return s.signatureAlgorithmID.clone()
}

func (s *SignatureScheme) String() string {
	return fmt.Sprintf("%s(%d)", s.codeName, s.id)
}

// Reports whether both values describe the same catalog entry, field for field.
func (s *SignatureScheme) Equal(other *SignatureScheme) bool {
	if s == nil || other == nil {
		return s == other
	}
	return s.id == other.id &&
		s.codeName == other.codeName &&
		s.algorithmID.identical(other.algorithmID) &&
		slices.EqualFunc(s.alternativeIDs, other.alternativeIDs, AlgorithmIdentifier.identical) &&
		s.providerName == other.providerName &&
		s.keyAlgorithm == other.keyAlgorithm &&
		s.signatureAlgorithm == other.signatureAlgorithm &&
		s.signatureAlgorithmID.identical(other.signatureAlgorithmID) &&
		s.curveName == other.curveName &&
		s.keySize == other.keySize &&
		s.description == other.description
}

func (s *SignatureScheme) clone() *SignatureScheme {
	c := *s
	c.algorithmID = s.algorithmID.clone()
	c.alternativeIDs = cloneAlgorithmIDs(s.alternativeIDs)
	c.signatureAlgorithmID = s.signatureAlgorithmID.clone()
	return &c
}

// Every identifier this scheme claims, primary first.
func (s *SignatureScheme) allAlgorithmIDs() []AlgorithmIdentifier {
	return append([]AlgorithmIdentifier{s.algorithmID}, s.alternativeIDs...)
}

var rsaSHA256 = &SignatureScheme{
	id:                   SchemeIDRSASHA256,
	codeName:             "RSA_SHA256",
	algorithmID:          AlgorithmIdentifier{Algorithm: OIDPublicKeyRSA, NullParameters: true},
	providerName:         ProviderStdlib,
	keyAlgorithm:         KeyAlgorithmRSA,
	signatureAlgorithm:   "SHA256WITHRSA",
	signatureAlgorithmID: AlgorithmIdentifier{Algorithm: OIDSignatureSHA256WithRSA, NullParameters: true},
	keySize:              3072,
	description:          "RSA_SHA256 signature scheme using SHA256 as hash algorithm.",
}

var ecdsaSecp256k1SHA256 = &SignatureScheme{
	id:                   SchemeIDECDSASecp256k1SHA256,
	codeName:             "ECDSA_SECP256K1_SHA256",
	algorithmID:          AlgorithmIdentifier{Algorithm: OIDPublicKeyECDSA, Parameters: OIDNamedCurveSecp256k1},
	providerName:         ProviderSecp256k1,
	keyAlgorithm:         KeyAlgorithmEC,
	signatureAlgorithm:   "SHA256withECDSA",
	signatureAlgorithmID: AlgorithmIdentifier{Algorithm: OIDSignatureECDSAWithSHA256},
	curveName:            "secp256k1",
	keySize:              256,
	description:          "ECDSA signature scheme using the secp256k1 Koblitz curve and SHA256 for message hashing.",
}

var ecdsaSecp256r1SHA256 = &SignatureScheme{
	id:                   SchemeIDECDSASecp256r1SHA256,
	codeName:             "ECDSA_SECP256R1_SHA256",
	algorithmID:          AlgorithmIdentifier{Algorithm: OIDPublicKeyECDSA, Parameters: OIDNamedCurveP256},
	providerName:         ProviderStdlib,
	keyAlgorithm:         KeyAlgorithmEC,
	signatureAlgorithm:   "SHA256withECDSA",
	signatureAlgorithmID: AlgorithmIdentifier{Algorithm: OIDSignatureECDSAWithSHA256},
	curveName:            "secp256r1",
	keySize:              256,
	description:          "ECDSA signature scheme using the secp256r1 (NIST P-256) curve and SHA256 for message hashing.",
}

var edDSAEd25519SHA512 = &SignatureScheme{
	id:                   SchemeIDEdDSAEd25519SHA512,
	codeName:             "EDDSA_ED25519_SHA512",
	algorithmID:          AlgorithmIdentifier{Algorithm: OIDPublicKeyEd25519},
	alternativeIDs:       []AlgorithmIdentifier{{Algorithm: OIDPublicKeyEd25519Legacy}},
	providerName:         ProviderStdlib,
	keyAlgorithm:         KeyAlgorithmEd25519,
	signatureAlgorithm:   "Ed25519",
	signatureAlgorithmID: AlgorithmIdentifier{Algorithm: OIDSignatureEd25519},
	curveName:            "ed25519",
	keySize:              256,
	description:          "EdDSA signature scheme using the ed25519 twisted Edwards curve.",
}

// The hash-based scheme keeps its historical code name; keys and signatures are SLH-DSA-SHA2-256f (FIPS 205), whose SHA2 instantiation at this security category hashes with SHA-512.
var sphincs256SHA512 = &SignatureScheme{
	id:                   SchemeIDSPHINCS256SHA512,
	codeName:             "SPHINCS-256_SHA512",
	algorithmID:          AlgorithmIdentifier{Algorithm: OIDSLHDSASHA2256f},
	providerName:         ProviderCircl,
	keyAlgorithm:         KeyAlgorithmSLHDSA,
	signatureAlgorithm:   "SLH-DSA-SHA2-256f",
	signatureAlgorithmID: AlgorithmIdentifier{Algorithm: OIDSignatureSLHDSASHA2256f},
	keySize:              256,
	description:          "SPHINCS-256 hash-based signature scheme. It provides 128bit security against post-quantum attackers at the cost of larger key sizes and loss of compatibility.",
}

func RSASHA256() *SignatureScheme            { return rsaSHA256.clone() }
func ECDSASecp256k1SHA256() *SignatureScheme { return ecdsaSecp256k1SHA256.clone() }
func ECDSASecp256r1SHA256() *SignatureScheme { return ecdsaSecp256r1SHA256.clone() }
func EdDSAEd25519SHA512() *SignatureScheme   { return edDSAEd25519SHA512.clone() }
func SPHINCS256SHA512() *SignatureScheme     { return sphincs256SHA512.clone() }

// Scheme used when callers do not ask for a specific one.
func DefaultSignatureScheme() *SignatureScheme {
	return EdDSAEd25519SHA512()
}

// Catalog order; also the order of [SupportedSchemes].
var catalog = []*SignatureScheme{
	rsaSHA256,
	ecdsaSecp256k1SHA256,
	ecdsaSecp256r1SHA256,
	edDSAEd25519SHA512,
	sphincs256SHA512,
}
