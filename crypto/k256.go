package crypto

import (
	"crypto"
	"crypto/rand"
	"crypto/sha256"
	"encoding/asn1"
	"fmt"
	"io"
	"math/big"

	secp256k1secec "gitlab.com/yawning/secp256k1-voi/secec"
	"golang.org/x/crypto/cryptobyte"
	cryptobyte_asn1 "golang.org/x/crypto/cryptobyte/asn1"
)

// Implements the [PrivateKey] interface for the K-256 / secp256k1 / ES256K cryptographic curve.
// Secret key material is naively stored in memory.
type PrivateKeyK256 struct {
	privateKeyBase
	privK256 *secp256k1secec.PrivateKey
	pub      *PublicKeyK256
}

// K-256 / secp256k1 / ES256K
// Implements the [PublicKey] interface for the K-256 / secp256k1 / ES256K cryptographic curve.
type PublicKeyK256 struct {
	publicKeyBase
	pubK256 *secp256k1secec.PublicKey
}

var _ PrivateKey = (*PrivateKeyK256)(nil)
var _ PublicKey = (*PublicKeyK256)(nil)

var k256SignOptions = &secp256k1secec.ECDSAOptions{
	// Used to *verify* digest, not to re-hash
	Hash: crypto.SHA256,
	// ASN.1 DER `SEQUENCE { r, s }`, same as the P-256 scheme
	Encoding: secp256k1secec.EncodingASN1,
}

var k256VerifyOptions = &secp256k1secec.ECDSAOptions{
	Hash:     crypto.SHA256,
	Encoding: secp256k1secec.EncodingASN1,
	// Signatures from other toolkits are not normalized to low-S, so both forms are accepted.
	RejectMalleable: false,
}

// The stdlib x509 package does not know the secp256k1 curve, so SubjectPublicKeyInfo and PKCS#8 are assembled here.
func newPublicKeyK256(s *SignatureScheme, pub *secp256k1secec.PublicKey) (*PublicKeyK256, error) {
	if pub.Point().IsIdentity() != 0 {
		return nil, fmt.Errorf("%w: K-256/secp256k1 public key is the point at infinity", ErrKeySpec)
	}
	der, err := marshalPublicKeyInfo(s.algorithmID, pub.Point().UncompressedBytes())
	if err != nil {
		return nil, fmt.Errorf("%w: encoding K-256 public key: %w", ErrKeySpec, err)
	}
	return &PublicKeyK256{publicKeyBase: publicKeyBase{scheme: s, encoded: der}, pubK256: pub}, nil
}

func newPrivateKeyK256(s *SignatureScheme, sk *secp256k1secec.PrivateKey) (*PrivateKeyK256, error) {
	pub, err := newPublicKeyK256(s, sk.PublicKey())
	if err != nil {
		return nil, err
	}
	// SEC 1 ECPrivateKey; the curve is implied by the outer identifier, so [0] parameters are omitted.
	b := cryptobyte.NewBuilder(nil)
	b.AddASN1(cryptobyte_asn1.SEQUENCE, func(b *cryptobyte.Builder) {
		b.AddASN1Int64(1)
		b.AddASN1OctetString(sk.Bytes())
		b.AddASN1(cryptobyte_asn1.Tag(1).Constructed().ContextSpecific(), func(b *cryptobyte.Builder) {
			b.AddASN1BitString(sk.PublicKey().Point().UncompressedBytes())
		})
	})
	ecPriv, err := b.Bytes()
	if err != nil {
		return nil, fmt.Errorf("%w: encoding K-256 private key: %w", ErrKeySpec, err)
	}
	der, err := marshalPrivateKeyInfo(s.algorithmID, ecPriv)
	if err != nil {
		return nil, fmt.Errorf("%w: encoding K-256 private key: %w", ErrKeySpec, err)
	}
	return &PrivateKeyK256{privateKeyBase: privateKeyBase{scheme: s, encoded: der}, privK256: sk, pub: pub}, nil
}

// Loads a K-256 private key from a raw 32-byte scalar. secec rejects zero and out-of-range scalars.
func newPrivateKeyK256FromScalar(s *SignatureScheme, data []byte) (*PrivateKeyK256, error) {
	sk, err := secp256k1secec.NewPrivateKey(data)
	if err != nil {
		return nil, fmt.Errorf("%w: invalid K-256/secp256k1 private key: %w", ErrKeySpec, err)
	}
	return newPrivateKeyK256(s, sk)
}

func (k *PrivateKeyK256) PublicKey() PublicKey       { return k.pub }
func (k *PrivateKeyK256) Private() crypto.PrivateKey { return k.privK256 }

// For K-256, this is the "compact" encoding and is 32 bytes long.
func (k *PrivateKeyK256) scalarBytes() []byte {
	return k.privK256.Bytes()
}

// First hashes the raw bytes with SHA-256, then signs the digest, returning an ASN.1 DER signature.
func (k *PrivateKeyK256) sign(msg []byte) ([]byte, error) {
	hash := sha256.Sum256(msg)
	return k.privK256.Sign(rand.Reader, hash[:], k256SignOptions)
}

func (k *PublicKeyK256) Public() crypto.PublicKey { return k.pubK256 }

// Serializes the key in to "uncompressed" binary format.
func (k *PublicKeyK256) UncompressedBytes() []byte {
	return k.pubK256.Point().UncompressedBytes()
}

// Serializes the key in to "compressed" binary format.
func (k *PublicKeyK256) CompressedBytes() []byte {
	return k.pubK256.Point().CompressedBytes()
}

func (k *PublicKeyK256) verify(sig, msg []byte) bool {
	hash := sha256.Sum256(msg)
	return k.pubK256.Verify(hash[:], sig, k256VerifyOptions)
}

func (k *PublicKeyK256) onCurve() (bool, error) {
	p := k.pubK256.Point()
	if p.IsIdentity() != 0 {
		return false, nil
	}
	x, y, ok := curveSecp256k1.unmarshalUncompressed(p.UncompressedBytes())
	if !ok {
		return false, nil
	}
	return curveSecp256k1.isOnCurve(x, y), nil
}

type k256Algorithm struct{}

// A uniform 32-byte string is out of range with probability below 2^-127.
const maxScalarSamples = 16

// secec.GenerateKey always reads crypto/rand, so scalars are sampled from random here and range checked by secec.NewPrivateKey.
func (k256Algorithm) generateKeyPair(s *SignatureScheme, random io.Reader) (*KeyPair, error) {
	buf := make([]byte, secp256k1secec.PrivateKeySize)
	for i := 0; i < maxScalarSamples; i++ {
		if _, err := io.ReadFull(random, buf); err != nil {
			return nil, err
		}
		sk, err := secp256k1secec.NewPrivateKey(buf)
		if err != nil {
			// zero or not below the group order
			continue
		}
		priv, err := newPrivateKeyK256(s, sk)
		if err != nil {
			return nil, err
		}
		return &KeyPair{Public: priv.pub, Private: priv}, nil
	}
	return nil, fmt.Errorf("no valid secp256k1 scalar in %d samples", maxScalarSamples)
}

// Parses the SEC 1 ECPrivateKey carried in the PKCS#8 privateKey field.
func (k256Algorithm) parsePrivateKey(s *SignatureScheme, info *privateKeyInfo) (PrivateKey, error) {
	input := cryptobyte.String(info.PrivateKey)
	var seq cryptobyte.String
	var version int
	var scalar cryptobyte.String
	if !input.ReadASN1(&seq, cryptobyte_asn1.SEQUENCE) || !input.Empty() ||
		!seq.ReadASN1Integer(&version) || version != 1 ||
		!seq.ReadASN1(&scalar, cryptobyte_asn1.OCTET_STRING) {
		return nil, fmt.Errorf("%w: invalid K-256 ECPrivateKey structure", ErrKeySpec)
	}

	var params cryptobyte.String
	var hasParams bool
	if !seq.ReadOptionalASN1(&params, &hasParams, cryptobyte_asn1.Tag(0).Constructed().ContextSpecific()) {
		return nil, fmt.Errorf("%w: invalid K-256 ECPrivateKey parameters", ErrKeySpec)
	}
	if hasParams {
		var curveOID asn1.ObjectIdentifier
		if !params.ReadASN1ObjectIdentifier(&curveOID) || !curveOID.Equal(OIDNamedCurveSecp256k1) {
			return nil, fmt.Errorf("%w: ECPrivateKey names a curve other than secp256k1", ErrKeySpec)
		}
	}

	var pubField cryptobyte.String
	var hasPub bool
	if !seq.ReadOptionalASN1(&pubField, &hasPub, cryptobyte_asn1.Tag(1).Constructed().ContextSpecific()) {
		return nil, fmt.Errorf("%w: invalid K-256 ECPrivateKey public key field", ErrKeySpec)
	}

	// secec wants exactly 32 bytes; some encoders strip leading zeros
	raw := []byte(scalar)
	if len(raw) > 32 {
		return nil, fmt.Errorf("%w: K-256 private scalar is %d bytes", ErrKeySpec, len(raw))
	}
	padded := make([]byte, 32)
	copy(padded[32-len(raw):], raw)
	priv, err := newPrivateKeyK256FromScalar(s, padded)
	if err != nil {
		return nil, err
	}

	if hasPub {
		var bits asn1.BitString
		if !pubField.ReadASN1BitString(&bits) {
			return nil, fmt.Errorf("%w: invalid K-256 ECPrivateKey public key", ErrKeySpec)
		}
		embedded, err := secp256k1secec.NewPublicKey(bits.RightAlign())
		if err != nil || !embedded.Equal(priv.pub.pubK256) {
			return nil, fmt.Errorf("%w: embedded K-256 public key does not match private scalar", ErrKeySpec)
		}
	}
	return priv, nil
}

// secec.NewPublicKey accepts any valid SEC 1 encoding and rejects points not on the curve.
func (k256Algorithm) parsePublicKey(s *SignatureScheme, info *publicKeyInfo) (PublicKey, error) {
	pubK, err := secp256k1secec.NewPublicKey(info.PublicKey)
	if err != nil {
		return nil, fmt.Errorf("%w: invalid K-256/secp256k1 public key: %w", ErrKeySpec, err)
	}
	return newPublicKeyK256(s, pubK)
}

func (k256Algorithm) deriveKeyPair(s *SignatureScheme, priv PrivateKey, seed []byte) (*KeyPair, error) {
	sk, ok := priv.(*PrivateKeyK256)
	if !ok {
		return nil, fmt.Errorf("%w: %T is not a K-256 key", ErrUnsupportedKeyType, priv)
	}
	return deriveECKeyPair(curveSecp256k1, sk.scalarBytes(), seed, func(d []byte) (*KeyPair, error) {
		derived, err := newPrivateKeyK256FromScalar(s, d)
		if err != nil {
			return nil, err
		}
		return &KeyPair{Public: derived.pub, Private: derived}, nil
	})
}

func (k256Algorithm) entropyToKeyPair(s *SignatureScheme, entropy *big.Int) (*KeyPair, error) {
	return nil, fmt.Errorf("%w: key pair from entropy for %s", ErrUnsupportedOperation, s.codeName)
}
