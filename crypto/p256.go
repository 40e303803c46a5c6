package crypto

import (
	"crypto"
	"crypto/ecdh"
	"crypto/ecdsa"
	"crypto/elliptic"
	"crypto/rand"
	"crypto/sha256"
	"crypto/x509"
	"fmt"
	"io"
	"math/big"
)

// Implements the [PrivateKey] interface for the NIST P-256 / secp256r1 / ES256 cryptographic curve.
// Secret key material is naively stored in memory.
type PrivateKeyP256 struct {
	privateKeyBase
	privP256ecdh *ecdh.PrivateKey
	privP256     *ecdsa.PrivateKey
	pub          *PublicKeyP256
}

// Implements the [PublicKey] interface for the NIST P-256 / secp256r1 / ES256 cryptographic curve.
type PublicKeyP256 struct {
	publicKeyBase
	pubP256 *ecdsa.PublicKey
}

var _ PrivateKey = (*PrivateKeyP256)(nil)
var _ PublicKey = (*PublicKeyP256)(nil)

func newPublicKeyP256(s *SignatureScheme, pub *ecdsa.PublicKey) (*PublicKeyP256, error) {
	der, err := x509.MarshalPKIXPublicKey(pub)
	if err != nil {
		return nil, fmt.Errorf("%w: encoding P-256 public key: %w", ErrKeySpec, err)
	}
	return &PublicKeyP256{publicKeyBase: publicKeyBase{scheme: s, encoded: der}, pubP256: pub}, nil
}

func newPrivateKeyP256(s *SignatureScheme, sk *ecdsa.PrivateKey) (*PrivateKeyP256, error) {
	if sk.Curve != elliptic.P256() {
		return nil, fmt.Errorf("%w: not a P-256/secp256r1 key", ErrKeySpec)
	}
	skECDH, err := sk.ECDH()
	if err != nil {
		return nil, fmt.Errorf("%w: invalid P-256/secp256r1 private key: %w", ErrKeySpec, err)
	}
	der, err := x509.MarshalPKCS8PrivateKey(sk)
	if err != nil {
		return nil, fmt.Errorf("%w: encoding P-256 private key: %w", ErrKeySpec, err)
	}
	pub, err := newPublicKeyP256(s, &sk.PublicKey)
	if err != nil {
		return nil, err
	}
	return &PrivateKeyP256{
		privateKeyBase: privateKeyBase{scheme: s, encoded: der},
		privP256ecdh:   skECDH,
		privP256:       sk,
		pub:            pub,
	}, nil
}

// Loads a P-256 private key from a raw 32-byte scalar.
//
// Elaborately parse as an ecdh.PrivateKey, then get from that to ecdsa.PrivateKey by encoding/decoding using x509 PKCS8 encoding. The ecdh constructor rejects zero and out-of-range scalars.
func newPrivateKeyP256FromScalar(s *SignatureScheme, data []byte) (*PrivateKeyP256, error) {
	skECDH, err := ecdh.P256().NewPrivateKey(data)
	if err != nil {
		return nil, fmt.Errorf("%w: invalid P-256/secp256r1 private key: %w", ErrKeySpec, err)
	}
	enc, err := x509.MarshalPKCS8PrivateKey(skECDH)
	if err != nil {
		return nil, fmt.Errorf("%w: invalid P-256/secp256r1 private key: %w", ErrKeySpec, err)
	}
	sk, err := x509.ParsePKCS8PrivateKey(enc)
	if err != nil {
		return nil, fmt.Errorf("%w: invalid P-256/secp256r1 private key: %w", ErrKeySpec, err)
	}
	skECDSA, ok := sk.(*ecdsa.PrivateKey)
	if !ok {
		return nil, fmt.Errorf("unexpected internal error parsing own private P-256 x509 key")
	}
	return newPrivateKeyP256(s, skECDSA)
}

func (k *PrivateKeyP256) PublicKey() PublicKey       { return k.pub }
func (k *PrivateKeyP256) Private() crypto.PrivateKey { return k.privP256 }

// Fixed-width 32-byte scalar.
func (k *PrivateKeyP256) scalarBytes() []byte {
	return k.privP256ecdh.Bytes()
}

// Hashes with SHA-256, then signs the digest, returning an ASN.1 DER signature.
func (k *PrivateKeyP256) sign(msg []byte) ([]byte, error) {
	hash := sha256.Sum256(msg)
	return ecdsa.SignASN1(rand.Reader, k.privP256, hash[:])
}

func (k *PublicKeyP256) Public() crypto.PublicKey { return k.pubP256 }

// Serializes the key in to "uncompressed" binary format.
func (k *PublicKeyP256) UncompressedBytes() []byte {
	return elliptic.Marshal(k.pubP256.Curve, k.pubP256.X, k.pubP256.Y)
}

// Serializes the key in to "compressed" binary format.
func (k *PublicKeyP256) CompressedBytes() []byte {
	return elliptic.MarshalCompressed(k.pubP256.Curve, k.pubP256.X, k.pubP256.Y)
}

func (k *PublicKeyP256) verify(sig, msg []byte) bool {
	hash := sha256.Sum256(msg)
	return ecdsa.VerifyASN1(k.pubP256, hash[:], sig)
}

func (k *PublicKeyP256) onCurve() (bool, error) {
	params := k.pubP256.Curve.Params()
	if params.Name != "P-256" || params.P.Cmp(curveSecp256r1.p) != 0 || params.N.Cmp(curveSecp256r1.n) != 0 || params.B.Cmp(curveSecp256r1.b) != 0 {
		return false, nil
	}
	return curveSecp256r1.isOnCurve(k.pubP256.X, k.pubP256.Y), nil
}

type p256Algorithm struct{}

func (p256Algorithm) generateKeyPair(s *SignatureScheme, random io.Reader) (*KeyPair, error) {
	sk, err := ecdsa.GenerateKey(elliptic.P256(), random)
	if err != nil {
		return nil, err
	}
	priv, err := newPrivateKeyP256(s, sk)
	if err != nil {
		return nil, err
	}
	return &KeyPair{Public: priv.pub, Private: priv}, nil
}

func (p256Algorithm) parsePrivateKey(s *SignatureScheme, info *privateKeyInfo) (PrivateKey, error) {
	sk, err := x509.ParsePKCS8PrivateKey(info.Raw)
	if err != nil {
		return nil, fmt.Errorf("%w: invalid P-256/secp256r1 private key: %w", ErrKeySpec, err)
	}
	skECDSA, ok := sk.(*ecdsa.PrivateKey)
	if !ok {
		return nil, fmt.Errorf("%w: PKCS#8 payload is %T, not an EC key", ErrKeySpec, sk)
	}
	return newPrivateKeyP256(s, skECDSA)
}

// Accepts either the uncompressed or the compressed point format.
func (p256Algorithm) parsePublicKey(s *SignatureScheme, info *publicKeyInfo) (PublicKey, error) {
	curve := elliptic.P256()
	var x, y *big.Int
	if len(info.PublicKey) == 33 {
		x, y = elliptic.UnmarshalCompressed(curve, info.PublicKey)
	} else {
		x, y = elliptic.Unmarshal(curve, info.PublicKey)
	}
	if x == nil {
		return nil, fmt.Errorf("%w: invalid P-256 public key (x==nil)", ErrKeySpec)
	}
	if !curveSecp256r1.isOnCurve(x, y) {
		return nil, fmt.Errorf("%w: invalid P-256 public key (not on curve)", ErrKeySpec)
	}
	return newPublicKeyP256(s, &ecdsa.PublicKey{Curve: curve, X: x, Y: y})
}

func (p256Algorithm) deriveKeyPair(s *SignatureScheme, priv PrivateKey, seed []byte) (*KeyPair, error) {
	sk, ok := priv.(*PrivateKeyP256)
	if !ok {
		return nil, fmt.Errorf("%w: %T is not a P-256 key", ErrUnsupportedKeyType, priv)
	}
	return deriveECKeyPair(curveSecp256r1, sk.scalarBytes(), seed, func(d []byte) (*KeyPair, error) {
		derived, err := newPrivateKeyP256FromScalar(s, d)
		if err != nil {
			return nil, err
		}
		return &KeyPair{Public: derived.pub, Private: derived}, nil
	})
}

func (p256Algorithm) entropyToKeyPair(s *SignatureScheme, entropy *big.Int) (*KeyPair, error) {
	return nil, fmt.Errorf("%w: key pair from entropy for %s", ErrUnsupportedOperation, s.codeName)
}
