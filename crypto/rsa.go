package crypto

import (
	"crypto"
	"crypto/rand"
	"crypto/rsa"
	"crypto/sha256"
	"crypto/x509"
	"fmt"
	"io"
	"math/big"
)

// Implements the [PrivateKey] interface for RSA_SHA256 (PKCS#1 v1.5 signatures over SHA-256).
type PrivateKeyRSA struct {
	privateKeyBase
	priv *rsa.PrivateKey
	pub  *PublicKeyRSA
}

// Implements the [PublicKey] interface for RSA_SHA256.
type PublicKeyRSA struct {
	publicKeyBase
	pub *rsa.PublicKey
}

var _ PrivateKey = (*PrivateKeyRSA)(nil)
var _ PublicKey = (*PublicKeyRSA)(nil)

func newPublicKeyRSA(s *SignatureScheme, pub *rsa.PublicKey) (*PublicKeyRSA, error) {
	der, err := x509.MarshalPKIXPublicKey(pub)
	if err != nil {
		return nil, fmt.Errorf("%w: encoding RSA public key: %w", ErrKeySpec, err)
	}
	return &PublicKeyRSA{publicKeyBase: publicKeyBase{scheme: s, encoded: der}, pub: pub}, nil
}

func newPrivateKeyRSA(s *SignatureScheme, priv *rsa.PrivateKey) (*PrivateKeyRSA, error) {
	if err := priv.Validate(); err != nil {
		return nil, fmt.Errorf("%w: invalid RSA private key: %w", ErrKeySpec, err)
	}
	der, err := x509.MarshalPKCS8PrivateKey(priv)
	if err != nil {
		return nil, fmt.Errorf("%w: encoding RSA private key: %w", ErrKeySpec, err)
	}
	pub, err := newPublicKeyRSA(s, &priv.PublicKey)
	if err != nil {
		return nil, err
	}
	return &PrivateKeyRSA{privateKeyBase: privateKeyBase{scheme: s, encoded: der}, priv: priv, pub: pub}, nil
}

func (k *PrivateKeyRSA) PublicKey() PublicKey       { return k.pub }
func (k *PrivateKeyRSA) Private() crypto.PrivateKey { return k.priv }

func (k *PrivateKeyRSA) sign(msg []byte) ([]byte, error) {
	hash := sha256.Sum256(msg)
	return rsa.SignPKCS1v15(rand.Reader, k.priv, crypto.SHA256, hash[:])
}

func (k *PublicKeyRSA) Public() crypto.PublicKey { return k.pub }

// Modulus size in bits.
func (k *PublicKeyRSA) Size() int { return k.pub.N.BitLen() }

func (k *PublicKeyRSA) verify(sig, msg []byte) bool {
	hash := sha256.Sum256(msg)
	return rsa.VerifyPKCS1v15(k.pub, crypto.SHA256, hash[:], sig) == nil
}

func (k *PublicKeyRSA) onCurve() (bool, error) {
	return false, fmt.Errorf("%w: RSA keys are not elliptic curve keys", ErrUnsupportedKeyType)
}

type rsaAlgorithm struct{}

func (rsaAlgorithm) generateKeyPair(s *SignatureScheme, random io.Reader) (*KeyPair, error) {
	sk, err := rsa.GenerateKey(random, s.keySize)
	if err != nil {
		return nil, err
	}
	priv, err := newPrivateKeyRSA(s, sk)
	if err != nil {
		return nil, err
	}
	return &KeyPair{Public: priv.pub, Private: priv}, nil
}

// The inner RSAPrivateKey is parsed directly, so it does not matter whether the outer identifier carried NULL parameters.
func (rsaAlgorithm) parsePrivateKey(s *SignatureScheme, info *privateKeyInfo) (PrivateKey, error) {
	sk, err := x509.ParsePKCS1PrivateKey(info.PrivateKey)
	if err != nil {
		return nil, fmt.Errorf("%w: invalid RSA private key: %w", ErrKeySpec, err)
	}
	return newPrivateKeyRSA(s, sk)
}

func (rsaAlgorithm) parsePublicKey(s *SignatureScheme, info *publicKeyInfo) (PublicKey, error) {
	pk, err := x509.ParsePKCS1PublicKey(info.PublicKey)
	if err != nil {
		return nil, fmt.Errorf("%w: invalid RSA public key: %w", ErrKeySpec, err)
	}
	return newPublicKeyRSA(s, pk)
}

func (rsaAlgorithm) deriveKeyPair(s *SignatureScheme, priv PrivateKey, seed []byte) (*KeyPair, error) {
	return nil, fmt.Errorf("%w: deterministic derivation for %s", ErrUnsupportedOperation, s.codeName)
}

func (rsaAlgorithm) entropyToKeyPair(s *SignatureScheme, entropy *big.Int) (*KeyPair, error) {
	return nil, fmt.Errorf("%w: key pair from entropy for %s", ErrUnsupportedOperation, s.codeName)
}
