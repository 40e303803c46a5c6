package crypto

import (
	"crypto"
	"fmt"
	"io"
	"math/big"

	"github.com/cloudflare/circl/sign/slhdsa"
)

// Parameter set backing the SPHINCS-256_SHA512 scheme.
const sphincsParameterSet = slhdsa.SHA2_256f

// Implements the [PrivateKey] interface for SPHINCS-256_SHA512, backed by SLH-DSA-SHA2-256f.
type PrivateKeySPHINCS struct {
	privateKeyBase
	priv slhdsa.PrivateKey
	pub  *PublicKeySPHINCS
}

// Implements the [PublicKey] interface for SPHINCS-256_SHA512.
type PublicKeySPHINCS struct {
	publicKeyBase
	pub slhdsa.PublicKey
}

var _ PrivateKey = (*PrivateKeySPHINCS)(nil)
var _ PublicKey = (*PublicKeySPHINCS)(nil)

// Key bytes are carried raw in the envelope, without an inner ASN.1 wrapper.
func newPublicKeySPHINCS(s *SignatureScheme, pub slhdsa.PublicKey) (*PublicKeySPHINCS, error) {
	if pub.ID != sphincsParameterSet {
		return nil, fmt.Errorf("%w: SLH-DSA parameter set %s", ErrKeySpec, pub.ID)
	}
	raw, err := pub.MarshalBinary()
	if err != nil {
		return nil, fmt.Errorf("%w: encoding SLH-DSA public key: %w", ErrKeySpec, err)
	}
	der, err := marshalPublicKeyInfo(s.algorithmID, raw)
	if err != nil {
		return nil, fmt.Errorf("%w: encoding SLH-DSA public key: %w", ErrKeySpec, err)
	}
	return &PublicKeySPHINCS{publicKeyBase: publicKeyBase{scheme: s, encoded: der}, pub: pub}, nil
}

func newPrivateKeySPHINCS(s *SignatureScheme, priv slhdsa.PrivateKey) (*PrivateKeySPHINCS, error) {
	if priv.ID != sphincsParameterSet {
		return nil, fmt.Errorf("%w: SLH-DSA parameter set %s", ErrKeySpec, priv.ID)
	}
	pub, err := newPublicKeySPHINCS(s, priv.PublicKey())
	if err != nil {
		return nil, err
	}
	raw, err := priv.MarshalBinary()
	if err != nil {
		return nil, fmt.Errorf("%w: encoding SLH-DSA private key: %w", ErrKeySpec, err)
	}
	der, err := marshalPrivateKeyInfo(s.algorithmID, raw)
	if err != nil {
		return nil, fmt.Errorf("%w: encoding SLH-DSA private key: %w", ErrKeySpec, err)
	}
	return &PrivateKeySPHINCS{privateKeyBase: privateKeyBase{scheme: s, encoded: der}, priv: priv, pub: pub}, nil
}

func (k *PrivateKeySPHINCS) PublicKey() PublicKey       { return k.pub }
func (k *PrivateKeySPHINCS) Private() crypto.PrivateKey { return k.priv }

// Deterministic variant, with an empty context string.
func (k *PrivateKeySPHINCS) sign(msg []byte) ([]byte, error) {
	return slhdsa.SignDeterministic(&k.priv, slhdsa.NewMessage(msg), nil)
}

func (k *PublicKeySPHINCS) Public() crypto.PublicKey { return k.pub }

func (k *PublicKeySPHINCS) verify(sig, msg []byte) bool {
	return slhdsa.Verify(&k.pub, slhdsa.NewMessage(msg), sig, nil)
}

func (k *PublicKeySPHINCS) onCurve() (bool, error) {
	return false, fmt.Errorf("%w: SLH-DSA keys are not elliptic curve keys", ErrUnsupportedKeyType)
}

type sphincsAlgorithm struct{}

func (sphincsAlgorithm) generateKeyPair(s *SignatureScheme, random io.Reader) (*KeyPair, error) {
	_, sk, err := slhdsa.GenerateKey(random, sphincsParameterSet)
	if err != nil {
		return nil, err
	}
	priv, err := newPrivateKeySPHINCS(s, sk)
	if err != nil {
		return nil, err
	}
	return &KeyPair{Public: priv.pub, Private: priv}, nil
}

func (sphincsAlgorithm) parsePrivateKey(s *SignatureScheme, info *privateKeyInfo) (PrivateKey, error) {
	sk := slhdsa.PrivateKey{ID: sphincsParameterSet}
	if err := sk.UnmarshalBinary(info.PrivateKey); err != nil {
		return nil, fmt.Errorf("%w: invalid SLH-DSA private key: %w", ErrKeySpec, err)
	}
	return newPrivateKeySPHINCS(s, sk)
}

func (sphincsAlgorithm) parsePublicKey(s *SignatureScheme, info *publicKeyInfo) (PublicKey, error) {
	pk := slhdsa.PublicKey{ID: sphincsParameterSet}
	if err := pk.UnmarshalBinary(info.PublicKey); err != nil {
		return nil, fmt.Errorf("%w: invalid SLH-DSA public key: %w", ErrKeySpec, err)
	}
	return newPublicKeySPHINCS(s, pk)
}

func (sphincsAlgorithm) deriveKeyPair(s *SignatureScheme, priv PrivateKey, seed []byte) (*KeyPair, error) {
	return nil, fmt.Errorf("%w: deterministic derivation for %s", ErrUnsupportedOperation, s.codeName)
}

func (sphincsAlgorithm) entropyToKeyPair(s *SignatureScheme, entropy *big.Int) (*KeyPair, error) {
	return nil, fmt.Errorf("%w: key pair from entropy for %s", ErrUnsupportedOperation, s.codeName)
}
