package crypto

import (
	"bytes"
	"crypto"
	"crypto/rand"
	"fmt"
)

// Common interface for all the supported public key types.
//
// The set of implementations is closed: [PublicKeyRSA], [PublicKeyK256], [PublicKeyP256], [PublicKeyEd25519] and [PublicKeySPHINCS].
type PublicKey interface {
	// The scheme this key belongs to, as a copy.
	Scheme() *SignatureScheme

	// DER SubjectPublicKeyInfo encoding, under the scheme's primary algorithm identifier. Returns a copy.
	Encoded() []byte

	// Checks if the two public keys are the same. Note that the naive == operator does not work for most equality checks.
	Equal(other PublicKey) bool

	// The backing library key (eg, *ecdsa.PublicKey or *secec.PublicKey).
	Public() crypto.PublicKey

	// Reports whether sig is a valid signature of msg.
	verify(sig, msg []byte) bool

	// Curve membership check; ErrUnsupportedKeyType for non-curve families.
	onCurve() (bool, error)
}

// Common interface for all the supported private key types.
//
// The set of implementations is closed: [PrivateKeyRSA], [PrivateKeyK256], [PrivateKeyP256], [PrivateKeyEd25519] and [PrivateKeySPHINCS].
type PrivateKey interface {
	Scheme() *SignatureScheme

	// DER PKCS#8 encoding, under the scheme's primary algorithm identifier. Returns a copy.
	Encoded() []byte

	Equal(other PrivateKey) bool

	// Outputs the [PublicKey] corresponding to this private key.
	PublicKey() PublicKey

	// The backing library key.
	Private() crypto.PrivateKey

	sign(msg []byte) ([]byte, error)
}

type KeyPair struct {
	Public  PublicKey
	Private PrivateKey
}

// Shared state for the public key variants.
type publicKeyBase struct {
	scheme  *SignatureScheme
	encoded []byte
}

func (k *publicKeyBase) Scheme() *SignatureScheme { return k.scheme.clone() }
func (k *publicKeyBase) Encoded() []byte          { return bytes.Clone(k.encoded) }

func (k *publicKeyBase) Equal(other PublicKey) bool {
	if other == nil {
		return false
	}
	return bytes.Equal(k.encoded, other.Encoded())
}

func (k *publicKeyBase) String() string {
	return fmt.Sprintf("%s public key %s", k.scheme.codeName, shortString(k.encoded))
}

// Shared state for the private key variants.
type privateKeyBase struct {
	scheme  *SignatureScheme
	encoded []byte
}

func (k *privateKeyBase) Scheme() *SignatureScheme { return k.scheme.clone() }
func (k *privateKeyBase) Encoded() []byte          { return bytes.Clone(k.encoded) }

func (k *privateKeyBase) Equal(other PrivateKey) bool {
	if other == nil {
		return false
	}
	return bytes.Equal(k.encoded, other.Encoded())
}

// Never prints key material.
func (k *privateKeyBase) String() string {
	return fmt.Sprintf("%s private key", k.scheme.codeName)
}

// Creates a secure new key pair from scratch, for the indicated scheme.
func GenerateKeyPair(s *SignatureScheme) (*KeyPair, error) {
	s, impl, err := registry.algorithm(s)
	if err != nil {
		return nil, err
	}
	kp, err := impl.generateKeyPair(s, rand.Reader)
	if err != nil {
		return nil, fmt.Errorf("%s key generation failed: %w", s.codeName, err)
	}
	keyPairsGenerated.WithLabelValues(s.codeName).Inc()
	return kp, nil
}

// Key pair under [DefaultSignatureScheme].
func GenerateDefaultKeyPair() (*KeyPair, error) {
	return GenerateKeyPair(edDSAEd25519SHA512)
}
