package crypto

import (
	"crypto"
	"crypto/ed25519"
	"crypto/hmac"
	"crypto/sha512"
	"crypto/x509"
	"fmt"
	"io"
	"math/big"

	"filippo.io/edwards25519"
	"golang.org/x/crypto/cryptobyte"
	cryptobyte_asn1 "golang.org/x/crypto/cryptobyte/asn1"
)

// Implements the [PrivateKey] interface for EDDSA_ED25519_SHA512.
type PrivateKeyEd25519 struct {
	privateKeyBase
	priv ed25519.PrivateKey
	pub  *PublicKeyEd25519
}

// Implements the [PublicKey] interface for EDDSA_ED25519_SHA512.
type PublicKeyEd25519 struct {
	publicKeyBase
	pub ed25519.PublicKey
}

var _ PrivateKey = (*PrivateKeyEd25519)(nil)
var _ PublicKey = (*PublicKeyEd25519)(nil)

func newPublicKeyEd25519(s *SignatureScheme, pub ed25519.PublicKey) (*PublicKeyEd25519, error) {
	if len(pub) != ed25519.PublicKeySize {
		return nil, fmt.Errorf("%w: Ed25519 public key is %d bytes", ErrKeySpec, len(pub))
	}
	der, err := x509.MarshalPKIXPublicKey(pub)
	if err != nil {
		return nil, fmt.Errorf("%w: encoding Ed25519 public key: %w", ErrKeySpec, err)
	}
	return &PublicKeyEd25519{publicKeyBase: publicKeyBase{scheme: s, encoded: der}, pub: pub}, nil
}

func newPrivateKeyEd25519(s *SignatureScheme, priv ed25519.PrivateKey) (*PrivateKeyEd25519, error) {
	if len(priv) != ed25519.PrivateKeySize {
		return nil, fmt.Errorf("%w: Ed25519 private key is %d bytes", ErrKeySpec, len(priv))
	}
	der, err := x509.MarshalPKCS8PrivateKey(priv)
	if err != nil {
		return nil, fmt.Errorf("%w: encoding Ed25519 private key: %w", ErrKeySpec, err)
	}
	pub, err := newPublicKeyEd25519(s, priv.Public().(ed25519.PublicKey))
	if err != nil {
		return nil, err
	}
	return &PrivateKeyEd25519{privateKeyBase: privateKeyBase{scheme: s, encoded: der}, priv: priv, pub: pub}, nil
}

func newPrivateKeyEd25519FromSeed(s *SignatureScheme, seed []byte) (*PrivateKeyEd25519, error) {
	if len(seed) != ed25519.SeedSize {
		return nil, fmt.Errorf("%w: Ed25519 seed is %d bytes", ErrKeySpec, len(seed))
	}
	return newPrivateKeyEd25519(s, ed25519.NewKeyFromSeed(seed))
}

func (k *PrivateKeyEd25519) PublicKey() PublicKey       { return k.pub }
func (k *PrivateKeyEd25519) Private() crypto.PrivateKey { return k.priv }

// RFC 8032 private key seed, 32 bytes.
func (k *PrivateKeyEd25519) seed() []byte {
	return k.priv.Seed()
}

// The secret scalar a: the lower half of SHA-512(seed), clamped per RFC 8032 section 5.1.5 and not reduced. Little-endian, 32 bytes.
func (k *PrivateKeyEd25519) clampedScalar() []byte {
	h := sha512.Sum512(k.seed())
	a := h[:32]
	a[0] &= 248
	a[31] &= 127
	a[31] |= 64
	return a
}

// Pure Ed25519: the message is hashed with SHA-512 internally, not pre-hashed.
func (k *PrivateKeyEd25519) sign(msg []byte) ([]byte, error) {
	return ed25519.Sign(k.priv, msg), nil
}

func (k *PublicKeyEd25519) Public() crypto.PublicKey { return k.pub }

// Raw 32-byte encoded point.
func (k *PublicKeyEd25519) Bytes() []byte {
	return append([]byte(nil), k.pub...)
}

func (k *PublicKeyEd25519) verify(sig, msg []byte) bool {
	return ed25519.Verify(k.pub, msg, sig)
}

// Rejects encodings that do not decode to a curve point, the identity, and points of small order.
func (k *PublicKeyEd25519) onCurve() (bool, error) {
	p, err := new(edwards25519.Point).SetBytes(k.pub)
	if err != nil {
		return false, nil
	}
	identity := edwards25519.NewIdentityPoint()
	if p.Equal(identity) == 1 {
		return false, nil
	}
	if new(edwards25519.Point).MultByCofactor(p).Equal(identity) == 1 {
		return false, nil
	}
	return true, nil
}

type ed25519Algorithm struct{}

func (ed25519Algorithm) generateKeyPair(s *SignatureScheme, random io.Reader) (*KeyPair, error) {
	_, sk, err := ed25519.GenerateKey(random)
	if err != nil {
		return nil, err
	}
	priv, err := newPrivateKeyEd25519(s, sk)
	if err != nil {
		return nil, err
	}
	return &KeyPair{Public: priv.pub, Private: priv}, nil
}

// RFC 8410 CurvePrivateKey: the seed wrapped in a second OCTET STRING. The same layout is used under the legacy identifier.
func (ed25519Algorithm) parsePrivateKey(s *SignatureScheme, info *privateKeyInfo) (PrivateKey, error) {
	input := cryptobyte.String(info.PrivateKey)
	var seed cryptobyte.String
	if !input.ReadASN1(&seed, cryptobyte_asn1.OCTET_STRING) || !input.Empty() {
		return nil, fmt.Errorf("%w: invalid Ed25519 CurvePrivateKey", ErrKeySpec)
	}
	return newPrivateKeyEd25519FromSeed(s, seed)
}

func (ed25519Algorithm) parsePublicKey(s *SignatureScheme, info *publicKeyInfo) (PublicKey, error) {
	return newPublicKeyEd25519(s, ed25519.PublicKey(append([]byte(nil), info.PublicKey...)))
}

// HMAC-SHA512 keyed with the clamped private scalar; the first 32 bytes of the MAC become the derived seed. Any 32 bytes are a valid Ed25519 seed, so there is no rejection step.
func (ed25519Algorithm) deriveKeyPair(s *SignatureScheme, priv PrivateKey, seed []byte) (*KeyPair, error) {
	sk, ok := priv.(*PrivateKeyEd25519)
	if !ok {
		return nil, fmt.Errorf("%w: %T is not an Ed25519 key", ErrUnsupportedKeyType, priv)
	}
	mac := hmac.New(sha512.New, sk.clampedScalar())
	mac.Write(seed)
	sum := mac.Sum(nil)
	derived, err := newPrivateKeyEd25519FromSeed(s, sum[:ed25519.SeedSize])
	if err != nil {
		return nil, err
	}
	return &KeyPair{Public: derived.pub, Private: derived}, nil
}

// The big-endian magnitude of entropy fills the seed from the front, zero padded on the right or truncated to 32 bytes.
func (ed25519Algorithm) entropyToKeyPair(s *SignatureScheme, entropy *big.Int) (*KeyPair, error) {
	if entropy.Sign() < 0 {
		return nil, fmt.Errorf("%w: entropy must not be negative", ErrKeySpec)
	}
	seed := make([]byte, ed25519.SeedSize)
	copy(seed, entropy.Bytes())
	derived, err := newPrivateKeyEd25519FromSeed(s, seed)
	if err != nil {
		return nil, err
	}
	return &KeyPair{Public: derived.pub, Private: derived}, nil
}
