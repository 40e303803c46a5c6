package crypto

import (
	"crypto"
	"crypto/ecdsa"
	"crypto/ed25519"
	"crypto/elliptic"
	"crypto/rsa"
	"crypto/x509"
	"fmt"

	"github.com/cloudflare/circl/sign/slhdsa"
	secp256k1secec "gitlab.com/yawning/secp256k1-voi/secec"
)

// Loads a [PrivateKey] from a DER PKCS#8 structure. The scheme is resolved from the embedded algorithm identifier.
func DecodePrivateKey(der []byte) (PrivateKey, error) {
	info, err := parsePrivateKeyInfo(der)
	if err != nil {
		return nil, err
	}
	s, err := registry.findByAlgorithm(info.Algorithm)
	if err != nil {
		return nil, err
	}
	return registry.impls[s].parsePrivateKey(s, info)
}

// Loads a [PrivateKey] of a known scheme from a DER PKCS#8 structure. The embedded algorithm identifier must still be one the scheme claims.
func DecodePrivateKeyWithScheme(s *SignatureScheme, der []byte) (PrivateKey, error) {
	s, impl, err := registry.algorithm(s)
	if err != nil {
		return nil, err
	}
	info, err := parsePrivateKeyInfo(der)
	if err != nil {
		return nil, err
	}
	if err := checkAlgorithmClaimed(s, info.Algorithm); err != nil {
		return nil, err
	}
	return impl.parsePrivateKey(s, info)
}

func DecodePrivateKeyWithCodeName(codeName string, der []byte) (PrivateKey, error) {
	s, err := registry.findByCodeName(codeName)
	if err != nil {
		return nil, err
	}
	return DecodePrivateKeyWithScheme(s, der)
}

// Loads a [PublicKey] from a DER SubjectPublicKeyInfo structure. The scheme is resolved from the embedded algorithm identifier.
//
// Results are memoised by encoding; keys are immutable, so a cached key can be shared between callers.
func DecodePublicKey(der []byte) (PublicKey, error) {
	if pub, ok := registry.publicKeys.Get(string(der)); ok {
		return pub, nil
	}
	info, err := parsePublicKeyInfo(der)
	if err != nil {
		return nil, err
	}
	s, err := registry.findByAlgorithm(info.Algorithm)
	if err != nil {
		return nil, err
	}
	pub, err := registry.impls[s].parsePublicKey(s, info)
	if err != nil {
		return nil, err
	}
	registry.publicKeys.Add(string(der), pub)
	return pub, nil
}

// Loads a [PublicKey] of a known scheme from a DER SubjectPublicKeyInfo structure.
func DecodePublicKeyWithScheme(s *SignatureScheme, der []byte) (PublicKey, error) {
	s, impl, err := registry.algorithm(s)
	if err != nil {
		return nil, err
	}
	if pub, ok := registry.publicKeys.Get(string(der)); ok && s.Equal(pub.Scheme()) {
		return pub, nil
	}
	info, err := parsePublicKeyInfo(der)
	if err != nil {
		return nil, err
	}
	if err := checkAlgorithmClaimed(s, info.Algorithm); err != nil {
		return nil, err
	}
	pub, err := impl.parsePublicKey(s, info)
	if err != nil {
		return nil, err
	}
	registry.publicKeys.Add(string(der), pub)
	return pub, nil
}

func DecodePublicKeyWithCodeName(codeName string, der []byte) (PublicKey, error) {
	s, err := registry.findByCodeName(codeName)
	if err != nil {
		return nil, err
	}
	return DecodePublicKeyWithScheme(s, der)
}

func checkAlgorithmClaimed(s *SignatureScheme, alg AlgorithmIdentifier) error {
	for _, id := range s.allAlgorithmIDs() {
		if id.Equal(alg) {
			return nil
		}
	}
	return fmt.Errorf("%w: algorithm identifier %s does not belong to %s", ErrKeySpec, alg, s.codeName)
}

func curveMatches(params *elliptic.CurveParams, c *weierstrassCurve) bool {
	return params != nil && params.P.Cmp(c.p) == 0 && params.N.Cmp(c.n) == 0 && params.B.Cmp(c.b) == 0
}

// Converts a key from any supported backend into this package's representation of its scheme.
//
// Accepts keys of this package (returned as-is), *rsa.PublicKey, *ecdsa.PublicKey on P-256 or on a third-party secp256k1 curve, ed25519.PublicKey, *secec.PublicKey and slhdsa.PublicKey.
func ToCanonicalPublicKey(key crypto.PublicKey) (PublicKey, error) {
	switch k := key.(type) {
	case PublicKey:
		if !registry.isSupported(k.Scheme()) {
			return nil, fmt.Errorf("%w: %s", ErrUnsupportedScheme, k.Scheme().codeName)
		}
		return k, nil
	case *rsa.PublicKey, ed25519.PublicKey:
		der, err := x509.MarshalPKIXPublicKey(k)
		if err != nil {
			return nil, fmt.Errorf("%w: %w", ErrInvalidKey, err)
		}
		return DecodePublicKey(der)
	case *ecdsa.PublicKey:
		if k.Curve == nil || k.X == nil || k.Y == nil {
			return nil, fmt.Errorf("%w: incomplete ECDSA public key", ErrInvalidKey)
		}
		params := k.Curve.Params()
		switch {
		case curveMatches(params, curveSecp256r1):
			der, err := x509.MarshalPKIXPublicKey(&ecdsa.PublicKey{Curve: elliptic.P256(), X: k.X, Y: k.Y})
			if err != nil {
				return nil, fmt.Errorf("%w: %w", ErrInvalidKey, err)
			}
			return DecodePublicKey(der)
		case curveMatches(params, curveSecp256k1):
			size := curveSecp256k1.byteLen()
			raw := make([]byte, 1+2*size)
			raw[0] = 4
			if k.X.Sign() < 0 || k.Y.Sign() < 0 || k.X.BitLen() > 8*size || k.Y.BitLen() > 8*size {
				return nil, fmt.Errorf("%w: K-256 coordinates out of range", ErrInvalidKey)
			}
			k.X.FillBytes(raw[1 : 1+size])
			k.Y.FillBytes(raw[1+size:])
			der, err := marshalPublicKeyInfo(ecdsaSecp256k1SHA256.algorithmID, raw)
			if err != nil {
				return nil, fmt.Errorf("%w: %w", ErrInvalidKey, err)
			}
			return DecodePublicKey(der)
		default:
			return nil, fmt.Errorf("%w: ECDSA curve %s", ErrUnsupportedKeyType, params.Name)
		}
	case *secp256k1secec.PublicKey:
		return newPublicKeyK256(ecdsaSecp256k1SHA256, k)
	case slhdsa.PublicKey:
		return newPublicKeySPHINCS(sphincs256SHA512, k)
	case *slhdsa.PublicKey:
		return newPublicKeySPHINCS(sphincs256SHA512, *k)
	default:
		return nil, fmt.Errorf("%w: %T", ErrUnsupportedKeyType, key)
	}
}

// Private key counterpart of [ToCanonicalPublicKey].
func ToCanonicalPrivateKey(key crypto.PrivateKey) (PrivateKey, error) {
	switch k := key.(type) {
	case PrivateKey:
		if !registry.isSupported(k.Scheme()) {
			return nil, fmt.Errorf("%w: %s", ErrUnsupportedScheme, k.Scheme().codeName)
		}
		return k, nil
	case *rsa.PrivateKey, ed25519.PrivateKey:
		der, err := x509.MarshalPKCS8PrivateKey(k)
		if err != nil {
			return nil, fmt.Errorf("%w: %w", ErrInvalidKey, err)
		}
		return DecodePrivateKey(der)
	case *ecdsa.PrivateKey:
		if k.Curve == nil || k.D == nil {
			return nil, fmt.Errorf("%w: incomplete ECDSA private key", ErrInvalidKey)
		}
		params := k.Curve.Params()
		switch {
		case curveMatches(params, curveSecp256r1):
			return canonicalScalarKey(curveSecp256r1, k, func(d []byte) (PrivateKey, error) {
				return newPrivateKeyP256FromScalar(ecdsaSecp256r1SHA256, d)
			})
		case curveMatches(params, curveSecp256k1):
			return canonicalScalarKey(curveSecp256k1, k, func(d []byte) (PrivateKey, error) {
				return newPrivateKeyK256FromScalar(ecdsaSecp256k1SHA256, d)
			})
		default:
			return nil, fmt.Errorf("%w: ECDSA curve %s", ErrUnsupportedKeyType, params.Name)
		}
	case *secp256k1secec.PrivateKey:
		return newPrivateKeyK256(ecdsaSecp256k1SHA256, k)
	case slhdsa.PrivateKey:
		return newPrivateKeySPHINCS(sphincs256SHA512, k)
	case *slhdsa.PrivateKey:
		return newPrivateKeySPHINCS(sphincs256SHA512, *k)
	default:
		return nil, fmt.Errorf("%w: %T", ErrUnsupportedKeyType, key)
	}
}

func canonicalScalarKey(c *weierstrassCurve, k *ecdsa.PrivateKey, build func(d []byte) (PrivateKey, error)) (PrivateKey, error) {
	size := c.byteLen()
	if k.D.Sign() <= 0 || k.D.BitLen() > 8*size {
		return nil, fmt.Errorf("%w: %s private scalar out of range", ErrInvalidKey, c.name)
	}
	return build(k.D.FillBytes(make([]byte, size)))
}
