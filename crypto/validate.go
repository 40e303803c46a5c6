package crypto

import (
	"fmt"
)

// Reports whether pub is a valid point of the scheme's curve: the key's curve parameters are the scheme's own, the point is not the identity, and it satisfies the curve equation. Ed25519 points must also not be of small order.
//
// Returns ErrUnsupportedKeyType for RSA and SLH-DSA keys.
func IsOnCurve(s *SignatureScheme, pub PublicKey) (bool, error) {
	s, _, err := registry.algorithm(s)
	if err != nil {
		return false, err
	}
	if pub == nil {
		return false, fmt.Errorf("%w: nil public key", ErrInvalidKey)
	}
	if !s.Equal(pub.Scheme()) {
		return false, nil
	}
	return pub.onCurve()
}

// Checks a public key against its scheme's validity rules.
//
// RSA and SLH-DSA keys are accepted without further checks: modulus size and parameter validation are not enforced for those families.
func ValidatePublicKey(pub PublicKey) error {
	if pub == nil {
		return fmt.Errorf("%w: nil public key", ErrInvalidKey)
	}
	s := pub.Scheme()
	if !registry.isSupported(s) {
		return fmt.Errorf("%w: %s", ErrUnsupportedScheme, s.codeName)
	}
	switch pub.(type) {
	case *PublicKeyRSA, *PublicKeySPHINCS:
		return nil
	}
	ok, err := IsOnCurve(s, pub)
	if err != nil {
		return err
	}
	if !ok {
		return fmt.Errorf("%w: %s public key is not a valid curve point", ErrInvalidKey, s.codeName)
	}
	return nil
}

// Checks a private key by validating its public counterpart.
func ValidatePrivateKey(priv PrivateKey) error {
	if priv == nil {
		return fmt.Errorf("%w: nil private key", ErrInvalidKey)
	}
	return ValidatePublicKey(priv.PublicKey())
}
