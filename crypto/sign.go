package crypto

import (
	"fmt"
)

const (
	resultValid   = "valid"
	resultInvalid = "invalid"
)

// Signs msg with priv, under the key's own scheme.
//
// The message is hashed as the scheme requires (SHA-256 for RSA and ECDSA; internally for Ed25519 and SLH-DSA). ECDSA signatures are ASN.1 DER encoded.
func Sign(priv PrivateKey, msg []byte) ([]byte, error) {
	if priv == nil {
		return nil, fmt.Errorf("%w: nil private key", ErrInvalidKey)
	}
	return SignWithScheme(priv.Scheme(), priv, msg)
}

// Signs msg with priv, under an explicitly chosen scheme. The key must belong to that scheme.
func SignWithScheme(s *SignatureScheme, priv PrivateKey, msg []byte) ([]byte, error) {
	s, _, err := registry.algorithm(s)
	if err != nil {
		return nil, err
	}
	if priv == nil {
		return nil, fmt.Errorf("%w: nil private key", ErrInvalidKey)
	}
	if !s.Equal(priv.Scheme()) {
		return nil, fmt.Errorf("%w: %s key cannot sign for %s", ErrInvalidKey, priv.Scheme().codeName, s.codeName)
	}
	if len(msg) == 0 {
		return nil, fmt.Errorf("%w: signing empty data", ErrEmptyInput)
	}
	sig, err := priv.sign(msg)
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %w", ErrSigning, s.codeName, err)
	}
	signaturesCreated.WithLabelValues(s.codeName).Inc()
	return sig, nil
}

func SignWithCodeName(codeName string, priv PrivateKey, msg []byte) ([]byte, error) {
	s, err := registry.findByCodeName(codeName)
	if err != nil {
		return nil, err
	}
	return SignWithScheme(s, priv, msg)
}

// Checks that sig is a valid signature of msg by pub under scheme s.
//
// Returns nil only if the signature verifies; a signature that does not verify is reported as [ErrVerificationFailed], never as a silent false.
func Verify(s *SignatureScheme, pub PublicKey, sig, msg []byte) error {
	ok, err := IsValid(s, pub, sig, msg)
	if err != nil {
		return err
	}
	if !ok {
		return fmt.Errorf("%w: %s", ErrVerificationFailed, s.codeName)
	}
	return nil
}

// Like [Verify], but reports a cryptographically invalid signature as false. Errors are still returned for empty input, unsupported schemes and mismatched keys.
func IsValid(s *SignatureScheme, pub PublicKey, sig, msg []byte) (bool, error) {
	s, _, err := registry.algorithm(s)
	if err != nil {
		return false, err
	}
	if pub == nil {
		return false, fmt.Errorf("%w: nil public key", ErrInvalidKey)
	}
	if !s.Equal(pub.Scheme()) {
		return false, fmt.Errorf("%w: %s key cannot verify for %s", ErrInvalidKey, pub.Scheme().codeName, s.codeName)
	}
	if len(sig) == 0 {
		return false, fmt.Errorf("%w: signature is empty", ErrEmptyInput)
	}
	if len(msg) == 0 {
		return false, fmt.Errorf("%w: signed data is empty", ErrEmptyInput)
	}
	ok := pub.verify(sig, msg)
	if ok {
		verifications.WithLabelValues(s.codeName, resultValid).Inc()
	} else {
		verifications.WithLabelValues(s.codeName, resultInvalid).Inc()
	}
	return ok, nil
}

// Like [Verify], with the scheme taken from the key.
func VerifyByKey(pub PublicKey, sig, msg []byte) error {
	if pub == nil {
		return fmt.Errorf("%w: nil public key", ErrInvalidKey)
	}
	return Verify(pub.Scheme(), pub, sig, msg)
}
