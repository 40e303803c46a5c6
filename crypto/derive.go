package crypto

import (
	"crypto/hmac"
	"crypto/sha256"
	"crypto/sha512"
	"fmt"
	"log/slog"
	"math/big"
)

// Upper bound on rejection-sampling rounds in deterministic EC derivation. Each round fails with probability far below 2^-100, so reaching the bound indicates a broken input rather than bad luck.
const MaxDerivationAttempts = 256

// Rejection reasons, also used as metric labels.
const (
	rejectTooSmall  = "too_small"
	rejectNAFWeight = "naf_weight"
	rejectTooLarge  = "too_large"
	rejectInfinity  = "infinity"
)

// Checks a candidate private scalar against curve c. Returns the rejection reason, or "" if d is acceptable.
func checkDerivedScalar(c *weierstrassCurve, d *big.Int) string {
	if d.Cmp(big.NewInt(2)) < 0 {
		return rejectTooSmall
	}
	if nafWeight(d) < c.n.BitLen()/4 {
		return rejectNAFWeight
	}
	if d.Cmp(c.n) >= 0 {
		return rejectTooLarge
	}
	return ""
}

// Deterministic EC key derivation. The candidate scalar is HMAC-SHA512(secret, seed) truncated to the field size; rejected candidates are retried with seed = SHA-256(seed).
//
// build turns an accepted fixed-width scalar into a key pair of the right scheme.
func deriveECKeyPair(c *weierstrassCurve, secret, seed []byte, build func(d []byte) (*KeyPair, error)) (*KeyPair, error) {
	size := c.byteLen()
	for attempt := 1; attempt <= MaxDerivationAttempts; attempt++ {
		mac := hmac.New(sha512.New, secret)
		mac.Write(seed)
		candidate := mac.Sum(nil)[:size]

		reason := checkDerivedScalar(c, new(big.Int).SetBytes(candidate))
		if reason == "" {
			kp, err := build(candidate)
			if err != nil {
				return nil, err
			}
			ok, err := kp.Public.onCurve()
			if err != nil {
				return nil, err
			}
			if ok {
				return kp, nil
			}
			reason = rejectInfinity
		}

		derivationRejections.WithLabelValues(c.name, reason).Inc()
		slog.Debug("rejected derived key candidate", "curve", c.name, "reason", reason, "attempt", attempt)
		next := sha256.Sum256(seed)
		seed = next[:]
	}
	return nil, fmt.Errorf("%w: %s after %d attempts", ErrDerivationExhausted, c.name, MaxDerivationAttempts)
}

// Deterministically derives a new key pair from priv and seed. Supported for both ECDSA schemes and for EdDSA; the same inputs always produce the same key pair.
func DeriveKeyPair(s *SignatureScheme, priv PrivateKey, seed []byte) (*KeyPair, error) {
	s, impl, err := registry.algorithm(s)
	if err != nil {
		return nil, err
	}
	if priv == nil {
		return nil, fmt.Errorf("%w: nil private key", ErrInvalidKey)
	}
	if !s.Equal(priv.Scheme()) {
		return nil, fmt.Errorf("%w: %s key used with %s", ErrSchemeMismatch, priv.Scheme().codeName, s.codeName)
	}
	return impl.deriveKeyPair(s, priv, seed)
}

// Like [DeriveKeyPair], with the scheme taken from the key.
func DeriveKeyPairFromKey(priv PrivateKey, seed []byte) (*KeyPair, error) {
	if priv == nil {
		return nil, fmt.Errorf("%w: nil private key", ErrInvalidKey)
	}
	return DeriveKeyPair(priv.Scheme(), priv, seed)
}

// Builds a key pair directly from an integer, with no hashing or rejection sampling. Only EdDSA is supported. Intended for reproducible test fixtures, not for production keys.
func EntropyToKeyPair(s *SignatureScheme, entropy *big.Int) (*KeyPair, error) {
	s, impl, err := registry.algorithm(s)
	if err != nil {
		return nil, err
	}
	if entropy == nil {
		return nil, fmt.Errorf("%w: nil entropy", ErrEmptyInput)
	}
	return impl.entropyToKeyPair(s, entropy)
}
