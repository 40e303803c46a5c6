package crypto

import (
	"errors"
)

var (
	// The scheme is not in the catalog, or is not the catalog's own instance.
	ErrUnsupportedScheme = errors.New("unsupported signature scheme")

	// The runtime key family is not handled by the requested operation.
	ErrUnsupportedKeyType = errors.New("unsupported key type")

	// Encoded key bytes could not be parsed as a PKCS#8 or SubjectPublicKeyInfo envelope.
	ErrMalformedKey = errors.New("malformed encoded key")

	// Key payload does not have the shape expected by the resolved scheme.
	ErrKeySpec = errors.New("key does not match scheme key spec")

	// Key was rejected when initializing a signer or verifier.
	ErrInvalidKey = errors.New("invalid key")

	ErrEmptyInput = errors.New("empty input")

	// Metadata declares a different scheme than the signing key.
	ErrSchemeMismatch = errors.New("signature scheme mismatch")

	// Verification key differs from the key referenced by signed metadata.
	ErrKeyMismatch = errors.New("public key mismatch")

	ErrVerificationFailed = errors.New("signature verification failed")

	ErrSigning = errors.New("signing failed")

	ErrUnsupportedOperation = errors.New("operation not supported for signature scheme")

	// Deterministic derivation hit MaxDerivationAttempts without a valid candidate.
	ErrDerivationExhausted = errors.New("deterministic key derivation exhausted retries")
)
