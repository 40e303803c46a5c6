package crypto

import (
	"crypto/sha256"
	"encoding/pem"
	"fmt"
	"strings"

	"github.com/mr-tron/base58"
)

const (
	pemTypePrivateKey = "PRIVATE KEY"
	pemTypePublicKey  = "PUBLIC KEY"
)

// Returns multibase string encoding of the public key's SubjectPublicKeyInfo:
//
// - encode the DER bytes with base58btc
// - add "z" prefix
func PublicKeyToBase58(pub PublicKey) string {
	return "z" + base58.Encode(pub.Encoded())
}

// Parses the output of [PublicKeyToBase58]. This does not handle the many possible multibase variations.
func ParsePublicKeyBase58(encoded string) (PublicKey, error) {
	if len(encoded) < 2 || encoded[0] != 'z' {
		return nil, fmt.Errorf("%w: expected base58btc multibase string", ErrMalformedKey)
	}
	der, err := base58.Decode(encoded[1:])
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrMalformedKey, err)
	}
	return DecodePublicKey(der)
}

// Short, stable identifier of a public key for display: "DL" followed by the base58 SHA-256 of the encoded key.
func ShortString(pub PublicKey) string {
	return shortString(pub.Encoded())
}

func shortString(der []byte) string {
	sum := sha256.Sum256(der)
	return "DL" + base58.Encode(sum[:])
}

func EncodePrivateKeyPEM(priv PrivateKey) []byte {
	return pem.EncodeToMemory(&pem.Block{Type: pemTypePrivateKey, Bytes: priv.Encoded()})
}

func EncodePublicKeyPEM(pub PublicKey) []byte {
	return pem.EncodeToMemory(&pem.Block{Type: pemTypePublicKey, Bytes: pub.Encoded()})
}

// Reads the first PEM block of the expected type, skipping anything else (eg, certificates bundled in the same file).
func decodePEMBlock(data []byte, blockType string) ([]byte, error) {
	for {
		var block *pem.Block
		block, data = pem.Decode(data)
		if block == nil {
			return nil, fmt.Errorf("%w: no %q PEM block found", ErrMalformedKey, blockType)
		}
		if strings.EqualFold(block.Type, blockType) {
			return block.Bytes, nil
		}
	}
}

func DecodePrivateKeyPEM(data []byte) (PrivateKey, error) {
	der, err := decodePEMBlock(data, pemTypePrivateKey)
	if err != nil {
		return nil, err
	}
	return DecodePrivateKey(der)
}

func DecodePublicKeyPEM(data []byte) (PublicKey, error) {
	der, err := decodePEMBlock(data, pemTypePublicKey)
	if err != nil {
		return nil, err
	}
	return DecodePublicKey(der)
}
