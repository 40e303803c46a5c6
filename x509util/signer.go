package x509util

import (
	"fmt"

	"github.com/bluesky-social/ledgercrypto/crypto"
)

// Signs certificate and certification request content under one fixed scheme.
type ContentSigner interface {
	Scheme() *crypto.SignatureScheme

	// Signature algorithm identifier to embed next to the signature.
	AlgorithmID() crypto.AlgorithmIdentifier

	// The key that will verify the produced signatures.
	PublicKey() crypto.PublicKey

	Sign(content []byte) ([]byte, error)
}

type keySigner struct {
	scheme *crypto.SignatureScheme
	priv   crypto.PrivateKey
}

// Resolves the scheme of priv and returns a signer for it.
func NewContentSigner(priv crypto.PrivateKey) (ContentSigner, error) {
	if priv == nil {
		return nil, fmt.Errorf("%w: nil private key", crypto.ErrInvalidKey)
	}
	s := priv.Scheme()
	if !crypto.IsSupported(s) {
		return nil, fmt.Errorf("%w: %s", crypto.ErrUnsupportedScheme, s.CodeName())
	}
	return &keySigner{scheme: s, priv: priv}, nil
}

func (k *keySigner) Scheme() *crypto.SignatureScheme         { return k.scheme }
func (k *keySigner) AlgorithmID() crypto.AlgorithmIdentifier { return k.scheme.SignatureAlgorithmID() }
func (k *keySigner) PublicKey() crypto.PublicKey             { return k.priv.PublicKey() }

func (k *keySigner) Sign(content []byte) ([]byte, error) {
	return crypto.SignWithScheme(k.scheme, k.priv, content)
}
