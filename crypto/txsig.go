package crypto

import (
	"bytes"
	"fmt"

	"golang.org/x/crypto/cryptobyte"
)

const signatureMetadataVersion = 1

// Describes what a transaction signature covers. The canonical serialization from [SignatureMetadata.Bytes] is what actually gets signed.
type SignatureMetadata struct {
	SchemeCodeName string
	// Signer. Verification must use this exact key.
	PublicKey PublicKey
	// Opaque payload description, eg a transaction id. May be empty.
	Extra []byte
}

// Deterministic serialization: version byte, u8-prefixed scheme code name, u16-prefixed SubjectPublicKeyInfo of the signer, u32-prefixed extra bytes.
func (m *SignatureMetadata) Bytes() ([]byte, error) {
	if m.PublicKey == nil {
		return nil, fmt.Errorf("%w: signature metadata has no public key", ErrInvalidKey)
	}
	b := cryptobyte.NewBuilder(nil)
	b.AddUint8(signatureMetadataVersion)
	b.AddUint8LengthPrefixed(func(b *cryptobyte.Builder) {
		b.AddBytes([]byte(m.SchemeCodeName))
	})
	b.AddUint16LengthPrefixed(func(b *cryptobyte.Builder) {
		b.AddBytes(m.PublicKey.Encoded())
	})
	b.AddUint32LengthPrefixed(func(b *cryptobyte.Builder) {
		b.AddBytes(m.Extra)
	})
	return b.Bytes()
}

func ParseSignatureMetadata(data []byte) (*SignatureMetadata, error) {
	s := cryptobyte.String(data)
	var version uint8
	var codeName, pubDER, extra cryptobyte.String
	if !s.ReadUint8(&version) ||
		!s.ReadUint8LengthPrefixed(&codeName) ||
		!s.ReadUint16LengthPrefixed(&pubDER) ||
		!readUint32LengthPrefixed(&s, &extra) ||
		!s.Empty() {
		return nil, fmt.Errorf("malformed signature metadata")
	}
	if version != signatureMetadataVersion {
		return nil, fmt.Errorf("unsupported signature metadata version: %d", version)
	}
	pub, err := DecodePublicKey(pubDER)
	if err != nil {
		return nil, fmt.Errorf("signature metadata public key: %w", err)
	}
	return &SignatureMetadata{
		SchemeCodeName: string(codeName),
		PublicKey:      pub,
		Extra:          bytes.Clone(extra),
	}, nil
}

// A signature over [SignatureMetadata.Bytes], together with the metadata itself.
type TransactionSignature struct {
	Signature []byte
	Metadata  SignatureMetadata
}

// The signing key.
func (ts *TransactionSignature) By() PublicKey {
	return ts.Metadata.PublicKey
}

// Serializes as u32-prefixed signature bytes followed by u32-prefixed metadata bytes.
func (ts *TransactionSignature) Bytes() ([]byte, error) {
	meta, err := ts.Metadata.Bytes()
	if err != nil {
		return nil, err
	}
	b := cryptobyte.NewBuilder(nil)
	b.AddUint32LengthPrefixed(func(b *cryptobyte.Builder) {
		b.AddBytes(ts.Signature)
	})
	b.AddUint32LengthPrefixed(func(b *cryptobyte.Builder) {
		b.AddBytes(meta)
	})
	return b.Bytes()
}

func ParseTransactionSignature(data []byte) (*TransactionSignature, error) {
	s := cryptobyte.String(data)
	var sig, meta cryptobyte.String
	if !readUint32LengthPrefixed(&s, &sig) || !readUint32LengthPrefixed(&s, &meta) || !s.Empty() {
		return nil, fmt.Errorf("malformed transaction signature")
	}
	m, err := ParseSignatureMetadata(meta)
	if err != nil {
		return nil, err
	}
	return &TransactionSignature{Signature: bytes.Clone(sig), Metadata: *m}, nil
}

// cryptobyte.String only reads 8, 16 and 24 bit length prefixes.
func readUint32LengthPrefixed(s *cryptobyte.String, out *cryptobyte.String) bool {
	var n uint32
	var v []byte
	if !s.ReadUint32(&n) || !s.ReadBytes(&v, int(n)) {
		return false
	}
	*out = v
	return true
}

// Signs the metadata with priv. The metadata must name the key's own scheme; if it carries a public key, that key must be priv's. A missing public key is filled in from priv.
func SignTransaction(priv PrivateKey, meta SignatureMetadata) (*TransactionSignature, error) {
	if priv == nil {
		return nil, fmt.Errorf("%w: nil private key", ErrInvalidKey)
	}
	s := priv.Scheme()
	if meta.SchemeCodeName != s.codeName {
		return nil, fmt.Errorf("%w: metadata declares %q, key is %s", ErrSchemeMismatch, meta.SchemeCodeName, s.codeName)
	}
	if meta.PublicKey == nil {
		meta.PublicKey = priv.PublicKey()
	} else if !meta.PublicKey.Equal(priv.PublicKey()) {
		return nil, fmt.Errorf("%w: metadata public key is not the signing key's", ErrKeyMismatch)
	}
	meta.Extra = bytes.Clone(meta.Extra)

	data, err := meta.Bytes()
	if err != nil {
		return nil, err
	}
	sig, err := SignWithScheme(s, priv, data)
	if err != nil {
		return nil, err
	}
	return &TransactionSignature{Signature: sig, Metadata: meta}, nil
}

// Verifies a [TransactionSignature] against pub, which must be the key referenced by its metadata. Returns nil only on success.
func VerifyTransactionSignature(pub PublicKey, ts *TransactionSignature) error {
	if pub == nil {
		return fmt.Errorf("%w: nil public key", ErrInvalidKey)
	}
	if ts == nil {
		return fmt.Errorf("%w: nil transaction signature", ErrEmptyInput)
	}
	if !pub.Equal(ts.Metadata.PublicKey) {
		return fmt.Errorf("%w: signature metadata references a different key", ErrKeyMismatch)
	}
	s, err := registry.findByCodeName(ts.Metadata.SchemeCodeName)
	if err != nil {
		return err
	}
	if !s.Equal(pub.Scheme()) {
		return fmt.Errorf("%w: metadata declares %s, key is %s", ErrSchemeMismatch, s.codeName, pub.Scheme().codeName)
	}
	data, err := ts.Metadata.Bytes()
	if err != nil {
		return err
	}
	return Verify(s, pub, ts.Signature, data)
}
