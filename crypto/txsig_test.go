package crypto

import (
	"encoding/binary"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTransactionSignature(t *testing.T) {
	for _, s := range SupportedSchemes() {
		t.Run(s.CodeName(), func(t *testing.T) {
			assert := assert.New(t)
			kp := testKeyPair(t, s)

			meta := SignatureMetadata{
				SchemeCodeName: s.CodeName(),
				PublicKey:      kp.Public,
				Extra:          []byte("tx-id-0001"),
			}
			ts, err := SignTransaction(kp.Private, meta)
			require.NoError(t, err)
			assert.True(ts.By().Equal(kp.Public))
			assert.NoError(VerifyTransactionSignature(kp.Public, ts))

			// wire round trip
			raw, err := ts.Bytes()
			assert.NoError(err)
			parsed, err := ParseTransactionSignature(raw)
			assert.NoError(err)
			assert.Equal(ts.Signature, parsed.Signature)
			assert.Equal(ts.Metadata.Extra, parsed.Metadata.Extra)
			assert.NoError(VerifyTransactionSignature(kp.Public, parsed))

			// tampered metadata no longer verifies
			parsed.Metadata.Extra = []byte("tx-id-0002")
			assert.ErrorIs(VerifyTransactionSignature(kp.Public, parsed), ErrVerificationFailed)
		})
	}
}

func TestSignatureMetadataDeterministic(t *testing.T) {
	assert := assert.New(t)
	kp := testKeyPair(t, EdDSAEd25519SHA512())

	meta := SignatureMetadata{SchemeCodeName: EdDSAEd25519SHA512().CodeName(), PublicKey: kp.Public, Extra: []byte{1, 2, 3}}
	a, err := meta.Bytes()
	assert.NoError(err)
	b, err := meta.Bytes()
	assert.NoError(err)
	assert.Equal(a, b)

	parsed, err := ParseSignatureMetadata(a)
	assert.NoError(err)
	again, err := parsed.Bytes()
	assert.NoError(err)
	assert.Equal(a, again)

	_, err = ParseSignatureMetadata(a[:len(a)-1])
	assert.Error(err)
	_, err = ParseSignatureMetadata(append([]byte{9}, a[1:]...))
	assert.ErrorContains(err, "version")
}

func TestSignTransactionMismatch(t *testing.T) {
	assert := assert.New(t)
	ed := testKeyPair(t, EdDSAEd25519SHA512())
	k256 := testKeyPair(t, ECDSASecp256k1SHA256())

	_, err := SignTransaction(ed.Private, SignatureMetadata{SchemeCodeName: ECDSASecp256k1SHA256().CodeName()})
	assert.ErrorIs(err, ErrSchemeMismatch)

	_, err = SignTransaction(ed.Private, SignatureMetadata{SchemeCodeName: EdDSAEd25519SHA512().CodeName(), PublicKey: k256.Public})
	assert.ErrorIs(err, ErrKeyMismatch)

	// missing public key is filled in from the signer
	ts, err := SignTransaction(ed.Private, SignatureMetadata{SchemeCodeName: EdDSAEd25519SHA512().CodeName()})
	require.NoError(t, err)
	assert.True(ts.By().Equal(ed.Public))

	other, err := GenerateKeyPair(EdDSAEd25519SHA512())
	require.NoError(t, err)
	assert.ErrorIs(VerifyTransactionSignature(other.Public, ts), ErrKeyMismatch)
	assert.ErrorIs(VerifyTransactionSignature(k256.Public, ts), ErrKeyMismatch)
}

func TestTransactionSignatureFraming(t *testing.T) {
	assert := assert.New(t)
	kp := testKeyPair(t, EdDSAEd25519SHA512())

	ts, err := SignTransaction(kp.Private, SignatureMetadata{SchemeCodeName: EdDSAEd25519SHA512().CodeName(), Extra: []byte("framing")})
	require.NoError(t, err)
	raw, err := ts.Bytes()
	require.NoError(t, err)

	// u32 big-endian signature length, signature, u32 metadata length, metadata
	sigLen := binary.BigEndian.Uint32(raw[:4])
	assert.Equal(uint32(len(ts.Signature)), sigLen)
	assert.Equal(ts.Signature, raw[4:4+sigLen])
	meta, err := ts.Metadata.Bytes()
	require.NoError(t, err)
	assert.Equal(uint32(len(meta)), binary.BigEndian.Uint32(raw[4+sigLen:8+sigLen]))
	assert.Equal(meta, raw[8+sigLen:])

	_, err = ParseTransactionSignature(raw[:len(raw)-1])
	assert.Error(err)
	_, err = ParseTransactionSignature(append(raw, 0))
	assert.Error(err)
	_, err = ParseTransactionSignature(raw[:3])
	assert.Error(err)

	// a length prefix larger than the remaining input
	long := append([]byte(nil), raw...)
	binary.BigEndian.PutUint32(long[:4], 0xffffffff)
	_, err = ParseTransactionSignature(long)
	assert.Error(err)
}
