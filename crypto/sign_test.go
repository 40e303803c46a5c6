package crypto

import (
	"crypto/rand"
	"fmt"
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/sync/errgroup"
)

func TestSignVerify(t *testing.T) {
	// try signing/verifying a couple different message sizes. these all just get hashed.
	msg := []byte("test-message")
	bigMsg := make([]byte, 64*1024)
	_, err := rand.Read(bigMsg)
	require.NoError(t, err)

	for _, s := range SupportedSchemes() {
		t.Run(s.CodeName(), func(t *testing.T) {
			assert := assert.New(t)
			kp := testKeyPair(t, s)

			for _, m := range [][]byte{msg, bigMsg} {
				sig, err := Sign(kp.Private, m)
				assert.NoError(err)
				assert.NoError(Verify(s, kp.Public, sig, m))
				assert.NoError(VerifyByKey(kp.Public, sig, m))

				ok, err := IsValid(s, kp.Public, sig, m)
				assert.NoError(err)
				assert.True(ok)
			}

			sig, err := SignWithCodeName(s.CodeName(), kp.Private, msg)
			assert.NoError(err)
			assert.NoError(Verify(s, kp.Public, sig, msg))

			// wrong message
			assert.ErrorIs(Verify(s, kp.Public, sig, []byte("other-message")), ErrVerificationFailed)
		})
	}
}

func TestVerifyMismatchedKey(t *testing.T) {
	msg := []byte("mismatched")
	for _, s := range SupportedSchemes() {
		t.Run(s.CodeName(), func(t *testing.T) {
			assert := assert.New(t)
			kp := testKeyPair(t, s)
			other, err := GenerateKeyPair(s)
			require.NoError(t, err)

			sig, err := Sign(kp.Private, msg)
			assert.NoError(err)

			assert.ErrorIs(Verify(s, other.Public, sig, msg), ErrVerificationFailed)
			ok, err := IsValid(s, other.Public, sig, msg)
			assert.NoError(err)
			assert.False(ok)
		})
	}
}

func TestSignEmptyInput(t *testing.T) {
	for _, s := range SupportedSchemes() {
		assert := assert.New(t)
		kp := testKeyPair(t, s)

		_, err := Sign(kp.Private, nil)
		assert.ErrorIs(err, ErrEmptyInput, s.CodeName())
		_, err = Sign(kp.Private, []byte{})
		assert.ErrorIs(err, ErrEmptyInput, s.CodeName())

		assert.ErrorIs(Verify(s, kp.Public, nil, []byte("msg")), ErrEmptyInput)
		assert.ErrorIs(Verify(s, kp.Public, []byte("sig"), nil), ErrEmptyInput)

		_, err = IsValid(s, kp.Public, nil, []byte("msg"))
		assert.ErrorIs(err, ErrEmptyInput)
	}
}

func TestSignWrongScheme(t *testing.T) {
	assert := assert.New(t)
	k256 := testKeyPair(t, ECDSASecp256k1SHA256())
	p256 := testKeyPair(t, ECDSASecp256r1SHA256())

	_, err := SignWithScheme(ECDSASecp256r1SHA256(), k256.Private, []byte("msg"))
	assert.ErrorIs(err, ErrInvalidKey)

	sig, err := Sign(p256.Private, []byte("msg"))
	require.NoError(t, err)
	assert.ErrorIs(Verify(ECDSASecp256k1SHA256(), p256.Public, sig, []byte("msg")), ErrInvalidKey)

	_, err = SignWithCodeName("ECDSA_SECP384R1_SHA384", p256.Private, []byte("msg"))
	assert.ErrorIs(err, ErrUnsupportedScheme)

	_, err = Sign(nil, []byte("msg"))
	assert.ErrorIs(err, ErrInvalidKey)
}

// generate EdDSA key pair, sign, verify, flip a bit, verify again
func TestEdDSABitFlip(t *testing.T) {
	assert := assert.New(t)

	kp, err := GenerateKeyPair(EdDSAEd25519SHA512())
	require.NoError(t, err)

	msg := []byte("hello")
	sig, err := Sign(kp.Private, msg)
	assert.NoError(err)
	assert.NoError(Verify(EdDSAEd25519SHA512(), kp.Public, sig, msg))

	sig[0] ^= 0x01
	assert.ErrorIs(Verify(EdDSAEd25519SHA512(), kp.Public, sig, msg), ErrVerificationFailed)
}

func TestDeterministicSignatures(t *testing.T) {
	assert := assert.New(t)
	msg := []byte("deterministic")

	for _, s := range []*SignatureScheme{EdDSAEd25519SHA512(), SPHINCS256SHA512(), RSASHA256()} {
		kp := testKeyPair(t, s)
		a, err := Sign(kp.Private, msg)
		assert.NoError(err)
		b, err := Sign(kp.Private, msg)
		assert.NoError(err)
		assert.Equal(a, b, s.CodeName())
	}
}

func TestSignMetrics(t *testing.T) {
	assert := assert.New(t)
	kp := testKeyPair(t, ECDSASecp256r1SHA256())
	name := ECDSASecp256r1SHA256().CodeName()

	signedBefore := testutil.ToFloat64(signaturesCreated.WithLabelValues(name))
	validBefore := testutil.ToFloat64(verifications.WithLabelValues(name, resultValid))
	invalidBefore := testutil.ToFloat64(verifications.WithLabelValues(name, resultInvalid))

	sig, err := Sign(kp.Private, []byte("counted"))
	require.NoError(t, err)
	assert.NoError(Verify(ECDSASecp256r1SHA256(), kp.Public, sig, []byte("counted")))
	assert.Error(Verify(ECDSASecp256r1SHA256(), kp.Public, sig, []byte("not counted")))

	assert.Equal(signedBefore+1, testutil.ToFloat64(signaturesCreated.WithLabelValues(name)))
	assert.Equal(validBefore+1, testutil.ToFloat64(verifications.WithLabelValues(name, resultValid)))
	assert.Equal(invalidBefore+1, testutil.ToFloat64(verifications.WithLabelValues(name, resultInvalid)))
}

func TestConcurrentSignVerify(t *testing.T) {
	keys := map[*SignatureScheme]*KeyPair{}
	for _, s := range []*SignatureScheme{ECDSASecp256k1SHA256(), ECDSASecp256r1SHA256(), EdDSAEd25519SHA512()} {
		keys[s] = testKeyPair(t, s)
	}

	var eg errgroup.Group
	for s, kp := range keys {
		for i := 0; i < 16; i++ {
			eg.Go(func() error {
				msg := []byte(fmt.Sprintf("%s-%d", s.CodeName(), i))
				sig, err := Sign(kp.Private, msg)
				if err != nil {
					return err
				}
				pub, err := DecodePublicKey(kp.Public.Encoded())
				if err != nil {
					return err
				}
				return Verify(s, pub, sig, msg)
			})
		}
	}
	assert.NoError(t, eg.Wait())
}
