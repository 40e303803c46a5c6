package crypto

import (
	"encoding/json"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBase58RoundTrip(t *testing.T) {
	assert := assert.New(t)

	for _, s := range SupportedSchemes() {
		kp := testKeyPair(t, s)
		enc := PublicKeyToBase58(kp.Public)
		assert.True(strings.HasPrefix(enc, "z"))

		pub, err := ParsePublicKeyBase58(enc)
		assert.NoError(err)
		assert.True(pub.Equal(kp.Public))

		short := ShortString(kp.Public)
		assert.True(strings.HasPrefix(short, "DL"))
		assert.Equal(short, ShortString(pub))
	}

	_, err := ParsePublicKeyBase58("mAAAA")
	assert.ErrorIs(err, ErrMalformedKey)
	_, err = ParsePublicKeyBase58("z0OIl")
	assert.ErrorIs(err, ErrMalformedKey)
}

func TestPEMRoundTrip(t *testing.T) {
	assert := assert.New(t)

	for _, s := range SupportedSchemes() {
		kp := testKeyPair(t, s)

		privPEM := EncodePrivateKeyPEM(kp.Private)
		pubPEM := EncodePublicKeyPEM(kp.Public)
		assert.Contains(string(privPEM), "BEGIN PRIVATE KEY")
		assert.Contains(string(pubPEM), "BEGIN PUBLIC KEY")

		// both blocks in one file
		bundle := append(append([]byte{}, pubPEM...), privPEM...)
		priv, err := DecodePrivateKeyPEM(bundle)
		assert.NoError(err)
		assert.True(priv.Equal(kp.Private))
		pub, err := DecodePublicKeyPEM(bundle)
		assert.NoError(err)
		assert.True(pub.Equal(kp.Public))
	}

	_, err := DecodePublicKeyPEM([]byte("no pem here"))
	assert.ErrorIs(err, ErrMalformedKey)
}

func TestJWKRoundTrip(t *testing.T) {
	assert := assert.New(t)

	for _, s := range []*SignatureScheme{RSASHA256(), ECDSASecp256k1SHA256(), ECDSASecp256r1SHA256(), EdDSAEd25519SHA512()} {
		kp := testKeyPair(t, s)
		jwk, err := PublicKeyJWK(kp.Public)
		require.NoError(t, err)

		raw, err := json.Marshal(jwk)
		assert.NoError(err)
		pub, err := ParsePublicJWKBytes(raw)
		assert.NoError(err, s.CodeName())
		assert.True(pub.Equal(kp.Public), s.CodeName())
	}

	_, err := PublicKeyJWK(testKeyPair(t, SPHINCS256SHA512()).Public)
	assert.ErrorIs(err, ErrUnsupportedKeyType)

	_, err = ParsePublicJWK(JWK{KeyType: "EC", Curve: "P-384"})
	assert.ErrorIs(err, ErrUnsupportedKeyType)
	_, err = ParsePublicJWK(JWK{KeyType: "oct"})
	assert.ErrorIs(err, ErrUnsupportedKeyType)
}

func TestParseJWKFixture(t *testing.T) {
	assert := assert.New(t)

	// RFC 8037 appendix A.2
	pub, err := ParsePublicJWKBytes([]byte(`{"kty":"OKP","crv":"Ed25519","x":"11qYAYKxCrfVS_7TyWQHOg7hcvPapiMlrwIaaPcHURo"}`))
	assert.NoError(err)
	assert.Equal(EdDSAEd25519SHA512(), pub.Scheme())
}
