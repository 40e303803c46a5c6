package crypto

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestSchemeCatalog(t *testing.T) {
	assert := assert.New(t)

	expected := []struct {
		id       SchemeID
		codeName string
		scheme   *SignatureScheme
	}{
		{1, "RSA_SHA256", RSASHA256()},
		{2, "ECDSA_SECP256K1_SHA256", ECDSASecp256k1SHA256()},
		{3, "ECDSA_SECP256R1_SHA256", ECDSASecp256r1SHA256()},
		{4, "EDDSA_ED25519_SHA512", EdDSAEd25519SHA512()},
		{5, "SPHINCS-256_SHA512", SPHINCS256SHA512()},
	}

	supported := SupportedSchemes()
	assert.Len(supported, len(expected))
	for i, row := range expected {
		s, err := FindScheme(row.codeName)
		assert.NoError(err)
		assert.Equal(row.scheme, s)
		assert.Equal(row.id, s.ID())
		assert.Equal(row.codeName, s.CodeName())
		assert.Equal(row.scheme, supported[i])

		byID, err := FindSchemeByID(row.id)
		assert.NoError(err)
		assert.Equal(row.scheme, byID)

		byAlg, err := FindSchemeByAlgorithm(s.AlgorithmID())
		assert.NoError(err)
		assert.Equal(row.scheme, byAlg)

		assert.True(IsSupported(s))
	}
	assert.Equal(EdDSAEd25519SHA512(), DefaultSignatureScheme())
}

func TestDistinctECSchemes(t *testing.T) {
	assert := assert.New(t)

	k1, err := FindScheme("ECDSA_SECP256K1_SHA256")
	assert.NoError(err)
	r1, err := FindScheme("ECDSA_SECP256R1_SHA256")
	assert.NoError(err)

	assert.False(k1.Equal(r1))
	assert.Equal(k1.KeyAlgorithm(), r1.KeyAlgorithm())
	assert.NotEqual(k1.AlgorithmID().String(), r1.AlgorithmID().String())
	assert.NotEqual(k1.ProviderName(), r1.ProviderName())
}

func TestUnknownScheme(t *testing.T) {
	assert := assert.New(t)

	_, err := FindScheme("ECDSA_SECP384R1_SHA384")
	assert.ErrorIs(err, ErrUnsupportedScheme)

	_, err = FindSchemeByID(0)
	assert.ErrorIs(err, ErrUnsupportedScheme)

	_, err = FindSchemeByAlgorithm(AlgorithmIdentifier{Algorithm: OIDPublicKeyECDSA, Parameters: []int{1, 3, 132, 0, 34}})
	assert.ErrorIs(err, ErrUnsupportedScheme)

	assert.False(IsSupported(nil))
}

func TestLookAlikeSchemeRejected(t *testing.T) {
	assert := assert.New(t)

	fake := *ecdsaSecp256k1SHA256
	fake.keySize = 128
	assert.False(IsSupported(&fake))

	msg := []byte("look-alike")
	kp := testKeyPair(t, ECDSASecp256k1SHA256())
	_, err := SignWithScheme(&fake, kp.Private, msg)
	assert.ErrorIs(err, ErrUnsupportedScheme)
	_, err = GenerateKeyPair(&fake)
	assert.ErrorIs(err, ErrUnsupportedScheme)
	_, err = DecodePublicKeyWithScheme(&fake, kp.Public.Encoded())
	assert.ErrorIs(err, ErrUnsupportedScheme)
}

func TestAlternativeAlgorithmID(t *testing.T) {
	assert := assert.New(t)

	alts := EdDSAEd25519SHA512().AlternativeAlgorithmIDs()
	assert.Len(alts, 1)
	s, err := FindSchemeByAlgorithm(alts[0])
	assert.NoError(err)
	assert.Equal(EdDSAEd25519SHA512(), s)

	// returned slice is a copy
	alts[0] = AlgorithmIdentifier{Algorithm: OIDPublicKeyRSA}
	assert.True(EdDSAEd25519SHA512().AlternativeAlgorithmIDs()[0].Algorithm.Equal(OIDPublicKeyEd25519Legacy))

	// NULL parameters do not take part in lookups
	s, err = FindSchemeByAlgorithm(AlgorithmIdentifier{Algorithm: OIDPublicKeyRSA})
	assert.NoError(err)
	assert.Equal(RSASHA256(), s)
}

func TestNewRegistryRejectsCollisions(t *testing.T) {
	assert := assert.New(t)

	_, err := newRegistry(catalog, defaultProviders())
	assert.NoError(err)

	dupName := *rsaSHA256
	dupName.id = 99
	_, err = newRegistry([]*SignatureScheme{RSASHA256(), &dupName}, defaultProviders())
	assert.ErrorContains(err, "duplicate signature scheme code name")

	dupID := *rsaSHA256
	dupID.codeName = "RSA_OTHER"
	_, err = newRegistry([]*SignatureScheme{RSASHA256(), &dupID}, defaultProviders())
	assert.ErrorContains(err, "duplicate signature scheme id")

	dupAlg := *ecdsaSecp256r1SHA256
	dupAlg.id = 99
	dupAlg.codeName = "ECDSA_P256_AGAIN"
	_, err = newRegistry([]*SignatureScheme{ECDSASecp256r1SHA256(), &dupAlg}, defaultProviders())
	assert.ErrorContains(err, "claimed by both")

	noProvider := *rsaSHA256
	noProvider.providerName = "missing"
	_, err = newRegistry([]*SignatureScheme{&noProvider}, defaultProviders())
	assert.ErrorContains(err, "no provider")

	wrongCurve := *ecdsaSecp256k1SHA256
	wrongCurve.providerName = ProviderStdlib
	_, err = newRegistry([]*SignatureScheme{&wrongCurve}, defaultProviders())
	assert.ErrorContains(err, "does not implement")
}

func TestSchemeForKeyInfo(t *testing.T) {
	assert := assert.New(t)

	for _, s := range SupportedSchemes() {
		kp := testKeyPair(t, s)

		fromPub, err := FindSchemeForPublicKeyInfo(kp.Public.Encoded())
		assert.NoError(err)
		assert.Equal(s, fromPub)

		fromPriv, err := FindSchemeForPrivateKeyInfo(kp.Private.Encoded())
		assert.NoError(err)
		assert.Equal(s, fromPriv)
	}

	_, err := FindSchemeForPublicKeyInfo([]byte("not a key"))
	assert.ErrorIs(err, ErrMalformedKey)
}

func TestReturnedSchemesAreCopies(t *testing.T) {
	assert := assert.New(t)

	overwritten := RSASHA256()
	*overwritten = *EdDSAEd25519SHA512()
	s, err := FindScheme("RSA_SHA256")
	assert.NoError(err)
	assert.Equal(SchemeIDRSASHA256, s.ID())
	assert.Equal("RSA_SHA256", RSASHA256().CodeName())
	assert.True(IsSupported(s))
	assert.True(IsSupported(overwritten))
	assert.Equal(EdDSAEd25519SHA512(), overwritten)

	kp := testKeyPair(t, EdDSAEd25519SHA512())
	fromKey := kp.Public.Scheme()
	*fromKey = *ECDSASecp256k1SHA256()
	assert.Equal(EdDSAEd25519SHA512(), kp.Public.Scheme())

	for _, s := range SupportedSchemes() {
		id := s.AlgorithmID()
		id.Algorithm[0] = 9
	}
	s, err = FindSchemeByAlgorithm(AlgorithmIdentifier{Algorithm: OIDPublicKeyEd25519})
	assert.NoError(err)
	assert.Equal(EdDSAEd25519SHA512(), s)

	p256 := ECDSASecp256r1SHA256()
	id := p256.AlgorithmID()
	id.Parameters[len(id.Parameters)-1]++
	assert.True(IsSupported(p256))
	assert.False(p256.Equal(ECDSASecp256k1SHA256()))
}
