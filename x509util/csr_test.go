package x509util

import (
	"crypto/x509"
	"testing"

	"github.com/bluesky-social/ledgercrypto/crypto"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCertificateSigningRequest(t *testing.T) {
	assert := assert.New(t)

	for _, s := range crypto.SupportedSchemes() {
		kp := testKeyPair(t, s, false)
		csr, err := CreateCertificateSigningRequest(testName("Ledger", "node"), "ops@ledger.example", kp, s)
		require.NoError(t, err, s.CodeName())

		assert.Equal("node", csr.Subject.CommonName)
		assert.Equal("ops@ledger.example", csr.EmailAddress)
		assert.True(csr.PublicKey.Equal(kp.Public))
		assert.True(s.SignatureAlgorithmID().Equal(csr.SignatureAlgorithm))
		assert.NoError(csr.CheckSignature(), s.CodeName())

		again, err := DecodeCertificateRequestPEM(EncodeCertificateRequestPEM(csr))
		assert.NoError(err)
		assert.Equal(csr.Raw, again.Raw)
	}
}

func TestCertificateSigningRequestStandardLibrary(t *testing.T) {
	assert := assert.New(t)

	kp := testKeyPair(t, crypto.ECDSASecp256r1SHA256(), false)
	csr, err := CreateCertificateSigningRequest(testName("Ledger", "node"), "", kp, crypto.ECDSASecp256r1SHA256())
	require.NoError(t, err)
	assert.Empty(csr.EmailAddress)

	std, err := x509.ParseCertificateRequest(csr.Raw)
	require.NoError(t, err)
	assert.NoError(std.CheckSignature())
	assert.Equal("node", std.Subject.CommonName)
}

func TestCertificateSigningRequestErrors(t *testing.T) {
	assert := assert.New(t)

	kp := testKeyPair(t, crypto.EdDSAEd25519SHA512(), false)
	_, err := CreateCertificateSigningRequest(testName("Ledger", "node"), "", kp, crypto.ECDSASecp256r1SHA256())
	assert.ErrorIs(err, crypto.ErrSchemeMismatch)

	_, err = CreateCertificateSigningRequest(testName("Ledger", "node"), "", &crypto.KeyPair{Public: kp.Public}, crypto.EdDSAEd25519SHA512())
	assert.ErrorIs(err, crypto.ErrInvalidKey)

	csr, err := CreateCertificateSigningRequest(testName("Ledger", "node"), "", kp, crypto.EdDSAEd25519SHA512())
	require.NoError(t, err)
	tampered := append([]byte{}, csr.Raw...)
	tampered[len(tampered)-1] ^= 0x01
	bad, err := ParseCertificateRequest(tampered)
	require.NoError(t, err)
	assert.ErrorIs(bad.CheckSignature(), crypto.ErrVerificationFailed)

	_, err = ParseCertificateRequest([]byte{0x30, 0x00})
	assert.ErrorIs(err, ErrInvalidCertificate)
	_, err = DecodeCertificateRequestPEM([]byte("nothing"))
	assert.ErrorIs(err, ErrInvalidCertificate)
}
