package x509util

import (
	"crypto/x509"
	"crypto/x509/pkix"
	"testing"
	"time"

	"github.com/bluesky-social/ledgercrypto/crypto"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSelfSignedCA(t *testing.T) {
	assert := assert.New(t)

	for _, s := range crypto.SupportedSchemes() {
		kp := testKeyPair(t, s, false)
		root, err := CreateSelfSignedCACertificate(testName("Ledger", "Root "+s.CodeName()), kp, testWindow(t))
		require.NoError(t, err, s.CodeName())

		assert.True(root.BasicConstraintsValid)
		assert.True(root.IsCA)
		assert.NotZero(root.KeyUsage & x509.KeyUsageCertSign)
		assert.Equal(RootCA.ExtKeyUsages(), root.ExtKeyUsage)
		assert.Equal(root.SubjectKeyId, root.AuthorityKeyId)
		assert.Len(root.SubjectKeyId, 20)
		assert.Equal("Root "+s.CodeName(), root.Subject.CommonName)
		assert.Equal(root.RawIssuer, root.RawSubject)
		assert.True(root.PublicKey.Equal(kp.Public))
		assert.True(s.SignatureAlgorithmID().Equal(root.SignatureAlgorithm))
		assert.Positive(root.SerialNumber.Sign())
		assert.Less(root.SerialNumber.BitLen(), 128)

		assert.NoError(root.CheckSignature(kp.Public))
		assert.NoError(root.CheckSignatureFrom(root))
		assert.NoError(root.CheckValidity(time.Now()))

		again, err := ParseCertificate(root.Raw)
		assert.NoError(err)
		assert.True(again.Equal(root))
	}
}

func TestIssueCertificateTypes(t *testing.T) {
	assert := assert.New(t)

	issuerKP := testKeyPair(t, crypto.ECDSASecp256r1SHA256(), false)
	subjectKP := testKeyPair(t, crypto.EdDSAEd25519SHA512(), false)
	issuer := testName("Ledger", "Issuer")

	for ct := RootCA; ct <= ConfidentialLegalIdentity; ct++ {
		cert, err := IssueCertificateWithKeyPair(ct, issuer, issuerKP, testName("Ledger", ct.String()), subjectKP.Public, testWindow(t), nil)
		require.NoError(t, err, ct.String())

		assert.Equal(ct.IsCA(), cert.IsCA, ct.String())
		assert.True(cert.BasicConstraintsValid)
		assert.Equal(ct.KeyUsage(), cert.KeyUsage, ct.String())
		assert.Equal(ct.ExtKeyUsages(), cert.ExtKeyUsage)
		assert.Nil(cert.NameConstraints)
		assert.NotEqual(cert.SubjectKeyId, cert.AuthorityKeyId)
		assert.NoError(cert.CheckSignature(issuerKP.Public))

		// only CA certificates carry a critical basic constraints extension
		for _, ext := range cert.Extensions {
			if ext.Id.Equal(OIDExtensionBasicConstraints) {
				assert.Equal(ct.IsCA(), ext.Critical)
			}
		}
	}

	_, err := IssueCertificateWithKeyPair(CertificateType(99), issuer, issuerKP, issuer, subjectKP.Public, testWindow(t), nil)
	assert.Error(err)
}

func TestIssueWithMismatchedKeyPair(t *testing.T) {
	assert := assert.New(t)

	for _, s := range []*crypto.SignatureScheme{crypto.ECDSASecp256k1SHA256(), crypto.EdDSAEd25519SHA512()} {
		kp := testKeyPair(t, s, false)
		other := testKeyPair(t, s, true)
		mixed := &crypto.KeyPair{Public: other.Public, Private: kp.Private}

		_, err := IssueCertificateWithKeyPair(NodeCA, testName("Ledger", "Root"), mixed, testName("Ledger", "Node"), kp.Public, testWindow(t), nil)
		assert.ErrorIs(err, ErrCertificateBuild, s.CodeName())
	}

	// a pre-built signer skips the self-checks
	kp := testKeyPair(t, crypto.ECDSASecp256r1SHA256(), false)
	other := testKeyPair(t, crypto.ECDSASecp256r1SHA256(), true)
	signer, err := NewContentSigner(kp.Private)
	require.NoError(t, err)
	cert, err := IssueCertificate(NodeCA, testName("Ledger", "Root"), signer, testName("Ledger", "Node"), kp.Public, testWindow(t), nil)
	assert.NoError(err)
	assert.ErrorIs(cert.CheckSignature(other.Public), crypto.ErrVerificationFailed)
}

func TestIssueOutsideValidity(t *testing.T) {
	assert := assert.New(t)

	kp := testKeyPair(t, crypto.EdDSAEd25519SHA512(), false)
	now := time.Now().UTC().Truncate(time.Second)
	expired := Window{NotBefore: now.Add(-48 * time.Hour), NotAfter: now.Add(-24 * time.Hour)}
	_, err := CreateSelfSignedCACertificate(testName("Ledger", "Old"), kp, expired)
	assert.ErrorIs(err, ErrCertificateBuild)

	future := Window{NotBefore: now.Add(24 * time.Hour), NotAfter: now.Add(48 * time.Hour)}
	_, err = CreateSelfSignedCACertificate(testName("Ledger", "New"), kp, future)
	assert.ErrorIs(err, ErrCertificateBuild)

	_, err = CreateSelfSignedCACertificate(testName("Ledger", "Empty"), kp, Window{NotBefore: now, NotAfter: now})
	assert.Error(err)
}

func TestLongValidityUsesGeneralizedTime(t *testing.T) {
	assert := assert.New(t)

	kp := testKeyPair(t, crypto.ECDSASecp256r1SHA256(), false)
	now := time.Now().UTC().Truncate(time.Second)
	w := Window{NotBefore: now, NotAfter: time.Date(2070, 1, 1, 0, 0, 0, 0, time.UTC)}
	root, err := CreateSelfSignedCACertificate(testName("Ledger", "Long"), kp, w)
	require.NoError(t, err)
	assert.True(w.NotAfter.Equal(root.NotAfter))
	assert.True(w.NotBefore.Equal(root.NotBefore))
}

func TestValidityWindowClampsToParent(t *testing.T) {
	assert := assert.New(t)

	kp := testKeyPair(t, crypto.EdDSAEd25519SHA512(), false)
	parentWindow, err := NewValidityWindow(0, 2*time.Hour, nil)
	require.NoError(t, err)
	parent, err := CreateSelfSignedCACertificate(testName("Ledger", "Parent"), kp, parentWindow)
	require.NoError(t, err)

	w, err := NewValidityWindow(24*time.Hour, 365*24*time.Hour, parent)
	assert.NoError(err)
	assert.True(w.NotBefore.Equal(parent.NotBefore))
	assert.True(w.NotAfter.Equal(parent.NotAfter))
	assert.True(w.Contains(time.Now()))

	_, err = NewValidityWindow(0, -time.Hour, nil)
	assert.Error(err)
}

func TestCertificateTypes(t *testing.T) {
	assert := assert.New(t)

	assert.True(RootCA.IsCA())
	assert.True(IntermediateCA.IsCA())
	assert.False(TLS.IsCA())
	assert.False(ServiceIdentity.IsCA())

	ct, err := ParseCertificateType("tls")
	assert.NoError(err)
	assert.Equal(TLS, ct)
	ct, err = ParseCertificateType("NODE_CA")
	assert.NoError(err)
	assert.Equal(NodeCA, ct)
	_, err = ParseCertificateType("bogus")
	assert.Error(err)

	assert.Equal("CertificateType(42)", CertificateType(42).String())

	// callers cannot mutate the shared purpose list
	ekus := TLS.ExtKeyUsages()
	ekus[0] = OIDExtKeyUsageAny
	assert.Equal(OIDExtKeyUsageServerAuth, TLS.ExtKeyUsages()[0])
}

func TestKeyUsageEncoding(t *testing.T) {
	assert := assert.New(t)

	for _, ku := range []x509.KeyUsage{
		x509.KeyUsageDigitalSignature,
		x509.KeyUsageDigitalSignature | x509.KeyUsageCertSign | x509.KeyUsageCRLSign,
		x509.KeyUsageDecipherOnly | x509.KeyUsageKeyAgreement,
	} {
		der, err := marshalKeyUsage(ku)
		require.NoError(t, err)
		var c Certificate
		assert.NoError(c.applyExtension(pkix.Extension{Id: OIDExtensionKeyUsage, Value: der}))
		assert.Equal(ku, c.KeyUsage)
	}

	// digitalSignature alone: one byte, seven unused bits
	der, err := marshalKeyUsage(x509.KeyUsageDigitalSignature)
	assert.NoError(err)
	assert.Equal([]byte{0x03, 0x02, 0x07, 0x80}, der)
}

func TestIssueMetrics(t *testing.T) {
	assert := assert.New(t)

	kp := testKeyPair(t, crypto.EdDSAEd25519SHA512(), false)
	before := testutil.ToFloat64(certificatesIssued.WithLabelValues(RootCA.String()))
	_, err := CreateSelfSignedCACertificate(testName("Ledger", "Counted"), kp, testWindow(t))
	require.NoError(t, err)
	assert.Equal(before+1, testutil.ToFloat64(certificatesIssued.WithLabelValues(RootCA.String())))
}

func TestNameConstraintsRoundTrip(t *testing.T) {
	assert := assert.New(t)

	rootKP := testKeyPair(t, crypto.ECDSASecp256r1SHA256(), false)
	interKP := testKeyPair(t, crypto.ECDSASecp256r1SHA256(), true)
	root, err := CreateSelfSignedCACertificate(testName("Ledger", "Root"), rootKP, testWindow(t))
	require.NoError(t, err)

	nc := &NameConstraints{
		PermittedDNSDomains:     []string{"ledger.example", "corda.example"},
		ExcludedDNSDomains:      []string{"bad.ledger.example"},
		PermittedDirectoryNames: []pkix.Name{{Country: []string{"GB"}, Organization: []string{"Ledger"}}},
		ExcludedDirectoryNames:  []pkix.Name{{Country: []string{"GB"}, Organization: []string{"Ledger"}, CommonName: "Banned"}},
	}
	cert, err := IssueCertificateWithKeyPair(IntermediateCA, root.Subject, rootKP, testName("Ledger", "Intermediate"), interKP.Public, testWindow(t), nc)
	require.NoError(t, err)

	parsed, err := ParseCertificate(cert.Raw)
	require.NoError(t, err)
	require.NotNil(t, parsed.NameConstraints)
	assert.Equal(nc.PermittedDNSDomains, parsed.NameConstraints.PermittedDNSDomains)
	assert.Equal(nc.ExcludedDNSDomains, parsed.NameConstraints.ExcludedDNSDomains)
	require.Len(t, parsed.NameConstraints.PermittedDirectoryNames, 1)
	require.Len(t, parsed.NameConstraints.ExcludedDirectoryNames, 1)
	assert.Equal("GB", parsed.NameConstraints.PermittedDirectoryNames[0].Country[0])
	assert.Equal("Banned", parsed.NameConstraints.ExcludedDirectoryNames[0].CommonName)

	var found bool
	for _, ext := range parsed.Extensions {
		if ext.Id.Equal(OIDExtensionNameConstraints) {
			found = true
			assert.True(ext.Critical)
		}
	}
	assert.True(found)

	// permitted and excluded subtrees are read back by crypto/x509 too
	std, err := parsed.X509()
	require.NoError(t, err)
	assert.Equal(nc.PermittedDNSDomains, std.PermittedDNSDomains)
	assert.Equal(nc.ExcludedDNSDomains, std.ExcludedDNSDomains)
	assert.True(std.PermittedDNSDomainsCritical)

	// excluded subtrees alone
	cert, err = IssueCertificateWithKeyPair(NodeCA, root.Subject, rootKP, testName("Ledger", "Node"), interKP.Public, testWindow(t), &NameConstraints{ExcludedDNSDomains: []string{"bad.example"}})
	require.NoError(t, err)
	require.NotNil(t, cert.NameConstraints)
	assert.Empty(cert.NameConstraints.PermittedDNSDomains)
	assert.Equal([]string{"bad.example"}, cert.NameConstraints.ExcludedDNSDomains)
}
