package main

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/bluesky-social/ledgercrypto/crypto"
	"github.com/bluesky-social/ledgercrypto/x509util"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSelfTestCommand(t *testing.T) {
	assert.NoError(t, run([]string{"ledgercrypto", "selftest", "--rounds", "1"}))
}

func TestKeyAndCertCommands(t *testing.T) {
	assert := assert.New(t)
	dir := t.TempDir()
	rootKey := filepath.Join(dir, "root.key")
	nodeKey := filepath.Join(dir, "node.key")
	rootCert := filepath.Join(dir, "root.pem")
	csrPath := filepath.Join(dir, "node.csr")
	nodeCert := filepath.Join(dir, "node.pem")
	msgPath := filepath.Join(dir, "msg.txt")

	require.NoError(t, run([]string{"ledgercrypto", "key", "generate", "--scheme", "ECDSA_SECP256R1_SHA256", "--out", rootKey}))
	require.NoError(t, run([]string{"ledgercrypto", "key", "generate", "--scheme", "ECDSA_SECP256K1_SHA256", "--out", nodeKey}))
	assert.NoError(run([]string{"ledgercrypto", "key", "inspect", nodeKey}))

	require.NoError(t, run([]string{"ledgercrypto", "cert", "self-signed", "--key", rootKey, "--cn", "Root", "--org", "Ledger", "--out", rootCert}))
	require.NoError(t, run([]string{"ledgercrypto", "cert", "csr", "--key", nodeKey, "--cn", "node", "--org", "Ledger", "--email", "ops@ledger.example", "--out", csrPath}))
	require.NoError(t, run([]string{"ledgercrypto", "cert", "issue", "--issuer-key", rootKey, "--issuer-cert", rootCert, "--csr", csrPath, "--type", "node_ca", "--validity", "1h", "--out", nodeCert}))
	assert.NoError(run([]string{"ledgercrypto", "cert", "inspect", "--root", rootCert, nodeCert}))

	certs, err := x509util.LoadCertificatesPEM(nodeCert)
	require.NoError(t, err)
	require.Len(t, certs, 2)
	assert.True(certs[0].IsCA)
	assert.Equal("node", certs[0].Subject.CommonName)
	assert.Equal(crypto.ECDSASecp256k1SHA256(), certs[0].PublicKey.Scheme())

	// issuing with the wrong issuer key fails the self-check
	assert.ErrorIs(run([]string{"ledgercrypto", "cert", "issue", "--issuer-key", nodeKey, "--issuer-cert", rootCert, "--csr", csrPath}), x509util.ErrCertificateBuild)

	require.NoError(t, os.WriteFile(msgPath, []byte("hello"), 0644))
	assert.NoError(run([]string{"ledgercrypto", "sign", "--key", nodeKey, "--in", msgPath}))
	assert.Error(run([]string{"ledgercrypto", "verify", "--pub", nodeKey, "--in", msgPath, "--sig", "00"}))
	assert.Error(run([]string{"ledgercrypto", "key", "generate", "--scheme", "NOPE"}))
}
