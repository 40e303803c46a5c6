package x509util

import (
	"crypto/x509/pkix"
	"sync"
	"testing"
	"time"

	"github.com/bluesky-social/ledgercrypto/crypto"

	"github.com/stretchr/testify/require"
)

var (
	testKeyPairsMu sync.Mutex
	testKeyPairs   = map[crypto.SchemeID]*crypto.KeyPair{}
)

// One shared key pair per scheme; distinct=true always generates a fresh pair.
func testKeyPair(t *testing.T, s *crypto.SignatureScheme, distinct bool) *crypto.KeyPair {
	t.Helper()
	if distinct {
		kp, err := crypto.GenerateKeyPair(s)
		require.NoError(t, err)
		return kp
	}
	testKeyPairsMu.Lock()
	defer testKeyPairsMu.Unlock()
	if kp, ok := testKeyPairs[s.ID()]; ok {
		return kp
	}
	kp, err := crypto.GenerateKeyPair(s)
	require.NoError(t, err)
	testKeyPairs[s.ID()] = kp
	return kp
}

func testWindow(t *testing.T) Window {
	t.Helper()
	w, err := NewValidityWindow(time.Hour, 24*time.Hour, nil)
	require.NoError(t, err)
	return w
}

func testName(org, cn string) pkix.Name {
	return pkix.Name{Country: []string{"GB"}, Organization: []string{org}, CommonName: cn}
}
