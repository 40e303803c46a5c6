package crypto

import (
	"sync"
	"testing"

	"github.com/stretchr/testify/require"
)

// RSA-3072 and SLH-DSA key generation are slow, so tests share one key pair per scheme.
var (
	testKeyPairsMu sync.Mutex
	testKeyPairs   = map[SchemeID]*KeyPair{}
)

func testKeyPair(t *testing.T, s *SignatureScheme) *KeyPair {
	t.Helper()
	testKeyPairsMu.Lock()
	defer testKeyPairsMu.Unlock()
	if kp, ok := testKeyPairs[s.ID()]; ok {
		return kp
	}
	kp, err := GenerateKeyPair(s)
	require.NoError(t, err)
	testKeyPairs[s.ID()] = kp
	return kp
}
