package crypto

import (
	"fmt"
	"io"
	"math/big"
	"slices"

	lru "github.com/hashicorp/golang-lru/v2"
)

// Number of decoded public keys memoised by [DecodePublicKey].
const publicKeyCacheSize = 4096

// Per-scheme key operations. Every supported scheme binds exactly one implementation, so each of these methods has to exist for every key family.
type keyAlgorithm interface {
	generateKeyPair(s *SignatureScheme, rand io.Reader) (*KeyPair, error)
	parsePrivateKey(s *SignatureScheme, info *privateKeyInfo) (PrivateKey, error)
	parsePublicKey(s *SignatureScheme, info *publicKeyInfo) (PublicKey, error)
	deriveKeyPair(s *SignatureScheme, priv PrivateKey, seed []byte) (*KeyPair, error)
	entropyToKeyPair(s *SignatureScheme, entropy *big.Int) (*KeyPair, error)
}

type algorithmSpec struct {
	keyAlgorithm string
	curve        string
}

// A backend library, and the key algorithms it implements.
type provider struct {
	name       string
	algorithms map[algorithmSpec]keyAlgorithm
}

// Fixed provider table. It is built fresh for each registry and never exposed, so nothing outside this package can swap a backend.
func defaultProviders() map[string]*provider {
	return map[string]*provider{
		ProviderStdlib: {
			name: ProviderStdlib,
			algorithms: map[algorithmSpec]keyAlgorithm{
				{KeyAlgorithmRSA, ""}:            rsaAlgorithm{},
				{KeyAlgorithmEC, "secp256r1"}:    p256Algorithm{},
				{KeyAlgorithmEd25519, "ed25519"}: ed25519Algorithm{},
			},
		},
		ProviderSecp256k1: {
			name: ProviderSecp256k1,
			algorithms: map[algorithmSpec]keyAlgorithm{
				{KeyAlgorithmEC, "secp256k1"}: k256Algorithm{},
			},
		},
		ProviderCircl: {
			name: ProviderCircl,
			algorithms: map[algorithmSpec]keyAlgorithm{
				{KeyAlgorithmSLHDSA, ""}: sphincsAlgorithm{},
			},
		},
	}
}

// Immutable after newRegistry returns; safe for concurrent reads without locking.
type schemeRegistry struct {
	schemes     []*SignatureScheme
	byCodeName  map[string]*SignatureScheme
	byID        map[SchemeID]*SignatureScheme
	byAlgorithm map[string]*SignatureScheme
	impls       map[*SignatureScheme]keyAlgorithm

	// internally synchronized
	publicKeys *lru.Cache[string, PublicKey]
}

func newRegistry(schemes []*SignatureScheme, providers map[string]*provider) (*schemeRegistry, error) {
	reg := &schemeRegistry{
		schemes:     slices.Clone(schemes),
		byCodeName:  make(map[string]*SignatureScheme, len(schemes)),
		byID:        make(map[SchemeID]*SignatureScheme, len(schemes)),
		byAlgorithm: make(map[string]*SignatureScheme),
		impls:       make(map[*SignatureScheme]keyAlgorithm, len(schemes)),
	}
	for _, s := range schemes {
		if _, ok := reg.byCodeName[s.codeName]; ok {
			return nil, fmt.Errorf("duplicate signature scheme code name: %s", s.codeName)
		}
		if _, ok := reg.byID[s.id]; ok {
			return nil, fmt.Errorf("duplicate signature scheme id: %d", s.id)
		}
		reg.byCodeName[s.codeName] = s
		reg.byID[s.id] = s

		for _, alg := range s.allAlgorithmIDs() {
			key := alg.String()
			if other, ok := reg.byAlgorithm[key]; ok {
				return nil, fmt.Errorf("algorithm identifier %s claimed by both %s and %s", key, other.codeName, s.codeName)
			}
			reg.byAlgorithm[key] = s
		}

		p, ok := providers[s.providerName]
		if !ok {
			return nil, fmt.Errorf("no provider %q for signature scheme %s", s.providerName, s.codeName)
		}
		impl, ok := p.algorithms[algorithmSpec{keyAlgorithm: s.keyAlgorithm, curve: s.curveName}]
		if !ok {
			return nil, fmt.Errorf("provider %s does not implement %s/%s for %s", p.name, s.keyAlgorithm, s.curveName, s.codeName)
		}
		reg.impls[s] = impl
	}
	cache, err := lru.New[string, PublicKey](publicKeyCacheSize)
	if err != nil {
		return nil, err
	}
	reg.publicKeys = cache
	return reg, nil
}

func mustNewRegistry(schemes []*SignatureScheme, providers map[string]*provider) *schemeRegistry {
	reg, err := newRegistry(schemes, providers)
	if err != nil {
		panic(fmt.Sprintf("signature scheme registry: %v", err))
	}
	return reg
}

var registry = mustNewRegistry(catalog, defaultProviders())

func (r *schemeRegistry) findByCodeName(codeName string) (*SignatureScheme, error) {
	s, ok := r.byCodeName[codeName]
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrUnsupportedScheme, codeName)
	}
	return s, nil
}

func (r *schemeRegistry) findByAlgorithm(alg AlgorithmIdentifier) (*SignatureScheme, error) {
	s, ok := r.byAlgorithm[alg.String()]
	if !ok {
		return nil, fmt.Errorf("%w: algorithm identifier %s", ErrUnsupportedScheme, alg)
	}
	return s, nil
}

// The registry's own instance for s, or nil if s does not match its catalog entry exactly.
func (r *schemeRegistry) resolve(s *SignatureScheme) *SignatureScheme {
	if s == nil {
		return nil
	}
	canonical, ok := r.byID[s.id]
	if !ok || !canonical.Equal(s) {
		return nil
	}
	return canonical
}

func (r *schemeRegistry) isSupported(s *SignatureScheme) bool {
	return r.resolve(s) != nil
}

// Resolves s to the registry's own instance and its bound implementation. Operations continue with the returned instance, never the caller's value.
func (r *schemeRegistry) algorithm(s *SignatureScheme) (*SignatureScheme, keyAlgorithm, error) {
	canonical := r.resolve(s)
	if canonical == nil {
		if s == nil {
			return nil, nil, fmt.Errorf("%w: nil scheme", ErrUnsupportedScheme)
		}
		return nil, nil, fmt.Errorf("%w: %s does not match the registered scheme", ErrUnsupportedScheme, s.codeName)
	}
	return canonical, r.impls[canonical], nil
}

// Looks up a scheme by its code name, eg "ECDSA_SECP256R1_SHA256".
func FindScheme(codeName string) (*SignatureScheme, error) {
	return cloned(registry.findByCodeName(codeName))
}

func FindSchemeByID(id SchemeID) (*SignatureScheme, error) {
	s, ok := registry.byID[id]
	if !ok {
		return nil, fmt.Errorf("%w: scheme id %d", ErrUnsupportedScheme, id)
	}
	return s.clone(), nil
}

// Looks up the scheme that claims an algorithm identifier, either as its primary or as an alternative identifier.
func FindSchemeByAlgorithm(alg AlgorithmIdentifier) (*SignatureScheme, error) {
	return cloned(registry.findByAlgorithm(alg))
}

// Resolves the scheme of a DER SubjectPublicKeyInfo from its algorithm identifier, without decoding the key itself.
func FindSchemeForPublicKeyInfo(der []byte) (*SignatureScheme, error) {
	info, err := parsePublicKeyInfo(der)
	if err != nil {
		return nil, err
	}
	return cloned(registry.findByAlgorithm(info.Algorithm))
}

// Resolves the scheme of a DER PKCS#8 private key from its algorithm identifier, without decoding the key itself.
func FindSchemeForPrivateKeyInfo(der []byte) (*SignatureScheme, error) {
	info, err := parsePrivateKeyInfo(der)
	if err != nil {
		return nil, err
	}
	return cloned(registry.findByAlgorithm(info.Algorithm))
}

// Reports whether s matches one of the catalog's schemes in every field.
func IsSupported(s *SignatureScheme) bool {
	return registry.isSupported(s)
}

// All supported schemes, in id order. Each entry is a copy.
func SupportedSchemes() []*SignatureScheme {
	out := make([]*SignatureScheme, len(registry.schemes))
	for i, s := range registry.schemes {
		out[i] = s.clone()
	}
	return out
}

func cloned(s *SignatureScheme, err error) (*SignatureScheme, error) {
	if err != nil {
		return nil, err
	}
	return s.clone(), nil
}
