package crypto

import (
	"crypto/ecdsa"
	"crypto/ed25519"
	"crypto/elliptic"
	"crypto/rsa"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"math/big"

	secp256k1 "gitlab.com/yawning/secp256k1-voi"
	secp256k1secec "gitlab.com/yawning/secp256k1-voi/secec"
)

// Representation of a JSON Web Key (JWK), as relevant to the keys supported by this package. SLH-DSA keys have no JWK form.
//
// Expected to be marshalled/unmarshalled as JSON.
type JWK struct {
	KeyType string  `json:"kty"`
	Curve   string  `json:"crv,omitempty"`
	X       string  `json:"x,omitempty"` // base64url, no padding
	Y       string  `json:"y,omitempty"` // base64url, no padding
	N       string  `json:"n,omitempty"` // RSA modulus
	E       string  `json:"e,omitempty"` // RSA public exponent
	Use     string  `json:"use,omitempty"`
	KeyID   *string `json:"kid,omitempty"`
}

// Loads a [PublicKey] from JWK (serialized as JSON bytes)
func ParsePublicJWKBytes(jwkBytes []byte) (PublicKey, error) {
	var jwk JWK
	if err := json.Unmarshal(jwkBytes, &jwk); err != nil {
		return nil, fmt.Errorf("parsing JWK JSON: %w", err)
	}
	return ParsePublicJWK(jwk)
}

// Loads a [PublicKey] from JWK struct.
func ParsePublicJWK(jwk JWK) (PublicKey, error) {
	switch jwk.KeyType {
	case "EC":
		return parseECJWK(jwk)
	case "OKP":
		if jwk.Curve != "Ed25519" {
			return nil, fmt.Errorf("%w: JWK OKP curve %s", ErrUnsupportedKeyType, jwk.Curve)
		}
		xbuf, err := base64.RawURLEncoding.DecodeString(jwk.X)
		if err != nil {
			return nil, fmt.Errorf("invalid JWK base64 encoding: %w", err)
		}
		return newPublicKeyEd25519(edDSAEd25519SHA512, ed25519.PublicKey(xbuf))
	case "RSA":
		nbuf, err := base64.RawURLEncoding.DecodeString(jwk.N)
		if err != nil {
			return nil, fmt.Errorf("invalid JWK base64 encoding: %w", err)
		}
		ebuf, err := base64.RawURLEncoding.DecodeString(jwk.E)
		if err != nil {
			return nil, fmt.Errorf("invalid JWK base64 encoding: %w", err)
		}
		e := new(big.Int).SetBytes(ebuf)
		if !e.IsInt64() || e.Int64() < 3 || e.Int64() > 1<<31-1 || len(nbuf) == 0 {
			return nil, fmt.Errorf("%w: invalid RSA JWK parameters", ErrKeySpec)
		}
		return newPublicKeyRSA(rsaSHA256, &rsa.PublicKey{N: new(big.Int).SetBytes(nbuf), E: int(e.Int64())})
	default:
		return nil, fmt.Errorf("%w: JWK key type %s", ErrUnsupportedKeyType, jwk.KeyType)
	}
}

func parseECJWK(jwk JWK) (PublicKey, error) {
	// base64url with no encoding
	xbuf, err := base64.RawURLEncoding.DecodeString(jwk.X)
	if err != nil {
		return nil, fmt.Errorf("invalid JWK base64 encoding: %w", err)
	}
	ybuf, err := base64.RawURLEncoding.DecodeString(jwk.Y)
	if err != nil {
		return nil, fmt.Errorf("invalid JWK base64 encoding: %w", err)
	}

	switch jwk.Curve {
	case "P-256":
		var x, y big.Int
		x.SetBytes(xbuf)
		y.SetBytes(ybuf)

		if !curveSecp256r1.isOnCurve(&x, &y) {
			return nil, fmt.Errorf("%w: invalid P-256 public key (not on curve)", ErrKeySpec)
		}
		return newPublicKeyP256(ecdsaSecp256r1SHA256, &ecdsa.PublicKey{
			Curve: elliptic.P256(),
			X:     &x,
			Y:     &y,
		})
	case "secp256k1": // K-256
		if len(xbuf) != 32 || len(ybuf) != 32 {
			return nil, fmt.Errorf("%w: invalid K-256 coordinates", ErrKeySpec)
		}
		xarr := ([32]byte)(xbuf[:32])
		yarr := ([32]byte)(ybuf[:32])
		p, err := secp256k1.NewPointFromCoords(&xarr, &yarr)
		if err != nil {
			return nil, fmt.Errorf("%w: invalid K-256 coordinates: %w", ErrKeySpec, err)
		}
		pubK, err := secp256k1secec.NewPublicKeyFromPoint(p)
		if err != nil {
			return nil, fmt.Errorf("%w: invalid K-256/secp256k1 public key: %w", ErrKeySpec, err)
		}
		return newPublicKeyK256(ecdsaSecp256k1SHA256, pubK)
	default:
		return nil, fmt.Errorf("%w: JWK curve %s", ErrUnsupportedKeyType, jwk.Curve)
	}
}

// Exports a public key as JWK. Returns ErrUnsupportedKeyType for SLH-DSA keys.
func PublicKeyJWK(pub PublicKey) (*JWK, error) {
	switch k := pub.(type) {
	case *PublicKeyP256:
		return k.JWK()
	case *PublicKeyK256:
		return k.JWK()
	case *PublicKeyEd25519:
		return k.JWK()
	case *PublicKeyRSA:
		return k.JWK()
	default:
		return nil, fmt.Errorf("%w: no JWK form for %T", ErrUnsupportedKeyType, pub)
	}
}

func (k *PublicKeyP256) JWK() (*JWK, error) {
	raw := k.UncompressedBytes()
	if len(raw) != 65 {
		return nil, fmt.Errorf("unexpected P-256 bytes size")
	}
	jwk := JWK{
		KeyType: "EC",
		Curve:   "P-256",
		X:       base64.RawURLEncoding.EncodeToString(raw[1:33]),
		Y:       base64.RawURLEncoding.EncodeToString(raw[33:65]),
	}
	return &jwk, nil
}

func (k *PublicKeyK256) JWK() (*JWK, error) {
	raw := k.UncompressedBytes()
	if len(raw) != 65 {
		return nil, fmt.Errorf("unexpected K-256 bytes size")
	}
	xbytes := raw[1:33]
	ybytes := raw[33:65]
	jwk := JWK{
		KeyType: "EC",
		Curve:   "secp256k1",
		X:       base64.RawURLEncoding.EncodeToString(xbytes),
		Y:       base64.RawURLEncoding.EncodeToString(ybytes),
	}
	return &jwk, nil
}

func (k *PublicKeyEd25519) JWK() (*JWK, error) {
	jwk := JWK{
		KeyType: "OKP",
		Curve:   "Ed25519",
		X:       base64.RawURLEncoding.EncodeToString(k.pub),
	}
	return &jwk, nil
}

func (k *PublicKeyRSA) JWK() (*JWK, error) {
	jwk := JWK{
		KeyType: "RSA",
		N:       base64.RawURLEncoding.EncodeToString(k.pub.N.Bytes()),
		E:       base64.RawURLEncoding.EncodeToString(big.NewInt(int64(k.pub.E)).Bytes()),
	}
	return &jwk, nil
}
