package crypto

import (
	"crypto/elliptic"
	"encoding/asn1"
	"math/big"
	"math/bits"
)

// Short Weierstrass curve y² = x³ + ax + b over GF(p), with base point order n.
type weierstrassCurve struct {
	name string
	oid  asn1.ObjectIdentifier
	p    *big.Int
	n    *big.Int
	a    *big.Int
	b    *big.Int
}

// Length in bytes of a field element, and of a serialized scalar.
func (c *weierstrassCurve) byteLen() int {
	return (c.p.BitLen() + 7) / 8
}

func hexInt(s string) *big.Int {
	v, ok := new(big.Int).SetString(s, 16)
	if !ok {
		panic("bad curve constant: " + s)
	}
	return v
}

var curveSecp256k1 = &weierstrassCurve{
	name: "secp256k1",
	oid:  OIDNamedCurveSecp256k1,
	p:    hexInt("fffffffffffffffffffffffffffffffffffffffffffffffffffffffefffffc2f"),
	n:    hexInt("fffffffffffffffffffffffffffffffebaaedce6af48a03bbfd25e8cd0364141"),
	a:    big.NewInt(0),
	b:    big.NewInt(7),
}

var curveSecp256r1 = func() *weierstrassCurve {
	params := elliptic.P256().Params()
	return &weierstrassCurve{
		name: "secp256r1",
		oid:  OIDNamedCurveP256,
		p:    params.P,
		n:    params.N,
		a:    new(big.Int).Sub(params.P, big.NewInt(3)),
		b:    params.B,
	}
}()

// Checks that (x, y) is an affine point satisfying the curve equation. The point at infinity has no affine form and is never accepted.
func (c *weierstrassCurve) isOnCurve(x, y *big.Int) bool {
	if x == nil || y == nil {
		return false
	}
	if x.Sign() < 0 || x.Cmp(c.p) >= 0 || y.Sign() < 0 || y.Cmp(c.p) >= 0 {
		return false
	}
	if x.Sign() == 0 && y.Sign() == 0 {
		return false
	}
	// y² mod p
	lhs := new(big.Int).Mul(y, y)
	lhs.Mod(lhs, c.p)

	// x³ + ax + b mod p
	rhs := new(big.Int).Mul(x, x)
	rhs.Mul(rhs, x)
	ax := new(big.Int).Mul(c.a, x)
	rhs.Add(rhs, ax)
	rhs.Add(rhs, c.b)
	rhs.Mod(rhs, c.p)

	return lhs.Cmp(rhs) == 0
}

// Splits an uncompressed SEC 1 point (0x04 || X || Y) into coordinates.
func (c *weierstrassCurve) unmarshalUncompressed(data []byte) (x, y *big.Int, ok bool) {
	size := c.byteLen()
	if len(data) != 1+2*size || data[0] != 4 {
		return nil, nil, false
	}
	x = new(big.Int).SetBytes(data[1 : 1+size])
	y = new(big.Int).SetBytes(data[1+size:])
	return x, y, true
}

// Number of non-zero digits in the non-adjacent form of k, computed as popcount(3k XOR k).
func nafWeight(k *big.Int) int {
	if k.Sign() == 0 {
		return 0
	}
	threeK := new(big.Int).Lsh(k, 1)
	threeK.Add(threeK, k)
	diff := new(big.Int).Xor(threeK, k)
	weight := 0
	for _, w := range diff.Bits() {
		weight += bits.OnesCount(uint(w))
	}
	return weight
}
