// FILE: zkpauth/src/internal/zkp/protocol.go
package zkp

import (
	"crypto/rand"
	"crypto/subtle"
	"fmt"
	"math/big"
)

// SampleBelow returns a uniformly distributed integer in [0, q).
// crypto/rand.Int rejects and resamples, so the result is unbiased.
func SampleBelow(q *big.Int) *big.Int {
	n, err := rand.Int(rand.Reader, q)
	if err != nil {
		// crypto/rand does not fail on supported platforms
		panic(fmt.Sprintf("zkp: random source failed: %v", err))
	}
	return n
}

// Commit returns (alpha^v mod p, beta^v mod p).
func (g *Group) Commit(v *big.Int) (*big.Int, *big.Int) {
	c1 := new(big.Int).Exp(g.Alpha, v, g.P)
	c2 := new(big.Int).Exp(g.Beta, v, g.P)
	return c1, c2
}

// Respond computes s = (k - c*x) mod q in [0, q).
// big.Int.Mod is Euclidean, so a negative difference still lands in range.
func (g *Group) Respond(k, c, x *big.Int) *big.Int {
	s := new(big.Int).Mul(c, x)
	s.Sub(k, s)
	return s.Mod(s, g.Q)
}

// Verify reports whether r1 == alpha^s * y1^c and r2 == beta^s * y2^c (mod p).
// Both equations are always evaluated and compared in constant time.
func (g *Group) Verify(r1, r2, y1, y2, c, s *big.Int) bool {
	if r1 == nil || r2 == nil || y1 == nil || y2 == nil || c == nil || s == nil {
		return false
	}

	lhs1 := g.combine(g.Alpha, s, y1, c)
	lhs2 := g.combine(g.Beta, s, y2, c)

	ok1 := g.equal(r1, lhs1)
	ok2 := g.equal(r2, lhs2)
	return ok1&ok2 == 1
}

// combine computes base^s * y^c mod p.
func (g *Group) combine(base, s, y, c *big.Int) *big.Int {
	left := new(big.Int).Exp(base, s, g.P)
	right := new(big.Int).Exp(y, c, g.P)
	left.Mul(left, right)
	return left.Mod(left, g.P)
}

// equal returns 1 if a == b, comparing fixed-width encodings. Values that do
// not fit in the width of p can never match a reduced result.
func (g *Group) equal(a, b *big.Int) int {
	n := g.ByteLen()
	if a.Sign() < 0 || b.Sign() < 0 || a.BitLen() > n*8 || b.BitLen() > n*8 {
		return 0
	}
	return subtle.ConstantTimeCompare(a.FillBytes(make([]byte, n)), b.FillBytes(make([]byte, n)))
}
