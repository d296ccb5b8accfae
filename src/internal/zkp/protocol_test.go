// FILE: zkpauth/src/internal/zkp/protocol_test.go
package zkp

import (
	"math/big"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// toyGroup is the order-11 subgroup of Z_23^*.
func toyGroup(t *testing.T) *Group {
	t.Helper()
	g, err := NewGroup("toy", big.NewInt(4), big.NewInt(9), big.NewInt(23), big.NewInt(11))
	require.NoError(t, err)
	return g
}

func TestNewGroup(t *testing.T) {
	testCases := []struct {
		name        string
		alpha, beta int64
		p, q        int64
		errContains string
	}{
		{name: "Valid", alpha: 4, beta: 9, p: 23, q: 11},
		{name: "QNotDividingPMinusOne", alpha: 4, beta: 9, p: 23, q: 7, errContains: "does not divide"},
		{name: "CompositeP", alpha: 4, beta: 9, p: 21, q: 5, errContains: "p is not prime"},
		{name: "AlphaWrongOrder", alpha: 5, beta: 9, p: 23, q: 11, errContains: "alpha does not have order q"},
		{name: "BetaIdentity", alpha: 4, beta: 1, p: 23, q: 11, errContains: "beta out of range"},
		{name: "SameGenerators", alpha: 4, beta: 4, p: 23, q: 11, errContains: "must differ"},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			g, err := NewGroup("test", big.NewInt(tc.alpha), big.NewInt(tc.beta), big.NewInt(tc.p), big.NewInt(tc.q))
			if tc.errContains != "" {
				require.Error(t, err)
				assert.Nil(t, g)
				assert.Contains(t, err.Error(), tc.errContains)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, 1, g.ByteLen())
		})
	}
}

func TestRFC5114Group(t *testing.T) {
	g := RFC5114()
	require.NoError(t, g.Validate())
	assert.Equal(t, 1024, g.P.BitLen())
	assert.Equal(t, 160, g.Q.BitLen())
	assert.Equal(t, 128, g.ByteLen())

	looked, err := Lookup("RFC5114-1024-160")
	require.NoError(t, err)
	assert.Same(t, g, looked)

	_, err = Lookup("ffdhe2048")
	assert.Error(t, err)
}

func TestCommit(t *testing.T) {
	g := toyGroup(t)
	y1, y2 := g.Commit(big.NewInt(7))
	assert.Equal(t, int64(8), y1.Int64()) // 4^7 mod 23
	assert.Equal(t, int64(4), y2.Int64()) // 9^7 mod 23
}

func TestRespond(t *testing.T) {
	g := toyGroup(t)

	t.Run("NegativeDifferenceIsReduced", func(t *testing.T) {
		// 3 - 5*7 = -32 = 1 (mod 11)
		s := g.Respond(big.NewInt(3), big.NewInt(5), big.NewInt(7))
		assert.Equal(t, int64(1), s.Int64())
	})

	t.Run("ZeroChallenge", func(t *testing.T) {
		s := g.Respond(big.NewInt(3), big.NewInt(0), big.NewInt(7))
		assert.Equal(t, int64(3), s.Int64())
	})

	t.Run("AlwaysInRange", func(t *testing.T) {
		for k := int64(0); k < 11; k++ {
			for c := int64(0); c < 11; c++ {
				s := g.Respond(big.NewInt(k), big.NewInt(c), big.NewInt(10))
				assert.GreaterOrEqual(t, s.Sign(), 0)
				assert.Less(t, s.Cmp(g.Q), 0)
			}
		}
	})
}

func TestVerifySoundness(t *testing.T) {
	g := toyGroup(t)

	for x := int64(0); x < 11; x++ {
		y1, y2 := g.Commit(big.NewInt(x))
		for k := int64(0); k < 11; k++ {
			r1, r2 := g.Commit(big.NewInt(k))
			for c := int64(0); c < 11; c++ {
				s := g.Respond(big.NewInt(k), big.NewInt(c), big.NewInt(x))
				if !g.Verify(r1, r2, y1, y2, big.NewInt(c), s) {
					t.Fatalf("valid proof rejected: x=%d k=%d c=%d s=%s", x, k, c, s)
				}
			}
		}
	}
}

func TestVerifyUniqueResponse(t *testing.T) {
	g := toyGroup(t)
	x, k, c := big.NewInt(7), big.NewInt(3), big.NewInt(5)
	y1, y2 := g.Commit(x)
	r1, r2 := g.Commit(k)
	s := g.Respond(k, c, x)

	accepted := 0
	for candidate := int64(0); candidate < 11; candidate++ {
		if g.Verify(r1, r2, y1, y2, c, big.NewInt(candidate)) {
			accepted++
			assert.Equal(t, s.Int64(), candidate)
		}
	}
	assert.Equal(t, 1, accepted)

	next := new(big.Int).Add(s, big.NewInt(1))
	next.Mod(next, g.Q)
	assert.False(t, g.Verify(r1, r2, y1, y2, c, next))
}

func TestVerifyRequiresBothEquations(t *testing.T) {
	g := toyGroup(t)
	x, k, c := big.NewInt(7), big.NewInt(3), big.NewInt(5)
	y1, y2 := g.Commit(x)
	r1, r2 := g.Commit(k)
	s := g.Respond(k, c, x)

	// A second public key that only matches on the alpha side
	_, otherY2 := g.Commit(big.NewInt(2))

	assert.True(t, g.Verify(r1, r2, y1, y2, c, s))
	assert.False(t, g.Verify(r1, r2, y1, otherY2, c, s), "beta equation must hold")
	assert.False(t, g.Verify(r1, big.NewInt(1), y1, y2, c, s), "r2 mismatch")
	assert.False(t, g.Verify(big.NewInt(1), r2, y1, y2, c, s), "r1 mismatch")
	assert.False(t, g.Verify(nil, r2, y1, y2, c, s))
	assert.False(t, g.Verify(new(big.Int).Add(r1, g.P), r2, y1, y2, c, s), "unreduced commitment")
}

func TestVerifyRFC5114(t *testing.T) {
	g := RFC5114()
	x := g.DeriveSecret(DerivationRaw, "alice", []byte("correct horse battery staple"))
	y1, y2 := g.Commit(x)

	k := SampleBelow(g.Q)
	r1, r2 := g.Commit(k)
	c := SampleBelow(g.Q)
	s := g.Respond(k, c, x)

	assert.True(t, g.Verify(r1, r2, y1, y2, c, s))

	wrongX := g.DeriveSecret(DerivationRaw, "alice", []byte("correct horse battery stapler"))
	assert.False(t, g.Verify(r1, r2, y1, y2, c, g.Respond(k, c, wrongX)))
}

func TestSampleBelow(t *testing.T) {
	t.Run("SmallRangeUniform", func(t *testing.T) {
		q := big.NewInt(11)
		const samples = 11000
		counts := make([]int, 11)
		for i := 0; i < samples; i++ {
			n := SampleBelow(q)
			require.GreaterOrEqual(t, n.Sign(), 0)
			require.Less(t, n.Cmp(q), 0)
			counts[n.Int64()]++
		}
		// Expected 1000 per bucket, stddev about 30
		for v, count := range counts {
			assert.InDelta(t, 1000, count, 200, "bucket %d", v)
		}
	})

	t.Run("LargeRangeCoversUpperHalf", func(t *testing.T) {
		q := RFC5114().Q
		half := new(big.Int).Rsh(q, 1)
		const samples = 2000
		upper := 0
		for i := 0; i < samples; i++ {
			n := SampleBelow(q)
			require.GreaterOrEqual(t, n.Sign(), 0)
			require.Less(t, n.Cmp(q), 0)
			if n.Cmp(half) >= 0 {
				upper++
			}
		}
		assert.InDelta(t, 0.5, float64(upper)/samples, 0.1)
	})
}

func TestRandomIdentifier(t *testing.T) {
	seen := make(map[string]struct{})
	for i := 0; i < 1000; i++ {
		id := RandomIdentifier(12)
		require.Len(t, id, 12)
		for _, r := range id {
			require.True(t, strings.ContainsRune(identifierAlphabet, r), "unexpected rune %q", r)
		}
		seen[id] = struct{}{}
	}
	assert.Len(t, seen, 1000)
	assert.Empty(t, RandomIdentifier(0))
}
