// FILE: zkpauth/src/internal/zkp/derive_test.go
package zkp

import (
	"math/big"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseDerivation(t *testing.T) {
	testCases := []struct {
		input       string
		expected    Derivation
		expectError bool
	}{
		{input: "", expected: DerivationRaw},
		{input: "raw", expected: DerivationRaw},
		{input: "Argon2id", expected: DerivationArgon2id},
		{input: "scrypt", expectError: true},
	}

	for _, tc := range testCases {
		t.Run(tc.input, func(t *testing.T) {
			d, err := ParseDerivation(tc.input)
			if tc.expectError {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tc.expected, d)
		})
	}
}

func TestDeriveSecret(t *testing.T) {
	g := RFC5114()

	t.Run("RawIsBigEndian", func(t *testing.T) {
		x := g.DeriveSecret(DerivationRaw, "alice", []byte{0x01, 0x00})
		assert.Equal(t, int64(256), x.Int64())
	})

	t.Run("RawReducedModQ", func(t *testing.T) {
		password := []byte("a password well beyond twenty bytes in length")
		x := g.DeriveSecret(DerivationRaw, "alice", password)
		assert.Less(t, x.Cmp(g.Q), 0)

		// Commitments are unchanged by the reduction because the group has order q
		unreduced := new(big.Int).SetBytes(password)
		y1, _ := g.Commit(x)
		y1Unreduced, _ := g.Commit(unreduced)
		assert.Equal(t, 0, y1.Cmp(y1Unreduced))
	})

	t.Run("Argon2idDeterministicAndSalted", func(t *testing.T) {
		a1 := g.DeriveSecret(DerivationArgon2id, "alice", []byte("hunter2"))
		a2 := g.DeriveSecret(DerivationArgon2id, "alice", []byte("hunter2"))
		b := g.DeriveSecret(DerivationArgon2id, "bob", []byte("hunter2"))

		assert.Equal(t, 0, a1.Cmp(a2))
		assert.NotEqual(t, 0, a1.Cmp(b))
		assert.Less(t, a1.Cmp(g.Q), 0)
	})
}
