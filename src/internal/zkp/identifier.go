// FILE: zkpauth/src/internal/zkp/identifier.go
package zkp

import (
	"crypto/rand"
	"fmt"
	"math/big"
)

const identifierAlphabet = "ABCDEFGHIJKLMNOPQRSTUVWXYZabcdefghijklmnopqrstuvwxyz0123456789"

// RandomIdentifier returns length characters drawn uniformly from an
// alphanumeric alphabet. Uniqueness against existing identifiers is not
// checked; with 62^12 possibilities collisions are negligible but possible.
func RandomIdentifier(length int) string {
	if length <= 0 {
		return ""
	}

	size := big.NewInt(int64(len(identifierAlphabet)))
	b := make([]byte, length)
	for i := range b {
		n, err := rand.Int(rand.Reader, size)
		if err != nil {
			panic(fmt.Sprintf("zkp: random source failed: %v", err))
		}
		b[i] = identifierAlphabet[n.Int64()]
	}
	return string(b)
}
