// FILE: zkpauth/src/internal/zkp/derive.go
package zkp

import (
	"fmt"
	"math/big"
	"strings"

	"zkpauth/src/internal/core"

	"golang.org/x/crypto/argon2"
)

// Derivation selects how a password is mapped to the secret exponent x.
type Derivation int

const (
	// DerivationRaw interprets the password bytes as a big-endian integer.
	DerivationRaw Derivation = iota
	// DerivationArgon2id stretches the password with Argon2id salted by the username.
	DerivationArgon2id
)

const argon2SaltPrefix = "zkpauth/v1/secret:"

// ParseDerivation maps a config string to a Derivation.
func ParseDerivation(s string) (Derivation, error) {
	switch strings.ToLower(s) {
	case "", "raw":
		return DerivationRaw, nil
	case "argon2id", "argon2":
		return DerivationArgon2id, nil
	default:
		return DerivationRaw, fmt.Errorf("unknown secret derivation: %s", s)
	}
}

func (d Derivation) String() string {
	switch d {
	case DerivationArgon2id:
		return "argon2id"
	default:
		return "raw"
	}
}

// DeriveSecret maps a password to x in [0, q). The result is deterministic
// for a given username, password and derivation mode.
func (g *Group) DeriveSecret(d Derivation, username string, password []byte) *big.Int {
	var x *big.Int
	switch d {
	case DerivationArgon2id:
		salt := []byte(argon2SaltPrefix + username)
		key := argon2.IDKey(password, salt, core.Argon2Time, core.Argon2Memory, core.Argon2Threads, core.Argon2KeyLen)
		x = new(big.Int).SetBytes(key)
	default:
		x = new(big.Int).SetBytes(password)
	}
	return x.Mod(x, g.Q)
}
