// FILE: zkpauth/src/internal/zkp/group.go
package zkp

import (
	"fmt"
	"math/big"
	"strings"
)

// GroupRFC5114 names the 1024-bit MODP group with a 160-bit prime order
// subgroup from RFC 5114 section 2.1.
const GroupRFC5114 = "rfc5114-1024-160"

// Fixed exponent used to derive the second generator from the first. Both
// sides of the protocol must agree on it.
const betaExponentHex = "266FEA1E5C41564B777E69"

// Group describes a subgroup of order Q inside Z_P^* with two generators.
// A Group is immutable after construction and safe for concurrent use.
type Group struct {
	Name  string
	Alpha *big.Int
	Beta  *big.Int
	P     *big.Int
	Q     *big.Int

	byteLen int
}

// NewGroup validates the parameters and returns a Group.
func NewGroup(name string, alpha, beta, p, q *big.Int) (*Group, error) {
	g := &Group{
		Name:  name,
		Alpha: new(big.Int).Set(alpha),
		Beta:  new(big.Int).Set(beta),
		P:     new(big.Int).Set(p),
		Q:     new(big.Int).Set(q),
	}
	if err := g.Validate(); err != nil {
		return nil, err
	}
	g.byteLen = (g.P.BitLen() + 7) / 8
	return g, nil
}

// RFC5114 returns the default process-wide group.
func RFC5114() *Group {
	return rfc5114
}

// Lookup returns a named group.
func Lookup(name string) (*Group, error) {
	switch strings.ToLower(name) {
	case "", GroupRFC5114:
		return rfc5114, nil
	default:
		return nil, fmt.Errorf("unknown group: %s", name)
	}
}

var rfc5114 = mustRFC5114()

func mustRFC5114() *Group {
	p := mustHex(
		"B10B8F96A080E01DDE92DE5EAE5D54EC52C99FBCFB06A3C69A6A9DCA52D23B61" +
			"6073E28675A23D189838EF1E2EE652C013ECB4AEA906112324975C3CD49B83BF" +
			"ACCBDD7D90C4BD7098488E9C219A73724EFFD6FAE5644738FAA31A4FF55BCCC0" +
			"A151AF5F0DC8B4BD45BF37DF365C1A65E68CFDA76D4DA708DF1FB2BC2E4A4371")
	q := mustHex("F518AA8781A8DF278ABA4E7D64B7CB9D49462353")
	alpha := mustHex(
		"A4D1CBD5C3FD34126765A442EFB99905F8104DD258AC507FD6406CFF14266D31" +
			"266FEA1E5C41564B777E690F5504F213160217B4B01B886A5E91547F9E2749F4" +
			"D7FBD7D3B9A92EE1909D0D2263F80A76A6A24C087A091F531DBF0A0169B6A28A" +
			"D662A4D18E73AFA32D779D5918D08BC8858F4DCEF97C2A24855E6EEB22B3B2E5")
	beta := new(big.Int).Exp(alpha, mustHex(betaExponentHex), p)

	g, err := NewGroup(GroupRFC5114, alpha, beta, p, q)
	if err != nil {
		panic(fmt.Sprintf("zkp: invalid built-in group: %v", err))
	}
	return g
}

func mustHex(s string) *big.Int {
	n, ok := new(big.Int).SetString(s, 16)
	if !ok {
		panic("zkp: invalid hex constant")
	}
	return n
}

// Validate checks that Q is prime and divides P-1, and that both generators
// have order exactly Q.
func (g *Group) Validate() error {
	if g.P == nil || g.Q == nil || g.Alpha == nil || g.Beta == nil {
		return fmt.Errorf("group %q: missing parameter", g.Name)
	}
	if !g.P.ProbablyPrime(20) {
		return fmt.Errorf("group %q: p is not prime", g.Name)
	}
	if !g.Q.ProbablyPrime(20) {
		return fmt.Errorf("group %q: q is not prime", g.Name)
	}

	pMinusOne := new(big.Int).Sub(g.P, big.NewInt(1))
	if new(big.Int).Mod(pMinusOne, g.Q).Sign() != 0 {
		return fmt.Errorf("group %q: q does not divide p-1", g.Name)
	}

	if err := g.checkGenerator("alpha", g.Alpha); err != nil {
		return err
	}
	if err := g.checkGenerator("beta", g.Beta); err != nil {
		return err
	}
	if g.Alpha.Cmp(g.Beta) == 0 {
		return fmt.Errorf("group %q: alpha and beta must differ", g.Name)
	}
	return nil
}

// q is prime, so any element other than 1 with x^q == 1 has order q.
func (g *Group) checkGenerator(label string, x *big.Int) error {
	one := big.NewInt(1)
	if x.Cmp(one) <= 0 || x.Cmp(g.P) >= 0 {
		return fmt.Errorf("group %q: %s out of range", g.Name, label)
	}
	if new(big.Int).Exp(x, g.Q, g.P).Cmp(one) != 0 {
		return fmt.Errorf("group %q: %s does not have order q", g.Name, label)
	}
	return nil
}

// ByteLen is the length of P in bytes.
func (g *Group) ByteLen() int {
	if g.byteLen == 0 {
		return (g.P.BitLen() + 7) / 8
	}
	return g.byteLen
}
