// FILE: zkpauth/src/internal/zkp/doc.go

// Package zkp implements the Chaum-Pedersen proof of equality of two discrete
// logarithms over a prime-order subgroup of Z_p^*.
//
// A prover holding x with y1 = alpha^x and y2 = beta^x (mod p) commits to a
// fresh ephemeral k as r1 = alpha^k, r2 = beta^k, receives a challenge c from
// the verifier and answers s = k - c*x (mod q). The verifier accepts iff
//
//	r1 == alpha^s * y1^c (mod p)  and  r2 == beta^s * y2^c (mod p)
//
// All functions here are stateless. Group parameters are validated once when a
// Group is constructed; per-call functions assume well-formed inputs.
package zkp
