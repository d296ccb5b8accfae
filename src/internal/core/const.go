// FILE: zkpauth/src/internal/core/const.go
package core

// Identifier lengths for auth ids and session ids
const (
	AuthIDLength    = 12
	SessionIDLength = 12
)

// Argon2id parameters for password-to-secret derivation
const (
	Argon2Time    = 3
	Argon2Memory  = 64 * 1024 // 64 MB
	Argon2Threads = 4
	// Output length in bytes, reduced mod q afterwards
	Argon2KeyLen = 40
)

const (
	DefaultTCPPort  = 50051
	DefaultHTTPPort = 50052

	// Upper bound for a single protocol line on the TCP transport
	MaxLineLength = 64 * 1024

	// Goroutines serving TCP requests off the event loops
	DefaultTCPWorkers = 64
)
