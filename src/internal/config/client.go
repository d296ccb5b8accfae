// FILE: zkpauth/src/internal/config/client.go
package config

type ClientConfig struct {
	// Wire transport: "tcp" or "http"
	Transport string `toml:"transport"`

	// host:port for tcp; host:port or scheme://host:port for http
	Address string `toml:"address"`

	// Prepended to the API paths for http, matching server.http.path_prefix
	PathPrefix string `toml:"path_prefix"`

	TimeoutSeconds int64 `toml:"timeout_seconds"`

	// Password to secret mapping: "raw" or "argon2id"
	Derivation string `toml:"derivation"`
}
