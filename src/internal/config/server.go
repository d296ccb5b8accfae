// FILE: zkpauth/src/internal/config/server.go
package config

type ServerConfig struct {
	// Bind address shared by both listeners
	Host string `toml:"host"`

	TCP   TCPConfig   `toml:"tcp"`
	HTTP  HTTPConfig  `toml:"http"`
	Limit LimitConfig `toml:"limit"`
}

type TCPConfig struct {
	Enabled bool  `toml:"enabled"`
	Port    int64 `toml:"port"`

	// Size of the worker pool that runs requests; the event loops only frame lines
	Workers int64 `toml:"workers"`
}

type HTTPConfig struct {
	Enabled bool  `toml:"enabled"`
	Port    int64 `toml:"port"`

	// Prepended to /register, /challenge, /verify and /status
	PathPrefix string `toml:"path_prefix"`

	ReadTimeoutMs  int64 `toml:"read_timeout_ms"`
	WriteTimeoutMs int64 `toml:"write_timeout_ms"`
	MaxBodySize    int64 `toml:"max_body_size"`
}

type LimitConfig struct {
	// Enable per-IP request limiting
	Enabled bool `toml:"enabled"`

	// Requests per second per client
	RequestsPerSecond float64 `toml:"requests_per_second"`

	// Burst size (token bucket)
	BurstSize int64 `toml:"burst_size"`

	// Upper bound on tracked client addresses
	MaxTrackedIPs int64 `toml:"max_tracked_ips"`
}
