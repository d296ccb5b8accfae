// FILE: zkpauth/src/internal/config/config.go
package config

import (
	"fmt"

	"zkpauth/src/internal/core"
)

// Config is the complete configuration shared by the server and client binaries.
type Config struct {
	// Top-level flags
	Quiet      bool   `toml:"quiet"`
	ConfigFile string `toml:"config_file"`

	Logging    *LogConfig      `toml:"logging"`
	Group      GroupConfig     `toml:"group"`
	Server     ServerConfig    `toml:"server"`
	Challenges ChallengeConfig `toml:"challenges"`
	Store      StoreConfig     `toml:"store"`
	Client     ClientConfig    `toml:"client"`
}

type GroupConfig struct {
	// Named parameter set, only "rfc5114-1024-160" is built in
	Name string `toml:"name"`
}

type ChallengeConfig struct {
	// Eviction policy: "none" keeps auth sessions forever, "ttl" expires them
	Eviction   string `toml:"eviction"`
	TTLSeconds int64  `toml:"ttl_seconds"`
	// Size cap for the ttl backend, 0 = unbounded
	MaxEntries int64 `toml:"max_entries"`
	// Remove the auth session after any verification attempt
	ConsumeOnVerify bool `toml:"consume_on_verify"`
}

type StoreConfig struct {
	Shards int64 `toml:"shards"`
}

func defaults() *Config {
	return &Config{
		Quiet:      false,
		ConfigFile: "",
		Logging:    DefaultLogConfig(),
		Group: GroupConfig{
			Name: "rfc5114-1024-160",
		},
		Server: ServerConfig{
			Host: "0.0.0.0",
			TCP: TCPConfig{
				Enabled: true,
				Port:    core.DefaultTCPPort,
				Workers: core.DefaultTCPWorkers,
			},
			HTTP: HTTPConfig{
				Enabled:        false,
				Port:           core.DefaultHTTPPort,
				PathPrefix:     "",
				ReadTimeoutMs:  5000,
				WriteTimeoutMs: 5000,
				MaxBodySize:    64 * 1024,
			},
			Limit: LimitConfig{
				Enabled:           false,
				RequestsPerSecond: 5,
				BurstSize:         10,
				MaxTrackedIPs:     10000,
			},
		},
		Challenges: ChallengeConfig{
			Eviction:        "none",
			TTLSeconds:      300,
			MaxEntries:      0,
			ConsumeOnVerify: false,
		},
		Store: StoreConfig{
			Shards: 32,
		},
		Client: ClientConfig{
			Transport:      "tcp",
			Address:        fmt.Sprintf("127.0.0.1:%d", core.DefaultTCPPort),
			PathPrefix:     "",
			TimeoutSeconds: 10,
			Derivation:     "raw",
		},
	}
}
