// FILE: zkpauth/src/internal/config/validation.go
package config

import (
	"fmt"
	"net"
	"strings"

	"zkpauth/src/internal/core"
	"zkpauth/src/internal/zkp"

	lconfig "github.com/lixenwraith/config"
)

func (c *Config) validate() error {
	if c == nil {
		return fmt.Errorf("config is nil")
	}

	if c.Logging == nil {
		c.Logging = DefaultLogConfig()
	}
	if err := validateLogConfig(c.Logging); err != nil {
		return fmt.Errorf("logging config: %w", err)
	}

	if err := lconfig.NonEmpty(c.Group.Name); err != nil {
		return fmt.Errorf("group: %w", err)
	}
	if _, err := zkp.Lookup(c.Group.Name); err != nil {
		return fmt.Errorf("group: %w", err)
	}

	if err := validateServer(&c.Server); err != nil {
		return fmt.Errorf("server: %w", err)
	}

	if err := validateChallenges(&c.Challenges); err != nil {
		return fmt.Errorf("challenges: %w", err)
	}

	if c.Store.Shards < 1 {
		return fmt.Errorf("store: shards must be positive: %d", c.Store.Shards)
	}

	if err := validateClient(&c.Client); err != nil {
		return fmt.Errorf("client: %w", err)
	}

	return nil
}

func validateLogConfig(cfg *LogConfig) error {
	validOutputs := map[string]bool{
		"file": true, "stdout": true, "stderr": true,
		"both": true, "none": true,
	}
	if !validOutputs[cfg.Output] {
		return fmt.Errorf("invalid log output mode: %s", cfg.Output)
	}

	validLevels := map[string]bool{
		"debug": true, "info": true, "warn": true, "error": true,
	}
	if !validLevels[cfg.Level] {
		return fmt.Errorf("invalid log level: %s", cfg.Level)
	}

	if cfg.Console != nil {
		validTargets := map[string]bool{
			"stdout": true, "stderr": true, "split": true,
		}
		if !validTargets[cfg.Console.Target] {
			return fmt.Errorf("invalid console target: %s", cfg.Console.Target)
		}

		validFormats := map[string]bool{
			"txt": true, "json": true, "": true,
		}
		if !validFormats[cfg.Console.Format] {
			return fmt.Errorf("invalid console format: %s", cfg.Console.Format)
		}
	}

	return nil
}

func validateServer(cfg *ServerConfig) error {
	if cfg.Host != "" && cfg.Host != "0.0.0.0" && cfg.Host != "localhost" {
		if net.ParseIP(cfg.Host) == nil {
			return fmt.Errorf("invalid host: %s", cfg.Host)
		}
	}

	if cfg.TCP.Enabled {
		if err := validatePort(cfg.TCP.Port); err != nil {
			return fmt.Errorf("tcp: %w", err)
		}
		if cfg.TCP.Workers <= 0 {
			cfg.TCP.Workers = core.DefaultTCPWorkers
		}
	}

	if cfg.HTTP.Enabled {
		if err := validatePort(cfg.HTTP.Port); err != nil {
			return fmt.Errorf("http: %w", err)
		}
		if cfg.HTTP.PathPrefix != "" {
			if !strings.HasPrefix(cfg.HTTP.PathPrefix, "/") {
				return fmt.Errorf("http: path_prefix must start with /")
			}
			cfg.HTTP.PathPrefix = strings.TrimSuffix(cfg.HTTP.PathPrefix, "/")
		}
		if cfg.HTTP.ReadTimeoutMs <= 0 {
			cfg.HTTP.ReadTimeoutMs = 5000
		}
		if cfg.HTTP.WriteTimeoutMs <= 0 {
			cfg.HTTP.WriteTimeoutMs = 5000
		}
		if cfg.HTTP.MaxBodySize <= 0 {
			cfg.HTTP.MaxBodySize = 64 * 1024
		}
	}

	if cfg.TCP.Enabled && cfg.HTTP.Enabled && cfg.TCP.Port == cfg.HTTP.Port {
		return fmt.Errorf("tcp and http cannot share port %d", cfg.TCP.Port)
	}

	if cfg.Limit.Enabled {
		if cfg.Limit.RequestsPerSecond <= 0 {
			return fmt.Errorf("limit: requests_per_second must be positive")
		}
		if cfg.Limit.BurstSize < 1 {
			return fmt.Errorf("limit: burst_size must be at least 1")
		}
		if cfg.Limit.MaxTrackedIPs < 0 {
			return fmt.Errorf("limit: max_tracked_ips cannot be negative")
		}
	}

	return nil
}

func validateChallenges(cfg *ChallengeConfig) error {
	switch strings.ToLower(cfg.Eviction) {
	case "", "none":
		cfg.Eviction = "none"
	case "ttl":
		cfg.Eviction = "ttl"
		if cfg.TTLSeconds < 1 {
			return fmt.Errorf("ttl_seconds must be positive with ttl eviction: %d", cfg.TTLSeconds)
		}
	default:
		return fmt.Errorf("invalid eviction policy '%s' (must be 'none' or 'ttl')", cfg.Eviction)
	}

	if cfg.MaxEntries < 0 {
		return fmt.Errorf("max_entries cannot be negative")
	}

	return nil
}

func validateClient(cfg *ClientConfig) error {
	switch strings.ToLower(cfg.Transport) {
	case "tcp", "http":
		cfg.Transport = strings.ToLower(cfg.Transport)
	default:
		return fmt.Errorf("invalid transport '%s' (must be 'tcp' or 'http')", cfg.Transport)
	}

	if err := lconfig.NonEmpty(cfg.Address); err != nil {
		return fmt.Errorf("address: %w", err)
	}

	if cfg.PathPrefix != "" {
		if !strings.HasPrefix(cfg.PathPrefix, "/") {
			return fmt.Errorf("path_prefix must start with /")
		}
		cfg.PathPrefix = strings.TrimSuffix(cfg.PathPrefix, "/")
	}

	if cfg.TimeoutSeconds < 1 {
		return fmt.Errorf("timeout_seconds must be positive: %d", cfg.TimeoutSeconds)
	}

	if _, err := zkp.ParseDerivation(cfg.Derivation); err != nil {
		return err
	}

	return nil
}

func validatePort(port int64) error {
	if port < 1 || port > 65535 {
		return fmt.Errorf("invalid port: %d", port)
	}
	return nil
}
