// FILE: zkpauth/src/internal/config/loader.go
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	lconfig "github.com/lixenwraith/config"
)

const envPrefix = "ZKPAUTH_"

// LoadWithCLI loads configuration from defaults, file, environment and CLI
// arguments, in increasing order of precedence.
func LoadWithCLI(cliArgs []string) (*Config, error) {
	configPath := GetConfigPath()

	cfg, err := lconfig.NewBuilder().
		WithDefaults(defaults()).
		WithEnvPrefix(envPrefix).
		WithFile(configPath).
		WithArgs(cliArgs).
		WithEnvTransform(customEnvTransform).
		WithSources(
			lconfig.SourceCLI,
			lconfig.SourceEnv,
			lconfig.SourceFile,
			lconfig.SourceDefault,
		).
		Build()

	if err != nil {
		// A missing config file is fine, defaults and env still apply
		if !strings.Contains(err.Error(), "not found") {
			return nil, fmt.Errorf("failed to load config: %w", err)
		}
	}

	finalConfig := &Config{}
	if err := cfg.Scan(finalConfig, ""); err != nil {
		return nil, fmt.Errorf("failed to scan config: %w", err)
	}
	finalConfig.ConfigFile = configPath

	return finalConfig, finalConfig.validate()
}

func customEnvTransform(path string) string {
	env := strings.ReplaceAll(path, ".", "_")
	env = strings.ToUpper(env)
	env = envPrefix + env
	return env
}

// GetConfigPath resolves the config file from the environment, falling back
// to ~/.config/zkpauth.toml.
func GetConfigPath() string {
	if configFile := os.Getenv("ZKPAUTH_CONFIG_FILE"); configFile != "" {
		if filepath.IsAbs(configFile) {
			return configFile
		}
		if configDir := os.Getenv("ZKPAUTH_CONFIG_DIR"); configDir != "" {
			return filepath.Join(configDir, configFile)
		}
		return configFile
	}

	if configDir := os.Getenv("ZKPAUTH_CONFIG_DIR"); configDir != "" {
		return filepath.Join(configDir, "zkpauth.toml")
	}

	if homeDir, err := os.UserHomeDir(); err == nil {
		return filepath.Join(homeDir, ".config", "zkpauth.toml")
	}

	return "zkpauth.toml"
}

// SplitOverrides separates --section.key[=value] config overrides from the
// remaining arguments so the latter can go through a flag.FlagSet. A dotted
// override without '=' takes the following non-flag argument as its value.
func SplitOverrides(args []string) (flags, overrides []string) {
	for i := 0; i < len(args); i++ {
		arg := args[i]
		name, _, hasValue := strings.Cut(strings.TrimLeft(arg, "-"), "=")
		if !strings.HasPrefix(arg, "-") || !strings.Contains(name, ".") {
			flags = append(flags, arg)
			continue
		}

		overrides = append(overrides, arg)
		if !hasValue && i+1 < len(args) && !strings.HasPrefix(args[i+1], "-") {
			i++
			overrides = append(overrides, args[i])
		}
	}
	return flags, overrides
}
