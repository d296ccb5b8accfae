// FILE: zkpauth/src/cmd/zkpauth/flags.go
package main

import (
	"flag"
	"fmt"
	"os"

	"zkpauth/src/internal/config"
)

// FlagConfig holds flags consumed before configuration loading. Everything
// else is passed to the config loader as --section.key=value overrides.
type FlagConfig struct {
	ConfigFile  string
	ShowVersion bool
	ShowHelp    bool
	DumpConfig  string
	Quiet       bool
}

// ParseFlags separates the binary's own flags from config overrides.
func ParseFlags(args []string) (*FlagConfig, []string, error) {
	fc := &FlagConfig{}

	fs := flag.NewFlagSet("zkpauth", flag.ContinueOnError)
	fs.Usage = printUsage
	fs.StringVar(&fc.ConfigFile, "config", "", "Config file path")
	fs.StringVar(&fc.DumpConfig, "dump-config", "", "Write the effective configuration to a TOML file and exit")
	fs.BoolVar(&fc.Quiet, "quiet", false, "Suppress all output")
	fs.BoolVar(&fc.Quiet, "q", false, "Suppress all output")
	fs.BoolVar(&fc.ShowVersion, "version", false, "Show version information")
	fs.BoolVar(&fc.ShowVersion, "v", false, "Show version information")
	fs.BoolVar(&fc.ShowHelp, "help", false, "Show this help")
	fs.BoolVar(&fc.ShowHelp, "h", false, "Show this help")

	own, overrides := config.SplitOverrides(args)
	if err := fs.Parse(own); err != nil {
		return nil, nil, err
	}
	if fs.NArg() > 0 {
		return nil, nil, fmt.Errorf("unexpected argument: %s", fs.Arg(0))
	}

	if fc.Quiet {
		overrides = append(overrides, "--quiet=true")
	}

	return fc, overrides, nil
}

func printUsage() {
	fmt.Fprintf(os.Stderr, "zkpauth - Chaum-Pedersen password authentication server\n\n")
	fmt.Fprintf(os.Stderr, "Usage: %s [options] [--section.key=value ...]\n\n", os.Args[0])

	fmt.Fprintf(os.Stderr, "Options:\n")
	fmt.Fprintf(os.Stderr, "  -config string\n\tConfig file path\n")
	fmt.Fprintf(os.Stderr, "  -dump-config string\n\tWrite the effective configuration to a TOML file and exit\n")
	fmt.Fprintf(os.Stderr, "  -quiet\n\tSuppress all output\n")
	fmt.Fprintf(os.Stderr, "  -version\n\tShow version information\n")

	fmt.Fprintf(os.Stderr, "\nExamples:\n")
	fmt.Fprintf(os.Stderr, "  # TCP on the default port 50051\n")
	fmt.Fprintf(os.Stderr, "  %s\n\n", os.Args[0])
	fmt.Fprintf(os.Stderr, "  # Enable the HTTP API and debug logging\n")
	fmt.Fprintf(os.Stderr, "  %s --server.http.enabled=true --logging.level=debug\n\n", os.Args[0])
	fmt.Fprintf(os.Stderr, "  # Expire unanswered challenges after one minute\n")
	fmt.Fprintf(os.Stderr, "  %s --challenges.eviction=ttl --challenges.ttl_seconds=60\n\n", os.Args[0])

	fmt.Fprintf(os.Stderr, "Environment Variables:\n")
	fmt.Fprintf(os.Stderr, "  ZKPAUTH_CONFIG_FILE   Config file path\n")
	fmt.Fprintf(os.Stderr, "  ZKPAUTH_CONFIG_DIR    Config directory\n")
	fmt.Fprintf(os.Stderr, "  ZKPAUTH_<SECTION>_<KEY>  Any config key, e.g. ZKPAUTH_SERVER_TCP_PORT\n")
}
